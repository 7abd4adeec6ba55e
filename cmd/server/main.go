// Package main 是应用程序的入口点。
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "chatdesk",
		Short:         "chatdesk 聊天服务后端",
		SilenceUsage:  true,
		SilenceErrors: true,
		// 不带子命令时等同于 serve
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "配置文件路径")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "启动 HTTP 服务",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe()
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "创建或更新数据库表结构",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate()
			},
		},
		&cobra.Command{
			Use:   "check-config",
			Short: "校验配置并输出数据库连接信息（密码已隐藏）",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCheckConfig(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "import-docs DIR",
			Short: "把目录下的文件登记为文档，已登记的路径跳过",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runImportDocs(cmd.Context(), args[0])
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
