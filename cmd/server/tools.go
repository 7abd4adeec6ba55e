package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"chatdesk-go/internal/config"
	"chatdesk-go/pkg/database"
	"chatdesk-go/pkg/log"
)

// runCheckConfig 输出驱动类型和隐藏密码后的 DSN，用于排查部署时的连接串问题。
func runCheckConfig(out io.Writer) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		return err
	}

	raw := cfg.Database.DSN
	trimmed := strings.TrimSpace(raw)
	fmt.Fprintf(out, "quote prefix:  %t\n", strings.HasPrefix(trimmed, `"`) || strings.HasPrefix(trimmed, "'"))
	fmt.Fprintf(out, "dsn:           %s\n", database.Redact(raw))
	if driver, _, err := database.ParseDSN(raw); err == nil {
		fmt.Fprintf(out, "driver:        %s\n", driver)
	}
	fmt.Fprintf(out, "redis:         %s/%d\n", cfg.Database.Redis.Addr, cfg.Database.Redis.DB)
	fmt.Fprintf(out, "minio enabled: %t\n", cfg.MinIO.Enabled)
	fmt.Fprintf(out, "kafka brokers: %q\n", cfg.Kafka.Brokers)
	fmt.Fprintf(out, "llm enabled:   %t\n", cfg.LLM.APIKey != "")

	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Fprintln(out, "config OK")
	return nil
}

// runImportDocs 扫描目录并通过标准上传流程登记文档。已登记的文件名跳过，可重复执行。
func runImportDocs(ctx context.Context, dir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	existing, err := a.documents.ListDocuments(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, d := range existing {
		known[d.Name] = true
	}

	var imported, skipped int
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if known[name] {
			log.Infof("import-docs: 已存在，跳过: %s", name)
			skipped++
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			log.Warnf("import-docs: 打开文件失败: %s, err=%v", p, err)
			return nil
		}
		defer f.Close()
		fi, err := f.Stat()
		if err != nil {
			log.Warnf("import-docs: 读取文件信息失败: %s, err=%v", p, err)
			return nil
		}

		mimeType := mime.TypeByExtension(filepath.Ext(name))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		doc, err := a.documents.UploadDocument(ctx, name, f, fi.Size(), mimeType)
		if err != nil {
			log.Warnf("import-docs: 登记失败: %s, err=%v", p, err)
			return nil
		}
		known[doc.Name] = true
		imported++
		log.Infof("import-docs: 导入完成: %s -> %s", name, doc.Path)
		return nil
	})
	if walkErr != nil {
		return walkErr
	}
	log.Infof("import-docs: imported=%d skipped=%d", imported, skipped)
	return nil
}
