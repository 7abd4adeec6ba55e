// Package metrics 定义服务暴露的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 身份解析结果
const (
	IdentityNone    = "none"
	IdentityValid   = "valid"
	IdentityExpired = "expired"
	IdentityInvalid = "invalid"
	IdentityRevoked = "revoked"
)

// 对话轮次结果
const (
	TurnOK     = "ok"
	TurnFailed = "failed"
)

var (
	// IdentityResolutions 按结果统计身份 cookie 的解析情况，用于区分伪造和过期。
	IdentityResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatdesk",
		Name:      "identity_resolutions_total",
		Help:      "Identity cookie resolutions by outcome.",
	}, []string{"outcome"})

	// ChatTurns 统计对话轮次。
	ChatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatdesk",
		Name:      "chat_turns_total",
		Help:      "Chat turns by outcome.",
	}, []string{"outcome"})

	// HTTPRequests 按路由模板、方法和状态码统计请求。
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatdesk",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	// HTTPLatency 按路由模板统计请求耗时。
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chatdesk",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)
