package xlive

import (
	"net/http"
	"time"
)

const (
	// DefaultDialTimeout 默认握手超时
	DefaultDialTimeout = 5 * time.Second

	// DefaultWriteTimeout 默认单条消息写超时
	DefaultWriteTimeout = 2 * time.Second

	// DefaultFailureThreshold 连续失败多少次后熔断
	DefaultFailureThreshold = 5

	// DefaultBreakerTimeout 熔断后多久进入半开状态
	DefaultBreakerTimeout = 30 * time.Second

	// HeaderSessionID 握手请求头中的会话 ID
	HeaderSessionID = "X-Session-ID"
)

type options struct {
	dialTimeout      time.Duration
	writeTimeout     time.Duration
	failureThreshold uint32
	breakerTimeout   time.Duration
	header           http.Header
	httpClient       *http.Client
	onStateChange    func(from, to string)
}

func defaultOptions() options {
	return options{
		dialTimeout:      DefaultDialTimeout,
		writeTimeout:     DefaultWriteTimeout,
		failureThreshold: DefaultFailureThreshold,
		breakerTimeout:   DefaultBreakerTimeout,
		header:           http.Header{},
	}
}

// Option WebSocket 配置选项
type Option func(*options)

// WithDialTimeout 设置握手超时，非正值忽略
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.dialTimeout = d
		}
	}
}

// WithWriteTimeout 设置单条消息写超时，非正值忽略
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// WithFailureThreshold 设置连续失败多少次后熔断，0 忽略
func WithFailureThreshold(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.failureThreshold = n
		}
	}
}

// WithBreakerTimeout 设置熔断后进入半开状态的等待时间，非正值忽略
func WithBreakerTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.breakerTimeout = d
		}
	}
}

// WithHeader 添加握手请求头
func WithHeader(key, value string) Option {
	return func(o *options) {
		o.header.Add(key, value)
	}
}

// WithHTTPClient 设置握手使用的 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithOnBreakerStateChange 设置熔断器状态变化回调
func WithOnBreakerStateChange(fn func(from, to string)) Option {
	return func(o *options) {
		o.onStateChange = fn
	}
}
