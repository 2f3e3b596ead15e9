package xlive

import "errors"

var (
	// ErrNotConnected 尚未连接或已断开
	ErrNotConnected = errors.New("xlive: transport is not connected")

	// ErrInvalidURL URL 为空或协议不受支持
	ErrInvalidURL = errors.New("xlive: invalid url")

	// ErrSendRejected 熔断器打开，发送被快速拒绝
	ErrSendRejected = errors.New("xlive: send rejected by breaker")
)
