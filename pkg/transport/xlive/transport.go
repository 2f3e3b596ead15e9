package xlive

import "context"

// Transport 实时日志传输契约
type Transport interface {
	// Connect 建立连接。已连接时返回 nil。
	Connect(ctx context.Context) error

	// Disconnect 断开连接。未连接时返回 nil。
	Disconnect() error

	// Send 发送一条日志行
	Send(ctx context.Context, msg string) error
}

// State 连接状态
type State int32

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}
