package xlive

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

var _ Transport = (*WebSocket)(nil)

var errPeerClosed = errors.New("xlive: connection closed by peer")

// WebSocket 基于 WebSocket 的 [Transport] 实现
//
// 每条日志行作为一个文本消息发送。方法并发安全，发送按调用顺序串行。
// 连接只写不读：后台读取只处理 ping/pong 与关闭帧，对端发来数据消息时连接被关闭。
type WebSocket struct {
	url  string
	opts options
	cb   *gobreaker.CircuitBreaker[struct{}]

	mu        sync.Mutex
	conn      *websocket.Conn
	peer      context.Context // CloseRead 返回，连接被对端关闭或读失败后结束
	sessionID string
	state     atomic.Int32
}

// NewWebSocket 创建 WebSocket 传输，不建立连接
//
// rawURL 必须是 ws、wss、http 或 https 协议。
func NewWebSocket(rawURL string, opts ...Option) (*WebSocket, error) {
	u, err := url.Parse(rawURL)
	if err != nil || rawURL == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, rawURL)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	w := &WebSocket{url: rawURL, opts: o}
	w.cb = gobreaker.NewCircuitBreaker[struct{}](w.breakerSettings())
	return w, nil
}

func (w *WebSocket) breakerSettings() gobreaker.Settings {
	threshold := w.opts.failureThreshold
	st := gobreaker.Settings{
		Name:        "xlive:" + w.url,
		MaxRequests: 1,
		Timeout:     w.opts.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	}
	if fn := w.opts.onStateChange; fn != nil {
		st.OnStateChange = func(_ string, from, to gobreaker.State) {
			fn(from.String(), to.String())
		}
	}
	return st
}

// Connect 建立 WebSocket 连接，已连接时返回 nil
//
// 每次连接生成新的会话 ID。
func (w *WebSocket) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn != nil && !w.reapLocked() {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, w.opts.dialTimeout)
	defer cancel()

	sessionID := uuid.NewString()
	header := w.opts.header.Clone()
	header.Set(HeaderSessionID, sessionID)

	conn, resp, err := websocket.Dial(dialCtx, w.url, &websocket.DialOptions{
		HTTPClient: w.opts.httpClient,
		HTTPHeader: header,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close() //nolint:errcheck // 握手响应体无内容
	}
	if err != nil {
		return fmt.Errorf("xlive: dial %s: %w", w.url, err)
	}

	// 只写连接也必须读取，否则不会回应 ping，也感知不到对端关闭
	w.peer = conn.CloseRead(context.Background())
	w.conn = conn
	w.sessionID = sessionID
	w.state.Store(int32(StateConnected))
	return nil
}

// Send 发送一条文本消息
//
// 未连接或对端已关闭时返回 [ErrNotConnected]；熔断器打开时返回 [ErrSendRejected]。
func (w *WebSocket) Send(ctx context.Context, msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return ErrNotConnected
	}
	_, err := w.cb.Execute(func() (struct{}, error) {
		// 对端关闭也计为一次发送失败
		if w.reapLocked() {
			return struct{}{}, errPeerClosed
		}
		writeCtx, cancel := context.WithTimeout(ctx, w.opts.writeTimeout)
		defer cancel()
		return struct{}{}, w.conn.Write(writeCtx, websocket.MessageText, []byte(msg))
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrSendRejected, err)
	}
	if errors.Is(err, errPeerClosed) {
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	if err != nil {
		return fmt.Errorf("xlive: send: %w", err)
	}
	return nil
}

// Disconnect 以正常关闭状态码断开连接，未连接时返回 nil
func (w *WebSocket) Disconnect() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return nil
	}
	if w.reapLocked() {
		return nil
	}
	conn := w.conn
	w.conn, w.peer = nil, nil
	w.state.Store(int32(StateDisconnected))

	err := conn.Close(websocket.StatusNormalClosure, "")
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		return fmt.Errorf("xlive: close: %w", err)
	}
	return nil
}

// reapLocked 对端已关闭时释放连接并置为断开，返回是否释放
func (w *WebSocket) reapLocked() bool {
	if w.conn == nil || w.peer.Err() == nil {
		return false
	}
	_ = w.conn.CloseNow() //nolint:errcheck // 连接已失效
	w.conn, w.peer = nil, nil
	w.state.Store(int32(StateDisconnected))
	return true
}

// State 返回连接状态，对端关闭后为 StateDisconnected
func (w *WebSocket) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reapLocked()
	return State(w.state.Load())
}

// SessionID 返回最近一次连接的会话 ID，从未连接时为空
func (w *WebSocket) SessionID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessionID
}

// BreakerState 返回发送熔断器的状态名（closed、half-open、open）
func (w *WebSocket) BreakerState() string {
	return w.cb.State().String()
}

// URL 返回目标地址
func (w *WebSocket) URL() string {
	return w.url
}
