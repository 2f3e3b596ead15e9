// Package xlive 定义实时日志传输的最小契约，并提供 WebSocket 实现。
//
// [Transport] 只有三个操作：Connect、Disconnect、Send。调用方负责生命周期：
// 每个被分配的实例恰好经历一次 Connect/Disconnect 配对。传输层不做重试
// 或退避；[WebSocket] 的发送经过熔断器，对端持续失败时快速拒绝，
// 避免每条日志都等待写超时。
//
// # WebSocket
//
//	ws, err := xlive.NewWebSocket("ws://127.0.0.1:9000/logs",
//	    xlive.WithWriteTimeout(2*time.Second))
//	if err != nil {
//	    return err
//	}
//	if err := ws.Connect(ctx); err != nil {
//	    return err
//	}
//	defer ws.Disconnect()
//	_ = ws.Send(ctx, "hello")
//
// 每个连接在握手请求头 X-Session-ID 中携带一个 UUID，
// 便于接收端区分同一客户端的多次连接。每条日志行作为一个文本消息发送。
package xlive

//go:generate mockgen -source=transport.go -destination=mock_transport.go -package=xlive
