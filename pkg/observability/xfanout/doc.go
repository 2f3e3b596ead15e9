// Package xfanout 把一条日志记录按固定顺序分发到多个目的地。
//
// 目的地有三种：结构化日志（xlog.Logger）、行数受限的本地文件
// （xlogdir.Manager）以及可选的实时传输（xlive.Transport）。
// 所有生产者的调用被串行化到同一个 FIFO worker 上：时间戳在调用方 goroutine
// 生成，格式化只做一次，然后依次写入 Structured、File、Live。
// 单个目的地的错误或 panic 会被捕获并报告到诊断 Logger，不影响其他目的地。
//
// 行格式：
//
//	2024-01-02 03:04:05.0000 +0000 [WARNING][network]⚠️ retry later
//
// # 用法
//
//	files, _ := xlogdir.New("/var/log/app", xlogdir.WithLayout(xlogdir.LayoutDaily))
//	d := xfanout.New(xfanout.WithFile(files))
//	defer d.Close()
//
//	d.Info(xfanout.CategoryDefault, "started", "pid", os.Getpid())
//	_ = d.SetTransport(ws) // 连接新的实时传输，断开旧的
//
// 队列无界，积压可以通过 QueueLen 和 xfanout.queue.length 指标观察。
package xfanout
