// Package xpool 提供串行任务执行器。
//
// [Serial] 是一个泛型的单 worker 执行器：任意数量的生产者 goroutine
// 非阻塞地提交任务，唯一的 worker 按提交顺序（FIFO）逐个处理。
// 支持以下特性：
//   - 泛型任务类型
//   - 无界队列：Submit 永不阻塞、永不丢弃
//   - 严格 FIFO：同一生产者先提交的任务先执行
//   - 优雅关闭（Stop 处理完队列中的剩余任务后返回）
//   - panic 恢复（单个任务失败不影响后续任务，记录日志）
//   - Len() 暴露当前积压长度，便于监控
//
// # 注意事项
//
//   - 队列无上限：极端日志量下内存会随积压增长。这是有意保留的行为，
//     调用方应通过 Len() 监控积压，而不是依赖执行器丢弃任务
//   - Stop 不可在 handler 内调用，否则会死锁
//   - Stop 之后的 Submit 返回 [ErrStopped]
//
// # 示例
//
//	s, err := xpool.NewSerial(func(task func()) { task() })
//	if err != nil {
//	    return err
//	}
//	defer s.Stop()
//	_ = s.Submit(func() { fmt.Println("hello") })
package xpool
