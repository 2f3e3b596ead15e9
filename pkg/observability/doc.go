// Package observability 提供日志相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，用于组件自身的诊断输出
//   - xrotate: 日志文件轮转，按大小（lumberjack）或按行数截断
//   - xlogdir: 日志目录管理，按天或单文件命名，负责横幅与文件维护
//   - xfanout: 日志分发器，把一条记录按固定顺序投递到结构化、文件、实时三个目的地
//
// 设计原则：
//   - 生产者永不阻塞，所有投递在单个 worker 上串行执行
//   - 单个目的地失败不影响其他目的地
package observability
