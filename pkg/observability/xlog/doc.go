// Package xlog 基于 log/slog 的结构化日志库。
//
// 在本模块中承担两个角色：结构化输出目的地的底层 sink，
// 以及各组件内部错误的诊断通道。
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，后续 Set 操作被跳过）。
// Builder 方法：SetLevel、SetLevelString、SetFormat、SetOutput、SetRotation、
// SetOnError、SetReplaceAttr。Build 返回 Logger 和释放资源的 cleanup 函数。
//
//	logger, cleanup, err := xlog.New().
//	    SetLevel(xlog.LevelDebug).
//	    SetRotation("/var/log/app/diag.log", xrotate.WithMaxSize(10)).
//	    Build()
//
// # 全局 Logger
//
//   - [Default]: 获取全局 Logger（惰性初始化：stderr、Info 级别、text 格式）
//   - [SetDefault]: 替换全局 Logger（nil 会被忽略）
//   - [ResetDefault]: 重置为未初始化状态（仅用于测试）
//   - [Debug]、[Info]、[Warn]、[Error]: 全局便利函数
//
// [Discard] 返回丢弃一切输出的 Logger，用作诊断通道的默认值。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)。
// [ParseLevel] 支持 debug/info/warn/warning/error，大小写不敏感。
//
// # 便捷属性
//
// [Err]、[Component]、[Category]、[Operation]、[Path]、[Count]、[Duration]。
package xlog
