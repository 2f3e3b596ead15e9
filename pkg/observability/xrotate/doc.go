// Package xrotate 提供日志文件的增长约束。
//
// [Rotator] 接口定义了轮转器的核心行为（Write/Close/Rotate），所有实现并发安全。
//
// # 当前实现
//
//   - [OpenLines]: 按行数约束的单文件写入器。行数达到 [Policy.Trigger]
//     时把文件截断为最后 [Policy.Keep] 行，文件名保持不变
//   - [NewLumberjack]: 基于 lumberjack v2 的按大小轮转，用于诊断日志文件
//
// # 行数统计
//
// 以 '\n' 作为行边界。统计一段字节时从 1 开始，每遇到一个换行符加 1，
// 因此空文件也计为 1 行。打开文件时从尾部反向分块扫描一次得到初始行数，
// 之后每次追加只扫描新写入的字节。
//
// # 截断
//
// 截断读取整个文件，从尾部反向定位第 Keep 个换行符（忽略末尾的行终止符），
// 把其后的字节写入同目录的临时文件（后缀 [TruncateSuffix]），落盘后重命名覆盖原文件。
// 文件行数不足 Keep 时不做任何修改。
// 截断失败通过 OnError 回调上报，原文件不变，写入流继续进行，文件可能暂时超出上限；
// 此后再追加 Trigger-Keep 行才重试。
//
// # 文件系统
//
// 截断算法只依赖 [FS] 能力接口，默认实现 [OSFS] 直接使用 os 包。
// 测试或特殊平台可通过 [WithFS] 注入其他实现。
package xrotate
