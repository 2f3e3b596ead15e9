// Package xlogdir 管理一个日志目录：选择活动文件、写入横幅、
// 以及列出、读取、删除历史文件。
//
// 目录中同一时刻最多只有一个活动文件，其余文件都是只读的历史。
// 活动文件由 [Layout] 决定：
//
//   - [LayoutSingle]: 固定文件名（默认 log.txt）
//   - [LayoutDaily]: 按本地日期命名（20060102.txt），跨天后切换到新文件
//
// 活动文件在第一次 Append 时才打开，写入由 [xrotate.LineRotator] 完成，
// 因此同样受行数策略约束。打开失败只上报一次，此后文件目的地不可用，
// Append 返回 [ErrUnavailable]，直到 SetPolicy 或 Reopen。
//
// # 横幅
//
// 打开空文件时写入：
//
//	----------
//	File location: <path>
//
//	Timestamp: <ts>
//	----------
//	<空行>
//
// 打开已有内容的文件时只写入 Timestamp 段，同样以空行结束；关闭时追加 File closed 段。
//
// Manager 的方法并发安全。
package xlogdir
