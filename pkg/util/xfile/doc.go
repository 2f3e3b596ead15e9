// Package xfile 提供日志目录相关的文件系统工具。
//
// 本包服务于日志文件的创建和按名称管理（列出、读取、删除），
// 所有函数都考虑了路径穿越防护和跨平台兼容性。
//
// # 路径安全函数对比
//
//   - SanitizePath: 检查路径格式，防止相对路径穿越，不限制目标目录
//   - SafeJoin: 确保结果路径始终在指定的 base 目录内
//   - JoinFileName: 只接受 base 目录下的直接子文件名（日志文件管理场景）
//
// 路径穿越检测使用精确的路径段匹配，只有 ".." 作为独立路径段时才被视为穿越：
//
//	SafeJoin("/var/log", "..config")      // 合法 -> "/var/log/..config"
//	SafeJoin("/var/log", "../etc/passwd") // 拒绝 -> 路径穿越
//
// # 空字节防护
//
// 所有函数均拒绝包含空字节（\x00）的路径。Linux 内核在 VFS 层
// 会在空字节处截断路径，导致 Go 代码与操作系统实际操作的路径不一致。
//
// # 错误处理
//
// 预定义错误变量支持 [errors.Is] 判断：
//
//	_, err := xfile.JoinFileName("/var/log/app", "../passwd")
//	if errors.Is(err, xfile.ErrPathTraversal) {
//	    // 处理路径穿越
//	}
package xfile
