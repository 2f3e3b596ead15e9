// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件路径工具，路径规范化、安全拼接、目录创建
//   - xpool: 泛型串行执行器，单 worker、无界 FIFO、优雅关闭
//
// 设计原则：
//   - 安全处理路径遍历
//   - 跨平台兼容
package util
