// Package xconf 加载 YAML/JSON 配置文件，基于 koanf 实现。
//
// 定位是最小化的加载器：读取文件或字节数据、反序列化到结构体、
// 文件变更时自动重载。默认值与字段校验由调用方的配置结构体负责，
// 例如 xfanout.Config 先填充默认值再 Unmarshal，随后调用 Validate。
//
// # 格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// # 并发
//
// Reload 解析成功后才替换内部 koanf 实例，解析失败时保留旧配置。
// Client 返回的是快照，Reload 之后继续持有旧指针只会读到旧数据。
//
// # 监视
//
// Watch 监视配置文件所在目录（兼容编辑器先写临时文件再 rename 的保存方式），
// 在防抖窗口内合并多次变更，只触发一次 Reload 与回调。
// Stop 返回后不会再有回调执行。
package xconf
