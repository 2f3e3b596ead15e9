package xfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirPerm 默认目录权限（所有者 rwx，组 r-x，其他无权限）
const DefaultDirPerm = 0750

// MkdirFunc 创建目录的函数签名，与 os.MkdirAll 一致。
// 用于让调用方把目录创建路由到自己的文件系统抽象上。
type MkdirFunc func(path string, perm os.FileMode) error

// EnsureDir 确保文件的父目录存在
//
// 使用默认权限 0750 创建目录。如果目录已存在，不会报错。
func EnsureDir(filename string) error {
	return EnsureDirWith(os.MkdirAll, filename, DefaultDirPerm)
}

// EnsureDirWith 使用指定的 mkdir 实现和权限确保文件的父目录存在
//
// 参数：
//   - mkdir: 目录创建函数，nil 时使用 os.MkdirAll
//   - filename: 文件路径（不是目录路径），不能为空，不能包含空字节
//   - perm: 目录权限，必须包含所有者执行位（0100），否则目录无法遍历
//
// 如果目录已存在，不会修改其权限。
func EnsureDirWith(mkdir MkdirFunc, filename string, perm os.FileMode) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if mkdir == nil {
		mkdir = os.MkdirAll
	}
	return mkdir(dir, perm)
}
