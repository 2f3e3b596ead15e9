package xrotate

import (
	"io"
	"os"
)

// File 截断算法所需的文件能力
type File interface {
	io.Writer
	io.ReaderAt
	io.Closer
	Stat() (os.FileInfo, error)
	Sync() error
}

// FS 文件系统能力接口
//
// 行数约束算法只针对该接口编写一次，不同平台或测试通过替换实现适配。
// Rename 必须在同一目录内原子地替换目标文件。
type FS interface {
	MkdirAll(path string, perm os.FileMode) error
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
}

// OSFS 基于 os 包的 [FS] 实现
type OSFS struct{}

// MkdirAll 实现 FS
func (OSFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// OpenFile 实现 FS
func (OSFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	//#nosec G304 -- 路径已经过 xfile.SanitizePath 校验
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Rename 实现 FS
func (OSFS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Remove 实现 FS
func (OSFS) Remove(name string) error {
	return os.Remove(name)
}
