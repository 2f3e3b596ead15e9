package xlogdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
	"github.com/omeyang/xlogkit/pkg/util/xfile"
)

// FileInfo 日志目录中的一个文件
type FileInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"`
	ModTime   time.Time `json:"mod_time"`
	IsCurrent bool      `json:"is_current"`
}

// List 列出日志目录中的普通文件，按文件名排序
//
// 目录不存在时返回空列表。
func (m *Manager) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("xlogdir: list %s: %w", m.dir, err)
	}

	active := m.ActivePath()
	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasSuffix(e.Name(), xrotate.TruncateSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// 列举期间被删除
			continue
		}
		path := filepath.Join(m.dir, e.Name())
		files = append(files, FileInfo{
			Name:      e.Name(),
			Size:      info.Size(),
			Path:      path,
			ModTime:   info.ModTime(),
			IsCurrent: path == active,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Read 读取日志目录中名为 name 的文件
func (m *Manager) Read(name string) ([]byte, error) {
	path, err := xfile.JoinFileName(m.dir, name)
	if err != nil {
		return nil, err
	}
	//#nosec G304 -- 路径已限制在日志目录内
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlogdir: read %s: %w", name, err)
	}
	return data, nil
}

// Delete 删除日志目录中名为 name 的历史文件
//
// 活动文件不能删除，返回 [ErrActiveFile]。
func (m *Manager) Delete(name string) error {
	path, err := xfile.JoinFileName(m.dir, name)
	if err != nil {
		return err
	}

	// 持锁期间活动文件不会切换
	m.mu.Lock()
	defer m.mu.Unlock()

	if path == m.activePathLocked() {
		return fmt.Errorf("%w: %s", ErrActiveFile, name)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("xlogdir: delete %s: %w", name, err)
	}
	return nil
}
