package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xlogkit/pkg/observability/xfanout"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xlogdir"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
	"github.com/omeyang/xlogkit/pkg/transport/xlive"
)

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func createCommands() []*cli.Command {
	return []*cli.Command{
		createListCommand(),
		createReadCommand(),
		createDeleteCommand(),
		createClearCommand(),
		createEmitCommand(),
		createWatchCommand(),
	}
}

func createListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "列出日志文件",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "以 JSON 输出"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(m)
			return cmdList(m, cmd.Root().Writer, cmd.Bool("json"))
		},
	}
}

func createReadCommand() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Aliases:   []string{"cat"},
		Usage:     "输出日志文件内容",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tail", Aliases: []string{"n"}, Usage: "只输出最后 N 行，0 表示全部"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, err := requireName(cmd)
			if err != nil {
				return err
			}
			if cmd.Int("tail") < 0 {
				return newUsageError("--tail 不能为负数")
			}
			m, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(m)
			return cmdRead(m, cmd.Root().Writer, name, cmd.Int("tail"))
		},
	}
}

func createDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "删除历史日志文件",
		ArgsUsage: "<name>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, err := requireName(cmd)
			if err != nil {
				return err
			}
			m, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(m)
			if err := m.Delete(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "deleted %s\n", name)
			return nil
		},
	}
}

func createClearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "清理活动文件，只保留最后 keep 行",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := openManager(cmd)
			if err != nil {
				return err
			}
			if err := m.Rotate(); err != nil {
				closeManager(m)
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "cleared %s (%d lines kept)\n", m.ActivePath(), m.Lines())
			return m.Close()
		},
	}
}

func createEmitCommand() *cli.Command {
	return &cli.Command{
		Name:  "emit",
		Usage: "多个生产者并发写入测试日志",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "producers", Aliases: []string{"p"}, Usage: "并发生产者数", Value: 4},
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "每个生产者写入的条数", Value: 1000},
			&cli.StringFlag{Name: "category", Usage: "日志分类", Value: xfanout.CategoryDefault},
			&cli.StringFlag{Name: "live", Usage: "同时发送到实时传输（ws/wss 地址）"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			producers, count := cmd.Int("producers"), cmd.Int("count")
			if producers <= 0 || count < 0 {
				return newUsageError("--producers 必须为正数，--count 不能为负数")
			}
			m, err := openManager(cmd)
			if err != nil {
				return err
			}
			return cmdEmit(ctx, m, emitOptions{
				producers: producers,
				count:     count,
				category:  cmd.String("category"),
				liveURL:   cmd.String("live"),
				out:       cmd.Root().Writer,
				diag:      newDiag(cmd.Root().ErrWriter),
			})
		},
	}
}

func createWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "持续输出活动文件的新内容，Ctrl+C 退出",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "from-start", Usage: "先输出已有内容"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(m)
			return cmdWatch(ctx, m, cmd.Root().Writer, cmd.Bool("from-start"))
		},
	}
}

func requireName(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", newUsageError("%s 需要一个文件名参数", cmd.Name)
	}
	return cmd.Args().First(), nil
}

// openManager 按 --config 或全局选项创建目录管理器。
func openManager(cmd *cli.Command) (*xlogdir.Manager, error) {
	dir, layoutName, name := cmd.String("dir"), cmd.String("layout"), cmd.String("name")
	policy := xrotate.Policy{Trigger: cmd.Int("trigger"), Keep: cmd.Int("keep")}

	if path := cmd.String("config"); path != "" {
		cfg, err := xfanout.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		if cfg.File.Dir == "" {
			return nil, newUsageError("配置文件 %s 缺少 file.dir", path)
		}
		dir, layoutName, name, policy = cfg.File.Dir, cfg.File.Layout, cfg.File.Name, cfg.Policy()
	}

	layout, err := xlogdir.ParseLayout(layoutName)
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	if err := policy.Validate(); err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	return xlogdir.New(dir,
		xlogdir.WithLayout(layout),
		xlogdir.WithFileName(name),
		xlogdir.WithPolicy(policy),
		xlogdir.WithDiagnostics(newDiag(cmd.Root().ErrWriter)),
	)
}

// closeManager 只读命令不写入，Close 不会产生横幅。
func closeManager(m *xlogdir.Manager) {
	_ = m.Close() //nolint:errcheck // 未打开过活动文件
}

func newDiag(w io.Writer) xlog.Logger {
	if w == nil {
		w = os.Stderr
	}
	l, _, err := xlog.New().SetOutput(w).SetLevel(xlog.LevelWarn).Build()
	if err != nil {
		return xlog.Discard()
	}
	return l
}

func cmdList(m *xlogdir.Manager, w io.Writer, asJSON bool) error {
	files, err := m.List()
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if files == nil {
			files = []xlogdir.FileInfo{}
		}
		return enc.Encode(files)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED\tACTIVE")
	for _, f := range files {
		active := ""
		if f.IsCurrent {
			active = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", f.Name, f.Size, f.ModTime.Format(time.DateTime), active)
	}
	return tw.Flush()
}

func cmdRead(m *xlogdir.Manager, w io.Writer, name string, tail int) error {
	data, err := m.Read(name)
	if err != nil {
		return err
	}
	if tail > 0 {
		data = tailLines(data, tail)
	}
	_, err = w.Write(data)
	return err
}

// tailLines 返回最后 n 行，末尾换行不计为一行。
func tailLines(data []byte, n int) []byte {
	end := len(data)
	if end > 0 && data[end-1] == '\n' {
		end--
	}
	for i := end - 1; i >= 0; i-- {
		if data[i] == '\n' {
			n--
			if n == 0 {
				return data[i+1:]
			}
		}
	}
	return data
}

type emitOptions struct {
	producers int
	count     int
	category  string
	liveURL   string
	out       io.Writer
	diag      xlog.Logger
}

// cmdEmit 多个生产者并发写入 "producer=<p> seq=<i>" 形式的记录。
func cmdEmit(ctx context.Context, m *xlogdir.Manager, o emitOptions) (err error) {
	d := xfanout.New(
		xfanout.WithFile(m),
		xfanout.WithOutputs(xfanout.Outputs(xfanout.KindFile)),
		xfanout.WithDiagnostics(o.diag),
	)
	defer func() {
		err = errors.Join(err, d.Close())
	}()

	if o.liveURL != "" {
		ws, err := xlive.NewWebSocket(o.liveURL)
		if err != nil {
			return &usageError{msg: err.Error()}
		}
		if err := d.SetTransport(ws); err != nil {
			return err
		}
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < o.producers; p++ {
		g.Go(func() error {
			for i := 0; i < o.count; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				d.Info(o.category, fmt.Sprintf("producer=%d seq=%d", p, i))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		return err
	}
	fmt.Fprintf(o.out, "emitted %d records to %s in %s (%d lines, policy %s)\n",
		o.producers*o.count, m.ActivePath(), time.Since(start).Round(time.Millisecond), m.Lines(), m.Policy())
	return nil
}

// cmdWatch 监视目录，活动文件增长时输出新增内容；文件被截断后从头输出保留部分。
func cmdWatch(ctx context.Context, m *xlogdir.Manager, w io.Writer, fromStart bool) error {
	if err := os.MkdirAll(m.Dir(), 0o750); err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }()
	if err := fsw.Add(m.Dir()); err != nil {
		return err
	}

	path := m.ActivePath()
	var offset int64
	if !fromStart {
		if info, err := os.Stat(path); err == nil {
			offset = info.Size()
		}
	}
	if offset, err = copyFrom(path, offset, w); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if current := m.ActivePath(); current != path {
				path, offset = current, 0
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if offset, err = copyFrom(path, offset, w); err != nil {
				return err
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// copyFrom 从 offset 开始输出到文件末尾，返回新的偏移。
func copyFrom(path string, offset int64, w io.Writer) (int64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return offset, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return offset, err
	}
	if info.Size() < offset {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset, err
	}
	n, err := io.Copy(w, f)
	return offset + n, err
}
