package xfanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/omeyang/xlogkit/pkg/config/xconf"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xlogdir"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
	"github.com/omeyang/xlogkit/pkg/transport/xlive"
)

// Config 描述一个 Dispatcher 及其目的地，可以从 YAML/JSON 文件加载。
//
//	enabled: true
//	outputs: [structured, file]
//	file:
//	  dir: /var/log/app
//	  layout: daily
//	  trigger_lines: 20000
//	  keep_lines: 10000
//	live:
//	  url: wss://logs.example.com/ingest
//	diagnostics:
//	  level: info
//	  format: json
type Config struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`

	// Outputs 为 nil 时使用 DefaultOutputs；空列表表示不输出。
	// 配置了 live.url 时会自动加入 live。
	Outputs []string `koanf:"outputs" json:"outputs" yaml:"outputs"`

	File        FileConfig        `koanf:"file" json:"file" yaml:"file"`
	Live        LiveConfig        `koanf:"live" json:"live" yaml:"live"`
	Diagnostics DiagnosticsConfig `koanf:"diagnostics" json:"diagnostics" yaml:"diagnostics"`
}

// FileConfig 文件目的地。Dir 为空时不创建文件目的地。
type FileConfig struct {
	Dir          string `koanf:"dir" json:"dir" yaml:"dir"`
	Layout       string `koanf:"layout" json:"layout" yaml:"layout"`
	Name         string `koanf:"name" json:"name" yaml:"name"`
	TriggerLines int    `koanf:"trigger_lines" json:"trigger_lines" yaml:"trigger_lines"`
	KeepLines    int    `koanf:"keep_lines" json:"keep_lines" yaml:"keep_lines"`
}

// LiveConfig 实时传输。URL 为空时不创建。
type LiveConfig struct {
	URL          string        `koanf:"url" json:"url" yaml:"url"`
	DialTimeout  time.Duration `koanf:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
}

// DiagnosticsConfig 结构化日志与诊断输出。File 为空时写 stderr。
type DiagnosticsConfig struct {
	Level      string `koanf:"level" json:"level" yaml:"level"`
	Format     string `koanf:"format" json:"format" yaml:"format"`
	File       string `koanf:"file" json:"file" yaml:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// DefaultConfig 返回默认配置：启用，结构化日志 + 文件，20000/10000 行策略。
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		File: FileConfig{
			Layout:       xlogdir.LayoutSingle.String(),
			Name:         xlogdir.DefaultFileName,
			TriggerLines: xrotate.DefaultPolicy.Trigger,
			KeepLines:    xrotate.DefaultPolicy.Keep,
		},
		Live: LiveConfig{
			DialTimeout:  xlive.DefaultDialTimeout,
			WriteTimeout: xlive.DefaultWriteTimeout,
		},
		Diagnostics: DiagnosticsConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  xrotate.DefaultMaxSizeMB,
			MaxBackups: xrotate.DefaultMaxBackups,
		},
	}
}

// Policy 返回文件行数策略。
func (c Config) Policy() xrotate.Policy {
	return xrotate.Policy{Trigger: c.File.TriggerLines, Keep: c.File.KeepLines}
}

// ResolveOutputs 解析输出集合。
func (c Config) ResolveOutputs() (Outputs, error) {
	out := DefaultOutputs
	if c.Outputs != nil {
		var err error
		if out, err = ParseOutputs(c.Outputs); err != nil {
			return 0, err
		}
	}
	if c.Live.URL != "" {
		out = out.With(KindLive)
	}
	return out, nil
}

// Validate 校验配置，错误包装 ErrInvalidConfig。
func (c Config) Validate() error {
	out, err := c.ResolveOutputs()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if out.Has(KindFile) && c.File.Dir == "" {
		return fmt.Errorf("%w: file output requires file.dir", ErrInvalidConfig)
	}
	if _, err := xlogdir.ParseLayout(c.File.Layout); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Live.DialTimeout < 0 || c.Live.WriteTimeout < 0 {
		return fmt.Errorf("%w: negative live timeout", ErrInvalidConfig)
	}
	if _, err := xlog.ParseLevel(c.Diagnostics.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(strings.TrimSpace(c.Diagnostics.Format)) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown diagnostics format %q", ErrInvalidConfig, c.Diagnostics.Format)
	}
	return nil
}

// LoadConfig 从文件加载配置：先填充默认值，再覆盖文件中出现的字段，最后校验。
func LoadConfig(path string) (Config, error) {
	src, err := xconf.New(path)
	if err != nil {
		return Config{}, err
	}
	return decodeConfig(src)
}

func decodeConfig(src *xconf.Config) (Config, error) {
	cfg := DefaultConfig()
	if err := src.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewFromConfig 按配置创建 Dispatcher 及其目的地。
// opts 在配置生成的选项之后应用，可以覆盖它们（例如测试时注入时钟）。
func NewFromConfig(cfg Config, opts ...Option) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out, err := cfg.ResolveOutputs()
	if err != nil {
		return nil, err
	}

	logger, cleanup, err := buildLogger(cfg.Diagnostics)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithStructured(logger),
		WithDiagnostics(logger.With(xlog.Component("xfanout"))),
		WithOutputs(out),
		WithEnabled(cfg.Enabled),
		withCloser(cleanup),
	}

	if cfg.File.Dir != "" {
		layout, _ := xlogdir.ParseLayout(cfg.File.Layout) // Validate 已检查
		files, err := xlogdir.New(cfg.File.Dir,
			xlogdir.WithLayout(layout),
			xlogdir.WithFileName(cfg.File.Name),
			xlogdir.WithPolicy(cfg.Policy()),
			xlogdir.WithDiagnostics(logger.With(xlog.Component("xlogdir"))),
		)
		if err != nil {
			return nil, errors.Join(err, cleanup())
		}
		base = append(base, WithFile(files))
	}

	if cfg.Live.URL != "" {
		ws, err := xlive.NewWebSocket(cfg.Live.URL,
			xlive.WithDialTimeout(cfg.Live.DialTimeout),
			xlive.WithWriteTimeout(cfg.Live.WriteTimeout),
		)
		if err != nil {
			return nil, errors.Join(err, cleanup())
		}
		base = append(base, WithTransport(ws))
	}

	return New(append(base, opts...)...), nil
}

func buildLogger(c DiagnosticsConfig) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().SetLevelString(c.Level).SetFormat(c.Format)
	if c.File != "" {
		b = b.SetRotation(c.File,
			xrotate.WithMaxSize(c.MaxSizeMB),
			xrotate.WithMaxBackups(c.MaxBackups),
		)
	}
	return b.Build()
}

// ApplyConfig 在运行时应用配置中可热更新的部分：启用状态、输出集合与行数策略。
// 目录、布局与传输地址的变化需要重新创建 Dispatcher。
//
// 已挂载的传输始终保留 KindLive，即使配置中没有 live.url；解除传输使用 SetTransport(nil)。
// 输出集合在 worker 上更新，排在已提交的记录之后。
func (d *Dispatcher) ApplyConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	out, err := cfg.ResolveOutputs()
	if err != nil {
		return err
	}
	if d.files != nil && d.files.Policy() != cfg.Policy() {
		if err := d.SetPolicy(cfg.Policy()); err != nil {
			return err
		}
	}
	return d.call(func() error {
		if d.transport != nil {
			out = out.With(KindLive)
		}
		d.Configure(out, cfg.Enabled)
		return nil
	})
}

// WatchConfig 监视配置文件，变更后调用 ApplyConfig。
// 加载或校验失败时保留当前设置，并报告到诊断 Logger。
func WatchConfig(path string, d *Dispatcher, opts ...xconf.WatchOption) (*xconf.Watcher, error) {
	src, err := xconf.New(path)
	if err != nil {
		return nil, err
	}
	return xconf.Watch(src, func(c *xconf.Config, err error) {
		if err == nil {
			var cfg Config
			if cfg, err = decodeConfig(c); err == nil {
				err = d.ApplyConfig(cfg)
			}
		}
		if err != nil {
			d.opts.diag.Warn(context.Background(), "xfanout: config reload failed",
				xlog.Path(path), xlog.Err(err))
			return
		}
		d.opts.diag.Info(context.Background(), "xfanout: config applied",
			xlog.Path(path), slog.String("outputs", d.Outputs().String()))
	}, opts...)
}
