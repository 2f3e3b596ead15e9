package xfanout

import (
	"context"
	"fmt"
	"strings"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xlogdir"
	"github.com/omeyang/xlogkit/pkg/transport/xlive"
)

// Kind 目的地类型，同时是 Outputs 中的一个位。
type Kind uint8

const (
	KindStructured Kind = 1 << iota
	KindFile
	KindLive
)

// deliveryOrder 每条记录的固定分发顺序。
var deliveryOrder = [...]Kind{KindStructured, KindFile, KindLive}

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindFile:
		return "file"
	case KindLive:
		return "live"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Outputs 启用的目的地集合。
type Outputs uint8

// DefaultOutputs 结构化日志 + 文件。
const DefaultOutputs = Outputs(KindStructured | KindFile)

// Has 判断集合是否包含 k。
func (o Outputs) Has(k Kind) bool { return o&Outputs(k) != 0 }

// With 返回加入 k 后的集合。
func (o Outputs) With(k Kind) Outputs { return o | Outputs(k) }

// Without 返回移除 k 后的集合。
func (o Outputs) Without(k Kind) Outputs { return o &^ Outputs(k) }

// String 按分发顺序列出名称，如 "structured,file"；空集合为 "none"。
func (o Outputs) String() string {
	var names []string
	for _, k := range deliveryOrder {
		if o.Has(k) {
			names = append(names, k.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseOutputs 解析目的地名列表；"none" 或空列表得到空集合。
func ParseOutputs(names []string) (Outputs, error) {
	var o Outputs
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "structured":
			o = o.With(KindStructured)
		case "file":
			o = o.With(KindFile)
		case "live":
			o = o.With(KindLive)
		case "none", "":
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidOutput, n)
		}
	}
	return o, nil
}

// Destination 接收格式化后的记录。
// Dispatcher 只在 worker goroutine 中调用 Write。
type Destination interface {
	Kind() Kind
	Write(e Entry) error
}

// structuredDestination 以 Category 属性写入结构化日志。
type structuredDestination struct {
	logger xlog.Logger
}

// NewStructured 创建结构化日志目的地。
func NewStructured(l xlog.Logger) Destination {
	return structuredDestination{logger: l}
}

func (structuredDestination) Kind() Kind { return KindStructured }

func (d structuredDestination) Write(e Entry) error {
	d.logger.Log(context.Background(), e.Level.slogLevel(), e.Message, xlog.Category(e.Category))
	return nil
}

// fileDestination 追加到目录中的活动文件。
type fileDestination struct {
	files *xlogdir.Manager
}

// NewFile 创建文件目的地。
func NewFile(m *xlogdir.Manager) Destination {
	return fileDestination{files: m}
}

func (fileDestination) Kind() Kind { return KindFile }

func (d fileDestination) Write(e Entry) error {
	return d.files.Append(e.Line)
}

// liveDestination 通过实时传输发送整行文本。
type liveDestination struct {
	transport xlive.Transport
}

// NewLive 创建实时传输目的地，连接生命周期由调用方负责。
func NewLive(t xlive.Transport) Destination {
	return liveDestination{transport: t}
}

func (liveDestination) Kind() Kind { return KindLive }

func (d liveDestination) Write(e Entry) error {
	return d.transport.Send(context.Background(), e.Line)
}
