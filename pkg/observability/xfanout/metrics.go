package xfanout

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "xfanout"

	metricNameRecords        = "xfanout.records.total"
	metricNameDeliveryErrors = "xfanout.delivery.errors.total"
	metricNameQueueLength    = "xfanout.queue.length"

	attrLevel       = "level"
	attrDestination = "destination"
)

// metrics Dispatcher 指标，nil 时所有方法为空操作。
type metrics struct {
	records        metric.Int64Counter
	deliveryErrors metric.Int64Counter
	registration   metric.Registration
}

// newMetrics 在 provider 为 nil 时返回 nil。
func newMetrics(provider metric.MeterProvider, queueLen func() int) (*metrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(meterName)

	m := &metrics{}
	var err error
	if m.records, err = meter.Int64Counter(metricNameRecords,
		metric.WithDescription("已分发的日志记录数"), metric.WithUnit("{record}")); err != nil {
		return nil, err
	}
	if m.deliveryErrors, err = meter.Int64Counter(metricNameDeliveryErrors,
		metric.WithDescription("目的地写入失败次数"), metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	queue, err := meter.Int64ObservableGauge(metricNameQueueLength,
		metric.WithDescription("等待分发的任务数"), metric.WithUnit("{task}"))
	if err != nil {
		return nil, err
	}
	if m.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(queue, int64(queueLen()))
		return nil
	}, queue); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metrics) recordDelivered(l Level) {
	if m == nil {
		return
	}
	m.records.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(attrLevel, l.String())))
}

func (m *metrics) recordError(k Kind) {
	if m == nil {
		return
	}
	m.deliveryErrors.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(attrDestination, k.String())))
}

func (m *metrics) close() error {
	if m == nil || m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}
