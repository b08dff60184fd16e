package enlist

import (
	"github.com/qbixus/qtx-uow/internal"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

type Option func(*options)

// WithConfig задает настройки присоединения. По умолчанию DefaultConfig().
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger задает журнал. По умолчанию журнал отключен.
func WithLogger(logger *zap.Logger) Option {
	internal.Assert(logger != nil, "#args: logger")
	return func(o *options) { o.logger = logger }
}

// WithMeterProvider задает поставщика метрик. По умолчанию метрики не собираются.
func WithMeterProvider(mp metric.MeterProvider) Option {
	internal.Assert(mp != nil, "#args: mp")
	return func(o *options) { o.meterProvider = mp }
}

// WithTracerProvider задает поставщика трассировки. По умолчанию трассировка отключена.
func WithTracerProvider(tp trace.TracerProvider) Option {
	internal.Assert(tp != nil, "#args: tp")
	return func(o *options) { o.tracerProvider = tp }
}

// WithTransactionSource задает источник окружающей транзакции. По умолчанию ContextTransactionSource.
func WithTransactionSource(source AmbientTransactionSource) Option {
	internal.Assert(source != nil, "#args: source")
	return func(o *options) { o.source = source }
}

type options struct {
	cfg            Config
	logger         *zap.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	source         AmbientTransactionSource
}

func newOptions(opts []Option) options {
	o := options{
		cfg:            DefaultConfig(),
		logger:         zap.NewNop(),
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
		source:         ContextTransactionSource,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
