package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricOpts holds options for creating metrics
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter wraps an OTel counter for easier use
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new counter metric
func NewCounter(opts MetricOpts) (*Counter, error) {
	counter, err := GetMeter().Int64Counter(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Counter{counter: counter}, nil
}

// Add increments the counter by the given value
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by 1
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// Histogram wraps an OTel histogram for easier use
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a new histogram metric
func NewHistogram(opts MetricOpts) (*Histogram, error) {
	histogram, err := GetMeter().Float64Histogram(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: histogram}, nil
}

// Record records a value in the histogram
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	if h == nil {
		return
	}
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// ClientMetrics groups the instruments recorded by the API client and the
// lifecycles built on it. A zero value records nothing.
type ClientMetrics struct {
	Requests             *Counter
	RequestDuration      *Histogram
	SessionInvalidations *Counter
	CheckIns             *Counter
	CheckOuts            *Counter
	PaymentsConfirmed    *Counter
}

// NewClientMetrics registers the client instruments on the global meter
func NewClientMetrics() (*ClientMetrics, error) {
	var (
		m   ClientMetrics
		err error
	)
	if m.Requests, err = NewCounter(MetricOpts{
		Name:        "ecclesia_api_requests_total",
		Description: "REST calls issued, by method, route and outcome",
		Unit:        "1",
	}); err != nil {
		return nil, err
	}
	if m.RequestDuration, err = NewHistogram(MetricOpts{
		Name:        "ecclesia_api_request_duration_seconds",
		Description: "REST call latency",
		Unit:        "s",
	}); err != nil {
		return nil, err
	}
	if m.SessionInvalidations, err = NewCounter(MetricOpts{
		Name:        "ecclesia_session_invalidations_total",
		Description: "Sessions dropped after a 401 or 403",
		Unit:        "1",
	}); err != nil {
		return nil, err
	}
	if m.CheckIns, err = NewCounter(MetricOpts{
		Name:        "ecclesia_kids_checkins_total",
		Description: "Kids check-ins created",
		Unit:        "1",
	}); err != nil {
		return nil, err
	}
	if m.CheckOuts, err = NewCounter(MetricOpts{
		Name:        "ecclesia_kids_checkouts_total",
		Description: "Kids check-outs completed",
		Unit:        "1",
	}); err != nil {
		return nil, err
	}
	if m.PaymentsConfirmed, err = NewCounter(MetricOpts{
		Name:        "ecclesia_registration_payments_total",
		Description: "Registrations moved to paid, by amount type",
		Unit:        "1",
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

// Common metric attribute keys
const (
	AttrMethod     = "http.method"
	AttrRoute      = "http.route"
	AttrStatusCode = "http.status_code"
	AttrErrorKind  = "error.kind"
	AttrTenantID   = "tenant.id"
	AttrEventID    = "event.id"
	AttrResource   = "resource"
	AttrRegStatus  = "registration.status"
	AttrAmountType = "registration.amount_type"
	AttrGateway    = "payment.gateway"
	AttrCommand    = "cli.command"
)

func MethodAttr(method string) attribute.KeyValue {
	return attribute.String(AttrMethod, method)
}

func RouteAttr(route string) attribute.KeyValue {
	return attribute.String(AttrRoute, route)
}

func StatusCodeAttr(code int) attribute.KeyValue {
	return attribute.Int(AttrStatusCode, code)
}

func ErrorKindAttr(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}

func TenantIDAttr(tenantID int64) attribute.KeyValue {
	return attribute.Int64(AttrTenantID, tenantID)
}

func EventIDAttr(eventID int64) attribute.KeyValue {
	return attribute.Int64(AttrEventID, eventID)
}

func ResourceAttr(name string) attribute.KeyValue {
	return attribute.String(AttrResource, name)
}

func RegistrationStatusAttr(status string) attribute.KeyValue {
	return attribute.String(AttrRegStatus, status)
}

func AmountTypeAttr(amountType string) attribute.KeyValue {
	return attribute.String(AttrAmountType, amountType)
}

func PaymentGatewayAttr(name string) attribute.KeyValue {
	return attribute.String(AttrGateway, name)
}
