package interceptors

import (
	"context"
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc"

	"crawler-middleware/internal/logging"
)

// MethodMetrics aggregates calls to one gRPC method
type MethodMetrics struct {
	Method          string        `json:"method"`
	RequestCount    int64         `json:"request_count"`
	ErrorCount      int64         `json:"error_count"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
}

// MetricsCollector counts calls per method
type MetricsCollector struct {
	mu      sync.Mutex
	methods map[string]*MethodMetrics
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{methods: make(map[string]*MethodMetrics)}
}

// Record adds one call to method
func (c *MetricsCollector) Record(method string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.methods[method]
	if !ok {
		m = &MethodMetrics{Method: method}
		c.methods[method] = m
	}

	m.RequestCount++
	m.TotalDuration += duration
	m.AverageDuration = m.TotalDuration / time.Duration(m.RequestCount)
	if err != nil {
		m.ErrorCount++
	}
}

// Snapshot returns a copy of every method's metrics ordered by method name
func (c *MetricsCollector) Snapshot() []MethodMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]MethodMetrics, 0, len(c.methods))
	for _, m := range c.methods {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out
}

// LogSummary writes one entry per method
func (c *MetricsCollector) LogSummary(logger logging.Logger) {
	for _, m := range c.Snapshot() {
		logger.Info("gRPC method metrics summary", map[string]interface{}{
			"method":              m.Method,
			"request_count":       m.RequestCount,
			"error_count":         m.ErrorCount,
			"average_duration_ms": m.AverageDuration.Milliseconds(),
		})
	}
}

// MetricsInterceptor records every unary call into c
func MetricsInterceptor(c *MetricsCollector) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		startTime := time.Now()
		resp, err := handler(ctx, req)
		c.Record(info.FullMethod, time.Since(startTime), err)
		return resp, err
	}
}

// StreamMetricsInterceptor records every stream into c
func StreamMetricsInterceptor(c *MetricsCollector) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		startTime := time.Now()
		err := handler(srv, ss)
		c.Record(info.FullMethod, time.Since(startTime), err)
		return err
	}
}
