package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"crawler-middleware/internal/logging"
	"crawler-middleware/pkg/utils"
)

// requestIDFromMetadata returns the x-request-id sent by the caller, or a new one
func requestIDFromMetadata(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return utils.GenerateRequestID()
}

// LoggingInterceptor logs every unary call with its status code and latency
func LoggingInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		startTime := time.Now()
		resp, err := handler(ctx, req)

		fields := map[string]interface{}{
			"request_id":  requestIDFromMetadata(ctx),
			"method":      info.FullMethod,
			"latency_ms":  time.Since(startTime).Milliseconds(),
			"status_code": status.Code(err).String(),
		}
		if err != nil {
			logger.WithError(err).Error("gRPC request failed", fields)
		} else {
			logger.Debug("gRPC request completed", fields)
		}

		return resp, err
	}
}

// StreamLoggingInterceptor logs stream lifetimes
func StreamLoggingInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		startTime := time.Now()
		err := handler(srv, ss)

		fields := map[string]interface{}{
			"request_id":  requestIDFromMetadata(ss.Context()),
			"method":      info.FullMethod,
			"duration_ms": time.Since(startTime).Milliseconds(),
			"status_code": status.Code(err).String(),
		}
		if err != nil {
			logger.WithError(err).Error("gRPC stream failed", fields)
		} else {
			logger.Debug("gRPC stream completed", fields)
		}

		return err
	}
}
