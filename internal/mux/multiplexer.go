package mux

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soheilhy/cmux"

	"crawler-middleware/internal/config"
	"crawler-middleware/internal/grpc/server"
	"crawler-middleware/internal/logging"
)

const storeWatchInterval = 15 * time.Second

// Multiplexer serves HTTP/1 and gRPC on one listener
type Multiplexer struct {
	cfg    *config.Config
	logger logging.Logger

	grpcServer *server.Server
	httpServer *http.Server

	mux      cmux.CMux
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMultiplexer wires httpHandler and the gRPC health server behind one port
func NewMultiplexer(cfg *config.Config, pinger server.Pinger, httpHandler http.Handler) *Multiplexer {
	ctx, cancel := context.WithCancel(context.Background())
	logger := logging.GetGlobalLogger().WithField("component", "mux")

	return &Multiplexer{
		cfg:        cfg,
		logger:     logger,
		grpcServer: server.NewServer(pinger, nil),
		ctx:        ctx,
		cancel:     cancel,
		httpServer: &http.Server{
			Handler:           httpHandler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}
}

// Start listens on address and begins serving both protocols
func (m *Multiplexer) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return m.Serve(listener)
}

// Serve begins serving both protocols on an existing listener
func (m *Multiplexer) Serve(listener net.Listener) error {
	m.listener = listener
	m.mux = cmux.New(listener)

	grpcListener := m.mux.Match(cmux.HTTP2HeaderField("content-type", "application/grpc"))
	httpListener := m.mux.Match(cmux.HTTP1Fast())

	address := listener.Addr().String()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.grpcServer.Start(grpcListener); err != nil && !isClosedErr(err) {
			m.logger.WithError(err).Error("gRPC server failed")
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("Starting HTTP server", map[string]interface{}{"address": address})
		if err := m.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) && !isClosedErr(err) {
			m.logger.WithError(err).Error("HTTP server failed")
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.mux.Serve(); err != nil && !isClosedErr(err) {
			m.logger.WithError(err).Error("Multiplexer failed")
		}
	}()

	m.grpcServer.CheckStore(m.ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.grpcServer.WatchStore(m.ctx, storeWatchInterval)
	}()

	m.logger.Info("Multiplexer started successfully", map[string]interface{}{"address": address})
	return nil
}

// Stop drains both servers within the configured shutdown timeout
func (m *Multiplexer) Stop() error {
	m.logger.Info("Stopping multiplexer...")
	m.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), m.cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := m.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	m.grpcServer.Stop(shutdownCtx)

	if m.listener != nil {
		if err := m.listener.Close(); err != nil && !isClosedErr(err) {
			errs = append(errs, fmt.Errorf("close listener: %w", err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Multiplexer stopped gracefully")
	case <-shutdownCtx.Done():
		m.logger.Warn("Multiplexer shutdown timed out")
	}

	return errors.Join(errs...)
}

// GRPCServer returns the gRPC server instance
func (m *Multiplexer) GRPCServer() *server.Server {
	return m.grpcServer
}

// Address returns the address the multiplexer is listening on
func (m *Multiplexer) Address() string {
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return ""
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, cmux.ErrListenerClosed) || errors.Is(err, cmux.ErrServerClosed)
}
