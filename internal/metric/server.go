// Copyright 2024 The MaxMQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metric

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/gsalomao/maxmq-client/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default values used by the Server.
const (
	DefaultAddress = ":8889"
	DefaultPath    = "/metrics"
)

// Server represents an HTTP server responsible for exporting the client metrics.
type Server struct {
	gatherer prometheus.Gatherer
	log      *logger.Logger
	srv      *http.Server
	mu       sync.Mutex
	addr     net.Addr
	address  string
	path     string
	profile  bool
}

// NewServer creates a metrics Server instance.
func NewServer(log *logger.Logger, opts ...Option) *Server {
	s := &Server{
		gatherer: prometheus.DefaultGatherer,
		log:      log,
		address:  DefaultAddress,
		path:     DefaultPath,
	}

	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
		ErrorLog: stdErrorLogger{log: log},
	}))

	if s.profile {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	s.srv = &http.Server{
		Addr:         s.address,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

// Serve starts the server and blocks until the server is shut down or closed.
func (s *Server) Serve(ctx context.Context) error {
	lsn, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		s.log.Error(ctx, "Failed to start metrics listener",
			logger.Str("address", s.address),
			logger.Str("path", s.path),
			logger.Err(err),
		)
		return err
	}

	s.mu.Lock()
	s.addr = lsn.Addr()
	s.mu.Unlock()

	s.log.Info(ctx, "Metrics server listening on "+lsn.Addr().String(),
		logger.Str("address", s.address),
		logger.Str("path", s.path),
		logger.Bool("profile", s.profile),
	)

	err = s.srv.Serve(lsn)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.log.Debug(ctx, "Metrics server stopped with success")
	return nil
}

// Addr returns the address the server is listening to, or nil when the server is not serving.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Close immediately closes all active listeners and any connections.
func (s *Server) Close() error {
	return s.srv.Close()
}

type stdErrorLogger struct {
	log *logger.Logger
}

// Println logs the errors reported by the metrics handler.
func (l stdErrorLogger) Println(v ...any) {
	l.log.Error(context.Background(), "Failed to serve metrics", logger.Any("error", v))
}
