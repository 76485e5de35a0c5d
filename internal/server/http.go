package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// DefaultHTTPAddr is the default listen address of the streamable-http
// transport.
const DefaultHTTPAddr = "127.0.0.1:8080"

// MCPEndpoint is the path of the streamable-http MCP endpoint.
const MCPEndpoint = "/mcp"

// HTTPServer exposes an MCP server over streamable-http next to the health
// endpoints.
type HTTPServer struct {
	mcpServer *mcpserver.MCPServer
	sc        *ServerContext
	health    *HealthChecker

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
}

// NewHTTPServer creates an HTTPServer. health may be nil.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext, health *HealthChecker) *HTTPServer {
	if health == nil {
		health = NewHealthChecker(sc, nil)
	}
	return &HTTPServer{mcpServer: mcpServer, sc: sc, health: health}
}

// Handler returns the routed and instrumented handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.health.RegisterHealthEndpoints(mux)
	mux.Handle(MCPEndpoint, mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpoint),
	))
	return s.instrumentationMiddleware(mux)
}

// Start listens on addr, which must be a loopback address, and serves until
// Shutdown. ready, when not nil, is closed once the listener is bound.
func (s *HTTPServer) Start(addr string, ready chan<- struct{}) error {
	if err := validateLoopbackAddr(addr); err != nil {
		return err
	}

	s.mu.Lock()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	if ready != nil {
		close(ready)
	}
	s.sc.Logger().Info("serving MCP over streamable-http",
		slog.String("addr", ln.Addr().String()), slog.String("endpoint", MCPEndpoint))
	return srv.Serve(ln)
}

// Addr returns the bound address after Start.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// instrumentationMiddleware records request count and latency per path.
func (s *HTTPServer) instrumentationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.sc == nil || s.sc.Metrics() == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		s.sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// validateLoopbackAddr refuses listen addresses reachable from other
// hosts. The transport is unauthenticated and acts with the user's Gmail
// credential.
func validateLoopbackAddr(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("refusing to listen on %q: the HTTP transport is unauthenticated and only binds to loopback addresses (127.0.0.1, ::1, localhost)", addr)
	}
	return nil
}
