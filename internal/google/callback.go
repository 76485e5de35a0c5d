package google

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/teemow/gmail-mcp/internal/logging"
)

// CallbackPath is where the provider redirects after consent.
const CallbackPath = "/callback"

var (
	// ErrStateMismatch means the redirect carried a state we did not issue.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrCallbackTimeout means no redirect arrived in time.
	ErrCallbackTimeout = errors.New("timed out waiting for the authorization callback")
)

// CallbackServer receives the authorization code on a loopback listener.
// It serves exactly one successful redirect.
type CallbackServer struct {
	mu            sync.Mutex
	expectedState string
	logger        logging.Logger

	codeChan chan string
	errChan  chan error

	server   *http.Server
	listener net.Listener
}

// NewCallbackServer creates a server that accepts redirects carrying expectedState.
func NewCallbackServer(expectedState string, logger logging.Logger) *CallbackServer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CallbackServer{
		expectedState: expectedState,
		logger:        logger,
		codeChan:      make(chan string, 1),
		errChan:       make(chan error, 1),
	}
}

// Start listens on 127.0.0.1 with a kernel-assigned port.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start callback listener: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, s.handleCallback)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.deliverErr(fmt.Errorf("callback server failed: %w", err))
		}
	}()

	s.logger.Debug("OAuth callback listener started", "addr", listener.Addr().String())
	return nil
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if errParam := q.Get("error"); errParam != "" {
		desc := q.Get("error_description")
		s.deliverErr(fmt.Errorf("authorization denied: %s %s", errParam, desc))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, callbackPage("Authorization failed", errParam))
		return
	}

	if q.Get("state") != s.expectedState {
		s.deliverErr(ErrStateMismatch)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, callbackPage("Authorization failed", "invalid state parameter"))
		return
	}

	code := q.Get("code")
	if code == "" {
		s.deliverErr(errors.New("no authorization code received"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, callbackPage("Authorization failed", "no code received"))
		return
	}

	select {
	case s.codeChan <- code:
	default:
	}
	_, _ = fmt.Fprint(w, callbackPage("Authorization successful", "You can close this window and return to your assistant."))
}

func (s *CallbackServer) deliverErr(err error) {
	select {
	case s.errChan <- err:
	default:
	}
}

// WaitForCode blocks until a code or an error arrives, timeout elapses or
// ctx is done.
func (s *CallbackServer) WaitForCode(ctx context.Context, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case code := <-s.codeChan:
		return code, nil
	case err := <-s.errChan:
		return "", err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrCallbackTimeout
		}
		return "", ctx.Err()
	}
}

// Stop shuts the listener down.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// RedirectURL is the redirect_uri to register with the consent request.
func (s *CallbackServer) RedirectURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String() + CallbackPath
}

func callbackPage(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>gmail-mcp</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 15vh;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, html.EscapeString(title), html.EscapeString(message))
}
