package chunky

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/shoestringhttp/chunkyhttp/chunky/internal/stream"
	"github.com/shoestringhttp/chunkyhttp/internal/obs"
	"golang.org/x/time/rate"
)

// Server is the minimal dispatching server (C8): it accepts
// connections, drives one Transaction at a time per connection, routes
// by exact match on the request path with an empty-string fallback,
// and decides keep-alive per spec's §4.8.
type Server struct {
	// MaxHeaderBytes bounds the request head buffer (spec's I5). Zero
	// selects the stream package's default (10 MiB).
	MaxHeaderBytes int

	// Limiter, if set, gates the accept loop itself: Serve calls
	// Limiter.Wait(ctx) before every Accept. This is additive to
	// spec's dispatcher surface — an accept-rate control the original
	// leaves to the transport layer.
	Limiter *rate.Limiter

	mu     sync.RWMutex
	routes map[string]Handler

	logger obs.Logger
	meter  obs.Meter
	events *Events
}

// NewServer returns a ready-to-use Server with no routes registered.
func NewServer() *Server {
	return &Server{
		routes: make(map[string]Handler),
		logger: obs.NopLogger{},
		meter:  obs.NopMeter{},
		events: NewEvents(),
	}
}

// Handle registers h for exact-match requests to path. An empty path
// registers the fallback handler invoked when no exact match exists.
// Registration serializes with dispatch on the same mutex, resolving
// spec's §9 Open Question (c): a later Handle call for the same path
// replaces the prior entry, and a dispatch in flight always observes
// either the old or the new handler, never a partial update.
func (s *Server) Handle(path string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = h
}

// HandleFunc adapts f and registers it like Handle.
func (s *Server) HandleFunc(path string, f HandlerFunc) {
	s.Handle(path, f)
}

// SetLogger installs the logger sink used for per-connection and
// per-request diagnostics.
func (s *Server) SetLogger(l obs.Logger) {
	if l == nil {
		l = obs.NopLogger{}
	}
	s.logger = l
}

// SetMeter installs the metrics sink.
func (s *Server) SetMeter(m obs.Meter) {
	if m == nil {
		m = obs.NopMeter{}
	}
	s.meter = m
}

// Events returns the server's lifecycle event bus (C10).
func (s *Server) Events() *Events { return s.events }

func (s *Server) handlerFor(path string) Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.routes[path]; ok {
		return h
	}
	if h, ok := s.routes[""]; ok {
		return h
	}
	return HandlerFunc(func(w ResponseWriter, r *Request) {
		w.WriteHeader(404)
	})
}

// Serve runs the accept loop over ln until ctx is cancelled or Accept
// returns a fatal error. Per spec's §7 policy, a system-category
// accept error (or ctx cancellation, the Go analogue of
// OperationAborted) stops accepting; other per-connection setup
// problems cannot occur past Accept, since connection handling runs on
// its own goroutine and reports failures through the event bus, not
// back to Serve.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				// Wait fails at once when no token can ever be granted
				// (e.g. rate 0 with the burst spent); the accept loop then
				// stays starved until ctx is cancelled.
				<-ctx.Done()
				return ctx.Err()
			}
		}
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Temporary() {
				s.logger.Logf(obs.Warn, "accept: temporary error: %v", err)
				continue
			}
			return err
		}
		go s.serveConn(ctx, conn)
	}
}

// serveConn implements spec's §4.8 per-connection loop: build a
// transaction, force the head parse, route, invoke the handler, decide
// keep-alive, and repeat until the connection should close.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	st := stream.New(stream.NewNetConnTransport(conn), s.MaxHeaderBytes)
	st.BindContext(ctx)
	s.events.emit(EventConnAccepted, st.Peer())
	s.logger.Logf(obs.Debug, "peer=%s connection accepted", st.Peer())

	// A cancelled ctx must abort an in-flight read/write, not just stop
	// future Accepts (spec's OperationAborted rule). Context cancellation
	// alone does not interrupt a blocked syscall, so the watcher forces
	// it with a deadline in the past; Stream.BindContext then reports the
	// resulting i/o-timeout error as ctx.Err() instead of raw timeout.
	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetDeadline(time.Now())
		case <-connDone:
		}
	}()

	served := 0
	for {
		tx := NewTransaction(st, ctx)

		req, err := tx.Request()
		if err != nil {
			s.meter.Counter("chunky.request.parse_errors", 1, obs.Label{Key: "err", Value: err.Error()})
			s.logger.Logf(obs.Warn, "peer=%s head parse error: %v", st.Peer(), err)
			s.events.emit(EventRequestFailed, st.Peer(), err)
			break
		}

		start := time.Now()
		h := s.handlerFor(req.Path)
		rw := tx.ResponseWriter()
		h.ServeHTTP(rw, req)

		finishErr := tx.Finish()
		latency := time.Since(start)
		s.meter.Histogram("chunky.request.duration_ms", float64(latency.Milliseconds()), obs.Label{Key: "path", Value: req.Path})
		s.meter.Counter("chunky.request.total", 1, obs.Label{Key: "path", Value: req.Path})

		if finishErr != nil {
			s.logger.Logf(obs.Warn, "peer=%s id=%s finish error: %v", st.Peer(), req.ID, finishErr)
			s.events.emit(EventRequestFailed, req.ID, finishErr)
			break
		}
		served++
		s.events.emit(EventRequestServed, req.ID, tx.Status())

		if !tx.KeepAlive() {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	s.events.emit(EventConnClosed, st.Peer(), served)
}
