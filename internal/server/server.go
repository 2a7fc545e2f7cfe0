package server

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"strings"

	"github.com/dxcccii/taskdesk/internal/protocol"
)

// SessionFactory builds a fresh dispatcher session per connection.
type SessionFactory func() *protocol.Session

// Server is the line-oriented TCP binding: one goroutine per connection,
// one response cycle per inbound line.
type Server struct {
	addr       string
	hub        *Hub
	newSession SessionFactory
}

func New(port int, hub *Hub, newSession SessionFactory) *Server {
	return &Server{
		addr:       fmt.Sprintf(":%d", port),
		hub:        hub,
		newSession: newSession,
	}
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	slog.Info("server listening", slog.String("addr", s.addr))

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("unexpected panic in session",
				slog.Any("error", r),
				slog.String("stacktrace", string(debug.Stack())),
			)
		}
	}()

	remote := conn.RemoteAddr().String()
	slog.Info("client connected", slog.String("remote", remote))

	lw := &lineWriter{w: bufio.NewWriter(conn)}
	session := s.newSession()
	attached := false

	defer func() {
		if attached {
			s.hub.detach(session.ClientID(), lw)
		}
		session.Close()
		slog.Info("client disconnected",
			slog.String("remote", remote),
			slog.String("client_id", session.ClientID()),
		)
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		for _, resp := range session.Handle(ctx, line) {
			if err := lw.WriteLine(resp); err != nil {
				slog.Warn("write failed, dropping session",
					slog.String("remote", remote),
					slog.Any("error", err),
				)
				return
			}
		}

		// once identified, the session can receive pushed events
		if id := session.ClientID(); id != "" && !attached {
			s.hub.attach(id, lw)
			attached = true
		}

		if session.Closed() {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		slog.Warn("read failed", slog.String("remote", remote), slog.Any("error", err))
	}
}
