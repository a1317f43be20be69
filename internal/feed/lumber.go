package feed

import (
	"context"
	"errors"
	"fmt"
	"gonetlist/internal/models"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	srv2 "github.com/elastic/go-lumber/server/v2"
)

// LumberSource accepts partial network updates from remote drones over the
// lumberjack v2 protocol. Each event is a JSON object with a bssid field and any
// number of protocol fields.
type LumberSource struct {
	listener net.Listener
	timeout  time.Duration
	out      chan<- models.Update
	log      *slog.Logger

	rejected atomic.Int64
}

// NewLumberSource listens on addr. Parsed updates are sent to out.
func NewLumberSource(addr string, timeout time.Duration, out chan<- models.Update, log *slog.Logger) (*LumberSource, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return NewLumberSourceWithListener(ln, timeout, out, log)
}

// NewLumberSourceWithListener serves on an existing listener.
func NewLumberSourceWithListener(ln net.Listener, timeout time.Duration, out chan<- models.Update, log *slog.Logger) (*LumberSource, error) {
	if out == nil {
		return nil, errors.New("lumber: nil update channel")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &LumberSource{listener: ln, timeout: timeout, out: out, log: log}, nil
}

// Addr is the listening address.
func (s *LumberSource) Addr() net.Addr {
	return s.listener.Addr()
}

// Rejected is the number of events that did not parse as updates.
func (s *LumberSource) Rejected() int64 {
	return s.rejected.Load()
}

// Run serves until ctx is done. Batches are acknowledged once their updates are
// queued.
func (s *LumberSource) Run(ctx context.Context) error {
	srv, err := srv2.NewWithListener(s.listener, srv2.Timeout(s.timeout))
	if err != nil {
		return fmt.Errorf("failed to create lumberjack server: %w", err)
	}
	s.log.Info("lumber listener started", "addr", s.listener.Addr())

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	for batch := range srv.ReceiveChan() {
		for _, evt := range batch.Events {
			m, ok := evt.(map[string]interface{})
			if !ok {
				s.rejected.Add(1)
				continue
			}
			u, err := models.ParseUpdate(m)
			if err != nil {
				s.rejected.Add(1)
				s.log.Debug("rejected update", "err", err)
				continue
			}
			select {
			case s.out <- u:
			case <-ctx.Done():
				batch.ACK()
				return nil
			}
		}
		batch.ACK()
	}
	s.log.Info("lumber listener stopped", "rejected", s.rejected.Load())
	return nil
}
