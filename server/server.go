// Package server receives OSC packets over a datagram transport and routes
// the messages in them to pattern-keyed handlers.
package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/oscwire/osc"
)

// Handler is something that can handle OSC messages. The view it receives
// borrows the datagram buffer and is only valid until Handle returns.
type Handler interface {
	Handle(*osc.View) error
}

// HandlerFunc converts a function into a Handler.
func HandlerFunc(f func(*osc.View) error) Handler {
	return handlerFunc(f)
}

type handlerFunc func(*osc.View) error

func (h handlerFunc) Handle(v *osc.View) error {
	return h(v)
}

// Listener reads datagrams from a connection and dispatches every message
// in them, bundles included, to the registered handlers whose pattern
// matches the message address. Handlers run synchronously on the worker
// that read the datagram, in registration order, so views never outlive
// the buffer they borrow.
type Listener struct {
	conn     net.PacketConn
	handlers []handler
	// workers is the number of datagrams handled in parallel; each
	// worker owns its own read buffer.
	workers int
	log     zerolog.Logger
}

type handler struct {
	raw string
	pat osc.Pattern
	h   Handler
}

func NewListener(conn net.PacketConn, workers int) *Listener {
	if workers < 1 {
		workers = 1
	}
	return &Listener{
		conn:    conn,
		workers: workers,
		log:     zerolog.Nop(),
	}
}

// SetLogger routes the listener's diagnostics somewhere. The default
// discards them.
func (l *Listener) SetLogger(log zerolog.Logger) {
	l.log = log
}

// Handle registers a handler for messages whose address matches the
// pattern. It must not be called once Serve is running.
func (l *Listener) Handle(pattern string, h Handler) error {
	p, err := osc.ParsePattern(pattern)
	if err != nil {
		return err
	}
	l.handlers = append(l.handlers, handler{raw: pattern, pat: p, h: h})
	return nil
}

// dispatch routes an individual message to each handler whose pattern
// matches its address.
func (l *Listener) dispatch(v *osc.View) {
	matched := 0
	for _, h := range l.handlers {
		if !v.Match(h.pat) {
			continue
		}
		matched++
		if err := h.h.Handle(v); err != nil {
			l.log.Warn().
				Str("pattern", h.raw).
				Bytes("address", v.Address()).
				Err(err).
				Msg("handler failed")
		}
	}
	if matched == 0 {
		l.log.Debug().Bytes("address", v.Address()).Msg("no handler matched")
	}
}

// Serve reads OSC packets and dispatches them until the context is
// cancelled or the connection fails. Datagrams larger than
// osc.MaxMessageSize are truncated to it.
func (l *Listener) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Unblock any worker stuck in ReadFrom once we're done.
		<-gctx.Done()
		l.conn.SetReadDeadline(time.Now())
		return gctx.Err()
	})
	for i := 0; i < l.workers; i++ {
		g.Go(func() error {
			buf := make([]byte, osc.MaxMessageSize)
			for {
				n, addr, err := l.conn.ReadFrom(buf)
				if n > 0 {
					if derr := osc.Dispatch(buf[:n], l.dispatch); derr != nil {
						l.log.Debug().
							Stringer("from", addr).
							Err(derr).
							Msg("dropping bad datagram")
					}
				}
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					var nerr net.Error
					if errors.As(err, &nerr) && nerr.Timeout() {
						continue
					}
					return err
				}
			}
		})
	}
	return g.Wait()
}
