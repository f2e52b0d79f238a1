package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var errRateLimited = errors.New("too many messages, slow down")

// Session is one websocket connection. Reads and request handling happen on
// the goroutine running readLoop, writes on writeLoop; everything else talks
// to the session through its send queue.
type Session struct {
	id      string
	conn    *websocket.Conn
	token   string
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	log     *slog.Logger
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Token() string { return s.token }

func (s *Session) Deliver(cart domain.ResolvedCart) bool {
	frame, err := encode(EventCartUpdated, nil, cart)
	if err != nil {
		s.log.Error("encode cart update failed", slog.Any("err", err))
		return true
	}
	return s.enqueue(frame)
}

// Close stops the write loop, which then closes the connection.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Session) enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *Session) readLoop(ctx context.Context, d *Dispatcher) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read failed", slog.Any("err", err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil || env.Event == "" {
			frame, _ := encode(EventError, nil, &ErrorBody{Code: CodeBadRequest, Message: "malformed frame"})
			if !s.enqueue(frame) {
				return
			}
			continue
		}

		if !s.limiter.Allow() {
			frame := d.reply(s, env, nil, errRateLimited)
			if !s.enqueue(frame) {
				return
			}
			continue
		}

		if frame := d.Handle(ctx, s, env); frame != nil && !s.enqueue(frame) {
			s.log.Warn("send queue full, closing session")
			return
		}
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
