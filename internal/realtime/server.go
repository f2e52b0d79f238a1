package realtime

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type Options struct {
	CookieName string
	// AllowedOrigins lists browser origins allowed to connect. "*" allows any;
	// empty falls back to same-host only.
	AllowedOrigins []string
	Rate           float64
	Burst          int
	SendBuffer     int
}

// Server upgrades HTTP requests to realtime sessions.
type Server struct {
	hub        *Hub
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	opts       Options
	log        *slog.Logger
}

func NewServer(hub *Hub, dispatcher *Dispatcher, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if opts.CookieName == "" {
		opts.CookieName = "token"
	}
	if opts.Rate <= 0 {
		opts.Rate = 20
	}
	if opts.Burst <= 0 {
		opts.Burst = 40
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}

	s := &Server{hub: hub, dispatcher: dispatcher, opts: opts, log: log}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := TokenFromRequest(r, s.opts.CookieName)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.log.Debug("websocket upgrade failed", slog.Any("err", err))
		return
	}

	sess := &Session{
		id:      uuid.NewString(),
		conn:    conn,
		token:   token,
		send:    make(chan []byte, s.opts.SendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(s.opts.Rate), s.opts.Burst),
	}
	sess.log = s.log.With(slog.String("session_id", sess.id))
	sess.log.Info("session opened", slog.String("remote", r.RemoteAddr))

	go sess.writeLoop()
	sess.readLoop(r.Context(), s.dispatcher)

	s.hub.Leave(sess)
	sess.Close()
	sess.log.Info("session closed")
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.opts.AllowedOrigins, "*") || slices.Contains(s.opts.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// TokenFromRequest reads the session token from the cookie, falling back to a
// bearer Authorization header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
