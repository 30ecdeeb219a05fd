// Package opsserver — то, что слушает задекларированный порт 8080:
// /healthz (пинг БД), /statusz (сводка очереди), /ws (живой поток
// событий задач через websocket).
package opsserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/EgorLis/Shieldbot/internal/events"
)

// Store — то, что нужно ops-серверу от хранилища.
type Store interface {
	Ping(ctx context.Context) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type Server struct {
	addr string
	role string
	st   Store
	hub  *events.Hub
	log  *zap.SugaredLogger

	upgrader websocket.Upgrader
}

func New(addr, role string, st Store, hub *events.Hub, log *zap.SugaredLogger) *Server {
	return &Server{
		addr: addr,
		role: role,
		st:   st,
		hub:  hub,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/statusz", s.handleStatusz)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Run поднимает HTTP и живёт до отмены контекста.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Infow("ops-сервер запущен", "addr", s.addr, "role", s.role)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.st.Ping(ctx); err != nil {
		http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatusz(w http.ResponseWriter, r *http.Request) {
	counts, err := s.st.CountByStatus(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"role": s.role,
		"jobs": counts,
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("ws upgrade", "err", err)
		return
	}
	s.feed(conn)
}

// feed гонит события задач в сокет. Запись — с дедлайнами, живость
// держим пингами; входящие кадры не нужны, но читать обязаны, иначе
// не увидим close от клиента.
func (s *Server) feed(conn *websocket.Conn) {
	defer conn.Close()

	sub, cancel := s.hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(10 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"),
				time.Now().Add(5*time.Second))
		}
	}
}
