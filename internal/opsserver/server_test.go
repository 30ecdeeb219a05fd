package opsserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EgorLis/Shieldbot/internal/events"
)

type fakeStore struct {
	pingErr error
	counts  map[string]int64
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) CountByStatus(context.Context) (map[string]int64, error) {
	return f.counts, nil
}

func newTestServer(st Store, hub *events.Hub) *Server {
	return New(":0", "std", st, hub, zap.NewNop().Sugar())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeStore{}, events.NewHub())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthzDBDown(t *testing.T) {
	s := newTestServer(&fakeStore{pingErr: errors.New("no reachable servers")}, events.NewHub())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStatusz(t *testing.T) {
	st := &fakeStore{counts: map[string]int64{"NEW_DM": 3, "COMPLETED": 7}}
	s := newTestServer(st, events.NewHub())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/statusz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Role string           `json:"role"`
		Jobs map[string]int64 `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "std", body.Role)
	assert.Equal(t, int64(3), body.Jobs["NEW_DM"])
	assert.Equal(t, int64(7), body.Jobs["COMPLETED"])
}

func TestWSDeliversEvents(t *testing.T) {
	hub := events.NewHub()
	s := newTestServer(&fakeStore{}, hub)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// подписка оформляется внутри хендлера — публикуем, пока она не появится
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		tick := time.NewTicker(50 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				hub.Publish(events.Event{Type: events.TypeSent, JobID: "j-1"})
			}
		}
	}()

	var ev events.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, events.TypeSent, ev.Type)
	assert.Equal(t, "j-1", ev.JobID)
}
