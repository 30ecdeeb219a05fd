// Package events — внутрипроцессная шина событий жизненного цикла задач.
// Оба воркера публикуют сюда, ops-сервер раздаёт подписчикам по /ws.
package events

import (
	"sync"
	"time"
)

const (
	TypeCreated  = "created"  // новая личка легла в очередь
	TypeMirrored = "mirrored" // отзеркалена в инбокс-группу
	TypeReady    = "ready"    // ответ владельца готов к отправке
	TypeSent     = "sent"     // защищённая отправка выполнена
	TypeFailed   = "failed"   // задача упала в ERROR
)

type Event struct {
	Type    string    `json:"type"`
	JobID   string    `json:"job_id,omitempty"`
	JobType string    `json:"job_type,omitempty"`
	Status  string    `json:"status,omitempty"`
	Sender  int64     `json:"sender_id,omitempty"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe возвращает канал событий и функцию отписки.
// Отписка закрывает канал; повторный вызов безопасен.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish рассылает событие без блокировки: медленный подписчик
// теряет события, но не тормозит воркеров.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
