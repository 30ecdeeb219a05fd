package userbot

import (
	"context"
	"fmt"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EgorLis/Shieldbot/internal/content"
	"github.com/EgorLis/Shieldbot/internal/events"
	"github.com/EgorLis/Shieldbot/internal/store"
)

type UserBot struct {
	st  *store.Store
	hub *events.Hub
	log *zap.SugaredLogger

	workerID string
}

func New(st *store.Store, hub *events.Hub, log *zap.SugaredLogger) *UserBot {
	return &UserBot{
		st:       st,
		hub:      hub,
		log:      log,
		workerID: "user-" + uuid.NewString()[:8],
	}
}

// Run живёт до отмены контекста: ждёт SESSION_TOKEN в БД, поднимает
// бота-отправителя, при падении пересоздаёт его через 5 секунд —
// токен каждый раз перечитывается из БД (его могли заменить на лету).
func (ub *UserBot) Run(ctx context.Context) error {
	for {
		token, ok := ub.waitForToken(ctx)
		if !ok {
			return nil
		}
		if err := ub.runSession(ctx, token); err != nil {
			ub.log.Errorw("user-клиент упал", "err", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
		}
	}
}

func (ub *UserBot) waitForToken(ctx context.Context) (string, bool) {
	t := time.NewTicker(3 * time.Second)
	defer t.Stop()
	for {
		c, cancel := context.WithTimeout(ctx, 5*time.Second)
		token, ok := ub.st.ConfigString(c, store.KeySessionToken)
		cancel()
		if ok {
			return token, true
		}
		ub.log.Info("жду SESSION_TOKEN в БД… задай его через /set_session в std-боте")
		select {
		case <-ctx.Done():
			return "", false
		case <-t.C:
		}
	}
}

func (ub *UserBot) runSession(ctx context.Context, token string) error {
	b, err := gotgbot.NewBot(token, nil)
	if err != nil {
		return fmt.Errorf("бот-отправитель: %w", err)
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(bot *gotgbot.Bot, ectx *ext.Context, err error) ext.DispatcherAction {
			ub.log.Errorw("обработчик апдейта", "err", err)
			return ext.DispatcherActionNoop
		},
	})
	dispatcher.AddHandler(handlers.NewMessage(message.All, ub.onDM))

	updater := ext.NewUpdater(dispatcher, nil)
	if err := updater.StartPolling(b, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout:     9,
			RequestOpts: &gotgbot.RequestOpts{Timeout: 10 * time.Second},
		},
	}); err != nil {
		return fmt.Errorf("polling: %w", err)
	}
	defer func() { _ = updater.Stop() }()
	ub.log.Infow("user-клиент запущен", "username", b.User.Username)

	return ub.sendLoop(ctx, b)
}

// onDM: каждая входящая личка от человека становится задачей NEW_DM.
func (ub *UserBot) onDM(b *gotgbot.Bot, ectx *ext.Context) error {
	msg := ectx.EffectiveMessage
	if msg == nil || msg.Chat.Type != "private" {
		return nil
	}
	if msg.From == nil || msg.From.IsBot {
		return nil
	}

	job := store.NewDMJob(msg.From.Id, msg.Chat.Id, msg.MessageId, content.FromMessage(msg))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := ub.st.InsertJob(ctx, job)
	if err != nil {
		return err
	}
	ub.hub.Publish(events.Event{
		Type: events.TypeCreated, JobID: id.Hex(), JobType: job.Type,
		Status: job.Status, Sender: job.SenderID,
	})
	ub.log.Infow("новая личка в очереди", "job", id.Hex(), "sender", job.SenderID)
	return nil
}
