package stdbot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EgorLis/Shieldbot/internal/events"
	"github.com/EgorLis/Shieldbot/internal/store"
)

type StdBot struct {
	bot     *gotgbot.Bot
	updater *ext.Updater
	st      *store.Store
	hub     *events.Hub
	log     *zap.SugaredLogger

	ownerID  int64
	workerID string

	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(token string, ownerID int64, st *store.Store, hub *events.Hub, log *zap.SugaredLogger) (*StdBot, error) {
	b, err := gotgbot.NewBot(token, nil)
	if err != nil {
		return nil, fmt.Errorf("std-бот: %w", err)
	}
	return &StdBot{
		bot:      b,
		st:       st,
		hub:      hub,
		log:      log,
		ownerID:  ownerID,
		workerID: "std-" + uuid.NewString()[:8],
	}, nil
}

func (sb *StdBot) Start() error {
	sb.mu.Lock()
	if sb.stopCh != nil {
		sb.mu.Unlock()
		return errors.New("уже запущен")
	}
	stop := make(chan struct{})
	sb.stopCh = stop
	sb.mu.Unlock()

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *gotgbot.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			sb.log.Errorw("обработчик апдейта", "err", err)
			return ext.DispatcherActionNoop
		},
	})
	dispatcher.AddHandler(handlers.NewCommand("start", sb.ownerOnly(sb.cmdStart)))
	dispatcher.AddHandler(handlers.NewCommand("status", sb.ownerOnly(sb.cmdStatus)))
	dispatcher.AddHandler(handlers.NewCommand("set_group", sb.ownerOnly(sb.cmdSetGroup)))
	dispatcher.AddHandler(handlers.NewCommand("set_session", sb.ownerOnly(sb.cmdSetSession)))
	dispatcher.AddHandler(handlers.NewCommand("send_protected", sb.ownerOnly(sb.cmdSendProtected)))
	// реплаи владельца на зеркала в инбокс-группе
	dispatcher.AddHandler(handlers.NewMessage(message.All, sb.onGroupReply))

	sb.updater = ext.NewUpdater(dispatcher, nil)
	if err := sb.updater.StartPolling(sb.bot, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout:     9,
			RequestOpts: &gotgbot.RequestOpts{Timeout: 10 * time.Second},
		},
	}); err != nil {
		return fmt.Errorf("polling: %w", err)
	}
	sb.log.Infow("std-бот запущен", "username", sb.bot.User.Username)

	sb.notifyMissingSetup()

	sb.wg.Add(1)
	go sb.mirrorLoop(stop)
	return nil
}

func (sb *StdBot) Stop() {
	sb.mu.Lock()
	ch := sb.stopCh
	sb.stopCh = nil
	sb.mu.Unlock()
	if ch == nil {
		return
	}
	close(ch) // повторный Stop() ничего не делает
	if sb.updater != nil {
		_ = sb.updater.Stop()
	}
	sb.wg.Wait()
}

// Run — Start + жизнь до отмены контекста.
func (sb *StdBot) Run(ctx context.Context) error {
	if err := sb.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	sb.Stop()
	return nil
}

// ownerOnly молча отбрасывает всё не от владельца.
func (sb *StdBot) ownerOnly(h handlers.Response) handlers.Response {
	return func(b *gotgbot.Bot, ctx *ext.Context) error {
		if ctx.EffectiveUser == nil || ctx.EffectiveUser.Id != sb.ownerID {
			return nil
		}
		return h(b, ctx)
	}
}

// notifyMissingSetup подсказывает владельцу, чего не хватает в БД.
func (sb *StdBot) notifyMissingSetup() {
	ctx, cancel := dbCtx()
	defer cancel()
	if _, ok := sb.st.ConfigString(ctx, store.KeySessionToken); !ok {
		_, _ = sb.bot.SendMessage(sb.ownerID,
			"⚙️ Токен отправителя не найден. Задай его здесь: /set_session <token>.", nil)
	}
	if _, ok := sb.st.ConfigInt64(ctx, store.KeyInboxGroupID); !ok {
		_, _ = sb.bot.SendMessage(sb.ownerID,
			"⚙️ Инбокс-группа не задана. Выполни /set_group в нужной группе.", nil)
	}
}

// dbCtx — короткий контекст для одиночных операций с БД из обработчиков.
func dbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
