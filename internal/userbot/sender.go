package userbot

import (
	"context"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"

	"github.com/EgorLis/Shieldbot/internal/content"
	"github.com/EgorLis/Shieldbot/internal/events"
	"github.com/EgorLis/Shieldbot/internal/store"
)

// sendLoop разбирает очередь READY_TO_SEND и выполняет защищённые
// отправки. Живёт до отмены контекста.
func (ub *UserBot) sendLoop(ctx context.Context, b *gotgbot.Bot) error {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			ub.sendOnce(ctx, b)
		}
	}
}

func (ub *UserBot) sendOnce(ctx context.Context, b *gotgbot.Bot) {
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	job, err := ub.st.ClaimJob(c, store.StatusReadyToSend, store.StatusSending, ub.workerID)
	if err != nil {
		ub.log.Errorw("claim READY_TO_SEND", "err", err)
		return
	}
	if job == nil {
		return
	}

	// финальная отправка всегда с protect_content
	_, err = content.Send(b, job.TargetID(), job.ContentOut, content.SendOptions{Protect: true})
	if err != nil {
		ub.log.Errorw("защищённая отправка не удалась", "job", job.ID.Hex(), "err", err)
		_ = ub.st.MarkJobError(c, job.ID, err)
		ub.hub.Publish(events.Event{
			Type: events.TypeFailed, JobID: job.ID.Hex(), JobType: job.Type,
			Status: store.StatusError, Sender: job.SenderID, Error: err.Error(),
		})
		return
	}

	if err := ub.st.SetJobStatus(c, job.ID, store.StatusCompleted); err != nil {
		ub.log.Errorw("завершение задачи", "job", job.ID.Hex(), "err", err)
		return
	}
	ub.hub.Publish(events.Event{
		Type: events.TypeSent, JobID: job.ID.Hex(), JobType: job.Type,
		Status: store.StatusCompleted, Sender: job.SenderID,
	})
	ub.log.Infow("защищённая отправка выполнена", "job", job.ID.Hex(), "target", job.TargetID())
}
