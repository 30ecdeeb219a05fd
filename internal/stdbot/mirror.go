package stdbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"

	"github.com/EgorLis/Shieldbot/internal/content"
	"github.com/EgorLis/Shieldbot/internal/events"
	"github.com/EgorLis/Shieldbot/internal/store"
)

// mirrorLoop разбирает очередь NEW_DM и зеркалит личку в темы
// инбокс-группы. Живёт до Stop().
func (sb *StdBot) mirrorLoop(stop <-chan struct{}) {
	defer sb.wg.Done()

	t := time.NewTicker(1200 * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			sb.mirrorOnce()
		}
	}
}

func (sb *StdBot) mirrorOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	gid, ok := sb.st.ConfigInt64(ctx, store.KeyInboxGroupID)
	if !ok {
		// группа ещё не настроена — ждём следующего тика
		return
	}

	job, err := sb.st.ClaimJob(ctx, store.StatusNewDM, store.StatusPendingReply, sb.workerID)
	if err != nil {
		sb.log.Errorw("claim NEW_DM", "err", err)
		return
	}
	if job == nil {
		return
	}

	topicID := job.GroupTopicID
	if topicID == 0 {
		topicID, err = sb.ensureTopic(ctx, gid, job.SenderID)
		if err != nil {
			sb.log.Errorw("создание темы", "job", job.ID.Hex(), "err", err)
			_ = sb.st.MarkJobError(ctx, job.ID, err)
			sb.hub.Publish(events.Event{
				Type: events.TypeFailed, JobID: job.ID.Hex(), JobType: job.Type,
				Status: store.StatusError, Sender: job.SenderID, Error: err.Error(),
			})
			return
		}
	}

	sent, err := content.Send(sb.bot, gid, job.ContentIn, content.SendOptions{ThreadID: topicID})
	if err != nil {
		sb.log.Errorw("зеркалирование в группу", "job", job.ID.Hex(), "err", err)
		_ = sb.st.MarkJobError(ctx, job.ID, err)
		sb.hub.Publish(events.Event{
			Type: events.TypeFailed, JobID: job.ID.Hex(), JobType: job.Type,
			Status: store.StatusError, Sender: job.SenderID, Error: err.Error(),
		})
		return
	}

	if err := sb.st.AttachGroupMessage(ctx, job.ID, topicID, sent.MessageId); err != nil {
		sb.log.Errorw("сохранение group_message_id", "job", job.ID.Hex(), "err", err)
		return
	}
	sb.hub.Publish(events.Event{
		Type: events.TypeMirrored, JobID: job.ID.Hex(), JobType: job.Type,
		Status: store.StatusPendingReply, Sender: job.SenderID,
	})
	sb.log.Infow("личка отзеркалена", "job", job.ID.Hex(), "sender", job.SenderID)
}

// ensureTopic возвращает тему для отправителя: прежнюю из БД, иначе
// создаёт новую "DM <sender_id>". 0 — группа без тем, шлём в общий чат;
// любая другая ошибка создания темы (права, лимиты) роняет задачу в ERROR,
// а не сливает личку в общий чат.
func (sb *StdBot) ensureTopic(ctx context.Context, gid, senderID int64) (int64, error) {
	if id, err := sb.st.LastTopicForSender(ctx, senderID); err == nil && id != 0 {
		return id, nil
	}
	topic, err := sb.bot.CreateForumTopic(gid, fmt.Sprintf("DM %d", senderID), nil)
	if err != nil {
		if isNotForum(err) {
			sb.log.Debugw("группа без тем, шлём в общий чат", "chat_id", gid)
			return 0, nil
		}
		return 0, fmt.Errorf("создание темы: %w", err)
	}
	return topic.MessageThreadId, nil
}

// isNotForum распознаёт ответ Telegram «the chat is not a forum».
func isNotForum(err error) bool {
	var tg *gotgbot.TelegramError
	if !errors.As(err, &tg) {
		return false
	}
	return strings.Contains(strings.ToLower(tg.Description), "not a forum")
}
