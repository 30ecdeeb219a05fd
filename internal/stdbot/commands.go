package stdbot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"github.com/EgorLis/Shieldbot/internal/content"
	"github.com/EgorLis/Shieldbot/internal/events"
	"github.com/EgorLis/Shieldbot/internal/store"
)

func (sb *StdBot) cmdStart(b *gotgbot.Bot, ctx *ext.Context) error {
	if ctx.EffectiveChat.Type != "private" {
		return nil
	}
	_, err := ctx.EffectiveMessage.Reply(b, strings.Join([]string{
		"Бот работает. Команды:",
		"/start — это сообщение",
		"/status — состояние настройки",
		"/set_session <token> — токен бота-отправителя",
		"/set_group — выполнить в инбокс-группе",
		"/send_protected <chat_id> — ответом на контент",
	}, "\n"), nil)
	return err
}

func (sb *StdBot) cmdStatus(b *gotgbot.Bot, ctx *ext.Context) error {
	if ctx.EffectiveChat.Type != "private" {
		return nil
	}
	c, cancel := dbCtx()
	defer cancel()
	_, hasSess := sb.st.ConfigString(c, store.KeySessionToken)
	gid, hasGroup := sb.st.ConfigInt64(c, store.KeyInboxGroupID)
	counts, err := sb.st.CountByStatus(c)
	if err != nil {
		sb.log.Errorw("сводка очереди", "err", err)
	}
	_, err = ctx.EffectiveMessage.Reply(b, statusText(hasSess, hasGroup, gid, counts), nil)
	return err
}

// statusText — отдельной функцией, чтобы проверять форматирование.
func statusText(hasSess, hasGroup bool, gid int64, counts map[string]int64) string {
	mark := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "❌"
	}
	lines := []string{
		"⚙️ Статус:",
		"• Токен отправителя в БД: " + mark(hasSess),
	}
	if hasGroup {
		lines = append(lines, fmt.Sprintf("• Инбокс-группа: %d", gid))
	} else {
		lines = append(lines, "• Инбокс-группа: ❌ не задана")
	}
	var parts []string
	for _, st := range []string{
		store.StatusNewDM, store.StatusPendingReply, store.StatusReadyToSend,
		store.StatusSending, store.StatusCompleted, store.StatusError,
	} {
		if n := counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", st, n))
		}
	}
	if len(parts) > 0 {
		lines = append(lines, "• Задачи: "+strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

func (sb *StdBot) cmdSetGroup(b *gotgbot.Bot, ctx *ext.Context) error {
	chat := ctx.EffectiveChat
	if chat.Type != "supergroup" && chat.Type != "group" {
		_, err := ctx.EffectiveMessage.Reply(b,
			"Выполни /set_group внутри инбокс-группы (с включёнными темами).", nil)
		return err
	}
	c, cancel := dbCtx()
	defer cancel()
	if err := sb.st.SetConfig(c, store.KeyInboxGroupID, chat.Id); err != nil {
		return err
	}
	sb.log.Infow("инбокс-группа сохранена", "chat_id", chat.Id)
	_, err := ctx.EffectiveMessage.Reply(b,
		fmt.Sprintf("Инбокс-группа сохранена в БД: %d", chat.Id), nil)
	return err
}

// cmdSetSession проверяет токен отправителя через getMe и кладёт его в БД.
// Воркер user подхватит токен сам — рестарт не нужен.
func (sb *StdBot) cmdSetSession(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if ctx.EffectiveChat.Type != "private" {
		return nil
	}
	fields := strings.Fields(msg.Text)
	if len(fields) < 2 {
		_, err := msg.Reply(b, "Использование: /set_session <BOT_TOKEN отправителя>", nil)
		return err
	}
	token := fields[1]

	probe, err := gotgbot.NewBot(token, nil)
	if err != nil {
		_, rerr := msg.Reply(b, fmt.Sprintf("❌ Telegram не принял токен: %v", err), nil)
		return rerr
	}

	c, cancel := dbCtx()
	defer cancel()
	if err := sb.st.SetConfig(c, store.KeySessionToken, token); err != nil {
		return err
	}
	// токену нечего делать в истории чата
	_, _ = msg.Delete(b, nil)
	sb.log.Infow("токен отправителя сохранён", "sender_bot", probe.User.Username)
	_, err = b.SendMessage(ctx.EffectiveChat.Id,
		fmt.Sprintf("✅ Токен @%s сохранён в БД. Воркер user подхватит его сам.", probe.User.Username), nil)
	return err
}

func (sb *StdBot) cmdSendProtected(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if ctx.EffectiveChat.Type != "private" {
		return nil
	}
	target, perr := parseSendProtected(msg.Text)
	if perr != nil {
		_, err := msg.Reply(b, perr.Error(), nil)
		return err
	}
	if msg.ReplyToMessage == nil {
		_, err := msg.Reply(b, "Ответь командой на контент, который нужно отправить защищённо.", nil)
		return err
	}

	job := store.ManualSendJob(sb.ownerID, target, content.FromMessage(msg.ReplyToMessage))
	c, cancel := dbCtx()
	defer cancel()
	id, err := sb.st.InsertJob(c, job)
	if err != nil {
		return err
	}
	sb.hub.Publish(events.Event{
		Type: events.TypeReady, JobID: id.Hex(), JobType: job.Type,
		Status: job.Status, Sender: sb.ownerID,
	})
	sb.log.Infow("ручная отправка в очереди", "job", id.Hex(), "target", target)
	_, err = msg.Reply(b, fmt.Sprintf("Ручная защищённая отправка в очереди. Job: %s", id.Hex()), nil)
	return err
}

// parseSendProtected достаёт TARGET_CHAT_ID из "/send_protected <id>".
func parseSendProtected(text string) (int64, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 0, errors.New("Использование: ответом на контент\n/send_protected <TARGET_CHAT_ID>")
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, errors.New("TARGET_CHAT_ID должен быть числом.")
	}
	return id, nil
}

// onGroupReply ловит ответ владельца на зеркало в инбокс-группе и
// открывает задачу для защищённой отправки.
func (sb *StdBot) onGroupReply(b *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if msg == nil || msg.ReplyToMessage == nil {
		return nil
	}
	if ctx.EffectiveUser == nil || ctx.EffectiveUser.Id != sb.ownerID {
		return nil
	}

	c, cancel := dbCtx()
	defer cancel()
	gid, ok := sb.st.ConfigInt64(c, store.KeyInboxGroupID)
	if !ok || msg.Chat.Id != gid {
		return nil
	}

	job, err := sb.st.FindPendingByGroupMessage(c, msg.ReplyToMessage.MessageId)
	if err != nil {
		return err
	}
	if job == nil {
		// реплай не на зеркало — игнор
		return nil
	}

	if err := sb.st.SetJobReply(c, job.ID, content.FromMessage(msg)); err != nil {
		return err
	}
	sb.hub.Publish(events.Event{
		Type: events.TypeReady, JobID: job.ID.Hex(), JobType: job.Type,
		Status: store.StatusReadyToSend, Sender: job.SenderID,
	})
	sb.log.Infow("ответ владельца принят", "job", job.ID.Hex())
	_, err = msg.Reply(b, "Поставлено в очередь на защищённую отправку ✅", nil)
	return err
}
