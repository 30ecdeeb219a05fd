// Package content — снимок телеграм-сообщения, пригодный для хранения в БД.
// Один и тот же Payload зеркалится std-ботом в инбокс-группу и уходит
// защищённой отправкой через user-бота, поэтому и разбор, и отправка
// (switch по kind) живут здесь, а не дублируются по воркерам.
package content

import (
	"github.com/PaulSonOfLars/gotgbot/v2"
)

const (
	KindText      = "text"
	KindPhoto     = "photo"
	KindVideo     = "video"
	KindDocument  = "document"
	KindSticker   = "sticker"
	KindAnimation = "animation"
	KindAudio     = "audio"
	KindVoice     = "voice"
	KindVideoNote = "video_note"
)

type Button struct {
	Text                         string  `bson:"text" json:"text"`
	URL                          string  `bson:"url,omitempty" json:"url,omitempty"`
	CallbackData                 string  `bson:"callback_data,omitempty" json:"callback_data,omitempty"`
	SwitchInlineQuery            *string `bson:"switch_inline_query,omitempty" json:"switch_inline_query,omitempty"`
	SwitchInlineQueryCurrentChat *string `bson:"switch_inline_query_current_chat,omitempty" json:"switch_inline_query_current_chat,omitempty"`
}

type Payload struct {
	Kind    string     `bson:"kind" json:"kind"`
	Text    string     `bson:"text,omitempty" json:"text,omitempty"`
	FileID  string     `bson:"file_id,omitempty" json:"file_id,omitempty"`
	Buttons [][]Button `bson:"buttons,omitempty" json:"buttons,omitempty"`
}

// FromMessage разбирает сообщение в Payload: текст/подпись, file_id медиа
// и инлайн-клавиатура. Медиа переотправляется по file_id, байты не качаем.
func FromMessage(msg *gotgbot.Message) *Payload {
	p := &Payload{Kind: KindText}
	if msg == nil {
		return p
	}

	if msg.Text != "" {
		p.Text = msg.Text
	} else if msg.Caption != "" {
		p.Text = msg.Caption
	}

	if msg.ReplyMarkup != nil {
		for _, row := range msg.ReplyMarkup.InlineKeyboard {
			out := make([]Button, 0, len(row))
			for _, b := range row {
				out = append(out, Button{
					Text:                         b.Text,
					URL:                          b.Url,
					CallbackData:                 b.CallbackData,
					SwitchInlineQuery:            b.SwitchInlineQuery,
					SwitchInlineQueryCurrentChat: b.SwitchInlineQueryCurrentChat,
				})
			}
			p.Buttons = append(p.Buttons, out)
		}
	}

	switch {
	case len(msg.Photo) > 0:
		p.Kind = KindPhoto
		// последний размер — самый крупный
		p.FileID = msg.Photo[len(msg.Photo)-1].FileId
	case msg.Video != nil:
		p.Kind = KindVideo
		p.FileID = msg.Video.FileId
	case msg.Document != nil:
		p.Kind = KindDocument
		p.FileID = msg.Document.FileId
	case msg.Sticker != nil:
		p.Kind = KindSticker
		p.FileID = msg.Sticker.FileId
	case msg.Animation != nil:
		p.Kind = KindAnimation
		p.FileID = msg.Animation.FileId
	case msg.Audio != nil:
		p.Kind = KindAudio
		p.FileID = msg.Audio.FileId
	case msg.Voice != nil:
		p.Kind = KindVoice
		p.FileID = msg.Voice.FileId
	case msg.VideoNote != nil:
		p.Kind = KindVideoNote
		p.FileID = msg.VideoNote.FileId
	}
	return p
}

// Markup собирает инлайн-клавиатуру обратно. nil — кнопок не было.
func (p *Payload) Markup() gotgbot.ReplyMarkup {
	if p == nil || len(p.Buttons) == 0 {
		return nil
	}
	rows := make([][]gotgbot.InlineKeyboardButton, 0, len(p.Buttons))
	for _, row := range p.Buttons {
		btns := make([]gotgbot.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btn := gotgbot.InlineKeyboardButton{Text: b.Text}
			switch {
			case b.URL != "":
				btn.Url = b.URL
			case b.CallbackData != "":
				btn.CallbackData = b.CallbackData
			case b.SwitchInlineQuery != nil:
				btn.SwitchInlineQuery = b.SwitchInlineQuery
			case b.SwitchInlineQueryCurrentChat != nil:
				btn.SwitchInlineQueryCurrentChat = b.SwitchInlineQueryCurrentChat
			default:
				btn.CallbackData = "noop"
			}
			if btn.Text == "" {
				btn.Text = "Button"
			}
			btns = append(btns, btn)
		}
		rows = append(rows, btns)
	}
	return gotgbot.InlineKeyboardMarkup{InlineKeyboard: rows}
}

type SendOptions struct {
	// ThreadID — тема форума в инбокс-группе; 0 — общий чат.
	ThreadID int64
	// Protect запрещает пересылку/сохранение (protect_content).
	Protect bool
}

// Send отправляет Payload в чат. Неизвестный kind уходит текстом.
func Send(b *gotgbot.Bot, chatID int64, p *Payload, opt SendOptions) (*gotgbot.Message, error) {
	if p == nil {
		p = &Payload{Kind: KindText}
	}
	markup := p.Markup()

	switch p.Kind {
	case KindPhoto:
		return b.SendPhoto(chatID, gotgbot.InputFileByID(p.FileID), &gotgbot.SendPhotoOpts{
			Caption: p.Text, MessageThreadId: opt.ThreadID, ProtectContent: opt.Protect, ReplyMarkup: markup,
		})
	case KindVideo:
		return b.SendVideo(chatID, gotgbot.InputFileByID(p.FileID), &gotgbot.SendVideoOpts{
			Caption: p.Text, MessageThreadId: opt.ThreadID, ProtectContent: opt.Protect, ReplyMarkup: markup,
		})
	case KindDocument:
		return b.SendDocument(chatID, gotgbot.InputFileByID(p.FileID), &gotgbot.SendDocumentOpts{
			Caption: p.Text, MessageThreadId: opt.ThreadID, ProtectContent: opt.Protect, ReplyMarkup: markup,
		})
	case KindSticker:
		return b.SendSticker(chatID, gotgbot.InputFileByID(p.FileID), &gotgbot.SendStickerOpts{
			MessageThreadId: opt.ThreadID, ProtectContent: opt.Protect, ReplyMarkup: markup,
		})
	case KindAnimation:
		return b.SendAnimation(chatID, gotgbot.InputFileByID(p.FileID), &gotgbot.SendAnimationOpts{
			Caption: p.Text, MessageThreadId: opt.ThreadID, ProtectContent: opt.Protect, ReplyMarkup: markup,
		})
	case KindAudio:
		return b.SendAudio(chatID, gotgbot.InputFileByID(p.FileID), &gotgbot.SendAudioOpts{
			Caption: p.Text, MessageThreadId: opt.ThreadID, ProtectContent: opt.Protect, ReplyMarkup: markup,
		})
	case KindVoice:
		return b.SendVoice(chatID, gotgbot.InputFileByID(p.FileID), &gotgbot.SendVoiceOpts{
			Caption: p.Text, MessageThreadId: opt.ThreadID, ProtectContent: opt.Protect, ReplyMarkup: markup,
		})
	case KindVideoNote:
		return b.SendVideoNote(chatID, gotgbot.InputFileByID(p.FileID), &gotgbot.SendVideoNoteOpts{
			MessageThreadId: opt.ThreadID, ProtectContent: opt.Protect, ReplyMarkup: markup,
		})
	default:
		text := p.Text
		if text == "" {
			text = "(no text)"
		}
		return b.SendMessage(chatID, text, &gotgbot.SendMessageOpts{
			MessageThreadId: opt.ThreadID, ProtectContent: opt.Protect, ReplyMarkup: markup,
		})
	}
}
