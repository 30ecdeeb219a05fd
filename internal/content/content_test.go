package content

import (
	"testing"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMessageText(t *testing.T) {
	p := FromMessage(&gotgbot.Message{Text: "привет"})
	assert.Equal(t, KindText, p.Kind)
	assert.Equal(t, "привет", p.Text)
	assert.Empty(t, p.FileID)
}

func TestFromMessageNil(t *testing.T) {
	p := FromMessage(nil)
	require.NotNil(t, p)
	assert.Equal(t, KindText, p.Kind)
}

func TestFromMessagePhotoTakesLargestSize(t *testing.T) {
	p := FromMessage(&gotgbot.Message{
		Caption: "подпись",
		Photo: []gotgbot.PhotoSize{
			{FileId: "small"},
			{FileId: "medium"},
			{FileId: "big"},
		},
	})
	assert.Equal(t, KindPhoto, p.Kind)
	assert.Equal(t, "big", p.FileID)
	assert.Equal(t, "подпись", p.Text)
}

func TestFromMessageMediaKinds(t *testing.T) {
	cases := []struct {
		name string
		msg  *gotgbot.Message
		kind string
	}{
		{"video", &gotgbot.Message{Video: &gotgbot.Video{FileId: "f"}}, KindVideo},
		{"document", &gotgbot.Message{Document: &gotgbot.Document{FileId: "f"}}, KindDocument},
		{"sticker", &gotgbot.Message{Sticker: &gotgbot.Sticker{FileId: "f"}}, KindSticker},
		{"animation", &gotgbot.Message{Animation: &gotgbot.Animation{FileId: "f"}}, KindAnimation},
		{"audio", &gotgbot.Message{Audio: &gotgbot.Audio{FileId: "f"}}, KindAudio},
		{"voice", &gotgbot.Message{Voice: &gotgbot.Voice{FileId: "f"}}, KindVoice},
		{"video_note", &gotgbot.Message{VideoNote: &gotgbot.VideoNote{FileId: "f"}}, KindVideoNote},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := FromMessage(tc.msg)
			assert.Equal(t, tc.kind, p.Kind)
			assert.Equal(t, "f", p.FileID)
		})
	}
}

func TestButtonsRoundTrip(t *testing.T) {
	siq := "query"
	msg := &gotgbot.Message{
		Text: "кнопки",
		ReplyMarkup: &gotgbot.InlineKeyboardMarkup{
			InlineKeyboard: [][]gotgbot.InlineKeyboardButton{
				{
					{Text: "site", Url: "https://example.com"},
					{Text: "cb", CallbackData: "data-1"},
				},
				{
					{Text: "inline", SwitchInlineQuery: &siq},
				},
			},
		},
	}

	p := FromMessage(msg)
	require.Len(t, p.Buttons, 2)
	require.Len(t, p.Buttons[0], 2)
	assert.Equal(t, "https://example.com", p.Buttons[0][0].URL)
	assert.Equal(t, "data-1", p.Buttons[0][1].CallbackData)
	require.NotNil(t, p.Buttons[1][0].SwitchInlineQuery)
	assert.Equal(t, "query", *p.Buttons[1][0].SwitchInlineQuery)

	markup := p.Markup()
	require.NotNil(t, markup)
	ikm, ok := markup.(gotgbot.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, ikm.InlineKeyboard, 2)
	assert.Equal(t, "https://example.com", ikm.InlineKeyboard[0][0].Url)
	assert.Equal(t, "data-1", ikm.InlineKeyboard[0][1].CallbackData)
	require.NotNil(t, ikm.InlineKeyboard[1][0].SwitchInlineQuery)
	assert.Equal(t, "query", *ikm.InlineKeyboard[1][0].SwitchInlineQuery)
}

func TestMarkupEmpty(t *testing.T) {
	assert.Nil(t, (&Payload{Kind: KindText}).Markup())

	var p *Payload
	assert.Nil(t, p.Markup())
}

func TestMarkupFallbackButton(t *testing.T) {
	// кнопка без действия и без текста не должна ломать клавиатуру
	p := &Payload{Buttons: [][]Button{{{}}}}
	ikm, ok := p.Markup().(gotgbot.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "Button", ikm.InlineKeyboard[0][0].Text)
	assert.Equal(t, "noop", ikm.InlineKeyboard[0][0].CallbackData)
}
