package telegram

import "strconv"

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Username string `json:"username"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      *Chat  `json:"chat"`
	Text      string `json:"text"`
	Caption   string `json:"caption"`
}

type Update struct {
	UpdateID          int64    `json:"update_id"`
	Message           *Message `json:"message"`
	EditedMessage     *Message `json:"edited_message"`
	ChannelPost       *Message `json:"channel_post"`
	EditedChannelPost *Message `json:"edited_channel_post"`
}

// EffectiveMessage returns whichever message kind the update carries.
func (u *Update) EffectiveMessage() *Message {
	for _, m := range []*Message{u.Message, u.EditedMessage, u.ChannelPost, u.EditedChannelPost} {
		if m != nil {
			return m
		}
	}
	return nil
}

// ChatID is the chat the update came from, empty when there is none.
func (u *Update) ChatID() string {
	m := u.EffectiveMessage()
	if m == nil || m.Chat == nil {
		return ""
	}
	return strconv.FormatInt(m.Chat.ID, 10)
}

func (u *Update) SenderUsername() string {
	m := u.EffectiveMessage()
	if m == nil || m.From == nil {
		return ""
	}
	return m.From.Username
}

func (u *Update) Text() string {
	m := u.EffectiveMessage()
	if m == nil {
		return ""
	}
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}
