package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aufseher/internal/model"
)

// Extract maps an update to the event the moderator evaluates. Updates other
// than new messages, edits and joins come back as EventOther.
func Extract(u tgbotapi.Update) model.Event {
	switch {
	case u.Message != nil && len(u.Message.NewChatMembers) > 0:
		msg := u.Message
		members := make([]model.User, 0, len(msg.NewChatMembers))
		for i := range msg.NewChatMembers {
			members = append(members, toUser(&msg.NewChatMembers[i]))
		}
		return model.Event{
			Kind:       model.EventMemberJoined,
			Chat:       toChat(msg.Chat),
			MessageID:  msg.MessageID,
			NewMembers: members,
		}
	case u.Message != nil:
		return messageEvent(model.EventNewMessage, u.Message)
	case u.EditedMessage != nil:
		return messageEvent(model.EventEditedMessage, u.EditedMessage)
	}
	return model.Event{Kind: model.EventOther}
}

func messageEvent(kind model.EventKind, msg *tgbotapi.Message) model.Event {
	ev := model.Event{
		Kind:      kind,
		Chat:      toChat(msg.Chat),
		MessageID: msg.MessageID,
		Text:      msg.Text,
		Caption:   msg.Caption,
		Media:     mediaKind(msg),
		Forward:   forward(msg),
	}
	if msg.From != nil {
		u := toUser(msg.From)
		ev.Sender = &u
	}
	ev.Entities = appendEntities(ev.Entities, msg.Entities)
	ev.Entities = appendEntities(ev.Entities, msg.CaptionEntities)
	return ev
}

func toUser(u *tgbotapi.User) model.User {
	return model.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
		IsBot:     u.IsBot,
	}
}

func toChat(c *tgbotapi.Chat) model.Chat {
	if c == nil {
		return model.Chat{}
	}
	return model.Chat{ID: c.ID, Title: c.Title}
}

func forward(msg *tgbotapi.Message) *model.Forward {
	if msg.ForwardFrom == nil && msg.ForwardFromChat == nil && msg.ForwardSenderName == "" {
		return nil
	}
	f := &model.Forward{SenderName: msg.ForwardSenderName}
	if msg.ForwardFrom != nil {
		u := toUser(msg.ForwardFrom)
		f.FromUser = &u
	}
	if msg.ForwardFromChat != nil {
		c := toChat(msg.ForwardFromChat)
		f.FromChat = &c
	}
	return f
}

func appendEntities(dst []model.Entity, src []tgbotapi.MessageEntity) []model.Entity {
	for _, e := range src {
		dst = append(dst, model.Entity{Type: e.Type, Offset: e.Offset, Length: e.Length, URL: e.URL})
	}
	return dst
}

// mediaKind checks animation before document and venue before location
// because Telegram fills both fields for those messages.
func mediaKind(msg *tgbotapi.Message) model.MediaKind {
	switch {
	case msg.Text != "":
		return model.MediaText
	case len(msg.Photo) > 0:
		return model.MediaPhoto
	case msg.Video != nil:
		return model.MediaVideo
	case msg.Animation != nil:
		return model.MediaAnimation
	case msg.Document != nil:
		return model.MediaDocument
	case msg.Audio != nil:
		return model.MediaAudio
	case msg.Voice != nil:
		return model.MediaVoice
	case msg.VideoNote != nil:
		return model.MediaVideoNote
	case msg.Sticker != nil:
		return model.MediaSticker
	case msg.Venue != nil:
		return model.MediaVenue
	case msg.Location != nil:
		return model.MediaLocation
	case msg.Contact != nil:
		return model.MediaContact
	case msg.Dice != nil:
		return model.MediaDice
	case msg.Poll != nil:
		return model.MediaPoll
	case msg.Game != nil:
		return model.MediaGame
	}
	return model.MediaUnknown
}
