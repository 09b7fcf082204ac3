package bot

import (
	"strings"

	"kinotut-bot/internal/tg"
)

type EventKind int

const (
	EventCommand EventKind = iota + 1
	EventCallback
	EventText
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventCallback:
		return "callback"
	case EventText:
		return "text"
	default:
		return "unknown"
	}
}

// Event is one inbound update reduced to what the dispatcher routes on.
type Event struct {
	Kind      EventKind
	ChatID    int64
	UserID    int64
	MessageID int

	// commands
	Command string
	Args    string

	// callbacks
	CallbackID string
	Data       string

	// message text, commands included
	Text string
}

// EventFromUpdate returns false for updates the bot does not react to.
func EventFromUpdate(upd tg.Update) (Event, bool) {
	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		ev := Event{
			Kind:       EventCallback,
			UserID:     cq.From.ID,
			ChatID:     cq.From.ID,
			CallbackID: cq.ID,
			Data:       strings.TrimSpace(cq.Data),
		}
		if cq.Message != nil {
			ev.ChatID = cq.Message.Chat.ID
			ev.MessageID = cq.Message.MessageID
		}
		return ev, true
	case upd.Message != nil:
		msg := upd.Message
		text := strings.TrimSpace(msg.Text)
		if msg.From == nil || text == "" {
			return Event{}, false
		}
		ev := Event{
			Kind:      EventText,
			ChatID:    msg.Chat.ID,
			UserID:    msg.From.ID,
			MessageID: msg.MessageID,
			Text:      text,
		}
		if name, args, ok := msg.Command(); ok {
			ev.Kind = EventCommand
			ev.Command = name
			ev.Args = args
		}
		return ev, true
	default:
		return Event{}, false
	}
}
