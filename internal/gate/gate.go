package gate

import (
	"context"

	"kinotut-bot/internal/tg"
	"kinotut-bot/pkg/logger"
)

type MemberLookup interface {
	GetChatMember(ctx context.Context, chatID string, userID int64) (*tg.ChatMember, error)
}

// Gate checks that a user belongs to every required channel.
type Gate struct {
	members  MemberLookup
	channels []string
	log      *logger.Logger
}

func New(members MemberLookup, channels []string, log *logger.Logger) *Gate {
	return &Gate{members: members, channels: channels, log: log}
}

func (g *Gate) Channels() []string {
	return g.channels
}

// IsSubscribed stops at the first channel where the user is not a member.
// A failed lookup counts as not subscribed; nothing is retried.
func (g *Gate) IsSubscribed(ctx context.Context, userID int64) bool {
	for _, ch := range g.channels {
		m, err := g.members.GetChatMember(ctx, ch, userID)
		if err != nil {
			g.log.Warnw("subscription check failed", "channel", ch, "user_id", userID, "error", err)
			return false
		}
		switch m.Status {
		case tg.StatusMember, tg.StatusCreator, tg.StatusAdministrator:
		default:
			g.log.Infow("user not subscribed", "channel", ch, "user_id", userID, "status", m.Status)
			return false
		}
	}
	return true
}
