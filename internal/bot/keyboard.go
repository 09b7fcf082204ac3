package bot

import (
	"fmt"
	"strings"

	"kinotut-bot/internal/tg"
)

const (
	BtnGenres = "🎬 Жанры"
	BtnSearch = "🔍 Поиск"
	BtnTop    = "📈 ТОП 5 фильмов"
	BtnBack   = "🔙 Назад"

	callbackCheckSubs = "check_subs"
)

func mainMenu() *tg.ReplyKeyboardMarkup {
	return &tg.ReplyKeyboardMarkup{
		Keyboard:       [][]tg.KeyboardButton{{{Text: BtnGenres}, {Text: BtnSearch}, {Text: BtnTop}}},
		ResizeKeyboard: true,
	}
}

func genresKeyboard(genres []string) *tg.ReplyKeyboardMarkup {
	rows := make([][]tg.KeyboardButton, 0, len(genres)+1)
	for _, g := range genres {
		rows = append(rows, []tg.KeyboardButton{{Text: g}})
	}
	rows = append(rows, []tg.KeyboardButton{{Text: BtnBack}})
	return &tg.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

// joinKeyboard has one link per channel and the verify button last.
func joinKeyboard(channels []string) *tg.InlineKeyboardMarkup {
	rows := make([][]tg.InlineKeyboardButton, 0, len(channels)+1)
	for i, ch := range channels {
		u := channelURL(ch)
		if u == "" {
			continue
		}
		rows = append(rows, []tg.InlineKeyboardButton{{Text: fmt.Sprintf("Подписка %d", i+1), URL: u}})
	}
	rows = append(rows, []tg.InlineKeyboardButton{{Text: "✅ Проверить подписку", CallbackData: callbackCheckSubs}})
	kb := tg.NewInlineKeyboardMarkup(rows)
	return &kb
}

// channelURL turns @name into a t.me link. Numeric chat ids have no public link.
func channelURL(ch string) string {
	name := strings.TrimPrefix(strings.TrimSpace(ch), "@")
	if name == "" || strings.HasPrefix(name, "-") {
		return ""
	}
	if strings.HasPrefix(name, "https://") {
		return name
	}
	return "https://t.me/" + name
}
