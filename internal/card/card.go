package card

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"kinotut-bot/internal/catalog"
)

// MaxCaptionLen is the Bot API limit for photo captions.
const MaxCaptionLen = 1024

// Card is the outbound form of one movie.
type Card struct {
	Text  string
	Photo string
}

func (c Card) HasPhoto() bool {
	return c.Photo != ""
}

// CaptionFits reports whether Text can go out as the photo caption.
// Telegram measures captions in UTF-16 code units.
func (c Card) CaptionFits() bool {
	return len(utf16.Encode([]rune(c.Text))) <= MaxCaptionLen
}

func Render(m catalog.Movie, adminHandle string) Card {
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 %s (%s)\n", m.Title, m.Year)
	fmt.Fprintf(&b, "🎭 Жанр: %s\n\n", m.Genre)
	fmt.Fprintf(&b, "💬 %s\n\n", m.Description)
	b.WriteString("Смотреть тут 👇👇👇\n")
	fmt.Fprintf(&b, "🔗 %s\n\n", m.Link)
	fmt.Fprintf(&b, "❗️Если фильм недоступен — сообщи: %s", adminHandle)
	return Card{Text: b.String(), Photo: strings.TrimSpace(m.Poster)}
}
