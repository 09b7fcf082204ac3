package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kinotut-bot/internal/card"
	"kinotut-bot/internal/catalog"
	"kinotut-bot/internal/metadata"
	"kinotut-bot/internal/tg"
	"kinotut-bot/pkg/logger"
)

const (
	topLimit   = 5
	genreLimit = 7
	findLimit  = 5
)

// Messenger is the outbound half of the Bot API the dispatcher uses.
type Messenger interface {
	SendMessage(ctx context.Context, req tg.SendMessageRequest) error
	SendPhoto(ctx context.Context, req tg.SendPhotoRequest) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallbackQuery(ctx context.Context, req tg.AnswerCallbackQueryRequest) error
}

type Gate interface {
	IsSubscribed(ctx context.Context, userID int64) bool
	Channels() []string
}

type MetadataSearcher interface {
	SearchMovies(ctx context.Context, query string, page int) (*metadata.SearchResponse, error)
	Suggestion(m metadata.Movie) catalog.Movie
}

type Options struct {
	AdminID       int64
	AdminUsername string
	// Metadata enables /find; nil turns it off.
	Metadata MetadataSearcher
}

type action int

const (
	actNone action = iota
	actStart
	actVerify
	actAckCallback
	actAddMovieHelp
	actDeleteMovie
	actAddGenre
	actFind
	actGenres
	actBack
	actSearchPrompt
	actTop
	actBulkAdd
	actGenre
	actSearch
)

type route struct {
	action action
	match  func(ctx context.Context, ev *Event) (bool, error)
}

type Dispatcher struct {
	catalog     *catalog.Catalog
	gate        Gate
	msg         Messenger
	meta        MetadataSearcher
	adminID     int64
	adminHandle string
	log         *logger.Logger

	routes   []route
	handlers map[action]func(ctx context.Context, ev *Event) error
}

func New(c *catalog.Catalog, g Gate, msg Messenger, opts Options, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{
		catalog:     c,
		gate:        g,
		msg:         msg,
		meta:        opts.Metadata,
		adminID:     opts.AdminID,
		adminHandle: opts.AdminUsername,
		log:         log,
	}
	// Order matters: commands and menu buttons win over bulk-add,
	// and bulk-add wins over genre lookup and title search.
	d.routes = []route{
		{actStart, command("start")},
		{actVerify, callback(callbackCheckSubs)},
		{actAckCallback, anyCallback},
		{actAddMovieHelp, command("addmovie")},
		{actDeleteMovie, command("delmovie")},
		{actAddGenre, command("addgenre")},
		{actFind, command("find")},
		{actGenres, textIs(BtnGenres)},
		{actBack, textIs(BtnBack)},
		{actSearchPrompt, textIs(BtnSearch)},
		{actTop, textIs(BtnTop)},
		{actBulkAdd, d.isBulkAdd},
		{actGenre, d.isGenre},
		{actSearch, hasText},
	}
	d.handlers = map[action]func(ctx context.Context, ev *Event) error{
		actStart:        d.handleStart,
		actVerify:       d.handleVerify,
		actAckCallback:  d.handleAckCallback,
		actAddMovieHelp: d.handleAddMovieHelp,
		actDeleteMovie:  d.handleDeleteMovie,
		actAddGenre:     d.handleAddGenre,
		actFind:         d.handleFind,
		actGenres:       d.handleGenres,
		actBack:         d.handleBack,
		actSearchPrompt: d.handleSearchPrompt,
		actTop:          d.handleTop,
		actBulkAdd:      d.handleBulkAdd,
		actGenre:        d.handleGenre,
		actSearch:       d.handleSearch,
	}
	return d
}

// Handle routes one event. When a handler fails the user gets a generic
// failure message and the error is returned for the caller to log.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	act, err := d.classify(ctx, &ev)
	if err == nil && act != actNone {
		err = d.handlers[act](ctx, &ev)
	}
	if err != nil {
		if ev.ChatID != 0 {
			_ = d.send(ctx, ev.ChatID, txtFailure, nil)
		}
		return fmt.Errorf("%s event from %d: %w", ev.Kind, ev.UserID, err)
	}
	return nil
}

// HandleUpdate converts and routes a raw update.
func (d *Dispatcher) HandleUpdate(ctx context.Context, upd tg.Update) error {
	ev, ok := EventFromUpdate(upd)
	if !ok {
		return nil
	}
	return d.Handle(ctx, ev)
}

func (d *Dispatcher) classify(ctx context.Context, ev *Event) (action, error) {
	for _, r := range d.routes {
		ok, err := r.match(ctx, ev)
		if err != nil {
			return actNone, err
		}
		if ok {
			return r.action, nil
		}
	}
	return actNone, nil
}

func (d *Dispatcher) isAdmin(ev *Event) bool {
	return ev.UserID == d.adminID
}

func command(name string) func(context.Context, *Event) (bool, error) {
	return func(_ context.Context, ev *Event) (bool, error) {
		return ev.Kind == EventCommand && ev.Command == name, nil
	}
}

func callback(data string) func(context.Context, *Event) (bool, error) {
	return func(_ context.Context, ev *Event) (bool, error) {
		return ev.Kind == EventCallback && ev.Data == data, nil
	}
}

func anyCallback(_ context.Context, ev *Event) (bool, error) {
	return ev.Kind == EventCallback, nil
}

// Unknown commands are plain text as far as text routes are concerned.
func textIs(s string) func(context.Context, *Event) (bool, error) {
	return func(_ context.Context, ev *Event) (bool, error) {
		return ev.Kind != EventCallback && ev.Text == s, nil
	}
}

func hasText(_ context.Context, ev *Event) (bool, error) {
	return ev.Kind != EventCallback && ev.Text != "", nil
}

func (d *Dispatcher) isBulkAdd(_ context.Context, ev *Event) (bool, error) {
	return ev.Kind != EventCallback && d.isAdmin(ev) && strings.Contains(ev.Text, "|"), nil
}

func (d *Dispatcher) isGenre(ctx context.Context, ev *Event) (bool, error) {
	if ev.Kind == EventCallback || ev.Text == "" {
		return false, nil
	}
	return d.catalog.IsGenre(ctx, ev.Text)
}

func (d *Dispatcher) handleStart(ctx context.Context, ev *Event) error {
	if d.gate.IsSubscribed(ctx, ev.UserID) {
		return d.send(ctx, ev.ChatID, txtWelcome, mainMenu())
	}
	channels := d.gate.Channels()
	var b strings.Builder
	fmt.Fprintf(&b, txtJoinHeader, d.adminHandle)
	for i := range channels {
		fmt.Fprintf(&b, "\n📢 Подписка %d", i+1)
	}
	text := strings.TrimSpace(b.String()) + txtJoinFooter
	return d.send(ctx, ev.ChatID, text, joinKeyboard(channels))
}

func (d *Dispatcher) handleVerify(ctx context.Context, ev *Event) error {
	if !d.gate.IsSubscribed(ctx, ev.UserID) {
		return d.msg.AnswerCallbackQuery(ctx, tg.AnswerCallbackQueryRequest{
			CallbackQueryID: ev.CallbackID,
			Text:            txtNotSubscribed,
			ShowAlert:       true,
		})
	}
	if ev.MessageID != 0 {
		if err := d.msg.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
			d.log.Warnw("delete join prompt failed", "chat_id", ev.ChatID, "error", err)
		}
	}
	_ = d.msg.AnswerCallbackQuery(ctx, tg.AnswerCallbackQueryRequest{CallbackQueryID: ev.CallbackID})
	return d.send(ctx, ev.UserID, txtVerified, mainMenu())
}

func (d *Dispatcher) handleAckCallback(ctx context.Context, ev *Event) error {
	return d.msg.AnswerCallbackQuery(ctx, tg.AnswerCallbackQueryRequest{CallbackQueryID: ev.CallbackID})
}

func (d *Dispatcher) handleAddMovieHelp(ctx context.Context, ev *Event) error {
	if !d.isAdmin(ev) {
		return d.send(ctx, ev.ChatID, txtAdminOnly, nil)
	}
	return d.send(ctx, ev.ChatID, txtAddMovieFormat, nil)
}

func (d *Dispatcher) handleDeleteMovie(ctx context.Context, ev *Event) error {
	if !d.isAdmin(ev) {
		return d.send(ctx, ev.ChatID, txtAdminOnly, nil)
	}
	title, year, ok := strings.Cut(ev.Args, "|")
	title, year = strings.TrimSpace(title), strings.TrimSpace(year)
	if !ok || title == "" || year == "" || strings.Contains(year, "|") {
		return d.send(ctx, ev.ChatID, txtDelUsage, nil)
	}
	n, err := d.catalog.DeleteMovie(ctx, title, year)
	if err != nil {
		return err
	}
	d.log.Infow("movie deleted", "title", title, "year", year, "removed", n)
	return d.send(ctx, ev.ChatID, fmt.Sprintf(txtDeleted, n), nil)
}

func (d *Dispatcher) handleAddGenre(ctx context.Context, ev *Event) error {
	if !d.isAdmin(ev) {
		return d.send(ctx, ev.ChatID, txtAdminOnly, nil)
	}
	genre := strings.TrimSpace(ev.Args)
	if genre == "" {
		return d.send(ctx, ev.ChatID, txtGenreUsage, nil)
	}
	if err := d.catalog.AddGenre(ctx, genre); err != nil {
		return err
	}
	return d.send(ctx, ev.ChatID, fmt.Sprintf(txtGenreAdded, genre), nil)
}

func (d *Dispatcher) handleFind(ctx context.Context, ev *Event) error {
	if !d.isAdmin(ev) {
		return d.send(ctx, ev.ChatID, txtAdminOnly, nil)
	}
	if d.meta == nil {
		return d.send(ctx, ev.ChatID, txtFindDisabled, nil)
	}
	query := strings.TrimSpace(ev.Args)
	if query == "" {
		return d.send(ctx, ev.ChatID, txtFindUsage, nil)
	}
	res, err := d.meta.SearchMovies(ctx, query, 1)
	if err != nil {
		d.log.Warnw("metadata search failed", "query", query, "error", err)
		return d.send(ctx, ev.ChatID, txtFindFailed, nil)
	}
	lines := make([]string, 0, findLimit)
	for _, m := range res.Results {
		if len(lines) >= findLimit {
			break
		}
		s := d.meta.Suggestion(m)
		if s.Title == "" {
			continue
		}
		lines = append(lines, catalog.FormatLine(s))
	}
	if len(lines) == 0 {
		return d.send(ctx, ev.ChatID, txtFindEmpty, nil)
	}
	return d.send(ctx, ev.ChatID, txtFindHeader+strings.Join(lines, "\n"), nil)
}

func (d *Dispatcher) handleGenres(ctx context.Context, ev *Event) error {
	doc, err := d.catalog.Load(ctx)
	if err != nil {
		return err
	}
	if len(doc.Genres) == 0 {
		return d.send(ctx, ev.ChatID, txtNoGenres, nil)
	}
	return d.send(ctx, ev.ChatID, txtPickGenre, genresKeyboard(doc.Genres))
}

func (d *Dispatcher) handleBack(ctx context.Context, ev *Event) error {
	return d.send(ctx, ev.ChatID, txtMainMenu, mainMenu())
}

func (d *Dispatcher) handleSearchPrompt(ctx context.Context, ev *Event) error {
	return d.send(ctx, ev.ChatID, txtAskTitle, nil)
}

func (d *Dispatcher) handleTop(ctx context.Context, ev *Event) error {
	movies, err := d.catalog.TopMovies(ctx, topLimit)
	if err != nil {
		return err
	}
	if len(movies) == 0 {
		return d.send(ctx, ev.ChatID, txtNoTop, nil)
	}
	d.sendCards(ctx, ev.ChatID, movies)
	return nil
}

func (d *Dispatcher) handleBulkAdd(ctx context.Context, ev *Event) error {
	rep := d.catalog.BulkAdd(ctx, ev.Text)
	d.log.Infow("bulk add", "added", rep.Added, "failed", rep.Failed, "duplicate", rep.Duplicate)
	return d.send(ctx, ev.ChatID, rep.Summary(), nil)
}

func (d *Dispatcher) handleGenre(ctx context.Context, ev *Event) error {
	movies, err := d.catalog.MoviesByGenre(ctx, ev.Text, genreLimit)
	if err != nil {
		return err
	}
	if len(movies) == 0 {
		return d.send(ctx, ev.ChatID, txtNoGenreMovies, nil)
	}
	d.sendCards(ctx, ev.ChatID, movies)
	return nil
}

// handleSearch counts a view only for cards that were actually delivered.
func (d *Dispatcher) handleSearch(ctx context.Context, ev *Event) error {
	movies, err := d.catalog.SearchMovies(ctx, ev.Text)
	if err != nil {
		return err
	}
	if len(movies) == 0 {
		return d.send(ctx, ev.ChatID, fmt.Sprintf(txtNotFound, d.adminHandle), nil)
	}
	for _, m := range movies {
		if err := d.sendCard(ctx, ev.ChatID, m); err != nil {
			d.log.Warnw("send card failed", "chat_id", ev.ChatID, "title", m.Title, "error", err)
			continue
		}
		if err := d.catalog.IncrementViews(ctx, m.Title, m.Year); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) sendCards(ctx context.Context, chatID int64, movies []catalog.Movie) {
	for _, m := range movies {
		if err := d.sendCard(ctx, chatID, m); err != nil {
			d.log.Warnw("send card failed", "chat_id", chatID, "title", m.Title, "error", err)
		}
	}
}

func (d *Dispatcher) sendCard(ctx context.Context, chatID int64, m catalog.Movie) error {
	c := card.Render(m, d.adminHandle)
	if !c.HasPhoto() {
		return d.send(ctx, chatID, c.Text, nil)
	}
	caption := c.Text
	if !c.CaptionFits() {
		caption = ""
	}
	err := d.msg.SendPhoto(ctx, tg.SendPhotoRequest{ChatID: chatID, Photo: c.Photo, Caption: caption})
	var apiErr *tg.APIError
	if errors.As(err, &apiErr) {
		// Telegram could not fetch the poster; the text alone still carries the card.
		d.log.Warnw("poster rejected, sending text card", "title", m.Title, "poster", c.Photo, "error", err)
		return d.send(ctx, chatID, c.Text, nil)
	}
	if err != nil {
		return err
	}
	if caption == "" {
		return d.send(ctx, chatID, c.Text, nil)
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, markup tg.ReplyMarkup) error {
	return d.msg.SendMessage(ctx, tg.SendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: markup})
}
