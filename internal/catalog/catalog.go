package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrNotInitialized is returned by a Store when the backing document does not exist yet.
var ErrNotInitialized = errors.New("catalog not initialized")

type Movie struct {
	Title       string `json:"title" bson:"title"`
	Genre       string `json:"genre" bson:"genre"`
	Year        string `json:"year" bson:"year"`
	Link        string `json:"link" bson:"link"`
	Description string `json:"description" bson:"description"`
	Poster      string `json:"poster" bson:"poster"`
	Views       int    `json:"views" bson:"views"`
}

// Document is the whole persisted catalog.
type Document struct {
	Genres []string `json:"genres" bson:"genres"`
	Movies []Movie  `json:"movies" bson:"movies"`
}

func NewDocument() *Document {
	return &Document{Genres: []string{}, Movies: []Movie{}}
}

func (d *Document) HasGenre(genre string) bool {
	for _, g := range d.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// HasMovie reports whether a movie with the same title (any case) and year is stored.
func (d *Document) HasMovie(title, year string) bool {
	for _, m := range d.Movies {
		if strings.EqualFold(m.Title, title) && m.Year == year {
			return true
		}
	}
	return false
}

// Store loads and saves the whole catalog document.
type Store interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

// Catalog runs every operation as its own load-modify-save cycle over a Store.
// The mutex only serialises writers inside this process.
type Catalog struct {
	store Store
	mu    sync.Mutex
}

func New(store Store) *Catalog {
	return &Catalog{store: store}
}

func (c *Catalog) Load(ctx context.Context) (*Document, error) {
	return c.store.Load(ctx)
}

func (c *Catalog) update(ctx context.Context, fn func(doc *Document) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	if !fn(doc) {
		return nil
	}
	return c.store.Save(ctx, doc)
}

// AddMovie appends m with zero views. Duplicates are not checked here.
func (c *Catalog) AddMovie(ctx context.Context, m Movie) error {
	m.Views = 0
	return c.update(ctx, func(doc *Document) bool {
		doc.Movies = append(doc.Movies, m)
		return true
	})
}

func (c *Catalog) AddGenre(ctx context.Context, genre string) error {
	return c.update(ctx, func(doc *Document) bool {
		if doc.HasGenre(genre) {
			return false
		}
		doc.Genres = append(doc.Genres, genre)
		return true
	})
}

// DeleteMovie removes every movie with exactly this title and year and
// returns how many were dropped.
func (c *Catalog) DeleteMovie(ctx context.Context, title, year string) (int, error) {
	removed := 0
	err := c.update(ctx, func(doc *Document) bool {
		kept := make([]Movie, 0, len(doc.Movies))
		for _, m := range doc.Movies {
			if m.Title == title && m.Year == year {
				removed++
				continue
			}
			kept = append(kept, m)
		}
		doc.Movies = kept
		return true
	})
	return removed, err
}

func (c *Catalog) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	doc, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := []Movie{}
	for _, m := range doc.Movies {
		if strings.Contains(strings.ToLower(m.Title), q) {
			out = append(out, m)
		}
	}
	return out, nil
}

// IncrementViews bumps the first exact (title, year) match. A missing movie is not an error.
func (c *Catalog) IncrementViews(ctx context.Context, title, year string) error {
	return c.update(ctx, func(doc *Document) bool {
		for i := range doc.Movies {
			if doc.Movies[i].Title == title && doc.Movies[i].Year == year {
				doc.Movies[i].Views++
				return true
			}
		}
		return false
	})
}

func (c *Catalog) IsGenre(ctx context.Context, text string) (bool, error) {
	doc, err := c.store.Load(ctx)
	if err != nil {
		return false, err
	}
	return doc.HasGenre(text), nil
}

func (c *Catalog) MoviesByGenre(ctx context.Context, genre string, limit int) ([]Movie, error) {
	doc, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := []Movie{}
	for _, m := range doc.Movies {
		if m.Genre != genre {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, m)
	}
	return out, nil
}

// TopMovies orders by views descending; equal counts keep storage order.
func (c *Catalog) TopMovies(ctx context.Context, n int) ([]Movie, error) {
	doc, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	sorted := make([]Movie, len(doc.Movies))
	copy(sorted, doc.Movies)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Views > sorted[j].Views })
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted, nil
}
