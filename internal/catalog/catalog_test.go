package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps the document as JSON so every Load returns a fresh copy.
type memStore struct {
	data    []byte
	saves   int
	loadErr error
	saveErr error
}

func newMemStore(t *testing.T, doc *Document) *memStore {
	t.Helper()
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return &memStore{data: b}
}

func (s *memStore) Load(ctx context.Context) (*Document, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.data == nil {
		return nil, ErrNotInitialized
	}
	var doc Document
	if err := json.Unmarshal(s.data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *memStore) Save(ctx context.Context, doc *Document) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.data = b
	s.saves++
	return nil
}

func sampleDoc() *Document {
	return &Document{
		Genres: []string{"Драма", "Фантастика"},
		Movies: []Movie{
			{Title: "The Godfather", Genre: "Драма", Year: "1972", Link: "https://l/1", Views: 10},
			{Title: "Dune", Genre: "Фантастика", Year: "2021", Link: "https://l/2", Views: 5},
			{Title: "Dune", Genre: "Фантастика", Year: "1984", Link: "https://l/3", Views: 8},
			{Title: "Arrival", Genre: "Фантастика", Year: "2016", Link: "https://l/4", Views: 1},
			{Title: "Heat", Genre: "Драма", Year: "1995", Link: "https://l/5", Views: 9},
			{Title: "Up", Genre: "Мультфильм", Year: "2009", Link: "https://l/6", Views: 3},
		},
	}
}

func TestSearchMovies(t *testing.T) {
	ctx := context.Background()
	c := New(newMemStore(t, sampleDoc()))

	got, err := c.SearchMovies(ctx, "godfather")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "The Godfather", got[0].Title)

	got, err = c.SearchMovies(ctx, "DUNE")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2021", got[0].Year)
	assert.Equal(t, "1984", got[1].Year)

	got, err = c.SearchMovies(ctx, "no such movie")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestIncrementViews(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t, sampleDoc())
	c := New(store)

	require.NoError(t, c.IncrementViews(ctx, "Dune", "2021"))
	doc, err := c.Load(ctx)
	require.NoError(t, err)

	want := sampleDoc()
	want.Movies[1].Views++
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestIncrementViewsMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t, sampleDoc())
	c := New(store)

	require.NoError(t, c.IncrementViews(ctx, "Dune", "1999"))
	require.NoError(t, c.IncrementViews(ctx, "dune", "2021"))
	assert.Equal(t, 0, store.saves)

	doc, err := c.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleDoc(), doc); diff != "" {
		t.Fatalf("document changed (-want +got):\n%s", diff)
	}
}

func TestTopMovies(t *testing.T) {
	ctx := context.Background()
	c := New(newMemStore(t, sampleDoc()))

	top, err := c.TopMovies(ctx, 5)
	require.NoError(t, err)
	views := make([]int, 0, len(top))
	for _, m := range top {
		views = append(views, m.Views)
	}
	assert.Equal(t, []int{10, 9, 8, 5, 3}, views)
}

func TestTopMoviesStableOnTies(t *testing.T) {
	ctx := context.Background()
	doc := &Document{Genres: []string{}, Movies: []Movie{
		{Title: "A", Year: "1", Views: 2},
		{Title: "B", Year: "1", Views: 7},
		{Title: "C", Year: "1", Views: 2},
	}}
	c := New(newMemStore(t, doc))

	top, err := c.TopMovies(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{top[0].Title, top[1].Title, top[2].Title})
}

func TestMoviesByGenre(t *testing.T) {
	ctx := context.Background()
	doc := &Document{Genres: []string{"Комедия"}}
	for i := 0; i < 9; i++ {
		doc.Movies = append(doc.Movies, Movie{Title: string(rune('A' + i)), Genre: "Комедия", Year: "2000"})
	}
	c := New(newMemStore(t, doc))

	got, err := c.MoviesByGenre(ctx, "Комедия", 7)
	require.NoError(t, err)
	assert.Len(t, got, 7)
	assert.Equal(t, "A", got[0].Title)

	got, err = c.MoviesByGenre(ctx, "Ужасы", 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddGenre(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(t, sampleDoc())
	c := New(store)

	require.NoError(t, c.AddGenre(ctx, "Драма"))
	assert.Equal(t, 0, store.saves)

	require.NoError(t, c.AddGenre(ctx, "драма"))
	doc, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Драма", "Фантастика", "драма"}, doc.Genres)
}

func TestAddMovieResetsViews(t *testing.T) {
	ctx := context.Background()
	c := New(newMemStore(t, NewDocument()))

	require.NoError(t, c.AddMovie(ctx, Movie{Title: "Heat", Genre: "Драма", Year: "1995", Views: 40}))
	doc, err := c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Movies, 1)
	assert.Equal(t, 0, doc.Movies[0].Views)
}

func TestDeleteMovie(t *testing.T) {
	ctx := context.Background()
	doc := sampleDoc()
	doc.Movies = append(doc.Movies, Movie{Title: "Dune", Year: "2021", Genre: "Фантастика"})
	c := New(newMemStore(t, doc))

	n, err := c.DeleteMovie(ctx, "Dune", "2021")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = c.DeleteMovie(ctx, "dune", "1984")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := c.SearchMovies(ctx, "dune")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1984", got[0].Year)
}

func TestLoadErrorPropagates(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk gone")
	c := New(&memStore{loadErr: boom})

	_, err := c.SearchMovies(ctx, "x")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, c.AddGenre(ctx, "x"), boom)
	_, err = c.TopMovies(ctx, 5)
	assert.ErrorIs(t, err, boom)

	_, err = New(&memStore{}).Load(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
}
