package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kinotut-bot/internal/catalog"
)

// Client talks to a neomovies-compatible movie metadata API.
type Client struct {
	apiBase string
	hc      *http.Client
}

func NewClient(apiBase string) *Client {
	return &Client{
		apiBase: strings.TrimRight(apiBase, "/"),
		hc:      &http.Client{Timeout: 9 * time.Second},
	}
}

type SearchResponse struct {
	Page        int     `json:"page"`
	Results     []Movie `json:"results"`
	TotalPages  int     `json:"total_pages"`
	TotalResult int     `json:"total_results"`
}

type Movie struct {
	Title            string `json:"title"`
	Name             string `json:"name"`
	NameRu           string `json:"nameRu"`
	NameOriginal     string `json:"nameOriginal"`
	Overview         string `json:"overview"`
	Description      string `json:"description"`
	ShortDescription string `json:"shortDescription"`
	PosterPath       string `json:"poster_path"`
	PosterURL        string `json:"posterUrl"`
	PosterURLPreview string `json:"posterUrlPreview"`
	ReleaseDate      string `json:"release_date"`
	Year             any    `json:"year"`
	Genres           []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	KinopoiskID int `json:"kinopoisk_id"`
	ExternalIDs struct {
		KP int `json:"kp"`
	} `json:"externalIds"`
}

func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*SearchResponse, error) {
	u, _ := url.Parse(c.apiBase + "/api/v1/movies/search")
	q := u.Query()
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("lang", "ru")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > 4096 {
			body = body[:4096]
		}
		return nil, fmt.Errorf("metadata search status %d: %s", resp.StatusCode, string(body))
	}

	// The API answers either {"success":..,"data":{...}} or the bare response.
	var wrapper struct {
		Data *SearchResponse `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Data != nil {
		return wrapper.Data, nil
	}
	var direct SearchResponse
	if err := json.Unmarshal(body, &direct); err != nil {
		return nil, fmt.Errorf("decode metadata search: %w", err)
	}
	return &direct, nil
}

// Suggestion maps an API result into a catalog entry the admin can paste
// back as a bulk-add line. Link is left for the admin to fill in.
func (c *Client) Suggestion(m Movie) catalog.Movie {
	genre := ""
	if len(m.Genres) > 0 {
		genre = strings.TrimSpace(m.Genres[0].Name)
	}
	desc := strings.TrimSpace(firstNonEmpty(m.ShortDescription, m.Overview, m.Description))
	if r := []rune(desc); len(r) > 300 {
		desc = string(r[:300]) + "…"
	}
	return catalog.Movie{
		Title:       firstNonEmpty(m.Title, m.NameRu, m.Name, m.NameOriginal),
		Genre:       genre,
		Year:        m.year(),
		Link:        "-",
		Description: desc,
		Poster:      c.ImageURL(firstNonEmpty(m.PosterPath, m.PosterURLPreview, m.PosterURL), m.kpID()),
	}
}

func (m Movie) kpID() int {
	if m.ExternalIDs.KP != 0 {
		return m.ExternalIDs.KP
	}
	return m.KinopoiskID
}

func (m Movie) year() string {
	switch v := m.Year.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		if v > 0 {
			return strconv.Itoa(int(v))
		}
	}
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

func (c *Client) ImageURL(path string, kpID int) string {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "http") {
		return path
	}
	if kpID > 0 {
		return fmt.Sprintf("%s/api/v1/images/kp_big/%d?fallback=true", c.apiBase, kpID)
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
