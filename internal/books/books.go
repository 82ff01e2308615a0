// Package books searches the Google Books volumes API.
package books

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/FlockCS/BookClub/internal/apiclient"
	domerrors "github.com/FlockCS/BookClub/internal/errors"
	"github.com/FlockCS/BookClub/internal/sliceutil"
	"github.com/FlockCS/BookClub/internal/storage"
	"github.com/FlockCS/BookClub/internal/stringutil"
)

// MaxResults is the number of candidates shown for one search.
const MaxResults = 5

// DescriptionLimit is the display length of a candidate description.
const DescriptionLimit = 150

// Query holds the /search options. Empty fields are ignored.
type Query struct {
	Title     string
	Author    string
	Publisher string
	ISBN      string
}

// IsEmpty reports whether no search option was given.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Title) == "" &&
		strings.TrimSpace(q.Author) == "" &&
		strings.TrimSpace(q.Publisher) == "" &&
		strings.TrimSpace(q.ISBN) == ""
}

// Terms builds the Google Books q parameter: field-qualified terms joined with "+".
func (q Query) Terms() string {
	var parts []string
	add := func(prefix, value string) {
		if v := strings.TrimSpace(value); v != "" {
			parts = append(parts, prefix+v)
		}
	}
	add("intitle:", q.Title)
	add("inauthor:", q.Author)
	add("inpublisher:", q.Publisher)
	add("isbn:", stringutil.NormalizeISBN(q.ISBN))
	return strings.Join(parts, "+")
}

// String is the query as shown back to the user.
func (q Query) String() string {
	var parts []string
	for _, kv := range [][2]string{
		{"title", q.Title},
		{"author", q.Author},
		{"publisher", q.Publisher},
		{"isbn", q.ISBN},
	} {
		if v := strings.TrimSpace(kv[1]); v != "" {
			parts = append(parts, kv[0]+": "+v)
		}
	}
	return strings.Join(parts, ", ")
}

// Client searches Google Books.
type Client struct {
	api     *apiclient.Client
	baseURL string
	apiKey  string
}

// NewClient creates a Google Books client. apiKey may be empty.
func NewClient(api *apiclient.Client, baseURL, apiKey string) *Client {
	return &Client{
		api:     api,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type volumesResponse struct {
	Items []struct {
		VolumeInfo volumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type volumeInfo struct {
	Title               string   `json:"title"`
	Authors             []string `json:"authors"`
	Description         string   `json:"description"`
	PreviewLink         string   `json:"previewLink"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
	ImageLinks struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

// SearchBooks returns up to maxResults candidates. An empty slice means no
// match; any transport or decoding failure returns errors.ErrSearchUnavailable.
func (c *Client) SearchBooks(ctx context.Context, q Query, maxResults int) ([]storage.BookCandidate, error) {
	if q.IsEmpty() {
		return nil, domerrors.ErrEmptyQuery
	}
	if maxResults <= 0 || maxResults > MaxResults {
		maxResults = MaxResults
	}

	params := url.Values{}
	params.Set("q", q.Terms())
	params.Set("maxResults", strconv.Itoa(maxResults))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	endpoint := c.baseURL + "/volumes?" + params.Encode()

	var resp volumesResponse
	if err := c.api.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", domerrors.ErrSearchUnavailable, err)
	}

	results := make([]storage.BookCandidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, toCandidate(item.VolumeInfo))
	}
	// Google Books lists reissues of one edition as separate volumes.
	results = sliceutil.Deduplicate(results, candidateKey)
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func candidateKey(c storage.BookCandidate) string {
	if c.ISBN != "N/A" {
		return c.ISBN
	}
	return c.Title + "\x00" + JoinAuthors(c.Authors)
}

func toCandidate(info volumeInfo) storage.BookCandidate {
	title := info.Title
	if title == "" {
		title = "No Title"
	}
	authors := sliceutil.NonBlank(info.Authors)
	if len(authors) == 0 {
		authors = []string{"Unknown Author"}
	}
	return storage.BookCandidate{
		Title:        title,
		Authors:      authors,
		ISBN:         pickISBN(info),
		PreviewLink:  info.PreviewLink,
		ThumbnailURL: info.ImageLinks.Thumbnail,
		Description:  TruncateDescription(info.Description),
	}
}

// pickISBN prefers ISBN-13, then ISBN-10, then "N/A".
func pickISBN(info volumeInfo) string {
	var isbn10 string
	for _, id := range info.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		}
	}
	if isbn10 != "" {
		return isbn10
	}
	return "N/A"
}

// TruncateDescription cuts s to DescriptionLimit runes plus "...".
func TruncateDescription(s string) string {
	return stringutil.Ellipsis(s, DescriptionLimit)
}

// JoinAuthors renders an author list for display.
func JoinAuthors(authors []string) string {
	if len(authors) == 0 {
		return "Unknown Author"
	}
	return strings.Join(authors, ", ")
}
