// Package dictionary looks up English definitions from the Free Dictionary API.
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/FlockCS/BookClub/internal/apiclient"
	domerrors "github.com/FlockCS/BookClub/internal/errors"
)

// MaxDefinitions is the number of definitions kept per part of speech.
const MaxDefinitions = 3

// Meaning groups definitions by part of speech.
type Meaning struct {
	PartOfSpeech string
	Definitions  []string
}

// Client queries the dictionary API.
type Client struct {
	api     *apiclient.Client
	baseURL string
}

// NewClient creates a dictionary client for baseURL
// (e.g. https://api.dictionaryapi.dev/api/v2).
func NewClient(api *apiclient.Client, baseURL string) *Client {
	return &Client{api: api, baseURL: strings.TrimRight(baseURL, "/")}
}

type entry struct {
	Word     string `json:"word"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// DefineWord returns the meanings of word in API order, merging entries
// that share a part of speech. It returns errors.ErrNotFound when the word
// is unknown or the response holds no definitions.
func (c *Client) DefineWord(ctx context.Context, word string) ([]Meaning, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, domerrors.ErrNotFound
	}

	var entries []entry
	endpoint := c.baseURL + "/entries/en/" + url.PathEscape(strings.ToLower(word))
	if err := c.api.GetJSON(ctx, endpoint, &entries); err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			return nil, domerrors.ErrNotFound
		}
		return nil, fmt.Errorf("define %q: %w", word, err)
	}

	meanings := collect(entries)
	if len(meanings) == 0 {
		return nil, domerrors.ErrNotFound
	}
	return meanings, nil
}

func collect(entries []entry) []Meaning {
	var meanings []Meaning
	index := make(map[string]int)

	for _, e := range entries {
		for _, m := range e.Meanings {
			pos := strings.TrimSpace(m.PartOfSpeech)
			if pos == "" {
				pos = "other"
			}
			i, ok := index[pos]
			if !ok {
				i = len(meanings)
				index[pos] = i
				meanings = append(meanings, Meaning{PartOfSpeech: pos})
			}
			for _, d := range m.Definitions {
				if len(meanings[i].Definitions) == MaxDefinitions {
					break
				}
				if def := strings.TrimSpace(d.Definition); def != "" {
					meanings[i].Definitions = append(meanings[i].Definitions, def)
				}
			}
		}
	}

	out := meanings[:0]
	for _, m := range meanings {
		if len(m.Definitions) > 0 {
			out = append(out, m)
		}
	}
	return out
}
