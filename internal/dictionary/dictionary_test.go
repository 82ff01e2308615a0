package dictionary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlockCS/BookClub/internal/apiclient"
	domerrors "github.com/FlockCS/BookClub/internal/errors"
)

func newTestDictionary(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	api := apiclient.New(apiclient.Config{Service: "dictionary", Timeout: time.Second, InitialDelay: time.Millisecond})
	return NewClient(api, srv.URL)
}

func TestDefineWord(t *testing.T) {
	c := newTestDictionary(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entries/en/read", r.URL.Path)
		_, _ = w.Write([]byte(`[
		  {"word": "read", "meanings": [
		    {"partOfSpeech": "verb", "definitions": [
		      {"definition": "To look at and interpret letters."},
		      {"definition": "To speak aloud words that are written."},
		      {"definition": "To interpret."},
		      {"definition": "A fourth one that is dropped."}
		    ]},
		    {"partOfSpeech": "noun", "definitions": [{"definition": "A reading session."}]}
		  ]},
		  {"word": "read", "meanings": [
		    {"partOfSpeech": "noun", "definitions": [{"definition": "Something to read."}, {"definition": "  "}]},
		    {"partOfSpeech": "adjective", "definitions": []}
		  ]}
		]`))
	})

	meanings, err := c.DefineWord(context.Background(), " Read ")
	require.NoError(t, err)
	require.Len(t, meanings, 2)

	assert.Equal(t, "verb", meanings[0].PartOfSpeech)
	assert.Len(t, meanings[0].Definitions, MaxDefinitions)
	assert.Equal(t, "noun", meanings[1].PartOfSpeech)
	assert.Equal(t, []string{"A reading session.", "Something to read."}, meanings[1].Definitions)
}

func TestDefineWord_NotFound(t *testing.T) {
	c := newTestDictionary(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"title": "No Definitions Found"}`))
	})

	_, err := c.DefineWord(context.Background(), "xyzzyq")
	assert.ErrorIs(t, err, domerrors.ErrNotFound)
}

func TestDefineWord_MalformedIsNotFound(t *testing.T) {
	c := newTestDictionary(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"word": "x", "meanings": []}]`))
	})

	_, err := c.DefineWord(context.Background(), "x")
	assert.ErrorIs(t, err, domerrors.ErrNotFound)
}

func TestDefineWord_TransportError(t *testing.T) {
	c := newTestDictionary(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.DefineWord(context.Background(), "word")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domerrors.ErrNotFound)

	var collab *domerrors.CollaboratorError
	assert.ErrorAs(t, err, &collab)
}

func TestDefineWord_Empty(t *testing.T) {
	c := NewClient(apiclient.New(apiclient.Config{Service: "dictionary"}), "http://unused")
	_, err := c.DefineWord(context.Background(), "   ")
	assert.ErrorIs(t, err, domerrors.ErrNotFound)
}
