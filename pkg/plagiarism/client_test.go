package plagiarism

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCheckPostsDocumentsAndParsesMatches(t *testing.T) {
	var gotBody map[string][]Document
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/check-plagiarism", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		_ = json.NewEncoder(w).Encode([]Match{
			{Email: "a@x.io", With: "b@x.io", Percentage: 96.5, Status: "Complete Plagiarism"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second*5)
	matches, err := client.Check(context.Background(), []Document{
		{Email: "a@x.io", Text: "lorem"},
		{Email: "b@x.io", Text: "lorem"},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "b@x.io", matches[0].With)
	require.InDelta(t, 96.5, matches[0].Percentage, 0.001)
	require.Len(t, gotBody["files"], 2)
}

func TestCheckSkipsSingleDocument(t *testing.T) {
	client := NewClient("http://unused.invalid", time.Second)
	matches, err := client.Check(context.Background(), []Document{{Email: "a@x.io", Text: "lorem"}})
	require.NoError(t, err)
	require.Nil(t, matches)
}

func TestCheckNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no files"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second*5)
	_, err := client.Check(context.Background(), []Document{
		{Email: "a@x.io", Text: "lorem"},
		{Email: "b@x.io", Text: "ipsum"},
	})
	require.Error(t, err)
}
