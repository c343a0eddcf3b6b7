package extract

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExtractTextSendsMultipartAndReturnsBody(t *testing.T) {
	var gotFilename string
	var gotPayload []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotPayload, err = io.ReadAll(file)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("extracted text"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second*5)
	text, err := client.ExtractText(context.Background(), "hw1.pdf", []byte("%PDF-fake"))
	require.NoError(t, err)
	require.Equal(t, "extracted text", text)
	require.Equal(t, "hw1.pdf", gotFilename)
	require.Equal(t, []byte("%PDF-fake"), gotPayload)
}

func TestExtractTextNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Failed to process PDF"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second*5)
	_, err := client.ExtractText(context.Background(), "hw1.pdf", []byte("%PDF-fake"))
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestExtractTextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 20*time.Millisecond)
	_, err := client.ExtractText(context.Background(), "hw1.pdf", []byte("%PDF-fake"))
	require.ErrorIs(t, err, ErrTimeout)
}

func TestExtractTextContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewClient(srv.URL, time.Second*5)
	_, err := client.ExtractText(ctx, "hw1.pdf", []byte("%PDF-fake"))
	require.ErrorIs(t, err, ErrTimeout)
}
