package metadata

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageFetcher(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer stub.Close()

	f := NewImageFetcher()
	data, mime, err := f.Fetch(context.Background(), stub.URL)
	require.NoError(t, err)
	require.Equal(t, payload, data)
	require.Equal(t, "image/jpeg", mime)
}

func TestImageFetcherRejectsOversized(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0}, maxImageBytes+1))
	}))
	defer stub.Close()

	f := NewImageFetcher()
	_, _, err := f.Fetch(context.Background(), stub.URL)
	require.Error(t, err)
}

func TestImageFetcherNon200(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer stub.Close()

	f := NewImageFetcher()
	_, _, err := f.Fetch(context.Background(), stub.URL)
	require.Error(t, err)
}
