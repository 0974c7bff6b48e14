package clipserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	var gotReq scoreRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/score", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(scoreResponse{
			Scores: map[string]float64{"hammer": 0.31, "no hammer": 0.22},
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	scores, err := c.Score(context.Background(), "ViT-B-32", "aW1n", []string{"hammer", "no hammer"})
	require.NoError(t, err)
	require.InDelta(t, 0.31, scores["hammer"], 1e-9)
	require.InDelta(t, 0.22, scores["no hammer"], 1e-9)

	require.Equal(t, "ViT-B-32", gotReq.Model)
	require.Equal(t, "aW1n", gotReq.Image)
	require.Equal(t, []string{"hammer", "no hammer"}, gotReq.Prompts)
}

func TestScoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model not loaded"))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Score(context.Background(), "", "aW1n", []string{"hammer"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP 500")
}

func TestScoreApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(scoreResponse{Error: "image too small"})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Score(context.Background(), "", "aW1n", []string{"hammer"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "image too small")
}

func TestScoreMissingPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(scoreResponse{Scores: map[string]float64{"hammer": 0.3}})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Score(context.Background(), "", "aW1n", []string{"hammer", "no hammer"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no hammer")
}

func TestScoreNoPrompts(t *testing.T) {
	c, err := NewClient("http://localhost:9")
	require.NoError(t, err)

	_, err = c.Score(context.Background(), "", "aW1n", nil)
	require.Error(t, err)
}

func TestNewClientDefaultURL(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8090", c.baseURL)
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	c, err := NewClient("http://scorer:8090/")
	require.NoError(t, err)
	require.Equal(t, "http://scorer:8090", c.baseURL)
}
