package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"toolcheck"
	"toolcheck/internal/config"
	"toolcheck/pkg/classify"
	"toolcheck/pkg/detection"
	"toolcheck/pkg/prompts"
	"toolcheck/pkg/report"
	"toolcheck/pkg/types"
)

type stubScorer struct {
	scores map[string]float64
}

func (s *stubScorer) Score(_ context.Context, _ string, _ string, promptList []string) (map[string]float64, error) {
	out := make(map[string]float64, len(promptList))
	for _, p := range promptList {
		out[p] = s.scores[p]
	}
	return out, nil
}

func newTestServer(t *testing.T, anns []types.Annotation) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	scores := make(map[string]float64)
	for _, c := range prompts.Categories() {
		template, _ := prompts.ForCategory(c)
		for _, p := range template.Positive {
			scores[p] = 0.01
		}
	}

	checker, err := toolcheck.New(&stubScorer{scores: scores}, classify.DefaultConfig(),
		report.DefaultBuckets(), detection.DefaultOptions(), nil)
	require.NoError(t, err)

	return New(checker, anns, config.Default().Server, nil)
}

func testImagePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{120, 120, 120, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(field, "toolbox.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, []types.Annotation{
		{RegionID: 1, Category: "hammer", Box: types.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}},
	})

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, float64(1), body["regions"])
}

func TestCheckEndpoint(t *testing.T) {
	srv := newTestServer(t, []types.Annotation{
		{RegionID: 1, Category: "hammer", Box: types.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}},
		{RegionID: 2, Category: "pliers", Box: types.BoundingBox{X: 20, Y: 0, Width: 10, Height: 10}},
	})

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, uploadRequest(t, "image", testImagePNG(t)))

	require.Equal(t, http.StatusOK, rec.Code)

	var rep types.ToolboxReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Equal(t, 2, rep.TotalCount)
	require.Equal(t, 2, rep.PresentCount)
	require.InDelta(t, 100.0, rep.CompletenessPct, 1e-9)
}

func TestCheckEndpointMissingFile(t *testing.T) {
	srv := newTestServer(t, []types.Annotation{
		{RegionID: 1, Category: "hammer", Box: types.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/check", nil)
	srv.router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckEndpointBadImage(t *testing.T) {
	srv := newTestServer(t, []types.Annotation{
		{RegionID: 1, Category: "hammer", Box: types.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}},
	})

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, uploadRequest(t, "image", []byte("not an image")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckEndpointNoAnnotations(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, uploadRequest(t, "image", testImagePNG(t)))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
