package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoSteg/internal/logging"
	"github.com/xob0t/GoSteg/pkg/container"
	"github.com/xob0t/GoSteg/pkg/generator"
	"github.com/xob0t/GoSteg/pkg/lsb"
	"github.com/xob0t/GoSteg/pkg/stego"
)

func newTestHandler(t *testing.T, maxUpload int64) http.Handler {
	t.Helper()
	h, err := NewHandler(Options{
		Stego:          stego.DefaultOptions(),
		MaxUploadBytes: maxUpload,
		Log:            logging.Discard(),
	})
	require.NoError(t, err)
	return h
}

func coverPNG(t *testing.T, w, h int, pattern, color string) []byte {
	t.Helper()
	var buf bytes.Buffer
	err := generator.GenerateToWriter(&buf, ".png", generator.Config{
		Width: w, Height: h, Pattern: pattern, Color: color, Seed: 7,
	})
	require.NoError(t, err)
	return buf.Bytes()
}

// upload builds a multipart request with an "image" file and form fields.
func upload(t *testing.T, path string, image []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if image != nil {
		fw, err := mw.CreateFormFile("image", "cover.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHideThenReveal(t *testing.T) {
	h := newTestHandler(t, 0)
	msg := "Meet at the old mill at 9pm ☂"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "/api/hide", coverPNG(t, 64, 64, "noise", ""), map[string]string{"message": msg}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "secret_image.png")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "12288", rec.Header().Get("X-Capacity-Bits"))

	stegoPNG := rec.Body.Bytes()

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "/api/reveal", stegoPNG, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp revealResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, msg, resp.Message)
	assert.Equal(t, "png", resp.SourceFormat)
	assert.Empty(t, resp.Warning)
}

func TestHide_EmptyMessage(t *testing.T) {
	h := newTestHandler(t, 0)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "/api/hide", coverPNG(t, 8, 8, "solid", "#000000"), map[string]string{"message": ""}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgEmpty, errorBody(t, rec))
}

func TestHide_TooLong(t *testing.T) {
	h := newTestHandler(t, 0)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "/api/hide", coverPNG(t, 2, 2, "solid", "#ffffff"),
		map[string]string{"message": "more than a four pixel image can hold"}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, errorBody(t, rec), "needs")
}

func TestHide_NoImage(t *testing.T) {
	h := newTestHandler(t, 0)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "/api/hide", nil, map[string]string{"message": "hi"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no image uploaded", errorBody(t, rec))
}

func TestReveal_NoMessage(t *testing.T) {
	h := newTestHandler(t, 0)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "/api/reveal", coverPNG(t, 16, 16, "solid", "#000000"), nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgNoMessage, errorBody(t, rec))
}

func TestReveal_NotAnImage(t *testing.T) {
	h := newTestHandler(t, 0)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "/api/reveal", []byte("definitely not an image"), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgNoMessage, errorBody(t, rec))
}

func TestHide_NotAnImage(t *testing.T) {
	h := newTestHandler(t, 0)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "/api/hide", []byte("definitely not an image"), map[string]string{"message": "hi"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgBadImage, errorBody(t, rec))
}

func TestWriteError(t *testing.T) {
	s := &srv{log: logging.Discard()}

	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"unreadable upload", fmt.Errorf("%w: png: invalid format", container.ErrUnreadableImage), http.StatusBadRequest, msgBadImage},
		{"capacity", &lsb.CapacityError{Required: 48, Available: 12}, http.StatusRequestEntityTooLarge, "message too long for this image: needs 48 bits, image holds 12"},
		{"no message", lsb.ErrNoMessage, http.StatusNotFound, msgNoMessage},
		{"empty", stego.ErrEmptyMessage, http.StatusBadRequest, msgEmpty},
		{"encoder failure", errors.New("encode PNG: short write"), http.StatusInternalServerError, msgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeError(rec, httptest.NewRequest(http.MethodPost, "/api/hide", nil), tt.err, msgBadImage)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, errorBody(t, rec))
		})
	}
}

func TestNewHandler_RejectsSentinelCompression(t *testing.T) {
	o := stego.DefaultOptions()
	o.Layout.Framing = lsb.Sentinel
	o.Compression = "brotli"

	_, err := NewHandler(Options{Stego: o, Log: logging.Discard()})
	assert.ErrorIs(t, err, lsb.ErrInvalidLayout)
}

func TestUpload_TooLarge(t *testing.T) {
	h := newTestHandler(t, 512)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "/api/capacity", bytes.Repeat([]byte{0xAB}, 4096), nil))

	assert.Contains(t, []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}, rec.Code)
}

func TestCapacity(t *testing.T) {
	h := newTestHandler(t, 0)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "/api/capacity", coverPNG(t, 10, 10, "gradient", "#336699"), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp capacityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, capacityResponse{
		Format:        "png",
		Width:         10,
		Height:        10,
		CapacityBits:  300,
		CapacityBytes: 33,
	}, resp)
}

func TestCover(t *testing.T) {
	h := newTestHandler(t, 0)

	tests := []struct {
		name     string
		body     string
		status   int
		mimeType string
	}{
		{"default png", `{"width": 32, "height": 16, "seed": 1}`, http.StatusOK, "image/png"},
		{"bmp", `{"width": 8, "height": 8, "pattern": "solid", "color": "#123456", "format": "bmp"}`, http.StatusOK, "image/bmp"},
		{"empty body", ``, http.StatusOK, "image/png"},
		{"lossy format", `{"format": "jpeg"}`, http.StatusBadRequest, ""},
		{"bad color", `{"color": "teal"}`, http.StatusBadRequest, ""},
		{"too big", `{"width": 100000}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/cover", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.mimeType != "" {
				assert.Equal(t, tt.mimeType, rec.Header().Get("Content-Type"))
				assert.NotEmpty(t, rec.Body.Bytes())
			}
		})
	}
}

func TestIndexAndVersion(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "GoSteg")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}
