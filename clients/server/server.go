// Package server provides the GoSteg web UI and HTTP API.
//
// The server is stateless: uploaded images and messages live only for the
// duration of a request and nothing is written to disk.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoSteg/internal/config"
	"github.com/xob0t/GoSteg/internal/httputil"
	"github.com/xob0t/GoSteg/internal/logging"
	"github.com/xob0t/GoSteg/internal/version"
	"github.com/xob0t/GoSteg/pkg/container"
	"github.com/xob0t/GoSteg/pkg/generator"
	"github.com/xob0t/GoSteg/pkg/lsb"
	"github.com/xob0t/GoSteg/pkg/payload"
	"github.com/xob0t/GoSteg/pkg/stego"
)

//go:embed web/*
var webContent embed.FS

// User-facing messages shown by the web UI.
const (
	msgEmpty     = "Please enter a message to encode"
	msgNoMessage = "No hidden message found or image is invalid"
	msgBadImage  = "Could not read the uploaded image"
	msgInternal  = "Something went wrong while processing the image"
)

// Options configures the HTTP handler.
type Options struct {
	Stego          stego.Options
	MaxUploadBytes int64
	Log            *logrus.Logger
}

type srv struct {
	opts Options
	log  *logrus.Logger
}

// RunServe starts the web UI server.
func RunServe(args []string) error {
	fset := flag.NewFlagSet("serve", flag.ExitOnError)

	var (
		configPath string
		addr       string
		port       string
		noBrowser  bool
	)
	fset.StringVar(&configPath, "config", "", "Path to .json/.yaml config file")
	fset.StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	fset.StringVar(&port, "port", "", "Listen port (shorthand for --addr :PORT)")
	fset.StringVar(&port, "p", "", "Listen port")
	fset.BoolVar(&noBrowser, "no-browser", false, "Do not open a browser window")
	if err := fset.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	switch {
	case addr != "":
		cfg.Server.Addr = addr
	case port != "":
		cfg.Server.Addr = ":" + port
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	so, err := cfg.StegoOptions()
	if err != nil {
		return err
	}

	handler, err := NewHandler(Options{
		Stego:          so,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Log:            log,
	})
	if err != nil {
		return err
	}

	url := "http://localhost" + cfg.Server.Addr
	if !strings.HasPrefix(cfg.Server.Addr, ":") {
		url = "http://" + cfg.Server.Addr
	}
	log.WithFields(logrus.Fields{
		"addr":        cfg.Server.Addr,
		"order":       cfg.Layout.Order,
		"framing":     so.Layout.Framing.String(),
		"compression": cfg.Compression,
		"version":     version.Version,
	}).Infof("GoSteg UI → %s", url)

	if cfg.Server.OpenBrowser && !noBrowser {
		go openBrowser(url)
	}

	hs := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return hs.ListenAndServe()
}

// NewHandler builds the API and static file routes.
func NewHandler(o Options) (http.Handler, error) {
	if err := o.Stego.Validate(); err != nil {
		return nil, err
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 32 << 20
	}
	if o.Log == nil {
		o.Log = logging.Discard()
	}
	s := &srv{opts: o, log: o.Log}

	webFS, err := fs.Sub(webContent, "web")
	if err != nil {
		return nil, fmt.Errorf("embed web: %w", err)
	}

	mux := http.NewServeMux()

	// API routes.
	mux.HandleFunc("POST /api/hide", s.handleHide)
	mux.HandleFunc("POST /api/reveal", s.handleReveal)
	mux.HandleFunc("POST /api/capacity", s.handleCapacity)
	mux.HandleFunc("POST /api/cover", s.handleCover)
	mux.HandleFunc("GET /api/version", s.handleVersion)

	// Static files.
	mux.Handle("/", http.FileServer(http.FS(webFS)))

	return s.withRequestLog(mux), nil
}

// ── Hide ──

func (s *srv) handleHide(w http.ResponseWriter, r *http.Request) {
	src, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	msg := r.FormValue("message")
	if msg == "" {
		httputil.BadRequest(w, msgEmpty)
		return
	}

	res, err := stego.Hide(src, payload.FromText(msg), s.opts.Stego)
	if err != nil {
		s.writeError(w, r, err, msgBadImage)
		return
	}

	w.Header().Set("Content-Type", res.Format.MIME())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="secret_image%s"`, res.Format.Ext()))
	w.Header().Set("X-Capacity-Bits", strconv.Itoa(res.CapacityBits))
	w.Header().Set("X-Used-Bits", strconv.Itoa(res.UsedBits))
	w.Write(res.Data)
}

// ── Reveal ──

type revealResponse struct {
	Message      string `json:"message"`
	SourceFormat string `json:"source_format"`
	Warning      string `json:"warning,omitempty"`
}

func (s *srv) handleReveal(w http.ResponseWriter, r *http.Request) {
	src, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	text, rev, err := stego.RevealText(src, s.opts.Stego)
	if err != nil {
		s.writeError(w, r, err, msgNoMessage)
		return
	}

	resp := revealResponse{Message: text, SourceFormat: string(rev.SourceFormat)}
	if rev.LossySource {
		resp.Warning = fmt.Sprintf("%s is a lossy format; the message may be corrupt", rev.SourceFormat)
	}
	httputil.WriteJSONOK(w, resp)
}

// ── Capacity ──

type capacityResponse struct {
	Format        string `json:"format"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Lossy         bool   `json:"lossy"`
	CapacityBits  int    `json:"capacity_bits"`
	CapacityBytes int    `json:"capacity_bytes"`
}

func (s *srv) handleCapacity(w http.ResponseWriter, r *http.Request) {
	src, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	info, err := stego.Inspect(src, s.opts.Stego)
	if err != nil {
		s.writeError(w, r, err, msgBadImage)
		return
	}
	httputil.WriteJSONOK(w, capacityResponse{
		Format:        string(info.Format),
		Width:         info.Width,
		Height:        info.Height,
		Lossy:         info.Lossy,
		CapacityBits:  info.CapacityBits,
		CapacityBytes: info.CapacityBytes,
	})
}

// ── Cover ──

type coverRequest struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Color   string `json:"color"`
	Pattern string `json:"pattern"`
	Caption string `json:"caption"`
	Seed    uint64 `json:"seed"`
	Format  string `json:"format"`
}

// Covers are generated in memory, so keep them to a sane size.
const maxCoverSide = 4096

func (s *srv) handleCover(w http.ResponseWriter, r *http.Request) {
	var req coverRequest
	body := http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.BadRequest(w, "decode request: "+err.Error())
		return
	}
	if req.Width > maxCoverSide || req.Height > maxCoverSide {
		httputil.BadRequest(w, fmt.Sprintf("cover sides are limited to %d pixels", maxCoverSide))
		return
	}

	f := container.PNG
	if req.Format != "" {
		var err error
		if f, err = container.ParseFormat(req.Format); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
	}

	img, err := generator.NewCover(generator.Config{
		Width:   req.Width,
		Height:  req.Height,
		Color:   req.Color,
		Pattern: req.Pattern,
		Caption: req.Caption,
		Seed:    req.Seed,
	})
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	data, err := container.EncodeBytes(container.ToGrid(img), f)
	if err != nil {
		s.writeError(w, r, err, msgBadImage)
		return
	}

	w.Header().Set("Content-Type", f.MIME())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cover%s"`, f.Ext()))
	w.Write(data)
}

func (s *srv) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

// ── Helpers ──

// readUpload returns the "image" file of a multipart request. On failure
// it has already written the response.
func (s *srv) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit))
			return nil, false
		}
		httputil.BadRequest(w, "expected multipart form: "+err.Error())
		return nil, false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		httputil.BadRequest(w, "no image uploaded")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.BadRequest(w, "read image: "+err.Error())
		return nil, false
	}
	return data, true
}

// writeError maps pipeline errors onto HTTP statuses. badImage is the
// message shown when the upload itself cannot be decoded.
func (s *srv) writeError(w http.ResponseWriter, r *http.Request, err error, badImage string) {
	var capErr *lsb.CapacityError
	switch {
	case errors.Is(err, stego.ErrEmptyMessage), errors.Is(err, lsb.ErrEmptyMessage):
		httputil.BadRequest(w, msgEmpty)
	case errors.As(err, &capErr):
		httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("message too long for this image: needs %d bits, image holds %d", capErr.Required, capErr.Available))
	case errors.Is(err, lsb.ErrCapacityExceeded), errors.Is(err, container.ErrTooLarge):
		httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, lsb.ErrNoMessage):
		httputil.NotFound(w, msgNoMessage)
	case errors.Is(err, payload.ErrInvalidEncoding), errors.Is(err, lsb.ErrMarkerInMessage):
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, container.ErrUnreadableImage):
		s.log.WithError(err).WithField("request_id", requestID(r)).Debug("Rejected image")
		httputil.BadRequest(w, badImage)
	case errors.Is(err, container.ErrLossyFormat), errors.Is(err, lsb.ErrInvalidLayout):
		httputil.BadRequest(w, err.Error())
	default:
		s.log.WithError(err).WithField("request_id", requestID(r)).Error("Request failed")
		httputil.InternalServerError(w, msgInternal)
	}
}

type ctxKey struct{}

func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// withRequestLog tags each request with an ID and logs its outcome.
// Messages and images are never logged.
func (s *srv) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := max(rec.status, http.StatusOK)
		entry := s.log.WithFields(logrus.Fields{
			"request_id":  id,
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
			"status":      status,
			"bytes":       rec.bytes,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if status >= http.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Info("Request handled")
		}
	})
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}
