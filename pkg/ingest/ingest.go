package ingest

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"pixelmirror/pkg/mirror"
	"pixelmirror/pkg/raster"
)

// StateHeader tells the producer whether a mirror exists yet.
const StateHeader = "X-Mirror-State"

// Mirror is the part of mirror.Keeper the API drives.
type Mirror interface {
	Identity() mirror.Identity
	Update(ctx context.Context, buf []byte) (bool, error)
	Clear() error
}

type StatusResponse struct {
	Identity mirror.Identity   `json:"identity"`
	Ready    bool              `json:"ready"`
	Canvas   raster.Dimensions `json:"canvas"`
}

type UpdateResponse struct {
	Updated bool   `json:"updated"`
	Size    string `json:"size"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHandler serves the API through which the canvas producer hands raw
// pixel buffers to the mirror.
func NewHandler(m Mirror, dims raster.Dimensions, logger *zap.Logger) http.Handler {
	h := &handler{m: m, dims: dims, log: logger.With(zap.String("via", "ingest"))}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "ok")
	})
	r.Put("/canvas", h.putCanvas)
	r.Get("/mirror", h.getMirror)
	r.Delete("/mirror", h.deleteMirror)

	return r
}

type handler struct {
	m    Mirror
	dims raster.Dimensions
	log  *zap.Logger
}

func (h *handler) putCanvas(w http.ResponseWriter, r *http.Request) {
	// one byte over the limit is enough to detect an oversized body
	buf, err := io.ReadAll(io.LimitReader(r.Body, int64(h.dims.BufferLen())+1))
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}

	updated, err := h.m.Update(r.Context(), buf)
	switch {
	case err == nil:
	case errors.Is(err, raster.ErrInvalidBufferLength), errors.Is(err, raster.ErrInvalidScale):
		h.fail(w, r, http.StatusBadRequest, err)
		return
	case errors.Is(err, mirror.ErrStaleMirror):
		h.fail(w, r, http.StatusConflict, err)
		return
	default:
		h.fail(w, r, http.StatusBadGateway, err)
		return
	}

	if updated {
		w.Header().Set(StateHeader, "updated")
	} else {
		w.Header().Set(StateHeader, "uninitialized")
	}

	render.JSON(w, r, &UpdateResponse{
		Updated: updated,
		Size:    bytesize.New(float64(len(buf))).String(),
	})
}

func (h *handler) getMirror(w http.ResponseWriter, r *http.Request) {
	id := h.m.Identity()
	render.JSON(w, r, &StatusResponse{Identity: id, Ready: id.Ready(), Canvas: h.dims})
}

func (h *handler) deleteMirror(w http.ResponseWriter, r *http.Request) {
	if err := h.m.Clear(); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.log.With(zap.Error(err), zap.Int("status", status)).Info("request failed")
	render.Status(r, status)
	render.JSON(w, r, &ErrorResponse{Error: err.Error()})
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.With(
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("cost", time.Since(start)),
		).Debug("request")
	})
}
