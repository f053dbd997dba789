package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/coverkit/pkg/covercache"
	"github.com/dmitrymomot/coverkit/pkg/httpserver"
	"github.com/dmitrymomot/coverkit/pkg/library"
	"github.com/dmitrymomot/coverkit/pkg/logger"
	"github.com/dmitrymomot/coverkit/pkg/requestid"
	"github.com/dmitrymomot/coverkit/pkg/texture"
)

const cacheHeader = "X-Cover-Cache"

var placeholderColor = color.NRGBA{R: 0x3a, G: 0x3a, B: 0x3a, A: 0xff}

type service struct {
	lib         *library.Library
	covers      *covercache.Coordinator[uuid.UUID, *texture.Texture]
	placeholder *texture.Texture
	maxSide     int
	log         *slog.Logger
}

func newService(lib *library.Library, fs billy.Basic, cfg appConfig, log *slog.Logger) (*service, error) {
	rs, err := cfg.resampler(fs)
	if err != nil {
		return nil, err
	}

	covers := covercache.New[uuid.UUID](texture.New,
		covercache.WithMaxCached(cfg.MaxCached),
		covercache.WithFS(fs),
		covercache.WithResampler(rs),
		covercache.WithLogger(log),
	)
	covers.OnStore(func(id uuid.UUID, tex *texture.Texture) {
		if item, ok := lib.Item(id); ok {
			item.SetCover(tex)
		}
	})
	covers.OnRelease(func(id uuid.UUID, _ *texture.Texture) {
		if item, ok := lib.Item(id); ok {
			item.ClearCover()
		}
	})

	return &service{
		lib:         lib,
		covers:      covers,
		placeholder: texture.Placeholder(cfg.MaxSide, placeholderColor),
		maxSide:     cfg.MaxSide,
		log:         log.With(logger.Component("coverd")),
	}, nil
}

func (s *service) router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.Recoverer)

	r.Get("/health", httpserver.HealthCheckHandler(s.log))
	r.Get("/stats", s.stats)
	r.Get("/covers/{id}", s.cover)
	r.Delete("/covers/{id}", s.evict)
	r.Put("/selection/{id}", s.selectItem)
	r.Delete("/selection", s.clearSelection)

	return r
}

// warm loads the first MaxCached covers of the library.
func (s *service) warm(ctx context.Context) {
	reqs := make([]covercache.Request[uuid.UUID, *texture.Texture], 0, s.covers.MaxCached())
	for _, item := range s.lib.Items() {
		if len(reqs) == cap(reqs) {
			break
		}
		if item.CoverPath() == "" {
			continue
		}
		reqs = append(reqs, covercache.Request[uuid.UUID, *texture.Texture]{
			ID:       item.ID,
			Path:     item.CoverPath(),
			Fallback: s.placeholder,
			MaxSide:  s.maxSide,
		})
	}

	s.covers.Prefetch(ctx, reqs...)
	s.log.InfoContext(ctx, "cover cache warmed", logger.Count("requested", len(reqs)), logger.Count("cached", s.covers.Len()))
}

func (s *service) close() {
	_ = s.covers.Close()
}

// cover serves the item's cover as PNG. The size parameter only applies when
// the cover is not cached yet.
func (s *service) cover(w http.ResponseWriter, r *http.Request) {
	item, ok := s.item(w, r)
	if !ok {
		return
	}

	size := s.maxSide
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid size", http.StatusBadRequest)
			return
		}
		size = n
	}

	state := "miss"
	if s.covers.Contains(item.ID) {
		state = "hit"
	}

	tex, _ := s.covers.Get(r.Context(), item.ID, item.CoverPath(), s.placeholder, size).Await()

	var buf bytes.Buffer
	err := tex.EncodePNG(&buf)
	if errors.Is(err, texture.ErrReleased) {
		// Evicted between lookup and encoding.
		buf.Reset()
		err = s.placeholder.EncodePNG(&buf)
	}
	if err != nil {
		s.log.ErrorContext(r.Context(), "encode cover", logger.ItemID(item.ID), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.log.DebugContext(r.Context(), "cover served",
		logger.ItemID(item.ID),
		logger.Size(tex.Width(), tex.Height()),
		slog.String("cache", state),
	)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set(cacheHeader, state)
	_, _ = w.Write(buf.Bytes())
}

func (s *service) evict(w http.ResponseWriter, r *http.Request) {
	item, ok := s.item(w, r)
	if !ok {
		return
	}
	if !s.covers.Evict(item.ID) {
		http.Error(w, "cover not cached", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *service) selectItem(w http.ResponseWriter, r *http.Request) {
	item, ok := s.item(w, r)
	if !ok {
		return
	}
	s.covers.SetActive(item.ID)
	s.log.DebugContext(r.Context(), "item selected", logger.ItemID(item.ID))
	w.WriteHeader(http.StatusNoContent)
}

func (s *service) clearSelection(w http.ResponseWriter, r *http.Request) {
	s.covers.ClearActive()
	w.WriteHeader(http.StatusNoContent)
}

type statsResponse struct {
	covercache.Stats
	Items  int        `json:"items"`
	Active *uuid.UUID `json:"active,omitempty"`
}

func (s *service) stats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Stats: s.covers.Stats(), Items: s.lib.Len()}
	if id, ok := s.covers.Active(); ok {
		resp.Active = &id
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.ErrorContext(r.Context(), "encode stats", logger.Error(err))
	}
}

func (s *service) item(w http.ResponseWriter, r *http.Request) (*library.Item, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return nil, false
	}
	item, ok := s.lib.Item(id)
	if !ok {
		http.Error(w, "item not found", http.StatusNotFound)
		return nil, false
	}
	return item, true
}
