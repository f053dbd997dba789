package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/coverkit/pkg/config"
	"github.com/dmitrymomot/coverkit/pkg/library"
	"github.com/dmitrymomot/coverkit/pkg/logger"
	"github.com/dmitrymomot/coverkit/pkg/requestid"
	"github.com/dmitrymomot/coverkit/pkg/resample"
)

var (
	duneID     = uuid.MustParse("6f1d2a0e-4a4b-4d55-9b1f-0f7c2a9d6c11")
	emptyID    = uuid.MustParse("0b8f5c6e-2d41-4f0e-8a55-3c1b9e7d4a20")
	missingID  = uuid.MustParse("9d2c7a10-5e3b-4c8f-b1a6-7f0e2d4c6b88")
	unknownID  = uuid.MustParse("11111111-2222-4333-8444-555555555555")
	testConfig = appConfig{MaxSide: 200, MaxCached: 2}
)

const testManifest = `
items:
  - id: 6f1d2a0e-4a4b-4d55-9b1f-0f7c2a9d6c11
    title: Dune
    dir: books/dune
    cover: cover.png
  - id: 0b8f5c6e-2d41-4f0e-8a55-3c1b9e7d4a20
    title: No Cover
    dir: books/empty
  - id: 9d2c7a10-5e3b-4c8f-b1a6-7f0e2d4c6b88
    title: Lost
    dir: books/lost
    cover: cover.png
`

func newTestService(t *testing.T) (*service, *library.Library) {
	t.Helper()

	fs := memfs.New()
	src := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	require.NoError(t, util.WriteFile(fs, "books/dune/cover.png", buf.Bytes(), 0o644))
	require.NoError(t, util.WriteFile(fs, "library.yaml", []byte(testManifest), 0o644))

	lib, err := library.Load(context.Background(), fs, "library.yaml")
	require.NoError(t, err)

	svc, err := newService(lib, fs, testConfig, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(svc.close)
	return svc, lib
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeSize(t *testing.T, rec *httptest.ResponseRecorder) image.Point {
	t.Helper()
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	return img.Bounds().Size()
}

func TestCoverEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("miss then hit", func(t *testing.T) {
		t.Parallel()
		svc, lib := newTestService(t)
		h := svc.router()

		rec := do(t, h, http.MethodGet, "/covers/"+duneID.String())
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(requestid.Header))
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "miss", rec.Header().Get(cacheHeader))
		assert.Equal(t, image.Pt(200, 100), decodeSize(t, rec))

		rec = do(t, h, http.MethodGet, "/covers/"+duneID.String())
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hit", rec.Header().Get(cacheHeader))

		item, _ := lib.Item(duneID)
		assert.NotNil(t, item.Cover())
	})

	t.Run("size override", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)

		rec := do(t, svc.router(), http.MethodGet, "/covers/"+duneID.String()+"?size=64")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, image.Pt(64, 32), decodeSize(t, rec))
	})

	t.Run("placeholder for items without a usable cover", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		h := svc.router()

		for _, id := range []uuid.UUID{emptyID, missingID} {
			rec := do(t, h, http.MethodGet, "/covers/"+id.String())
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "miss", rec.Header().Get(cacheHeader))
			assert.Equal(t, image.Pt(200, 200), decodeSize(t, rec))
		}
		assert.Zero(t, svc.covers.Len())
	})

	t.Run("bad requests", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		h := svc.router()

		assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/covers/nope").Code)
		assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/covers/"+duneID.String()+"?size=-1").Code)
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/covers/"+unknownID.String()).Code)
	})
}

func TestEvictEndpoint(t *testing.T) {
	t.Parallel()

	svc, lib := newTestService(t)
	h := svc.router()
	item, _ := lib.Item(duneID)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/covers/"+duneID.String()).Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/covers/"+duneID.String()).Code)
	tex := item.Cover()
	require.NotNil(t, tex)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/covers/"+duneID.String()).Code)
	assert.Nil(t, item.Cover())
	assert.True(t, tex.Released())
}

func TestSelectionEndpoints(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	h := svc.router()

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPut, "/selection/"+duneID.String()).Code)
	active, ok := svc.covers.Active()
	require.True(t, ok)
	assert.Equal(t, duneID, active)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/selection/"+unknownID.String()).Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/selection").Code)
	_, ok = svc.covers.Active()
	assert.False(t, ok)
}

func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	h := svc.router()
	do(t, h, http.MethodGet, "/covers/"+duneID.String())
	do(t, h, http.MethodPut, "/selection/"+duneID.String())

	rec := do(t, h, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Entries int    `json:"entries"`
		Misses  uint64 `json:"misses"`
		Items   int    `json:"items"`
		Active  string `json:"active"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 1, got.Entries)
	assert.Equal(t, uint64(1), got.Misses)
	assert.Equal(t, 3, got.Items)
	assert.Equal(t, duneID.String(), got.Active)
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	rec := do(t, svc.router(), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
}

func TestWarm(t *testing.T) {
	t.Parallel()

	svc, lib := newTestService(t)
	svc.warm(context.Background())

	assert.Equal(t, 1, svc.covers.Len())
	item, _ := lib.Item(duneID)
	assert.NotNil(t, item.Cover())
}

func TestAppConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		var cfg appConfig
		require.NoError(t, config.Load(&cfg, config.WithEnvironment(map[string]string{})))

		assert.Equal(t, 200, cfg.MaxSide)
		assert.Equal(t, 50, cfg.MaxCached)
		assert.Equal(t, "library.yaml", cfg.Library)
		assert.Equal(t, ":8080", cfg.HTTP.Addr)
		assert.True(t, cfg.Prefetch)
		assert.Equal(t, "catmullrom", cfg.Kernel)
		assert.Equal(t, resample.DefaultMaxPixels, cfg.MaxPixels)
		require.NoError(t, cfg.validate())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()
		var cfg appConfig
		require.NoError(t, config.Load(&cfg, config.WithEnvironment(map[string]string{
			"COVER_MAX_SIDE":   "128",
			"COVER_MAX_CACHED": "10",
			"HTTP_ADDR":        "127.0.0.1:9000",
			"COVER_KERNEL":     "bilinear",
			"COVER_MAX_PIXELS": "1000",
		})))

		assert.Equal(t, 128, cfg.MaxSide)
		assert.Equal(t, 10, cfg.MaxCached)
		assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
		assert.Equal(t, "bilinear", cfg.Kernel)
		assert.Equal(t, 1000, cfg.MaxPixels)
		require.NoError(t, cfg.validate())

		_, err := cfg.resampler(memfs.New())
		require.NoError(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, appConfig{MaxSide: 16, MaxCached: 1}.validate(), errInvalidConfig)
		assert.ErrorIs(t, appConfig{MaxSide: 200, MaxCached: 0}.validate(), errInvalidConfig)
		assert.ErrorIs(t, appConfig{MaxSide: 200, MaxCached: 1, MaxPixels: -1}.validate(), errInvalidConfig)
		assert.ErrorIs(t, appConfig{MaxSide: 200, MaxCached: 1, Kernel: "lanczos"}.validate(), resample.ErrUnknownKernel)

		_, err := newService(nil, memfs.New(), appConfig{MaxSide: 200, MaxCached: 1, Kernel: "lanczos"}, logger.Discard())
		assert.ErrorIs(t, err, errInvalidConfig)
	})
}

func TestPlaceholderColor(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	img, err := svc.placeholder.Image()
	require.NoError(t, err)
	assert.Equal(t, placeholderColor, img.NRGBAAt(0, 0))
}
