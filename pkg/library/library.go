package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/coverkit/pkg/texture"
)

// Item is one library entry. Its cover texture is set by the cover cache
// while cached and cleared right before the cache releases it.
type Item struct {
	ID    uuid.UUID
	Title string
	Dir   string

	coverPath string

	mu    sync.RWMutex
	cover *texture.Texture
}

// CoverPath returns the cover file path, or "" if the item has no cover.
func (i *Item) CoverPath() string {
	return i.coverPath
}

func (i *Item) SetCover(t *texture.Texture) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cover = t
}

func (i *Item) ClearCover() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cover = nil
}

// Cover returns the cached cover texture, or nil if none is cached.
func (i *Item) Cover() *texture.Texture {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.cover
}

// Library is an immutable set of items loaded from a manifest.
type Library struct {
	items map[uuid.UUID]*Item
	order []*Item
}

type manifest struct {
	Items []entry `yaml:"items"`
}

type entry struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Dir   string `yaml:"dir"`
	Cover string `yaml:"cover"`
}

// Load reads the YAML manifest at path from fs.
// Item directories are resolved relative to the manifest's directory.
func Load(ctx context.Context, fs billy.Basic, path string) (*Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrLoadCancelled, err)
	}

	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Join(ErrManifestNotFound, err)
		}
		return nil, errors.Join(ErrInvalidManifest, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Join(ErrInvalidManifest, err)
	}

	return Parse(data, filepath.Dir(path))
}

// Parse builds a Library from manifest content.
//
// An entry without an id gets a stable one derived from its directory.
// Duplicate ids are rejected.
func Parse(data []byte, base string) (*Library, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Join(ErrInvalidManifest, err)
	}

	lib := &Library{
		items: make(map[uuid.UUID]*Item, len(m.Items)),
		order: make([]*Item, 0, len(m.Items)),
	}

	for n, e := range m.Items {
		id, err := e.id()
		if err != nil {
			return nil, errors.Join(ErrInvalidManifest, fmt.Errorf("item %d: %w", n, err))
		}
		if _, dup := lib.items[id]; dup {
			return nil, errors.Join(ErrInvalidManifest, fmt.Errorf("item %d: duplicate id %s", n, id))
		}

		item := &Item{
			ID:    id,
			Title: e.Title,
			Dir:   filepath.Join(base, filepath.FromSlash(e.Dir)),
		}
		if e.Cover != "" {
			item.coverPath = filepath.Join(item.Dir, filepath.FromSlash(e.Cover))
		}

		lib.items[id] = item
		lib.order = append(lib.order, item)
	}

	return lib, nil
}

func (e entry) id() (uuid.UUID, error) {
	if e.ID != "" {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return uuid.Nil, err
		}
		if id == uuid.Nil {
			return uuid.Nil, errors.New("nil id")
		}
		return id, nil
	}
	if e.Dir == "" {
		return uuid.Nil, errors.New("either id or dir is required")
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(filepath.ToSlash(e.Dir))), nil
}

func (l *Library) Item(id uuid.UUID) (*Item, bool) {
	item, ok := l.items[id]
	return item, ok
}

// Items returns all items in manifest order.
func (l *Library) Items() []*Item {
	return slices.Clone(l.order)
}

func (l *Library) Len() int {
	return len(l.order)
}
