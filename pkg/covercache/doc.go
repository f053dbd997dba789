// Package covercache keeps a bounded set of downscaled cover images in memory.
//
// A Coordinator maps item identities to images built from resampled source
// files. Lookups that hit return immediately; misses resample the source in
// the background and resolve to the new image, or to a caller supplied
// fallback if the source is missing or anything goes wrong. Once more than
// MaxCached covers are held, the least recently used ones are released, except
// for the active item selected with SetActive.
//
// Basic usage:
//
//	covers := covercache.New[uuid.UUID](texture.New,
//		covercache.WithMaxCached(50),
//		covercache.WithLogger(log),
//	)
//	defer covers.Close()
//
//	img, _ := covers.Get(ctx, item.ID, item.CoverPath, placeholder, 200).Await()
//
// Release hooks registered with OnRelease run before an image is released, so
// anything holding a reference to it can let go first.
package covercache
