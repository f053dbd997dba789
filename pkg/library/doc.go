// Package library loads the media library manifest that maps item ids to
// their cover files.
//
// The manifest is YAML:
//
//	items:
//	  - id: 6f1d2a0e-4a4b-4d55-9b1f-0f7c2a9d6c11
//	    title: Dune
//	    dir: books/dune
//	    cover: cover.jpg
//
// Items also hold a reference to their cached cover texture, which the cover
// cache sets on store and clears before release.
package library
