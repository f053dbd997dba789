// Package texture provides the renderable cover image used by the host
// service: a BGRA pixel block built from a resample.Buffer that can be encoded
// to PNG and explicitly released when the cache evicts it.
package texture
