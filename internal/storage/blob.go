// Package storage archives the raw uploaded documents so a failed or
// disputed import can be replayed from the original bytes.
package storage

import "io"

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
