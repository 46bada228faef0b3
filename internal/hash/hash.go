// Package hash computes content digests of run artifacts.
//
// Digests are recorded in the run manifest so a later run, or a person
// comparing two output directories, can tell whether a composed transform
// changed. Digests are prefixed with the algorithm name ("sha256:...").
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Hasher computes a digest of data.
type Hasher interface {
	Sum(data []byte) string
}

// SHA256Hasher implements Hasher using SHA-256.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// Sum returns "sha256:" followed by the hex digest of data.
func (h *SHA256Hasher) Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// FakeHasher returns predetermined digests for testing.
type FakeHasher struct {
	digests map[string]string
}

// NewFakeHasher creates a new FakeHasher.
func NewFakeHasher() *FakeHasher {
	return &FakeHasher{digests: make(map[string]string)}
}

// SetDigest makes Sum return digest for content.
func (h *FakeHasher) SetDigest(content, digest string) {
	h.digests[content] = digest
}

// Sum returns the predetermined digest for data, or "fake:<len>".
func (h *FakeHasher) Sum(data []byte) string {
	if d, ok := h.digests[string(data)]; ok {
		return d
	}
	return "fake:" + strconv.Itoa(len(data))
}
