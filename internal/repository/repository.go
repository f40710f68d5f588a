// Package repository reconstructs typed records from log files and answers
// filtered and grouped queries over them.
package repository

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/marcelocantos/boxlog/internal/crypt"
	"github.com/marcelocantos/boxlog/internal/entry"
)

// Repository holds the contents of one log file and a lazily built parse
// of it. It is safe for concurrent use.
type Repository struct {
	data []byte

	mu     sync.Mutex
	cipher crypt.Cipher
	cache  *parsed
	err    error
}

// Option configures a Repository.
type Option func(*Repository)

// WithCipher decrypts every line with c before decoding.
func WithCipher(c crypt.Cipher) Option {
	return func(r *Repository) { r.cipher = c }
}

// New returns a repository over data. Nothing is parsed until the first
// query.
func New(data []byte, opts ...Option) *Repository {
	r := &Repository{data: data}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open reads the file at path into a new repository.
func Open(path string, opts ...Option) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	return New(data, opts...), nil
}

// SetDecryptionKey replaces the cipher with one derived from key and drops
// the cached parse. An empty key reads plain text.
func (r *Repository) SetDecryptionKey(key string) error {
	c, err := crypt.FromKey(key)
	if err != nil {
		return err
	}
	r.SetCipher(c)
	return nil
}

// SetCipher replaces the cipher and drops the cached parse.
func (r *Repository) SetCipher(c crypt.Cipher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cipher = c
	r.cache, r.err = nil, nil
}

// Entries returns the records matching q in file order, or every record
// when q is nil. The returned slice is owned by the caller.
func (r *Repository) Entries(q *Query) ([]entry.Record, error) {
	p, err := r.load()
	if err != nil {
		return nil, err
	}
	all := slices.Clone(p.records)
	if q == nil {
		return all, nil
	}
	return q.apply(all)
}

// Headers returns the session headers in file order.
func (r *Repository) Headers() ([]entry.Header, error) {
	p, err := r.load()
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.headers), nil
}

// GroupBy counts the values of f across every record, ignoring any query.
func (r *Repository) GroupBy(f Field, o GroupOrder) ([]Group, error) {
	p, err := r.load()
	if err != nil {
		return nil, err
	}
	return GroupRecords(p.records, f, o), nil
}

func (r *Repository) load() (*parsed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache == nil && r.err == nil {
		r.cache, r.err = parse(r.data, r.cipher)
	}
	return r.cache, r.err
}
