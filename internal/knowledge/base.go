package knowledge

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrInvalidBase is returned when knowledge base data fails validation.
var ErrInvalidBase = errors.New("invalid knowledge base")

// Category tags an entry so responses can point at a related page.
type Category string

const (
	CategoryPharmacy  Category = "pharmacy"
	CategoryEmergency Category = "emergency"
)

// Entry is a single advisory keyed by its canonical phrase.
type Entry struct {
	Key        string     `yaml:"key" json:"key"`
	Advice     string     `yaml:"advice" json:"advice"`
	Categories []Category `yaml:"categories,omitempty" json:"categories,omitempty"`
}

// HasCategory reports whether the entry is tagged with c.
func (e Entry) HasCategory(c Category) bool {
	for _, have := range e.Categories {
		if have == c {
			return true
		}
	}
	return false
}

// Base is an ordered, read-only set of entries. Iteration order is the order the entries
// were supplied in. A Base is never mutated after construction and is safe for concurrent use.
type Base struct {
	entries     []Entry
	index       map[string]int
	fingerprint string
}

type baseFile struct {
	Entries []Entry `yaml:"entries"`
}

//go:embed data/knowledge_base.yaml
var defaultData []byte

var loadDefault = sync.OnceValues(func() (*Base, error) {
	return parse(defaultData)
})

// Default returns the built-in knowledge base. It is parsed once per process.
func Default() (*Base, error) {
	return loadDefault()
}

// NewBase validates entries and builds a Base from a copy of them.
func NewBase(entries []Entry) (*Base, error) {
	b := &Base{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for i, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty key", ErrInvalidBase, i)
		}
		if Canonicalize(e.Key) != e.Key {
			return nil, fmt.Errorf("%w: key %q is not canonical (want %q)", ErrInvalidBase, e.Key, Canonicalize(e.Key))
		}
		if _, dup := b.index[e.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidBase, e.Key)
		}
		if e.Advice == "" {
			return nil, fmt.Errorf("%w: key %q has no advice", ErrInvalidBase, e.Key)
		}
		for _, c := range e.Categories {
			if c != CategoryPharmacy && c != CategoryEmergency {
				return nil, fmt.Errorf("%w: key %q has unknown category %q", ErrInvalidBase, e.Key, c)
			}
		}

		cats := append([]Category(nil), e.Categories...)
		b.index[e.Key] = len(b.entries)
		b.entries = append(b.entries, Entry{Key: e.Key, Advice: e.Advice, Categories: cats})
	}

	b.fingerprint = fingerprint(b.entries)
	return b, nil
}

// fingerprint hashes entries in order. Fields are NUL separated and entries end with a
// record separator, so no two distinct bases share a preimage.
func fingerprint(entries []Entry) string {
	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e.Key))
		h.Write([]byte{0})
		h.Write([]byte(e.Advice))
		for _, c := range e.Categories {
			h.Write([]byte{0})
			h.Write([]byte(c))
		}
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Load reads a YAML knowledge base.
func Load(r io.Reader) (*Base, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return parse(data)
}

// LoadFile reads a YAML knowledge base from disk.
func LoadFile(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Base, error) {
	var f baseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	return NewBase(f.Entries)
}

// Fingerprint returns a hex SHA-256 digest of the entries in iteration order. Bases with
// the same content share a fingerprint.
func (b *Base) Fingerprint() string {
	return b.fingerprint
}

// Len returns the number of entries.
func (b *Base) Len() int {
	return len(b.entries)
}

// At returns the i-th entry in iteration order.
func (b *Base) At(i int) Entry {
	return b.entries[i]
}

// Lookup returns the entry stored under an exact canonical key.
func (b *Base) Lookup(key string) (Entry, bool) {
	i, ok := b.index[key]
	if !ok {
		return Entry{}, false
	}
	return b.entries[i], true
}

// Keys returns the keys in iteration order.
func (b *Base) Keys() []string {
	keys := make([]string, len(b.entries))
	for i, e := range b.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in iteration order.
func (b *Base) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}
