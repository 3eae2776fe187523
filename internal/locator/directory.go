// Package locator finds pharmacies near the user from an embedded directory.
package locator

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/pharmacies.yaml
var defaultDirectoryYAML []byte

// ErrInvalidDirectory is returned when a directory file fails validation.
var ErrInvalidDirectory = errors.New("invalid pharmacy directory")

// Pharmacy is a single directory listing. DistanceKm is only set on lookup results.
type Pharmacy struct {
	Name       string  `yaml:"name" json:"name"`
	Address    string  `yaml:"address" json:"address"`
	Phone      string  `yaml:"phone" json:"phone,omitempty"`
	Lat        float64 `yaml:"lat" json:"lat"`
	Lng        float64 `yaml:"lng" json:"lng"`
	Open24h    bool    `yaml:"open_24h" json:"open24h"`
	Delivery   bool    `yaml:"delivery" json:"delivery"`
	DistanceKm float64 `yaml:"-" json:"distanceKm,omitempty"`
}

// Directory holds the searchable pharmacies and the demo list shown when a real lookup
// is not possible.
type Directory struct {
	Pharmacies []Pharmacy `yaml:"pharmacies"`
	Demo       []Pharmacy `yaml:"demo"`
}

var defaultDirectory = sync.OnceValues(func() (*Directory, error) {
	return parseDirectory(defaultDirectoryYAML)
})

// DefaultDirectory returns the embedded directory.
func DefaultDirectory() (*Directory, error) {
	return defaultDirectory()
}

// LoadDirectory reads and validates a directory in YAML form.
func LoadDirectory(r io.Reader) (*Directory, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pharmacy directory: %w", err)
	}
	return parseDirectory(data)
}

// LoadDirectoryFile reads a directory from path.
func LoadDirectoryFile(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pharmacy directory: %w", err)
	}
	defer f.Close()
	return LoadDirectory(f)
}

func parseDirectory(data []byte) (*Directory, error) {
	var d Directory
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse pharmacy directory: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks names and coordinates. An empty demo list is rejected since it is the
// only answer available when a lookup degrades.
func (d *Directory) Validate() error {
	if len(d.Demo) == 0 {
		return fmt.Errorf("%w: demo list is empty", ErrInvalidDirectory)
	}
	for i, p := range d.Pharmacies {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: pharmacy %d has no name", ErrInvalidDirectory, i)
		}
		if !(Coordinates{Lat: p.Lat, Lng: p.Lng}).Valid() {
			return fmt.Errorf("%w: %s has coordinates out of range", ErrInvalidDirectory, p.Name)
		}
	}
	for i, p := range d.Demo {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: demo pharmacy %d has no name", ErrInvalidDirectory, i)
		}
	}
	return nil
}
