// Package catalog loads book catalogs from YAML. The default catalog is
// embedded and seeded into the database at startup.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ella/internal/models"
)

//go:embed default_books.yaml
var defaultBooks []byte

type file struct {
	Books []models.Book `yaml:"books"`
}

// Default returns the embedded catalog
func Default() ([]models.Book, error) {
	return parse(defaultBooks)
}

// Load reads a catalog from r
func Load(r io.Reader) ([]models.Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return parse(data)
}

// LoadFile reads a catalog from path
func LoadFile(path string) ([]models.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func parse(data []byte) ([]models.Book, error) {
	var catalog file
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	seen := make(map[string]bool, len(catalog.Books))
	for i := range catalog.Books {
		book := &catalog.Books[i]
		book.ID = strings.TrimSpace(book.ID)
		if book.ID == "" {
			return nil, fmt.Errorf("book %d: id is required", i)
		}
		if seen[book.ID] {
			return nil, fmt.Errorf("book %s: duplicate id", book.ID)
		}
		seen[book.ID] = true
		if strings.TrimSpace(book.Title) == "" {
			return nil, fmt.Errorf("book %s: title is required", book.ID)
		}
		if book.Contents == nil {
			book.Contents = []string{}
		}
		if book.Difficulty == "" {
			book.Difficulty = models.DifficultyBeginner
		}
	}
	return catalog.Books, nil
}
