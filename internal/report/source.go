package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Source yields the raw order file for a trading day.
type Source interface {
	Orders(day int) (io.ReadCloser, error)
}

// DirSource reads orders<day>.csv files from a directory.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource { return &DirSource{dir: dir} }

func OrdersFile(day int) string { return fmt.Sprintf("orders%d.csv", day) }

// Orders opens the day's order file. A day without a file has no orders.
func (s *DirSource) Orders(day int) (io.ReadCloser, error) {
	path := filepath.Join(s.dir, OrdersFile(day))
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("file", path).Int("day", day).Msg("no orders for day")
		return io.NopCloser(strings.NewReader("")), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return file, nil
}

// Open opens a named file in the directory, used for the entity tables.
func (s *DirSource) Open(name string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return file, nil
}
