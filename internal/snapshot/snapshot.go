// internal/snapshot/snapshot.go
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/uipilot/internal/screen"
)

// Snapshot is one observation of a page: where it was and what it showed.
type Snapshot struct {
	URL      string              `json:"url" yaml:"url"`
	Title    string              `json:"title" yaml:"title"`
	Elements []screen.DomElement `json:"elements" yaml:"elements"`
}

// LoadFile reads a snapshot fixture. HTML files are parsed into elements,
// YAML and JSON files are decoded as a Snapshot.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".html", ".htm":
		snap, err := ParseHTML(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
		}
		if snap.URL == "" {
			abs, _ := filepath.Abs(path)
			snap.URL = "file://" + filepath.ToSlash(abs)
		}
		return snap, nil
	case ".yaml", ".yml", ".json":
		return Decode(data)
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", ext)
	}
}

// Decode parses a YAML or JSON snapshot document.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// Sequence replays a fixed list of snapshot files in order. Observe returns
// io.EOF once every file has been served.
type Sequence struct {
	mu    sync.Mutex
	paths []string
	next  int
}

func NewSequence(paths ...string) *Sequence {
	return &Sequence{paths: paths}
}

func (s *Sequence) Observe(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.next]
	s.next++
	return LoadFile(path)
}

// Remaining reports how many snapshots are left.
func (s *Sequence) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths) - s.next
}
