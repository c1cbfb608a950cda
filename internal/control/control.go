// Package control reads control files: plain-text lists of partial paths
// kept in a component's top-level directory that override how its
// deliverables are scanned and classified.
package control

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// Standard control file names.
const (
	DontShip      = ".dont_ship"      // paths never scanned
	DontFollow    = ".dont_follow"    // symlinks classified LINK_DONT_FOLLOW
	CustomDeliver = ".custom_deliver" // paths delivered by hand, never scanned
)

// Names lists every standard control file.
var Names = []string{DontShip, DontFollow, CustomDeliver}

// IsControlFile reports whether the partial path names a control file.
func IsControlFile(partial string) bool {
	for _, n := range Names {
		if partial == n {
			return true
		}
	}
	return false
}

// Set is a set of partial paths. The zero value is an empty set.
type Set struct {
	paths map[string]struct{}
}

// Load reads the named control files from topDir and returns the union of
// their entries. A missing file contributes nothing.
func Load(topDir string, names ...string) (*Set, error) {
	s := &Set{paths: make(map[string]struct{})}
	for _, name := range names {
		path := filepath.Join(topDir, name)
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: control file %s: %v", types.ErrMalformed, path, err)
		}
		err = s.read(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: control file %s: %v", types.ErrMalformed, path, err)
		}
	}
	return s, nil
}

// Parse reads control entries from r into a new Set.
func Parse(r io.Reader) (*Set, error) {
	s := &Set{paths: make(map[string]struct{})}
	if err := s.read(r); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformed, err)
	}
	return s, nil
}

func (s *Set) read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if p := Normalize(line); p != "" {
			s.paths[p] = struct{}{}
		}
	}
	return scanner.Err()
}

// Normalize cleans a partial path so entries written as "./bin/x" or
// "/bin/x" match the scanner's "bin/x".
func Normalize(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	p = strings.TrimLeft(strings.TrimPrefix(p, "./"), "/")
	if p == "." {
		return ""
	}
	return p
}

// Contains reports whether path is listed.
func (s *Set) Contains(path string) bool {
	if s == nil || s.paths == nil {
		return false
	}
	_, ok := s.paths[Normalize(path)]
	return ok
}

// ContainsOrUnder reports whether path or one of its parent directories is
// listed.
func (s *Set) ContainsOrUnder(path string) bool {
	p := Normalize(path)
	for p != "" && p != "." {
		if s.Contains(p) {
			return true
		}
		i := strings.LastIndex(p, "/")
		if i < 0 {
			break
		}
		p = p[:i]
	}
	return false
}

// Len returns the number of entries.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.paths)
}
