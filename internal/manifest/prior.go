package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/pkgtrack/internal/control"
	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// Prior-manifest columns (1-based in the file format).
const (
	priorSizeField  = 0
	priorMTimeField = 2
	priorPathField  = 7
	priorMinFields  = 8
)

// ParsePriorManifest reads an externally supplied manifest: whitespace
// separated lines whose 1st token is the size, 3rd the modification time in
// unix seconds and 8th the partial path. Other tokens are ignored, as are
// blank lines and lines starting with '#'. Entries carry no checksum and
// are typed REAL.
func ParsePriorManifest(r io.Reader) ([]types.Deliverable, error) {
	var out []types.Deliverable
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < priorMinFields {
			return nil, fmt.Errorf("%w: prior manifest line %d: %d fields, need %d", types.ErrMalformed, lineNo, len(fields), priorMinFields)
		}
		size, err := strconv.ParseInt(fields[priorSizeField], 10, 64)
		if err != nil || size < 0 {
			return nil, fmt.Errorf("%w: prior manifest line %d: bad size %q", types.ErrMalformed, lineNo, fields[priorSizeField])
		}
		mtime, err := strconv.ParseInt(fields[priorMTimeField], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: prior manifest line %d: bad mtime %q", types.ErrMalformed, lineNo, fields[priorMTimeField])
		}
		path := control.Normalize(fields[priorPathField])
		if path == "" {
			return nil, fmt.Errorf("%w: prior manifest line %d: empty path", types.ErrMalformed, lineNo)
		}
		out = append(out, types.Deliverable{
			Path:    path,
			Size:    size,
			ModTime: mtime,
			Type:    types.TypeReal,
			Action:  types.ActionUnknown,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading prior manifest: %v", types.ErrMalformed, err)
	}
	return out, nil
}

// LoadPriorManifest opens path and parses it with ParsePriorManifest.
func LoadPriorManifest(path string) ([]types.Deliverable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: prior manifest %s: %v", types.ErrMalformed, path, err)
	}
	defer f.Close()
	return ParsePriorManifest(f)
}
