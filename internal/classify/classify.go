// Package classify turns filesystem entries under a component's top-level
// directory into deliverable records: size, modification time, cksum CRC,
// and deliverable type.
package classify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pkgtrack/internal/cksum"
	"github.com/mesh-intelligence/pkgtrack/internal/control"
	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// NutshellComponent is the component that owns the nutshell link targets.
// Its own links are never classified LINK_NUTSHELL.
const NutshellComponent = "nutshell"

// nutshellMarker identifies link targets that point into nutshell.
const nutshellMarker = "nutsh"

// Default package level logger.
var log = logrus.New()

// Classifier classifies entries below one top-level directory.
type Classifier struct {
	topDir      string
	givenDir    string
	component   string
	dontFollow  *control.Set
	fileSum     func(path string) (uint32, error)
	externalSum func(path string) (uint32, error)
	log         *logrus.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger routes classifier warnings to l.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Classifier) { c.log = l }
}

// WithExternalChecksum replaces the external checksum fallback.
func WithExternalChecksum(fn func(path string) (uint32, error)) Option {
	return func(c *Classifier) { c.externalSum = fn }
}

// WithDontFollow uses s instead of the top-level .dont_follow file.
func WithDontFollow(s *control.Set) Option {
	return func(c *Classifier) { c.dontFollow = s }
}

// New creates a Classifier for the component rooted at topDir. A symlinked
// topDir is resolved so the walk descends into the real tree. The
// .dont_follow control file is loaded from topDir unless WithDontFollow
// is given.
func New(topDir, component string, opts ...Option) (*Classifier, error) {
	given, err := filepath.Abs(topDir)
	if err != nil {
		return nil, fmt.Errorf("resolving top-level directory: %w", err)
	}
	abs, err := filepath.EvalSymlinks(given)
	if err != nil {
		return nil, fmt.Errorf("resolving top-level directory: %w", err)
	}
	c := &Classifier{
		topDir:      abs,
		givenDir:    given,
		component:   component,
		fileSum:     cksum.File,
		externalSum: cksum.External,
		log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dontFollow == nil {
		c.dontFollow, err = control.Load(abs, control.DontFollow)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// TopDir returns the absolute top-level directory.
func (c *Classifier) TopDir() string {
	return c.topDir
}

// Classify computes the deliverable record for path, which must lie under
// the top-level directory. The returned Action is UNKNOWN; actions are
// assigned by the manifest builder.
func (c *Classifier) Classify(path string) (types.Deliverable, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return types.Deliverable{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	partial, err := c.partialPath(abs)
	if err != nil {
		return types.Deliverable{}, err
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return types.Deliverable{}, fmt.Errorf("stat %s: %w", partial, err)
	}

	d := types.Deliverable{
		Path:    partial,
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
		Type:    types.TypeReal,
		Action:  types.ActionUnknown,
	}

	if info.Mode()&os.ModeSymlink == 0 {
		if info.Mode().IsRegular() {
			d.Checksum, err = c.fileChecksum(abs, partial)
			if err != nil {
				return types.Deliverable{}, err
			}
		}
		return d, nil
	}

	target, err := os.Readlink(abs)
	if err != nil {
		return types.Deliverable{}, fmt.Errorf("readlink %s: %w", partial, err)
	}
	d.Checksum = cksum.Bytes([]byte(target))
	d.Type = c.linkType(partial, target)
	return d, nil
}

// linkType applies the symlink rules in order: nutshell targets first
// (except inside the nutshell component), then the don't-follow list.
func (c *Classifier) linkType(partial, target string) types.DeliverableType {
	if c.component != NutshellComponent && strings.Contains(target, nutshellMarker) {
		return types.TypeLinkNutshell
	}
	if c.dontFollow.Contains(partial) {
		return types.TypeLinkDontFollow
	}
	return types.TypeLinkFollow
}

// fileChecksum returns the cksum CRC of a regular file. Files whose name
// contains '*' are checksummed by the external utility; if that fails the
// failure is logged and 0 is recorded, so the next build reports the path
// as UPDATE. Read errors on the in-process path are returned.
func (c *Classifier) fileChecksum(abs, partial string) (uint32, error) {
	if !strings.Contains(filepath.Base(partial), "*") {
		sum, err := c.fileSum(abs)
		if err != nil {
			return 0, fmt.Errorf("checksum %s: %w", partial, err)
		}
		return sum, nil
	}
	sum, err := c.externalSum(abs)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"path":  partial,
			"error": err,
		}).Warn("checksum failed, recording 0")
		return 0, nil
	}
	return sum, nil
}

// partialPath makes abs relative to the top-level directory. Paths under
// the unresolved directory the caller named are accepted too.
func (c *Classifier) partialPath(abs string) (string, error) {
	rel, err := relativeTo(c.topDir, abs)
	if err != nil && c.givenDir != c.topDir {
		rel, err = relativeTo(c.givenDir, abs)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s is not under %s", types.ErrInvalidData, abs, c.topDir)
	}
	return rel, nil
}

func relativeTo(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("outside %s", root)
	}
	return rel, nil
}
