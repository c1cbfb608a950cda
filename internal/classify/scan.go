package classify

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pkgtrack/internal/control"
	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// Scan walks the top-level directory in lexical order and classifies every
// regular file and symlink. Directories are not deliverables; symlinks are
// never descended. Control files and paths listed in .dont_ship or
// .custom_deliver (including everything below a listed directory) are
// skipped.
func (c *Classifier) Scan() ([]types.Deliverable, error) {
	excluded, err := control.Load(c.topDir, control.DontShip, control.CustomDeliver)
	if err != nil {
		return nil, err
	}

	var out []types.Deliverable
	skipped := 0
	err = filepath.WalkDir(c.topDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walking %s: %w", path, walkErr)
		}
		if path == c.topDir {
			return nil
		}
		partial, err := c.partialPath(path)
		if err != nil {
			return err
		}
		if excluded.ContainsOrUnder(partial) {
			skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if control.IsControlFile(partial) {
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			c.log.WithField("path", partial).Debug("skipping special file")
			return nil
		}

		del, err := c.Classify(path)
		if err != nil {
			return err
		}
		out = append(out, del)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"component":    c.component,
		"deliverables": len(out),
		"excluded":     skipped,
	}).Info("scan complete")
	return out, nil
}
