package cksum

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// Command is the external checksum utility used by External.
var Command = "cksum"

// External runs the cksum utility against path and parses the CRC from its
// "<crc> <size> <name>" output. It exists for file names that cannot be
// opened reliably in-process. Every failure wraps types.ErrExternalTool.
func External(path string) (uint32, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(Command, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v: %s", types.ErrExternalTool, Command, path, err, strings.TrimSpace(stderr.String()))
	}
	return parseOutput(stdout.String())
}

// parseOutput extracts the CRC from the first line of cksum output.
func parseOutput(out string) (uint32, error) {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, fmt.Errorf("%w: unexpected cksum output %q", types.ErrExternalTool, line)
	}
	crc, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: parsing cksum output %q: %v", types.ErrExternalTool, line, err)
	}
	return uint32(crc), nil
}
