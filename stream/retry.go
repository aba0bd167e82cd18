package stream

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bigmoostache/tui-sub000/persist"
)

// MaxAPIRetries is MAX_API_RETRIES of §4.4.3.
const MaxAPIRetries = 3

// LogStreamError implements §4.4.3's exhaustion path: write the failure to
// a serially-numbered file under layout.ErrorsDir and return the path the
// assistant message should point to.
func LogStreamError(layout persist.Layout, err error) (string, error) {
	n := nextErrorFileN(layout)
	path := layout.ErrorPath(n)
	if mkErr := os.MkdirAll(layout.ErrorsDir(), 0o700); mkErr != nil {
		return "", mkErr
	}
	if writeErr := os.WriteFile(path, []byte(err.Error()+"\n"), 0o600); writeErr != nil {
		return "", writeErr
	}
	return path, nil
}

// nextErrorFileN scans layout.ErrorsDir for the existing error_<n>.txt
// files and returns one past the highest N found, so restarts never
// overwrite a prior run's error dump.
func nextErrorFileN(layout persist.Layout) int {
	entries, err := os.ReadDir(layout.ErrorsDir())
	if err != nil {
		return 0
	}
	max := -1
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		n, ok := strings.CutPrefix(name, "error_")
		if !ok {
			continue
		}
		if v, convErr := strconv.Atoi(n); convErr == nil && v > max {
			max = v
		}
	}
	return max + 1
}
