package persist

import (
	"os"
	"path/filepath"
	"strings"
)

// OrphanDeletes scans dir for files whose stem (filename without
// extension) is not present in known, and returns a DeleteOp for each.
// This is the orphan rule of §6: "any file under panels/ whose stem is not
// in the worker's known-UID set is deleted on the next save." The same
// helper serves messages/ with its own known-UID set.
//
// A missing dir is not an error: an empty or not-yet-created directory has
// no orphans by definition.
func OrphanDeletes(dir string, known map[string]struct{}) ([]DeleteOp, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var deletes []DeleteOp
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if _, ok := known[stem]; !ok {
			deletes = append(deletes, DeleteOp{Path: filepath.Join(dir, name)})
		}
	}
	return deletes, nil
}
