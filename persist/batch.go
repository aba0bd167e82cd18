package persist

// WriteOp is a whole-file write: the file at Path is fully replaced with
// Bytes, never appended (§4.3).
type WriteOp struct {
	Path  string
	Bytes []byte
}

// DeleteOp removes the file at Path; NotFound is tolerated (§4.3
// consistency note: readers tolerate missing UIDs gracefully).
type DeleteOp struct {
	Path string
}

// WriteBatch is the unit of work handed to the background writer thread:
// directories to ensure, files to write, files to delete, applied in that
// order for a single tick's worth of state-changing actions.
type WriteBatch struct {
	EnsureDirs []string
	Writes     []WriteOp
	Deletes    []DeleteOp
}

// IsEmpty reports whether the batch has nothing to do, letting callers skip
// a channel send entirely on a quiescent tick.
func (b WriteBatch) IsEmpty() bool {
	return len(b.EnsureDirs) == 0 && len(b.Writes) == 0 && len(b.Deletes) == 0
}
