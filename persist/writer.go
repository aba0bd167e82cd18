package persist

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// defaultFileMode matches the teacher's convention of writing worker state
// world-unreadable to the owning user only.
const defaultFileMode = 0o600
const defaultDirMode = 0o700

// Writer is the single background writer thread of §4.3: it consumes
// WriteBatch values from a channel and applies them to disk, never
// fsyncing in the common path.
type Writer struct {
	batches chan WriteBatch
	done    chan struct{}
	log     zerolog.Logger
}

// NewWriter starts the background goroutine. The channel is buffered so the
// event loop's build_save_batch call never blocks on a slow disk.
func NewWriter(log zerolog.Logger) *Writer {
	w := &Writer{
		batches: make(chan WriteBatch, 32),
		done:    make(chan struct{}),
		log:     log,
	}
	go w.run()
	return w
}

// Submit enqueues a batch for the writer goroutine. Non-blocking under
// normal load.
func (w *Writer) Submit(b WriteBatch) {
	if b.IsEmpty() {
		return
	}
	select {
	case w.batches <- b:
	case <-w.done:
	}
}

// Close stops accepting new batches and waits for the queue to drain.
func (w *Writer) Close() {
	close(w.batches)
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for b := range w.batches {
		w.apply(b)
	}
}

func (w *Writer) apply(b WriteBatch) {
	for _, dir := range b.EnsureDirs {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			w.log.Error().Err(err).Str("path", dir).Msg("persist: ensure dir failed")
		}
	}
	for _, wr := range b.Writes {
		if err := os.MkdirAll(filepath.Dir(wr.Path), defaultDirMode); err != nil {
			w.log.Error().Err(err).Str("path", wr.Path).Msg("persist: ensure parent dir failed")
			continue
		}
		if err := os.WriteFile(wr.Path, wr.Bytes, defaultFileMode); err != nil {
			// §7 "Persistence" kind: logged to stderr, in-memory state
			// remains authoritative; the writer does not retry.
			w.log.Error().Err(err).Str("path", wr.Path).Msg("persist: write failed")
		}
	}
	for _, d := range b.Deletes {
		if err := os.Remove(d.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			w.log.Error().Err(err).Str("path", d.Path).Msg("persist: delete failed")
		}
	}
}
