package hashid

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Counter is a monotonic UID allocator. Its value is part of the persisted
// config (see persist.Layout), so a counter surviving a restart never
// reuses a UID.
//
// UIDs are backed by github.com/google/uuid rather than the sequential
// integer the counter's name suggests: the counter exists to satisfy
// §4.1's "monotonic allocator" contract for audit/debugging ordering,
// while collision-resistance of the UID itself comes from uuid.NewString.
// The counter value is recorded on the allocated UID's Seq field and the
// uuid string on its Token field.
type Counter struct {
	mu  sync.Mutex
	n   uint64
	src func() uint64
}

// NewCounter creates a Counter starting at the given seed (normally the
// value most recently persisted in config.json's global UID counter).
func NewCounter(seed uint64) *Counter {
	return &Counter{n: seed}
}

// UID is a durable, globally unique, never-reused identifier for a
// persistable entity (panel or message). Only uniqueness matters; the
// string form is opaque to humans.
type UID struct {
	Seq   uint64
	Token string
}

// String renders the UID in its canonical on-disk form, "<seq>-<token>".
func (u UID) String() string {
	return fmt.Sprintf("%d-%s", u.Seq, u.Token)
}

// IsZero reports whether u is the zero UID (used for panel types, like
// System, that have no durable identity per §3).
func (u UID) IsZero() bool {
	return u.Seq == 0 && u.Token == ""
}

// ParseUID parses the canonical "<seq>-<token>" form produced by String.
func ParseUID(s string) (UID, error) {
	idx := strings.IndexByte(s, '-')
	if idx <= 0 {
		return UID{}, fmt.Errorf("hashid: malformed uid %q", s)
	}
	seq, err := strconv.ParseUint(s[:idx], 10, 64)
	if err != nil {
		return UID{}, fmt.Errorf("hashid: malformed uid %q: %w", s, err)
	}
	return UID{Seq: seq, Token: s[idx+1:]}, nil
}

// Next atomically allocates the next UID and advances the counter.
// Allocation is kept atomic with state mutation by callers: the new UID
// must be stored onto its owning ContextElement/Message in the same
// critical section that bumps the counter, per §9's "UID vs local ID"
// design note.
func (c *Counter) Next() UID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	token := uuid.NewString()
	if c.src != nil {
		// Test hook: deterministic token source.
		return UID{Seq: c.n, Token: fmt.Sprintf("%d", c.src())}
	}
	return UID{Seq: c.n, Token: token}
}

// Value returns the current counter value, for persisting into config.json.
func (c *Counter) Value() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// NextLocalID returns prefix + the smallest non-negative integer not
// already present (as "<prefix><n>") in existing. Local ID allocation is a
// pure function of the current ID set so that renumbering never depends on
// allocation history, per §9.
func NextLocalID(existing map[string]struct{}, prefix string) string {
	for n := 0; ; n++ {
		candidate := fmt.Sprintf("%s%d", prefix, n)
		if _, taken := existing[candidate]; !taken {
			return candidate
		}
	}
}
