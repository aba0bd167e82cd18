package persist

import (
	"os"

	"github.com/bigmoostache/tui-sub000/config"
)

// Ownership implements §4.3's ownership handoff: each worker writes its PID
// into the shared config file, and on every tick re-reads the config and
// signals the event loop to exit if the PID was rewritten by another
// process (a reload taking over cleanly).
//
// This adapts the teacher's leadership.Elector TTL-lease pattern to a
// simpler single-owner model: there is no renewal race to arbitrate since
// only the *current* reader of config.json can ever legitimately hold
// ownership, and a second process claims it unconditionally by writing its
// own PID. The lease/heartbeat machinery of a distributed elector has no
// work to do here.
type Ownership struct {
	layout Layout
	pid    int
}

// Claim writes the calling process's PID into config.json, creating the
// state directory and a default config if neither exists yet.
func Claim(layout Layout) (*Ownership, error) {
	if err := os.MkdirAll(layout.Root, defaultDirMode); err != nil {
		return nil, err
	}
	cfg, err := config.Load(layout.ConfigPath())
	if err != nil {
		return nil, err
	}
	pid := os.Getpid()
	cfg.OwnerPID = pid
	bytes, err := cfg.Marshal()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(layout.ConfigPath(), bytes, defaultFileMode); err != nil {
		return nil, err
	}
	return &Ownership{layout: layout, pid: pid}, nil
}

// StillOwner re-reads config.json and reports whether this process's PID
// is still the recorded owner. The event loop calls this once per tick;
// false means another process has taken over and this one must exit.
func (o *Ownership) StillOwner() (bool, error) {
	cfg, err := config.Load(o.layout.ConfigPath())
	if err != nil {
		return false, err
	}
	return cfg.OwnerPID == o.pid, nil
}
