package persist

import (
	"encoding/json"

	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/panel"
	"gopkg.in/yaml.v3"
)

// Snapshot is the narrow view of State a save-tick needs: the panel
// vector and message transcript to serialize. Kept separate from
// cache.PanelSet since the save-tick has no use for PathsFor/ApplyCacheUpdate.
type Snapshot interface {
	Panels() []*panel.Element
	Messages() []*message.Message
}

// BuildStateBatch serializes a worker's full panel and message set plus
// the shared config record into a single WriteBatch: the save-tick body
// the orchestrator's saveState defers to its caller. Panels are written
// as JSON (panels/<uid>.json), messages as YAML (messages/<uid>.yaml),
// mirroring the teacher's convention of keeping human-diffable transcript
// files distinct from machine-oriented panel state.
// orphan reclamation (§6, §8): a panel/message file left on disk whose UID
// is no longer present in the live snapshot is deleted on the next save.
func BuildStateBatch(layout Layout, snap Snapshot, cfg []byte) (WriteBatch, error) {
	batch := WriteBatch{
		EnsureDirs: []string{layout.PanelsDir(), layout.MessagesDir(), layout.StatesDir()},
	}

	knownPanels := map[string]struct{}{}
	for _, p := range snap.Panels() {
		if p.UID.IsZero() {
			continue
		}
		bytes, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return WriteBatch{}, err
		}
		stem := p.UID.String()
		knownPanels[stem] = struct{}{}
		batch.Writes = append(batch.Writes, WriteOp{Path: layout.PanelPath(stem), Bytes: bytes})
	}

	knownMessages := map[string]struct{}{}
	for _, m := range snap.Messages() {
		bytes, err := yaml.Marshal(m)
		if err != nil {
			return WriteBatch{}, err
		}
		stem := m.UID.String()
		knownMessages[stem] = struct{}{}
		batch.Writes = append(batch.Writes, WriteOp{Path: layout.MessagePath(stem), Bytes: bytes})
	}

	if cfg != nil {
		batch.Writes = append(batch.Writes, WriteOp{Path: layout.ConfigPath(), Bytes: cfg})
	}

	panelOrphans, err := OrphanDeletes(layout.PanelsDir(), knownPanels)
	if err != nil {
		return WriteBatch{}, err
	}
	batch.Deletes = append(batch.Deletes, panelOrphans...)

	messageOrphans, err := OrphanDeletes(layout.MessagesDir(), knownMessages)
	if err != nil {
		return WriteBatch{}, err
	}
	batch.Deletes = append(batch.Deletes, messageOrphans...)

	return batch, nil
}
