package versionchain

import (
	"fmt"

	protocolmapper "github.com/uber/analysis-sync/src/anasync/internal/protocol"
	"go.lsp.dev/protocol"
)

// UpdateKind identifies how a FileUpdate should be applied by the analysis engine.
type UpdateKind string

const (
	// UpdateReset replaces the engine's copy of the file with Content.
	UpdateReset UpdateKind = "reset"
	// UpdateChanges applies Changes, in order, to the engine's copy of the previous version.
	UpdateChanges UpdateKind = "changes"
)

// FileUpdate describes how to bring the analysis engine's copy of a document to Version.
type FileUpdate struct {
	Kind    UpdateKind                                `json:"kind"`
	Version int                                       `json:"version"`
	Content string                                    `json:"content,omitempty"`
	Changes []protocol.TextDocumentContentChangeEvent `json:"changes,omitempty"`
}

// UpdatesSince returns the updates that bring an engine holding lastSent up to the current version.
// A nil, foreign or released lastSent produces a single reset update. No updates are returned when lastSent is current.
func (c *Chain) UpdatesSince(lastSent *DocumentVersion) []FileUpdate {
	current := c.Current()
	if lastSent == current {
		return nil
	}

	steps, err := c.Steps(lastSent, current)
	if err != nil {
		return []FileUpdate{resetUpdate(current)}
	}

	updates := make([]FileUpdate, 0, len(steps))
	number := lastSent.number
	text := lastSent.text
	for _, edits := range steps {
		number++
		changes, next, err := toContentChanges(text, edits)
		if err != nil {
			c.logger.Warnw("unable to convert edits, resending document", "version", number, "error", err)
			return []FileUpdate{resetUpdate(current)}
		}
		text = next
		updates = append(updates, FileUpdate{
			Kind:    UpdateChanges,
			Version: number,
			Changes: changes,
		})
	}
	return updates
}

func resetUpdate(v *DocumentVersion) FileUpdate {
	return FileUpdate{
		Kind:    UpdateReset,
		Version: v.number,
		Content: v.text,
	}
}

// toContentChanges converts sequential byte edits into LSP content changes, each expressed against the text produced
// by the previous change. It returns the text after all edits.
func toContentChanges(text string, edits []Edit) ([]protocol.TextDocumentContentChangeEvent, string, error) {
	changes := make([]protocol.TextDocumentContentChangeEvent, 0, len(edits))
	for _, e := range edits {
		m := protocolmapper.NewTextOffsetMapper(text)
		r, err := m.OffsetRange(e.Start, e.End)
		if err != nil {
			return nil, "", fmt.Errorf("converting edit [%d,%d): %w", e.Start, e.End, err)
		}
		changes = append(changes, protocol.TextDocumentContentChangeEvent{
			Range:       &r,
			RangeLength: uint32(protocolmapper.UTF16Len(text[e.Start:e.End])),
			Text:        e.NewText,
		})
		text = e.apply(text)
	}
	return changes, text, nil
}
