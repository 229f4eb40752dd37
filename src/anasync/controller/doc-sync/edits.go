package docsync

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/uber/analysis-sync/src/anasync/internal/versionchain"
	protocolmapper "github.com/uber/analysis-sync/src/anasync/internal/protocol"
	"go.lsp.dev/protocol"
)

// ContentChangesToEdits converts LSP content changes to byte offset edits. Each change is expressed against the text
// produced by the previous one, so the edits are sequential too. A change without a range replaces the whole document
// and is reduced to the edits between the two texts. The resulting text is returned alongside.
func ContentChangesToEdits(text string, changes []protocol.TextDocumentContentChangeEvent) ([]versionchain.Edit, string, error) {
	edits := make([]versionchain.Edit, 0, len(changes))
	for i, change := range changes {
		if change.Range == nil {
			edits = append(edits, DiffToEdits(text, change.Text)...)
			text = change.Text
			continue
		}

		m := protocolmapper.NewTextOffsetMapper(text)
		start, end, err := m.RangeOffsets(*change.Range)
		if err != nil {
			return nil, "", fmt.Errorf("unable to apply change %d: %w", i, err)
		}
		edit := versionchain.Edit{Start: start, End: end, NewText: change.Text}
		edits = append(edits, edit)
		text = versionchain.Apply(text, edit)
	}
	return edits, text, nil
}

// DiffToEdits returns sequential edits turning before into after. Unchanged regions are left out so positions inside
// them keep translating exactly.
func DiffToEdits(before, after string) []versionchain.Edit {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	edits := make([]versionchain.Edit, 0, len(diffs))
	offset := 0
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			offset += len(d.Text)
		case diffmatchpatch.DiffDelete:
			edit := versionchain.Edit{Start: offset, End: offset + len(d.Text)}
			// A deletion followed by an insertion is a single replacement.
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				edit.NewText = diffs[i+1].Text
				i++
			}
			edits = append(edits, edit)
			offset += len(edit.NewText)
		case diffmatchpatch.DiffInsert:
			edits = append(edits, versionchain.Edit{Start: offset, End: offset, NewText: d.Text})
			offset += len(d.Text)
		}
	}
	return edits
}
