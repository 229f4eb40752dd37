package translator

import "github.com/uber/analysis-sync/src/anasync/internal/versionchain"

// trackSpan moves [start,end) through edits applied in order. Both edges are inclusive: an edit touching either
// boundary becomes part of the span.
func trackSpan(start, end int, edits []versionchain.Edit) (int, int) {
	for _, e := range edits {
		delta := e.Delta()

		switch {
		case e.End < start:
			start += delta
		case e.Start <= start:
			start = e.Start
		}

		switch {
		case e.Start > end:
		case e.End < end:
			end += delta
		default:
			end = e.NewEnd()
		}

		if end < start {
			end = start
		}
	}
	return start, end
}

// trackPoint moves an offset through edits applied in order. Text inserted at the offset ends up after it,
// and an offset inside replaced text moves to the start of the replacement.
func trackPoint(offset int, edits []versionchain.Edit) int {
	for _, e := range edits {
		switch {
		case e.Start >= offset:
		case e.End <= offset:
			offset += e.Delta()
		default:
			offset = e.Start
		}
	}
	return offset
}

// untrackPoint undoes trackPoint: it moves an offset of the edited text back through edits, last edit first.
// An offset inside inserted text moves to the start of the edit.
func untrackPoint(offset int, edits []versionchain.Edit) int {
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		switch {
		case offset <= e.Start:
		case offset >= e.NewEnd():
			offset -= e.Delta()
		default:
			offset = e.Start
		}
	}
	return offset
}
