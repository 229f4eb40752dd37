package versionchain

import "strings"

// Edit replaces the byte range [Start,End) of a text with NewText.
type Edit struct {
	Start   int
	End     int
	NewText string
}

// OldLength returns the number of bytes removed by the edit.
func (e Edit) OldLength() int {
	return e.End - e.Start
}

// NewEnd returns the offset just past the inserted text, in the coordinates of the edited text.
func (e Edit) NewEnd() int {
	return e.Start + len(e.NewText)
}

// Delta returns the change in text length caused by the edit.
func (e Edit) Delta() int {
	return len(e.NewText) - e.OldLength()
}

// clamp bounds the edit to a text of the given length. It reports whether the edit had to be changed.
func (e Edit) clamp(length int) (Edit, bool) {
	orig := e
	if e.Start < 0 {
		e.Start = 0
	}
	if e.Start > length {
		e.Start = length
	}
	if e.End < e.Start {
		e.End = e.Start
	}
	if e.End > length {
		e.End = length
	}
	return e, e != orig
}

// apply returns text with the edit applied. The edit must already be clamped to the text.
func (e Edit) apply(text string) string {
	var b strings.Builder
	b.Grow(len(text) + e.Delta())
	b.WriteString(text[:e.Start])
	b.WriteString(e.NewText)
	b.WriteString(text[e.End:])
	return b.String()
}

// Apply returns text with edits applied in order. Edits are clamped to the text they apply to.
func Apply(text string, edits ...Edit) string {
	for _, e := range edits {
		e, _ = e.clamp(len(text))
		text = e.apply(text)
	}
	return text
}
