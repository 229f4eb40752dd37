package completion

import (
	"unicode"
	"unicode/utf8"
)

// Point describes what is being completed at a cursor offset.
type Point struct {
	// Expression is the dotted expression whose members are completed, empty at top level.
	Expression string
	// Name is the partially typed name before the cursor.
	Name string
	// NameStart is the byte offset where Name starts.
	NameStart int
}

// PointAt inspects text around offset. For "os.pa|" it returns Expression "os" and Name "pa".
func PointAt(text string, offset int) Point {
	offset = max(0, min(offset, len(text)))

	nameStart := identifierStart(text, offset)
	p := Point{Name: text[nameStart:offset], NameStart: nameStart}
	if nameStart == 0 || text[nameStart-1] != '.' {
		return p
	}

	end := nameStart - 1
	start := end
	for start > 0 {
		next := identifierStart(text, start)
		if next == start {
			break
		}
		start = next
		if start == 0 || text[start-1] != '.' {
			break
		}
		start--
	}
	if start < end && text[start] == '.' {
		start++
	}
	p.Expression = text[start:end]
	return p
}

// identifierStart returns the offset where the identifier ending at offset starts.
func identifierStart(text string, offset int) int {
	for offset > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:offset])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		offset -= size
	}
	return offset
}
