package naming

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/unicode/norm"
)

const (
	maxFieldLength     = 60
	maxFileNameLength  = 90
	maxDirectoryLength = 120
)

const illegalChars = `<>:"/\|?*`

// cleanField normalizes a single tag value before it is joined.
func (c *Catalog) cleanField(value string) string {
	value = norm.NFC.String(strings.TrimSpace(value))
	if c.asciify.Load() {
		value = unidecode.Unidecode(value)
	}
	return truncate(value, maxFieldLength)
}

// sanitizeSegment replaces characters that are illegal inside a single path
// element and strips the trailing spaces and dots.
func sanitizeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(illegalChars, r) {
			return '_'
		}
		return r
	}, s)
	return trimSegment(s)
}

func trimSegment(s string) string {
	return strings.TrimRightFunc(s, func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	})
}

// sanitizePath trims every segment of an already joined relative directory
// and drops segments that became empty.
func sanitizePath(p string) string {
	segments := strings.Split(p, string(filepath.Separator))
	kept := segments[:0]
	for _, seg := range segments {
		seg = trimSegment(strings.TrimLeftFunc(seg, unicode.IsSpace))
		if seg == "" {
			continue
		}
		kept = append(kept, seg)
	}
	return strings.Join(kept, string(filepath.Separator))
}

// truncate cuts s to at most max runes.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
