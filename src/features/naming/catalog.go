package naming

import (
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/contre95/soulwrite/src/music"
)

// Catalog turns track fields into file names and library sub directories.
// It has no side effects and is safe for concurrent use.
type Catalog struct {
	asciify atomic.Bool
}

// Options configures the catalog.
type Options struct {
	// Asciify transliterates names to plain ASCII.
	Asciify bool
}

// NewCatalog creates a new naming catalog.
func NewCatalog(opts Options) *Catalog {
	c := &Catalog{}
	c.SetOptions(opts)
	return c
}

// SetOptions replaces the catalog options, used when the config changes.
func (c *Catalog) SetOptions(opts Options) {
	c.asciify.Store(opts.Asciify)
}

// Option is one entry of a preview list.
type Option struct {
	Format string `json:"format"`
	Label  string `json:"label"`
	Value  string `json:"value"`
}

// Rename returns the file name, extension included, that format yields for the
// track. It returns "" for RenameNone or when the format yields nothing.
func (c *Catalog) Rename(track *music.Track, format music.RenameFormat) string {
	entry, ok := lookupRename(format)
	if !ok || len(entry.parts) == 0 {
		return ""
	}
	parts := c.renderComponents(track.Fields(), entry.parts)
	if len(parts) == 0 {
		return ""
	}
	base := sanitizeSegment(truncate(strings.Join(parts, " - "), maxFileNameLength))
	if base == "" {
		return ""
	}
	return base + filepath.Ext(track.Path())
}

// DirectoryPath returns the relative directory format yields for the track.
func (c *Catalog) DirectoryPath(track *music.Track, format music.DirectoryFormat) string {
	entry, ok := lookupDirectory(format)
	if !ok || len(entry.parts) == 0 {
		return ""
	}
	parts := c.renderComponents(track.Fields(), entry.parts)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := sanitizeSegment(p); s != "" {
			segments = append(segments, s)
		}
	}
	joined := strings.Join(segments, string(filepath.Separator))
	return sanitizePath(truncate(joined, maxDirectoryLength))
}

// AllRenames lists the distinct names the rename formats yield. The current
// name comes first, the rest are sorted alphabetically.
func (c *Catalog) AllRenames(track *music.Track) []Option {
	current := filepath.Base(track.Path())
	options := []Option{{Format: string(music.RenameNone), Label: RenameLabel(music.RenameNone), Value: current}}
	seen := map[string]bool{current: true}

	var rest []Option
	for _, e := range renameTable {
		if e.format == music.RenameNone {
			continue
		}
		name := c.Rename(track, e.format)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		rest = append(rest, Option{Format: string(e.format), Label: e.label, Value: name})
	}
	sortOptions(rest)
	return append(options, rest...)
}

// AllDirectoryFormats lists the distinct directories the directory formats
// yield, the current directory first.
func (c *Catalog) AllDirectoryFormats(track *music.Track) []Option {
	current := filepath.Dir(track.Path())
	options := []Option{{Format: string(music.DirectoryNone), Label: DirectoryLabel(music.DirectoryNone), Value: current}}
	seen := map[string]bool{}

	var rest []Option
	for _, e := range directoryTable {
		if e.format == music.DirectoryNone {
			continue
		}
		dir := c.DirectoryPath(track, e.format)
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		rest = append(rest, Option{Format: string(e.format), Label: e.label, Value: dir})
	}
	sortOptions(rest)
	return append(options, rest...)
}

// RenameFormatOf recovers the format that produced name for the track.
func (c *Catalog) RenameFormatOf(track *music.Track, name string) (music.RenameFormat, bool) {
	for _, e := range renameTable {
		if e.format == music.RenameNone {
			continue
		}
		if c.Rename(track, e.format) == name {
			return e.format, true
		}
	}
	return music.RenameNone, false
}

func (c *Catalog) renderComponents(f music.Fields, comps []component) []string {
	parts := make([]string, 0, len(comps))
	for _, comp := range comps {
		words := make([]string, 0, len(comp))
		for _, fld := range comp {
			if v := c.cleanField(fieldValue(f, fld)); v != "" {
				words = append(words, v)
			}
		}
		if len(words) > 0 {
			parts = append(parts, strings.Join(words, " "))
		}
	}
	return parts
}

func sortOptions(options []Option) {
	sort.SliceStable(options, func(i, j int) bool {
		a, b := strings.ToLower(options[i].Value), strings.ToLower(options[j].Value)
		if a == b {
			return options[i].Value < options[j].Value
		}
		return a < b
	})
}
