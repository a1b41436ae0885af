package naming

import (
	"fmt"
	"strconv"

	"github.com/contre95/soulwrite/src/music"
)

type field int

const (
	fieldTitle field = iota
	fieldArtist
	fieldAlbumArtist
	fieldAlbum
	fieldGenre
	fieldYear
	fieldTrackNumber
)

// component is a group of fields joined by a single space, e.g. "03 Song".
type component []field

type renameEntry struct {
	format music.RenameFormat
	label  string
	parts  []component
}

type directoryEntry struct {
	format music.DirectoryFormat
	label  string
	parts  []component
}

// renameTable is ordered; enumeration for previews and format recovery follows it.
var renameTable = []renameEntry{
	{music.RenameNone, "Keep current name", nil},
	{music.RenameTitle, "Title", []component{{fieldTitle}}},
	{music.RenameArtistTitle, "Artist - Title", []component{{fieldArtist}, {fieldTitle}}},
	{music.RenameTitleArtist, "Title - Artist", []component{{fieldTitle}, {fieldArtist}}},
	{music.RenameTrackNumTitle, "01 Title", []component{{fieldTrackNumber, fieldTitle}}},
	{music.RenameTrackNumArtistTitle, "01 Artist - Title", []component{{fieldTrackNumber, fieldArtist}, {fieldTitle}}},
	{music.RenameAlbumTrackNumTitle, "Album - 01 Title", []component{{fieldAlbum}, {fieldTrackNumber, fieldTitle}}},
	{music.RenameArtistAlbumTrackNumTitle, "Artist - Album - 01 Title", []component{{fieldArtist}, {fieldAlbum}, {fieldTrackNumber, fieldTitle}}},
}

var directoryTable = []directoryEntry{
	{music.DirectoryNone, "Keep current folder", nil},
	{music.DirectoryArtist, "Artist", []component{{fieldArtist}}},
	{music.DirectoryAlbum, "Album", []component{{fieldAlbum}}},
	{music.DirectoryArtistAlbum, "Artist/Album", []component{{fieldArtist}, {fieldAlbum}}},
	{music.DirectoryAlbumArtistAlbum, "Album Artist/Album", []component{{fieldAlbumArtist}, {fieldAlbum}}},
	{music.DirectoryArtistYearAlbum, "Artist/Year Album", []component{{fieldArtist}, {fieldYear, fieldAlbum}}},
	{music.DirectoryGenreArtistAlbum, "Genre/Artist/Album", []component{{fieldGenre}, {fieldArtist}, {fieldAlbum}}},
}

// RenameFormats lists every rename format in table order.
func RenameFormats() []music.RenameFormat {
	formats := make([]music.RenameFormat, 0, len(renameTable))
	for _, e := range renameTable {
		formats = append(formats, e.format)
	}
	return formats
}

// DirectoryFormats lists every directory format in table order.
func DirectoryFormats() []music.DirectoryFormat {
	formats := make([]music.DirectoryFormat, 0, len(directoryTable))
	for _, e := range directoryTable {
		formats = append(formats, e.format)
	}
	return formats
}

// ParseRenameFormat validates a rename format identifier.
func ParseRenameFormat(s string) (music.RenameFormat, error) {
	if s == "" {
		return music.RenameNone, nil
	}
	if _, ok := lookupRename(music.RenameFormat(s)); !ok {
		return "", fmt.Errorf("unknown rename format %q", s)
	}
	return music.RenameFormat(s), nil
}

// ParseDirectoryFormat validates a directory format identifier.
func ParseDirectoryFormat(s string) (music.DirectoryFormat, error) {
	if s == "" {
		return music.DirectoryNone, nil
	}
	if _, ok := lookupDirectory(music.DirectoryFormat(s)); !ok {
		return "", fmt.Errorf("unknown directory format %q", s)
	}
	return music.DirectoryFormat(s), nil
}

// RenameLabel returns a human readable example of the format.
func RenameLabel(format music.RenameFormat) string {
	if e, ok := lookupRename(format); ok {
		return e.label
	}
	return string(format)
}

// DirectoryLabel returns a human readable example of the format.
func DirectoryLabel(format music.DirectoryFormat) string {
	if e, ok := lookupDirectory(format); ok {
		return e.label
	}
	return string(format)
}

func lookupRename(format music.RenameFormat) (renameEntry, bool) {
	for _, e := range renameTable {
		if e.format == format {
			return e, true
		}
	}
	return renameEntry{}, false
}

func lookupDirectory(format music.DirectoryFormat) (directoryEntry, bool) {
	for _, e := range directoryTable {
		if e.format == format {
			return e, true
		}
	}
	return directoryEntry{}, false
}

func fieldValue(f music.Fields, fld field) string {
	switch fld {
	case fieldTitle:
		return f.Title
	case fieldArtist:
		return f.Artist
	case fieldAlbumArtist:
		if f.AlbumArtist != "" {
			return f.AlbumArtist
		}
		return f.Artist
	case fieldAlbum:
		return f.Album
	case fieldGenre:
		return f.Genre
	case fieldYear:
		if f.Year > 0 {
			return strconv.Itoa(f.Year)
		}
	case fieldTrackNumber:
		if f.TrackNumber > 0 {
			return fmt.Sprintf("%02d", f.TrackNumber)
		}
	}
	return ""
}
