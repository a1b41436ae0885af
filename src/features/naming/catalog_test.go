package naming

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/contre95/soulwrite/src/music"
)

func newTrack(path string, f music.Fields) *music.Track {
	return music.NewTrack("", path, f)
}

func sampleFields() music.Fields {
	return music.Fields{
		Title:       "Song",
		Artist:      "Artist",
		AlbumArtist: "Band",
		Album:       "Album",
		Genre:       "Rock",
		Year:        1999,
		TrackNumber: 3,
	}
}

func TestRename_Examples(t *testing.T) {
	catalog := NewCatalog(Options{})
	track := newTrack("/music/old.mp3", sampleFields())

	tests := []struct {
		format music.RenameFormat
		want   string
	}{
		{music.RenameNone, ""},
		{music.RenameTitle, "Song.mp3"},
		{music.RenameArtistTitle, "Artist - Song.mp3"},
		{music.RenameTitleArtist, "Song - Artist.mp3"},
		{music.RenameTrackNumTitle, "03 Song.mp3"},
		{music.RenameTrackNumArtistTitle, "03 Artist - Song.mp3"},
		{music.RenameAlbumTrackNumTitle, "Album - 03 Song.mp3"},
		{music.RenameArtistAlbumTrackNumTitle, "Artist - Album - 03 Song.mp3"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := catalog.Rename(track, tt.format); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRename_RoundTrip(t *testing.T) {
	catalog := NewCatalog(Options{})
	track := newTrack("/music/old.flac", sampleFields())

	for _, format := range RenameFormats() {
		if format == music.RenameNone {
			continue
		}
		name := catalog.Rename(track, format)
		got, ok := catalog.RenameFormatOf(track, name)
		if !ok || got != format {
			t.Errorf("format %s: name %q recovered as %s (ok=%v)", format, name, got, ok)
		}
	}
}

func TestRename_EmptyFieldsYieldNothing(t *testing.T) {
	catalog := NewCatalog(Options{})
	track := newTrack("/music/old.mp3", music.Fields{})
	if got := catalog.Rename(track, music.RenameArtistTitle); got != "" {
		t.Errorf("expected empty name, got %q", got)
	}
}

func TestRename_Sanitizes(t *testing.T) {
	catalog := NewCatalog(Options{})
	track := newTrack("/music/old.mp3", music.Fields{Title: `AC/DC: Live? "Yes"...  `})
	if got := catalog.Rename(track, music.RenameTitle); got != `AC_DC_ Live_ _Yes_.mp3` {
		t.Errorf("unexpected sanitized name %q", got)
	}
}

func TestRename_Truncates(t *testing.T) {
	catalog := NewCatalog(Options{})
	long := strings.Repeat("a", 80)
	track := newTrack("/music/old.mp3", music.Fields{Title: long, Artist: long, Album: long, TrackNumber: 1})

	single := catalog.Rename(track, music.RenameTitle)
	if single != strings.Repeat("a", 60)+".mp3" {
		t.Errorf("expected field truncated to 60 runes, got %d runes", len([]rune(single)))
	}

	joined := catalog.Rename(track, music.RenameArtistAlbumTrackNumTitle)
	base := strings.TrimSuffix(joined, ".mp3")
	if len([]rune(base)) != 90 {
		t.Errorf("expected joined name truncated to 90 runes, got %d", len([]rune(base)))
	}
	if filepath.Ext(joined) != ".mp3" {
		t.Errorf("expected extension to be kept, got %q", joined)
	}
}

func TestRename_TruncationCountsRunes(t *testing.T) {
	catalog := NewCatalog(Options{})
	track := newTrack("/music/old.mp3", music.Fields{Title: strings.Repeat("é", 70)})
	got := strings.TrimSuffix(catalog.Rename(track, music.RenameTitle), ".mp3")
	if len([]rune(got)) != 60 {
		t.Errorf("expected 60 runes, got %d", len([]rune(got)))
	}
}

func TestRename_Asciify(t *testing.T) {
	catalog := NewCatalog(Options{Asciify: true})
	track := newTrack("/music/old.mp3", music.Fields{Title: "Café Ñandú"})
	if got := catalog.Rename(track, music.RenameTitle); got != "Cafe Nandu.mp3" {
		t.Errorf("expected ascii name, got %q", got)
	}
}

func TestSetOptions_TogglesAsciify(t *testing.T) {
	catalog := NewCatalog(Options{})
	track := newTrack("/music/old.mp3", music.Fields{Title: "Café"})
	if got := catalog.Rename(track, music.RenameTitle); got != "Café.mp3" {
		t.Fatalf("expected accents kept, got %q", got)
	}
	catalog.SetOptions(Options{Asciify: true})
	if got := catalog.Rename(track, music.RenameTitle); got != "Cafe.mp3" {
		t.Errorf("expected ascii name after SetOptions, got %q", got)
	}
}

func TestDirectoryPath(t *testing.T) {
	catalog := NewCatalog(Options{})
	track := newTrack("/music/old.mp3", sampleFields())

	tests := []struct {
		format music.DirectoryFormat
		want   string
	}{
		{music.DirectoryNone, ""},
		{music.DirectoryArtist, "Artist"},
		{music.DirectoryArtistAlbum, filepath.Join("Artist", "Album")},
		{music.DirectoryAlbumArtistAlbum, filepath.Join("Band", "Album")},
		{music.DirectoryArtistYearAlbum, filepath.Join("Artist", "1999 Album")},
		{music.DirectoryGenreArtistAlbum, filepath.Join("Rock", "Artist", "Album")},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := catalog.DirectoryPath(track, tt.format); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDirectoryPath_SanitizesEachSegment(t *testing.T) {
	catalog := NewCatalog(Options{})
	track := newTrack("/music/old.mp3", music.Fields{Artist: "AC/DC.", Album: "Live: 1991 ..."})
	want := filepath.Join("AC_DC", "Live_ 1991")
	if got := catalog.DirectoryPath(track, music.DirectoryArtistAlbum); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDirectoryPath_Truncates(t *testing.T) {
	catalog := NewCatalog(Options{})
	track := newTrack("/music/old.mp3", music.Fields{
		Genre:  strings.Repeat("g", 80),
		Artist: strings.Repeat("a", 80),
		Album:  strings.Repeat("b", 80),
	})
	got := catalog.DirectoryPath(track, music.DirectoryGenreArtistAlbum)
	want := filepath.Join(strings.Repeat("g", 60), strings.Repeat("a", 59))
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestAllRenames_OrderAndDistinct(t *testing.T) {
	catalog := NewCatalog(Options{})
	// No track number: the numbered formats collapse onto the plain ones.
	f := sampleFields()
	f.TrackNumber = 0
	track := newTrack("/music/zzz.mp3", f)

	options := catalog.AllRenames(track)
	if options[0].Format != string(music.RenameNone) || options[0].Value != "zzz.mp3" {
		t.Fatalf("expected current name first, got %+v", options[0])
	}

	seen := map[string]bool{}
	for _, o := range options {
		if seen[o.Value] {
			t.Errorf("duplicate option %q", o.Value)
		}
		seen[o.Value] = true
	}
	for i := 2; i < len(options); i++ {
		if strings.ToLower(options[i-1].Value) > strings.ToLower(options[i].Value) {
			t.Errorf("options not sorted: %q before %q", options[i-1].Value, options[i].Value)
		}
	}
	if !seen["Song.mp3"] || !seen["Album - Song.mp3"] {
		t.Errorf("missing expected options: %+v", options)
	}
}

func TestAllDirectoryFormats(t *testing.T) {
	catalog := NewCatalog(Options{})
	track := newTrack("/music/old.mp3", sampleFields())
	options := catalog.AllDirectoryFormats(track)
	if options[0].Value != "/music" {
		t.Fatalf("expected current directory first, got %+v", options[0])
	}
	if len(options) != len(DirectoryFormats()) {
		t.Errorf("expected %d options, got %d", len(DirectoryFormats()), len(options))
	}
}

func TestParseFormats(t *testing.T) {
	if f, err := ParseRenameFormat("tracknum_title"); err != nil || f != music.RenameTrackNumTitle {
		t.Errorf("unexpected parse result %s, %v", f, err)
	}
	if _, err := ParseRenameFormat("bogus"); err == nil {
		t.Error("expected error for unknown rename format")
	}
	if f, err := ParseDirectoryFormat(""); err != nil || f != music.DirectoryNone {
		t.Errorf("expected empty string to mean none, got %s, %v", f, err)
	}
	if _, err := ParseDirectoryFormat("bogus"); err == nil {
		t.Error("expected error for unknown directory format")
	}
}
