package tag

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/contre95/soulwrite/src/music"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// minimalFLAC returns a stream marker, an empty STREAMINFO block and a few
// bytes standing in for audio frames.
func minimalFLAC() []byte {
	data := []byte("fLaC")
	data = append(data, 0x80, 0x00, 0x00, 34)
	data = append(data, make([]byte, 34)...)
	return append(data, 0xFF, 0xF8, 0x00, 0x00)
}

func TestResizeImage(t *testing.T) {
	data := pngImage(t, 200, 100)

	out, err := resizeImage(data, 50, defaultQuality)
	if err != nil {
		t.Fatal(err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" || cfg.Width != 50 || cfg.Height != 25 {
		t.Errorf("expected 50x25 png, got %dx%d %s", cfg.Width, cfg.Height, format)
	}

	same, err := resizeImage(data, 0, defaultQuality)
	if err != nil || !bytes.Equal(same, data) {
		t.Error("expected size 0 to keep the image")
	}
	if _, err := resizeImage([]byte("not an image"), 50, defaultQuality); err == nil {
		t.Error("expected decode error")
	}
}

func TestWriteFileTags_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.ogg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewTagWriter(nil).WriteFileTags(context.Background(), path, music.Fields{Title: "x"}, music.TagWriteOptions{Tags: true})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if music.IsRetryable(err) {
		t.Error("unsupported format must not be retried")
	}
}

func TestWriteFileTags_NothingSelected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.mp3")
	if err := NewTagWriter(nil).WriteFileTags(context.Background(), path, music.Fields{}, music.TagWriteOptions{}); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestMP3_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 64), 0o644); err != nil {
		t.Fatal(err)
	}
	fields := music.Fields{
		Title:       "Song",
		Artist:      "Artist",
		AlbumArtist: "Band",
		Album:       "Album",
		TrackNumber: 3,
		Artwork:     pngImage(t, 10, 10),
	}

	writer := NewTagWriter(nil)
	if err := writer.WriteFileTags(context.Background(), path, fields, music.TagWriteOptions{Tags: true, Artwork: true}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := NewTagReader().ReadFileTags(context.Background(), path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Title != "Song" || got.Artist != "Artist" || got.Album != "Album" || got.AlbumArtist != "Band" {
		t.Errorf("unexpected fields: %+v", got)
	}
	if got.TrackNumber != 3 {
		t.Errorf("expected track 3, got %d", got.TrackNumber)
	}
	if len(got.Artwork) == 0 {
		t.Error("expected embedded artwork")
	}

	// Rewriting tags only keeps the picture.
	fields.Title = "Renamed"
	if err := writer.WriteFileTags(context.Background(), path, fields, music.TagWriteOptions{Tags: true}); err != nil {
		t.Fatal(err)
	}
	got, err = NewTagReader().ReadFileTags(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Renamed" || len(got.Artwork) == 0 {
		t.Errorf("expected new title and kept artwork, got %q, %d bytes", got.Title, len(got.Artwork))
	}
}

func TestFLAC_ReplacesOwnedComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.flac")
	if err := os.WriteFile(path, minimalFLAC(), 0o644); err != nil {
		t.Fatal(err)
	}
	writer := NewTagWriter(nil)
	opts := music.TagWriteOptions{Tags: true, Artwork: true}

	first := music.Fields{Title: "One", Artist: "A", Year: 1999, Artwork: pngImage(t, 4, 4)}
	if err := writer.WriteFileTags(context.Background(), path, first, opts); err != nil {
		t.Fatalf("first write: %v", err)
	}
	second := music.Fields{Title: "Two", Artist: "A", Artwork: pngImage(t, 4, 4)}
	if err := writer.WriteFileTags(context.Background(), path, second, opts); err != nil {
		t.Fatalf("second write: %v", err)
	}

	f, err := goflac.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	pictures := 0
	var comment *flacvorbis.MetaDataBlockVorbisComment
	for _, meta := range f.Meta {
		switch meta.Type {
		case goflac.Picture:
			pictures++
		case goflac.VorbisComment:
			comment, err = flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				t.Fatal(err)
			}
		}
	}
	if pictures != 1 {
		t.Errorf("expected a single picture block, got %d", pictures)
	}
	if comment == nil {
		t.Fatal("expected a vorbis comment block")
	}
	titles, _ := comment.Get(flacvorbis.FIELD_TITLE)
	if len(titles) != 1 || titles[0] != "Two" {
		t.Errorf("expected title Two, got %v", titles)
	}
	dates, _ := comment.Get(flacvorbis.FIELD_DATE)
	if len(dates) != 0 {
		t.Errorf("expected cleared date, got %v", dates)
	}
}
