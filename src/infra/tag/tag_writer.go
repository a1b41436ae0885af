package tag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/contre95/soulwrite/src/features/config"
	"github.com/contre95/soulwrite/src/infra/files"
	"github.com/contre95/soulwrite/src/music"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
	_ "image/gif"
)

// ErrUnsupportedFormat is returned for files that are neither MP3 nor FLAC.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

const defaultQuality = 85

// vorbisKeys are the comment names owned by the writer. Existing values are
// replaced, every other comment is kept.
var vorbisKeys = []string{
	flacvorbis.FIELD_TITLE,
	flacvorbis.FIELD_ARTIST,
	"ALBUMARTIST",
	flacvorbis.FIELD_ALBUM,
	flacvorbis.FIELD_GENRE,
	flacvorbis.FIELD_DATE,
	flacvorbis.FIELD_TRACKNUMBER,
	"DISCNUMBER",
}

// TagWriter implements writing tags into files for MP3 and FLAC formats.
type TagWriter struct {
	config *config.Manager
}

// NewTagWriter creates a new TagWriter.
func NewTagWriter(cfg *config.Manager) *TagWriter {
	return &TagWriter{config: cfg}
}

// WriteFileTags writes the selected parts of fields into the file.
func (t *TagWriter) WriteFileTags(ctx context.Context, filePath string, fields music.Fields, opts music.TagWriteOptions) error {
	if !opts.Tags && !opts.Artwork {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var artwork []byte
	if opts.Artwork && len(fields.Artwork) > 0 {
		artwork = t.prepareArtwork(filePath, fields.Artwork)
	}

	var err error
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".mp3":
		err = t.tagMP3(filePath, fields, opts, artwork)
	case ".flac":
		err = t.tagFLAC(filePath, fields, opts, artwork)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return files.Classify(err)
	}
	slog.Debug("Wrote tags", "path", filePath, "tags", opts.Tags, "artwork", opts.Artwork)
	return nil
}

func (t *TagWriter) artworkSettings() (int, int) {
	if t.config == nil {
		return 0, defaultQuality
	}
	cfg := t.config.Get().Artwork
	quality := cfg.Quality
	if quality <= 0 {
		quality = defaultQuality
	}
	return cfg.Size, quality
}

// prepareArtwork resizes the image to the configured size. A failure keeps
// the original bytes.
func (t *TagWriter) prepareArtwork(filePath string, data []byte) []byte {
	size, quality := t.artworkSettings()
	resized, err := resizeImage(data, size, quality)
	if err != nil {
		slog.Warn("Failed to resize artwork", "path", filePath, "error", err)
		return data
	}
	return resized
}

// resizeImage resizes image data to fit within maxSize pixels, maintaining aspect ratio.
func resizeImage(imgData []byte, maxSize, quality int) ([]byte, error) {
	if maxSize <= 0 {
		return imgData, nil
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return imgData, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= maxSize && height <= maxSize {
		return imgData, nil
	}

	if width > height {
		height = (height * maxSize) / width
		width = maxSize
	} else {
		width = (width * maxSize) / height
		height = maxSize
	}

	resizedImg := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)

	var buf bytes.Buffer
	if strings.ToLower(format) == "png" {
		err = png.Encode(&buf, resizedImg)
	} else {
		err = jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return imgData, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

// mimeType sniffs the image format, defaulting to JPEG.
func mimeType(data []byte) string {
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return "image/" + format
	}
	return "image/jpeg"
}

func numberText(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// tagMP3 handles MP3 tagging using id3v2.
func (t *TagWriter) tagMP3(filePath string, fields music.Fields, opts music.TagWriteOptions, artwork []byte) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer tag.Close()

	if opts.Tags {
		tag.SetDefaultEncoding(id3v2.EncodingUTF8)
		setText := func(id, value string) {
			tag.DeleteFrames(id)
			if value != "" {
				tag.AddTextFrame(id, tag.DefaultEncoding(), value)
			}
		}
		setText(tag.CommonID("Title"), fields.Title)
		setText(tag.CommonID("Artist"), fields.Artist)
		setText(tag.CommonID("Band/Orchestra/Accompaniment"), fields.AlbumArtist)
		setText(tag.CommonID("Album/Movie/Show title"), fields.Album)
		setText(tag.CommonID("Content type"), fields.Genre)
		setText(tag.CommonID("Year"), numberText(fields.Year))
		setText(tag.CommonID("Track number/Position in set"), numberText(fields.TrackNumber))
		setText(tag.CommonID("Part of a set"), numberText(fields.DiscNumber))
	}

	if opts.Artwork {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		if len(artwork) > 0 {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    mimeType(artwork),
				PictureType: id3v2.PTFrontCover,
				Description: "Front cover",
				Picture:     artwork,
			})
		}
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save MP3 tags: %w", err)
	}
	return nil
}

// tagFLAC handles FLAC tagging using go-flac.
func (t *TagWriter) tagFLAC(filePath string, fields music.Fields, opts music.TagWriteOptions, artwork []byte) error {
	f, err := goflac.ParseFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	if opts.Tags {
		if err := setVorbisComment(f, fields); err != nil {
			return err
		}
	}

	if opts.Artwork {
		meta := f.Meta[:0]
		for _, block := range f.Meta {
			if block.Type != goflac.Picture {
				meta = append(meta, block)
			}
		}
		f.Meta = meta
		if len(artwork) > 0 {
			pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front cover", artwork, mimeType(artwork))
			if err != nil {
				return fmt.Errorf("failed to build FLAC picture: %w", err)
			}
			block := pic.Marshal()
			f.Meta = append(f.Meta, &block)
		}
	}

	if err := f.Save(filePath); err != nil {
		return fmt.Errorf("failed to save FLAC file: %w", err)
	}
	return nil
}

func setVorbisComment(f *goflac.File, fields music.Fields) error {
	var comment *flacvorbis.MetaDataBlockVorbisComment
	index := -1
	for idx, meta := range f.Meta {
		if meta.Type == goflac.VorbisComment {
			parsed, err := flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				return fmt.Errorf("failed to parse Vorbis comment: %w", err)
			}
			comment, index = parsed, idx
			break
		}
	}
	if comment == nil {
		comment = flacvorbis.New()
	}

	kept := comment.Comments[:0]
	for _, c := range comment.Comments {
		key, _, _ := strings.Cut(c, "=")
		if !ownedKey(key) {
			kept = append(kept, c)
		}
	}
	comment.Comments = kept

	values := []string{
		fields.Title,
		fields.Artist,
		fields.AlbumArtist,
		fields.Album,
		fields.Genre,
		numberText(fields.Year),
		numberText(fields.TrackNumber),
		numberText(fields.DiscNumber),
	}
	for i, key := range vorbisKeys {
		if values[i] == "" {
			continue
		}
		if err := comment.Add(key, values[i]); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	block := comment.Marshal()
	if index >= 0 {
		f.Meta[index] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}
	return nil
}

func ownedKey(key string) bool {
	for _, k := range vorbisKeys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
