package music

// RenameFormat selects how a track's file name is built from its fields.
type RenameFormat string

const (
	RenameNone                     RenameFormat = "none"
	RenameTitle                    RenameFormat = "title"
	RenameArtistTitle              RenameFormat = "artist_title"
	RenameTitleArtist              RenameFormat = "title_artist"
	RenameTrackNumTitle            RenameFormat = "tracknum_title"
	RenameTrackNumArtistTitle      RenameFormat = "tracknum_artist_title"
	RenameAlbumTrackNumTitle       RenameFormat = "album_tracknum_title"
	RenameArtistAlbumTrackNumTitle RenameFormat = "artist_album_tracknum_title"
)

// DirectoryFormat selects the library sub directory a track is moved into.
type DirectoryFormat string

const (
	DirectoryNone             DirectoryFormat = "none"
	DirectoryArtist           DirectoryFormat = "artist"
	DirectoryAlbum            DirectoryFormat = "album"
	DirectoryArtistAlbum      DirectoryFormat = "artist_album"
	DirectoryAlbumArtistAlbum DirectoryFormat = "albumartist_album"
	DirectoryArtistYearAlbum  DirectoryFormat = "artist_year_album"
	DirectoryGenreArtistAlbum DirectoryFormat = "genre_artist_album"
)
