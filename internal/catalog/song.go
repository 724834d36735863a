// Package catalog owns the song records behind the stream server: where the
// bytes live, how large the stored object is, and whether it is an encrypted
// envelope. Records are created at upload time and immutable afterwards
// except for display metadata edits and deletion.
package catalog

import (
	"errors"
	"time"
)

// ErrSongNotFound indicates no catalog record exists for the requested id.
var ErrSongNotFound = errors.New("song not found")

// Song is one uploaded audio asset.
type Song struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	Album        string    `json:"album"`
	DurationSecs int       `json:"durationSecs"`

	// ObjectKey locates the stored object in the blob store.
	ObjectKey string `json:"-"`
	// ArtworkKey locates the sibling artwork object; empty when none was uploaded.
	ArtworkKey string `json:"-"`

	// SizeBytes is the size of the stored object as it sits in the blob
	// store. For encrypted songs that includes the prepended IV and cipher
	// padding, not the playable audio length.
	SizeBytes int64 `json:"sizeBytes"`

	// Encrypted is fixed at upload time. It decides both the stored object
	// extension and how the stream path treats the bytes.
	Encrypted bool `json:"encrypted"`

	Plays      int64     `json:"plays"`
	Downloads  int64     `json:"downloads"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MetadataUpdate carries the editable display fields. Empty fields keep the
// current value.
type MetadataUpdate struct {
	Title  string
	Artist string
	Album  string
}

// ListFilter narrows a catalog listing. Zero value lists everything,
// newest first.
type ListFilter struct {
	// Search matches a substring of title, artist, or album.
	Search string
	// Artist matches a substring of the artist only.
	Artist string
	// Album matches a substring of the album only.
	Album string
}

// Stats summarizes the catalog for the admin surface.
type Stats struct {
	TotalSongs     int64  `json:"totalSongs"`
	TotalPlays     int64  `json:"totalPlays"`
	TotalDownloads int64  `json:"totalDownloads"`
	TopSongs       []Song `json:"topSongs"`
}
