// package models defines the domain types shared across the catalog, job, and server layers.
package models

import "time"

// VariantKind classifies a [FormatVariant].
type VariantKind string

const (
	KindCombined  VariantKind = "combined"   // muxed video+audio descriptor
	KindVideoOnly VariantKind = "video_only" // video descriptor that needs an audio merge
	KindAudioOnly VariantKind = "audio_only" // audio descriptor
	KindBest      VariantKind = "best"       // synthesized "best available" video fallback
	KindAudioBest VariantKind = "audio_best" // synthesized "best available" audio fallback
)

// FormatVariant is one user-selectable quality option derived from the
// engine's raw format descriptors.
//
// FormatID is the string handed back to the fetch engine at download time.
// For synthesized fallback entries it is a selector expression (e.g.
// "bestaudio[ext=m4a]"), not a concrete descriptor id.
type FormatVariant struct {
	FormatID        string      `json:"format_id"`
	Ext             string      `json:"ext"`
	Quality         string      `json:"quality"`
	FileSize        string      `json:"filesize"`
	RawFileSize     int64       `json:"-"`
	FPS             string      `json:"fps,omitempty"`
	VCodec          string      `json:"vcodec,omitempty"`
	ACodec          string      `json:"acodec,omitempty"`
	Kind            VariantKind `json:"type"`
	NeedsAudioMerge bool        `json:"needs_audio_merge,omitempty"`
	AudioFormat     string      `json:"audio_format,omitempty"`
}

// MediaInfo is the catalog response for one URL: display metadata plus the
// ranked video and audio variant lists.
type MediaInfo struct {
	Title              string          `json:"title"`
	Thumbnail          string          `json:"thumbnail"`
	Duration           int             `json:"duration"`
	DurationFormatted  string          `json:"duration_formatted"`
	Uploader           string          `json:"uploader"`
	ViewCount          int64           `json:"view_count"`
	ViewCountFormatted string          `json:"view_count_formatted"`
	UploadDate         string          `json:"upload_date"`
	Description        string          `json:"description"`
	Formats            []FormatVariant `json:"formats"`
	AudioFormats       []FormatVariant `json:"audio_formats"`
}

// JobRecord is one row of the persisted job history. History is an
// append-only audit log of terminal outcomes; live job state stays in memory.
type JobRecord struct {
	ID         string
	URL        string
	Kind       string
	Selector   string
	Status     string
	Artifact   string
	SizeBytes  int64
	Error      string
	CreatedAt  time.Time
	FinishedAt time.Time
}
