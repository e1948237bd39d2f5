// package engine defines the fetch engine collaborator contract and its yt-dlp implementation.
//
// The engine is a black box from the orchestration layer's point of view: it
// resolves a URL to raw format descriptors, and later fetches and
// post-processes the selected streams into an output directory, reporting
// progress through a per-job callback. Everything above this package talks to
// the [Engine] interface only.
package engine

import "context"

// EventStatus tags a progress [Event].
type EventStatus string

const (
	StatusDownloading EventStatus = "downloading"
	StatusFinished    EventStatus = "finished"
	StatusError       EventStatus = "error"
)

// Event is one progress report from the engine. Depending on Status, byte
// counts, preformatted display strings, a filename, or an error description
// are populated; consumers must tolerate any subset being absent.
type Event struct {
	Status             EventStatus
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
	PercentStr         string
	SpeedStr           string
	ETAStr             string
	Filename           string
	Error              string
}

// RawFormat is one raw format descriptor as reported by the engine.
// Zero values mean the field was not reported.
type RawFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	ABR            float64 `json:"abr"`
	FPS            float64 `json:"fps"`
	FileSize       int64   `json:"filesize"`
	FileSizeApprox int64   `json:"filesize_approx"`
}

// RawInfo is the engine's extraction result for one URL.
type RawInfo struct {
	Title       string      `json:"title"`
	Thumbnail   string      `json:"thumbnail"`
	Duration    int         `json:"duration"`
	Uploader    string      `json:"uploader"`
	ViewCount   int64       `json:"view_count"`
	UploadDate  string      `json:"upload_date"`
	Description string      `json:"description"`
	Formats     []RawFormat `json:"formats"`
}

// Options is the declarative option bag for one download.
type Options struct {
	URL           string
	Selector      string // format-selector expression, may contain fallback chains and merge combinations
	OutputDir     string // scratch directory the engine writes into
	MergeFormat   string // container for merged video output, e.g. "mp4"
	ExtractAudio  bool
	AudioCodec    string // "mp3" or "m4a" when ExtractAudio is set
	AudioQuality  string // preferred bitrate, e.g. "192"
	ResampleHz    int    // audio resample rate, 0 to skip
	UserAgent     string
	Retries       int
	RateLimitMBps int
}

// Hook receives progress events for a single download. Implementations must
// be safe to call from the engine's reader goroutines.
type Hook func(Event)

// Engine resolves URLs to media streams and performs transfer and
// post-processing. Download writes its output file(s) into
// [Options.OutputDir] using the media title as the filename; callers must not
// assume a predictable exact name.
type Engine interface {
	ExtractInfo(ctx context.Context, url string) (*RawInfo, error)
	Download(ctx context.Context, opts Options, hook Hook) error
}
