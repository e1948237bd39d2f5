// package catalog derives ranked, deduplicated quality variants from raw engine format descriptors.
//
// The catalog is a pure transformation: raw descriptors in, ordered video and
// audio variant lists out. It also owns the format-selector policy handed to
// the fetch engine at download time (see selector.go).
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dlx/internal/engine"
	"github.com/desertthunder/dlx/internal/models"
	"github.com/desertthunder/dlx/internal/shared"
)

// codecDisplayLimit truncates codec names for display.
const codecDisplayLimit = 15

// Catalog resolves a URL to a [models.MediaInfo] via the fetch engine.
type Catalog struct {
	engine engine.Engine
	logger *log.Logger
}

// New creates a Catalog backed by the given engine.
func New(eng engine.Engine, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Catalog{engine: eng, logger: logger}
}

// Inspect extracts media metadata and builds the selectable variant lists.
func (c *Catalog) Inspect(ctx context.Context, url string) (*models.MediaInfo, error) {
	info, err := c.engine.ExtractInfo(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrExtraction, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: no media information found", shared.ErrExtraction)
	}

	media := &models.MediaInfo{
		Title:              orUnknown(info.Title),
		Thumbnail:          info.Thumbnail,
		Duration:           info.Duration,
		DurationFormatted:  shared.FormatDuration(info.Duration),
		Uploader:           orUnknown(info.Uploader),
		ViewCount:          info.ViewCount,
		ViewCountFormatted: shared.FormatViewCount(info.ViewCount),
		UploadDate:         info.UploadDate,
		Description:        shared.TruncateDescription(info.Description, 500),
	}

	media.Formats, media.AudioFormats = c.buildVariants(info.Formats)
	return media, nil
}

// keyedVariant pairs a variant with its numeric sort key (height for video,
// bitrate for audio).
type keyedVariant struct {
	variant models.FormatVariant
	sortKey int
}

// buildVariants partitions raw descriptors into combined, video-only, and
// audio-only buckets, deduplicates per quality key, merges, sorts, and falls
// back to synthesized entries when a list ends empty.
func (c *Catalog) buildVariants(formats []engine.RawFormat) (video, audio []models.FormatVariant) {
	combined := map[string]keyedVariant{}
	videoOnly := map[string]keyedVariant{}
	audioOnly := map[string]keyedVariant{}

	for _, raw := range formats {
		if err := c.scoreDescriptor(raw, combined, videoOnly, audioOnly); err != nil {
			c.logger.Warn("skipping malformed format descriptor", "format_id", raw.FormatID, "error", err)
		}
	}

	// Combined wins at any resolution it covers; video-only fills the rest.
	merged := map[string]keyedVariant{}
	for key, kv := range combined {
		merged[key] = kv
	}
	for key, kv := range videoOnly {
		if _, ok := merged[key]; !ok {
			merged[key] = kv
		}
	}

	video = sortedVariants(merged)
	audio = sortedVariants(audioOnly)

	if len(video) == 0 {
		video = fallbackVideoVariants()
	}
	if len(audio) == 0 {
		audio = fallbackAudioVariants()
	}
	return video, audio
}

// scoreDescriptor classifies one raw descriptor into the appropriate bucket,
// keeping the larger-filesize entry on key collisions. Missing sizes lose
// ties; equal sizes keep the first-seen entry.
func (c *Catalog) scoreDescriptor(raw engine.RawFormat, combined, videoOnly, audioOnly map[string]keyedVariant) error {
	if raw.FormatID == "" {
		return fmt.Errorf("missing format id")
	}

	size := raw.FileSize
	if size == 0 {
		size = raw.FileSizeApprox
	}

	hasVideo := hasCodec(raw.VCodec)
	hasAudio := hasCodec(raw.ACodec)

	switch {
	case hasVideo && hasAudio && raw.Height > 0:
		key := fmt.Sprintf("%dp", raw.Height)
		upsertLargest(combined, key, keyedVariant{
			sortKey: raw.Height,
			variant: models.FormatVariant{
				FormatID:    raw.FormatID,
				Ext:         orDefault(raw.Ext, "mp4"),
				Quality:     key,
				FileSize:    formatSize(size),
				RawFileSize: size,
				FPS:         formatFPS(raw.FPS),
				VCodec:      truncateCodec(raw.VCodec),
				ACodec:      truncateCodec(raw.ACodec),
				Kind:        models.KindCombined,
			},
		})

	case hasVideo && !hasAudio && raw.Height > 0:
		key := fmt.Sprintf("%dp", raw.Height)
		upsertLargest(videoOnly, key, keyedVariant{
			sortKey: raw.Height,
			variant: models.FormatVariant{
				FormatID:        raw.FormatID,
				Ext:             orDefault(raw.Ext, "mp4"),
				Quality:         key,
				FileSize:        formatSize(size),
				RawFileSize:     size,
				FPS:             formatFPS(raw.FPS),
				VCodec:          truncateCodec(raw.VCodec),
				ACodec:          "separate",
				Kind:            models.KindVideoOnly,
				NeedsAudioMerge: true,
			},
		})

	case hasAudio && !hasVideo:
		family, ok := audioFamily(raw)
		if !ok || raw.ABR <= 0 {
			return nil // outside the M4A/MP3 product restriction, not malformed
		}
		bitrate := int(raw.ABR)
		key := fmt.Sprintf("%dkbps_%s", bitrate, family)
		upsertLargest(audioOnly, key, keyedVariant{
			sortKey: bitrate,
			variant: models.FormatVariant{
				FormatID:    raw.FormatID,
				Ext:         strings.ToLower(family),
				Quality:     fmt.Sprintf("%dkbps (%s)", bitrate, family),
				FileSize:    formatSize(size),
				RawFileSize: size,
				ACodec:      raw.ACodec,
				Kind:        models.KindAudioOnly,
				AudioFormat: family,
			},
		})
	}
	return nil
}

// upsertLargest keeps the entry with the strictly larger reported size.
func upsertLargest(bucket map[string]keyedVariant, key string, kv keyedVariant) {
	if existing, ok := bucket[key]; ok && kv.variant.RawFileSize <= existing.variant.RawFileSize {
		return
	}
	bucket[key] = kv
}

func sortedVariants(bucket map[string]keyedVariant) []models.FormatVariant {
	keyed := make([]keyedVariant, 0, len(bucket))
	for _, kv := range bucket {
		keyed = append(keyed, kv)
	}
	sort.Slice(keyed, func(i, j int) bool {
		return keyed[i].sortKey > keyed[j].sortKey
	})

	variants := make([]models.FormatVariant, len(keyed))
	for i, kv := range keyed {
		variants[i] = kv.variant
	}
	return variants
}

// fallbackVideoVariants is the synthesized entry set used when no concrete
// video descriptor survived bucketing. The FormatID is a selector expression
// resolved by the engine at fetch time.
func fallbackVideoVariants() []models.FormatVariant {
	return []models.FormatVariant{{
		FormatID: "best",
		Ext:      "mp4",
		Quality:  "Best Available",
		FileSize: "Unknown",
		FPS:      "N/A",
		VCodec:   "auto",
		ACodec:   "auto",
		Kind:     models.KindBest,
	}}
}

func fallbackAudioVariants() []models.FormatVariant {
	return []models.FormatVariant{
		{
			FormatID:    "bestaudio[ext=m4a]",
			Ext:         "m4a",
			Quality:     "Best Quality (M4A)",
			FileSize:    "Unknown",
			ACodec:      "auto",
			Kind:        models.KindAudioBest,
			AudioFormat: "M4A",
		},
		{
			FormatID:    "bestaudio[ext=mp3]",
			Ext:         "mp3",
			Quality:     "Best Quality (MP3)",
			FileSize:    "Unknown",
			ACodec:      "auto",
			Kind:        models.KindAudioBest,
			AudioFormat: "MP3",
		},
	}
}

// audioFamily resolves a descriptor to the M4A or MP3 codec family. Other
// families are a deliberate product restriction, not an engine limitation.
func audioFamily(raw engine.RawFormat) (string, bool) {
	ext := strings.ToLower(raw.Ext)
	codec := strings.ToLower(raw.ACodec)

	switch {
	case ext == "m4a" || strings.Contains(codec, "mp4a"):
		return "M4A", true
	case ext == "mp3" || strings.Contains(codec, "mp3"):
		return "MP3", true
	default:
		return "", false
	}
}

func hasCodec(codec string) bool {
	return codec != "" && codec != "none"
}

func formatSize(size int64) string {
	if size <= 0 {
		return "Unknown"
	}
	return shared.FormatBytesValue(size)
}

func formatFPS(fps float64) string {
	if fps <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%g", fps)
}

func truncateCodec(codec string) string {
	if len(codec) > codecDisplayLimit {
		return codec[:codecDisplayLimit]
	}
	return codec
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
