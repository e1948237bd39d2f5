package catalog

import (
	"fmt"
	"strings"

	"github.com/desertthunder/dlx/internal/models"
)

// The engine's format query language supports fallback chains ("/"-separated
// alternatives) and merge expressions ("+"). Higher-quality selectors
// frequently fail upstream (removed, geo-blocked, login-gated), so every
// selector built here ends in a chain that guarantees some format is
// attempted before giving up.

// bestVideoChain is the descending fallback chain for a generic "best"
// request: combined mp4 capped at 1080p, any combined at 1080p, video-only
// plus m4a audio, video-only plus any audio, then unrestricted best.
const bestVideoChain = "best[height<=1080][ext=mp4]/best[height<=1080]/" +
	"bestvideo[height<=1080]+bestaudio[ext=m4a]/bestvideo[height<=1080]+bestaudio/best"

// VideoSelector builds the format-selector expression for a video variant.
func VideoSelector(variant models.FormatVariant) string {
	if variant.FormatID == "best" || variant.Kind == models.KindBest {
		return bestVideoChain
	}

	if variant.NeedsAudioMerge || variant.Kind == models.KindVideoOnly {
		height := strings.TrimSuffix(variant.Quality, "p")
		if !isDigits(height) {
			height = "720"
		}
		return fmt.Sprintf("%s+bestaudio[ext=m4a]/%s+bestaudio/best[height<=%s]",
			variant.FormatID, variant.FormatID, height)
	}

	// Already-combined descriptor: fall back to a capped best if it vanished.
	return fmt.Sprintf("%s/best[height<=1080]", variant.FormatID)
}

// AudioSelector resolves an audio variant to a selector expression and the
// output codec family ("m4a" or "mp3"). The output container is forced to
// match the chosen family.
func AudioSelector(variant models.FormatVariant) (selector, codec string) {
	id := variant.FormatID

	switch {
	case strings.Contains(id, "bestaudio[ext=m4a]"):
		return "bestaudio[ext=m4a]/bestaudio[acodec*=mp4a]/bestaudio", "m4a"
	case strings.Contains(id, "bestaudio[ext=mp3]"):
		return "bestaudio[ext=mp3]/bestaudio[acodec*=mp3]/bestaudio", "mp3"
	case variant.AudioFormat == "M4A" || variant.Ext == "m4a":
		if id == "bestaudio" {
			return "bestaudio[ext=m4a]/bestaudio", "m4a"
		}
		return id, "m4a"
	default:
		if id == "bestaudio" {
			return "bestaudio[ext=mp3]/bestaudio", "mp3"
		}
		return id, "mp3"
	}
}

// AudioPostProcessing returns the preferred bitrate and resample rate for an
// output codec family: mp3 is forced to 192kbps CBR resampled to 44.1kHz,
// m4a to 128kbps.
func AudioPostProcessing(codec string) (quality string, resampleHz int) {
	if codec == "mp3" {
		return "192", 44100
	}
	return "128", 0
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
