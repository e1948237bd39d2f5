package jobs

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/charmbracelet/log"
)

// tagArtifact writes an ID3 title frame to a finished mp3 artifact, derived
// from the engine's title-based filename. Tagging is best-effort: failures
// are logged and never affect the job outcome.
func tagArtifact(path string, logger *log.Logger) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		logger.Warn("failed to open artifact for tagging", "path", path, "error", err)
		return
	}
	defer tag.Close()

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if title == "" {
		return
	}

	tag.SetTitle(title)
	if err := tag.Save(); err != nil {
		logger.Warn("failed to save artifact tags", "path", path, "error", err)
	}
}
