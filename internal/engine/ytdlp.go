package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// progressPrefix marks machine-readable progress lines emitted through
// yt-dlp's --progress-template flag.
const progressPrefix = "DLX|"

// progressTemplate asks yt-dlp to emit one pipe-separated progress line per
// update. Fields the extractor cannot fill render as "NA".
const progressTemplate = "download:" + progressPrefix +
	"%(progress.status)s|%(progress.downloaded_bytes)s|%(progress.total_bytes)s|" +
	"%(progress.total_bytes_estimate)s|%(progress._percent_str)s|%(progress._speed_str)s|" +
	"%(progress._eta_str)s|%(progress.filename)s"

// YTDLP is an [Engine] that shells out to the yt-dlp binary.
type YTDLP struct {
	binary string
	logger *log.Logger
}

// NewYTDLP creates a yt-dlp backed engine. An empty binary defaults to
// "yt-dlp" resolved via PATH.
func NewYTDLP(binary string, logger *log.Logger) *YTDLP {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLP{binary: binary, logger: logger}
}

// CheckBinary verifies the configured binary is resolvable.
func (y *YTDLP) CheckBinary() error {
	if _, err := exec.LookPath(y.binary); err != nil {
		return fmt.Errorf("%s is not installed or not on PATH", y.binary)
	}
	return nil
}

// ExtractInfo runs a metadata-only extraction and parses the JSON dump.
func (y *YTDLP) ExtractInfo(ctx context.Context, url string) (*RawInfo, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("url is required")
	}

	args := []string{"--no-playlist", "-J", url}
	cmd := exec.CommandContext(ctx, y.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", y.binary, err, tail(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s returned empty output", y.binary)
	}

	var info RawInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse %s output: %w", y.binary, err)
	}
	return &info, nil
}

// Download runs yt-dlp with the given options, streaming progress lines to
// the hook. The engine writes its output into opts.OutputDir; the exact
// filename depends on the media title.
func (y *YTDLP) Download(ctx context.Context, opts Options, hook Hook) error {
	if strings.TrimSpace(opts.URL) == "" {
		return fmt.Errorf("url is required")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return fmt.Errorf("output directory is required")
	}

	args := y.buildArgs(opts)
	cmd := exec.CommandContext(ctx, y.binary, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("setup stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", y.binary, err)
	}

	var errBuf strings.Builder

	g := new(errgroup.Group)
	g.Go(func() error {
		return y.scanProgress(stdoutPipe, hook)
	})
	g.Go(func() error {
		scanner := bufio.NewScanner(stderrPipe)
		for scanner.Scan() {
			line := scanner.Text()
			if errBuf.Len() < 8192 {
				errBuf.WriteString(line)
				errBuf.WriteByte('\n')
			}
		}
		return scanner.Err()
	})

	scanErr := g.Wait()
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", y.binary, err, tail(errBuf.String()))
	}
	if scanErr != nil {
		return fmt.Errorf("reading %s output: %w", y.binary, scanErr)
	}
	return nil
}

func (y *YTDLP) buildArgs(opts Options) []string {
	args := []string{
		"--no-playlist",
		"--newline",
		"--progress-template", progressTemplate,
		"-f", opts.Selector,
		"-o", filepath.Join(opts.OutputDir, "%(title)s.%(ext)s"),
	}

	if opts.ExtractAudio {
		args = append(args, "-x", "--audio-format", opts.AudioCodec)
		if opts.AudioQuality != "" {
			args = append(args, "--audio-quality", opts.AudioQuality+"K")
		}
		if opts.ResampleHz > 0 {
			args = append(args, "--postprocessor-args", fmt.Sprintf("ffmpeg:-ar %d", opts.ResampleHz))
		}
	} else if opts.MergeFormat != "" {
		args = append(args, "--merge-output-format", opts.MergeFormat)
	}

	if opts.UserAgent != "" {
		args = append(args, "--user-agent", opts.UserAgent)
	}
	if opts.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(opts.Retries))
	}
	if opts.RateLimitMBps > 0 {
		args = append(args, "--limit-rate", fmt.Sprintf("%dM", opts.RateLimitMBps))
	}

	args = append(args, opts.URL)
	return args
}

// scanProgress reads stdout line by line and forwards parsed progress events.
// Non-progress lines are ignored.
func (y *YTDLP) scanProgress(r io.Reader, hook Hook) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		event, ok := ParseProgressLine(line)
		if !ok {
			continue
		}
		if hook != nil {
			hook(event)
		}
	}
	return scanner.Err()
}

// ParseProgressLine parses one --progress-template line into an [Event].
// Returns false for lines that are not progress reports.
func ParseProgressLine(line string) (Event, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), progressPrefix)
	if !ok {
		return Event{}, false
	}

	fields := strings.Split(rest, "|")
	if len(fields) < 8 {
		return Event{}, false
	}

	event := Event{
		Status:             EventStatus(fields[0]),
		DownloadedBytes:    parseByteField(fields[1]),
		TotalBytes:         parseByteField(fields[2]),
		TotalBytesEstimate: parseByteField(fields[3]),
		PercentStr:         cleanField(fields[4]),
		SpeedStr:           cleanField(fields[5]),
		ETAStr:             cleanField(fields[6]),
		Filename:           cleanField(fields[7]),
	}

	switch event.Status {
	case StatusDownloading, StatusFinished, StatusError:
		return event, true
	default:
		return Event{}, false
	}
}

// parseByteField parses a numeric progress field, treating "NA" and malformed
// values as absent. yt-dlp reports byte counts as floats for estimates.
func parseByteField(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if s == "NA" {
		return ""
	}
	return s
}

// tail returns the last few lines of command output for error messages.
func tail(s string) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, "\n")
}
