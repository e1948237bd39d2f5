package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dlx/internal/jobs"
	"github.com/desertthunder/dlx/internal/models"
	"github.com/desertthunder/dlx/internal/progress"
	"github.com/desertthunder/dlx/internal/shared"
	"github.com/desertthunder/dlx/internal/ui"
	"github.com/urfave/cli/v3"
)

func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download a URL to the current directory",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "audio",
				Aliases: []string{"a"},
				Usage:   "Download audio only",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Format id or selector expression from `info`",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Destination directory",
				Value:   ".",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Disable the interactive progress view",
			},
		},
		Action: r.Fetch,
	}
}

// Fetch submits a job for the URL, waits for it to finish, and moves the
// artifact into the destination directory.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	kind := jobs.KindVideo
	formatID := cmd.String("format")
	if cmd.Bool("audio") {
		kind = jobs.KindAudio
		if formatID == "" {
			formatID = "bestaudio"
		}
	} else if formatID == "" {
		formatID = "best"
	}

	if err := r.checkEngine(); err != nil {
		return err
	}

	stack := r.buildStack()
	defer stack.close()

	id, err := stack.orch.Submit(url, models.FormatVariant{FormatID: formatID}, kind)
	if err != nil {
		return err
	}

	var status progress.Status
	if cmd.Bool("plain") {
		status = r.pollPlain(stack.orch.Tracker(), id)
	} else {
		model, err := tea.NewProgram(ui.NewModel(stack.orch.Tracker(), id, url)).Run()
		if err != nil {
			return fmt.Errorf("progress view failed: %w", err)
		}
		status = model.(ui.Model).Status()
	}

	switch status.State {
	case progress.StateFinished:
	case progress.StateError:
		return fmt.Errorf("%w: %s", shared.ErrDownload, status.Error)
	default:
		// View quit before the job finished; the worker keeps running but the
		// artifact is unreachable once we sweep, so report the abandonment.
		return fmt.Errorf("download abandoned while %s", status.State)
	}

	dest := filepath.Join(cmd.String("out"), filepath.Base(status.Filename))
	if err := moveFile(status.Filename, dest); err != nil {
		return err
	}
	stack.gateway.Dispose(id)

	r.writePlain("Saved %s (%s)\n", dest, status.FileSize)
	return nil
}

// pollPlain polls the tracker on a fixed cadence, printing one status line
// per change, until the job reaches a terminal state.
func (r *Runner) pollPlain(tracker *progress.Tracker, id string) progress.Status {
	var last progress.Status
	for {
		status := tracker.Get(id)
		if status != last {
			switch status.State {
			case progress.StateDownloading:
				r.writePlain("%.1f%%  speed %s  eta %s\n", status.Percent, status.Speed, status.ETA)
			case progress.StateStarting:
				r.writePlain("starting...\n")
			}
			last = status
		}
		if status.State.Terminal() || status.State == progress.StateNotFound {
			return status
		}
		time.Sleep(time.Second)
	}
}

// moveFile renames when possible, falling back to copy+remove across
// filesystems (scratch directories commonly live on a different mount).
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy artifact: %w", err)
	}
	return os.Remove(src)
}
