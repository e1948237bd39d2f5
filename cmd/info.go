package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/dlx/internal/shared"
	"github.com/urfave/cli/v3"
)

func infoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Inspect a URL and list its selectable quality variants",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Info,
	}
}

// Info prints the media catalog for a URL.
func (r *Runner) Info(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	r.logger.Info("inspecting", "url", url)

	info, err := r.catalog.Inspect(ctx, url)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", info.Title)
	r.writePlain("Uploader: %s  Duration: %s  Views: %s\n\n",
		info.Uploader, info.DurationFormatted, info.ViewCountFormatted)

	r.writePlain("Video formats:\n")
	for _, v := range info.Formats {
		r.writePlain("  %-14s %-6s %-10s %s\n", v.Quality, v.Ext, v.FileSize, v.FormatID)
	}

	r.writePlain("\nAudio formats:\n")
	for _, v := range info.AudioFormats {
		r.writePlain("  %-14s %-6s %-10s %s\n", v.Quality, v.Ext, v.FileSize, v.FormatID)
	}

	return nil
}
