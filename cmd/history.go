package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/dlx/internal/history"
	"github.com/desertthunder/dlx/internal/shared"
	"github.com/urfave/cli/v3"
)

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past download jobs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of records to show",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// History lists terminal job records, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if r.config.Storage.HistoryPath == "" {
		return fmt.Errorf("%w: no history_path configured", shared.ErrInvalidConfig)
	}

	store, err := history.Open(r.config.Storage.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		r.writePlain("No downloads recorded yet.\n")
		return nil
	}

	for _, rec := range records {
		line := fmt.Sprintf("%s  %-8s %-6s %s", rec.FinishedAt.Format("2006-01-02 15:04"), rec.Status, rec.Kind, rec.URL)
		if rec.Artifact != "" {
			line += fmt.Sprintf("  -> %s (%s)", rec.Artifact, shared.FormatBytesValue(rec.SizeBytes))
		}
		if rec.Error != "" {
			line += fmt.Sprintf("  (%s)", rec.Error)
		}
		r.writePlain("%s\n", line)
	}

	return nil
}

// Setup writes the example configuration file.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.writePlain("Wrote %s\n", path)
	return nil
}
