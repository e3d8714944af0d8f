package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fillip1984/inveniam/client"
	"github.com/fillip1984/inveniam/config"
	"github.com/fillip1984/inveniam/drag"
)

func triggerReportCmd(load func() (config.Config, error)) *cobra.Command {
	var endpoint, token string

	cmd := &cobra.Command{
		Use:   "trigger-report",
		Short: "Ask a running server to email the due-date report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if endpoint == "" {
				endpoint = cfg.Report.TriggerURL
			}
			if token == "" {
				token = cfg.Report.TriggerToken
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			summary, err := client.TriggerReport(ctx, endpoint, token)
			if err != nil {
				return fmt.Errorf("trigger report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent=%d failed=%d skipped=%d\n", summary.Sent, summary.Failed, summary.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "url", "", "trigger endpoint (default report.trigger_url)")
	cmd.Flags().StringVar(&token, "token", "", "trigger token (default report.trigger_token)")
	return cmd
}

// boardFlags are shared by the move commands.
type boardFlags struct {
	baseURL    string
	email      string
	password   string
	boardID    string
	overTask   string
	overBucket string
}

func (f *boardFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.baseURL, "url", "", "server base URL (default app.base_url)")
	cmd.Flags().StringVar(&f.email, "email", os.Getenv("INVENIAM_EMAIL"), "account email")
	cmd.Flags().StringVar(&f.password, "password", os.Getenv("INVENIAM_PASSWORD"), "account password")
	cmd.Flags().StringVar(&f.boardID, "board", "", "board id")
	cmd.Flags().StringVar(&f.overTask, "over-task", "", "drop onto this task")
	cmd.Flags().StringVar(&f.overBucket, "over-bucket", "", "drop onto this bucket")
	_ = cmd.MarkFlagRequired("board")
	cmd.MarkFlagsMutuallyExclusive("over-task", "over-bucket")
	cmd.MarkFlagsOneRequired("over-task", "over-bucket")
}

func (f *boardFlags) over() drag.Item {
	if f.overTask != "" {
		return drag.TaskItem(f.overTask)
	}
	return drag.BucketItem(f.overBucket)
}

// controller logs in and loads the board into a drag controller that
// persists through the API.
func (f *boardFlags) controller(ctx context.Context, cfg config.Config) (*drag.Controller, error) {
	if f.email == "" || f.password == "" {
		return nil, errors.New("--email and --password (or INVENIAM_EMAIL and INVENIAM_PASSWORD) are required")
	}
	baseURL := f.baseURL
	if baseURL == "" {
		baseURL = cfg.App.BaseURL
	}

	c := client.New(baseURL)
	if _, err := c.Login(ctx, f.email, f.password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	snap, err := c.Snapshot(ctx, f.boardID)
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	return drag.NewController(snap, c, drag.WithActivationDistance(cfg.Drag.ActivationDistance)), nil
}

func moveTaskCmd(load func() (config.Config, error)) *cobra.Command {
	var flags boardFlags

	cmd := &cobra.Command{
		Use:   "move-task <task-id>",
		Short: "Drag a task onto another task or bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctrl, err := flags.controller(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := ctrl.MoveTask(cmd.Context(), args[0], flags.over()); err != nil {
				return err
			}
			printBoard(cmd, ctrl.Snapshot())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func moveBucketCmd(load func() (config.Config, error)) *cobra.Command {
	var flags boardFlags

	cmd := &cobra.Command{
		Use:   "move-bucket <bucket-id>",
		Short: "Drag a bucket onto another bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctrl, err := flags.controller(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := ctrl.MoveBucket(cmd.Context(), args[0], flags.over()); err != nil {
				return err
			}
			printBoard(cmd, ctrl.Snapshot())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printBoard(cmd *cobra.Command, snap drag.Snapshot) {
	out := cmd.OutOrStdout()
	for _, b := range snap.Buckets {
		fmt.Fprintf(out, "[%d] %s (%s)\n", b.Position, b.Name, b.ID)
		for _, t := range b.Tasks {
			fmt.Fprintf(out, "    %d. %s (%s)\n", t.Position, t.Text, t.ID)
		}
	}
}
