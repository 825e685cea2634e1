package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ripple/internal/staging"
)

func newStagingCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect and clean the staging area",
	}
	cmd.AddCommand(newStagingListCommand(cmdCtx))
	cmd.AddCommand(newStagingCleanCommand(cmdCtx))
	return cmd
}

func newStagingListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files in the staging area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			files, err := staging.ListFiles(cfg.Paths.StagingDir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Staging area is empty.")
				return nil
			}
			rows := make([][]string, 0, len(files))
			for _, file := range files {
				state := "staged"
				if file.InProgress {
					state = "downloading"
				}
				rows = append(rows, []string{
					file.Name,
					strconv.FormatInt(file.Size, 10),
					state,
					file.ModTime.Local().Format(time.RFC3339),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "Bytes", "State", "Modified"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newStagingCleanCommand(cmdCtx *commandContext) *cobra.Command {
	var maxAge time.Duration
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale staging files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}
			result := staging.CleanStale(cfg.Paths.StagingDir, maxAge, logger)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale files.\n", len(result.Removed))
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d files could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Remove files older than this")
	return cmd
}
