package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ripple/internal/dedup"
	"ripple/internal/pipeline"
	"ripple/internal/source"
	"ripple/internal/staging"
)

func newGetCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get URL [URL...]",
		Short: "Download items and file them into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}
			clients, err := cmdCtx.clientRegistry()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			items, err := resolveArgs(ctx, clients, args)
			if err != nil {
				return err
			}

			store, err := dedup.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			// Reclaim leftovers from crashed runs while the DB lock is held.
			staging.CleanStale(cfg.Paths.StagingDir, 24*time.Hour, logger)

			orch := pipeline.New(cfg, clients, store, logger)
			result, err := orch.Run(ctx, items)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderRunResult(result))
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d of %d items failed", len(result.Failed), result.Total())
			}
			return nil
		},
	}
	return cmd
}

// resolveArgs expands each argument into item descriptors using the client
// for its URL scheme.
func resolveArgs(ctx context.Context, clients *source.Registry, args []string) ([]source.ItemDescriptor, error) {
	var items []source.ItemDescriptor
	for _, arg := range args {
		parsed, err := url.Parse(strings.TrimSpace(arg))
		if err != nil || parsed.Scheme == "" {
			return nil, fmt.Errorf("not a fetchable URL: %q", arg)
		}
		client, ok := clients.Lookup(parsed.Scheme)
		if !ok {
			return nil, fmt.Errorf("no client for source %q (available: %s)",
				parsed.Scheme, strings.Join(clients.Sources(), ", "))
		}
		resolved, err := client.Resolve(ctx, arg)
		if err != nil {
			return nil, err
		}
		items = append(items, resolved...)
	}
	return items, nil
}

func renderRunResult(result *pipeline.RunResult) string {
	var b strings.Builder

	summaryRows := [][]string{{
		strconv.Itoa(len(result.Succeeded)),
		strconv.Itoa(len(result.Failed)),
		strconv.Itoa(len(result.SkippedDuplicates)),
		result.Elapsed.Round(time.Millisecond).String(),
	}}
	b.WriteString(renderTable(
		[]string{"Succeeded", "Failed", "Skipped", "Elapsed"},
		summaryRows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))

	if len(result.Failed) > 0 {
		rows := make([][]string, 0, len(result.Failed))
		for _, failure := range result.Failed {
			rows = append(rows, []string{failure.Source, failure.ID, failure.Reason})
		}
		b.WriteString("\n")
		b.WriteString(renderTable(
			[]string{"Source", "Item", "Reason"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft},
		))
	}
	return b.String()
}
