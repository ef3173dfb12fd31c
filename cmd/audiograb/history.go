package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwygoda/audiograb/internal/domain"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded downloads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return printHistory(ctx, a.svc, cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	return cmd
}

type historySource interface {
	History(ctx context.Context, limit int) ([]domain.DownloadRecord, error)
}

func printHistory(ctx context.Context, src historySource, w io.Writer, limit int) error {
	records, err := src.History(ctx, limit)
	if errors.Is(err, domain.ErrNotSupported) {
		return fmt.Errorf("no download history: configure a recorder backend (sqlite or firestore)")
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No downloads recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOWNLOADED\tVIDEO\tTITLE\tFILE\tURL")
	for _, rec := range records {
		url := "-"
		if rec.PublicURL != nil {
			url = *rec.PublicURL
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.DownloadedAt.Local().Format(time.DateTime),
			rec.SourceID, rec.Title, rec.LocalFilePath, url)
	}
	return tw.Flush()
}
