package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/landsat-toa/internal/catalog"
)

const none = "-"

func Run(ctx context.Context, config *Config, w io.Writer, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := catalog.NewSqliteStore(config.DBPath)
	defer store.Close()

	if config.ConversionID != "" {
		return showConversion(ctx, store, config.ConversionID, w)
	}
	return listConversions(ctx, store, config, w, logger)
}

func listConversions(ctx context.Context, store catalog.Store, config *Config, w io.Writer, logger *slog.Logger) error {
	var opts []catalog.QueryOption
	var filters []any
	if config.SceneID != "" {
		opts = append(opts, catalog.WithSceneID(config.SceneID))
		filters = append(filters, slog.String("scene", config.SceneID))
	}
	if config.Status != "" {
		opts = append(opts, catalog.WithStatus(config.Status))
		filters = append(filters, slog.String("status", string(config.Status)))
	}
	if config.Limit > 0 {
		opts = append(opts, catalog.WithLimit(config.Limit))
		filters = append(filters, slog.Int("limit", config.Limit))
	}

	logger.Debug("query configuration", filters...)

	conversions, err := store.Conversions(ctx, opts...)
	if err != nil {
		return fmt.Errorf("listing conversions: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCENE\tSTATUS\tACQUIRED\tCLOUD\tSIZE\tMASKED\tELAPSED\tFINISHED")
	for _, c := range conversions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.SceneID,
			c.Status,
			formatDate(c.Acquired),
			formatPercent(c.CloudCover),
			formatBytes(c.OutputSize),
			formatCount(c.MaskedPixels),
			c.FinishedAt.Sub(c.StartedAt).Round(time.Millisecond),
			c.FinishedAt.Local().Format(time.DateTime),
		)
	}
	if err = tw.Flush(); err != nil {
		return err
	}

	logger.Debug("conversions listed", slog.Int("count", len(conversions)))
	return nil
}

func showConversion(ctx context.Context, store catalog.Store, id string, w io.Writer) error {
	c, err := store.Conversion(ctx, id)
	if err != nil {
		return err
	}

	stats, err := store.BandStats(ctx, id)
	if err != nil {
		return fmt.Errorf("reading band statistics: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"Conversion", c.ID},
		{"Archive", c.Archive},
		{"Scene", c.SceneID},
		{"Product", deref(c.ProductID)},
		{"Status", string(c.Status)},
		{"Acquired", formatDate(c.Acquired)},
		{"Cloud cover", formatPercent(c.CloudCover)},
		{"Sun elevation", formatFloat(c.SunElevation, "%0.2f°")},
		{"Output", deref(c.Output)},
		{"Size", formatBytes(c.OutputSize)},
		{"Masked pixels", formatCount(c.MaskedPixels)},
		{"Started", c.StartedAt.Local().Format(time.DateTime)},
		{"Finished", c.FinishedAt.Local().Format(time.DateTime)},
	}
	if c.Error != nil {
		rows = append(rows, [2]string{"Error", *c.Error})
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}

	if len(stats) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "BAND\tNAME\tVALID\tNODATA\tMIN\tMAX\tMEAN")
		for _, s := range stats {
			fmt.Fprintf(tw, "B%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				s.Index,
				s.Name,
				humanize.Comma(s.Valid),
				humanize.Comma(s.NoData),
				formatFloat(s.Min, "%0.4f"),
				formatFloat(s.Max, "%0.4f"),
				formatFloat(s.Mean, "%0.4f"),
			)
		}
	}

	return tw.Flush()
}

func deref(s *string) string {
	if s == nil {
		return none
	}
	return *s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return none
	}
	return t.Format(time.DateOnly)
}

func formatPercent(f *float64) string {
	return formatFloat(f, "%0.2f%%")
}

func formatFloat(f *float64, format string) string {
	if f == nil {
		return none
	}
	return fmt.Sprintf(format, *f)
}

func formatBytes(n *int64) string {
	if n == nil {
		return none
	}
	return humanize.Bytes(uint64(*n))
}

func formatCount(n *int64) string {
	if n == nil {
		return none
	}
	return humanize.Comma(*n)
}
