package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/dataless"
	"github.com/arloliu/dataless/format"
	"github.com/arloliu/dataless/volume"
)

func (a *app) newSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary FILE",
		Short: "Print the size of a dump and of the tree it assembles to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := dataless.ProcessFileWithStats(args[0])
			if err != nil {
				return err
			}
			a.log.Debug("Processed dump",
				zap.String("path", args[0]),
				zap.Int("blockettes", res.Stats.Blockettes))

			return writeSummary(cmd.OutOrStdout(), res)
		},
	}
}

func writeSummary(w io.Writer, res *dataless.Result) error {
	src, stats := res.Source, res.Stats
	counts := res.Volume.Counts()

	version := "-"
	if res.Volume.Info != nil {
		if v, ok := res.Volume.Info.FieldValue(volume.VolumeVersionField, 0); ok {
			version = v
		}
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", src.Name)
	fmt.Fprintf(tw, "Size:\t%s (%s)\n", humanize.Bytes(uint64(src.Size)), src.Compression)
	fmt.Fprintf(tw, "Hash:\t%016x\n", src.Hash)
	fmt.Fprintf(tw, "Version:\t%s\n", version)
	fmt.Fprintf(tw, "Lines:\t%s (%s records, %s comments, %s skipped)\n",
		humanize.Comma(int64(stats.Lines)),
		humanize.Comma(int64(stats.Records)),
		humanize.Comma(int64(stats.Comments)),
		humanize.Comma(int64(stats.Skipped)))
	fmt.Fprintf(tw, "Blockettes:\t%s\n", humanize.Comma(int64(stats.Blockettes)))
	fmt.Fprintf(tw, "Stations:\t%d (%d epochs)\n", counts.Stations, counts.StationEpochs)
	fmt.Fprintf(tw, "Channels:\t%d (%d epochs, %d stages)\n", counts.Channels, counts.Epochs, counts.Stages)
	fmt.Fprintf(tw, "Comments:\t%d\n", counts.Comments)
	fmt.Fprintf(tw, "Abbreviations:\t%d\n", counts.Abbreviations)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(stats.PerNumber) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Type\tTitle\tCount")
	for _, n := range slices.Sorted(maps.Keys(stats.PerNumber)) {
		fmt.Fprintf(tw, "B%03d\t%s\t%d\n", n, format.BlocketteNumber(n), stats.PerNumber[n])
	}

	return tw.Flush()
}
