package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arloliu/dataless/scan"
)

func (a *app) newScanCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "scan DIR",
		Short: "Load every dump of a directory into the catalogue",
		Long: `Scan processes every file of DIR whose name matches --pattern
(DATALESS.<network>_<station> by default, with any suffix such as .gz).
A file that fails to parse or assemble is reported and skipped; the
command exits non-zero when any file failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var loader scan.Loader
			if !dryRun {
				s, err := a.openStore(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				loader = s
			}

			scanner, err := scan.New(loader, a.log, a.cfg.Scan)
			if err != nil {
				return err
			}

			report, scanErr := scanner.Scan(cmd.Context(), args[0])
			if len(report.Files) > 0 {
				if err := writeReport(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			}

			return scanErr
		},
	}
	addFlags(cmd.Flags(), a.opts, "db", "archive", "workers", "pattern", "network", "station")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and assemble without loading")

	return cmd
}

func writeReport(w io.Writer, report scan.Report) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "File\tSize\tStations\tEpochs\tStatus\tElapsed")
	for _, f := range report.Files {
		status := "loaded"
		switch {
		case f.Err != nil:
			status = "failed"
		case f.DuplicateOf != "":
			status = "same as " + f.DuplicateOf
		case f.Duplicate:
			status = "duplicate"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			filepath.Base(f.Path),
			humanize.Bytes(uint64(f.Size)),
			f.Stations,
			f.Epochs,
			status,
			f.Elapsed.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d loaded, %d duplicate, %d failed, %s read in %s\n",
		report.Loaded, report.Duplicates, report.Failed,
		humanize.Bytes(uint64(report.Bytes)),
		report.Elapsed.Round(time.Millisecond))

	return err
}
