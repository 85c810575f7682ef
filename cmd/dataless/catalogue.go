package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arloliu/dataless/store"
)

func (a *app) newStationsCommand() *cobra.Command {
	var (
		epochs bool
		limit  uint64
	)

	cmd := &cobra.Command{
		Use:   "stations",
		Short: "List the stations held by the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			if epochs {
				rows, err := s.ChannelEpochs(cmd.Context(), store.ChannelFilter{
					Network: a.cfg.Scan.Network,
					Station: a.cfg.Scan.Station,
					Limit:   limit,
				})
				if err != nil {
					return err
				}

				return writeChannelEpochs(out, rows)
			}

			rows, err := s.Stations(cmd.Context(), store.StationFilter{
				Network: a.cfg.Scan.Network,
				Station: a.cfg.Scan.Station,
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			return writeStations(out, rows)
		},
	}
	addFlags(cmd.Flags(), a.opts, "db", "network", "station")
	cmd.Flags().BoolVar(&epochs, "epochs", false, "list channel epochs instead of stations")
	cmd.Flags().Uint64Var(&limit, "limit", 0, "maximum number of rows, 0 for all")

	return cmd
}

func (a *app) newVolumesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volumes",
		Short: "List the volumes loaded into the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			rows, err := s.Volumes(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tName\tSize\tCompression\tVersion\tLoaded")
			for _, r := range rows {
				version := "-"
				if r.SeedVersion.Valid {
					version = r.SeedVersion.String
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Name, humanize.Bytes(uint64(r.SourceSize)), r.Compression, version, r.LoadedAt)
			}

			return tw.Flush()
		},
	}
	addFlags(cmd.Flags(), a.opts, "db")

	return cmd
}

func (a *app) newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export VOLUME-ID",
		Short: "Print the archived source of a loaded volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVolumeID(args[0])
			if err != nil {
				return err
			}

			s, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			text, err := s.Source(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)

			return err
		},
	}
	addFlags(cmd.Flags(), a.opts, "db")

	return cmd
}

func (a *app) newDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete VOLUME-ID",
		Short: "Remove a volume and everything loaded from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVolumeID(args[0])
			if err != nil {
				return err
			}

			s, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted from %s\n", id, s.Path())

			return nil
		},
	}
	addFlags(cmd.Flags(), a.opts, "db")

	return cmd
}

func parseVolumeID(text string) (uuid.UUID, error) {
	id, err := uuid.Parse(text)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid volume id %q: %w", text, err)
	}

	return id, nil
}

func writeStations(w io.Writer, rows []store.StationRow) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Network\tStation\tVolume")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Network, r.Name, r.VolumeID)
	}

	return tw.Flush()
}

func writeChannelEpochs(w io.Writer, rows []store.ChannelEpochRow) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Network\tStation\tLocation\tChannel\tStart\tEnd\tRate\tStages\tDigest")
	for _, r := range rows {
		end := "open"
		if r.EndTime.Valid {
			end = r.EndTime.String
		}
		rate := "-"
		if r.SampleRate.Valid {
			rate = humanize.Ftoa(r.SampleRate.Float64)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.Network, r.Station, r.Location, r.Channel, r.StartTime, end, rate, r.StageCount, r.Digest)
	}

	return tw.Flush()
}
