package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/dataless"
	"github.com/arloliu/dataless/errs"
)

func (a *app) newLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Load a dump into the catalogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := dataless.ProcessFileWithStats(args[0])
			if err != nil {
				return err
			}

			s, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			lr, err := s.Load(cmd.Context(), res.Volume, res.Source)
			if errors.Is(err, errs.ErrAlreadyLoaded) {
				fmt.Fprintf(out, "%s already loaded as %s\n", res.Source.Name, lr.VolumeID)
				return nil
			} else if err != nil {
				return err
			}

			a.log.Info("Loaded dump",
				zap.String("path", args[0]),
				zap.Stringer("volume", lr.VolumeID),
				zap.String("db", a.cfg.DB))

			fmt.Fprintf(out, "%s loaded as %s: %d stations, %d channels, %d epochs, %d stages, %d comments (archive %.1f%% smaller)\n",
				res.Source.Name, lr.VolumeID,
				lr.Stations, lr.Channels, lr.ChannelEpochs, lr.Stages, lr.Comments,
				lr.Archive.SpaceSavings())

			return nil
		},
	}
	addFlags(cmd.Flags(), a.opts, "db", "archive")

	return cmd
}
