package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/arloliu/dataless"
	"github.com/arloliu/dataless/blockette"
	"github.com/arloliu/dataless/epoch"
	"github.com/arloliu/dataless/volume"
)

func (a *app) newTreeCommand() *cobra.Command {
	var (
		only   string
		stages bool
	)

	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the station, channel and epoch tree of a dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, err := dataless.ProcessFile(args[0])
			if err != nil {
				return err
			}

			return writeTree(cmd.OutOrStdout(), vol, only, stages)
		},
	}
	cmd.Flags().StringVar(&only, "station", "", "only the station with this NN_SSSS key")
	cmd.Flags().BoolVar(&stages, "stages", false, "list the response stages of every epoch")

	return cmd
}

func writeTree(w io.Writer, vol *volume.Volume, only string, stages bool) error {
	if only != "" {
		if _, ok := vol.Stations[only]; !ok {
			return fmt.Errorf("station %s not in volume", only)
		}
	}

	root := treeprint.New()
	for _, key := range vol.StationKeys() {
		if only != "" && key != only {
			continue
		}
		st := vol.Stations[key]
		sb := root.AddBranch(key)

		if len(st.Epochs) > 0 {
			eb := sb.AddBranch("epochs")
			for _, k := range st.EpochKeys() {
				eb.AddNode(span(k, st.Epochs[k], volume.StationEndField))
			}
		}
		if len(st.Comments) > 0 {
			sb.AddNode(fmt.Sprintf("comments: %d", len(st.Comments)))
		}

		for _, ck := range st.ChannelKeys() {
			ch := st.Channels[ck]
			cb := sb.AddBranch(ck)
			for _, ek := range ch.EpochKeys() {
				e := ch.Epochs[ek]
				label := span(ek, e.Info, volume.ChannelEndField)
				if !stages || len(e.Stages) == 0 {
					cb.AddNode(label)
					continue
				}
				stb := cb.AddBranch(label)
				for _, seq := range e.StageKeys() {
					stb.AddNode(fmt.Sprintf("stage %d: %s", seq, stageNumbers(e.Stages[seq])))
				}
			}
		}
	}

	_, err := io.WriteString(w, root.String())

	return err
}

// span renders an epoch as "start - end", with "open" for a missing end.
func span(start epoch.Key, b *blockette.Blockette, endField int) string {
	end := "open"
	if v, ok := b.FieldValue(endField, 0); ok && !epoch.IsOpen(v) {
		if t, err := epoch.Parse(v); err == nil {
			end = t.String()
		}
	}

	return string(start) + " - " + end
}

func stageNumbers(stage *volume.StageData) string {
	names := make([]string, 0, len(stage.Blockettes))
	for _, n := range slices.Sorted(maps.Keys(stage.Blockettes)) {
		names = append(names, fmt.Sprintf("B%03d", n))
	}

	return strings.Join(names, " ")
}
