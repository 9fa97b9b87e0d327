package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"platter/internal/profile"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "formats",
		Short:       "List supported output formats and their encoding profiles",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(profile.Formats()))
			for _, format := range profile.Formats() {
				p, err := profile.Lookup(format)
				if err != nil {
					return err
				}
				rate := p.MaxRate
				if rate == "" {
					rate = p.BitRate
				}
				subs := p.SubtitleCodec
				if subs == "" {
					subs = "-"
				}
				rows = append(rows, []string{
					p.Format,
					p.VideoCodec,
					fmt.Sprintf("%d", p.CRF),
					rate,
					p.Scale,
					fmt.Sprintf("%s %s", p.AudioCodec, p.AudioBitrate),
					subs,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{
					{title: "Format"},
					{title: "Video"},
					{title: "CRF", right: true},
					{title: "Rate", right: true},
					{title: "Scale"},
					{title: "Audio"},
					{title: "Subtitles"},
				},
				rows,
			))
			return nil
		},
	}
}
