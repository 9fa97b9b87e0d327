package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"platter/internal/catalog"
	"platter/internal/inspect"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <source>",
		Short: "Inspect a source without converting it",
		Long: "Catalogs the segments of a DVD volume or video file and probes its\n" +
			"streams locally. The daemon does not need to be running.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			segments, err := catalog.Scan(args[0])
			if err != nil {
				return fmt.Errorf("scan source: %w", err)
			}

			inspector := inspect.New(cfg.Engine.FFprobeBinary)
			info, err := inspector.Inspect(cmd.Context(), args[0], segments)
			if err != nil && !errors.Is(err, inspect.ErrInspectionFailed) {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:    %s\n", info.Title)
			fmt.Fprintf(out, "Segments: %d\n", info.SegmentCount)
			if err != nil {
				fmt.Fprintf(out, "Warning:  %v\n", err)
			}

			var rows [][]string
			for _, stream := range info.Video {
				rows = append(rows, []string{
					"video", fmt.Sprintf("%d", stream.Index), stream.Codec,
					fmt.Sprintf("%dx%d", stream.Width, stream.Height), "",
				})
			}
			for _, stream := range info.Audio {
				rows = append(rows, []string{
					"audio", fmt.Sprintf("%d", stream.Index), stream.Codec,
					stream.Language, stream.Title,
				})
			}
			for _, stream := range info.Subtitle {
				rows = append(rows, []string{
					"subtitle", fmt.Sprintf("%d", stream.Index), stream.Codec,
					stream.Language, stream.Title,
				})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]column{{title: "Kind"}, {title: "Index", right: true}, {title: "Codec"}, {title: "Detail"}, {title: "Title"}},
					rows,
				))
			}

			fmt.Fprintln(out, "\nSegments:")
			for _, segment := range segments {
				fmt.Fprintf(out, "  %3d  %s\n", segment.Ordinal+1, segment.Path)
			}
			return nil
		},
	}
}
