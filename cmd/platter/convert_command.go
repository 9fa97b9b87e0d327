package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"platter/internal/api"
	"platter/internal/command"
	"platter/internal/profile"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir  string
		outputName string
		format     string
		audio      string
		subtitles  bool
		noWatch    bool
	)

	cmd := &cobra.Command{
		Use:   "convert <source>",
		Short: "Convert a DVD volume or video file",
		Long: "Submits a conversion job to the daemon. The source is either a mounted\n" +
			"disc volume (a directory containing VIDEO_TS) or a single video file.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "" && !profile.Supported(format) {
				return fmt.Errorf("unsupported format %q (supported: %v)", format, profile.Formats())
			}
			if audio != "" {
				if _, err := command.ParseAudioMode(audio); err != nil {
					return err
				}
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}

			req := api.ConvertRequest{
				SourcePath:  args[0],
				OutputDir:   outputDir,
				OutputName:  outputName,
				Format:      format,
				AudioTracks: audio,
			}
			if cmd.Flags().Changed("subtitles") {
				req.Subtitles = &subtitles
			}

			resp, err := client.Convert(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job %s admitted\n", resp.Job.JobID)
			if noWatch {
				return nil
			}
			return follow(cmd.Context(), out, client)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory (default from config)")
	cmd.Flags().StringVarP(&outputName, "name", "n", "", "Output file name (default derived from the disc title)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: mp4, 3gp, mkv, webm")
	cmd.Flags().StringVar(&audio, "audio", "", "Audio track mapping: all or first")
	cmd.Flags().BoolVar(&subtitles, "subtitles", false, "Map subtitle streams into the output")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Submit and exit without following progress")
	return cmd
}
