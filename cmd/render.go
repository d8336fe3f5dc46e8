package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lightplan/internal/app"
	limage "lightplan/internal/image"

	"github.com/spf13/cobra"
)

var (
	renderOut   string
	renderAll   bool
	renderWatch time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render <project|photo>",
	Short: "Render the night-time composite",
	Long: `Render the realistic lighting preview. With --all the guide image and the
inpaint mask are rendered alongside it. With --watch the input files are
polled and the outputs re-rendered on every change.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output path (default <input>_composite.<ext>)")
	renderCmd.Flags().BoolVar(&renderAll, "all", false, "also write the guide image and the mask")
	renderCmd.Flags().DurationVar(&renderWatch, "watch", 0, "poll interval for re-rendering on change (0 disables)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := args[0]
	if err := renderOnce(ctx, input); err != nil {
		return err
	}
	if renderWatch <= 0 {
		return nil
	}

	paths := []string{input}
	if layoutPath != "" {
		paths = append(paths, layoutPath)
	}
	w := app.NewFileWatcher(renderWatch, paths...)
	w.OnChange(func(path string) {
		log.Info().Str("path", path).Msg("input changed, re-rendering")
		if err := renderOnce(ctx, input); err != nil {
			log.Error().Err(err).Msg("render failed")
		}
	})
	log.Info().Strs("paths", w.Paths()).Dur("interval", renderWatch).Msg("watching for changes")
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func renderOnce(ctx context.Context, input string) error {
	state, err := openInput(input)
	if err != nil {
		return err
	}

	if !renderAll {
		res, err := state.Compositor.Render(ctx, state.Photo.Image, state.Store.Fixtures())
		if err != nil {
			return err
		}
		return writeOutput(outputPath(renderOut, input, "composite", res.Format.String()), res.Bytes)
	}

	out, err := state.RenderAll(ctx)
	if err != nil {
		return err
	}
	if err := writeOutput(outputPath(renderOut, input, "composite", out.Composite.Format.String()), out.Composite.Bytes); err != nil {
		return err
	}
	if err := writeOutput(outputPath("", input, "guide", out.Guide.Format.String()), out.Guide.Bytes); err != nil {
		return err
	}
	mask, err := limage.Encode(out.Mask, limage.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode mask: %w", err)
	}
	return writeOutput(outputPath("", input, "mask", "png"), mask)
}
