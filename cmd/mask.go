package cmd

import (
	"fmt"

	limage "lightplan/internal/image"
	"lightplan/internal/lighting"

	"github.com/spf13/cobra"
)

var (
	maskOut       string
	maskFootprint float64
	maskDilation  float64
)

var maskCmd = &cobra.Command{
	Use:   "mask <project|photo>",
	Short: "Write the inpainting mask around each fixture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := openInput(args[0])
		if err != nil {
			return err
		}

		opts := state.MaskOptions
		if cmd.Flags().Changed("footprint") {
			opts.Footprint = maskFootprint
		}
		if cmd.Flags().Changed("dilation") {
			opts.Dilation = maskDilation
		}

		mask, err := lighting.BuildMask(state.Photo.Image.Bounds(), state.Store.Fixtures(), opts)
		if err != nil {
			return err
		}
		data, err := limage.Encode(mask, limage.FormatPNG, 0)
		if err != nil {
			return fmt.Errorf("encode mask: %w", err)
		}
		return writeOutput(outputPath(maskOut, args[0], "mask", "png"), data)
	},
}

func init() {
	d := lighting.DefaultMaskOptions()
	maskCmd.Flags().StringVarP(&maskOut, "out", "o", "", "output path (default <input>_mask.png)")
	maskCmd.Flags().Float64Var(&maskFootprint, "footprint", d.Footprint, "fixture footprint as a fraction of image width")
	maskCmd.Flags().Float64Var(&maskDilation, "dilation", d.Dilation, "extra margin around each footprint, as a fraction of it")
	rootCmd.AddCommand(maskCmd)
}
