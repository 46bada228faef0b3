package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/regkit/internal/engine"
)

var (
	diffCutoff float64
	diffOutDir string
	diffExt    string
)

var diffCmd = &cobra.Command{
	Use:   "diff <image1> <image2>",
	Short: "Write an autocontrasted difference of two images",
	Long: `Write the absolute difference of two aligned images as diff.TIF, with its
histogram stretched to the full gray range, next to grayscale copies of both
inputs (im1.TIF and im2.TIF).

Outputs go to the directory of the first image unless --out-dir is given.
Existing outputs are overwritten.`,
	Example: `  regkit diff out/left/000_b/result.0.tif b.tif
  regkit diff --cutoff 1 --out-dir check a.tif b.tif`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().Float64Var(&diffCutoff, "cutoff", 0, "Percentage of pixels ignored at each end of the histogram")
	diffCmd.Flags().StringVar(&diffOutDir, "out-dir", "", "Output directory (default: directory of the first image)")
	diffCmd.Flags().StringVar(&diffExt, "ext", "", "Output file extension (default: imaging.extension from config)")
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	s, err := newSession(cmd, cfg, true)
	if err != nil {
		return err
	}
	defer s.close()

	ext := diffExt
	if ext == "" {
		ext = cfg.Imaging.Extension
	}

	result, err := s.engine.Compare(s.ctx, &engine.CompareRequest{
		Image1:    args[0],
		Image2:    args[1],
		OutputDir: diffOutDir,
		Cutoff:    diffCutoff,
		Extension: ext,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), result)
	}

	p := newPrinter(cmd.OutOrStdout())
	p.Success("Wrote " + result.DiffPath)
	p.LabelValue("im1", result.Image1Path+" ("+result.Model1+")")
	p.LabelValue("im2", result.Image2Path+" ("+result.Model2+")")
	return nil
}
