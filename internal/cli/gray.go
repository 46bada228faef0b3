package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/regkit/internal/engine"
)

var (
	grayOutDir string
	grayExt    string
	grayYes    bool
)

var grayCmd = &cobra.Command{
	Use:   "gray <images>...",
	Short: "Convert images to 8-bit grayscale",
	Long: `Convert images to 8-bit grayscale. Each input becomes <stem>_gray.TIF in the
output directory, which defaults to a "gray" directory next to the first image.

If the output directory already exists you are asked before writing into it.
Files that cannot be converted are reported and the rest are still converted.`,
	Example: `  regkit gray scans/*.png
  regkit gray --out-dir gray -y a.jpg b.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGray,
}

func init() {
	grayCmd.Flags().StringVar(&grayOutDir, "out-dir", "", "Output directory (default: <dir of first image>/gray)")
	grayCmd.Flags().StringVar(&grayExt, "ext", "", "Output file extension (default: imaging.extension from config)")
	grayCmd.Flags().BoolVarP(&grayYes, "yes", "y", false, "Write into an existing output directory without asking")
}

func runGray(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	s, err := newSession(cmd, cfg, grayYes)
	if err != nil {
		return err
	}
	defer s.close()

	ext := grayExt
	if ext == "" {
		ext = cfg.Imaging.Extension
	}

	result, err := s.engine.Grayscale(s.ctx, &engine.GrayscaleRequest{
		Images:    args,
		OutputDir: grayOutDir,
		Extension: ext,
	})
	if result == nil {
		return err
	}

	if jsonOutput {
		if jerr := outputJSON(cmd.OutOrStdout(), newGrayJSON(result)); jerr != nil {
			return jerr
		}
	} else {
		printGrayResult(newPrinter(cmd.OutOrStdout()), result)
	}

	if err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		total := len(result.Failed) + len(result.Converted)
		return fmt.Errorf("%d of %d images failed to convert", len(result.Failed), total)
	}
	return nil
}

func printGrayResult(p *printer, result *engine.GrayscaleResult) {
	p.Section("Grayscale")
	p.LabelValue("Output", result.OutputDir)

	if len(result.Converted) > 0 {
		rows := make([][]string, 0, len(result.Converted))
		for _, c := range result.Converted {
			rows = append(rows, []string{c.Source, c.Model, c.Output})
		}
		p.Info("")
		p.Table([]string{"SOURCE", "MODEL", "OUTPUT"}, rows)
	}
	if len(result.Skipped) > 0 {
		p.Info("")
		p.Subsection("Skipped earlier outputs")
		p.List(result.Skipped, 1)
	}
	p.Info("")
	for _, f := range result.Failed {
		p.Error(fmt.Sprintf("%s: %v", f.Source, f.Err))
	}
	if len(result.Converted) == 0 && len(result.Failed) == 0 {
		p.EmptyState("nothing to convert")
		return
	}
	p.Success(fmt.Sprintf("Converted %s", countNoun(len(result.Converted), "image", "images")))
}

type grayJSON struct {
	OutputDir string              `json:"outputDir"`
	Created   bool                `json:"created"`
	Converted []grayConvertedJSON `json:"converted"`
	Skipped   []string            `json:"skipped"`
	Failed    []grayFailedJSON    `json:"failed"`
}

type grayConvertedJSON struct {
	Source string `json:"source"`
	Output string `json:"output"`
	Model  string `json:"model"`
}

type grayFailedJSON struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

func newGrayJSON(result *engine.GrayscaleResult) grayJSON {
	out := grayJSON{
		OutputDir: result.OutputDir,
		Created:   result.Created,
		Converted: []grayConvertedJSON{},
		Skipped:   []string{},
		Failed:    []grayFailedJSON{},
	}
	for _, c := range result.Converted {
		out.Converted = append(out.Converted, grayConvertedJSON{Source: c.Source, Output: c.Output, Model: c.Model})
	}
	out.Skipped = append(out.Skipped, result.Skipped...)
	for _, f := range result.Failed {
		out.Failed = append(out.Failed, grayFailedJSON{Source: f.Source, Error: errorString(f.Err)})
	}
	return out
}
