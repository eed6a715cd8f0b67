package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/aiqa/internal/config"
	"github.com/ziadkadry99/aiqa/internal/progress"
	"github.com/ziadkadry99/aiqa/internal/render"
	"github.com/ziadkadry99/aiqa/internal/theme"
	"github.com/ziadkadry99/aiqa/internal/walker"
)

var (
	renderOut     string
	renderOutDir  string
	renderDark    bool
	renderExclude []string
)

var renderCmd = &cobra.Command{
	Use:   "render <file.md|dir|glob>...",
	Short: "Render Markdown files to PNG the way the bot would",
	Long: `Render one or more Markdown files to PNG with the same page template and
browser the bot uses. Arguments may be files, directories (searched
recursively) or glob patterns such as "docs/**/*.md".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := walker.Expand(args, renderExclude)
		if err != nil {
			return err
		}
		if renderOut != "" && len(files) > 1 {
			return fmt.Errorf("--output needs exactly one input, got %d; use --out-dir", len(files))
		}

		// Only rendering options matter here, so an unconfigured bot is fine.
		cfg, err := config.Load(configPath())
		if err != nil {
			cfg = config.DefaultConfig()
		}

		if renderOutDir != "" {
			if err := os.MkdirAll(renderOutDir, 0o755); err != nil {
				return fmt.Errorf("creating output dir: %w", err)
			}
		}

		workDir, err := os.MkdirTemp("", "aiqa-render-")
		if err != nil {
			return fmt.Errorf("creating work dir: %w", err)
		}
		defer os.RemoveAll(workDir)

		session, err := newSession(cfg)
		if err != nil {
			return err
		}
		defer session.Close()

		th := theme.Light
		if renderDark {
			th = theme.Dark
		}
		pipeline := render.NewPipeline(newAssembler(cfg), fixedTheme(th), session, workDir)

		var reporter progress.Reporter
		if len(files) > 1 {
			reporter = progress.NewReporter("Rendering")
			reporter.Start(len(files))
		}

		var failed int
		for i, src := range files {
			out := outputPath(src, renderOut, renderOutDir)
			if err := renderFile(cmd, pipeline, src, out); err != nil {
				if len(files) == 1 {
					return err
				}
				failed++
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			if reporter != nil {
				reporter.Update(i+1, filepath.Base(src))
			} else {
				fmt.Fprintf(os.Stderr, "Rendered %s (%s theme)\n", out, th)
			}
		}
		if reporter != nil {
			reporter.Finish()
			fmt.Fprintf(os.Stderr, "Rendered %d/%d files (%s theme)\n", len(files)-failed, len(files), th)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed to render", failed, len(files))
		}
		return nil
	},
}

func renderFile(cmd *cobra.Command, pipeline *render.Pipeline, src, out string) error {
	md, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	png, err := pipeline.Render(cmd.Context(), string(md))
	if err != nil {
		return fmt.Errorf("rendering %s: %w", src, err)
	}
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

// outputPath picks where the PNG for src goes. An explicit output wins,
// then outDir, then a .png next to the source.
func outputPath(src, output, outDir string) string {
	if output != "" {
		return output
	}
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".png"
	if outDir != "" {
		return filepath.Join(outDir, name)
	}
	return filepath.Join(filepath.Dir(src), name)
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "output PNG path for a single input (default <file>.png)")
	renderCmd.Flags().StringVar(&renderOutDir, "out-dir", "", "directory for rendered PNGs (default next to each input)")
	renderCmd.Flags().BoolVar(&renderDark, "dark", false, "use the dark theme")
	renderCmd.Flags().StringSliceVar(&renderExclude, "exclude", nil, "glob patterns to skip when expanding directories and globs")
	rootCmd.AddCommand(renderCmd)
}
