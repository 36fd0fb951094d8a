package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/syssam/helix"
	"github.com/syssam/helix/cache"
	"github.com/syssam/helix/dna"
	"github.com/syssam/helix/modules"
	"github.com/syssam/helix/pipeline"
	"github.com/syssam/helix/registry"
	"github.com/syssam/helix/resolve"
)

func newGenerateCmd() *cobra.Command {
	var (
		output         string
		framework      string
		templateType   string
		moduleIDs      []string
		variables      map[string]string
		manifestDir    string
		packageManager string
		timeout        time.Duration
		workers        int
		interactive    bool
		dryRun         bool
		overwrite      bool
		noCache        bool
		progressive    bool
	)

	cmd := &cobra.Command{
		Use:   "generate <name>",
		Short: "Generate a project from DNA modules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistry(manifestDir)
			if err != nil {
				return err
			}

			opts := []pipeline.Option{
				pipeline.WithTimeout(timeout),
				pipeline.WithWorkers(workers),
				pipeline.WithProgressiveValidation(progressive),
			}
			if !noCache {
				opts = append(opts, pipeline.WithCache(cache.NewLRU(64)))
			}
			if interactive {
				opts = append(opts, pipeline.WithChooser(huhChooser))
			}
			p, err := pipeline.New(reg, opts...)
			if err != nil {
				return err
			}

			name := args[0]
			if output == "" {
				output = name
			}
			result, err := p.Generate(cmd.Context(), &helix.GenerationRequest{
				Name:         name,
				OutputPath:   output,
				TemplateType: templateType,
				Framework:    framework,
				Modules:      moduleIDs,
				Variables:    variables,
				Options: helix.GenerationOptions{
					PackageManager: packageManager,
					DryRun:         dryRun,
					Overwrite:      overwrite,
				},
			})
			printResult(cmd, result)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (defaults to the project name)")
	cmd.Flags().StringVarP(&framework, "framework", "f", dna.FrameworkNextJS, "target framework")
	cmd.Flags().StringVarP(&templateType, "template", "t", dna.TemplateWebApp, "template type")
	cmd.Flags().StringSliceVarP(&moduleIDs, "modules", "m", nil, "DNA module ids to compose")
	cmd.Flags().StringToStringVar(&variables, "var", nil, "template variables as key=value")
	cmd.Flags().StringVar(&manifestDir, "manifests", "", "directory of YAML module manifests to load in addition to the builtins")
	cmd.Flags().StringVar(&packageManager, "package-manager", "", "package manager recorded in the project")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "wall-clock budget for the whole run")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent module generators")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "resolve module conflicts with a prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve and generate without writing files")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite existing files in the output directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable generation caching")
	cmd.Flags().BoolVar(&progressive, "progressive", false, "validate files as they are generated")
	return cmd
}

// buildRegistry loads the builtin catalog, plus manifests when a
// directory is given.
func buildRegistry(manifestDir string) (*registry.Registry, error) {
	reg := registry.New()
	if err := modules.RegisterBuiltins(reg); err != nil {
		return nil, err
	}
	if manifestDir != "" {
		loaded, err := dna.LoadDir(manifestDir)
		if err != nil {
			return nil, err
		}
		if err := reg.RegisterAll(loaded...); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// huhChooser resolves a conflict group with an interactive select.
func huhChooser(_ context.Context, group []resolve.Candidate) (string, error) {
	options := make([]huh.Option[string], len(group))
	for i, c := range group {
		label := fmt.Sprintf("%s (%s)", dna.DisplayName(c.ID), c.ID)
		if c.Reason != "" {
			label += " - " + c.Reason
		}
		options[i] = huh.NewOption(label, c.ID)
	}
	var picked string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("These modules conflict. Which one should the project keep?").
			Options(options...).
			Value(&picked),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return picked, nil
}

func printResult(cmd *cobra.Command, result *helix.GenerationResult) {
	if result == nil {
		return
	}
	out := cmd.OutOrStdout()
	if result.Success {
		fmt.Fprintf(out, "generated %d files in %s\n", len(result.GeneratedFiles), result.OutputPath)
	} else {
		for _, e := range result.Errors {
			fmt.Fprintln(out, "error:", e)
		}
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(out, "warning:", w)
	}
	for _, s := range result.Suggestions {
		fmt.Fprintln(out, "hint:", s)
	}
	if result.Metrics != nil {
		fmt.Fprintf(out, "took %s (%d cache hits, %d retries)\n",
			result.Metrics.TotalDuration.Round(time.Millisecond),
			result.Metrics.CacheHits, result.Metrics.Retries)
	}
}
