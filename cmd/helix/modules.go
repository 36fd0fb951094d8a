package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/syssam/helix/dna"
	"github.com/syssam/helix/registry"
)

func newModulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Inspect the DNA module catalog",
	}
	cmd.AddCommand(newModulesListCmd(), newModulesShowCmd())
	return cmd
}

func newModulesListCmd() *cobra.Command {
	var (
		manifestDir string
		category    string
		framework   string
		keyword     string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available modules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := buildRegistry(manifestDir)
			if err != nil {
				return err
			}
			var preds []registry.Predicate
			if category != "" {
				preds = append(preds, registry.Category(category))
			}
			if framework != "" {
				preds = append(preds, registry.SupportsFramework(framework))
			}
			if keyword != "" {
				preds = append(preds, registry.Keyword(keyword))
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION\tCATEGORY\tFRAMEWORKS")
			for _, m := range reg.List(preds...) {
				md := m.Metadata()
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					md.ID, md.Version, md.Category, strings.Join(m.Frameworks(), ", "))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&manifestDir, "manifests", "", "directory of YAML module manifests to include")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&framework, "framework", "", "filter by supported framework")
	cmd.Flags().StringVar(&keyword, "keyword", "", "filter by keyword")
	return cmd
}

func newModulesShowCmd() *cobra.Command {
	var manifestDir string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one module in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistry(manifestDir)
			if err != nil {
				return err
			}
			m, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			md := m.Metadata()
			fmt.Fprintf(out, "%s (%s)\n", dna.DisplayName(md.ID), md)
			if md.Name != "" {
				fmt.Fprintln(out, "name:", md.Name)
			}
			fmt.Fprintln(out, "category:", md.Category)
			if len(md.Keywords) > 0 {
				fmt.Fprintln(out, "keywords:", strings.Join(md.Keywords, ", "))
			}
			for _, dep := range m.Dependencies() {
				line := "requires " + dep.ModuleID
				if dep.Optional {
					line = "suggests " + dep.ModuleID
				}
				if dep.Range != "" {
					line += " " + dep.Range
				}
				if dep.Reason != "" {
					line += " (" + dep.Reason + ")"
				}
				fmt.Fprintln(out, line)
			}
			for _, c := range m.Conflicts() {
				fmt.Fprintf(out, "conflicts with %s (%s)\n", c.ModuleID, c.Severity)
			}
			for _, fw := range m.Frameworks() {
				impl, _ := m.Implementation(fw)
				line := fmt.Sprintf("%s: %s", fw, m.Compatibility(fw))
				if impl.Limitations != "" {
					line += " - " + impl.Limitations
				}
				fmt.Fprintln(out, line)
				if len(impl.Dependencies) > 0 {
					fmt.Fprintln(out, "  packages:", strings.Join(impl.Dependencies, ", "))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&manifestDir, "manifests", "", "directory of YAML module manifests to include")
	return cmd
}
