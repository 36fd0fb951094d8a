package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/helix/dna"
	"github.com/syssam/helix/validate"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate manifests, the environment, or a generated project",
	}
	cmd.AddCommand(newValidateManifestsCmd(), newValidateEnvCmd(), newValidateProjectCmd())
	return cmd
}

func newValidateManifestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manifests <dir>",
		Short: "Validate a directory of YAML module manifests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mods, err := dna.LoadDir(args[0])
			if err != nil {
				return err
			}
			engine := validate.New()
			failed := false
			for _, m := range mods {
				res := engine.Template(m)
				printValidation(cmd, m.ID(), res)
				if !res.Valid {
					failed = true
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d manifests checked\n", len(mods))
			if failed {
				return fmt.Errorf("manifest validation failed")
			}
			return nil
		},
	}
}

func newValidateEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Check the local environment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := validate.New().Environment()
			printValidation(cmd, "environment", res)
			if !res.Valid {
				return fmt.Errorf("environment validation failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "environment ok")
			return nil
		},
	}
}

func newValidateProjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "project <dir>",
		Short: "Validate a generated project directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := validate.New().GeneratedProject(args[0])
			printValidation(cmd, args[0], res)
			if !res.Valid {
				return fmt.Errorf("project validation failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "project ok")
			return nil
		},
	}
}

func printValidation(cmd *cobra.Command, subject string, res *validate.Result) {
	out := cmd.OutOrStdout()
	for _, e := range res.Errors {
		fmt.Fprintf(out, "%s: error: %s\n", subject, e)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "%s: warning: %s\n", subject, w)
	}
	for _, s := range res.Suggestions {
		fmt.Fprintf(out, "%s: hint: %s\n", subject, s)
	}
}
