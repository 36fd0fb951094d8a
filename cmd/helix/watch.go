package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/helix/dna"
	"github.com/syssam/helix/modules"
	"github.com/syssam/helix/registry"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <manifest-dir>",
		Short: "Watch a manifest directory and reload modules on change",
		Long: `Watch keeps a registry loaded from a manifest directory and the builtin
catalog, replacing the module set whenever manifests change. Useful while
authoring manifests: errors show up on save instead of at generation time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			reg := registry.New()

			reload := func(mods []*dna.Module, err error) {
				if err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), "reload failed:", err)
					return
				}
				all := append(modules.Catalog(), mods...)
				if err := reg.Replace(all); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), "reload failed:", err)
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "loaded %d modules (%d from manifests)\n", reg.Len(), len(mods))
			}

			mods, err := dna.LoadDir(dir)
			reload(mods, err)

			w, err := dna.NewWatcher(dir, reload)
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
	return cmd
}
