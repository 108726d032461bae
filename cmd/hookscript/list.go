package main

import (
	"context"
	"fmt"

	"github.com/goliatone/go-hooks/pkg/state"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newListCmd() *cobra.Command {
	var (
		stateDir string
		show     bool
	)
	cmd := &cobra.Command{
		Use:   "list <component>",
		Short: "list persisted snapshots of a component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := state.NewYAMLStore(stateDir)
			refs, err := store.List(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ref := range refs {
				snap, meta, ok, err := store.Load(context.Background(), ref)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				fmt.Fprintf(out, "%s\tpass=%d\tslots=%d\tetag=%s\n", ref.Key, snap.Pass, len(snap.Slots), meta.ETag)
				if show {
					raw, err := yaml.Marshal(snap.Values())
					if err != nil {
						return err
					}
					fmt.Fprint(out, string(raw))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stateDir, "state-dir", ".hookscript", "directory holding persisted snapshots")
	cmd.Flags().BoolVar(&show, "show", false, "print state slot values")
	return cmd
}
