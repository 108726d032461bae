// Command hookscript mounts a JavaScript component on the hook runtime,
// drives its handlers and prints every committed output.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hookscript [command] (flags)",
		Short:         "run and inspect script components",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newRunCmd(), newListCmd())
	return rootCmd
}

func main() {
	log.SetFlags(0)
	cobra.EnableCommandSorting = false

	if err := newRootCmd().Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
