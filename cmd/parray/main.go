// Command parray creates, inspects, and interactively drives a
// persistent fixed-record array backed by the int32 codec.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "parray",
		Short: "Inspect and drive a persistent fixed-record array",
	}
	root.AddCommand(
		newCreateCmd(),
		newGetCmd(),
		newSetCmd(),
		newFillCmd(),
		newDumpCmd(),
		newReplCmd(),
	)
	return root
}
