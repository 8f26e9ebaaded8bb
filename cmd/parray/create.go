package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/colinmarc/parray/codec"
	"github.com/colinmarc/parray/parray"
)

func newCreateCmd() *cobra.Command {
	var configFile string
	var length int

	cmd := &cobra.Command{
		Use:   "create <path>",
		Short: "Create a new int32 array file with the given length",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(args[0], configFile)
			if err != nil {
				return err
			}
			a, err := parray.Create[int32](length, codec.Int32{}, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Printf("created %s with %d records\n", args[0], length)
			return nil
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a JWCC config file")
	cmd.Flags().IntVar(&length, "length", 0, "number of records")
	return cmd
}
