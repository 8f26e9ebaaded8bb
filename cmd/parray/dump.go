package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/colinmarc/parray/codec"
	"github.com/colinmarc/parray/parray"
)

func newDumpCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "dump <path>",
		Short: "Print every record in the array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(args[0], configFile)
			if err != nil {
				return err
			}
			a, err := parray.Open[int32](codec.Int32{}, cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			for i := 0; i < a.Length(); i++ {
				v, null, err := a.Get(i)
				if err != nil {
					return err
				}
				if null {
					fmt.Printf("%d: null\n", i)
					continue
				}
				fmt.Printf("%d: %d\n", i, v)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a JWCC config file")
	return cmd
}
