package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/colinmarc/parray/codec"
	"github.com/colinmarc/parray/parray"
)

func newGetCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "get <path> <index>",
		Short: "Print the value at an index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			cfg, err := resolveConfig(args[0], configFile)
			if err != nil {
				return err
			}
			a, err := parray.Open[int32](codec.Int32{}, cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			v, null, err := a.Get(i)
			if err != nil {
				return err
			}
			if null {
				fmt.Println("null")
				return nil
			}
			fmt.Println(v)
			return nil
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a JWCC config file")
	return cmd
}
