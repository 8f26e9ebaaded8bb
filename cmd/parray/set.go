package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/colinmarc/parray/codec"
	"github.com/colinmarc/parray/parray"
)

func newSetCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "set <path> <index> <value>",
		Short: "Set the value at an index, or \"null\"",
		Args:  cobra.ExactArgs(3),
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
			if args[2] == "null" {
				return a.SetNull(i)
			}
			v, err := strconv.ParseInt(args[2], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[2], err)
			}
			return a.Set(i, int32(v))
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a JWCC config file")
	return cmd
}
