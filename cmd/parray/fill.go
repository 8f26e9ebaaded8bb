package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/colinmarc/parray/codec"
	"github.com/colinmarc/parray/parray"
)

type fillProgress struct {
	s     *spinner.Spinner
	n     int
	total int
}

func (p *fillProgress) Notify(e parray.Event) {
	if e.Kind != parray.RecordSerialized {
		return
	}
	p.n++
	p.s.Suffix = fmt.Sprintf(" %d/%d records", p.n, p.total)
}

func newFillCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "fill <path> <value>",
		Short: "Set every record in the array to the given value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			cfg, err := resolveConfig(args[0], configFile)
			if err != nil {
				return err
			}

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			progress := &fillProgress{s: s}
			cfg.Subscribers = append(cfg.Subscribers, progress)

			a, err := parray.Open[int32](codec.Int32{}, cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			progress.total = a.Length()

			s.Start()
			err = a.Fill(int32(v))
			s.Stop()
			if err != nil {
				return err
			}
			fmt.Printf("filled %d records with %d\n", progress.total, v)
			return nil
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a JWCC config file")
	return cmd
}
