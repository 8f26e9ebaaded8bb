package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/colinmarc/parray/codec"
	"github.com/colinmarc/parray/parray"
)

type repl struct {
	a     *parray.Array[int32]
	liner *liner.State
}

func newReplCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "repl <path>",
		Short: "Interactively get, set, and flush an array",
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
			r := &repl{a: a}
			return r.run()
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a JWCC config file")
	return cmd
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".parray_history")
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()
	r.liner.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("parray - interactive shell (length=%d, record_size=%d)\n", r.a.Length(), r.a.RecordSize())
	fmt.Println("Type 'help' for available commands.")

	for {
		line, err := r.liner.Prompt("parray> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nbye")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd, rest := strings.ToLower(parts[0]), parts[1:]
		switch cmd {
		case "exit", "quit", "q":
			r.saveHistory()
			return nil
		case "help", "?":
			r.help()
		case "get":
			r.cmdGet(rest)
		case "set":
			r.cmdSet(rest)
		case "len":
			fmt.Println(r.a.Length())
		case "flush":
			if err := r.a.Flush(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		default:
			fmt.Printf("unknown command %q, type 'help'\n", cmd)
		}
	}
	r.saveHistory()
	return nil
}

func (r *repl) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	r.liner.WriteHistory(f)
}

func (r *repl) help() {
	fmt.Println(`commands:
  get <index>          print the value at index, or "null"
  set <index> <value>  set the value at index ("null" to clear it)
  len                   print the array's length
  flush                 write all queued dirty records to disk
  exit, quit, q         leave the shell`)
}

func (r *repl) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: get <index>")
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	v, null, err := r.a.Get(i)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if null {
		fmt.Println("null")
		return
	}
	fmt.Println(v)
}

func (r *repl) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: set <index> <value|null>")
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if args[1] == "null" {
		if err := r.a.SetNull(i); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		return
	}
	v, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if err := r.a.Set(i, int32(v)); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
