// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gwatch launches a traced child process and reports every read
// or write access the program makes to a named global variable, using an
// x86-64 hardware watchpoint.
//
//	gwatch --var <symbol> --exec <path> [-- arg1 ... argN]
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gwatch/gwatch/internal/format"
	"github.com/gwatch/gwatch/internal/gwerr"
	"github.com/gwatch/gwatch/internal/supervisor"
)

const usageLine = "Usage: gwatch --var <symbol> --exec <path> [-- arg1 ... argN]"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses args, drives the supervisor, and returns the process exit
// code. It never calls os.Exit itself, so tests can call it directly.
func run(args []string) int {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	var varName, execPath string
	exitCode := 1

	root := &cobra.Command{
		Use:           "gwatch",
		Short:         "Watch accesses to a global variable via a hardware watchpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, cliArgs []string) error {
			if varName == "" || execPath == "" {
				fmt.Fprintln(os.Stderr, usageLine)
				return gwerr.New(gwerr.UsageError, "--var and --exec are both required")
			}

			var forwarded []string
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				forwarded = cliArgs[dash:]
			}

			cfg := supervisor.Config{
				BinaryPath: execPath,
				Symbol:     varName,
				Args:       forwarded,
			}
			sink := format.NewWriter(os.Stdout)

			code, err := supervisor.Run(cfg, sink, log)
			if err != nil {
				return err
			}
			exitCode = code
			return nil
		},
	}
	root.Flags().StringVar(&varName, "var", "", "name of the global symbol to watch")
	root.Flags().StringVar(&execPath, "exec", "", "path to the executable to launch and trace")
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		gerr, ok := err.(*gwerr.Error)
		if !ok {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return gwerr.ExitCode(gerr.Kind)
	}
	return exitCode
}
