// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Command pypkg parses, compares, and evaluates Python packaging metadata:
// PEP 440 versions and specifiers, PEP 508 requirements and markers, and
// PEP 425 compatibility tags.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/datawire/pypkg/pkg/cliutil"
)

var argparser = &cobra.Command{
	Use:   "pypkg {[flags]|SUBCOMMAND...}",
	Short: "Work with Python packaging metadata",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,

	SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
	SilenceUsage:  true, // our FlagErrorFunc will handle it
}

func init() {
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetUsageTemplate(strings.ReplaceAll(argparser.UsageTemplate(),
		".FlagUsages", fmt.Sprintf(".FlagUsagesWrapped %d", cliutil.TerminalWidth())))
}

func main() {
	ctx := context.Background()
	if err := argparser.ExecuteContext(ctx); err != nil {
		dlog.Errorf(ctx, "%s: error: %v", argparser.CommandPath(), err)
		os.Exit(2)
	}
}

// exitMismatch is called by subcommands whose answer is "no"; main's
// error path is reserved for exit status 2 (bad input).
func exitMismatch() {
	os.Exit(1)
}

// parseFailure reports a metadata parse error and exits with the dedicated
// parse-error status.
func parseFailure(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", cmd.CommandPath(), err)
	os.Exit(2)
}
