// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datawire/pypkg/pkg/cliutil"
	"github.com/datawire/pypkg/pkg/pep440"
)

func init() {
	cmd := &cobra.Command{
		Use:   "compare V1 OP V2",
		Short: "Compare two versions under the PEP 440 ordering",
		Long: "Compare two version identifiers.  Exits 0 when the comparison holds, " +
			"1 when it does not, and 2 when an argument does not parse.",
		Example: "  pypkg compare 1.0a5 '<' 1.0",
		Args:    cliutil.WrapPositionalArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			v1, err := pep440.ParseVersion(args[0])
			if err != nil {
				parseFailure(cmd, err)
			}
			v2, err := pep440.ParseVersion(args[2])
			if err != nil {
				parseFailure(cmd, err)
			}
			var holds bool
			switch args[1] {
			case "<":
				holds = v1.Cmp(*v2) < 0
			case "<=":
				holds = v1.Cmp(*v2) <= 0
			case ">":
				holds = v1.Cmp(*v2) > 0
			case ">=":
				holds = v1.Cmp(*v2) >= 0
			case "==":
				holds = v1.Cmp(*v2) == 0
			case "!=":
				holds = v1.Cmp(*v2) != 0
			default:
				parseFailure(cmd, fmt.Errorf("invalid comparison operator: %q", args[1]))
			}
			if !holds {
				exitMismatch()
			}
			return nil
		},
	}
	argparser.AddCommand(cmd)
}
