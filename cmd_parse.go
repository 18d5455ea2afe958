// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datawire/pypkg/pkg/cliutil"
	"github.com/datawire/pypkg/pkg/pep425"
	"github.com/datawire/pypkg/pkg/pep427"
	"github.com/datawire/pypkg/pkg/pep440"
	"github.com/datawire/pypkg/pkg/pep508"
)

func init() {
	cmd := &cobra.Command{
		Use:   "parse {version|specifier|requirement|marker|tag|wheel|sdist} STR",
		Short: "Parse a metadata string and print its canonical form",
		Long: "Parse a version, specifier set, requirement, marker, compressed tag, wheel " +
			"filename, or sdist filename, and print the canonical (normalized) " +
			"rendering.  Exits 2 when the input does not parse.",
		Example: "  pypkg parse version 1.0.0-ALPHA2",
		Args:    cliutil.WrapPositionalArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			kind, input := args[0], args[1]
			switch kind {
			case "version":
				ver, err := pep440.ParseVersion(input)
				if err != nil {
					parseFailure(cmd, err)
				}
				fmt.Fprintln(out, ver)
			case "specifier":
				set, err := pep440.ParseSpecifierSet(input)
				if err != nil {
					parseFailure(cmd, err)
				}
				fmt.Fprintln(out, set.String())
			case "requirement":
				req, err := pep508.ParseRequirement(input)
				if err != nil {
					parseFailure(cmd, err)
				}
				fmt.Fprintln(out, req)
			case "marker":
				marker, err := pep508.ParseMarker(input)
				if err != nil {
					parseFailure(cmd, err)
				}
				fmt.Fprintln(out, marker)
			case "tag":
				tags, err := pep425.ParseTag(input)
				if err != nil {
					parseFailure(cmd, err)
				}
				for _, tag := range tags {
					fmt.Fprintln(out, tag)
				}
			case "wheel":
				name, ver, build, tags, err := pep427.ParseWheelFilename(input)
				if err != nil {
					parseFailure(cmd, err)
				}
				fmt.Fprintln(out, pep427.WheelFilename(name, ver, build, tags))
			case "sdist":
				name, ver, err := pep427.ParseSdistFilename(input)
				if err != nil {
					parseFailure(cmd, err)
				}
				fmt.Fprintln(out, pep427.SdistFilename(name, ver))
			default:
				parseFailure(cmd, fmt.Errorf("unknown input kind: %q", kind))
			}
			return nil
		},
	}
	argparser.AddCommand(cmd)
}
