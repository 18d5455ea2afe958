// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datawire/pypkg/pkg/cliutil"
	"github.com/datawire/pypkg/pkg/pep425"
)

func parseDottedVersion(str string) ([2]int, error) {
	var ret [2]int
	parts := strings.SplitN(str, ".", 2)
	if len(parts) != 2 {
		return ret, fmt.Errorf("expected MAJOR.MINOR, got %q", str)
	}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return ret, fmt.Errorf("expected MAJOR.MINOR, got %q", str)
		}
		ret[i] = n
	}
	return ret, nil
}

func init() {
	var (
		argImpl      string
		argInterp    string
		argPython    string
		argABIs      []string
		argPlatforms []string

		argGlibc string
		argMusl  string
		argMacOS string
		argArchs []string
	)
	cmd := &cobra.Command{
		Use:   "tags [flags]",
		Short: "Enumerate supported wheel tags, most specific first",
		Long: "Print the compatibility-tag sequence an installer on the described system " +
			"would accept, one tag per line, most-preferred first.  Platform tags may be " +
			"given directly with --platform, or derived with --glibc/--musl/--macos plus " +
			"--arch.",
		Example: "  pypkg tags --python 3.11 --abi cp311 --glibc 2.31 --arch x86_64",
		Args:    cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			pyVer, err := parseDottedVersion(argPython)
			if err != nil {
				parseFailure(cmd, err)
			}

			platforms := argPlatforms
			switch {
			case argGlibc != "":
				glibcVer, err := parseDottedVersion(argGlibc)
				if err != nil {
					parseFailure(cmd, err)
				}
				platforms = append(platforms, pep425.ManylinuxPlatforms(
					pep425.GlibcVersion{Major: glibcVer[0], Minor: glibcVer[1]}, argArchs, nil)...)
			case argMusl != "":
				muslVer, err := parseDottedVersion(argMusl)
				if err != nil {
					parseFailure(cmd, err)
				}
				platforms = append(platforms, pep425.MusllinuxPlatforms(
					pep425.MuslVersion{Major: muslVer[0], Minor: muslVer[1]}, argArchs)...)
			case argMacOS != "":
				macVer, err := parseDottedVersion(argMacOS)
				if err != nil {
					parseFailure(cmd, err)
				}
				for _, arch := range argArchs {
					platforms = append(platforms, pep425.MacPlatforms(
						pep425.MacOSVersion{Major: macVer[0], Minor: macVer[1]}, arch)...)
				}
			}
			if len(platforms) == 0 {
				parseFailure(cmd, fmt.Errorf("no platforms; use --platform, --glibc, --musl, or --macos"))
			}

			interp := argInterp
			if interp == "" {
				interp = fmt.Sprintf("%s%d%d", argImpl, pyVer[0], pyVer[1])
			}
			for _, tag := range pep425.SysTags(pep425.System{
				Implementation: argImpl,
				InterpreterTag: interp,
				PythonVersion:  pyVer,
				ABIs:           argABIs,
				Platforms:      platforms,
			}) {
				fmt.Fprintln(cmd.OutOrStdout(), tag)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&argImpl, "impl", "cp", "Interpreter implementation `code` (cp, pp, ...)")
	cmd.Flags().StringVar(&argInterp, "interp", "", "Full interpreter `tag` (defaults to impl+python, e.g. cp311)")
	cmd.Flags().StringVar(&argPython, "python", "3.11", "Python `MAJOR.MINOR` language version")
	cmd.Flags().StringArrayVar(&argABIs, "abi", nil, "Supported ABI `tag` (repeatable, most-preferred first)")
	cmd.Flags().StringArrayVar(&argPlatforms, "platform", nil, "Supported platform `tag` (repeatable, most-specific first)")
	cmd.Flags().StringVar(&argGlibc, "glibc", "", "Derive manylinux platform tags for glibc `MAJOR.MINOR`")
	cmd.Flags().StringVar(&argMusl, "musl", "", "Derive musllinux platform tags for musl `MAJOR.MINOR`")
	cmd.Flags().StringVar(&argMacOS, "macos", "", "Derive macOS platform tags for macOS `MAJOR.MINOR`")
	cmd.Flags().StringArrayVar(&argArchs, "arch", nil, "Architecture for --glibc/--musl/--macos (repeatable)")
	argparser.AddCommand(cmd)
}
