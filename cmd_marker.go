// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/datawire/pypkg/pkg/cliutil"
	"github.com/datawire/pypkg/pkg/pep508"
)

func init() {
	var (
		argEnvFile string
		argContext string
		argSet     []string
		argExtras  []string
		argGroups  []string
	)
	cmd := &cobra.Command{
		Use:   "marker [flags] EXPR",
		Short: "Evaluate a PEP 508 environment marker",
		Long: "Evaluate an environment marker against an environment.  Exits 0 when the " +
			"marker holds, 1 when it does not, and 2 when the marker does not parse or " +
			"references an undefined variable.",
		Example: `  pypkg marker --set python_version=3.8 "python_version > '2'"`,
		Args:    cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			marker, err := pep508.ParseMarker(args[0])
			if err != nil {
				parseFailure(cmd, err)
			}

			env := pep508.Environment{
				Variables:        make(map[string]string),
				Extras:           argExtras,
				DependencyGroups: argGroups,
			}
			if argEnvFile != "" {
				content, err := os.ReadFile(argEnvFile)
				if err != nil {
					return err
				}
				if err := yaml.UnmarshalStrict(content, &env.Variables); err != nil {
					return fmt.Errorf("%s: %w", argEnvFile, err)
				}
			}
			for _, kv := range argSet {
				key, val, ok := cut(kv, "=")
				if !ok {
					parseFailure(cmd, fmt.Errorf("invalid --set argument (want KEY=VALUE): %q", kv))
				}
				env.Variables[key] = val
			}

			var ctx pep508.EvalContext
			switch argContext {
			case "metadata":
				ctx = pep508.ContextMetadata
			case "lock_file":
				ctx = pep508.ContextLockFile
			case "requirement":
				ctx = pep508.ContextRequirement
			default:
				parseFailure(cmd, fmt.Errorf("invalid --context (want metadata, lock_file, or requirement): %q", argContext))
			}

			ok, err := marker.Evaluate(env, ctx)
			if err != nil {
				parseFailure(cmd, err)
			}
			if !ok {
				exitMismatch()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&argEnvFile, "env", "", "Read marker variables from `YAML_FILE` (a flat string map)")
	cmd.Flags().StringVar(&argContext, "context", "requirement", "Evaluation `context`: metadata, lock_file, or requirement")
	cmd.Flags().StringArrayVar(&argSet, "set", nil, "Set a marker variable, as `KEY=VALUE`; overrides --env")
	cmd.Flags().StringArrayVar(&argExtras, "extra", nil, "Add a `name` to the list-valued \"extras\" variable")
	cmd.Flags().StringArrayVar(&argGroups, "group", nil, "Add a `name` to the list-valued \"dependency_groups\" variable")
	argparser.AddCommand(cmd)
}

// cut is strings.Cut, which this module's Go baseline predates.
func cut(s, sep string) (before, after string, found bool) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
