// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep503 implements the PEP 503 project-name normalization rule.
//
// https://peps.python.org/pep-0503/#normalized-names
package pep503

import (
	"fmt"
	"regexp"
	"strings"
)

// InvalidNameError is returned by NormalizeStrict for a string that is not a
// valid project name even before normalization.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid project name: %q", e.Name)
}

var (
	reSeparators = regexp.MustCompile(`[-_.]+`)

	// "the only valid characters in a name are the ASCII alphabet, ASCII
	// numbers, `.`, `-`, and `_`", and it must start and end with a letter
	// or number.
	reValidName = regexp.MustCompile(`(?i)^([a-z0-9]|[a-z0-9][a-z0-9._-]*[a-z0-9])$`)
)

// Normalize returns the canonical form of a project name: lowercased, with
// each run of `-`, `_`, and `.` collapsed to a single `-`.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(name string) string {
	return strings.ToLower(reSeparators.ReplaceAllLiteralString(name, "-"))
}

// NormalizeStrict is like Normalize, but first validates that the input is a
// well-formed project name; it returns an *InvalidNameError if not.
func NormalizeStrict(name string) (string, error) {
	if !reValidName.MatchString(name) {
		return "", fmt.Errorf("pep503.NormalizeStrict: %w", &InvalidNameError{Name: name})
	}
	return Normalize(name), nil
}
