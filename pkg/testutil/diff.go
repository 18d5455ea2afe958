// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

// Dump renders a value for inclusion in test output.
func Dump(val interface{}) string {
	return spewConfig.Sdump(val)
}

// AssertEqualLines compares two multi-line strings and, on mismatch, fails
// the test with a unified diff instead of dumping both strings whole.
func AssertEqualLines(t *testing.T, exp, act string) bool {
	t.Helper()
	if exp == act {
		return true
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(exp),
		B:        difflib.SplitLines(act),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  3,
	})
	t.Errorf("mismatch:\n%s", diff)
	return false
}

// AssertEqualList is AssertEqualLines over string slices, one element per
// line.
func AssertEqualList(t *testing.T, exp, act []string) bool {
	t.Helper()
	return AssertEqualLines(t,
		strings.Join(exp, "\n")+"\n",
		strings.Join(act, "\n")+"\n")
}
