// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep503_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datawire/pypkg/pkg/pep503"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Input  string
		Output string
	}{
		"lowercase":      {"Django", "django"},
		"underscore":     {"my_package", "my-package"},
		"dots":           {"zope.interface", "zope-interface"},
		"run":            {"foo.-_bar", "foo-bar"},
		"mixed":          {"Friendly-Bard", "friendly-bard"},
		"already-normal": {"requests", "requests"},
		"digits":         {"mod2wsgi", "mod2wsgi"},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			act := pep503.Normalize(tc.Input)
			assert.Equal(t, tc.Output, act)
			// normalization is idempotent
			assert.Equal(t, act, pep503.Normalize(act))
		})
	}
}

func TestNormalizeStrict(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Input  string
		Output string // empty for validation error
	}{
		"ok":               {"A.B_C-D9", "a-b-c-d9"},
		"single-char":      {"x", "x"},
		"leading-dot":      {".leading", ""},
		"trailing-dash":    {"trailing-", ""},
		"interior-space":   {"has space", ""},
		"empty":            {"", ""},
		"unicode-rejected": {"pâcket", ""},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			act, err := pep503.NormalizeStrict(tc.Input)
			if tc.Output == "" {
				assert.Error(t, err)
				var nameErr *pep503.InvalidNameError
				assert.ErrorAs(t, err, &nameErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.Output, act)
			}
		})
	}
}
