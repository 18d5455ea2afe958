// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep508_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/pypkg/pkg/pep508"
)

func mustParseRequirement(t *testing.T, str string) *pep508.Requirement {
	t.Helper()
	req, err := pep508.ParseRequirement(str)
	require.NoError(t, err)
	require.NotNil(t, req)
	return req
}

func TestParseRequirement(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		InStr string

		OutName   string
		OutExtras []string
		OutURL    string
		OutSpec   string
		OutMarker string
		OutErr    string // substring of the error message
	}{
		"bare": {
			InStr:   "requests",
			OutName: "requests",
		},
		"spec": {
			InStr:   "requests >=2.8.1",
			OutName: "requests",
			OutSpec: ">=2.8.1",
		},
		"multi-spec": {
			InStr:   "requests >=2.8.1, == 2.8.*",
			OutName: "requests",
			OutSpec: "==2.8.*,>=2.8.1",
		},
		"parens-spec": {
			InStr:   "requests (>=2.8.1)",
			OutName: "requests",
			OutSpec: ">=2.8.1",
		},
		"extras": {
			InStr:     "requests[security,tests]",
			OutName:   "requests",
			OutExtras: []string{"security", "tests"},
		},
		"extras-normalized": {
			InStr:     "name[Foo_Bar,BAR]",
			OutName:   "name",
			OutExtras: []string{"bar", "foo-bar"},
		},
		"extras-dedup": {
			InStr:     "name[foo,FOO,f_o_o]",
			OutName:   "name",
			OutExtras: []string{"f-o-o", "foo"},
		},
		"empty-extras": {
			InStr:   "name[]",
			OutName: "name",
		},
		"everything": {
			InStr:     `name[foo,BAR]>=2,<3; python_version>'2.0'`,
			OutName:   "name",
			OutExtras: []string{"bar", "foo"},
			OutSpec:   "<3,>=2",
			OutMarker: `python_version > "2.0"`,
		},
		"url": {
			InStr:   "pip @ https://github.com/pypa/pip/archive/1.3.1.zip",
			OutName: "pip",
			OutURL:  "https://github.com/pypa/pip/archive/1.3.1.zip",
		},
		"url-marker": {
			InStr:     `pip @ file:///localbuilds/pip-1.3.1.zip ; python_version == '3.8'`,
			OutName:   "pip",
			OutURL:    "file:///localbuilds/pip-1.3.1.zip",
			OutMarker: `python_version == "3.8"`,
		},
		"marker-only": {
			InStr:     `name; os_name == 'posix' and python_version >= '3.6'`,
			OutName:   "name",
			OutMarker: `os_name == "posix" and python_version >= "3.6"`,
		},
		"empty-input": {
			InStr:  "",
			OutErr: "expected package name",
		},
		"bad-name": {
			InStr:  "-leading-dash",
			OutErr: "expected package name",
		},
		"missing-semicolon": {
			InStr:  `name >=2 python_version >= '3.6'`,
			OutErr: "expected end or semicolon",
		},
		"url-no-scheme": {
			InStr:  "name @ not-a-url",
			OutErr: "missing scheme",
		},
		"bad-specifier": {
			InStr:  "name ==1.0+local.*",
			OutErr: "local-part not permitted",
		},
		"empty-marker": {
			InStr:  "name >=2 ;",
			OutErr: "expected marker after semicolon",
		},
		"bad-marker": {
			InStr:  "name; os_name ==",
			OutErr: "invalid marker",
		},
		"unclosed-extras": {
			InStr:  "name[foo",
			OutErr: "expected comma or closing bracket",
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			req, err := pep508.ParseRequirement(tc.InStr)
			if tc.OutErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.OutErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.OutName, req.Name)
			assert.Equal(t, tc.OutExtras, func() []string {
				if req.Extras.Len() == 0 {
					return nil
				}
				return req.Extras.List()
			}())
			assert.Equal(t, tc.OutURL, req.URL)
			assert.Equal(t, tc.OutSpec, req.Specifier.String())
			if tc.OutMarker == "" {
				assert.Nil(t, req.Marker)
			} else {
				require.NotNil(t, req.Marker)
				assert.Equal(t, tc.OutMarker, req.Marker.String())
			}
		})
	}
}

func TestRequirementString(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		InStr  string
		OutStr string
	}{
		"bare":    {"requests", "requests"},
		"spec":    {"requests >= 2.8.1 , ==2.8.*", "requests==2.8.*,>=2.8.1"},
		"extras":  {"requests[tests, security]", "requests[security,tests]"},
		"marker":  {`requests; os_name=='posix'`, `requests; os_name == "posix"`},
		"url":     {"pip @ file:///tmp/pip.zip", "pip@ file:///tmp/pip.zip"},
		"display": {"Requests", "Requests"}, // display name is preserved
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			req := mustParseRequirement(t, tc.InStr)
			assert.Equal(t, tc.OutStr, req.String())
			// the canonical form parses back to an equal requirement
			again := mustParseRequirement(t, req.String())
			assert.True(t, req.Equal(again))
		})
	}
}

func TestRequirementEqual(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		A, B  string
		Equal bool
	}{
		"name-case":      {"Requests", "requests", true},
		"name-sep":       {"zope.interface", "zope-interface", true},
		"extras-order":   {"name[a,b]", "name[b,a]", true},
		"spec-order":     {"name>=1,<2", "name<2,>=1", true},
		"spec-differs":   {"name>=1", "name>1", false},
		"marker-differs": {"name; os_name=='posix'", "name; os_name=='nt'", false},
		"marker-same":    {"name; os_name=='posix'", `name ; os_name == "posix"`, true},
		"url-differs":    {"name @ https://a/x.zip", "name @ https://a/y.zip", false},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			a := mustParseRequirement(t, tc.A)
			b := mustParseRequirement(t, tc.B)
			assert.Equal(t, tc.Equal, a.Equal(b))
			assert.Equal(t, tc.Equal, b.Equal(a))
		})
	}
}

func TestRequirementURLSpecExclusive(t *testing.T) {
	t.Parallel()
	req := mustParseRequirement(t, "pip @ https://example.com/pip.zip")
	assert.Equal(t, 0, req.Specifier.Len())
}
