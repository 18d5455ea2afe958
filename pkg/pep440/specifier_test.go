// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep440_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/pypkg/pkg/pep440"
	"github.com/datawire/pypkg/pkg/testutil"
)

func mustParseSpecifier(t *testing.T, str string) pep440.Specifier {
	t.Helper()
	spec, err := pep440.ParseSpecifier(str)
	require.NoError(t, err)
	return spec
}

func TestParseSpecifier(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		InStr  string
		OutOp  pep440.CmpOp
		OutStr string
		OutErr bool
	}{
		"eq":            {InStr: "==1.0", OutOp: pep440.CmpOpStrictMatch, OutStr: "==1.0"},
		"eq-spaces":     {InStr: " ==  1.0 ", OutOp: pep440.CmpOpStrictMatch, OutStr: "==1.0"},
		"eq-prefix":     {InStr: "==1.0.*", OutOp: pep440.CmpOpPrefixMatch, OutStr: "==1.0.*"},
		"ne":            {InStr: "!=1.0", OutOp: pep440.CmpOpStrictExclude, OutStr: "!=1.0"},
		"ne-prefix":     {InStr: "!=1.0.*", OutOp: pep440.CmpOpPrefixExclude, OutStr: "!=1.0.*"},
		"compatible":    {InStr: "~=1.4.5", OutOp: pep440.CmpOpCompatible, OutStr: "~=1.4.5"},
		"le":            {InStr: "<=2", OutOp: pep440.CmpOpLE, OutStr: "<=2"},
		"ge":            {InStr: ">=2", OutOp: pep440.CmpOpGE, OutStr: ">=2"},
		"lt":            {InStr: "<2", OutOp: pep440.CmpOpLT, OutStr: "<2"},
		"gt":            {InStr: ">2", OutOp: pep440.CmpOpGT, OutStr: ">2"},
		"arbitrary":     {InStr: "===foobar", OutOp: pep440.CmpOpArbitrary, OutStr: "===foobar"},
		"normalized":    {InStr: "==1.0ALPHA1", OutOp: pep440.CmpOpStrictMatch, OutStr: "==1.0a1"},
		"eq-local":      {InStr: "==1.0+abc", OutOp: pep440.CmpOpStrictMatch, OutStr: "==1.0+abc"},
		"missing-op":    {InStr: "1.0", OutErr: true},
		"empty":         {InStr: "", OutErr: true},
		"1seg-tilde":    {InStr: "~=1", OutErr: true},
		"tilde-star":    {InStr: "~=1.0.*", OutErr: true},
		"tilde-local":   {InStr: "~=1.0+abc", OutErr: true},
		"prefix-dev":    {InStr: "==1.0.dev1.*", OutErr: true},
		"prefix-local":  {InStr: "==1.0+abc.*", OutErr: true},
		"lt-local":      {InStr: "<1.0+abc", OutErr: true},
		"gt-local":      {InStr: ">1.0+abc", OutErr: true},
		"empty-operand": {InStr: "==", OutErr: true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			spec, err := pep440.ParseSpecifier(tc.InStr)
			if tc.OutErr {
				assert.Error(t, err)
				var specErr *pep440.InvalidSpecifierError
				assert.ErrorAs(t, err, &specErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.OutOp, spec.Op)
			assert.Equal(t, tc.OutStr, spec.String())
		})
	}
}

func TestSpecifierMatch(t *testing.T) {
	t.Parallel()
	testcases := []struct {
		InVer    string
		InSpec   string
		OutMatch bool
	}{
		// version matching
		{"1.1.post1", "== 1.1", false},
		{"1.1.post1", "== 1.1.post1", true},
		{"1.1.post1", "== 1.1.*", true},

		{"1.1a1", "== 1.1", false},
		{"1.1a1", "== 1.1a1", true},
		{"1.1a1", "== 1.1.*", true},

		{"1.1", "== 1.1", true},
		{"1.1", "== 1.1.0", true},
		{"1.1", "== 1.1.dev1", false},
		{"1.1", "== 1.1a1", false},
		{"1.1", "== 1.1.post1", false},
		{"1.1", "== 1.1.*", true},

		// the local version label is ignored unless the operand has one
		{"1.0+downstream1", "== 1.0", true},
		{"1.0+downstream1", "== 1.0+downstream1", true},
		{"1.0+downstream1", "== 1.0+downstream2", false},

		// version exclusion
		{"1.1.post1", "!= 1.1", true},
		{"1.1.post1", "!= 1.1.post1", false},
		{"1.1.post1", "!= 1.1.*", false},

		// prefix matching respects the epoch
		{"1!1.2", "== 1.*", false},
		{"1.2", "== 1.*", true},
		{"1.2", "== 1!1.*", false},
		{"1.1rc0", "== 1.1rc.*", true},
		{"1.1rc1", "== 1.1rc.*", false},

		// compatible release
		{"2.2", "~= 2.2", true},
		{"2.3", "~= 2.2", true},
		{"3.0", "~= 2.2", false},
		{"2.1", "~= 2.2", false},
		{"1.4.5.1", "~= 1.4.5", true},
		{"1.5", "~= 1.4.5", false},
		{"2.2.post3", "~= 2.2.post3", true},
		{"2.2", "~= 2.2.post3", false},

		// inclusive ordered comparison ignores locals
		{"1.0", "<= 2.0", true},
		{"1.7.1+local", ">= 1.7", true},
		{"1.7.0+local", "<= 1.7", true},

		// exclusive ordered comparison excludes same-base pre/post/local
		{"1.7.2", "> 1.7", true},
		{"1.7.0.post1", "> 1.7", false},
		{"1.7.0.post3", "> 1.7.post2", true},
		{"1.7.1", "> 1.7.post2", true},
		{"1.7.0", "> 1.7.post2", false},
		{"1.7.1+local", "> 1.7", true},
		{"1.7.0+local", "> 1.7", false},
		{"1.7a1", "< 1.7", false},
		{"1.6.9", "< 1.7", true},
		{"1.7a1", "< 1.7rc1", true},

		// arbitrary equality
		{"1.0", "=== 1.0", true},
		{"1.0.0", "=== 1.0", false},
	}
	for i, tc := range testcases {
		tc := tc
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			t.Parallel()
			t.Logf("checking: (%s %s) => %v", tc.InVer, tc.InSpec, tc.OutMatch)
			ver := mustParseVersion(t, tc.InVer)
			spec := mustParseSpecifier(t, tc.InSpec)
			assert.Equal(t, tc.OutMatch, spec.Match(ver))
		})
	}
}

func TestEquivalentSpecifiers(t *testing.T) {
	t.Parallel()
	pairs := [][2]string{
		{"~= 2.2", ">= 2.2, == 2.*"},
		{"~= 1.4.5", ">= 1.4.5, == 1.4.*"},
		{"~= 2.2.post3", ">= 2.2.post3, == 2.*"},
		{"~= 1.4.5a4", ">= 1.4.5a4, == 1.4.*"},
		{"~= 2.2.0", ">= 2.2.0, == 2.2.*"},
		{"~= 1.4.5.0", ">= 1.4.5.0, == 1.4.5.*"},
	}
	for i, pair := range pairs {
		pair := pair
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			t.Parallel()
			tilde, err := pep440.ParseSpecifier(pair[0])
			require.NoError(t, err)
			expanded, err := pep440.ParseSpecifierSet(pair[1])
			require.NoError(t, err)
			expandedMatch := func(ver pep440.Version) bool {
				for _, clause := range expanded.Specifiers {
					if !clause.Match(ver) {
						return false
					}
				}
				return true
			}
			testutil.QuickCheckEqual(t, tilde.Match, expandedMatch,
				testutil.QuickConfig{},
				[]interface{}{mustParseVersion(t, "2.2.1")},
				[]interface{}{mustParseVersion(t, "1.4.5.8")},
			)
		})
	}
}

func TestSpecifierPrereleases(t *testing.T) {
	t.Parallel()
	testcases := []struct {
		InSpec      string
		InPolicy    pep440.PrereleasePolicy
		InVer       string
		OutContains bool
	}{
		// detect: a final-release operand rejects prereleases...
		{">=1.0", pep440.PrereleasesDetect, "2.0a1", false},
		// ...even ones that Match
		{"==2.0a1", pep440.PrereleasesDetect, "2.0a1", true},
		// a prerelease operand admits them
		{">=1.0a1", pep440.PrereleasesDetect, "2.0a1", true},
		{">=1.0.dev1", pep440.PrereleasesDetect, "2.0a1", true},
		// explicit allow/forbid overrides detection
		{">=1.0", pep440.PrereleasesAllow, "2.0a1", true},
		{">=1.0a1", pep440.PrereleasesForbid, "2.0a1", false},
		// finals are never gated
		{">=1.0", pep440.PrereleasesForbid, "2.0", true},
	}
	for i, tc := range testcases {
		tc := tc
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			t.Parallel()
			spec := mustParseSpecifier(t, tc.InSpec)
			spec.Prereleases = tc.InPolicy
			assert.Equal(t, tc.OutContains, spec.Contains(mustParseVersion(t, tc.InVer)))
		})
	}
}

func TestContainsString(t *testing.T) {
	t.Parallel()
	spec := mustParseSpecifier(t, ">=1.0")
	assert.True(t, spec.ContainsString("1.5"))
	assert.False(t, spec.ContainsString("0.5"))
	// invalid versions are not members, and do not error
	assert.False(t, spec.ContainsString("not-a-version"))

	arb := mustParseSpecifier(t, "===foo-bar")
	assert.True(t, arb.ContainsString("foo-bar"))
	assert.True(t, arb.ContainsString("FOO-BAR"))
	assert.False(t, arb.ContainsString("foo"))
}

func TestSpecifierFilter(t *testing.T) {
	t.Parallel()

	vers := func(strs ...string) []pep440.Version {
		ret := make([]pep440.Version, 0, len(strs))
		for _, str := range strs {
			ret = append(ret, mustParseVersion(t, str))
		}
		return ret
	}

	t.Run("finals-win", func(t *testing.T) {
		t.Parallel()
		got := mustParseSpecifier(t, ">=1.0").Filter(vers("1.0a5", "1.0", "1.4"))
		assert.Equal(t, vers("1.0", "1.4"), got)
	})
	t.Run("prerelease-fallback", func(t *testing.T) {
		t.Parallel()
		got := mustParseSpecifier(t, ">=1.0").Filter(vers("0.5", "2.0a1", "2.0b2"))
		assert.Equal(t, vers("2.0a1", "2.0b2"), got)
	})
	t.Run("forbid-drops", func(t *testing.T) {
		t.Parallel()
		spec := mustParseSpecifier(t, ">=2.0")
		spec.Prereleases = pep440.PrereleasesForbid
		assert.Empty(t, spec.Filter(vers("1.0", "2.1a1")))
	})
	t.Run("strings-drop-unparseable", func(t *testing.T) {
		t.Parallel()
		got := mustParseSpecifier(t, ">=1.0").FilterStrings(
			[]string{"1.0a5", "1.0", "bogus!", "1.4"})
		assert.Equal(t, []string{"1.0", "1.4"}, got)
	})
}
