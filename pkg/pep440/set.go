// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep440

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datawire/dlib/derror"
)

// SpecifierSet is a comma-joined conjunction of specifier clauses.
// Membership is the AND over all clauses.  Clauses are deduplicated by their
// canonical textual form; "===" clauses are opaque text and dedup only on
// exact spelling.
type SpecifierSet struct {
	Specifiers []Specifier

	Prereleases PrereleasePolicy
}

// ParseSpecifierSet parses a comma-separated list of specifier clauses.
// Empty clauses are skipped, so "" parses to the empty set (which contains
// every valid version).  All bad clauses are reported, not just the first.
func ParseSpecifierSet(str string) (SpecifierSet, error) {
	var ret SpecifierSet
	var errs derror.MultiError
	seen := make(map[string]struct{})
	for _, clauseStr := range strings.Split(str, ",") {
		clauseStr = strings.TrimSpace(clauseStr)
		if clauseStr == "" {
			continue
		}
		clause, err := parseSpecifier(clauseStr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		key := dedupKey(clause)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ret.Specifiers = append(ret.Specifiers, clause)
	}
	if len(errs) > 0 {
		return SpecifierSet{}, fmt.Errorf("pep440.ParseSpecifierSet: %w", errs)
	}
	return ret, nil
}

// dedupKey is the clause's canonical text with trailing zero release
// segments dropped, so that ">=1.0" and ">=1.0.0" collapse.  "~=", prefix,
// and "===" clauses keep their spelling, since for them the segments matter.
func dedupKey(clause Specifier) string {
	switch clause.Op {
	case CmpOpCompatible, CmpOpPrefixMatch, CmpOpPrefixExclude, CmpOpArbitrary:
		return clause.String()
	}
	rel := clause.Version.Release
	for len(rel) > 1 && rel[len(rel)-1] == 0 {
		rel = rel[:len(rel)-1]
	}
	clause.Version.Release = rel
	return clause.String()
}

// String returns the canonical form: member clauses sorted and joined with
// commas.
func (set SpecifierSet) String() string {
	clauses := make([]string, 0, len(set.Specifiers))
	for _, clause := range set.Specifiers {
		clauses = append(clauses, clause.String())
	}
	sort.Strings(clauses)
	return strings.Join(clauses, ",")
}

// Len returns the number of clauses.
func (set SpecifierSet) Len() int {
	return len(set.Specifiers)
}

// allowsPrereleases resolves the set-level tri-state: an explicit setting
// wins; otherwise the set admits pre-releases if any member clause does.
func (set SpecifierSet) allowsPrereleases() bool {
	switch set.Prereleases {
	case PrereleasesAllow:
		return true
	case PrereleasesForbid:
		return false
	}
	for _, clause := range set.Specifiers {
		if clause.allowsPrereleases() {
			return true
		}
	}
	return false
}

// Contains reports whether the version satisfies every clause.  A
// pre-release is a member only if the set admits pre-releases; this applies
// even to the empty set.
func (set SpecifierSet) Contains(ver Version) bool {
	if ver.IsPreRelease() && !set.allowsPrereleases() {
		return false
	}
	for _, clause := range set.Specifiers {
		if !clause.Match(ver) {
			return false
		}
	}
	return true
}

// ContainsString is Contains over an unparsed version string; an invalid
// version string is simply not a member.
func (set SpecifierSet) ContainsString(str string) bool {
	ver, err := parseVersion(str)
	if err != nil {
		// an "===" clause can admit strings no other clause can parse
		if len(set.Specifiers) == 0 {
			return false
		}
		for _, clause := range set.Specifiers {
			if clause.Op != CmpOpArbitrary || !clause.ContainsString(str) {
				return false
			}
		}
		return true
	}
	return set.Contains(*ver)
}

// Filter returns the versions contained in the set, with the pre-release
// fallback: if nothing passes under the default policy and pre-releases are
// not explicitly forbidden, the matching pre-releases pass through.
func (set SpecifierSet) Filter(vers []Version) []Version {
	var out, held []Version
	allow := set.allowsPrereleases()
	for _, ver := range vers {
		if !set.matchAll(ver) {
			continue
		}
		if ver.IsPreRelease() && !allow {
			if set.Prereleases == PrereleasesForbid {
				continue
			}
			held = append(held, ver)
			continue
		}
		out = append(out, ver)
	}
	if len(out) == 0 {
		return held
	}
	return out
}

// FilterStrings is Filter over unparsed version strings; strings that fail
// to parse are dropped rather than raising.
func (set SpecifierSet) FilterStrings(strs []string) []string {
	var out, held []string
	allow := set.allowsPrereleases()
	for _, str := range strs {
		ver, err := parseVersion(str)
		if err != nil {
			continue
		}
		if !set.matchAll(*ver) {
			continue
		}
		if ver.IsPreRelease() && !allow {
			if set.Prereleases == PrereleasesForbid {
				continue
			}
			held = append(held, str)
			continue
		}
		out = append(out, str)
	}
	if len(out) == 0 {
		return held
	}
	return out
}

func (set SpecifierSet) matchAll(ver Version) bool {
	for _, clause := range set.Specifiers {
		if !clause.Match(ver) {
			return false
		}
	}
	return true
}

// Intersect combines two sets into their conjunction (the union of their
// clauses).  Sets with contradictory explicit pre-release settings cannot be
// combined.
func (set SpecifierSet) Intersect(other SpecifierSet) (SpecifierSet, error) {
	var ret SpecifierSet
	switch {
	case set.Prereleases == PrereleasesDetect:
		ret.Prereleases = other.Prereleases
	case other.Prereleases == PrereleasesDetect || other.Prereleases == set.Prereleases:
		ret.Prereleases = set.Prereleases
	default:
		return SpecifierSet{}, fmt.Errorf(
			"pep440: cannot combine SpecifierSets with %s and %s pre-release overrides",
			set.Prereleases, other.Prereleases)
	}
	seen := make(map[string]struct{})
	for _, clause := range append(append([]Specifier(nil), set.Specifiers...), other.Specifiers...) {
		key := dedupKey(clause)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ret.Specifiers = append(ret.Specifiers, clause)
	}
	return ret, nil
}

// IntersectString parses the argument as a specifier set and combines it
// with the receiver.
func (set SpecifierSet) IntersectString(str string) (SpecifierSet, error) {
	other, err := ParseSpecifierSet(str)
	if err != nil {
		return SpecifierSet{}, err
	}
	return set.Intersect(other)
}
