// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep440

import (
	"fmt"
	"strings"
)

// InvalidSpecifierError is returned for a specifier whose operator is
// unknown or whose operand has a shape not permitted with its operator.
type InvalidSpecifierError struct {
	Input string
	Msg   string
}

func (e *InvalidSpecifierError) Error() string {
	return fmt.Sprintf("invalid specifier %q: %s", e.Input, e.Msg)
}

// CmpOp identifies the comparison semantic of a specifier clause.  The "=="
// and "!=" operators each split into a strict and a prefix (trailing ".*")
// variant at parse time.
type CmpOp int

const (
	CmpOpCompatible CmpOp = iota // ~=
	CmpOpStrictMatch
	CmpOpPrefixMatch
	CmpOpStrictExclude
	CmpOpPrefixExclude
	CmpOpLE
	CmpOpGE
	CmpOpLT
	CmpOpGT
	CmpOpArbitrary // ===
	_CmpOpEnd
)

func (op CmpOp) String() string {
	str, ok := map[CmpOp]string{
		CmpOpCompatible:    "~=",
		CmpOpStrictMatch:   "strict ==",
		CmpOpPrefixMatch:   "prefix ==",
		CmpOpStrictExclude: "strict !=",
		CmpOpPrefixExclude: "prefix !=",
		CmpOpLE:            "<=",
		CmpOpGE:            ">=",
		CmpOpLT:            "<",
		CmpOpGT:            ">",
		CmpOpArbitrary:     "===",
	}[op]
	if !ok {
		panic(fmt.Errorf("invalid CmpOp: %d", op))
	}
	return str
}

// serialize is the operator's surface spelling (without the prefix/.* hint).
func (op CmpOp) serialize() string {
	switch op {
	case CmpOpCompatible:
		return "~="
	case CmpOpStrictMatch, CmpOpPrefixMatch:
		return "=="
	case CmpOpStrictExclude, CmpOpPrefixExclude:
		return "!="
	case CmpOpLE:
		return "<="
	case CmpOpGE:
		return ">="
	case CmpOpLT:
		return "<"
	case CmpOpGT:
		return ">"
	case CmpOpArbitrary:
		return "==="
	default:
		panic(fmt.Errorf("invalid CmpOp: %d", op))
	}
}

// PrereleasePolicy says whether a specifier (or specifier set) admits
// pre-release versions.  The zero value derives the answer from the operand:
// a clause written against a pre-release admits pre-releases.
type PrereleasePolicy int

const (
	PrereleasesDetect PrereleasePolicy = iota
	PrereleasesAllow
	PrereleasesForbid
)

func (p PrereleasePolicy) String() string {
	switch p {
	case PrereleasesDetect:
		return "detect"
	case PrereleasesAllow:
		return "allow"
	case PrereleasesForbid:
		return "forbid"
	default:
		return fmt.Sprintf("PrereleasePolicy(%d)", int(p))
	}
}

// Specifier is a single version clause: an operator and an operand.
//
// For every operator except "===" the operand is a parsed Version (plus, for
// the prefix operators, the implied ".*").  For "===" the operand is kept as
// raw text in Arbitrary and compared without any version semantics.
type Specifier struct {
	Op      CmpOp
	Version Version // unset when Op == CmpOpArbitrary
	// Arbitrary is the verbatim operand of an "===" clause.
	Arbitrary string

	Prereleases PrereleasePolicy
}

// ParseSpecifier parses a single specifier clause, validating the operand
// shape against the operator:
//
//	~=           at least two release segments; no ".*"; no local
//	== and !=    may end in ".*"; local permitted only on the strict forms
//	<= and >=    no ".*"; local tolerated (ignored by comparison)
//	<  and >     no ".*"; no local
//	===          arbitrary non-empty text
func ParseSpecifier(str string) (Specifier, error) {
	spec, err := parseSpecifier(str)
	if err != nil {
		return spec, fmt.Errorf("pep440.ParseSpecifier: %w", err)
	}
	return spec, nil
}

func parseSpecifier(input string) (Specifier, error) {
	var ret Specifier
	str := strings.TrimSpace(input)
	minSegments := 1
	devOK := true
	localOK := false
	switch {
	case strings.HasPrefix(str, "~="):
		ret.Op = CmpOpCompatible
		str = str[2:]
		minSegments = 2
	case strings.HasPrefix(str, "==="):
		ret.Op = CmpOpArbitrary
		ret.Arbitrary = strings.TrimSpace(str[3:])
		if ret.Arbitrary == "" {
			return ret, &InvalidSpecifierError{Input: input, Msg: "empty operand"}
		}
		return ret, nil
	case strings.HasPrefix(str, "=="):
		ret.Op = CmpOpStrictMatch
		str = str[2:]
		localOK = true
		if strings.HasSuffix(strings.TrimSpace(str), ".*") {
			ret.Op = CmpOpPrefixMatch
			str = strings.TrimSuffix(strings.TrimSpace(str), ".*")
			devOK = false
			localOK = false
		}
	case strings.HasPrefix(str, "!="):
		ret.Op = CmpOpStrictExclude
		str = str[2:]
		localOK = true
		if strings.HasSuffix(strings.TrimSpace(str), ".*") {
			ret.Op = CmpOpPrefixExclude
			str = strings.TrimSuffix(strings.TrimSpace(str), ".*")
			devOK = false
			localOK = false
		}
	case strings.HasPrefix(str, "<="):
		ret.Op = CmpOpLE
		str = str[2:]
		localOK = true
	case strings.HasPrefix(str, ">="):
		ret.Op = CmpOpGE
		str = str[2:]
		localOK = true
	case strings.HasPrefix(str, "<"):
		ret.Op = CmpOpLT
		str = str[1:]
	case strings.HasPrefix(str, ">"):
		ret.Op = CmpOpGT
		str = str[1:]
	default:
		return ret, &InvalidSpecifierError{Input: input, Msg: "missing comparison operator"}
	}
	ver, err := parseVersion(str)
	if err != nil {
		return ret, &InvalidSpecifierError{Input: input, Msg: err.Error()}
	}
	if len(ver.Release) < minSegments {
		return ret, &InvalidSpecifierError{Input: input, Msg: fmt.Sprintf(
			"at least %d release segments required in %s clauses", minSegments, ret.Op)}
	}
	if ver.Dev != nil && !devOK {
		return ret, &InvalidSpecifierError{Input: input, Msg: fmt.Sprintf(
			"dev-part not permitted in %s clauses", ret.Op)}
	}
	if len(ver.Local) > 0 && !localOK {
		return ret, &InvalidSpecifierError{Input: input, Msg: fmt.Sprintf(
			"local-part not permitted in %s clauses", ret.Op)}
	}
	ret.Version = *ver
	return ret, nil
}

// String returns the canonical "<op><operand>" form, retaining the ".*" of
// prefix clauses and the verbatim operand of "===" clauses.
func (spec Specifier) String() string {
	if spec.Op == CmpOpArbitrary {
		return "===" + spec.Arbitrary
	}
	ret := spec.Op.serialize() + spec.Version.String()
	if spec.Op == CmpOpPrefixMatch || spec.Op == CmpOpPrefixExclude {
		ret += ".*"
	}
	return ret
}

// Match reports whether the version satisfies the clause's raw operator
// semantics, ignoring the pre-release policy.  Use Contains for the
// policy-aware membership test.
func (spec Specifier) Match(ver Version) bool {
	switch spec.Op {
	case CmpOpCompatible:
		return matchCompatible(spec.Version, ver)
	case CmpOpStrictMatch:
		return matchStrictMatch(spec.Version, ver)
	case CmpOpPrefixMatch:
		return matchPrefixMatch(spec.Version, ver)
	case CmpOpStrictExclude:
		return !matchStrictMatch(spec.Version, ver)
	case CmpOpPrefixExclude:
		return !matchPrefixMatch(spec.Version, ver)
	case CmpOpLE:
		return matchLE(spec.Version, ver)
	case CmpOpGE:
		return matchGE(spec.Version, ver)
	case CmpOpLT:
		return matchLT(spec.Version, ver)
	case CmpOpGT:
		return matchGT(spec.Version, ver)
	case CmpOpArbitrary:
		return strings.EqualFold(spec.Arbitrary, ver.String())
	default:
		panic(fmt.Errorf("invalid CmpOp: %d", spec.Op))
	}
}

// allowsPrereleases resolves the clause's tri-state policy: an explicit
// setting wins, otherwise a clause whose operand is itself a pre-release
// admits pre-releases.  Exclusion clauses never auto-admit.
func (spec Specifier) allowsPrereleases() bool {
	switch spec.Prereleases {
	case PrereleasesAllow:
		return true
	case PrereleasesForbid:
		return false
	}
	switch spec.Op {
	case CmpOpStrictExclude, CmpOpPrefixExclude:
		return false
	case CmpOpArbitrary:
		ver, err := parseVersion(spec.Arbitrary)
		return err == nil && ver.IsPreRelease()
	default:
		return spec.Version.IsPreRelease()
	}
}

// Contains reports whether the version is a member of the set the clause
// describes: Match, plus the pre-release admission rule.
func (spec Specifier) Contains(ver Version) bool {
	if ver.IsPreRelease() && !spec.allowsPrereleases() {
		return false
	}
	return spec.Match(ver)
}

// ContainsString is Contains over an unparsed version string.  An invalid
// version string is simply not a member (no error).  For an "===" clause the
// raw input is compared verbatim, so even non-PEP-440 strings can match.
func (spec Specifier) ContainsString(str string) bool {
	if spec.Op == CmpOpArbitrary {
		return strings.EqualFold(spec.Arbitrary, strings.TrimSpace(str))
	}
	ver, err := parseVersion(str)
	if err != nil {
		return false
	}
	return spec.Contains(*ver)
}

// Filter returns the versions that belong to the clause, with the PEP 440
// pre-release fallback: pre-releases that match are held back while any
// final release matches, but are returned when nothing else does (unless
// pre-releases are explicitly forbidden).
func (spec Specifier) Filter(vers []Version) []Version {
	var out, held []Version
	allow := spec.allowsPrereleases()
	for _, ver := range vers {
		if !spec.Match(ver) {
			continue
		}
		if ver.IsPreRelease() && !allow {
			if spec.Prereleases == PrereleasesForbid {
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

// FilterStrings is Filter over unparsed version strings.  Strings that do
// not parse are dropped (never an error); matched strings pass through
// verbatim.  "===" clauses match raw strings directly.
func (spec Specifier) FilterStrings(strs []string) []string {
	var out, held []string
	allow := spec.allowsPrereleases()
	for _, str := range strs {
		if spec.Op == CmpOpArbitrary {
			if strings.EqualFold(spec.Arbitrary, strings.TrimSpace(str)) {
				out = append(out, str)
			}
			continue
		}
		ver, err := parseVersion(str)
		if err != nil {
			continue
		}
		if !spec.Match(*ver) {
			continue
		}
		if ver.IsPreRelease() && !allow {
			if spec.Prereleases == PrereleasesForbid {
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

//
// Clause matching.  Per PEP 440, local version labels are ignored except by
// a strict "==" whose operand carries one, and the release segments are
// zero-padded to a common length (Cmp handles the padding).
//

// matchCompatible: "~= V.N" is ">= V.N" plus "== V.*" with the last release
// segment (and any suffixes) dropped from the prefix.
func matchCompatible(spec, ver Version) bool {
	prefix := spec
	prefix.Release = prefix.Release[:len(prefix.Release)-1]
	prefix.Pre = nil
	prefix.Post = nil
	prefix.Dev = nil
	return matchGE(spec, ver) && matchPrefixMatch(prefix, ver)
}

func matchStrictMatch(spec, ver Version) bool {
	if len(spec.Local) == 0 {
		return spec.PublicVersion.Cmp(ver.PublicVersion) == 0
	}
	return spec.Cmp(ver) == 0
}

func matchPrefixMatch(specFull, verFull Version) bool {
	spec, ver := specFull.PublicVersion, verFull.PublicVersion
	const (
		partRel = iota
		partPre
		partPost
	)
	// terminalPart identifies the last part present in the spec's operand;
	// segments past it in the candidate are ignored.
	terminalPart := partRel
	switch {
	case spec.Post != nil:
		terminalPart = partPost
	case spec.Pre != nil:
		terminalPart = partPre
	}

	if cmpEpoch(spec, ver) != 0 {
		return false
	}

	if terminalPart == partRel && len(ver.Release) > len(spec.Release) {
		ver.Release = ver.Release[:len(spec.Release)]
	}
	if cmpRelease(spec, ver) != 0 {
		return false
	}
	if terminalPart == partRel {
		return true
	}

	// Not cmpPreRelease: that also weighs .Post and .Dev.
	if (ver.Pre == nil) != (spec.Pre == nil) {
		return false
	} else if spec.Pre != nil &&
		(preReleaseOrder[ver.Pre.L] != preReleaseOrder[spec.Pre.L] || ver.Pre.N != spec.Pre.N) {
		return false
	}
	if terminalPart == partPre {
		return true
	}

	return cmpPostRelease(spec, ver) == 0
}

// The inclusive ordered comparisons ignore local version labels entirely.
func matchLE(spec, ver Version) bool {
	return spec.PublicVersion.Cmp(ver.PublicVersion) >= 0
}

func matchGE(spec, ver Version) bool {
	return spec.PublicVersion.Cmp(ver.PublicVersion) <= 0
}

func sameBase(spec, ver Version) bool {
	return cmpEpoch(spec.PublicVersion, ver.PublicVersion) == 0 &&
		cmpRelease(spec.PublicVersion, ver.PublicVersion) == 0
}

// matchLT: "< V" must not admit a pre-release of V unless V is itself a
// pre-release.
func matchLT(spec, ver Version) bool {
	if spec.Cmp(ver) <= 0 {
		return false
	}
	if !spec.IsPreRelease() && ver.IsPreRelease() && sameBase(spec, ver) {
		return false
	}
	return true
}

// matchGT: "> V" must not admit a post-release or local version of V unless
// V is itself a post-release.
func matchGT(spec, ver Version) bool {
	if spec.Cmp(ver) >= 0 {
		return false
	}
	if sameBase(spec, ver) {
		if spec.Post == nil && ver.Post != nil {
			return false
		}
		if ver.HasLocal() {
			return false
		}
	}
	return true
}
