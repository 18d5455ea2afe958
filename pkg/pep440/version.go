// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep440 implements the PEP 440 version scheme and version
// specifiers.
//
// https://peps.python.org/pep-0440/
package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// InvalidVersionError is returned for a string that does not match the PEP
// 440 version scheme.
type InvalidVersionError struct {
	Input string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version: %q", e.Input)
}

// PublicVersion is the public part of a version identifier: everything but
// the local version label.
type PublicVersion struct {
	// Epoch segment: "N!"
	Epoch int
	// Release segment: "N(.N)*"
	Release []int
	// Pre-release segment: "{a|b|rc}N"
	Pre *PreRelease
	// Post-release segment: ".postN"
	Post *int
	// Development release segment: ".devN"
	Dev *int
}

// PreRelease is a pre-release phase letter ("a", "b", or "rc") and number.
type PreRelease struct {
	L string
	N int
}

// Version is a complete PEP 440 version identifier: a public version plus an
// optional local version label.  Values are constructed by ParseVersion and
// never mutated afterward.
type Version struct {
	PublicVersion
	// Local version label segments; digit-only segments are numeric.
	Local []intstr.IntOrString
}

// VersionPattern is the verbose regular expression from PEP 440 Appendix B
// that matches any valid (possibly non-canonical) version identifier.  It is
// exported so that it can be embedded into larger grammars; it carries no
// anchors.
const VersionPattern = `
    v?
    (?:
        (?:(?P<epoch>[0-9]+)!)?                           # epoch
        (?P<release>[0-9]+(?:\.[0-9]+)*)                  # release segment
        (?P<pre>                                          # pre-release
            [-_\.]?
            (?P<pre_l>(a|b|c|rc|alpha|beta|pre|preview))
            [-_\.]?
            (?P<pre_n>[0-9]+)?
        )?
        (?P<post>                                         # post release
            (?:-(?P<post_n1>[0-9]+))
            |
            (?:
                [-_\.]?
                (?P<post_l>post|rev|r)
                [-_\.]?
                (?P<post_n2>[0-9]+)?
            )
        )?
        (?P<dev>                                          # dev release
            [-_\.]?
            (?P<dev_l>dev)
            [-_\.]?
            (?P<dev_n>[0-9]+)?
        )?
    )
    (?:\+(?P<local>[a-z0-9]+(?:[-_\.][a-z0-9]+)*))?       # local version
`

// Go's regexp package has no VERBOSE flag, so strip the whitespace and
// comments out of VersionPattern before compiling it.
var reVersion = regexp.MustCompile(`(?i)^\s*` +
	regexp.MustCompile(`(?:\s+|#[^\n]*)`).ReplaceAllString(VersionPattern, ``) +
	`\s*$`)

// ParseVersion parses a version string, applying the PEP 440 normalization
// rules (case folding, alternate pre/post/dev spellings and separators,
// leading "v", surrounding whitespace).  It returns an *InvalidVersionError
// (wrapped) if the string does not match the version scheme.
func ParseVersion(str string) (*Version, error) {
	ver, err := parseVersion(str)
	if err != nil {
		return nil, fmt.Errorf("pep440.ParseVersion: %w", err)
	}
	return ver, nil
}

func parseVersion(str string) (*Version, error) {
	match := reVersion.FindStringSubmatch(str)
	if match == nil {
		return nil, &InvalidVersionError{Input: str}
	}

	var ver Version
	var err error

	if epoch := match[reVersion.SubexpIndex("epoch")]; epoch != "" {
		ver.Epoch, err = strconv.Atoi(epoch)
		if err != nil {
			return nil, &InvalidVersionError{Input: str}
		}
	}

	for _, segStr := range strings.Split(match[reVersion.SubexpIndex("release")], ".") {
		segInt, err := strconv.Atoi(segStr)
		if err != nil {
			return nil, &InvalidVersionError{Input: str}
		}
		ver.Release = append(ver.Release, segInt)
	}

	if l := match[reVersion.SubexpIndex("pre_l")]; l != "" {
		ver.Pre = &PreRelease{
			L: canonPreLabel[strings.ToLower(l)],
			N: atoiDefault0(match[reVersion.SubexpIndex("pre_n")]),
		}
	}

	if match[reVersion.SubexpIndex("post")] != "" {
		n := atoiDefault0(match[reVersion.SubexpIndex("post_n1")] +
			match[reVersion.SubexpIndex("post_n2")])
		ver.Post = &n
	}

	if match[reVersion.SubexpIndex("dev")] != "" {
		n := atoiDefault0(match[reVersion.SubexpIndex("dev_n")])
		ver.Dev = &n
	}

	localParts := strings.FieldsFunc(match[reVersion.SubexpIndex("local")], func(r rune) bool {
		return strings.ContainsRune("-_.", r)
	})
	for _, part := range localParts {
		ver.Local = append(ver.Local, intstr.Parse(strings.ToLower(part)))
	}

	return &ver, nil
}

// canonPreLabel maps every accepted pre-release spelling to its normal form.
var canonPreLabel = map[string]string{
	"a":     "a",
	"alpha": "a",

	"b":    "b",
	"beta": "b",

	"rc":      "rc",
	"c":       "rc",
	"pre":     "rc",
	"preview": "rc",
}

func atoiDefault0(str string) int {
	if str == "" {
		return 0
	}
	n, err := strconv.Atoi(str)
	if err != nil {
		// the regexp only lets digits through
		panic(err)
	}
	return n
}

func (ver PublicVersion) writeTo(ret *strings.Builder) {
	if ver.Epoch > 0 {
		fmt.Fprintf(ret, "%d!", ver.Epoch)
	}
	if len(ver.Release) == 0 {
		panic("invalid version: no release segments")
	}
	fmt.Fprintf(ret, "%d", ver.Release[0])
	for _, segment := range ver.Release[1:] {
		fmt.Fprintf(ret, ".%d", segment)
	}
	if ver.Pre != nil {
		fmt.Fprintf(ret, "%s%d", ver.Pre.L, ver.Pre.N)
	}
	if ver.Post != nil {
		fmt.Fprintf(ret, ".post%d", *ver.Post)
	}
	if ver.Dev != nil {
		fmt.Fprintf(ret, ".dev%d", *ver.Dev)
	}
}

// String returns the canonical serialization
// "[N!]N(.N)*[{a|b|rc}N][.postN][.devN]".
func (ver PublicVersion) String() string {
	var ret strings.Builder
	ver.writeTo(&ret)
	return ret.String()
}

// String returns the canonical serialization of the version; parsing the
// result yields a value that compares equal to the receiver.
func (ver Version) String() string {
	var ret strings.Builder
	ver.PublicVersion.writeTo(&ret)
	sep := "+"
	for _, local := range ver.Local {
		ret.WriteString(sep)
		ret.WriteString(local.String())
		sep = "."
	}
	return ret.String()
}

// Public returns the version with the local version label stripped.
func (ver Version) Public() Version {
	return Version{PublicVersion: ver.PublicVersion}
}

// BaseVersion returns just the epoch and release segments, dropping any
// pre/post/dev parts and the local label.
func (ver Version) BaseVersion() Version {
	return Version{PublicVersion: PublicVersion{
		Epoch:   ver.Epoch,
		Release: ver.Release,
	}}
}

func (ver PublicVersion) releaseSegment(n int) int {
	if n < len(ver.Release) {
		return ver.Release[n]
	}
	return 0
}

func (ver PublicVersion) Major() int { return ver.releaseSegment(0) }
func (ver PublicVersion) Minor() int { return ver.releaseSegment(1) }
func (ver PublicVersion) Micro() int { return ver.releaseSegment(2) }

// IsPreRelease reports whether the version has a pre-release or development
// release segment.
func (ver PublicVersion) IsPreRelease() bool {
	return ver.Pre != nil || ver.Dev != nil
}

// IsPostRelease reports whether the version has a post-release segment.
func (ver PublicVersion) IsPostRelease() bool {
	return ver.Post != nil
}

// IsDevRelease reports whether the version has a development release segment.
func (ver PublicVersion) IsDevRelease() bool {
	return ver.Dev != nil
}

// IsFinal reports whether the version consists solely of an epoch and a
// release segment.
func (ver PublicVersion) IsFinal() bool {
	return ver.Pre == nil && ver.Post == nil && ver.Dev == nil
}

func (ver Version) IsFinal() bool {
	return ver.PublicVersion.IsFinal() && len(ver.Local) == 0
}

// HasLocal reports whether the version carries a local version label.
func (ver Version) HasLocal() bool {
	return len(ver.Local) > 0
}

func cmpEpoch(a, b PublicVersion) int {
	return a.Epoch - b.Epoch
}

// cmpRelease pads the shorter release segment with zeros, so "1.0" == "1".
func cmpRelease(a, b PublicVersion) int {
	for i := 0; i < len(a.Release) || i < len(b.Release); i++ {
		if diff := a.releaseSegment(i) - b.releaseSegment(i); diff != 0 {
			return diff
		}
	}
	return 0
}

// preReleaseOrder positions the pre-release phases below a final release
// (absent = 0).
var preReleaseOrder = map[string]int{
	"a":  -3,
	"b":  -2,
	"rc": -1,
}

// cmpPreRelease sorts ".devN" (with no pre and no post) below any
// pre-release phase, and anything else without a pre-release phase above
// them.
func cmpPreRelease(a, b PublicVersion) int {
	var aL, aN, bL, bN int
	if a.Pre != nil {
		ok := false
		if aL, ok = preReleaseOrder[a.Pre.L]; !ok {
			panic(fmt.Errorf("invalid pre-release string: %q", a.Pre.L))
		}
		aN = a.Pre.N
	} else if a.Dev != nil && a.Post == nil {
		aL = -4
	}
	if b.Pre != nil {
		ok := false
		if bL, ok = preReleaseOrder[b.Pre.L]; !ok {
			panic(fmt.Errorf("invalid pre-release string: %q", b.Pre.L))
		}
		bN = b.Pre.N
	} else if b.Dev != nil && b.Post == nil {
		bL = -4
	}
	if aL != bL {
		return aL - bL
	}
	return aN - bN
}

func cmpPostRelease(a, b PublicVersion) int {
	aPost, bPost := -1, -1
	if a.Post != nil {
		aPost = *a.Post
	}
	if b.Post != nil {
		bPost = *b.Post
	}
	return aPost - bPost
}

// cmpDevRelease sorts ".devN" immediately before the corresponding release.
func cmpDevRelease(a, b PublicVersion) int {
	switch {
	case a.Dev == nil && b.Dev == nil:
		return 0
	case a.Dev == nil:
		return 1
	case b.Dev == nil:
		return -1
	default:
		return (*a.Dev) - (*b.Dev)
	}
}

// Cmp returns a number < 0 if version 'a' is less than version 'b', > 0 if
// 'a' is greater than 'b', or 0 if they are equal; like the C strcmp.  Only
// the sign of the result is defined.
func (a PublicVersion) Cmp(b PublicVersion) int {
	if d := cmpEpoch(a, b); d != 0 {
		return d
	}
	if d := cmpRelease(a, b); d != 0 {
		return d
	}
	if d := cmpPreRelease(a, b); d != 0 {
		return d
	}
	if d := cmpPostRelease(a, b); d != 0 {
		return d
	}
	return cmpDevRelease(a, b)
}

// cmpLocalSegment compares one segment of a local version label; numeric
// segments sort above string segments.
func cmpLocalSegment(a, b *intstr.IntOrString) int {
	switch {
	case a == nil && b == nil:
		panic("should not happen: cmpLocal shouldn't have bothered calling this")
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch {
	case a.Type == intstr.Int && b.Type == intstr.Int:
		return int(a.IntVal - b.IntVal)
	case a.Type == intstr.String && b.Type == intstr.String:
		return strings.Compare(a.StrVal, b.StrVal)
	case a.Type == intstr.Int:
		return 1
	default:
		return -1
	}
}

func cmpLocal(a, b Version) int {
	for i := 0; i < len(a.Local) || i < len(b.Local); i++ {
		var aSeg, bSeg *intstr.IntOrString
		if i < len(a.Local) {
			aSeg = &(a.Local[i])
		}
		if i < len(b.Local) {
			bSeg = &(b.Local[i])
		}
		if d := cmpLocalSegment(aSeg, bSeg); d != 0 {
			return d
		}
	}
	return 0
}

// Cmp returns a number < 0 if version 'a' is less than version 'b', > 0 if
// 'a' is greater than 'b', or 0 if they are equal.  A version with a local
// label sorts above the same version without one.
func (a Version) Cmp(b Version) int {
	if d := a.PublicVersion.Cmp(b.PublicVersion); d != 0 {
		return d
	}
	return cmpLocal(a, b)
}
