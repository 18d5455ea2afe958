// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep427 implements the wheel and sdist filename conventions.
//
// https://peps.python.org/pep-0427/#file-name-convention
package pep427

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/datawire/pypkg/pkg/pep425"
	"github.com/datawire/pypkg/pkg/pep440"
	"github.com/datawire/pypkg/pkg/pep503"
)

// InvalidWheelFilenameError is returned for a filename that does not follow
// the wheel naming convention.
type InvalidWheelFilenameError struct {
	Filename string
	Msg      string
}

func (e *InvalidWheelFilenameError) Error() string {
	return fmt.Sprintf("invalid wheel filename (%s): %q", e.Msg, e.Filename)
}

// InvalidSdistFilenameError is returned for a filename that does not follow
// the sdist naming convention.
type InvalidSdistFilenameError struct {
	Filename string
	Msg      string
}

func (e *InvalidSdistFilenameError) Error() string {
	return fmt.Sprintf("invalid sdist filename (%s): %q", e.Msg, e.Filename)
}

// BuildTag is the optional wheel build number: a leading integer and an
// optional trailing string.  The zero value means "no build tag".
type BuildTag struct {
	Num int
	Tag string
}

func (b BuildTag) isZero() bool {
	return b == BuildTag{}
}

func (b BuildTag) String() string {
	if b.isZero() {
		return ""
	}
	return strconv.Itoa(b.Num) + b.Tag
}

// The name field of a wheel filename has every run of problematic characters
// already escaped to "_", so these are the only characters that may appear
// in it.
var reWheelName = regexp.MustCompile(`^[A-Za-z0-9._]+$`)

// ParseWheelFilename splits a wheel filename
// "<name>-<version>[-<build>]-<interp>-<abi>-<plat>.whl" into its parts.
// The returned name is canonicalized; the tag triple is decompressed into
// the set of simple tags it denotes.
func ParseWheelFilename(filename string) (name string, ver pep440.Version, build BuildTag, tags []pep425.Tag, err error) {
	fail := func(msg string) (string, pep440.Version, BuildTag, []pep425.Tag, error) {
		return "", pep440.Version{}, BuildTag{}, nil,
			fmt.Errorf("pep427.ParseWheelFilename: %w", &InvalidWheelFilenameError{Filename: filename, Msg: msg})
	}

	if !strings.HasSuffix(filename, ".whl") {
		return fail("extension must be .whl")
	}
	stem := strings.TrimSuffix(filename, ".whl")
	parts := strings.Split(stem, "-")
	if len(parts) != 5 && len(parts) != 6 {
		return fail(fmt.Sprintf("expected 5 or 6 dash-separated fields, got %d", len(parts)))
	}

	if !reWheelName.MatchString(parts[0]) {
		return fail("project name contains unescaped characters")
	}
	name = pep503.Normalize(parts[0])

	verPtr, err := pep440.ParseVersion(parts[1])
	if err != nil {
		return fail(err.Error())
	}
	ver = *verPtr

	if len(parts) == 6 {
		build, err = parseBuildTag(parts[2])
		if err != nil {
			return fail(err.Error())
		}
	}

	tags = pep425.NewTag(parts[len(parts)-3], parts[len(parts)-2], parts[len(parts)-1]).Decompress()
	return name, ver, build, tags, nil
}

func parseBuildTag(str string) (BuildTag, error) {
	split := strings.IndexFunc(str, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	if split == 0 {
		return BuildTag{}, fmt.Errorf("build tag %q does not start with a digit", str)
	}
	if split < 0 {
		split = len(str)
	}
	num, err := strconv.Atoi(str[:split])
	if err != nil {
		return BuildTag{}, fmt.Errorf("build tag %q: %v", str, err)
	}
	return BuildTag{Num: num, Tag: str[split:]}, nil
}

var reUnsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

// WheelFilename constructs the filename for a wheel: the project name is
// escaped (every run of non-alphanumeric characters becomes "_"), the
// version is serialized canonically, and each position of the tag triple is
// compressed by sorting and dot-joining its distinct values.
func WheelFilename(name string, ver pep440.Version, build BuildTag, tags []pep425.Tag) string {
	fields := []string{
		reUnsafeNameChars.ReplaceAllLiteralString(name, "_"),
		ver.String(),
	}
	if !build.isZero() {
		fields = append(fields, build.String())
	}

	var interps, abis, platforms []string
	for _, compressed := range tags {
		for _, tag := range compressed.Decompress() {
			interps = appendUnique(interps, tag.Interpreter)
			abis = appendUnique(abis, tag.ABI)
			platforms = appendUnique(platforms, tag.Platform)
		}
	}
	sort.Strings(interps)
	sort.Strings(abis)
	sort.Strings(platforms)
	fields = append(fields,
		strings.Join(interps, "."),
		strings.Join(abis, "."),
		strings.Join(platforms, "."))

	return strings.Join(fields, "-") + ".whl"
}

func appendUnique(list []string, item string) []string {
	for _, have := range list {
		if have == item {
			return list
		}
	}
	return append(list, item)
}

// ParseSdistFilename splits an sdist filename "<name>-<version>.tar.gz" (or
// ".zip") into the canonicalized project name and the version.
func ParseSdistFilename(filename string) (name string, ver pep440.Version, err error) {
	fail := func(msg string) (string, pep440.Version, error) {
		return "", pep440.Version{},
			fmt.Errorf("pep427.ParseSdistFilename: %w", &InvalidSdistFilenameError{Filename: filename, Msg: msg})
	}

	var stem string
	switch {
	case strings.HasSuffix(filename, ".tar.gz"):
		stem = strings.TrimSuffix(filename, ".tar.gz")
	case strings.HasSuffix(filename, ".zip"):
		stem = strings.TrimSuffix(filename, ".zip")
	default:
		return fail("extension must be .tar.gz or .zip")
	}

	sep := strings.LastIndex(stem, "-")
	if sep < 1 {
		return fail("expected <name>-<version>")
	}
	verPtr, err := pep440.ParseVersion(stem[sep+1:])
	if err != nil {
		return fail(err.Error())
	}
	return pep503.Normalize(stem[:sep]), *verPtr, nil
}

// SdistFilename constructs the filename for a .tar.gz sdist, escaping the
// canonicalized project name the same way wheel filenames do.
func SdistFilename(name string, ver pep440.Version) string {
	escaped := strings.ReplaceAll(pep503.Normalize(name), "-", "_")
	return escaped + "-" + ver.String() + ".tar.gz"
}
