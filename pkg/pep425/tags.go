// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep425 implements PEP 425 compatibility tags and the platform-tag
// grammars that feed them (manylinux, musllinux, macOS, Windows, iOS, and
// Android shapes).
//
// https://peps.python.org/pep-0425/
package pep425

import (
	"fmt"
	"sort"
	"strings"
)

// Tag is one interpreter/ABI/platform compatibility triple.  The fields are
// stored lowercased; a Tag is fully determined by its three fields.
type Tag struct {
	Interpreter string
	ABI         string
	Platform    string
}

// NewTag builds a Tag, lowercasing each field.
func NewTag(interpreter, abi, platform string) Tag {
	return Tag{
		Interpreter: strings.ToLower(interpreter),
		ABI:         strings.ToLower(abi),
		Platform:    strings.ToLower(platform),
	}
}

func (t Tag) String() string {
	return t.Interpreter + "-" + t.ABI + "-" + t.Platform
}

// Decompress expands a compressed tag set: each field may hold several
// dot-separated alternates, and the result is their cartesian product.
func (t Tag) Decompress() []Tag {
	var ret []Tag
	for _, x := range strings.Split(t.Interpreter, ".") {
		for _, y := range strings.Split(t.ABI, ".") {
			for _, z := range strings.Split(t.Platform, ".") {
				ret = append(ret, Tag{x, y, z})
			}
		}
	}
	return ret
}

// ParseTag parses a (possibly compressed) tag string such as
// "py2.py3-none-any" into the set of simple tags it denotes.
func ParseTag(str string) ([]Tag, error) {
	parts := strings.Split(str, "-")
	if len(parts) != 3 {
		return nil, fmt.Errorf("pep425.ParseTag: invalid tag: %q", str)
	}
	for _, part := range parts {
		if part == "" || strings.Contains(part, "..") ||
			strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") {
			return nil, fmt.Errorf("pep425.ParseTag: invalid tag: %q", str)
		}
	}
	return NewTag(parts[0], parts[1], parts[2]).Decompress(), nil
}

// Sort orders tags lexicographically by interpreter, then ABI, then
// platform, in place.
func Sort(tags []Tag) {
	sort.Slice(tags, func(i, j int) bool {
		a, b := tags[i], tags[j]
		if a.Interpreter != b.Interpreter {
			return a.Interpreter < b.Interpreter
		}
		if a.ABI != b.ABI {
			return a.ABI < b.ABI
		}
		return a.Platform < b.Platform
	})
}

// Intersect reports whether any tag in tag-list 'a' matches any tag in
// tag-list 'b', considering compressed tag sets.
func Intersect(a, b []Tag) bool {
	for _, a1 := range a {
		for _, a2 := range a1.Decompress() {
			for _, b1 := range b {
				for _, b2 := range b1.Decompress() {
					if a2 == b2 {
						return true
					}
				}
			}
		}
	}
	return false
}

// Installer is a list of tags that an installer supports, ordered from
// most-preferred to least-preferred, as produced by SysTags.
type Installer []Tag

func (inst Installer) Supports(t Tag) bool {
	return Intersect([]Tag(inst), []Tag{t})
}

// Preference returns a numeric representation of how much this Tag is
// preferred by the installer; lower values are more preferred.  The returned
// value is in the range [1,len(inst)+1]; the zero value is safe to use as
// "unset".
func (inst Installer) Preference(t Tag) int {
	for i, it := range inst {
		if Intersect([]Tag{it}, []Tag{t}) {
			return i + 1
		}
	}
	return len(inst) + 1
}
