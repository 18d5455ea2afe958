// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep425

import (
	"fmt"
)

// Platform-tag enumeration.  Each function returns platform strings ordered
// most-specific-first, ready to feed into the tag constructors.  Detecting
// the local OS/glibc/musl/SDK versions is the platform probe's job; these
// functions only know the grammars and the enumeration orders.

// MacOSVersion is a macOS release number.
type MacOSVersion struct {
	Major int
	Minor int
}

// macBinaryFormats lists the binary formats a CPU architecture can run on
// the given macOS release, most specific first.
func macBinaryFormats(version MacOSVersion, cpuArch string) []string {
	formats := []string{cpuArch}
	switch cpuArch {
	case "x86_64":
		if version.Major == 10 && version.Minor < 4 {
			return nil
		}
		formats = append(formats, "intel", "fat64", "fat32")
	case "i386":
		if version.Major == 10 && version.Minor < 4 {
			return nil
		}
		formats = append(formats, "intel", "fat32", "fat")
	case "ppc64":
		if version.Major != 10 || version.Minor != 4 && version.Minor != 5 {
			return nil
		}
		formats = append(formats, "fat64")
	case "ppc":
		if version.Major != 10 || version.Minor > 6 {
			return nil
		}
		formats = append(formats, "fat32", "fat")
	}
	switch cpuArch {
	case "arm64", "x86_64":
		formats = append(formats, "universal2")
	}
	switch cpuArch {
	case "arm64", "x86_64", "i386", "ppc64", "ppc", "intel":
		formats = append(formats, "universal")
	}
	return formats
}

// MacPlatforms enumerates the "macosx_<major>_<minor>_<arch>" platform tags
// compatible with the given macOS release and architecture, newest first.
// From macOS 11 on, only major releases matter and the minor component of
// the tag is always 0; the 10.x line is enumerated down to 10_0.
func MacPlatforms(version MacOSVersion, arch string) []string {
	var ret []string
	emit := func(compat MacOSVersion) {
		for _, binFmt := range macBinaryFormats(compat, arch) {
			ret = append(ret, fmt.Sprintf("macosx_%d_%d_%s", compat.Major, compat.Minor, binFmt))
		}
	}
	if version.Major >= 11 {
		for major := version.Major; major >= 11; major-- {
			emit(MacOSVersion{Major: major, Minor: 0})
		}
		// Big Sur reported itself as 10.16 to processes built against
		// older SDKs, so that tag exists in the wild too.
		for minor := 16; minor >= 0; minor-- {
			emit(MacOSVersion{Major: 10, Minor: minor})
		}
		return ret
	}
	for minor := version.Minor; minor >= 0; minor-- {
		emit(MacOSVersion{Major: 10, Minor: minor})
	}
	return ret
}

// GlibcVersion is a glibc release number.
type GlibcVersion struct {
	Major int
	Minor int
}

// MuslVersion is a musl libc release number.
type MuslVersion struct {
	Major int
	Minor int
}

// ManylinuxPolicy can veto individual manylinux tags.  It stands in for the
// "_manylinux" module hook: a distribution may declare that, although the
// glibc version looks compatible, a particular (major, minor, arch) triple
// is not.  A nil policy vetoes nothing.
type ManylinuxPolicy interface {
	Compatible(major, minor int, arch string) bool
}

// legacyManylinuxAliases maps the glibc version implied by the legacy
// manylinux tags to their alias names.
var legacyManylinuxAliases = map[GlibcVersion]string{
	{2, 17}: "manylinux2014",
	{2, 12}: "manylinux2010",
	{2, 5}:  "manylinux1",
}

// legacyManylinuxArchs lists the architectures each legacy alias was defined
// for.
var legacyManylinuxArchs = map[string]map[string]struct{}{
	"manylinux2014": {
		"x86_64": {}, "i686": {}, "aarch64": {}, "armv7l": {},
		"ppc64": {}, "ppc64le": {}, "s390x": {},
	},
	"manylinux2010": {"x86_64": {}, "i686": {}},
	"manylinux1":    {"x86_64": {}, "i686": {}},
}

// ManylinuxPlatforms enumerates the "manylinux_<major>_<minor>_<arch>"
// platform tags supported by the given glibc, newest first, interleaving the
// legacy "manylinux2014"/"manylinux2010"/"manylinux1" aliases right after
// the PEP 600 tag they correspond to.  The policy (if non-nil) may veto
// individual glibc versions per architecture.
func ManylinuxPlatforms(glibc GlibcVersion, archs []string, policy ManylinuxPolicy) []string {
	var ret []string
	for _, arch := range archs {
		if glibc.Major != 2 {
			continue
		}
		for minor := glibc.Minor; minor >= 0; minor-- {
			if policy != nil && !policy.Compatible(glibc.Major, minor, arch) {
				continue
			}
			ret = append(ret, fmt.Sprintf("manylinux_%d_%d_%s", glibc.Major, minor, arch))
			if alias, ok := legacyManylinuxAliases[GlibcVersion{glibc.Major, minor}]; ok {
				if _, ok := legacyManylinuxArchs[alias][arch]; ok {
					ret = append(ret, alias+"_"+arch)
				}
			}
		}
	}
	return ret
}

// MusllinuxPlatforms enumerates the "musllinux_<major>_<minor>_<arch>"
// platform tags supported by the given musl libc, newest first.
func MusllinuxPlatforms(musl MuslVersion, archs []string) []string {
	var ret []string
	for _, arch := range archs {
		for minor := musl.Minor; minor >= 0; minor-- {
			ret = append(ret, fmt.Sprintf("musllinux_%d_%d_%s", musl.Major, minor, arch))
		}
	}
	return ret
}

// WindowsPlatforms returns the platform tag(s) for a Windows machine ABI.
func WindowsPlatforms(machine string) []string {
	switch machine {
	case "x86", "i386", "i686":
		return []string{"win32"}
	case "amd64", "x86_64":
		return []string{"win_amd64"}
	case "arm64", "aarch64":
		return []string{"win_arm64"}
	default:
		return []string{"win_" + machine}
	}
}

// IOSVersion is an iOS release number.
type IOSVersion struct {
	Major int
	Minor int
}

// IOSPlatforms enumerates the PEP 730 "ios_<major>_<minor>_<multiarch>"
// platform tags, newest first, down to ios_12_0.  The multiarch combines the
// architecture and the SDK, e.g. "arm64_iphoneos" or
// "x86_64_iphonesimulator".
func IOSPlatforms(version IOSVersion, multiarch string) []string {
	var ret []string
	for major := version.Major; major >= 12; major-- {
		maxMinor := 9
		if major == version.Major {
			maxMinor = version.Minor
		}
		for minor := maxMinor; minor >= 0; minor-- {
			ret = append(ret, fmt.Sprintf("ios_%d_%d_%s", major, minor, multiarch))
		}
	}
	return ret
}

// AndroidPlatforms enumerates the PEP 738 "android_<apilevel>_<abi>"
// platform tags, newest first, down to the minimum supported API level 21.
func AndroidPlatforms(apiLevel int, abi string) []string {
	var ret []string
	for level := apiLevel; level >= 21; level-- {
		ret = append(ret, fmt.Sprintf("android_%d_%s", level, abi))
	}
	return ret
}
