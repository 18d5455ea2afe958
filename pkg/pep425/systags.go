// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep425

import (
	"fmt"
)

// System describes the interpreter an installer runs under, as reported by
// the platform probe.  SysTags turns it into the ordered tag list.
type System struct {
	// Implementation is the two-letter interpreter code: "cp" for
	// CPython, "pp" for PyPy, or anything else for other interpreters.
	Implementation string
	// InterpreterTag is the full interpreter tag, e.g. "cp311" or
	// "pp373".
	InterpreterTag string
	// PythonVersion is the (major, minor) language version.
	PythonVersion [2]int
	// ABIs are the supported ABI tags, most-preferred first (e.g.
	// ["cp311"]); "abi3" and "none" need not be listed.
	ABIs []string
	// Platforms are the supported platform tags, most-specific first,
	// from the enumeration functions in this package.
	Platforms []string
}

func versionNodot(version [2]int) string {
	return fmt.Sprintf("%d%d", version[0], version[1])
}

// CPythonTags yields the CPython tag sequence: the current interpreter with
// each ABI, then "abi3", then "none", and finally "abi3" wheels built for
// every older minor version down to 3.2.
func CPythonTags(version [2]int, abis, platforms []string) []Tag {
	interpreter := "cp" + versionNodot(version)
	abi3 := version[0] == 3 && version[1] >= 2

	filtered := make([]string, 0, len(abis))
	for _, abi := range abis {
		if abi == "abi3" || abi == "none" {
			continue
		}
		filtered = append(filtered, abi)
	}

	var ret []Tag
	for _, abi := range filtered {
		for _, platform := range platforms {
			ret = append(ret, NewTag(interpreter, abi, platform))
		}
	}
	if abi3 {
		for _, platform := range platforms {
			ret = append(ret, NewTag(interpreter, "abi3", platform))
		}
	}
	for _, platform := range platforms {
		ret = append(ret, NewTag(interpreter, "none", platform))
	}
	if abi3 {
		for minor := version[1] - 1; minor >= 2; minor-- {
			for _, platform := range platforms {
				ret = append(ret, NewTag("cp"+versionNodot([2]int{version[0], minor}), "abi3", platform))
			}
		}
	}
	return ret
}

// GenericTags yields the tag sequence for a non-CPython interpreter: the
// interpreter tag with each ABI, then with "none" if not already listed.
func GenericTags(interpreterTag string, abis, platforms []string) []Tag {
	sawNone := false
	var ret []Tag
	for _, abi := range abis {
		if abi == "none" {
			sawNone = true
		}
		for _, platform := range platforms {
			ret = append(ret, NewTag(interpreterTag, abi, platform))
		}
	}
	if !sawNone {
		for _, platform := range platforms {
			ret = append(ret, NewTag(interpreterTag, "none", platform))
		}
	}
	return ret
}

// PyPyTags is GenericTags with the PyPy interpreter tag.
func PyPyTags(interpreterTag string, abis, platforms []string) []Tag {
	return GenericTags(interpreterTag, abis, platforms)
}

// pyInterpreterRange yields "py<M><m>", "py<M>", then "py<M><k>" for every
// k below m.
func pyInterpreterRange(version [2]int) []string {
	ret := []string{
		"py" + versionNodot(version),
		fmt.Sprintf("py%d", version[0]),
	}
	for minor := version[1] - 1; minor >= 0; minor-- {
		ret = append(ret, "py"+versionNodot([2]int{version[0], minor}))
	}
	return ret
}

// CompatibleTags yields the pure-Python fallback sequence:
// "py*-none-<platform>" for each platform, then "<interpreter>-none-any",
// then "py*-none-any".
func CompatibleTags(version [2]int, interpreterTag string, platforms []string) []Tag {
	var ret []Tag
	for _, py := range pyInterpreterRange(version) {
		for _, platform := range platforms {
			ret = append(ret, NewTag(py, "none", platform))
		}
	}
	if interpreterTag != "" {
		ret = append(ret, NewTag(interpreterTag, "none", "any"))
	}
	for _, py := range pyInterpreterRange(version) {
		ret = append(ret, NewTag(py, "none", "any"))
	}
	return ret
}

// SysTags returns the full supported-tag sequence for a system, ordered from
// the most-specific tag to the least-specific one.
func SysTags(sys System) []Tag {
	var ret []Tag
	switch sys.Implementation {
	case "cp":
		ret = CPythonTags(sys.PythonVersion, sys.ABIs, sys.Platforms)
	default:
		ret = GenericTags(sys.InterpreterTag, sys.ABIs, sys.Platforms)
	}

	compatInterp := ""
	switch sys.Implementation {
	case "cp":
		compatInterp = "cp" + versionNodot(sys.PythonVersion)
	case "pp":
		compatInterp = fmt.Sprintf("pp%d", sys.PythonVersion[0])
	}
	return append(ret, CompatibleTags(sys.PythonVersion, compatInterp, sys.Platforms)...)
}
