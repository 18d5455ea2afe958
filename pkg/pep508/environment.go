// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep508

// The marker variables form a closed set.  The canonical names are the PEP
// 508 environment keys plus the PEP 751 list-valued additions; a handful of
// deprecated spellings from the setuptools era map onto them.

var markerVariables = map[string]struct{}{
	"implementation_name":            {},
	"implementation_version":         {},
	"os_name":                        {},
	"platform_machine":               {},
	"platform_release":               {},
	"platform_system":                {},
	"platform_version":               {},
	"python_full_version":            {},
	"platform_python_implementation": {},
	"python_version":                 {},
	"sys_platform":                   {},
	"extra":                          {},
	"extras":                         {},
	"dependency_groups":              {},
}

var markerVariableAliases = map[string]string{
	"os.name":                        "os_name",
	"sys.platform":                   "sys_platform",
	"platform.version":               "platform_version",
	"platform.machine":               "platform_machine",
	"platform.python_implementation": "platform_python_implementation",
	"python_implementation":          "platform_python_implementation",
}

// canonicalVariable resolves deprecated alias spellings and reports whether
// the name is a known marker variable at all.
func canonicalVariable(name string) (string, bool) {
	if canonical, ok := markerVariableAliases[name]; ok {
		return canonical, true
	}
	_, ok := markerVariables[name]
	return name, ok
}

// versionKeys are the variables whose comparisons go through the PEP 440
// version ordering when both operands parse as versions.
var versionKeys = map[string]struct{}{
	"python_version":         {},
	"python_full_version":    {},
	"implementation_version": {},
	"platform_release":       {},
	"platform_version":       {},
}

func isVersionKey(name string) bool {
	_, ok := versionKeys[name]
	return ok
}

// listKeys are the PEP 751 variables whose environment value is a list of
// normalized names rather than a string.
var listKeys = map[string]struct{}{
	"extras":            {},
	"dependency_groups": {},
}

func isListKey(name string) bool {
	_, ok := listKeys[name]
	return ok
}

// EvalContext selects the strictness rules markers are evaluated under.
type EvalContext int

const (
	// ContextMetadata: core-metadata markers; comparisons that are not
	// meaningful raise UndefinedComparisonError.
	ContextMetadata EvalContext = iota
	// ContextLockFile: pylock markers; meaningless ordered comparisons
	// evaluate to false instead of raising.
	ContextLockFile
	// ContextRequirement: requirement-line markers; same leniency as
	// ContextLockFile.
	ContextRequirement
)

func (ctx EvalContext) String() string {
	switch ctx {
	case ContextMetadata:
		return "metadata"
	case ContextLockFile:
		return "lock_file"
	case ContextRequirement:
		return "requirement"
	default:
		return "EvalContext(?)"
	}
}

// Environment supplies the values markers are evaluated against.  Variables
// holds the scalar keys; the two PEP 751 list-valued keys have their own
// fields.  Producing a fully-populated default environment by inspecting the
// running interpreter is the platform probe's job, not this package's.
type Environment struct {
	// Variables maps canonical scalar variable names to their values.
	Variables map[string]string
	// Extras is the value of the list-valued "extras" key.
	Extras []string
	// DependencyGroups is the value of the list-valued
	// "dependency_groups" key.
	DependencyGroups []string
}

// lookup resolves a scalar variable.  "extra" defaults to the empty string
// so that `extra == "x"` is simply false when no extra was requested; every
// other missing key is an UndefinedEnvironmentNameError.
func (env Environment) lookup(name string) (string, error) {
	if val, ok := env.Variables[name]; ok {
		return val, nil
	}
	if name == "extra" {
		return "", nil
	}
	return "", &UndefinedEnvironmentNameError{Name: name}
}

func (env Environment) lookupList(name string) []string {
	switch name {
	case "extras":
		return env.Extras
	case "dependency_groups":
		return env.DependencyGroups
	default:
		return nil
	}
}
