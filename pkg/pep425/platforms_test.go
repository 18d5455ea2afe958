// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep425_test

import (
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/datawire/pypkg/pkg/pep425"
	"github.com/datawire/pypkg/pkg/testutil"
)

type platformVectors struct {
	Manylinux []struct {
		Glibc  string   `yaml:"glibc"`
		Archs  []string `yaml:"archs"`
		Expect []string `yaml:"expect"`
	} `yaml:"manylinux"`
	Musllinux []struct {
		Musl   string   `yaml:"musl"`
		Archs  []string `yaml:"archs"`
		Expect []string `yaml:"expect"`
	} `yaml:"musllinux"`
	Mac []struct {
		Version string   `yaml:"version"`
		Arch    string   `yaml:"arch"`
		Expect  []string `yaml:"expect"`
	} `yaml:"mac"`
	IOS []struct {
		Version   string   `yaml:"version"`
		Multiarch string   `yaml:"multiarch"`
		Expect    []string `yaml:"expect"`
	} `yaml:"ios"`
	Android []struct {
		API    int      `yaml:"api"`
		ABI    string   `yaml:"abi"`
		Expect []string `yaml:"expect"`
	} `yaml:"android"`
	Windows []struct {
		Machine string   `yaml:"machine"`
		Expect  []string `yaml:"expect"`
	} `yaml:"windows"`
}

func splitVersion(t *testing.T, str string) (int, int) {
	t.Helper()
	parts := strings.SplitN(str, ".", 2)
	require.Len(t, parts, 2)
	major, err := strconv.Atoi(parts[0])
	require.NoError(t, err)
	minor, err := strconv.Atoi(parts[1])
	require.NoError(t, err)
	return major, minor
}

func loadPlatformVectors(t *testing.T) platformVectors {
	t.Helper()
	content, err := os.ReadFile("testdata/platforms.yaml")
	require.NoError(t, err)
	var vectors platformVectors
	require.NoError(t, yaml.UnmarshalStrict(content, &vectors))
	return vectors
}

func TestPlatformEnumeration(t *testing.T) {
	t.Parallel()
	vectors := loadPlatformVectors(t)

	t.Run("manylinux", func(t *testing.T) {
		t.Parallel()
		for _, tc := range vectors.Manylinux {
			major, minor := splitVersion(t, tc.Glibc)
			act := pep425.ManylinuxPlatforms(
				pep425.GlibcVersion{Major: major, Minor: minor}, tc.Archs, nil)
			testutil.AssertEqualList(t, tc.Expect, act)
		}
	})
	t.Run("musllinux", func(t *testing.T) {
		t.Parallel()
		for _, tc := range vectors.Musllinux {
			major, minor := splitVersion(t, tc.Musl)
			act := pep425.MusllinuxPlatforms(
				pep425.MuslVersion{Major: major, Minor: minor}, tc.Archs)
			testutil.AssertEqualList(t, tc.Expect, act)
		}
	})
	t.Run("mac", func(t *testing.T) {
		t.Parallel()
		for _, tc := range vectors.Mac {
			major, minor := splitVersion(t, tc.Version)
			act := pep425.MacPlatforms(
				pep425.MacOSVersion{Major: major, Minor: minor}, tc.Arch)
			testutil.AssertEqualList(t, tc.Expect, act)
		}
	})
	t.Run("ios", func(t *testing.T) {
		t.Parallel()
		for _, tc := range vectors.IOS {
			major, minor := splitVersion(t, tc.Version)
			act := pep425.IOSPlatforms(
				pep425.IOSVersion{Major: major, Minor: minor}, tc.Multiarch)
			testutil.AssertEqualList(t, tc.Expect, act)
		}
	})
	t.Run("android", func(t *testing.T) {
		t.Parallel()
		for _, tc := range vectors.Android {
			act := pep425.AndroidPlatforms(tc.API, tc.ABI)
			testutil.AssertEqualList(t, tc.Expect, act)
		}
	})
	t.Run("windows", func(t *testing.T) {
		t.Parallel()
		for _, tc := range vectors.Windows {
			act := pep425.WindowsPlatforms(tc.Machine)
			testutil.AssertEqualList(t, tc.Expect, act)
		}
	})
}

type vetoOldGlibc struct {
	MinMinor int
}

func (v vetoOldGlibc) Compatible(major, minor int, arch string) bool {
	return minor >= v.MinMinor
}

func TestManylinuxPolicy(t *testing.T) {
	t.Parallel()
	act := pep425.ManylinuxPlatforms(
		pep425.GlibcVersion{Major: 2, Minor: 18},
		[]string{"x86_64"},
		vetoOldGlibc{MinMinor: 17})
	testutil.AssertEqualList(t, []string{
		"manylinux_2_18_x86_64",
		"manylinux_2_17_x86_64",
		"manylinux2014_x86_64",
	}, act)
}
