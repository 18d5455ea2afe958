// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep508

import (
	"fmt"
	"net/url"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/datawire/pypkg/pkg/pep440"
	"github.com/datawire/pypkg/pkg/pep503"
)

// Requirement is a parsed PEP 508 dependency specifier:
//
//	name [ "[" extras "]" ] ( "@" url | specifier-set ) [ ";" marker ]
type Requirement struct {
	// Name is the project name as written (not normalized).
	Name string
	// Extras are the requested extras, stored canonicalized.
	Extras sets.String
	// URL is the direct-reference URL; when set, Specifier is empty.
	URL string
	// Specifier is the version constraint (possibly empty).
	Specifier pep440.SpecifierSet
	// Marker is the environment marker, or nil.
	Marker *Marker
}

// ParseRequirement parses a complete dependency line.
func ParseRequirement(str string) (*Requirement, error) {
	req, err := parseRequirement(str)
	if err != nil {
		return nil, fmt.Errorf("pep508.ParseRequirement: %w", err)
	}
	return req, nil
}

func (t *tokenizer) requirementError(format string, args ...interface{}) error {
	return &InvalidRequirementError{Input: t.input, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func parseRequirement(str string) (*Requirement, error) {
	t := newTokenizer(str, requirementRules)
	ret := &Requirement{Extras: sets.NewString()}

	name, ok := t.read("IDENTIFIER")
	if !ok {
		return nil, t.requirementError("expected package name, got %q", t.context())
	}
	ret.Name = name.Text

	if _, ok := t.read("LBRACKET"); ok {
		if err := parseExtras(t, ret.Extras); err != nil {
			return nil, err
		}
	}

	if _, ok := t.read("AT"); ok {
		urlTok, ok := t.read("URL")
		if !ok {
			return nil, t.requirementError("expected URL after @, got %q", t.context())
		}
		parsed, err := url.Parse(urlTok.Text)
		if err != nil || parsed.Scheme == "" {
			t.pos = urlTok.Pos
			return nil, t.requirementError("invalid URL %q: missing scheme", urlTok.Text)
		}
		ret.URL = urlTok.Text
	} else if t.check("SPECIFIER") || t.check("LPAREN") {
		// the version spec may be wrapped in a single pair of parentheses
		_, parens := t.read("LPAREN")
		_, specPos := t.rest()
		clause, ok := t.read("SPECIFIER")
		if !ok {
			return nil, t.requirementError("expected version specifier, got %q", t.context())
		}
		clauses := []string{clause.Text}
		for {
			if _, ok := t.read("COMMA"); !ok {
				break
			}
			clause, ok := t.read("SPECIFIER")
			if !ok {
				return nil, t.requirementError("expected version specifier after comma, got %q", t.context())
			}
			clauses = append(clauses, clause.Text)
		}
		if parens {
			if _, ok := t.read("RPAREN"); !ok {
				return nil, t.requirementError("expected closing parenthesis, got %q", t.context())
			}
		}
		spec, err := pep440.ParseSpecifierSet(strings.Join(clauses, ","))
		if err != nil {
			return nil, &InvalidRequirementError{Input: str, Pos: specPos, Msg: err.Error()}
		}
		ret.Specifier = spec
	}

	if _, ok := t.read("SEMICOLON"); ok {
		markerText, markerPos := t.rest()
		if markerText == "" {
			return nil, t.requirementError("expected marker after semicolon")
		}
		marker, err := ParseMarker(markerText)
		if err != nil {
			return nil, &InvalidRequirementError{Input: str, Pos: markerPos, Msg: err.Error()}
		}
		ret.Marker = marker
		t.advance(len(markerText))
	}

	if !t.atEnd() {
		return nil, t.requirementError("expected end or semicolon, got %q", t.context())
	}
	return ret, nil
}

func parseExtras(t *tokenizer, extras sets.String) error {
	if _, ok := t.read("RBRACKET"); ok {
		return nil
	}
	for {
		extra, ok := t.read("IDENTIFIER")
		if !ok {
			return t.requirementError("expected extra name, got %q", t.context())
		}
		extras.Insert(pep503.Normalize(extra.Text))
		if _, ok := t.read("COMMA"); ok {
			continue
		}
		if _, ok := t.read("RBRACKET"); ok {
			return nil
		}
		return t.requirementError("expected comma or closing bracket in extras, got %q", t.context())
	}
}

// String returns the canonical serialization: normalized-order extras, the
// canonical specifier-set form, and the canonical marker form.
func (req *Requirement) String() string {
	var ret strings.Builder
	ret.WriteString(req.Name)
	if req.Extras.Len() > 0 {
		ret.WriteString("[" + strings.Join(req.Extras.List(), ",") + "]")
	}
	switch {
	case req.URL != "":
		ret.WriteString("@ " + req.URL)
		if req.Marker != nil {
			ret.WriteString(" ")
		}
	default:
		ret.WriteString(req.Specifier.String())
	}
	if req.Marker != nil {
		ret.WriteString("; " + req.Marker.String())
	}
	return ret.String()
}

// Equal reports whether two requirements are the same dependency: same
// canonicalized name, extras, URL, specifier set, and marker.
func (req *Requirement) Equal(other *Requirement) bool {
	if req == nil || other == nil {
		return req == other
	}
	if pep503.Normalize(req.Name) != pep503.Normalize(other.Name) {
		return false
	}
	if !req.Extras.Equal(other.Extras) {
		return false
	}
	if req.URL != other.URL {
		return false
	}
	if req.Specifier.String() != other.Specifier.String() {
		return false
	}
	reqMarker, otherMarker := "", ""
	if req.Marker != nil {
		reqMarker = req.Marker.String()
	}
	if other.Marker != nil {
		otherMarker = other.Marker.String()
	}
	return reqMarker == otherMarker
}
