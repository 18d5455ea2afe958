// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep508 implements the PEP 508 dependency-specifier grammar:
// environment markers and complete requirement lines.
//
// https://peps.python.org/pep-0508/
package pep508

import (
	"fmt"
	"strings"

	"github.com/datawire/pypkg/pkg/pep440"
	"github.com/datawire/pypkg/pkg/pep503"
)

// MarkerNode is one node of a parsed marker expression: a Compare leaf, or
// an And/Or list.  Nodes are immutable after parsing.
type MarkerNode interface {
	writeTo(ret *strings.Builder)
	eval(env Environment, ctx EvalContext) (bool, error)
}

// Operand is one side of a marker comparison: either a reference to an
// environment variable (in canonical spelling) or a quoted string literal.
type Operand struct {
	Variable bool
	Text     string
}

func (o Operand) writeTo(ret *strings.Builder) {
	if o.Variable {
		ret.WriteString(o.Text)
		return
	}
	if strings.Contains(o.Text, `"`) {
		ret.WriteString(`'` + o.Text + `'`)
	} else {
		ret.WriteString(`"` + o.Text + `"`)
	}
}

// Compare is a single `<operand> <op> <operand>` comparison.
type Compare struct {
	Left  Operand
	Op    string // one of the eight version operators, "in", or "not in"
	Right Operand
}

func (c Compare) writeTo(ret *strings.Builder) {
	c.Left.writeTo(ret)
	ret.WriteString(" " + c.Op + " ")
	c.Right.writeTo(ret)
}

// And is a conjunction of marker expressions.
type And []MarkerNode

func (and And) writeTo(ret *strings.Builder) {
	for i, sub := range and {
		if i > 0 {
			ret.WriteString(" and ")
		}
		if _, isOr := sub.(Or); isOr {
			ret.WriteString("(")
			sub.writeTo(ret)
			ret.WriteString(")")
		} else {
			sub.writeTo(ret)
		}
	}
}

// Or is a disjunction of marker expressions.
type Or []MarkerNode

func (or Or) writeTo(ret *strings.Builder) {
	for i, sub := range or {
		if i > 0 {
			ret.WriteString(" or ")
		}
		sub.writeTo(ret)
	}
}

// Marker is a parsed environment marker.
type Marker struct {
	Node MarkerNode
}

// ParseMarker parses an environment-marker expression.
func ParseMarker(str string) (*Marker, error) {
	t := newTokenizer(str, markerRules)
	node, err := parseMarkerOr(t)
	if err != nil {
		return nil, fmt.Errorf("pep508.ParseMarker: %w", err)
	}
	if !t.atEnd() {
		return nil, fmt.Errorf("pep508.ParseMarker: %w", t.markerError("expected end of marker, got %q", t.context()))
	}
	return &Marker{Node: node}, nil
}

// String returns the canonical serialization; "or" groups nested under an
// "and" are parenthesized, everything else is flat.
func (m *Marker) String() string {
	var ret strings.Builder
	m.Node.writeTo(&ret)
	return ret.String()
}

// Evaluate runs the marker against an environment under the given context.
func (m *Marker) Evaluate(env Environment, ctx EvalContext) (bool, error) {
	ok, err := m.Node.eval(env, ctx)
	if err != nil {
		return false, fmt.Errorf("pep508: evaluate marker: %w", err)
	}
	return ok, nil
}

func (t *tokenizer) markerError(format string, args ...interface{}) error {
	return &InvalidMarkerError{Input: t.input, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

// expression → and_expr ("or" and_expr)*
func parseMarkerOr(t *tokenizer) (MarkerNode, error) {
	first, err := parseMarkerAnd(t)
	if err != nil {
		return nil, err
	}
	ret := Or{first}
	for {
		if tok, ok := t.read("BOOLOP"); ok {
			if tok.Text != "or" {
				// "and" belongs to the caller below us; rewind
				t.pos = tok.Pos
				break
			}
			sub, err := parseMarkerAnd(t)
			if err != nil {
				return nil, err
			}
			ret = append(ret, sub)
			continue
		}
		break
	}
	if len(ret) == 1 {
		return ret[0], nil
	}
	return ret, nil
}

// and_expr → term ("and" term)*
func parseMarkerAnd(t *tokenizer) (MarkerNode, error) {
	first, err := parseMarkerTerm(t)
	if err != nil {
		return nil, err
	}
	ret := And{first}
	for {
		if tok, ok := t.read("BOOLOP"); ok {
			if tok.Text != "and" {
				t.pos = tok.Pos
				break
			}
			sub, err := parseMarkerTerm(t)
			if err != nil {
				return nil, err
			}
			ret = append(ret, sub)
			continue
		}
		break
	}
	if len(ret) == 1 {
		return ret[0], nil
	}
	return ret, nil
}

// term → Compare | "(" expression ")"
func parseMarkerTerm(t *tokenizer) (MarkerNode, error) {
	if _, ok := t.read("LPAREN"); ok {
		sub, err := parseMarkerOr(t)
		if err != nil {
			return nil, err
		}
		if _, ok := t.read("RPAREN"); !ok {
			return nil, t.markerError("expected closing parenthesis, got %q", t.context())
		}
		return sub, nil
	}
	left, err := parseMarkerOperand(t)
	if err != nil {
		return nil, err
	}
	op, err := parseMarkerOp(t)
	if err != nil {
		return nil, err
	}
	right, err := parseMarkerOperand(t)
	if err != nil {
		return nil, err
	}
	return Compare{Left: left, Op: op, Right: right}, nil
}

func parseMarkerOperand(t *tokenizer) (Operand, error) {
	if tok, ok := t.read("QUOTED_STRING"); ok {
		return Operand{Text: tok.Text[1 : len(tok.Text)-1]}, nil
	}
	if tok, ok := t.read("VARIABLE"); ok {
		canonical, known := canonicalVariable(tok.Text)
		if !known {
			t.pos = tok.Pos
			return Operand{}, t.markerError("unknown environment marker variable %q", tok.Text)
		}
		return Operand{Variable: true, Text: canonical}, nil
	}
	return Operand{}, t.markerError("expected a quoted string or an environment marker variable, got %q", t.context())
}

func parseMarkerOp(t *tokenizer) (string, error) {
	if tok, ok := t.read("OP"); ok {
		return tok.Text, nil
	}
	if _, ok := t.read("IN"); ok {
		return "in", nil
	}
	if _, ok := t.read("NOT"); ok {
		if _, ok := t.read("IN"); !ok {
			return "", t.markerError(`expected "in" after "not", got %q`, t.context())
		}
		return "not in", nil
	}
	return "", t.markerError("expected a marker operator, got %q", t.context())
}

//
// Evaluation.
//

func (or Or) eval(env Environment, ctx EvalContext) (bool, error) {
	for _, sub := range or {
		ok, err := sub.eval(env, ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (and And) eval(env Environment, ctx EvalContext) (bool, error) {
	for _, sub := range and {
		ok, err := sub.eval(env, ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (c Compare) eval(env Environment, ctx EvalContext) (bool, error) {
	// The list-valued keys only participate in membership tests.
	if c.Op == "in" || c.Op == "not in" {
		ok, err := c.evalMembership(env, ctx)
		if err != nil {
			return false, err
		}
		if c.Op == "not in" {
			ok = !ok
		}
		return ok, nil
	}

	lhs, err := c.resolveScalar(c.Left, env)
	if err != nil {
		return false, err
	}
	rhs, err := c.resolveScalar(c.Right, env)
	if err != nil {
		return false, err
	}

	// Arbitrary equality never gets version semantics.
	if c.Op == "===" {
		return lhs == rhs, nil
	}

	if (c.Left.Variable && isVersionKey(c.Left.Text)) ||
		(c.Right.Variable && isVersionKey(c.Right.Text)) {
		spec, err := pep440.ParseSpecifier(c.Op + rhs)
		if err == nil {
			spec.Prereleases = pep440.PrereleasesAllow
			if ver, err := pep440.ParseVersion(lhs); err == nil {
				return spec.Contains(*ver), nil
			}
		}
		// One of the sides is not a PEP 440 version; equality degrades
		// to string comparison, ordered comparison is undefined.
		switch c.Op {
		case "==":
			return lhs == rhs, nil
		case "!=":
			return lhs != rhs, nil
		default:
			return c.undefinedComparison(lhs, rhs, ctx)
		}
	}

	switch c.Op {
	case "==":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case ">":
		return lhs > rhs, nil
	case ">=":
		return lhs >= rhs, nil
	case "~=":
		return c.undefinedComparison(lhs, rhs, ctx)
	default:
		return false, fmt.Errorf("invalid marker operator: %q", c.Op)
	}
}

// undefinedComparison applies the context rule: strict under metadata,
// false-not-error under requirement and lock_file.
func (c Compare) undefinedComparison(lhs, rhs string, ctx EvalContext) (bool, error) {
	if ctx == ContextMetadata {
		return false, &UndefinedComparisonError{Left: lhs, Op: c.Op, Right: rhs}
	}
	return false, nil
}

func (c Compare) evalMembership(env Environment, ctx EvalContext) (bool, error) {
	// <literal> in <list-key>: membership of the normalized name.
	if c.Right.Variable && isListKey(c.Right.Text) {
		needle, err := c.resolveScalar(c.Left, env)
		if err != nil {
			return false, err
		}
		needle = pep503.Normalize(needle)
		for _, item := range env.lookupList(c.Right.Text) {
			if pep503.Normalize(item) == needle {
				return true, nil
			}
		}
		return false, nil
	}
	if c.Left.Variable && isListKey(c.Left.Text) {
		// a list on the left of "in" has no defined meaning
		if ctx == ContextMetadata {
			return false, &UndefinedComparisonError{Left: c.Left.Text, Op: c.Op, Right: c.Right.Text}
		}
		return false, nil
	}
	// substring test
	lhs, err := c.resolveScalar(c.Left, env)
	if err != nil {
		return false, err
	}
	rhs, err := c.resolveScalar(c.Right, env)
	if err != nil {
		return false, err
	}
	return strings.Contains(rhs, lhs), nil
}

func (c Compare) resolveScalar(o Operand, env Environment) (string, error) {
	if !o.Variable {
		return o.Text, nil
	}
	return env.lookup(o.Text)
}
