package domain

import (
	"strconv"
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

// Constraint is a conjunction of version requirements on a registry package,
// e.g. ">=2.0,<3.0" or "^1.4". The zero value matches any version.
type Constraint struct {
	raw   string
	terms []constraintTerm
}

type constraintTerm struct {
	op      string // one of =, >, >=, <, <=
	version string // canonical semver with leading v
}

// AnyVersion matches every version.
var AnyVersion = Constraint{raw: "*"}

// ParseConstraint parses a comma-separated conjunction of requirements.
// Each requirement is an operator (=, >, >=, <, <=, ^, ~) followed by a
// version; a bare version means exact match and "*" matches anything.
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return AnyVersion, nil
	}

	c := Constraint{raw: s}
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		terms, err := parseTerm(part)
		if err != nil {
			return Constraint{}, err
		}
		c.terms = append(c.terms, terms...)
	}
	return c, nil
}

// MustParseConstraint is ParseConstraint for statically known inputs.
func MustParseConstraint(s string) Constraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseTerm(part string) ([]constraintTerm, error) {
	op := "="
	rest := part
	switch {
	case strings.HasPrefix(part, ">="), strings.HasPrefix(part, "<="):
		op, rest = part[:2], part[2:]
	case strings.HasPrefix(part, ">"), strings.HasPrefix(part, "<"), strings.HasPrefix(part, "="):
		op, rest = part[:1], part[1:]
	case strings.HasPrefix(part, "^"), strings.HasPrefix(part, "~"):
		op, rest = part[:1], part[1:]
	}

	v := canonicalVersion(strings.TrimSpace(rest))
	if v == "" {
		return nil, zerr.With(zerr.Wrap(ErrInvalidConstraint, "parsing version constraint"), "constraint", part)
	}

	switch op {
	case "^":
		return []constraintTerm{{op: ">=", version: v}, {op: "<", version: caretUpperBound(v)}}, nil
	case "~":
		return []constraintTerm{{op: ">=", version: v}, {op: "<", version: tildeUpperBound(v)}}, nil
	default:
		return []constraintTerm{{op: op, version: v}}, nil
	}
}

// canonicalVersion normalizes a user-facing version ("2.0", "v1.2.3") into
// canonical semver form with a leading v, or returns "" if it is not a version.
func canonicalVersion(s string) string {
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "v") {
		s = "v" + s
	}
	if !semver.IsValid(s) {
		return ""
	}
	return semver.Canonical(s)
}

func caretUpperBound(v string) string {
	major, minor, _ := versionParts(v)
	if major > 0 {
		return "v" + strconv.Itoa(major+1) + ".0.0"
	}
	return "v0." + strconv.Itoa(minor+1) + ".0"
}

func tildeUpperBound(v string) string {
	major, minor, _ := versionParts(v)
	return "v" + strconv.Itoa(major) + "." + strconv.Itoa(minor+1) + ".0"
}

func versionParts(v string) (major, minor, patch int) {
	parts := strings.SplitN(strings.TrimPrefix(semver.Canonical(v), "v"), ".", 3)
	if len(parts) > 0 {
		major, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		patch, _ = strconv.Atoi(parts[2])
	}
	return major, minor, patch
}

// Matches reports whether the given version satisfies every term.
// Versions that do not parse as semver only match empty constraints.
func (c Constraint) Matches(version string) bool {
	if len(c.terms) == 0 {
		return true
	}
	v := canonicalVersion(version)
	if v == "" {
		return false
	}
	for _, t := range c.terms {
		cmp := semver.Compare(v, t.version)
		ok := false
		switch t.op {
		case "=":
			ok = cmp == 0
		case ">":
			ok = cmp > 0
		case ">=":
			ok = cmp >= 0
		case "<":
			ok = cmp < 0
		case "<=":
			ok = cmp <= 0
		}
		if !ok {
			return false
		}
	}
	return true
}

// IsAny reports whether the constraint matches every version.
func (c Constraint) IsAny() bool {
	return len(c.terms) == 0
}

// String returns the constraint as declared.
func (c Constraint) String() string {
	if c.raw == "" {
		return "*"
	}
	return c.raw
}

// CompareVersions orders two registry versions, higher last. Non-semver
// versions sort below all valid ones, then lexically, so ordering stays total
// and deterministic.
func CompareVersions(a, b string) int {
	ca, cb := canonicalVersion(a), canonicalVersion(b)
	switch {
	case ca == "" && cb == "":
		return strings.Compare(a, b)
	case ca == "":
		return -1
	case cb == "":
		return 1
	default:
		if cmp := semver.Compare(ca, cb); cmp != 0 {
			return cmp
		}
		return strings.Compare(a, b)
	}
}
