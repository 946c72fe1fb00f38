package security

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/safeclean/internal/config"
)

// Classification is the safety verdict for a path.
type Classification int

const (
	Allowed Classification = iota
	Personal
	Blocked
)

func (c Classification) String() string {
	switch c {
	case Allowed:
		return "allowed"
	case Personal:
		return "personal"
	case Blocked:
		return "blocked"
	}
	return "unknown"
}

// Match describes which kind of rule produced a verdict.
type Match int

const (
	MatchNone Match = iota
	// MatchPrefix: the path is a rule entry or lies beneath one.
	MatchPrefix
	// MatchExact: the path is an exact-refusal entry such as "/" or $HOME.
	MatchExact
	// MatchAncestor: the path contains a protected entry.
	MatchAncestor
)

// Verdict explains a classification.
type Verdict struct {
	Path     string
	Resolved string // set when symlink resolution changed the path
	Class    Classification
	Match    Match
	Rule     string // the rule entry that matched
}

// Inside reports whether the path lies within a protected subtree, in which
// case nothing beneath it may be visited either.
func (v Verdict) Inside() bool {
	return v.Class != Allowed && v.Match == MatchPrefix
}

// Classifier decides whether a path may be offered for cleanup.
// It is safe for concurrent use.
type Classifier struct {
	blocked  []string
	personal []string
	exact    []string
	fold     bool
}

// NewClassifier canonicalises the rule entries once. Each entry is kept in
// its cleaned form and, when it exists, its symlink-resolved form, so
// /tmp and /private/tmp are both covered on macOS.
func NewClassifier(r Rules) *Classifier {
	c := &Classifier{fold: r.CaseInsensitive}
	c.blocked = c.canonical(r.Blocked)
	c.personal = c.canonical(r.Personal)
	c.exact = c.canonical(r.Exact)
	return c
}

func (c *Classifier) canonical(entries []string) []string {
	seen := make(map[string]bool, len(entries))
	var out []string
	add := func(p string) {
		p = c.key(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, e := range entries {
		if !filepath.IsAbs(e) {
			continue
		}
		clean := filepath.Clean(e)
		add(clean)
		if resolved, err := filepath.EvalSymlinks(clean); err == nil && resolved != clean {
			add(resolved)
		}
	}
	return out
}

func (c *Classifier) key(p string) string {
	if c.fold {
		return strings.ToLower(p)
	}
	return p
}

// Classify returns the verdict class for path under the given settings.
func (c *Classifier) Classify(path string, s config.Settings) Classification {
	return c.Explain(path, s).Class
}

// Explain classifies path and reports the rule responsible. Relative paths
// cannot be classified and are Blocked. The path is cleaned first, so
// "/home/u/Downloads/../../../etc" is judged as "/etc". Symlinks are
// resolved only when s.FollowSymlinks is set; the stricter of the literal
// and the resolved verdicts wins.
func (c *Classifier) Explain(path string, s config.Settings) Verdict {
	if !filepath.IsAbs(path) {
		return Verdict{Path: path, Class: Blocked, Match: MatchPrefix, Rule: "relative path"}
	}
	clean := filepath.Clean(path)
	v := c.match(clean)
	if s.FollowSymlinks {
		v = c.stricter(v, resolveExisting(clean))
	}
	return v
}

// ExplainResolved is Explain plus a check of the path with its parent
// directories resolved, regardless of FollowSymlinks. It catches a
// directory swapped for a symlink between scan and deletion.
func (c *Classifier) ExplainResolved(path string, s config.Settings) Verdict {
	v := c.Explain(path, s)
	if !filepath.IsAbs(path) {
		return v
	}
	clean := filepath.Clean(path)
	parent := resolveExisting(filepath.Dir(clean))
	return c.stricter(v, filepath.Join(parent, filepath.Base(clean)))
}

// Admits reports whether a path of class cls may be offered for cleanup.
func Admits(cls Classification, s config.Settings) bool {
	switch cls {
	case Allowed:
		return true
	case Personal:
		return s.AllowPersonalFolders
	}
	return false
}

func (c *Classifier) stricter(v Verdict, resolved string) Verdict {
	if resolved == v.Path {
		return v
	}
	rv := c.match(resolved)
	if rv.Class > v.Class {
		rv.Path = v.Path
		rv.Resolved = resolved
		return rv
	}
	return v
}

// match applies Blocked > Personal > Allowed to a cleaned absolute path.
func (c *Classifier) match(p string) Verdict {
	k := c.key(p)
	v := Verdict{Path: p, Class: Allowed}

	if rule, ok := within(k, c.blocked); ok {
		v.Class, v.Match, v.Rule = Blocked, MatchPrefix, rule
		return v
	}
	for _, e := range c.exact {
		if k == e {
			v.Class, v.Match, v.Rule = Blocked, MatchExact, e
			return v
		}
	}
	if rule, ok := contains(k, c.blocked); ok {
		v.Class, v.Match, v.Rule = Blocked, MatchAncestor, rule
		return v
	}
	if rule, ok := within(k, c.personal); ok {
		v.Class, v.Match, v.Rule = Personal, MatchPrefix, rule
		return v
	}
	if rule, ok := contains(k, c.personal); ok {
		v.Class, v.Match, v.Rule = Personal, MatchAncestor, rule
		return v
	}
	return v
}

// within reports the first entry that p equals or lies beneath.
func within(p string, entries []string) (string, bool) {
	for _, e := range entries {
		if isWithin(p, e) {
			return e, true
		}
	}
	return "", false
}

// contains reports the first entry lying strictly beneath p.
func contains(p string, entries []string) (string, bool) {
	for _, e := range entries {
		if e != p && isWithin(e, p) {
			return e, true
		}
	}
	return "", false
}

func isWithin(p, dir string) bool {
	if p == dir {
		return true
	}
	if dir == string(filepath.Separator) {
		return strings.HasPrefix(p, dir)
	}
	return strings.HasPrefix(p, dir+string(filepath.Separator))
}

// resolveExisting resolves symlinks in the longest existing ancestor of p
// and re-appends the remainder.
func resolveExisting(p string) string {
	rest := ""
	cur := p
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(resolved, rest)
		} else if !os.IsNotExist(err) {
			return p
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}
