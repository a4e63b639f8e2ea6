// Package pathmatch implements the glob-style predicate shared by the
// scanner and every analyzer: a single `*` wildcard, case-insensitive,
// anchored at both ends of the candidate name.
package pathmatch

import (
	"regexp"
	"strings"
	"sync"
)

// Pattern is a compiled glob pattern. Zero value is not usable; use Compile.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// Compile turns a glob pattern (with `*` wildcards) into a Pattern.
// Regex metacharacters other than `*` are escaped literally before `*`
// is expanded to `.*`, and the result is anchored with ^...$ and matched
// case-insensitively.
func Compile(pattern string) (Pattern, error) {
	escaped := regexp.QuoteMeta(pattern)
	// QuoteMeta escapes '*' to '\*'; unescape it back to the wildcard token.
	escaped = strings.ReplaceAll(escaped, `\*`, `.*`)
	re, err := regexp.Compile("(?i)^" + escaped + "$")
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{raw: pattern, re: re}, nil
}

// MustCompile is like Compile but panics on error. Intended for patterns
// baked into defaults, not for user-supplied config.
func MustCompile(pattern string) Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether name satisfies the pattern.
func (p Pattern) Match(name string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(name)
}

// String returns the original glob pattern.
func (p Pattern) String() string { return p.raw }

// Set is a compiled list of patterns with an any-match test. Compiled
// patterns are cached per raw pattern string, so repeated config reads
// don't recompile identical patterns.
type Set struct {
	patterns []Pattern
}

var compileCache sync.Map // map[string]Pattern

// CompileSet compiles a list of glob patterns, reusing previously compiled
// patterns for identical raw strings.
func CompileSet(patterns []string) (Set, error) {
	out := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		if cached, ok := compileCache.Load(raw); ok {
			out = append(out, cached.(Pattern))
			continue
		}
		p, err := Compile(raw)
		if err != nil {
			return Set{}, err
		}
		compileCache.Store(raw, p)
		out = append(out, p)
	}
	return Set{patterns: out}, nil
}

// MatchAny reports whether name matches any pattern in the set.
func (s Set) MatchAny(name string) bool {
	for _, p := range s.patterns {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// Len reports the number of compiled patterns in the set.
func (s Set) Len() int { return len(s.patterns) }
