package osc

import (
	"errors"
	"fmt"
	"strings"
)

// Pattern is a compiled OSC address pattern, as carried in a subscription:
// "?" matches exactly one character, "*" matches any run of characters
// (including none), "[abc]"/"[a-z]"/"[!x]" match character classes, and
// anything else matches itself. A match must consume the entire address;
// there is no prefix matching.
type Pattern struct {
	matchers []matcher
}

// ParsePattern compiles a pattern string.
func ParsePattern(s string) (Pattern, error) {
	var p Pattern
	for len(s) > 0 {
		m, rest, err := parseMatcher(s)
		if err != nil {
			return Pattern{}, fmt.Errorf("parsing pattern: %w", err)
		}
		p.matchers = append(p.matchers, m)
		s = rest
	}
	return p, nil
}

// MustParsePattern is ParsePattern that panics on error, for patterns
// known at compile time.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether the pattern matches all of addr. Wildcards
// backtrack: each "*" tries every split of the remaining input until one
// works or the alternatives run out.
func (p Pattern) Match(addr []byte) bool {
	states := []*matchState{{p.matchers, addr}}
	for len(states) > 0 {
		var s *matchState
		l := len(states) - 1
		s, states = states[l], states[:l]
		next, accept := s.match()
		if accept {
			return true
		}
		states = append(states, next...)
	}
	return false
}

func (p Pattern) String() string {
	var sb strings.Builder
	for _, m := range p.matchers {
		sb.WriteString(m.String())
	}
	return sb.String()
}

type matchState struct {
	matchers []matcher
	addr     []byte
}

func (m *matchState) match() (next []*matchState, accept bool) {
	if len(m.addr) == 0 {
		// Input is exhausted: accept only if every remaining matcher
		// can match nothing, which only "*" can.
		for _, m := range m.matchers {
			w, ok := m.(wildcard)
			if !ok || w.single {
				return nil, false
			}
		}
		return nil, true
	}
	if len(m.matchers) == 0 {
		// No matchers, but there is still input.
		return nil, false
	}
	// Still matchers, still input.
	results := m.matchers[0].match(m.addr[0])
	if results == noMatch {
		return nil, false
	}
	if (results & matchAdvanceBoth) != 0 {
		next = append(next, &matchState{
			matchers: m.matchers[1:],
			addr:     m.addr[1:],
		})
	}
	if (results & matchAdvanceMatcher) != 0 {
		next = append(next, &matchState{
			matchers: m.matchers[1:],
			addr:     m.addr,
		})
	}
	if (results & matchAdvanceInput) != 0 {
		next = append(next, &matchState{
			matchers: m.matchers,
			addr:     m.addr[1:],
		})
	}
	return next, false
}

type matcher interface {
	match(byte) matchResult
	String() string
}

type matchResult byte

const (
	noMatch                         = 0
	matchAdvanceBoth    matchResult = 1 << iota // try the next matcher with the next character
	matchAdvanceMatcher                         // success, but don't move the input
	matchAdvanceInput                           // success, and current matcher could match more
)

// charMatcher matches an exact byte.
type charMatcher struct {
	c byte
}

func (c charMatcher) String() string {
	return fmt.Sprintf("%c", c.c)
}

func (c charMatcher) match(b byte) matchResult {
	if c.c == b {
		return matchAdvanceBoth
	}
	return noMatch
}

type wildcard struct {
	single bool // true if ?, false if *
}

func (w wildcard) match(byte) matchResult {
	if w.single {
		return matchAdvanceBoth
	}
	return matchAdvanceBoth | matchAdvanceMatcher | matchAdvanceInput
}

func (w wildcard) String() string {
	if w.single {
		return "?"
	}
	return "*"
}

type charClass struct {
	chars  [256]bool
	invert bool
}

func (cc charClass) match(b byte) matchResult {
	if cc.chars[b] != cc.invert {
		return matchAdvanceBoth
	}
	return noMatch
}

func (cc charClass) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	if cc.invert {
		sb.WriteString("!")
	}
	for i, ok := range cc.chars {
		if ok {
			fmt.Fprintf(&sb, "%c", i)
		}
	}
	sb.WriteString("]")
	return sb.String()
}

func parseMatcher(s string) (matcher, string, error) {
	if len(s) == 0 {
		return nil, "", errors.New("unexpected end of input")
	}
	switch s[0] {
	case '[':
		return parseCharClass(s)
	case '*':
		return wildcard{}, s[1:], nil
	case '?':
		return wildcard{single: true}, s[1:], nil
	}
	return charMatcher{s[0]}, s[1:], nil
}

func parseCharClass(s string) (matcher, string, error) {
	var cc charClass
	s, ok := strings.CutPrefix(s, "[")
	if !ok {
		return cc, "", fmt.Errorf("expect %q, got: %q", "[", s)
	}
	if len(s) == 0 {
		return cc, "", fmt.Errorf("expect character class, got EOF")
	}
	if s[0] == '!' {
		s = s[1:]
		cc.invert = true
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return cc, "", fmt.Errorf("expect %q somewhere, got: %q", "]", s)
	}
	for i := 0; i < end; i++ {
		c := s[i]
		if c == '-' {
			if i > 0 && (i+1) < end {
				next := s[i+1]
				if next < s[i-1] {
					return cc, "", fmt.Errorf("invalid range %c-%c, %c<%c",
						s[i-1], next, next, s[i-1])
				}
				for d := int(s[i-1]); d <= int(next); d++ {
					cc.chars[d] = true
				}
				i++
				continue
			}
		}
		cc.chars[c] = true
	}
	return cc, s[end+1:], nil
}
