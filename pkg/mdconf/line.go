package mdconf

import "strings"

// Line is one logical directive line: the leading keyword word followed by
// its argument words in file order. Argument words may continue across
// indented follow-on lines; the next unindented word starts a new Line.
type Line []string

// Keyword returns the directive word of the line.
func (l Line) Keyword() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// Args returns the argument words of the line, in file order.
func (l Line) Args() []string {
	if len(l) == 0 {
		return nil
	}
	return l[1:]
}

// Line assembles the next logical line from the stream. It returns false
// when the input is exhausted.
func (s *Scanner) Line() (Line, bool) {
	w, ok := s.Word(true)
	if !ok {
		return nil, false
	}
	line := Line{w}
	for {
		w, ok := s.Word(false)
		if !ok {
			break
		}
		line = append(line, w)
	}
	return line, true
}

// Directive identifies a configuration line kind.
type Directive int

// The recognized directives. The declaration order is the canonical
// keyword enumeration order: when an abbreviated keyword is a prefix of
// more than one directive, the first one in this order wins, so the order
// is part of the dispatch contract.
const (
	Devices Directive = iota
	Array
	Mailaddr
	Mailfrom
	Program
	CreateDev
	Homehost
	AutoMode
)

var keywords = [...]string{
	Devices:   "devices",
	Array:     "array",
	Mailaddr:  "mailaddr",
	Mailfrom:  "mailfrom",
	Program:   "program",
	CreateDev: "create",
	Homehost:  "homehost",
	AutoMode:  "auto",
}

// String returns the canonical keyword for the directive.
func (d Directive) String() string {
	if d < 0 || int(d) >= len(keywords) {
		return "unknown"
	}
	return keywords[d]
}

// MatchKeyword resolves a keyword word to its Directive. Matching is
// case-insensitive and prefix-based: at least three characters must be
// given, and the word must be a prefix of the keyword.
func MatchKeyword(word string) (Directive, bool) {
	if len(word) < 3 {
		return 0, false
	}
	for i, kw := range keywords {
		if len(word) <= len(kw) && strings.EqualFold(word, kw[:len(word)]) {
			return Directive(i), true
		}
	}
	return 0, false
}
