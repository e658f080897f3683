// Package mdconf implements the mdadm.conf configuration language: a
// line-oriented description of storage devices and the arrays built from
// them. It parses the file into a queryable Config and answers the three
// runtime questions a managing process asks: which devices may be scanned,
// which configured array identity a discovered array corresponds to, and
// whether a metadata format is permitted to be auto-assembled.
package mdconf

import (
	"bufio"
	"bytes"
	"io"
)

// Scanner extracts words from a configuration stream. Words are separated
// by unquoted spaces or tabs; single or double quotes protect embedded
// whitespace but may not span a newline. '#' at a word-start position
// begins a comment that runs to end of line.
//
// A word found unindented at the start of a line is a keyword word. When a
// caller asks for a word with allowKey=false and the stream is positioned
// at such a word, the Scanner consumes nothing and reports no word, so the
// caller can end the current logical line cleanly.
type Scanner struct {
	r      *bufio.Reader
	pushed int // single pushed-back byte, -1 when empty
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r), pushed: -1}
}

func (s *Scanner) readByte() (byte, bool) {
	if s.pushed >= 0 {
		c := byte(s.pushed)
		s.pushed = -1
		return c, true
	}
	c, err := s.r.ReadByte()
	if err != nil {
		return 0, false
	}
	return c, true
}

// pushBack makes c the next byte returned by readByte. The scanner never
// needs more than one byte of lookahead, and the pushed byte may differ
// from the byte actually read (see brokenMdstatParen).
func (s *Scanner) pushBack(c byte) {
	s.pushed = int(c)
}

// Word returns the next word from the stream, with quote characters
// stripped. The second result is false when no further word can be read:
// end of input, or (with allowKey=false) the next word would start a new
// line. An empty string with ok=true is a real word, produced by "".
func (s *Scanner) Word(allowKey bool) (string, bool) {
	var word []byte
	found := false

	for !found {
		// At the end of a word: the next byte is a space or newline,
		// otherwise it starts a new line.
		c, ok := s.readByte()
		if ok && c == '#' {
			for ok && c != '\n' {
				c, ok = s.readByte()
			}
		}
		if !ok {
			break
		}
		if c == '\n' {
			continue
		}
		if c != ' ' && c != '\t' && !allowKey {
			s.pushBack(c)
			break
		}

		var quote byte
		for ok && (c == ' ' || c == '\t') {
			c, ok = s.readByte()
		}
		if ok && c != '\n' && c != '#' {
			// A real word character: start saving.
			for ok && c != '\n' && (quote != 0 || (c != ' ' && c != '\t')) {
				found = true
				switch {
				case quote != 0 && c == quote:
					quote = 0
				case quote == 0 && (c == '\'' || c == '"'):
					quote = c
				default:
					word = append(word, c)
				}
				c, ok = s.readByte()
				if ok {
					c = brokenMdstatParen(word, c)
				}
			}
		}
		if ok {
			s.pushBack(c)
		}
	}

	if !found {
		return "", false
	}
	return brokenMdstatWord(string(word)), true
}

var activeWord = []byte("active")

// brokenMdstatParen compensates for kernels 2.6.14-2.6.24 which wrote
// "active(auto-read-only)" to /proc/mdstat instead of
// "active (auto-read-only)": a '(' immediately after "active" is read as a
// space, splitting the two words.
func brokenMdstatParen(word []byte, c byte) byte {
	if c == '(' && bytes.HasSuffix(word, activeWord) {
		return ' '
	}
	return c
}

// brokenMdstatWord restores the '(' dropped by brokenMdstatParen: the word
// following the collapsed paren scans as "auto-read-only)".
func brokenMdstatWord(word string) string {
	if word == "auto-read-only)" {
		return "(auto-read-only)"
	}
	return word
}
