package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tString
	tNumber
	tBigint
	tPunct
)

func (k tokenKind) String() string {
	switch k {
	case tEOF:
		return "end of input"
	case tIdent:
		return "identifier"
	case tString:
		return "string"
	case tNumber:
		return "number"
	case tBigint:
		return "bigint"
	}
	return "punctuation"
}

type lexToken struct {
	kind tokenKind
	// text is the unquoted value for strings, the digits for numbers
	// and bigints, and the source text otherwise
	text string
	// start and end are byte offsets into the source
	start, end int
}

// longest first, so that === wins over ==
var puncts = []string{
	"===", "!==",
	"==", "!=", "&&", "||", "<=", ">=",
	"!", "&", "|", "(", ")", "{", "}", "[", "]", ".", ",", ";", ":", "?", "<", ">", "-", "+",
}

type lexError struct {
	msg        string
	start, end int
}

func lex(src string) ([]lexToken, *lexError) {
	var toks []lexToken
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '"' || r == '\'':
			text, end, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, lexToken{kind: tString, text: text, start: i, end: end})
			i = end
		case isDigit(r):
			j := i
			for j < len(src) && isDigit(rune(src[j])) {
				j++
			}
			if j < len(src) && src[j] == 'n' {
				toks = append(toks, lexToken{kind: tBigint, text: src[i:j], start: i, end: j + 1})
				i = j + 1
				continue
			}
			if j+1 < len(src) && src[j] == '.' && isDigit(rune(src[j+1])) {
				j++
				for j < len(src) && isDigit(rune(src[j])) {
					j++
				}
			}
			if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
				k := j + 1
				if k < len(src) && (src[k] == '+' || src[k] == '-') {
					k++
				}
				if k < len(src) && isDigit(rune(src[k])) {
					for k < len(src) && isDigit(rune(src[k])) {
						k++
					}
					j = k
				}
			}
			toks = append(toks, lexToken{kind: tNumber, text: src[i:j], start: i, end: j})
			i = j
		case isIdentStart(r):
			j := i + size
			for j < len(src) {
				r, size := utf8.DecodeRuneInString(src[j:])
				if !isIdentStart(r) && !isDigit(r) {
					break
				}
				j += size
			}
			toks = append(toks, lexToken{kind: tIdent, text: src[i:j], start: i, end: j})
			i = j
		default:
			matched := false
			for _, p := range puncts {
				if strings.HasPrefix(src[i:], p) {
					toks = append(toks, lexToken{kind: tPunct, text: p, start: i, end: i + len(p)})
					i += len(p)
					matched = true
					break
				}
			}
			if !matched {
				return nil, &lexError{msg: fmt.Sprintf("unexpected character %q", r), start: i, end: i + size}
			}
		}
	}
	toks = append(toks, lexToken{kind: tEOF, start: len(src), end: len(src)})
	return toks, nil
}

func lexString(src string, start int) (string, int, *lexError) {
	quote := src[start]
	sb := strings.Builder{}
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return sb.String(), i + 1, nil
		case c == '\\' && i+1 < len(src):
			switch src[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			default:
				sb.WriteByte(src[i+1])
			}
			i += 2
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return "", 0, &lexError{msg: "unterminated string literal", start: start, end: len(src)}
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}
