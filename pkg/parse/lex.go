package parse

import (
	"strings"
)

// Lexer is a pull lexer over a source string. It produces one token at a
// time, with a single token of lookahead.
type Lexer struct {
	src string
	pos int

	// Cache of the last peeked token, or error.
	peeked    *Token
	peekedErr error
	// Position just after the peeked token.
	peekedEnd int
}

// NewLexer returns a Lexer reading src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Peek returns the next token without consuming it. Calling Peek repeatedly
// returns the same token.
func (lx *Lexer) Peek() (Token, error) {
	if lx.peeked == nil && lx.peekedErr == nil {
		saved := lx.pos
		tok, err := lx.scan()
		lx.peekedEnd = lx.pos
		lx.pos = saved
		if err != nil {
			lx.peekedErr = err
		} else {
			lx.peeked = &tok
		}
	}
	if lx.peekedErr != nil {
		return Token{}, lx.peekedErr
	}
	return *lx.peeked, nil
}

// AdvancePastLastPeek consumes the token returned by the last call to Peek.
// It does nothing if there is no such token or if it was an error.
func (lx *Lexer) AdvancePastLastPeek() {
	if lx.peeked != nil {
		lx.pos = lx.peekedEnd
		lx.peeked = nil
	}
}

// Next returns and consumes the next token.
func (lx *Lexer) Next() (Token, error) {
	tok, err := lx.Peek()
	if err != nil {
		return Token{}, err
	}
	lx.AdvancePastLastPeek()
	return tok, nil
}

// Cursor helpers.

func (lx *Lexer) rest() string { return lx.src[lx.pos:] }

func (lx *Lexer) eof() bool { return lx.pos >= len(lx.src) }

func (lx *Lexer) consume(i int) string {
	consumed := lx.rest()[:i]
	lx.pos += i
	return consumed
}

func (lx *Lexer) consumeWhile(f func(b byte) bool) string {
	rest := lx.rest()
	for i := 0; i < len(rest); i++ {
		if !f(rest[i]) {
			return lx.consume(i)
		}
	}
	return lx.consume(len(rest))
}

func (lx *Lexer) token(kind TokenKind, start int, text string) Token {
	return Token{Location: Location{start, lx.pos - start}, Kind: kind, Text: text}
}

func (lx *Lexer) scan() (Token, error) {
	lx.consumeWhile(isBlank)
	start := lx.pos
	if lx.eof() {
		return lx.token(EndOfFile, start, ""), nil
	}

	c := lx.src[lx.pos]
	switch {
	case c == '\n':
		lx.consume(1)
		return lx.token(Semicolon, start, "\n"), nil
	case isDigit(c):
		text := lx.consumeWhile(isDigit)
		return lx.token(Number, start, text), nil
	case isQuote(c):
		end := strings.IndexByte(lx.src[start+1:], c)
		if end == -1 {
			return Token{}, Errorf(LexicalError, Location{start, 1},
				"%w: missing closing %c", ErrUnterminatedString, c)
		}
		lx.consume(end + 2)
		tok := lx.token(String, start, lx.src[start+1:start+1+end])
		tok.Quote = c
		return tok, nil
	case isIdentifierStart(c):
		lx.scanIdentifier()
		text := lx.src[start:lx.pos]
		if kind, ok := lookupKeyword(text); ok {
			return lx.token(kind, start, text), nil
		}
		return lx.token(Identifier, start, text), nil
	}

	for _, op := range operatorLexemes {
		if strings.HasPrefix(lx.rest(), op.text) {
			lx.consume(len(op.text))
			return lx.token(op.kind, start, op.text), nil
		}
	}
	return Token{}, Errorf(LexicalError, Location{start, 1},
		"%w %q", ErrUnknownCharacter, c)
}

func (lx *Lexer) scanIdentifier() {
	for !lx.eof() {
		c := lx.src[lx.pos]
		switch {
		case c == '\\':
			// An escape takes the next byte along, whatever it is.
			lx.consume(1)
			if !lx.eof() {
				lx.consume(1)
			}
		case isIdentifierStart(c) || isIdentifierPart(c):
			lx.consume(1)
		default:
			return
		}
	}
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c >= 0x80
}

func isQuote(c byte) bool { return c == '"' || c == '\'' || c == '`' }

// Characters used by globs and the like, which are not operators and are
// allowed anywhere in an identifier.
const wordExtras = "_\\?[]:@,{}"

func isIdentifierStart(c byte) bool {
	return isLetter(c) || strings.IndexByte(wordExtras, c) >= 0
}

func isIdentifierPart(c byte) bool {
	return isDigit(c) || strings.IndexByte(".~-+", c) >= 0
}
