package parse

import (
	"strings"

	"github.com/toiletbril/shit/pkg/arith"
)

// TokenKind identifies the type of a token.
type TokenKind int

const (
	EndOfFile TokenKind = iota

	// Sentinels.
	LeftParen
	RightParen
	Semicolon
	Dot

	// Values.
	Number
	String
	Identifier

	// Operators.
	Plus
	Minus
	Star
	Slash
	Percent
	Tilde
	Bang
	Ampersand
	Pipe
	Caret
	AndAnd
	OrOr
	LessLess
	GreaterGreater
	Less
	LessEqual
	Greater
	GreaterEqual
	EqualEqual
	BangEqual
	Equal

	// Keywords.
	KeywordIf
	KeywordThen
	KeywordElse
	KeywordFi
	KeywordFor
	KeywordWhile
	KeywordUntil
	KeywordDo
	KeywordDone
	KeywordCase
	KeywordWhen
	KeywordEsac
	KeywordTime
	KeywordFunction
)

// TokenFlags classify token kinds.
type TokenFlags uint8

const (
	FlagValue TokenFlags = 1 << iota
	FlagUnaryOperator
	FlagBinaryOperator
	FlagKeyword
	FlagSentinel
)

// Associativity of a binary operator.
type Associativity int

const (
	LeftAssociative Associativity = iota
	RightAssociative
)

// Precedence of prefix operators; binds tighter than every binary operator.
const unaryPrecedence = 12

// Per-kind data. Operators carry their precedence and the arithmetic operator
// they map to.
type kindInfo struct {
	name       string
	flags      TokenFlags
	precedence int
	assoc      Associativity
	binary     arith.BinaryOp
	unary      arith.UnaryOp
}

var kindInfos = map[TokenKind]kindInfo{
	EndOfFile:  {name: "end of input", flags: FlagSentinel},
	LeftParen:  {name: "(", flags: FlagSentinel},
	RightParen: {name: ")", flags: FlagSentinel},
	Semicolon:  {name: ";", flags: FlagSentinel},
	Dot:        {name: ".", flags: FlagSentinel},

	Number:     {name: "number", flags: FlagValue},
	String:     {name: "string", flags: FlagValue},
	Identifier: {name: "identifier", flags: FlagValue},

	Equal:          {name: "=", flags: FlagBinaryOperator, precedence: 1, assoc: RightAssociative, binary: arith.Assign},
	OrOr:           {name: "||", flags: FlagBinaryOperator, precedence: 2, binary: arith.LogicalOr},
	AndAnd:         {name: "&&", flags: FlagBinaryOperator, precedence: 3, binary: arith.LogicalAnd},
	Pipe:           {name: "|", flags: FlagBinaryOperator, precedence: 4, binary: arith.BinaryOr},
	Caret:          {name: "^", flags: FlagBinaryOperator, precedence: 5, binary: arith.BinaryXor},
	Ampersand:      {name: "&", flags: FlagBinaryOperator, precedence: 6, binary: arith.BinaryAnd},
	EqualEqual:     {name: "==", flags: FlagBinaryOperator, precedence: 7, binary: arith.Equal},
	BangEqual:      {name: "!=", flags: FlagBinaryOperator, precedence: 7, binary: arith.NotEqual},
	Less:           {name: "<", flags: FlagBinaryOperator, precedence: 8, binary: arith.Less},
	LessEqual:      {name: "<=", flags: FlagBinaryOperator, precedence: 8, binary: arith.LessEqual},
	Greater:        {name: ">", flags: FlagBinaryOperator, precedence: 8, binary: arith.Greater},
	GreaterEqual:   {name: ">=", flags: FlagBinaryOperator, precedence: 8, binary: arith.GreaterEqual},
	LessLess:       {name: "<<", flags: FlagBinaryOperator, precedence: 9, binary: arith.ShiftLeft},
	GreaterGreater: {name: ">>", flags: FlagBinaryOperator, precedence: 9, binary: arith.ShiftRight},
	Plus:           {name: "+", flags: FlagBinaryOperator | FlagUnaryOperator, precedence: 10, binary: arith.Add, unary: arith.Unnegate},
	Minus:          {name: "-", flags: FlagBinaryOperator | FlagUnaryOperator, precedence: 10, binary: arith.Subtract, unary: arith.Negate},
	Star:           {name: "*", flags: FlagBinaryOperator, precedence: 11, binary: arith.Multiply},
	Slash:          {name: "/", flags: FlagBinaryOperator, precedence: 11, binary: arith.Divide},
	Percent:        {name: "%", flags: FlagBinaryOperator, precedence: 11, binary: arith.Modulo},
	Bang:           {name: "!", flags: FlagUnaryOperator, unary: arith.LogicalNot},
	Tilde:          {name: "~", flags: FlagUnaryOperator, unary: arith.BinaryComplement},

	KeywordIf:       {name: "if", flags: FlagKeyword},
	KeywordThen:     {name: "then", flags: FlagKeyword},
	KeywordElse:     {name: "else", flags: FlagKeyword},
	KeywordFi:       {name: "fi", flags: FlagKeyword},
	KeywordFor:      {name: "for", flags: FlagKeyword},
	KeywordWhile:    {name: "while", flags: FlagKeyword},
	KeywordUntil:    {name: "until", flags: FlagKeyword},
	KeywordDo:       {name: "do", flags: FlagKeyword},
	KeywordDone:     {name: "done", flags: FlagKeyword},
	KeywordCase:     {name: "case", flags: FlagKeyword},
	KeywordWhen:     {name: "when", flags: FlagKeyword},
	KeywordEsac:     {name: "esac", flags: FlagKeyword},
	KeywordTime:     {name: "time", flags: FlagKeyword},
	KeywordFunction: {name: "function", flags: FlagKeyword},
}

// Operator and sentinel lexemes, longest first so that a greedy scan picks
// "&&" over "&".
var operatorLexemes = []struct {
	text string
	kind TokenKind
}{
	{"&&", AndAnd}, {"||", OrOr}, {"<<", LessLess}, {">>", GreaterGreater},
	{"<=", LessEqual}, {">=", GreaterEqual}, {"==", EqualEqual}, {"!=", BangEqual},
	{"+", Plus}, {"-", Minus}, {"*", Star}, {"/", Slash}, {"%", Percent},
	{"~", Tilde}, {"!", Bang}, {"&", Ampersand}, {"|", Pipe}, {"^", Caret},
	{"<", Less}, {">", Greater}, {"=", Equal},
	{"(", LeftParen}, {")", RightParen}, {";", Semicolon}, {".", Dot},
}

var keywords = map[string]TokenKind{}

func init() {
	for kind, info := range kindInfos {
		if info.flags&FlagKeyword != 0 {
			keywords[info.name] = kind
		}
	}
}

// Looks up a keyword, ignoring case.
func lookupKeyword(s string) (TokenKind, bool) {
	kind, ok := keywords[strings.ToLower(s)]
	return kind, ok
}

func (k TokenKind) String() string {
	if info, ok := kindInfos[k]; ok {
		return info.name
	}
	return "unknown token"
}

// Flags returns the classification of the kind.
func (k TokenKind) Flags() TokenFlags { return kindInfos[k].flags }

// Token is a lexical token. Tokens are values; the text is a copy of the
// lexeme, except for strings, where it is the text between the quotes.
type Token struct {
	Location
	Kind TokenKind
	Text string
	// The quote character of a String token.
	Quote byte
}

// Is reports whether the token has any of the flags.
func (t Token) Is(flags TokenFlags) bool { return t.Kind.Flags()&flags != 0 }

// Describe returns a short human-readable description, used in messages.
func (t Token) Describe() string {
	switch t.Kind {
	case EndOfFile:
		return "end of input"
	case Semicolon:
		if t.Text == "\n" {
			return "newline"
		}
	case String:
		return "string " + t.Source()
	}
	return "'" + t.Text + "'"
}

// Source returns the token as it appears in the source.
func (t Token) Source() string {
	if t.Kind == String {
		q := string(t.Quote)
		return q + t.Text + q
	}
	return t.Text
}
