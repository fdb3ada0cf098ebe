package parse

import (
	"slices"
	"strconv"
)

const (
	// Maximum number of open parentheses.
	maxParenDepth = 256
	// Maximum nesting of expressions, counting every operand.
	maxExpressionDepth = 1024
)

// Parse parses src into a single tree. An empty source yields an empty
// CompoundList.
func Parse(src string) (Node, error) {
	return NewParser(src).ConstructAST()
}

// Parser builds an AST from the tokens of a Lexer using precedence climbing.
//
// Whether a token starts a command or an arithmetic operand depends on the
// context: at the start of a statement, and on the right of "|", "&&" and
// "||", identifiers, strings and paths start commands; on the right of every
// other operator they are arithmetic operands. Numbers are always arithmetic.
type Parser struct {
	src string
	lx  *Lexer
	// Number of currently open parentheses.
	parens int
	// Current expression nesting.
	depth int
	// Keywords that end the list being parsed. Only these end command words.
	stop []TokenKind
}

// NewParser returns a Parser reading src.
func NewParser(src string) *Parser {
	return &Parser{src: src, lx: NewLexer(src)}
}

// ConstructAST consumes the whole input and returns the tree. There is no
// error recovery: parsing stops at the first error.
func (p *Parser) ConstructAST() (Node, error) {
	n, err := p.parseList()
	if err != nil {
		return nil, err
	}
	tok, err := p.lx.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != EndOfFile {
		return nil, unexpected(tok)
	}
	if n == nil {
		return &CompoundList{}, nil
	}
	return n, nil
}

func unexpected(tok Token) *Error {
	switch {
	case tok.Kind == RightParen:
		return Errorf(SyntaxError, tok.Location, "unmatched ')'")
	case tok.Is(FlagKeyword):
		return Errorf(SyntaxError, tok.Location, "unexpected keyword %s", tok.Describe())
	}
	return Errorf(SyntaxError, tok.Location, "unexpected %s", tok.Describe())
}

// Parses statements separated by ";" or newlines, or terminated by "&". The
// list ends at end of input, at ")" or at one of the stop keywords. It
// returns nil for an empty list and the only statement of a list with one
// statement.
func (p *Parser) parseList(stop ...TokenKind) (Node, error) {
	savedStop := p.stop
	p.stop = stop
	defer func() { p.stop = savedStop }()

	var items []*CompoundListCondition
	ends := func(tok Token) bool {
		return tok.Kind == EndOfFile || tok.Kind == RightParen || slices.Contains(stop, tok.Kind)
	}
	for {
		tok, err := p.lx.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == Semicolon {
			p.lx.AdvancePastLastPeek()
			continue
		}
		if ends(tok) {
			break
		}

		n, err := p.parseExpression(0, false)
		if err != nil {
			return nil, err
		}
		tok, err = p.lx.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == Ampersand {
			p.lx.AdvancePastLastPeek()
			n, err = background(n, tok)
			if err != nil {
				return nil, err
			}
		} else if tok.Kind != Semicolon && !ends(tok) {
			return nil, Errorf(SyntaxError, tok.Location,
				"expected ';' or newline, found %s", tok.Describe())
		}
		items = append(items, &CompoundListCondition{ConditionNone, n})
	}

	switch len(items) {
	case 0:
		return nil, nil
	case 1:
		return items[0].Command, nil
	}
	return &CompoundList{
		Location: span(items[0].Command.Loc(), items[len(items)-1].Command.Loc()),
		Items:    items,
	}, nil
}

func background(n Node, amp Token) (Node, error) {
	switch n := n.(type) {
	case *SimpleCommand:
		return &Pipeline{
			Location: span(n.Location, amp.Location),
			Commands: []*SimpleCommand{n},
			Async:    true,
		}, nil
	case *Pipeline:
		n.Async = true
		n.Location = span(n.Location, amp.Location)
		return n, nil
	}
	return nil, Errorf(SyntaxError, amp.Location, "only pipelines can run in the background")
}

func (p *Parser) parseExpression(minPrecedence int, arithmetic bool) (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxExpressionDepth {
		tok, _ := p.lx.Peek()
		return nil, Errorf(SyntaxError, tok.Location,
			"%w: expression is nested too deeply", ErrNestingLimit)
	}

	lhs, err := p.parseOperand(arithmetic)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.lx.Peek()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Kind == EndOfFile, tok.Kind == Semicolon, tok.Is(FlagKeyword):
			return lhs, nil
		case tok.Kind == RightParen:
			if p.parens == 0 {
				return nil, unexpected(tok)
			}
			return lhs, nil
		case tok.Kind == Ampersand && IsCommand(lhs):
			// Runs lhs in the background; handled by parseList.
			return lhs, nil
		case !tok.Is(FlagBinaryOperator):
			return nil, Errorf(SyntaxError, tok.Location,
				"expected an operator, found %s", tok.Describe())
		}

		info := kindInfos[tok.Kind]
		if info.precedence < minPrecedence {
			return lhs, nil
		}
		p.lx.AdvancePastLastPeek()
		next := info.precedence + 1
		if info.assoc == RightAssociative {
			next = info.precedence
		}
		rhs, err := p.parseExpression(next, !isShellOperator(tok.Kind))
		if err != nil {
			return nil, err
		}
		lhs, err = fold(tok, info, lhs, rhs)
		if err != nil {
			return nil, err
		}
	}
}

func isShellOperator(k TokenKind) bool {
	return k == Pipe || k == AndAnd || k == OrOr
}

// Combines the two operands of a binary operator. "|" between two commands
// makes a pipeline, and "&&" and "||" make a CompoundList when at least one
// side is a command; otherwise the operator is arithmetic.
func fold(op Token, info kindInfo, lhs, rhs Node) (Node, error) {
	loc := span(lhs.Loc(), rhs.Loc())
	switch op.Kind {
	case Pipe:
		if IsCommand(lhs) && IsCommand(rhs) {
			return pipe(loc, lhs, rhs)
		}
	case AndAnd, OrOr:
		if IsCommand(lhs) || IsCommand(rhs) {
			kind := ConditionAnd
			if op.Kind == OrOr {
				kind = ConditionOr
			}
			return andOr(loc, kind, lhs, rhs), nil
		}
	}
	return &BinaryExpression{Location: loc, Op: info.binary, Lhs: lhs, Rhs: rhs}, nil
}

func pipe(loc Location, lhs, rhs Node) (Node, error) {
	var commands []*SimpleCommand
	for _, n := range []Node{lhs, rhs} {
		switch n := n.(type) {
		case *SimpleCommand:
			commands = append(commands, n)
		case *Pipeline:
			if n.Async {
				return nil, Errorf(SyntaxError, n.Location, "a background pipeline cannot be piped")
			}
			commands = append(commands, n.Commands...)
		default:
			return nil, Errorf(SyntaxError, n.Loc(), "only simple commands can be piped")
		}
	}
	return &Pipeline{Location: loc, Commands: commands}, nil
}

// Builds a CompoundList. A list on the left made only of the same operator is
// extended, so that "a && b && c" is flat; mixed operators nest, which keeps
// the grouping visible when the tree is printed.
func andOr(loc Location, kind ConditionKind, lhs, rhs Node) Node {
	var items []*CompoundListCondition
	if l, ok := lhs.(*CompoundList); ok && allOfKind(l.Items[1:], kind) {
		items = append(items, l.Items...)
	} else {
		items = append(items, &CompoundListCondition{ConditionNone, lhs})
	}
	items = append(items, &CompoundListCondition{kind, rhs})
	return &CompoundList{Location: loc, Items: items}
}

func allOfKind(items []*CompoundListCondition, kind ConditionKind) bool {
	for _, item := range items {
		if item.Kind != kind {
			return false
		}
	}
	return true
}

// Parses the seed of an expression.
func (p *Parser) parseOperand(arithmetic bool) (Node, error) {
	tok, err := p.lx.Peek()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.Kind == Number:
		p.lx.AdvancePastLastPeek()
		value, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, Errorf(SyntaxError, tok.Location, "number %s is out of range", tok.Text)
		}
		return &ConstantNumber{Location: tok.Location, Value: value}, nil
	case tok.Kind == String, tok.Kind == Identifier:
		p.lx.AdvancePastLastPeek()
		if arithmetic {
			return &ConstantString{Location: tok.Location, Value: tok.Text, Quote: tok.Quote}, nil
		}
		return p.parseCommand(tok)
	case !arithmetic && p.startsPath(tok):
		p.lx.AdvancePastLastPeek()
		return p.parseCommand(tok)
	case tok.Kind == LeftParen:
		return p.parseParens(tok, arithmetic)
	case tok.Is(FlagUnaryOperator):
		p.lx.AdvancePastLastPeek()
		return p.parseUnary(tok, arithmetic)
	case tok.Kind == KeywordIf:
		p.lx.AdvancePastLastPeek()
		return p.parseIf(tok)
	case tok.Is(FlagKeyword):
		switch tok.Kind {
		case KeywordFor, KeywordWhile, KeywordUntil, KeywordCase, KeywordTime, KeywordFunction:
			return nil, Errorf(SyntaxError, tok.Location, "%s is %w", tok.Describe(), ErrUnsupported)
		}
		return nil, unexpected(tok)
	}
	return nil, Errorf(SyntaxError, tok.Location, "expected a value, found %s", tok.Describe())
}

// Reports whether tok starts a command path like "./x", "/bin/ls" or "~/x".
func (p *Parser) startsPath(tok Token) bool {
	switch tok.Kind {
	case Dot, Slash:
		return true
	case Tilde:
		end := tok.End()
		return end < len(p.src) && p.src[end] == '/'
	}
	return false
}

func (p *Parser) parseUnary(op Token, arithmetic bool) (Node, error) {
	info := kindInfos[op.Kind]
	precedence := unaryPrecedence
	if op.Kind == Bang && !arithmetic {
		// "! cmd | cmd" negates the whole pipeline.
		if next, err := p.lx.Peek(); err == nil && (next.Kind == Identifier || next.Kind == String || p.startsPath(next)) {
			precedence = kindInfos[Pipe].precedence
		}
	} else {
		arithmetic = true
	}
	operand, err := p.parseExpression(precedence, arithmetic)
	if err != nil {
		return nil, err
	}
	return &UnaryExpression{
		Location: span(op.Location, operand.Loc()),
		Op:       info.unary,
		Operand:  operand,
	}, nil
}

// Parses a parenthesized expression. In arithmetic context the parentheses
// hold a single arithmetic expression; otherwise they hold a list.
func (p *Parser) parseParens(open Token, arithmetic bool) (Node, error) {
	p.parens++
	defer func() { p.parens-- }()
	if p.parens > maxParenDepth {
		return nil, Errorf(SyntaxError, open.Location,
			"%w: more than %d nested parentheses", ErrNestingLimit, maxParenDepth)
	}
	p.lx.AdvancePastLastPeek()

	savedStop := p.stop
	p.stop = nil
	defer func() { p.stop = savedStop }()

	var inner Node
	var err error
	if arithmetic {
		inner, err = p.parseExpression(0, true)
	} else {
		inner, err = p.parseList()
	}
	if err != nil {
		return nil, err
	}
	tok, err := p.lx.Peek()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.Kind == EndOfFile:
		return nil, Errorf(SyntaxError, open.Location, "%w", ErrUnterminatedParen)
	case tok.Kind != RightParen:
		return nil, Errorf(SyntaxError, tok.Location, "expected ')', found %s", tok.Describe())
	case inner == nil:
		return nil, Errorf(SyntaxError, span(open.Location, tok.Location), "empty parentheses")
	}
	p.lx.AdvancePastLastPeek()
	return inner, nil
}

func (p *Parser) parseIf(ifTok Token) (Node, error) {
	condition, err := p.parseList(KeywordThen, KeywordElse, KeywordFi)
	if err != nil {
		return nil, err
	}
	if condition == nil {
		return nil, p.expected("a condition after 'if'")
	}
	if err := p.expectKeyword(KeywordThen); err != nil {
		return nil, err
	}

	then, err := p.parseList(KeywordElse, KeywordFi)
	if err != nil {
		return nil, err
	}
	if then == nil {
		return nil, p.expected("a command after 'then'")
	}

	var otherwise Node
	tok, err := p.lx.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == KeywordElse {
		p.lx.AdvancePastLastPeek()
		otherwise, err = p.parseList(KeywordFi)
		if err != nil {
			return nil, err
		}
		if otherwise == nil {
			return nil, p.expected("a command after 'else'")
		}
	}

	fi, err := p.lx.Peek()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(KeywordFi); err != nil {
		return nil, err
	}
	return &If{
		Location:  span(ifTok.Location, fi.Location),
		Condition: condition,
		Then:      then,
		Otherwise: otherwise,
	}, nil
}

func (p *Parser) expectKeyword(kind TokenKind) error {
	tok, err := p.lx.Peek()
	if err != nil {
		return err
	}
	if tok.Kind != kind {
		return p.expected("'" + kind.String() + "'")
	}
	p.lx.AdvancePastLastPeek()
	return nil
}

// Builds an error for an unexpected next token.
func (p *Parser) expected(what string) error {
	tok, err := p.lx.Peek()
	if err != nil {
		return err
	}
	return Errorf(SyntaxError, tok.Location, "expected %s, found %s", what, tok.Describe())
}

// Parses the rest of a simple command whose first token has already been
// consumed. Each word is a run of tokens with no whitespace between them.
func (p *Parser) parseCommand(first Token) (*SimpleCommand, error) {
	cmd := &SimpleCommand{}
	word := &Word{Location: first.Location, Parts: []Token{first}}
	end := first.End()
	flush := func() {
		if word != nil {
			cmd.Words = append(cmd.Words, word)
			word = nil
		}
	}

	for {
		tok, err := p.lx.Peek()
		if err != nil {
			return nil, err
		}
		adjacent := tok.Position == end

		if isRedirection(tok.Kind) {
			fd := -1
			start := tok.Location
			if adjacent && word != nil && len(word.Parts) == 1 && word.Parts[0].Kind == Number {
				// A number right before the operator, like in "2>", is the
				// descriptor to redirect.
				fd, err = strconv.Atoi(word.Parts[0].Text)
				if err != nil {
					return nil, Errorf(SyntaxError, word.Location, "file descriptor %s is out of range", word.Parts[0].Text)
				}
				start = word.Location
				word = nil
			}
			flush()
			p.lx.AdvancePastLastPeek()
			rd, err := p.parseRedirect(tok, fd, start)
			if err != nil {
				return nil, err
			}
			cmd.Redirects = append(cmd.Redirects, rd)
			end = rd.End()
			continue
		}
		if p.endsWord(tok, adjacent) {
			break
		}

		p.lx.AdvancePastLastPeek()
		if adjacent && word != nil {
			word.Parts = append(word.Parts, tok)
			word.Location = span(word.Location, tok.Location)
		} else {
			flush()
			word = &Word{Location: tok.Location, Parts: []Token{tok}}
		}
		end = tok.End()
	}
	flush()
	cmd.Location = Location{first.Position, end - first.Position}
	return cmd, nil
}

func isRedirection(k TokenKind) bool {
	return k == Less || k == Greater || k == GreaterGreater || k == LessLess
}

// Reports whether tok cannot be part of a command word.
func (p *Parser) endsWord(tok Token, adjacent bool) bool {
	switch tok.Kind {
	case EndOfFile, Semicolon, LeftParen, RightParen, Pipe, OrOr, AndAnd, Ampersand:
		return true
	case KeywordThen, KeywordElse, KeywordFi:
		return !adjacent && slices.Contains(p.stop, tok.Kind)
	}
	return false
}

func (p *Parser) parseRedirect(op Token, fd int, start Location) (*Redirect, error) {
	rd := &Redirect{Fd: fd, TargetFd: -1}
	switch op.Kind {
	case Less:
		rd.Op = RedirectInput
	case Greater:
		rd.Op = RedirectOutput
	case GreaterGreater:
		rd.Op = RedirectAppend
	default:
		return nil, Errorf(SyntaxError, op.Location, "here-documents are %w", ErrUnsupported)
	}

	tok, err := p.lx.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == Ampersand && tok.Position == op.End() {
		p.lx.AdvancePastLastPeek()
		n, err := p.lx.Peek()
		if err != nil {
			return nil, err
		}
		if n.Kind != Number || n.Position != tok.End() {
			return nil, Errorf(SyntaxError, n.Location,
				"expected a file descriptor after '%s&', found %s", op.Text, n.Describe())
		}
		p.lx.AdvancePastLastPeek()
		rd.TargetFd, err = strconv.Atoi(n.Text)
		if err != nil {
			return nil, Errorf(SyntaxError, n.Location, "file descriptor %s is out of range", n.Text)
		}
		rd.Location = span(start, n.Location)
		return rd, nil
	}

	if isRedirection(tok.Kind) || p.endsWord(tok, false) {
		return nil, Errorf(SyntaxError, tok.Location,
			"expected a redirection target, found %s", tok.Describe())
	}
	p.lx.AdvancePastLastPeek()
	target := &Word{Location: tok.Location, Parts: []Token{tok}}
	for {
		tok, err := p.lx.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Position != target.End() || isRedirection(tok.Kind) || p.endsWord(tok, true) {
			break
		}
		p.lx.AdvancePastLastPeek()
		target.Parts = append(target.Parts, tok)
		target.Location = span(target.Location, tok.Location)
	}
	rd.Target = target
	rd.Location = span(start, target.Location)
	return rd, nil
}
