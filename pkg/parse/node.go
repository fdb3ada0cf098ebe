package parse

import (
	"github.com/toiletbril/shit/pkg/arith"
)

// Node is implemented by all AST nodes. The set of node types is closed;
// code walking the tree switches over the concrete types.
type Node interface {
	Loc() Location
	// String returns source text that parses back to an equivalent tree.
	String() string
	node()
}

// ConstantNumber is a decimal integer literal.
type ConstantNumber struct {
	Location
	Value int64
}

// ConstantString is a string or identifier used as an arithmetic operand.
type ConstantString struct {
	Location
	Value string
	// Zero for identifiers.
	Quote byte
}

type UnaryExpression struct {
	Location
	Op      arith.UnaryOp
	Operand Node
}

type BinaryExpression struct {
	Location
	Op       arith.BinaryOp
	Lhs, Rhs Node
}

// Word is a run of adjacent tokens making up one command argument, before
// expansion.
type Word struct {
	Location
	Parts []Token
}

// RedirectOp is the type of a redirection.
type RedirectOp int

const (
	RedirectInput RedirectOp = iota
	RedirectOutput
	RedirectAppend
)

// Redirect is a redirection such as "2>file", ">>log" or "2>&1".
type Redirect struct {
	Location
	Op RedirectOp
	// The redirected descriptor, or -1 when omitted.
	Fd int
	// Exactly one of Target and TargetFd is used; TargetFd is -1 when Target
	// is used.
	Target   *Word
	TargetFd int
}

// DefaultFd returns the descriptor redirected when Fd is omitted.
func (op RedirectOp) DefaultFd() int {
	if op == RedirectInput {
		return 0
	}
	return 1
}

type SimpleCommand struct {
	Location
	Words     []*Word
	Redirects []*Redirect
}

type Pipeline struct {
	Location
	Commands []*SimpleCommand
	Async    bool
}

// ConditionKind determines whether an item of a CompoundList runs.
type ConditionKind int

const (
	// Always runs.
	ConditionNone ConditionKind = iota
	// Runs if the previous item succeeded.
	ConditionAnd
	// Runs if the previous item failed.
	ConditionOr
)

type CompoundListCondition struct {
	Kind    ConditionKind
	Command Node
}

// CompoundList is a sequence of commands joined by ";", "&&" or "||".
type CompoundList struct {
	Location
	Items []*CompoundListCondition
}

type If struct {
	Location
	Condition Node
	Then      Node
	// Nil when there is no else branch.
	Otherwise Node
}

func (*ConstantNumber) node()   {}
func (*ConstantString) node()   {}
func (*UnaryExpression) node()  {}
func (*BinaryExpression) node() {}
func (*SimpleCommand) node()    {}
func (*Pipeline) node()         {}
func (*CompoundList) node()     {}
func (*If) node()               {}

// IsCommand reports whether n is a command-like node, whose value is an exit
// status where 0 means success. Other nodes are arithmetic, where nonzero
// means true. A logical negation has the kind of its operand.
func IsCommand(n Node) bool {
	switch n := n.(type) {
	case *SimpleCommand, *Pipeline, *CompoundList, *If:
		return true
	case *UnaryExpression:
		return n.Op == arith.LogicalNot && IsCommand(n.Operand)
	}
	return false
}

// Succeeded interprets the value of n as a condition, according to the kind
// of n.
func Succeeded(n Node, value int64) bool {
	if IsCommand(n) {
		return value == 0
	}
	return value != 0
}
