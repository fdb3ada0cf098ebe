package arith

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	Add BinaryOp = iota
	Subtract
	Multiply
	Divide
	Modulo
	BinaryAnd
	BinaryOr
	BinaryXor
	LogicalAnd
	LogicalOr
	ShiftLeft
	ShiftRight
	Less
	LessEqual
	Greater
	GreaterEqual
	Equal
	NotEqual
	Assign
)

var binaryOpNames = [...]string{
	Add:          "+",
	Subtract:     "-",
	Multiply:     "*",
	Divide:       "/",
	Modulo:       "%",
	BinaryAnd:    "&",
	BinaryOr:     "|",
	BinaryXor:    "^",
	LogicalAnd:   "&&",
	LogicalOr:    "||",
	ShiftLeft:    "<<",
	ShiftRight:   ">>",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
	Equal:        "==",
	NotEqual:     "!=",
	Assign:       "=",
}

// String returns the lexeme of the operator.
func (op BinaryOp) String() string {
	if op < 0 || int(op) >= len(binaryOpNames) {
		return "?"
	}
	return binaryOpNames[op]
}

// UnaryOp identifies a prefix operator.
type UnaryOp int

const (
	Negate UnaryOp = iota
	Unnegate
	LogicalNot
	BinaryComplement
)

var unaryOpNames = [...]string{
	Negate:           "-",
	Unnegate:         "+",
	LogicalNot:       "!",
	BinaryComplement: "~",
}

func (op UnaryOp) String() string {
	if op < 0 || int(op) >= len(unaryOpNames) {
		return "?"
	}
	return unaryOpNames[op]
}
