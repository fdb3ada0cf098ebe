// Package arith implements the integer semantics of the operators understood
// by the shell. All values are signed 64-bit integers; overflow wraps.
package arith

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrNegativeShift  = errors.New("negative shift count")
	ErrAssignment     = errors.New("assignment is not supported")
)

// Binary applies op to a and b. Comparisons and logical operators yield 0 or 1.
//
// The divisor is checked before dividing, so the error is the only observable
// effect of a division by zero.
func Binary(op BinaryOp, a, b int64) (int64, error) {
	switch op {
	case Add:
		return a + b, nil
	case Subtract:
		return a - b, nil
	case Multiply:
		return a * b, nil
	case Divide:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case Modulo:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a % b, nil
	case BinaryAnd:
		return a & b, nil
	case BinaryOr:
		return a | b, nil
	case BinaryXor:
		return a ^ b, nil
	case LogicalAnd:
		return boolToInt(a != 0 && b != 0), nil
	case LogicalOr:
		return boolToInt(a != 0 || b != 0), nil
	case ShiftLeft:
		if b < 0 {
			return 0, ErrNegativeShift
		}
		// Go defines shifts by counts of 64 or more, so there is no need to
		// mask the count like C code has to.
		return a << uint64(b), nil
	case ShiftRight:
		if b < 0 {
			return 0, ErrNegativeShift
		}
		return a >> uint64(b), nil
	case Less:
		return boolToInt(a < b), nil
	case LessEqual:
		return boolToInt(a <= b), nil
	case Greater:
		return boolToInt(a > b), nil
	case GreaterEqual:
		return boolToInt(a >= b), nil
	case Equal:
		return boolToInt(a == b), nil
	case NotEqual:
		return boolToInt(a != b), nil
	case Assign:
		return 0, ErrAssignment
	}
	return 0, errors.New("unknown binary operator " + op.String())
}

// Unary applies op to a.
func Unary(op UnaryOp, a int64) int64 {
	switch op {
	case Negate:
		return -a
	case Unnegate:
		return a
	case LogicalNot:
		return not(a)
	case BinaryComplement:
		return ^a
	}
	panic("unknown unary operator " + op.String())
}

// ParseNum parses an integer literal with an optional sign. A 0x or 0X prefix
// selects hexadecimal and a leading 0 selects octal, like C.
func ParseNum(s string) (int64, bool) {
	var neg bool
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		s = s[1:]
		neg = true
	}
	if strings.ContainsAny(s, "+-") {
		return 0, false
	}

	var n int64
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err = strconv.ParseInt(s[2:], 16, 64)
	} else if strings.HasPrefix(s, "0") {
		if s == "0" {
			// +0 and -0 are also just 0
			return 0, true
		} else {
			n, err = strconv.ParseInt(s[1:], 8, 64)
		}
	} else {
		n, err = strconv.ParseInt(s, 10, 64)
	}
	if neg {
		n = -n
	}
	return n, err == nil
}

func not(i int64) int64 {
	if i == 0 {
		return 1
	}
	return 0
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
