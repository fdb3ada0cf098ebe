package parse

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// String methods print source that parses back to the same tree. Binary and
// unary expressions are fully parenthesized, and commands used as operands
// are wrapped in parentheses.

func (n *ConstantNumber) String() string { return strconv.FormatInt(n.Value, 10) }

func (n *ConstantString) String() string {
	if n.Quote == 0 {
		return n.Value
	}
	q := string(n.Quote)
	return q + n.Value + q
}

func (n *UnaryExpression) String() string {
	return "(" + n.Op.String() + operand(n.Operand) + ")"
}

func (n *BinaryExpression) String() string {
	return "(" + operand(n.Lhs) + " " + n.Op.String() + " " + operand(n.Rhs) + ")"
}

func operand(n Node) string {
	if IsCommand(n) {
		if u, ok := n.(*UnaryExpression); ok {
			return u.String()
		}
		return "(" + n.String() + ")"
	}
	return n.String()
}

// String returns the word as written.
func (w *Word) String() string {
	var sb strings.Builder
	for _, part := range w.Parts {
		sb.WriteString(part.Source())
	}
	return sb.String()
}

var redirectOpNames = [...]string{
	RedirectInput:  "<",
	RedirectOutput: ">",
	RedirectAppend: ">>",
}

func (op RedirectOp) String() string { return redirectOpNames[op] }

func (rd *Redirect) String() string {
	var sb strings.Builder
	if rd.Fd >= 0 {
		sb.WriteString(strconv.Itoa(rd.Fd))
	}
	sb.WriteString(rd.Op.String())
	if rd.Target != nil {
		sb.WriteString(rd.Target.String())
	} else {
		sb.WriteString("&" + strconv.Itoa(rd.TargetFd))
	}
	return sb.String()
}

func (n *SimpleCommand) String() string {
	parts := make([]string, 0, len(n.Words)+len(n.Redirects))
	for _, w := range n.Words {
		parts = append(parts, w.String())
	}
	for _, rd := range n.Redirects {
		parts = append(parts, rd.String())
	}
	return strings.Join(parts, " ")
}

func (n *Pipeline) String() string {
	s := strings.Join(each((*SimpleCommand).String, n.Commands), " | ")
	if n.Async {
		s += " &"
	}
	return s
}

var conditionSeparators = [...]string{
	ConditionNone: "; ",
	ConditionAnd:  " && ",
	ConditionOr:   " || ",
}

var conditionNames = [...]string{
	ConditionNone: "none",
	ConditionAnd:  "and",
	ConditionOr:   "or",
}

func (k ConditionKind) String() string { return conditionNames[k] }

func (n *CompoundList) String() string {
	var sb strings.Builder
	for i, item := range n.Items {
		if i > 0 {
			sb.WriteString(conditionSeparators[item.Kind])
		}
		if _, ok := item.Command.(*CompoundList); ok {
			sb.WriteString("(" + item.Command.String() + ")")
		} else {
			sb.WriteString(item.Command.String())
		}
	}
	return sb.String()
}

func (n *If) String() string {
	s := "if " + n.Condition.String() + "; then " + n.Then.String()
	if n.Otherwise != nil {
		s += "; else " + n.Otherwise.String()
	}
	return s + "; fi"
}

func each[X, Y any](f func(X) Y, xs []X) []Y {
	ys := make([]Y, len(xs))
	for i, x := range xs {
		ys[i] = f(x)
	}
	return ys
}

// PprintAST returns a multi-line dump of the tree, for debugging.
func PprintAST(n Node) string {
	var b bytes.Buffer
	pprintAST(&b, "", toAST(reflect.ValueOf(n)))
	return b.String()
}

// An intermediate representation for nodes, keeping information relevant in the
// AST.
type ast struct {
	name   string
	fields []*astField
}

type astField struct {
	name   string
	scalar any
	node   *ast
	nodes  []*ast
}

var wordTyp = reflect.TypeOf((*Word)(nil))

// Converts a pointer to a node struct (or an interface holding one).
func toAST(v reflect.Value) *ast {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() || v.IsNil() {
		return nil
	}

	nVal := v.Elem()
	nTyp := nVal.Type()
	a := &ast{name: nTyp.Name()}

	for i := 0; i < nVal.NumField(); i++ {
		sf := nTyp.Field(i)
		if sf.PkgPath != "" || sf.Anonymous {
			// Skip unexported fields and the embedded Location
			continue
		}

		f := &astField{name: sf.Name}
		fieldVal := nVal.Field(i)

		switch {
		case sf.Type == wordTyp:
			if w := fieldVal.Interface().(*Word); w != nil {
				f.scalar = w.String()
			}
		case isNodeLike(sf.Type):
			f.node = toAST(fieldVal)
		case sf.Type.Kind() == reflect.Slice && sf.Type.Elem() == wordTyp:
			words := fieldVal.Interface().([]*Word)
			f.scalar = strings.Join(each((*Word).String, words), " ")
		case sf.Type.Kind() == reflect.Slice && isNodeLike(sf.Type.Elem()):
			nodes := make([]*ast, fieldVal.Len())
			for j := 0; j < fieldVal.Len(); j++ {
				nodes[j] = toAST(fieldVal.Index(j))
			}
			f.nodes = nodes
		default:
			f.scalar = fieldVal.Interface()
		}

		a.fields = append(a.fields, f)
	}
	return a
}

// Reports whether values of t are printed as subtrees: Node interfaces and
// pointers to structs.
func isNodeLike(t reflect.Type) bool {
	return t.Kind() == reflect.Interface ||
		(t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct)
}

func pprintAST(buf *bytes.Buffer, indent string, a *ast) {
	if a == nil {
		buf.WriteString("nil")
		return
	}

	buf.WriteString(a.name)

	indent1 := indent + "  "
	indent2 := indent1 + "  "

	for _, f := range a.fields {
		buf.WriteString("\n" + indent1 + "." + f.name + " =")
		switch {
		case f.scalar != nil:
			if s, ok := f.scalar.(string); ok {
				fmt.Fprintf(buf, " %q", s)
			} else {
				fmt.Fprint(buf, " ", f.scalar)
			}
		case f.node != nil:
			buf.WriteString(" ")
			pprintAST(buf, indent1, f.node)
		case f.nodes != nil:
			for _, node := range f.nodes {
				buf.WriteString("\n" + indent2)
				pprintAST(buf, indent2, node)
			}
		default:
			buf.WriteString(" nil")
		}
	}
}
