package ast

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/log"

	"github.com/harlanhaskins/ntl/symbol"
)

// Print renders the module back to NTL source text. Reparsing the output
// yields a tree equal to the input up to source ranges, which is the
// round-trip property the parser tests rely on.
func Print(m *Module) string {
	p := printer{}
	for i, d := range m.Decls {
		if i > 0 {
			p.sb.WriteByte('\n')
		}
		p.decl(d)
	}
	return p.sb.String()
}

// printer holds the output buffer and the indentation counter, which is the
// only printing state.
type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) line(format string, args ...interface{}) {
	p.sb.WriteString(strings.Repeat("    ", p.indent))
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) decl(d Decl) {
	switch d := d.(type) {
	case *ExternDecl:
		p.line("@extern(%s) %s", d.Convention, funcHeader(d.Func))
	case *FuncDecl:
		p.funcDecl(d)
	case *StructDecl:
		p.line("struct %s {", d.Name.Str())
		p.indent++
		for _, f := range d.Fields {
			p.line("%s", varBindingText(f))
		}
		for _, m := range d.Methods {
			p.funcDecl(m)
		}
		p.indent--
		p.line("}")
	default:
		log.Panicf("ast: unhandled declaration %T", d)
	}
}

func (p *printer) funcDecl(d *FuncDecl) {
	if d.Body == nil {
		p.line("%s", funcHeader(d))
		return
	}
	p.line("%s {", funcHeader(d))
	p.indent++
	for _, s := range d.Body.Stmts {
		p.stmt(s)
	}
	p.indent--
	p.line("}")
}

func funcHeader(d *FuncDecl) string {
	var sb strings.Builder
	sb.WriteString("func ")
	sb.WriteString(d.Name.Str())
	sb.WriteByte('(')
	for i, param := range d.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(paramText(param))
	}
	sb.WriteByte(')')
	if d.ReturnType != nil {
		sb.WriteString(" -> ")
		sb.WriteString(TypeText(d.ReturnType))
	}
	return sb.String()
}

func paramText(param *Param) string {
	if param.Variadic && param.Type == nil {
		return "..."
	}
	var sb strings.Builder
	switch param.Label {
	case symbol.Invalid:
		sb.WriteString("_ ")
	case param.Name:
		// The label equals the name and is spelled once.
	default:
		sb.WriteString(param.Label.Str())
		sb.WriteByte(' ')
	}
	sb.WriteString(param.Name.Str())
	sb.WriteString(": ")
	sb.WriteString(TypeText(param.Type))
	if param.Variadic {
		sb.WriteString("...")
	}
	return sb.String()
}

func varBindingText(v *VarBinding) string {
	var sb strings.Builder
	sb.WriteString("var ")
	sb.WriteString(v.Name.Str())
	if v.Type != nil {
		sb.WriteString(": ")
		sb.WriteString(TypeText(v.Type))
	}
	if v.Init != nil {
		sb.WriteString(" = ")
		sb.WriteString(ExprText(v.Init))
	}
	return sb.String()
}

func (p *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *VarBinding:
		p.line("%s", varBindingText(s))
	case *AssignStmt:
		p.line("%s = %s", s.Name.Str(), ExprText(s.Value))
	case *MemberAssignStmt:
		p.line("%s.%s = %s", s.BaseName.Str(), s.Member.Str(), ExprText(s.Value))
	case *LValueAssignStmt:
		p.line("%s = %s", ExprText(s.Target), ExprText(s.Value))
	case *ReturnStmt:
		if s.Value == nil {
			p.line("return")
		} else {
			p.line("return %s", ExprText(s.Value))
		}
	case *ExprStmt:
		p.line("%s", ExprText(s.X))
	case *IfStmt:
		p.ifStmt(s)
	case *Block:
		p.line("{")
		p.indent++
		for _, inner := range s.Stmts {
			p.stmt(inner)
		}
		p.indent--
		p.line("}")
	default:
		log.Panicf("ast: unhandled statement %T", s)
	}
}

func (p *printer) ifStmt(s *IfStmt) {
	for i, clause := range s.Clauses {
		kw := "if"
		if i > 0 {
			kw = "} else if"
		}
		p.line("%s %s {", kw, ExprText(clause.Cond))
		p.indent++
		for _, inner := range clause.Body.Stmts {
			p.stmt(inner)
		}
		p.indent--
	}
	if s.Else != nil {
		p.line("} else {")
		p.indent++
		for _, inner := range s.Else.Stmts {
			p.stmt(inner)
		}
		p.indent--
	}
	p.line("}")
}

// ExprText renders an expression. Subexpressions are parenthesized whenever
// precedence could change the reading, so the output reparses to the same
// shape without tracking operator context.
func ExprText(e Expr) string {
	switch e := e.(type) {
	case *IntegerLiteral:
		return e.Text
	case *StringLiteral:
		return `"` + e.Value + `"`
	case *BooleanLiteral:
		if e.Value {
			return "true"
		}
		return "false"
	case *Identifier:
		return e.Name.Str()
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", ExprText(e.Left), e.Op, ExprText(e.Right))
	case *UnaryExpr:
		return fmt.Sprintf("%s(%s)", e.Op, ExprText(e.Operand))
	case *CastExpr:
		return fmt.Sprintf("%s(%s)", TypeText(e.Target), ExprText(e.Value))
	case *CallExpr:
		var sb strings.Builder
		sb.WriteString(ExprText(e.Fn))
		sb.WriteByte('(')
		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			if arg.Label != symbol.Invalid {
				sb.WriteString(arg.Label.Str())
				sb.WriteString(": ")
			}
			sb.WriteString(ExprText(arg.Value))
		}
		sb.WriteByte(')')
		return sb.String()
	case *MemberAccessExpr:
		return fmt.Sprintf("%s.%s", ExprText(e.BaseExpr), e.Member.Str())
	default:
		log.Panicf("ast: unhandled expression %T", e)
		return ""
	}
}

// TypeText renders a type node.
func TypeText(t TypeNode) string {
	switch t := t.(type) {
	case *NamedType:
		return t.Name.Str()
	case *PointerType:
		return "*" + TypeText(t.Elem)
	default:
		log.Panicf("ast: unhandled type node %T", t)
		return ""
	}
}
