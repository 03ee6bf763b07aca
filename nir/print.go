package nir

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/log"
)

// String renders a readable listing of the function, one block per label:
//
//	func main() -> Int32 {
//	  entry:
//	    %v0 = alloca Int  ; x
//	    ...
//	}
func (f *Function) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func %s(", f.Name)
	for i, p := range f.Entry().Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", p.Ref(), p.Type())
	}
	fmt.Fprintf(&sb, ") -> %s {\n", f.Return)
	for _, b := range f.Blocks {
		sb.WriteString("  ")
		sb.WriteString(b.Name)
		if len(b.Params) > 0 && b != f.Entry() {
			sb.WriteByte('(')
			for i, p := range b.Params {
				if i > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "%s: %s", p.Ref(), p.Type())
			}
			sb.WriteByte(')')
		}
		sb.WriteString(":\n")
		for _, in := range b.Instrs {
			fmt.Fprintf(&sb, "    %s\n", instrText(in))
		}
		if b.Term != nil {
			fmt.Fprintf(&sb, "    %s\n", termText(b.Term))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func instrText(in Instr) string {
	switch in := in.(type) {
	case *BinaryOp:
		return fmt.Sprintf("%s = %s %s, %s", in.Ref(), in.Op, in.L.Ref(), in.R.Ref())
	case *UnaryOp:
		return fmt.Sprintf("%s = %s %s", in.Ref(), in.Op, in.X.Ref())
	case *Alloca:
		s := fmt.Sprintf("%s = alloca %s", in.Ref(), in.Elem)
		if in.Hint != "" {
			s += "  ; " + in.Hint
		}
		return s
	case *Load:
		return fmt.Sprintf("%s = load %s", in.Ref(), in.Addr.Ref())
	case *Store:
		return fmt.Sprintf("store %s, %s", in.Addr.Ref(), in.Val.Ref())
	case *Cast:
		return fmt.Sprintf("%s = cast %s to %s", in.Ref(), in.X.Ref(), in.Target)
	case *FieldExtract:
		return fmt.Sprintf("%s = extract %s, %s", in.Ref(), in.Base.Ref(), in.Field.Str())
	case *FieldAddress:
		parts := make([]string, len(in.Path))
		for i, p := range in.Path {
			parts[i] = p.Str()
		}
		return fmt.Sprintf("%s = field_addr %s, [%s]", in.Ref(), in.Base.Ref(), strings.Join(parts, ", "))
	case *Call:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = a.Ref()
		}
		return fmt.Sprintf("%s = call %s(%s)", in.Ref(), in.Callee, strings.Join(args, ", "))
	default:
		log.Panicf("nir: unhandled instruction %T", in)
		return ""
	}
}

func termText(t Terminator) string {
	switch t := t.(type) {
	case *Jump:
		return fmt.Sprintf("jump %s(%s)", t.Target.Name, refList(t.Args))
	case *Branch:
		return fmt.Sprintf("br %s, %s(%s), %s(%s)",
			t.Cond.Ref(), t.True.Name, refList(t.TrueArgs), t.False.Name, refList(t.FalseArgs))
	case *Return:
		if t.Value == nil {
			return "ret"
		}
		return "ret " + t.Value.Ref()
	default:
		log.Panicf("nir: unhandled terminator %T", t)
		return ""
	}
}

func refList(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.Ref()
	}
	return strings.Join(parts, ", ")
}
