package interp

import (
	"fmt"
	"io"
	"strings"
)

// RegisterStdlib installs the builtins extern declarations commonly bind
// to: printf, putchar, and abort. Output goes to w so tests and hosts can
// capture it.
func RegisterStdlib(reg *Registry, w io.Writer) {
	reg.Register("printf", func(args []Value) (Value, error) {
		if len(args) == 0 {
			return Value{}, Errorf(InvalidArgumentCount, "printf needs a format argument")
		}
		if args[0].Kind() != KString {
			return Value{}, Errorf(TypeMismatch, "printf format must be a string, got %s", args[0].Kind())
		}
		out := formatC(args[0].Str(), args[1:])
		n, _ := io.WriteString(w, out)
		return Int32(int32(n)), nil
	})
	reg.Register("putchar", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return Value{}, Errorf(InvalidArgumentCount, "putchar takes 1 argument, got %d", len(args))
		}
		switch args[0].Kind() {
		case KInt, KInt8, KInt32:
		default:
			return Value{}, Errorf(TypeMismatch, "putchar takes an integer, got %s", args[0].Kind())
		}
		fmt.Fprintf(w, "%c", rune(args[0].Int64()))
		return Int32(int32(args[0].Int64())), nil
	})
	reg.Register("abort", func(args []Value) (Value, error) {
		return Value{}, Errorf(Aborted, "abort called")
	})
}

// formatC expands the C format verbs NTL programs use: %d, %ld, %s, %c,
// and %%. Unrecognized verbs pass through unchanged.
func formatC(format string, args []Value) string {
	var sb strings.Builder
	next := 0
	arg := func() (Value, bool) {
		if next < len(args) {
			v := args[next]
			next++
			return v, true
		}
		return Value{}, false
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			sb.WriteByte(c)
			continue
		}
		i++
		verb := format[i]
		if verb == 'l' && i+1 < len(format) && format[i+1] == 'd' {
			i++
			verb = 'd'
		}
		switch verb {
		case '%':
			sb.WriteByte('%')
		case 'd':
			if v, ok := arg(); ok {
				fmt.Fprintf(&sb, "%d", v.Int64())
			}
		case 'c':
			if v, ok := arg(); ok {
				fmt.Fprintf(&sb, "%c", rune(v.Int64()))
			}
		case 's':
			if v, ok := arg(); ok {
				sb.WriteString(v.Str())
			}
		default:
			sb.WriteByte('%')
			sb.WriteByte(verb)
		}
	}
	return sb.String()
}
