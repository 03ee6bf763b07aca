package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlanhaskins/ntl/ast"
	"github.com/harlanhaskins/ntl/diag"
	"github.com/harlanhaskins/ntl/lexer"
	"github.com/harlanhaskins/ntl/parser"
	"github.com/harlanhaskins/ntl/source"
	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

func parseModule(t *testing.T, src string) *ast.Module {
	t.Helper()
	toks, err := lexer.New(source.NewMap(src)).Tokenize()
	require.NoError(t, err)
	m, err := parser.New(toks).Parse()
	require.NoError(t, err)
	return m
}

func checkSrc(t *testing.T, src string) (*ast.Module, *Info, *diag.Collector) {
	t.Helper()
	m := parseModule(t, src)
	diags := diag.NewCollector()
	info := Check(m, diags)
	return m, info, diags
}

// categories extracts the category of every error-severity diagnostic.
func categories(c *diag.Collector) []diag.Category {
	var cats []diag.Category
	for _, d := range c.Diagnostics() {
		if d.Severity == diag.Error {
			cats = append(cats, d.Category)
		}
	}
	return cats
}

func TestWellTypedProgram(t *testing.T) {
	m, info, diags := checkSrc(t, `
func f(_ x: Int, _ y: Int) -> Int { return x + y * 2 }
func main() -> Int32 { return Int32(f(3, 4)) }
`)
	require.False(t, diags.HasErrors(), diags.String())

	f := info.Funcs[symbol.Intern("f")]
	require.NotNil(t, f)
	assert.Equal(t, types.Int, f.Return)
	assert.Len(t, f.Params, 2)

	// Every expression slot is filled after a successful check.
	ret := m.Decls[0].(*ast.FuncDecl).Body.Stmts[0].(*ast.ReturnStmt)
	assert.Equal(t, types.Int, ret.Value.Type())
	bin := ret.Value.(*ast.BinaryExpr)
	assert.Equal(t, types.Int, bin.Left.Type())
	assert.Equal(t, types.Int, bin.Right.Type())
}

func TestLiteralTypes(t *testing.T) {
	m, _, diags := checkSrc(t, `
func f() {
    var a = 1
    var b = "s"
    var c = true
}
`)
	require.False(t, diags.HasErrors(), diags.String())
	stmts := m.Decls[0].(*ast.FuncDecl).Body.Stmts
	assert.Equal(t, types.Int, stmts[0].(*ast.VarBinding).ResolvedType)
	assert.True(t, types.Equal(types.NewPointer(types.Int8), stmts[1].(*ast.VarBinding).ResolvedType))
	assert.Equal(t, types.Bool, stmts[2].(*ast.VarBinding).ResolvedType)
}

func TestStructAndMethods(t *testing.T) {
	m, info, diags := checkSrc(t, `
struct Counter {
    var value: Int
    func inc(_ d: Int) { value = value + d }
    func get() -> Int { return value }
}
func main() -> Int32 {
    var c: Counter
    c.value = 0
    c.inc(5)
    return Int32(c.get())
}
`)
	require.False(t, diags.HasErrors(), diags.String())
	require.Len(t, info.Structs, 1)
	st := info.Structs[0]
	assert.Equal(t, "Counter", st.Name.Str())
	require.Len(t, st.Methods, 2)

	// The method signature includes the implicit receiver.
	inc := st.Method(symbol.Intern("inc"))
	require.NotNil(t, inc)
	require.Len(t, inc.Params, 2)
	assert.Equal(t, st, inc.Params[0])

	// Implicit field references inside method bodies are flagged.
	incDecl := m.Decls[0].(*ast.StructDecl).Methods[0]
	assign := incDecl.Body.Stmts[0].(*ast.AssignStmt)
	assert.True(t, assign.ImplicitSelfField)
}

func TestArgumentLabelDiagnostics(t *testing.T) {
	const header = "func add(_ a: Int, b: Int, c: Int) -> Int { return a + b + c }\n"

	_, _, diags := checkSrc(t, header+"func main() { add(1, c: 3, b: 2) }")
	require.Equal(t, []diag.Category{diag.ArgumentLabelOrder}, categories(diags))
	assert.Contains(t, diags.String(), "expected [b, c], got [c, b]")

	_, _, diags = checkSrc(t, header+"func main() { add(1, d: 2, c: 3) }")
	require.Equal(t, []diag.Category{diag.IncorrectArgumentLabel}, categories(diags))
	assert.Contains(t, diags.String(), "expected 'b', got 'd'")

	_, _, diags = checkSrc(t, header+"func main() { add(a: 1, b: 2, c: 3) }")
	require.Equal(t, []diag.Category{diag.UnexpectedArgumentLabel}, categories(diags))

	_, _, diags = checkSrc(t, header+"func main() { add(1, 2, 3) }")
	assert.Equal(t, []diag.Category{diag.MissingArgumentLabel, diag.MissingArgumentLabel}, categories(diags))

	_, _, diags = checkSrc(t, header+"func main() { add(1, b: 2, c: 3) }")
	assert.Empty(t, categories(diags))
}

func TestArityDiagnostics(t *testing.T) {
	const header = "func two(_ a: Int, _ b: Int) -> Int { return a }\n"
	_, _, diags := checkSrc(t, header+"func main() { two(1) }")
	assert.Equal(t, []diag.Category{diag.ArgumentCountMismatch}, categories(diags))

	_, _, diags = checkSrc(t, header+"func main() { two(1, 2, 3) }")
	assert.Equal(t, []diag.Category{diag.ArgumentCountMismatch}, categories(diags))
}

func TestVariadicNote(t *testing.T) {
	_, _, diags := checkSrc(t, `
@extern(c) func printf(_ fmt: *Int8, ...) -> Int32
func main() { printf("%d\n", 42) }
`)
	require.False(t, diags.HasErrors(), diags.String())
	var notes []diag.Category
	for _, d := range diags.Diagnostics() {
		if d.Severity == diag.Note {
			notes = append(notes, d.Category)
		}
	}
	assert.Equal(t, []diag.Category{diag.VariadicArgument}, notes)
}

func TestOperatorDiagnostics(t *testing.T) {
	_, _, diags := checkSrc(t, "func f() { var x = 1 + true }")
	assert.Equal(t, []diag.Category{diag.InvalidBinaryOperands}, categories(diags))

	_, _, diags = checkSrc(t, "func f() { var x = !3 }")
	assert.Equal(t, []diag.Category{diag.InvalidUnaryOperand}, categories(diags))

	_, _, diags = checkSrc(t, "func f() { var x = -true }")
	assert.Equal(t, []diag.Category{diag.InvalidUnaryOperand}, categories(diags))

	_, _, diags = checkSrc(t, "func f(_ b: Bool) { var x = *b }")
	assert.Equal(t, []diag.Category{diag.CannotDereference}, categories(diags))

	_, _, diags = checkSrc(t, "func f() { var p = &3 }")
	assert.Equal(t, []diag.Category{diag.CannotTakeAddress}, categories(diags))

	_, _, diags = checkSrc(t, "func f() { if 3 { } }")
	assert.Equal(t, []diag.Category{diag.NonBooleanCondition}, categories(diags))
}

func TestAddressAndDeref(t *testing.T) {
	_, _, diags := checkSrc(t, `
func f() -> Int {
    var x: Int = 1
    var p: *Int = &x
    return *p
}
`)
	require.False(t, diags.HasErrors(), diags.String())
}

func TestUndefinedAndUnknown(t *testing.T) {
	_, _, diags := checkSrc(t, "func f() { var x = y }")
	assert.Equal(t, []diag.Category{diag.UndefinedVariable}, categories(diags))

	_, _, diags = checkSrc(t, "func f(_ x: Intt) { }")
	assert.Equal(t, []diag.Category{diag.UnknownType}, categories(diags))

	// An unknown type does not cascade: the parameter's uses are silent.
	_, _, diags = checkSrc(t, "func f(_ x: Intt) -> Int { return x + 1 }")
	assert.Equal(t, []diag.Category{diag.UnknownType}, categories(diags))
}

func TestStructDiagnostics(t *testing.T) {
	_, _, diags := checkSrc(t, `
struct P { var x: Int }
func f(_ p: P) -> Int { return p.y }
`)
	assert.Equal(t, []diag.Category{diag.UnknownMember}, categories(diags))

	_, _, diags = checkSrc(t, "func f(_ x: Int) -> Int { return x.y }")
	assert.Equal(t, []diag.Category{diag.InvalidMemberAccess}, categories(diags))

	_, _, diags = checkSrc(t, `
struct P { var x: Int }
func f() { P(1) }
`)
	assert.Equal(t, []diag.Category{diag.NotCallable}, categories(diags))
}

func TestMissingInitializer(t *testing.T) {
	_, _, diags := checkSrc(t, "func f() { var x }")
	assert.Equal(t, []diag.Category{diag.MissingInitializer}, categories(diags))
}

func TestReturnMismatch(t *testing.T) {
	_, _, diags := checkSrc(t, "func f() -> Int { return true }")
	assert.Equal(t, []diag.Category{diag.TypeMismatch}, categories(diags))

	_, _, diags = checkSrc(t, "func f() -> Int { return }")
	assert.Equal(t, []diag.Category{diag.TypeMismatch}, categories(diags))

	// Omitted return type means Void, so a bare return is fine.
	_, _, diags = checkSrc(t, "func f() { return }")
	assert.Empty(t, categories(diags))
}

func TestIdempotence(t *testing.T) {
	const src = `
struct Counter {
    var value: Int
    func get() -> Int { return value }
}
func main() -> Int32 {
    var c: Counter
    c.value = 41
    return Int32(c.get() + 1)
}
`
	m := parseModule(t, src)
	first := diag.NewCollector()
	Check(m, first)
	require.False(t, first.HasErrors(), first.String())

	ret := m.Decls[1].(*ast.FuncDecl).Body.Stmts[2].(*ast.ReturnStmt)
	typeBefore := ret.Value.Type()

	second := diag.NewCollector()
	Check(m, second)
	assert.Equal(t, first.Diagnostics(), second.Diagnostics())
	assert.True(t, types.Equal(typeBefore, ret.Value.Type()))
}

func TestMangleMethod(t *testing.T) {
	assert.Equal(t, "Counter_inc",
		MangleMethod(symbol.Intern("Counter"), symbol.Intern("inc")))
}
