package symbol

// Symbols the compiler refers to by name on hot paths. Pre-interning them
// at package load keeps the checker and the NIR builder free of string
// lookups for the language's fixed vocabulary.
var (
	// Self is the implicit method receiver.
	Self = Intern("self")
	// Main is the conventional entry-point function.
	Main = Intern("main")

	// Primitive type names.
	Int   = Intern("Int")
	Int8  = Intern("Int8")
	Int32 = Intern("Int32")
	Bool  = Intern("Bool")
	Void  = Intern("Void")

	// VariadicMarker is the synthesized name of a bare "..." parameter.
	VariadicMarker = Intern("...")
)
