package cemit

import (
	"v.io/x/lib/toposort"

	"github.com/harlanhaskins/ntl/types"
)

// sortStructs orders struct types so that any struct embedded by value in
// another is emitted first; C requires a complete type at the field. Order
// is otherwise stable with respect to the input: the sorter sees nodes in
// declaration order. Pointer fields do not force an edge because the
// typedef names every struct before the bodies reference it.
func sortStructs(structs []*types.Struct) []*types.Struct {
	var sorter toposort.Sorter
	for _, st := range structs {
		sorter.AddNode(st)
	}
	for _, st := range structs {
		for _, f := range st.Fields {
			if inner, ok := f.Type.(*types.Struct); ok {
				// inner must precede st.
				sorter.AddEdge(st, inner)
			}
		}
	}
	sorted, _ := sorter.Sort()
	out := make([]*types.Struct, 0, len(structs))
	for _, v := range sorted {
		out = append(out, v.(*types.Struct))
	}
	return out
}
