package ast

// Equal reports whether the subtree rooted at idA in arena a is
// structurally equal to the subtree rooted at idB in arena b, ignoring
// Loc — used to check that Parse(Print(ast)) is structurally equal to
// ast modulo spans.
func Equal(a *Arena, idA NodeID, b *Arena, idB NodeID) bool {
	if idA == NoNode || idB == NoNode {
		return idA == idB
	}
	na, nb := a.Get(idA), b.Get(idB)
	if na.Kind != nb.Kind {
		return false
	}
	switch na.Kind {
	case KindConst:
		return na.Value == nb.Value
	case KindVar:
		return na.Name == nb.Name
	case KindApp, KindSubscript:
		if na.Name != nb.Name || len(na.Args) != len(nb.Args) {
			return false
		}
		for i := range na.Args {
			if !Equal(a, na.Args[i], b, nb.Args[i]) {
				return false
			}
		}
		return true
	case KindOp1:
		return na.Op1 == nb.Op1 && Equal(a, na.Kid, b, nb.Kid)
	case KindOp2:
		return na.Op2 == nb.Op2 && Equal(a, na.L, b, nb.L) && Equal(a, na.R, b, nb.R)
	case KindIf:
		return Equal(a, na.Cond, b, nb.Cond) && Equal(a, na.Then, b, nb.Then) && Equal(a, na.Else, b, nb.Else)
	default:
		return false
	}
}
