// Package ast defines the untyped expression tree produced by the equation
// parser and consumed by the builtin-visitor, unit checker, and variable
// builder.
//
// Nodes live in an Arena and are addressed by NodeID, a 32-bit index,
// instead of Go pointers. Every pass below (builtin-rewriting, unit
// checking, variable building) walks the same equation tree, so an
// arena makes rewriting (replace-in-place by overwriting a slot) and
// cycle-safety trivial without reference counting.
package ast

import "fmt"

// Loc is a byte-offset span into the original equation text.
type Loc struct {
	Start int
	End   int
}

// Kind tags which variant of Expr a Node holds.
type Kind uint8

const (
	KindConst Kind = iota
	KindVar
	KindApp
	KindSubscript
	KindOp1
	KindOp2
	KindIf
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "Const"
	case KindVar:
		return "Var"
	case KindApp:
		return "App"
	case KindSubscript:
		return "Subscript"
	case KindOp1:
		return "Op1"
	case KindOp2:
		return "Op2"
	case KindIf:
		return "If"
	default:
		return "Unknown"
	}
}

// Op1Kind enumerates unary operators.
type Op1Kind uint8

const (
	Op1Negate Op1Kind = iota
	Op1Not
	Op1Positive
)

func (o Op1Kind) String() string {
	switch o {
	case Op1Negate:
		return "-"
	case Op1Not:
		return "not"
	case Op1Positive:
		return "+"
	default:
		return "?"
	}
}

// Op2Kind enumerates binary operators, ordered by precedence (lowest
// first): or < and < comparison < + - < * / % < unary < ^.
type Op2Kind uint8

const (
	Op2Or Op2Kind = iota
	Op2And
	Op2Eq
	Op2Neq
	Op2Lt
	Op2Gt
	Op2Lte
	Op2Gte
	Op2Add
	Op2Sub
	Op2Mul
	Op2Div
	Op2Mod
	Op2Pow
)

func (o Op2Kind) String() string {
	switch o {
	case Op2Or:
		return "or"
	case Op2And:
		return "and"
	case Op2Eq:
		return "="
	case Op2Neq:
		return "<>"
	case Op2Lt:
		return "<"
	case Op2Gt:
		return ">"
	case Op2Lte:
		return "<="
	case Op2Gte:
		return ">="
	case Op2Add:
		return "+"
	case Op2Sub:
		return "-"
	case Op2Mul:
		return "*"
	case Op2Div:
		return "/"
	case Op2Mod:
		return "%"
	case Op2Pow:
		return "^"
	default:
		return "?"
	}
}

// NodeID addresses a Node inside an Arena. The zero value, NoNode, never
// refers to a real node: valid arena slots start at index 1.
type NodeID int32

// NoNode is the invalid/absent NodeID.
const NoNode NodeID = 0

// Node is a tagged union holding every Expr variant: Const(text, value),
// Var(ident), App(name, args), Subscript(ident, index-exprs), Op1, Op2,
// If. Only the fields relevant to Kind are
// meaningful; the arena keeps one flat slice of Node rather than one Go
// struct per variant so walks and rewrites don't need an interface
// dispatch or heap allocation per node.
type Node struct {
	Kind Kind
	Loc  Loc

	// Const
	Text  string
	Value float64

	// Var: canonical identifier text.
	// App: builtin or module-output name (post builtin-rewrite: "<module>.output").
	// Subscript: the base identifier being indexed.
	Name string

	// App args / Subscript index expressions.
	Args []NodeID

	// Op1
	Op1  Op1Kind
	Kid  NodeID

	// Op2
	Op2  Op2Kind
	L, R NodeID

	// If
	Cond, Then, Else NodeID
}

// Arena owns a flat slice of Nodes addressed by NodeID. The zero Arena is
// not ready to use; call NewArena.
type Arena struct {
	nodes []Node
}

// NewArena returns an empty Arena with slot 0 reserved for NoNode.
func NewArena() *Arena {
	return &Arena{nodes: make([]Node, 1, 16)}
}

// Get returns the Node at id. Panics on NoNode or an out-of-range id: both
// indicate a compiler bug, not malformed input.
func (a *Arena) Get(id NodeID) *Node {
	if id == NoNode || int(id) >= len(a.nodes) {
		panic(fmt.Sprintf("ast: invalid NodeID %d", id))
	}
	return &a.nodes[id]
}

// Len reports how many live nodes the arena holds (excluding slot 0).
func (a *Arena) Len() int { return len(a.nodes) - 1 }

func (a *Arena) alloc(n Node) NodeID {
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	return id
}

// Const allocates a Const(text, value) node.
func (a *Arena) Const(text string, value float64, loc Loc) NodeID {
	return a.alloc(Node{Kind: KindConst, Loc: loc, Text: text, Value: value})
}

// Var allocates a Var(ident) node. name must already be canonical.
func (a *Arena) Var(name string, loc Loc) NodeID {
	return a.alloc(Node{Kind: KindVar, Loc: loc, Name: name})
}

// App allocates an App(name, args) node.
func (a *Arena) App(name string, args []NodeID, loc Loc) NodeID {
	return a.alloc(Node{Kind: KindApp, Loc: loc, Name: name, Args: args})
}

// Subscript allocates a Subscript(ident, index-exprs) node.
func (a *Arena) Subscript(ident string, idx []NodeID, loc Loc) NodeID {
	return a.alloc(Node{Kind: KindSubscript, Loc: loc, Name: ident, Args: idx})
}

// UnaryOp allocates an Op1 node.
func (a *Arena) UnaryOp(op Op1Kind, kid NodeID, loc Loc) NodeID {
	return a.alloc(Node{Kind: KindOp1, Loc: loc, Op1: op, Kid: kid})
}

// BinaryOp allocates an Op2 node.
func (a *Arena) BinaryOp(op Op2Kind, l, r NodeID, loc Loc) NodeID {
	return a.alloc(Node{Kind: KindOp2, Loc: loc, Op2: op, L: l, R: r})
}

// IfExpr allocates an If node.
func (a *Arena) IfExpr(cond, then, els NodeID, loc Loc) NodeID {
	return a.alloc(Node{Kind: KindIf, Loc: loc, Cond: cond, Then: then, Else: els})
}

// Replace overwrites the node at id in place — used by the builtin-visitor
// to splice a Var("<module>.output") node over an App node without
// disturbing any other NodeID that still points at id.
func (a *Arena) Replace(id NodeID, n Node) {
	n.Loc = a.Get(id).Loc
	a.nodes[id] = n
}

// Walk visits id and every descendant in pre-order, calling visit(id) for
// each. Mutating the arena (e.g. via Replace) during a Walk is safe as long
// as visit does not change which children a node reports — builtin-rewrite
// relies on exactly this to splice nodes mid-walk.
func Walk(a *Arena, id NodeID, visit func(NodeID)) {
	if id == NoNode {
		return
	}
	visit(id)
	n := a.Get(id)
	switch n.Kind {
	case KindApp, KindSubscript:
		for _, c := range n.Args {
			Walk(a, c, visit)
		}
	case KindOp1:
		Walk(a, n.Kid, visit)
	case KindOp2:
		Walk(a, n.L, visit)
		Walk(a, n.R, visit)
	case KindIf:
		Walk(a, n.Cond, visit)
		Walk(a, n.Then, visit)
		Walk(a, n.Else, visit)
	}
}
