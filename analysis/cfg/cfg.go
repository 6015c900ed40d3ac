// Package cfg models the control flow graph of a single procedure over
// integer and array variables. A Cfg is immutable once built.
package cfg

import (
	"errors"
	"sort"

	"github.com/cs-au-dk/invariant/analysis/linear"
)

var (
	errUnknownOp = errors.New("cfg: unknown operator")
	// ErrInvalidBlock is raised when a block is neither a real block nor an edge block.
	ErrInvalidBlock = errors.New("cfg: block is neither real nor edge")
)

// Label names a basic block within its procedure.
type Label string

func (l Label) String() string { return string(l) }

// Kind distinguishes real basic blocks from synthetic edge blocks.
// The zero value is invalid.
type Kind int

const (
	_ Kind = iota
	// KindReal blocks originate from the program.
	KindReal
	// KindEdge blocks sit on a branch and hold the assumption of the branch condition.
	KindEdge
)

// Edge is a control flow edge between two real blocks.
type Edge struct {
	From, To Label
}

func (e Edge) String() string { return e.From.String() + " -> " + e.To.String() }

// EdgeLabel is the label of the edge block placed between from and to.
func EdgeLabel(from, to Label) Label {
	return from + "__" + to
}

// Block is a basic block.
type Block struct {
	label Label
	kind  Kind
	stmts []Stmt
	succs []*Block
	preds []*Block
	// Real endpoints of an edge block.
	edge Edge
}

func (b *Block) Label() Label      { return b.label }
func (b *Block) Kind() Kind        { return b.kind }
func (b *Block) Stmts() []Stmt     { return b.stmts }
func (b *Block) Succs() []*Block   { return b.succs }
func (b *Block) Preds() []*Block   { return b.preds }
func (b *Block) String() string    { return b.label.String() }
func (b *Block) IsEdgeBlock() bool { return b.kind == KindEdge }

// Edge returns the real endpoints of an edge block.
func (b *Block) Edge() (Edge, bool) {
	return b.edge, b.kind == KindEdge
}

// MustBeValid panics if the block is neither real nor edge.
func (b *Block) MustBeValid() {
	if b.kind != KindReal && b.kind != KindEdge {
		panic(ErrInvalidBlock)
	}
}

// FuncDecl is the signature of a procedure.
type FuncDecl struct {
	Name    string
	Inputs  []linear.Var
	Outputs []linear.Var
}

// Cfg is the control flow graph of one procedure.
type Cfg struct {
	decl    FuncDecl
	entry   *Block
	exit    *Block
	returns []*Block
	blocks  []*Block
	index   map[Label]*Block
	shadows map[linear.Var]bool
}

// Decl returns the procedure signature.
func (g *Cfg) Decl() FuncDecl { return g.decl }

// Name returns the procedure name.
func (g *Cfg) Name() string { return g.decl.Name }

// Entry returns the entry block.
func (g *Cfg) Entry() *Block { return g.entry }

// Exit returns the procedure exit, or nil if the procedure never returns.
// When several blocks return, it is the last of them.
func (g *Cfg) Exit() *Block { return g.exit }

// Returns lists the blocks through which the procedure returns, in
// creation order.
func (g *Cfg) Returns() []*Block { return g.returns }

// IsReturn checks whether the procedure returns after b.
func (g *Cfg) IsReturn(b *Block) bool {
	for _, r := range g.returns {
		if r == b {
			return true
		}
	}
	return false
}

// Blocks returns all blocks in creation order.
func (g *Cfg) Blocks() []*Block { return g.blocks }

// Block retrieves a block by label.
func (g *Cfg) Block(l Label) (*Block, bool) {
	b, ok := g.index[l]
	return b, ok
}

// EdgeBlock retrieves the edge block between two real blocks, if any.
func (g *Cfg) EdgeBlock(from, to Label) (*Block, bool) {
	b, ok := g.index[EdgeLabel(from, to)]
	if !ok || b.kind != KindEdge {
		return nil, false
	}
	return b, true
}

// HasEdge checks whether control may flow directly from one real block to
// another, either over a plain edge or through an edge block.
func (g *Cfg) HasEdge(from, to Label) bool {
	if _, ok := g.EdgeBlock(from, to); ok {
		return true
	}
	src, ok := g.index[from]
	if !ok {
		return false
	}
	for _, s := range src.succs {
		if s.label == to {
			return true
		}
	}
	return false
}

// IsShadow checks whether v is a bookkeeping variable.
func (g *Cfg) IsShadow(v linear.Var) bool { return g.shadows[v] }

// Shadows returns the bookkeeping variables of the procedure in sorted order.
func (g *Cfg) Shadows() []linear.Var {
	vs := make([]linear.Var, 0, len(g.shadows))
	for v := range g.shadows {
		vs = append(vs, v)
	}
	return linear.SortVars(vs)
}

// Vars returns every variable mentioned by the procedure, including its
// signature, in sorted order.
func (g *Cfg) Vars() []linear.Var {
	seen := map[linear.Var]bool{}
	add := func(vs ...linear.Var) {
		for _, v := range vs {
			seen[v] = true
		}
	}
	add(g.decl.Inputs...)
	add(g.decl.Outputs...)
	for _, b := range g.blocks {
		for _, s := range b.stmts {
			add(s.Defs()...)
			add(s.Uses()...)
		}
	}
	vs := make([]linear.Var, 0, len(seen))
	for v := range seen {
		vs = append(vs, v)
	}
	return linear.SortVars(vs)
}

// Constants collects the integer constants appearing in statements and
// conditions, sorted and deduplicated. Each constant c contributes c-1, c
// and c+1 so that strict and non-strict guards yield the same thresholds.
func (g *Cfg) Constants() []int64 {
	seen := map[int64]bool{}
	add := func(es ...linear.Expr) {
		for _, e := range es {
			k := e.Constant()
			seen[k-1], seen[k], seen[k+1] = true, true, true
		}
	}
	for _, b := range g.blocks {
		for _, s := range b.stmts {
			switch s := s.(type) {
			case *Assign:
				add(s.Rhs)
			case *BinOp:
				add(s.X, s.Y)
			case *Assume:
				add(s.Cond.Expr.Scale(-1))
			case *Assert:
				add(s.Cond.Expr.Scale(-1))
			case *Call:
				add(s.Args...)
			case *ArrayInit:
				add(s.Val)
			case *ArrayStore:
				add(s.Idx, s.Val)
			case *ArrayLoad:
				add(s.Idx)
			}
		}
	}
	ks := make([]int64, 0, len(seen))
	for k := range seen {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}

// Calls returns the call statements of the procedure together with their
// locations, in block creation order.
func (g *Cfg) Calls() (res []CallSite) {
	for _, b := range g.blocks {
		for i, s := range b.stmts {
			if c, ok := s.(*Call); ok {
				res = append(res, CallSite{Block: b.label, Index: i, Call: c})
			}
		}
	}
	return
}

// HasArrays checks whether any statement of the procedure manipulates arrays.
func (g *Cfg) HasArrays() bool {
	for _, b := range g.blocks {
		for _, s := range b.stmts {
			if IsArrayStmt(s) {
				return true
			}
		}
	}
	return false
}

// CallSite locates a call statement.
type CallSite struct {
	Block Label
	Index int
	Call  *Call
}
