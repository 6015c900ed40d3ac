package cfg

import (
	"errors"
	"fmt"

	"github.com/cs-au-dk/invariant/analysis/linear"
)

var (
	ErrDuplicateEdge  = errors.New("duplicate edge")
	ErrDuplicateBlock = errors.New("duplicate block")
	ErrUnknownLabel   = errors.New("unknown block label")
	ErrEmptyCfg       = errors.New("control flow graph has no blocks")
)

// Builder incrementally constructs a Cfg. The first error encountered is
// retained and reported by Build; subsequent calls are no-ops.
type Builder struct {
	g        *Cfg
	entry    Label
	exit     Label
	entrySet bool
	exitSet  bool
	edges    map[Edge]bool
	err      error
}

// NewBuilder creates a builder for a procedure with the given signature.
func NewBuilder(decl FuncDecl) *Builder {
	return &Builder{
		g: &Cfg{
			decl:    decl,
			index:   make(map[Label]*Block),
			shadows: make(map[linear.Var]bool),
		},
		edges: make(map[Edge]bool),
	}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) block(l Label, kind Kind) *Block {
	if blk, ok := b.g.index[l]; ok {
		if blk.kind != kind {
			b.fail(fmt.Errorf("%w: %s", ErrDuplicateBlock, l))
		}
		return blk
	}
	blk := &Block{label: l, kind: kind}
	b.g.index[l] = blk
	b.g.blocks = append(b.g.blocks, blk)
	return blk
}

// Block declares a real block. Declaring an existing block is a no-op.
func (b *Builder) Block(l Label) *Builder {
	b.block(l, KindReal)
	return b
}

// Add appends statements to a real block, declaring it if needed.
func (b *Builder) Add(l Label, stmts ...Stmt) *Builder {
	blk := b.block(l, KindReal)
	blk.stmts = append(blk.stmts, stmts...)
	return b
}

func (b *Builder) link(from, to *Block) {
	from.succs = append(from.succs, to)
	to.preds = append(to.preds, from)
}

func (b *Builder) checkEdge(from, to Label) bool {
	e := Edge{from, to}
	if b.edges[e] {
		b.fail(fmt.Errorf("%w: %s", ErrDuplicateEdge, e))
		return false
	}
	b.edges[e] = true
	return true
}

// Edge adds an unconditional edge between two real blocks.
func (b *Builder) Edge(from, to Label) *Builder {
	if !b.checkEdge(from, to) {
		return b
	}
	b.link(b.block(from, KindReal), b.block(to, KindReal))
	return b
}

// GuardedEdge adds an edge block between two real blocks that assumes the
// given conditions.
func (b *Builder) GuardedEdge(from, to Label, conds ...linear.Cst) *Builder {
	if !b.checkEdge(from, to) {
		return b
	}
	src, dst := b.block(from, KindReal), b.block(to, KindReal)
	eb := b.block(EdgeLabel(from, to), KindEdge)
	eb.edge = Edge{from, to}
	for _, c := range conds {
		eb.stmts = append(eb.stmts, &Assume{Cond: c})
	}
	b.link(src, eb)
	b.link(eb, dst)
	return b
}

// Shadow declares bookkeeping variables.
func (b *Builder) Shadow(vs ...linear.Var) *Builder {
	for _, v := range vs {
		b.g.shadows[v] = true
	}
	return b
}

// Entry sets the entry block. By default the first declared block is used.
func (b *Builder) Entry(l Label) *Builder {
	b.entry, b.entrySet = l, true
	return b
}

// Exit sets the exit block, which becomes the only return block. By
// default every real block without successors returns, and the last of
// them is the exit.
func (b *Builder) Exit(l Label) *Builder {
	b.exit, b.exitSet = l, true
	return b
}

// Build finalizes the Cfg. The builder must not be used afterwards.
func (b *Builder) Build() (*Cfg, error) {
	if b.err != nil {
		return nil, b.err
	}
	g := b.g
	if len(g.blocks) == 0 {
		return nil, ErrEmptyCfg
	}

	if b.entrySet {
		blk, ok := g.index[b.entry]
		if !ok || blk.kind != KindReal {
			return nil, fmt.Errorf("%w: entry %s", ErrUnknownLabel, b.entry)
		}
		g.entry = blk
	} else {
		g.entry = g.blocks[0]
	}

	if b.exitSet {
		blk, ok := g.index[b.exit]
		if !ok || blk.kind != KindReal {
			return nil, fmt.Errorf("%w: exit %s", ErrUnknownLabel, b.exit)
		}
		g.exit = blk
		g.returns = []*Block{blk}
	} else {
		for _, blk := range g.blocks {
			if blk.kind == KindReal && len(blk.succs) == 0 {
				g.returns = append(g.returns, blk)
			}
		}
		if n := len(g.returns); n > 0 {
			g.exit = g.returns[n-1]
		}
	}

	b.g = nil
	return g, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Cfg {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
