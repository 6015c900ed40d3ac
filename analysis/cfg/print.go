package cfg

import (
	"fmt"
	"io"
	"strings"
)

func joinVars[T fmt.Stringer](vs []T) string {
	strs := make([]string, len(vs))
	for i, v := range vs {
		strs[i] = v.String()
	}
	return strings.Join(strs, ", ")
}

// gotoString renders the successors of a real block, folding edge blocks
// back into guarded targets.
func gotoString(b *Block) string {
	targets := make([]string, 0, len(b.succs))
	for _, s := range b.succs {
		e, isEdge := s.Edge()
		if !isEdge {
			targets = append(targets, s.label.String())
			continue
		}
		conds := make([]string, 0, len(s.stmts))
		for _, st := range s.stmts {
			if a, ok := st.(*Assume); ok {
				conds = append(conds, a.Cond.String())
			}
		}
		targets = append(targets, fmt.Sprintf("%s [%s]", e.To, strings.Join(conds, " && ")))
	}
	return "goto " + strings.Join(targets, ", ")
}

// Fprint writes the procedure in the textual format accepted by Parse.
func Fprint(w io.Writer, g *Cfg) error {
	var sb strings.Builder
	sb.WriteString("func " + g.decl.Name + "(" + joinVars(g.decl.Inputs) + ")")
	if len(g.decl.Outputs) > 0 {
		sb.WriteString(" -> (" + joinVars(g.decl.Outputs) + ")")
	}
	sb.WriteString(" {\n")
	if shadows := g.Shadows(); len(shadows) > 0 {
		sb.WriteString("  shadow " + joinVars(shadows) + "\n")
	}

	for _, b := range g.blocks {
		if b.kind != KindReal {
			continue
		}
		sb.WriteString(b.label.String() + ":\n")
		for _, s := range b.stmts {
			sb.WriteString("  " + s.String() + "\n")
		}
		if len(b.succs) > 0 {
			sb.WriteString("  " + gotoString(b) + "\n")
		}
	}
	sb.WriteString("}\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func (g *Cfg) String() string {
	var sb strings.Builder
	Fprint(&sb, g)
	return sb.String()
}
