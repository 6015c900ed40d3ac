package cfg

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/cs-au-dk/invariant/analysis/linear"
	"github.com/pkg/errors"
)

// SyntaxError reports a malformed procedure in the textual format.
type SyntaxError struct {
	Pos scanner.Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// ParseFile reads every procedure from a file.
func ParseFile(path string) ([]*Cfg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	cfgs, err := Parse(path, f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return cfgs, nil
}

// ParseString reads every procedure from a string.
func ParseString(src string) ([]*Cfg, error) {
	return Parse("", strings.NewReader(src))
}

// MustParse is like ParseString but panics on error. Used by tests.
func MustParse(src string) []*Cfg {
	cfgs, err := ParseString(src)
	if err != nil {
		panic(err)
	}
	return cfgs
}

// Parse reads every procedure from src. Procedures look like:
//
//	func f(x, y) -> (r) {
//	entry:
//	  i := 0
//	  goto loop
//	loop:
//	  goto body [i <= 9], done [i >= 10]
//	body:
//	  i := i + 1
//	  goto loop
//	done:
//	  r := i
//	}
func Parse(filename string, src io.Reader) (cfgs []*Cfg, err error) {
	p := &parser{}
	p.s.Init(src)
	p.s.Filename = filename
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanComments | scanner.SkipComments
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.errorf("%s", msg)
	}

	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*SyntaxError); ok {
				cfgs, err = nil, se
				return
			}
			panic(r)
		}
	}()

	p.next()
	names := map[string]bool{}
	for p.tok != scanner.EOF {
		g := p.parseFunc()
		if names[g.Name()] {
			p.errorf("procedure %s redeclared", g.Name())
		}
		names[g.Name()] = true
		cfgs = append(cfgs, g)
	}
	return cfgs, nil
}

type parser struct {
	s   scanner.Scanner
	tok rune
}

type gotoTarget struct {
	from, to Label
	conds    []linear.Cst
	pos      scanner.Position
}

func (p *parser) next() { p.tok = p.s.Scan() }

func (p *parser) errorf(format string, args ...any) {
	pos := p.s.Position
	if !pos.IsValid() {
		pos = p.s.Pos()
	}
	panic(&SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) tokString() string {
	if p.tok == scanner.EOF {
		return "EOF"
	}
	return strconv.Quote(p.s.TokenText())
}

func (p *parser) expect(tok rune) {
	if p.tok != tok {
		p.errorf("expected %s, found %s", scanner.TokenString(tok), p.tokString())
	}
	p.next()
}

// expectAssign consumes ":=".
func (p *parser) expectAssign() {
	if p.tok != ':' || p.s.Peek() != '=' {
		p.errorf("expected \":=\", found %s", p.tokString())
	}
	p.next()
	p.next()
}

func (p *parser) ident() string {
	if p.tok != scanner.Ident {
		p.errorf("expected identifier, found %s", p.tokString())
	}
	name := p.s.TokenText()
	p.next()
	return name
}

func (p *parser) keyword(kw string) {
	if p.tok != scanner.Ident || p.s.TokenText() != kw {
		p.errorf("expected %q, found %s", kw, p.tokString())
	}
	p.next()
}

// vars parses a possibly empty comma separated list of identifiers.
func (p *parser) vars(closing rune) (vs []linear.Var) {
	for p.tok != closing {
		if len(vs) > 0 {
			p.expect(',')
		}
		vs = append(vs, linear.Var(p.ident()))
	}
	return
}

func (p *parser) parseFunc() *Cfg {
	pos := p.s.Position
	p.keyword("func")
	decl := FuncDecl{Name: p.ident()}
	p.expect('(')
	decl.Inputs = p.vars(')')
	p.expect(')')
	if p.tok == '-' {
		p.next()
		p.expect('>')
		p.expect('(')
		decl.Outputs = p.vars(')')
		p.expect(')')
	}
	p.expect('{')

	b := NewBuilder(decl)
	var (
		cur        Label
		order      []Label
		terminated bool
		gotos      []gotoTarget
	)
	defined := map[Label]bool{}

	for p.tok != '}' {
		stmtPos := p.s.Position
		name := p.ident()

		if p.tok == ':' && p.s.Peek() != '=' {
			p.next()
			l := Label(name)
			if defined[l] {
				p.errorf("block %s redefined", l)
			}
			if strings.Contains(name, "__") {
				p.errorf("block label %s must not contain \"__\"", l)
			}
			defined[l] = true
			order = append(order, l)
			b.Block(l)
			cur, terminated = l, false
			continue
		}

		if name == "shadow" {
			b.Shadow(linear.Var(p.ident()))
			for p.tok == ',' {
				p.next()
				b.Shadow(linear.Var(p.ident()))
			}
			continue
		}

		if cur == "" {
			p.errorf("statement outside of a block")
		}
		if terminated {
			p.errorf("statement after goto in block %s", cur)
		}

		if name == "goto" {
			for {
				t := gotoTarget{from: cur, pos: stmtPos}
				t.to = Label(p.ident())
				if p.tok == '[' {
					p.next()
					t.conds = append(t.conds, p.parseCond())
					for p.tok == '&' {
						p.next()
						p.expect('&')
						t.conds = append(t.conds, p.parseCond())
					}
					p.expect(']')
				}
				gotos = append(gotos, t)
				if p.tok != ',' {
					break
				}
				p.next()
			}
			terminated = true
			continue
		}

		b.Add(cur, p.parseStmt(name))
	}
	p.next()

	if len(order) == 0 {
		p.s.Position = pos
		p.errorf("procedure %s has no blocks", decl.Name)
	}
	for _, t := range gotos {
		if !defined[t.to] {
			p.s.Position = t.pos
			p.errorf("undefined block %s", t.to)
		}
		if len(t.conds) > 0 {
			b.GuardedEdge(t.from, t.to, t.conds...)
		} else {
			b.Edge(t.from, t.to)
		}
	}
	b.Entry(order[0])

	g, err := b.Build()
	if err != nil {
		p.s.Position = pos
		p.errorf("procedure %s: %v", decl.Name, err)
	}
	return g
}

// parseStmt parses a statement whose leading identifier has been consumed.
func (p *parser) parseStmt(first string) Stmt {
	switch first {
	case "assume", "assert":
		p.expect('(')
		c := p.parseCond()
		p.expect(')')
		if first == "assume" {
			return &Assume{Cond: c}
		}
		return &Assert{Cond: c}
	case "havoc":
		p.expect('(')
		v := linear.Var(p.ident())
		p.expect(')')
		return &Havoc{V: v}
	case "call":
		return p.parseCall(nil)
	}

	lhs := linear.Var(first)
	switch {
	case p.tok == '[':
		p.next()
		if p.tok == '*' {
			p.next()
			p.expect(']')
			p.expectAssign()
			return &ArrayInit{Arr: lhs, Val: p.parseLinear()}
		}
		idx := p.parseLinear()
		p.expect(']')
		p.expectAssign()
		return &ArrayStore{Arr: lhs, Idx: idx, Val: p.parseLinear()}
	case p.tok == ',':
		lhss := []linear.Var{lhs}
		for p.tok == ',' {
			p.next()
			lhss = append(lhss, linear.Var(p.ident()))
		}
		p.expectAssign()
		p.keyword("call")
		return p.parseCall(lhss)
	}

	p.expectAssign()
	if p.tok == scanner.Ident {
		switch p.s.TokenText() {
		case "call":
			p.next()
			return p.parseCall([]linear.Var{lhs})
		}
	}
	return p.parseRhs(lhs)
}

func (p *parser) parseCall(lhs []linear.Var) Stmt {
	c := &Call{Lhs: lhs, Callee: p.ident()}
	p.expect('(')
	for p.tok != ')' {
		if len(c.Args) > 0 {
			p.expect(',')
		}
		c.Args = append(c.Args, p.parseLinear())
	}
	p.expect(')')
	return c
}

// parseRhs parses the right hand side of an assignment to lhs.
func (p *parser) parseRhs(lhs linear.Var) Stmt {
	// Array loads start with an identifier immediately followed by '['.
	if p.tok == scanner.Ident && p.s.Peek() == '[' {
		arr := linear.Var(p.ident())
		p.expect('[')
		idx := p.parseLinear()
		p.expect(']')
		return &ArrayLoad{Lhs: lhs, Arr: arr, Idx: idx}
	}

	e, nl := p.parseSum(true)
	if nl != nil {
		nl.Lhs = lhs
		return nl
	}
	return &Assign{Lhs: lhs, Rhs: e}
}

func (p *parser) parseLinear() linear.Expr {
	e, _ := p.parseSum(false)
	return e
}

// parseSum parses a sum of terms. When allowNonLinear is set, a single
// non-linear binary operation is accepted and returned instead.
func (p *parser) parseSum(allowNonLinear bool) (linear.Expr, *BinOp) {
	e, nl := p.parseTerm(allowNonLinear)
	if nl != nil {
		if p.tok == '+' || p.tok == '-' {
			p.errorf("non-linear operation must not be nested")
		}
		return linear.Expr{}, nl
	}
	for p.tok == '+' || p.tok == '-' {
		sub := p.tok == '-'
		p.next()
		t, nl := p.parseTerm(false)
		if nl != nil {
			p.errorf("non-linear operation must not be nested")
		}
		if sub {
			t = t.Scale(-1)
		}
		e = e.Add(t)
	}
	return e, nil
}

func (p *parser) parseTerm(allowNonLinear bool) (linear.Expr, *BinOp) {
	e := p.parseFactor()
	for p.tok == '*' || p.tok == '/' || p.tok == '%' {
		tok := p.tok
		p.next()
		f := p.parseFactor()
		if tok == '*' {
			switch {
			case e.IsConstant():
				e = f.Scale(e.Constant())
				continue
			case f.IsConstant():
				e = e.Scale(f.Constant())
				continue
			}
		}

		if !allowNonLinear {
			p.errorf("non-linear expression where a linear expression is expected")
		}
		op := map[rune]Op{'*': OpMul, '/': OpDiv, '%': OpRem}[tok]
		if p.tok == '*' || p.tok == '/' || p.tok == '%' {
			p.errorf("non-linear operation must not be nested")
		}
		return linear.Expr{}, &BinOp{Op: op, X: e, Y: f}
	}
	return e, nil
}

func (p *parser) parseFactor() linear.Expr {
	switch p.tok {
	case '-':
		p.next()
		return p.parseFactor().Scale(-1)
	case scanner.Int:
		k, err := strconv.ParseInt(p.s.TokenText(), 0, 64)
		if err != nil {
			p.errorf("invalid integer %s", p.tokString())
		}
		p.next()
		return linear.Const(k)
	case scanner.Ident:
		name := p.s.TokenText()
		if name == "true" || name == "false" || name == "call" {
			p.errorf("unexpected keyword %s", name)
		}
		p.next()
		return linear.V(linear.Var(name))
	}
	p.errorf("expected expression, found %s", p.tokString())
	return linear.Expr{}
}

func (p *parser) parseCond() linear.Cst {
	if p.tok == scanner.Ident {
		switch p.s.TokenText() {
		case "true":
			p.next()
			return linear.True()
		case "false":
			p.next()
			return linear.False()
		}
	}

	lhs := p.parseLinear()
	var mk func(a, b linear.Expr) linear.Cst
	switch p.tok {
	case '<':
		p.next()
		mk = linear.Lt
		if p.tok == '=' {
			p.next()
			mk = linear.Leq
		}
	case '>':
		p.next()
		mk = linear.Gt
		if p.tok == '=' {
			p.next()
			mk = linear.Geq
		}
	case '=':
		p.next()
		if p.tok == '=' {
			p.next()
		}
		mk = linear.Eq
	case '!':
		p.next()
		p.expect('=')
		mk = linear.Neq
	default:
		p.errorf("expected comparison operator, found %s", p.tokString())
	}
	return mk(lhs, p.parseLinear())
}
