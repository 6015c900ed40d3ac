package results

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/cs-au-dk/invariant/analysis/absval"
	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/checks"
	"github.com/cs-au-dk/invariant/analysis/domains"
	"github.com/cs-au-dk/invariant/analysis/linear"
)

const proc = `
func f(x) {
entry:
  shadow s
  s := 1
  x := 3
  goto a [x <= 5], b [x > 5]
a:
  x := x + 1
b:
  x := 0
}
`

func fixture(t *testing.T) (*cfg.Cfg, *Store) {
	g := cfg.MustParse(proc)[0]
	s := NewStore()
	top := absval.Top(absval.TagInt)
	for _, b := range g.Blocks() {
		s.SetPre(g, b, top.Assign("s", linear.Const(1)).Assign("x", linear.Const(3)))
		s.SetPost(g, b, top.MakeBottom())
	}
	s.AddInfeasibleEdge("f", cfg.Edge{From: "entry", To: "b"})
	s.Checks().Add(checks.Location{Proc: "f", Block: "a", Index: 0}, linear.True(), checks.Safe)
	return g, s
}

func TestStoreLookup(t *testing.T) {
	_, s := fixture(t)
	ref := Ref{"f", "a"}

	pre, ok := s.Pre(ref, false)
	if !ok {
		t.Fatalf("No invariant for %s", ref)
	}
	if domains.Entails(absval.Unwrap[domains.Intervals](pre), linear.Eq(linear.V("s"), linear.Const(1))) {
		t.Errorf("Shadow variables should be elided from %s", pre)
	}
	withShadows, _ := s.Pre(ref, true)
	if !absval.Entails(withShadows, linear.Eq(linear.V("s"), linear.Const(1))) {
		t.Errorf("Shadow variables should be kept in %s", withShadows)
	}

	if _, ok := s.Pre(Ref{"f", cfg.EdgeLabel("entry", "a")}, false); ok {
		t.Errorf("Edge blocks should not be recorded")
	}
	if post, _ := s.Post(ref, false); !post.IsBottom() {
		t.Errorf("Expected ⊥ post, got %s", post)
	}

	if r, ok := s.Range(ref, "x"); !ok || !r.Equal(domains.Singleton(3)) {
		t.Errorf("Expected x ∈ [3, 3], got %s", r)
	}

	if s.IsEdgeFeasible("f", "entry", "b") || !s.IsEdgeFeasible("f", "entry", "a") {
		t.Errorf("Unexpected edge feasibility")
	}
	if s.ChecksSummary().Safe != 1 {
		t.Errorf("Expected one safe check, got %s", s.ChecksSummary())
	}
}

func TestStoreMergeClear(t *testing.T) {
	_, s := fixture(t)
	other := NewStore()
	other.Merge(s)
	if len(other.Blocks("f")) != 3 || other.IsEdgeFeasible("f", "entry", "b") {
		t.Errorf("Merge lost results")
	}

	other.Clear()
	if len(other.Procs()) != 0 || !other.IsEdgeFeasible("f", "entry", "b") || other.Checks().Len() != 0 {
		t.Errorf("Clear should drop every result")
	}
	if len(s.Procs()) != 1 {
		t.Errorf("Clearing a merged store should not affect the source")
	}
}

func TestSnapshot(t *testing.T) {
	_, s := fixture(t)
	snap := s.Snapshot(false)

	if snap.Domain != "int" || len(snap.Procs) != 1 || len(snap.Procs[0].Blocks) != 3 {
		t.Fatalf("Unexpected snapshot %+v", snap)
	}
	a := snap.Procs[0].Blocks[0]
	if a.Label != "a" || strings.Join(a.Pre, ", ") != "x == 3" || a.Post[0] != "false" {
		t.Errorf("Unexpected block snapshot %+v", a)
	}

	for _, enc := range []Encoding{Msgpack, YAML} {
		var buf bytes.Buffer
		if err := snap.Encode(&buf, enc); err != nil {
			t.Fatal(err)
		}
		back, err := DecodeSnapshot(&buf, enc)
		if err != nil {
			t.Fatal(err)
		}
		if back.Checks != snap.Checks || back.InfeasibleEdges[0] != "f:entry -> b" {
			t.Errorf("%s: snapshot changed to %+v", enc, back)
		}
	}
}

func TestSnapshotVersion(t *testing.T) {
	src := "version: 2.0.0\nprocs: []\nchecks: {safe: 0, error: 0, warning: 0}\n"
	if _, err := DecodeSnapshot(strings.NewReader(src), YAML); !errors.Is(err, ErrIncompatibleSnapshot) {
		t.Errorf("Expected ErrIncompatibleSnapshot, got %v", err)
	}
}
