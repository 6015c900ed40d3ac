package absval

import (
	"errors"
	"strings"
	"testing"

	"github.com/cs-au-dk/invariant/analysis/cfg"
	"github.com/cs-au-dk/invariant/analysis/domains"
	"github.com/cs-au-dk/invariant/analysis/linear"
)

var x, y = linear.Var("x"), linear.Var("y")

func TestTagClosure(t *testing.T) {
	for _, tag := range Tags() {
		top := Top(tag)
		if top.Tag() != tag {
			t.Errorf("Top(%s) has tag %s", tag, top.Tag())
		}
		if !top.IsTop() || top.IsBottom() {
			t.Errorf("Top(%s) = %s is not ⊤", tag, top)
		}

		v := top.Assign(x, linear.Const(1)).Join(top.Assign(x, linear.Const(3)))
		ops := []Value{
			v.MakeBottom(),
			v.Widen(top.Assign(x, linear.Const(4))),
			v.WidenWithThresholds(top, []int64{5}),
			v.Narrow(top),
			v.Meet(top),
			v.Forget(x),
			v.Havoc(x),
			v.Project(y),
			v.Rename([]linear.Var{x}, []linear.Var{y}),
			v.Apply(cfg.OpMul, y, linear.V(x), linear.V(x)),
			v.AddConstraint(linear.Leq(linear.V(x), linear.Const(2))),
		}
		for i, w := range ops {
			if w.Tag() != tag {
				t.Errorf("Operation %d on %s produced tag %s", i, tag, w.Tag())
			}
		}

		if name, ok := ParseTag(tag.String()); !ok || name != tag {
			t.Errorf("ParseTag(%q) = %s, %v", tag.String(), name, ok)
		}
	}
}

func TestForgetKeepsTag(t *testing.T) {
	v := Of(domains.Zones{}).Assign(x, linear.Const(0)).Assign(y, linear.V(x))
	f := v.Forget(x)
	if f.Tag() != TagZones {
		t.Errorf("Forget changed the tag to %s", f.Tag())
	}
	if Entails(f, linear.Eq(linear.V(x), linear.Const(0))) {
		t.Errorf("%s should know nothing about x", f)
	}
	if !Entails(f, linear.Eq(linear.V(y), linear.Const(0))) {
		t.Errorf("%s should retain y = 0", f)
	}
}

func TestTagMismatch(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrTagMismatch) {
			t.Errorf("Expected a tag mismatch panic, got %v", r)
		}
	}()

	Top(TagInt).Join(Top(TagZones))
}

func TestUnwrap(t *testing.T) {
	v := Of(domains.Intervals{}).Assign(x, linear.Const(7))
	if d := Unwrap[domains.Intervals](v); !d.Get(x).Equal(domains.Singleton(7)) {
		t.Errorf("Unwrap lost the value, got %s", d)
	}
}

func TestToConstraints(t *testing.T) {
	v := Top(TagInt).AddConstraints(linear.System{
		linear.Geq(linear.V(x), linear.Const(0)),
		linear.Leq(linear.V(x), linear.Const(10)),
	})
	back := FromConstraints(TagInt, v.ToConstraints())
	if !back.Equal(v) {
		t.Errorf("%s and %s should describe the same states", v, back)
	}

	var sb strings.Builder
	if err := v.Write(&sb); err != nil {
		t.Fatal(err)
	}
	if sb.String() != v.String() {
		t.Errorf("Write gave %q, String gave %q", sb.String(), v.String())
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		tag, fallback Tag
		relational    bool
	}{
		{TagZones, TagInt, true},
		{TagArrZones, TagArrInt, true},
		{TagInt, TagInt, false},
		{TagTermDisInt, TagTermDisInt, false},
	}
	for _, test := range tests {
		if got := test.tag.Fallback(); got != test.fallback {
			t.Errorf("%s.Fallback() = %s, expected %s", test.tag, got, test.fallback)
		}
		if got := test.tag.IsRelational(); got != test.relational {
			t.Errorf("%s.IsRelational() = %v", test.tag, got)
		}
	}
}
