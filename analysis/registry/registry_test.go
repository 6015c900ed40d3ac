package registry

import (
	"errors"
	"testing"

	"github.com/cs-au-dk/invariant/analysis/absval"
)

func TestDefault(t *testing.T) {
	r := Default()
	if len(r.IDs()) != len(absval.Tags()) {
		t.Fatalf("Expected %d domains, got %v", len(absval.Tags()), r.IDs())
	}
	for _, id := range r.IDs() {
		top, err := r.Top(id)
		if err != nil {
			t.Fatal(err)
		}
		if top.Tag() != id || !top.IsTop() {
			t.Errorf("Factory for %s produced %s (%s)", id, top, top.Tag())
		}
	}
}

func TestUnknown(t *testing.T) {
	r := New()
	if r.Has(absval.TagZones) {
		t.Errorf("An empty registry should not know zones")
	}
	if _, err := r.Top(absval.TagZones); !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("Expected ErrUnknownDomain, got %v", err)
	}
	if _, err := Default().Lookup("boxes"); !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("Expected ErrUnknownDomain, got %v", err)
	}
	if id, err := Default().Lookup("arr-zones"); err != nil || id != absval.TagArrZones {
		t.Errorf("Lookup(arr-zones) = %s, %v", id, err)
	}
}

func TestDuplicate(t *testing.T) {
	r := New()
	f := func() absval.Value { return absval.Top(absval.TagInt) }
	if err := r.Register(absval.TagInt, f); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(absval.TagInt, f); err == nil {
		t.Errorf("Registering int twice should fail")
	}
}
