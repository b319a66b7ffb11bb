package meta

import (
	"testing"

	ncerr "github.com/cdfgraph/cdfgraph/meta/errors"
)

type testObj struct {
	Header
}

func newTestObj(name string, id int) *testObj {
	return &testObj{Header: NewHeader(KindDimension, name, id)}
}

func TestIndex_InsertAndLookup(t *testing.T) {
	idx := NewIndex()

	a := newTestObj("alpha", 0)
	b := newTestObj("beta", 1)

	if err := idx.Insert(a); err != nil {
		t.Fatalf("Insert(alpha) failed: %v", err)
	}
	if err := idx.Insert(b); err != nil {
		t.Fatalf("Insert(beta) failed: %v", err)
	}

	got, ok := idx.LookupByName("alpha")
	if !ok || got != a {
		t.Errorf("LookupByName(alpha): got %v, want %v", got, a)
	}
	got, ok = idx.LookupByID(1)
	if !ok || got != b {
		t.Errorf("LookupByID(1): got %v, want %v", got, b)
	}
	if _, ok := idx.LookupByName("gamma"); ok {
		t.Error("LookupByName(gamma) should miss")
	}
}

func TestIndex_DuplicateNameLeavesIndexUntouched(t *testing.T) {
	idx := NewIndex()

	a := newTestObj("alpha", 0)
	dup := newTestObj("alpha", 7)

	if err := idx.Insert(a); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	err := idx.Insert(dup)
	if ncerr.CodeOf(err) != ncerr.NameCollision {
		t.Fatalf("duplicate insert: got %v, want NameCollision", err)
	}

	if idx.Len() != 1 {
		t.Errorf("Len after failed insert: got %d, want 1", idx.Len())
	}
	if _, ok := idx.LookupByID(7); ok {
		t.Error("failed insert must not index the duplicate's id")
	}
	got, _ := idx.LookupByName("alpha")
	if got != a {
		t.Error("failed insert must not replace the original object")
	}
}

func TestIndex_RemovePreservesOrderAndIDs(t *testing.T) {
	idx := NewIndex()

	objs := []*testObj{
		newTestObj("a", 0),
		newTestObj("b", 1),
		newTestObj("c", 2),
		newTestObj("d", 3),
	}
	for _, o := range objs {
		if err := idx.Insert(o); err != nil {
			t.Fatalf("Insert(%s) failed: %v", o.Name, err)
		}
	}

	if err := idx.Remove(objs[1]); err != nil {
		t.Fatalf("Remove(b) failed: %v", err)
	}

	want := []string{"a", "c", "d"}
	all := idx.All()
	if len(all) != len(want) {
		t.Fatalf("Len: got %d, want %d", len(all), len(want))
	}
	for i, o := range all {
		if o.Hdr().Name != want[i] {
			t.Errorf("position %d: got %s, want %s", i, o.Hdr().Name, want[i])
		}
	}

	// Surviving ids are stable.
	if got, ok := idx.LookupByID(3); !ok || got != objs[3] {
		t.Error("LookupByID(3) should still find d")
	}
	if _, ok := idx.LookupByName("b"); ok {
		t.Error("removed object must not be found by name")
	}
	if _, ok := idx.LookupByID(1); ok {
		t.Error("removed object must not be found by id")
	}
}

func TestIndex_RemoveUnknownObject(t *testing.T) {
	idx := NewIndex()
	if err := idx.Insert(newTestObj("a", 0)); err != nil {
		t.Fatal(err)
	}
	err := idx.Remove(newTestObj("zzz", 9))
	if ncerr.CodeOf(err) != ncerr.NotFound {
		t.Errorf("Remove of unknown object: got %v, want NotFound", err)
	}
}

func TestIndex_InterleavedInsertRemoveAgreement(t *testing.T) {
	idx := NewIndex()
	live := map[string]*testObj{}

	insert := func(name string, id int) {
		o := newTestObj(name, id)
		if err := idx.Insert(o); err != nil {
			t.Fatalf("Insert(%s): %v", name, err)
		}
		live[name] = o
	}
	remove := func(name string) {
		if err := idx.Remove(live[name]); err != nil {
			t.Fatalf("Remove(%s): %v", name, err)
		}
		delete(live, name)
	}

	insert("a", 0)
	insert("b", 1)
	remove("a")
	insert("c", 2)
	insert("a2", 3)
	remove("b")
	insert("d", 4)

	if idx.Len() != len(live) {
		t.Fatalf("Len: got %d, want %d", idx.Len(), len(live))
	}
	for name, o := range live {
		byName, ok := idx.LookupByName(name)
		if !ok || byName != o {
			t.Errorf("LookupByName(%s) disagrees with live set", name)
		}
		byID, ok := idx.LookupByID(o.ID)
		if !ok || byID != o {
			t.Errorf("LookupByID(%d) disagrees with live set", o.ID)
		}
	}
	for _, o := range idx.All() {
		if live[o.Hdr().Name] == nil {
			t.Errorf("iteration produced dead object %s", o.Hdr().Name)
		}
	}
}

func TestIndex_AllIsASnapshot(t *testing.T) {
	idx := NewIndex()
	for i, name := range []string{"a", "b", "c"} {
		if err := idx.Insert(newTestObj(name, i)); err != nil {
			t.Fatal(err)
		}
	}

	snap := idx.All()
	obj, _ := idx.LookupByName("b")
	if err := idx.Remove(obj); err != nil {
		t.Fatal(err)
	}

	if len(snap) != 3 {
		t.Errorf("snapshot changed under mutation: len %d, want 3", len(snap))
	}
}

func TestIndex_RekeyCollision(t *testing.T) {
	idx := NewIndex()
	a := newTestObj("a", 0)
	b := newTestObj("b", 1)
	if err := idx.Insert(a); err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert(b); err != nil {
		t.Fatal(err)
	}

	old := b.Name
	b.Name = "a"
	b.Hash = NameHash("a")
	err := idx.Rekey(b, old)
	if ncerr.CodeOf(err) != ncerr.NameCollision {
		t.Fatalf("Rekey onto taken name: got %v, want NameCollision", err)
	}
	// Caller rolls the header back on failure; the index still finds the
	// original object under the old key.
	b.Name = old
	b.Hash = NameHash(old)
	if got, ok := idx.LookupByName("b"); !ok || got != b {
		t.Error("failed Rekey must leave the old mapping intact")
	}
}
