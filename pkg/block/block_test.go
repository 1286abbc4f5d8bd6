package block

import "testing"

func TestSetGetOffsetLocal(t *testing.T) {
	g := NewGlobal()
	g.SetOffset("x", 3)

	if got := g.GetOffset("x"); got != 3 {
		t.Fatalf("GetOffset(x) = %d, want 3", got)
	}
}

func TestGetOffsetUndefinedReturnsMinusOne(t *testing.T) {
	g := NewGlobal()
	if got := g.GetOffset("nope"); got != -1 {
		t.Fatalf("GetOffset(nope) = %d, want -1", got)
	}
}

func TestGetOffsetWalksToParentWithoutAutoVivifying(t *testing.T) {
	g := NewGlobal()
	g.SetOffset("x", 5)

	child := NewChild(g, Common)
	if got := child.GetOffset("x"); got != 5 {
		t.Fatalf("child.GetOffset(x) = %d, want 5 (resolved via parent)", got)
	}

	// The fixed getOffset must not insert a zero entry into the
	// child's own map as a side effect of resolving through the parent.
	if _, ok := child.offsets["x"]; ok {
		t.Fatalf("child block should not have a local entry for a parent-resolved variable")
	}
}

func TestShadowingOverwritesLocalOffset(t *testing.T) {
	g := NewGlobal()
	g.SetOffset("x", 0)
	g.SetOffset("x", 1)

	if got := g.GetOffset("x"); got != 1 {
		t.Fatalf("re-declaring x should shadow with the new offset, got %d", got)
	}
}

func TestFuncOffsetResolution(t *testing.T) {
	g := NewGlobal()
	g.FuncSetOffset("add", "definition-handle")

	child := NewChild(g, Func)
	def, ok := child.FuncGetOffset("add")
	if !ok || def != "definition-handle" {
		t.Fatalf("FuncGetOffset(add) = (%v, %v), want (definition-handle, true)", def, ok)
	}

	if _, ok := child.FuncGetOffset("missing"); ok {
		t.Fatalf("FuncGetOffset(missing) should report false")
	}
}

func TestHasLocalFunc(t *testing.T) {
	g := NewGlobal()
	g.FuncSetOffset("add", "def")

	child := NewChild(g, Func)
	if child.HasLocalFunc("add") {
		t.Fatalf("add is bound in the parent, not locally in child")
	}
	if !g.HasLocalFunc("add") {
		t.Fatalf("add should be locally bound in g")
	}
}

func TestStateTransitionsAndString(t *testing.T) {
	g := NewGlobal()
	if g.State() != Global {
		t.Fatalf("global block state = %v, want Global", g.State())
	}

	child := NewChild(g, Common)
	if child.Parent() != g {
		t.Fatalf("child.Parent() should be g")
	}

	child.SetState(FuncLoop)
	if child.State() != FuncLoop {
		t.Fatalf("SetState did not take effect")
	}

	for _, tt := range []struct {
		s    State
		want string
	}{
		{Global, "GLOBAL"},
		{Func, "FUNC"},
		{FuncLoop, "FUNCLOOP"},
		{Loop, "LOOP"},
		{Common, "COMMON"},
		{State(99), "UNKNOWN"},
	} {
		if got := tt.s.String(); got != tt.want {
			t.Fatalf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
