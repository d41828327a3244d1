package mural

import "testing"

func TestGridPlaceAndAdjacency(t *testing.T) {
	g := NewGridTopology()
	g.Place("a", 0, 0)
	g.Place("b", 0, 1)
	g.Place("c", 1, 1)

	if cell, ok := g.CellOf("b"); !ok || cell != (Cell{0, 1}) {
		t.Fatalf("CellOf(b) = %v, %v", cell, ok)
	}
	if id, ok := g.ViewportAt(1, 1); !ok || id != "c" {
		t.Fatalf("ViewportAt(1,1) = %q, %v", id, ok)
	}

	adj := g.AdjacentOf("a")
	if adj[DirE] != "b" {
		t.Errorf("east neighbor of a = %q, want b", adj[DirE])
	}
	if adj[DirSE] != "c" {
		t.Errorf("southeast neighbor of a = %q, want c", adj[DirSE])
	}
	if _, ok := adj[DirW]; ok {
		t.Error("empty west cell reported as neighbor")
	}

	if !g.AreAdjacent("a", "c") {
		t.Error("diagonal cells should count as adjacent")
	}
	if g.AreAdjacent("a", "a") {
		t.Error("a cell is not its own neighbor")
	}
}

func TestGridPlaceRefusesOccupied(t *testing.T) {
	g := NewGridTopology()
	g.Place("a", 0, 0)
	g.Place("b", 0, 0)

	if _, ok := g.CellOf("b"); ok {
		t.Error("placing onto an occupied cell should be refused")
	}
	if id, _ := g.ViewportAt(0, 0); id != "a" {
		t.Errorf("cell owner = %q, want a", id)
	}
}

func TestGridLinksDefaultEnabled(t *testing.T) {
	g := NewGridTopology()
	g.Place("a", 0, 0)
	g.Place("b", 0, 1)

	if !g.IsLinked("a", "b") {
		t.Fatal("fresh neighbors should be linked by default")
	}
	if !g.IsLinked("b", "a") {
		t.Fatal("link relation must be symmetric")
	}

	if got := g.ToggleLink("a", "b"); got {
		t.Fatal("toggle from enabled should return false")
	}
	if g.IsLinked("b", "a") {
		t.Fatal("toggle must be visible from both directions")
	}
	if got := g.ToggleLink("b", "a"); !got {
		t.Fatal("second toggle should re-enable")
	}
}

func TestGridRemoveDropsLinks(t *testing.T) {
	g := NewGridTopology()
	g.Place("a", 0, 0)
	g.Place("b", 0, 1)
	g.ToggleLink("a", "b") // record a disabled state

	g.Remove("b")
	if _, ok := g.CellOf("b"); ok {
		t.Fatal("removed viewport still has a cell")
	}
	if len(g.Links()) != 0 {
		t.Fatal("links referencing a removed viewport must be dropped")
	}

	// a new viewport in the same cell starts with a fresh default link
	g.Place("b2", 0, 1)
	if !g.IsLinked("a", "b2") {
		t.Error("new occupant should start linked")
	}
}

func TestGridNextPosition(t *testing.T) {
	g := NewGridTopology()
	g.Place("a", 0, 0)
	g.Place("b", 0, 1)
	g.Place("c", 0, 2)

	tests := map[string]struct {
		dir  Direction
		from string
		want Cell
	}{
		"east skips occupied":  {DirE, "a", Cell{0, 3}},
		"east from end":        {DirE, "c", Cell{0, 3}},
		"south is free":        {DirS, "b", Cell{1, 1}},
		"diagonal falls back":  {DirNE, "a", Cell{0, 3}},
		"west also falls back": {DirW, "a", Cell{0, 3}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := g.NextPosition(tc.dir, tc.from)
			if !ok {
				t.Fatal("NextPosition reported no cell")
			}
			if got != tc.want {
				t.Errorf("NextPosition = %v, want %v", got, tc.want)
			}
		})
	}

	if _, ok := g.NextPosition(DirE, "ghost"); ok {
		t.Error("unknown reference should report no cell")
	}
}
