package mural

import (
	"math"
	"testing"
)

func testConfig() *Config {
	return &Config{
		ResolutionW: 800,
		ResolutionH: 600,
		Background:  "#ffffff",
		Linking:     true,
	}
}

func newTestComposition(t *testing.T) *Composition {
	t.Helper()
	return NewComposition(testConfig(), nil)
}

func TestCompositionStartsWithOneViewport(t *testing.T) {
	c := newTestComposition(t)

	vps := c.Viewports()
	if len(vps) != 1 {
		t.Fatalf("new composition has %d viewports, want 1", len(vps))
	}
	if vps[0].Offset() != (Point{0, 0}) {
		t.Errorf("initial offset = %v, want origin", vps[0].Offset())
	}
	if c.ActiveViewport().ID() != vps[0].ID() {
		t.Error("initial viewport should be active")
	}
}

func TestAddViewportDerivesOffsets(t *testing.T) {
	c := newTestComposition(t)
	a := c.ActiveViewport()

	b, err := c.AddViewport(DirE)
	if err != nil {
		t.Fatal(err)
	}
	if b.Offset() != (Point{800, 0}) {
		t.Errorf("east viewport offset = %v, want (800,0)", b.Offset())
	}
	if c.ActiveViewport().ID() != b.ID() {
		t.Error("new viewport should become active")
	}

	// south of b lands at cell (1,1)
	d, err := c.AddViewport(DirS)
	if err != nil {
		t.Fatal(err)
	}
	if d.Offset() != (Point{800, 600}) {
		t.Errorf("south viewport offset = %v, want (800,600)", d.Offset())
	}

	if a.Offset() != (Point{0, 0}) {
		t.Errorf("first viewport drifted to %v", a.Offset())
	}
}

func TestSetResolutionRecalculatesOffsets(t *testing.T) {
	c := newTestComposition(t)
	c.AddViewport(DirE)

	c.SetResolution(1920, 1080)
	b := c.ActiveViewport()
	if b.Offset() != (Point{1920, 0}) {
		t.Errorf("offset after resolution change = %v, want (1920,0)", b.Offset())
	}
	if w, h := b.Size(); w != 1920 || h != 1080 {
		t.Errorf("size = %vx%v", w, h)
	}
}

func TestRemoveViewport(t *testing.T) {
	c := newTestComposition(t)
	a := c.ActiveViewport()

	if err := c.RemoveViewport(a.ID()); err == nil {
		t.Fatal("removing the last viewport must fail")
	}

	b, _ := c.AddViewport(DirE)
	if err := c.RemoveViewport(b.ID()); err != nil {
		t.Fatal(err)
	}
	if len(c.Viewports()) != 1 {
		t.Fatalf("viewport count = %d", len(c.Viewports()))
	}
	if c.ActiveViewport().ID() != a.ID() {
		t.Error("active should fall back to a surviving viewport")
	}
	if _, ok := c.Grid().CellOf(b.ID()); ok {
		t.Error("removed viewport kept its grid cell")
	}

	// elements owned by the removed viewport stay on the plane
	e := NewTextElement("orphan", 16, b.ID())
	c.Store().Add(e)
	if c.Store().Len() != 1 {
		t.Error("element lost")
	}
}

func TestElementSpanningLinkedViewports(t *testing.T) {
	c := newTestComposition(t)
	a := c.ActiveViewport()
	b, _ := c.AddViewport(DirE)

	// straddles the 800px boundary
	e := NewImageElement(testImage(40, 40), a.ID())
	e.X = 790
	e.Y = 100
	c.Store().Add(e)

	if !a.visible(e) {
		t.Fatal("owner viewport must always see its element")
	}
	if !b.visible(e) {
		t.Fatal("linked neighbor should see the element")
	}

	linked, ok := c.ToggleLink(a.ID(), b.ID())
	if !ok || linked {
		t.Fatalf("toggle = %v, %v; want disabled", linked, ok)
	}
	if b.visible(e) {
		t.Fatal("unlinked neighbor must not see the element")
	}
	if !a.visible(e) {
		t.Fatal("owner visibility must survive the toggle")
	}
}

func TestToggleLinkRejectsDiagonalAndDistant(t *testing.T) {
	c := newTestComposition(t)
	a := c.ActiveViewport()
	c.AddViewport(DirE)         // (0,1)
	d, _ := c.AddViewport(DirS) // (1,1), diagonal to a

	if _, ok := c.ToggleLink(a.ID(), d.ID()); ok {
		t.Error("diagonal pairs must not be toggleable")
	}
	if _, ok := c.ToggleLink(a.ID(), "ghost"); ok {
		t.Error("unknown pairs must not be toggleable")
	}
}

func TestDragHandsOwnershipAcrossLinkedViewports(t *testing.T) {
	c := newTestComposition(t)
	a := c.ActiveViewport()
	b, _ := c.AddViewport(DirE)

	e := NewImageElement(testImage(40, 40), a.ID())
	e.X = 700
	e.Y = 100
	c.Store().Add(e)

	// drag on a's controller across the boundary into b
	a.PointerDown(Point{720, 120}, false)
	a.PointerMove(Point{850, 120})
	if e.OwnerViewport != b.ID() {
		t.Fatalf("owner = %q, want handoff to %q", e.OwnerViewport, b.ID())
	}
	// element keeps following the same drag after the handoff
	a.PointerMove(Point{870, 120})
	if e.X != 850 {
		t.Errorf("x = %v, want 850", e.X)
	}
	a.PointerUp(Point{870, 120})
}

func TestNoHandoffWhenUnlinked(t *testing.T) {
	c := newTestComposition(t)
	a := c.ActiveViewport()
	b, _ := c.AddViewport(DirE)
	c.ToggleLink(a.ID(), b.ID())

	e := NewImageElement(testImage(40, 40), a.ID())
	e.X = 700
	e.Y = 100
	c.Store().Add(e)

	a.PointerDown(Point{720, 120}, false)
	a.PointerMove(Point{850, 120})
	a.PointerUp(Point{850, 120})

	if e.OwnerViewport != a.ID() {
		t.Errorf("owner = %q, want unchanged", e.OwnerViewport)
	}
}

func TestCreateTextCentersInViewport(t *testing.T) {
	c := newTestComposition(t)
	b, _ := c.AddViewport(DirE)

	e := c.CreateText(b.ID(), "hello", 16)
	if e.OwnerViewport != b.ID() {
		t.Fatalf("owner = %q", e.OwnerViewport)
	}
	center := e.Bounds().Center()
	want := b.GlobalRect().Center()
	if math.Abs(center.X-want.X) > 0.5 || math.Abs(center.Y-want.Y) > 0.5 {
		t.Errorf("center = %v, want %v", center, want)
	}
	if c.Store().SelectedID() != e.ID {
		t.Error("created element should be selected")
	}
}

func TestCreateImageCapsSize(t *testing.T) {
	c := newTestComposition(t)
	id := c.ActiveViewport().ID()

	e := c.CreateImage(id, testImage(1200, 600))
	if e.Width != 300 || e.Height != 150 {
		t.Errorf("size = %vx%v, want 300x150", e.Width, e.Height)
	}
}

func TestDecodeCompletionToleratesDestroyedViewport(t *testing.T) {
	c := newTestComposition(t)
	b, _ := c.AddViewport(DirE)
	if err := c.RemoveViewport(b.ID()); err != nil {
		t.Fatal(err)
	}

	if e := c.CompleteImageDecode(b.ID(), testImage(100, 100), nil); e != nil {
		t.Fatal("decode completion for a destroyed viewport must insert nothing")
	}
	if got := c.Store().Len(); got != 0 {
		t.Fatalf("store gained %d elements", got)
	}

	// a live requester still lands the decode
	id := c.ActiveViewport().ID()
	e := c.CompleteImageDecode(id, testImage(100, 100), nil)
	if e == nil {
		t.Fatal("decode for a live viewport was dropped")
	}
	if e.OwnerViewport != id {
		t.Errorf("owner = %q, want %q", e.OwnerViewport, id)
	}
}

func TestGroupDragClampsToEachOwner(t *testing.T) {
	c := newTestComposition(t)
	a := c.ActiveViewport()
	b, _ := c.AddViewport(DirE)

	own := NewImageElement(testImage(50, 50), a.ID())
	own.X, own.Y = 100, 100
	c.Store().Add(own)
	foreign := NewImageElement(testImage(50, 50), b.ID())
	foreign.X, foreign.Y = 850, 100
	c.Store().Add(foreign)

	// selected together while linking was on, then linking turned off
	c.Store().SelectMany([]string{own.ID, foreign.ID})
	c.SetLinking(false)

	a.PointerDown(Point{110, 112}, false)
	a.PointerMove(Point{-2000, 112})
	a.PointerUp(Point{-2000, 112})

	if own.X != -own.Width+dragKeepVisible {
		t.Errorf("own x = %v, want %v", own.X, -own.Width+dragKeepVisible)
	}
	if foreign.X != 800-foreign.Width+dragKeepVisible {
		t.Errorf("foreign x = %v, want clamp to its own viewport at %v",
			foreign.X, 800-foreign.Width+dragKeepVisible)
	}
}

func TestSelectedStyleRoundTrip(t *testing.T) {
	c := newTestComposition(t)
	id := c.ActiveViewport().ID()

	if _, ok := c.SelectedStyle(); ok {
		t.Fatal("empty selection should report no style")
	}

	img := c.CreateImage(id, testImage(50, 50))
	if _, ok := c.SelectedStyle(); ok {
		t.Fatal("image selection should report no style")
	}
	c.Store().Remove(img.ID)

	e := c.CreateText(id, "styled", 16)
	family := "mono"
	weight := "bold"
	align := "center"
	c.SetSelectedStyle(StylePatch{FontFamily: &family, FontWeight: &weight, TextAlign: &align})

	style, ok := c.SelectedStyle()
	if !ok {
		t.Fatal("text selection should report a style")
	}
	if style.FontFamily != "mono" || style.FontWeight != "bold" || style.TextAlign != "center" {
		t.Errorf("style = %+v", style)
	}
	if got, _ := c.Store().Get(e.ID); got.FontFamily != "mono" {
		t.Error("patch not applied to the element")
	}
}

func TestDeleteAndDuplicateSelection(t *testing.T) {
	c := newTestComposition(t)
	id := c.ActiveViewport().ID()

	a := c.CreateImage(id, testImage(50, 50))
	b := c.CreateImage(id, testImage(50, 50))
	c.Store().SelectMany([]string{a.ID, b.ID})

	c.DuplicateSelection(20, 20)
	if c.Store().Len() != 4 {
		t.Fatalf("len = %d after duplicate, want 4", c.Store().Len())
	}
	sel := c.Store().SelectedMany()
	if len(sel) != 2 || c.Store().IsSelected(a.ID) || c.Store().IsSelected(b.ID) {
		t.Fatal("duplicate should select the clones")
	}

	c.DeleteSelection()
	if c.Store().Len() != 2 {
		t.Fatalf("len = %d after delete, want 2", c.Store().Len())
	}
	if len(c.Store().SelectedMany()) != 0 {
		t.Error("deleted elements left a selection behind")
	}
}

func TestNudgeClampsWhenLinkingDisabled(t *testing.T) {
	c := newTestComposition(t)
	c.SetLinking(false)
	id := c.ActiveViewport().ID()

	e := c.CreateImage(id, testImage(100, 100))
	c.Store().SetPositions(map[string]Point{e.ID: {0, 0}})
	c.Store().Select(e.ID)

	for i := 0; i < 40; i++ {
		c.NudgeSelection(-10, 0)
	}
	if e.X != -e.Width+dragKeepVisible {
		t.Errorf("x = %v, want clamp at %v", e.X, -e.Width+dragKeepVisible)
	}

	c.SetLinking(true)
	c.NudgeSelection(-10, 0)
	if e.X != -e.Width+dragKeepVisible-10 {
		t.Error("nudge must not clamp while linking is enabled")
	}
}

func TestPasteLandsAtPointer(t *testing.T) {
	c := newTestComposition(t)
	a := c.ActiveViewport()
	b, _ := c.AddViewport(DirE)

	e := c.CreateImage(a.ID(), testImage(60, 60))
	c.Store().Select(e.ID)
	if err := c.Copy(); err != nil {
		t.Fatal(err)
	}

	c.SetPointer(Point{1200, 300})
	pasted := c.Paste()
	if pasted == nil {
		t.Fatal("paste returned nil")
	}
	if pasted.ID == e.ID {
		t.Fatal("paste must create a new element")
	}
	if got := pasted.Bounds().Center(); got != (Point{1200, 300}) {
		t.Errorf("pasted center = %v, want the pointer", got)
	}
	if pasted.OwnerViewport != b.ID() {
		t.Errorf("owner = %q, want the viewport containing the paste", pasted.OwnerViewport)
	}
	if c.Store().SelectedID() != pasted.ID {
		t.Error("pasted element should be selected")
	}
}

func TestRenderAllProducesFrames(t *testing.T) {
	c := newTestComposition(t)
	b, _ := c.AddViewport(DirE)
	c.CreateText(c.ActiveViewport().ID(), "frame me", 16)

	frame := b.Frame()
	if frame == nil {
		t.Fatal("no frame rendered")
	}
	if got := frame.Bounds().Dx(); got != 800 {
		t.Errorf("frame width = %d, want 800", got)
	}

	c.SetScale(2)
	frame = b.Frame()
	if got := frame.Bounds().Dx(); got != 1600 {
		t.Errorf("scaled frame width = %d, want 1600", got)
	}
}
