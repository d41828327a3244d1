package mural

import (
	"image"
	"testing"
)

func testImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func addImageAt(t *testing.T, s *ElementStore, x, y, w, h float64, owner string) *Element {
	t.Helper()
	e := NewImageElement(testImage(int(w), int(h)), owner)
	e.X = x
	e.Y = y
	e.Width = w
	e.Height = h
	s.Add(e)
	return e
}

func TestStoreAddMeasuresText(t *testing.T) {
	s := NewElementStore(nil)
	e := NewTextElement("hello", 20, "vp")
	s.Add(e)

	if e.Width < minElementSize {
		t.Errorf("measured width %v below minimum", e.Width)
	}
	if e.Height != 20*lineHeightFactor {
		t.Errorf("height = %v, want %v", e.Height, 20*lineHeightFactor)
	}

	two := NewTextElement("one\ntwo", 20, "vp")
	s.Add(two)
	if two.Height != 20*lineHeightFactor*2 {
		t.Errorf("two-line height = %v, want %v", two.Height, 20*lineHeightFactor*2)
	}
}

func TestStoreUpdateRemeasuresText(t *testing.T) {
	s := NewElementStore(nil)
	e := NewTextElement("hi", 16, "vp")
	s.Add(e)
	origW := e.Width

	longer := "a considerably longer line of text"
	s.Update(e.ID, ElementPatch{Content: &longer})
	if e.Width <= origW {
		t.Errorf("width did not grow after content change: %v -> %v", origW, e.Width)
	}

	w := e.Width
	size := 32.0
	s.Update(e.ID, ElementPatch{FontSize: &size})
	if e.Width <= w {
		t.Errorf("width did not grow after font size change: %v -> %v", w, e.Width)
	}
	if e.Height != 32*lineHeightFactor {
		t.Errorf("height = %v, want %v", e.Height, 32*lineHeightFactor)
	}
}

func TestStoreHitTestTopmost(t *testing.T) {
	s := NewElementStore(nil)
	bottom := addImageAt(t, s, 0, 0, 100, 100, "vp")
	top := addImageAt(t, s, 50, 50, 100, 100, "vp")

	if got := s.HitTest(Point{75, 75}); got == nil || got.ID != top.ID {
		t.Fatalf("expected topmost element at overlap point")
	}
	if got := s.HitTest(Point{10, 10}); got == nil || got.ID != bottom.ID {
		t.Fatalf("expected bottom element outside overlap")
	}
	if got := s.HitTest(Point{500, 500}); got != nil {
		t.Fatalf("expected miss, got %v", got.ID)
	}

	s.BringToFront(bottom.ID)
	if got := s.HitTest(Point{75, 75}); got == nil || got.ID != bottom.ID {
		t.Fatalf("BringToFront did not change hit order")
	}

	s.SendToBack(bottom.ID)
	if got := s.HitTest(Point{75, 75}); got == nil || got.ID != top.ID {
		t.Fatalf("SendToBack did not change hit order")
	}
}

func TestStoreHitTestHonorsCrop(t *testing.T) {
	s := NewElementStore(nil)
	e := addImageAt(t, s, 0, 0, 200, 100, "vp")
	s.Update(e.ID, ElementPatch{Crop: &CropRect{Left: 50, Top: 0, Right: 200, Bottom: 100}})

	if got := s.HitTest(Point{25, 50}); got != nil {
		t.Errorf("point in cropped-away region should miss")
	}
	if got := s.HitTest(Point{100, 50}); got == nil || got.ID != e.ID {
		t.Errorf("point inside crop should hit")
	}
}

func TestStoreOverlapping(t *testing.T) {
	s := NewElementStore(nil)
	inside := addImageAt(t, s, 10, 10, 50, 50, "vp")
	partial := addImageAt(t, s, 90, 90, 50, 50, "vp")
	touching := addImageAt(t, s, 100, 0, 50, 50, "vp")
	addImageAt(t, s, 500, 500, 50, 50, "vp")

	got := s.Overlapping(Rect{0, 0, 100, 100})
	ids := make(map[string]bool)
	for _, e := range got {
		ids[e.ID] = true
	}
	if len(got) != 2 || !ids[inside.ID] || !ids[partial.ID] {
		t.Fatalf("Overlapping returned %d elements, want inside and partial", len(got))
	}
	if ids[touching.ID] {
		t.Errorf("edge-touching element must not count as overlapping")
	}
}

func TestStoreDuplicate(t *testing.T) {
	s := NewElementStore(nil)
	e := addImageAt(t, s, 10, 10, 100, 100, "vp")
	e.Crop = &CropRect{Left: 10, Top: 10, Right: 90, Bottom: 90}

	dup := s.Duplicate(e.ID, 20, 20)
	if dup == nil {
		t.Fatal("Duplicate returned nil")
	}
	if dup.ID == e.ID {
		t.Error("clone shares the original id")
	}
	if dup.X != 30 || dup.Y != 30 {
		t.Errorf("clone at (%v,%v), want (30,30)", dup.X, dup.Y)
	}
	if dup.Crop == e.Crop {
		t.Error("clone shares the crop pointer")
	}
	if dup.Bitmap == e.Bitmap {
		t.Error("clone shares the bitmap")
	}
	// topmost now
	if got := s.HitTest(Point{50, 50}); got == nil || got.ID != dup.ID {
		t.Error("clone should sit at the front of the z-order")
	}
}

func TestStoreSelection(t *testing.T) {
	s := NewElementStore(nil)
	a := addImageAt(t, s, 0, 0, 50, 50, "vp")
	b := addImageAt(t, s, 100, 0, 50, 50, "vp")
	c := addImageAt(t, s, 200, 0, 50, 50, "vp")

	s.Select(a.ID)
	if got := s.SelectedID(); got != a.ID {
		t.Fatalf("primary = %q, want %q", got, a.ID)
	}

	s.AddToSelection(b.ID)
	if !s.IsSelected(a.ID) || !s.IsSelected(b.ID) {
		t.Fatal("shift-click should grow the selection")
	}
	if got := s.SelectedID(); got != b.ID {
		t.Errorf("shift-click should make the new id primary")
	}

	// primary survives a rubber-band that still contains it
	s.SelectMany([]string{a.ID, b.ID, c.ID})
	if got := s.SelectedID(); got != b.ID {
		t.Errorf("primary should survive SelectMany, got %q", got)
	}

	// and is replaced when it does not
	s.SelectMany([]string{a.ID, c.ID})
	if got := s.SelectedID(); got != c.ID {
		t.Errorf("primary should fall back to the last id, got %q", got)
	}

	s.Remove(c.ID)
	if s.IsSelected(c.ID) {
		t.Error("removed element still selected")
	}
	if got := s.SelectedID(); got != "" {
		t.Errorf("primary should clear when its element is removed, got %q", got)
	}

	s.ClearSelection()
	if len(s.SelectedMany()) != 0 {
		t.Error("ClearSelection left a multi-selection")
	}
}

func TestStoreSetPositionsSingleNotification(t *testing.T) {
	s := NewElementStore(nil)
	a := addImageAt(t, s, 0, 0, 50, 50, "vp")
	b := addImageAt(t, s, 100, 0, 50, 50, "vp")

	fired := 0
	s.Observe(func() { fired++ })
	s.SetPositions(map[string]Point{
		a.ID: {10, 10},
		b.ID: {110, 10},
	})
	if fired != 1 {
		t.Errorf("group move fired %d notifications, want 1", fired)
	}
	if a.X != 10 || b.X != 110 {
		t.Errorf("positions not applied: a.X=%v b.X=%v", a.X, b.X)
	}

	fired = 0
	s.SetPositions(map[string]Point{"missing": {0, 0}})
	if fired != 0 {
		t.Errorf("no-op move fired %d notifications", fired)
	}
}

func TestCropClampTo(t *testing.T) {
	tests := map[string]struct {
		crop CropRect
		want CropRect
	}{
		"inside untouched": {CropRect{10, 10, 90, 90}, CropRect{10, 10, 90, 90}},
		"negative origin":  {CropRect{-5, -5, 90, 90}, CropRect{0, 0, 90, 90}},
		"past box":         {CropRect{10, 10, 300, 300}, CropRect{10, 10, 100, 100}},
		"too narrow":       {CropRect{50, 10, 55, 90}, CropRect{50, 10, 70, 90}},
		"narrow at edge":   {CropRect{95, 10, 100, 90}, CropRect{80, 10, 100, 90}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tc.crop.clampTo(100, 100); got != tc.want {
				t.Errorf("clampTo = %+v, want %+v", got, tc.want)
			}
		})
	}
}
