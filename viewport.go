package mural

import (
	"image"
	"math"
)

// LinkPredicate answers whether elements owned by one viewport are
// visible on another. Supplied by the orchestrator so the controller
// never needs a reference to the grid topology.
type LinkPredicate func(ownerID, viewerID string) bool

// RectLookup resolves a viewport id to its global rectangle. Supplied by
// the orchestrator so drag clamping can use each element's owner.
type RectLookup func(viewportID string) (Rect, bool)

// ViewportController owns one viewport's slice of the global plane: the
// local/global coordinate transform, the pointer gesture state machine
// and rendering of the elements that fall inside its rectangle.
//
// It holds non-owning references to the shared store; elements are
// re-read from the store on every frame, never copied. All methods are
// meant for the single interaction thread.
type ViewportController struct {
	id       string
	store    *ElementStore
	measurer *Measurer
	linked   LinkPredicate

	offset Point
	width  float64
	height float64
	scale  float64 // device px per logical px

	linkingEnabled func() bool
	onDrag         func(elementID string, pointer Point)
	ownerRect      RectLookup

	state GestureState

	// drag gesture
	dragID       string
	dragStart    Point            // pointer position at pointer-down, global
	dragStartPos map[string]Point // element id -> position at pointer-down

	// resize gesture
	resizeID       string
	resizeHandle   Handle
	resizeStart    Point
	resizeOrig     Rect
	resizeOrigFont float64
	resizeOrigCrop *CropRect

	// rubber-band gesture
	bandStart   Point
	bandCurrent Point

	// crop mode
	cropID     string
	cropBounds CropRect
	cropGrab   cropEdges

	background string
	frame      *image.RGBA
}

func NewViewportController(id string, store *ElementStore, m *Measurer, linked LinkPredicate) *ViewportController {
	if m == nil {
		m = NewMeasurer()
	}
	return &ViewportController{
		id:         id,
		store:      store,
		measurer:   m,
		linked:     linked,
		scale:      1,
		background: "#ffffff",
	}
}

func (v *ViewportController) ID() string          { return v.id }
func (v *ViewportController) State() GestureState { return v.state }
func (v *ViewportController) Offset() Point       { return v.offset }
func (v *ViewportController) SetOffset(p Point)   { v.offset = p }
func (v *ViewportController) Size() (w, h float64) {
	return v.width, v.height
}

func (v *ViewportController) SetSize(w, h float64) {
	v.width = w
	v.height = h
}

func (v *ViewportController) Scale() float64 { return v.scale }

func (v *ViewportController) SetScale(s float64) {
	if s > 0 {
		v.scale = s
	}
}

func (v *ViewportController) SetBackground(hex string) { v.background = hex }

// SetLinkingEnabled wires the global linking switch. When it reports
// false, drags are clamped to the owner viewport and foreign elements
// are not rendered.
func (v *ViewportController) SetLinkingEnabled(fn func() bool) { v.linkingEnabled = fn }

// SetDragObserver wires the per-move drag notification the orchestrator
// uses for cross-viewport ownership handoff.
func (v *ViewportController) SetDragObserver(fn func(elementID string, pointer Point)) {
	v.onDrag = fn
}

// SetRectLookup wires owner-rectangle resolution for drag clamping.
func (v *ViewportController) SetRectLookup(fn RectLookup) { v.ownerRect = fn }

// clampRect is the rectangle an element is confined to while dragged
// with linking disabled: its owner's viewport, falling back to this one
// when the owner cannot be resolved.
func (v *ViewportController) clampRect(e *Element) Rect {
	if e.OwnerViewport != v.id && v.ownerRect != nil {
		if r, ok := v.ownerRect(e.OwnerViewport); ok {
			return r
		}
	}
	return v.GlobalRect()
}

// GlobalRect is the viewport's rectangle on the global plane.
func (v *ViewportController) GlobalRect() Rect {
	return Rect{X: v.offset.X, Y: v.offset.Y, Width: v.width, Height: v.height}
}

// ToGlobal converts a viewport-local point to the global plane.
func (v *ViewportController) ToGlobal(local Point) Point { return local.Add(v.offset) }

// ToLocal converts a global point into this viewport's local space.
func (v *ViewportController) ToLocal(global Point) Point { return global.Sub(v.offset) }

// DeviceToLocal maps a device-pixel position to logical canvas pixels.
// Independent of the global offset.
func (v *ViewportController) DeviceToLocal(device Point) Point { return device.Div(v.scale) }

func (v *ViewportController) linkingOn() bool {
	return v.linkingEnabled == nil || v.linkingEnabled()
}

// visible reports whether this viewport renders (and lets the pointer
// interact with) the element. An element mid-drag on this viewport stays
// visible for continuity regardless of link state.
func (v *ViewportController) visible(e *Element) bool {
	if e.OwnerViewport == v.id {
		return true
	}
	if v.state == StateDragging && e.ID == v.dragID {
		return true
	}
	if !v.linkingOn() {
		return false
	}
	if v.linked == nil {
		return true
	}
	return v.linked(e.OwnerViewport, v.id)
}

// handlePoints returns the 8 anchor positions for a rect: 4 corners and
// 4 edge midpoints.
func handlePoints(r Rect) map[Handle]Point {
	cx := r.X + r.Width/2
	cy := r.Y + r.Height/2
	return map[Handle]Point{
		HandleNW: {r.X, r.Y},
		HandleN:  {cx, r.Y},
		HandleNE: {r.Right(), r.Y},
		HandleE:  {r.Right(), cy},
		HandleSE: {r.Right(), r.Bottom()},
		HandleS:  {cx, r.Bottom()},
		HandleSW: {r.X, r.Bottom()},
		HandleW:  {r.X, cy},
	}
}

func (h Handle) isCorner() bool {
	return h == HandleNW || h == HandleNE || h == HandleSE || h == HandleSW
}

// HandleAt reports which resize anchor of the primary selection the
// global point grabs, if any. Handles exist only for a single selection
// outside crop mode.
func (v *ViewportController) HandleAt(global Point) Handle {
	if v.state == StateCropIdle || v.state == StateCropDrag {
		return HandleNone
	}
	primary, ok := v.store.Selected()
	if !ok || len(v.store.SelectedMany()) > 1 || !v.visible(primary) {
		return HandleNone
	}
	// the grab target is a fixed device-pixel size, so the logical
	// radius shrinks as the scale grows
	radius := handleHitRadius / v.scale
	for h, p := range handlePoints(primary.EffectiveBounds()) {
		if math.Abs(global.X-p.X) <= radius && math.Abs(global.Y-p.Y) <= radius {
			return h
		}
	}
	return HandleNone
}

// PointerDown starts a gesture from a viewport-local point. shift grows
// the multi-selection instead of replacing it.
func (v *ViewportController) PointerDown(local Point, shift bool) {
	g := v.ToGlobal(local)
	switch v.state {
	case StateCropIdle:
		v.cropPointerDown(g, shift)
		return
	case StateIdle:
		// fall through below
	default:
		// a gesture is already in progress on this viewport
		return
	}
	v.idlePointerDown(g, shift)
}

func (v *ViewportController) idlePointerDown(g Point, shift bool) {
	if h := v.HandleAt(g); h != HandleNone {
		primary, _ := v.store.Selected()
		v.state = StateResizing
		v.resizeID = primary.ID
		v.resizeHandle = h
		v.resizeStart = g
		v.resizeOrig = primary.Bounds()
		v.resizeOrigFont = primary.FontSize
		v.resizeOrigCrop = nil
		if primary.Crop != nil {
			crop := *primary.Crop
			v.resizeOrigCrop = &crop
		}
		return
	}

	hit := v.store.HitTest(g)
	if hit != nil && !v.visible(hit) {
		hit = nil
	}
	if hit == nil {
		v.store.ClearSelection()
		v.state = StateRubberBand
		v.bandStart = g
		v.bandCurrent = g
		return
	}

	if shift {
		v.store.AddToSelection(hit.ID)
	} else if !v.store.IsSelected(hit.ID) {
		v.store.Select(hit.ID)
	}

	v.state = StateDragging
	v.dragID = hit.ID
	v.dragStart = g
	v.dragStartPos = make(map[string]Point)
	for _, id := range v.store.SelectedMany() {
		if e, ok := v.store.Get(id); ok {
			v.dragStartPos[id] = Point{e.X, e.Y}
		}
	}
}

// PointerMove advances the active gesture.
func (v *ViewportController) PointerMove(local Point) {
	g := v.ToGlobal(local)
	switch v.state {
	case StateDragging:
		v.moveDragged(g)
	case StateResizing:
		v.applyResize(g)
	case StateRubberBand:
		v.bandCurrent = g
		band := RectBetween(v.bandStart, v.bandCurrent)
		var ids []string
		for _, e := range v.store.Overlapping(band) {
			if v.visible(e) {
				ids = append(ids, e.ID)
			}
		}
		// selection is recomputed from scratch on every move
		v.store.SelectMany(ids)
	case StateCropDrag:
		v.moveCropHandle(g)
	}
}

// PointerUp ends the active drag-like gesture and returns to idle (or
// back to crop-idle for a crop handle drag).
func (v *ViewportController) PointerUp(local Point) {
	switch v.state {
	case StateDragging:
		v.state = StateIdle
		v.dragID = ""
		v.dragStartPos = nil
	case StateResizing:
		v.state = StateIdle
		v.resizeID = ""
		v.resizeHandle = HandleNone
	case StateRubberBand:
		v.state = StateIdle
	case StateCropDrag:
		v.state = StateCropIdle
		v.cropGrab = 0
	}
}

// DoubleClick enters crop mode when the point lands on an image element.
func (v *ViewportController) DoubleClick(local Point) {
	if v.state != StateIdle {
		return
	}
	g := v.ToGlobal(local)
	hit := v.store.HitTest(g)
	if hit == nil || hit.Kind != KindImage || !v.visible(hit) {
		return
	}
	v.store.Select(hit.ID)
	v.BeginCrop()
}

func (v *ViewportController) moveDragged(g Point) {
	delta := g.Sub(v.dragStart)
	positions := make(map[string]Point, len(v.dragStartPos))
	clamp := !v.linkingOn()
	for id, start := range v.dragStartPos {
		e, ok := v.store.Get(id)
		if !ok {
			continue
		}
		pos := start.Add(delta)
		if clamp {
			// keep at least dragKeepVisible logical px inside each
			// element's owner so nothing can be dragged out of sight
			r := v.clampRect(e)
			minX := r.X - e.Width + dragKeepVisible
			maxX := r.Right() - dragKeepVisible
			minY := r.Y - e.Height + dragKeepVisible
			maxY := r.Bottom() - dragKeepVisible
			pos.X = math.Min(math.Max(pos.X, minX), maxX)
			pos.Y = math.Min(math.Max(pos.Y, minY), maxY)
		}
		positions[id] = pos
	}
	v.store.SetPositions(positions)
	if !clamp && v.onDrag != nil {
		v.onDrag(v.dragID, g)
	}
}

// resizeRect computes the new box for the active handle. Corner handles
// preserve the original aspect ratio: the corner's x displacement sets
// the width and the height follows. Edge handles act on one axis. The
// edge(s) opposite the handle stay anchored.
func resizeRect(orig Rect, h Handle, delta Point) Rect {
	r := orig
	if h.isCorner() {
		aspect := orig.Width / orig.Height
		if aspect <= 0 {
			aspect = 1
		}
		newW := orig.Width
		switch h {
		case HandleNE, HandleSE:
			newW = orig.Width + delta.X
		case HandleNW, HandleSW:
			newW = orig.Width - delta.X
		}
		if newW < minElementSize {
			newW = minElementSize
		}
		newH := newW / aspect
		if newH < minElementSize {
			newH = minElementSize
			newW = newH * aspect
		}
		r.Width = newW
		r.Height = newH
		switch h {
		case HandleSE:
			// top-left anchored
		case HandleNE:
			r.Y = orig.Bottom() - newH
		case HandleSW:
			r.X = orig.Right() - newW
		case HandleNW:
			r.X = orig.Right() - newW
			r.Y = orig.Bottom() - newH
		}
		return r
	}

	switch h {
	case HandleE:
		r.Width = math.Max(orig.Width+delta.X, minElementSize)
	case HandleW:
		r.Width = math.Max(orig.Width-delta.X, minElementSize)
		r.X = orig.Right() - r.Width
	case HandleS:
		r.Height = math.Max(orig.Height+delta.Y, minElementSize)
	case HandleN:
		r.Height = math.Max(orig.Height-delta.Y, minElementSize)
		r.Y = orig.Bottom() - r.Height
	}
	return r
}

func (v *ViewportController) applyResize(g Point) {
	e, ok := v.store.Get(v.resizeID)
	if !ok {
		v.state = StateIdle
		return
	}
	delta := g.Sub(v.resizeStart)
	r := resizeRect(v.resizeOrig, v.resizeHandle, delta)

	if e.Kind == KindText {
		// text size is derived from metrics; a corner resize scales the
		// font instead, edge handles have nothing to act on
		if !v.resizeHandle.isCorner() || v.resizeOrig.Width <= 0 {
			return
		}
		newFont := v.resizeOrigFont * r.Width / v.resizeOrig.Width
		if newFont < 1 {
			newFont = 1
		}
		v.store.Update(e.ID, ElementPatch{X: &r.X, Y: &r.Y, FontSize: &newFont})
		return
	}

	patch := ElementPatch{X: &r.X, Y: &r.Y, Width: &r.Width, Height: &r.Height}
	if v.resizeOrigCrop != nil && v.resizeOrig.Width > 0 && v.resizeOrig.Height > 0 {
		// the crop travels with the box so its invariants hold at the
		// new size
		fx := r.Width / v.resizeOrig.Width
		fy := r.Height / v.resizeOrig.Height
		patch.Crop = &CropRect{
			Left:   v.resizeOrigCrop.Left * fx,
			Top:    v.resizeOrigCrop.Top * fy,
			Right:  v.resizeOrigCrop.Right * fx,
			Bottom: v.resizeOrigCrop.Bottom * fy,
		}
	}
	v.store.Update(e.ID, patch)
}

// RubberBandRect is the in-progress selection rectangle, valid while the
// rubber-band gesture is active.
func (v *ViewportController) RubberBandRect() (Rect, bool) {
	if v.state != StateRubberBand {
		return Rect{}, false
	}
	return RectBetween(v.bandStart, v.bandCurrent), true
}

// BeginCrop enters crop mode for the primary-selected image element.
// Requested on anything else it is a no-op.
func (v *ViewportController) BeginCrop() {
	if v.state != StateIdle {
		return
	}
	e, ok := v.store.Selected()
	if !ok || e.Kind != KindImage {
		return
	}
	v.cropID = e.ID
	if e.Crop != nil {
		v.cropBounds = *e.Crop
	} else {
		v.cropBounds = CropRect{Left: 0, Top: 0, Right: e.Width, Bottom: e.Height}
	}
	v.state = StateCropIdle
}

// CropBounds is the provisional crop rectangle, valid while crop mode is
// active. Bounds are element-local.
func (v *ViewportController) CropBounds() (CropRect, bool) {
	if v.state != StateCropIdle && v.state != StateCropDrag {
		return CropRect{}, false
	}
	return v.cropBounds, true
}

// CropTarget is the id being cropped, or "" outside crop mode.
func (v *ViewportController) CropTarget() string {
	if v.state != StateCropIdle && v.state != StateCropDrag {
		return ""
	}
	return v.cropID
}

// ApplyCrop commits the provisional bounds into the element and exits
// crop mode. Bounds equal to the full box clear the crop instead: a crop
// that masks nothing is no crop.
func (v *ViewportController) ApplyCrop() {
	if v.state != StateCropIdle && v.state != StateCropDrag {
		return
	}
	e, ok := v.store.Get(v.cropID)
	if ok {
		full := v.cropBounds.Left <= 0 && v.cropBounds.Top <= 0 &&
			v.cropBounds.Right >= e.Width && v.cropBounds.Bottom >= e.Height
		if full {
			v.store.Update(e.ID, ElementPatch{ClearCrop: true})
		} else {
			crop := v.cropBounds
			v.store.Update(e.ID, ElementPatch{Crop: &crop})
		}
	}
	v.exitCrop()
}

// CancelCrop discards the provisional bounds without touching the
// element and exits crop mode.
func (v *ViewportController) CancelCrop() {
	if v.state != StateCropIdle && v.state != StateCropDrag {
		return
	}
	v.exitCrop()
}

func (v *ViewportController) exitCrop() {
	v.state = StateIdle
	v.cropID = ""
	v.cropGrab = 0
}

// KeyEscape cancels crop mode, or clears the selection when idle.
func (v *ViewportController) KeyEscape() {
	switch v.state {
	case StateCropIdle, StateCropDrag:
		v.CancelCrop()
	case StateIdle:
		v.store.ClearSelection()
	}
}

// KeyEnter applies crop mode.
func (v *ViewportController) KeyEnter() {
	if v.state == StateCropIdle || v.state == StateCropDrag {
		v.ApplyCrop()
	}
}

// cropGrabAt matches the global point against the four provisional crop
// edges. Two edges within threshold form a corner grab, which beats a
// single-edge match.
func (v *ViewportController) cropGrabAt(e *Element, g Point) cropEdges {
	ex := g.X - e.X
	ey := g.Y - e.Y
	b := v.cropBounds

	withinY := ey >= b.Top-cropEdgeThreshold && ey <= b.Bottom+cropEdgeThreshold
	withinX := ex >= b.Left-cropEdgeThreshold && ex <= b.Right+cropEdgeThreshold

	var grab cropEdges
	if withinY && math.Abs(ex-b.Left) <= cropEdgeThreshold {
		grab |= cropLeft
	}
	if withinY && math.Abs(ex-b.Right) <= cropEdgeThreshold {
		grab |= cropRight
	}
	if withinX && math.Abs(ey-b.Top) <= cropEdgeThreshold {
		grab |= cropTop
	}
	if withinX && math.Abs(ey-b.Bottom) <= cropEdgeThreshold {
		grab |= cropBottom
	}
	// a narrow crop can match both opposing edges; keep the nearer one
	if grab&cropLeft != 0 && grab&cropRight != 0 {
		if math.Abs(ex-b.Left) <= math.Abs(ex-b.Right) {
			grab &^= cropRight
		} else {
			grab &^= cropLeft
		}
	}
	if grab&cropTop != 0 && grab&cropBottom != 0 {
		if math.Abs(ey-b.Top) <= math.Abs(ey-b.Bottom) {
			grab &^= cropBottom
		} else {
			grab &^= cropTop
		}
	}
	return grab
}

func (v *ViewportController) cropPointerDown(g Point, shift bool) {
	e, ok := v.store.Get(v.cropID)
	if !ok {
		// target vanished under us (e.g. deleted elsewhere)
		v.exitCrop()
		return
	}
	if grab := v.cropGrabAt(e, g); grab != 0 {
		v.cropGrab = grab
		v.state = StateCropDrag
		return
	}
	if e.Bounds().Contains(g) {
		// inside the image but not near a bound: ignore
		return
	}
	// outside the image auto-applies and the click falls through to
	// normal handling
	v.ApplyCrop()
	v.idlePointerDown(g, shift)
}

func (v *ViewportController) moveCropHandle(g Point) {
	e, ok := v.store.Get(v.cropID)
	if !ok {
		v.exitCrop()
		return
	}
	ex := g.X - e.X
	ey := g.Y - e.Y
	b := &v.cropBounds
	if v.cropGrab&cropLeft != 0 {
		b.Left = math.Min(math.Max(ex, 0), b.Right-minCropSize)
	}
	if v.cropGrab&cropRight != 0 {
		b.Right = math.Max(math.Min(ex, e.Width), b.Left+minCropSize)
	}
	if v.cropGrab&cropTop != 0 {
		b.Top = math.Min(math.Max(ey, 0), b.Bottom-minCropSize)
	}
	if v.cropGrab&cropBottom != 0 {
		b.Bottom = math.Max(math.Min(ey, e.Height), b.Top+minCropSize)
	}
}
