package mural

import (
	"fmt"
	"image"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Composition is the root of the system. It owns the element store, the
// grid topology and every viewport controller, derives viewport offsets
// from grid cells and the shared resolution, and rebroadcasts element
// changes as redraws. Controllers hold non-owning references back to the
// store and a link predicate; never the reverse.
type Composition struct {
	store *ElementStore
	grid  *GridTopology
	log   *zap.Logger

	viewports map[string]*ViewportController
	order     []string // creation order, for stable iteration

	resW    float64
	resH    float64
	scale   float64
	linking bool

	active      string
	lastPointer *Point // last known global pointer position, for paste
	clip        *Element
	measurer    *Measurer
	background  string
}

// NewComposition builds the arena: store, grid and the initial viewport
// at cell (0,0). A nil logger means no logging. At least one viewport
// always exists.
func NewComposition(cfg *Config, log *zap.Logger) *Composition {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := NewMeasurer()
	c := &Composition{
		store:      NewElementStore(m),
		grid:       NewGridTopology(),
		log:        log,
		viewports:  make(map[string]*ViewportController),
		resW:       cfg.ResolutionW,
		resH:       cfg.ResolutionH,
		scale:      1,
		linking:    cfg.Linking,
		measurer:   m,
		background: cfg.Background,
	}
	c.store.Observe(c.RenderAll)
	first := c.newViewport()
	c.grid.Place(first.ID(), 0, 0)
	c.active = first.ID()
	c.RecalculateOffsets()
	return c
}

func (c *Composition) newViewport() *ViewportController {
	id := uuid.NewString()
	v := NewViewportController(id, c.store, c.measurer, c.grid.IsLinked)
	v.SetSize(c.resW, c.resH)
	v.SetScale(c.scale)
	v.SetBackground(c.background)
	v.SetLinkingEnabled(func() bool { return c.linking })
	v.SetDragObserver(c.handleDrag)
	v.SetRectLookup(func(id string) (Rect, bool) {
		if vp, ok := c.viewports[id]; ok {
			return vp.GlobalRect(), true
		}
		return Rect{}, false
	})
	c.viewports[id] = v
	c.order = append(c.order, id)
	return v
}

// Store exposes the element store for the external UI layer.
func (c *Composition) Store() *ElementStore { return c.store }

// Grid exposes the topology (read-mostly; mutate through the
// composition so offsets and links stay consistent).
func (c *Composition) Grid() *GridTopology { return c.grid }

// Viewport returns the controller for an id.
func (c *Composition) Viewport(id string) (*ViewportController, bool) {
	v, ok := c.viewports[id]
	return v, ok
}

// Viewports returns the controllers in creation order.
func (c *Composition) Viewports() []*ViewportController {
	out := make([]*ViewportController, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.viewports[id])
	}
	return out
}

// ActiveViewport is the viewport receiving keyboard-driven commands.
func (c *Composition) ActiveViewport() *ViewportController {
	if v, ok := c.viewports[c.active]; ok {
		return v
	}
	// at least one viewport always exists
	return c.viewports[c.order[0]]
}

// SetActiveViewport switches the command target; unknown ids are
// ignored.
func (c *Composition) SetActiveViewport(id string) {
	if _, ok := c.viewports[id]; ok {
		c.active = id
	}
}

// AddViewport creates a viewport in the next free cell to the right of
// or below the active viewport, wires default-enabled links with its new
// neighbors and makes it active.
func (c *Composition) AddViewport(dir Direction) (*ViewportController, error) {
	cell, ok := c.grid.NextPosition(dir, c.active)
	if !ok {
		return nil, fmt.Errorf("active viewport %s has no grid cell", c.active)
	}
	v := c.newViewport()
	c.grid.Place(v.ID(), cell.Row, cell.Col)
	c.active = v.ID()
	c.RecalculateOffsets()
	c.log.Info("viewport added",
		zap.String("viewport", v.ID()),
		zap.Int("row", cell.Row),
		zap.Int("col", cell.Col))
	c.RenderAll()
	return v, nil
}

// RemoveViewport destroys a viewport. The last remaining viewport cannot
// be removed; callers are expected to confirm destructive removals with
// the user first.
func (c *Composition) RemoveViewport(id string) error {
	if _, ok := c.viewports[id]; !ok {
		return nil
	}
	if len(c.viewports) == 1 {
		return fmt.Errorf("cannot remove the last viewport")
	}
	c.grid.Remove(id)
	delete(c.viewports, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	if c.active == id {
		c.active = c.order[len(c.order)-1]
	}
	c.log.Info("viewport removed", zap.String("viewport", id))
	c.RecalculateOffsets()
	c.RenderAll()
	return nil
}

// SetResolution applies a new shared resolution to every viewport and
// re-derives all offsets from it.
func (c *Composition) SetResolution(w, h float64) {
	if w < 1 || h < 1 {
		return
	}
	c.resW = w
	c.resH = h
	for _, v := range c.viewports {
		v.SetSize(w, h)
	}
	c.log.Info("resolution changed", zap.Float64("width", w), zap.Float64("height", h))
	c.RecalculateOffsets()
	c.RenderAll()
}

// Resolution returns the shared per-viewport pixel size.
func (c *Composition) Resolution() (w, h float64) { return c.resW, c.resH }

// SetScale sets the device-to-logical scale on every viewport.
func (c *Composition) SetScale(s float64) {
	if s <= 0 {
		return
	}
	c.scale = s
	for _, v := range c.viewports {
		v.SetScale(s)
	}
	c.RenderAll()
}

// RecalculateOffsets re-derives every viewport offset purely from its
// grid cell and the shared resolution. Idempotent; called after any
// structural change.
func (c *Composition) RecalculateOffsets() {
	for id, v := range c.viewports {
		if cell, ok := c.grid.CellOf(id); ok {
			v.SetOffset(Point{X: float64(cell.Col) * c.resW, Y: float64(cell.Row) * c.resH})
		}
	}
}

// RenderAll redraws every viewport. Fired on every store notification so
// a mutation anywhere is immediately reflected everywhere.
func (c *Composition) RenderAll() {
	for _, id := range c.order {
		c.viewports[id].Render()
	}
}

// SetLinking flips the global cross-viewport linking switch.
func (c *Composition) SetLinking(enabled bool) {
	c.linking = enabled
	c.RenderAll()
}

// Linking reports the global linking switch.
func (c *Composition) Linking() bool { return c.linking }

// ToggleLink flips the link between two orthogonally adjacent viewports
// and returns the new state. Requests for non-adjacent or diagonal pairs
// are rejected as no-ops.
func (c *Composition) ToggleLink(a, b string) (bool, bool) {
	if !c.grid.AreAdjacent(a, b) {
		return false, false
	}
	for dir, id := range c.grid.AdjacentOf(a) {
		if id == b && dir.IsDiagonal() {
			return false, false
		}
	}
	next := c.grid.ToggleLink(a, b)
	c.log.Debug("link toggled",
		zap.String("a", a), zap.String("b", b), zap.Bool("linked", next))
	c.RenderAll()
	return next, true
}

// handleDrag is the per-move drag notification. While linking is
// enabled, ownership follows the drag point: the element is reassigned
// to whichever viewport's rectangle contains it, provided that viewport
// is linked to (or is) the current owner.
func (c *Composition) handleDrag(elementID string, pointer Point) {
	e, ok := c.store.Get(elementID)
	if !ok || !c.linking {
		return
	}
	for _, id := range c.order {
		v := c.viewports[id]
		if !v.GlobalRect().Contains(pointer) {
			continue
		}
		if id == e.OwnerViewport {
			return
		}
		if !c.grid.IsLinked(e.OwnerViewport, id) {
			return
		}
		c.log.Debug("ownership handoff",
			zap.String("element", elementID),
			zap.String("from", e.OwnerViewport),
			zap.String("to", id))
		c.store.Update(elementID, ElementPatch{Owner: &id})
		return
	}
}

// SetPointer records the last known global pointer position; paste
// targets it.
func (c *Composition) SetPointer(global Point) {
	p := global
	c.lastPointer = &p
}

// CreateText adds a text element at the center of the requesting
// viewport and selects it. The external editor finalizes content through
// SetSelectedStyle / store updates.
func (c *Composition) CreateText(viewportID, content string, fontSize float64) *Element {
	v, ok := c.viewports[viewportID]
	if !ok {
		v = c.ActiveViewport()
	}
	e := NewTextElement(content, fontSize, v.ID())
	center := v.GlobalRect().Center()
	c.store.Add(e) // measures the box
	c.store.Update(e.ID, ElementPatch{
		X: f64(center.X - e.Width/2),
		Y: f64(center.Y - e.Height/2),
	})
	c.store.Select(e.ID)
	return e
}

// CreateImage adds a decoded bitmap as an image element centered in the
// requesting viewport, capped to the maximum nominal dimension.
func (c *Composition) CreateImage(viewportID string, bm image.Image) *Element {
	v, ok := c.viewports[viewportID]
	if !ok {
		v = c.ActiveViewport()
	}
	e := NewImageElement(bm, v.ID())
	center := v.GlobalRect().Center()
	e.X = center.X - e.Width/2
	e.Y = center.Y - e.Height/2
	c.store.Add(e)
	c.store.Select(e.ID)
	return e
}

// TextStyle is the style surface the external toolbar reads and writes.
type TextStyle struct {
	FontFamily string
	FontSize   float64
	FontWeight string
	FontStyle  string
	TextAlign  string
	Color      string
}

// SelectedStyle reads the primary selection's style fields. ok is false
// when the selection is empty or not a text element.
func (c *Composition) SelectedStyle() (TextStyle, bool) {
	e, ok := c.store.Selected()
	if !ok || e.Kind != KindText {
		return TextStyle{}, false
	}
	return TextStyle{
		FontFamily: e.FontFamily,
		FontSize:   e.FontSize,
		FontWeight: e.FontWeight,
		FontStyle:  e.FontStyle,
		TextAlign:  e.TextAlign,
		Color:      e.Color,
	}, true
}

// StylePatch carries partial style updates from the toolbar.
type StylePatch struct {
	FontFamily *string
	FontSize   *float64
	FontWeight *string
	FontStyle  *string
	TextAlign  *string
	Color      *string
}

// SetSelectedStyle writes style fields on the primary selection. A no-op
// unless the selection is a text element.
func (c *Composition) SetSelectedStyle(p StylePatch) {
	e, ok := c.store.Selected()
	if !ok || e.Kind != KindText {
		return
	}
	c.store.Update(e.ID, ElementPatch{
		FontFamily: p.FontFamily,
		FontSize:   p.FontSize,
		FontWeight: p.FontWeight,
		FontStyle:  p.FontStyle,
		TextAlign:  p.TextAlign,
		Color:      p.Color,
	})
}

// DeleteSelection removes every selected element.
func (c *Composition) DeleteSelection() {
	for _, id := range c.store.SelectedMany() {
		c.store.Remove(id)
	}
}

// DuplicateSelection clones every selected element at an offset and
// selects the clones.
func (c *Composition) DuplicateSelection(dx, dy float64) {
	var clones []string
	for _, id := range c.store.SelectedMany() {
		if dup := c.store.Duplicate(id, dx, dy); dup != nil {
			clones = append(clones, dup.ID)
		}
	}
	if len(clones) > 0 {
		c.store.SelectMany(clones)
	}
}

// BringToFront raises the primary selection to the top of the z-order.
func (c *Composition) BringToFront() {
	if e, ok := c.store.Selected(); ok {
		c.store.BringToFront(e.ID)
	}
}

// SendToBack lowers the primary selection to the bottom of the z-order.
func (c *Composition) SendToBack() {
	if e, ok := c.store.Selected(); ok {
		c.store.SendToBack(e.ID)
	}
}

// NudgeSelection moves the whole selection by a keyboard step, clamped
// like a drag when linking is disabled.
func (c *Composition) NudgeSelection(dx, dy float64) {
	ids := c.store.SelectedMany()
	if len(ids) == 0 {
		return
	}
	positions := make(map[string]Point, len(ids))
	for _, id := range ids {
		e, ok := c.store.Get(id)
		if !ok {
			continue
		}
		pos := Point{e.X + dx, e.Y + dy}
		if !c.linking {
			if owner, ok := c.viewports[e.OwnerViewport]; ok {
				r := owner.GlobalRect()
				pos.X = clampf(pos.X, r.X-e.Width+dragKeepVisible, r.Right()-dragKeepVisible)
				pos.Y = clampf(pos.Y, r.Y-e.Height+dragKeepVisible, r.Bottom()-dragKeepVisible)
			}
		}
		positions[id] = pos
	}
	c.store.SetPositions(positions)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func f64(v float64) *float64 { return &v }
