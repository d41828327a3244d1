package mural

// ElementPatch is a partial update for Update. Nil fields are left alone.
// Setting ClearCrop wins over Crop.
type ElementPatch struct {
	X          *float64
	Y          *float64
	Width      *float64
	Height     *float64
	Owner      *string
	Content    *string
	FontFamily *string
	FontSize   *float64
	FontWeight *string
	FontStyle  *string
	TextAlign  *string
	Color      *string
	Crop       *CropRect
	ClearCrop  bool
}

// ElementStore is the authoritative, order-preserving collection of
// elements on the global plane. Iteration order is z-order: index 0 is
// the back, the last element is the front. It also owns selection state
// and knows nothing about viewports.
//
// Every mutating call fires a single change notification after the
// mutation completes. Operations on an unknown id are silent no-ops;
// only Get reports absence.
type ElementStore struct {
	elements []*Element
	byID     map[string]*Element
	primary  string
	multi    []string
	measurer *Measurer
	onChange []func()
}

func NewElementStore(m *Measurer) *ElementStore {
	if m == nil {
		m = NewMeasurer()
	}
	return &ElementStore{
		byID:     make(map[string]*Element),
		measurer: m,
	}
}

// Observe registers a change listener. Listeners fire once per mutating
// call, after the mutation completes. There is no unsubscribe; the store
// and its observers share a lifetime under the orchestrator.
func (s *ElementStore) Observe(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *ElementStore) notify() {
	for _, fn := range s.onChange {
		fn()
	}
}

// Add inserts the element at the front of the z-order. Text elements get
// their size measured on the way in.
func (s *ElementStore) Add(e *Element) {
	if e == nil || e.ID == "" {
		return
	}
	if _, exists := s.byID[e.ID]; exists {
		return
	}
	if e.Kind == KindText {
		e.Width, e.Height = s.measurer.MeasureText(e)
	}
	s.elements = append(s.elements, e)
	s.byID[e.ID] = e
	s.notify()
}

// Remove deletes the element and drops it from any selection.
func (s *ElementStore) Remove(id string) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, e := range s.elements {
		if e.ID == id {
			s.elements = append(s.elements[:i], s.elements[i+1:]...)
			break
		}
	}
	if s.primary == id {
		s.primary = ""
	}
	for i, sid := range s.multi {
		if sid == id {
			s.multi = append(s.multi[:i], s.multi[i+1:]...)
			break
		}
	}
	s.notify()
}

// Get looks an element up by id.
func (s *ElementStore) Get(id string) (*Element, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// All returns the elements in z-order, back to front. The slice is a
// copy; the elements are the live ones.
func (s *ElementStore) All() []*Element {
	out := make([]*Element, len(s.elements))
	copy(out, s.elements)
	return out
}

// Len reports the number of elements.
func (s *ElementStore) Len() int { return len(s.elements) }

// Update applies a partial patch to the element, re-measures text size
// when content or font fields changed, and fires one notification.
func (s *ElementStore) Update(id string, patch ElementPatch) {
	e, ok := s.byID[id]
	if !ok {
		return
	}
	if patch.X != nil {
		e.X = *patch.X
	}
	if patch.Y != nil {
		e.Y = *patch.Y
	}
	if patch.Width != nil {
		e.Width = *patch.Width
	}
	if patch.Height != nil {
		e.Height = *patch.Height
	}
	if patch.Owner != nil {
		e.OwnerViewport = *patch.Owner
	}
	remeasure := false
	if patch.Content != nil {
		e.Content = *patch.Content
		remeasure = true
	}
	if patch.FontFamily != nil {
		e.FontFamily = *patch.FontFamily
		remeasure = true
	}
	if patch.FontSize != nil {
		e.FontSize = *patch.FontSize
		remeasure = true
	}
	if patch.FontWeight != nil {
		e.FontWeight = *patch.FontWeight
		remeasure = true
	}
	if patch.FontStyle != nil {
		e.FontStyle = *patch.FontStyle
		remeasure = true
	}
	if patch.TextAlign != nil {
		e.TextAlign = *patch.TextAlign
	}
	if patch.Color != nil {
		e.Color = *patch.Color
	}
	if patch.ClearCrop {
		e.Crop = nil
	} else if patch.Crop != nil {
		crop := patch.Crop.clampTo(e.Width, e.Height)
		e.Crop = &crop
	}
	if e.Kind == KindText && remeasure {
		e.Width, e.Height = s.measurer.MeasureText(e)
	}
	s.notify()
}

// SetPositions moves several elements at once (a rigid group drag),
// firing a single notification for the whole move. Unknown ids are
// skipped.
func (s *ElementStore) SetPositions(positions map[string]Point) {
	changed := false
	for id, p := range positions {
		if e, ok := s.byID[id]; ok {
			e.X = p.X
			e.Y = p.Y
			changed = true
		}
	}
	if changed {
		s.notify()
	}
}

// Overlapping returns, in z-order, every element whose box overlaps the
// rect. A box fully outside is excluded, partial overlap is included.
func (s *ElementStore) Overlapping(r Rect) []*Element {
	var out []*Element
	for _, e := range s.elements {
		if e.Bounds().Overlaps(r) {
			out = append(out, e)
		}
	}
	return out
}

// HitTest returns the topmost element whose effective bounds contain the
// point, or nil. Effective bounds honor an image's crop rectangle.
func (s *ElementStore) HitTest(p Point) *Element {
	for i := len(s.elements) - 1; i >= 0; i-- {
		if s.elements[i].EffectiveBounds().Contains(p) {
			return s.elements[i]
		}
	}
	return nil
}

// BringToFront reinserts the element at the end of the iteration order,
// preserving the relative order of everything else.
func (s *ElementStore) BringToFront(id string) {
	e, ok := s.byID[id]
	if !ok {
		return
	}
	for i, cur := range s.elements {
		if cur.ID == id {
			s.elements = append(s.elements[:i], s.elements[i+1:]...)
			break
		}
	}
	s.elements = append(s.elements, e)
	s.notify()
}

// SendToBack reinserts the element at the start of the iteration order.
func (s *ElementStore) SendToBack(id string) {
	e, ok := s.byID[id]
	if !ok {
		return
	}
	for i, cur := range s.elements {
		if cur.ID == id {
			s.elements = append(s.elements[:i], s.elements[i+1:]...)
			break
		}
	}
	s.elements = append([]*Element{e}, s.elements...)
	s.notify()
}

// Duplicate clones the element under a new id at an offset position and
// inserts the clone at the front. Returns the clone, or nil for an
// unknown id.
func (s *ElementStore) Duplicate(id string, dx, dy float64) *Element {
	e, ok := s.byID[id]
	if !ok {
		return nil
	}
	dup := e.Clone(dx, dy)
	s.elements = append(s.elements, dup)
	s.byID[dup.ID] = dup
	s.notify()
	return dup
}

// Select makes id the primary (and only) selection. Unknown ids clear
// the selection instead.
func (s *ElementStore) Select(id string) {
	if _, ok := s.byID[id]; !ok {
		s.ClearSelection()
		return
	}
	s.primary = id
	s.multi = []string{id}
	s.notify()
}

// AddToSelection grows the multi-selection (shift-click) and makes the
// id primary.
func (s *ElementStore) AddToSelection(id string) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	for _, sid := range s.multi {
		if sid == id {
			s.primary = id
			s.notify()
			return
		}
	}
	s.multi = append(s.multi, id)
	s.primary = id
	s.notify()
}

// SelectMany replaces the multi-selection wholesale (rubber-band). The
// primary survives only if it is part of the new set; otherwise the
// last id becomes primary so the style toolbar has a target.
func (s *ElementStore) SelectMany(ids []string) {
	var kept []string
	for _, id := range ids {
		if _, ok := s.byID[id]; ok {
			kept = append(kept, id)
		}
	}
	s.multi = kept
	if len(kept) == 0 {
		s.primary = ""
		s.notify()
		return
	}
	found := false
	for _, id := range kept {
		if id == s.primary {
			found = true
			break
		}
	}
	if !found {
		s.primary = kept[len(kept)-1]
	}
	s.notify()
}

// Selected returns the primary selected element, if any.
func (s *ElementStore) Selected() (*Element, bool) {
	if s.primary == "" {
		return nil, false
	}
	e, ok := s.byID[s.primary]
	return e, ok
}

// SelectedID returns the primary selection id ("" when empty).
func (s *ElementStore) SelectedID() string { return s.primary }

// SelectedMany returns the multi-selection ids in selection order.
func (s *ElementStore) SelectedMany() []string {
	out := make([]string, len(s.multi))
	copy(out, s.multi)
	return out
}

// IsSelected reports membership in the multi-selection.
func (s *ElementStore) IsSelected(id string) bool {
	for _, sid := range s.multi {
		if sid == id {
			return true
		}
	}
	return false
}

// ClearSelection clears both the primary and the multi-selection.
func (s *ElementStore) ClearSelection() {
	if s.primary == "" && len(s.multi) == 0 {
		return
	}
	s.primary = ""
	s.multi = nil
	s.notify()
}
