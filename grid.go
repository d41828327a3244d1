package mural

// Cell is a position in the viewport grid. Row grows downward, col to
// the right, matching the plane's y/x axes.
type Cell struct {
	Row int
	Col int
}

// offsets for the 8 compass neighbors, indexed by Direction.
var directionOffsets = map[Direction]Cell{
	DirN:  {-1, 0},
	DirNE: {-1, 1},
	DirE:  {0, 1},
	DirSE: {1, 1},
	DirS:  {1, 0},
	DirSW: {1, -1},
	DirW:  {0, -1},
	DirNW: {-1, -1},
}

// IsDiagonal reports whether the direction is one of the four corners.
// Diagonal adjacency is tracked but excluded from link controls.
func (d Direction) IsDiagonal() bool {
	return d == DirNE || d == DirSE || d == DirSW || d == DirNW
}

type pairKey struct {
	a string
	b string
}

// newPairKey normalizes the pair so the link relation stays symmetric:
// there is exactly one entry per unordered pair and no way for the two
// directions to diverge.
func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// GridTopology maps viewport ids to grid cells, answers 8-direction
// adjacency queries and owns the link-enablement relation between
// viewport pairs. Links default to enabled.
type GridTopology struct {
	cells    map[string]Cell
	occupied map[Cell]string
	links    map[pairKey]bool
}

func NewGridTopology() *GridTopology {
	return &GridTopology{
		cells:    make(map[string]Cell),
		occupied: make(map[Cell]string),
		links:    make(map[pairKey]bool),
	}
}

// Place records the viewport at (row, col) and creates a default-enabled
// link entry with every already-placed 8-directional neighbor. Placing an
// id again moves it; placing onto an occupied cell is a no-op.
func (g *GridTopology) Place(viewportID string, row, col int) {
	cell := Cell{Row: row, Col: col}
	if other, taken := g.occupied[cell]; taken && other != viewportID {
		return
	}
	if old, ok := g.cells[viewportID]; ok {
		delete(g.occupied, old)
	}
	g.cells[viewportID] = cell
	g.occupied[cell] = viewportID
	for _, neighbor := range g.AdjacentOf(viewportID) {
		key := newPairKey(viewportID, neighbor)
		if _, exists := g.links[key]; !exists {
			g.links[key] = true
		}
	}
}

// Remove deletes the viewport's position and every link entry that
// references it.
func (g *GridTopology) Remove(viewportID string) {
	cell, ok := g.cells[viewportID]
	if !ok {
		return
	}
	delete(g.cells, viewportID)
	delete(g.occupied, cell)
	for key := range g.links {
		if key.a == viewportID || key.b == viewportID {
			delete(g.links, key)
		}
	}
}

// CellOf returns the viewport's grid cell.
func (g *GridTopology) CellOf(viewportID string) (Cell, bool) {
	cell, ok := g.cells[viewportID]
	return cell, ok
}

// ViewportAt returns the id occupying the cell, if any.
func (g *GridTopology) ViewportAt(row, col int) (string, bool) {
	id, ok := g.occupied[Cell{Row: row, Col: col}]
	return id, ok
}

// AdjacentOf maps each of the 8 compass directions to the neighboring
// viewport id, omitting empty cells. Unknown ids yield an empty map.
func (g *GridTopology) AdjacentOf(viewportID string) map[Direction]string {
	out := make(map[Direction]string)
	cell, ok := g.cells[viewportID]
	if !ok {
		return out
	}
	for dir, off := range directionOffsets {
		neighbor := Cell{Row: cell.Row + off.Row, Col: cell.Col + off.Col}
		if id, taken := g.occupied[neighbor]; taken {
			out[dir] = id
		}
	}
	return out
}

// IsLinked reports the link state for the pair, defaulting to true when
// the pair has never been recorded.
func (g *GridTopology) IsLinked(a, b string) bool {
	if linked, ok := g.links[newPairKey(a, b)]; ok {
		return linked
	}
	return true
}

// ToggleLink flips the pair's link state and returns the new value.
func (g *GridTopology) ToggleLink(a, b string) bool {
	key := newPairKey(a, b)
	next := !g.IsLinked(a, b)
	g.links[key] = next
	return next
}

// AreAdjacent reports whether the two viewports occupy neighboring cells
// (8-directional).
func (g *GridTopology) AreAdjacent(a, b string) bool {
	for _, id := range g.AdjacentOf(a) {
		if id == b {
			return true
		}
	}
	return false
}

// NextPosition scans outward from the reference cell in the given
// direction until it finds an empty cell. Only DirE ("right") and DirS
// ("bottom") are meaningful for viewport creation; other directions fall
// back to DirE. The scan steps past occupied cells so a viewport deleted
// from the middle of a row does not block growth past it.
func (g *GridTopology) NextPosition(dir Direction, relativeTo string) (Cell, bool) {
	cell, ok := g.cells[relativeTo]
	if !ok {
		return Cell{}, false
	}
	if dir != DirE && dir != DirS {
		dir = DirE
	}
	off := directionOffsets[dir]
	for {
		cell = Cell{Row: cell.Row + off.Row, Col: cell.Col + off.Col}
		if _, taken := g.occupied[cell]; !taken {
			return cell, true
		}
	}
}

// Links returns a copy of the recorded link relation keyed by the two
// ids in normalized order. Pairs never recorded are absent (and default
// to linked).
func (g *GridTopology) Links() map[[2]string]bool {
	out := make(map[[2]string]bool, len(g.links))
	for key, linked := range g.links {
		out[[2]string{key.a, key.b}] = linked
	}
	return out
}
