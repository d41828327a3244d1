package mural

// ElementKind distinguishes the two element variants.
type ElementKind int

const (
	KindText ElementKind = iota
	KindImage
)

// GestureState is the per-viewport pointer interaction state. States are
// mutually exclusive; a new gesture cannot start while one is in progress.
type GestureState int

const (
	StateIdle GestureState = iota
	StateDragging
	StateResizing
	StateRubberBand
	StateCropIdle
	StateCropDrag
)

// Handle identifies one of the 8 resize anchors around a selected element.
type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
)

// Direction is one of the 8 compass neighbors of a grid cell.
type Direction int

const (
	DirN Direction = iota
	DirNE
	DirE
	DirSE
	DirS
	DirSW
	DirW
	DirNW
)

// cropEdges is a bitmask of the crop bounds grabbed by the active gesture.
// A corner grab sets two bits.
type cropEdges uint8

const (
	cropLeft cropEdges = 1 << iota
	cropTop
	cropRight
	cropBottom
)

const (
	minElementSize    = 20.0 // rest-state minimum for width and height
	minCropSize       = 20.0 // minimum crop side length
	handleHitRadius   = 10.0 // device px around each resize anchor
	handleDrawSize    = 8.0  // drawn side of a resize handle square
	cropEdgeThreshold = 20.0 // logical px proximity for crop edge grabs
	dragKeepVisible   = 50.0 // logical px kept inside the owner when unlinked
	textPadding       = 12.0 // added to the widest measured line
	lineHeightFactor  = 1.2  // line height = font size * factor
	maxImageDimension = 300.0
	pasteOffset       = 20.0 // fallback paste displacement
	defaultFontSize   = 16.0
)
