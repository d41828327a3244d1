package mural

import (
	"image"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// CropRect is a sub-region of an image element's local box, in element-local
// pixels. Rendering masks to it; the underlying bitmap is never resampled.
// Invariants: 0 <= Left < Right <= width, 0 <= Top < Bottom <= height,
// and both sides at least minCropSize.
type CropRect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

func (c CropRect) Width() float64  { return c.Right - c.Left }
func (c CropRect) Height() float64 { return c.Bottom - c.Top }

// clampTo forces the crop inside a w*h box while keeping the minimum size.
func (c CropRect) clampTo(w, h float64) CropRect {
	if c.Left < 0 {
		c.Left = 0
	}
	if c.Top < 0 {
		c.Top = 0
	}
	if c.Right > w {
		c.Right = w
	}
	if c.Bottom > h {
		c.Bottom = h
	}
	if c.Right-c.Left < minCropSize {
		c.Right = c.Left + minCropSize
		if c.Right > w {
			c.Right = w
			c.Left = w - minCropSize
		}
	}
	if c.Bottom-c.Top < minCropSize {
		c.Bottom = c.Top + minCropSize
		if c.Bottom > h {
			c.Bottom = h
			c.Top = h - minCropSize
		}
	}
	return c
}

// Element is a single item on the global plane, either text or an image.
// Position and size are global-coordinate logical pixels. Z-order is not
// stored here; it is the store's iteration order.
type Element struct {
	ID            string
	Kind          ElementKind
	X             float64
	Y             float64
	Width         float64
	Height        float64
	OwnerViewport string // viewport that created it; used only for link filtering

	// Text variant. Width/Height are derived from measured metrics and are
	// not independently settable.
	Content    string
	FontFamily string // "sans" or "mono"
	FontSize   float64
	FontWeight string // "normal" or "bold"
	FontStyle  string // "normal" or "italic"
	TextAlign  string // "left", "center" or "right"
	Color      string // hex, e.g. "#1a1a2e"

	// Image variant.
	Bitmap image.Image
	Crop   *CropRect
}

// NewTextElement creates a text element with a fresh id. The caller is
// expected to run it through the store so its size gets measured.
func NewTextElement(content string, fontSize float64, owner string) *Element {
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}
	return &Element{
		ID:            uuid.NewString(),
		Kind:          KindText,
		OwnerViewport: owner,
		Content:       content,
		FontFamily:    "sans",
		FontSize:      fontSize,
		FontWeight:    "normal",
		FontStyle:     "normal",
		TextAlign:     "left",
		Color:         "#000000",
	}
}

// NewImageElement creates an image element sized to the bitmap's nominal
// dimensions, capped so the longest side is maxImageDimension logical px
// with aspect preserved. The bitmap itself is kept at full resolution.
func NewImageElement(bm image.Image, owner string) *Element {
	b := bm.Bounds()
	w := float64(b.Dx())
	h := float64(b.Dy())
	if w > h && w > maxImageDimension {
		h = h * maxImageDimension / w
		w = maxImageDimension
	} else if h >= w && h > maxImageDimension {
		w = w * maxImageDimension / h
		h = maxImageDimension
	}
	if w < minElementSize {
		w = minElementSize
	}
	if h < minElementSize {
		h = minElementSize
	}
	return &Element{
		ID:            uuid.NewString(),
		Kind:          KindImage,
		Width:         w,
		Height:        h,
		OwnerViewport: owner,
		Bitmap:        bm,
	}
}

// Bounds is the element's full box in global coordinates.
func (e *Element) Bounds() Rect {
	return Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

// EffectiveBounds is what hit-testing sees: the crop rectangle translated
// to global coordinates when a crop is set, else the full box.
func (e *Element) EffectiveBounds() Rect {
	if e.Kind == KindImage && e.Crop != nil {
		return Rect{
			X:      e.X + e.Crop.Left,
			Y:      e.Y + e.Crop.Top,
			Width:  e.Crop.Width(),
			Height: e.Crop.Height(),
		}
	}
	return e.Bounds()
}

// Lines splits the text content for measurement and drawing.
func (e *Element) Lines() []string {
	return strings.Split(e.Content, "\n")
}

// Clone deep-copies the element under a fresh id, position shifted by
// (dx, dy). An owned bitmap is copied pixel by pixel so the clone is
// fully independent.
func (e *Element) Clone(dx, dy float64) *Element {
	dup := *e
	dup.ID = uuid.NewString()
	dup.X += dx
	dup.Y += dy
	if e.Crop != nil {
		crop := *e.Crop
		dup.Crop = &crop
	}
	if e.Bitmap != nil {
		b := e.Bitmap.Bounds()
		copied := image.NewRGBA(b)
		draw.Copy(copied, b.Min, e.Bitmap, b, draw.Src, nil)
		dup.Bitmap = copied
	}
	return &dup
}
