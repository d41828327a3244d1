package mural

import (
	"image"

	"github.com/fogleman/gg"
)

// Render redraws the viewport's slice of the plane from scratch and
// caches the frame. Immediate mode: no diffing, safe to call repeatedly
// for the current state. The frame is sized in device pixels.
func (v *ViewportController) Render() *image.RGBA {
	w := int(v.width * v.scale)
	h := int(v.height * v.scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dc := gg.NewContext(w, h)
	dc.SetHexColor(v.background)
	dc.Clear()
	dc.Scale(v.scale, v.scale)

	for _, e := range v.store.Overlapping(v.GlobalRect()) {
		if !v.visible(e) {
			continue
		}
		local := v.ToLocal(Point{e.X, e.Y})
		switch e.Kind {
		case KindText:
			v.drawText(dc, e, local)
		case KindImage:
			v.drawImage(dc, e, local)
		}
		if v.store.IsSelected(e.ID) {
			v.drawSelection(dc, e, local)
		}
	}

	if band, ok := v.RubberBandRect(); ok {
		v.drawRubberBand(dc, band)
	}
	if v.state == StateCropIdle || v.state == StateCropDrag {
		v.drawCropOverlay(dc)
	}

	v.frame = dc.Image().(*image.RGBA)
	return v.frame
}

// Frame returns the last rendered frame, rendering one if none exists.
func (v *ViewportController) Frame() *image.RGBA {
	if v.frame == nil {
		return v.Render()
	}
	return v.frame
}

func (v *ViewportController) drawText(dc *gg.Context, e *Element, at Point) {
	// re-measure so drawing and the stored box can never drift apart
	e.Width, e.Height = v.measurer.MeasureText(e)

	face := v.measurer.Face(e.FontFamily, e.FontWeight, e.FontStyle, e.FontSize)
	dc.SetFontFace(face)
	dc.SetHexColor(e.Color)

	lineHeight := e.FontSize * lineHeightFactor
	innerW := e.Width - textPadding
	for i, line := range e.Lines() {
		lw, _ := dc.MeasureString(line)
		x := at.X + textPadding/2
		switch e.TextAlign {
		case "center":
			x = at.X + textPadding/2 + (innerW-lw)/2
		case "right":
			x = at.X + textPadding/2 + innerW - lw
		}
		// baseline sits near the bottom of each line slot
		y := at.Y + float64(i)*lineHeight + e.FontSize
		dc.DrawString(line, x, y)
	}
}

func (v *ViewportController) drawImage(dc *gg.Context, e *Element, at Point) {
	if e.Bitmap == nil {
		return
	}
	b := e.Bitmap.Bounds()
	bw := float64(b.Dx())
	bh := float64(b.Dy())
	if bw <= 0 || bh <= 0 {
		return
	}
	if e.Crop != nil {
		// mask, never resample: clip to the crop rect and draw the
		// whole bitmap underneath it
		dc.Push()
		dc.DrawRectangle(at.X+e.Crop.Left, at.Y+e.Crop.Top, e.Crop.Width(), e.Crop.Height())
		dc.Clip()
		v.drawBitmap(dc, e, at, bw, bh)
		dc.ResetClip()
		dc.Pop()
		return
	}
	dc.Push()
	v.drawBitmap(dc, e, at, bw, bh)
	dc.Pop()
}

func (v *ViewportController) drawBitmap(dc *gg.Context, e *Element, at Point, bw, bh float64) {
	dc.Push()
	dc.Translate(at.X, at.Y)
	dc.Scale(e.Width/bw, e.Height/bh)
	dc.DrawImage(e.Bitmap, 0, 0)
	dc.Pop()
}

// drawSelection paints the dashed outline (around the crop rect when one
// is set) plus, for a single selection outside crop mode, the 8 resize
// handles.
func (v *ViewportController) drawSelection(dc *gg.Context, e *Element, at Point) {
	bounds := e.EffectiveBounds()
	r := Rect{
		X:      at.X + (bounds.X - e.X),
		Y:      at.Y + (bounds.Y - e.Y),
		Width:  bounds.Width,
		Height: bounds.Height,
	}

	dc.SetHexColor("#2266cc")
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	dc.Stroke()
	dc.SetDash()

	cropping := v.state == StateCropIdle || v.state == StateCropDrag
	if cropping || len(v.store.SelectedMany()) > 1 {
		return
	}
	for _, p := range handlePoints(r) {
		dc.DrawRectangle(p.X-handleDrawSize/2, p.Y-handleDrawSize/2, handleDrawSize, handleDrawSize)
		dc.SetHexColor("#ffffff")
		dc.FillPreserve()
		dc.SetHexColor("#2266cc")
		dc.Stroke()
	}
}

func (v *ViewportController) drawRubberBand(dc *gg.Context, band Rect) {
	local := v.ToLocal(Point{band.X, band.Y})
	dc.SetRGBA(0.13, 0.4, 0.8, 0.15)
	dc.DrawRectangle(local.X, local.Y, band.Width, band.Height)
	dc.Fill()
	dc.SetHexColor("#2266cc")
	dc.SetLineWidth(1)
	dc.SetDash(3, 3)
	dc.DrawRectangle(local.X, local.Y, band.Width, band.Height)
	dc.Stroke()
	dc.SetDash()
}

// drawCropOverlay dims everything outside the provisional crop bounds,
// draws a rule-of-thirds grid inside them and marks the edge/corner
// handles.
func (v *ViewportController) drawCropOverlay(dc *gg.Context) {
	e, ok := v.store.Get(v.cropID)
	if !ok {
		return
	}
	at := v.ToLocal(Point{e.X, e.Y})
	b := v.cropBounds
	cx := at.X + b.Left
	cy := at.Y + b.Top
	cw := b.Width()
	ch := b.Height()

	// dim the four strips of the element outside the crop rect
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawRectangle(at.X, at.Y, e.Width, b.Top)
	dc.DrawRectangle(at.X, at.Y+b.Bottom, e.Width, e.Height-b.Bottom)
	dc.DrawRectangle(at.X, cy, b.Left, ch)
	dc.DrawRectangle(at.X+b.Right, cy, e.Width-b.Right, ch)
	dc.Fill()

	// rule-of-thirds grid
	dc.SetRGBA(1, 1, 1, 0.6)
	dc.SetLineWidth(1)
	for i := 1; i <= 2; i++ {
		x := cx + cw*float64(i)/3
		dc.DrawLine(x, cy, x, cy+ch)
		y := cy + ch*float64(i)/3
		dc.DrawLine(cx, y, cx+cw, y)
	}
	dc.Stroke()

	// crop frame and handle markers
	dc.SetHexColor("#ffffff")
	dc.SetLineWidth(2)
	dc.DrawRectangle(cx, cy, cw, ch)
	dc.Stroke()
	for _, p := range handlePoints(Rect{X: cx, Y: cy, Width: cw, Height: ch}) {
		dc.DrawRectangle(p.X-handleDrawSize/2, p.Y-handleDrawSize/2, handleDrawSize, handleDrawSize)
		dc.Fill()
	}
}
