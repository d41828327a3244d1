package mural

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

// DecodeImage decodes PNG, JPEG or GIF data. Safe to call off the
// interaction thread; hand the result to CompleteImageDecode.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// LoadImageFile reads and decodes an image from disk.
func LoadImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()
	return DecodeImage(f)
}

// CompleteImageDecode lands an asynchronously decoded bitmap as a new
// element. Decoding can outlive the viewport that requested it; a
// completion for a destroyed viewport is dropped.
func (c *Composition) CompleteImageDecode(viewportID string, bm image.Image, err error) *Element {
	if err != nil {
		c.log.Warn("image decode failed", zap.Error(err))
		return nil
	}
	if bm == nil {
		return nil
	}
	if _, ok := c.viewports[viewportID]; !ok {
		c.log.Debug("decode completed for a destroyed viewport",
			zap.String("viewport", viewportID))
		return nil
	}
	return c.CreateImage(viewportID, bm)
}

// ExportPNG composes every viewport's current frame into a single image
// laid out by grid position and writes it as a PNG.
func (c *Composition) ExportPNG(path string) error {
	if len(c.order) == 0 {
		return fmt.Errorf("no viewports to export")
	}

	minCol, minRow := 0, 0
	maxCol, maxRow := 0, 0
	first := true
	for _, id := range c.order {
		cell, ok := c.grid.CellOf(id)
		if !ok {
			continue
		}
		if first {
			minCol, maxCol = cell.Col, cell.Col
			minRow, maxRow = cell.Row, cell.Row
			first = false
			continue
		}
		if cell.Col < minCol {
			minCol = cell.Col
		}
		if cell.Col > maxCol {
			maxCol = cell.Col
		}
		if cell.Row < minRow {
			minRow = cell.Row
		}
		if cell.Row > maxRow {
			maxRow = cell.Row
		}
	}

	cellW := int(c.resW * c.scale)
	cellH := int(c.resH * c.scale)
	dc := gg.NewContext(cellW*(maxCol-minCol+1), cellH*(maxRow-minRow+1))
	dc.SetHexColor("#222222")
	dc.Clear()

	for _, id := range c.order {
		cell, ok := c.grid.CellOf(id)
		if !ok {
			continue
		}
		frame := c.viewports[id].Render()
		dc.DrawImage(frame, (cell.Col-minCol)*cellW, (cell.Row-minRow)*cellH)
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	c.log.Info("snapshot exported", zap.String("path", path))
	return nil
}
