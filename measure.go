package mural

import (
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

type faceKey struct {
	variant string
	size    float64
}

// Measurer turns text content plus style fields into logical pixel metrics.
// It is the single ground truth for text element sizing: the store re-runs
// it on every content or style change, and rendering uses the same faces,
// so hit-testing and drawing can never disagree.
type Measurer struct {
	fonts map[string]*truetype.Font
	faces map[faceKey]font.Face
}

func NewMeasurer() *Measurer {
	return &Measurer{
		fonts: make(map[string]*truetype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

// variantTTF picks the embedded Go font matching family/weight/style.
// Unknown families fall back to the sans family.
func variantTTF(family, weight, style string) (string, []byte) {
	bold := weight == "bold"
	italic := style == "italic"
	if family == "mono" {
		switch {
		case bold && italic:
			return "mono-bold-italic", gomonobolditalic.TTF
		case bold:
			return "mono-bold", gomonobold.TTF
		case italic:
			return "mono-italic", gomonoitalic.TTF
		default:
			return "mono", gomono.TTF
		}
	}
	switch {
	case bold && italic:
		return "sans-bold-italic", gobolditalic.TTF
	case bold:
		return "sans-bold", gobold.TTF
	case italic:
		return "sans-italic", goitalic.TTF
	default:
		return "sans", goregular.TTF
	}
}

// Face returns a cached font.Face for the style at the given size.
func (m *Measurer) Face(family, weight, style string, size float64) font.Face {
	if size <= 0 {
		size = defaultFontSize
	}
	variant, ttf := variantTTF(family, weight, style)
	key := faceKey{variant: variant, size: size}
	if face, ok := m.faces[key]; ok {
		return face
	}
	parsed, ok := m.fonts[variant]
	if !ok {
		var err error
		parsed, err = truetype.Parse(ttf)
		if err != nil {
			// The embedded gofont data is known good; an unparsable
			// face would mean a corrupt build, so fall back to sans.
			parsed, _ = truetype.Parse(goregular.TTF)
		}
		m.fonts[variant] = parsed
	}
	face := truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	m.faces[key] = face
	return face
}

// MeasureText computes the box for a text element: width is the widest
// measured line plus padding, height is lineHeight * lineCount with
// lineHeight = fontSize * lineHeightFactor. Both are clamped to the
// rest-state minimum.
func (m *Measurer) MeasureText(e *Element) (w, h float64) {
	face := m.Face(e.FontFamily, e.FontWeight, e.FontStyle, e.FontSize)
	lines := e.Lines()
	maxLine := 0.0
	for _, line := range lines {
		adv := font.MeasureString(face, line)
		lw := float64(adv) / 64
		if lw > maxLine {
			maxLine = lw
		}
	}
	size := e.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	w = maxLine + textPadding
	h = size * lineHeightFactor * float64(len(lines))
	if w < minElementSize {
		w = minElementSize
	}
	if h < minElementSize {
		h = minElementSize
	}
	return w, h
}
