package mural

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
)

// Copy snapshots the primary selected element. Text content is also
// written to the system clipboard so it can travel to other programs.
func (c *Composition) Copy() error {
	e, ok := c.store.Selected()
	if !ok {
		return fmt.Errorf("nothing selected")
	}
	c.clip = e.Clone(0, 0)
	if e.Kind == KindText {
		if err := clipboard.WriteAll(e.Content); err != nil {
			c.log.Warn("system clipboard write failed", zap.Error(err))
		}
	}
	return nil
}

// Paste inserts a copy of the snapshotted element at the last known
// pointer position, or at a fixed offset from the original when the
// pointer has never been seen. The paste lands in whichever viewport
// contains it; elsewhere it keeps its original owner.
func (c *Composition) Paste() *Element {
	if c.clip == nil {
		return c.PasteClipboardText()
	}
	e := c.clip.Clone(0, 0)
	if c.lastPointer != nil {
		e.X = c.lastPointer.X - e.Width/2
		e.Y = c.lastPointer.Y - e.Height/2
	} else {
		e.X += pasteOffset
		e.Y += pasteOffset
	}
	if id, ok := c.viewportContaining(e.Bounds().Center()); ok {
		e.OwnerViewport = id
	}
	c.store.Add(e)
	c.store.Select(e.ID)
	return e
}

// PasteClipboardText creates a text element from the system clipboard,
// scrubbing RTF and HTML wrappers first. Returns nil when the clipboard
// is empty or unreadable.
func (c *Composition) PasteClipboardText() *Element {
	raw, err := clipboard.ReadAll()
	if err != nil {
		c.log.Debug("system clipboard read failed", zap.Error(err))
		return nil
	}
	if isHTML(raw) {
		raw = extractTextFromHTML(raw)
	}
	text := strings.TrimSpace(cleanClipboardText(raw))
	if text == "" {
		return nil
	}
	e := c.CreateText(c.active, text, defaultFontSize)
	if c.lastPointer != nil {
		c.store.Update(e.ID, ElementPatch{
			X: f64(c.lastPointer.X - e.Width/2),
			Y: f64(c.lastPointer.Y - e.Height/2),
		})
	}
	return e
}

func (c *Composition) viewportContaining(p Point) (string, bool) {
	for _, id := range c.order {
		if c.viewports[id].GlobalRect().Contains(p) {
			return id, true
		}
	}
	return "", false
}

func isHTML(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "<") &&
		(strings.Contains(text, "<html") || strings.Contains(text, "<body") || strings.Contains(text, "<div"))
}

func extractTextFromHTML(html string) string {
	var result strings.Builder
	result.Grow(len(html))
	inTag := false
	for _, r := range html {
		if r == '<' {
			inTag = true
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}
	text := result.String()
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	return text
}

// cleanClipboardText strips RTF control words and normalizes line
// endings so pasted content is plain text.
func cleanClipboardText(text string) string {
	if text == "" {
		return text
	}
	text = stripRTF(text)
	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			result.WriteRune(r)
		}
	}
	normalized := result.String()
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return normalized
}

func stripRTF(text string) string {
	if !strings.HasPrefix(text, "{\\rtf") && !strings.Contains(text, "\\rtf") {
		return text
	}
	var result strings.Builder
	result.Grow(len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '{' || r == '}' {
			continue
		}
		if r == '\\' {
			if i+1 < len(runes) {
				next := runes[i+1]
				if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') {
					i++
					for i < len(runes) {
						if runes[i] == ' ' || runes[i] == '\\' || runes[i] == '{' || runes[i] == '}' {
							if runes[i] == ' ' {
								i++
							}
							break
						}
						i++
					}
					i--
					continue
				} else if next == '\\' || next == '{' || next == '}' {
					result.WriteRune(next)
					i++
					continue
				} else if next == '\n' || next == '\r' || next == '\t' {
					result.WriteRune(next)
					i++
					continue
				}
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}
