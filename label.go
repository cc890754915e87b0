package lodtree

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/text/language"
)

// Font is the interface for text measurement and layout.
type Font interface {
	MeasureString(text string) (width, height float64)
	LineHeight() float64
}

// Ellipsis terminates truncated labels.
const Ellipsis = "…"

// --- TTFFont ---

// TTFFont wraps Ebitengine's text/v2 for TrueType font rendering. Faces are
// shaped right-to-left as Arabic unless changed with WithLanguage.
type TTFFont struct {
	face   *text.GoTextFace
	source *text.GoTextFaceSource
	size   float64
	lh     float64 // cached line height
}

// LoadTTFFont loads a TrueType font from raw TTF/OTF data at the given size.
func LoadTTFFont(ttfData []byte, size float64) (*TTFFont, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("lodtree: failed to parse TTF data: %w", err)
	}
	face := &text.GoTextFace{
		Source:    source,
		Size:      size,
		Direction: text.DirectionRightToLeft,
		Language:  language.Arabic,
	}
	m := face.Metrics()
	return &TTFFont{
		face:   face,
		source: source,
		size:   size,
		lh:     m.HAscent + m.HDescent + m.HLineGap,
	}, nil
}

// WithLanguage returns a copy of f shaping for lang, right-to-left when rtl.
func (f *TTFFont) WithLanguage(lang language.Tag, rtl bool) *TTFFont {
	face := &text.GoTextFace{
		Source:    f.source,
		Size:      f.size,
		Direction: text.DirectionLeftToRight,
		Language:  lang,
	}
	if rtl {
		face.Direction = text.DirectionRightToLeft
	}
	return &TTFFont{face: face, source: f.source, size: f.size, lh: f.lh}
}

// MeasureString returns the width and height of the rendered text.
func (f *TTFFont) MeasureString(s string) (width, height float64) {
	return text.Measure(s, f.face, f.lh)
}

// LineHeight returns the vertical distance between baselines.
func (f *TTFFont) LineHeight() float64 {
	return f.lh
}

// Face returns the underlying GoTextFace for direct Ebitengine text/v2 rendering.
func (f *TTFFont) Face() *text.GoTextFace {
	return f.face
}

// --- Label fitting ---

// Label is node text broken into at most a fixed number of lines.
type Label struct {
	Lines []string
	// Width is the widest line.
	Width float64
	// Truncated is set when an ellipsis was applied.
	Truncated bool
}

// FitLabel wraps s at word boundaries into at most maxLines lines no wider
// than maxWidth. Text that does not fit is cut and ends with Ellipsis; a
// single word wider than maxWidth is cut the same way. Returns nil when
// there is nothing to draw: empty text, no font, or an unusable box.
func FitLabel(f Font, s string, maxWidth float64, maxLines int) *Label {
	words := strings.Fields(s)
	if f == nil || len(words) == 0 || maxWidth <= 0 || maxLines <= 0 {
		return nil
	}
	lbl := &Label{}
	line := ""
	for i := 0; i < len(words); i++ {
		w := words[i]
		candidate := w
		if line != "" {
			candidate = line + " " + w
		}
		if width(f, candidate) <= maxWidth {
			line = candidate
			continue
		}
		if line == "" {
			// Word alone is too wide.
			lbl.Lines = append(lbl.Lines, ellipsize(f, w, maxWidth))
			lbl.Truncated = true
			if len(lbl.Lines) == maxLines {
				return lbl.finish(f)
			}
			continue
		}
		if len(lbl.Lines) == maxLines-1 {
			lbl.Lines = append(lbl.Lines, ellipsize(f, line+" "+strings.Join(words[i:], " "), maxWidth))
			lbl.Truncated = true
			return lbl.finish(f)
		}
		lbl.Lines = append(lbl.Lines, line)
		line = ""
		i-- // retry the word on the next line
	}
	if line != "" {
		lbl.Lines = append(lbl.Lines, line)
	}
	return lbl.finish(f)
}

func (l *Label) finish(f Font) *Label {
	for i, ln := range l.Lines {
		if ln == "" {
			l.Lines = l.Lines[:i]
			break
		}
		l.Width = max(l.Width, width(f, ln))
	}
	if len(l.Lines) == 0 {
		return nil
	}
	return l
}

// ellipsize drops trailing runes from s until s+Ellipsis fits maxWidth.
// Returns "" when not even the ellipsis fits.
func ellipsize(f Font, s string, maxWidth float64) string {
	if width(f, s) <= maxWidth {
		return s
	}
	for len(s) > 0 {
		_, size := utf8.DecodeLastRuneInString(s)
		s = strings.TrimRight(s[:len(s)-size], " ")
		if width(f, s+Ellipsis) <= maxWidth {
			return s + Ellipsis
		}
	}
	if width(f, Ellipsis) <= maxWidth {
		return Ellipsis
	}
	return ""
}

func width(f Font, s string) float64 {
	w, _ := f.MeasureString(s)
	return w
}
