package captions

import (
	"fmt"
	"strings"
	"time"
)

// Style controls the rendered subtitle look. Colors are ASS &HAABBGGRR
// strings.
type Style struct {
	FontName       string
	FontSize       int
	MarginV        int
	PrimaryColor   string
	HighlightColor string
	OutlineColor   string
	PlayResX       int
	PlayResY       int

	// HighlightOffset and HighlightDuration shape the sweep when words carry
	// no usable timestamps: the highlight starts Offset of the way into the
	// untimed span and sweeps over Duration of it, split evenly per word.
	HighlightOffset   float64
	HighlightDuration float64
}

// DefaultStyle matches the compiled-video layout.
func DefaultStyle() Style {
	return Style{
		FontName:          "Arial",
		FontSize:          48,
		MarginV:           60,
		PrimaryColor:      "&H00FFFFFF",
		HighlightColor:    "&H0000D7FF",
		OutlineColor:      "&H00000000",
		PlayResX:          1280,
		PlayResY:          720,
		HighlightOffset:   0.1,
		HighlightDuration: 0.8,
	}
}

// RenderASS renders caption lines as an ASS script with per-word karaoke
// highlighting. Words with real timestamps sweep for their measured duration;
// zero-length words fall back to a uniform sweep shaped by the style's
// highlight offset and duration fractions.
func RenderASS(lines []Line, style Style) string {
	var b strings.Builder
	b.WriteString(assHeader(style))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, ln := range lines {
		if len(ln.Words) == 0 {
			continue
		}
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(ln.Start))
		b.WriteString(",")
		b.WriteString(assTime(ln.End))
		b.WriteString(",Caption,,0,0,0,,")
		renderLineText(&b, ln, style)
		b.WriteString("\n")
	}
	return b.String()
}

func renderLineText(b *strings.Builder, ln Line, style Style) {
	cursor := ln.Start
	var fallbackShare float64
	for i, w := range ln.Words {
		// The karaoke counter covers the gap up to the word's end so the
		// sweep stays aligned with absolute word times.
		wordEnd := w.End
		if wordEnd <= cursor {
			if fallbackShare == 0 {
				// No usable timing: delay the sweep by the offset fraction
				// of the untimed span, then split the duration fraction
				// evenly over the remaining words.
				remaining := ln.End - cursor
				if off := style.HighlightOffset; off > 0 && off < 1 {
					if delayCS := centiseconds(remaining * off); delayCS >= 1 {
						fmt.Fprintf(b, "{\\k%d}", delayCS)
						cursor += remaining * off
						remaining = ln.End - cursor
					}
				}
				fallbackShare = remaining * clampFrac(style.HighlightDuration) / float64(len(ln.Words)-i)
			}
			wordEnd = cursor + fallbackShare
			if wordEnd > ln.End {
				wordEnd = ln.End
			}
		}
		durCS := centiseconds(wordEnd - cursor)
		if durCS < 1 {
			durCS = 1
		}
		fmt.Fprintf(b, "{\\kf%d}%s", durCS, sanitizeASS(w.Text))
		if i < len(ln.Words)-1 {
			b.WriteString(" ")
		}
		cursor = wordEnd
	}
}

func assHeader(style Style) string {
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", style.PlayResX)
	fmt.Fprintf(&b, "PlayResY: %d\n", style.PlayResY)
	b.WriteString("ScaledBorderAndShadow: yes\n")
	b.WriteString("\n[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Caption, %s, %d, %s, %s, %s, &H64000000, 1,0,0,0,100,100,0,0,1,3,1,2, 40,40,%d,1\n",
		style.FontName, style.FontSize, style.PrimaryColor, style.HighlightColor, style.OutlineColor, style.MarginV)
	return b.String()
}

func assTime(sec float64) string {
	d := time.Duration(sec * float64(time.Second))
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}

func centiseconds(sec float64) int {
	return int(time.Duration(sec*float64(time.Second)) / (10 * time.Millisecond))
}

// ASSColor converts a friendly color name to ASS &HAABBGGRR form. Values
// already in ASS form pass through untouched.
func ASSColor(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "white":
		return "&H00FFFFFF"
	case "black":
		return "&H00000000"
	case "yellow":
		return "&H0000FFFF"
	case "red":
		return "&H000000FF"
	case "green":
		return "&H0000FF00"
	case "blue":
		return "&H00FF0000"
	case "cyan":
		return "&H00FFFF00"
	case "magenta":
		return "&H00FF00FF"
	case "":
		return "&H00FFFFFF"
	default:
		return name
	}
}

func clampFrac(v float64) float64 {
	if v <= 0 {
		return 1.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}
