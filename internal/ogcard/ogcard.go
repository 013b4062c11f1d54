// Package ogcard renders Open Graph preview cards as PNG images.
package ogcard

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	Width  = 1200
	Height = 630

	MaxTitleRunes    = 70
	MaxSubtitleRunes = 110

	BadgeText = "PORTFOLIO"

	contentWidth = 980
	titleSize    = 78
	subtitleSize = 30
	badgeSize    = 22
	lineHeight   = 1.1
)

var (
	background    = color.RGBA{R: 0x08, G: 0x09, B: 0x09, A: 0xff}
	titleColor    = color.RGBA{R: 0xf6, G: 0xed, B: 0xe6, A: 0xff}
	subtitleColor = color.RGBA{R: 0xc8, G: 0xb6, B: 0xa8, A: 0xff}
	badgeColor    = color.RGBA{R: 0xff, G: 0xa3, B: 0x66, A: 0xff}
	badgeBorder   = color.NRGBA{R: 0xff, G: 0x99, B: 0x66, A: 0x57}
)

// glow is a radial highlight expressed in fractions of the canvas.
type glow struct {
	cx, cy  float64
	radius  float64
	color   color.RGBA
	opacity float64
}

var glows = []glow{
	{cx: 0.2, cy: 0.2, radius: 0.35, color: color.RGBA{R: 0xff, G: 0x8a, B: 0x3d, A: 0xff}, opacity: 0.25},
	{cx: 0.8, cy: 0.8, radius: 0.40, color: color.RGBA{R: 0xff, G: 0x58, B: 0x1f, A: 0xff}, opacity: 0.22},
}

// Card is the text content of one preview image.
type Card struct {
	Title    string
	Subtitle string
}

// Renderer draws cards. Font faces are parsed once and reused. Faces cache
// glyphs, so rendering is serialized.
type Renderer struct {
	mu       sync.Mutex
	title    font.Face
	subtitle font.Face
	badge    font.Face
}

// NewRenderer parses the embedded Go fonts.
func NewRenderer() (*Renderer, error) {
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}

	title, err := newFace(bold, titleSize)
	if err != nil {
		return nil, err
	}
	subtitle, err := newFace(regular, subtitleSize)
	if err != nil {
		return nil, err
	}
	badge, err := newFace(regular, badgeSize)
	if err != nil {
		return nil, err
	}
	return &Renderer{title: title, subtitle: subtitle, badge: badge}, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// Resolve clamps the requested text and substitutes defaults for blank values.
func Resolve(title, subtitle, defaultTitle, defaultSubtitle string) Card {
	card := Card{Title: Clamp(title, MaxTitleRunes), Subtitle: Clamp(subtitle, MaxSubtitleRunes)}
	if card.Title == "" {
		card.Title = Clamp(defaultTitle, MaxTitleRunes)
	}
	if card.Subtitle == "" {
		card.Subtitle = Clamp(defaultSubtitle, MaxSubtitleRunes)
	}
	return card
}

// Clamp trims value and keeps at most max runes.
func Clamp(value string, max int) string {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) <= max {
		return value
	}
	return strings.TrimSpace(string([]rune(value)[:max]))
}

// Render draws card onto a new Width x Height canvas.
func (r *Renderer) Render(card Card) *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	paintBackground(img)

	titleLines := wrap(r.title, card.Title, contentWidth)
	subtitleLines := wrap(r.subtitle, card.Subtitle, contentWidth)

	badgeH := r.badge.Metrics().Height.Ceil() + 20
	titleH := lineAdvance(r.title) * len(titleLines)
	subtitleH := 0
	if len(subtitleLines) > 0 {
		subtitleH = 20 + lineAdvance(r.subtitle)*len(subtitleLines)
	}

	y := (Height - (badgeH + 26 + titleH + subtitleH)) / 2
	r.drawBadge(img, y)
	y += badgeH + 26

	for _, line := range titleLines {
		drawCentered(img, r.title, titleColor, line, y)
		y += lineAdvance(r.title)
	}
	if len(subtitleLines) > 0 {
		y += 20
		for _, line := range subtitleLines {
			drawCentered(img, r.subtitle, subtitleColor, line, y)
			y += lineAdvance(r.subtitle)
		}
	}
	return img
}

// Encode renders card and writes it as PNG.
func (r *Renderer) Encode(w io.Writer, card Card) error {
	if err := png.Encode(w, r.Render(card)); err != nil {
		return fmt.Errorf("encode card: %w", err)
	}
	return nil
}

func paintBackground(img *image.RGBA) {
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	diag := math.Hypot(Width, Height)
	for py := 0; py < Height; py++ {
		for px := 0; px < Width; px++ {
			c := img.RGBAAt(px, py)
			for _, g := range glows {
				d := math.Hypot(float64(px)-g.cx*Width, float64(py)-g.cy*Height) / diag
				if d >= g.radius {
					continue
				}
				a := g.opacity * (1 - d/g.radius)
				c.R = blend(c.R, g.color.R, a)
				c.G = blend(c.G, g.color.G, a)
				c.B = blend(c.B, g.color.B, a)
			}
			img.SetRGBA(px, py, c)
		}
	}
}

func blend(dst, src uint8, alpha float64) uint8 {
	return uint8(math.Round(float64(dst)*(1-alpha) + float64(src)*alpha))
}

func (r *Renderer) drawBadge(img *image.RGBA, top int) {
	d := &font.Drawer{Face: r.badge}
	textW := spacedWidth(d, BadgeText)
	w := textW + 36
	h := r.badge.Metrics().Height.Ceil() + 20
	left := (Width - w) / 2

	border := image.NewUniform(badgeBorder)
	for _, edge := range []image.Rectangle{
		image.Rect(left, top, left+w, top+1),
		image.Rect(left, top+h-1, left+w, top+h),
		image.Rect(left, top, left+1, top+h),
		image.Rect(left+w-1, top, left+w, top+h),
	} {
		draw.Draw(img, edge, border, image.Point{}, draw.Over)
	}

	d.Dst = img
	d.Src = image.NewUniform(badgeColor)
	d.Dot = fixed.P(left+18, top+10+r.badge.Metrics().Ascent.Ceil())
	tracking := fixed.I(badgeSize * 18 / 100)
	for _, ch := range BadgeText {
		d.DrawString(string(ch))
		d.Dot.X += tracking
	}
}

func spacedWidth(d *font.Drawer, s string) int {
	tracking := fixed.I(badgeSize * 18 / 100)
	n := utf8.RuneCountInString(s)
	return (d.MeasureString(s) + tracking*fixed.Int26_6(n)).Ceil()
}

func lineAdvance(face font.Face) int {
	return int(math.Ceil(float64(face.Metrics().Height.Ceil()) * lineHeight))
}

func drawCentered(img *image.RGBA, face font.Face, c color.Color, text string, top int) {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(c), Face: face}
	w := d.MeasureString(text).Ceil()
	d.Dot = fixed.P((Width-w)/2, top+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
}

// wrap breaks text into lines no wider than maxWidth pixels. A single word
// wider than maxWidth is split by rune.
func wrap(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	d := &font.Drawer{Face: face}
	fits := func(s string) bool { return d.MeasureString(s).Ceil() <= maxWidth }

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if fits(candidate) {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = ""
		for !fits(word) {
			head, rest := splitToWidth(d, word, maxWidth)
			lines = append(lines, head)
			word = rest
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func splitToWidth(d *font.Drawer, word string, maxWidth int) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && d.MeasureString(string(runes[:n+1])).Ceil() <= maxWidth {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
