package export

import (
	"bytes"
	"image"
	"image/color"
	"io"

	_ "image/jpeg"

	"cv-platform/internal/model"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// 预览图尺寸，比例接近 A4。
const (
	pngWidth  = 600
	pngHeight = 848
	pngMargin = 32
)

var accentColors = map[string]color.Color{
	model.TemplateClassic:      color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff},
	model.TemplateModern:       color.RGBA{R: 0x1f, G: 0x6f, B: 0xeb, A: 0xff},
	model.TemplateCreative:     color.RGBA{R: 0xb0, G: 0x3a, B: 0x8c, A: 0xff},
	model.TemplateProfessional: color.RGBA{R: 0x2d, G: 0x4a, B: 0x3e, A: 0xff},
}

// PNGRenderer 输出首页缩略图，超出页面的内容被截断。
type PNGRenderer struct{}

func (PNGRenderer) ContentType() string { return "image/png" }
func (PNGRenderer) Ext() string         { return "png" }

func (PNGRenderer) Render(w io.Writer, snap Snapshot) error {
	v := buildView(snap.Payload)
	accent, ok := accentColors[snap.Template]
	if !ok {
		accent = accentColors[model.TemplateClassic]
	}

	dc := gg.NewContext(pngWidth, pngHeight)
	dc.SetColor(color.White)
	dc.Clear()

	// 页眉色带。
	dc.SetColor(accent)
	dc.DrawRectangle(0, 0, pngWidth, 96)
	dc.Fill()

	if len(snap.Photo) > 0 {
		if img, _, err := image.Decode(bytes.NewReader(snap.Photo)); err == nil {
			const side = 72
			thumb := image.NewRGBA(image.Rect(0, 0, side, side))
			draw.CatmullRom.Scale(thumb, thumb.Bounds(), img, img.Bounds(), draw.Src, nil)
			x := pngWidth - pngMargin - side
			dc.DrawCircle(float64(x+side/2), 48, side/2)
			dc.Clip()
			dc.DrawImage(thumb, x, 48-side/2)
			dc.ResetClip()
		}
	}

	dc.SetColor(color.White)
	dc.Push()
	dc.Scale(2, 2)
	dc.DrawString(v.Name, pngMargin/2, 24)
	dc.Pop()
	if v.Title != "" {
		dc.DrawString(v.Title, pngMargin, 76)
	}

	y := 96.0 + 28
	maxWidth := float64(pngWidth - 2*pngMargin)
	line := func(s string, c color.Color) {
		for _, l := range dc.WordWrap(s, maxWidth) {
			if y > pngHeight-pngMargin {
				return
			}
			dc.SetColor(c)
			dc.DrawString(l, pngMargin, y)
			y += 16
		}
	}
	text := color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	muted := color.RGBA{R: 0x77, G: 0x77, B: 0x77, A: 0xff}

	if len(v.Contact) > 0 {
		line(joinNonEmpty(" | ", v.Contact...), muted)
	}
	if v.Description != "" {
		y += 8
		line(v.Description, text)
	}
	section := func(title string) {
		y += 12
		line(title, accent)
		dc.SetColor(accent)
		dc.DrawLine(pngMargin, y-12, pngWidth-pngMargin, y-12)
		dc.Stroke()
		y += 4
	}
	for _, group := range []struct {
		title string
		items []item
	}{{headingExp, v.Experience}, {headingEducation, v.Education}} {
		section(group.title)
		for _, it := range group.items {
			line(it.Heading, text)
			line(joinNonEmpty(" · ", it.Period, it.Location), muted)
		}
	}
	section(headingSkills)
	line(joinNonEmpty(", ", v.Skills...), text)
	section(headingLanguages)
	for _, l := range v.Languages {
		line("- "+l, text)
	}

	return dc.EncodePNG(w)
}
