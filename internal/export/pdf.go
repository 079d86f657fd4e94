package export

import (
	"bytes"
	"io"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer 输出 A4 PDF，照片存在时放在右上角。
type PDFRenderer struct{}

func (PDFRenderer) ContentType() string { return "application/pdf" }
func (PDFRenderer) Ext() string         { return "pdf" }

func (PDFRenderer) Render(w io.Writer, snap Snapshot) error {
	v := buildView(snap.Payload)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(snap.Title, true)
	pdf.SetCreator("cv-platform", true)
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()
	// 核心字体为 cp1252 编码，需要转换重音字符。
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if len(snap.Photo) > 0 {
		pdf.RegisterImageOptionsReader("photo", fpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(snap.Photo))
		if pdf.Ok() {
			pdf.ImageOptions("photo", 162, 14, 30, 30, false, fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
		} else {
			// 照片无法解码时忽略照片，继续输出正文。
			pdf.ClearError()
		}
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 9, tr(v.Name), "", 1, "L", false, 0, "")
	if v.Title != "" {
		pdf.SetFont("Helvetica", "", 13)
		pdf.CellFormat(0, 7, tr(v.Title), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, c := range v.Contact {
		pdf.CellFormat(0, 5, tr(c), "", 1, "L", false, 0, "")
	}
	if v.Description != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5, tr(v.Description), "", "L", false)
	}

	heading := func(s string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(s), "B", 1, "L", false, 0, "")
		pdf.Ln(1)
	}
	items := func(list []item) {
		for _, it := range list {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 6, tr(it.Heading), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 5, tr(joinNonEmpty(" · ", it.Period, it.Location)), "", 1, "L", false, 0, "")
			if it.Description != "" {
				pdf.SetFont("Helvetica", "", 10)
				pdf.MultiCell(0, 5, tr(it.Description), "", "L", false)
			}
			pdf.Ln(1)
		}
	}

	heading(headingExp)
	items(v.Experience)
	heading(headingEducation)
	items(v.Education)

	heading(headingSkills)
	pdf.SetFont("Helvetica", "", 10)
	if len(v.Skills) > 0 {
		pdf.MultiCell(0, 5, tr(joinNonEmpty(", ", v.Skills...)), "", "L", false)
	}

	heading(headingLanguages)
	pdf.SetFont("Helvetica", "", 10)
	for _, l := range v.Languages {
		pdf.CellFormat(0, 5, tr("- "+l), "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}
