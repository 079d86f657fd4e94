package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"cv-platform/internal/apperr"
	"cv-platform/internal/cvdoc"
	"cv-platform/internal/document"
	"cv-platform/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload(t *testing.T) cvdoc.Payload {
	t.Helper()

	p := cvdoc.Seeded("Ada", "Lovelace", "ada@example.com")
	p.Set(cvdoc.FieldTitle, "Analyste")
	p.Set(cvdoc.FieldPhone, "+33 1 23 45 67 89")
	p.Set(cvdoc.FieldDescription, "Première programmeuse.")
	_, err := p.AddExperience(cvdoc.ExperienceEntry{Position: "Analyst", Company: "Babbage", StartDate: "1840", EndDate: "1842"})
	require.NoError(t, err)
	_, err = p.AddExperience(cvdoc.ExperienceEntry{Position: "Engineer", Company: "Analytical", StartDate: "1843", Current: true})
	require.NoError(t, err)
	_, err = p.AddEducation(cvdoc.EducationEntry{Degree: "Mathématiques", School: "Home", StartYear: "1830"})
	require.NoError(t, err)
	p.SetSkills([]cvdoc.SkillItem{{Name: "Algorithms", Years: 3}, {Name: "<script>"}})
	_, err = p.AddLanguage(cvdoc.LanguageEntry{Name: "Français", Level: cvdoc.LanguageFluent})
	require.NoError(t, err)
	return p
}

func render(t *testing.T, r Renderer, snap Snapshot) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, snap))
	return buf.Bytes()
}

func TestTextRendererOrdering(t *testing.T) {
	t.Parallel()

	out := string(render(t, TextRenderer{}, Snapshot{Payload: samplePayload(t)}))

	order := []string{
		"Ada Lovelace",
		"Analyste",
		"ada@example.com | +33 1 23 45 67 89",
		"Première programmeuse.",
		"Expériences:",
		"- Engineer - Analytical (1843 - Présent)",
		"- Analyst - Babbage (1840 - 1842)",
		"Formations:",
		"- Mathématiques - Home (1830)",
		"Compétences:",
		"Algorithms (3 ans), <script>",
		"Langues:",
		"- Français (Courant)",
	}
	pos := 0
	for _, want := range order {
		idx := strings.Index(out[pos:], want)
		require.GreaterOrEqual(t, idx, 0, "missing %q after offset %d in:\n%s", want, pos, out)
		pos += idx + len(want)
	}
}

func TestHTMLRendererEscapes(t *testing.T) {
	t.Parallel()

	out := string(render(t, HTMLRenderer{}, Snapshot{Title: "Mon CV", Template: model.TemplateModern, Payload: samplePayload(t)}))
	assert.Contains(t, out, `<body class="modern">`)
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<li><script>")
	assert.Contains(t, out, "1843 - Présent")

	out = string(render(t, HTMLRenderer{}, Snapshot{Template: "unknown", Payload: cvdoc.New()}))
	assert.Contains(t, out, `<body class="classic">`)
}

func TestPDFRenderer(t *testing.T) {
	t.Parallel()

	out := render(t, PDFRenderer{}, Snapshot{Title: "Mon CV", Payload: samplePayload(t)})
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	// Undecodable photo bytes are ignored.
	out = render(t, PDFRenderer{}, Snapshot{Payload: samplePayload(t), Photo: []byte("nope")})
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPNGRenderer(t *testing.T) {
	t.Parallel()

	out := render(t, PNGRenderer{}, Snapshot{Template: model.TemplateCreative, Payload: samplePayload(t)})
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, pngWidth, pngHeight), img.Bounds())
}

func TestPreviewTruncates(t *testing.T) {
	t.Parallel()

	p := cvdoc.Seeded("Ada", "Lovelace", "ada@example.com")
	p.Set(cvdoc.FieldDescription, strings.Repeat("é", 600))
	for i := 0; i < 7; i++ {
		_, err := p.AddLanguage(cvdoc.LanguageEntry{Name: "L"})
		require.NoError(t, err)
	}
	skills := make([]cvdoc.SkillItem, 0, 25)
	for i := 0; i < 25; i++ {
		skills = append(skills, cvdoc.SkillItem{Name: string(rune('a' + i))})
	}
	p.SetSkills(skills)

	out := Preview(p)
	assert.True(t, strings.HasPrefix(out, "Ada Lovelace\nada@example.com\n"))
	assert.Contains(t, out, strings.Repeat("é", 500)+"\n")
	assert.NotContains(t, out, strings.Repeat("é", 501))
	assert.Equal(t, 5, strings.Count(out, "- L (Intermédiaire)"))
	assert.Contains(t, out, "a, b, c")
	assert.NotContains(t, out, ", u")
}

func TestExporterReadsPersistedSnapshot(t *testing.T) {
	t.Parallel()

	saved := samplePayload(t)
	loader := &stubLoader{doc: document.Document{ID: 1, Title: "Mon CV", Template: model.TemplateClassic, Payload: saved, PhotoRef: "user_1_1.jpg"}}
	photos := &stubPhotos{err: errors.New("missing")}
	exp := NewExporter(loader, photos, nil)

	var buf bytes.Buffer
	require.NoError(t, exp.Export(context.Background(), 1, "TEXT", &buf))
	assert.Contains(t, buf.String(), "Ada Lovelace")
	assert.Equal(t, 1, photos.calls)

	err := exp.Export(context.Background(), 1, "docx", &buf)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	loader.err = apperr.NotFound("cv", 2)
	err = exp.Export(context.Background(), 2, "pdf", io.Discard)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Equal(t, []string{"html", "pdf", "png", "text"}, exp.Formats())
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Mon_CV.pdf", FileName(" Mon CV ", PDFRenderer{}))
	assert.Equal(t, "ab.txt", FileName("a/b", TextRenderer{}))
	assert.Equal(t, "cv.png", FileName("", PNGRenderer{}))
}

type stubLoader struct {
	doc document.Document
	err error
}

func (s *stubLoader) Load(ctx context.Context, id uint) (document.Document, error) {
	if s.err != nil {
		return document.Document{}, s.err
	}
	return s.doc, nil
}

type stubPhotos struct {
	calls int
	err   error
}

func (s *stubPhotos) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(bytes.NewReader(nil)), nil
}
