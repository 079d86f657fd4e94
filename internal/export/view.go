package export

import (
	"fmt"
	"strings"

	"cv-platform/internal/cvdoc"
)

// 展示用文案。
const (
	present          = "Présent"
	headingExp       = "Expériences"
	headingEducation = "Formations"
	headingSkills    = "Compétences"
	headingLanguages = "Langues"
)

// item 是一条经历在各渲染器中的统一表示。
type item struct {
	Heading     string
	Period      string
	Location    string
	Description string
}

// view 按固定顺序整理简历内容：姓名、头衔、联系方式、简介、经历、教育、技能、语言。
type view struct {
	Name        string
	Title       string
	Contact     []string
	Description string
	Experience  []item
	Education   []item
	Skills      []string
	Languages   []string
}

func buildView(p cvdoc.Payload) view {
	v := view{
		Name:        p.FullName(),
		Title:       strings.TrimSpace(p.Get(cvdoc.FieldTitle)),
		Description: strings.TrimSpace(p.Get(cvdoc.FieldDescription)),
	}
	for _, field := range []string{cvdoc.FieldEmail, cvdoc.FieldPhone, cvdoc.FieldAddress, cvdoc.FieldLinkedIn, cvdoc.FieldWebsite} {
		if s := strings.TrimSpace(p.Get(field)); s != "" {
			v.Contact = append(v.Contact, s)
		}
	}
	for _, e := range p.Experience {
		v.Experience = append(v.Experience, item{
			Heading:     joinNonEmpty(" - ", e.Position, e.Company),
			Period:      experiencePeriod(e),
			Location:    e.Location,
			Description: strings.TrimSpace(e.Description),
		})
	}
	for _, e := range p.Education {
		v.Education = append(v.Education, item{
			Heading:     joinNonEmpty(" - ", e.Degree, e.School),
			Period:      joinNonEmpty(" - ", e.StartYear, e.EndYear),
			Location:    e.Location,
			Description: strings.TrimSpace(e.Description),
		})
	}
	for _, s := range p.Skills {
		v.Skills = append(v.Skills, skillLabel(s))
	}
	for _, l := range p.Languages {
		v.Languages = append(v.Languages, languageLabel(l))
	}
	return v
}

func experiencePeriod(e cvdoc.ExperienceEntry) string {
	end := e.EndDate
	if e.Current || strings.TrimSpace(end) == "" {
		end = present
	}
	return e.StartDate + " - " + end
}

func skillLabel(s cvdoc.SkillItem) string {
	if s.Years > 0 {
		return fmt.Sprintf("%s (%d ans)", s.Name, s.Years)
	}
	return s.Name
}

func languageLabel(l cvdoc.LanguageEntry) string {
	if l.Level == "" {
		return l.Name
	}
	return fmt.Sprintf("%s (%s)", l.Name, l.Level)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// 预览截断规则。
const (
	previewEntries     = 5
	previewSkills      = 20
	previewDescription = 500
)

// Preview 生成编辑时的实时文本预览，各列表只显示前几项，简介截断到 500 个字符。
func Preview(p cvdoc.Payload) string {
	var lines []string
	lines = append(lines, strings.TrimSpace(p.Get(cvdoc.FieldFirstName)+" "+p.Get(cvdoc.FieldLastName)))
	if t := p.Get(cvdoc.FieldTitle); t != "" {
		lines = append(lines, t)
	}
	if e := p.Get(cvdoc.FieldEmail); e != "" {
		lines = append(lines, e)
	}
	if d := strings.TrimSpace(p.Get(cvdoc.FieldDescription)); d != "" {
		lines = append(lines, "", truncateRunes(d, previewDescription))
	}

	lines = append(lines, "", headingExp+":")
	for _, e := range head(p.Experience, previewEntries) {
		end := e.EndDate
		if end == "" {
			end = present
		}
		lines = append(lines, fmt.Sprintf("- %s at %s (%s - %s)", e.Position, e.Company, e.StartDate, end))
	}

	lines = append(lines, "", headingEducation+":")
	for _, e := range head(p.Education, previewEntries) {
		lines = append(lines, fmt.Sprintf("- %s - %s (%s)", e.Degree, e.School, e.StartYear))
	}

	lines = append(lines, "", headingSkills+":")
	lines = append(lines, strings.Join(head(p.SkillNames(), previewSkills), ", "))

	lines = append(lines, "", headingLanguages+":")
	for _, l := range head(p.Languages, previewEntries) {
		lines = append(lines, fmt.Sprintf("- %s (%s)", l.Name, l.Level))
	}
	return strings.Join(lines, "\n")
}

func head[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
