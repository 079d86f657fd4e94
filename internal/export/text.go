package export

import (
	"bufio"
	"io"
	"strings"
)

// TextRenderer 输出纯文本简历。
type TextRenderer struct{}

func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }
func (TextRenderer) Ext() string         { return "txt" }

func (TextRenderer) Render(w io.Writer, snap Snapshot) error {
	v := buildView(snap.Payload)
	bw := bufio.NewWriter(w)

	writeLine := func(s string) { _, _ = bw.WriteString(s + "\n") }

	writeLine(v.Name)
	if v.Title != "" {
		writeLine(v.Title)
	}
	if len(v.Contact) > 0 {
		writeLine(strings.Join(v.Contact, " | "))
	}
	if v.Description != "" {
		writeLine("")
		writeLine(v.Description)
	}

	writeItems := func(heading string, items []item) {
		writeLine("")
		writeLine(heading + ":")
		for _, it := range items {
			line := "- " + it.Heading
			if it.Period != "" {
				line += " (" + it.Period + ")"
			}
			writeLine(line)
			if it.Location != "" {
				writeLine("  " + it.Location)
			}
			if it.Description != "" {
				writeLine("  " + it.Description)
			}
		}
	}
	writeItems(headingExp, v.Experience)
	writeItems(headingEducation, v.Education)

	writeLine("")
	writeLine(headingSkills + ":")
	if len(v.Skills) > 0 {
		writeLine(strings.Join(v.Skills, ", "))
	}

	writeLine("")
	writeLine(headingLanguages + ":")
	for _, l := range v.Languages {
		writeLine("- " + l)
	}
	return bw.Flush()
}
