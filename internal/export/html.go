package export

import (
	"html/template"
	"io"

	"cv-platform/internal/model"
)

var htmlPage = template.Must(template.New("cv").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>{{.Page}}</title>
<style>
body{font-family:Helvetica,Arial,sans-serif;margin:2rem auto;max-width:48rem;color:#222}
h1{margin-bottom:0}
.title{color:#555;margin-top:.25rem}
.contact{font-size:.9rem;color:#444}
h2{border-bottom:1px solid #ccc;padding-bottom:.2rem;margin-top:1.6rem}
.period{color:#777;font-size:.9rem}
body.modern h2{color:#1f6feb;border-color:#1f6feb}
body.creative h1{color:#b03a8c}
body.professional{font-family:Georgia,serif}
</style>
</head>
<body class="{{.Template}}">
<header>
<h1>{{.View.Name}}</h1>
{{with .View.Title}}<p class="title">{{.}}</p>{{end}}
{{with .View.Contact}}<p class="contact">{{range $i, $c := .}}{{if $i}} · {{end}}{{$c}}{{end}}</p>{{end}}
</header>
{{with .View.Description}}<section><p>{{.}}</p></section>{{end}}
<section>
<h2>Expériences</h2>
{{range .View.Experience}}<article><h3>{{.Heading}}</h3><p class="period">{{.Period}}{{with .Location}} · {{.}}{{end}}</p>{{with .Description}}<p>{{.}}</p>{{end}}</article>
{{end}}</section>
<section>
<h2>Formations</h2>
{{range .View.Education}}<article><h3>{{.Heading}}</h3><p class="period">{{.Period}}{{with .Location}} · {{.}}{{end}}</p>{{with .Description}}<p>{{.}}</p>{{end}}</article>
{{end}}</section>
<section>
<h2>Compétences</h2>
<ul>{{range .View.Skills}}<li>{{.}}</li>{{end}}</ul>
</section>
<section>
<h2>Langues</h2>
<ul>{{range .View.Languages}}<li>{{.}}</li>{{end}}</ul>
</section>
</body>
</html>
`))

// HTMLRenderer 输出单页 HTML，模板标识决定样式类名。
type HTMLRenderer struct{}

func (HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }
func (HTMLRenderer) Ext() string         { return "html" }

func (HTMLRenderer) Render(w io.Writer, snap Snapshot) error {
	tpl := snap.Template
	if _, ok := model.Templates[tpl]; !ok {
		tpl = model.TemplateClassic
	}
	page := snap.Title
	if page == "" {
		page = "CV"
	}
	return htmlPage.Execute(w, struct {
		Page     string
		Template string
		View     view
	}{Page: page, Template: tpl, View: buildView(snap.Payload)})
}
