package feedback

import (
	"bytes"
	"html/template"
)

var embedTemplate = template.Must(template.New("embed").Parse(
	`<div id="widget-container" style="width: 100%"><iframe src="{{.URL}}" sandbox="{{.Sandbox}}" width="100%" title="Feedback"></iframe></div>`))

// RenderEmbed returns the sandboxed iframe markup for a ready snapshot and ""
// for anything else.
func RenderEmbed(s Snapshot) (template.HTML, error) {
	if !s.Renderable() {
		return "", nil
	}
	var buf bytes.Buffer
	err := embedTemplate.Execute(&buf, struct {
		URL     string
		Sandbox string
	}{URL: s.EmbedURL, Sandbox: Sandbox})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
