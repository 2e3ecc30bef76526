package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/phrasebox/core/internal/modules/study/summary"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Content formats for rendered digests.
const (
	FormatStandard = "standard"
	FormatMarkdown = "markdown"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

var standardItemTpl = template.Must(template.New("digest-item").Parse(`<div style="margin:0 0 16px;padding:12px 16px;border-left:3px solid #4f46e5;background:#fafafa">
  <p style="margin:0 0 4px;font-size:16px;color:#111">{{.Content}}</p>
  {{if .Furigana}}<p style="margin:0 0 4px;font-size:13px;color:#666">{{.Furigana}}</p>{{end}}
  {{if .Breakdown}}<p style="margin:0;font-size:13px;color:#444">{{.Breakdown}}</p>{{end}}
</div>`))

// RenderHTML renders summary responses as a digest email body. The standard
// format escapes everything; markdown trusts response content as markdown
// source and renders it.
func RenderHTML(views []summary.ResponseView, format string) (template.HTML, error) {
	var buf bytes.Buffer

	for _, v := range views {
		switch format {
		case FormatMarkdown:
			src := v.Content
			if v.Breakdown != "" {
				src += "\n\n" + v.Breakdown
			}
			buf.WriteString(`<div style="margin:0 0 16px;padding:12px 16px;border-left:3px solid #4f46e5;background:#fafafa">`)
			if err := markdownRenderer.Convert([]byte(src), &buf); err != nil {
				return "", fmt.Errorf("render markdown: %w", err)
			}
			buf.WriteString("</div>")
		default:
			if err := standardItemTpl.Execute(&buf, v); err != nil {
				return "", err
			}
		}
	}

	return template.HTML(buf.String()), nil
}

// RenderText renders the plain-text alternative body.
func RenderText(views []summary.ResponseView) string {
	var b strings.Builder
	for i, v := range views {
		fmt.Fprintf(&b, "%d. %s\n", i+1, v.Content)
		if v.Furigana != "" {
			fmt.Fprintf(&b, "   %s\n", v.Furigana)
		}
		if v.Breakdown != "" {
			fmt.Fprintf(&b, "   %s\n", v.Breakdown)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
