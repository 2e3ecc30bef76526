package digest

import (
	"strings"
	"testing"

	"github.com/phrasebox/core/internal/modules/study/summary"
)

func TestRenderHTMLStandardEscapes(t *testing.T) {
	views := []summary.ResponseView{
		{Content: "<script>alert(1)</script>", Furigana: "ふりがな", Breakdown: "a & b"},
	}

	html, err := RenderHTML(views, FormatStandard)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := string(html)
	if strings.Contains(out, "<script>") {
		t.Error("standard format did not escape HTML in content")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Error("escaped content missing from output")
	}
	if !strings.Contains(out, "ふりがな") {
		t.Error("furigana missing from output")
	}
	if !strings.Contains(out, "a &amp; b") {
		t.Error("breakdown not escaped")
	}
}

func TestRenderHTMLMarkdown(t *testing.T) {
	views := []summary.ResponseView{
		{Content: "**bold** phrase", Breakdown: "- first\n- second"},
	}

	html, err := RenderHTML(views, FormatMarkdown)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("markdown emphasis not rendered: %s", out)
	}
	if !strings.Contains(out, "<li>first</li>") {
		t.Errorf("markdown list not rendered: %s", out)
	}
}

func TestRenderHTMLOmitsEmptyOptionalLines(t *testing.T) {
	views := []summary.ResponseView{{Content: "just content"}}

	html, err := RenderHTML(views, FormatStandard)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := string(html)
	if strings.Count(out, "<p") != 1 {
		t.Errorf("expected a single paragraph, got: %s", out)
	}
}

func TestRenderText(t *testing.T) {
	views := []summary.ResponseView{
		{Content: "first phrase", Furigana: "reading"},
		{Content: "second phrase", Breakdown: "notes"},
	}

	out := RenderText(views)
	if !strings.Contains(out, "1. first phrase") || !strings.Contains(out, "2. second phrase") {
		t.Errorf("numbering missing: %q", out)
	}
	if !strings.Contains(out, "reading") || !strings.Contains(out, "notes") {
		t.Errorf("aid lines missing: %q", out)
	}
	if strings.HasSuffix(out, "\n") {
		t.Error("trailing newline not trimmed")
	}
}
