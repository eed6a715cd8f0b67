package render

import (
	"regexp"
	"strings"
	"testing"

	"github.com/ziadkadry99/aiqa/internal/theme"
)

const sampleMarkdown = "# 你好呀!\n\n" +
	"```javascript\nvar s = \"JavaScript syntax highlighting\";\nalert(s);\n```\n\n" +
	"```\nNo language indicated.\nBut let's throw in a <b>tag</b>.\n```\n\n" +
	"| a | b |\n|---|---|\n| 1 | 2 |\n\n" +
	"~~gone~~ and a footnote[^1].\n\n" +
	"已知过点$A(-1, 0)$两点的动抛物线的准线始终与圆$x^2 + y^2 = 9$相切。\n\n" +
	"[^1]: the note.\n"

func TestAssembleDeterministic(t *testing.T) {
	a := NewAssembler()
	for _, th := range []theme.Theme{theme.Light, theme.Dark} {
		first := a.Assemble(sampleMarkdown, th)
		for i := 0; i < 3; i++ {
			if got := a.Assemble(sampleMarkdown, th); got != first {
				t.Fatalf("assemble(%s) not deterministic on call %d", th, i)
			}
		}
	}
}

func TestAssembleSegmentOrder(t *testing.T) {
	a := NewAssembler()
	md := "**hello**"
	body := "<p><strong>hello</strong></p>\n"
	want := htmlStart + markdownLightCSS + htmlStyles + highlightLightCSS + htmlBodyOpen +
		body + htmlArticleClose + highlightJS + htmlEnd
	if got := a.Assemble(md, theme.Light); got != want {
		t.Errorf("light document does not match the fixed segment order")
	}

	want = htmlStart + markdownDarkCSS + htmlStyles + highlightDarkCSS + htmlBodyOpen +
		body + htmlArticleClose + highlightJS + htmlEnd
	if got := a.Assemble(md, theme.Dark); got != want {
		t.Errorf("dark document does not match the fixed segment order")
	}
}

func TestAssembleSelfContained(t *testing.T) {
	a := NewAssembler()
	external := regexp.MustCompile(`(?i)(<link[^>]+href=|<script[^>]+src=|@import|url\()\s*["']?https?://`)
	for _, th := range []theme.Theme{theme.Light, theme.Dark} {
		out := a.Assemble(sampleMarkdown, th)
		if strings.Contains(out, "http://") || strings.Contains(out, "https://") {
			t.Errorf("%s document references a network URL", th)
		}
		if external.MatchString(out) {
			t.Errorf("%s document loads an external resource", th)
		}
	}
}

func TestAssembleThemeCoverage(t *testing.T) {
	a := NewAssembler()

	light := a.Assemble(sampleMarkdown, theme.Light)
	if !strings.Contains(light, markdownLightCSS) || !strings.Contains(light, highlightLightCSS) {
		t.Error("light document is missing light stylesheets")
	}
	if strings.Contains(light, markdownDarkCSS) || strings.Contains(light, highlightDarkCSS) {
		t.Error("light document contains dark stylesheets")
	}

	dark := a.Assemble(sampleMarkdown, theme.Dark)
	if !strings.Contains(dark, markdownDarkCSS) || !strings.Contains(dark, highlightDarkCSS) {
		t.Error("dark document is missing dark stylesheets")
	}
	if strings.Contains(dark, markdownLightCSS) || strings.Contains(dark, highlightLightCSS) {
		t.Error("dark document contains light stylesheets")
	}
}

func TestAssembleSentinelAndArticle(t *testing.T) {
	out := NewAssembler().Assemble(sampleMarkdown, theme.Light)
	if n := strings.Count(out, `<article class="markdown-body">`); n != 1 {
		t.Errorf("expected exactly one article, got %d", n)
	}
	if !strings.Contains(out, `document.addEventListener("DOMContentLoaded"`) {
		t.Error("missing DOMContentLoaded handler")
	}
	if !strings.Contains(out, `classList.add('finish')`) || !strings.Contains(out, "document.body.appendChild(finishedElement)") {
		t.Error("boot script does not append the finish sentinel")
	}
	if !strings.Contains(out, "max-width: 720px") || !strings.Contains(out, "maxWidth = '500px'") {
		t.Error("missing width constraints")
	}
	if !strings.Contains(out, "hljs.highlightAll();") {
		t.Error("missing highlight.js invocation")
	}
}

func TestAssembleMarkdownFeatures(t *testing.T) {
	out := NewAssembler().Assemble(sampleMarkdown, theme.Light)

	checks := []struct {
		name string
		want string
	}{
		{"heading", "<h1>你好呀!</h1>"},
		{"fenced code keeps language", `<pre><code class="language-javascript">`},
		{"plain fence escaped", "&lt;b&gt;tag&lt;/b&gt;"},
		{"table", "<table>"},
		{"strikethrough", "<del>gone</del>"},
		{"footnote", `class="footnotes"`},
		{"inline math", `<span class="math math-inline">A(-1, 0)</span>`},
		{"math with caret", `<span class="math math-inline">x^2 + y^2 = 9</span>`},
	}
	for _, c := range checks {
		if !strings.Contains(out, c.want) {
			t.Errorf("%s: expected %q in output", c.name, c.want)
		}
	}
}

func TestMathParsing(t *testing.T) {
	a := NewAssembler()
	tests := []struct {
		md   string
		want string
	}{
		{"$$E=mc^2$$", `<span class="math math-display">E=mc^2</span>`},
		{"$a<b$", `<span class="math math-inline">a&lt;b</span>`},
		{"$x_1 + x_2$", `<span class="math math-inline">x_1 + x_2</span>`},
		{"costs $5 and $10", "costs $5 and $10"},
		{"a lone $ sign", "a lone $ sign"},
		{`escaped \$x$`, "escaped $x$"},
		{"$$\na*b*c\n$$", `<span class="math math-display">a*b*c</span>`},
		{"$$\n\\frac{a_1}{b_2} = x_*\n$$", `<span class="math math-display">\frac{a_1}{b_2} = x_*</span>`},
		{
			"$$\n\\begin{aligned}\na &= b \\\\\nc &= d\n\\end{aligned}\n$$",
			`<span class="math math-display">\begin{aligned}` + "\na &amp;= b \\\\\nc &amp;= d\n" + `\end{aligned}</span>`,
		},
		{"before $x_1 +\nx_2$ after", "x_2</span> after"},
	}
	for _, tt := range tests {
		out := a.Assemble(tt.md, theme.Light)
		if !strings.Contains(out, tt.want) {
			t.Errorf("Assemble(%q): expected %q in body", tt.md, tt.want)
		}
	}
}

func TestMultiLineDisplayMathKeepsTeX(t *testing.T) {
	out := NewAssembler().Assemble("Solve:\n\n$$\na*b*c + x_1 \\cdot y_1\n$$\n\ndone", theme.Light)
	if strings.Contains(out, "<em>") {
		t.Error("TeX inside display math was parsed as emphasis")
	}
	if !strings.Contains(out, `<span class="math math-display">a*b*c + x_1 \cdot y_1</span>`) {
		t.Error("multi-line display math not rendered as one span")
	}
	if strings.Contains(out, "$$") {
		t.Error("display delimiters leaked into the output")
	}
}

func TestUnclosedMathStaysText(t *testing.T) {
	out := NewAssembler().Assemble("$$\nnever closed\n\nnext paragraph $", theme.Light)
	if strings.Contains(out, `<span class="math`) {
		t.Error("unclosed delimiter produced a math span")
	}
	if !strings.Contains(out, "never closed") {
		t.Error("text after an unclosed delimiter was lost")
	}
}

func TestAssembleServerHighlight(t *testing.T) {
	a := NewAssembler(WithServerHighlight(true))
	out := a.Assemble("```go\nfunc main() {}\n```\n", theme.Light)
	if strings.Contains(out, `<code class="language-go">`) {
		t.Error("server highlighting should replace the client-side code block")
	}
	if !strings.Contains(out, "<span") || !strings.Contains(out, "func") {
		t.Error("expected highlighted spans in output")
	}
}

func TestAssembleNoCodeStillHasScript(t *testing.T) {
	out := NewAssembler().Assemble("just text", theme.Dark)
	if !strings.Contains(out, "<p>just text</p>") {
		t.Error("paragraph not rendered")
	}
	if !strings.HasSuffix(out, "</body></html>") {
		t.Error("document not closed")
	}
}
