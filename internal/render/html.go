package render

import (
	"bytes"
	_ "embed"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/ziadkadry99/aiqa/internal/theme"
)

var (
	//go:embed assets/github_md_light.css
	markdownLightCSS string
	//go:embed assets/github_md_dark.css
	markdownDarkCSS string
	//go:embed assets/highlight_github_light.css
	highlightLightCSS string
	//go:embed assets/highlight_github_dark.css
	highlightDarkCSS string
	//go:embed assets/highlight.js
	highlightJS string
)

// Page scaffolding. A document is always
// htmlStart, markdown CSS, htmlStyles, highlight CSS, htmlBodyOpen,
// rendered markdown, htmlArticleClose, highlight.js, htmlEnd.
const (
	htmlStart = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>`

	htmlStyles = `
.markdown-body {
    box-sizing: border-box;
    width: 100%;
    max-width: 720px;
    margin: 0;
    padding: 12px 12px 20px 12px;
    height: auto;

    font-family: "MiSans", -apple-system, BlinkMacSystemFont, "Segoe UI", "Noto Sans", Helvetica, Arial, sans-serif, "Apple Color Emoji", "Segoe UI Emoji";
}

body {
    font-family: Arial, sans-serif;
    margin: 0;
    padding: 0;
    overflow: hidden;
}
</style>
<style>
`

	htmlBodyOpen = `</style>
</head>
<body>
<article class="markdown-body">`

	htmlArticleClose = "</article><script>"

	htmlEnd = `</script><script>hljs.highlightAll();</script>
<script>
const elementsToCheck = ['pre', 'code'];

document.addEventListener("DOMContentLoaded", function() {
    const markdownBody = document.querySelector('.markdown-body');
    let foundElement = false;

    elementsToCheck.forEach(tag => {
        if (markdownBody.querySelector(tag)) {
            foundElement = true;
        }
    });

    if (foundElement) {
        markdownBody.style.maxWidth = '720px';
    } else {
        markdownBody.style.maxWidth = '500px';
    }

    const finishedElement = document.createElement('div');
    finishedElement.classList.add('finish');
    document.body.appendChild(finishedElement);
});
</script>
</body></html>`
)

// Assembler turns Markdown into a self-contained HTML page.
type Assembler struct {
	light goldmark.Markdown
	dark  goldmark.Markdown
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*assemblerOptions)

type assemblerOptions struct {
	serverHighlight bool
}

// WithServerHighlight highlights fenced code with chroma while converting,
// instead of leaving it to highlight.js in the page.
func WithServerHighlight(enabled bool) AssemblerOption {
	return func(o *assemblerOptions) { o.serverHighlight = enabled }
}

// NewAssembler creates an Assembler. Markdown is parsed with GFM (tables,
// strikethrough, autolinks, task lists), footnotes and $-delimited math.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	var o assemblerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Assembler{
		light: newMarkdown(o, "github"),
		dark:  newMarkdown(o, "monokai"),
	}
}

func newMarkdown(o assemblerOptions, style string) goldmark.Markdown {
	exts := []goldmark.Extender{
		extension.GFM,
		extension.Footnote,
		Math,
	}
	if o.serverHighlight {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(style),
		))
	}
	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

// Assemble renders markdown into a complete page styled for t. The output
// depends only on its arguments.
func (a *Assembler) Assemble(markdown string, t theme.Theme) string {
	md, mdCSS, hlCSS := a.light, markdownLightCSS, highlightLightCSS
	if t == theme.Dark {
		md, mdCSS, hlCSS = a.dark, markdownDarkCSS, highlightDarkCSS
	}

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		// Conversion only fails on writer errors, which bytes.Buffer never returns.
		body.Reset()
		body.WriteString("<pre>")
		body.Write(util.EscapeHTML([]byte(markdown)))
		body.WriteString("</pre>")
	}

	var b strings.Builder
	b.Grow(len(htmlStart) + len(mdCSS) + len(htmlStyles) + len(hlCSS) +
		len(htmlBodyOpen) + body.Len() + len(htmlArticleClose) + len(highlightJS) + len(htmlEnd))
	b.WriteString(htmlStart)
	b.WriteString(mdCSS)
	b.WriteString(htmlStyles)
	b.WriteString(hlCSS)
	b.WriteString(htmlBodyOpen)
	b.Write(body.Bytes())
	b.WriteString(htmlArticleClose)
	b.WriteString(highlightJS)
	b.WriteString(htmlEnd)
	return b.String()
}
