package render

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindMath is the node kind of inline and display math spans.
var KindMath = ast.NewNodeKind("Math")

// MathNode holds the raw TeX between $ or $$ delimiters.
type MathNode struct {
	ast.BaseInline
	Display bool
	Literal []byte
}

// Kind implements ast.Node.
func (n *MathNode) Kind() ast.NodeKind { return KindMath }

// Dump implements ast.Node.
func (n *MathNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Literal": string(n.Literal),
	}, nil)
}

type mathParser struct{}

func (p *mathParser) Trigger() []byte { return []byte{'$'} }

// Parse scans ahead across the paragraph's soft line breaks for the closing
// delimiter, so "$$\n...\n$$" is one display span.
func (p *mathParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	delim := 1
	if len(line) > 1 && line[1] == '$' {
		delim = 2
	}

	l, pos := block.Position()
	block.Advance(delim)
	var literal []byte
	for {
		line, _ := block.PeekLine()
		if line == nil {
			block.SetPosition(l, pos)
			return nil
		}
		if end := closingDollar(line, delim); end >= 0 {
			literal = append(literal, line[:end]...)
			block.Advance(end + delim)
			break
		}
		literal = append(literal, line...)
		block.AdvanceLine()
	}

	if delim == 2 {
		literal = util.TrimRightSpace(util.TrimLeftSpace(literal))
	}
	if len(literal) == 0 ||
		(delim == 1 && (util.IsSpace(literal[0]) || util.IsSpace(literal[len(literal)-1]))) {
		block.SetPosition(l, pos)
		return nil
	}
	return &MathNode{
		Display: delim == 2,
		Literal: literal,
	}
}

// closingDollar returns the index of the closing delimiter in line, or -1.
// A single $ followed by a digit does not close, so "$5 and $10" stays text.
func closingDollar(line []byte, delim int) int {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '$':
			if delim == 2 {
				if i+1 < len(line) && line[i+1] == '$' {
					return i
				}
				continue
			}
			if i+1 < len(line) && util.IsNumeric(line[i+1]) {
				continue
			}
			return i
		}
	}
	return -1
}

type mathRenderer struct{}

func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMath, r.renderMath)
}

func (r *mathRenderer) renderMath(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MathNode)
	if n.Display {
		_, _ = w.WriteString(`<span class="math math-display">`)
	} else {
		_, _ = w.WriteString(`<span class="math math-inline">`)
	}
	_, _ = w.Write(util.EscapeHTML(n.Literal))
	_, _ = w.WriteString("</span>")
	return ast.WalkSkipChildren, nil
}

type mathExtension struct{}

// Math is a goldmark extension for $inline$ and $$display$$ math. The TeX is
// kept verbatim (HTML-escaped) for the page to typeset.
var Math goldmark.Extender = &mathExtension{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&mathParser{}, 150),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&mathRenderer{}, 500),
	))
}
