package wikilink

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindLink is the goldmark node kind of a [[reference]].
var KindLink = ast.NewNodeKind("WikiLink")

// Link is a [[reference]] inside a Markdown document.
type Link struct {
	ast.BaseInline
	Ref string
}

// Kind implements ast.Node.
func (n *Link) Kind() ast.NodeKind { return KindLink }

// Dump implements ast.Node.
func (n *Link) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Ref": n.Ref}, nil)
}

type linkParser struct{}

func (linkParser) Trigger() []byte { return []byte{'['} }

func (linkParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, []byte("[[")) {
		return nil
	}
	end := bytes.IndexByte(line[2:], ']')
	if end <= 0 {
		return nil
	}
	end += 2
	if end+1 >= len(line) || line[end+1] != ']' {
		return nil
	}
	ref := line[2:end]
	if bytes.ContainsAny(ref, "\r\n") {
		return nil
	}
	block.Advance(end + 2)
	return &Link{Ref: string(ref)}
}

type linkRenderer struct {
	resolver *Resolver
}

func (r linkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindLink, r.render)
}

func (r linkRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	ref := node.(*Link).Ref
	id, _ := r.resolver.Resolve(ref)
	_, _ = w.WriteString(markup(ref, id))
	return ast.WalkSkipChildren, nil
}

// Extension renders [[reference]] markers as note anchors inside goldmark
// output, so raw HTML can stay disabled in the Markdown renderer.
type Extension struct {
	Resolver *Resolver
}

// Extend implements goldmark.Extender.
func (e Extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(linkParser{}, 199),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(linkRenderer{resolver: e.Resolver}, 199),
	))
}
