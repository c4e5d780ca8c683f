package parser

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	mdp "github.com/gomarkdown/markdown/parser"
)

// MarkdownToHTML takes md as markdown and returns html without the
// trailing newline the renderer adds.
func MarkdownToHTML(md string) (outputHTML string) {
	p := mdp.NewWithExtensions(mdp.CommonExtensions | mdp.AutoHeadingIDs | mdp.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	outputHTML = strings.TrimRight(string(markdown.Render(doc, renderer)), "\n")
	return
}

func (p *forParsing) MarkdownToHTML(md string) string {
	return MarkdownToHTML(md)
}
