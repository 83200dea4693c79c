package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var chapterRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithXHTML()),
)

// Render converts a chapter body to HTML. Heading IDs are generated so that
// in-document anchors and cross-chapter fragment links resolve in the output;
// fenced code blocks keep their language as a class for client-side highlighting.
func Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := chapterRenderer.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
