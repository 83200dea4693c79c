// Package markdown parses study-guide chapter files into a structural summary
// (headings, code fences, links, counts) and renders chapter bodies to HTML.
// Parsing is a single goldmark AST walk; no chapter content is interpreted
// beyond its Markdown structure.
package markdown

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"studyguide/internal/model"
)

// Heading is one ATX heading with its level and source line.
type Heading struct {
	Level int
	Text  string
	Line  int
}

// Fence is one fenced code block. Language is empty when the opening fence
// carries no info string.
type Fence struct {
	Language string
	Line     int
}

// Link is one outgoing link with its classified kind (model.LinkKind*).
type Link struct {
	Target string
	Kind   string
	Line   int
}

// Document is the structural summary of a parsed chapter body.
type Document struct {
	Filename      string
	Title         string
	Headings      []Heading
	Fences        []Fence
	Links         []Link
	WordCount     int
	QuestionCount int
}

// interviewSection is the H2 under which H3 headings count as interview questions.
const interviewSection = "Interview Questions"

var chapterParser = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Parse builds the structural summary of one chapter body.
// name is the chapter filename; it is recorded on the Document but not
// validated here (see the lint package for the naming convention).
func Parse(name string, src []byte) (*Document, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("parse %s: empty document", name)
	}

	root := chapterParser.Parser().Parse(text.NewReader(src))
	lines := lineOffsets(src)

	doc := &Document{Filename: name}

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			h := Heading{
				Level: v.Level,
				Text:  nodeText(v, src),
				Line:  lineAt(lines, headingOffset(v)),
			}
			doc.Headings = append(doc.Headings, h)
			if v.Level == 1 && doc.Title == "" {
				doc.Title = h.Text
			}
		case *ast.FencedCodeBlock:
			doc.Fences = append(doc.Fences, Fence{
				Language: string(v.Language(src)),
				Line:     fenceLine(lines, v),
			})
		case *ast.Link:
			doc.Links = append(doc.Links, Link{
				Target: string(v.Destination),
				Kind:   ClassifyLink(string(v.Destination)),
				Line:   lineAt(lines, enclosingOffset(v)),
			})
		case *ast.AutoLink:
			t := string(v.URL(src))
			doc.Links = append(doc.Links, Link{
				Target: t,
				Kind:   ClassifyLink(t),
				Line:   lineAt(lines, enclosingOffset(v)),
			})
		case *ast.Text:
			if !insideCode(v) {
				doc.WordCount += len(strings.Fields(string(v.Segment.Value(src))))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	doc.QuestionCount = countQuestions(doc.Headings)
	return doc, nil
}

// countQuestions counts level-3 headings between the interview-questions H2
// and the next H2.
func countQuestions(hs []Heading) int {
	n := 0
	inSection := false
	for _, h := range hs {
		switch {
		case h.Level == 2:
			inSection = strings.Contains(h.Text, interviewSection)
		case h.Level == 3 && inSection:
			n++
		}
	}
	return n
}

// ClassifyLink maps a raw link destination to a model.LinkKind* constant.
// Anything with a URL scheme counts as external; bare fragments are anchors;
// everything else is treated as an internal relative reference.
func ClassifyLink(dest string) string {
	if strings.HasPrefix(dest, "#") {
		return model.LinkKindAnchor
	}
	if u, err := url.Parse(dest); err == nil && u.Scheme != "" {
		return model.LinkKindExternal
	}
	return model.LinkKindInternal
}

var filenameRe = regexp.MustCompile(`^(\d{2})-([a-z0-9]+(?:-[a-z0-9]+)*)\.md$`)

// SplitFilename parses the canonical chapter filename form "NN-slug.md".
// It returns the chapter number, the slug, and whether the name conforms.
func SplitFilename(name string) (int, string, bool) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, "", false
	}
	return n, m[2], true
}

// ChapterFilename builds the canonical filename for a number/slug pair.
func ChapterFilename(number int, slug string) string {
	return fmt.Sprintf("%02d-%s.md", number, slug)
}

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a title and reduces it to hyphen-separated word runs,
// the form used in chapter filenames and URLs.
func Slugify(title string) string {
	s := nonSlugRe.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

func insideCode(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.(type) {
		case *ast.CodeSpan, *ast.CodeBlock, *ast.FencedCodeBlock:
			return true
		}
	}
	return false
}

// nodeText collects the plain text content of an AST subtree.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// headingOffset returns the source offset of a heading's first content segment.
func headingOffset(h *ast.Heading) int {
	if h.Lines().Len() > 0 {
		return h.Lines().At(0).Start
	}
	return 0
}

// enclosingOffset finds the source offset of the nearest ancestor that owns
// source lines. Inline nodes carry no line information themselves.
func enclosingOffset(n ast.Node) int {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Lines() != nil && p.Lines().Len() > 0 {
			return p.Lines().At(0).Start
		}
	}
	return 0
}

// fenceLine returns the 1-based line of the opening fence. The block's first
// content segment starts one line below the opener; empty blocks fall back to
// the info string when present.
func fenceLine(lines []int, f *ast.FencedCodeBlock) int {
	if f.Lines().Len() > 0 {
		return lineAt(lines, f.Lines().At(0).Start) - 1
	}
	if f.Info != nil {
		return lineAt(lines, f.Info.Segment.Start)
	}
	return 0
}

// lineOffsets returns the byte offset of each line start.
func lineOffsets(src []byte) []int {
	offs := []int{0}
	for i, b := range src {
		if b == '\n' && i+1 < len(src) {
			offs = append(offs, i+1)
		}
	}
	return offs
}

// lineAt converts a byte offset to a 1-based line number.
func lineAt(lines []int, off int) int {
	i := sort.Search(len(lines), func(i int) bool { return lines[i] > off })
	return i
}
