package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyguide/internal/model"
)

const sampleChapter = `# Arrays

## Overview

Arrays hold ordered collections of values.

## Key Concepts

` + "```js" + `
const xs = [1, 2, 3];
` + "```" + `

See [Operators](./02-operators.md) and [MDN](https://developer.mozilla.org/arrays).

## Interview Questions

### How do you copy an array?

Use the spread operator.

### What does splice return?

The removed elements.

## Summary

Back to [Overview](#overview).
`

func TestParse(t *testing.T) {
	doc, err := Parse("05-arrays.md", []byte(sampleChapter))
	require.NoError(t, err)

	assert.Equal(t, "Arrays", doc.Title)
	assert.Equal(t, "05-arrays.md", doc.Filename)
	assert.Equal(t, 2, doc.QuestionCount)

	// one fence, tagged js, opener on line 9
	require.Len(t, doc.Fences, 1)
	assert.Equal(t, "js", doc.Fences[0].Language)
	assert.Equal(t, 9, doc.Fences[0].Line)

	// headings in order with levels
	var levels []int
	for _, h := range doc.Headings {
		levels = append(levels, h.Level)
	}
	assert.Equal(t, []int{1, 2, 2, 2, 3, 3, 2}, levels)
	assert.Equal(t, "Interview Questions", doc.Headings[3].Text)

	// words in prose counted, fence content not
	assert.Greater(t, doc.WordCount, 10)
	assert.NotContains(t, collectText(doc), "const")
}

func collectText(doc *Document) string {
	var b strings.Builder
	for _, h := range doc.Headings {
		b.WriteString(h.Text)
	}
	return b.String()
}

func TestParseLinks(t *testing.T) {
	doc, err := Parse("05-arrays.md", []byte(sampleChapter))
	require.NoError(t, err)

	byKind := map[string][]string{}
	for _, l := range doc.Links {
		byKind[l.Kind] = append(byKind[l.Kind], l.Target)
	}

	assert.Equal(t, []string{"./02-operators.md"}, byKind[model.LinkKindInternal])
	assert.Equal(t, []string{"https://developer.mozilla.org/arrays"}, byKind[model.LinkKindExternal])
	assert.Equal(t, []string{"#overview"}, byKind[model.LinkKindAnchor])
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("05-arrays.md", nil)
	assert.Error(t, err)
}

func TestClassifyLink(t *testing.T) {
	tests := []struct {
		dest string
		want string
	}{
		{"./02-operators.md", model.LinkKindInternal},
		{"./02-operators.md#precedence", model.LinkKindInternal},
		{"03-control-flow.md", model.LinkKindInternal},
		{"#overview", model.LinkKindAnchor},
		{"https://example.com", model.LinkKindExternal},
		{"http://example.com/page", model.LinkKindExternal},
		{"mailto:someone@example.com", model.LinkKindExternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyLink(tt.dest), tt.dest)
	}
}

func TestSplitFilename(t *testing.T) {
	tests := []struct {
		name     string
		wantNum  int
		wantSlug string
		wantOK   bool
	}{
		{"01-variables-and-types.md", 1, "variables-and-types", true},
		{"30-typescript-best-practices.md", 30, "typescript-best-practices", true},
		{"05-arrays.md", 5, "arrays", true},
		{"5-arrays.md", 0, "", false},
		{"05-Arrays.md", 0, "", false},
		{"05-arrays.markdown", 0, "", false},
		{"README.md", 0, "", false},
		{"00-intro.md", 0, "", false},
		{"05-.md", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num, slug, ok := SplitFilename(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantNum, num)
			assert.Equal(t, tt.wantSlug, slug)
		})
	}
}

func TestChapterFilename(t *testing.T) {
	assert.Equal(t, "05-arrays.md", ChapterFilename(5, "arrays"))
	assert.Equal(t, "30-typescript-best-practices.md", ChapterFilename(30, "typescript-best-practices"))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Arrays", "arrays"},
		{"Variables and Types", "variables-and-types"},
		{"Async Programming", "async-programming"},
		{"this Binding & Closures!", "this-binding-closures"},
		{"  Spaced  ", "spaced"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.title), tt.title)
	}
}

func TestRender(t *testing.T) {
	out, err := Render([]byte(sampleChapter))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<h2 id="overview">Overview</h2>`)
	assert.Contains(t, html, `class="language-js"`)
	assert.Contains(t, html, `<a href="./02-operators.md">Operators</a>`)
}
