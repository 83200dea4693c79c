package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyguide/internal/markdown"
	"studyguide/internal/model"
)

// goodChapter satisfies every rule.
const goodChapter = `# Arrays

## Overview

Arrays hold ordered collections of values.

## Key Concepts

` + "```js" + `
const xs = [1, 2, 3];
` + "```" + `

## Real-World Examples

A [shopping cart](./07-objects.md) keeps line items in an array.

## Interview Questions

### How do you copy an array?

Use the spread operator.

## Best Practices

Prefer immutable updates.

## Summary

Arrays are the workhorse collection type.
`

func parse(t *testing.T, name, src string) *markdown.Document {
	t.Helper()
	doc, err := markdown.Parse(name, []byte(src))
	require.NoError(t, err)
	return doc
}

func issuesByRule(issues []model.LintIssue, rule string) []model.LintIssue {
	var out []model.LintIssue
	for _, is := range issues {
		if is.Rule == rule {
			out = append(out, is)
		}
	}
	return out
}

func TestRunCleanChapter(t *testing.T) {
	doc := parse(t, "05-arrays.md", goodChapter)
	issues := Run(doc)

	assert.Empty(t, issues)
	assert.False(t, HasErrors(issues))
}

func TestFenceLanguage(t *testing.T) {
	tests := []struct {
		name      string
		fence     string
		wantError bool
	}{
		{"js recognized", "```js\nlet a;\n```", false},
		{"typescript recognized", "```typescript\nlet a: number;\n```", false},
		{"case-insensitive", "```TS\nlet a: number;\n```", false},
		{"missing tag", "```\nlet a;\n```", true},
		{"unknown tag", "```cobol\nDISPLAY 'HI'.\n```", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, "05-arrays.md", "# Arrays\n\n"+tt.fence+"\n")
			issues := FenceLanguage(doc)
			if tt.wantError {
				require.Len(t, issues, 1)
				assert.Equal(t, model.SeverityError, issues[0].Severity)
				assert.Equal(t, RuleFenceLanguage, issues[0].Rule)
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}

func TestHeadingStructure(t *testing.T) {
	t.Run("two H1s", func(t *testing.T) {
		doc := parse(t, "05-arrays.md", "# Arrays\n\n# Also Arrays\n")
		issues := issuesByRule(HeadingStructure(doc), RuleHeadingStructure)
		require.Len(t, issues, 1)
		assert.Equal(t, model.SeverityError, issues[0].Severity)
	})

	t.Run("missing H1", func(t *testing.T) {
		doc := parse(t, "05-arrays.md", "## Overview\n\nText.\n")
		issues := HeadingStructure(doc)
		require.NotEmpty(t, issues)
		assert.Equal(t, model.SeverityError, issues[0].Severity)
		assert.Contains(t, issues[0].Message, "missing top-level heading")
	})

	t.Run("level jump", func(t *testing.T) {
		doc := parse(t, "05-arrays.md", "# Arrays\n\n#### Deep Dive\n")
		var jumps []model.LintIssue
		for _, is := range HeadingStructure(doc) {
			if is.Severity == model.SeverityWarning {
				jumps = append(jumps, is)
			}
		}
		require.Len(t, jumps, 1)
		assert.Contains(t, jumps[0].Message, "jumps")
	})
}

func TestSectionTemplate(t *testing.T) {
	t.Run("all sections present", func(t *testing.T) {
		doc := parse(t, "05-arrays.md", goodChapter)
		assert.Empty(t, SectionTemplate(doc))
	})

	t.Run("missing sections", func(t *testing.T) {
		doc := parse(t, "05-arrays.md", "# Arrays\n\n## Overview\n\nText.\n")
		issues := SectionTemplate(doc)
		// Key Concepts, Real-World Examples, Interview Questions, Best Practices, Summary
		assert.Len(t, issues, 5)
		for _, is := range issues {
			assert.Equal(t, model.SeverityError, is.Severity)
		}
	})

	t.Run("out of order", func(t *testing.T) {
		src := "# Arrays\n\n## Summary\n\nDone.\n\n## Overview\n\nIntro.\n\n" +
			"## Key Concepts\n\nThings.\n\n## Real-World Examples\n\nExamples.\n\n" +
			"## Interview Questions\n\n### Q?\n\nA.\n\n## Best Practices\n\nTips.\n"
		doc := parse(t, "05-arrays.md", src)
		issues := SectionTemplate(doc)
		require.NotEmpty(t, issues)
		for _, is := range issues {
			assert.Equal(t, model.SeverityWarning, is.Severity)
			assert.Contains(t, is.Message, "out of template order")
		}
	})
}

func TestFilenameConvention(t *testing.T) {
	t.Run("canonical name", func(t *testing.T) {
		doc := parse(t, "05-arrays.md", goodChapter)
		assert.Empty(t, FilenameConvention(doc))
	})

	t.Run("bad filename", func(t *testing.T) {
		doc := parse(t, "arrays.md", goodChapter)
		issues := FilenameConvention(doc)
		require.Len(t, issues, 1)
		assert.Equal(t, model.SeverityError, issues[0].Severity)
	})

	t.Run("slug drifts from title", func(t *testing.T) {
		doc := parse(t, "05-lists.md", goodChapter)
		issues := FilenameConvention(doc)
		require.Len(t, issues, 1)
		assert.Equal(t, model.SeverityWarning, issues[0].Severity)
	})
}

func TestInternalLinkShape(t *testing.T) {
	tests := []struct {
		name      string
		link      string
		wantError bool
	}{
		{"sibling chapter", "[ops](./02-operators.md)", false},
		{"sibling with fragment", "[ops](./02-operators.md#precedence)", false},
		{"same-file anchor ignored", "[top](#overview)", false},
		{"external ignored", "[mdn](https://developer.mozilla.org)", false},
		{"missing dot-slash", "[ops](02-operators.md)", true},
		{"parent traversal", "[up](../README.md)", true},
		{"absolute path", "[abs](/srv/corpus/02-operators.md)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, "05-arrays.md", "# Arrays\n\nSee "+tt.link+".\n")
			issues := InternalLinkShape(doc)
			if tt.wantError {
				require.Len(t, issues, 1)
				assert.Equal(t, model.SeverityError, issues[0].Severity)
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}

func TestInternalTarget(t *testing.T) {
	assert.Equal(t, "02-operators.md", InternalTarget("./02-operators.md"))
	assert.Equal(t, "02-operators.md", InternalTarget("./02-operators.md#precedence"))
	assert.Equal(t, "02-operators.md", InternalTarget("02-operators.md"))
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]model.LintIssue{{Severity: model.SeverityWarning}}))
	assert.True(t, HasErrors([]model.LintIssue{
		{Severity: model.SeverityWarning},
		{Severity: model.SeverityError},
	}))
}
