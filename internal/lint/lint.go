// Package lint checks a parsed chapter against the corpus conventions: every
// fenced code block carries a recognized language tag, headings are well
// structured, the chapter template sections are present, filenames follow the
// NN-slug.md form, and internal links point at sibling chapter files. Rules
// are pure functions over markdown.Document; corpus-wide checks that need the
// full chapter set live in the service layer.
package lint

import (
	"fmt"
	"regexp"
	"strings"

	"studyguide/internal/markdown"
	"studyguide/internal/model"
)

// Rule names as reported in issues.
const (
	RuleFenceLanguage      = "fence-language"
	RuleHeadingStructure   = "heading-structure"
	RuleSectionTemplate    = "section-template"
	RuleFilenameConvention = "filename-convention"
	RuleInternalLinkShape  = "internal-link-shape"
)

// recognizedLanguages are the fence info strings allowed in chapter code blocks.
var recognizedLanguages = map[string]bool{
	"javascript": true,
	"js":         true,
	"jsx":        true,
	"typescript": true,
	"ts":         true,
	"tsx":        true,
	"json":       true,
	"html":       true,
	"css":        true,
	"bash":       true,
	"sh":         true,
	"text":       true,
}

// requiredSections are the H2 headings every chapter must carry, in order.
var requiredSections = []string{
	"Overview",
	"Key Concepts",
	"Real-World Examples",
	"Interview Questions",
	"Best Practices",
	"Summary",
}

// Run applies all rules to one parsed chapter.
func Run(doc *markdown.Document) []model.LintIssue {
	var issues []model.LintIssue
	issues = append(issues, FenceLanguage(doc)...)
	issues = append(issues, HeadingStructure(doc)...)
	issues = append(issues, SectionTemplate(doc)...)
	issues = append(issues, FilenameConvention(doc)...)
	issues = append(issues, InternalLinkShape(doc)...)
	return issues
}

// HasErrors reports whether any issue is error severity.
func HasErrors(issues []model.LintIssue) bool {
	for _, is := range issues {
		if is.Severity == model.SeverityError {
			return true
		}
	}
	return false
}

// FenceLanguage requires every fenced code block to declare a recognized language.
func FenceLanguage(doc *markdown.Document) []model.LintIssue {
	var issues []model.LintIssue
	for _, f := range doc.Fences {
		switch {
		case f.Language == "":
			issues = append(issues, model.LintIssue{
				Rule:     RuleFenceLanguage,
				Severity: model.SeverityError,
				Line:     f.Line,
				Message:  "fenced code block has no language tag",
			})
		case !recognizedLanguages[strings.ToLower(f.Language)]:
			issues = append(issues, model.LintIssue{
				Rule:     RuleFenceLanguage,
				Severity: model.SeverityError,
				Line:     f.Line,
				Message:  fmt.Sprintf("unrecognized fence language %q", f.Language),
			})
		}
	}
	return issues
}

// HeadingStructure requires exactly one H1 and forbids heading level jumps of
// more than one (an H4 directly under an H2 hides a missing H3).
func HeadingStructure(doc *markdown.Document) []model.LintIssue {
	var issues []model.LintIssue

	h1 := 0
	for _, h := range doc.Headings {
		if h.Level == 1 {
			h1++
			if h1 > 1 {
				issues = append(issues, model.LintIssue{
					Rule:     RuleHeadingStructure,
					Severity: model.SeverityError,
					Line:     h.Line,
					Message:  fmt.Sprintf("extra top-level heading %q; chapters have a single H1 title", h.Text),
				})
			}
		}
	}
	if h1 == 0 {
		issues = append(issues, model.LintIssue{
			Rule:     RuleHeadingStructure,
			Severity: model.SeverityError,
			Message:  "missing top-level heading",
		})
	}

	prev := 0
	for _, h := range doc.Headings {
		if prev > 0 && h.Level > prev+1 {
			issues = append(issues, model.LintIssue{
				Rule:     RuleHeadingStructure,
				Severity: model.SeverityWarning,
				Line:     h.Line,
				Message:  fmt.Sprintf("heading level jumps from %d to %d at %q", prev, h.Level, h.Text),
			})
		}
		prev = h.Level
	}

	return issues
}

// SectionTemplate requires the chapter template's H2 sections. A missing
// section is an error; sections present but out of order are a warning.
func SectionTemplate(doc *markdown.Document) []model.LintIssue {
	var issues []model.LintIssue

	pos := map[string]int{}
	idx := 0
	for _, h := range doc.Headings {
		if h.Level != 2 {
			continue
		}
		for _, want := range requiredSections {
			if strings.Contains(h.Text, want) {
				if _, seen := pos[want]; !seen {
					pos[want] = idx
				}
				break
			}
		}
		idx++
	}

	for _, want := range requiredSections {
		if _, ok := pos[want]; !ok {
			issues = append(issues, model.LintIssue{
				Rule:     RuleSectionTemplate,
				Severity: model.SeverityError,
				Message:  fmt.Sprintf("missing required section %q", want),
			})
		}
	}

	last := -1
	for _, want := range requiredSections {
		p, ok := pos[want]
		if !ok {
			continue
		}
		if p < last {
			issues = append(issues, model.LintIssue{
				Rule:     RuleSectionTemplate,
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("section %q is out of template order", want),
			})
		}
		if p > last {
			last = p
		}
	}

	return issues
}

// FilenameConvention requires the NN-slug.md form and warns when the slug
// drifts from the chapter title.
func FilenameConvention(doc *markdown.Document) []model.LintIssue {
	var issues []model.LintIssue

	_, slug, ok := markdown.SplitFilename(doc.Filename)
	if !ok {
		return append(issues, model.LintIssue{
			Rule:     RuleFilenameConvention,
			Severity: model.SeverityError,
			Message:  fmt.Sprintf("filename %q does not match NN-slug.md", doc.Filename),
		})
	}

	if doc.Title != "" {
		titleSlug := markdown.Slugify(doc.Title)
		if titleSlug != "" && titleSlug != slug {
			issues = append(issues, model.LintIssue{
				Rule:     RuleFilenameConvention,
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("slug %q does not match title %q", slug, doc.Title),
			})
		}
	}

	return issues
}

var internalLinkRe = regexp.MustCompile(`^\./\d{2}-[a-z0-9-]+\.md(#[A-Za-z0-9._-]+)?$`)

// InternalLinkShape requires relative links to target sibling chapter files
// as ./NN-slug.md with an optional fragment. Parent traversal and absolute
// paths have nothing to resolve to inside the corpus.
func InternalLinkShape(doc *markdown.Document) []model.LintIssue {
	var issues []model.LintIssue
	for _, l := range doc.Links {
		if l.Kind != model.LinkKindInternal {
			continue
		}
		if !internalLinkRe.MatchString(l.Target) {
			issues = append(issues, model.LintIssue{
				Rule:     RuleInternalLinkShape,
				Severity: model.SeverityError,
				Line:     l.Line,
				Message:  fmt.Sprintf("internal link %q must be of the form ./NN-slug.md", l.Target),
			})
		}
	}
	return issues
}

// InternalTarget strips the ./ prefix and any fragment from an internal link,
// yielding the bare chapter filename it points at.
func InternalTarget(target string) string {
	t := strings.TrimPrefix(target, "./")
	if i := strings.IndexByte(t, '#'); i >= 0 {
		t = t[:i]
	}
	return t
}
