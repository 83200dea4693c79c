package model

// Lint severities. Errors block publishing; warnings are reported only.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// LintIssue is a single finding produced by a lint rule against one chapter.
type LintIssue struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
}

// ChapterReport groups the issues found in one chapter during corpus validation.
type ChapterReport struct {
	Slug     string      `json:"slug"`
	Filename string      `json:"filename"`
	Issues   []LintIssue `json:"issues"`
}

// CorpusReport is the result of validating the whole corpus: per-chapter
// issues plus corpus-level findings that no single file can reveal on its own
// (broken cross-chapter links, duplicate or missing chapter numbers, dead
// external URLs).
type CorpusReport struct {
	Chapters     []ChapterReport `json:"chapters,omitempty"`
	CorpusIssues []LintIssue     `json:"corpus_issues,omitempty"`
	ChapterCount int             `json:"chapter_count"`
	ErrorCount   int             `json:"error_count"`
	WarningCount int             `json:"warning_count"`
}

// Healthy reports whether validation found no error-severity issues.
func (r *CorpusReport) Healthy() bool {
	return r.ErrorCount == 0
}

// Count tallies error and warning totals across all recorded issues.
// Call after all issues have been appended.
func (r *CorpusReport) Count() {
	r.ErrorCount = 0
	r.WarningCount = 0
	tally := func(issues []LintIssue) {
		for _, is := range issues {
			switch is.Severity {
			case SeverityError:
				r.ErrorCount++
			case SeverityWarning:
				r.WarningCount++
			}
		}
	}
	for _, cr := range r.Chapters {
		tally(cr.Issues)
	}
	tally(r.CorpusIssues)
}
