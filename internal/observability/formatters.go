// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/credit-scorer/internal/scoring"
	"github.com/jonathan/credit-scorer/internal/taxonomy"
	"github.com/jonathan/credit-scorer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintTaxonomy outputs the feature taxonomy partition of a dataset.
func (p *Printer) PrintTaxonomy(tax taxonomy.Taxonomy) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Traditional numeric:     %d\n", len(tax.TraditionalNumeric)))
	sb.WriteString(fmt.Sprintf("Traditional categorical: %d\n", len(tax.TraditionalCategorical)))
	sb.WriteString(fmt.Sprintf("Alternative numeric:     %d\n", len(tax.AlternativeNumeric)))
	sb.WriteString(fmt.Sprintf("Alternative categorical: %d\n", len(tax.AlternativeCategorical)))

	if len(tax.AlternativeNumeric) > 0 {
		sb.WriteString("\nAlternative features:\n")
		count := min(len(tax.AlternativeNumeric), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", tax.AlternativeNumeric[i]))
		}
		if len(tax.AlternativeNumeric) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(tax.AlternativeNumeric)-maxItemsToShow))
		}
	}

	p.printBox("FEATURE TAXONOMY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTrainReport outputs validation metrics and the strongest feature
// importances after a training run.
func (p *Printer) PrintTrainReport(report *scoring.TrainReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Model:     %s\n", report.Family))
	if report.BestConfig != "" {
		sb.WriteString(fmt.Sprintf("Config:    %s\n", report.BestConfig))
	}
	sb.WriteString(fmt.Sprintf("Rows:      %d train / %d validate\n", report.TrainRows, report.ValidateRows))
	sb.WriteString(fmt.Sprintf("Features:  %d\n\n", report.FeatureCount))

	sb.WriteString(fmt.Sprintf("Accuracy:   %.4f\n", report.Metrics.Accuracy))
	sb.WriteString(fmt.Sprintf("Precision:  %.4f\n", report.Metrics.Precision))
	sb.WriteString(fmt.Sprintf("Recall:     %.4f\n", report.Metrics.Recall))
	sb.WriteString(fmt.Sprintf("F1:         %.4f\n", report.Metrics.F1))
	sb.WriteString(fmt.Sprintf("ROC-AUC:    %.4f\n", report.Metrics.ROCAUC))
	sb.WriteString(fmt.Sprintf("Avg. prec.: %.4f\n", report.Metrics.AveragePrecision))

	if len(report.Importance) > 0 {
		sb.WriteString("\nTop features:\n")
		count := min(len(report.Importance), maxItemsToShow)
		for i := 0; i < count; i++ {
			imp := report.Importance[i]
			name := imp.Feature
			if len(name) > 36 {
				name = name[:33] + "..."
			}
			sb.WriteString(fmt.Sprintf("  %-36s %.4f\n", name, imp.Value))
		}
		if len(report.Importance) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Importance)-maxItemsToShow))
		}
	}

	p.printBox("TRAINING REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintApplicationResult outputs the full outcome of one processed loan
// application.
func (p *Printer) PrintApplicationResult(result *types.ApplicationResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Application:  %s\n", result.ApplicationID))
	sb.WriteString(fmt.Sprintf("Borrower:     %s\n\n", result.BorrowerID))
	sb.WriteString(fmt.Sprintf("Traditional:  %.1f / 100\n", result.TraditionalScore))
	sb.WriteString(fmt.Sprintf("Alternative:  %.1f / 100\n", result.AlternativeScore))
	sb.WriteString(fmt.Sprintf("Enhanced:     %.0f (300-850)\n\n", result.EnhancedScore))

	if len(result.CategoryScores) > 0 {
		categories := make([]string, 0, len(result.CategoryScores))
		for name := range result.CategoryScores {
			categories = append(categories, name)
		}
		sort.Strings(categories)
		sb.WriteString("Category scores:\n")
		for _, name := range categories {
			sb.WriteString(fmt.Sprintf("  %-28s %.1f\n", name, result.CategoryScores[name]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Decision:     %s\n", result.Decision))
	sb.WriteString(fmt.Sprintf("Compliant:    %t", result.Compliant))

	p.printBox("APPLICATION ASSESSMENT", sb.String())
}

// PrintCompliance outputs the compliance findings for an application.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintCompliance(report *types.ComplianceReport) {
	if report == nil {
		return
	}
	if report.Compliant {
		failures := 0
		for _, f := range report.Findings {
			if !f.Passed {
				failures++
			}
		}
		if failures == 0 {
			fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
			fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ ALL COMPLIANCE CHECKS PASSED")
			fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
			return
		}
	}

	var sb strings.Builder
	for i, f := range report.Findings {
		marker := "✓"
		if !f.Passed {
			marker = "⚠"
		}
		sb.WriteString(fmt.Sprintf("%s %s [%s]\n", marker, f.Check, f.Severity))
		if f.Details != "" {
			details := f.Details
			if len(details) > 48 {
				details = details[:45] + "..."
			}
			sb.WriteString(fmt.Sprintf("  %s\n", details))
		}
		if i < len(report.Findings)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("COMPLIANCE FINDINGS", strings.TrimSuffix(sb.String(), "\n"))
}
