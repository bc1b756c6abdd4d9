// Package reporter renders matching results, batch summaries, and the
// review queue for human and programmatic consumption.
//
// Supported output formats:
//   - Console: human-readable output for terminal display
//   - JSON: structured output for programmatic consumption
//   - CSV: issue-per-row output for spreadsheet triage
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"invoice-matching-service/internal/models"
	"invoice-matching-service/internal/queue"
	"invoice-matching-service/internal/service"

	"github.com/google/uuid"
)

// OutputFormat selects how reports are rendered
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds report rendering options
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeResolved also shows resolved issues in issue listings.
	IncludeResolved bool `json:"include_resolved"`

	// IncludeLineDetail renders per-line comparison rows in console output.
	IncludeLineDetail bool `json:"include_line_detail"`

	CSVHeaders bool `json:"csv_headers"`
}

// DefaultReportConfig returns the standard rendering options
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:            FormatConsole,
		IncludeResolved:   false,
		IncludeLineDetail: true,
		CSVHeaders:        true,
	}
}

// Validate checks the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders matching output in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateResultReport renders one matching result
func (rg *ReportGenerator) GenerateResultReport(result *models.MatchingResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("matching result cannot be nil")
	}

	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(writer, result)
	case FormatCSV:
		return rg.writeIssuesCSV(writer, result)
	default:
		return rg.writeResultConsole(writer, result)
	}
}

// GenerateQueueReport renders the review queue, most urgent first
func (rg *ReportGenerator) GenerateQueueReport(items []*queue.ReviewQueueItem, writer io.Writer) error {
	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(writer, items)
	case FormatCSV:
		return rg.writeQueueCSV(writer, items)
	default:
		return rg.writeQueueConsole(writer, items)
	}
}

// GenerateBatchReport renders a batch matching summary
func (rg *ReportGenerator) GenerateBatchReport(summary *service.BatchSummary, writer io.Writer) error {
	if summary == nil {
		return fmt.Errorf("batch summary cannot be nil")
	}

	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(writer, summary)
	case FormatCSV:
		return rg.writeBatchCSV(writer, summary)
	}

	fmt.Fprintf(writer, "BATCH MATCHING SUMMARY\n")
	fmt.Fprintf(writer, "Total:        %d\n", summary.Total)
	fmt.Fprintf(writer, "Matched:      %d\n", summary.Matched)
	fmt.Fprintf(writer, "Needs review: %d\n", summary.NeedsReview)
	fmt.Fprintf(writer, "Failed:       %d\n\n", summary.Failed)

	for _, outcome := range summary.Outcomes {
		switch {
		case outcome.Err != nil:
			fmt.Fprintf(writer, "  %-20s FAILED  %s\n", outcome.InvoiceNumber, outcome.ErrorMessage)
		case outcome.Result != nil:
			fmt.Fprintf(writer, "  %-20s %-13s confidence %.2f  issues %d\n",
				outcome.InvoiceNumber, outcome.Result.MatchStatus,
				outcome.Result.ConfidenceScore, len(outcome.Result.Issues))
		}
	}
	return nil
}

func (rg *ReportGenerator) writeResultConsole(writer io.Writer, result *models.MatchingResult) error {
	fmt.Fprintf(writer, "MATCHING RESULT\n")
	fmt.Fprintf(writer, "Invoice:    %s\n", result.InvoiceID)
	if result.POID != "" {
		fmt.Fprintf(writer, "PO:         %s\n", result.POID)
	} else {
		fmt.Fprintf(writer, "PO:         (not found)\n")
	}
	fmt.Fprintf(writer, "Status:     %s\n", result.MatchStatus)
	fmt.Fprintf(writer, "Confidence: %.2f\n", result.ConfidenceScore)
	fmt.Fprintf(writer, "Matched by: %s at %s\n", result.MatchedBy, result.MatchedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Reasoning:  %s\n", result.Reasoning)

	issues := rg.selectIssues(result)
	if len(issues) > 0 {
		fmt.Fprintf(writer, "\n=== ISSUES (%d) ===\n", len(issues))
		for _, issue := range issues {
			state := "open"
			if issue.Resolved {
				state = fmt.Sprintf("resolved/%s", issue.ResolutionAction)
			}
			fmt.Fprintf(writer, "  [%-8s] %-20s %-10s %s\n", issue.Severity, issue.Category, state, issue.Message)
		}
	}

	if rg.config.IncludeLineDetail && len(result.LineComparisons) > 0 {
		fmt.Fprintf(writer, "\n=== LINE ITEMS (%d) ===\n", len(result.LineComparisons))
		for _, lic := range result.LineComparisons {
			fmt.Fprintf(writer, "  line %-4d %-9s %s\n", lic.LineNumber, lic.OverallMatch, describeLine(lic))
		}
	}

	return nil
}

func describeLine(lic *models.LineItemComparison) string {
	switch {
	case lic.InvoiceLine != nil && lic.POLine != nil:
		suffix := ""
		if lic.PairedBySimilarity {
			suffix = fmt.Sprintf(" (paired by similarity %.2f)", lic.PairingSimilarity)
		}
		return lic.InvoiceLine.Description + suffix
	case lic.InvoiceLine != nil:
		return lic.InvoiceLine.Description + " (not on PO)"
	case lic.POLine != nil:
		return lic.POLine.Description + " (not billed)"
	default:
		return ""
	}
}

func (rg *ReportGenerator) writeQueueConsole(writer io.Writer, items []*queue.ReviewQueueItem) error {
	fmt.Fprintf(writer, "REVIEW QUEUE (%d open)\n", len(items))
	now := time.Now().UTC()

	for _, item := range items {
		overdue := ""
		if item.Overdue(now) {
			overdue = "  OVERDUE"
		}
		fmt.Fprintf(writer, "  %-8s %-20s due %s%s\n",
			item.Priority, item.IssueCategory, item.SLADeadline.Format(time.RFC3339), overdue)
	}
	return nil
}

func (rg *ReportGenerator) writeIssuesCSV(writer io.Writer, result *models.MatchingResult) error {
	w := csv.NewWriter(writer)
	defer w.Flush()

	if rg.config.CSVHeaders {
		if err := w.Write([]string{"invoice_id", "po_id", "severity", "category", "line", "resolved", "message"}); err != nil {
			return err
		}
	}

	for _, issue := range rg.selectIssues(result) {
		line := ""
		if issue.LineNumber > 0 {
			line = strconv.Itoa(issue.LineNumber)
		}
		record := []string{
			result.InvoiceID,
			result.POID,
			string(issue.Severity),
			string(issue.Category),
			line,
			strconv.FormatBool(issue.Resolved),
			issue.Message,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (rg *ReportGenerator) writeQueueCSV(writer io.Writer, items []*queue.ReviewQueueItem) error {
	w := csv.NewWriter(writer)
	defer w.Flush()

	if rg.config.CSVHeaders {
		if err := w.Write([]string{"item_id", "pair_id", "priority", "category", "sla_deadline", "open"}); err != nil {
			return err
		}
	}

	for _, item := range items {
		record := []string{
			item.ID.String(),
			item.PairID.String(),
			string(item.Priority),
			string(item.IssueCategory),
			item.SLADeadline.Format(time.RFC3339),
			strconv.FormatBool(item.Open()),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (rg *ReportGenerator) writeBatchCSV(writer io.Writer, summary *service.BatchSummary) error {
	w := csv.NewWriter(writer)
	defer w.Flush()

	if rg.config.CSVHeaders {
		if err := w.Write([]string{"invoice_number", "pair_id", "status", "confidence", "issues", "error"}); err != nil {
			return err
		}
	}

	for _, outcome := range summary.Outcomes {
		record := []string{outcome.InvoiceNumber, "", "", "", "", ""}
		if outcome.PairID != uuid.Nil {
			record[1] = outcome.PairID.String()
		}
		switch {
		case outcome.Err != nil:
			record[2] = "failed"
			record[5] = outcome.ErrorMessage
		case outcome.Result != nil:
			record[2] = string(outcome.Result.MatchStatus)
			record[3] = strconv.FormatFloat(outcome.Result.ConfidenceScore, 'f', 2, 64)
			record[4] = strconv.Itoa(len(outcome.Result.Issues))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (rg *ReportGenerator) selectIssues(result *models.MatchingResult) []*models.ValidationIssue {
	if rg.config.IncludeResolved {
		return result.Issues
	}
	var out []*models.ValidationIssue
	for _, issue := range result.Issues {
		if !issue.Resolved {
			out = append(out, issue)
		}
	}
	return out
}

func writeJSON(writer io.Writer, v interface{}) error {
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
