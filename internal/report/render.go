package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/keckobservatory/koa-daa/internal/reconcile"
	"github.com/keckobservatory/koa-daa/internal/style"
)

var titler = cases.Title(language.English)

// Render writes the report to w. When styled, the preamble and per-program
// summary lines are colorized for terminals; the JSON body is always plain
// so piped output stays machine-readable.
func Render(w io.Writer, r *Report, styled bool) error {
	header := r.headerLines()
	if styled {
		fmt.Fprintln(w, style.Header.Render(header[0]))
		for _, line := range header[1:] {
			fmt.Fprintln(w, style.Dim.Render(line))
		}
		for _, pr := range r.Programs {
			fmt.Fprintf(w, "%s %s  %s\n", style.ArrowPrefix, pr.SemID, summaryLine(pr))
		}
	} else {
		for _, line := range header {
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w)

	body, err := r.Body()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, body)
	return err
}

// Text renders the plain report for mail delivery.
func (r *Report) Text() (string, error) {
	var sb strings.Builder
	for _, line := range r.headerLines() {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	body, err := r.Body()
	if err != nil {
		return "", err
	}
	sb.WriteString(body)
	sb.WriteString("\n")
	return sb.String(), nil
}

// Body returns the JSON body: an object keyed by semid. encoding/json
// marshals map keys in sorted order, which matches the assembler's semid
// ordering.
func (r *Report) Body() (string, error) {
	byProgram := make(map[string][]Record, len(r.Programs))
	for _, pr := range r.Programs {
		byProgram[pr.SemID] = pr.Records
	}
	out, err := json.MarshalIndent(byProgram, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	return string(out), nil
}

func (r *Report) headerLines() []string {
	const dateFormat = "2006-01-02"
	return []string{
		"KOA DATA ACCESS AUTOMATION (DAA) REPORT",
		fmt.Sprintf("run %s", r.RunID),
		fmt.Sprintf("%s to %s (%d day(s))",
			r.Start.Format(dateFormat), r.End.Format(dateFormat), r.Days),
		fmt.Sprintf("%d SEMIDs found", len(r.Programs)),
	}
}

func summaryLine(pr ProgramReport) string {
	var granted, required, pending int
	for _, rec := range pr.Records {
		switch {
		case rec.Pending:
			pending++
		case rec.Access == string(reconcile.AccessGranted):
			granted++
		default:
			required++
		}
	}
	parts := []string{
		style.Granted.Render(fmt.Sprintf("%s %d", titler.String(string(reconcile.AccessGranted)), granted)),
		style.Required.Render(fmt.Sprintf("%s %d", titler.String(string(reconcile.AccessRequired)), required)),
	}
	if pending > 0 {
		parts = append(parts, style.Pending.Render(fmt.Sprintf("Pending %d", pending)))
	}
	return strings.Join(parts, "  ")
}

// RenderAudit writes the observer account audit buckets to w, one labeled
// JSON list per bucket.
func RenderAudit(w io.Writer, buckets *reconcile.AuditBuckets) error {
	sections := []struct {
		desc    string
		records []reconcile.AuditRecord
	}{
		{"Valid partner accounts", buckets.Valid},
		{"Partner accounts that do not exist", buckets.NoAccount},
		{"Partner accounts with invalid keckid", buckets.InvalidKeckID},
		{"Partner accounts with no program access yet", buckets.NoProgramAccess},
		{"Ignored accounts", buckets.Ignored},
		{"Accounts needing attention", buckets.NeedsAttention},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "\n%s (%d user(s))\n", s.desc, len(s.records))
		if len(s.records) == 0 {
			continue
		}
		out, err := json.MarshalIndent(s.records, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding audit records: %w", err)
		}
		fmt.Fprintln(w, string(out))
	}
	return nil
}
