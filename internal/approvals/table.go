package approvals

import (
	"regexp"
	"strings"
)

const (
	// Title opens the managed approval section.
	Title = "## Approval Status"
	// Header is the column header row of the managed table.
	Header = "| Domain | Required Approver | Status | Approved By | Date |"
	// Divider separates the header from the data rows.
	Divider = "| ------ | ----------------- | ------ | ----------- | ---- |"
	// Footer closes the managed approval section.
	Footer = "_Managed by Docs Bot. Do not edit manually._"
)

// Placeholder and default status used for rows appended without values.
const (
	Placeholder   = "-"
	StatusPending = "Pending"
)

// Well known approval statuses written by the comment workflow.
const (
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

var sectionPattern = regexp.MustCompile(regexp.QuoteMeta(Title) + `[\s\S]*?` + regexp.QuoteMeta(Footer))

// Row is one approval entry. Domain is the case-insensitive identity key.
type Row struct {
	Domain           string `json:"domain"`
	RequiredApprover string `json:"required_approver"`
	Status           string `json:"status"`
	ApprovedBy       string `json:"approved_by"`
	Date             string `json:"date"`
}

// Table is the parsed managed section together with the verbatim span it was
// read from.
type Table struct {
	Markdown string
	Rows     []Row
}

// Render serialises rows into the managed markdown section. Rows are written
// in input order; an empty slice still produces the header and divider.
func Render(rows []Row) string {
	lines := make([]string, 0, len(rows)+8)
	lines = append(lines, Title, "", Header, Divider)
	for _, row := range rows {
		lines = append(lines, renderRow(row))
	}
	lines = append(lines, "", "---", "", Footer)
	return strings.Join(lines, "\n")
}

func renderRow(row Row) string {
	return "| " + strings.Join([]string{
		row.Domain,
		row.RequiredApprover,
		row.Status,
		row.ApprovedBy,
		row.Date,
	}, " | ") + " |"
}

// Extract locates the first managed section inside body. It returns nil when
// the section is absent.
func Extract(body string) *Table {
	section := sectionPattern.FindString(body)
	if section == "" {
		return nil
	}
	return &Table{
		Markdown: section,
		Rows:     ParseRows(section),
	}
}

// ParseRows reads the data rows that follow the header and divider. Parsing
// stops at the first blank line, the first line that is not a table row, or a
// second divider-like line. Rows with a missing cell are skipped.
func ParseRows(section string) []Row {
	lines := strings.Split(section, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	headerIndex := -1
	for i, line := range lines {
		if line == Header {
			headerIndex = i
			break
		}
	}
	if headerIndex < 0 {
		return []Row{}
	}

	rows := []Row{}
	for _, line := range lines[min(headerIndex+2, len(lines)):] {
		if line == "" || !strings.HasPrefix(line, "|") || strings.Contains(line, "---") {
			break
		}
		row, ok := parseRow(line)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func parseRow(line string) (Row, bool) {
	parts := strings.Split(line, "|")
	if len(parts) < 7 {
		return Row{}, false
	}
	cells := make([]string, 5)
	for i := range cells {
		cells[i] = strings.TrimSpace(parts[i+1])
		if cells[i] == "" {
			return Row{}, false
		}
	}
	return Row{
		Domain:           cells[0],
		RequiredApprover: cells[1],
		Status:           cells[2],
		ApprovedBy:       cells[3],
		Date:             cells[4],
	}, true
}
