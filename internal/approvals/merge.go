package approvals

import (
	"errors"
	"strings"
)

// ErrTableNotFound is returned by Merge when the body carries no managed
// section and the caller did not ask for one to be created.
var ErrTableNotFound = errors.New("approvals: approval table not found")

// Update is a sparse patch keyed by Domain. Nil fields leave the current value
// untouched.
type Update struct {
	Domain           string  `json:"domain"`
	RequiredApprover *string `json:"required_approver,omitempty"`
	Status           *string `json:"status,omitempty"`
	ApprovedBy       *string `json:"approved_by,omitempty"`
	Date             *string `json:"date,omitempty"`
}

// MergeOptions controls how Merge treats missing sections and unknown domains.
type MergeOptions struct {
	// CreateIfMissing appends a new section built from DefaultRows when the body
	// has none. Updates are then applied in append mode.
	CreateIfMissing bool
	// AllowAppend adds rows for updates whose domain is not in the table.
	AllowAppend bool
	DefaultRows []Row
}

// MergeResult carries the rewritten body and the rows it now contains.
type MergeResult struct {
	Body string
	Rows []Row
}

// Merge applies updates to the managed section of body. Only the managed span
// is rewritten; everything around it is kept byte for byte.
func Merge(body string, updates []Update, opts MergeOptions) (MergeResult, error) {
	table := Extract(body)
	if table == nil {
		if !opts.CreateIfMissing {
			return MergeResult{}, ErrTableNotFound
		}
		rows := ApplyUpdates(cloneRows(opts.DefaultRows), updates, true)
		rendered := Render(rows)

		trimmed := strings.TrimSpace(body)
		separator := ""
		if trimmed != "" {
			separator = "\n\n"
		}
		return MergeResult{
			Body: trimmed + separator + rendered,
			Rows: rows,
		}, nil
	}

	rows := ApplyUpdates(cloneRows(table.Rows), updates, opts.AllowAppend)
	return MergeResult{
		Body: strings.Replace(body, table.Markdown, Render(rows), 1),
		Rows: rows,
	}, nil
}

// ApplyUpdates merges updates into rows by case-insensitive domain. A matched
// row takes the update's domain spelling. Later updates for the same domain
// win over earlier ones.
func ApplyUpdates(rows []Row, updates []Update, allowAppend bool) []Row {
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		index[domainKey(row.Domain)] = i
	}

	for _, update := range updates {
		key := domainKey(update.Domain)
		position, ok := index[key]
		if !ok {
			if !allowAppend {
				continue
			}
			rows = append(rows, Row{
				Domain:           update.Domain,
				RequiredApprover: valueOr(update.RequiredApprover, Placeholder),
				Status:           valueOr(update.Status, StatusPending),
				ApprovedBy:       valueOr(update.ApprovedBy, Placeholder),
				Date:             valueOr(update.Date, Placeholder),
			})
			index[key] = len(rows) - 1
			continue
		}

		current := rows[position]
		rows[position] = Row{
			Domain:           update.Domain,
			RequiredApprover: valueOr(update.RequiredApprover, current.RequiredApprover),
			Status:           valueOr(update.Status, current.Status),
			ApprovedBy:       valueOr(update.ApprovedBy, current.ApprovedBy),
			Date:             valueOr(update.Date, current.Date),
		}
	}
	return rows
}

// PendingRows builds the initial rows for domains that still need a decision.
func PendingRows(domains []string, approvers map[string]string) []Row {
	rows := make([]Row, 0, len(domains))
	seen := map[string]struct{}{}
	for _, domain := range domains {
		domain = strings.TrimSpace(domain)
		if domain == "" {
			continue
		}
		if _, ok := seen[domainKey(domain)]; ok {
			continue
		}
		seen[domainKey(domain)] = struct{}{}
		approver := Placeholder
		if value := strings.TrimSpace(approvers[domain]); value != "" {
			approver = value
		}
		rows = append(rows, Row{
			Domain:           domain,
			RequiredApprover: approver,
			Status:           StatusPending,
			ApprovedBy:       Placeholder,
			Date:             Placeholder,
		})
	}
	return rows
}

// String returns a pointer to value, for building sparse updates.
func String(value string) *string {
	return &value
}

func domainKey(domain string) string {
	return strings.ToLower(domain)
}

func valueOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}
