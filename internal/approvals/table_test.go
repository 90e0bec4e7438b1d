package approvals

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

const scenarioBody = "Intro\n\n## Approval Status\n\n" +
	"| Domain | Required Approver | Status | Approved By | Date |\n" +
	"| ------ | ----------------- | ------ | ----------- | ---- |\n" +
	"| IT | it.security@x.com | Pending | - | - |\n\n---\n\n" +
	"_Managed by Docs Bot. Do not edit manually._"

func TestRenderEmitsHeaderForEmptyRows(t *testing.T) {
	got := Render(nil)
	want := strings.Join([]string{Title, "", Header, Divider, "", "---", "", Footer}, "\n")
	if got != want {
		t.Fatalf("unexpected render:\n%s", got)
	}
}

func TestRenderExtractRoundTrip(t *testing.T) {
	cases := [][]Row{
		{},
		{{Domain: "IT", RequiredApprover: "it@x.com", Status: "Pending", ApprovedBy: "-", Date: "-"}},
		{
			{Domain: "Legal", RequiredApprover: "legal@x.com", Status: "Approved", ApprovedBy: "sam@x.com", Date: "2026-02-13"},
			{Domain: "HR", RequiredApprover: "-", Status: "Rejected", ApprovedBy: "kim@x.com", Date: "2026-03-01"},
		},
	}
	for _, rows := range cases {
		table := Extract("prefix\n\n" + Render(rows) + "\n\nsuffix")
		if table == nil {
			t.Fatalf("expected table for rows %v", rows)
		}
		if !reflect.DeepEqual(table.Rows, rows) {
			t.Fatalf("round trip mismatch: got %v want %v", table.Rows, rows)
		}
	}
}

func TestExtractReturnsNilWithoutFence(t *testing.T) {
	if table := Extract("## Approval Status\n\nno footer here"); table != nil {
		t.Fatalf("expected nil table, got %+v", table)
	}
}

func TestParseRowsSkipsMalformedAndStopsAtDivider(t *testing.T) {
	section := strings.Join([]string{
		Title,
		"",
		"  " + Header + "  ",
		Divider,
		"| IT | it@x.com | Pending | - | - |",
		"| Legal | legal@x.com | | - | - |",
		"| HR | hr@x.com | Approved | kim | 2026-01-02 |",
		"| ---- | --- | --- | --- | --- |",
		"| Ops | ops@x.com | Pending | - | - |",
	}, "\n")

	rows := ParseRows(section)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[0].Domain != "IT" || rows[1].Domain != "HR" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestParseRowsStopsAtBlankLine(t *testing.T) {
	section := Header + "\n" + Divider + "\n| A | b | c | d | e |\n\n| B | b | c | d | e |"
	if rows := ParseRows(section); len(rows) != 1 {
		t.Fatalf("expected 1 row, got %v", rows)
	}
}

func TestMergeScenarioUpdatesExistingRow(t *testing.T) {
	result, err := Merge(scenarioBody, []Update{{
		Domain:     "IT",
		Status:     String("Approved"),
		ApprovedBy: String("alex@x.com"),
		Date:       String("2026-02-13"),
	}}, MergeOptions{})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}

	want := Row{Domain: "IT", RequiredApprover: "it.security@x.com", Status: "Approved", ApprovedBy: "alex@x.com", Date: "2026-02-13"}
	if len(result.Rows) != 1 || result.Rows[0] != want {
		t.Fatalf("unexpected rows %v", result.Rows)
	}
	if !strings.HasPrefix(result.Body, "Intro\n\n") {
		t.Fatalf("expected intro preserved, got %q", result.Body)
	}
	if !strings.Contains(result.Body, "| IT | it.security@x.com | Approved | alex@x.com | 2026-02-13 |") {
		t.Fatalf("expected rendered row in body, got %q", result.Body)
	}
}

func TestMergeIsCaseInsensitiveAndTakesUpdateCasing(t *testing.T) {
	result, err := Merge(scenarioBody, []Update{{Domain: "it", Status: String("Approved")}}, MergeOptions{})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected single row, got %v", result.Rows)
	}
	if result.Rows[0].Domain != "it" || result.Rows[0].Status != "Approved" {
		t.Fatalf("unexpected row %+v", result.Rows[0])
	}
	if result.Rows[0].RequiredApprover != "it.security@x.com" {
		t.Fatalf("expected approver preserved, got %+v", result.Rows[0])
	}
}

func TestMergeIgnoresUnknownDomainByDefault(t *testing.T) {
	result, err := Merge(scenarioBody, []Update{{Domain: "Legal"}}, MergeOptions{})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected row count unchanged, got %d", len(result.Rows))
	}
}

func TestMergeAppendsUnknownDomainWhenAllowed(t *testing.T) {
	result, err := Merge(scenarioBody, []Update{{Domain: "legal Ops"}}, MergeOptions{AllowAppend: true})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected two rows, got %v", result.Rows)
	}
	want := Row{Domain: "legal Ops", RequiredApprover: "-", Status: "Pending", ApprovedBy: "-", Date: "-"}
	if result.Rows[1] != want {
		t.Fatalf("unexpected appended row %+v", result.Rows[1])
	}
}

func TestMergeLaterUpdatesWin(t *testing.T) {
	result, err := Merge(scenarioBody, []Update{
		{Domain: "IT", Status: String("Rejected")},
		{Domain: "It", Status: String("Approved")},
	}, MergeOptions{})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if result.Rows[0].Status != "Approved" || result.Rows[0].Domain != "It" {
		t.Fatalf("expected last update to win, got %+v", result.Rows[0])
	}
}

func TestMergeFailsWithoutTable(t *testing.T) {
	_, err := Merge("no table here", nil, MergeOptions{})
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestMergeCreatesTableWhenMissing(t *testing.T) {
	body := "# Title\n\nSome details\n\n"
	result, err := Merge(body, []Update{{Domain: "Security"}}, MergeOptions{
		CreateIfMissing: true,
		DefaultRows:     PendingRows([]string{"IT"}, map[string]string{"IT": "it@x.com"}),
	})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected default row plus appended row, got %v", result.Rows)
	}
	if !strings.HasPrefix(result.Body, "# Title\n\nSome details\n\n"+Title) {
		t.Fatalf("unexpected body %q", result.Body)
	}
	if table := Extract(result.Body); table == nil || !reflect.DeepEqual(table.Rows, result.Rows) {
		t.Fatalf("expected created table to round trip, got %+v", table)
	}
}

func TestMergeCreateOnEmptyBodyHasNoLeadingSeparator(t *testing.T) {
	result, err := Merge("  \n", nil, MergeOptions{CreateIfMissing: true})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if !strings.HasPrefix(result.Body, Title) {
		t.Fatalf("expected body to start with title, got %q", result.Body)
	}
}

func TestMergePreservesContentOutsideFence(t *testing.T) {
	body := "# Title\n\nSome details\n\n" + Render([]Row{{Domain: "IT", RequiredApprover: "a", Status: "Pending", ApprovedBy: "-", Date: "-"}}) + "\n\nTrailing *notes*  \n"
	result, err := Merge(body, []Update{{Domain: "IT", Status: String("Approved")}}, MergeOptions{})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if !strings.HasPrefix(result.Body, "# Title\n\nSome details\n\n") {
		t.Fatalf("expected prefix preserved, got %q", result.Body)
	}
	if !strings.HasSuffix(result.Body, Footer+"\n\nTrailing *notes*  \n") {
		t.Fatalf("expected suffix preserved, got %q", result.Body)
	}
}

func TestParseDecisions(t *testing.T) {
	comment := "Looks good.\n/approve IT\n  /REJECT Legal Ops  \nnot /approve inline"
	got := ParseDecisions(comment)
	want := []Decision{{Domain: "IT", Status: StatusApproved}, {Domain: "Legal Ops", Status: StatusRejected}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected decisions %v", got)
	}

	updates := DecisionUpdates(got, "alex", time.Date(2026, 2, 13, 9, 0, 0, 0, time.UTC))
	if len(updates) != 2 || *updates[0].Date != "2026-02-13" || *updates[1].ApprovedBy != "alex" {
		t.Fatalf("unexpected updates %+v", updates)
	}
}
