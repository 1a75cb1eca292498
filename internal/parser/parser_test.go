package parser

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"
)

const pageHead = `<!DOCTYPE html>
<html>
<head><title>Kaptár monitor</title></head>
<body>
<table class="nav"><tr><td>Home</td></tr></table>
`

const pageFoot = `
</body>
</html>
`

// dataTable wraps rows into the page's data table, prefixed with the two
// header rows the parser must skip.
func dataTable(rows ...string) string {
	var b strings.Builder
	b.WriteString(`<table class="data">`)
	b.WriteString(`<tr><th colspan="4">Hive 12 - scale readings</th></tr>`)
	b.WriteString(`<tr><th>Date</th><th>Weight (kg)</th><th>Battery (V)</th><th>Temp (C)</th></tr>`)
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString(`</table>`)
	return b.String()
}

func dataRow(date, weight, battery, temp string) string {
	return fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>", date, weight, battery, temp)
}

func TestParse_ValidRows(t *testing.T) {
	html := pageHead + dataTable(
		dataRow("2024.03.15. 08:30:00", "42.7", "3.91", "18.2"),
		dataRow("2024.03.15. 09:30:00", "42,9", "3,90", "19,1"),
		dataRow("2024.03.15. 10:30:00", "43.0", "3.89", "20.4"),
	) + pageFoot

	records, skipped := Parse(html)

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if len(skipped) != 0 {
		t.Fatalf("expected no skips, got %d: %+v", len(skipped), skipped)
	}

	// Source order preserved, one record per row.
	wantDates := []string{"2024.03.15. 08:30:00", "2024.03.15. 09:30:00", "2024.03.15. 10:30:00"}
	for i, rec := range records {
		if rec.Date != wantDates[i] {
			t.Errorf("record %d: Date = %q, want %q", i, rec.Date, wantDates[i])
		}
	}

	wantTS := time.Date(2024, time.March, 15, 8, 30, 0, 0, time.Local).UnixMilli()
	if records[0].Timestamp != wantTS {
		t.Errorf("Timestamp = %d, want %d", records[0].Timestamp, wantTS)
	}
	if records[0].ID != strconv.FormatInt(wantTS, 10) {
		t.Errorf("ID = %q, want decimal string of timestamp", records[0].ID)
	}

	// Comma decimals normalized in the second row.
	if records[1].Weight != 42.9 || records[1].Battery != 3.9 || records[1].Temp != 19.1 {
		t.Errorf("comma row parsed as %+v", records[1])
	}
}

func TestParse_UsesLastTableOnly(t *testing.T) {
	// The leading nav table has a single four-cell row that must not be
	// mistaken for data.
	html := `<html><body>
<table><tr><td>2024.03.15. 08:30:00</td><td>1.0</td><td>1.0</td><td>1.0</td></tr></table>
` + dataTable(
		dataRow("2024.03.16. 12:00:00", "41.5", "4.01", "15.0"),
	) + `</body></html>`

	records, _ := Parse(html)

	if len(records) != 1 {
		t.Fatalf("expected 1 record from the last table, got %d", len(records))
	}
	if records[0].Date != "2024.03.16. 12:00:00" {
		t.Errorf("record came from the wrong table: %+v", records[0])
	}
}

func TestParse_HeaderOnlyTable(t *testing.T) {
	html := pageHead + dataTable() + pageFoot

	records, skipped := Parse(html)

	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
	if len(skipped) != 0 {
		t.Errorf("expected no skips for header rows, got %d", len(skipped))
	}
}

func TestParse_NoTable(t *testing.T) {
	records, skipped := Parse("<html><body><p>maintenance</p></body></html>")

	if len(records) != 0 || len(skipped) != 0 {
		t.Errorf("expected empty result, got %d records, %d skips", len(records), len(skipped))
	}
}

func TestParse_WrongCellCountIsIsolated(t *testing.T) {
	html := pageHead + dataTable(
		dataRow("2024.03.15. 08:30:00", "42.7", "3.91", "18.2"),
		`<tr><td colspan="4">--- end of day ---</td></tr>`,
		`<tr><td>a</td><td>b</td><td>c</td><td>d</td><td>e</td></tr>`,
		dataRow("2024.03.15. 09:30:00", "42.9", "3.90", "19.1"),
	) + pageFoot

	records, skipped := Parse(html)

	if len(records) != 2 {
		t.Fatalf("expected 2 records around the skipped rows, got %d", len(records))
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skips, got %d", len(skipped))
	}
	if !strings.Contains(skipped[0].Reason, "cells") {
		t.Errorf("skip reason = %q, want a cell count reason", skipped[0].Reason)
	}
	if skipped[0].Raw != "--- end of day ---" {
		t.Errorf("skip raw = %q, want the row text", skipped[0].Raw)
	}
}

func TestParse_BadValuesAreIsolated(t *testing.T) {
	html := pageHead + dataTable(
		dataRow("15/03/2024 08:30", "42.7", "3.91", "18.2"),
		dataRow("2024.03.15. 09:30:00", "offline", "3.90", "19.1"),
		dataRow("2024.03.15. 10:30:00", "43.0", "3.89", "20.4"),
	) + pageFoot

	records, skipped := Parse(html)

	if len(records) != 1 {
		t.Fatalf("expected 1 valid record, got %d", len(records))
	}
	if records[0].Date != "2024.03.15. 10:30:00" {
		t.Errorf("surviving record = %+v", records[0])
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skips, got %d", len(skipped))
	}
	if !strings.Contains(skipped[0].Raw, "15/03/2024") {
		t.Errorf("skip should carry the raw row text, got %q", skipped[0].Raw)
	}
}

func TestParse_TrimsCellWhitespace(t *testing.T) {
	html := pageHead + dataTable(
		dataRow("\n  2024.03.15. 08:30:00  ", "  42.7\n", "\t3.91", " 18.2 "),
	) + pageFoot

	records, skipped := Parse(html)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d (skips: %+v)", len(records), skipped)
	}
	if records[0].Date != "2024.03.15. 08:30:00" {
		t.Errorf("Date = %q, want trimmed text", records[0].Date)
	}
	if records[0].Weight != 42.7 {
		t.Errorf("Weight = %v, want 42.7", records[0].Weight)
	}
}

func TestParse_DuplicateDatesCollideByID(t *testing.T) {
	html := pageHead + dataTable(
		dataRow("2024.03.15. 08:30:00", "42.7", "3.91", "18.2"),
		dataRow("2024.03.15. 08:30:00", "99.9", "3.00", "10.0"),
	) + pageFoot

	records, _ := Parse(html)

	if len(records) != 2 {
		t.Fatalf("expected both rows to parse, got %d", len(records))
	}
	if records[0].ID != records[1].ID {
		t.Errorf("expected identical IDs for identical dates, got %q and %q", records[0].ID, records[1].ID)
	}
}
