// Package parser extracts measurement records from the raw HTML of the
// scale monitoring page. Parsing is pure: no I/O, no logging — rows that
// cannot be parsed are reported back to the caller as skips.
package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pallagj/behave-backend/internal/models"
)

const (
	// The data table starts with two header rows.
	headerRowCount = 2
	// Data rows carry date, weight, battery and temperature cells.
	cellsPerRow = 4
)

// SkippedRow reports a table row that produced no record. One malformed
// row never aborts the batch; the caller decides how to log it.
type SkippedRow struct {
	Index  int    // row index within the data table, headers included
	Raw    string // whitespace-collapsed text content of the row
	Reason string
}

// Parse extracts measurement records from the monitoring page HTML.
//
// The page is expected to hold the readings in its last table: earlier
// tables are layout and navigation. The first two rows of that table are
// headers and skipped unconditionally. Every remaining row must have
// exactly four cells that all parse; anything else becomes a SkippedRow.
// Records come back in source row order, top to bottom.
func Parse(html string) ([]models.MeasurementRecord, []SkippedRow) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// The underlying tokenizer is lenient and a string reader cannot
		// fail, so this is unreachable in practice. Unreadable input
		// yields an empty result either way.
		return nil, nil
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, nil
	}

	var (
		records []models.MeasurementRecord
		skipped []SkippedRow
	)

	tables.Last().Find("tr").Each(func(i int, row *goquery.Selection) {
		if i < headerRowCount {
			return
		}

		cells := row.Find("td")
		if cells.Length() != cellsPerRow {
			skipped = append(skipped, SkippedRow{
				Index:  i,
				Raw:    rowText(row),
				Reason: fmt.Sprintf("expected %d cells, got %d", cellsPerRow, cells.Length()),
			})
			return
		}

		raw := models.RawMeasurementRow{
			Date:    strings.TrimSpace(cells.Eq(0).Text()),
			Weight:  strings.TrimSpace(cells.Eq(1).Text()),
			Battery: strings.TrimSpace(cells.Eq(2).Text()),
			Temp:    strings.TrimSpace(cells.Eq(3).Text()),
		}

		rec, err := raw.ToRecord()
		if err != nil {
			skipped = append(skipped, SkippedRow{
				Index:  i,
				Raw:    rowText(row),
				Reason: err.Error(),
			})
			return
		}

		records = append(records, *rec)
	})

	return records, skipped
}

// rowText renders a row for skip logs: cell texts separated by single
// spaces, surrounding whitespace dropped.
func rowText(row *goquery.Selection) string {
	return strings.Join(strings.Fields(row.Text()), " ")
}
