package models

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datePattern matches the timestamp column of the monitoring page,
// e.g. "2024.03.15. 08:30:00" (literal dot after the day, space separator).
var datePattern = regexp.MustCompile(`(\d{4})\.(\d{2})\.(\d{2})\. (\d{2}):(\d{2}):(\d{2})`)

// MeasurementRecord is one parsed row of the monitoring page.
// The stored document shape matches this struct exactly: a flat object
// with six fields, keyed by ID.
type MeasurementRecord struct {
	ID        string  `json:"id" db:"id" firestore:"id"`
	Date      string  `json:"date" db:"date_text" firestore:"date"`
	Timestamp int64   `json:"timestamp" db:"ts" firestore:"timestamp"`
	Weight    float64 `json:"weight" db:"weight" firestore:"weight"`
	Battery   float64 `json:"battery" db:"battery" firestore:"battery"`
	Temp      float64 `json:"temp" db:"temp" firestore:"temp"`
}

// RawMeasurementRow holds the trimmed cell texts of a single table row
// before validation. Used during page parsing.
type RawMeasurementRow struct {
	Date    string
	Weight  string
	Battery string
	Temp    string
}

// ToRecord converts a RawMeasurementRow into a MeasurementRecord.
// The date must match datePattern; the three readings must parse as finite
// numbers after comma-to-dot normalization. A record is produced only when
// all four values parse — there are no partial records.
//
// The timestamp is built in the local time zone, the zone the monitoring
// page reports in. ID is derived from the timestamp, so two rows carrying
// the same date string collide and the later write wins.
func (r *RawMeasurementRow) ToRecord() (*MeasurementRecord, error) {
	m := datePattern.FindStringSubmatch(r.Date)
	if m == nil {
		return nil, &ValidationError{
			Field:   "date",
			Value:   r.Date,
			Message: "invalid date format, expected YYYY.MM.DD. HH:MM:SS",
		}
	}

	// Captures are all-digit by construction, Atoi cannot fail here.
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])

	// The page prints 1-based months and time.Date takes 1-based months,
	// so the month carries over without an offset. Out-of-range components
	// normalize the same way the source system's date constructor did.
	moment := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)

	weight, err := parseReading(r.Weight)
	if err != nil {
		return nil, &ValidationError{Field: "weight", Value: r.Weight, Message: "invalid weight reading"}
	}

	battery, err := parseReading(r.Battery)
	if err != nil {
		return nil, &ValidationError{Field: "battery", Value: r.Battery, Message: "invalid battery reading"}
	}

	temp, err := parseReading(r.Temp)
	if err != nil {
		return nil, &ValidationError{Field: "temp", Value: r.Temp, Message: "invalid temperature reading"}
	}

	ts := moment.UnixMilli()

	return &MeasurementRecord{
		ID:        strconv.FormatInt(ts, 10),
		Date:      r.Date,
		Timestamp: ts,
		Weight:    weight,
		Battery:   battery,
		Temp:      temp,
	}, nil
}

// parseReading parses a decimal cell where the fractional separator may be
// a comma. Values that are not finite numbers are rejected.
func parseReading(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{Field: "reading", Value: s, Message: "reading is not a finite number"}
	}
	return v, nil
}

// ValidationError represents a data validation error on a single row value.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
