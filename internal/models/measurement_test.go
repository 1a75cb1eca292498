package models

import (
	"strconv"
	"testing"
	"time"
)

// TestRawMeasurementRow_ToRecord tests the row conversion logic
func TestRawMeasurementRow_ToRecord(t *testing.T) {
	tests := []struct {
		name        string
		row         RawMeasurementRow
		wantErr     bool
		checkValues func(*testing.T, *MeasurementRecord)
	}{
		{
			name: "valid row with dot decimals",
			row: RawMeasurementRow{
				Date:    "2024.03.15. 08:30:00",
				Weight:  "42.7",
				Battery: "3.91",
				Temp:    "18.2",
			},
			wantErr: false,
			checkValues: func(t *testing.T, rec *MeasurementRecord) {
				wantTS := time.Date(2024, time.March, 15, 8, 30, 0, 0, time.Local).UnixMilli()
				if rec.Timestamp != wantTS {
					t.Errorf("Timestamp = %v, want %v", rec.Timestamp, wantTS)
				}
				if rec.ID != strconv.FormatInt(wantTS, 10) {
					t.Errorf("ID = %v, want %v", rec.ID, strconv.FormatInt(wantTS, 10))
				}
				if rec.Date != "2024.03.15. 08:30:00" {
					t.Errorf("Date = %v, want original text", rec.Date)
				}
				if rec.Weight != 42.7 {
					t.Errorf("Weight = %v, want %v", rec.Weight, 42.7)
				}
				if rec.Battery != 3.91 {
					t.Errorf("Battery = %v, want %v", rec.Battery, 3.91)
				}
				if rec.Temp != 18.2 {
					t.Errorf("Temp = %v, want %v", rec.Temp, 18.2)
				}
			},
		},
		{
			name: "comma decimal separators are normalized",
			row: RawMeasurementRow{
				Date:    "2024.03.15. 08:30:00",
				Weight:  "12,5",
				Battery: "4,02",
				Temp:    "-1,8",
			},
			wantErr: false,
			checkValues: func(t *testing.T, rec *MeasurementRecord) {
				if rec.Weight != 12.5 {
					t.Errorf("Weight = %v, want %v", rec.Weight, 12.5)
				}
				if rec.Battery != 4.02 {
					t.Errorf("Battery = %v, want %v", rec.Battery, 4.02)
				}
				if rec.Temp != -1.8 {
					t.Errorf("Temp = %v, want %v", rec.Temp, -1.8)
				}
			},
		},
		{
			name: "negative winter temperature is valid",
			row: RawMeasurementRow{
				Date:    "2024.01.02. 06:00:00",
				Weight:  "38.4",
				Battery: "3.55",
				Temp:    "-12.0",
			},
			wantErr: false,
			checkValues: func(t *testing.T, rec *MeasurementRecord) {
				if rec.Temp != -12.0 {
					t.Errorf("Temp = %v, want %v", rec.Temp, -12.0)
				}
			},
		},
		{
			name: "invalid date format",
			row: RawMeasurementRow{
				Date:    "2024-03-15 08:30:00",
				Weight:  "42.7",
				Battery: "3.91",
				Temp:    "18.2",
			},
			wantErr: true,
		},
		{
			name: "empty date",
			row: RawMeasurementRow{
				Date:    "",
				Weight:  "42.7",
				Battery: "3.91",
				Temp:    "18.2",
			},
			wantErr: true,
		},
		{
			name: "non-numeric weight",
			row: RawMeasurementRow{
				Date:    "2024.03.15. 08:30:00",
				Weight:  "n/a",
				Battery: "3.91",
				Temp:    "18.2",
			},
			wantErr: true,
		},
		{
			name: "NaN literal is rejected as non-finite",
			row: RawMeasurementRow{
				Date:    "2024.03.15. 08:30:00",
				Weight:  "NaN",
				Battery: "3.91",
				Temp:    "18.2",
			},
			wantErr: true,
		},
		{
			name: "infinity literal is rejected as non-finite",
			row: RawMeasurementRow{
				Date:    "2024.03.15. 08:30:00",
				Weight:  "42.7",
				Battery: "+Inf",
				Temp:    "18.2",
			},
			wantErr: true,
		},
		{
			name: "empty numeric cell",
			row: RawMeasurementRow{
				Date:    "2024.03.15. 08:30:00",
				Weight:  "42.7",
				Battery: "3.91",
				Temp:    "",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := tt.row.ToRecord()

			if (err != nil) != tt.wantErr {
				t.Errorf("ToRecord() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkValues != nil {
				tt.checkValues(t, rec)
			}
		})
	}
}

// TestRawMeasurementRow_IDCollision verifies that two rows with the same
// date string derive the same ID, so the later row overwrites the earlier.
func TestRawMeasurementRow_IDCollision(t *testing.T) {
	first := RawMeasurementRow{Date: "2024.03.15. 08:30:00", Weight: "42.7", Battery: "3.91", Temp: "18.2"}
	second := RawMeasurementRow{Date: "2024.03.15. 08:30:00", Weight: "43.1", Battery: "3.88", Temp: "19.0"}

	a, err := first.ToRecord()
	if err != nil {
		t.Fatalf("first.ToRecord() error = %v", err)
	}
	b, err := second.ToRecord()
	if err != nil {
		t.Fatalf("second.ToRecord() error = %v", err)
	}

	if a.ID != b.ID {
		t.Errorf("IDs differ for identical dates: %v vs %v", a.ID, b.ID)
	}
	if a.Weight == b.Weight {
		t.Error("expected distinct readings in colliding rows")
	}
}

// TestValidationError tests error handling
func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "date",
		Value:   "invalid",
		Message: "invalid date format",
	}

	if err.Error() != "invalid date format" {
		t.Errorf("Error() = %v, want %v", err.Error(), "invalid date format")
	}

	if err.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
}
