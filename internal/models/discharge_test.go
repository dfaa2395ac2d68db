package models

import (
	"testing"
	"time"
)

// TestRawUVFRecord_ToSample tests the conversion logic
func TestRawUVFRecord_ToSample(t *testing.T) {
	tests := []struct {
		name        string
		record      RawUVFRecord
		wantErr     bool
		checkValues func(*testing.T, *Sample)
	}{
		{
			name:   "valid record in the 1900s",
			record: RawUVFRecord{Timestamp: "7511010600", Value: "12.5"},
			checkValues: func(t *testing.T, s *Sample) {
				expected := time.Date(1975, 11, 1, 6, 0, 0, 0, time.UTC)
				if !s.Time.Equal(expected) {
					t.Errorf("Time = %v, want %v", s.Time, expected)
				}
				if s.Value != 12.5 {
					t.Errorf("Value = %v, want %v", s.Value, 12.5)
				}
			},
		},
		{
			name:   "century pivot 49 maps to 2049",
			record: RawUVFRecord{Timestamp: "4912312355", Value: "0"},
			checkValues: func(t *testing.T, s *Sample) {
				if s.Time.Year() != 2049 {
					t.Errorf("Year = %v, want %v", s.Time.Year(), 2049)
				}
			},
		},
		{
			name:   "century pivot 50 maps to 1950",
			record: RawUVFRecord{Timestamp: "5001010000", Value: "1"},
			checkValues: func(t *testing.T, s *Sample) {
				if s.Time.Year() != 1950 {
					t.Errorf("Year = %v, want %v", s.Time.Year(), 1950)
				}
			},
		},
		{
			name:   "value with surrounding whitespace",
			record: RawUVFRecord{Timestamp: "0602281205", Value: "   3.25  "},
			checkValues: func(t *testing.T, s *Sample) {
				if s.Value != 3.25 {
					t.Errorf("Value = %v, want %v", s.Value, 3.25)
				}
			},
		},
		{
			name:    "february 30th",
			record:  RawUVFRecord{Timestamp: "0602301200", Value: "1"},
			wantErr: true,
		},
		{
			name:    "hour 24",
			record:  RawUVFRecord{Timestamp: "0601012400", Value: "1"},
			wantErr: true,
		},
		{
			name:    "month 13",
			record:  RawUVFRecord{Timestamp: "0613011200", Value: "1"},
			wantErr: true,
		},
		{
			name:    "non digit timestamp",
			record:  RawUVFRecord{Timestamp: "06-1011200", Value: "1"},
			wantErr: true,
		},
		{
			name:    "short timestamp",
			record:  RawUVFRecord{Timestamp: "0601011", Value: "1"},
			wantErr: true,
		},
		{
			name:    "unparsable value",
			record:  RawUVFRecord{Timestamp: "0601011200", Value: "abc"},
			wantErr: true,
		},
		{
			name:    "negative value",
			record:  RawUVFRecord{Timestamp: "0601011200", Value: "-0.5"},
			wantErr: true,
		},
		{
			name:    "not a number",
			record:  RawUVFRecord{Timestamp: "0601011200", Value: "NaN"},
			wantErr: true,
		},
		{
			name:    "infinite value",
			record:  RawUVFRecord{Timestamp: "0601011200", Value: "+Inf"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.record.ToSample()

			if (err != nil) != tt.wantErr {
				t.Errorf("ToSample() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkValues != nil {
				tt.checkValues(t, s)
			}
		})
	}
}

func TestIsDigits(t *testing.T) {
	cases := map[string]bool{
		"":           false,
		"0123456789": true,
		"12a4":       false,
		" 123":       false,
		"٣":          false,
	}
	for in, want := range cases {
		if got := IsDigits(in); got != want {
			t.Errorf("IsDigits(%q) = %v, want %v", in, got, want)
		}
	}
}

// TestValidationError tests error handling
func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "timestamp",
		Value:   "invalid",
		Message: "invalid calendar date",
	}

	if err.Error() != "invalid calendar date" {
		t.Errorf("Error() = %v, want %v", err.Error(), "invalid calendar date")
	}

	if err.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
}
