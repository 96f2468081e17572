package service

import (
	"errors"
	"testing"

	"github.com/spardha-tech/spardha-backend/internal/model"
)

func TestValidateScheduleFields(t *testing.T) {
	cases := []struct {
		name       string
		isDuration bool
		duration   string
		startDate  string
		startTime  string
		endDate    string
		endTime    string
		wantErr    bool
	}{
		{name: "duration mode valid span", isDuration: true, duration: "00:02:30:00"},
		{name: "duration mode unconfigured", isDuration: true},
		{name: "duration mode malformed span", isDuration: true, duration: "2h30m", wantErr: true},
		{name: "fixed mode valid window", startDate: "01-09-2026", startTime: "10:00", endDate: "01-09-2026", endTime: "12:00"},
		{name: "fixed mode unconfigured"},
		{name: "fixed mode partial fields", startDate: "01-09-2026", wantErr: true},
		{name: "fixed mode bad date", startDate: "2026-09-01", startTime: "10:00", endDate: "01-09-2026", endTime: "12:00", wantErr: true},
		{name: "fixed mode bad time", startDate: "01-09-2026", startTime: "25:00", endDate: "01-09-2026", endTime: "12:00", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateScheduleFields(tc.isDuration, tc.duration, tc.startDate, tc.startTime, tc.endDate, tc.endTime)
			if tc.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr && !errors.Is(err, ErrBadSchedule) {
				t.Fatalf("error %v is not ErrBadSchedule", err)
			}
		})
	}
}

func TestEntryTokenShape(t *testing.T) {
	num := "21BCE1234"
	token := buildEntryToken(&model.Participant{Name: "Priya Sharma", EnrollmentNumber: &num})
	if len(token) < 12 {
		t.Fatalf("token %q too short", token)
	}
	for _, r := range token {
		if r >= 'A' && r <= 'Z' {
			t.Fatalf("token %q contains uppercase", token)
		}
	}
}
