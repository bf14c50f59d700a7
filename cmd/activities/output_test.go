package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintRowsPlainOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printRows(&buf, []outputRow{
		{Key: "schedule", Value: "Fridays, 3:30 PM - 5:00 PM"},
		{Key: "enrolled", Value: "2/12"},
	})

	got := buf.String()
	for _, fragment := range []string{
		"schedule: Fridays, 3:30 PM - 5:00 PM",
		"enrolled: 2/12",
	} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("plain output missing %q: %s", fragment, got)
		}
	}
}

func TestColorizeValueLeavesUnknownValuesUntouched(t *testing.T) {
	t.Parallel()

	value := "custom-value"
	if got := colorizeValue(value); got != value {
		t.Fatalf("colorizeValue(%q) = %q, want %q", value, got, value)
	}
}

func TestColorizeValueEnrollment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		color string
	}{
		{value: "2/12", color: ansiGreen},
		{value: "12/12", color: ansiYellow},
		{value: "13/12", color: ansiRed},
		{value: "-", color: ansiYellow},
	}
	for _, tt := range tests {
		if got := colorizeValue(tt.value); !strings.HasPrefix(got, tt.color) {
			t.Errorf("colorizeValue(%q) = %q, want prefix %q", tt.value, got, tt.color)
		}
	}
}

func TestParseEnrollment(t *testing.T) {
	t.Parallel()

	if _, _, ok := parseEnrollment("Fridays / Mondays"); ok {
		t.Fatal("parseEnrollment accepted non-numeric value")
	}
	enrolled, capacity, ok := parseEnrollment("3/20")
	if !ok || enrolled != 3 || capacity != 20 {
		t.Fatalf("parseEnrollment(3/20) = %d, %d, %t", enrolled, capacity, ok)
	}
}
