package util

import (
	"testing"
	"time"
)

func TestAddMonthsClamped_Normal(t *testing.T) {
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	got := AddMonthsClamped(start, 1)
	want := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestAddMonthsClamped_ClampsToFebruary(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	got := AddMonthsClamped(start, 1)
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC) // 2024 is a leap year
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestAddMonthsClamped_NonLeapFebruary(t *testing.T) {
	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	got := AddMonthsClamped(start, 1)
	want := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestAddMonthsClamped_YearWrap(t *testing.T) {
	start := time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)
	got := AddMonthsClamped(start, 3)
	want := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestAddMonthsClamped_ManyPeriods(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	got := AddMonthsClamped(start, 12)
	want := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestWholeDaysBetween(t *testing.T) {
	a := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if d := WholeDaysBetween(a, a); d != 0 {
		t.Errorf("Expected 0 for equal dates, got %d", d)
	}
	if d := WholeDaysBetween(a, a.AddDate(0, 0, 5)); d != 5 {
		t.Errorf("Expected 5, got %d", d)
	}
	// Partial days round up.
	if d := WholeDaysBetween(a, a.Add(25*time.Hour)); d != 2 {
		t.Errorf("Expected 2 for 25h, got %d", d)
	}
	// Earlier end yields zero.
	if d := WholeDaysBetween(a, a.AddDate(0, 0, -3)); d != 0 {
		t.Errorf("Expected 0 for earlier end, got %d", d)
	}
}
