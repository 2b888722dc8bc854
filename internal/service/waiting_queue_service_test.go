package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestQueueKey_PerClinicPerDay(t *testing.T) {
	clinic := uuid.MustParse("7f1c2a64-5a0b-4bb5-9d2f-0a6b7e1d9c11")
	day := time.Date(2024, 3, 4, 17, 30, 0, 0, time.UTC)

	want := "clinic:queue:7f1c2a64-5a0b-4bb5-9d2f-0a6b7e1d9c11:2024-03-04"
	if got := QueueKey(clinic, day); got != want {
		t.Errorf("QueueKey = %q, want %q", got, want)
	}
}

func TestTicketTTL(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	if got := ticketTTL(day, day.Add(9*time.Hour)); got != 39*time.Hour {
		t.Errorf("ttl = %v, want 39h", got)
	}
	if got := ticketTTL(day, day.AddDate(0, 0, 5)); got != time.Hour {
		t.Errorf("stale day ttl = %v, want 1h floor", got)
	}
}
