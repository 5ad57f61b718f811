package records

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func fixedFetch(recs []Record, err error) FetchFunc {
	return func(ctx context.Context, identity string) ([]Record, error) {
		return recs, err
	}
}

var sampleRecords = []Record{
	{ID: "1", PatientName: "Marie Curie", PatientID: "PID-001", Diagnosis: "Malignant - Stage II", Confidence: "92.50%", RiskLevel: "High", ScanDate: "2025-03-01"},
	{ID: "2", PatientName: "John Doe", PatientID: "PID-002", Diagnosis: "Benign", Confidence: "88.00%", RiskLevel: "Low", ScanDate: "2025-03-02"},
	{ID: "3", PatientName: "Jane Marsh", PatientID: "XID-003", Diagnosis: "Benign", Confidence: "71.20%", RiskLevel: "Medium", ScanDate: "2025-03-05"},
}

func TestStoreFetchApply(t *testing.T) {
	s := NewStore()

	thunk := s.Fetch(context.Background(), "drjones", fixedFetch(sampleRecords, nil))
	if s.Loaded() {
		t.Error("store should not be loaded before the outcome is applied")
	}

	if !s.Apply(thunk()) {
		t.Fatal("expected outcome to be accepted")
	}
	if !s.Loaded() {
		t.Error("store should be loaded after a successful apply")
	}
	if len(s.Records()) != 3 {
		t.Errorf("Expected 3 records, got %d", len(s.Records()))
	}
	if s.Identity() != "drjones" {
		t.Errorf("Expected identity drjones, got %s", s.Identity())
	}
}

func TestStoreFetchError(t *testing.T) {
	s := NewStore()
	if ok := s.Apply(s.Fetch(context.Background(), "drjones", fixedFetch(sampleRecords, nil))()); !ok {
		t.Fatal("seeding fetch should be accepted")
	}

	thunk := s.Fetch(context.Background(), "drjones", fixedFetch(nil, fmt.Errorf("boom")))
	outcome := thunk()
	if !errors.Is(outcome.Err, ErrFetch) {
		t.Errorf("Expected ErrFetch, got %v", outcome.Err)
	}
	if s.Apply(outcome) {
		t.Error("failed outcome should not be accepted")
	}
	if len(s.Records()) != 3 {
		t.Errorf("failed fetch must leave the previous collection intact, got %d records", len(s.Records()))
	}
}

func TestStoreLastIssuedWins(t *testing.T) {
	s := NewStore()

	first := s.Fetch(context.Background(), "drjones", fixedFetch(sampleRecords[:1], nil))
	second := s.Fetch(context.Background(), "drjones", fixedFetch(sampleRecords, nil))

	// The later-issued fetch completes first.
	if !s.Apply(second()) {
		t.Fatal("latest fetch should be accepted")
	}
	if s.Apply(first()) {
		t.Error("stale fetch should be dropped")
	}
	if len(s.Records()) != 3 {
		t.Errorf("Expected the latest collection (3 records), got %d", len(s.Records()))
	}
}

func TestStoreInvalidateDropsPendingFetch(t *testing.T) {
	s := NewStore()
	thunk := s.Fetch(context.Background(), "drjones", fixedFetch(sampleRecords, nil))

	s.Invalidate()
	if s.Apply(thunk()) {
		t.Error("outcome issued before Invalidate should be dropped")
	}
	if s.Loaded() {
		t.Error("store should not be loaded after Invalidate")
	}
}

func TestStoreSearch(t *testing.T) {
	s := NewStore()
	if ok := s.Apply(s.Fetch(context.Background(), "drjones", fixedFetch(sampleRecords, nil))()); !ok {
		t.Fatal("seeding fetch should be accepted")
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"empty query matches all", "", []string{"1", "2", "3"}},
		{"name substring", "mar", []string{"1", "3"}},
		{"case insensitive", "MARIE", []string{"1"}},
		{"patient id substring", "pid-", []string{"1", "2"}},
		{"id or name", "x", []string{"3"}},
		{"no match", "zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Search(tt.query)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Expected %d matches, got %d", len(tt.wantIDs), len(got))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("match %d: expected record %s, got %s", i, want, got[i].ID)
				}
			}
		})
	}
}

func TestStoreSearchReturnsFreshSlice(t *testing.T) {
	s := NewStore()
	if ok := s.Apply(s.Fetch(context.Background(), "drjones", fixedFetch(sampleRecords, nil))()); !ok {
		t.Fatal("seeding fetch should be accepted")
	}

	got := s.Search("")
	got[0].PatientName = "mutated"
	if s.Records()[0].PatientName != "Marie Curie" {
		t.Error("mutating a search result must not touch the store")
	}
}
