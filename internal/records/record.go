// Package records holds the per-clinician diagnostic history: the record
// model as returned by the remote service, and a store that caches the
// collection between fetches and filters it locally.
package records

// Record is one persisted diagnostic result, exactly as the remote service
// returns it. Records are immutable once received; the client never
// constructs one itself.
type Record struct {
	ID          string `json:"_id"`
	PatientName string `json:"patient_name"`
	PatientID   string `json:"patient_id"`
	Diagnosis   string `json:"diagnosis"`
	// Confidence is a percentage label the service formats ("92.50%");
	// it is displayed verbatim, never parsed.
	Confidence string `json:"confidence"`
	RiskLevel   string `json:"risk_level"`
	ScanDate    string `json:"scan_date"`
}
