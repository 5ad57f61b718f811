// Package report derives display classification from a diagnostic record.
// Everything here is a pure function of the record's fields.
package report

import (
	"strings"

	"github.com/mrsinham/pancrascan/internal/records"
)

// HighRisk is the literal risk tier the remote service assigns above its
// confidence threshold.
const HighRisk = "High"

// IsMalignant reports whether the diagnosis denotes a cancerous finding.
// The remote service encodes the classification as the substring "Malignant"
// inside the free-text diagnosis, and that substring (case-sensitive) is the
// sole source of truth; there is no structured field to read instead.
func IsMalignant(r records.Record) bool {
	return strings.Contains(r.Diagnosis, "Malignant")
}

// IsHighRisk reports whether the record carries the High risk tier. Unlike
// the malignancy test this is an exact, case-sensitive comparison: "high"
// or "HIGH" do not qualify.
func IsHighRisk(r records.Record) bool {
	return r.RiskLevel == HighRisk
}
