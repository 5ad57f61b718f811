// Package submission accumulates the patient metadata form and the attached
// scan into a single diagnostic request. Fields are collected in any order
// and validated only at submission time.
package submission

import (
	"fmt"
	"strconv"

	"github.com/mrsinham/pancrascan/internal/scan"
)

// Field names accepted by SetField, matching the remote form fields.
const (
	FieldPatientID = "patient_id"
	FieldName      = "name"
	FieldAge       = "age"
	FieldSex       = "sex"
	FieldSymptoms  = "symptoms"
)

// Sex values accepted by the remote service.
var sexValues = []string{"Male", "Female", "Other"}

// Metadata is the structured patient information for one submission. Age
// stays a string until validation, the same way the form binds it.
type Metadata struct {
	PatientID string
	Name      string
	Age       string
	Sex       string
	Symptoms  string
}

// ValidationError reports the first form violation found. It is resolved
// entirely client-side; a request that fails validation never reaches the
// network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Request is one immutable, fully validated diagnostic payload. The identity
// is snapshotted at build time and not re-read later.
type Request struct {
	Identity string
	Metadata Metadata
	AgeYears int
	Payload  []byte
	Filename string
}

// Builder collects metadata fields and the scan asset for the next
// submission.
type Builder struct {
	meta  Metadata
	asset *scan.Asset
}

// NewBuilder creates a builder with the form's default sex selection.
func NewBuilder() *Builder {
	return &Builder{meta: Metadata{Sex: "Male"}}
}

// SetField updates one metadata field. No validation happens here so the
// user can fill the form in any order.
func (b *Builder) SetField(name, value string) error {
	switch name {
	case FieldPatientID:
		b.meta.PatientID = value
	case FieldName:
		b.meta.Name = value
	case FieldAge:
		b.meta.Age = value
	case FieldSex:
		b.meta.Sex = value
	case FieldSymptoms:
		b.meta.Symptoms = value
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

// SetMetadata replaces the whole form at once, for callers that already hold
// a bound struct.
func (b *Builder) SetMetadata(m Metadata) {
	b.meta = m
}

// Metadata returns the current form values.
func (b *Builder) Metadata() Metadata {
	return b.meta
}

// AttachAsset stores the pending scan. Exactly one asset may be attached;
// the previous one, along with its preview, is revoked immediately.
func (b *Builder) AttachAsset(a *scan.Asset) error {
	if a == nil || len(a.Payload()) == 0 {
		return fmt.Errorf("scan asset is empty")
	}
	if b.asset != nil {
		b.asset.Revoke()
	}
	b.asset = a
	return nil
}

// Asset returns the currently attached scan, or nil.
func (b *Builder) Asset() *scan.Asset {
	return b.asset
}

// Validate checks the form and returns the first violation found: required
// fields non-empty, age a non-negative integer, an asset attached. It does
// not enumerate every violation.
func (b *Builder) Validate() error {
	if b.meta.PatientID == "" {
		return &ValidationError{Field: FieldPatientID, Reason: "required"}
	}
	if b.meta.Name == "" {
		return &ValidationError{Field: FieldName, Reason: "required"}
	}
	if b.meta.Age == "" {
		return &ValidationError{Field: FieldAge, Reason: "required"}
	}
	age, err := strconv.Atoi(b.meta.Age)
	if err != nil {
		return &ValidationError{Field: FieldAge, Reason: "must be a whole number"}
	}
	if age < 0 {
		return &ValidationError{Field: FieldAge, Reason: "must not be negative"}
	}
	if !validSex(b.meta.Sex) {
		return &ValidationError{Field: FieldSex, Reason: "must be Male, Female or Other"}
	}
	if b.asset == nil || len(b.asset.Payload()) == 0 {
		return &ValidationError{Field: "scan", Reason: "a CT scan image must be attached"}
	}
	return nil
}

func validSex(s string) bool {
	for _, v := range sexValues {
		if s == v {
			return true
		}
	}
	return false
}

// BuildRequest assembles the immutable request value. It re-validates so a
// request can never be built from an invalid form.
func (b *Builder) BuildRequest(identity string) (Request, error) {
	if err := b.Validate(); err != nil {
		return Request{}, err
	}
	age, _ := strconv.Atoi(b.meta.Age)

	payload := make([]byte, len(b.asset.Payload()))
	copy(payload, b.asset.Payload())

	return Request{
		Identity: identity,
		Metadata: b.meta,
		AgeYears: age,
		Payload:  payload,
		Filename: b.asset.Filename(),
	}, nil
}

// Close revokes the attached asset and its preview. Called when the owning
// view is torn down, on every exit path.
func (b *Builder) Close() {
	if b.asset != nil {
		b.asset.Revoke()
		b.asset = nil
	}
}
