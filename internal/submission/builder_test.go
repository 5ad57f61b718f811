package submission

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrsinham/pancrascan/internal/scan"
)

// writeTestPNG writes a small grayscale PNG and returns its path.
func writeTestPNG(t *testing.T) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 32)})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}

	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing test PNG: %v", err)
	}
	return path
}

func loadTestAsset(t *testing.T) *scan.Asset {
	t.Helper()
	asset, err := scan.Load(writeTestPNG(t))
	if err != nil {
		t.Fatalf("loading test asset: %v", err)
	}
	return asset
}

func validMetadata() Metadata {
	return Metadata{
		PatientID: "PID-001",
		Name:      "Marie Curie",
		Age:       "58",
		Sex:       "Female",
		Symptoms:  "weight loss",
	}
}

func TestBuilderSetField(t *testing.T) {
	b := NewBuilder()

	fields := map[string]string{
		FieldPatientID: "PID-001",
		FieldName:      "Marie Curie",
		FieldAge:       "58",
		FieldSex:       "Female",
		FieldSymptoms:  "weight loss",
	}
	for name, value := range fields {
		if err := b.SetField(name, value); err != nil {
			t.Errorf("SetField(%q) failed: %v", name, err)
		}
	}

	got := b.Metadata()
	if got != validMetadata() {
		t.Errorf("Expected %+v, got %+v", validMetadata(), got)
	}

	if err := b.SetField("bogus", "x"); err == nil {
		t.Error("Expected error for unknown field")
	}
}

func TestBuilderDefaultSex(t *testing.T) {
	b := NewBuilder()
	if b.Metadata().Sex != "Male" {
		t.Errorf("Expected default sex Male, got %s", b.Metadata().Sex)
	}
}

func TestBuilderValidateFirstViolation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Metadata)
		attach    bool
		wantField string
	}{
		{"missing patient id", func(m *Metadata) { m.PatientID = "" }, true, FieldPatientID},
		{"missing name", func(m *Metadata) { m.Name = "" }, true, FieldName},
		{"missing age", func(m *Metadata) { m.Age = "" }, true, FieldAge},
		{"non-numeric age", func(m *Metadata) { m.Age = "fifty" }, true, FieldAge},
		{"fractional age", func(m *Metadata) { m.Age = "58.5" }, true, FieldAge},
		{"negative age", func(m *Metadata) { m.Age = "-1" }, true, FieldAge},
		{"invalid sex", func(m *Metadata) { m.Sex = "Unknown" }, true, FieldSex},
		{"no asset", func(m *Metadata) {}, false, "scan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			meta := validMetadata()
			tt.mutate(&meta)
			b.SetMetadata(meta)
			if tt.attach {
				if err := b.AttachAsset(loadTestAsset(t)); err != nil {
					t.Fatalf("AttachAsset failed: %v", err)
				}
			}

			err := b.Validate()
			if err == nil {
				t.Fatal("Expected a validation error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Expected violation on %s, got %s (%s)", tt.wantField, verr.Field, verr.Reason)
			}
		})
	}
}

func TestBuilderValidateReportsOnlyFirst(t *testing.T) {
	// Everything is wrong; only the patient ID violation surfaces.
	b := NewBuilder()
	b.SetMetadata(Metadata{})

	var verr *ValidationError
	if err := b.Validate(); !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %v", err)
	}
	if verr.Field != FieldPatientID {
		t.Errorf("Expected first violation on %s, got %s", FieldPatientID, verr.Field)
	}
}

func TestBuilderBuildRequest(t *testing.T) {
	b := NewBuilder()
	b.SetMetadata(validMetadata())
	asset := loadTestAsset(t)
	if err := b.AttachAsset(asset); err != nil {
		t.Fatalf("AttachAsset failed: %v", err)
	}

	req, err := b.BuildRequest("drjones")
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}
	if req.Identity != "drjones" {
		t.Errorf("Expected identity drjones, got %s", req.Identity)
	}
	if req.AgeYears != 58 {
		t.Errorf("Expected age 58, got %d", req.AgeYears)
	}
	if req.Filename != "scan.png" {
		t.Errorf("Expected filename scan.png, got %s", req.Filename)
	}
	if len(req.Payload) == 0 {
		t.Error("Expected a non-empty payload")
	}

	// The request owns its payload copy.
	req.Payload[0] = 0
	if asset.Payload()[0] == 0 {
		t.Error("mutating the request payload must not touch the asset")
	}
}

func TestBuilderBuildRequestInvalidForm(t *testing.T) {
	b := NewBuilder()
	b.SetMetadata(Metadata{})
	if _, err := b.BuildRequest("drjones"); err == nil {
		t.Error("Expected BuildRequest to fail on an invalid form")
	}
}

func TestBuilderAttachReplacesAsset(t *testing.T) {
	b := NewBuilder()

	first := loadTestAsset(t)
	if err := b.AttachAsset(first); err != nil {
		t.Fatalf("AttachAsset failed: %v", err)
	}
	second := loadTestAsset(t)
	if err := b.AttachAsset(second); err != nil {
		t.Fatalf("AttachAsset failed: %v", err)
	}

	if !first.Revoked() {
		t.Error("replaced asset should be revoked")
	}
	if second.Revoked() {
		t.Error("current asset should stay live")
	}
	if b.Asset() != second {
		t.Error("builder should hold the latest asset")
	}
}

func TestBuilderAttachRejectsRevoked(t *testing.T) {
	b := NewBuilder()
	asset := loadTestAsset(t)
	asset.Revoke()
	if err := b.AttachAsset(asset); err == nil {
		t.Error("Expected error attaching a revoked asset")
	}
	if err := b.AttachAsset(nil); err == nil {
		t.Error("Expected error attaching nil")
	}
}

func TestBuilderClose(t *testing.T) {
	b := NewBuilder()
	asset := loadTestAsset(t)
	if err := b.AttachAsset(asset); err != nil {
		t.Fatalf("AttachAsset failed: %v", err)
	}

	b.Close()
	if !asset.Revoked() {
		t.Error("Close should revoke the attached asset")
	}
	if b.Asset() != nil {
		t.Error("Close should detach the asset")
	}
	// Idempotent.
	b.Close()
}
