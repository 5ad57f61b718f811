// Package scan loads the CT image attached to a submission. It accepts
// standard raster files as well as DICOM slices; DICOM input is converted to
// PNG for upload and can prefill patient demographics from its tags.
package scan

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"
)

// Demographics holds patient details recovered from a DICOM dataset, used to
// prefill the submission form. All fields may be empty.
type Demographics struct {
	PatientName string
	PatientID   string
	Sex         string
}

// Asset is the single scan attached to a submission. It owns the upload
// payload and the derived terminal preview; both are released by Revoke.
type Asset struct {
	path         string
	filename     string
	payload      []byte
	img          image.Image
	demographics *Demographics
	preview      *Preview
	revoked      bool
}

// Load reads a scan from disk. Empty files are rejected before anything else
// happens. A DICOM file (DICM magic) is parsed and its first frame converted
// to PNG; anything else must decode as a standard raster image and is
// uploaded as-is.
func Load(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scan: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("scan file %s is empty", filepath.Base(path))
	}

	a := &Asset{path: path, filename: filepath.Base(path)}

	if isDICOM(data) {
		img, demo, err := decodeDICOM(data)
		if err != nil {
			return nil, fmt.Errorf("reading DICOM scan: %w", err)
		}
		payload, err := encodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("converting DICOM frame: %w", err)
		}
		a.img = img
		a.payload = payload
		a.demographics = demo
		ext := filepath.Ext(a.filename)
		a.filename = strings.TrimSuffix(a.filename, ext) + ".png"
		return a, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding scan image: %w", err)
	}
	a.img = img
	a.payload = data
	return a, nil
}

// isDICOM checks for the DICM magic after the 128-byte preamble.
func isDICOM(data []byte) bool {
	return len(data) > 132 && string(data[128:132]) == "DICM"
}

// Path returns the file path the asset was loaded from.
func (a *Asset) Path() string { return a.path }

// Filename returns the name to present to the remote service. For DICOM
// input this carries a .png extension to match the converted payload.
func (a *Asset) Filename() string { return a.filename }

// Payload returns the bytes to upload. Nil after Revoke.
func (a *Asset) Payload() []byte { return a.payload }

// Demographics returns patient details from DICOM tags, or nil for raster
// input.
func (a *Asset) Demographics() *Demographics { return a.demographics }

// Revoked reports whether the asset has been released.
func (a *Asset) Revoked() bool { return a.revoked }

// Preview derives the terminal rendering of the scan at the given cell
// width. The previous preview, if any, is revoked first: at most one preview
// per asset is live at a time. A revoked asset yields no preview.
func (a *Asset) Preview(cellWidth int) *Preview {
	if a.revoked || a.img == nil {
		return nil
	}
	if a.preview != nil {
		if a.preview.width == cellWidth && !a.preview.Revoked() {
			return a.preview
		}
		a.preview.Revoke()
	}
	a.preview = newPreview(a.img, cellWidth)
	return a.preview
}

// Revoke releases the payload and any live preview. Safe to call more than
// once; every exit path of the owning view goes through here.
func (a *Asset) Revoke() {
	if a.revoked {
		return
	}
	a.revoked = true
	a.payload = nil
	a.img = nil
	if a.preview != nil {
		a.preview.Revoke()
		a.preview = nil
	}
}
