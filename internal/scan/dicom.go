package scan

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// decodeDICOM parses a DICOM dataset, extracts the first pixel-data frame as
// an image and collects patient demographics from the standard tags.
func decodeDICOM(data []byte) (image.Image, *Demographics, error) {
	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing dataset: %w", err)
	}

	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset has no pixel data")
	}

	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(info.Frames) == 0 {
		return nil, nil, fmt.Errorf("dataset has no image frames")
	}

	img, err := info.Frames[0].GetImage()
	if err != nil {
		return nil, nil, fmt.Errorf("extracting frame: %w", err)
	}

	return img, demographicsFromDataset(ds), nil
}

// demographicsFromDataset pulls PatientName, PatientID and PatientSex when
// present. The DICOM FAMILY^Given name form is flattened to "Given Family"
// for the form field.
func demographicsFromDataset(ds dicom.Dataset) *Demographics {
	d := &Demographics{
		PatientName: displayName(stringTag(ds, tag.PatientName)),
		PatientID:   stringTag(ds, tag.PatientID),
		Sex:         displaySex(stringTag(ds, tag.PatientSex)),
	}
	if d.PatientName == "" && d.PatientID == "" && d.Sex == "" {
		return nil
	}
	return d
}

// stringTag returns the first string value of a tag, or "".
func stringTag(ds dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	vals, ok := el.Value.GetValue().([]string)
	if !ok || len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

func displayName(dicomName string) string {
	if dicomName == "" {
		return ""
	}
	parts := strings.SplitN(dicomName, "^", 2)
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[1] + " " + familyCase(parts[0])
	}
	return dicomName
}

// familyCase normalizes the conventionally all-caps DICOM family name
// ("CURIE") to form casing ("Curie"). Mixed-case names pass through as typed.
func familyCase(family string) string {
	if family != strings.ToUpper(family) {
		return family
	}
	lower := strings.ToLower(family)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func displaySex(code string) string {
	switch code {
	case "M":
		return "Male"
	case "F":
		return "Female"
	case "":
		return ""
	default:
		return "Other"
	}
}

// encodePNG renders the extracted frame as PNG, the raster form the remote
// service consumes.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
