package help

// HelpText contains information about a form field
type HelpText struct {
	Title       string
	Description string
	Details     string
}

// Texts contains help information for the submission form fields
var Texts = map[string]HelpText{
	"scan_path": {
		Title:       "CT SCAN FILE",
		Description: "Path to the scan image to analyze.",
		Details: `PNG and JPEG raster images are uploaded as-is.
DICOM slices (.dcm) are converted to PNG and, when the
dataset carries them, prefill the patient fields below.`,
	},
	"patient_id": {
		Title:       "PATIENT ID",
		Description: "Hospital identifier of the patient.",
		Details:     "Example: PID-0123. Required before the scan can be submitted.",
	},
	"patient_name": {
		Title:       "PATIENT NAME",
		Description: "Full name of the patient.",
		Details:     "Shown on the diagnostic report and searchable in the history view.",
	},
	"age": {
		Title:       "AGE",
		Description: "Patient age in years.",
		Details:     "Whole non-negative number. Checked when the form is submitted.",
	},
	"sex": {
		Title:       "SEX",
		Description: "Patient sex as recorded in the chart.",
		Details:     "Male, Female or Other.",
	},
	"symptoms": {
		Title:       "SYMPTOMS",
		Description: "Free-text clinical notes. Optional.",
		Details:     "Example: abdominal pain, nausea, weight loss.",
	},
}
