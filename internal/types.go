package internal

type InputSource string

const (
	SourceFile          InputSource = "file"
	SourceZIPEntry      InputSource = "zip_entry"
	SourceEMLAttachment InputSource = "eml_attachment"
)

// Sentinel values used in result rows. The title is never empty: documents
// without a resolvable title get TitleUnknown, documents that cannot be
// opened get TitleError with the failure message in the email column.
const (
	TitleUnknown    = "Unknown Title"
	TitleError      = "Error"
	TitleUnreadable = "Unreadable PDF"
	EmailError      = "Error"
	EmailNotFound   = "No Email Found"
)

// InputFile is one document handed to the extraction pipeline: raw PDF bytes
// plus the name it should be reported under.
type InputFile struct {
	Name   string
	Source InputSource
	// Origin is the path of the file, archive, or message the bytes came
	// from, for logging and the scan store.
	Origin string
	Raw    []byte
}

// ExtractionResult is one output row. A document fans out into one row per
// email found, or a single sentinel row. Source and Origin record where the
// bytes came from; the spreadsheet export carries only the first three
// fields.
type ExtractionResult struct {
	FileName string
	Title    string
	Email    string
	Source   InputSource
	Origin   string
}

// ScanRun summarizes one persisted batch scan.
type ScanRun struct {
	RunID      string
	Root       string
	StartedAt  string
	FinishedAt *string
	Files      int
	Rows       int
}
