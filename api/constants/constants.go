package constants

// Common error messages
const (
	ErrInvalidJSON      = "invalid json or missing fields"
	ErrMethodNotAllowed = "Method Not Allowed"
	ErrFailedToQuery    = "Failed to query"
	ErrMissingFile      = "Missing workbook file in form field 'file'"
)

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "Content-Type"
)

// JSON envelope keys
const (
	ValueSuccess = "success"
	ValueError   = "error"
)

// Date formats
const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = "2006-01-02 15:04:05"
	// SaleDateFormat matches the MM/DD/YYYY strings in POS exports
	// (1-2 digit month/day, 4-digit year).
	SaleDateFormat = "1/2/2006"
)
