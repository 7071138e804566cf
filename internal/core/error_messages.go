package core

// # Error Codes Reference
//
// User-facing messages carry a code so a report can be traced back to the
// failing step.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Split the file or remove unused columns
//	          Patterns: "file too large"
//
//	FILE002 - Invalid CSV: The CSV could not be read
//	          Action: Ensure the file is comma-separated with one header row
//	          Matches: ErrMalformedFile from the CSV parser, "invalid csv"
//
//	FILE003 - Invalid spreadsheet: The XLSX workbook could not be read
//	          Action: Re-save the file from your spreadsheet program as .xlsx
//	          Matches: ErrMalformedFile from the XLSX parser, "invalid xlsx"
//
//	FILE004 - No file: No file was selected
//	          Action: Choose at least one CSV or XLSX file
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The file has no header row
//	          Action: Upload a file whose first row names the columns
//	          Matches: ErrEmptyFile
//
//	FILE006 - Unsupported type: The file extension is not .csv or .xlsx
//	          Action: Convert the file to CSV or XLSX first
//	          Matches: *UnsupportedFormatError (message names the extension)
//
//	FILE007 - File not found: The file is no longer in this session
//	          Action: Upload the file again
//	          Matches: ErrFileNotFound
//
// # Conversion Errors (CONV001-CONV099)
//
//	CONV001 - Conversion failed: The table could not be written
//	          Action: Try the other output format
//	          Patterns: "encode csv", "encode xlsx"
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Unknown column: A selected column is not in the file
//	         Action: Pick columns from the file's header
//	         Matches: *UnknownColumnError (message names the column)
//
// # Chart Warnings (CHART001-CHART099)
//
//	CHART001 - No numeric data: There are no numeric columns to chart
//	           Action: Keep at least one numeric column selected
//	           Matches: ErrNoNumericData
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid request: The request options are not valid
//	         Patterns: "invalid request"
//
//	REQ002 - Too many files: More files than a batch accepts
//	         Patterns: "too many files"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many batches in progress
//	UPL004 - Request cancelled ("context canceled")
//	UPL005 - Request timeout ("context deadline exceeded")
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests ("rate limit")
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the server log for the technical error.
//
// Typed errors are matched first with errors.As / errors.Is, then the
// patterns below are matched case-insensitively with strings.Contains in
// order; the first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgInvalidCSV = UserMessage{
		Message: "The CSV file could not be read",
		Action:  "Ensure the file is comma-separated with one header row",
		Code:    "FILE002",
	}
	msgInvalidXLSX = UserMessage{
		Message: "The spreadsheet could not be read",
		Action:  "Re-save the file from your spreadsheet program as .xlsx",
		Code:    "FILE003",
	}
	msgConvertFailed = UserMessage{
		Message: "The table could not be converted",
		Action:  "Try the other output format",
		Code:    "CONV001",
	}
)

// errorPatterns maps technical error text (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{pattern: "invalid csv", msg: msgInvalidCSV},
	{pattern: "invalid xlsx", msg: msgInvalidXLSX},
	{
		pattern: "encode csv",
		msg:     msgConvertFailed,
	},
	{
		pattern: "encode xlsx",
		msg:     msgConvertFailed,
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose at least one CSV or XLSX file",
			Code:    "FILE004",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request options are not valid",
			Action:  "Check the cleaning, column and format choices",
			Code:    "REQ001",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files in one upload",
			Action:  "Upload the files in smaller groups",
			Code:    "REQ002",
		},
	},
	{
		pattern: "too many batches",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(&UnsupportedFormatError{Ext: ".txt"})
//	// msg.Code == "FILE006"
//	// msg.Message == `Unsupported file type: ".txt"`
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTypedError(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// mapTypedError handles the pipeline's own error kinds, whose messages
// carry the offending extension or column.
func mapTypedError(err error) (UserMessage, bool) {
	var ufe *UnsupportedFormatError
	if errors.As(err, &ufe) {
		return UserMessage{
			Message: fmt.Sprintf("Unsupported file type: %q", ufe.Ext),
			Action:  "Convert the file to CSV or XLSX first",
			Code:    "FILE006",
		}, true
	}

	var uce *UnknownColumnError
	if errors.As(err, &uce) {
		return UserMessage{
			Message: fmt.Sprintf("Column %q is not in this file", uce.Column),
			Action:  "Pick columns from the file's header",
			Code:    "COL001",
		}, true
	}

	switch {
	case errors.Is(err, ErrNoNumericData):
		return UserMessage{
			Message: "No numeric columns to display",
			Action:  "Keep at least one numeric column selected",
			Code:    "CHART001",
		}, true
	case errors.Is(err, ErrEmptyFile):
		return UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file whose first row names the columns",
			Code:    "FILE005",
		}, true
	case errors.Is(err, ErrFileNotFound):
		return UserMessage{
			Message: "File is no longer in this session",
			Action:  "Upload the file again",
			Code:    "FILE007",
		}, true
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
