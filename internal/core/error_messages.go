package core

// # Error Codes Reference
//
// Errors shown to users carry a code they can quote when asking for help.
//
// # Detection Errors (DET001-DET099)
//
//	DET001 - File not found: The selected file does not exist
//	         Action: Check the path and select the file again
//	DET002 - Empty file: The selected file contains no data
//	         Action: Select a CSV file with a header row
//	DET003 - Unreadable file: The file could not be read for detection
//	         Action: Check file permissions and try again
//
// # Encoding Errors (ENC001-ENC099)
//
//	ENC001 - Exhausted: No candidate encoding could read the file
//	         Action: Re-export the file as UTF-8 from the source application
//	ENC002 - Decode failure: The file contains bytes invalid in the chosen encoding
//	         Action: Re-export the file as UTF-8 from the source application
//
// # Source and Parse Errors
//
//	SRC001 - Source read failure: The file could not be read while converting
//	         Action: Check that the file is still present and readable
//	CSV001 - Parse failure: The file is not valid delimited text
//	         Action: Check for unbalanced quotes and a header row
//
// # Output Errors (OUT001-OUT099)
//
//	OUT001 - Write failure: The converted file could not be written
//	         Action: Check free disk space and permissions on the output folder
//	OUT002 - Destination exists: The output file already exists
//	         Action: Choose another name or allow overwriting
//
// # Request Errors
//
//	CFG001 - Invalid sample size: The sample size is not a positive integer
//	UPL001 - System busy: Too many conversions in progress
//	FILE001 - File too large: The upload exceeds the size limit
//	FILE004 - No file: No file was selected
//
// # Default Error (ERR000)
//
//	ERR000 - Anything not matched above. Check the logs for the technical error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage represents a user-friendly error with an actionable suggestion.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var (
	msgNotFound = UserMessage{
		Message: "The selected file does not exist",
		Action:  "Check the path and select the file again",
		Code:    "DET001",
	}
	msgEmpty = UserMessage{
		Message: "The selected file contains no data",
		Action:  "Select a CSV file with a header row",
		Code:    "DET002",
	}
	msgUnreadable = UserMessage{
		Message: "The file could not be read for encoding detection",
		Action:  "Check file permissions and try again",
		Code:    "DET003",
	}
	msgExhausted = UserMessage{
		Message: "No candidate encoding could read the file",
		Action:  "Re-export the file as UTF-8 from the source application",
		Code:    "ENC001",
	}
	msgDecode = UserMessage{
		Message: "The file contains bytes that are invalid in the chosen encoding",
		Action:  "Re-export the file as UTF-8 from the source application",
		Code:    "ENC002",
	}
	msgSource = UserMessage{
		Message: "The file could not be read while converting",
		Action:  "Check that the file is still present and readable",
		Code:    "SRC001",
	}
	msgParse = UserMessage{
		Message: "The file is not valid delimited text",
		Action:  "Check for unbalanced quotes and a header row",
		Code:    "CSV001",
	}
	msgWrite = UserMessage{
		Message: "The converted file could not be written",
		Action:  "Check free disk space and permissions on the output folder",
		Code:    "OUT001",
	}
	msgExists = UserMessage{
		Message: "The output file already exists",
		Action:  "Choose another name or allow overwriting",
		Code:    "OUT002",
	}
)

// errorPatterns catches errors that arrive as plain text (for example from
// the HTTP layer) rather than as one of the typed errors above.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{
		pattern: "invalid sample size",
		msg: UserMessage{
			Message: "Sample size must be a positive whole number",
			Action:  "The default of 200000 bytes was used instead",
			Code:    "CFG001",
		},
	},
	{
		pattern: "too many concurrent conversions",
		msg: UserMessage{
			Message: "Too many conversions in progress",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Convert the file with the command line tool instead",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Convert the file with the command line tool instead",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to convert",
			Code:    "FILE004",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Typed
// errors from this package are matched first, then known text patterns
// (case-insensitive). Unmatched errors get ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		de *DetectionError
		ee *ExhaustionError
		se *SourceError
		we *WriteError
		ce *CandidateError
	)
	switch {
	case errors.As(err, &de):
		switch de.Reason {
		case ReasonNotFound:
			return msgNotFound
		case ReasonEmptySample:
			return msgEmpty
		default:
			return msgUnreadable
		}
	case errors.As(err, &ee):
		return msgExhausted
	case errors.As(err, &se):
		return msgSource
	case errors.Is(err, ErrDestinationExists):
		return msgExists
	case errors.As(err, &we):
		return msgWrite
	case errors.As(err, &ce):
		if ce.Kind == KindParse {
			return msgParse
		}
		return msgDecode
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message. Error()
// returns the user message; Unwrap() the original error for logging.
type UserError struct {
	Technical error
	User      UserMessage
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
