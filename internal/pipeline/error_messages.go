package pipeline

// Error Codes Reference
//
// Codes quoted in notifications and on the status page:
//
//	SRC001 - Source unavailable: a program's error tracker could not be read
//	         Action: Check the tracker exists and is shared with the service
//	SRC002 - Source not found: the tracker has no registered table or file
//	         Action: Verify the source ID in the catalog
//	ROW001 - Malformed row: a tracker row has fewer columns than expected
//	         Action: Restore the missing tracker columns (A..Q)
//	RUN001 - Refresh already running: another refresh holds the lock
//	         Action: Wait for the current refresh to finish
//	RUN002 - Refresh cancelled: the caller stopped the refresh
//	DB004-DB006 - Database connectivity
//	ERR000 - Unknown error: check the service logs
//
// Sentinel errors are matched with errors.Is before falling back to
// case-insensitive substring patterns.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgSourceUnavailable = UserMessage{
		Message: "An error tracker could not be read",
		Action:  "Check the tracker exists and is shared with the service",
		Code:    "SRC001",
	}
	msgSourceNotFound = UserMessage{
		Message: "An error tracker is not registered",
		Action:  "Verify the source ID in the catalog",
		Code:    "SRC002",
	}
	msgMalformedRow = UserMessage{
		Message: "An error tracker row has fewer columns than expected",
		Action:  "Restore the missing tracker columns (A..Q)",
		Code:    "ROW001",
	}
)

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is matched in order; specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "refresh already running",
		msg: UserMessage{
			Message: "A refresh is already running",
			Action:  "Wait for the current refresh to finish",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The refresh was cancelled",
			Action:  "Start a new refresh when ready",
			Code:    "RUN002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error into a coded user message.
// A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if errors.Is(err, ErrSourceNotFound) {
		return msgSourceNotFound
	}
	if errors.Is(err, ErrSourceUnavailable) {
		return msgSourceUnavailable
	}
	if errors.Is(err, ErrMalformedRow) {
		return msgMalformedRow
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// MessageForCode returns the user message for a code previously produced by
// MapError, as stored with a run record. Unknown codes map to ERR000 and an
// empty code to the zero UserMessage.
func MessageForCode(code string) UserMessage {
	switch code {
	case "":
		return UserMessage{}
	case msgSourceUnavailable.Code:
		return msgSourceUnavailable
	case msgSourceNotFound.Code:
		return msgSourceNotFound
	case msgMalformedRow.Code:
		return msgMalformedRow
	}
	for _, ep := range errorPatterns {
		if ep.msg.Code == code {
			return ep.msg
		}
	}
	return defaultMessage
}
