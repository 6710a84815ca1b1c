package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 20000-20999: Configuration & course errors
// 21000-21999: Player process errors
// 22000-22999: Match errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	Success       ErrorCode = 10000
	InternalError ErrorCode = 10001
	InvalidParams ErrorCode = 10002

	// ========== Configuration & Course Errors (20000-20999) ==========

	ConfigLoadFailed   ErrorCode = 20000
	ConfigInvalid      ErrorCode = 20001
	CourseLoadFailed   ErrorCode = 20100
	CourseInvalid      ErrorCode = 20101
	LogSinkOpenFailed  ErrorCode = 20200
	LogSinkCloseFailed ErrorCode = 20201

	// ========== Player Process Errors (21000-21999) ==========

	CommandInvalid  ErrorCode = 21000
	SpawnFailed     ErrorCode = 21001
	TerminateFailed ErrorCode = 21002
	HookFailed      ErrorCode = 21003
	ProtocolWrite   ErrorCode = 21100

	// ========== Match Errors (22000-22999) ==========

	MatchSetupFailed ErrorCode = 22000
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	Success:       "Success",
	InternalError: "Internal error",
	InvalidParams: "Invalid parameters",

	ConfigLoadFailed:   "Failed to load configuration",
	ConfigInvalid:      "Invalid configuration",
	CourseLoadFailed:   "Failed to load race course",
	CourseInvalid:      "Invalid race course",
	LogSinkOpenFailed:  "Failed to open log sink",
	LogSinkCloseFailed: "Failed to close log sink",

	CommandInvalid:  "Invalid player command",
	SpawnFailed:     "Failed to start player process",
	TerminateFailed: "Failed to terminate player process",
	HookFailed:      "Hook command failed",
	ProtocolWrite:   "Failed to write to player",

	MatchSetupFailed: "Failed to set up match",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// ExitStatus returns the process exit status the CLI uses for the error code
func (c ErrorCode) ExitStatus() int {
	switch {
	case c == Success:
		return 0
	case c >= 20000 && c < 21000:
		return 2
	case c >= 21000 && c < 23000:
		return 3
	default:
		return 1
	}
}
