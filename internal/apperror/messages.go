package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeInvalidInput: "Invalid input provided",
	CodeNotFound:     "Resource not found",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeRateLimitExceeded:  "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Language model backends
	CodeLLMRequestFailed: "Language model request failed",
	CodeLLMEmptyReply:    "Language model returned an empty reply",
	CodeToolCallInvalid:  "Language model requested an invalid tool call",

	// Similarity search
	CodeEmbeddingFailed:   "Failed to encode text",
	CodeVectorQueryFailed: "Vector store query failed",

	// Pricing
	CodeSpecialistFailed: "Specialist pricer failed",

	// Scanning
	CodeFeedFetchFailed:      "Failed to fetch deal feed",
	CodeSelectionParseFailed: "Failed to parse deal selection",

	// Messaging
	CodePushFailed: "Failed to send push notification",

	// Persistence
	CodeMemoryLoadFailed:   "Failed to load opportunity memory",
	CodeMemorySaveFailed:   "Failed to save opportunity memory",
	CodeJournalWriteFailed: "Failed to write deal journal",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
