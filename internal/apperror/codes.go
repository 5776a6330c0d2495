package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Deal-pipeline error codes
const (
	// Language model backends
	CodeLLMRequestFailed Code = "LLM_REQUEST_FAILED"
	CodeLLMEmptyReply    Code = "LLM_EMPTY_REPLY"
	CodeToolCallInvalid  Code = "TOOL_CALL_INVALID"

	// Similarity search
	CodeEmbeddingFailed   Code = "EMBEDDING_FAILED"
	CodeVectorQueryFailed Code = "VECTOR_QUERY_FAILED"

	// Pricing
	CodeSpecialistFailed Code = "SPECIALIST_FAILED"

	// Scanning
	CodeFeedFetchFailed      Code = "FEED_FETCH_FAILED"
	CodeSelectionParseFailed Code = "SELECTION_PARSE_FAILED"

	// Messaging
	CodePushFailed Code = "PUSH_FAILED"

	// Persistence
	CodeMemoryLoadFailed   Code = "MEMORY_LOAD_FAILED"
	CodeMemorySaveFailed   Code = "MEMORY_SAVE_FAILED"
	CodeJournalWriteFailed Code = "JOURNAL_WRITE_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
