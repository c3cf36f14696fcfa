package errors

// ErrorCode is a stable, machine-readable identifier for a failure category.
// Codes are grouped by prefix: COMMON_* for cross-cutting conditions, DOC_*
// for document lifecycle failures, ANA_* for analysis pipeline failures.
type ErrorCode string

// Common error codes shared by every layer.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
)

// Document error codes.
const (
	ErrCodeUnsupportedInput ErrorCode = "DOC_001"
	ErrCodeDocumentNotFound ErrorCode = "DOC_002"
	ErrCodeDocumentTooLarge ErrorCode = "DOC_003"
	ErrCodeStorageFailed    ErrorCode = "DOC_004"
)

// Analysis error codes.
const (
	ErrCodeProviderFailure  ErrorCode = "ANA_001"
	ErrCodeAnalysisFailed   ErrorCode = "ANA_002"
	ErrCodeAnalysisNotFound ErrorCode = "ANA_003"
)

// String returns the code itself; codes are already human-readable.
func (c ErrorCode) String() string { return string(c) }

// httpStatusByCode maps each code to its canonical HTTP response status.
var httpStatusByCode = map[ErrorCode]int{
	ErrCodeInternal:           500,
	ErrCodeBadRequest:         400,
	ErrCodeUnauthorized:       401,
	ErrCodeForbidden:          403,
	ErrCodeNotFound:           404,
	ErrCodeConflict:           409,
	ErrCodeTooManyRequests:    429,
	ErrCodeServiceUnavailable: 503,
	ErrCodeTimeout:            504,
	ErrCodeValidation:         400,
	ErrCodeSerialization:      500,
	ErrCodeDatabaseError:      500,
	ErrCodeCacheError:         500,
	ErrCodeExternalService:    502,
	ErrCodeUnsupportedInput:   400,
	ErrCodeDocumentNotFound:   404,
	ErrCodeDocumentTooLarge:   413,
	ErrCodeStorageFailed:      500,
	ErrCodeProviderFailure:    502,
	ErrCodeAnalysisFailed:     500,
	ErrCodeAnalysisNotFound:   404,
}

// HTTPStatus returns the HTTP status code associated with c.
// Unknown codes map to 500.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := httpStatusByCode[c]; ok {
		return s
	}
	return 500
}
