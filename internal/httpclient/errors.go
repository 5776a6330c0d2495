package httpclient

import (
	"fmt"

	"github.com/fd1az/deal-finder/internal/apperror"
)

const maxErrorBody = 256

// StatusErrorHandler returns a ResponseErrorHandler that maps any status >= 400
// to an AppError with the given code. The body is truncated into the context.
func StatusErrorHandler(code apperror.Code) ResponseErrorHandler {
	return func(statusCode int, body []byte) error {
		if statusCode < 400 {
			return nil
		}
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return apperror.New(code, apperror.WithContext(fmt.Sprintf("HTTP %d: %s", statusCode, snippet)))
	}
}
