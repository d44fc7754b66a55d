package apiclient

import (
	"fmt"

	apperrors "github.com/mtarnavskyi/quiz-webclient/internal/errors"
)

// Error is a non-2xx backend response. The original status and body are
// preserved so callers observe the endpoint's own failure, not a synthetic
// one from the recovery pipeline.
type Error struct {
	Status int
	Path   string
	Body   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error: %s returned %d", e.Path, e.Status)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a
// backend response error.
func StatusCode(err error) int {
	var apiErr *Error
	if apperrors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
