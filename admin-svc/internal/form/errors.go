package form

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrStale        = errors.New("form: response superseded")
	ErrBusy         = errors.New("form: submission already in progress")
	ErrNotReady     = errors.New("form: not ready")
	ErrPristine     = errors.New("form: nothing to submit")
	ErrUnknownField = errors.New("form: unknown field")
	ErrItemNotFound = errors.New("form: item not found")
	ErrDuplicateID  = errors.New("form: duplicate item id")
	ErrFormNotFound = errors.New("form: not found")
)

// BannerError is the message shown when a fetch or a submission fails.
const BannerError = "An Error occurred! Please try again"

type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "form: invalid values (" + strings.Join(parts, ", ") + ")"
}
