package bookerr

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the failure category. Every kind is terminal for the job that
// produced it; nothing in the pipeline retries on these.
type Kind string

const (
	KindNoDownloadPathFound Kind = "NoDownloadPathFound"
	KindDownloadTimedOut    Kind = "DownloadTimedOut"
	KindEmptyDocument       Kind = "EmptyDocument"
	KindUnsupportedFormat   Kind = "UnsupportedFormat"
)

// Sentinels for errors.Is. Matching is by Kind only, so a detailed error
// built by one of the constructors below still matches its sentinel.
var (
	ErrNoDownloadPathFound = &Error{Kind: KindNoDownloadPathFound}
	ErrDownloadTimedOut    = &Error{Kind: KindDownloadTimedOut}
	ErrEmptyDocument       = &Error{Kind: KindEmptyDocument}
	ErrUnsupportedFormat   = &Error{Kind: KindUnsupportedFormat}
)

// Error carries the failure kind plus enough context to attribute it.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]string
	Cause   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s]", e.Kind))
	if e.Message != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Message)
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
		}
		sb.WriteString(" | context: {")
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("}")
	}

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(" | cause: %v", e.Cause))
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// NewNoDownloadPathFound reports that no resolver variant located a candidate.
func NewNoDownloadPathFound(url string, tried []string) *Error {
	return &Error{
		Kind:    KindNoDownloadPathFound,
		Message: "no download action found on page",
		Context: map[string]string{
			"url":   url,
			"tried": strings.Join(tried, ","),
		},
	}
}

// NewDownloadTimedOut reports that a candidate was clicked but no file arrived.
func NewDownloadTimedOut(variant, format string, wait string, cause error) *Error {
	return &Error{
		Kind:    KindDownloadTimedOut,
		Message: fmt.Sprintf("no file observed within %s", wait),
		Context: map[string]string{
			"variant": variant,
			"format":  format,
		},
		Cause: cause,
	}
}

// NewEmptyDocument reports that rendering kept no content units.
func NewEmptyDocument(path string, units int) *Error {
	return &Error{
		Kind:    KindEmptyDocument,
		Message: "no content unit produced usable text",
		Context: map[string]string{
			"path":  path,
			"units": fmt.Sprintf("%d", units),
		},
	}
}

// NewUnsupportedFormat reports a file the pipeline cannot process.
func NewUnsupportedFormat(path, detail string, cause error) *Error {
	return &Error{
		Kind:    KindUnsupportedFormat,
		Message: detail,
		Context: map[string]string{
			"path": path,
		},
		Cause: cause,
	}
}
