package store

import (
	"errors"
	"fmt"
	"regexp"
)

// Kind classifies a store failure once, at the collaborator boundary, so
// callers branch on a tagged value instead of parsing message prose.
type Kind string

const (
	// KindUnknownAttribute: a write carried an attribute the live collection
	// schema does not define. Attribute names the offender.
	KindUnknownAttribute Kind = "unknown_attribute"
	// KindMissingAttribute: a query filtered on an attribute the live
	// collection schema does not define. Attribute names the offender.
	KindMissingAttribute Kind = "missing_attribute"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	// KindUnknown covers transport, permission, and validation failures that
	// have no local recovery path.
	KindUnknown Kind = "unknown"
)

type Error struct {
	Kind      Kind
	Code      int
	Message   string
	Attribute string
}

func (e *Error) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("store: %s (%d): %s [attribute=%s]", e.Kind, e.Code, e.Message, e.Attribute)
	}
	return fmt.Sprintf("store: %s (%d): %s", e.Kind, e.Code, e.Message)
}

var (
	unknownAttributePattern = regexp.MustCompile(`Unknown attribute:\s+"([^"]+)"`)
	missingAttributePattern = regexp.MustCompile(`Attribute not found in schema:\s+(\S+)`)
)

// classify is the single point where the store's status codes and message
// substrings are turned into a structured Error.
func classify(code int, message string) *Error {
	e := &Error{Kind: KindUnknown, Code: code, Message: message}

	switch code {
	case 404:
		e.Kind = KindNotFound
	case 409:
		e.Kind = KindConflict
	case 400:
		if m := unknownAttributePattern.FindStringSubmatch(message); m != nil {
			e.Kind = KindUnknownAttribute
			e.Attribute = m[1]
		} else if m := missingAttributePattern.FindStringSubmatch(message); m != nil {
			e.Kind = KindMissingAttribute
			e.Attribute = m[1]
		}
	}

	return e
}

// AsError unwraps err to the store Error, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindNotFound
}

func IsConflict(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindConflict
}

// UnknownAttribute returns the attribute name rejected by a write, if that is
// what err represents.
func UnknownAttribute(err error) (string, bool) {
	e, ok := AsError(err)
	if !ok || e.Kind != KindUnknownAttribute || e.Attribute == "" {
		return "", false
	}
	return e.Attribute, true
}

// IsMissingAttribute reports whether err is a query rejected because the
// filtered attribute does not exist in the live schema.
func IsMissingAttribute(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindMissingAttribute
}
