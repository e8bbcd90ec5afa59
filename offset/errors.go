package offset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is wrapped by Table lookups of names the table does not hold
var ErrNotFound = errors.New("offset not found")

// SignatureResolutionError names a signature that could not be located
type SignatureResolutionError struct {
	Name   string
	Module string
	Err    error
}

func (e *SignatureResolutionError) Error() string {
	msg := "signature " + e.Name
	if e.Module != "" {
		msg += " in " + e.Module
	}
	msg += " not resolved"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SignatureResolutionError) Unwrap() error { return e.Err }

// SchemaResolutionError names a schema class, and the field when known,
// that could not be resolved
type SchemaResolutionError struct {
	Class string
	Field string
	Err   error
}

func (e *SchemaResolutionError) Error() string {
	msg := "schema class " + e.Class
	if e.Field != "" {
		msg += " field " + e.Field
	}
	msg += " not resolved"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaResolutionError) Unwrap() error { return e.Err }

// ConvarResolutionError lists every convar that could not be resolved
type ConvarResolutionError struct {
	Names []string
	Err   error
}

func (e *ConvarResolutionError) Error() string {
	msg := fmt.Sprintf("%d convars not resolved: %s", len(e.Names), strings.Join(e.Names, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConvarResolutionError) Unwrap() error { return e.Err }
