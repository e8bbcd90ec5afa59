// Package offset turns an attached session into a Table of signature
// addresses, schema field offsets and convars.
package offset

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"cs2mem/session"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Resolver runs the three sources against one session and publishes the
// result. Resolution is all or nothing: a failed Resolve leaves the
// previously published Table in place. One Resolve runs at a time; Current
// may be called from any goroutine.
type Resolver struct {
	session    *session.Session
	signatures SignatureSource
	schemas    SchemaSource
	convars    ConvarSource
	log        *logger.Logger

	mu       sync.Mutex
	versions uint64
	current  atomic.Pointer[Table]
}

func NewResolver(s *session.Session, signatures SignatureSource, schemas SchemaSource, convars ConvarSource) *Resolver {
	return &Resolver{
		session:    s,
		signatures: signatures,
		schemas:    schemas,
		convars:    convars,
		log:        logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "offset")),
	}
}

// Current returns the last published table, or nil before the first success
func (r *Resolver) Current() *Table {
	return r.current.Load()
}

func (r *Resolver) Session() *session.Session {
	return r.session
}

// Resolve runs signatures, schemas for classNames, and convars, then
// publishes a new Table. Duplicate class names are ignored; an empty list
// yields an empty schema mapping.
func (r *Resolver) Resolve(classNames []string) (*Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.signatures == nil || r.schemas == nil || r.convars == nil {
		return nil, errors.New("offset: resolver is missing a source")
	}

	classes := slices.Clone(classNames)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	signatures, err := r.signatures.DumpSignatures(r.session)
	if err != nil {
		return nil, r.fail(asSignatureError(err))
	}

	schemas := map[string]map[string]uint32{}
	if len(classes) > 0 {
		schemas, err = r.schemas.DumpSchemas(r.session, classes)
		if err != nil {
			return nil, r.fail(asSchemaError(err))
		}
		for _, class := range classes {
			if _, ok := schemas[class]; !ok {
				return nil, r.fail(&SchemaResolutionError{Class: class, Err: ErrNotFound})
			}
		}
	}

	convars, err := r.convars.DumpConvars(r.session)
	if err != nil {
		return nil, r.fail(asConvarError(err))
	}

	table := NewTable(signatures, schemas, convars)
	r.versions++
	table.version = r.versions
	table.backend = r.session.Backend()

	r.current.Store(table)
	r.log.Infoln("Resolved offsets: version", table.version,
		"signatures", len(signatures), "classes", len(schemas), "convars", len(convars))

	return table, nil
}

func (r *Resolver) fail(err error) error {
	r.log.Warn("resolve failed: ", err)
	return err
}

func asSignatureError(err error) error {
	var target *SignatureResolutionError
	if errors.As(err, &target) {
		return err
	}
	return &SignatureResolutionError{Name: "<unknown>", Err: err}
}

func asSchemaError(err error) error {
	var target *SchemaResolutionError
	if errors.As(err, &target) {
		return err
	}
	return &SchemaResolutionError{Class: "<unknown>", Err: err}
}

func asConvarError(err error) error {
	var target *ConvarResolutionError
	if errors.As(err, &target) {
		return err
	}
	return &ConvarResolutionError{Err: fmt.Errorf("convar source: %w", err)}
}
