package offset

import "cs2mem/session"

// SignatureSource resolves named byte-pattern signatures to module relative addresses
type SignatureSource interface {
	DumpSignatures(s *session.Session) (map[string]uint64, error)
}

// SchemaSource resolves field offsets of the named classes
type SchemaSource interface {
	DumpSchemas(s *session.Session, classNames []string) (map[string]map[string]uint32, error)
}

// ConvarSource enumerates convars
type ConvarSource interface {
	DumpConvars(s *session.Session) (map[string]ConvarDescriptor, error)
}

type SignatureSourceFunc func(s *session.Session) (map[string]uint64, error)

func (f SignatureSourceFunc) DumpSignatures(s *session.Session) (map[string]uint64, error) {
	return f(s)
}

type SchemaSourceFunc func(s *session.Session, classNames []string) (map[string]map[string]uint32, error)

func (f SchemaSourceFunc) DumpSchemas(s *session.Session, classNames []string) (map[string]map[string]uint32, error) {
	return f(s, classNames)
}

type ConvarSourceFunc func(s *session.Session) (map[string]ConvarDescriptor, error)

func (f ConvarSourceFunc) DumpConvars(s *session.Session) (map[string]ConvarDescriptor, error) {
	return f(s)
}
