package ecf

import (
	"errors"
	"fmt"
	"strings"
)

// UnknownTypePolicy decides what happens to a well-formed type code that has
// no registered variant.
type UnknownTypePolicy string

const (
	// RejectUnknown fails with ErrUnsupportedDocumentType.
	RejectUnknown UnknownTypePolicy = "reject"
	// FallbackToBase builds the document with the base variant rules.
	FallbackToBase UnknownTypePolicy = "base"
)

const typeCodePath = "Encabezado.IdDoc.TipoeCF"

// ParseUnknownTypePolicy parses a policy name. Empty selects RejectUnknown.
func ParseUnknownTypePolicy(s string) (UnknownTypePolicy, error) {
	switch UnknownTypePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RejectUnknown:
		return RejectUnknown, nil
	case FallbackToBase:
		return FallbackToBase, nil
	default:
		return "", fmt.Errorf("unknown type policy %q: expected %q or %q", s, RejectUnknown, FallbackToBase)
	}
}

// Dispatcher maps a request's TipoeCF to the variant that builds it.
type Dispatcher struct {
	variants map[int]Variant
	policy   UnknownTypePolicy
}

// NewDispatcher returns a dispatcher over the registered catalog.
func NewDispatcher(policy UnknownTypePolicy) *Dispatcher {
	if policy == "" {
		policy = RejectUnknown
	}
	return &Dispatcher{variants: Catalog(), policy: policy}
}

// Policy returns the configured unknown-type policy.
func (d *Dispatcher) Policy() UnknownTypePolicy { return d.policy }

// Dispatch reads the type code from the request and resolves its variant.
func (d *Dispatcher) Dispatch(req Request) (Variant, error) {
	code, err := TypeCode(req)
	if err != nil {
		return Variant{}, err
	}
	return d.Variant(code)
}

// Variant resolves the variant for a type code according to the policy.
func (d *Dispatcher) Variant(code int) (Variant, error) {
	if v, ok := d.variants[code]; ok {
		return v, nil
	}
	if d.policy == FallbackToBase {
		return baseVariant(code, "base"), nil
	}
	return Variant{}, &BuildError{
		Kind:     ErrUnsupportedDocumentType,
		TypeCode: code,
		Section:  "IdDoc",
		Path:     typeCodePath,
	}
}

// TypeCode extracts Encabezado.IdDoc.TipoeCF as an integer. Any integer is
// well-formed, including zero and negative values; whether it is usable is
// the dispatcher's unknown-type policy to decide.
func TypeCode(req Request) (int, error) {
	missing := func(cause error) error {
		return &BuildError{Kind: ErrMissingTypeCode, Section: "IdDoc", Path: typeCodePath, Err: cause}
	}

	header, ok := root(req).child("Encabezado")
	if !ok {
		return 0, missing(errors.New("Encabezado is absent"))
	}
	idDoc, ok := header.child("IdDoc")
	if !ok {
		return 0, missing(errors.New("IdDoc is absent"))
	}
	raw, ok := idDoc.value("TipoeCF")
	if !ok {
		return 0, missing(nil)
	}

	code, err := toInt(raw)
	if err != nil {
		return 0, missing(err)
	}
	return int(code), nil
}
