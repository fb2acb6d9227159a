package ecf

import "fmt"

// Document is a serialized e-CF ready to be signed.
type Document struct {
	TypeCode    int
	VariantName string
	ENCF        string
	XML         []byte
}

// Generator runs dispatch, assembly and serialization for one request.
type Generator struct {
	dispatcher *Dispatcher
	assembler  *Assembler
}

// NewGenerator wires a dispatcher and an assembler.
func NewGenerator(dispatcher *Dispatcher, assembler *Assembler) *Generator {
	if dispatcher == nil {
		dispatcher = NewDispatcher(RejectUnknown)
	}
	if assembler == nil {
		assembler = NewAssembler()
	}
	return &Generator{dispatcher: dispatcher, assembler: assembler}
}

// Generate builds and serializes the document described by req.
func (g *Generator) Generate(req Request) (*Document, error) {
	variant, err := g.dispatcher.Dispatch(req)
	if err != nil {
		return nil, err
	}

	tree, err := g.assembler.Build(req, variant)
	if err != nil {
		return nil, err
	}

	xml, err := Serialize(tree)
	if err != nil {
		return nil, &BuildError{
			Kind:     ErrInternalBuild,
			TypeCode: variant.Code,
			Section:  "serialize",
			Err:      err,
		}
	}

	return &Document{
		TypeCode:    variant.Code,
		VariantName: variant.Name,
		ENCF:        req.ENCF(),
		XML:         xml,
	}, nil
}

// SchemaName returns the XSD file name that governs a document type.
func SchemaName(typeCode int) string {
	return fmt.Sprintf("e-CF %d v.1.0.xsd", typeCode)
}
