package ecf

import (
	"time"

	"github.com/beevik/etree"
)

// Clock returns the current time. It is injected so FechaHoraFirma can be fixed in tests.
type Clock func() time.Time

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithClock sets the clock used for FechaHoraFirma.
func WithClock(clock Clock) AssemblerOption {
	return func(a *Assembler) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithLocation renders FechaHoraFirma in the given time zone.
func WithLocation(loc *time.Location) AssemblerOption {
	return func(a *Assembler) {
		a.loc = loc
	}
}

// Assembler runs the fixed section order of an e-CF document. It holds no
// per-document state and is safe for concurrent use.
type Assembler struct {
	clock Clock
	loc   *time.Location
}

// NewAssembler creates an assembler using the system clock unless overridden.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Build assembles the document tree for req under the rules of v. It stops at
// the first error and never returns a partial tree.
func (a *Assembler) Build(req Request, v Variant) (*etree.Document, error) {
	b := &builder{variant: v}
	in := root(req)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	ecf := doc.CreateElement("ECF")

	steps := []func(*etree.Element, node) error{
		b.header,
		b.items,
		b.subtotals,
		b.adjustments,
		b.pagination,
		b.reference,
	}
	for _, step := range steps {
		if err := step(ecf, in); err != nil {
			return nil, err
		}
	}

	b.enter("FechaHoraFirma")
	ecf.CreateElement("FechaHoraFirma").SetText(FormatTimestamp(a.now()))
	b.signature(ecf)

	return doc, nil
}

func (a *Assembler) now() time.Time {
	t := a.clock()
	if a.loc != nil {
		t = t.In(a.loc)
	}
	return t
}

// Serialize renders the tree as indented UTF-8 XML.
func Serialize(doc *etree.Document) ([]byte, error) {
	doc.Indent(2)
	return doc.WriteToBytes()
}
