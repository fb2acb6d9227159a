package ecf

import (
	"slices"

	"github.com/beevik/etree"
)

// fieldKind selects the formatting applied to a leaf.
type fieldKind int

const (
	textField fieldKind = iota
	amountField
	exchangeRateField
	paddedCodeField
	dateField
	typeCodeField
)

// field describes one leaf of a section: its element name, how its value is
// formatted, whether the build fails without it, and an optional default.
type field struct {
	name      string
	kind      fieldKind
	required  bool
	omitEmpty bool
	fallback  string
}

func text(name string) field   { return field{name: name, kind: textField} }
func amount(name string) field { return field{name: name, kind: amountField} }
func date(name string) field   { return field{name: name, kind: dateField} }

func required(f field) field {
	f.required = true
	return f
}

func omitEmpty(f field) field {
	f.omitEmpty = true
	return f
}

func withDefault(f field, v string) field {
	f.fallback = v
	return f
}

// extension appends variant-specific content to an already built element.
// A nil extension means the variant adds nothing.
type extension func(b *builder, parent *etree.Element, n node) error

// Variant is the rule set for one document type. The assembler consults it at
// each override point instead of branching on type codes.
type Variant struct {
	Code int
	Name string
	// RequiresReference makes InformacionReferencia mandatory. Variants
	// without it never emit the block.
	RequiresReference bool

	idDoc          []field
	itemExtension  extension
	additionalInfo extension
}

// IdDocFields returns the element names of the variant's IdDoc, in order.
func (v Variant) IdDocFields() []string {
	names := make([]string, 0, len(v.idDoc))
	for _, f := range v.idDoc {
		names = append(names, f.name)
	}
	return names
}

// HasItemExtension reports whether item lines carry a variant sub-block.
func (v Variant) HasItemExtension() bool { return v.itemExtension != nil }

// HasAdditionalInfoExtension reports whether InformacionesAdicionales is extended.
func (v Variant) HasAdditionalInfoExtension() bool { return v.additionalInfo != nil }

var (
	baseIdDoc = []field{
		{name: "TipoeCF", kind: typeCodeField, required: true},
		required(text("eNCF")),
		text("IndicadorMontoGravado"),
		required(field{name: "TipoIngresos", kind: paddedCodeField}),
		required(text("TipoPago")),
		date("FechaLimitePago"),
	}

	// The 4x family carries the sequence expiry right after eNCF.
	sequenceIdDoc = slices.Insert(slices.Clone(baseIdDoc), 2, required(date("FechaVencimientoSecuencia")))

	// Credit notes flag the 30-day rule and keep TipoIngresos unpadded.
	creditNoteIdDoc = []field{
		{name: "TipoeCF", kind: typeCodeField, required: true},
		required(text("eNCF")),
		withDefault(text("IndicadorNotaCredito"), "0"),
		text("IndicadorMontoGravado"),
		required(text("TipoIngresos")),
		required(text("TipoPago")),
		date("FechaLimitePago"),
	}

	exportInfoFields = []field{
		text("CondicionesEntrega"),
		amount("TotalFob"),
		amount("Seguro"),
		amount("Flete"),
		amount("OtrosGastos"),
		amount("TotalCif"),
		text("RegimenAduanero"),
		text("NombrePuertoSalida"),
		text("NombrePuertoDesembarque"),
	}

	miningFields = []field{
		amount("PesoNetoKilogramo"),
		amount("PesoNetoMineria"),
		text("TipoAfiliacion"),
		text("Liquidacion"),
	}

	withholdingFields = []field{
		required(text("IndicadorAgenteRetencionoPercepcion")),
		required(amount("MontoISRRetenido")),
	}
)

// appendFields extends the parent element with extra leaves read from the same input object.
func appendFields(fields []field) extension {
	return func(b *builder, parent *etree.Element, n node) error {
		return b.leaves(parent, n, fields)
	}
}

// optionalBlock emits a named sub-block when the item carries it.
func optionalBlock(name string, fields []field) extension {
	return func(b *builder, parent *etree.Element, n node) error {
		block, ok, err := n.object(name)
		if err != nil {
			return b.internal(err)
		}
		if !ok {
			return nil
		}
		return b.leaves(parent.CreateElement(name), block, fields)
	}
}

// baseVariant is used for the standard invoice types and, under the base
// policy, for codes that are not registered.
func baseVariant(code int, name string) Variant {
	return Variant{Code: code, Name: name, idDoc: baseIdDoc}
}

func sequenceVariant(code int, name string) Variant {
	return Variant{Code: code, Name: name, idDoc: sequenceIdDoc}
}

// Catalog returns the registered variants keyed by type code.
func Catalog() map[int]Variant {
	debitNote := baseVariant(33, "Nota de Débito Electrónica")
	debitNote.RequiresReference = true

	creditNote := Variant{
		Code:              34,
		Name:              "Nota de Crédito Electrónica",
		RequiresReference: true,
		idDoc:             creditNoteIdDoc,
	}

	export := sequenceVariant(46, "Comprobante Electrónico para Exportaciones")
	export.additionalInfo = appendFields(exportInfoFields)
	export.itemExtension = optionalBlock("Mineria", miningFields)

	foreignPayment := sequenceVariant(47, "Comprobante Electrónico para Pagos al Exterior")
	foreignPayment.itemExtension = optionalBlock("Retencion", withholdingFields)

	variants := []Variant{
		baseVariant(31, "Factura de Crédito Fiscal Electrónica"),
		baseVariant(32, "Factura de Consumo Electrónica"),
		debitNote,
		creditNote,
		sequenceVariant(41, "Comprobante Electrónico de Compras"),
		sequenceVariant(43, "Comprobante Electrónico para Gastos Menores"),
		sequenceVariant(44, "Comprobante Electrónico para Regímenes Especiales"),
		sequenceVariant(45, "Comprobante Electrónico Gubernamental"),
		export,
		foreignPayment,
	}

	catalog := make(map[int]Variant, len(variants))
	for _, v := range variants {
		catalog[v.Code] = v
	}
	return catalog
}
