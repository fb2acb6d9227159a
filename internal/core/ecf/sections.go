package ecf

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// SignatureNamespace is the namespace of the signature placeholder.
const SignatureNamespace = "http://www.w3.org/2000/09/xmldsig#"

var (
	issuerLeadFields = []field{
		required(text("RNCEmisor")),
		required(text("RazonSocialEmisor")),
		text("NombreComercial"),
		text("Sucursal"),
		required(text("DireccionEmisor")),
		text("Municipio"),
		text("Provincia"),
	}

	issuerTailFields = []field{
		text("CorreoEmisor"),
		text("WebSite"),
		text("ActividadEconomica"),
		text("CodigoVendedor"),
		text("NumeroFacturaInterna"),
		text("NumeroPedidoInterno"),
		text("ZonaVenta"),
		text("RutaVenta"),
		text("InformacionAdicionalEmisor"),
		required(date("FechaEmision")),
	}

	buyerFields = []field{
		omitEmpty(text("RNCComprador")),
		text("IdentificadorExtranjero"),
		text("RazonSocialComprador"),
		text("ContactoComprador"),
		text("CorreoComprador"),
		text("DireccionComprador"),
		text("MunicipioComprador"),
		text("ProvinciaComprador"),
		date("FechaEntrega"),
		text("ContactoEntrega"),
		text("DireccionEntrega"),
		text("TelefonoAdicional"),
		date("FechaOrdenCompra"),
		text("NumeroOrdenCompra"),
		text("CodigoInternoComprador"),
	}

	additionalInfoFields = []field{
		date("FechaEmbarque"),
		text("NumeroEmbarque"),
		text("NumeroContenedor"),
		text("NumeroReferencia"),
		amount("PesoBruto"),
		amount("PesoNeto"),
		text("UnidadPesoBruto"),
		text("UnidadPesoNeto"),
	}

	transportFields = []field{
		text("Conductor"),
		text("DocumentoTransporte"),
		text("Ficha"),
		text("Placa"),
		text("RutaTransporte"),
		text("ZonaTransporte"),
		text("NumeroAlbaran"),
	}

	totalsFields = []field{
		amount("MontoGravadoTotal"),
		amount("MontoGravadoI1"),
		amount("MontoGravadoI2"),
		amount("MontoExento"),
		required(amount("TotalITBIS")),
		amount("TotalITBIS1"),
		amount("TotalITBIS2"),
		required(amount("MontoTotal")),
		amount("MontoNoFacturable"),
		amount("MontoPeriodo"),
		amount("TotalITBISRetenido"),
		amount("TotalISRRetencion"),
	}

	otherCurrencyFields = []field{
		required(text("TipoMoneda")),
		required(field{name: "TipoCambio", kind: exchangeRateField}),
		amount("MontoGravadoTotalOtraMoneda"),
		amount("MontoGravado1OtraMoneda"),
		amount("MontoExentoOtraMoneda"),
		amount("TotalITBISOtraMoneda"),
		amount("TotalITBIS1OtraMoneda"),
		amount("MontoTotalOtraMoneda"),
	}

	itemLeadFields = []field{
		required(text("NumeroLinea")),
		required(text("IndicadorFacturacion")),
		required(text("NombreItem")),
		text("IndicadorBienoServicio"),
		text("DescripcionItem"),
		required(amount("CantidadItem")),
		required(amount("PrecioUnitarioItem")),
		amount("DescuentoMonto"),
	}

	itemCurrencyFields = []field{
		required(amount("PrecioOtraMoneda")),
		required(amount("MontoItemOtraMoneda")),
	}

	subtotalFields = []field{
		text("NumeroSubTotal"),
		text("DescripcionSubtotal"),
		text("Orden"),
		amount("SubTotalMontoGravadoTotal"),
		amount("SubTotalMontoGravadoI3"),
		amount("SubTotaITBIS"),
		amount("SubTotaITBIS3"),
		amount("MontoSubTotal"),
		text("Lineas"),
	}

	adjustmentFields = []field{
		required(text("NumeroLinea")),
		required(text("TipoAjuste")),
		text("DescripcionDescuentooRecargo"),
		text("TipoValor"),
		amount("ValorDescuentooRecargo"),
		amount("MontoDescuentooRecargo"),
		amount("MontoDescuentooRecargoOtraMoneda"),
		text("IndicadorFacturacionDescuentooRecargo"),
	}

	pageFields = []field{
		required(text("PaginaNo")),
		required(text("NoLineaDesde")),
		required(text("NoLineaHasta")),
		amount("SubtotalMontoGravadoPagina"),
		amount("SubtotalItbisPagina"),
		amount("MontoSubtotalPagina"),
		amount("SubtotalMontoNoFacturablePagina"),
	}

	referenceFields = []field{
		required(text("NCFModificado")),
		text("RNCOtroContribuyente"),
		date("FechaNCFModificado"),
		required(text("CodigoModificacion")),
		text("RazonModificacion"),
	}
)

// builder carries the state of one assembly: the active variant and the
// section being built, used to give errors their context.
type builder struct {
	variant Variant
	section string
}

func (b *builder) enter(section string) { b.section = section }

func (b *builder) fail(kind error, path string, cause error) error {
	return &BuildError{
		Kind:     kind,
		TypeCode: b.variant.Code,
		Section:  b.section,
		Path:     path,
		Err:      cause,
	}
}

func (b *builder) internal(cause error) error {
	return b.fail(ErrInternalBuild, "", cause)
}

func (b *builder) missingField(path string) error {
	return b.fail(ErrMissingRequiredField, path, nil)
}

func (b *builder) missingBlock(path string) error {
	return b.fail(ErrMissingRequiredBlock, path, nil)
}

// leaves emits fields in order from the input object n under parent.
func (b *builder) leaves(parent *etree.Element, n node, fields []field) error {
	for _, f := range fields {
		if err := b.leaf(parent, n, f); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) leaf(parent *etree.Element, n node, f field) error {
	raw, present := n.data[f.name]
	if !present || (raw == nil && f.kind != amountField) {
		switch {
		case f.fallback != "":
			parent.CreateElement(f.name).SetText(f.fallback)
			return nil
		case f.required:
			return b.missingField(n.pathOf(f.name))
		default:
			return nil
		}
	}

	value, err := b.format(f, raw)
	if err != nil {
		return b.fail(ErrInternalBuild, n.pathOf(f.name), err)
	}
	if f.omitEmpty && value == "" {
		return nil
	}
	parent.CreateElement(f.name).SetText(value)
	return nil
}

func (b *builder) format(f field, raw any) (string, error) {
	switch f.kind {
	case typeCodeField:
		return strconv.Itoa(b.variant.Code), nil
	case amountField:
		// An explicit null amount renders as zero.
		if raw == nil {
			return FormatAmount(0)
		}
		return FormatAmount(raw)
	case exchangeRateField:
		return FormatExchangeRate(raw)
	case paddedCodeField:
		return FormatPaddedCode(raw)
	case dateField:
		s, err := scalarText(raw)
		if err != nil {
			return "", err
		}
		return FormatDate(s), nil
	default:
		return scalarText(raw)
	}
}

// requiredObject resolves a mandatory sub-object, failing with MissingRequiredBlock.
func (b *builder) requiredObject(n node, key string) (node, error) {
	obj, ok, err := n.object(key)
	if err != nil {
		return node{}, b.internal(err)
	}
	if !ok {
		return node{}, b.missingBlock(n.pathOf(key))
	}
	return obj, nil
}

// populatedObject resolves an optional sub-object. Empty objects count as absent.
func (b *builder) populatedObject(n node, key string) (node, bool, error) {
	obj, ok, err := n.object(key)
	if err != nil {
		return node{}, false, b.internal(err)
	}
	if !ok || len(obj.data) == 0 {
		return node{}, false, nil
	}
	return obj, true, nil
}

func (b *builder) header(root *etree.Element, req node) error {
	b.enter("Encabezado")
	header, err := b.requiredObject(req, "Encabezado")
	if err != nil {
		return err
	}

	el := root.CreateElement("Encabezado")
	el.CreateElement("Version").SetText("1.0")

	steps := []func(*etree.Element, node) error{
		b.idDoc,
		b.issuer,
		b.buyer,
		b.additionalInfo,
		b.transport,
		b.totals,
		b.otherCurrency,
	}
	for _, step := range steps {
		if err := step(el, header); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) idDoc(parent *etree.Element, header node) error {
	b.enter("IdDoc")
	idDoc, err := b.requiredObject(header, "IdDoc")
	if err != nil {
		return err
	}
	return b.leaves(parent.CreateElement("IdDoc"), idDoc, b.variant.idDoc)
}

func (b *builder) issuer(parent *etree.Element, header node) error {
	b.enter("Emisor")
	issuer, err := b.requiredObject(header, "Emisor")
	if err != nil {
		return err
	}

	el := parent.CreateElement("Emisor")
	if err := b.leaves(el, issuer, issuerLeadFields); err != nil {
		return err
	}
	if err := b.phoneTable(el, issuer); err != nil {
		return err
	}
	return b.leaves(el, issuer, issuerTailFields)
}

// phoneTable emits TablaTelefonoEmisor from either a list of numbers or an
// object holding TelefonoEmisor.
func (b *builder) phoneTable(parent *etree.Element, issuer node) error {
	raw, ok := issuer.value("TablaTelefonoEmisor")
	if !ok {
		return nil
	}
	if m, isMap := asMap(raw); isMap {
		raw, ok = m["TelefonoEmisor"]
		if !ok || raw == nil {
			return nil
		}
	}

	var phones []any
	switch t := raw.(type) {
	case []any:
		phones = t
	default:
		phones = []any{t}
	}
	if len(phones) == 0 {
		return nil
	}

	table := parent.CreateElement("TablaTelefonoEmisor")
	for i, phone := range phones {
		s, err := scalarText(phone)
		if err != nil {
			return b.fail(ErrInternalBuild, fmt.Sprintf("%s[%d]", issuer.pathOf("TablaTelefonoEmisor"), i), err)
		}
		table.CreateElement("TelefonoEmisor").SetText(s)
	}
	return nil
}

func (b *builder) buyer(parent *etree.Element, header node) error {
	b.enter("Comprador")
	buyer, ok, err := b.populatedObject(header, "Comprador")
	if err != nil || !ok {
		return err
	}
	return b.leaves(parent.CreateElement("Comprador"), buyer, buyerFields)
}

func (b *builder) additionalInfo(parent *etree.Element, header node) error {
	b.enter("InformacionesAdicionales")
	info, ok, err := b.populatedObject(header, "InformacionesAdicionales")
	if err != nil || !ok {
		return err
	}

	el := parent.CreateElement("InformacionesAdicionales")
	if err := b.leaves(el, info, additionalInfoFields); err != nil {
		return err
	}
	if b.variant.additionalInfo != nil {
		return b.variant.additionalInfo(b, el, info)
	}
	return nil
}

func (b *builder) transport(parent *etree.Element, header node) error {
	b.enter("Transporte")
	transport, ok, err := b.populatedObject(header, "Transporte")
	if err != nil || !ok {
		return err
	}
	return b.leaves(parent.CreateElement("Transporte"), transport, transportFields)
}

func (b *builder) totals(parent *etree.Element, header node) error {
	b.enter("Totales")
	totals, err := b.requiredObject(header, "Totales")
	if err != nil {
		return err
	}
	return b.leaves(parent.CreateElement("Totales"), totals, totalsFields)
}

func (b *builder) otherCurrency(parent *etree.Element, header node) error {
	b.enter("OtraMoneda")
	currency, ok, err := header.object("OtraMoneda")
	if err != nil {
		return b.internal(err)
	}
	if !ok {
		return nil
	}
	return b.leaves(parent.CreateElement("OtraMoneda"), currency, otherCurrencyFields)
}

func (b *builder) items(root *etree.Element, req node) error {
	b.enter("DetallesItems")
	lines, ok, err := req.list("DetallesItems")
	if err != nil {
		return b.internal(err)
	}
	if !ok {
		return b.missingBlock("DetallesItems")
	}

	el := root.CreateElement("DetallesItems")
	for _, line := range lines {
		if err := b.item(el.CreateElement("Item"), line); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) item(el *etree.Element, line node) error {
	if err := b.leaves(el, line, itemLeadFields); err != nil {
		return err
	}

	currency, ok, err := line.object("OtraMonedaDetalle")
	if err != nil {
		return b.internal(err)
	}
	if ok {
		if err := b.leaves(el.CreateElement("OtraMonedaDetalle"), currency, itemCurrencyFields); err != nil {
			return err
		}
	}

	if err := b.leaf(el, line, required(amount("MontoItem"))); err != nil {
		return err
	}
	if b.variant.itemExtension != nil {
		return b.variant.itemExtension(b, el, line)
	}
	return nil
}

// repeated emits an optional top-level container with one child per entry of
// its inner list, e.g. Subtotales/Subtotal.
func (b *builder) repeated(root *etree.Element, req node, container, entry string, fields []field) error {
	b.enter(container)
	block, ok, err := b.populatedObject(req, container)
	if err != nil || !ok {
		return err
	}

	entries, _, err := block.list(entry)
	if err != nil {
		return b.internal(err)
	}

	el := root.CreateElement(container)
	for _, e := range entries {
		if err := b.leaves(el.CreateElement(entry), e, fields); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) subtotals(root *etree.Element, req node) error {
	return b.repeated(root, req, "Subtotales", "Subtotal", subtotalFields)
}

func (b *builder) adjustments(root *etree.Element, req node) error {
	return b.repeated(root, req, "DescuentosORecargos", "DescuentoORecargo", adjustmentFields)
}

func (b *builder) pagination(root *etree.Element, req node) error {
	return b.repeated(root, req, "Paginacion", "Pagina", pageFields)
}

func (b *builder) reference(root *etree.Element, req node) error {
	if !b.variant.RequiresReference {
		return nil
	}

	b.enter("InformacionReferencia")
	ref, ok, err := b.populatedObject(req, "InformacionReferencia")
	if err != nil {
		return err
	}
	if !ok {
		return b.missingBlock("InformacionReferencia")
	}
	return b.leaves(root.CreateElement("InformacionReferencia"), ref, referenceFields)
}

func (b *builder) signature(root *etree.Element) {
	b.enter("Signature")
	sig := root.CreateElement("Signature")
	sig.CreateAttr("xmlns", SignatureNamespace)
}
