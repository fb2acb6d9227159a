package testutil

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// SequenceTypes are the document types that carry FechaVencimientoSecuencia.
var SequenceTypes = []int{41, 43, 44, 45, 46, 47}

// AllTypes are every registered document type.
var AllTypes = []int{31, 32, 33, 34, 41, 43, 44, 45, 46, 47}

// FixedTime is the instant used by fixed test clocks.
var FixedTime = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

// FixedClock always returns FixedTime.
func FixedClock() time.Time { return FixedTime }

// ECFRequest returns a complete, valid input record for the given type code,
// including the blocks each type requires.
func ECFRequest(typeCode int) map[string]any {
	data := map[string]any{
		"Encabezado": map[string]any{
			"IdDoc": map[string]any{
				"TipoeCF":               typeCode,
				"eNCF":                  fmt.Sprintf("E%d00000001", typeCode),
				"IndicadorMontoGravado": 0,
				"TipoIngresos":          1,
				"TipoPago":              1,
				"FechaLimitePago":       "2023-12-31",
			},
			"Emisor": map[string]any{
				"RNCEmisor":         "101010101",
				"RazonSocialEmisor": "Emisor Test",
				"FechaEmision":      "2023-10-27",
				"DireccionEmisor":   "Calle Principal 123",
			},
			"Comprador": map[string]any{
				"RNCComprador":         "202020202",
				"RazonSocialComprador": "Comprador Test",
			},
			"Totales": map[string]any{
				"TotalITBIS": 18.00,
				"MontoTotal": 118.00,
			},
			"OtraMoneda": map[string]any{
				"TipoMoneda": "USD",
				"TipoCambio": 58.50,
			},
		},
		"DetallesItems": []any{
			map[string]any{
				"NumeroLinea":          1,
				"IndicadorFacturacion": 1,
				"NombreItem":           "Item Test",
				"CantidadItem":         1,
				"PrecioUnitarioItem":   100.00,
				"MontoItem":            100.00,
			},
		},
	}

	header := data["Encabezado"].(map[string]any)
	idDoc := header["IdDoc"].(map[string]any)
	item := data["DetallesItems"].([]any)[0].(map[string]any)

	switch typeCode {
	case 32:
		delete(header["Comprador"].(map[string]any), "RNCComprador")
	case 33, 34:
		data["InformacionReferencia"] = map[string]any{
			"NCFModificado":      "B0100000001",
			"CodigoModificacion": 1,
			"RazonModificacion":  "Error en precio",
		}
	case 46:
		header["InformacionesAdicionales"] = map[string]any{
			"TotalFob":        1000.00,
			"RegimenAduanero": "Export",
		}
		item["Mineria"] = map[string]any{"PesoNetoKilogramo": 50.00}
	case 47:
		header["Comprador"] = map[string]any{
			"IdentificadorExtranjero": "EXT123456",
			"RazonSocialComprador":    "Foreign Corp",
		}
		item["Retencion"] = map[string]any{
			"IndicadorAgenteRetencionoPercepcion": 1,
			"MontoISRRetenido":                    10.00,
		}
		header["Totales"].(map[string]any)["TotalISRRetencion"] = 10.00
	}

	if slices.Contains(SequenceTypes, typeCode) {
		idDoc["FechaVencimientoSecuencia"] = "2024-12-31"
	}
	return data
}

// ECFRequestJSON returns ECFRequest encoded as JSON.
func ECFRequestJSON(typeCode int) []byte {
	data, err := json.Marshal(ECFRequest(typeCode))
	if err != nil {
		panic(err)
	}
	return data
}

// Dig walks nested maps by key and returns the object found, or nil.
func Dig(data map[string]any, keys ...string) map[string]any {
	current := data
	for _, k := range keys {
		next, ok := current[k].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}
