package ecf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Request is a decoded e-CF input record. Keys are the e-CF element names
// (Encabezado, DetallesItems, ...). Numbers decoded from JSON should be kept
// as json.Number so decimals are not rounded through float64.
type Request map[string]any

// DecodeJSON decodes a single request, keeping numbers as json.Number.
func DecodeJSON(data []byte) (Request, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("decode request: empty document")
	}
	return req, nil
}

// DecodeJSONList decodes a JSON array of requests, keeping numbers as json.Number.
func DecodeJSONList(data []byte) ([]Request, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var reqs []Request
	if err := dec.Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decode request list: %w", err)
	}
	for i, req := range reqs {
		if req == nil {
			return nil, fmt.Errorf("decode request list: entry %d is empty", i)
		}
	}
	return reqs, nil
}

// DecodeYAML decodes a single request written as a YAML mapping. Values that
// must keep leading zeros (RNC, codes) have to be quoted in the source.
func DecodeYAML(data []byte) (Request, error) {
	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("decode request: empty document")
	}
	return req, nil
}

// ENCF returns Encabezado.IdDoc.eNCF as text, or "" when it is absent.
func (r Request) ENCF() string {
	header, ok := root(r).child("Encabezado")
	if !ok {
		return ""
	}
	idDoc, ok := header.child("IdDoc")
	if !ok {
		return ""
	}
	v, ok := idDoc.value("eNCF")
	if !ok {
		return ""
	}
	s, err := scalarText(v)
	if err != nil {
		return ""
	}
	return s
}

// node is a read-only view over one object of the request with its dotted path.
type node struct {
	path string
	data map[string]any
}

func root(r Request) node {
	return node{data: r}
}

func (n node) pathOf(key string) string {
	if n.path == "" {
		return key
	}
	return n.path + "." + key
}

// value returns the raw value under key. JSON null counts as absent.
func (n node) value(key string) (any, bool) {
	v, ok := n.data[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// child returns the object under key. It ignores values that are not objects;
// use object when a wrong shape must be reported.
func (n node) child(key string) (node, bool) {
	v, ok := n.value(key)
	if !ok {
		return node{}, false
	}
	m, ok := asMap(v)
	if !ok {
		return node{}, false
	}
	return node{path: n.pathOf(key), data: m}, true
}

// object returns the object under key, failing when the value has another shape.
func (n node) object(key string) (node, bool, error) {
	v, ok := n.value(key)
	if !ok {
		return node{}, false, nil
	}
	m, ok := asMap(v)
	if !ok {
		return node{}, false, fmt.Errorf("%s: expected object, got %T", n.pathOf(key), v)
	}
	return node{path: n.pathOf(key), data: m}, true, nil
}

// list returns the objects of the array under key.
func (n node) list(key string) ([]node, bool, error) {
	v, ok := n.value(key)
	if !ok {
		return nil, false, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, false, fmt.Errorf("%s: expected array, got %T", n.pathOf(key), v)
	}

	out := make([]node, 0, len(items))
	for i, item := range items {
		m, ok := asMap(item)
		if !ok {
			return nil, false, fmt.Errorf("%s[%d]: expected object, got %T", n.pathOf(key), i, item)
		}
		out = append(out, node{path: fmt.Sprintf("%s[%d]", n.pathOf(key), i), data: m})
	}
	return out, true, nil
}

// asMap accepts both JSON objects and YAML mappings.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Request:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// scalarText renders a scalar input value as element text.
func scalarText(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("expected scalar, got %T", v)
	}
}
