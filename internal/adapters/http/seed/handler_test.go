package seed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appseed "3tcapital/ms_ecf_core/internal/application/seed"
	coreseed "3tcapital/ms_ecf_core/internal/core/seed"
	"3tcapital/ms_ecf_core/internal/testutil"
)

type semillaModel struct {
	XMLName xml.Name `xml:"SemillaModel"`
	Valor   string   `xml:"Valor"`
	Fecha   string   `xml:"Fecha"`
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestHandler_Issue(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC) }
	random := bytes.NewReader(bytes.Repeat([]byte{0xAB}, coreseed.ValueSize))
	service := appseed.NewService(coreseed.NewGenerator(random, now), nil, testutil.NewNullLogger())
	handler := NewHandler(service, testutil.NewNullLogger())

	w := httptest.NewRecorder()
	handler.Issue(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/semilla", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status code %d, got %d", http.StatusOK, w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/xml; charset=utf-8" {
		t.Errorf("expected XML content type, got %q", ct)
	}

	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", cc)
	}

	var model semillaModel
	if err := xml.Unmarshal(w.Body.Bytes(), &model); err != nil {
		t.Fatalf("failed to parse seed XML: %v", err)
	}

	if model.Fecha != "2024-06-01 08:30:00" {
		t.Errorf("unexpected Fecha %q", model.Fecha)
	}

	if len(model.Valor) != 172 {
		t.Errorf("expected base64 of 128 bytes (172 chars), got %d", len(model.Valor))
	}
}

func TestHandler_Issue_Failure(t *testing.T) {
	service := appseed.NewService(coreseed.NewGenerator(brokenReader{}, nil), nil, testutil.NewNullLogger())
	handler := NewHandler(service, testutil.NewNullLogger())

	w := httptest.NewRecorder()
	handler.Issue(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/semilla", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status code %d, got %d", http.StatusInternalServerError, w.Code)
	}
}
