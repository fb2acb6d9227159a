package seed_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/ms_ecf_core/internal/core/seed"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerator_New(t *testing.T) {
	now := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	random := bytes.NewReader(bytes.Repeat([]byte{0xAB}, seed.ValueSize))

	s, err := seed.NewGenerator(random, func() time.Time { return now }).New()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(s.Value)
	require.NoError(t, err)
	assert.Len(t, raw, seed.ValueSize)
	assert.Equal(t, byte(0xAB), raw[0])
	assert.Equal(t, now, s.Date)
}

func TestGenerator_DefaultsProduceDistinctSeeds(t *testing.T) {
	g := seed.NewGenerator(nil, nil)

	first, err := g.New()
	require.NoError(t, err)
	second, err := g.New()
	require.NoError(t, err)

	assert.NotEqual(t, first.Value, second.Value)
	assert.False(t, first.Date.IsZero())
}

func TestGenerator_RandomFailure(t *testing.T) {
	_, err := seed.NewGenerator(failingReader{}, nil).New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestGenerator_ShortRandomSource(t *testing.T) {
	_, err := seed.NewGenerator(strings.NewReader("short"), nil).New()
	assert.Error(t, err)
}

func TestSeed_XML(t *testing.T) {
	s := seed.Seed{Value: "c2VtaWxsYQ==", Date: time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)}

	out, err := s.XML()
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	assert.Equal(t, "SemillaModel", doc.Root().Tag)
	assert.Equal(t, "c2VtaWxsYQ==", doc.FindElement("SemillaModel/Valor").Text())
	assert.Equal(t, "2024-03-05 14:07:09", doc.FindElement("SemillaModel/Fecha").Text())
	assert.True(t, strings.HasPrefix(string(out), `<?xml version="1.0" encoding="UTF-8"?>`))
}
