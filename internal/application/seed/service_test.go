package seed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreseed "3tcapital/ms_ecf_core/internal/core/seed"
	"3tcapital/ms_ecf_core/internal/infrastructure/metrics"
	"3tcapital/ms_ecf_core/internal/testutil"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestService_Issue(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }
	random := bytes.NewReader(bytes.Repeat([]byte{0x01}, coreseed.ValueSize))
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(coreseed.NewGenerator(random, now), m, testutil.NewNullLogger())

	issued, err := svc.Issue(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, issued.Seed.Value)
	assert.Contains(t, string(issued.XML), "<SemillaModel>")
	assert.Contains(t, string(issued.XML), "<Fecha>2024-03-05 14:07:09</Fecha>")
	assert.Contains(t, string(issued.XML), "<Valor>"+issued.Seed.Value+"</Valor>")
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.SeedsIssued))
}

func TestService_Issue_RandomFailure(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(coreseed.NewGenerator(failingReader{}, nil), m, testutil.NewNullLogger())

	_, err := svc.Issue(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
	assert.Equal(t, 0.0, promtestutil.ToFloat64(m.SeedsIssued))
}

func TestService_Issue_Defaults(t *testing.T) {
	svc := NewService(nil, nil, nil)

	first, err := svc.Issue(context.Background())
	require.NoError(t, err)
	second, err := svc.Issue(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.Seed.Value, second.Seed.Value)
}
