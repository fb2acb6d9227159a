package seed

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/beevik/etree"
)

const (
	// ValueSize is the number of random bytes in a seed value.
	ValueSize = 128
	// DateLayout is the layout of the Fecha element.
	DateLayout = "2006-01-02 15:04:05"
)

// Seed is the challenge handed to a client before it authenticates against
// the tax authority's session protocol.
type Seed struct {
	Value string
	Date  time.Time
}

// Generator produces seeds from a random source and a clock.
type Generator struct {
	random io.Reader
	now    func() time.Time
}

// NewGenerator returns a generator. Nil arguments select crypto/rand and time.Now.
func NewGenerator(random io.Reader, now func() time.Time) *Generator {
	if random == nil {
		random = rand.Reader
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{random: random, now: now}
}

// New draws a fresh seed.
func (g *Generator) New() (Seed, error) {
	buf := make([]byte, ValueSize)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return Seed{}, fmt.Errorf("read random seed: %w", err)
	}
	return Seed{
		Value: base64.StdEncoding.EncodeToString(buf),
		Date:  g.now(),
	}, nil
}

// XML renders the seed as a SemillaModel document.
func (s Seed) XML() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	model := doc.CreateElement("SemillaModel")
	model.CreateElement("Valor").SetText(s.Value)
	model.CreateElement("Fecha").SetText(s.Date.Format(DateLayout))

	doc.Indent(2)
	return doc.WriteToBytes()
}
