package catalog

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// CodeGenerator assigns unique product codes of the form
// PREFIX-YYYYMMDD-NNNNNN. The random suffix keeps the namespace practically
// unique for a single site; the database unique constraint is the real guard
// and a collision surfaces as a conflict on insert.
type CodeGenerator struct {
	prefix string
	now    func() time.Time
	intN   func(int) int
}

// NewCodeGenerator builds a generator with the given prefix.
func NewCodeGenerator(prefix string) *CodeGenerator {
	if prefix == "" {
		prefix = "QR"
	}
	return &CodeGenerator{prefix: prefix, now: time.Now, intN: rand.IntN}
}

// Next returns a freshly generated code.
func (g *CodeGenerator) Next() string {
	datePart := g.now().UTC().Format("20060102")
	return fmt.Sprintf("%s-%s-%06d", g.prefix, datePart, g.intN(1_000_000))
}
