package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

const orderNumberLayout = "20060102150405"

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{14}-\d{4}$`)

// OrderNumber is the customer-facing order reference, e.g. ORD-20231215143022-1234.
type OrderNumber struct {
	value string
}

func ParseOrderNumber(s string) (OrderNumber, error) {
	if !orderNumberPattern.MatchString(s) {
		return OrderNumber{}, ErrInvalidOrderNumber
	}
	return OrderNumber{value: s}, nil
}

func (n OrderNumber) String() string { return n.value }
func (n OrderNumber) IsZero() bool   { return n.value == "" }

// NumberGenerator produces order numbers from a UTC timestamp and a random
// four digit suffix. Numbers are not unique by construction; callers check
// them against persisted orders.
type NumberGenerator struct {
	now  func() time.Time
	intN func(n int) int
}

// NewNumberGenerator uses now and intN when non-nil, else the wall clock and math/rand.
func NewNumberGenerator(now func() time.Time, intN func(n int) int) *NumberGenerator {
	if now == nil {
		now = time.Now
	}
	if intN == nil {
		intN = rand.IntN
	}
	return &NumberGenerator{now: now, intN: intN}
}

func (g *NumberGenerator) Generate() OrderNumber {
	suffix := 1000 + g.intN(9000)
	return OrderNumber{value: fmt.Sprintf("ORD-%s-%d", g.now().UTC().Format(orderNumberLayout), suffix)}
}
