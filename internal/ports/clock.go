package ports

import (
	"time"

	"github.com/triade/core/internal/domain/entities"
)

// Clock abstracts "now" so scheduling logic can be tested against a frozen
// instant. All planner semantics run in the user-facing zone (UTC-3).
type Clock interface {
	Now() time.Time
	Today() entities.Date
}

// UserZone is the fixed offset all calendar math is anchored to.
var UserZone = time.FixedZone("UTC-3", -3*3600)

type realClock struct{}

// NewClock returns the wall clock in the user-facing zone.
func NewClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now().In(UserZone) }

func (c realClock) Today() entities.Date { return entities.DateOf(c.Now()) }

// FixedClock always reports the same instant. Test helper.
type FixedClock struct {
	Instant time.Time
}

func (f FixedClock) Now() time.Time          { return f.Instant.In(UserZone) }
func (f FixedClock) Today() entities.Date    { return entities.DateOf(f.Now()) }
