package services

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return realClock{}
}

// IDGen produces unique, time-sortable identifiers.
type IDGen interface {
	New(t time.Time) (string, error)
}

type ulidGen struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewULIDGen returns an IDGen backed by monotonic ULIDs.
func NewULIDGen() IDGen {
	return &ulidGen{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ulidGen) New(t time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
