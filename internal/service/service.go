// Package service holds the shop's use cases: the flavor catalog, the daily
// selection operations, the public menu and staff authentication. It never
// sees HTTP; callers pass the authenticated actor explicitly.
package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/smakiapp/smaki-server/internal/domain"
	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
	"github.com/smakiapp/smaki-server/internal/sse"
	"github.com/smakiapp/smaki-server/internal/store"
)

// Actor identifies who performs a staff operation.
type Actor struct {
	Username string
}

// System is the actor for maintenance jobs and the CLI.
var System = Actor{Username: "system"}

// Emitter receives change notifications. *sse.Manager implements it.
type Emitter interface {
	Emit(event sse.Event)
}

// NoopEmitter discards events.
type NoopEmitter struct{}

// Emit implements Emitter.
func (NoopEmitter) Emit(sse.Event) {}

func orNoop(e Emitter) Emitter {
	if e == nil {
		return NoopEmitter{}
	}
	return e
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

func clockNow(c domain.Clock) time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// storeError translates an error coming out of the store. Domain errors
// raised inside a transaction pass through; ErrNotFound becomes notFound;
// anything else is a persistence failure, logged here once.
func storeError(logger *slog.Logger, op string, err error, notFound *domainerrors.Error) error {
	if err == nil {
		return nil
	}
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, store.ErrNotFound) && notFound != nil {
		return notFound
	}
	logger.Error("persistence failure", "op", op, "error", err)
	return domainerrors.Persistence(err)
}
