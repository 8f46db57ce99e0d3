// Package graph defines the read-only contract against the trade
// relationship store and its SQL-backed implementation. The engine
// never issues writes; graph population is owned by the ingest
// pipeline.
package graph

import (
	"context"
	"time"

	apperrors "github.com/meridianfin/tradegate/pkg/errors"
	"github.com/meridianfin/tradegate/pkg/models"
)

// EntityNode is a counterparty node as stored in the graph.
type EntityNode struct {
	Name            string
	Type            models.EntityType
	Country         string
	OnSanctionsList bool
}

// Instrument is a letter of credit linked to an entity, together with
// the supporting-document facts the feature extractor derives from.
type Instrument struct {
	ID           string
	Counterparty string
	Amount       float64
	IssueDate    time.Time

	// Shipment facts. LatestShipmentDate is the contractual deadline;
	// ShipmentDate is nil until a shipment record is linked.
	LatestShipmentDate *time.Time
	ShipmentDate       *time.Time

	// Invoice facts. InvoiceAmount is nil until an invoice is linked.
	InvoiceAmount *float64

	HasInvoice     bool
	HasShipmentDoc bool
	HasPackingList bool

	Amended            bool
	FraudFlag          bool
	SuspiciousActivity bool

	// PortCountry is the ISO code of the port country the instrument
	// routes through, empty when no port is linked.
	PortCountry string
}

// DocsComplete reports whether all three supporting documents are
// present.
func (in Instrument) DocsComplete() bool {
	return in.HasInvoice && in.HasShipmentDoc && in.HasPackingList
}

// Session is one store connection. Workers own their sessions; sessions
// are not safe for concurrent use.
type Session interface {
	// Entity looks up a node by name and type. Returns a NotFound error
	// when the entity is absent.
	Entity(ctx context.Context, name string, typ models.EntityType) (*EntityNode, error)

	// Instruments returns the instruments linked to the entity with an
	// issue date at or after since.
	Instruments(ctx context.Context, name string, typ models.EntityType, since time.Time) ([]Instrument, error)

	// SanctionedWithinHops reports whether any entity reachable from
	// name within maxHops relationship hops is itself flagged as a
	// sanctions match. The start entity is excluded.
	SanctionedWithinHops(ctx context.Context, name string, maxHops int) (bool, error)

	// SanctionedAmong counts how many of the named entities are flagged
	// as sanctions matches.
	SanctionedAmong(ctx context.Context, names []string) (int, error)

	Close() error
}

// Store hands out sessions. Implementations must allow concurrent
// Session calls.
type Store interface {
	Session(ctx context.Context) (Session, error)
	Close() error
}

// WithRetry runs fn on a fresh session, and once more on another fresh
// session if the first attempt fails with a transient store error.
// Misconfiguration and lookup errors are never retried.
func WithRetry[T any](ctx context.Context, store Store, onRetry func(error), fn func(Session) (T, error)) (T, error) {
	var zero T

	run := func() (T, error) {
		sess, err := store.Session(ctx)
		if err != nil {
			return zero, err
		}
		defer sess.Close()
		return fn(sess)
	}

	out, err := run()
	if err == nil || !apperrors.Retryable(err) {
		return out, err
	}
	if onRetry != nil {
		onRetry(err)
	}
	return run()
}
