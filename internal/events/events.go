// Package events publishes notifications about transaction changes.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmynk/findash/internal/models"
)

// Type names what happened to a transaction. It doubles as the routing key.
type Type string

const (
	TransactionCreated Type = "transaction.created"
	TransactionUpdated Type = "transaction.updated"
	TransactionDeleted Type = "transaction.deleted"
)

// Event describes one change. Transaction is nil for deletions.
type Event struct {
	Type          Type                `json:"type"`
	UserID        string              `json:"userId"`
	TransactionID string              `json:"transactionId"`
	Transaction   *models.Transaction `json:"transaction,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
}

// New creates an event stamped with the current time.
func New(typ Type, userID, transactionID string, tx *models.Transaction) Event {
	return Event{
		Type:          typ,
		UserID:        userID,
		TransactionID: transactionID,
		Transaction:   tx,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON encodes the event as a message body.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
