package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/findash/internal/apperr"
	"github.com/mmynk/findash/internal/auth"
	"github.com/mmynk/findash/internal/events"
	"github.com/mmynk/findash/internal/report"
	"github.com/mmynk/findash/internal/storage/sqlite"
	"github.com/mmynk/findash/pkg/logging"
)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	store     *sqlite.SQLiteStore
	auth      *AuthService
	txs       *TransactionService
	jwt       *auth.JWTManager
	publisher *recordingPublisher
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := logging.Discard()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store, auth.WithBcryptCost(bcrypt.MinCost))
	publisher := &recordingPublisher{}

	return &testEnv{
		store:     store,
		auth:      NewAuthService(authenticator, jwtManager, store, logger),
		txs:       NewTransactionService(store, report.NewEngine(store, report.WithLocation(time.UTC)), publisher, logger),
		jwt:       jwtManager,
		publisher: publisher,
	}
}

func requireCode(t *testing.T, err error, want apperr.Code) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected *apperr.Error, got %T: %v", err, err)
	require.Equal(t, want, appErr.Code, "unexpected code for %v", err)
	return appErr
}
