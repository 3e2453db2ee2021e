package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/findash/internal/apperr"
	"github.com/mmynk/findash/internal/events"
	"github.com/mmynk/findash/internal/export"
	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/query"
	"github.com/mmynk/findash/internal/report"
	"github.com/mmynk/findash/internal/storage"
)

const (
	notFoundTag = "Transaction not found"
)

// TransactionService implements transaction CRUD, listing, stats and export.
// Every operation is scoped to the user passed in.
type TransactionService struct {
	store     storage.TransactionStore
	reports   *report.Engine
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewTransactionService creates a transaction service. A nil publisher
// disables events.
func NewTransactionService(store storage.TransactionStore, reports *report.Engine, publisher events.Publisher, logger *slog.Logger) *TransactionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TransactionService{
		store:     store,
		reports:   reports,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ListResult is one page of transactions.
type ListResult struct {
	Transactions []*models.Transaction `json:"transactions"`
	Pagination   query.Pagination      `json:"pagination"`
}

// List returns the page of the user's transactions selected by params.
func (s *TransactionService) List(ctx context.Context, user *models.User, params query.Params) (*ListResult, error) {
	q, err := query.Build(user.ID, params)
	if err != nil {
		return nil, err
	}

	var txs []*models.Transaction
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.FindTransactions(gctx, q.Filter, q.Sort, q.Page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountTransactions(gctx, q.Filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to list transactions", "user_id", user.ID, "error", err)
		return nil, apperr.Internal("Failed to fetch transactions", "An error occurred while fetching transactions", err)
	}

	return &ListResult{
		Transactions: txs,
		Pagination:   query.NewPagination(q.PageNumber, q.Limit, total),
	}, nil
}

// Get returns one of the user's transactions.
func (s *TransactionService) Get(ctx context.Context, user *models.User, id string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound(notFoundTag, "Transaction does not exist or you do not have permission to view it")
	}
	if err != nil {
		s.logger.Error("Failed to get transaction", "user_id", user.ID, "transaction_id", id, "error", err)
		return nil, apperr.Internal("Failed to fetch transaction", "An error occurred while fetching the transaction", err)
	}
	return tx, nil
}

// TransactionInput is the body of a create request. Date accepts the
// formats of query.ParseDate; Amount is a pointer so a missing amount can be
// told apart from zero.
type TransactionInput struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Avatar      string   `json:"avatar"`
	Date        string   `json:"date"`
	Amount      *float64 `json:"amount"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	Reference   string   `json:"reference"`
}

// Create stores a new transaction owned by user.
func (s *TransactionService) Create(ctx context.Context, user *models.User, in TransactionInput) (*models.Transaction, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Amount == nil ||
		strings.TrimSpace(in.Type) == "" || strings.TrimSpace(in.Category) == "" {
		return nil, apperr.Validation("Name, email, amount, type, and category are required", nil)
	}

	draft := models.Transaction{
		Name:        in.Name,
		Email:       in.Email,
		Avatar:      strings.TrimSpace(in.Avatar),
		Amount:      *in.Amount,
		Type:        models.TransactionType(strings.TrimSpace(in.Type)),
		Category:    models.Category(strings.TrimSpace(in.Category)),
		Status:      models.Status(strings.TrimSpace(in.Status)),
		Description: in.Description,
		Reference:   in.Reference,
	}
	if date := strings.TrimSpace(in.Date); date != "" {
		d, _, err := query.ParseDate(date)
		if err != nil {
			return nil, apperr.Validation("Invalid transaction date",
				[]models.FieldError{{Field: "date", Message: err.Error()}})
		}
		draft.Date = d
	}

	tx := models.NewTransaction(user.ID, draft)
	if v := models.ValidateTransaction(tx); !v.OK() {
		return nil, apperr.FromValidation(v, "")
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		s.logger.Error("Failed to create transaction", "user_id", user.ID, "error", err)
		return nil, apperr.Internal("Failed to create transaction", "An error occurred while creating the transaction", err)
	}

	s.logger.Info("Transaction created", "user_id", user.ID, "transaction_id", tx.ID)
	s.publish(ctx, events.New(events.TransactionCreated, user.ID, tx.ID, tx))
	return tx, nil
}

// TransactionPatchInput is the body of an update request. Nil fields are
// left unchanged.
type TransactionPatchInput struct {
	Name        *string  `json:"name"`
	Email       *string  `json:"email"`
	Avatar      *string  `json:"avatar"`
	Date        *string  `json:"date"`
	Amount      *float64 `json:"amount"`
	Type        *string  `json:"type"`
	Category    *string  `json:"category"`
	Status      *string  `json:"status"`
	Description *string  `json:"description"`
	Reference   *string  `json:"reference"`
}

func (in TransactionPatchInput) toPatch() (models.TransactionPatch, error) {
	p := models.TransactionPatch{
		Name:        in.Name,
		Email:       in.Email,
		Avatar:      in.Avatar,
		Amount:      in.Amount,
		Description: in.Description,
		Reference:   in.Reference,
	}
	if in.Date != nil {
		d, _, err := query.ParseDate(strings.TrimSpace(*in.Date))
		if err != nil {
			return p, apperr.Validation("Invalid transaction date",
				[]models.FieldError{{Field: "date", Message: err.Error()}})
		}
		p.Date = &d
	}
	if in.Type != nil {
		t := models.TransactionType(strings.TrimSpace(*in.Type))
		p.Type = &t
	}
	if in.Category != nil {
		c := models.Category(strings.TrimSpace(*in.Category))
		p.Category = &c
	}
	if in.Status != nil {
		st := models.Status(strings.TrimSpace(*in.Status))
		p.Status = &st
	}
	return p, nil
}

// Update applies a partial update to one of the user's transactions.
// The result is validated like a new transaction.
func (s *TransactionService) Update(ctx context.Context, user *models.User, id string, in TransactionPatchInput) (*models.Transaction, error) {
	patch, err := in.toPatch()
	if err != nil {
		return nil, err
	}

	tx, err := s.store.GetTransaction(ctx, user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound(notFoundTag, "Transaction does not exist or you do not have permission to update it")
	}
	if err != nil {
		s.logger.Error("Failed to load transaction for update", "user_id", user.ID, "transaction_id", id, "error", err)
		return nil, apperr.Internal("Failed to update transaction", "An error occurred while updating the transaction", err)
	}

	if patch.Empty() {
		return tx, nil
	}

	patch.Apply(tx)
	if v := models.ValidateTransaction(tx); !v.OK() {
		return nil, apperr.FromValidation(v, "")
	}
	tx.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	err = s.store.UpdateTransaction(ctx, tx)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted between the read and the write.
		return nil, apperr.NotFound(notFoundTag, "Transaction does not exist or you do not have permission to update it")
	}
	if err != nil {
		s.logger.Error("Failed to update transaction", "user_id", user.ID, "transaction_id", id, "error", err)
		return nil, apperr.Internal("Failed to update transaction", "An error occurred while updating the transaction", err)
	}

	s.logger.Info("Transaction updated", "user_id", user.ID, "transaction_id", tx.ID)
	s.publish(ctx, events.New(events.TransactionUpdated, user.ID, tx.ID, tx))
	return tx, nil
}

// Delete removes one of the user's transactions.
func (s *TransactionService) Delete(ctx context.Context, user *models.User, id string) error {
	err := s.store.DeleteTransaction(ctx, user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(notFoundTag, "Transaction does not exist or you do not have permission to delete it")
	}
	if err != nil {
		s.logger.Error("Failed to delete transaction", "user_id", user.ID, "transaction_id", id, "error", err)
		return apperr.Internal("Failed to delete transaction", "An error occurred while deleting the transaction", err)
	}

	s.logger.Info("Transaction deleted", "user_id", user.ID, "transaction_id", id)
	s.publish(ctx, events.New(events.TransactionDeleted, user.ID, id, nil))
	return nil
}

// Stats computes the user's dashboard statistics.
func (s *TransactionService) Stats(ctx context.Context, user *models.User) (*report.Stats, error) {
	stats, err := s.reports.Dashboard(ctx, user.ID)
	if err != nil {
		s.logger.Error("Failed to compute dashboard stats", "user_id", user.ID, "error", err)
		return nil, apperr.Internal("Failed to fetch dashboard stats", "An error occurred while fetching dashboard statistics", err)
	}
	return stats, nil
}

// ExportResult is a rendered CSV file.
type ExportResult struct {
	Filename string
	Data     []byte
	Rows     int
}

// Export renders the user's matching transactions, newest first, as CSV.
func (s *TransactionService) Export(ctx context.Context, user *models.User, params query.ExportParams) (*ExportResult, error) {
	filter, err := query.BuildExportFilter(user.ID, params)
	if err != nil {
		return nil, err
	}
	columns, err := export.ResolveColumns(params.Columns)
	if err != nil {
		return nil, err
	}

	txs, err := s.store.FindTransactions(ctx, filter, storage.DefaultSort, storage.Page{})
	if err != nil {
		s.logger.Error("Failed to load transactions for export", "user_id", user.ID, "error", err)
		return nil, apperr.Internal("Failed to export transactions", "An error occurred while exporting transactions to CSV", err)
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, txs, columns); err != nil {
		s.logger.Error("Failed to render CSV", "user_id", user.ID, "error", err)
		return nil, apperr.Internal("Failed to export transactions", "An error occurred while exporting transactions to CSV", err)
	}

	s.logger.Info("Transactions exported", "user_id", user.ID, "rows", len(txs))
	return &ExportResult{
		Filename: export.Filename(s.now()),
		Data:     buf.Bytes(),
		Rows:     len(txs),
	}, nil
}

// publish sends e and logs failures; events never fail a request.
func (s *TransactionService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn("Failed to publish event",
			"type", e.Type,
			"transaction_id", e.TransactionID,
			"error", err,
		)
	}
}
