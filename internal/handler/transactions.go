package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/query"
	"github.com/mmynk/findash/internal/service"
)

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request, user *models.User) {
	result, err := h.transactions.List(r.Context(), user, query.ParamsFromValues(r.URL.Query()))
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch transactions", "An error occurred while fetching transactions")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request, user *models.User) {
	tx, err := h.transactions.Get(r.Context(), user, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch transaction", "An error occurred while fetching the transaction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": tx})
}

func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request, user *models.User) {
	var in service.TransactionInput
	if !h.readBody(w, r, &in) {
		return
	}

	tx, err := h.transactions.Create(r.Context(), user, in)
	if err != nil {
		h.writeError(w, r, err, "Failed to create transaction", "An error occurred while creating the transaction")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Transaction created successfully",
		"transaction": tx,
	})
}

func (h *Handler) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, user *models.User) {
	var in service.TransactionPatchInput
	if !h.readBody(w, r, &in) {
		return
	}

	tx, err := h.transactions.Update(r.Context(), user, r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err, "Failed to update transaction", "An error occurred while updating the transaction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Transaction updated successfully",
		"transaction": tx,
	})
}

func (h *Handler) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := h.transactions.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		h.writeError(w, r, err, "Failed to delete transaction", "An error occurred while deleting the transaction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request, user *models.User) {
	stats, err := h.transactions.Stats(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch dashboard stats", "An error occurred while fetching dashboard statistics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, user *models.User) {
	var in query.ExportParams
	if !h.readBody(w, r, &in) {
		return
	}

	result, err := h.transactions.Export(r.Context(), user, in)
	if err != nil {
		h.writeError(w, r, err, "Failed to export transactions", "An error occurred while exporting transactions to CSV")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.logger.Warn("Failed to write export", "user_id", user.ID, "error", err)
	}
}
