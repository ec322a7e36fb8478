package server

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tabtally/tally/internal/ledger"
	"github.com/tabtally/tally/internal/middleware"
	"github.com/tabtally/tally/internal/service"
)

type splitRequest struct {
	RecipientID string `json:"recipient_id"`
	Amount      string `json:"amount"`
}

type createTransactionRequest struct {
	PayerID     string         `json:"payer_id"`
	Amount      string         `json:"amount"`
	Description string         `json:"description"`
	Splits      []splitRequest `json:"splits"`
}

type editTransactionRequest struct {
	PayerID     *string        `json:"payer_id"`
	Amount      *string        `json:"amount"`
	Description *string        `json:"description"`
	Splits      []splitRequest `json:"splits"`
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", service.ErrInvalidInput, raw)
	}
	return amount, nil
}

func parseSplits(reqs []splitRequest) ([]ledger.ProposedSplit, error) {
	splits := make([]ledger.ProposedSplit, 0, len(reqs))
	for _, s := range reqs {
		amount, err := parseAmount(s.Amount)
		if err != nil {
			return nil, err
		}
		splits = append(splits, ledger.ProposedSplit{RecipientID: s.RecipientID, Amount: amount})
	}
	return splits, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	splits, err := parseSplits(req.Splits)
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := s.transactions.Create(r.Context(), middleware.GetUserID(r.Context()), ledger.ProposedTransaction{
		GroupID:     groupID,
		PayerID:     req.PayerID,
		Amount:      amount,
		Description: req.Description,
		Splits:      splits,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(*detail))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "transactionID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := s.transactions.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(*detail))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	details, err := s.transactions.ListByGroup(r.Context(), middleware.GetUserID(r.Context()), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toTransactionResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "transactionID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req editTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := ledger.Patch{
		PayerID:     req.PayerID,
		Description: req.Description,
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if req.Splits != nil {
		splits, err := parseSplits(req.Splits)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Splits = splits
	}

	if err := s.transactions.Edit(r.Context(), middleware.GetUserID(r.Context()), id, patch); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "transactionID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.transactions.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
