package server

import (
	"github.com/tabtally/tally/internal/models"
	"github.com/tabtally/tally/internal/service"
)

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type groupResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type memberResponse struct {
	UserID    string `json:"user_id"`
	IsAdmin   bool   `json:"is_admin"`
	Status    string `json:"status"`
	InvitedBy string `json:"invited_by"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type groupDetailResponse struct {
	groupResponse
	Members []memberResponse `json:"members"`
}

type splitResponse struct {
	ID          int64   `json:"id"`
	RecipientID *string `json:"recipient_id"`
	Amount      string  `json:"amount"`
}

type transactionResponse struct {
	ID          int64           `json:"id"`
	GroupID     int64           `json:"group_id"`
	CreatedBy   *string         `json:"created_by"`
	PayerID     *string         `json:"payer_id"`
	Amount      string          `json:"amount"`
	Description string          `json:"description,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
	Splits      []splitResponse `json:"splits"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toGroupResponse(g models.Group) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func toMemberResponse(m models.Membership) memberResponse {
	return memberResponse{
		UserID:    m.UserID,
		IsAdmin:   m.IsAdmin,
		Status:    string(m.Status),
		InvitedBy: m.InvitedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toTransactionResponse(d service.TransactionDetail) transactionResponse {
	splits := make([]splitResponse, 0, len(d.Splits))
	for _, s := range d.Splits {
		splits = append(splits, splitResponse{
			ID:          s.ID,
			RecipientID: s.RecipientID,
			Amount:      s.Amount.String(),
		})
	}
	t := d.Transaction
	return transactionResponse{
		ID:          t.ID,
		GroupID:     t.GroupID,
		CreatedBy:   t.CreatedBy,
		PayerID:     t.PayerID,
		Amount:      t.Amount.String(),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Splits:      splits,
	}
}
