package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabtally/tally/internal/middleware"
	"github.com/tabtally/tally/internal/models"
	"github.com/tabtally/tally/internal/service"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type inviteMembersRequest struct {
	UserIDs []string `json:"user_ids"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

type transferOwnershipRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	group, err := s.groups.CreateGroup(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toGroupResponse(*group))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := s.groups.GetGroup(r.Context(), middleware.GetUserID(r.Context()), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := groupDetailResponse{groupResponse: toGroupResponse(detail.Group)}
	for _, m := range detail.Members {
		resp.Members = append(resp.Members, toMemberResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.groups.UpdateGroup(r.Context(), middleware.GetUserID(r.Context()), groupID, req.Name, req.Description); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.groups.DeleteGroup(r.Context(), middleware.GetUserID(r.Context()), groupID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	members, err := s.groups.ListMembers(r.Context(), middleware.GetUserID(r.Context()), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInviteMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req inviteMembersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.groups.InviteMembers(r.Context(), middleware.GetUserID(r.Context()), groupID, req.UserIDs); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.groups.Leave(r.Context(), middleware.GetUserID(r.Context()), groupID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleChangeMemberStatus(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	targetID := chi.URLParam(r, "userID")

	var req changeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	status := models.MemberStatus(req.Status)
	if !status.Valid() {
		writeError(w, r, fmt.Errorf("%w: unknown status %q", service.ErrInvalidInput, req.Status))
		return
	}

	if err := s.groups.ChangeMemberStatus(r.Context(), middleware.GetUserID(r.Context()), groupID, targetID, status); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handlePromoteMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.groups.Promote(r.Context(), middleware.GetUserID(r.Context()), groupID, chi.URLParam(r, "userID")); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDemoteMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.groups.Demote(r.Context(), middleware.GetUserID(r.Context()), groupID, chi.URLParam(r, "userID")); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	groupID, err := urlID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req transferOwnershipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.groups.TransferOwnership(r.Context(), middleware.GetUserID(r.Context()), groupID, req.UserID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
