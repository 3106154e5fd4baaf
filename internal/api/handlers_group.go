package api

import (
	"net/http"

	"ajopot/internal/middleware"
	"ajopot/internal/models"
)

type createGroupRequest struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Interval     string  `json:"interval"`
}

type joinGroupRequest struct {
	InviteCode string `json:"invite_code"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	callerUID := middleware.GetUserID(r.Context())
	group, err := s.groups.CreateGroup(r.Context(), callerUID, req.Name, req.Contribution, models.Interval(req.Interval))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toGroupView(group, nil, true))
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	var req joinGroupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	callerUID := middleware.GetUserID(r.Context())
	group, err := s.groups.JoinGroup(r.Context(), callerUID, req.InviteCode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGroupView(group, nil, false))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	callerUID := middleware.GetUserID(r.Context())
	group, members, err := s.groups.GetGroup(r.Context(), r.PathValue("id"), callerUID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGroupView(group, members, callerUID == group.OwnerID))
}
