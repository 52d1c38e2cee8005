package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/circlegod/circlegod/internal/api/middleware"
	"github.com/circlegod/circlegod/internal/conversation"
	"github.com/circlegod/circlegod/pkg/models"
)

// Chat runs one conversation turn: classify, fetch data, answer,
// normalize the chart.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	workspace := middleware.GetWorkspace(r.Context())
	result, err := h.Orchestrator.HandleTurn(r.Context(), workspace, req)
	if err != nil {
		var empty *conversation.ErrEmptyMessages
		if errors.As(err, &empty) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().
		Str("workspace", workspace).
		Str("dataset", req.DatasetID).
		Bool("chart", result.Visualization != nil).
		Msg("Chat turn completed")
	respondJSON(w, http.StatusOK, result)
}

// ChatInfo describes how to call the chat endpoint and which datasets
// can back a conversation.
func (h *Handlers) ChatInfo(w http.ResponseWriter, r *http.Request) {
	datasets := h.Executor.Catalog().List()
	supported := make([]map[string]string, len(datasets))
	for i, ds := range datasets {
		supported[i] = map[string]string{
			"id":          ds.ID,
			"name":        ds.Name,
			"description": ds.Description,
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":  "POST a JSON body with a messages array to converse",
		"datasets": supported,
		"example": models.ChatRequest{
			Messages: []models.ChatMessage{
				{Role: models.RoleUser, Content: "show user growth as a line chart"},
			},
			DatasetID: "users-2025",
		},
	})
}

// CreateSession starts an empty named session. The chat endpoint also
// creates sessions implicitly on first use of a sessionId.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var session models.ChatSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	session.Workspace = middleware.GetWorkspace(r.Context())
	if session.Messages == nil {
		session.Messages = []models.ChatMessage{}
	}

	if err := h.Orchestrator.Sessions().CreateSession(r.Context(), &session); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

// ListSessions returns the workspace's chat sessions, newest first.
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	workspace := middleware.GetWorkspace(r.Context())
	sessions, err := h.Orchestrator.Sessions().ListSessions(r.Context(), workspace, 100)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []models.ChatSession{}
	}
	respondJSON(w, http.StatusOK, sessions)
}

// GetSession returns one session with its full message history.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	session, err := h.Orchestrator.Sessions().GetSession(r.Context(), id)
	if err != nil {
		var notFound *conversation.ErrSessionNotFound
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// DeleteSession removes a session.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := h.Orchestrator.Sessions().DeleteSession(r.Context(), id); err != nil {
		var notFound *conversation.ErrSessionNotFound
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
