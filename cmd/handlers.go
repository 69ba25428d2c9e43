package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/sitebot/internal/chatbot"
	"github.com/sells-group/sitebot/internal/model"
)

type handlers struct {
	svc *chatbot.Service
}

type createRequest struct {
	CompanyName string `json:"company_name"`
	WebsiteURL  string `json:"website_url"`
}

type extractedSummary struct {
	Title          string `json:"title"`
	ServicesCount  int    `json:"services_count"`
	HasContactInfo bool   `json:"has_contact_info"`
}

type createResponse struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message"`
	CompanyID     string           `json:"company_id"`
	DataExtracted extractedSummary `json:"data_extracted"`
}

type chatRequest struct {
	CompanyID string `json:"company_id"`
	Question  string `json:"question"`
}

type chatResponse struct {
	Success bool `json:"success"`
	*model.Answer
}

type historyResponse struct {
	Success  bool                `json:"success"`
	Messages []model.ChatMessage `json:"messages"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func (h *handlers) home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"message": "AI Chatbot Assistant API is running",
		"endpoints": map[string]string{
			"create_chatbot": "/create-chatbot [POST]",
			"chat":           "/chat [POST]",
			"status":         "/chatbot-status [GET]",
			"history":        "/chat-history [GET]",
			"test_ai":        "/test-ai [GET]",
			"test_db":        "/test-db [GET]",
		},
	})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": h.svc.Sessions()})
}

func (h *handlers) createChatbot(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	res, err := h.svc.CreateChatbot(r.Context(), req.CompanyName, req.WebsiteURL)
	if errors.Is(err, chatbot.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "Both company_name and website_url are required")
		return
	}
	if err != nil {
		zap.L().Error("create chatbot failed",
			zap.String("company", req.CompanyName),
			zap.String("url", req.WebsiteURL),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to scrape website: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, createResponse{
		Success:   true,
		Message:   "Chatbot created for " + res.Session.CompanyName,
		CompanyID: res.Session.CompanyID,
		DataExtracted: extractedSummary{
			Title:          res.Title,
			ServicesCount:  res.ServicesCount,
			HasContactInfo: res.HasContactInfo,
		},
	})
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	answer, err := h.svc.Ask(r.Context(), req.CompanyID, req.Question)
	switch {
	case errors.Is(err, chatbot.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Both company_id and question are required")
		return
	case errors.Is(err, chatbot.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Please create a chatbot first by providing a company URL")
		return
	case err != nil:
		zap.L().Error("chat failed", zap.String("company_id", req.CompanyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate response")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Success: true, Answer: answer})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status(r.Context(), r.URL.Query().Get("company_id")))
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	if h.svc.Store() == nil {
		writeError(w, http.StatusServiceUnavailable, "Database not available")
		return
	}

	msgs, err := h.svc.History(r.Context(), companyID, limit)
	if err != nil {
		zap.L().Error("list chat history failed", zap.String("company_id", companyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load chat history")
		return
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Success: true, Messages: msgs})
}

func (h *handlers) testAI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Responder().CheckModel(r.Context()))
}

func (h *handlers) testDB(w http.ResponseWriter, r *http.Request) {
	st := h.svc.Store()
	if st == nil {
		writeError(w, http.StatusInternalServerError, "Failed to connect to database")
		return
	}
	if err := st.Ping(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Database connection successful"})
}
