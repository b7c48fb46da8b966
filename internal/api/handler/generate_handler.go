package handler

import (
	"net/http"

	"draftpress/internal/app/service"
	"draftpress/internal/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type GenerateHandler struct {
	generateService *service.GenerateService
	logger          *zap.Logger
}

func NewGenerateHandler(gs *service.GenerateService, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{generateService: gs, logger: logger}
}

func (h *GenerateHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.generate) // POST /api/generate
}

func (h *GenerateHandler) generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req service.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	post, err := h.generateService.Generate(r.Context(), userID, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, post)
}
