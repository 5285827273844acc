package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"Sarah_AI/internal/memory/service"
	"Sarah_AI/internal/memory/store"
	"Sarah_AI/internal/models"
	"Sarah_AI/pkg/logger"
)

// HealthCheck probes one backend dependency.
type HealthCheck func(ctx context.Context) error

// Handler holds the services the HTTP layer dispatches to. checks maps a
// backend name to its connectivity probe for /health.
type Handler struct {
	memory    *service.MemoryService
	retrieval *service.RetrievalService
	checks    map[string]HealthCheck
	logger    *logger.Logger
}

func NewHandler(memory *service.MemoryService, retrieval *service.RetrievalService, checks map[string]HealthCheck, log *logger.Logger) *Handler {
	return &Handler{memory: memory, retrieval: retrieval, checks: checks, logger: log}
}

// RetrieveContext returns the merged memory context for a live message.
// Backend failures degrade to empty results, so a well-formed request
// always gets a 200.
func (h *Handler) RetrieveContext(c *gin.Context) {
	var req models.RetrievalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.retrieval.RetrieveContext(c.Request.Context(), &req))
}

// StoreFact is the explicit fact write path. Unlike retrieval it is not
// best-effort: a storage failure is reported as 503.
func (h *Handler) StoreFact(c *gin.Context) {
	var req models.FactWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	factType := models.FactType(req.FactType)
	if !factType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fact_type: " + req.FactType})
		return
	}
	err := h.memory.StoreFact(c.Request.Context(), req.UserID, req.CharacterID, factType, req.FactKey, req.FactValue)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrStorageUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}

// ListFacts returns all facts for a scope, optionally filtered with the
// fact_type query parameter.
func (h *Handler) ListFacts(c *gin.Context) {
	userID := c.Param("user_id")
	characterID := c.Param("character_id")
	factType := models.FactType(c.Query("fact_type"))
	if factType != "" && !factType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fact_type: " + string(factType)})
		return
	}
	facts, err := h.retrieval.ListFacts(c.Request.Context(), userID, characterID, factType)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrStorageUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"character_id": characterID,
		"facts":        facts,
		"count":        len(facts),
	})
}

// SearchMemory runs keyword and semantic search in one call.
func (h *Handler) SearchMemory(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.retrieval.SearchMemory(c.Request.Context(), &req))
}

// Stats reports stored memory volume for a scope.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.retrieval.Stats(c.Request.Context(), c.Param("user_id"), c.Param("character_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrStorageUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PurgeConversations deletes a user's conversation embeddings, optionally
// narrowed to one character via the character_id query parameter.
func (h *Handler) PurgeConversations(c *gin.Context) {
	userID := c.Param("user_id")
	characterID := c.Query("character_id")
	deleted, err := h.retrieval.Purge(c.Request.Context(), userID, characterID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrStorageUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":       userID,
		"character_id":  characterID,
		"deleted_count": deleted,
	})
}

// Health probes every registered backend and reports "healthy" only when
// all of them answer.
func (h *Handler) Health(c *gin.Context) {
	backends := make(map[string]string, len(h.checks))
	status := "healthy"
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			backends[name] = "unreachable: " + err.Error()
			status = "degraded"
			continue
		}
		backends[name] = "ok"
	}
	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "backends": backends})
}
