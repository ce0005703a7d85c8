package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/timing-comb/app/database"
	"github.com/lysyi3m/timing-comb/app/profile"
	"github.com/lysyi3m/timing-comb/app/session"
	"github.com/lysyi3m/timing-comb/app/timing"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

func NewHandler(configCache *profile.ConfigCache, registry RegistryInterface,
	eventRepo database.EventRepository) *Handler {
	return &Handler{
		registry:    registry,
		configCache: configCache,
		eventRepo:   eventRepo,
	}
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	s, err := h.registry.Create(session.CreateOptions{
		Profile:      req.Profile,
		PageURL:      req.PageURL,
		Capabilities: req.Capabilities,
	})
	if err != nil {
		status := createErrorStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("Session creation failed", "profile", req.Profile, "error", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":            s.ID,
		"profile":       s.Profile,
		"poll_interval": s.Harvester.PollInterval().String(),
	})
}

func (h *Handler) PutResources(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	entries, err := decodeEntries(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resource timing list", "details": err.Error()})
		return
	}

	s.Source.SetResources(entries)
	c.JSON(http.StatusAccepted, gin.H{"entries": len(entries)})
}

func (h *Handler) AppendResources(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	entries, err := decodeEntries(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resource timing list", "details": err.Error()})
		return
	}

	total := s.Source.AppendResources(entries)
	c.JSON(http.StatusAccepted, gin.H{"entries": total})
}

func (h *Handler) PutNavigation(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var snapshot timing.NavigationSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid navigation timing", "details": err.Error()})
		return
	}

	s.Source.SetNavigation(&snapshot)
	c.JSON(http.StatusAccepted, gin.H{"load_event_end": snapshot.LoadEventEnd})
}

func (h *Handler) ResetSession(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	if err := s.Harvester.Reset(); err != nil {
		slog.Error("Session reset failed", "session", s.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": s.ID, "reset": true})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.registry.Delete(id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		slog.Error("Session deletion failed", "session", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	stats, err := s.Harvester.Stats(c.Request.Context())
	if err != nil {
		slog.Error("Failed to read harvester stats", "session", s.ID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Harvester unavailable", "details": err.Error()})
		return
	}

	details := sessionInfo(s)
	details["harvester"] = stats
	details["resource_entries"] = s.Source.ResourceCount()
	if updatedAt := s.Source.UpdatedAt(); !updatedAt.IsZero() {
		details["updated_at"] = updatedAt
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"sessions":  h.registry.Count(),
	}

	if storedSessions, err := h.eventRepo.GetSessionCount(); err == nil {
		health["stored_sessions"] = storedSessions
	}

	health["loaded_profiles"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListSessions(c *gin.Context) {
	list := h.registry.List()

	sessions := make([]map[string]interface{}, 0, len(list))
	for _, s := range list {
		info := sessionInfo(s)
		info["active"] = s.Harvester.Active()

		if eventCount, err := h.eventRepo.GetEventCount(s.ID); err == nil {
			info["event_count"] = eventCount
		}

		sessions = append(sessions, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

func (h *Handler) APIGetSessionEvents(c *gin.Context) {
	id := c.Param("id")

	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxEventLimit)
	}

	events, err := h.eventRepo.GetEvents(id, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_events", "session", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := gin.H{
		"session": id,
		"events":  events,
		"count":   len(events),
	}

	if stats, err := h.eventRepo.GetEventStats(id); err == nil {
		response["stats"] = stats
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIListProfiles(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	profiles := make([]map[string]interface{}, 0, len(configs))
	for _, name := range names {
		config := configs[name]
		profiles = append(profiles, map[string]interface{}{
			"name":          config.Name,
			"endpoint":      config.Endpoint,
			"enabled":       config.IsEnabled(),
			"poll_interval": config.PollInterval().String(),
			"url_blacklist": config.URLBlacklist,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"profiles": profiles,
		"total":    len(profiles),
	})
}

func (h *Handler) lookupSession(c *gin.Context) (*session.Session, bool) {
	id := c.Param("id")
	s, err := h.registry.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return s, true
}

// decodeEntries reads a JSON array of entries. null elements stay nil and
// mark absent entries, so the list bypasses gin's struct validation.
func decodeEntries(c *gin.Context) ([]*timing.Entry, error) {
	var entries []*timing.Entry
	if err := json.NewDecoder(c.Request.Body).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func sessionInfo(s *session.Session) map[string]interface{} {
	return map[string]interface{}{
		"id":           s.ID,
		"profile":      s.Profile,
		"page_url":     s.PageURL,
		"capabilities": s.Capabilities,
		"created_at":   s.CreatedAt,
	}
}

func createErrorStatus(err error) int {
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, profile.ErrProfileDisabled):
		return http.StatusForbidden
	case errors.Is(err, session.ErrInvalidPageURL):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusTooManyRequests
	case errors.Is(err, session.ErrRegistryShutdown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
