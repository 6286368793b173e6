package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"banking_portal/internal/models"
	"banking_portal/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errLimitBad    = "invalid 'limit'; use a positive integer"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// historyFilterFromQuery reads from/to/kind/limit. A date-only 'to' covers
// the whole day. The returned string is a user-facing reason.
func historyFilterFromQuery(c *gin.Context, username string) (service.HistoryFilter, string) {
	f := service.HistoryFilter{
		Username: username,
		Kind:     strings.ToUpper(strings.TrimSpace(c.Query("kind"))),
	}
	var err error
	if qs := c.Query("from"); qs != "" {
		if f.From, err = parseQueryTime(qs); err != nil {
			return f, errFromInvalid
		}
	}
	if qs := c.Query("to"); qs != "" {
		if f.To, err = parseQueryTime(qs); err != nil {
			return f, errToInvalid
		}
		if isDateOnly(qs) {
			f.To = f.To.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	if qs := c.Query("limit"); qs != "" {
		n, err := strconv.Atoi(qs)
		if err != nil || n <= 0 {
			return f, errLimitBad
		}
		f.Limit = n
	}
	return f, ""
}

// listHistory runs the query and classifies failures as client (400) or server errors.
func (h *Handler) listHistory(c *gin.Context, f service.HistoryFilter) ([]models.LedgerEntry, int, error) {
	entries, err := h.services.History.List(c.Request.Context(), f)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTimeRange) || errors.Is(err, service.ErrInvalidKind) {
			return nil, http.StatusBadRequest, err
		}
		if h.log != nil {
			h.log.Errorw("history_list_failed", "err", err, "username", f.Username, "from", f.From, "to", f.To, "kind", f.Kind)
		}
		return nil, http.StatusInternalServerError, err
	}
	return entries, http.StatusOK, nil
}

func (h *Handler) historyPage(c *gin.Context) {
	st := h.session(c)
	data := pageData{
		Title: "History",
		Query: historyQuery{From: c.Query("from"), To: c.Query("to"), Kind: strings.ToUpper(c.Query("kind"))},
	}

	f, reason := historyFilterFromQuery(c, st.Username)
	if reason != "" {
		data.Error = reason
		h.render(c, http.StatusBadRequest, "history.html", data)
		return
	}
	entries, status, err := h.listHistory(c, f)
	switch status {
	case http.StatusOK:
		data.Entries = entries
		h.render(c, status, "history.html", data)
	case http.StatusBadRequest:
		data.Error = err.Error()
		h.render(c, status, "history.html", data)
	default:
		h.renderError(c, "history_page_failed", err)
	}
}

// @Summary      List ledger entries
// @Description  Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). A date-only 'to' is treated as end of day.
// @Tags         account
// @Produce      json
// @Param        from   query   string  false  "Start of range"  example(2025-08-01)
// @Param        to     query   string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Param        kind   query   string  false  "Entry kind"  Enums(DEPOSIT,WITHDRAW)
// @Param        limit  query   int     false  "Max entries (default 50, max 500)"
// @Success      200    {object}  map[string]interface{}  "count, entries"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/account/entries [get]
// @Security     BearerAuth
func (h *Handler) apiEntries(c *gin.Context) {
	f, reason := historyFilterFromQuery(c, c.GetString(ctxUsername))
	if reason != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": reason})
		return
	}
	entries, status, err := h.listHistory(c, f)
	switch status {
	case http.StatusOK:
		c.JSON(http.StatusOK, gin.H{
			"count":   len(entries),
			"entries": entries,
		})
	case http.StatusBadRequest:
		c.JSON(status, gin.H{"error": err.Error()})
	default:
		c.JSON(status, gin.H{"error": "failed to load entries"})
	}
}

func parseQueryTime(s string) (time.Time, error) {
	// Try multiple accepted formats, normalizing to UTC.
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
