package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"oficina/internal/core/id"
)

func parseID(s string) (id.ID, error) {
	return id.Parse(s)
}

// parseTimeQuery reads an RFC 3339 timestamp (or bare date) query param.
// The second return reports whether the param was present.
func parseTimeQuery(c *gin.Context, key string) (time.Time, bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, true, err
	}
	return t, true, nil
}
