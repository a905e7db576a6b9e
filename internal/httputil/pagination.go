package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// ParsePagination extracts offset and limit query parameters with bounds checking.
// Defaults: offset=0, limit=50. Limit is capped at 200.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset = 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset: must be a non-negative integer")
		}
	}

	limit = defaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return 0, 0, fmt.Errorf("invalid limit: must be a positive integer")
		}
		if limit > maxLimit {
			limit = maxLimit
		}
	}

	return offset, limit, nil
}
