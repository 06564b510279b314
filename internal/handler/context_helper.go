package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/course-analytics-api/pkg/errors"
)

// parseID reads a positive int64 route parameter.
func parseID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

// parseQueryID reads a positive int64 query parameter.
func parseQueryID(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

// parseOptionalUserID reads the userid query parameter; 0 or absent selects
// the whole enrollment set.
func parseOptionalUserID(c *gin.Context) (*int64, error) {
	raw := c.DefaultQuery("userid", "0")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid userid")
	}
	if id == 0 {
		return nil, nil
	}
	return &id, nil
}
