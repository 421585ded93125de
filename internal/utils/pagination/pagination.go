package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Default values.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds limit/offset paging for list endpoints.
type Params struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FromQuery reads limit and offset from the request query. Out-of-range
// values fall back to the defaults rather than erroring.
func FromQuery(c *gin.Context) Params {
	p := Params{Limit: DefaultLimit}
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= MaxLimit {
			p.Limit = v
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			p.Offset = v
		}
	}
	return p
}
