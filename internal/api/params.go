package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"grocery-price-lab/internal/domain"
)

func invalid(field, value, reason string) error {
	return &domain.ValidationError{Field: field, Value: value, Reason: reason}
}

func pathInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalid(name, raw, "expected an integer")
	}
	return v, nil
}

func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, invalid(name, raw, "expected an integer")
	}
	return &v, nil
}

func queryInt(c *gin.Context, name string) (*int, error) {
	v, err := queryInt64(c, name)
	if v == nil || err != nil {
		return nil, err
	}
	n := int(*v)
	return &n, nil
}

func queryNonNegative(c *gin.Context, name string) (int, error) {
	v, err := queryInt(c, name)
	if err != nil || v == nil {
		return 0, err
	}
	if *v < 0 {
		return 0, invalid(name, c.Query(name), "must not be negative")
	}
	return *v, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, invalid(name, raw, "expected true or false")
	}
	return &v, nil
}

func queryFloat(c *gin.Context, name string, def float64) (float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, invalid(name, raw, "expected a number")
	}
	return v, nil
}

// queryDay parses a YYYY-MM-DD query parameter.
func queryDay(c *gin.Context, name string) (*time.Time, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DayLayout, raw)
	if err != nil {
		return nil, invalid(name, raw, "expected YYYY-MM-DD")
	}
	return &t, nil
}

// asOf parses the as_of parameter as RFC3339 or YYYY-MM-DD, defaulting to now.
func (s *Server) asOf(c *gin.Context) (time.Time, error) {
	raw, ok := c.GetQuery("as_of")
	if !ok || raw == "" {
		return s.deals.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(domain.DayLayout, raw); err == nil {
		return t, nil
	}
	return time.Time{}, invalid("as_of", raw, "expected RFC3339 or YYYY-MM-DD")
}
