package stub

import (
	"encoding/json"
	"fmt"
	"time"

	"grocery-price-lab/internal/catalog"
)

// NewDemoClient returns a client preloaded with a small catalog whose prices
// are positioned relative to now: regular shelf prices plus running offers.
func NewDemoClient(now time.Time) *Client {
	c := NewClient()
	day := func(offset int) string {
		return now.UTC().Truncate(24*time.Hour).AddDate(0, 0, offset).Format(time.RFC3339)
	}

	type item struct {
		id         int64
		name       string
		regular    float64
		advertised float64 // 0 means no running offer
	}
	departments := []struct {
		dept  catalog.Department
		items []item
	}{
		{catalog.Department{ID: 10, Name: "Brød & kager"}, []item{
			{101, "Rugbrød", 18, 12},
			{102, "Franskbrød", 15, 0},
		}},
		{catalog.Department{ID: 20, Name: "Frugt & grønt"}, []item{
			{201, "Bananer", 20, 8},
			{202, "Agurk", 7, 5},
		}},
		{catalog.Department{ID: 30, Name: "Mejeri"}, []item{
			{301, "Letmælk", 11.5, 9.95},
			{302, "Smør", 24, 0},
		}},
	}

	for _, d := range departments {
		var raws []json.RawMessage
		for _, it := range d.items {
			prices := []map[string]any{{
				"price":              it.regular,
				"is_advertised":      false,
				"is_campaign":        false,
				"starting_at":        day(-60),
				"ending_at":          day(300),
				"compare_unit":       "stk",
				"compare_unit_price": it.regular,
			}}
			if it.advertised > 0 {
				prices = append(prices, map[string]any{
					"price":              it.advertised,
					"is_advertised":      true,
					"is_campaign":        true,
					"starting_at":        day(-2),
					"ending_at":          day(5),
					"compare_unit":       "stk",
					"compare_unit_price": it.advertised,
				})
			}
			raw, err := json.Marshal(map[string]any{
				"id":               it.id,
				"name":             it.name,
				"underline":        "1 stk",
				"info":             "",
				"temperature_zone": fmt.Sprintf("TZ_%d", d.dept.ID/10),
				"images":           []map[string]string{{"small": "", "medium": fmt.Sprintf("https://example.invalid/%d.jpg", it.id)}},
				"prices":           prices,
			})
			if err != nil {
				panic(err)
			}
			raws = append(raws, raw)
		}
		c.AddDepartment(d.dept, raws...)
	}
	return c
}
