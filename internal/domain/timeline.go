package domain

// DayLayout is the key format of a timeline day.
const DayLayout = "2006-01-02"

// Snapshot is the single resolved price of one calendar day.
type Snapshot struct {
	Price            float64 `json:"price"`
	IsAdvertised     bool    `json:"is_advertised"`
	IsCampaign       bool    `json:"is_campaign"`
	CompareUnitPrice float64 `json:"compare_unit_price"`
	CompareUnit      string  `json:"compare_unit"`
}

// SnapshotOf projects a PriceRecord onto a Snapshot.
func SnapshotOf(p *PriceRecord) Snapshot {
	return Snapshot{
		Price:            p.Price,
		IsAdvertised:     p.IsAdvertised,
		IsCampaign:       p.IsCampaign,
		CompareUnitPrice: p.CompareUnitPrice,
		CompareUnit:      p.CompareUnit,
	}
}

// Timeline is a product's day-by-day price history.
// PriceOnDate is sparse: days without a covering record are absent.
type Timeline struct {
	ProductID    int64               `json:"product_id"`
	PriceOnDate  map[string]Snapshot `json:"price_on_date"`
	Days         []string            `json:"-"` // keys of PriceOnDate, ascending
	AvgPrice     float64             `json:"avg_price"`
	LowestPrice  *float64            `json:"lowest_price"`
	CurrentPrice *Snapshot           `json:"current_price"`
}
