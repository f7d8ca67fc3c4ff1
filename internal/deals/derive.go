package deals

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"grocery-price-lab/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// derive matches each active advertised price to its product's regular price.
// history holds every record of the advertised products, grouped by product id.
func derive(active []*domain.AdvertisedPrice, history map[int64][]*domain.PriceRecord) []*domain.Deal {
	deals := make([]*domain.Deal, 0, len(active))
	for _, ap := range active {
		adv := ap.Price
		regular := adv.Price
		if r := closestRegular(history[adv.ProductID], adv.StartingAt); r != nil {
			regular = r.Price
		}
		deals = append(deals, newDeal(ap.Product, adv, regular))
	}
	return deals
}

// closestRegular picks the non-advertised record whose StartingAt is nearest to at.
// Ties go to the later LoggedOn, then the higher id. Returns nil if there is none.
func closestRegular(records []*domain.PriceRecord, at time.Time) *domain.PriceRecord {
	var (
		best     *domain.PriceRecord
		bestDist time.Duration
	)
	for _, r := range records {
		if r.IsAdvertised {
			continue
		}
		dist := absDuration(r.StartingAt.Sub(at))
		switch {
		case best == nil, dist < bestDist:
		case dist > bestDist:
			continue
		case r.LoggedOn.After(best.LoggedOn):
		case r.LoggedOn.Equal(best.LoggedOn) && r.ID > best.ID:
		default:
			continue
		}
		best, bestDist = r, dist
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// newDeal computes the 2-decimal difference between regular and advertised price.
// A non-positive regular price leaves the percent at 0 and marks the deal ineligible
// for percent rankings.
func newDeal(p *domain.Product, adv *domain.PriceRecord, regular float64) *domain.Deal {
	reg := decimal.NewFromFloat(regular)
	amount := reg.Sub(decimal.NewFromFloat(adv.Price)).Round(2)

	d := &domain.Deal{
		ProductID:       p.ID,
		ProductName:     p.Name,
		DepartmentID:    p.DepartmentID,
		DepartmentName:  p.DepartmentName,
		AdvertisedPrice: adv.Price,
		RegularPrice:    regular,
		StartingAt:      adv.StartingAt,
		EndingAt:        adv.EndingAt,
	}
	d.DifferenceAmount, _ = amount.Float64()
	if reg.IsPositive() {
		d.PercentEligible = true
		d.DifferencePercent, _ = amount.Div(reg).Mul(hundred).Round(2).Float64()
	}
	return d
}

// percentEligible returns the deals that take part in percent rankings.
func percentEligible(deals []*domain.Deal) []*domain.Deal {
	out := make([]*domain.Deal, 0, len(deals))
	for _, d := range deals {
		if d.PercentEligible {
			out = append(out, d)
		}
	}
	return out
}

// sortByPercent orders deals by difference percent desc, then product id asc.
func sortByPercent(deals []*domain.Deal) {
	sort.SliceStable(deals, func(i, j int) bool {
		if deals[i].DifferencePercent != deals[j].DifferencePercent {
			return deals[i].DifferencePercent > deals[j].DifferencePercent
		}
		return deals[i].ProductID < deals[j].ProductID
	})
}

// sortByAmount orders deals by difference amount desc, then product id asc.
func sortByAmount(deals []*domain.Deal) {
	sort.SliceStable(deals, func(i, j int) bool {
		if deals[i].DifferenceAmount != deals[j].DifferenceAmount {
			return deals[i].DifferenceAmount > deals[j].DifferenceAmount
		}
		return deals[i].ProductID < deals[j].ProductID
	})
}

// averages returns the mean difference amount and percent of the given deals, 0 when empty.
func averages(deals []*domain.Deal) (float64, float64) {
	amounts := make([]float64, len(deals))
	percents := make([]float64, len(deals))
	for i, d := range deals {
		amounts[i] = d.DifferenceAmount
		percents[i] = d.DifferencePercent
	}
	return domain.Mean2(amounts), domain.Mean2(percents)
}
