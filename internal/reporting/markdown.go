package reporting

import (
	"fmt"
	"strings"
	"time"

	"grocery-price-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Deals Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Deals active at: %s\n\n", r.AsOf.Format(time.RFC3339)))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Departments | %d |\n", r.Summary.DepartmentCount))
	sb.WriteString(fmt.Sprintf("| Deals | %d |\n", r.Summary.DealCount))
	sb.WriteString(fmt.Sprintf("| Best Discount (%%) | %.2f |\n", r.Summary.BestPercent))
	sb.WriteString(fmt.Sprintf("| Best Discount (amount) | %.2f |\n", r.Summary.BestAmount))
	sb.WriteString("\n")

	// Departments
	sb.WriteString("## Departments\n\n")
	if len(r.Departments) == 0 {
		sb.WriteString("No price data.\n\n")
	} else {
		sb.WriteString("| ID | Department | Avg Price | Min | Max | Deals | Avg Discount | Avg Discount (%) |\n")
		sb.WriteString("|----|------------|-----------|-----|-----|-------|--------------|------------------|\n")
		for _, d := range r.Departments {
			sb.WriteString(fmt.Sprintf("| %d | %s | %.2f | %.2f | %.2f | %d | %.2f | %.2f |\n",
				d.DepartmentID, escape(d.DepartmentName), d.AvgPrice, d.MinPrice, d.MaxPrice,
				len(d.BestDeals), d.AvgDifferenceAmount, d.AvgDifferencePercent))
		}
		sb.WriteString("\n")
	}

	// Top deals
	sb.WriteString(fmt.Sprintf("## Top %d Deals by Amount\n\n", r.TopN))
	writeDealTable(&sb, r.Top)

	// Threshold deals
	sb.WriteString(fmt.Sprintf("## Deals at or above %.0f%%\n\n", r.Threshold))
	writeDealTable(&sb, r.AboveThreshold)

	return sb.String()
}

func writeDealTable(sb *strings.Builder, deals []*domain.Deal) {
	if len(deals) == 0 {
		sb.WriteString("No deals.\n\n")
		return
	}
	sb.WriteString("| Product | Department | Regular | Advertised | Discount | Discount (%) | Ends |\n")
	sb.WriteString("|---------|------------|---------|------------|----------|--------------|------|\n")
	for _, d := range deals {
		sb.WriteString(fmt.Sprintf("| %s (%d) | %s | %.2f | %.2f | %.2f | %.2f | %s |\n",
			escape(d.ProductName), d.ProductID, escape(d.DepartmentName),
			d.RegularPrice, d.AdvertisedPrice, d.DifferenceAmount, d.DifferencePercent,
			d.EndingAt.Format(domain.DayLayout)))
	}
	sb.WriteString("\n")
}

// escape keeps pipes in catalog names from breaking table rows.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
