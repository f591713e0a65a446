package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/utils"
)

// DiffReport summarizes one diff run for terminal output.
type DiffReport struct {
	Sold         int
	NewArrivals  int
	PriceChanges int
	ByShop       map[models.Shop]int
	BiggestDrop  *models.ChangeEntry
	Entries      []*models.ChangeEntry
}

// ReportService turns diff entries into a printable change report.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

func (s *ReportService) Generate(entries []*models.ChangeEntry) *DiffReport {
	report := &DiffReport{
		ByShop:  make(map[models.Shop]int),
		Entries: entries,
	}

	for _, e := range entries {
		report.ByShop[e.Key.Shop]++

		switch e.Kind {
		case models.ChangeSold:
			report.Sold++
		case models.ChangeNew:
			report.NewArrivals++
		case models.ChangePriceChanged:
			report.PriceChanges++
			drop := e.OldPrice - e.NewPrice
			if drop > 0 {
				if report.BiggestDrop == nil ||
					drop > report.BiggestDrop.OldPrice-report.BiggestDrop.NewPrice {
					report.BiggestDrop = e
				}
			}
		}
	}

	return report
}

func (s *ReportService) Print(r *DiffReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  SKI SNAPSHOT DIFF\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Changes\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Sold out      : \033[1m%d\033[0m\n", r.Sold)
	fmt.Printf("  New arrivals  : \033[1m%d\033[0m\n", r.NewArrivals)
	fmt.Printf("  Price changes : \033[1m%d\033[0m\n", r.PriceChanges)
	fmt.Println()

	if r.BiggestDrop != nil {
		e := r.BiggestDrop
		fmt.Printf("\033[1;33m  Biggest Price Drop\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(strings.TrimSpace(e.Key.Brand+" "+e.Key.Model), 50))
		fmt.Printf("  Shop   : %s (%d cm, %s)\n", e.Key.Shop, e.Key.LengthCM, e.Key.Condition)
		fmt.Printf("  Price  : \033[1;32m%.2f → %.2f\033[0m\n", e.OldPrice, e.NewPrice)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Changes by Shop\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ByShop) == 0 {
		fmt.Printf("  No changes between snapshots\n")
	} else {
		type shopCount struct {
			shop  models.Shop
			count int
		}
		var shops []shopCount
		for shop, cnt := range r.ByShop {
			shops = append(shops, shopCount{shop, cnt})
		}
		sort.Slice(shops, func(i, j int) bool {
			if shops[i].count != shops[j].count {
				return shops[i].count > shops[j].count
			}
			return shops[i].shop < shops[j].shop
		})
		for _, sc := range shops {
			bar := strings.Repeat("█", sc.count)
			fmt.Printf("  %-12s %s (%d)\n", sc.shop, bar, sc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
