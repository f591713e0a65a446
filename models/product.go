package models

// Shop identifies one of the supported storefronts.
type Shop string

const (
	ShopXtreme     Shop = "xtreme"
	ShopSnowmania  Shop = "snowmania"
	ShopBurosports Shop = "burosports"
	ShopMegasport  Shop = "megasport"
)

// AllShops lists every supported shop in canonical order. The order is
// also the merge order of the final export when scraping "all".
var AllShops = []Shop{ShopXtreme, ShopSnowmania, ShopBurosports, ShopMegasport}

// ValidShop reports whether code names a supported shop.
func ValidShop(code string) bool {
	for _, s := range AllShops {
		if string(s) == code {
			return true
		}
	}
	return false
}

// Plausible ski length band in centimeters. Values outside this band are
// treated as noise (prices, SKU fragments) rather than lengths.
const (
	MinSkiLengthCM = 80
	MaxSkiLengthCM = 210
)

// RawListing holds one scraped product as a shop extractor saw it.
// Lengths are kept as raw strings ("170", "170cm", "176 სმ"); the
// normalizer parses and expands them into unified rows.
type RawListing struct {
	Shop      Shop
	Title     string
	Brand     string
	Model     string
	Condition string
	Price     float64
	OrigPrice *float64
	Lengths   []string
	URL       string
}

// UnifiedRecord is one row of the unified CSV schema: a single (product,
// length) pair. A listing with N available lengths becomes N records that
// differ only in LengthCM.
type UnifiedRecord struct {
	Shop      Shop
	Brand     string
	Model     string
	Condition string
	OrigPrice *float64
	Price     float64
	LengthCM  int
	URL       string
}
