// pkg/cleaner/mappings.go
package cleaner

// Source column names, as they appear in the header before renaming
const (
	sourceRatingColumn   = "Review Rating"
	sourceCategoryColumn = "Category"
)

// Column names after renaming, plus the derived columns
const (
	ColumnAge                   = "age"
	ColumnAgeGroup              = "age_group"
	ColumnFrequencyOfPurchases  = "frequency_of_purchases"
	ColumnPurchaseFrequencyDays = "purchase_frequency_days"
	ColumnDiscountApplied       = "discount_applied"
	ColumnPromoCodeUsed         = "promo_code_used"
	ColumnLocation              = "location"
	ColumnRegion                = "region"
)

// renamedColumns holds explicit renames applied after snake-casing
var renamedColumns = map[string]string{
	"purchase_amount_(usd)": "purchase_amount",
}

// AgeGroupLabels names the age quartiles in ascending age order
var AgeGroupLabels = []string{"young_adult", "adult", "middle-aged", "senior"}

// FrequencyMapping converts a normalized purchase frequency to a day count
var FrequencyMapping = map[string]int64{
	"weekly":         7,
	"fortnightly":    14,
	"bi-weekly":      14,
	"monthly":        30,
	"quarterly":      90,
	"every 3 months": 90,
	"annually":       365,
}

// US regions
const (
	RegionNortheast = "northeast"
	RegionMidwest   = "midwest"
	RegionSouth     = "south"
	RegionWest      = "west"
)

// RegionMapping assigns each U.S. state (lower-case) to a census region
var RegionMapping = map[string]string{
	"alabama":        RegionSouth,
	"alaska":         RegionWest,
	"arizona":        RegionWest,
	"arkansas":       RegionSouth,
	"california":     RegionWest,
	"colorado":       RegionWest,
	"connecticut":    RegionNortheast,
	"delaware":       RegionSouth,
	"florida":        RegionSouth,
	"georgia":        RegionSouth,
	"hawaii":         RegionWest,
	"idaho":          RegionWest,
	"illinois":       RegionMidwest,
	"indiana":        RegionMidwest,
	"iowa":           RegionMidwest,
	"kansas":         RegionMidwest,
	"kentucky":       RegionSouth,
	"louisiana":      RegionSouth,
	"maine":          RegionNortheast,
	"maryland":       RegionSouth,
	"massachusetts":  RegionNortheast,
	"michigan":       RegionMidwest,
	"minnesota":      RegionMidwest,
	"mississippi":    RegionSouth,
	"missouri":       RegionMidwest,
	"montana":        RegionWest,
	"nebraska":       RegionMidwest,
	"nevada":         RegionWest,
	"new hampshire":  RegionNortheast,
	"new jersey":     RegionNortheast,
	"new mexico":     RegionWest,
	"new york":       RegionNortheast,
	"north carolina": RegionSouth,
	"north dakota":   RegionMidwest,
	"ohio":           RegionMidwest,
	"oklahoma":       RegionSouth,
	"oregon":         RegionWest,
	"pennsylvania":   RegionNortheast,
	"rhode island":   RegionNortheast,
	"south carolina": RegionSouth,
	"south dakota":   RegionMidwest,
	"tennessee":      RegionSouth,
	"texas":          RegionSouth,
	"utah":           RegionWest,
	"vermont":        RegionNortheast,
	"virginia":       RegionSouth,
	"washington":     RegionWest,
	"west virginia":  RegionSouth,
	"wisconsin":      RegionMidwest,
	"wyoming":        RegionWest,
}

// CategoryColumns are materialized as categorical columns at the end of cleaning
var CategoryColumns = []string{
	"gender",
	"item_purchased",
	"category",
	"location",
	"size",
	"color",
	"season",
	"subscription_status",
	"shipping_type",
	"discount_applied",
	"payment_method",
	"frequency_of_purchases",
	"region",
	"age_group",
}
