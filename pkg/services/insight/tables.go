package insight

import "github.com/de-tools/approval-atlas/pkg/models/domain"

const defaultSpecificity = 0.5

// specificity rewards narrow, actionable groupings over broad ones that only
// aggregate narrower problems.
var specificity = map[domain.SegmentType]float64{
	domain.SegmentTypeComposite:          1.0,
	domain.SegmentTypeIssuerBrandType:    0.95,
	domain.SegmentTypeCountryIssuerBrand: 0.95,
	domain.SegmentTypeCountryIssuer:      0.9,
	domain.SegmentTypeIssuerBrand:        0.85,
	domain.SegmentTypeIssuer:             0.85,
	domain.SegmentTypeCountryBrandType:   0.7,
	domain.SegmentTypeAmountBucket:       0.6,
	domain.SegmentTypeHourBucket:         0.6,
	domain.SegmentTypeCountryCardType:    0.45,
	domain.SegmentTypeCountryBrand:       0.35,
	domain.SegmentTypeCardType:           0.3,
	domain.SegmentTypeCardBrand:          0.25,
	domain.SegmentTypeCountry:            0.2,
	domain.SegmentTypeTimeWeekly:         0.1,
}

var categories = map[domain.SegmentType]domain.Category{
	domain.SegmentTypeComposite:          domain.CategoryIssuer,
	domain.SegmentTypeIssuerBrandType:    domain.CategoryIssuer,
	domain.SegmentTypeCountryIssuerBrand: domain.CategoryIssuer,
	domain.SegmentTypeCountryIssuer:      domain.CategoryIssuer,
	domain.SegmentTypeIssuerBrand:        domain.CategoryIssuer,
	domain.SegmentTypeIssuer:             domain.CategoryIssuer,
	domain.SegmentTypeAmountBucket:       domain.CategoryAmount,
	domain.SegmentTypeHourBucket:         domain.CategoryTime,
	domain.SegmentTypeTimeWeekly:         domain.CategoryTime,
	domain.SegmentTypeCountry:            domain.CategoryGeography,
	domain.SegmentTypeCountryBrand:       domain.CategoryGeography,
	domain.SegmentTypeCountryCardType:    domain.CategoryGeography,
	domain.SegmentTypeCountryBrandType:   domain.CategoryGeography,
	domain.SegmentTypeCardBrand:          domain.CategoryInstrument,
	domain.SegmentTypeCardType:           domain.CategoryInstrument,
}

// Best-effort display names; anything else is shown by its raw key.
var segmentLabels = map[string]string{
	"MX|Mastercard|Debit|BBVA": "BBVA Mexico (Mastercard Debit)",
	"$100-200":                 "High-value ($100-$200)",
	"$200-350":                 "High-value ($200-$350)",
	"$350-500":                 "Premium ($350-$500)",
	"evening_17_20":            "Evening (17h-20h)",
	"MX":                       "Mexico",
	"BR":                       "Brazil",
	"CO":                       "Colombia",
}

// Specificity returns the weight of a segment type in [0,1].
func Specificity(t domain.SegmentType) float64 {
	if w, ok := specificity[t]; ok {
		return w
	}
	return defaultSpecificity
}

// CategoryOf maps a segment type to its coarse root-cause family.
func CategoryOf(t domain.SegmentType) domain.Category {
	if c, ok := categories[t]; ok {
		return c
	}
	return domain.CategoryOther
}

// Label returns the human-readable name of a segment key.
func Label(segmentKey string) string {
	if l, ok := segmentLabels[segmentKey]; ok {
		return l
	}
	return segmentKey
}
