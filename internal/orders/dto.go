package orders

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bitewise-app/bitewise-backend/pkg/enums"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
)

// OutboundPayload is the loosely typed body recorded when a user clicks out
// to a delivery platform. Older clients send partner/compare_price/other_total
// style names; newer ones send platform/comparePrice/otherTotal. Both are
// accepted and folded into one canonical shape.
type OutboundPayload struct {
	Platform      string           `json:"platform"`
	Partner       string           `json:"partner"`
	DishName      string           `json:"dishName"`
	Dish          string           `json:"dish"`
	ComparePrice  *decimal.Decimal `json:"comparePrice"`
	ComparePriceL *decimal.Decimal `json:"compare_price"`
	Total         *decimal.Decimal `json:"total"`
	PlatformPrice *decimal.Decimal `json:"platform_price"`
	OtherTotal    *decimal.Decimal `json:"otherTotal"`
	OtherTotalL   *decimal.Decimal `json:"other_total"`
	SavedAmount   *decimal.Decimal `json:"savedAmount"`
	Delta         *decimal.Decimal `json:"delta"`
	Outcome       string           `json:"outcome"`
}

// canonical is the normalized form of an outbound payload.
type canonical struct {
	Platform      string
	DishName      string
	ComparePrice  decimal.Decimal
	PlatformPrice decimal.Decimal
	SavedAmount   decimal.Decimal
	Outcome       enums.OrderOutcome
}

func firstDecimal(candidates ...*decimal.Decimal) (decimal.Decimal, bool) {
	for _, c := range candidates {
		if c != nil {
			return *c, true
		}
	}
	return decimal.Zero, false
}

// Normalize resolves legacy and current field names into the canonical event
// shape. savedAmount resolution order: explicit savedAmount, then delta, then
// otherTotal minus total, clamped to zero from below.
func (p OutboundPayload) Normalize() (canonical, error) {
	platform := strings.TrimSpace(p.Platform)
	if platform == "" {
		platform = strings.TrimSpace(p.Partner)
	}
	if platform == "" {
		return canonical{}, pkgerrors.New(pkgerrors.CodeValidation, "platform is required")
	}

	dish := strings.TrimSpace(p.DishName)
	if dish == "" {
		dish = strings.TrimSpace(p.Dish)
	}

	comparePrice, _ := firstDecimal(p.ComparePrice, p.ComparePriceL)
	platformPrice, _ := firstDecimal(p.Total, p.PlatformPrice)
	otherTotal, hasOther := firstDecimal(p.OtherTotal, p.OtherTotalL)

	saved, ok := firstDecimal(p.SavedAmount, p.Delta)
	if !ok && hasOther {
		saved = otherTotal.Sub(platformPrice)
	}
	if saved.IsNegative() {
		saved = decimal.Zero
	}

	outcome := enums.OrderOutcome(strings.ToLower(strings.TrimSpace(p.Outcome)))
	if outcome == "" {
		outcome = enums.OrderOutcomeViewed
	}
	if !outcome.IsValid() {
		return canonical{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid outcome")
	}

	return canonical{
		Platform:      platform,
		DishName:      dish,
		ComparePrice:  comparePrice,
		PlatformPrice: platformPrice,
		SavedAmount:   saved,
		Outcome:       outcome,
	}, nil
}
