package enums

// OrderOutcome tracks what happened after an outbound redirect.
type OrderOutcome string

const (
	OrderOutcomeViewed OrderOutcome = "viewed"
	OrderOutcomeSaved  OrderOutcome = "saved"
	OrderOutcomeMissed OrderOutcome = "missed"
)

func (o OrderOutcome) IsValid() bool {
	switch o {
	case OrderOutcomeViewed, OrderOutcomeSaved, OrderOutcomeMissed:
		return true
	}
	return false
}

func (o OrderOutcome) String() string {
	return string(o)
}
