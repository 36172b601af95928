package enums

// AchievementCode identifies a grantable achievement.
type AchievementCode string

const (
	AchievementFirstSave   AchievementCode = "first_save"
	AchievementSavings100  AchievementCode = "save_100"
	AchievementOrders3     AchievementCode = "orders_3"
	AchievementReferralPro AchievementCode = "referral_pro"
)

func (c AchievementCode) IsValid() bool {
	switch c {
	case AchievementFirstSave, AchievementSavings100, AchievementOrders3, AchievementReferralPro:
		return true
	}
	return false
}

func (c AchievementCode) String() string {
	return string(c)
}
