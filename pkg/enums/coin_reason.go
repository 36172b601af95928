package enums

import "strings"

// Well-known coin history reasons. Reasons are free-form tags; the prefix
// convention below is what classifies an entry as a redemption for cap math.
const (
	CoinReasonOrderComplete   = "order_complete"
	CoinReasonMissionReward   = "mission_reward"
	CoinReasonReferralBonus   = "referral_bonus"
	CoinReasonReferralWelcome = "referral_welcome"
	CoinReasonDailyCheckIn    = "daily_check_in"
	CoinReasonRedeemVoucher   = "redeem_voucher"
)

const redeemReasonPrefix = "redeem"

// IsRedeemReason reports whether a reason tag marks the entry as a redemption.
func IsRedeemReason(reason string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(reason)), redeemReasonPrefix)
}
