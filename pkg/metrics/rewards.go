package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RewardsMetrics records counters for the economy core.
type RewardsMetrics struct {
	creditsIssued        *prometheus.CounterVec
	capRejections        *prometheus.CounterVec
	orderCompletions     prometheus.Counter
	duplicateCompletions prometheus.Counter
	referralRedemptions  prometheus.Counter
	effectFailures       *prometheus.CounterVec
}

// NewRewardsMetrics registers the rewards metrics on the provided registerer.
func NewRewardsMetrics(reg prometheus.Registerer) *RewardsMetrics {
	if reg == nil {
		return &RewardsMetrics{}
	}
	creditsIssued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rewards_credits_issued_total",
		Help: "Coin credits applied, by reason tag.",
	}, []string{"reason"})
	capRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rewards_cap_rejections_total",
		Help: "Coin credits rejected by cap, by window.",
	}, []string{"window"})
	orderCompletions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rewards_order_completions_total",
		Help: "Order events completed for the first time.",
	})
	duplicateCompletions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rewards_duplicate_completions_total",
		Help: "Order completion calls that were idempotent no-ops.",
	})
	referralRedemptions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rewards_referral_redemptions_total",
		Help: "Referral codes redeemed.",
	})
	effectFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rewards_effect_failures_total",
		Help: "Post-commit effect failures, by effect name.",
	}, []string{"effect"})
	reg.MustRegister(creditsIssued, capRejections, orderCompletions, duplicateCompletions, referralRedemptions, effectFailures)
	return &RewardsMetrics{
		creditsIssued:        creditsIssued,
		capRejections:        capRejections,
		orderCompletions:     orderCompletions,
		duplicateCompletions: duplicateCompletions,
		referralRedemptions:  referralRedemptions,
		effectFailures:       effectFailures,
	}
}

// IncCreditIssued records a successful coin credit.
func (m *RewardsMetrics) IncCreditIssued(reason string) {
	if m == nil || m.creditsIssued == nil {
		return
	}
	m.creditsIssued.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncCapRejection records a credit rejected by the named cap window.
func (m *RewardsMetrics) IncCapRejection(window string) {
	if m == nil || m.capRejections == nil {
		return
	}
	m.capRejections.WithLabelValues(normalizeLabel(window)).Inc()
}

// IncOrderCompletion records a first-time order completion.
func (m *RewardsMetrics) IncOrderCompletion() {
	if m == nil || m.orderCompletions == nil {
		return
	}
	m.orderCompletions.Inc()
}

// IncDuplicateCompletion records an idempotent completion no-op.
func (m *RewardsMetrics) IncDuplicateCompletion() {
	if m == nil || m.duplicateCompletions == nil {
		return
	}
	m.duplicateCompletions.Inc()
}

// IncReferralRedemption records a redeemed referral code.
func (m *RewardsMetrics) IncReferralRedemption() {
	if m == nil || m.referralRedemptions == nil {
		return
	}
	m.referralRedemptions.Inc()
}

// IncEffectFailure records a failed post-commit effect.
func (m *RewardsMetrics) IncEffectFailure(effect string) {
	if m == nil || m.effectFailures == nil {
		return
	}
	m.effectFailures.WithLabelValues(normalizeLabel(effect)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
