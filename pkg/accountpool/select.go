package accountpool

import (
	"sort"

	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/models"
)

// defaultTierPriority orders provider tiers highest-quota-first when
// SelectionTierPreferred is in effect. Tiers are a free-form string on
// ProviderAccount, not a closed config enum, so this fixed list is this
// package's Open Question resolution for what "highest quota class" means
// absent per-deployment tier configuration; unrecognized tiers sort last,
// in lexical order, so the policy stays total and deterministic.
var defaultTierPriority = []string{"enterprise", "pro", "standard", "free"}

func tierRank(tier string) int {
	for i, t := range defaultTierPriority {
		if t == tier {
			return i
		}
	}
	return len(defaultTierPriority)
}

// selectAccount filters to usable, non-excluded, capacity-headroom accounts
// and picks one per policy. loadRatio reports "current RPM / limit" for
// the least-loaded policy; it lives in the caller (pool.go) because the
// in-flight rate is in-memory rate-limiter state, not a persisted column.
// Returns false if none qualify.
func selectAccount(accounts []models.ProviderAccount, policy config.SelectionPolicy, excluded map[string]bool, hasHeadroom func(models.ProviderAccount) bool, loadRatio func(models.ProviderAccount) float64) (models.ProviderAccount, bool) {
	var candidates []models.ProviderAccount
	for _, a := range accounts {
		if !a.Usable() {
			continue
		}
		if excluded[a.ID] {
			continue
		}
		if hasHeadroom != nil && !hasHeadroom(a) {
			continue
		}
		candidates = append(candidates, a)
	}
	if len(candidates) == 0 {
		return models.ProviderAccount{}, false
	}

	switch policy {
	case config.SelectionRoundRobin:
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].LastUsedAt.Before(candidates[j].LastUsedAt)
		})
	case config.SelectionTierPreferred:
		sort.Slice(candidates, func(i, j int) bool {
			ri, rj := tierRank(candidates[i].Tier), tierRank(candidates[j].Tier)
			if ri != rj {
				return ri < rj
			}
			return candidates[i].ID < candidates[j].ID
		})
	default: // config.SelectionLeastLoaded
		sort.Slice(candidates, func(i, j int) bool {
			li, lj := loadRatio(candidates[i]), loadRatio(candidates[j])
			if li != lj {
				return li < lj
			}
			return candidates[i].ID < candidates[j].ID
		})
	}
	return candidates[0], true
}
