package quality

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// UpgradeStrategy controls how a profile compares two qualities.
type UpgradeStrategy string

const (
	// StrategyBalanced upgrades on higher resolution, or on a non-disc to
	// disc transition at equal resolution. Raw weight is never consulted.
	StrategyBalanced UpgradeStrategy = "balanced"
	// StrategyAggressive upgrades on any weight increase, ignoring tiering.
	StrategyAggressive UpgradeStrategy = "aggressive"
	// StrategyResolutionOnly upgrades only on higher resolution.
	StrategyResolutionOnly UpgradeStrategy = "resolution_only"
)

// Valid reports whether the strategy is one of the known values.
func (s UpgradeStrategy) Valid() bool {
	switch s {
	case StrategyBalanced, StrategyAggressive, StrategyResolutionOnly:
		return true
	}
	return false
}

// ErrCutoffNotAllowed is returned at save time when a profile's cutoff does
// not reference one of its own allowed items.
var ErrCutoffNotAllowed = errors.New("cutoff must reference an allowed quality in the profile")

// Profile represents a quality profile.
type Profile struct {
	ID                      int64           `json:"id"`
	Name                    string          `json:"name"`
	Items                   []QualityItem   `json:"items"`
	Cutoff                  int             `json:"cutoff"` // Quality ID at which upgrades stop
	UpgradesEnabled         bool            `json:"upgradesEnabled"`
	UpgradeStrategy         UpgradeStrategy `json:"upgradeStrategy"`
	CutoffOverridesStrategy bool            `json:"cutoffOverridesStrategy"`
	AllowAutoApprove        bool            `json:"allowAutoApprove"`

	HDRRules          RuleSet `json:"hdrRules"`
	VideoCodecRules   RuleSet `json:"videoCodecRules"`
	AudioCodecRules   RuleSet `json:"audioCodecRules"`
	AudioChannelRules RuleSet `json:"audioChannelRules"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAllowed checks whether a quality is in the profile's allowed set.
func (p *Profile) IsAllowed(qualityID int) bool {
	for _, item := range p.Items {
		if item.Quality.ID == qualityID && item.Allowed {
			return true
		}
	}
	return false
}

// Validate checks the profile configuration at save time.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return errors.New("profile name is required")
	}
	if !p.UpgradeStrategy.Valid() {
		return fmt.Errorf("unknown upgrade strategy %q", p.UpgradeStrategy)
	}
	if p.Cutoff != 0 && !p.IsAllowed(p.Cutoff) {
		return ErrCutoffNotAllowed
	}
	return nil
}

// cutoffWeight returns the weight of the cutoff quality. A cutoff that no
// longer resolves degrades to "no cutoff" rather than failing the match.
func (p *Profile) cutoffWeight() (int, bool) {
	if q, ok := ByID(p.Cutoff); ok {
		return q.Weight, true
	}
	return 0, false
}

// AtCutoff reports whether a quality already satisfies the profile's cutoff.
func (p *Profile) AtCutoff(q Quality) bool {
	cw, ok := p.cutoffWeight()
	return ok && q.Weight >= cw
}

// IsUpgrade reports whether candidate is an upgrade over current under this
// profile's strategy. With cutoffOverridesStrategy set, a candidate that is
// exactly the cutoff quality is acceptable regardless of strategy; transitions
// strictly beyond the cutoff remain blocked.
func (p *Profile) IsUpgrade(current, candidate Quality) bool {
	if !p.UpgradesEnabled {
		return false
	}
	if !p.IsAllowed(candidate.ID) {
		return false
	}

	if p.AtCutoff(current) {
		return p.CutoffOverridesStrategy &&
			candidate.ID == p.Cutoff &&
			candidate.Weight > current.Weight
	}

	if p.CutoffOverridesStrategy && candidate.ID == p.Cutoff && candidate.Weight > current.Weight {
		return true
	}

	switch p.UpgradeStrategy {
	case StrategyResolutionOnly:
		return candidate.Resolution > current.Resolution
	case StrategyAggressive:
		return candidate.Weight > current.Weight
	default:
		if candidate.Resolution > current.Resolution {
			return true
		}
		return candidate.Resolution == current.Resolution &&
			candidate.Source.Disc() && !current.Source.Disc()
	}
}

// RuleSetFor returns the rule set governing an attribute kind.
func (p *Profile) RuleSetFor(kind Kind) RuleSet {
	switch kind {
	case KindHDR:
		return p.HDRRules
	case KindVideoCodec:
		return p.VideoCodecRules
	case KindAudioCodec:
		return p.AudioCodecRules
	case KindAudioChannels:
		return p.AudioChannelRules
	}
	return RuleSet{}
}

// SerializeItems converts quality items to JSON for database storage.
func SerializeItems(items []QualityItem) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DeserializeItems parses JSON quality items from the database.
func DeserializeItems(data string) ([]QualityItem, error) {
	var items []QualityItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DefaultProfile returns an "Any" profile that accepts all qualities.
func DefaultProfile() Profile {
	items := make([]QualityItem, len(Qualities))
	for i, q := range Qualities {
		items[i] = QualityItem{Quality: q, Allowed: true}
	}
	return newSeedProfile("Any", items, mustID("Bluray-1080p"))
}

// HD1080pProfile returns a profile targeting 1080p content.
func HD1080pProfile() Profile {
	items := make([]QualityItem, len(Qualities))
	for i, q := range Qualities {
		items[i] = QualityItem{Quality: q, Allowed: q.Resolution >= 720 && q.Resolution <= 1080}
	}
	return newSeedProfile("HD-1080p", items, mustID("Bluray-1080p"))
}

// Ultra4KProfile returns a profile targeting 4K content.
func Ultra4KProfile() Profile {
	items := make([]QualityItem, len(Qualities))
	for i, q := range Qualities {
		items[i] = QualityItem{Quality: q, Allowed: q.Resolution >= 1080}
	}
	return newSeedProfile("Ultra-HD", items, mustID("Bluray-2160p"))
}

func newSeedProfile(name string, items []QualityItem, cutoff int) Profile {
	return Profile{
		Name:              name,
		Items:             items,
		Cutoff:            cutoff,
		UpgradesEnabled:   true,
		UpgradeStrategy:   StrategyBalanced,
		HDRRules:          NewRuleSet(KindHDR),
		VideoCodecRules:   NewRuleSet(KindVideoCodec),
		AudioCodecRules:   NewRuleSet(KindAudioCodec),
		AudioChannelRules: NewRuleSet(KindAudioChannels),
	}
}

func mustID(name string) int {
	q, ok := ByName(name)
	if !ok {
		panic("unknown quality " + name)
	}
	return q.ID
}
