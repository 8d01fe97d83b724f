package quality

import "strings"

// ExclusivityResult describes whether two profiles can be told apart by the
// matching engine.
type ExclusivityResult struct {
	AreExclusive     bool     `json:"areExclusive"`
	ConflictingAttrs []string `json:"conflictingAttrs,omitempty"`
	OverlappingAttrs []string `json:"overlappingAttrs,omitempty"`
	Reason           string   `json:"reason,omitempty"`
}

var exclusivityKinds = []struct {
	kind  Kind
	label string
}{
	{KindHDR, "HDR"},
	{KindVideoCodec, "Video Codec"},
	{KindAudioCodec, "Audio Codec"},
	{KindAudioChannels, "Audio Channels"},
}

// CheckMutualExclusivity determines whether two profiles could accept an
// identical release with no differentiator. Preferred modes do not affect the
// calculation.
func CheckMutualExclusivity(profileA, profileB *Profile) ExclusivityResult {
	result := ExclusivityResult{
		ConflictingAttrs: []string{},
		OverlappingAttrs: []string{},
	}

	for _, k := range exclusivityKinds {
		if hasRuleConflict(profileA.RuleSetFor(k.kind), profileB.RuleSetFor(k.kind)) {
			result.ConflictingAttrs = append(result.ConflictingAttrs, k.label)
		}
	}
	if len(result.ConflictingAttrs) > 0 {
		result.AreExclusive = true
		return result
	}

	if haveNonOverlappingQualities(profileA, profileB) {
		result.AreExclusive = true
		result.Reason = "profiles have different allowed quality tiers"
		return result
	}

	for _, k := range exclusivityKinds {
		if hasRuleOverlap(profileA.RuleSetFor(k.kind), profileB.RuleSetFor(k.kind)) {
			result.OverlappingAttrs = append(result.OverlappingAttrs, k.label)
		}
	}
	if len(result.OverlappingAttrs) > 0 {
		result.Reason = "profiles have overlapping requirements and could match the same releases"
	}

	return result
}

// haveNonOverlappingQualities reports whether either profile allows a quality
// the other does not.
func haveNonOverlappingQualities(profileA, profileB *Profile) bool {
	allowedA := allowedQualityIDs(profileA)
	allowedB := allowedQualityIDs(profileB)

	if len(allowedA) == 0 || len(allowedB) == 0 {
		return false
	}

	for id := range allowedA {
		if !allowedB[id] {
			return true
		}
	}
	for id := range allowedB {
		if !allowedA[id] {
			return true
		}
	}
	return false
}

func allowedQualityIDs(profile *Profile) map[int]bool {
	allowed := make(map[int]bool)
	for _, item := range profile.Items {
		if item.Allowed {
			allowed[item.Quality.ID] = true
		}
	}
	return allowed
}

// hasRuleConflict reports whether two rule sets can never accept the same
// release: one requires a value the other forbids, or their required sets are
// disjoint.
func hasRuleConflict(rulesA, rulesB RuleSet) bool {
	requiredA := rulesA.Required()
	requiredB := rulesB.Required()

	for _, req := range requiredA {
		if rulesB.Mode(req) == ModeNotAllowed {
			return true
		}
	}
	for _, req := range requiredB {
		if rulesA.Mode(req) == ModeNotAllowed {
			return true
		}
	}

	if len(requiredA) > 0 && len(requiredB) > 0 {
		return !hasOverlap(requiredA, requiredB)
	}
	return false
}

// hasRuleOverlap reports whether two rule sets could both accept the same
// release value.
func hasRuleOverlap(rulesA, rulesB RuleSet) bool {
	if !rulesA.HasRules() || !rulesB.HasRules() {
		return true
	}

	requiredA := rulesA.Required()
	requiredB := rulesB.Required()

	if len(requiredA) == 0 && len(requiredB) == 0 {
		return true
	}
	if len(requiredA) > 0 && len(requiredB) > 0 {
		return hasOverlap(requiredA, requiredB)
	}
	return true
}

func hasOverlap(a, b []string) bool {
	setA := make(map[string]bool, len(a))
	for _, v := range a {
		setA[v] = true
	}
	for _, v := range b {
		if setA[v] {
			return true
		}
	}
	return false
}

// AttributeIssue describes a specific attribute overlap between two profiles.
type AttributeIssue struct {
	Attribute string `json:"attribute"`
	Message   string `json:"message"`
}

// SlotOverlapWarning reports a pair of slots whose profiles could accept an
// identical release. Advisory only: naming tokens may differentiate slots
// that would otherwise collide, so this never blocks a save.
type SlotOverlapWarning struct {
	SlotA        int              `json:"slotA"`
	SlotB        int              `json:"slotB"`
	SlotAName    string           `json:"slotAName"`
	SlotBName    string           `json:"slotBName"`
	ProfileAName string           `json:"profileAName"`
	ProfileBName string           `json:"profileBName"`
	Reason       string           `json:"reason"`
	Issues       []AttributeIssue `json:"issues,omitempty"`
}

// SlotConfig pairs a slot's identity with its bound profile for exclusivity
// checking.
type SlotConfig struct {
	SlotNumber int
	SlotName   string
	Enabled    bool
	Profile    *Profile
}

// CheckSlotExclusivity checks every pair of enabled, profile-bound slots and
// returns a warning per pair that could accept the same release.
func CheckSlotExclusivity(slots []SlotConfig) []SlotOverlapWarning {
	var warnings []SlotOverlapWarning

	for i := 0; i < len(slots); i++ {
		slotA := slots[i]
		if !slotA.Enabled || slotA.Profile == nil {
			continue
		}
		for j := i + 1; j < len(slots); j++ {
			slotB := slots[j]
			if !slotB.Enabled || slotB.Profile == nil {
				continue
			}

			result := CheckMutualExclusivity(slotA.Profile, slotB.Profile)
			if result.AreExclusive {
				continue
			}

			reason, issues := describeOverlap(slotA, slotB, result)
			warnings = append(warnings, SlotOverlapWarning{
				SlotA:        slotA.SlotNumber,
				SlotB:        slotB.SlotNumber,
				SlotAName:    slotA.SlotName,
				SlotBName:    slotB.SlotName,
				ProfileAName: slotA.Profile.Name,
				ProfileBName: slotB.Profile.Name,
				Reason:       reason,
				Issues:       issues,
			})
		}
	}

	return warnings
}

func describeOverlap(slotA, slotB SlotConfig, result ExclusivityResult) (string, []AttributeIssue) {
	if len(result.OverlappingAttrs) == 0 {
		return "profiles have no differentiating required attributes", nil
	}

	var issues []AttributeIssue
	for _, attr := range result.OverlappingAttrs {
		if message := describeAttributeOverlap(attr, slotA.Profile, slotB.Profile); message != "" {
			issues = append(issues, AttributeIssue{Attribute: attr, Message: message})
		}
	}
	if len(issues) == 0 {
		return "profiles could match the same releases", nil
	}

	details := make([]string, 0, len(issues))
	for _, issue := range issues {
		details = append(details, issue.Message)
	}
	return strings.Join(details, "; "), issues
}

func describeAttributeOverlap(attr string, profileA, profileB *Profile) string {
	var kind Kind
	for _, k := range exclusivityKinds {
		if k.label == attr {
			kind = k.kind
		}
	}
	reqA := profileA.RuleSetFor(kind).Required()
	reqB := profileB.RuleSetFor(kind).Required()

	switch {
	case len(reqA) == 0 && len(reqB) == 0:
		return "Neither profile has required values (both accept any)"
	case len(reqA) > 0 && len(reqB) > 0:
		if overlapping := intersect(reqA, reqB); len(overlapping) > 0 {
			return "Both profiles require " + strings.Join(overlapping, ", ")
		}
		return ""
	case len(reqA) > 0:
		return profileA.Name + " requires " + strings.Join(reqA, ", ") + "; " + profileB.Name + " accepts any"
	default:
		return profileB.Name + " requires " + strings.Join(reqB, ", ") + "; " + profileA.Name + " accepts any"
	}
}

func intersect(a, b []string) []string {
	setB := make(map[string]bool, len(b))
	for _, v := range b {
		setB[v] = true
	}
	var overlapping []string
	for _, v := range a {
		if setB[v] {
			overlapping = append(overlapping, v)
		}
	}
	return overlapping
}
