package quality

import (
	"fmt"
	"slices"
)

// AttributeMatch is the outcome of matching one attribute against a rule set.
type AttributeMatch struct {
	Matches bool
	Score   float64
	Reason  string
}

// MatchValue matches a single-valued attribute (e.g. video codec) against a
// rule set.
func MatchValue(releaseValue string, rules RuleSet) AttributeMatch {
	if !rules.HasRules() {
		return AttributeMatch{Matches: true}
	}

	if releaseValue == "" || releaseValue == "unknown" {
		if len(rules.Required()) > 0 {
			return AttributeMatch{Matches: false, Reason: "unknown value, but profile requires specific values"}
		}
		return AttributeMatch{Matches: true}
	}

	if rules.Mode(releaseValue) == ModeNotAllowed {
		return AttributeMatch{Matches: false, Reason: releaseValue + " is not allowed"}
	}

	if required := rules.Required(); len(required) > 0 && !slices.Contains(required, releaseValue) {
		return AttributeMatch{Matches: false, Reason: releaseValue + " not in required values"}
	}

	if rules.Mode(releaseValue) == ModePreferred {
		return AttributeMatch{Matches: true, Score: 1.0}
	}
	return AttributeMatch{Matches: true}
}

// MatchValues matches a multi-valued attribute (HDR formats, audio tracks)
// against a rule set. Any notAllowed value rejects; a required set is
// satisfied by any one value; each preferred value adds a bonus.
func MatchValues(releaseValues []string, rules RuleSet, emptyReason string) AttributeMatch {
	if !rules.HasRules() {
		return AttributeMatch{Matches: true}
	}

	if len(releaseValues) == 0 {
		if len(rules.Required()) > 0 {
			return AttributeMatch{Matches: false, Reason: emptyReason}
		}
		return AttributeMatch{Matches: true}
	}

	notAllowed := rules.NotAllowed()
	for _, value := range releaseValues {
		if slices.Contains(notAllowed, value) {
			return AttributeMatch{Matches: false, Reason: value + " is not allowed"}
		}
	}

	if required := rules.Required(); len(required) > 0 {
		satisfied := false
		for _, value := range releaseValues {
			if slices.Contains(required, value) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return AttributeMatch{Matches: false, Reason: "none of the detected values match required values"}
		}
	}

	preferred := rules.Preferred()
	var score float64
	for _, value := range releaseValues {
		if slices.Contains(preferred, value) {
			score += 1.0
		}
	}
	return AttributeMatch{Matches: true, Score: score}
}

// ReleaseAttributes are the attribute values extracted from a release.
type ReleaseAttributes struct {
	HDRFormats    []string
	VideoCodec    string
	AudioCodecs   []string
	AudioChannels []string
}

// AttributesResult aggregates the four per-kind match outcomes.
type AttributesResult struct {
	HDR           AttributeMatch
	VideoCodec    AttributeMatch
	AudioCodec    AttributeMatch
	AudioChannels AttributeMatch

	AllMatch   bool
	TotalScore float64
}

// RejectionReasons lists the human-readable reasons for any failed kinds.
func (r *AttributesResult) RejectionReasons() []string {
	var reasons []string
	if !r.HDR.Matches && r.HDR.Reason != "" {
		reasons = append(reasons, "HDR: "+r.HDR.Reason)
	}
	if !r.VideoCodec.Matches && r.VideoCodec.Reason != "" {
		reasons = append(reasons, "Video: "+r.VideoCodec.Reason)
	}
	if !r.AudioCodec.Matches && r.AudioCodec.Reason != "" {
		reasons = append(reasons, "Audio: "+r.AudioCodec.Reason)
	}
	if !r.AudioChannels.Matches && r.AudioChannels.Reason != "" {
		reasons = append(reasons, "Channels: "+r.AudioChannels.Reason)
	}
	return reasons
}

// MatchAttributes runs a release's attributes through all four of a profile's
// rule sets.
func MatchAttributes(release *ReleaseAttributes, profile *Profile) AttributesResult {
	result := AttributesResult{
		HDR:           MatchValues(release.HDRFormats, profile.HDRRules, "no HDR format detected, but profile requires HDR"),
		VideoCodec:    MatchValue(release.VideoCodec, profile.VideoCodecRules),
		AudioCodec:    MatchValues(release.AudioCodecs, profile.AudioCodecRules, "no audio detected, but profile requires specific audio"),
		AudioChannels: MatchValues(release.AudioChannels, profile.AudioChannelRules, "no channel layout detected, but profile requires specific channels"),
	}

	result.AllMatch = result.HDR.Matches &&
		result.VideoCodec.Matches &&
		result.AudioCodec.Matches &&
		result.AudioChannels.Matches

	result.TotalScore = result.HDR.Score +
		result.VideoCodec.Score +
		result.AudioCodec.Score +
		result.AudioChannels.Score

	return result
}

// QualityMatch is the outcome of resolving a release's quality against a
// profile's allowed set.
type QualityMatch struct {
	Matches bool
	Quality Quality
	Reason  string
}

// MatchQuality resolves a release's resolution and source against the
// profile's allowed items.
func MatchQuality(resolution int, source Source, profile *Profile) QualityMatch {
	if resolution == 0 {
		return QualityMatch{Reason: "resolution not detected from release"}
	}

	for _, item := range profile.Items {
		if item.Allowed && item.Quality.Resolution == resolution && item.Quality.Source == source {
			return QualityMatch{Matches: true, Quality: item.Quality}
		}
	}

	q, ok := ByResolutionSource(resolution, source)
	if !ok {
		return QualityMatch{Reason: fmt.Sprintf("no catalog quality for %dp %s", resolution, source)}
	}
	return QualityMatch{Reason: q.Name + " is not allowed by profile " + profile.Name}
}
