// Package engine scores parsed releases against the slots configured for a
// media item and decides which slot, if any, should receive the release.
// Evaluation is a pure function of its inputs: no I/O, no shared state, safe
// to call from any number of goroutines.
package engine

import (
	"sort"

	"github.com/versionarr/versionarr/internal/quality"
	"github.com/versionarr/versionarr/internal/release"
)

// qualityScoreFactor keeps quality strictly dominant over attribute bonuses
// in the combined score. Attribute bonuses are +1.0 per preferred hit and the
// attribute catalog is far smaller than this factor, so no sum of bonuses can
// outrank a higher-weight quality.
const qualityScoreFactor = 100.0

// scoreEpsilon is the tie window for top-score comparisons.
const scoreEpsilon = 1e-9

// Evaluate scores a release against every candidate slot and returns the
// ranked assignments. Slots that are disabled or unbound are skipped; with no
// usable slot at all the evaluation is empty and RequiresSelection is false,
// signalling the caller to fall back to legacy single-profile matching.
func Evaluate(rel *release.Release, candidates []CandidateSlot) Evaluation {
	eval := Evaluation{Assignments: []Assignment{}}

	for _, candidate := range candidates {
		if !candidate.Slot.Enabled || candidate.Profile == nil {
			continue
		}

		assignment, rejection := evaluateSlot(rel, candidate)
		if rejection != nil {
			eval.Rejections = append(eval.Rejections, *rejection)
			continue
		}
		eval.Assignments = append(eval.Assignments, *assignment)
	}

	if len(eval.Assignments) == 0 {
		return eval
	}

	sortAssignments(eval.Assignments)
	applyConfidence(eval.Assignments)

	eval.RecommendedSlotID = eval.Assignments[0].SlotID
	eval.MatchingCount = len(eval.Assignments)
	eval.RequiresSelection = requiresSelection(eval.Assignments)
	return eval
}

// evaluateSlot runs one candidate through the rule sets and quality check.
func evaluateSlot(rel *release.Release, candidate CandidateSlot) (*Assignment, *Rejection) {
	profile := candidate.Profile
	slot := candidate.Slot

	attrs := rel.Attributes()
	attrResult := quality.MatchAttributes(&attrs, profile)
	if !attrResult.AllMatch {
		return nil, &Rejection{
			SlotID:   slot.ID,
			SlotName: slot.Name,
			Reasons:  attrResult.RejectionReasons(),
		}
	}

	qualityResult := quality.MatchQuality(rel.Resolution, rel.Source, profile)
	if !qualityResult.Matches {
		return nil, &Rejection{
			SlotID:   slot.ID,
			SlotName: slot.Name,
			Reasons:  []string{"Quality: " + qualityResult.Reason},
		}
	}

	matched := qualityResult.Quality
	assignment := &Assignment{
		SlotID:         slot.ID,
		SlotNumber:     slot.SlotNumber,
		SlotName:       slot.Name,
		MatchScore:     float64(matched.Weight)*qualityScoreFactor + attrResult.TotalScore,
		MatchedQuality: matched,
		IsNewFill:      candidate.CurrentFile == nil,
		NeedsUpgrade:   !profile.AtCutoff(matched),
	}

	if current := candidate.CurrentFile; current != nil {
		assignment.CurrentFileID = &current.FileID
		assignment.CurrentQuality = current.Quality.Name
		assignment.IsUpgrade = profile.IsUpgrade(current.Quality, matched)
	}

	return assignment, nil
}

// sortAssignments orders by score, then empty slots first, then slot number.
func sortAssignments(assignments []Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		if assignments[i].MatchScore != assignments[j].MatchScore {
			return assignments[i].MatchScore > assignments[j].MatchScore
		}
		if assignments[i].IsNewFill != assignments[j].IsNewFill {
			return assignments[i].IsNewFill
		}
		return assignments[i].SlotNumber < assignments[j].SlotNumber
	})
}

// applyConfidence sets each assignment's confidence from its margin over the
// best of the other assignments. Near-ties yield low confidence.
func applyConfidence(assignments []Assignment) {
	if len(assignments) == 1 {
		assignments[0].Confidence = 1.0
		return
	}

	for i := range assignments {
		top := assignments[i].MatchScore
		runnerUp := bestOther(assignments, i)
		if top <= 0 {
			assignments[i].Confidence = 0
			continue
		}
		margin := (top - runnerUp) / top
		if margin < 0 {
			margin = 0
		}
		if margin > 1 {
			margin = 1
		}
		assignments[i].Confidence = margin
	}
}

func bestOther(assignments []Assignment, skip int) float64 {
	best := 0.0
	for i := range assignments {
		if i != skip && assignments[i].MatchScore > best {
			best = assignments[i].MatchScore
		}
	}
	return best
}

// requiresSelection is true when two or more assignments tie at the top
// score, or when no accepted slot is either empty or upgradeable, so the
// engine cannot act unambiguously on its own.
func requiresSelection(assignments []Assignment) bool {
	if len(assignments) >= 2 {
		if assignments[0].MatchScore-assignments[1].MatchScore <= scoreEpsilon {
			return true
		}
	}

	for _, a := range assignments {
		if a.IsNewFill || a.IsUpgrade {
			return false
		}
	}
	return true
}
