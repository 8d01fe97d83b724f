package quality

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Mode defines how a single attribute value affects matching.
type Mode string

const (
	ModeAcceptable Mode = "acceptable" // No filtering, accept anything
	ModePreferred  Mode = "preferred"  // Scoring bonus for matches
	ModeRequired   Mode = "required"   // Hard filter, must match
	ModeNotAllowed Mode = "notAllowed" // Hard reject, must not match
)

// Kind identifies which attribute category a rule set governs.
type Kind string

const (
	KindHDR           Kind = "hdr"
	KindVideoCodec    Kind = "videoCodec"
	KindAudioCodec    Kind = "audioCodec"
	KindAudioChannels Kind = "audioChannels"
)

// SDR is the paired opposite of every HDR format in the catalog.
const SDR = "SDR"

// attribute catalog: the known values per kind. Seeded below, extensible at
// runtime via Register or LoadCatalogExtensions so that new codec/HDR values
// need no change to the matching logic.
var (
	catalogMu sync.RWMutex
	catalog   = map[Kind][]string{
		KindHDR:           {"DV", "HDR10+", "HDR10", "HDR", "HLG", SDR},
		KindVideoCodec:    {"x264", "x265", "AV1", "VP9", "XviD", "MPEG2"},
		KindAudioCodec:    {"TrueHD", "DTS-HD MA", "DTS-HD", "DTS", "DDP", "DD", "AAC", "FLAC", "LPCM", "Opus", "MP3"},
		KindAudioChannels: {"7.1", "5.1", "2.0", "1.0"},
	}
)

// Register adds values to the catalog for a kind, skipping duplicates.
func Register(kind Kind, values ...string) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	known := make(map[string]bool, len(catalog[kind]))
	for _, v := range catalog[kind] {
		known[v] = true
	}
	for _, v := range values {
		if v != "" && !known[v] {
			catalog[kind] = append(catalog[kind], v)
			known[v] = true
		}
	}
}

// KnownValues returns the catalog values for a kind.
func KnownValues(kind Kind) []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	out := make([]string, len(catalog[kind]))
	copy(out, catalog[kind])
	return out
}

// catalogExtensions is the on-disk shape of an attributes.yaml file.
type catalogExtensions struct {
	HDRFormats    []string `yaml:"hdrFormats"`
	VideoCodecs   []string `yaml:"videoCodecs"`
	AudioCodecs   []string `yaml:"audioCodecs"`
	AudioChannels []string `yaml:"audioChannels"`
}

// LoadCatalogExtensions merges user-supplied attribute values from a YAML file
// into the catalog. A missing file is not an error.
func LoadCatalogExtensions(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read attribute catalog: %w", err)
	}

	var ext catalogExtensions
	if err := yaml.Unmarshal(data, &ext); err != nil {
		return fmt.Errorf("failed to parse attribute catalog: %w", err)
	}

	Register(KindHDR, ext.HDRFormats...)
	Register(KindVideoCodec, ext.VideoCodecs...)
	Register(KindAudioCodec, ext.AudioCodecs...)
	Register(KindAudioChannels, ext.AudioChannels...)
	return nil
}

// RuleSet holds the per-value mode configuration for one attribute kind.
// The map is sparse: absence of a value means acceptable, and an explicit
// acceptable entry is never stored.
type RuleSet struct {
	Kind  Kind            `json:"-"`
	Items map[string]Mode `json:"items"`
}

// NewRuleSet returns an empty rule set for a kind.
func NewRuleSet(kind Kind) RuleSet {
	return RuleSet{Kind: kind, Items: make(map[string]Mode)}
}

// Mode returns the mode for a value, defaulting to acceptable when not set.
func (r RuleSet) Mode(value string) Mode {
	if mode, ok := r.Items[value]; ok {
		return mode
	}
	return ModeAcceptable
}

// SetMode stores a mode for a value. Setting acceptable deletes the entry so
// the map round-trips without redundant keys. For HDR rule sets, requiring any
// HDR format forces SDR to notAllowed and requiring SDR forces every known HDR
// format to notAllowed.
func (r *RuleSet) SetMode(value string, mode Mode) {
	if r.Items == nil {
		r.Items = make(map[string]Mode)
	}

	if mode == ModeAcceptable {
		delete(r.Items, value)
		return
	}
	r.Items[value] = mode

	if r.Kind != KindHDR || mode != ModeRequired {
		return
	}
	if value == SDR {
		for _, hdr := range KnownValues(KindHDR) {
			if hdr != SDR {
				r.Items[hdr] = ModeNotAllowed
			}
		}
	} else {
		r.Items[SDR] = ModeNotAllowed
	}
}

// Disabled derives the values an operator can no longer select, recomputed
// from the stored map on every call.
func (r RuleSet) Disabled() []string {
	var disabled []string
	for _, v := range KnownValues(r.Kind) {
		if r.Mode(v) == ModeNotAllowed {
			disabled = append(disabled, v)
		}
	}
	sort.Strings(disabled)
	return disabled
}

// valuesWith returns all values carrying the given mode.
func (r RuleSet) valuesWith(mode Mode) []string {
	var result []string
	for value, m := range r.Items {
		if m == mode {
			result = append(result, value)
		}
	}
	return result
}

// Required returns all values with required mode.
func (r RuleSet) Required() []string { return r.valuesWith(ModeRequired) }

// Preferred returns all values with preferred mode.
func (r RuleSet) Preferred() []string { return r.valuesWith(ModePreferred) }

// NotAllowed returns all values with notAllowed mode.
func (r RuleSet) NotAllowed() []string { return r.valuesWith(ModeNotAllowed) }

// HasRules reports whether any value carries a non-acceptable mode.
func (r RuleSet) HasRules() bool {
	return len(r.Items) > 0
}

// ValidationWarning describes a rule-set configuration that is legal but
// almost certainly not what the operator meant.
type ValidationWarning struct {
	Kind    Kind   `json:"kind"`
	Mode    Mode   `json:"mode"`
	Message string `json:"message"`
}

// Validate checks whether every option carries the same non-acceptable mode.
// Fires only when options is non-empty and the modes are complete and identical.
func (r RuleSet) Validate(options []string) *ValidationWarning {
	if len(options) == 0 {
		return nil
	}

	first := r.Mode(options[0])
	if first == ModeAcceptable {
		return nil
	}
	for _, v := range options[1:] {
		if r.Mode(v) != first {
			return nil
		}
	}

	w := &ValidationWarning{Kind: r.Kind, Mode: first}
	switch first {
	case ModeRequired:
		w.Message = "every value is required: no release can satisfy every requirement"
	case ModePreferred:
		w.Message = "every value is preferred: equivalent to leaving everything acceptable"
	case ModeNotAllowed:
		w.Message = "every value is not allowed: nothing can match"
	}
	return w
}

// MarshalJSON serializes only the sparse items map.
func (r RuleSet) MarshalJSON() ([]byte, error) {
	type wire struct {
		Items map[string]Mode `json:"items"`
	}
	return json.Marshal(wire{Items: r.Items})
}

// SerializeRuleSet converts a rule set to JSON for database storage.
func SerializeRuleSet(r RuleSet) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DeserializeRuleSet parses JSON into a rule set for the given kind,
// normalizing away any explicit acceptable entry.
func DeserializeRuleSet(kind Kind, data string) (RuleSet, error) {
	rs := NewRuleSet(kind)
	if data == "" {
		return rs, nil
	}

	var wire struct {
		Items map[string]Mode `json:"items"`
	}
	if err := json.Unmarshal([]byte(data), &wire); err != nil {
		return rs, err
	}
	for value, mode := range wire.Items {
		if mode == ModeAcceptable {
			continue
		}
		rs.Items[value] = mode
	}
	return rs, nil
}
