// Package release parses release titles and file names into the structured
// record the matching engine consumes. Callers are expected to treat the
// output as already normalized.
package release

import "github.com/versionarr/versionarr/internal/quality"

// Release is a parsed release title or file name.
type Release struct {
	Title         string         `json:"title"`
	Year          int            `json:"year,omitempty"`
	Season        int            `json:"season,omitempty"`
	Episode       int            `json:"episode,omitempty"`
	IsTV          bool           `json:"isTv"`
	IsSeasonPack  bool           `json:"isSeasonPack,omitempty"`
	Resolution    int            `json:"resolution,omitempty"` // 480, 720, 1080, 2160
	Source        quality.Source `json:"source,omitempty"`
	VideoCodec    string         `json:"videoCodec,omitempty"`
	AudioCodecs   []string       `json:"audioCodecs,omitempty"`
	AudioChannels []string       `json:"audioChannels,omitempty"`
	HDRFormats    []string       `json:"hdrFormats,omitempty"`
	ReleaseGroup  string         `json:"releaseGroup,omitempty"`
}

// Attributes converts the release's attribute values into the shape the
// quality rule sets match against. A release with no detected HDR format is
// treated as SDR.
func (r *Release) Attributes() quality.ReleaseAttributes {
	hdr := r.HDRFormats
	if len(hdr) == 0 {
		hdr = []string{quality.SDR}
	}
	return quality.ReleaseAttributes{
		HDRFormats:    hdr,
		VideoCodec:    r.VideoCodec,
		AudioCodecs:   r.AudioCodecs,
		AudioChannels: r.AudioChannels,
	}
}

// ResolvedQuality maps the release's resolution and source onto the quality
// catalog.
func (r *Release) ResolvedQuality() (quality.Quality, bool) {
	return quality.ByResolutionSource(r.Resolution, r.Source)
}
