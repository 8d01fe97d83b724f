package quality

// Source identifies where a release originated. Disc sources form a
// distinct upgrade tier from streaming and broadcast sources.
type Source string

const (
	SourceSD     Source = "sd"
	SourceHDTV   Source = "hdtv"
	SourceWebDL  Source = "webdl"
	SourceWebRip Source = "webrip"
	SourceBluray Source = "bluray"
	SourceRemux  Source = "remux"
)

// Disc reports whether the source is optical media.
func (s Source) Disc() bool {
	return s == SourceBluray || s == SourceRemux
}

// Valid reports whether the source is one of the known values.
func (s Source) Valid() bool {
	switch s {
	case SourceSD, SourceHDTV, SourceWebDL, SourceWebRip, SourceBluray, SourceRemux:
		return true
	}
	return false
}

// Quality represents a quality tier.
type Quality struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Source     Source `json:"source"`
	Resolution int    `json:"resolution"` // 480, 720, 1080, 2160
	Weight     int    `json:"weight"`     // Higher = more desirable
}

// QualityItem represents a quality in a profile with its allowed status.
type QualityItem struct {
	Quality Quality `json:"quality"`
	Allowed bool    `json:"allowed"`
}

// Unknown is the zero-weight quality used when a stored file's quality
// cannot be resolved against the catalog.
var Unknown = Quality{ID: 0, Name: "Unknown", Source: SourceSD, Resolution: 0, Weight: 0}

// Qualities is the static quality catalog, ordered by ascending weight.
var Qualities = []Quality{
	{ID: 1, Name: "SDTV", Source: SourceSD, Resolution: 480, Weight: 1},
	{ID: 2, Name: "WEBRip-480p", Source: SourceWebRip, Resolution: 480, Weight: 2},
	{ID: 3, Name: "HDTV-720p", Source: SourceHDTV, Resolution: 720, Weight: 3},
	{ID: 4, Name: "WEBRip-720p", Source: SourceWebRip, Resolution: 720, Weight: 4},
	{ID: 5, Name: "WEBDL-720p", Source: SourceWebDL, Resolution: 720, Weight: 5},
	{ID: 6, Name: "Bluray-720p", Source: SourceBluray, Resolution: 720, Weight: 6},
	{ID: 7, Name: "HDTV-1080p", Source: SourceHDTV, Resolution: 1080, Weight: 7},
	{ID: 8, Name: "WEBRip-1080p", Source: SourceWebRip, Resolution: 1080, Weight: 8},
	{ID: 9, Name: "WEBDL-1080p", Source: SourceWebDL, Resolution: 1080, Weight: 10},
	{ID: 10, Name: "Bluray-1080p", Source: SourceBluray, Resolution: 1080, Weight: 12},
	{ID: 11, Name: "Remux-1080p", Source: SourceRemux, Resolution: 1080, Weight: 13},
	{ID: 12, Name: "HDTV-2160p", Source: SourceHDTV, Resolution: 2160, Weight: 14},
	{ID: 13, Name: "WEBRip-2160p", Source: SourceWebRip, Resolution: 2160, Weight: 15},
	{ID: 14, Name: "WEBDL-2160p", Source: SourceWebDL, Resolution: 2160, Weight: 17},
	{ID: 15, Name: "Bluray-2160p", Source: SourceBluray, Resolution: 2160, Weight: 20},
	{ID: 16, Name: "Remux-2160p", Source: SourceRemux, Resolution: 2160, Weight: 21},
}

var qualityByID map[int]Quality

func init() {
	qualityByID = make(map[int]Quality, len(Qualities))
	for _, q := range Qualities {
		qualityByID[q.ID] = q
	}
}

// ByID returns a quality from the catalog by its ID.
func ByID(id int) (Quality, bool) {
	q, ok := qualityByID[id]
	return q, ok
}

// ByName finds a quality in the catalog by name.
func ByName(name string) (Quality, bool) {
	for _, q := range Qualities {
		if q.Name == name {
			return q, true
		}
	}
	return Quality{}, false
}

// ByResolutionSource finds the catalog quality matching a resolution and source.
func ByResolutionSource(resolution int, source Source) (Quality, bool) {
	for _, q := range Qualities {
		if q.Resolution == resolution && q.Source == source {
			return q, true
		}
	}
	return Quality{}, false
}
