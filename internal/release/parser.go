package release

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/versionarr/versionarr/internal/quality"
)

var (
	// TV patterns: Show.S01E02 or Show.1x02
	tvPatternSE = regexp.MustCompile(`(?i)^(.+?)[\.\s_-]+[Ss](\d{1,2})[Ee](\d{1,2})[\.\s_-]*(.*)$`)
	tvPatternX  = regexp.MustCompile(`(?i)^(.+?)[\.\s_-]+(\d{1,2})[xX](\d{1,2})[\.\s_-]*(.*)$`)

	// Season pack: Show.S01 with no episode number
	tvPatternSeasonPack = regexp.MustCompile(`(?i)^(.+?)[\.\s_-]+[Ss](\d{1,2})(?:[\.\s_-]|$)(.*)$`)

	// Movie patterns: Title.Year or Title (Year)
	moviePatternParen = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)\s*(.*)$`)
	moviePatternDot   = regexp.MustCompile(`^(.+?)[\.\s_-]+(\d{4})(?:[\.\s_-]+(.*))?$`)

	// Release group: trailing -GROUP token
	groupPattern = regexp.MustCompile(`-([A-Za-z0-9]+)$`)

	cleanupPattern = regexp.MustCompile(`[\.\s_-]+`)
)

// ordered token tables: more specific patterns first.
var resolutionTokens = []struct {
	resolution int
	pattern    *regexp.Regexp
}{
	{2160, regexp.MustCompile(`(?i)(2160p|4k|uhd)`)},
	{1080, regexp.MustCompile(`(?i)1080p`)},
	{720, regexp.MustCompile(`(?i)720p`)},
	{480, regexp.MustCompile(`(?i)(480p|sdtv|pdtv)`)},
}

var sourceTokens = []struct {
	source  quality.Source
	pattern *regexp.Regexp
}{
	{quality.SourceRemux, regexp.MustCompile(`(?i)remux`)},
	{quality.SourceBluray, regexp.MustCompile(`(?i)(blu-?ray|bdrip|brrip)`)},
	{quality.SourceWebDL, regexp.MustCompile(`(?i)web-?dl`)},
	{quality.SourceWebRip, regexp.MustCompile(`(?i)webrip`)},
	{quality.SourceHDTV, regexp.MustCompile(`(?i)hdtv`)},
	{quality.SourceSD, regexp.MustCompile(`(?i)(sdtv|pdtv|dvdrip)`)},
}

var videoCodecTokens = []struct {
	codec   string
	pattern *regexp.Regexp
}{
	{"x265", regexp.MustCompile(`(?i)(x265|h\.?265|hevc)`)},
	{"x264", regexp.MustCompile(`(?i)(x264|h\.?264|avc)`)},
	{"AV1", regexp.MustCompile(`(?i)\bav1\b`)},
	{"VP9", regexp.MustCompile(`(?i)vp9`)},
	{"XviD", regexp.MustCompile(`(?i)xvid`)},
	{"MPEG2", regexp.MustCompile(`(?i)mpeg-?2`)},
}

var hdrTokens = []struct {
	format  string
	pattern *regexp.Regexp
}{
	{"DV", regexp.MustCompile(`(?i)(dolby[\.\s]?vision|dovi|[\.\s_-]dv[\.\s_-])`)},
	{"HDR10+", regexp.MustCompile(`(?i)(hdr10\+|hdr10plus)`)},
	{"HDR10", regexp.MustCompile(`(?i)hdr10(?:[^+]|$)`)},
	{"HLG", regexp.MustCompile(`(?i)hlg`)},
	{"HDR", regexp.MustCompile(`(?i)[\.\s_-]hdr(?:[\.\s_-]|$)`)},
}

var audioCodecTokens = []struct {
	codec   string
	pattern *regexp.Regexp
}{
	{"TrueHD", regexp.MustCompile(`(?i)true-?hd`)},
	{"DTS-HD MA", regexp.MustCompile(`(?i)dts[\.\s-]?hd[\.\s-]?ma`)},
	{"DTS-HD", regexp.MustCompile(`(?i)dts[\.\s-]?hd(?:[^m]|$)`)},
	{"DTS", regexp.MustCompile(`(?i)[\.\s_-]dts(?:[\.\s_-]|$)`)},
	{"DDP", regexp.MustCompile(`(?i)(ddp|dd\+|e[\.\s-]?ac[\.\s-]?3)`)},
	{"DD", regexp.MustCompile(`(?i)(dd[\.\s_-]?[25]\.[01]|[\.\s_-]ac[\.\s-]?3(?:[\.\s_-]|$))`)},
	{"FLAC", regexp.MustCompile(`(?i)[\.\s_-]flac(?:[\.\s_-]|$)`)},
	{"AAC", regexp.MustCompile(`(?i)[\.\s_-]aac(?:[\.\s_-]|$)`)},
	{"Opus", regexp.MustCompile(`(?i)[\.\s_-]opus(?:[\.\s_-]|$)`)},
	{"MP3", regexp.MustCompile(`(?i)[\.\s_-]mp3(?:[\.\s_-]|$)`)},
}

var channelTokens = []struct {
	layout  string
	pattern *regexp.Regexp
}{
	{"7.1", regexp.MustCompile(`(?i)7\.1`)},
	{"5.1", regexp.MustCompile(`(?i)5\.1`)},
	{"2.0", regexp.MustCompile(`(?i)(2\.0|stereo)`)},
	{"1.0", regexp.MustCompile(`(?i)(1\.0|mono)`)},
}

// Parse parses a release title or file name.
func Parse(title string) *Release {
	name := strings.TrimSuffix(title, filepath.Ext(title))
	r := &Release{}

	if match := tvPatternSE.FindStringSubmatch(name); match != nil {
		r.IsTV = true
		r.Title = cleanTitle(match[1])
		r.Season, _ = strconv.Atoi(match[2])
		r.Episode, _ = strconv.Atoi(match[3])
		parseTokens(match[4], r)
		return r
	}

	if match := tvPatternX.FindStringSubmatch(name); match != nil {
		r.IsTV = true
		r.Title = cleanTitle(match[1])
		r.Season, _ = strconv.Atoi(match[2])
		r.Episode, _ = strconv.Atoi(match[3])
		parseTokens(match[4], r)
		return r
	}

	if match := tvPatternSeasonPack.FindStringSubmatch(name); match != nil {
		r.IsTV = true
		r.IsSeasonPack = true
		r.Title = cleanTitle(match[1])
		r.Season, _ = strconv.Atoi(match[2])
		parseTokens(match[3], r)
		return r
	}

	if match := moviePatternParen.FindStringSubmatch(name); match != nil {
		r.Title = cleanTitle(match[1])
		r.Year, _ = strconv.Atoi(match[2])
		parseTokens(match[3], r)
		return r
	}

	if match := moviePatternDot.FindStringSubmatch(name); match != nil {
		if year, _ := strconv.Atoi(match[2]); year >= 1900 && year <= 2100 {
			r.Title = cleanTitle(match[1])
			r.Year = year
			parseTokens(match[3], r)
			return r
		}
	}

	r.Title = cleanTitle(name)
	parseTokens(name, r)
	return r
}

// ParsePath parses a full file path, falling back to the parent folder when
// the file name alone does not identify the movie.
func ParsePath(fullPath string) *Release {
	r := Parse(filepath.Base(fullPath))

	if !r.IsTV && r.Year == 0 {
		folder := Parse(filepath.Base(filepath.Dir(fullPath)))
		if folder.Year != 0 {
			r.Year = folder.Year
			if folder.Title != "" {
				r.Title = folder.Title
			}
		}
	}
	return r
}

func cleanTitle(title string) string {
	return strings.TrimSpace(cleanupPattern.ReplaceAllString(title, " "))
}

// parseTokens extracts resolution, source, codecs, HDR formats, channel
// layouts, and the release group from the text after the title.
func parseTokens(text string, r *Release) {
	for _, t := range resolutionTokens {
		if t.pattern.MatchString(text) {
			r.Resolution = t.resolution
			break
		}
	}

	for _, t := range sourceTokens {
		if t.pattern.MatchString(text) {
			r.Source = t.source
			break
		}
	}

	for _, t := range videoCodecTokens {
		if t.pattern.MatchString(text) {
			r.VideoCodec = t.codec
			break
		}
	}

	// HDR formats and audio tracks are multi-valued: a release can carry
	// DV+HDR10 or TrueHD alongside a DD compatibility track.
	padded := " " + text + " "
	for _, t := range hdrTokens {
		if t.pattern.MatchString(padded) && !contains(r.HDRFormats, t.format) {
			// Generic HDR is implied by the specific formats, and an
			// HDR10+ token also matches the HDR10 pattern.
			if t.format == "HDR" && len(r.HDRFormats) > 0 {
				continue
			}
			if t.format == "HDR10" && contains(r.HDRFormats, "HDR10+") {
				continue
			}
			r.HDRFormats = append(r.HDRFormats, t.format)
		}
	}

	for _, t := range audioCodecTokens {
		if !t.pattern.MatchString(padded) || contains(r.AudioCodecs, t.codec) {
			continue
		}
		// A DTS-HD MA token also matches the broader DTS patterns; keep
		// only the most specific variant of the family.
		if strings.HasPrefix(t.codec, "DTS") && hasDTSVariant(r.AudioCodecs) {
			continue
		}
		r.AudioCodecs = append(r.AudioCodecs, t.codec)
	}

	for _, t := range channelTokens {
		if t.pattern.MatchString(text) {
			r.AudioChannels = append(r.AudioChannels, t.layout)
			break
		}
	}

	if match := groupPattern.FindStringSubmatch(strings.TrimSpace(text)); match != nil {
		r.ReleaseGroup = match[1]
	}
}

func hasDTSVariant(codecs []string) bool {
	for _, c := range codecs {
		if strings.HasPrefix(c, "DTS") {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
