package release

import (
	"reflect"
	"testing"

	"github.com/versionarr/versionarr/internal/quality"
)

func TestParseMovies(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  Release
	}{
		{
			name:  "dotted title with year",
			title: "The.Matrix.1999.2160p.Remux.DV.HDR10.TrueHD.7.1-GROUP",
			want: Release{
				Title:         "The Matrix",
				Year:          1999,
				Resolution:    2160,
				Source:        quality.SourceRemux,
				HDRFormats:    []string{"DV", "HDR10"},
				AudioCodecs:   []string{"TrueHD"},
				AudioChannels: []string{"7.1"},
				ReleaseGroup:  "GROUP",
			},
		},
		{
			name:  "remux wins over bluray token",
			title: "Heat.1995.1080p.BluRay.REMUX.AVC.DTS-HD.MA.5.1-GRP",
			want: Release{
				Title:         "Heat",
				Year:          1995,
				Resolution:    1080,
				Source:        quality.SourceRemux,
				VideoCodec:    "x264",
				AudioCodecs:   []string{"DTS-HD MA"},
				AudioChannels: []string{"5.1"},
				ReleaseGroup:  "GRP",
			},
		},
		{
			name:  "parenthesized year",
			title: "Inception (2010) 1080p BluRay x264",
			want: Release{
				Title:      "Inception",
				Year:       2010,
				Resolution: 1080,
				Source:     quality.SourceBluray,
				VideoCodec: "x264",
			},
		},
		{
			name:  "extension stripped",
			title: "Dune.2021.2160p.WEB-DL.HDR.x265.mkv",
			want: Release{
				Title:      "Dune",
				Year:       2021,
				Resolution: 2160,
				Source:     quality.SourceWebDL,
				VideoCodec: "x265",
				HDRFormats: []string{"HDR"},
			},
		},
		{
			name:  "no recognizable pattern keeps title",
			title: "Some Random File",
			want: Release{
				Title: "Some Random File",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.title)
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.title, *got, tt.want)
			}
		})
	}
}

func TestParseTV(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  Release
	}{
		{
			name:  "SxxEyy format",
			title: "Show.Name.S02E05.1080p.WEB-DL.DDP.5.1.x264-NTb",
			want: Release{
				Title:         "Show Name",
				IsTV:          true,
				Season:        2,
				Episode:       5,
				Resolution:    1080,
				Source:        quality.SourceWebDL,
				VideoCodec:    "x264",
				AudioCodecs:   []string{"DDP"},
				AudioChannels: []string{"5.1"},
				ReleaseGroup:  "NTb",
			},
		},
		{
			name:  "NxMM format",
			title: "Show.Name.3x07.720p.HDTV.x264-LOL",
			want: Release{
				Title:        "Show Name",
				IsTV:         true,
				Season:       3,
				Episode:      7,
				Resolution:   720,
				Source:       quality.SourceHDTV,
				VideoCodec:   "x264",
				ReleaseGroup: "LOL",
			},
		},
		{
			name:  "season pack",
			title: "Show.S01.1080p.WEBRip.x265-RARBG",
			want: Release{
				Title:        "Show",
				IsTV:         true,
				IsSeasonPack: true,
				Season:       1,
				Resolution:   1080,
				Source:       quality.SourceWebRip,
				VideoCodec:   "x265",
				ReleaseGroup: "RARBG",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.title)
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.title, *got, tt.want)
			}
		})
	}
}

func TestParseHDRFamilies(t *testing.T) {
	r := Parse("Movie.2021.2160p.HDR10Plus.DV.x265")
	want := []string{"DV", "HDR10+"}
	if !reflect.DeepEqual(r.HDRFormats, want) {
		t.Errorf("HDRFormats = %v, want %v", r.HDRFormats, want)
	}

	// a plain HDR10 release must not also report generic HDR
	r = Parse("Movie.2021.2160p.HDR10.x265")
	want = []string{"HDR10"}
	if !reflect.DeepEqual(r.HDRFormats, want) {
		t.Errorf("HDRFormats = %v, want %v", r.HDRFormats, want)
	}
}

func TestParseDTSFamily(t *testing.T) {
	// only the most specific DTS variant is kept
	r := Parse("Movie.2020.1080p.BluRay.DTS-HD.MA.7.1.x264")
	want := []string{"DTS-HD MA"}
	if !reflect.DeepEqual(r.AudioCodecs, want) {
		t.Errorf("AudioCodecs = %v, want %v", r.AudioCodecs, want)
	}

	r = Parse("Movie.2020.1080p.BluRay.DTS.5.1.x264")
	want = []string{"DTS"}
	if !reflect.DeepEqual(r.AudioCodecs, want) {
		t.Errorf("AudioCodecs = %v, want %v", r.AudioCodecs, want)
	}
}

func TestParsePath(t *testing.T) {
	r := ParsePath("/library/Inception (2010)/Inception.1080p.BluRay.x264.mkv")
	if r.Title != "Inception" {
		t.Errorf("Title = %q, want %q", r.Title, "Inception")
	}
	if r.Year != 2010 {
		t.Errorf("Year = %d, want 2010", r.Year)
	}
	if r.Resolution != 1080 {
		t.Errorf("Resolution = %d, want 1080", r.Resolution)
	}
	if r.Source != quality.SourceBluray {
		t.Errorf("Source = %q, want %q", r.Source, quality.SourceBluray)
	}
}

func TestAttributesDefaultsToSDR(t *testing.T) {
	r := Parse("Movie.2020.1080p.WEB-DL.x264")
	attrs := r.Attributes()
	if !reflect.DeepEqual(attrs.HDRFormats, []string{quality.SDR}) {
		t.Errorf("HDRFormats = %v, want [%s]", attrs.HDRFormats, quality.SDR)
	}
}

func TestResolvedQuality(t *testing.T) {
	r := Parse("Movie.2020.1080p.BluRay.x264")
	q, ok := r.ResolvedQuality()
	if !ok {
		t.Fatal("expected a catalog match")
	}
	if q.Name != "Bluray-1080p" {
		t.Errorf("quality = %q, want Bluray-1080p", q.Name)
	}
}
