package quality

import (
	"errors"
	"testing"
)

func mustQuality(t *testing.T, name string) Quality {
	t.Helper()
	q, ok := ByName(name)
	if !ok {
		t.Fatalf("unknown quality %q", name)
	}
	return q
}

func TestProfileValidate(t *testing.T) {
	t.Run("cutoff must be allowed", func(t *testing.T) {
		p := HD1080pProfile()
		p.Cutoff = mustQuality(t, "Bluray-2160p").ID

		if err := p.Validate(); !errors.Is(err, ErrCutoffNotAllowed) {
			t.Errorf("Validate() = %v, want ErrCutoffNotAllowed", err)
		}
	})

	t.Run("zero cutoff is legal", func(t *testing.T) {
		p := HD1080pProfile()
		p.Cutoff = 0
		if err := p.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("name is required", func(t *testing.T) {
		p := DefaultProfile()
		p.Name = ""
		if err := p.Validate(); err == nil {
			t.Error("expected error for empty name")
		}
	})

	t.Run("unknown strategy is rejected", func(t *testing.T) {
		p := DefaultProfile()
		p.UpgradeStrategy = "yolo"
		if err := p.Validate(); err == nil {
			t.Error("expected error for unknown strategy")
		}
	})
}

func TestIsUpgradeStrategies(t *testing.T) {
	webdl1080 := func(t *testing.T) Quality { return mustQuality(t, "WEBDL-1080p") }
	bluray1080 := func(t *testing.T) Quality { return mustQuality(t, "Bluray-1080p") }

	newProfile := func(strategy UpgradeStrategy) Profile {
		p := DefaultProfile()
		p.Cutoff = mustID("Remux-2160p")
		p.UpgradeStrategy = strategy
		return p
	}

	tests := []struct {
		name      string
		strategy  UpgradeStrategy
		current   string
		candidate string
		want      bool
	}{
		// balanced: resolution first, then the disc transition
		{"balanced same res non-disc to disc", StrategyBalanced, "WEBDL-1080p", "Bluray-1080p", true},
		{"balanced same res disc to disc", StrategyBalanced, "Bluray-1080p", "Remux-1080p", false},
		{"balanced higher resolution", StrategyBalanced, "Bluray-1080p", "WEBDL-2160p", true},
		{"balanced lower resolution", StrategyBalanced, "Bluray-1080p", "WEBDL-720p", false},
		{"balanced same res disc to non-disc", StrategyBalanced, "Bluray-1080p", "WEBDL-1080p", false},

		// aggressive: any weight increase
		{"aggressive weight increase", StrategyAggressive, "WEBDL-1080p", "Bluray-1080p", true},
		{"aggressive lateral weight", StrategyAggressive, "Bluray-1080p", "Bluray-1080p", false},
		{"aggressive disc to disc", StrategyAggressive, "Bluray-1080p", "Remux-1080p", true},

		// resolution_only: nothing but resolution
		{"resolution_only same res disc transition", StrategyResolutionOnly, "WEBDL-1080p", "Bluray-1080p", false},
		{"resolution_only higher res", StrategyResolutionOnly, "WEBDL-1080p", "HDTV-2160p", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProfile(tt.strategy)
			got := p.IsUpgrade(mustQuality(t, tt.current), mustQuality(t, tt.candidate))
			if got != tt.want {
				t.Errorf("IsUpgrade(%s -> %s) = %v, want %v", tt.current, tt.candidate, got, tt.want)
			}
		})
	}

	t.Run("upgrades disabled is always false", func(t *testing.T) {
		p := newProfile(StrategyAggressive)
		p.UpgradesEnabled = false
		if p.IsUpgrade(webdl1080(t), bluray1080(t)) {
			t.Error("IsUpgrade should be false when upgrades are disabled")
		}
	})

	t.Run("disallowed candidate is never an upgrade", func(t *testing.T) {
		p := HD1080pProfile()
		p.UpgradeStrategy = StrategyAggressive
		if p.IsUpgrade(webdl1080(t), mustQuality(t, "Bluray-2160p")) {
			t.Error("candidate outside the allowed set should never be an upgrade")
		}
	})
}

func TestIsUpgradeCutoff(t *testing.T) {
	t.Run("at cutoff stops further upgrades", func(t *testing.T) {
		p := DefaultProfile()
		p.Cutoff = mustID("Bluray-1080p")
		p.UpgradeStrategy = StrategyAggressive

		if p.IsUpgrade(mustQuality(t, "Bluray-1080p"), mustQuality(t, "Remux-1080p")) {
			t.Error("a file at cutoff should not upgrade")
		}
	})

	t.Run("cutoff override allows reaching the cutoff regardless of strategy", func(t *testing.T) {
		p := DefaultProfile()
		p.Cutoff = mustID("Bluray-1080p")
		p.UpgradeStrategy = StrategyResolutionOnly
		p.CutoffOverridesStrategy = true

		// resolution_only would refuse this lateral move on its own.
		if !p.IsUpgrade(mustQuality(t, "WEBDL-1080p"), mustQuality(t, "Bluray-1080p")) {
			t.Error("cutoff override should permit upgrading to the cutoff quality")
		}
	})

	t.Run("cutoff override does not unlock qualities beyond the cutoff", func(t *testing.T) {
		p := DefaultProfile()
		p.Cutoff = mustID("Bluray-1080p")
		p.UpgradeStrategy = StrategyResolutionOnly
		p.CutoffOverridesStrategy = true

		if p.IsUpgrade(mustQuality(t, "WEBDL-1080p"), mustQuality(t, "Remux-1080p")) {
			t.Error("override only applies to the cutoff quality itself")
		}
	})

	t.Run("dangling cutoff degrades to no cutoff", func(t *testing.T) {
		p := DefaultProfile()
		p.Cutoff = 999
		p.UpgradeStrategy = StrategyAggressive

		if p.AtCutoff(mustQuality(t, "Remux-2160p")) {
			t.Error("dangling cutoff should never report AtCutoff")
		}
		if !p.IsUpgrade(mustQuality(t, "WEBDL-1080p"), mustQuality(t, "Bluray-1080p")) {
			t.Error("matching should continue with the cutoff ignored")
		}
	})
}

func TestAtCutoff(t *testing.T) {
	p := DefaultProfile()
	p.Cutoff = mustID("Bluray-1080p")

	if p.AtCutoff(mustQuality(t, "WEBDL-1080p")) {
		t.Error("below-cutoff quality reported as at cutoff")
	}
	if !p.AtCutoff(mustQuality(t, "Bluray-1080p")) {
		t.Error("cutoff quality should be at cutoff")
	}
	if !p.AtCutoff(mustQuality(t, "Remux-2160p")) {
		t.Error("above-cutoff quality should be at cutoff")
	}
}

func TestItemsSerializationRoundTrip(t *testing.T) {
	p := HD1080pProfile()

	data, err := SerializeItems(p.Items)
	if err != nil {
		t.Fatalf("SerializeItems: %v", err)
	}

	items, err := DeserializeItems(data)
	if err != nil {
		t.Fatalf("DeserializeItems: %v", err)
	}
	if len(items) != len(p.Items) {
		t.Fatalf("items count = %d, want %d", len(items), len(p.Items))
	}
	for i := range items {
		if items[i].Allowed != p.Items[i].Allowed || items[i].Quality.ID != p.Items[i].Quality.ID {
			t.Errorf("item %d changed in round trip", i)
		}
	}
}
