package quality

import "testing"

func TestCheckMutualExclusivityConflicts(t *testing.T) {
	t.Run("required vs notAllowed is exclusive", func(t *testing.T) {
		a := DefaultProfile()
		a.HDRRules.SetMode("DV", ModeRequired)

		b := DefaultProfile()
		b.HDRRules.SetMode("DV", ModeNotAllowed)

		result := CheckMutualExclusivity(&a, &b)
		if !result.AreExclusive {
			t.Fatal("expected profiles to be exclusive")
		}
		if len(result.ConflictingAttrs) != 1 || result.ConflictingAttrs[0] != "HDR" {
			t.Errorf("ConflictingAttrs = %v, want [HDR]", result.ConflictingAttrs)
		}
	})

	t.Run("disjoint required sets are exclusive", func(t *testing.T) {
		a := DefaultProfile()
		a.VideoCodecRules.SetMode("x264", ModeRequired)

		b := DefaultProfile()
		b.VideoCodecRules.SetMode("AV1", ModeRequired)

		result := CheckMutualExclusivity(&a, &b)
		if !result.AreExclusive {
			t.Error("disjoint required codecs should be exclusive")
		}
	})

	t.Run("disjoint quality tiers are exclusive", func(t *testing.T) {
		a := HD1080pProfile()
		b := Ultra4KProfile()

		result := CheckMutualExclusivity(&a, &b)
		if !result.AreExclusive {
			t.Error("different quality tiers should be exclusive")
		}
	})

	t.Run("identical open profiles overlap", func(t *testing.T) {
		a := DefaultProfile()
		b := DefaultProfile()

		result := CheckMutualExclusivity(&a, &b)
		if result.AreExclusive {
			t.Fatal("identical profiles can never be exclusive")
		}
		if len(result.OverlappingAttrs) == 0 {
			t.Error("expected overlapping attributes to be reported")
		}
	})

	t.Run("preferred modes do not create exclusivity", func(t *testing.T) {
		a := DefaultProfile()
		a.HDRRules.SetMode("DV", ModePreferred)

		b := DefaultProfile()
		b.HDRRules.SetMode(SDR, ModePreferred)

		result := CheckMutualExclusivity(&a, &b)
		if result.AreExclusive {
			t.Error("preferred-only rules must not make profiles exclusive")
		}
	})
}

func TestCheckSlotExclusivity(t *testing.T) {
	hdr := DefaultProfile()
	hdr.Name = "HDR"
	hdr.HDRRules.SetMode("HDR10", ModeRequired)

	sdr := DefaultProfile()
	sdr.Name = "SDR"
	sdr.HDRRules.SetMode(SDR, ModeRequired)

	open := DefaultProfile()
	open.Name = "Open"

	t.Run("exclusive slots produce no warnings", func(t *testing.T) {
		warnings := CheckSlotExclusivity([]SlotConfig{
			{SlotNumber: 1, SlotName: "Version 1", Enabled: true, Profile: &hdr},
			{SlotNumber: 2, SlotName: "Version 2", Enabled: true, Profile: &sdr},
		})
		if len(warnings) != 0 {
			t.Errorf("expected no warnings, got %v", warnings)
		}
	})

	t.Run("overlapping slots warn per pair", func(t *testing.T) {
		warnings := CheckSlotExclusivity([]SlotConfig{
			{SlotNumber: 1, SlotName: "Version 1", Enabled: true, Profile: &open},
			{SlotNumber: 2, SlotName: "Version 2", Enabled: true, Profile: &open},
			{SlotNumber: 3, SlotName: "Version 3", Enabled: true, Profile: &hdr},
		})
		// Slots 1 and 2 collide; the open profile also swallows everything
		// the HDR profile would take, so 1-3 and 2-3 warn too.
		if len(warnings) != 3 {
			t.Fatalf("expected 3 warnings, got %d", len(warnings))
		}
		if warnings[0].SlotA != 1 || warnings[0].SlotB != 2 {
			t.Errorf("first warning pairs slots %d-%d, want 1-2", warnings[0].SlotA, warnings[0].SlotB)
		}
	})

	t.Run("disabled and unbound slots are skipped", func(t *testing.T) {
		warnings := CheckSlotExclusivity([]SlotConfig{
			{SlotNumber: 1, SlotName: "Version 1", Enabled: true, Profile: &open},
			{SlotNumber: 2, SlotName: "Version 2", Enabled: false, Profile: &open},
			{SlotNumber: 3, SlotName: "Version 3", Enabled: true, Profile: nil},
		})
		if len(warnings) != 0 {
			t.Errorf("expected no warnings, got %v", warnings)
		}
	})
}
