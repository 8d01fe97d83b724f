// Package tasks holds the background task implementations wired into the
// scheduler at startup.
package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/versionarr/versionarr/internal/scheduler"
	"github.com/versionarr/versionarr/internal/slots"
)

// UpgradeScanID identifies the periodic upgrade scan task.
const UpgradeScanID = "upgrade-scan"

// NewUpgradeScanTask builds the periodic scan that counts assigned files
// still below their slot profile's cutoff. The scan only reports; search and
// download are driven elsewhere.
func NewUpgradeScanTask(slotService *slots.Service, logger zerolog.Logger, interval time.Duration) scheduler.TaskConfig {
	log := logger.With().Str("component", "upgradescan").Logger()

	return scheduler.TaskConfig{
		ID:          UpgradeScanID,
		Name:        "Upgrade Scan",
		Description: "Scans slot assignments for files below their profile cutoff",
		Interval:    interval,
		RunOnStart:  false,
		Func: func(ctx context.Context) error {
			usage, err := slotService.GetSlotUsage(ctx)
			if err != nil {
				return err
			}

			totalUpgradable := 0
			for _, u := range usage {
				totalUpgradable += u.Upgradable
				if u.Upgradable > 0 {
					log.Info().
						Str("slot", u.SlotName).
						Int("assigned", u.AssignedFiles).
						Int("upgradable", u.Upgradable).
						Msg("Slot has files below cutoff")
				}
			}

			log.Info().Int("upgradable", totalUpgradable).Msg("Upgrade scan finished")
			return nil
		},
	}
}
