package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/timeriffic/timeriffic/internal/schedule"
)

type seedProfile struct {
	title   string
	enabled bool
	actions []ActionInput
}

var (
	monToThu = schedule.Monday | schedule.Tuesday | schedule.Wednesday | schedule.Thursday
	friSat   = schedule.Friday | schedule.Saturday
)

// seedProfiles is the example data written into a fresh table.
var seedProfiles = []seedProfile{
	{
		title:   "Weekdaze",
		enabled: true,
		actions: []ActionInput{
			{Description: "7am Mon - Thu, Ringer on, Vibrate", Active: true, TimeOfDay: 7 * 60, Days: monToThu, Payload: "M0,V1"},
			{Description: "8pm Mon - Thu, Mute, vibrate", TimeOfDay: 20 * 60, Days: monToThu, Payload: "M1,V1"},
		},
	},
	{
		title:   "Party Time",
		enabled: true,
		actions: []ActionInput{
			{Description: "9am Fri - Sat, Ringer on", TimeOfDay: 9 * 60, Days: friSat, Payload: "M0"},
			{Description: "10pm Fri - Sat, Mute, vibrate", TimeOfDay: 22 * 60, Days: friSat, Payload: "M1,V1"},
		},
	},
	{
		title:   "Sleeping-In",
		enabled: true,
		actions: []ActionInput{
			{Description: "10:30am Sun, Ringer on", TimeOfDay: 10*60 + 30, Days: schedule.Sunday, Payload: "M0"},
			{Description: "9pm Sun, Mute, vibrate", TimeOfDay: 21 * 60, Days: schedule.Sunday, Payload: "M1,V1"},
		},
	},
}

// Seed appends the example profiles and their actions through the regular
// insert paths, in one transaction.
func (s *Services) Seed(ctx context.Context) error {
	if err := s.store.WithTx(ctx, s.seedRows); err != nil {
		return err
	}

	s.logger.Info("seeded example profiles", zap.Int("profiles", len(seedProfiles)))
	return nil
}

// seedRows must run inside a transaction.
func (s *Services) seedRows(txCtx context.Context) error {
	for _, p := range seedProfiles {
		index, err := s.Profiles.insertProfile(txCtx, 0, p.title, p.enabled)
		if err != nil {
			return err
		}
		for _, a := range p.actions {
			if _, err := s.Actions.insertTimedAction(txCtx, index, 0, a); err != nil {
				return err
			}
		}
	}
	return nil
}
