package simulation

import (
	"context"
	"errors"
	"fmt"

	"bourse/internal/clearing"
	"bourse/internal/common"
	"bourse/internal/engine"
	"bourse/internal/ingest"
	"bourse/internal/publish"
	"bourse/internal/report"
	"bourse/internal/storage"

	"github.com/rs/zerolog/log"
)

// Writer receives the daily output files.
type Writer interface {
	WriteMissions(day int, agreements []common.Agreement) error
	WriteSettlements(day int, settlements []clearing.Settlement) error
}

// DayResult summarises one trading day.
type DayResult struct {
	Day         int
	Agreements  []common.Agreement
	Settlements []clearing.Settlement
	Rejections  []ingest.Rejection
	Failed      []common.Agreement // missions that could not settle
	Pending     []common.Agreement // missions left unsettled at the close
}

type Simulator struct {
	sequencer *engine.Sequencer
	validator *ingest.Validator
	house     *clearing.House
	source    report.Source
	writer    Writer
	missions  storage.MissionStore
	sink      publish.Sink
	day       int
}

type Deps struct {
	Sequencer *engine.Sequencer
	Validator *ingest.Validator
	House     *clearing.House
	Source    report.Source
	Writer    Writer
	Missions  storage.MissionStore
	Sink      publish.Sink
}

// New builds a simulator starting on day 1. The sequencer must be started
// and its exchange must not have been advanced.
func New(deps Deps) *Simulator {
	sink := deps.Sink
	if sink == nil {
		sink = publish.Discard{}
	}
	return &Simulator{
		sequencer: deps.Sequencer,
		validator: deps.Validator,
		house:     deps.House,
		source:    deps.Source,
		writer:    deps.Writer,
		missions:  deps.Missions,
		sink:      sink,
		day:       1,
	}
}

func (s *Simulator) Day() int { return s.day }

// Run plays days trading days, stopping early if ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, days int) ([]DayResult, error) {
	results := make([]DayResult, 0, days)
	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := s.RunDay(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// RunDay trades the current day's orders, settles the missions that have
// come due, writes the settlements and the pending missions, publishes the day's agreements and moves on
// to the next day.
func (s *Simulator) RunDay(ctx context.Context) (DayResult, error) {
	result := DayResult{Day: s.day}

	orders, rejections, err := s.readOrders()
	if err != nil {
		return result, err
	}
	result.Rejections = rejections

	for _, order := range orders {
		outcome, err := s.sequencer.Submit(ctx, order)
		if err != nil {
			return result, err
		}
		result.Agreements = append(result.Agreements, outcome.Agreements...)
	}

	if err := s.settle(&result); err != nil {
		return result, err
	}
	if err := s.writer.WriteSettlements(s.day, result.Settlements); err != nil {
		return result, err
	}

	for _, agreement := range result.Agreements {
		if err := s.missions.Put(agreement); err != nil {
			return result, err
		}
	}
	// The missions file is the whole unsettled book, not only today's trades.
	pending, err := s.missions.Pending()
	if err != nil {
		return result, err
	}
	result.Pending = pending
	if err := s.writer.WriteMissions(s.day, pending); err != nil {
		return result, err
	}

	if err := s.sink.Publish(ctx, result.Agreements); err != nil {
		log.Error().Err(err).Int("day", s.day).Msg("failed to publish agreements")
	}

	log.Info().
		Int("day", s.day).
		Int("orders", len(orders)).
		Int("rejected", len(rejections)).
		Int("agreements", len(result.Agreements)).
		Int("settlements", len(result.Settlements)).
		Int("pending", len(pending)).
		Msg("trading day closed")

	day, err := s.sequencer.AdvanceDay(ctx)
	if err != nil {
		return result, err
	}
	s.day = day
	return result, nil
}

func (s *Simulator) readOrders() ([]common.Order, []ingest.Rejection, error) {
	file, err := s.source.Orders(s.day)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	orders, rejections, err := ingest.ReadOrders(file, s.validator)
	if err != nil {
		return nil, nil, fmt.Errorf("day %d: %w", s.day, err)
	}
	return orders, rejections, nil
}

// settle clears every mission due today. A mission that cannot settle is
// logged and dropped.
func (s *Simulator) settle(result *DayResult) error {
	due, err := s.missions.Due(s.day, s.house.SettlementLag())
	if err != nil {
		return err
	}
	for _, mission := range due {
		settlement, err := s.house.Settle(mission)
		switch {
		case err == nil:
			result.Settlements = append(result.Settlements, settlement)
		case errors.Is(err, clearing.ErrInsufficientShares), errors.Is(err, clearing.ErrUnknownCustomer):
			log.Warn().Err(err).Str("uuid", mission.UUID).Msg("mission failed to settle")
			result.Failed = append(result.Failed, mission)
		default:
			return err
		}
		if err := s.missions.Delete(mission); err != nil {
			return err
		}
	}
	return nil
}
