package tbibm

import (
	"sync"

	"github.com/segmentio/ksuid"
)

// Simulation wires a Population, its Counters, the transition Engine, the
// shared RNG, and a Reporter sink into one runnable unit, adapted from the
// teacher's SISimulator/Epidemic pairing down to the single TB run loop
// SPEC_FULL.md §2 describes.
type Simulation struct {
	Pop      *Population
	Counters *Counters
	Engine   *Engine
	RunID    ksuid.KSUID
	Config   *Config
	Reporter Reporter

	dispatchCounts [numEventKinds]int
}

// Run drives the calendar queue to exhaustion or horizon, handing a
// StatusRecord to the reporter goroutine every time a Report-tagged
// dispatch comes due. The reporter goroutine is the only other goroutine
// in the process; it never touches the scheduler, RNG, counters, or
// register directly (SPEC_FULL.md §5) — it only drains the channel.
func (s *Simulation) Run() error {
	if err := s.Reporter.Init(); err != nil {
		return err
	}

	ch := make(chan StatusRecord, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Reporter.WriteStatus(ch)
	}()

	s.scheduleFirstReport()

	for {
		i, kind, at, ok := s.Pop.Dispatch()
		if !ok {
			break
		}
		s.dispatchCounts[kind]++
		if kind == EvReport {
			s.report(ch, at)
			s.scheduleNextReport(i, at)
			continue
		}
		s.Engine.Handle(i, kind, at)
	}

	close(ch)
	wg.Wait()

	if path := s.Config.SimParams.SeedPath; path != "" {
		if err := SaveNextSeed(path, s.Engine.Src.EndingSeed()); err != nil {
			return err
		}
	}
	return s.Reporter.Close()
}

// scheduleFirstReport enters the reserved report pseudo-actor's slot as the
// carrier of the recurring Report candidate, since a report tick belongs to
// no individual actor.
func (s *Simulation) scheduleFirstReport() {
	id := s.Pop.ReportGeneratorID()
	s.Pop.ScheduleCandidate(id, EvReport, s.Pop.Clock()+s.Config.SimParams.ReportInterval)
}

func (s *Simulation) scheduleNextReport(id int, at float64) {
	s.Pop.ScheduleCandidate(id, EvReport, at+s.Config.SimParams.ReportInterval)
}

func (s *Simulation) report(ch chan<- StatusRecord, at float64) {
	deaths, emigrations, onsets, notifications := s.Counters.FlushInterval()
	rec := StatusRecord{
		RunID:         s.RunID,
		Tick:          at,
		Live:          s.Counters.Total(),
		ByState:       s.Counters.byState,
		Deaths:        deaths,
		Emigrations:   emigrations,
		Onsets:        onsets,
		Notifications: notifications,
	}
	ch <- rec
}

// DispatchCounts returns the final per-kind dispatch tally for the
// bin/tbsim summary block (SPEC_FULL.md §6).
func (s *Simulation) DispatchCounts() [numEventKinds]int {
	return s.dispatchCounts
}
