package tbibm

import (
	"bytes"
	"fmt"
	"os"

	"github.com/segmentio/ksuid"
)

// StatusRecord is one reporter tick's snapshot of the population, tagged
// with the run's instance ID so that output from several concurrent runs
// can be told apart once merged, the way the teacher's StatusPackage
// tags rows with an instanceID.
type StatusRecord struct {
	RunID       ksuid.KSUID
	Tick        float64
	Live        int
	ByState     [numStates]int
	Deaths      int
	Emigrations int
	Onsets      int
	Notifications int
}

// Reporter is the general definition of a sink that records simulation
// status ticks, mirroring the teacher's DataLogger shape: a base path, an
// Init step, and one channel-draining write method per record kind.
type Reporter interface {
	SetBasePath(path string)
	Init() error
	WriteStatus(c <-chan StatusRecord)
	Close() error
}

// NewRunID mints a fresh per-run identifier, sortable by creation time,
// for tagging reporter output across concurrent simulation instances.
func NewRunID() ksuid.KSUID {
	return ksuid.New()
}

// StdoutReporter writes one line per tick directly to stdout; it is the
// sink Config.Reporter builds for logging.sink = "stdout".
type StdoutReporter struct{}

func (r *StdoutReporter) SetBasePath(string) {}
func (r *StdoutReporter) Init() error        { return nil }
func (r *StdoutReporter) Close() error       { return nil }

func (r *StdoutReporter) WriteStatus(c <-chan StatusRecord) {
	for rec := range c {
		fmt.Printf("%s\tt=%.4f\tlive=%d\tdeaths=%d\temig=%d\tonsets=%d\tnotif=%d\n",
			rec.RunID, rec.Tick, rec.Live, rec.Deaths, rec.Emigrations, rec.Onsets, rec.Notifications)
	}
}

// CSVReporter appends one comma-delimited row per tick to a single file,
// in the style of the teacher's CSVLogger.
type CSVReporter struct {
	path string
}

func NewCSVReporter(basepath string) *CSVReporter {
	r := new(CSVReporter)
	r.SetBasePath(basepath)
	return r
}

func (r *CSVReporter) SetBasePath(basepath string) {
	r.path = basepath
}

func (r *CSVReporter) Init() error {
	return appendToFile(r.path, []byte("runID,tick,live,deaths,emigrations,onsets,notifications\n"))
}

func (r *CSVReporter) Close() error { return nil }

func (r *CSVReporter) WriteStatus(c <-chan StatusRecord) {
	const template = "%s,%.6f,%d,%d,%d,%d,%d\n"
	var b bytes.Buffer
	for rec := range c {
		fmt.Fprintf(&b, template, rec.RunID, rec.Tick, rec.Live,
			rec.Deaths, rec.Emigrations, rec.Onsets, rec.Notifications)
	}
	// TODO: log error
	appendToFile(r.path, b.Bytes())
}

func appendToFile(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return err
	}
	return f.Sync()
}
