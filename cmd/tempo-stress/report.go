package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/plus3/tempo/config"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB")).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))
)

type Report struct {
	Simulation config.SimulationConfig

	Ticks         int
	SimulatedTime time.Duration
	WallTime      time.Duration
	TickTime      Stats

	Entities   int
	Archetypes int
	Coroutines int
	Activity   tally

	MemStatsStart runtime.MemStats
	MemStatsEnd   runtime.MemStats
}

// Stats summarizes a set of duration samples.
type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	P50     time.Duration
	P99     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	sorted := slices.Clone(s.Samples)
	slices.Sort(sorted)

	var total time.Duration
	for _, sample := range sorted {
		total += sample
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Avg = total / time.Duration(len(sorted))
	s.P50 = percentile(sorted, 0.50)
	s.P99 = percentile(sorted, 0.99)
}

// percentile returns the nearest-rank percentile of sorted samples.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := int(float64(len(sorted))*p+0.999999) - 1
	return sorted[min(max(rank, 0), len(sorted)-1)]
}

func (r *Report) Generate(w io.Writer) error {
	var b strings.Builder
	row := func(label string, value any) {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(label),
			valueStyle.Render(fmt.Sprint(value)),
		))
		b.WriteByte('\n')
	}
	section := func(title string) {
		b.WriteString(sectionStyle.Render(title))
		b.WriteByte('\n')
	}

	b.WriteString(titleStyle.Render("tempo stress report"))
	b.WriteByte('\n')

	section("Configuration")
	row("Entities", r.Simulation.Entities)
	row("Tick rate", fmt.Sprintf("%d/s", r.Simulation.TickRate))
	row("Time scale", r.Simulation.TimeScale)
	row("Duration", r.Simulation.Duration)
	row("Seed", r.Simulation.Seed)

	section("Ticks")
	row("Ticks", r.Ticks)
	row("Simulated time", r.SimulatedTime)
	row("Wall time", r.WallTime.Round(time.Millisecond))
	row("Tick avg", r.TickTime.Avg)
	row("Tick p50", r.TickTime.P50)
	row("Tick p99", r.TickTime.P99)
	row("Tick min / max", fmt.Sprintf("%s / %s", r.TickTime.Min, r.TickTime.Max))

	section("Behaviors")
	row("Task steps", r.Activity.Stepped)
	row("Tasks finished", r.Activity.Finished)
	row("Tasks cancelled", r.Activity.Cancelled)
	row("Transitions", r.Activity.Transitions)
	row("Coroutines", r.Coroutines)
	row("Entities", r.Entities)
	row("Archetypes", r.Archetypes)

	section("Memory")
	row("Heap alloc", fmt.Sprintf("%s -> %s", mib(r.MemStatsStart.HeapAlloc), mib(r.MemStatsEnd.HeapAlloc)))
	row("Total alloc", mib(r.MemStatsEnd.TotalAlloc-r.MemStatsStart.TotalAlloc))
	row("GC cycles", r.MemStatsEnd.NumGC-r.MemStatsStart.NumGC)
	row("GC pause", time.Duration(r.MemStatsEnd.PauseTotalNs-r.MemStatsStart.PauseTotalNs))

	_, err := io.WriteString(w, b.String())
	return err
}

func mib(n uint64) string {
	return fmt.Sprintf("%.2f MiB", float64(n)/1024/1024)
}
