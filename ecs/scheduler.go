package ecs

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// Scheduler manages and executes systems in order.
type Scheduler struct {
	storage     *Storage
	systems     []System
	systemStats []*systemStatsInternal
	queries     [][]executable

	commands  *Commands
	timeScale float64
	paused    bool
	frame     uint64
}

// NewScheduler creates a new scheduler for the given storage.
func NewScheduler(storage *Storage) *Scheduler {
	return &Scheduler{
		storage:   storage,
		systems:   make([]System, 0),
		commands:  newCommands(),
		timeScale: 1,
	}
}

// initializable and executable are implemented by Query and Singleton fields.
type initializable interface {
	Init(storage *Storage)
}

type executable interface {
	Execute()
}

// Register adds a system to the scheduler and initializes its Query and
// Singleton fields.
func (s *Scheduler) Register(system System) {
	queries := s.initializeFields(system)
	s.systems = append(s.systems, system)
	s.queries = append(s.queries, queries)

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	systemName := systemType.Name()

	s.systemStats = append(s.systemStats, &systemStatsInternal{
		name:        systemName,
		minDuration: time.Duration(1<<63 - 1),
	})

	Logger().Debug("system registered",
		zap.String("system", systemName),
		zap.Int("queries", len(queries)),
	)
}

func (s *Scheduler) initializeFields(system System) []executable {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() == reflect.Ptr {
		systemValue = systemValue.Elem()
	}

	if systemValue.Kind() != reflect.Struct || !systemValue.CanAddr() {
		return nil
	}

	var queries []executable
	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		ptr := field.Addr().Interface()
		init, ok := ptr.(initializable)
		if !ok {
			continue
		}
		init.Init(s.storage)

		if q, ok := ptr.(executable); ok {
			queries = append(queries, q)
		}
	}
	return queries
}

// SetTimeScale sets the factor applied to DeltaTime. Negative values are
// treated as zero.
func (s *Scheduler) SetTimeScale(scale float64) {
	s.timeScale = max(scale, 0)
}

// TimeScale returns the factor applied to DeltaTime.
func (s *Scheduler) TimeScale() float64 {
	return s.timeScale
}

// SetPaused pauses or resumes game time. While paused, systems still run
// every tick with a zero DeltaTime, but RawDeltaTime keeps flowing.
func (s *Scheduler) SetPaused(paused bool) {
	s.paused = paused
}

// Paused reports whether game time is paused.
func (s *Scheduler) Paused() bool {
	return s.paused
}

// Frame returns the number of ticks run so far.
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// Once executes all registered systems once with the given delta time.
// Each system's queries are refreshed right before it runs, so a system sees
// the effect of commands flushed by previous ticks. Commands are flushed
// once every system has run.
func (s *Scheduler) Once(dt float64) {
	s.frame++
	scaled := dt * s.timeScale
	if s.paused {
		scaled = 0
	}
	frame := &UpdateFrame{
		DeltaTime:    scaled,
		RawDeltaTime: dt,
		Frame:        s.frame,
		Commands:     s.commands,
		Storage:      s.storage,
	}

	for i, system := range s.systems {
		for _, q := range s.queries[i] {
			q.Execute()
		}

		start := time.Now()
		system.Execute(frame)
		duration := time.Since(start)

		stats := s.systemStats[i]
		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration

		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}
	}

	frame.Commands.Flush(s.storage)
}

// Run executes all systems repeatedly at the given interval until the context
// is cancelled. It returns the context's error.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.Once(dt)
		}
	}
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Systems:     make([]SystemStats, len(s.systemStats)),
	}

	var totalExecs int64
	for i, internal := range s.systemStats {
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		stats.Systems[i] = SystemStats{
			Name:           internal.name,
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
