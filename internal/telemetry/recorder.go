package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/leo-paz/hyprnote-sub001/internal/segment"
)

// Recorder tracks service-level segmentation telemetry that can be forwarded
// to the host daemon or scraped from shutdown logs.
type Recorder struct {
	log *slog.Logger

	totalStreams          atomic.Uint64
	activeStreams         atomic.Int64
	totalFrames           atomic.Uint64
	totalInterimFrames    atomic.Uint64
	totalSegments         atomic.Uint64
	totalGapSplits        atomic.Uint64
	totalKeySplits        atomic.Uint64
	totalInterleaveSplits atomic.Uint64
	totalFlushes          atomic.Uint64
	totalExports          atomic.Uint64
}

// Snapshot captures cumulative metrics recorded so far.
type Snapshot struct {
	TotalStreams          uint64
	ActiveStreams         int64
	TotalFrames           uint64
	TotalInterimFrames    uint64
	TotalSegments         uint64
	TotalGapSplits        uint64
	TotalKeySplits        uint64
	TotalInterleaveSplits uint64
	TotalFlushes          uint64
	TotalExports          uint64
}

// NewRecorder constructs a Recorder using the provided logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log: logger.With("component", "telemetry.Recorder"),
	}
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		TotalStreams:          r.totalStreams.Load(),
		ActiveStreams:         r.activeStreams.Load(),
		TotalFrames:           r.totalFrames.Load(),
		TotalInterimFrames:    r.totalInterimFrames.Load(),
		TotalSegments:         r.totalSegments.Load(),
		TotalGapSplits:        r.totalGapSplits.Load(),
		TotalKeySplits:        r.totalKeySplits.Load(),
		TotalInterleaveSplits: r.totalInterleaveSplits.Load(),
		TotalFlushes:          r.totalFlushes.Load(),
		TotalExports:          r.totalExports.Load(),
	}
}

// StreamMetrics accumulates statistics for a single ingest stream.
type StreamMetrics struct {
	recorder *Recorder
	log      *slog.Logger

	sessionID string
	streamID  string

	started       time.Time
	frames        int
	interimFrames int
	segments      int
	flushes       int
	exports       int
	closed        atomic.Bool
}

// StartStream initialises a StreamMetrics instance bound to the recorder.
func (r *Recorder) StartStream(sessionID, streamID string) *StreamMetrics {
	if r == nil {
		return nil
	}

	r.totalStreams.Add(1)
	r.activeStreams.Add(1)

	return &StreamMetrics{
		recorder: r,
		log: r.log.With(
			"session_id", sessionID,
			"stream_id", streamID,
		),

		sessionID: sessionID,
		streamID:  streamID,

		started: time.Now(),
	}
}

// RecordFrame updates counters for one ingested word frame and the outcome
// of routing it.
func (s *StreamMetrics) RecordFrame(channel int32, final bool, outcome segment.Outcome) {
	if s == nil {
		return
	}
	s.frames++
	s.recorder.totalFrames.Add(1)
	if !final {
		s.interimFrames++
		s.recorder.totalInterimFrames.Add(1)
	}
	if outcome.Opened {
		s.segments++
		s.recorder.totalSegments.Add(1)
		switch outcome.Cause {
		case segment.CauseGapExceeded:
			s.recorder.totalGapSplits.Add(1)
		case segment.CauseKeyChange:
			s.recorder.totalKeySplits.Add(1)
		case segment.CauseChannelInterleave:
			s.recorder.totalInterleaveSplits.Add(1)
		}
	}

	s.log.Debug("frame routed",
		"channel", channel,
		"final", final,
		"segment_index", outcome.SegmentIndex,
		"opened", outcome.Opened,
		"cause", outcome.Cause.String(),
	)
}

// RecordFlush increments counters for a stream flush.
func (s *StreamMetrics) RecordFlush(segments, words int) {
	if s == nil {
		return
	}
	s.flushes++
	s.recorder.totalFlushes.Add(1)

	s.log.Debug("stream flushed",
		"segments", segments,
		"words", words,
	)
}

// RecordExport increments counters for a transcript upload.
func (s *StreamMetrics) RecordExport(location string) {
	if s == nil {
		return
	}
	s.exports++
	s.recorder.totalExports.Add(1)

	s.log.Debug("transcript exported", "location", location)
}

// Finish logs a summary and updates active stream counters.
func (s *StreamMetrics) Finish(err error) {
	if s == nil {
		return
	}
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	defer s.recorder.activeStreams.Add(-1)

	duration := time.Since(s.started)
	args := []any{
		"duration_ms", duration.Milliseconds(),
		"frames", s.frames,
		"interim_frames", s.interimFrames,
		"segments", s.segments,
		"flushes", s.flushes,
		"exports", s.exports,
	}

	if err != nil {
		s.log.Error("stream completed with error", append(args, "error", err)...)
		return
	}

	s.log.Info("stream completed", args...)
}
