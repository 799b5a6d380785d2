package server

import (
	"context"
	"io"
	"log/slog"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	segmentationv1 "github.com/leo-paz/hyprnote-sub001/api/segmentationv1"

	"github.com/leo-paz/hyprnote-sub001/internal/config"
	"github.com/leo-paz/hyprnote-sub001/internal/export"
	"github.com/leo-paz/hyprnote-sub001/internal/segment"
	"github.com/leo-paz/hyprnote-sub001/internal/serviceinfo"
	"github.com/leo-paz/hyprnote-sub001/internal/telemetry"
)

// TranscriptUploader stores a formatted transcript when a stream is flushed.
type TranscriptUploader interface {
	Upload(ctx context.Context, runID, transcript string) (string, error)
}

// Server implements the SegmentationService: one accumulator per stream,
// one segment update per ingested frame, a full snapshot on flush.
type Server struct {
	segmentationv1.UnimplementedSegmentationServiceServer

	cfg      config.Config
	log      *slog.Logger
	metrics  *telemetry.Recorder
	uploader TranscriptUploader
}

// New returns a new Server instance. uploader may be nil, in which case
// flushed transcripts are not exported.
func New(cfg config.Config, logger *slog.Logger, metrics *telemetry.Recorder, uploader TranscriptUploader) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger)
	}
	return &Server{
		cfg: cfg,
		log: logger.With(
			"component", "server",
			"max_gap_ms", cfg.MaxGapMS,
		),
		metrics:  metrics,
		uploader: uploader,
	}
}

// StreamSegments consumes word frames in arrival order and replies with one
// update per frame. Frames must arrive in non-decreasing start order; the
// segmenter itself does not check this, so the violation is rejected here at
// the pipeline boundary instead of producing silently corrupted grouping.
func (s *Server) StreamSegments(stream segmentationv1.SegmentationService_StreamSegmentsServer) (err error) {
	var (
		initLogged    bool
		streamMetrics *telemetry.StreamMetrics
		acc           *segment.Accumulator
		sessionID     string
	)
	maxGap := s.cfg.MaxGapMS
	lastStartMS := int64(math.MinInt64)
	ctx := stream.Context()
	defer func() {
		if streamMetrics != nil {
			streamMetrics.Finish(err)
		}
	}()

	for {
		req, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				return s.finish(ctx, stream, acc, streamMetrics, sessionID)
			}
			s.log.Error("failed to receive request", "error", err)
			return err
		}
		if req == nil {
			continue
		}

		if !initLogged {
			sessionID = req.SessionID
			if req.MaxGapMS > 0 {
				maxGap = req.MaxGapMS
			}
			acc = segment.NewAccumulator(segment.Options{MaxGapMS: maxGap})
			streamMetrics = s.metrics.StartStream(req.SessionID, req.StreamID)
			s.log.Info("stream opened",
				"session_id", req.SessionID,
				"stream_id", req.StreamID,
				"max_gap_ms", maxGap,
				"metadata", req.Metadata,
			)
			initLogged = true
		}

		if frame := req.Frame; frame != nil {
			if frame.StartMS < lastStartMS {
				s.log.Error("frame ordering violated",
					"session_id", sessionID,
					"start_ms", frame.StartMS,
					"previous_start_ms", lastStartMS,
				)
				return status.Errorf(codes.InvalidArgument,
					"word frames must arrive in non-decreasing start order: got start_ms=%d after %d",
					frame.StartMS, lastStartMS)
			}
			lastStartMS = frame.StartMS

			outcome := acc.Feed(frameFromWire(frame))
			streamMetrics.RecordFrame(frame.Channel, frame.Final, outcome)
			if err := s.sendUpdate(stream, acc, outcome, maxGap); err != nil {
				return err
			}
		}

		if req.Flush {
			streamMetrics.RecordFlush(acc.Len(), acc.WordCount())
			if err := s.finish(ctx, stream, acc, streamMetrics, sessionID); err != nil {
				return err
			}
			s.log.Info("stream flushed",
				"session_id", sessionID,
				"segments", acc.Len(),
				"words", acc.WordCount(),
			)
			return nil
		}
	}
}

func (s *Server) sendUpdate(stream segmentationv1.SegmentationService_StreamSegmentsServer, acc *segment.Accumulator, outcome segment.Outcome, maxGap int64) error {
	seg := acc.At(outcome.SegmentIndex)
	update := &segmentationv1.SegmentUpdate{
		SegmentIndex: int32(outcome.SegmentIndex),
		Opened:       outcome.Opened,
		Key:          keyToWire(seg.Key),
		WordCount:    int32(len(seg.Words)),
		Metadata:     serviceinfo.SegmentMetadata(maxGap),
	}
	if outcome.Opened {
		update.Cause = outcome.Cause.String()
	}
	if err := stream.Send(&segmentationv1.StreamSegmentsResponse{Update: update}); err != nil {
		s.log.Error("failed to send update", "error", err)
		return err
	}
	return nil
}

// finish sends the final snapshot and hands the transcript to the uploader
// when one is configured. Export failures are logged, not propagated: the
// client still gets its snapshot.
func (s *Server) finish(ctx context.Context, stream segmentationv1.SegmentationService_StreamSegmentsServer, acc *segment.Accumulator, streamMetrics *telemetry.StreamMetrics, sessionID string) error {
	var segments []*segment.Segment
	if acc != nil {
		segments = acc.Segments()
	}

	if s.uploader != nil && len(segments) > 0 {
		transcript := export.FormatTranscript(segments)
		location, err := s.uploader.Upload(ctx, sessionID, transcript)
		if err != nil {
			s.log.Warn("transcript export failed", "session_id", sessionID, "error", err)
		} else {
			streamMetrics.RecordExport(location)
		}
	}

	resp := &segmentationv1.StreamSegmentsResponse{
		Segments: snapshotToWire(segments),
		Final:    true,
	}
	if err := stream.Send(resp); err != nil {
		s.log.Error("failed to send snapshot", "error", err)
		return err
	}
	return nil
}
