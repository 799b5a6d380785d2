package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	segmentationv1 "github.com/leo-paz/hyprnote-sub001/api/segmentationv1"

	"github.com/leo-paz/hyprnote-sub001/internal/export"
	"github.com/leo-paz/hyprnote-sub001/internal/segment"
)

// replay reads a JSONL file of word frames (one WordFrameEvent per line),
// runs the batch segmenter over it, and prints the formatted transcript.
// With -bucket it also uploads the transcript to S3, keyed by a hash of the
// input so repeated runs are idempotent.
func main() {
	var (
		input   = flag.String("input", "", "path to JSONL file of word frames")
		output  = flag.String("o", "", "path to output transcript file (default: stdout)")
		maxGap  = flag.Int64("max-gap-ms", segment.DefaultMaxGapMS, "silence threshold between same-speaker words")
		bucket  = flag.String("bucket", "", "S3 bucket to upload the transcript to (optional)")
		region  = flag.String("region", "us-east-1", "AWS region for the upload")
		prefix  = flag.String("prefix", "replays", "S3 key prefix for the upload")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if strings.TrimSpace(*input) == "" {
		fmt.Fprintln(os.Stderr, "replay: --input must not be empty")
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	file, err := os.Open(*input)
	if err != nil {
		logger.Error("failed to open input", "error", err)
		os.Exit(1)
	}
	defer file.Close()

	hasher := sha256.New()
	frames, err := decodeFrames(io.TeeReader(file, hasher), logger)
	if err != nil {
		logger.Error("failed to decode frames", "error", err)
		os.Exit(1)
	}
	runID := hex.EncodeToString(hasher.Sum(nil))[:16]

	logger.Info("replaying frames",
		"input", *input,
		"frames", len(frames),
		"max_gap_ms", *maxGap,
		"run_id", runID,
	)

	segments := segment.BuildSegments(frames, segment.Options{MaxGapMS: *maxGap})
	transcript := export.FormatTranscript(segments)
	logger.Info("segmentation complete", "segments", len(segments))

	if *output == "" {
		fmt.Print(transcript)
	} else if err := os.WriteFile(*output, []byte(transcript), 0o644); err != nil {
		logger.Error("failed to write transcript", "error", err)
		os.Exit(1)
	}

	if *bucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		client, err := export.NewClient(ctx, *region)
		if err != nil {
			logger.Error("failed to initialise S3 client", "error", err)
			os.Exit(1)
		}
		uploader := export.NewUploader(client, *bucket, *prefix, logger)
		location, err := uploader.Upload(ctx, runID, transcript)
		if err != nil {
			logger.Error("upload failed", "error", err)
			os.Exit(1)
		}
		logger.Info("transcript uploaded", "location", location)
	}
}

// decodeFrames parses one WordFrameEvent per line, skipping blank lines.
// Ordering problems are fatal here, at the pipeline boundary, so the
// segmenter never sees out-of-order input; a word ending before it starts is
// only worth a warning.
func decodeFrames(r io.Reader, logger *slog.Logger) ([]segment.WordFrame, error) {
	var frames []segment.WordFrame
	lastStartMS := int64(0)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var event segmentationv1.WordFrameEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(frames) > 0 && event.StartMS < lastStartMS {
			return nil, fmt.Errorf("line %d: start_ms %d regresses below %d; input must be sorted by start_ms", line, event.StartMS, lastStartMS)
		}
		if event.EndMS < event.StartMS {
			logger.Warn("word ends before it starts", "line", line, "start_ms", event.StartMS, "end_ms", event.EndMS)
		}
		lastStartMS = event.StartMS

		frame := segment.WordFrame{
			Text:    event.Text,
			StartMS: event.StartMS,
			EndMS:   event.EndMS,
			Channel: event.Channel,
			IsFinal: event.Final,
		}
		if id := event.Identity; id != nil {
			frame.Identity = &segment.SpeakerIdentity{
				SpeakerIndex: id.SpeakerIndex,
				HumanID:      id.HumanID,
			}
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return frames, nil
}
