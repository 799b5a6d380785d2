package server_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	segmentationv1 "github.com/leo-paz/hyprnote-sub001/api/segmentationv1"

	"github.com/leo-paz/hyprnote-sub001/internal/config"
	"github.com/leo-paz/hyprnote-sub001/internal/server"
)

const bufSize = 1024 * 1024

func int32p(v int32) *int32 { return &v }

type recordingUploader struct {
	runID      string
	transcript string
	calls      int
	err        error
}

func (u *recordingUploader) Upload(_ context.Context, runID, transcript string) (string, error) {
	u.calls++
	u.runID = runID
	u.transcript = transcript
	if u.err != nil {
		return "", u.err
	}
	return "s3://bucket/transcript_" + runID + ".txt", nil
}

func dialServer(t *testing.T, ctx context.Context, srv *server.Server) segmentationv1.SegmentationServiceClient {
	t.Helper()

	lis := bufconn.Listen(bufSize)
	t.Cleanup(func() { lis.Close() })

	grpcServer := grpc.NewServer()
	t.Cleanup(grpcServer.Stop)

	segmentationv1.RegisterSegmentationServiceServer(grpcServer, srv)

	go func() {
		if err := grpcServer.Serve(lis); err != nil &&
			!errors.Is(err, grpc.ErrServerStopped) &&
			!errors.Is(err, net.ErrClosed) &&
			err.Error() != "closed" {
			t.Errorf("Serve() error: %v", err)
		}
	}()

	conn, err := grpc.DialContext(ctx, "bufconn",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return segmentationv1.NewSegmentationServiceClient(conn)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func frameReq(frame *segmentationv1.WordFrameEvent) *segmentationv1.StreamSegmentsRequest {
	return &segmentationv1.StreamSegmentsRequest{
		SessionID: "session-1",
		StreamID:  "mic",
		Frame:     frame,
	}
}

func TestStreamSegments(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.Config{ListenAddr: "bufconn", MaxGapMS: 2000, LogLevel: "debug"}
	uploader := &recordingUploader{}
	client := dialServer(t, ctx, server.New(cfg, testLogger(), nil, uploader))

	stream, err := client.StreamSegments(ctx)
	if err != nil {
		t.Fatalf("StreamSegments error: %v", err)
	}

	// Interim frame with no identity opens a bare-channel segment.
	if err := stream.Send(frameReq(&segmentationv1.WordFrameEvent{
		Text: "uh", StartMS: 0, EndMS: 100, Channel: 1,
	})); err != nil {
		t.Fatalf("Send frame 1 error: %v", err)
	}

	resp, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv 1 error: %v", err)
	}
	update := resp.Update
	if update == nil {
		t.Fatalf("expected update, got %+v", resp)
	}
	if !update.Opened || update.SegmentIndex != 0 {
		t.Fatalf("unexpected update: %+v", update)
	}
	if update.Cause != "first_frame" {
		t.Fatalf("unexpected cause: %q", update.Cause)
	}
	if update.Key == nil || update.Key.Channel != 1 || update.Key.SpeakerIndex != nil {
		t.Fatalf("expected bare-channel key, got %+v", update.Key)
	}
	if update.Metadata["max_gap_ms"] != "2000" {
		t.Fatalf("unexpected metadata: %v", update.Metadata)
	}

	// Final frame 50ms later resolves to speaker 5 and must split.
	if err := stream.Send(frameReq(&segmentationv1.WordFrameEvent{
		Text: "hello", StartMS: 150, EndMS: 300, Channel: 1, Final: true,
		Identity: &segmentationv1.SpeakerIdentity{SpeakerIndex: int32p(5)},
	})); err != nil {
		t.Fatalf("Send frame 2 error: %v", err)
	}

	resp, err = stream.Recv()
	if err != nil {
		t.Fatalf("Recv 2 error: %v", err)
	}
	update = resp.Update
	if update == nil || !update.Opened || update.SegmentIndex != 1 {
		t.Fatalf("expected re-keyed split, got %+v", resp)
	}
	if update.Cause != "key_change" {
		t.Fatalf("unexpected cause: %q", update.Cause)
	}
	if update.Key.SpeakerIndex == nil || *update.Key.SpeakerIndex != 5 {
		t.Fatalf("unexpected key: %+v", update.Key)
	}

	// Flush: full snapshot plus transcript export.
	if err := stream.Send(&segmentationv1.StreamSegmentsRequest{Flush: true}); err != nil {
		t.Fatalf("Send flush error: %v", err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("CloseSend error: %v", err)
	}

	resp, err = stream.Recv()
	if err != nil {
		t.Fatalf("Recv snapshot error: %v", err)
	}
	if !resp.Final {
		t.Fatalf("expected final snapshot, got %+v", resp)
	}
	if len(resp.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(resp.Segments))
	}
	if got := len(resp.Segments[0].Words) + len(resp.Segments[1].Words); got != 2 {
		t.Fatalf("expected 2 words across segments, got %d", got)
	}

	if _, err := stream.Recv(); err != io.EOF {
		t.Fatalf("expected EOF after snapshot, got %v", err)
	}

	if uploader.calls != 1 {
		t.Fatalf("expected one export, got %d", uploader.calls)
	}
	if uploader.runID != "session-1" {
		t.Fatalf("unexpected export run id: %q", uploader.runID)
	}
	if !strings.Contains(uploader.transcript, "Speaker 5: hello") {
		t.Fatalf("unexpected transcript: %q", uploader.transcript)
	}
}

func TestStreamSegmentsGapOverride(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.Config{ListenAddr: "bufconn", MaxGapMS: 2000}
	client := dialServer(t, ctx, server.New(cfg, testLogger(), nil, nil))

	stream, err := client.StreamSegments(ctx)
	if err != nil {
		t.Fatalf("StreamSegments error: %v", err)
	}

	// First message narrows the gap to 100ms for this stream only.
	first := frameReq(&segmentationv1.WordFrameEvent{
		Text: "a", StartMS: 0, EndMS: 100, Channel: 1, Final: true,
		Identity: &segmentationv1.SpeakerIdentity{SpeakerIndex: int32p(1)},
	})
	first.MaxGapMS = 100
	if err := stream.Send(first); err != nil {
		t.Fatalf("Send frame 1 error: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("Recv 1 error: %v", err)
	}

	if err := stream.Send(frameReq(&segmentationv1.WordFrameEvent{
		Text: "b", StartMS: 300, EndMS: 400, Channel: 1, Final: true,
		Identity: &segmentationv1.SpeakerIdentity{SpeakerIndex: int32p(1)},
	})); err != nil {
		t.Fatalf("Send frame 2 error: %v", err)
	}
	resp, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv 2 error: %v", err)
	}
	if resp.Update == nil || !resp.Update.Opened {
		t.Fatalf("expected 200ms gap to split under 100ms override, got %+v", resp)
	}
	if resp.Update.Cause != "gap_exceeded" {
		t.Fatalf("unexpected cause: %q", resp.Update.Cause)
	}
	if resp.Update.Metadata["max_gap_ms"] != "100" {
		t.Fatalf("unexpected metadata: %v", resp.Update.Metadata)
	}
}

func TestStreamSegmentsRejectsOutOfOrderFrames(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.Config{ListenAddr: "bufconn", MaxGapMS: 2000}
	client := dialServer(t, ctx, server.New(cfg, testLogger(), nil, nil))

	stream, err := client.StreamSegments(ctx)
	if err != nil {
		t.Fatalf("StreamSegments error: %v", err)
	}

	if err := stream.Send(frameReq(&segmentationv1.WordFrameEvent{
		Text: "a", StartMS: 500, EndMS: 600, Channel: 1, Final: true,
	})); err != nil {
		t.Fatalf("Send frame 1 error: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("Recv 1 error: %v", err)
	}

	if err := stream.Send(frameReq(&segmentationv1.WordFrameEvent{
		Text: "late", StartMS: 100, EndMS: 200, Channel: 1, Final: true,
	})); err != nil {
		t.Fatalf("Send frame 2 error: %v", err)
	}

	_, err = stream.Recv()
	if err == nil {
		t.Fatalf("expected ordering violation error")
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if !strings.Contains(st.Message(), "non-decreasing") {
		t.Fatalf("unexpected message: %q", st.Message())
	}
}

func TestStreamSegmentsEmptyStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.Config{ListenAddr: "bufconn", MaxGapMS: 2000}
	uploader := &recordingUploader{}
	client := dialServer(t, ctx, server.New(cfg, testLogger(), nil, uploader))

	stream, err := client.StreamSegments(ctx)
	if err != nil {
		t.Fatalf("StreamSegments error: %v", err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("CloseSend error: %v", err)
	}

	resp, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv error: %v", err)
	}
	if !resp.Final || len(resp.Segments) != 0 {
		t.Fatalf("expected empty final snapshot, got %+v", resp)
	}
	if uploader.calls != 0 {
		t.Fatalf("expected no exports for empty stream, got %d", uploader.calls)
	}
}
