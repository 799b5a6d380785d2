// Package segmentationv1 defines the wire contract of the segmentation
// service: the messages exchanged over the StreamSegments RPC and the
// hand-written gRPC plumbing that carries them. Messages travel as JSON via
// a registered codec, so the contract is self-contained and needs no
// generated code.
package segmentationv1

// SpeakerIdentity is the tentative attribution attached to a word frame by
// upstream identity resolution. Either field may be omitted.
type SpeakerIdentity struct {
	SpeakerIndex *int32  `json:"speaker_index,omitempty"`
	HumanID      *string `json:"human_id,omitempty"`
}

// WordFrameEvent is one recognized word as produced by the speech pipeline.
type WordFrameEvent struct {
	Text     string           `json:"text"`
	StartMS  int64            `json:"start_ms"`
	EndMS    int64            `json:"end_ms"`
	Channel  int32            `json:"channel"`
	Final    bool             `json:"final"`
	Identity *SpeakerIdentity `json:"identity,omitempty"`
}

// StreamSegmentsRequest is one client message on the StreamSegments stream.
// The first message carries the stream identifiers and optional gap override;
// subsequent messages carry one frame each. Flush asks the server to emit a
// full snapshot and close the stream.
type StreamSegmentsRequest struct {
	SessionID string            `json:"session_id,omitempty"`
	StreamID  string            `json:"stream_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	MaxGapMS  int64             `json:"max_gap_ms,omitempty"`
	Frame     *WordFrameEvent   `json:"frame,omitempty"`
	Flush     bool              `json:"flush,omitempty"`
}

// SegmentKey mirrors the grouping key of a segment on the wire.
type SegmentKey struct {
	Channel      int32   `json:"channel"`
	SpeakerIndex *int32  `json:"speaker_index,omitempty"`
	HumanID      *string `json:"human_id,omitempty"`
}

// SegmentUpdate reports where the last ingested frame landed.
type SegmentUpdate struct {
	SegmentIndex int32             `json:"segment_index"`
	Opened       bool              `json:"opened"`
	Cause        string            `json:"cause,omitempty"`
	Key          *SegmentKey       `json:"key"`
	WordCount    int32             `json:"word_count"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// SegmentSnapshot is one completed-or-open segment in a full snapshot.
type SegmentSnapshot struct {
	Key   *SegmentKey       `json:"key"`
	Words []*WordFrameEvent `json:"words"`
}

// StreamSegmentsResponse is one server message: an incremental update after
// each frame, or the final snapshot when the stream is flushed.
type StreamSegmentsResponse struct {
	Update   *SegmentUpdate     `json:"update,omitempty"`
	Segments []*SegmentSnapshot `json:"segments,omitempty"`
	Final    bool               `json:"final,omitempty"`
}
