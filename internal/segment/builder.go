package segment

// DefaultMaxGapMS is the silence threshold applied when Options.MaxGapMS is
// left unset: two same-key words further apart than this start separate
// segments.
const DefaultMaxGapMS = 2000

// Options configures a segmentation pass. The zero value is usable and means
// "use the default gap threshold".
type Options struct {
	// MaxGapMS is the maximum silence, in milliseconds, between the end of
	// the last word in the open segment and the start of the next word for
	// the two to share a segment. Values <= 0 fall back to DefaultMaxGapMS.
	MaxGapMS int64
}

func (o Options) withDefaults() Options {
	if o.MaxGapMS <= 0 {
		o.MaxGapMS = DefaultMaxGapMS
	}
	return o
}

// Segment is a maximal run of words attributed to one speaker turn. Words
// are appended in input order and the key is fixed when the segment is
// created, even if later words were routed here via the interim-continuity
// fallback.
type Segment struct {
	Key   Key
	Words []WordFrame
}

// StartMS returns the start offset of the first word.
func (s *Segment) StartMS() int64 { return s.Words[0].StartMS }

// EndMS returns the end offset of the last word.
func (s *Segment) EndMS() int64 { return s.Words[len(s.Words)-1].EndMS }

// SplitCause explains why a frame opened a new segment instead of extending
// the previous one. It is observational only: grouping never depends on it.
type SplitCause int

const (
	// CauseNone means the frame merged into the open tail segment.
	CauseNone SplitCause = iota
	// CauseFirstFrame means there was no segment to extend yet.
	CauseFirstFrame
	// CauseGapExceeded means the tail key matched but the silence before
	// this frame exceeded the gap threshold.
	CauseGapExceeded
	// CauseKeyChange means the frame resolved to a different key than the
	// tail segment's.
	CauseKeyChange
	// CauseChannelInterleave is the subset of key changes where the frame's
	// own channel still had a matching open segment within the gap
	// threshold, but another channel's segment had taken over the tail in
	// the meantime.
	CauseChannelInterleave
)

func (c SplitCause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseFirstFrame:
		return "first_frame"
	case CauseGapExceeded:
		return "gap_exceeded"
	case CauseKeyChange:
		return "key_change"
	case CauseChannelInterleave:
		return "channel_interleave"
	default:
		return "unknown"
	}
}

// Outcome describes what a single Feed call did with its frame.
type Outcome struct {
	// SegmentIndex is the position, in the output list, of the segment the
	// frame landed in.
	SegmentIndex int
	// Opened is true when the frame started a new segment.
	Opened bool
	// Cause is CauseNone when the frame merged, otherwise the reason for
	// the split.
	Cause SplitCause
}

// Accumulator folds word frames into speaker-attributed segments one frame
// at a time. It carries two distinct notions of "last segment" that must not
// be conflated: the global tail of the output list, which is the only segment
// a frame may ever extend, and a per-channel map of the most recently touched
// segment on each channel, consulted only to resolve keys for interim frames.
// Collapsing the two changes grouping around channel interleaving.
//
// Frames must be fed in non-decreasing StartMS order across all channels.
// That is the caller's contract; the accumulator does not check it and
// produces undefined grouping when it is violated. An Accumulator is not
// safe for concurrent use.
type Accumulator struct {
	opts          Options
	segments      []*Segment
	openByChannel map[int32]*Segment
}

// NewAccumulator returns an empty accumulator using the given options.
func NewAccumulator(opts Options) *Accumulator {
	return &Accumulator{
		opts:          opts.withDefaults(),
		openByChannel: make(map[int32]*Segment),
	}
}

// Feed routes one frame: it either extends the global tail segment or opens
// a new one, per the merge rule (same key and gap within threshold, both
// required). The returned Outcome reports where the frame landed and why.
func (a *Accumulator) Feed(frame WordFrame) Outcome {
	key := a.resolveKey(frame)

	var last *Segment
	if n := len(a.segments); n > 0 {
		last = a.segments[n-1]
	}

	if last != nil && last.Key.Equal(key) && a.withinGap(last, frame) {
		last.Words = append(last.Words, frame)
		a.openByChannel[frame.Channel] = last
		return Outcome{SegmentIndex: len(a.segments) - 1}
	}

	cause := a.splitCause(last, key, frame)
	seg := &Segment{Key: key, Words: []WordFrame{frame}}
	a.segments = append(a.segments, seg)
	a.openByChannel[frame.Channel] = seg
	return Outcome{SegmentIndex: len(a.segments) - 1, Opened: true, Cause: cause}
}

// resolveKey picks the key a frame is grouped under. Interim frames stick to
// whatever segment is open on their channel so unstable hypotheses do not
// flicker between speakers; final frames always re-derive the key from their
// own identity, which is the one path that can force a new segment purely
// because identity resolution settled on someone else.
func (a *Accumulator) resolveKey(frame WordFrame) Key {
	if !frame.IsFinal {
		if open, ok := a.openByChannel[frame.Channel]; ok {
			return open.Key
		}
	}
	return keyFromIdentity(frame.Channel, frame.Identity)
}

func (a *Accumulator) withinGap(seg *Segment, frame WordFrame) bool {
	lastWord := seg.Words[len(seg.Words)-1]
	return frame.StartMS-lastWord.EndMS <= a.opts.MaxGapMS
}

// splitCause classifies a split for telemetry. Grouping has already been
// decided by the time this runs.
func (a *Accumulator) splitCause(last *Segment, key Key, frame WordFrame) SplitCause {
	if last == nil {
		return CauseFirstFrame
	}
	if last.Key.Equal(key) {
		return CauseGapExceeded
	}
	if open, ok := a.openByChannel[frame.Channel]; ok && open != last && open.Key.Equal(key) && a.withinGap(open, frame) {
		return CauseChannelInterleave
	}
	return CauseKeyChange
}

// Segments returns the segments built so far, in output order. The slice is
// a copy; the segments themselves are shared with the accumulator and the
// tail may still grow on subsequent Feed calls.
func (a *Accumulator) Segments() []*Segment {
	out := make([]*Segment, len(a.segments))
	copy(out, a.segments)
	return out
}

// Len returns the number of segments built so far.
func (a *Accumulator) Len() int { return len(a.segments) }

// At returns the i-th segment built so far.
func (a *Accumulator) At(i int) *Segment { return a.segments[i] }

// WordCount returns the total number of frames fed so far.
func (a *Accumulator) WordCount() int {
	total := 0
	for _, seg := range a.segments {
		total += len(seg.Words)
	}
	return total
}

// BuildSegments runs the whole pass over a frame slice in one call. It is a
// pure function of its input: feeding the same frames through a fresh
// Accumulator yields the same result.
func BuildSegments(frames []WordFrame, opts Options) []*Segment {
	acc := NewAccumulator(opts)
	for _, frame := range frames {
		acc.Feed(frame)
	}
	return acc.Segments()
}
