package server

import (
	segmentationv1 "github.com/leo-paz/hyprnote-sub001/api/segmentationv1"

	"github.com/leo-paz/hyprnote-sub001/internal/segment"
)

func frameFromWire(frame *segmentationv1.WordFrameEvent) segment.WordFrame {
	out := segment.WordFrame{
		Text:    frame.Text,
		StartMS: frame.StartMS,
		EndMS:   frame.EndMS,
		Channel: frame.Channel,
		IsFinal: frame.Final,
	}
	if id := frame.Identity; id != nil {
		out.Identity = &segment.SpeakerIdentity{
			SpeakerIndex: copyInt32(id.SpeakerIndex),
			HumanID:      copyString(id.HumanID),
		}
	}
	return out
}

func frameToWire(frame segment.WordFrame) *segmentationv1.WordFrameEvent {
	out := &segmentationv1.WordFrameEvent{
		Text:    frame.Text,
		StartMS: frame.StartMS,
		EndMS:   frame.EndMS,
		Channel: frame.Channel,
		Final:   frame.IsFinal,
	}
	if id := frame.Identity; id != nil {
		out.Identity = &segmentationv1.SpeakerIdentity{
			SpeakerIndex: copyInt32(id.SpeakerIndex),
			HumanID:      copyString(id.HumanID),
		}
	}
	return out
}

func keyToWire(key segment.Key) *segmentationv1.SegmentKey {
	return &segmentationv1.SegmentKey{
		Channel:      key.Channel,
		SpeakerIndex: copyInt32(key.SpeakerIndex),
		HumanID:      copyString(key.HumanID),
	}
}

func snapshotToWire(segments []*segment.Segment) []*segmentationv1.SegmentSnapshot {
	out := make([]*segmentationv1.SegmentSnapshot, 0, len(segments))
	for _, seg := range segments {
		words := make([]*segmentationv1.WordFrameEvent, 0, len(seg.Words))
		for _, w := range seg.Words {
			words = append(words, frameToWire(w))
		}
		out = append(out, &segmentationv1.SegmentSnapshot{
			Key:   keyToWire(seg.Key),
			Words: words,
		})
	}
	return out
}

func copyInt32(v *int32) *int32 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
