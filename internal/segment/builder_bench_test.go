package segment

import "testing"

func benchFrames(n int) []WordFrame {
	frames := make([]WordFrame, 0, n)
	var t int64
	for i := 0; i < n; i++ {
		channel := int32(i % 3)
		idx := int32(i % 4)
		frames = append(frames, WordFrame{
			Text:     "word",
			StartMS:  t,
			EndMS:    t + 180,
			Channel:  channel,
			IsFinal:  i%5 != 0,
			Identity: &SpeakerIdentity{SpeakerIndex: &idx},
		})
		t += 200
	}
	return frames
}

func BenchmarkBuildSegments(b *testing.B) {
	frames := benchFrames(10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildSegments(frames, Options{})
	}
}

func BenchmarkAccumulatorFeed(b *testing.B) {
	frames := benchFrames(1024)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		acc := NewAccumulator(Options{})
		for _, frame := range frames {
			acc.Feed(frame)
		}
	}
}
