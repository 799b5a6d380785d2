package segment

// SpeakerIdentity is the tentative speaker attribution attached to a word
// frame by the upstream diarization step. Either field, both, or neither may
// be present; a nil pointer means the field is absent, which is distinct from
// a zero value.
type SpeakerIdentity struct {
	SpeakerIndex *int32
	HumanID      *string
}

// WordFrame is one recognized word emitted by the speech-recognition
// pipeline: timing within the session, the audio channel it arrived on,
// whether the recognizer has committed to it, and an optional tentative
// speaker identity. Frames are read-only to the segmenter.
type WordFrame struct {
	Text     string
	StartMS  int64
	EndMS    int64
	Channel  int32
	IsFinal  bool
	Identity *SpeakerIdentity
}
