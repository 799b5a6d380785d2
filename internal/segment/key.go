package segment

import (
	"fmt"
	"strings"
)

// Key identifies the speaker turn a word belongs to. Two keys match only if
// the channel matches exactly and each optional field is either present on
// both sides with the same value, or absent on both sides. A present value
// never matches an absent one, so "speaker 0" and "unknown speaker" stay
// distinct.
type Key struct {
	Channel      int32
	SpeakerIndex *int32
	HumanID      *string
}

// keyFromIdentity derives a key from a frame's own tentative identity.
// Optional fields are copied only when present; a nil identity yields a
// bare-channel key.
func keyFromIdentity(channel int32, id *SpeakerIdentity) Key {
	key := Key{Channel: channel}
	if id == nil {
		return key
	}
	if id.SpeakerIndex != nil {
		v := *id.SpeakerIndex
		key.SpeakerIndex = &v
	}
	if id.HumanID != nil {
		v := *id.HumanID
		key.HumanID = &v
	}
	return key
}

// Equal reports whether two keys identify the same speaker turn.
func (k Key) Equal(other Key) bool {
	if k.Channel != other.Channel {
		return false
	}
	if !equalInt32Ptr(k.SpeakerIndex, other.SpeakerIndex) {
		return false
	}
	return equalStringPtr(k.HumanID, other.HumanID)
}

// String renders the key for logs, e.g. "ch=1 idx=5 id=alice".
func (k Key) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ch=%d", k.Channel)
	if k.SpeakerIndex != nil {
		fmt.Fprintf(&b, " idx=%d", *k.SpeakerIndex)
	}
	if k.HumanID != nil {
		fmt.Fprintf(&b, " id=%s", *k.HumanID)
	}
	return b.String()
}

func equalInt32Ptr(a, b *int32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
