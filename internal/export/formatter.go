// Package export renders finished segment lists into a plain-text transcript
// and uploads them to S3.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/leo-paz/hyprnote-sub001/internal/segment"
)

// SpeakerLabel derives a display name for a segment key: the resolved human
// identity when present, a numbered speaker when only the diarization index
// is known, and the channel otherwise.
func SpeakerLabel(key segment.Key) string {
	if key.HumanID != nil && *key.HumanID != "" {
		return *key.HumanID
	}
	if key.SpeakerIndex != nil {
		return fmt.Sprintf("Speaker %d", *key.SpeakerIndex)
	}
	return fmt.Sprintf("Unknown (channel %d)", key.Channel)
}

// FormatTranscript renders one line per segment:
//
//	[00:00-00:05] Alice: hello there everyone
//
// Words with empty text (non-text annotations) are skipped when joining;
// a segment whose words are all empty still gets its line, with no text.
func FormatTranscript(segments []*segment.Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&b, "[%s-%s] %s:", msToTS(seg.StartMS()), msToTS(seg.EndMS()), SpeakerLabel(seg.Key))
		for _, w := range seg.Words {
			text := strings.TrimSpace(w.Text)
			if text == "" {
				continue
			}
			b.WriteByte(' ')
			b.WriteString(text)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func msToTS(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
