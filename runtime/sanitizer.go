package runtime

import (
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"

	"github.com/T4snimul/owlery/domain"
	"github.com/T4snimul/owlery/moderation"
)

// Sanitizer is the moderation stage of the send pipeline. It runs
// synchronously before persistence so the stored log never contains an
// unmasked blacklisted word.
type Sanitizer struct {
	moderator moderation.Moderator
	log       *slog.Logger
}

func NewSanitizer(moderator moderation.Moderator, log *slog.Logger) *Sanitizer {
	return &Sanitizer{moderator: moderator, log: log}
}

// Sanitize masks blacklisted words in the message text. Matches are logged
// with the detected language for moderation statistics; the message itself
// carries no trace of what was masked.
func (s *Sanitizer) Sanitize(message domain.Message) domain.Message {
	start := time.Now()
	masked, found := s.moderator.Censor(message.Text)
	if len(found) == 0 {
		return message
	}

	info := whatlanggo.Detect(message.Text)
	s.log.Warn("Masked blacklisted words",
		"count", len(found),
		"lang", info.Lang.Iso6391(),
		"sender", message.SenderID,
		"scope", message.Scope,
		"latency_us", time.Since(start).Microseconds())

	message.Text = masked
	return message
}
