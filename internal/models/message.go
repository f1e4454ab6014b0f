package models

// AudioMessage is one fully processed utterance: the original transcript plus
// one synthesized audio payload per target language. Immutable once appended;
// the sender's own language is always present in AudioByLanguage even though
// polling suppresses self-echo.
type AudioMessage struct {
	ID              string            `json:"id"`         // ULID
	SenderID        string            `json:"senderId"`
	SenderName      string            `json:"senderName"` // denormalized at creation time
	Text            string            `json:"text"`       // original transcription
	Timestamp       int64             `json:"ts"`         // Unix ms
	AudioByLanguage map[string]string `json:"audioByLanguage"` // language -> base64 audio
}
