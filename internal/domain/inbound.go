package domain

// Inbound is one message from a reporter as seen by the intake flow.
type Inbound struct {
	ChatID   int64
	Reporter Reporter
	Text     string
	Image    *ImageRef
}

// ImageRef points at an image attached to the message.
type ImageRef struct {
	FileID   string
	MimeType string
}

// Prompt is a reply to the reporter, optionally with one row of quick replies.
type Prompt struct {
	Text     string
	Markdown bool
	Buttons  []string
}
