package gmail

// MessageSummary is one entry of a message listing.
type MessageSummary struct {
	ID      string
	From    string
	Subject string
	Date    string
	Snippet string
}

// Message is a message fetched in full format.
type Message struct {
	ID       string
	From     string
	To       string
	Date     string
	Subject  string
	LabelIDs []string
	Content
}

// Content is what WalkParts finds in a message payload.
type Content struct {
	TextBody    string
	HTMLBody    string
	HasText     bool
	HasHTML     bool
	Attachments []*AttachmentInfo
}

// AttachmentInfo describes one attachment part. AttachmentID is only valid
// for the fetch that produced it.
type AttachmentInfo struct {
	MessageID    string
	PartID       string
	AttachmentID string
	Filename     string
	MimeType     string
	Size         int64

	// inline holds the base64url body for small parts delivered without an
	// attachment id.
	inline string
}

// Profile is the mailbox summary of the authenticated user.
type Profile struct {
	EmailAddress  string
	MessagesTotal int64
	ThreadsTotal  int64
}
