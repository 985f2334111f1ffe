package domain

// Contact is the reachable contact information the external patient service
// holds for a document. Any field may be empty.
type Contact struct {
	Mobile    string
	Email     string
	FullName  string
	HistoryID string
}

// HasChannel reports whether at least one delivery channel (mobile or email) exists.
func (c *Contact) HasChannel() bool {
	return c != nil && (c.Mobile != "" || c.Email != "")
}
