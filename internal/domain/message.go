package domain

import "fmt"

// Message is a single post on the board
type Message struct {
	ID          MessageID
	Content     string
	AuthorID    UserID
	AuthorName  string
	CreatedAt   Timestamp
	Permissions []Permission
}

// MessageFields are the user-supplied attributes of a message document.
type MessageFields struct {
	Content  string
	UserID   UserID
	Username string
}

// NewDocument describes a message document to be created in a collection.
// ID may be UniqueID to let the store pick one.
type NewDocument struct {
	ID     string
	Fields MessageFields
	Read   []Permission
	Write  []Permission
}

// Permission is an access grant in the form role("target"), e.g. read("any").
type Permission string

func ReadAny() Permission {
	return Permission(`read("any")`)
}

func WriteUser(id UserID) Permission {
	return Permission(fmt.Sprintf(`write("user:%s")`, id))
}

// Permissions merges read and write grants into one list, read first.
func (d *NewDocument) Permissions() []Permission {
	out := make([]Permission, 0, len(d.Read)+len(d.Write))
	out = append(out, d.Read...)
	out = append(out, d.Write...)
	return out
}

// Clone returns a copy that does not share the permissions slice.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Permissions = append([]Permission(nil), m.Permissions...)
	return &cp
}
