package appwrite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/PabloGalante/farum-board/internal/domain"
)

// pageSize is the number of documents requested per list call.
const pageSize = 100

type documentDTO struct {
	ID          string   `json:"$id"`
	CreatedAt   string   `json:"$createdAt"`
	Permissions []string `json:"$permissions"`
	Content     string   `json:"content"`
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
}

func (d documentDTO) toMessage() (*domain.Message, error) {
	created, err := parseTime(d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", d.ID, err)
	}

	msg := &domain.Message{
		ID:          domain.MessageID(d.ID),
		Content:     d.Content,
		AuthorID:    domain.UserID(d.UserID),
		AuthorName:  d.Username,
		CreatedAt:   created,
		Permissions: make([]domain.Permission, 0, len(d.Permissions)),
	}
	for _, p := range d.Permissions {
		msg.Permissions = append(msg.Permissions, domain.Permission(p))
	}
	return msg, nil
}

type documentListDTO struct {
	Total     int           `json:"total"`
	Documents []documentDTO `json:"documents"`
}

type messageData struct {
	Content  string `json:"content"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type createDocumentRequest struct {
	DocumentID  string      `json:"documentId"`
	Data        messageData `json:"data"`
	Permissions []string    `json:"permissions"`
}

type query struct {
	Method string `json:"method"`
	Values []any  `json:"values"`
}

func encodeQueries(qs ...query) (url.Values, error) {
	v := url.Values{}
	for _, q := range qs {
		b, err := json.Marshal(q)
		if err != nil {
			return nil, err
		}
		v.Add("queries[]", string(b))
	}
	return v, nil
}

func (c *Client) documentsPath(collectionID domain.CollectionID) string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents",
		url.PathEscape(c.databaseID), url.PathEscape(string(collectionID)))
}

// ListDocuments pages through the whole collection.
func (c *Client) ListDocuments(ctx context.Context, collectionID domain.CollectionID) ([]*domain.Message, error) {
	var (
		out    []*domain.Message
		cursor string
	)

	for {
		qs := []query{{Method: "limit", Values: []any{pageSize}}}
		if cursor != "" {
			qs = append(qs, query{Method: "cursorAfter", Values: []any{cursor}})
		}
		values, err := encodeQueries(qs...)
		if err != nil {
			return nil, fmt.Errorf("encoding queries: %w", err)
		}

		var page documentListDTO
		if err := c.do(ctx, http.MethodGet, c.documentsPath(collectionID), nil, &page, withQuery(values)); err != nil {
			return nil, err
		}

		for _, d := range page.Documents {
			msg, err := d.toMessage()
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}

		if len(page.Documents) < pageSize || len(out) >= page.Total {
			break
		}
		cursor = page.Documents[len(page.Documents)-1].ID
	}

	return out, nil
}

func (c *Client) CreateDocument(ctx context.Context, collectionID domain.CollectionID, doc *domain.NewDocument) (*domain.Message, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}

	id := doc.ID
	if id == "" {
		id = domain.UniqueID
	}

	perms := doc.Permissions()
	req := createDocumentRequest{
		DocumentID: id,
		Data: messageData{
			Content:  doc.Fields.Content,
			UserID:   string(doc.Fields.UserID),
			Username: doc.Fields.Username,
		},
		Permissions: make([]string, 0, len(perms)),
	}
	for _, p := range perms {
		req.Permissions = append(req.Permissions, string(p))
	}

	var dto documentDTO
	if err := c.do(ctx, http.MethodPost, c.documentsPath(collectionID), req, &dto); err != nil {
		return nil, err
	}
	return dto.toMessage()
}

var _ domain.DocumentStore = (*Client)(nil)
