package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// PostID identifies a post. Older servers emit numeric ids; they are
// decoded into their base-10 string form so ids always compare as strings.
type PostID string

func (id *PostID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PostID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("post id: %w", err)
	}
	*id = PostID(n.String())
	return nil
}

func (id PostID) String() string { return string(id) }

type Post struct {
	ID        PostID     `json:"id,omitempty"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	UserID    int        `json:"userId,omitempty"`
	Author    string     `json:"author,omitempty"`
	Category  string     `json:"category,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Snapshot is the last collection fetched from the server.
type Snapshot struct {
	Posts     []*Post   `json:"posts"`
	ETag      string    `json:"etag"`
	FetchedAt time.Time `json:"fetched_at"`
}
