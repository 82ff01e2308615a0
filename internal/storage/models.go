package storage

import "time"

// BookCandidate is one search result offered to the guild.
type BookCandidate struct {
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	ISBN         string   `json:"isbn"` // ISBN-13 preferred, "N/A" when the volume has none
	PreviewLink  string   `json:"preview_link,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// SearchResultSet is the most recent /search result list of a guild.
type SearchResultSet struct {
	GuildID   string          `json:"guild_id"`
	Results   []BookCandidate `json:"results"`
	CreatedAt int64           `json:"created_at"`
	ExpiresAt int64           `json:"expires_at"`
}

// PendingSelection is a book a user picked and has not scheduled yet.
type PendingSelection struct {
	GuildID   string        `json:"guild_id"`
	UserID    string        `json:"user_id"`
	Book      BookCandidate `json:"book"`
	CreatedAt int64         `json:"created_at"`
	ExpiresAt int64         `json:"expires_at"`
}

// DefaultDiscussionTime is shown when no time was recorded.
const DefaultDiscussionTime = "7:00 PM"

// CurrentBook is the book a guild is reading. At most one per guild.
type CurrentBook struct {
	GuildID           string   `json:"guild_id"`
	Title             string   `json:"title"`
	Authors           []string `json:"authors"`
	ISBN              string   `json:"isbn"`
	DiscussionDate    string   `json:"discussion_date"` // MM-DD-YYYY
	DiscussionTime    string   `json:"discussion_time"`
	ReadingAssignment string   `json:"reading_assignment"`
	SetByUser         string   `json:"set_by_user"`
	EventID           string   `json:"event_id,omitempty"` // Discord scheduled event, empty when creation failed
	ThumbnailURL      string   `json:"thumbnail_url,omitempty"`
	PreviewLink       string   `json:"preview_link,omitempty"`
	Version           int64    `json:"version"`
	UpdatedAt         int64    `json:"updated_at"`
}

// HistoryEntry is an archived CurrentBook. Append-only.
type HistoryEntry struct {
	ID                int64    `json:"id"`
	GuildID           string   `json:"guild_id"`
	Title             string   `json:"title"`
	Authors           []string `json:"authors"`
	ISBN              string   `json:"isbn"`
	DiscussionDate    string   `json:"discussion_date"`
	DiscussionTime    string   `json:"discussion_time"`
	ReadingAssignment string   `json:"reading_assignment"`
	SetByUser         string   `json:"set_by_user"`
	EventID           string   `json:"event_id,omitempty"`
	ThumbnailURL      string   `json:"thumbnail_url,omitempty"`
	PreviewLink       string   `json:"preview_link,omitempty"`
	Version           int64    `json:"version"`
	UpdatedAt         int64    `json:"updated_at"`
	FinishedAt        int64    `json:"finished_at"`
	FinishedBy        string   `json:"finished_by"`
}

// ExpiredCounts reports rows removed by DeleteExpired.
type ExpiredCounts struct {
	SearchResults     int64
	PendingSelections int64
}

// Total returns the number of rows removed across both tables.
func (c ExpiredCounts) Total() int64 {
	return c.SearchResults + c.PendingSelections
}

// UpdatedTime returns UpdatedAt as a time.Time.
func (b *CurrentBook) UpdatedTime() time.Time {
	return time.Unix(b.UpdatedAt, 0)
}
