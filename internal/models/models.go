package models

import (
	"encoding/json"
	"time"
)

type ArticleType string

const (
	ArticleTypeProject ArticleType = "PROJECT"
	ArticleTypeStudy   ArticleType = "STUDY"
)

type ArticleRole struct {
	RoleName    string `json:"roleName"`
	Participant int    `json:"participant"`
}

type Article struct {
	ArticleUUID       string        `json:"articleUUID"`
	Title             string        `json:"title"`
	Content           string        `json:"content,omitempty"`
	ArticleType       ArticleType   `json:"articleType"`
	MeetingType       string        `json:"meetingType,omitempty"`
	EstimatedDuration string        `json:"estimatedDuration,omitempty"`
	Author            string        `json:"author,omitempty"`
	ViewCount         int           `json:"viewCount"`
	BookmarkCount     int           `json:"bookmarkCount"`
	Status            int           `json:"status"`
	Roles             []ArticleRole `json:"roles,omitempty"`
	Stacks            []string      `json:"stacks,omitempty"`
	PlannedStartAt    *time.Time    `json:"plannedStartAt,omitempty"`
	ExpiredAt         *time.Time    `json:"expiredAt,omitempty"`
	CreatedAt         *time.Time    `json:"createdAt,omitempty"`
}

type PageMetadata struct {
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

// PageRequest is 1-based. The zero value means "server default".
type PageRequest struct {
	Page int
	Size int
}

func (p PageRequest) IsZero() bool {
	return p.Page <= 0 && p.Size <= 0
}

// ArticleFilter is the list-query payload. Nil slices and empty strings are
// omitted on the wire; a non-nil empty slice is sent as [].
type ArticleFilter struct {
	Roles       []string
	Stacks      []string
	Bookmark    *bool
	Keyword     string
	ArticleType ArticleType
	MeetingType string
}

func (f ArticleFilter) MarshalJSON() ([]byte, error) {
	type wire struct {
		Roles       *[]string   `json:"roles,omitempty"`
		Stacks      *[]string   `json:"stacks,omitempty"`
		Bookmark    *bool       `json:"bookmark,omitempty"`
		Keyword     string      `json:"keyword,omitempty"`
		ArticleType ArticleType `json:"articleType,omitempty"`
		MeetingType string      `json:"meetingType,omitempty"`
	}
	w := wire{
		Bookmark:    f.Bookmark,
		Keyword:     f.Keyword,
		ArticleType: f.ArticleType,
		MeetingType: f.MeetingType,
	}
	if f.Roles != nil {
		w.Roles = &f.Roles
	}
	if f.Stacks != nil {
		w.Stacks = &f.Stacks
	}
	return json.Marshal(w)
}

func (f *ArticleFilter) UnmarshalJSON(b []byte) error {
	var w struct {
		Roles       []string    `json:"roles"`
		Stacks      []string    `json:"stacks"`
		Bookmark    *bool       `json:"bookmark"`
		Keyword     string      `json:"keyword"`
		ArticleType ArticleType `json:"articleType"`
		MeetingType string      `json:"meetingType"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*f = ArticleFilter(w)
	return nil
}

// Clone returns a deep copy so a filter captured by an in-flight request is
// never aliased by later state changes.
func (f ArticleFilter) Clone() ArticleFilter {
	out := f
	if f.Roles != nil {
		out.Roles = append([]string{}, f.Roles...)
	}
	if f.Stacks != nil {
		out.Stacks = append([]string{}, f.Stacks...)
	}
	if f.Bookmark != nil {
		b := *f.Bookmark
		out.Bookmark = &b
	}
	return out
}

type Member struct {
	MemberUUID string   `json:"memberUUID"`
	Name       string   `json:"name"`
	Career     int      `json:"career"`
	Roles      []string `json:"roles"`
	Stacks     []string `json:"stacks"`
	Bio        string   `json:"bio,omitempty"`
	GithubLink string   `json:"githubLink,omitempty"`
	BlogLink   string   `json:"blogLink,omitempty"`
	NotionLink string   `json:"notionLink,omitempty"`
	ProfilePic string   `json:"profilePic,omitempty"`
}

type MemberRegistration struct {
	Name       string   `json:"name"`
	Career     int      `json:"career"`
	Roles      []string `json:"roles"`
	Stacks     []string `json:"stacks"`
	Bio        string   `json:"bio,omitempty"`
	GithubLink string   `json:"githubLink,omitempty"`
	BlogLink   string   `json:"blogLink,omitempty"`
	NotionLink string   `json:"notionLink,omitempty"`
}
