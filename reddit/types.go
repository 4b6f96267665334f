// Package reddit is a small client for the parts of the reddit api the bot
// uses: listing new submissions, reading comment trees and replying.
package reddit

import (
	"encoding/json"
)

// Submission is a snapshot of a post. Comments holds the top-level
// comments once LoadComments has run.
type Submission struct {
	ID        string
	Name      string // fullname, "t3_" + ID
	Title     string
	URL       string
	Permalink string
	Archived  bool
	Comments  []*Comment
	// Loaded is set once LoadComments has run. Complete is false when some
	// "load more comments" stubs could not be expanded.
	Loaded   bool
	Complete bool
}

type Comment struct {
	ID           string
	Name         string
	SubmissionID string
	Author       string // empty when the account was deleted
	Body         string
	Replies      []*Comment
}

// Flatten returns every comment of the submission, depth first.
func (s *Submission) Flatten() []*Comment {
	var all []*Comment
	var walk func([]*Comment)
	walk = func(cs []*Comment) {
		for _, c := range cs {
			all = append(all, c)
			walk(c.Replies)
		}
	}
	walk(s.Comments)
	return all
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type linkData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Permalink string `json:"permalink"`
	Archived  bool   `json:"archived"`
}

type commentData struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Author   string          `json:"author"`
	Body     string          `json:"body"`
	ParentID string          `json:"parent_id"`
	LinkID   string          `json:"link_id"`
	Replies  json.RawMessage `json:"replies"`
}

type moreData struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ParentID string   `json:"parent_id"`
	Count    int      `json:"count"`
	Children []string `json:"children"`
}

type jsonErrors struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			Things []thing `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

func (s *Submission) fromLink(d linkData) {
	s.ID = d.ID
	s.Name = d.Name
	if s.Name == "" {
		s.Name = "t3_" + d.ID
	}
	s.Title = d.Title
	s.URL = d.URL
	s.Permalink = d.Permalink
	s.Archived = d.Archived
}

func newComment(d commentData) *Comment {
	author := d.Author
	if author == "[deleted]" {
		author = ""
	}
	name := d.Name
	if name == "" {
		name = "t1_" + d.ID
	}
	return &Comment{
		ID:           d.ID,
		Name:         name,
		SubmissionID: trimKind(d.LinkID),
		Author:       author,
		Body:         d.Body,
	}
}

func trimKind(fullname string) string {
	if len(fullname) > 3 && fullname[2] == '_' {
		return fullname[3:]
	}
	return fullname
}
