package reddit

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const (
	// morechildren takes at most this many ids per request
	moreBatchSize = 100
	// a thread needing more requests than this is treated as incomplete
	maxMoreRequests = 50
)

type pendingMore struct {
	parent   string
	children []string
}

type treeBuilder struct {
	sub     *Submission
	byName  map[string]*Comment
	pending []pendingMore
	missed  bool
}

// LoadComments fetches the full comment tree of s, expanding every "load
// more comments" stub.
func (c *Client) LoadComments(ctx context.Context, s *Submission) error {
	params := url.Values{}
	params.Set("raw_json", "1")
	params.Set("limit", "500")

	var listings []listing
	if err := c.getJSON(ctx, "/comments/"+url.PathEscape(s.ID), params, &listings); err != nil {
		return errors.Wrapf(err, "could not find comments in %s", s.ID)
	}
	if len(listings) < 2 {
		return errors.Wrapf(ErrArchived, "comments response for %s has %d listings", s.ID, len(listings))
	}

	for _, child := range listings[0].Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var d linkData
		if err := json.Unmarshal(child.Data, &d); err == nil {
			s.fromLink(d)
		}
	}

	b := &treeBuilder{sub: s, byName: map[string]*Comment{}}
	s.Comments = nil
	for _, child := range listings[1].Data.Children {
		if err := b.add(child); err != nil {
			return err
		}
	}

	requests := 0
	for len(b.pending) > 0 {
		more := b.pending[0]
		b.pending = b.pending[1:]

		for start := 0; start < len(more.children); start += moreBatchSize {
			if requests >= maxMoreRequests {
				c.log.Warn().Str("submission", s.ID).Msg("too many comments to expand, giving up on the rest")
				b.missed = true
				b.pending = nil
				break
			}
			end := min(start+moreBatchSize, len(more.children))
			things, err := c.moreChildren(ctx, s.Name, more.children[start:end])
			requests++
			if err != nil {
				if s.Archived {
					return errors.Wrap(ErrArchived, err.Error())
				}
				return err
			}
			for _, t := range things {
				if err := b.add(t); err != nil {
					return err
				}
			}
		}
	}

	s.Loaded = true
	s.Complete = !b.missed
	return nil
}

func (c *Client) moreChildren(ctx context.Context, linkName string, ids []string) ([]thing, error) {
	params := url.Values{}
	params.Set("api_type", "json")
	params.Set("raw_json", "1")
	params.Set("link_id", linkName)
	params.Set("children", strings.Join(ids, ","))
	params.Set("limit_children", "false")

	var body jsonErrors
	if err := c.getJSON(ctx, "/api/morechildren", params, &body); err != nil {
		return nil, errors.Wrap(err, "could not expand comments")
	}
	if len(body.JSON.Errors) > 0 {
		return nil, errors.Errorf("could not expand comments: %v", body.JSON.Errors)
	}
	return body.JSON.Data.Things, nil
}

// add places a comment or "more" stub in the tree under its parent.
func (b *treeBuilder) add(t thing) error {
	switch t.Kind {
	case "t1":
		var d commentData
		if err := json.Unmarshal(t.Data, &d); err != nil {
			return errors.Wrap(err, "bad comment")
		}
		if _, seen := b.byName["t1_"+d.ID]; seen {
			return nil
		}
		c := newComment(d)
		if c.SubmissionID == "" {
			c.SubmissionID = b.sub.ID
		}
		b.attach(d.ParentID, c)
		b.byName[c.Name] = c

		if len(d.Replies) > 0 && d.Replies[0] == '{' {
			var replies listing
			if err := json.Unmarshal(d.Replies, &replies); err != nil {
				return errors.Wrap(err, "bad replies")
			}
			for _, r := range replies.Data.Children {
				if err := b.add(r); err != nil {
					return err
				}
			}
		}

	case "more":
		var d moreData
		if err := json.Unmarshal(t.Data, &d); err != nil {
			return errors.Wrap(err, "bad more stub")
		}
		if len(d.Children) == 0 {
			// "continue this thread" links need a separate request per
			// subtree; those comments are left out.
			if d.Count > 0 {
				b.missed = true
			}
			return nil
		}
		b.pending = append(b.pending, pendingMore{parent: d.ParentID, children: d.Children})
	}
	return nil
}

func (b *treeBuilder) attach(parent string, c *Comment) {
	if parent == "" || parent == b.sub.Name {
		b.sub.Comments = append(b.sub.Comments, c)
		return
	}
	if p, ok := b.byName[parent]; ok {
		p.Replies = append(p.Replies, c)
		return
	}
	b.missed = true
}
