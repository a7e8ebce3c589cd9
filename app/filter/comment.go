package filter

import (
	"github.com/umputun/form-spam/app/storage"
	"github.com/umputun/form-spam/lib/spamcheck"
)

// CommentEntry is a blog comment to check
type CommentEntry struct {
	PostID    string `json:"post_id"`
	Author    string `json:"author"`
	Email     string `json:"email"`
	URL       string `json:"url"`
	Content   string `json:"content"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
}

// Request makes a comment submission request. Empty fields are not included.
func (c CommentEntry) Request() spamcheck.Request {
	sub := spamcheck.Submission{}
	add := func(key, val string) {
		if val != "" {
			sub = append(sub, spamcheck.Field{Key: key, Value: val})
		}
	}
	add("author", c.Author)
	add("email", c.Email)
	add("url", c.URL)
	add("comment", c.Content)

	return spamcheck.Request{
		Submission: sub,
		Caller:     c.IP,
		Meta:       spamcheck.MetaData{Type: storage.TypeComment, FormID: c.PostID, UserAgent: c.UserAgent},
	}
}
