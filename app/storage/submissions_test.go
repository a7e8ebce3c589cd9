package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/umputun/form-spam/lib/spamcheck"
)

func (s *StorageTestSuite) TestSubmissions_New() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			_, err := NewSubmissions(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE submissions")

			var count int
			s.Require().NoError(db.Get(&count, "SELECT COUNT(*) FROM submissions"))
			s.Equal(0, count)

			_, err = NewSubmissions(ctx, db)
			s.Require().NoError(err, "init is idempotent")
		})
	}

	_, err := NewSubmissions(ctx, nil)
	s.Require().EqualError(err, "db connection is nil")
}

func (s *StorageTestSuite) TestSubmissions_AddGet() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			subs, err := NewSubmissions(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE submissions")

			content := spamcheck.Submission{{Key: "name", Value: "John"}, {Key: "message", Value: "buy now"}}
			heuristic := spamcheck.Result{Score: 0.7, Spam: true, Checks: []spamcheck.CheckResult{
				{Name: "phrase_check", Score: 0.7, Reasons: []string{"Contains spam phrase: buy now"}}}}
			added, err := subs.Add(ctx, Submission{
				FormID:    "contact",
				IP:        "10.0.0.1",
				UserAgent: "curl/8",
				Content:   content,
				Text:      "John\nbuy now",
				Score:     0.7,
				Spam:      true,
				Method:    "heuristic",
				Details:   spamcheck.Stages{Heuristic: &heuristic},
			})
			s.Require().NoError(err)
			s.Len(added.ID, 36, "uuid assigned")
			s.Equal(TypeForm, added.Type)
			s.False(added.CreatedAt.IsZero())

			got, err := subs.Get(ctx, added.ID)
			s.Require().NoError(err)
			s.Equal(added.ID, got.ID)
			s.Equal("contact", got.FormID)
			s.Equal("10.0.0.1", got.IP)
			s.Equal("curl/8", got.UserAgent)
			s.Equal(content, got.Content)
			s.Equal("John\nbuy now", got.Text)
			s.InDelta(0.7, got.Score, 0.0001)
			s.True(got.Spam)
			s.False(got.EmailSent)
			s.Equal("heuristic", got.Method)
			s.Require().NotNil(got.Details.Heuristic)
			s.Equal(heuristic.Checks, got.Details.Heuristic.Checks)
			s.Nil(got.Details.Remote)
			s.WithinDuration(added.CreatedAt, got.CreatedAt, time.Second)

			_, err = subs.Get(ctx, "missing")
			s.ErrorIs(err, ErrNotFound)

			_, err = subs.Add(ctx, Submission{ID: added.ID, Content: content})
			s.Error(err, "duplicate id rejected")
		})
	}
}

func (s *StorageTestSuite) TestSubmissions_GroupIsolation() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			subs, err := NewSubmissions(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE submissions")

			added, err := subs.Add(ctx, Submission{Content: spamcheck.Submission{{Key: "a", Value: "b"}}})
			s.Require().NoError(err)

			other := &Submissions{SQL: db.WithGID("other"), RWLocker: db.MakeLock()}
			_, err = other.Get(ctx, added.ID)
			s.ErrorIs(err, ErrNotFound)
			s.ErrorIs(other.Delete(ctx, added.ID), ErrNotFound)

			list, total, err := other.List(ctx, ListRequest{})
			s.Require().NoError(err)
			s.Empty(list)
			s.Equal(0, total)
		})
	}
}

func (s *StorageTestSuite) TestSubmissions_List() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			subs, err := NewSubmissions(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE submissions")

			now := time.Now()
			for i := range 5 {
				typ := TypeForm
				if i%2 == 1 {
					typ = TypeComment
				}
				_, err = subs.Add(ctx, Submission{
					ID:        fmt.Sprintf("id-%d", i),
					Type:      typ,
					Content:   spamcheck.Submission{{Key: "n", Value: fmt.Sprintf("%d", i)}},
					Spam:      i < 2,
					CreatedAt: now.Add(time.Duration(i) * time.Minute),
				})
				s.Require().NoError(err)
			}

			list, total, err := subs.List(ctx, ListRequest{})
			s.Require().NoError(err)
			s.Equal(5, total)
			s.Require().Len(list, 5)
			s.Equal("id-4", list[0].ID, "newest first")
			s.Equal("id-0", list[4].ID)

			spam := true
			list, total, err = subs.List(ctx, ListRequest{Spam: &spam})
			s.Require().NoError(err)
			s.Equal(2, total)
			s.Equal([]string{"id-1", "id-0"}, ids(list))

			notSpam := false
			list, total, err = subs.List(ctx, ListRequest{Spam: &notSpam, Type: TypeForm})
			s.Require().NoError(err)
			s.Equal(2, total)
			s.Equal([]string{"id-4", "id-2"}, ids(list))

			list, total, err = subs.List(ctx, ListRequest{Limit: 2, Offset: 1})
			s.Require().NoError(err)
			s.Equal(5, total, "total ignores pagination")
			s.Equal([]string{"id-3", "id-2"}, ids(list))
		})
	}
}

func (s *StorageTestSuite) TestSubmissions_Update() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			subs, err := NewSubmissions(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE submissions")

			added, err := subs.Add(ctx, Submission{Content: spamcheck.Submission{{Key: "m", Value: "hi"}}})
			s.Require().NoError(err)

			s.Require().NoError(subs.SetSpam(ctx, added.ID, true))
			got, err := subs.Get(ctx, added.ID)
			s.Require().NoError(err)
			s.True(got.Spam)

			s.Require().NoError(subs.SetSpam(ctx, added.ID, false))
			got, err = subs.Get(ctx, added.ID)
			s.Require().NoError(err)
			s.False(got.Spam)

			s.Require().NoError(subs.MarkEmailSent(ctx, added.ID))
			got, err = subs.Get(ctx, added.ID)
			s.Require().NoError(err)
			s.True(got.EmailSent)

			s.ErrorIs(subs.SetSpam(ctx, "missing", true), ErrNotFound)
			s.ErrorIs(subs.MarkEmailSent(ctx, "missing"), ErrNotFound)

			s.Require().NoError(subs.Delete(ctx, added.ID))
			_, err = subs.Get(ctx, added.ID)
			s.ErrorIs(err, ErrNotFound)
			s.ErrorIs(subs.Delete(ctx, added.ID), ErrNotFound)
		})
	}
}

func (s *StorageTestSuite) TestSubmissions_Cleanup() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			subs, err := NewSubmissions(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE submissions")

			content := spamcheck.Submission{{Key: "m", Value: "hi"}}
			_, err = subs.Add(ctx, Submission{ID: "old", Content: content, CreatedAt: time.Now().AddDate(0, 0, -40)})
			s.Require().NoError(err)
			_, err = subs.Add(ctx, Submission{ID: "new", Content: content, CreatedAt: time.Now().AddDate(0, 0, -1)})
			s.Require().NoError(err)

			n, err := subs.Cleanup(ctx, 30*24*time.Hour)
			s.Require().NoError(err)
			s.Equal(int64(1), n)

			list, _, err := subs.List(ctx, ListRequest{})
			s.Require().NoError(err)
			s.Equal([]string{"new"}, ids(list))

			_, err = subs.Cleanup(ctx, 0)
			s.Error(err)
		})
	}
}

func (s *StorageTestSuite) TestSubmissions_Stats() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			subs, err := NewSubmissions(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE submissions")

			st, err := subs.Stats(ctx, 0)
			s.Require().NoError(err)
			s.Equal(Stats{ByType: []TypeStat{}, DailyTrend: []DailyStat{}}, st, "empty storage")

			content := spamcheck.Submission{{Key: "m", Value: "hi"}}
			day := func(n int) time.Time { return time.Now().UTC().Truncate(24*time.Hour).Add(12*time.Hour).AddDate(0, 0, -n) }
			records := []Submission{
				{ID: "1", Type: TypeForm, Spam: true, CreatedAt: day(1)},
				{ID: "2", Type: TypeForm, Spam: false, CreatedAt: day(1)},
				{ID: "3", Type: TypeComment, Spam: true, CreatedAt: day(2)},
				{ID: "4", Type: TypeForm, Spam: false, CreatedAt: day(2)},
				{ID: "5", Type: TypeForm, Spam: false, CreatedAt: day(100)},
			}
			for _, r := range records {
				r.Content = content
				_, err = subs.Add(ctx, r)
				s.Require().NoError(err)
			}

			st, err = subs.Stats(ctx, 0)
			s.Require().NoError(err)
			s.Equal(5, st.Total)
			s.Equal(2, st.Spam)
			s.Equal(3, st.Normal)
			s.Equal([]TypeStat{{Type: TypeForm, Count: 4}, {Type: TypeComment, Count: 1}}, st.ByType)
			s.Len(st.DailyTrend, 3)

			st, err = subs.Stats(ctx, 7)
			s.Require().NoError(err)
			s.Equal(4, st.Total)
			s.Equal(2, st.Spam)
			s.Equal(2, st.Normal)
			s.Equal([]DailyStat{
				{Date: day(2).Format("2006-01-02"), Total: 2, Normal: 1, Spam: 1},
				{Date: day(1).Format("2006-01-02"), Total: 2, Normal: 1, Spam: 1},
			}, st.DailyTrend)

			st, err = subs.Stats(ctx, 1000)
			s.Require().NoError(err)
			s.Equal(5, st.Total, "out of range window means all-time")
		})
	}
}

func ids(list []Submission) []string {
	res := make([]string, 0, len(list))
	for _, s := range list {
		res = append(res, s.ID)
	}
	return res
}
