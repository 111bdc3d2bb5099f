package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/models"
	"github.com/eldtechnologies/jobsearch/internal/room"
)

// runDataStoreContract exercises behaviour every backend must share. Each
// subtest uses its own participant ids so backends that persist between runs
// stay isolated.
func runDataStoreContract(t *testing.T, s DataStore, prefix string) {
	ctx := context.Background()

	t.Run("find returns nil for unknown pair", func(t *testing.T) {
		thread, err := s.FindThread(ctx, room.NewPair(prefix+"nobody1", prefix+"nobody2"))
		require.NoError(t, err)
		require.Nil(t, thread)
	})

	t.Run("find or create is order independent", func(t *testing.T) {
		req := require.New(t)
		a, b := prefix+"hr1", prefix+"user1"

		first, created, err := s.FindOrCreateThread(ctx, room.NewPair(a, b), a)
		req.NoError(err)
		req.True(created)
		req.Equal(a, first.SenderID)
		req.Equal(b, first.ReceiverID)
		req.Equal(string(room.NewPair(a, b).ID()), first.PairKey)
		req.Empty(first.Messages)

		second, created, err := s.FindOrCreateThread(ctx, room.NewPair(b, a), b)
		req.NoError(err)
		req.False(created)
		req.Equal(first.ID, second.ID)
		req.Equal(a, second.SenderID)

		found, err := s.FindThread(ctx, room.NewPair(b, a))
		req.NoError(err)
		req.Equal(first.ID, found.ID)

		again, err := s.CreateThread(ctx, room.NewPair(a, b), a)
		req.NoError(err)
		req.Equal(first.ID, again.ID)
	})

	t.Run("concurrent first contact creates one thread", func(t *testing.T) {
		a, b := prefix+"hr2", prefix+"user2"
		const workers = 16

		var wg sync.WaitGroup
		ids := make([]string, workers)
		createdCount := make([]bool, workers)
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sender, receiver := a, b
				if i%2 == 1 {
					sender, receiver = b, a
				}
				thread, created, err := s.FindOrCreateThread(ctx, room.NewPair(sender, receiver), sender)
				errs[i] = err
				if err == nil {
					ids[i] = thread.ID
					createdCount[i] = created
				}
			}(i)
		}
		wg.Wait()

		creations := 0
		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i])
			require.Equal(t, ids[0], ids[i])
			if createdCount[i] {
				creations++
			}
		}
		require.Equal(t, 1, creations)
	})

	t.Run("append keeps order and count", func(t *testing.T) {
		req := require.New(t)
		a, b := prefix+"hr3", prefix+"user3"

		thread, _, err := s.FindOrCreateThread(ctx, room.NewPair(a, b), a)
		req.NoError(err)

		const n = 10
		for i := 0; i < n; i++ {
			sender := a
			if i%2 == 1 {
				sender = b
			}
			updated, msg, err := s.AppendMessage(ctx, thread.ID, sender, fmt.Sprintf("message %d", i))
			req.NoError(err)
			req.NotEmpty(msg.ID)
			req.False(msg.SentAt.IsZero())
			req.Len(updated.Messages, i+1)
			req.Equal(msg.ID, updated.Messages[i].ID)
		}

		found, err := s.FindThread(ctx, room.NewPair(b, a))
		req.NoError(err)
		req.Len(found.Messages, n)
		for i, m := range found.Messages {
			req.Equal(fmt.Sprintf("message %d", i), m.Body)
		}
	})

	t.Run("concurrent appends lose nothing", func(t *testing.T) {
		req := require.New(t)
		a, b := prefix+"hr4", prefix+"user4"

		thread, _, err := s.FindOrCreateThread(ctx, room.NewPair(a, b), a)
		req.NoError(err)

		const n = 20
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, errs[i] = s.AppendMessage(ctx, thread.ID, a, fmt.Sprintf("m%d", i))
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			req.NoError(err)
		}

		found, err := s.FindThread(ctx, room.NewPair(a, b))
		req.NoError(err)
		req.Len(found.Messages, n)
	})

	t.Run("append to unknown thread is not found", func(t *testing.T) {
		_, _, err := s.AppendMessage(ctx, "000000000000000000000000", prefix+"x", "hello")
		require.Error(t, err)
		require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	t.Run("users", func(t *testing.T) {
		req := require.New(t)
		user := &models.User{
			FirstName:    "Hana",
			LastName:     "Recruiter",
			Email:        prefix + "hana@example.com",
			PasswordHash: "hash",
			Role:         models.RoleHR,
		}
		req.NoError(s.CreateUser(ctx, user))
		req.NotEmpty(user.ID)

		got, err := s.GetUser(ctx, user.ID)
		req.NoError(err)
		req.Equal("Hana Recruiter", got.DisplayName())
		req.Equal(models.RoleHR, got.Role)
		req.False(got.IsBanned())

		byEmail, err := s.GetUserByEmail(ctx, user.Email)
		req.NoError(err)
		req.Equal(user.ID, byEmail.ID)

		dup := &models.User{FirstName: "A", LastName: "B", Email: user.Email, Role: models.RoleUser}
		err = s.CreateUser(ctx, dup)
		req.Equal(apperr.CodeConflict, apperr.CodeOf(err))

		banned, err := s.SetUserBanned(ctx, user.ID, true)
		req.NoError(err)
		req.True(banned.IsBanned())

		unbanned, err := s.SetUserBanned(ctx, user.ID, false)
		req.NoError(err)
		req.False(unbanned.IsBanned())

		missing, err := s.GetUser(ctx, prefix+"missing")
		req.NoError(err)
		req.Nil(missing)

		missingBan, err := s.SetUserBanned(ctx, prefix+"missing", true)
		req.NoError(err)
		req.Nil(missingBan)
	})

	t.Run("jobs and applications", func(t *testing.T) {
		req := require.New(t)
		job := &models.Job{
			Title:           "Backend Engineer",
			Location:        "remotely",
			WorkingTime:     "full-time",
			SeniorityLevel:  "Senior",
			Description:     "Go services",
			TechnicalSkills: []string{"go", "postgres"},
			AddedBy:         prefix + "hr5",
		}
		req.NoError(s.CreateJob(ctx, job))
		req.NotEmpty(job.ID)

		got, err := s.GetJob(ctx, job.ID)
		req.NoError(err)
		req.Equal("Backend Engineer", got.Title)
		req.Equal([]string{"go", "postgres"}, got.TechnicalSkills)
		req.Empty(got.SoftSkills)

		for i := 0; i < 3; i++ {
			app := &models.Application{JobID: job.ID, UserID: fmt.Sprintf("%sapplicant%d", prefix, i)}
			req.NoError(s.CreateApplication(ctx, app))
			req.Equal(models.ApplicationPending, app.Status)
		}

		page, total, err := s.ListApplications(ctx, job.ID, 2, 0)
		req.NoError(err)
		req.Equal(3, total)
		req.Len(page, 2)

		rest, _, err := s.ListApplications(ctx, job.ID, 2, 2)
		req.NoError(err)
		req.Len(rest, 1)

		none, err := s.GetJob(ctx, prefix+"missing-job")
		req.NoError(err)
		req.Nil(none)
	})

	t.Run("job update search and delete", func(t *testing.T) {
		req := require.New(t)
		company := prefix + "company-jobs"
		mk := func(title, workingTime string, skills ...string) *models.Job {
			job := &models.Job{
				Title:           title,
				Location:        "remotely",
				WorkingTime:     workingTime,
				SeniorityLevel:  "Junior",
				Description:     "desc",
				TechnicalSkills: skills,
				AddedBy:         prefix + "owner6",
				CompanyID:       company,
			}
			req.NoError(s.CreateJob(ctx, job))
			return job
		}
		goJob := mk("Go Developer", "full-time", "go", "redis")
		mk("Frontend Developer (100%_remote)", "part-time", "react")
		mk("Data Engineer", "full-time", "python", "go")

		all, total, err := s.SearchJobs(ctx, JobFilter{CompanyID: company, Limit: 10})
		req.NoError(err)
		req.Equal(3, total)
		req.Len(all, 3)
		for _, job := range all {
			req.Equal(company, job.CompanyID)
		}

		byTitle, total, err := s.SearchJobs(ctx, JobFilter{CompanyID: company, Title: "DEVELOPER", Limit: 10})
		req.NoError(err)
		req.Equal(2, total)
		req.Len(byTitle, 2)

		literal, total, err := s.SearchJobs(ctx, JobFilter{CompanyID: company, Title: "100%_", Limit: 10})
		req.NoError(err)
		req.Equal(1, total)
		req.Equal("part-time", literal[0].WorkingTime)

		bySkill, total, err := s.SearchJobs(ctx, JobFilter{CompanyID: company, Skills: []string{"go", "rust"}, Limit: 10})
		req.NoError(err)
		req.Equal(2, total)
		req.Len(bySkill, 2)

		combined, total, err := s.SearchJobs(ctx, JobFilter{
			CompanyID:   company,
			WorkingTime: "full-time",
			Skills:      []string{"python"},
			Limit:       10,
		})
		req.NoError(err)
		req.Equal(1, total)
		req.Equal("Data Engineer", combined[0].Title)

		page, total, err := s.SearchJobs(ctx, JobFilter{CompanyID: company, Limit: 1, Offset: 1})
		req.NoError(err)
		req.Equal(3, total)
		req.Len(page, 1)

		goJob.Title = "Senior Go Developer"
		goJob.Closed = true
		goJob.UpdatedBy = goJob.AddedBy
		req.NoError(s.UpdateJob(ctx, goJob))
		updated, err := s.GetJob(ctx, goJob.ID)
		req.NoError(err)
		req.Equal("Senior Go Developer", updated.Title)
		req.True(updated.Closed)
		req.Equal(goJob.AddedBy, updated.UpdatedBy)

		missing := &models.Job{ID: prefix + "missing-job"}
		req.Equal(apperr.CodeNotFound, apperr.CodeOf(s.UpdateJob(ctx, missing)))

		app := &models.Application{JobID: goJob.ID, UserID: prefix + "applicant6"}
		req.NoError(s.CreateApplication(ctx, app))

		deleted, err := s.DeleteJob(ctx, goJob.ID)
		req.NoError(err)
		req.True(deleted)
		gone, err := s.GetJob(ctx, goJob.ID)
		req.NoError(err)
		req.Nil(gone)
		orphan, err := s.GetApplication(ctx, app.ID)
		req.NoError(err)
		req.Nil(orphan)

		deleted, err = s.DeleteJob(ctx, goJob.ID)
		req.NoError(err)
		req.False(deleted)
	})

	t.Run("application status compare and set", func(t *testing.T) {
		req := require.New(t)
		job := &models.Job{Title: "QA", Location: "onsite", WorkingTime: "full-time",
			SeniorityLevel: "Mid-Level", Description: "tests", AddedBy: prefix + "hr7"}
		req.NoError(s.CreateJob(ctx, job))
		app := &models.Application{JobID: job.ID, UserID: prefix + "applicant7"}
		req.NoError(s.CreateApplication(ctx, app))

		got, err := s.GetApplication(ctx, app.ID)
		req.NoError(err)
		req.Equal(models.ApplicationPending, got.Status)

		moved, err := s.UpdateApplicationStatus(ctx, app.ID, models.ApplicationPending, models.ApplicationViewed)
		req.NoError(err)
		req.Equal(models.ApplicationViewed, moved.Status)
		req.False(moved.UpdatedAt.Before(got.UpdatedAt))

		stale, err := s.UpdateApplicationStatus(ctx, app.ID, models.ApplicationPending, models.ApplicationAccepted)
		req.NoError(err)
		req.Nil(stale)

		missing, err := s.UpdateApplicationStatus(ctx, prefix+"missing-app", models.ApplicationPending, models.ApplicationViewed)
		req.NoError(err)
		req.Nil(missing)

		none, err := s.GetApplication(ctx, prefix+"missing-app")
		req.NoError(err)
		req.Nil(none)
	})

	t.Run("companies", func(t *testing.T) {
		req := require.New(t)
		c := &models.Company{
			Name:              prefix + "Acme Labs",
			Description:       "rockets",
			Industry:          "aerospace",
			Address:           "Desert Road 1",
			NumberOfEmployees: "11-20",
			Email:             prefix + "hello@acme.test",
			CreatedBy:         prefix + "owner8",
		}
		req.NoError(s.CreateCompany(ctx, c))
		req.NotEmpty(c.ID)

		got, err := s.GetCompany(ctx, c.ID)
		req.NoError(err)
		req.Equal(c.Name, got.Name)
		req.False(got.CanHire())

		dupName := *c
		dupName.ID, dupName.Email = "", prefix+"other@acme.test"
		req.Equal(apperr.CodeConflict, apperr.CodeOf(s.CreateCompany(ctx, &dupName)))
		dupEmail := *c
		dupEmail.ID, dupEmail.Name = "", prefix+"Other Labs"
		req.Equal(apperr.CodeConflict, apperr.CodeOf(s.CreateCompany(ctx, &dupEmail)))

		got.Approved = true
		got.Industry = "space"
		req.NoError(s.UpdateCompany(ctx, got))
		approved, err := s.GetCompany(ctx, c.ID)
		req.NoError(err)
		req.True(approved.CanHire())
		req.Equal("space", approved.Industry)

		found, err := s.SearchCompanies(ctx, strings.ToUpper(prefix+"acme"), 10)
		req.NoError(err)
		req.Len(found, 1)
		req.Equal(c.ID, found[0].ID)

		now := time.Now().UTC()
		approved.BannedAt = &now
		approved.DeletedAt = &now
		req.NoError(s.UpdateCompany(ctx, approved))
		deleted, err := s.GetCompany(ctx, c.ID)
		req.NoError(err)
		req.True(deleted.IsBanned())
		req.True(deleted.IsDeleted())
		req.False(deleted.CanHire())

		found, err = s.SearchCompanies(ctx, prefix+"acme", 10)
		req.NoError(err)
		req.Empty(found)

		missing, err := s.GetCompany(ctx, prefix+"missing-company")
		req.NoError(err)
		req.Nil(missing)
		req.Equal(apperr.CodeNotFound, apperr.CodeOf(s.UpdateCompany(ctx, &models.Company{ID: prefix + "missing-company"})))
	})
}
