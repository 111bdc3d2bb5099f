package jobsearch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/jobsearch/clients/go/jobsearch"
	"github.com/eldtechnologies/jobsearch/internal/api"
	"github.com/eldtechnologies/jobsearch/internal/chat"
	"github.com/eldtechnologies/jobsearch/internal/handlers"
	"github.com/eldtechnologies/jobsearch/internal/realtime"
	"github.com/eldtechnologies/jobsearch/internal/store"
)

func newClient(t *testing.T) *jobsearch.Client {
	t.Helper()
	s, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	logger := zerolog.Nop()
	hub := realtime.NewHub(logger)
	svc := chat.NewService(s, hub, 5*time.Second, logger)
	h := handlers.NewHandler(s, nil, svc, hub)
	gw := realtime.NewGateway(hub, svc, nil, realtime.Options{}, logger)

	srv := httptest.NewServer(api.NewRouter(logger, h, gw, nil, api.Options{}))
	t.Cleanup(srv.Close)
	return jobsearch.NewClient(srv.URL)
}

func register(t *testing.T, c *jobsearch.Client, first, role string) *jobsearch.User {
	t.Helper()
	u, err := c.Register(jobsearch.RegisterRequest{
		FirstName: first,
		LastName:  "Client",
		Email:     first + "@example.com",
		Password:  "correct horse",
		Role:      role,
	})
	require.NoError(t, err)
	return u
}

func nextEvent(t *testing.T, s *jobsearch.Socket) jobsearch.Event {
	t.Helper()
	type result struct {
		ev  jobsearch.Event
		err error
	}
	ch := make(chan result, 1)
	go func() {
		ev, err := s.Next()
		ch <- result{ev, err}
	}()
	select {
	case r := <-ch:
		require.NoError(t, r.err)
		return r.ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return jobsearch.Event{}
	}
}

func TestClientChat(t *testing.T) {
	c := newClient(t)
	hr := register(t, c, "hana", "HR")
	user := register(t, c, "paul", "")

	t.Run("should default the role to User", func(t *testing.T) {
		require.Equal(t, "User", user.Role)
		got, err := c.GetUser(user.ID)
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
	})

	t.Run("should surface api errors", func(t *testing.T) {
		req := require.New(t)
		_, err := c.SendMessage(user.ID, hr.ID, "hi")
		var apiErr *jobsearch.APIError
		req.True(errors.As(err, &apiErr))
		req.Equal(http.StatusForbidden, apiErr.Status)
		req.Equal("only HR or Company Owner can start a conversation", apiErr.Message)

		_, err = c.History(hr.ID, user.ID)
		req.True(errors.As(err, &apiErr))
		req.Equal(http.StatusNotFound, apiErr.Status)
	})

	t.Run("should send and read back a conversation", func(t *testing.T) {
		req := require.New(t)
		thread, err := c.SendMessage(hr.ID, user.ID, "hello")
		req.NoError(err)
		req.Len(thread.Messages, 1)

		thread, err = c.SendMessage(user.ID, hr.ID, "hi!")
		req.NoError(err)
		req.Len(thread.Messages, 2)

		history, err := c.History(user.ID, hr.ID)
		req.NoError(err)
		req.Len(history.Messages, 2)
		req.Equal("hana Client", history.Messages[0].Sender.Name)
		req.Equal("hi!", history.Messages[1].Message)
	})

	t.Run("should stream messages over the socket", func(t *testing.T) {
		req := require.New(t)
		sock, err := c.Connect(context.Background())
		req.NoError(err)
		defer sock.Close()

		req.NoError(sock.JoinRoom(user.ID, hr.ID))
		// Joins are not acknowledged; an error round trip orders the join
		// before the HTTP send below.
		req.NoError(sock.JoinJob(""))
		req.Equal(jobsearch.EventError, nextEvent(t, sock).Name)

		_, err = c.SendMessage(hr.ID, user.ID, "over the wire")
		req.NoError(err)

		ev := nextEvent(t, sock)
		msg, err := ev.ReceivedMessage()
		req.NoError(err)
		req.Equal(hr.ID, msg.SenderID)
		req.Equal("over the wire", msg.Message)
	})

	t.Run("should report socket send failures as error events", func(t *testing.T) {
		req := require.New(t)
		sock, err := c.Connect(context.Background())
		req.NoError(err)
		defer sock.Close()

		req.NoError(sock.Send(user.ID, user.ID, "me"))
		ev := nextEvent(t, sock)
		req.Equal(jobsearch.EventError, ev.Name)
		req.NotEmpty(ev.ErrorReason())
	})
}

func TestClientJobs(t *testing.T) {
	req := require.New(t)
	c := newClient(t)
	owner := register(t, c, "olga", "Company Owner")
	user := register(t, c, "una", "User")

	job, err := c.CreateJob(jobsearch.CreateJobRequest{
		AddedBy:        owner.ID,
		Title:          "Backend Engineer",
		Location:       "remotely",
		WorkingTime:    "full-time",
		SeniorityLevel: "Senior",
		Description:    "Go services",
	})
	req.NoError(err)

	sock, err := c.Connect(context.Background())
	req.NoError(err)
	defer sock.Close()
	req.NoError(sock.JoinJob(job.ID))
	req.NoError(sock.JoinJob(""))
	req.Equal(jobsearch.EventError, nextEvent(t, sock).Name)

	app, err := c.Apply(job.ID, user.ID)
	req.NoError(err)

	notified, err := nextEvent(t, sock).Application()
	req.NoError(err)
	req.Equal(app.ID, notified.ID)

	page, err := c.ListApplications(job.ID, 10, 0)
	req.NoError(err)
	req.Equal(1, page.Total)

	decided, err := c.SetApplicationStatus(app.ID, owner.ID, "accepted")
	req.NoError(err)
	req.Equal("accepted", decided.Status)
	pushed, err := nextEvent(t, sock).Application()
	req.NoError(err)
	req.Equal("accepted", pushed.Status)

	_, err = c.SetApplicationStatus(app.ID, owner.ID, "rejected")
	var apiErr *jobsearch.APIError
	req.True(errors.As(err, &apiErr))
	req.Equal(http.StatusConflict, apiErr.Status)

	_, err = c.SetBanned(user.ID, true)
	req.NoError(err)
	banned, err := c.GetUser(user.ID)
	req.NoError(err)
	req.NotNil(banned.BannedAt)
}

func TestNewClientDefaults(t *testing.T) {
	c := jobsearch.NewClient("")
	require.Equal(t, jobsearch.DefaultURL, c.BaseURL)
	require.NotNil(t, c.HTTPClient)
}

func TestClientCompanies(t *testing.T) {
	req := require.New(t)
	c := newClient(t)
	owner := register(t, c, "olga", "Company Owner")

	company, err := c.CreateCompany(jobsearch.CreateCompanyRequest{
		CreatedBy:         owner.ID,
		Name:              "Acme Labs",
		Description:       "rockets",
		Industry:          "aerospace",
		Address:           "Desert Road 1",
		NumberOfEmployees: "11-20",
		Email:             "hello@acme.test",
	})
	req.NoError(err)
	req.False(company.Approved)

	newJob := jobsearch.CreateJobRequest{
		AddedBy:         owner.ID,
		Title:           "Rocket Engineer",
		Location:        "onsite",
		WorkingTime:     "full-time",
		SeniorityLevel:  "Senior",
		Description:     "Go to space",
		TechnicalSkills: []string{"go", "c"},
		CompanyID:       company.ID,
	}
	_, err = c.CreateJob(newJob)
	var apiErr *jobsearch.APIError
	req.True(errors.As(err, &apiErr))
	req.Equal(http.StatusForbidden, apiErr.Status)

	approved, err := c.ApproveCompany(company.ID)
	req.NoError(err)
	req.True(approved.Approved)

	job, err := c.CreateJob(newJob)
	req.NoError(err)
	req.Equal(company.ID, job.CompanyID)

	got, err := c.GetCompany(company.ID)
	req.NoError(err)
	req.Len(got.Jobs, 1)

	found, err := c.SearchJobs(jobsearch.JobQuery{Title: "rocket", TechnicalSkills: []string{"c"}})
	req.NoError(err)
	req.Equal(1, found.Total)
	req.Equal(job.ID, found.Jobs[0].ID)

	none, err := c.SearchJobs(jobsearch.JobQuery{WorkingTime: "part-time"})
	req.NoError(err)
	req.Zero(none.Total)
	req.Empty(none.Jobs)
}
