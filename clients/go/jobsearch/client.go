// Package jobsearch provides a client for the jobsearch chat and jobs API.
package jobsearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultURL is used when no base URL is given.
const DefaultURL = "http://localhost:3000"

// Client is a jobsearch API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new jobsearch client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jobsearch error %d: %s", e.Status, e.Message)
}

// doRequest performs an HTTP request and decodes a JSON response into out.
func (c *Client) doRequest(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		return &APIError{Status: resp.StatusCode, Message: errResp.Error}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// Message is one entry in a thread.
type Message struct {
	ID       string    `json:"id"`
	SenderID string    `json:"senderId"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sentAt"`
}

// Thread is the conversation between two users.
type Thread struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Messages   []Message `json:"messages"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SendMessageRequest is the request body for sending a message.
type SendMessageRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

// SendMessage appends a message to the thread between sender and receiver,
// creating the thread if the sender is allowed to start one.
func (c *Client) SendMessage(senderID, receiverID, message string) (*Thread, error) {
	var resp Thread
	err := c.doRequest(http.MethodPost, "/api/chat", SendMessageRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    message,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Participant is a resolved thread member.
type Participant struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Name      string `json:"name,omitempty"`
}

// HistoryMessage is a message with its sender resolved.
type HistoryMessage struct {
	ID      string      `json:"id"`
	Sender  Participant `json:"sender"`
	Message string      `json:"message"`
	SentAt  time.Time   `json:"sentAt"`
}

// History is a thread with display names.
type History struct {
	ID        string           `json:"id"`
	RoomID    string           `json:"roomId"`
	Sender    Participant      `json:"sender"`
	Receiver  Participant      `json:"receiver"`
	Messages  []HistoryMessage `json:"messages"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// History fetches the thread between userID and otherID.
func (c *Client) History(userID, otherID string) (*History, error) {
	path := fmt.Sprintf("/api/chat/history/%s?senderId=%s", url.PathEscape(userID), url.QueryEscape(otherID))

	var resp struct {
		Chat *History `json:"chat"`
	}
	if err := c.doRequest(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chat, nil
}

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role,omitempty"`
}

// User is a public user profile.
type User struct {
	ID        string     `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	BannedAt  *time.Time `json:"bannedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Register creates a user account.
func (c *Client) Register(req RegisterRequest) (*User, error) {
	var resp User
	if err := c.doRequest(http.MethodPost, "/api/users", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUser gets a user's profile.
func (c *Client) GetUser(userID string) (*User, error) {
	var resp User
	if err := c.doRequest(http.MethodGet, "/api/users/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetBanned bans or unbans a user.
func (c *Client) SetBanned(userID string, banned bool) (*User, error) {
	var resp User
	path := "/api/admin/users/" + url.PathEscape(userID) + "/ban"
	if err := c.doRequest(http.MethodPut, path, map[string]bool{"banned": banned}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateJobRequest is the request body for posting a job.
type CreateJobRequest struct {
	AddedBy         string   `json:"addedBy"`
	Title           string   `json:"jobTitle"`
	Location        string   `json:"jobLocation"`
	WorkingTime     string   `json:"workingTime"`
	SeniorityLevel  string   `json:"seniorityLevel"`
	Description     string   `json:"jobDescription"`
	TechnicalSkills []string `json:"technicalSkills,omitempty"`
	SoftSkills      []string `json:"softSkills,omitempty"`
	CompanyID       string   `json:"company,omitempty"`
}

// Job is a job posting.
type Job struct {
	ID              string    `json:"id"`
	Title           string    `json:"jobTitle"`
	Location        string    `json:"jobLocation"`
	WorkingTime     string    `json:"workingTime"`
	SeniorityLevel  string    `json:"seniorityLevel"`
	Description     string    `json:"jobDescription"`
	TechnicalSkills []string  `json:"technicalSkills"`
	SoftSkills      []string  `json:"softSkills"`
	AddedBy         string    `json:"addedBy"`
	UpdatedBy       string    `json:"updatedBy,omitempty"`
	CompanyID       string    `json:"company,omitempty"`
	Closed          bool      `json:"closed"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreateJob posts a job.
func (c *Client) CreateJob(req CreateJobRequest) (*Job, error) {
	var resp Job
	if err := c.doRequest(http.MethodPost, "/api/jobs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetJob gets a job posting.
func (c *Client) GetJob(jobID string) (*Job, error) {
	var resp Job
	if err := c.doRequest(http.MethodGet, "/api/jobs/"+url.PathEscape(jobID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Application is a user's application to a job.
type Application struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Apply submits an application for userID.
func (c *Client) Apply(jobID, userID string) (*Application, error) {
	var resp Application
	path := "/api/jobs/" + url.PathEscape(jobID) + "/apply"
	if err := c.doRequest(http.MethodPost, path, map[string]string{"userId": userID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ApplicationsResponse is a page of applications.
type ApplicationsResponse struct {
	Applications []Application `json:"applications"`
	Total        int           `json:"total"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}

// ListApplications lists applications to a job.
func (c *Client) ListApplications(jobID string, limit, offset int) (*ApplicationsResponse, error) {
	path := fmt.Sprintf("/api/jobs/%s/applications?limit=%d&offset=%d", url.PathEscape(jobID), limit, offset)

	var resp ApplicationsResponse
	if err := c.doRequest(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetApplicationStatus moves an application to status on behalf of a
// recruiter. Statuses only move forward.
func (c *Client) SetApplicationStatus(applicationID, userID, status string) (*Application, error) {
	var resp Application
	path := "/api/jobs/applications/" + url.PathEscape(applicationID)
	body := map[string]string{"userId": userID, "status": status}
	if err := c.doRequest(http.MethodPut, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobQuery filters a job search. Zero fields are ignored.
type JobQuery struct {
	WorkingTime     string
	Location        string
	SeniorityLevel  string
	Title           string
	TechnicalSkills []string
	Limit           int
	Offset          int
}

// JobsResponse is a page of jobs.
type JobsResponse struct {
	Jobs   []Job `json:"jobs"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// SearchJobs lists jobs matching q, oldest first.
func (c *Client) SearchJobs(q JobQuery) (*JobsResponse, error) {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("workingTime", q.WorkingTime)
	set("jobLocation", q.Location)
	set("seniorityLevel", q.SeniorityLevel)
	set("jobTitle", q.Title)
	set("technicalSkills", strings.Join(q.TechnicalSkills, ","))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}

	var resp JobsResponse
	if err := c.doRequest(http.MethodGet, "/api/jobs/search?"+v.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateCompanyRequest is the request body for registering a company.
type CreateCompanyRequest struct {
	CreatedBy         string `json:"createdBy"`
	Name              string `json:"companyName"`
	Description       string `json:"description"`
	Industry          string `json:"industry"`
	Address           string `json:"address"`
	NumberOfEmployees string `json:"numberOfEmployees"`
	Email             string `json:"companyEmail"`
}

// Company is an employer profile.
type Company struct {
	ID                string     `json:"id"`
	Name              string     `json:"companyName"`
	Description       string     `json:"description"`
	Industry          string     `json:"industry"`
	Address           string     `json:"address"`
	NumberOfEmployees string     `json:"numberOfEmployees"`
	Email             string     `json:"companyEmail"`
	CreatedBy         string     `json:"createdBy"`
	Approved          bool       `json:"approvedByAdmin"`
	BannedAt          *time.Time `json:"bannedAt,omitempty"`
	DeletedAt         *time.Time `json:"deletedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// CreateCompany registers a company. It cannot publish jobs until approved.
func (c *Client) CreateCompany(req CreateCompanyRequest) (*Company, error) {
	var resp Company
	if err := c.doRequest(http.MethodPost, "/api/companies", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ApproveCompany marks a company as approved.
func (c *Client) ApproveCompany(companyID string) (*Company, error) {
	var resp Company
	path := "/api/admin/companies/" + url.PathEscape(companyID) + "/approve"
	if err := c.doRequest(http.MethodPut, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CompanyResponse is a company with its job listings.
type CompanyResponse struct {
	Company Company `json:"company"`
	Jobs    []Job   `json:"jobs"`
}

// GetCompany gets a company and its jobs.
func (c *Client) GetCompany(companyID string) (*CompanyResponse, error) {
	var resp CompanyResponse
	if err := c.doRequest(http.MethodGet, "/api/companies/"+url.PathEscape(companyID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Check is one dependency probe in a health response.
type Check struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

// Health checks server health. A degraded server answers 503, which is
// returned as an *APIError.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doRequest(http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
