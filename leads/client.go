// Package leads delivers visitor contact records to the external
// lead-management system (LMS).
package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lifegoals/quest-api/utils"
)

// Config identifies the LMS endpoint and the fixed attribution values
// tagged onto every record.
type Config struct {
	URL          string
	DataSource   string
	ProdID       string
	CurrPagePath string
	Timeout      time.Duration
}

// PartialLead is the subset of fields the game actually collects. The
// client fills in everything else the LMS schema requires.
type PartialLead struct {
	Name       string
	Mobile     string
	Email      string
	Age        string
	GoalName   string
	Pincode    string
	DOB        string
	Gender     string
	Occupation string
	Education  string
	Income     string
	Summary    string
}

// Result reports the outcome of one submission attempt. Body is the raw
// LMS reply, kept only for logging; its shape is not contractual.
type Result struct {
	Success    bool
	StatusCode int
	Body       json.RawMessage
}

// payload is the full LMS field set. The receiving system expects every
// field on every call; unused ones are sent as empty string or null,
// never omitted.
type payload struct {
	Name          string  `json:"name"`
	Age           string  `json:"age"`
	MobileNo      string  `json:"mobile_no"`
	EmailID       string  `json:"email_id"`
	GoalName      string  `json:"goal_name"`
	Param1        *string `json:"param1"`
	Param2        *string `json:"param2"`
	Param3        *string `json:"param3"`
	Param4        string  `json:"param4"`  // pincode
	Param5        string  `json:"param5"`
	Param13       string  `json:"param13"`
	Param18       string  `json:"param18"`
	Param19       string  `json:"param19"` // date of birth
	Param20       string  `json:"param20"`
	Param23       string  `json:"param23"` // gender
	Param24       string  `json:"param24"` // occupation
	Param25       string  `json:"param25"` // education
	Param26       string  `json:"param26"` // income
	Param28       string  `json:"param28"`
	Param29       string  `json:"param29"`
	Param30       string  `json:"param30"`
	Param36       string  `json:"param36"`
	SummaryDtls   string  `json:"summary_dtls"`
	PUserEml      string  `json:"p_user_eml"`
	PDataSource   string  `json:"p_data_source"`
	PCurrPagePath string  `json:"p_curr_page_path"`
	PIPAddr       string  `json:"p_ip_addsr"`
	PRemarkURL    string  `json:"p_remark_url"`
	ProdID        string  `json:"prodId"`
	Medium        string  `json:"medium"`
	ContactNumber string  `json:"contact_number"`
	Content       string  `json:"content"`
	Campaign      string  `json:"campaign"`
	Source        string  `json:"source"`
	Keyword       string  `json:"keyword"`
	Flag          string  `json:"flag"`
	Parameter     string  `json:"parameter"`
	Name1         string  `json:"name1"`
}

// Client posts lead records to the LMS.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient wires a lead client against cfg. A zero timeout defaults to
// 15 seconds.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Submit normalizes the partial record into the full LMS schema and posts
// it. Success is inferred from HTTP-level completion: any 2xx counts, and
// a non-JSON body is tolerated. Network errors are returned to the caller,
// never panicked across the boundary.
func (c *Client) Submit(ctx context.Context, lead PartialLead) (*Result, error) {
	full := c.normalize(lead)

	body, err := json.Marshal(full)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lead payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build lead request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	utils.LogLead("Submitting lead for %q to %s", lead.Name, c.cfg.URL)
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		utils.LogError("Lead submission failed after %v: %v", time.Since(start), err)
		return nil, fmt.Errorf("lead delivery failed: %w", err)
	}
	defer resp.Body.Close()

	result := &Result{
		StatusCode: resp.StatusCode,
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
	}

	// The LMS reply shape is not contractual; keep it only if it parses.
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err == nil {
		result.Body = raw
	}

	if !result.Success {
		utils.LogError("Lead submission rejected: status %d", resp.StatusCode)
		return result, fmt.Errorf("lead delivery failed: status %d", resp.StatusCode)
	}

	utils.LogLead("Lead for %q delivered in %v (status %d)", lead.Name, time.Since(start), resp.StatusCode)
	return result, nil
}

func (c *Client) normalize(lead PartialLead) payload {
	age := lead.Age
	if age == "" {
		age = "25"
	}
	goalName := lead.GoalName
	if goalName == "" {
		goalName = "1"
	}
	return payload{
		Name:          lead.Name,
		Age:           age,
		MobileNo:      lead.Mobile,
		EmailID:       lead.Email,
		GoalName:      goalName,
		Param4:        lead.Pincode,
		Param19:       lead.DOB,
		Param23:       lead.Gender,
		Param24:       lead.Occupation,
		Param25:       lead.Education,
		Param26:       lead.Income,
		Param36:       "manual",
		SummaryDtls:   lead.Summary,
		PUserEml:      lead.Email,
		PDataSource:   c.cfg.DataSource,
		PCurrPagePath: c.cfg.CurrPagePath,
		ProdID:        c.cfg.ProdID,
	}
}
