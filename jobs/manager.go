package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lifegoals/quest-api/db"
	"github.com/lifegoals/quest-api/email"
	"github.com/lifegoals/quest-api/leads"
	"github.com/lifegoals/quest-api/utils"
)

const (
	TypeDeliverLead = "lead:deliver"
	TypeSendEmail   = "email:send"
)

type JobManager struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
}

// LeadPayload is the queued form of a booking-path lead delivery. LogID
// points at the lead_log row that tracks this attempt.
type LeadPayload struct {
	LogID int               `json:"log_id"`
	Token string            `json:"token"`
	Lead  leads.PartialLead `json:"lead"`
}

type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Type    string `json:"type"`
}

func NewJobManager(redisURL string) *JobManager {
	addr := strings.TrimPrefix(redisURL, "redis://")
	redisOpt := asynq.RedisClientOpt{
		Addr: addr,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6, // Lead deliveries
			"default":  3, // Confirmation emails
			"low":      1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			utils.LogError("Job failed: type=%s error=%v", task.Type(), err)
		}),
		Logger: &AsynqLogger{},
	})

	mux := asynq.NewServeMux()

	return &JobManager{
		client: client,
		server: server,
		mux:    mux,
	}
}

func (jm *JobManager) RegisterHandlers(leadClient *leads.Client, database *db.DB, emailService *email.Service) {
	jm.mux.HandleFunc(TypeDeliverLead, jm.handleDeliverLead(leadClient, database))
	jm.mux.HandleFunc(TypeSendEmail, jm.handleSendEmail(emailService))
}

func (jm *JobManager) Start() error {
	utils.LogStartup("Starting job queue worker...")
	return jm.server.Run(jm.mux)
}

func (jm *JobManager) Stop() {
	utils.LogShutdown("Stopping job queue...")
	jm.server.Stop()
	jm.server.Shutdown()
	jm.client.Close()
}

// QueueLeadDelivery enqueues a booking-path lead for background delivery
// to the LMS. The queue retries what the visitor never should wait on.
func (jm *JobManager) QueueLeadDelivery(logID int, token string, lead leads.PartialLead) error {
	payload := LeadPayload{
		LogID: logID,
		Token: token,
		Lead:  lead,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal lead payload: %w", err)
	}

	task := asynq.NewTask(TypeDeliverLead, payloadBytes)

	info, err := jm.client.Enqueue(task,
		asynq.Queue("critical"),
		asynq.MaxRetry(5),
		asynq.Timeout(60*time.Second))
	if err != nil {
		return fmt.Errorf("failed to enqueue lead delivery task: %w", err)
	}

	utils.LogInfo("Queued lead delivery job: ID=%s session=%.8s", info.ID, token)
	return nil
}

// QueueEmail enqueues a confirmation email.
func (jm *JobManager) QueueEmail(to, subject, body, emailType string) error {
	payload := EmailPayload{
		To:      to,
		Subject: subject,
		Body:    body,
		Type:    emailType,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	task := asynq.NewTask(TypeSendEmail, payloadBytes)

	info, err := jm.client.Enqueue(task,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Timeout(60*time.Second))
	if err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}

	utils.LogInfo("Queued email job: ID=%s type=%s to=%s", info.ID, emailType, to)
	return nil
}

func (jm *JobManager) handleDeliverLead(leadClient *leads.Client, database *db.DB) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload LeadPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal lead payload: %w", err)
		}

		utils.LogInfo("Processing lead delivery job: session=%.8s name=%q", payload.Token, payload.Lead.Name)

		if _, err := leadClient.Submit(ctx, payload.Lead); err != nil {
			// Leave the log row as queued; the final retry marks it failed.
			if retries, _ := asynq.GetRetryCount(ctx); retries >= 4 {
				if dbErr := database.UpdateLeadStatus(payload.LogID, db.LeadStatusFailed); dbErr != nil {
					utils.LogError("Failed to mark lead %d as failed: %v", payload.LogID, dbErr)
				}
			}
			return fmt.Errorf("failed to deliver lead for session %.8s: %w", payload.Token, err)
		}

		if err := database.UpdateLeadStatus(payload.LogID, db.LeadStatusDelivered); err != nil {
			utils.LogError("Lead delivered but status update failed: %v", err)
		}

		utils.LogInfo("Successfully delivered lead for session %.8s", payload.Token)
		return nil
	}
}

func (jm *JobManager) handleSendEmail(emailService *email.Service) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload EmailPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal email payload: %w", err)
		}

		utils.LogInfo("Processing email job: type=%s to=%s subject=%s", payload.Type, payload.To, payload.Subject)

		if err := emailService.SendEmail(payload.To, payload.Subject, payload.Body); err != nil {
			return fmt.Errorf("failed to send %s email to %s: %w", payload.Type, payload.To, err)
		}

		utils.LogInfo("Successfully sent %s email to %s", payload.Type, payload.To)
		return nil
	}
}

// Custom logger bridging asynq onto the prefixed log helpers
type AsynqLogger struct{}

func (l *AsynqLogger) Debug(args ...interface{}) {
	utils.LogDebug(fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	utils.LogInfo(fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}
