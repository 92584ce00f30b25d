package core

import (
	"fmt"
	"time"
)

// Channel identifies a monitored source of inbound items
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelCall  Channel = "call"
)

// AllChannels lists every channel the monitor knows about
var AllChannels = []Channel{ChannelSMS, ChannelEmail, ChannelCall}

// ParseChannel converts a configuration or flag value into a Channel
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelSMS, ChannelEmail, ChannelCall:
		return Channel(s), nil
	default:
		return "", fmt.Errorf("unknown channel: %q", s)
	}
}

// TaskStatus is the lifecycle state of a background task
type TaskStatus string

const (
	TaskIdle     TaskStatus = "idle"
	TaskStarting TaskStatus = "starting"
	TaskRunning  TaskStatus = "running"
	TaskStopping TaskStatus = "stopping"
	TaskError    TaskStatus = "error"
)

// Health reports whether a running task keeps failing its cycles
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthDegraded Health = "degraded"
)

// BackgroundTask is the supervisor's view of one channel loop
type BackgroundTask struct {
	Channel      Channel
	Status       TaskStatus
	PollInterval time.Duration
	Health       Health
	StartedAt    time.Time
	LastError    string
}

// CandidateEvent is one unprocessed item pulled from a channel
type CandidateEvent struct {
	Channel    Channel
	ExternalID string
	Sender     string
	Subject    string
	Content    string
	ObservedAt time.Time
}

// Verdict is the classifier's decision
type Verdict string

const (
	VerdictScam Verdict = "scam"
	VerdictHam  Verdict = "ham"
)

// ClassificationRequest carries the channel specific content sent to a classifier.
// SMS and call requests use Message and Sender, email requests use Subject and Body.
type ClassificationRequest struct {
	Channel Channel
	Message string
	Sender  string
	Subject string
	Body    string
}

// ClassificationResult represents the result of classifying one item
type ClassificationResult struct {
	Verdict     Verdict
	Confidence  *float64
	Explanation string
	ModelUsed   string
	AnalyzedAt  time.Time
}

// IsScam reports whether the verdict is scam
func (r *ClassificationResult) IsScam() bool {
	return r != nil && r.Verdict == VerdictScam
}

// ScamRecord is a persisted positive detection
type ScamRecord struct {
	ID          string    `db:"id" json:"id"`
	Channel     Channel   `db:"channel" json:"channel"`
	ExternalID  string    `db:"external_id" json:"external_id"`
	Sender      string    `db:"sender" json:"sender"`
	Content     string    `db:"content" json:"content"`
	DetectedAt  time.Time `db:"detected_at" json:"detected_at"`
	OwnerUserID string    `db:"owner_user_id" json:"owner_user_id"`
}

// DedupEntry tracks one processed external item
type DedupEntry struct {
	Channel    Channel
	ExternalID string
	Notified   bool
	SeenAt     time.Time
	ExpiresAt  time.Time
}

// Importance of a notification
type Importance string

const (
	ImportanceDefault Importance = "default"
	ImportanceHigh    Importance = "high"
)

// Notification is a local alert delivered to the user
type Notification struct {
	ChannelID  string
	Title      string
	Message    string
	BigText    string
	Importance Importance
}

// NotificationChannelID returns the alert channel used for detections on ch
func NotificationChannelID(ch Channel) string {
	return "scam_" + string(ch)
}

// PermissionState is the outcome of a channel permission check
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// StartedFlagKey is the persisted key recording that the task for ch was started
func StartedFlagKey(ch Channel) string {
	return "isBackgroundTaskStarted:" + string(ch)
}
