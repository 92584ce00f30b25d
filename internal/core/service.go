package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/utils"
)

// TrustChecker decides whether a sender bypasses classification
type TrustChecker interface {
	IsTrusted(ch Channel, sender string) bool
}

// RetryPolicy bounds classifier retries on network errors
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// DetectionConfig holds the tunables of the detection pipeline
type DetectionConfig struct {
	OwnerUserID     string
	MinConfidence   float64
	ClassifyTimeout time.Duration
	Retry           RetryPolicy
	// SenderDedup enables sender level notification suppression per channel
	SenderDedup map[Channel]bool
}

// Outcome describes what the pipeline did with one event
type Outcome struct {
	Verdict  Verdict
	Trusted  bool
	Stored   bool
	Notified bool
	Record   *ScamRecord
}

// DetectionService runs one candidate event through dedup, classification,
// persistence and notification
type DetectionService struct {
	classifier Classifier
	cache      DedupCache
	records    RecordStore
	notifier   Notifier
	trust      TrustChecker
	logger     *zap.Logger
	cfg        DetectionConfig
	now        func() time.Time
}

// NewDetectionService creates a new detection service
func NewDetectionService(
	classifier Classifier,
	cache DedupCache,
	records RecordStore,
	notifier Notifier,
	trust TrustChecker,
	logger *zap.Logger,
	cfg DetectionConfig,
) *DetectionService {
	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = 1
	}
	return &DetectionService{
		classifier: classifier,
		cache:      cache,
		records:    records,
		notifier:   notifier,
		trust:      trust,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Process handles one event. It returns ErrDuplicate for items already resident in
// the dedup cache and a classifier error when the item had to be dropped.
func (s *DetectionService) Process(ctx context.Context, ev *CandidateEvent) (*Outcome, error) {
	log := s.logger.With(
		zap.String("channel", string(ev.Channel)),
		zap.String("external_id", ev.ExternalID))

	seen, err := s.cache.SeenExternalID(ctx, ev.Channel, ev.ExternalID)
	if err != nil {
		// skipped for this cycle; classifying without a cache entry would repeat on every poll
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}
	if seen {
		log.Debug("Item already processed")
		return nil, ErrDuplicate
	}
	if err := s.cache.MarkSeen(ctx, ev.Channel, ev.ExternalID); err != nil {
		return nil, fmt.Errorf("dedup mark: %w", err)
	}

	if s.trust != nil && s.trust.IsTrusted(ev.Channel, ev.Sender) {
		log.Info("Skipping classification for trusted sender",
			zap.String("sender", ev.Sender),
			zap.String("action", "whitelist_bypass"))
		return &Outcome{Verdict: VerdictHam, Trusted: true}, nil
	}

	result, err := s.classify(ctx, requestFor(ev))
	if err != nil {
		log.Error("Classification failed, item dropped", zap.Error(err))
		return nil, err
	}

	out := &Outcome{Verdict: result.Verdict}
	if !s.IsScam(result) {
		log.Debug("Item classified as ham", zap.String("verdict", string(result.Verdict)))
		out.Verdict = VerdictHam
		return out, nil
	}

	log.Info("Scam detected",
		zap.String("sender", ev.Sender),
		zap.String("model", result.ModelUsed),
		zap.Any("confidence", result.Confidence))

	record := &ScamRecord{
		ID:          uuid.NewString(),
		Channel:     ev.Channel,
		ExternalID:  ev.ExternalID,
		Sender:      ev.Sender,
		Content:     contentOf(ev),
		DetectedAt:  s.now(),
		OwnerUserID: s.cfg.OwnerUserID,
	}
	out.Record = record
	if err := s.records.Insert(ctx, record); err != nil {
		log.Error("Failed to store scam record", zap.Error(err))
	} else {
		out.Stored = true
	}

	sender := utils.NormalizeSender(ev.Sender)
	if s.cfg.SenderDedup[ev.Channel] {
		already, err := s.cache.SeenSenderRecently(ctx, ev.Channel, sender)
		if err != nil {
			log.Warn("Sender dedup lookup failed", zap.Error(err))
		}
		if already {
			log.Info("Suppressing repeat notification for sender", zap.String("sender", ev.Sender))
			return out, nil
		}
	}

	if err := s.notifier.Notify(ctx, notificationFor(ev)); err != nil {
		log.Warn("Notification delivery failed", zap.Error(err))
	} else {
		out.Notified = true
	}

	if err := s.cache.MarkNotified(ctx, ev.Channel, ev.ExternalID); err != nil {
		log.Warn("Failed to mark item notified", zap.Error(err))
	}
	if s.cfg.SenderDedup[ev.Channel] {
		if err := s.cache.MarkSenderNotified(ctx, ev.Channel, sender); err != nil {
			log.Warn("Failed to mark sender notified", zap.Error(err))
		}
	}

	return out, nil
}

// IsScam determines if a result counts as a detection. A missing confidence
// is accepted as long as the verdict is scam.
func (s *DetectionService) IsScam(result *ClassificationResult) bool {
	if !result.IsScam() {
		return false
	}
	if result.Confidence == nil {
		return true
	}
	return *result.Confidence >= s.cfg.MinConfidence
}

// Classify runs a single request through the classifier with the retry policy,
// bypassing the dedup cache
func (s *DetectionService) Classify(ctx context.Context, req *ClassificationRequest) (*ClassificationResult, error) {
	return s.classify(ctx, req)
}

func (s *DetectionService) classify(ctx context.Context, req *ClassificationRequest) (*ClassificationResult, error) {
	var result *ClassificationResult
	var lastErr error
	err := retry.Do(
		func() error {
			var err error
			result, err = s.attempt(ctx, req)
			lastErr = err
			return err
		},
		retry.Attempts(s.cfg.Retry.Attempts),
		retry.Delay(s.cfg.Retry.Delay),
		retry.MaxDelay(s.cfg.Retry.MaxDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Info("Retrying classification after error",
				zap.String("channel", string(req.Channel)),
				zap.Uint("attempt", n),
				zap.Error(err))
		}),
		retry.RetryIf(retryable),
	)
	if err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}
	return result, nil
}

// attempt runs one classifier call under its own deadline
func (s *DetectionService) attempt(ctx context.Context, req *ClassificationRequest) (*ClassificationResult, error) {
	if s.cfg.ClassifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ClassifyTimeout)
		defer cancel()
	}
	return s.classifier.Classify(ctx, req)
}

// retryable reports whether a classifier error may succeed on another attempt.
// Errors can opt out through a Retryable method.
func retryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return errors.Is(err, ErrNetwork)
}

func requestFor(ev *CandidateEvent) *ClassificationRequest {
	req := &ClassificationRequest{Channel: ev.Channel, Sender: ev.Sender}
	if ev.Channel == ChannelEmail {
		req.Subject = ev.Subject
		req.Body = ev.Content
		return req
	}
	req.Message = ev.Content
	return req
}

func contentOf(ev *CandidateEvent) string {
	if ev.Subject == "" {
		return ev.Content
	}
	return ev.Subject + "\n\n" + ev.Content
}

func notificationFor(ev *CandidateEvent) *Notification {
	var title, message string
	switch ev.Channel {
	case ChannelEmail:
		title = "Scam email detected"
		message = fmt.Sprintf("From %s: %s", ev.Sender, ev.Subject)
	case ChannelCall:
		title = "Scam call detected"
		message = fmt.Sprintf("Incoming call from %s was flagged as a scam", ev.Sender)
	default:
		title = "Scam message detected"
		message = fmt.Sprintf("Message from %s was flagged as a scam", ev.Sender)
	}
	return &Notification{
		ChannelID:  NotificationChannelID(ev.Channel),
		Title:      title,
		Message:    message,
		BigText:    contentOf(ev),
		Importance: ImportanceHigh,
	}
}
