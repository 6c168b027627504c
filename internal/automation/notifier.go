package automation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/workflow-service/internal/config"
)

// Notifier emits notification side effects for automations. Delivery is
// stubbed behind the configured email/webhook endpoints.
type Notifier struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotifier creates the notifier.
func NewNotifier(logger *zap.Logger, cfg config.NotificationConfig) *Notifier {
	return &Notifier{logger: logger, cfg: cfg}
}

// SendActivationNotice notifies the plan owner that their plan went active.
func (n *Notifier) SendActivationNotice(ctx context.Context, planID, ownerID string) error {
	n.logger.Info("action plan activation notice",
		zap.String("plan_id", planID),
		zap.String("owner_id", ownerID))
	n.sendEmailStub(ctx, "action_plan_activated", planID)
	n.sendWebhookStub(ctx, "action_plan_activated", planID)
	return nil
}

// SendArchiveNotice notifies the plan owner that their plan was archived.
func (n *Notifier) SendArchiveNotice(ctx context.Context, planID, ownerID string) error {
	n.logger.Info("action plan archive notice",
		zap.String("plan_id", planID),
		zap.String("owner_id", ownerID))
	n.sendWebhookStub(ctx, "action_plan_archived", planID)
	return nil
}

func (n *Notifier) sendEmailStub(ctx context.Context, kind, subjectID string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("kind", kind),
		zap.String("subject_id", subjectID))
}

func (n *Notifier) sendWebhookStub(ctx context.Context, kind, subjectID string) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("kind", kind),
		zap.String("subject_id", subjectID))
}
