package notifications

import "github.com/xeo-app/xeo-backend/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendReport(report *models.UsageReport) error
}
