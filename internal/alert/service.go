// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package alert

import (
	"context"

	"github.com/stockpulse/stockpulse/internal/metrics"
	"github.com/stockpulse/stockpulse/internal/models"
)

// testAlertMessage is the fixed body of manually issued test alerts.
const testAlertMessage = "This is a test alert."

// ServiceStore is the persistence surface of the alert endpoints.
type ServiceStore interface {
	ListAlertsByUser(ctx context.Context, userID int64) ([]models.Alert, error)
	MarkAlertSeen(ctx context.Context, alertID, userID int64) (*models.Alert, error)
	CreateAlert(ctx context.Context, alert *models.Alert) error
	GetCompanyByID(ctx context.Context, id int64) (*models.Company, error)
}

// Service backs the alert HTTP endpoints: listing, acknowledgement and
// test-alert creation.
type Service struct {
	store     ServiceStore
	publisher Publisher
}

// NewService wires the alert service.
func NewService(store ServiceStore, publisher Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// List returns the user's recent alerts, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]models.Alert, error) {
	return s.store.ListAlertsByUser(ctx, userID)
}

// MarkSeen acknowledges an alert. Acknowledging twice is a no-op, not an
// error; alerts owned by other users surface as not found.
func (s *Service) MarkSeen(ctx context.Context, alertID, userID int64) (*models.Alert, error) {
	return s.store.MarkAlertSeen(ctx, alertID, userID)
}

// CreateTest creates a test alert for the user and delivers it over the
// fan-out channel. CompanyID is optional; when present the company must
// exist.
func (s *Service) CreateTest(ctx context.Context, userID int64, companyID *int64) (*models.Alert, error) {
	if companyID != nil {
		if _, err := s.store.GetCompanyByID(ctx, *companyID); err != nil {
			return nil, err
		}
	}

	alert := &models.Alert{
		UserID:    userID,
		CompanyID: companyID,
		Type:      models.AlertTypeTest,
		Message:   testAlertMessage,
	}
	if err := s.store.CreateAlert(ctx, alert); err != nil {
		return nil, err
	}

	metrics.AlertsCreatedTotal.WithLabelValues(models.AlertTypeTest).Inc()
	s.publisher.PublishAlert(alert)
	return alert, nil
}
