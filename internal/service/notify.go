package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bms-ged/backend/internal/mail"
	"github.com/bms-ged/backend/internal/models"
)

type Directory interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetActiveLeaseByTenant(ctx context.Context, tenantID int64) (*models.Lease, error)
	GetUnit(ctx context.Context, id int64) (*models.Unit, error)
}

type NotificationWriter interface {
	InsertNotification(ctx context.Context, n models.Notification) error
}

// Notifier fans a persisted complaint out to its notification targets.
// Persistence is independent per record and email failure never alters the
// already-committed complaint outcome.
type Notifier struct {
	Directory     Directory
	Notifications NotificationWriter
	Mail          mail.Sender
	Default       models.Responder
	Logger        zerolog.Logger
}

type FanOutResult struct {
	Targets       []models.NotificationTarget
	PersistErrors int
	EmailSent     bool
}

func (n *Notifier) FanOut(ctx context.Context, c models.Complaint, contactOverride string) FanOutResult {
	var result FanOutResult
	if c.AssignedTo == nil {
		return result
	}
	responderID := *c.AssignedTo

	responderName, responderEmail := n.resolveResponder(ctx, responderID)

	submitter := n.lookupUser(ctx, c.SubmitterID)
	var lease *models.Lease
	var unit *models.Unit
	var owner *models.User
	if submitter != nil {
		var err error
		lease, err = n.Directory.GetActiveLeaseByTenant(ctx, submitter.ID)
		if err != nil {
			n.Logger.Warn().Err(err).Int64("tenant_id", submitter.ID).Msg("lease lookup failed")
			lease = nil
		}
	}
	if lease != nil {
		var err error
		unit, err = n.Directory.GetUnit(ctx, lease.UnitID)
		if err != nil {
			n.Logger.Warn().Err(err).Int64("unit_id", lease.UnitID).Msg("unit lookup failed")
			unit = nil
		}
	}
	if unit != nil {
		owner = n.lookupUser(ctx, unit.OwnerID)
	}
	leaseholder := submitter != nil && lease != nil && unit != nil

	result.Targets = buildTargets(c, responderID, responderName, submitter, unit, owner, leaseholder)

	for _, target := range result.Targets {
		record := models.Notification{
			ID:          uuid.NewString(),
			RecipientID: target.RecipientID,
			Title:       target.Title,
			Body:        target.Body,
			Category:    c.Category,
			Read:        false,
			CreatedAt:   time.Now().UTC(),
		}
		if err := n.Notifications.InsertNotification(ctx, record); err != nil {
			result.PersistErrors++
			n.Logger.Error().Err(err).Int64("recipient_id", target.RecipientID).Msg("notification insert failed")
		}
	}

	to := strings.TrimSpace(contactOverride)
	if to == "" {
		to = responderEmail
	}
	if to == "" {
		n.Logger.Warn().Int64("responder_id", responderID).Msg("no responder address, skipping email")
		return result
	}
	if err := n.Mail.Send(mail.ComplaintMessage(to, c)); err != nil {
		n.Logger.Error().Err(err).Str("to", to).Msg("email dispatch failed")
		return result
	}
	result.EmailSent = true
	return result
}

func (n *Notifier) resolveResponder(ctx context.Context, id int64) (name, email string) {
	if id == n.Default.ID {
		return n.Default.Name, n.Default.Email
	}
	if u := n.lookupUser(ctx, id); u != nil {
		return u.Name, u.Email
	}
	return "", ""
}

func (n *Notifier) lookupUser(ctx context.Context, id int64) *models.User {
	u, err := n.Directory.GetUser(ctx, id)
	if err != nil {
		n.Logger.Warn().Err(err).Int64("user_id", id).Msg("user lookup failed")
		return nil
	}
	return u
}

func buildTargets(c models.Complaint, responderID int64, responderName string, submitter *models.User, unit *models.Unit, owner *models.User, leaseholder bool) []models.NotificationTarget {
	var targets []models.NotificationTarget

	if responderName != "" {
		body := fmt.Sprintf("You have been assigned a new %s complaint: %s.", c.Category, c.Title)
		if leaseholder && submitter != nil {
			body = fmt.Sprintf("You have been assigned a new %s complaint from %s in unit %s: %s.",
				c.Category, submitter.Name, unit.Name, c.Title)
		}
		targets = append(targets, models.NotificationTarget{
			RecipientID: responderID,
			Role:        models.TargetRoleResponder,
			Title:       "New complaint assigned",
			Body:        body,
		})
	}

	if leaseholder && owner != nil && owner.ID != submitter.ID {
		targets = append(targets, models.NotificationTarget{
			RecipientID: owner.ID,
			Role:        models.TargetRoleUnitOwner,
			Title:       "Complaint reported in your unit",
			Body: fmt.Sprintf("Your tenant %s reported a %s issue in unit %s: %s.",
				submitter.Name, c.Category, unit.Name, c.Title),
		})
	}

	return targets
}
