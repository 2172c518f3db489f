package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bms-ged/backend/internal/mail"
	"github.com/bms-ged/backend/internal/models"
)

type fakeDirectory struct {
	users  map[int64]*models.User
	leases map[int64]*models.Lease
	units  map[int64]*models.Unit
}

func (f *fakeDirectory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeDirectory) GetActiveLeaseByTenant(ctx context.Context, tenantID int64) (*models.Lease, error) {
	return f.leases[tenantID], nil
}

func (f *fakeDirectory) GetUnit(ctx context.Context, id int64) (*models.Unit, error) {
	return f.units[id], nil
}

type fakeNotificationWriter struct {
	inserted []models.Notification
	failOn   int
}

func (f *fakeNotificationWriter) InsertNotification(ctx context.Context, n models.Notification) error {
	if f.failOn > 0 && len(f.inserted)+1 == f.failOn {
		f.inserted = append(f.inserted, models.Notification{})
		return errors.New("insert failed")
	}
	f.inserted = append(f.inserted, n)
	return nil
}

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func leaseholderDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: map[int64]*models.User{
			10: {ID: 10, Name: "Tariq Tenant", Email: "tariq@example.com"},
			20: {ID: 20, Name: "Oda Owner", Email: "oda@example.com"},
			30: {ID: 30, Name: "Rae Responder", Email: "rae@example.com"},
		},
		leases: map[int64]*models.Lease{
			10: {ID: 1, TenantID: 10, UnitID: 5, Active: true},
		},
		units: map[int64]*models.Unit{
			5: {ID: 5, Name: "B-12", OwnerID: 20},
		},
	}
}

func pendingComplaint(responderID int64) models.Complaint {
	return models.Complaint{
		ID:          77,
		SubmitterID: 10,
		Category:    models.CategoryPlumbing,
		Title:       "Leak under sink",
		Description: "water everywhere",
		Status:      models.StatusPending,
		AssignedTo:  &responderID,
	}
}

func TestFanOut_LeaseholderProducesTwoTargets(t *testing.T) {
	writer := &fakeNotificationWriter{}
	sender := &fakeSender{}
	n := &Notifier{
		Directory:     leaseholderDirectory(),
		Notifications: writer,
		Mail:          sender,
		Default:       testDefault,
		Logger:        zerolog.Nop(),
	}

	result := n.FanOut(context.Background(), pendingComplaint(30), "")
	if len(result.Targets) != 2 {
		t.Fatalf("expected 2 targets (responder + unit owner), got %d", len(result.Targets))
	}
	if result.Targets[0].Role != models.TargetRoleResponder || result.Targets[0].RecipientID != 30 {
		t.Fatalf("unexpected responder target %+v", result.Targets[0])
	}
	if result.Targets[1].Role != models.TargetRoleUnitOwner || result.Targets[1].RecipientID != 20 {
		t.Fatalf("unexpected owner target %+v", result.Targets[1])
	}
	if !strings.Contains(result.Targets[0].Body, "B-12") {
		t.Fatalf("responder body not personalized with unit: %q", result.Targets[0].Body)
	}
	if !strings.Contains(result.Targets[1].Body, "Tariq Tenant") {
		t.Fatalf("owner body missing tenant name: %q", result.Targets[1].Body)
	}
	if len(writer.inserted) != 2 {
		t.Fatalf("expected 2 persisted notifications, got %d", len(writer.inserted))
	}
	if !result.EmailSent || len(sender.sent) != 1 || sender.sent[0].To != "rae@example.com" {
		t.Fatalf("expected one email to responder, got %+v", sender.sent)
	}
}

func TestFanOut_NonLeaseholderGetsGenericResponderTarget(t *testing.T) {
	dir := leaseholderDirectory()
	delete(dir.leases, 10)
	writer := &fakeNotificationWriter{}
	n := &Notifier{Directory: dir, Notifications: writer, Mail: &fakeSender{}, Default: testDefault, Logger: zerolog.Nop()}

	result := n.FanOut(context.Background(), pendingComplaint(30), "")
	if len(result.Targets) != 1 {
		t.Fatalf("expected only the responder target, got %d", len(result.Targets))
	}
	if strings.Contains(result.Targets[0].Body, "B-12") {
		t.Fatalf("generic body must not mention a unit: %q", result.Targets[0].Body)
	}
}

func TestFanOut_OwnerSkippedWhenSameAsSubmitter(t *testing.T) {
	dir := leaseholderDirectory()
	dir.units[5].OwnerID = 10
	n := &Notifier{Directory: dir, Notifications: &fakeNotificationWriter{}, Mail: &fakeSender{}, Default: testDefault, Logger: zerolog.Nop()}

	result := n.FanOut(context.Background(), pendingComplaint(30), "")
	if len(result.Targets) != 1 {
		t.Fatalf("expected owner target skipped for self-owned unit, got %d", len(result.Targets))
	}
}

func TestFanOut_PersistFailureIsolatedPerRecord(t *testing.T) {
	writer := &fakeNotificationWriter{failOn: 1}
	sender := &fakeSender{}
	n := &Notifier{Directory: leaseholderDirectory(), Notifications: writer, Mail: sender, Default: testDefault, Logger: zerolog.Nop()}

	result := n.FanOut(context.Background(), pendingComplaint(30), "")
	if result.PersistErrors != 1 {
		t.Fatalf("expected 1 persist error, got %d", result.PersistErrors)
	}
	if len(result.Targets) != 2 {
		t.Fatalf("failure on one record must not drop the other target, got %d targets", len(result.Targets))
	}
	if !result.EmailSent {
		t.Fatal("email must still be attempted after a persist failure")
	}
}

func TestFanOut_EmailFailureDoesNotAffectPersistence(t *testing.T) {
	writer := &fakeNotificationWriter{}
	n := &Notifier{
		Directory:     leaseholderDirectory(),
		Notifications: writer,
		Mail:          &fakeSender{err: errors.New("smtp down")},
		Default:       testDefault,
		Logger:        zerolog.Nop(),
	}

	result := n.FanOut(context.Background(), pendingComplaint(30), "")
	if result.EmailSent {
		t.Fatal("expected EmailSent=false on transport error")
	}
	if len(writer.inserted) != 2 {
		t.Fatalf("email failure must not affect persisted notifications, got %d", len(writer.inserted))
	}
}

func TestFanOut_ContactOverridePreferred(t *testing.T) {
	sender := &fakeSender{}
	n := &Notifier{Directory: leaseholderDirectory(), Notifications: &fakeNotificationWriter{}, Mail: sender, Default: testDefault, Logger: zerolog.Nop()}

	n.FanOut(context.Background(), pendingComplaint(30), "override@example.com")
	if len(sender.sent) != 1 || sender.sent[0].To != "override@example.com" {
		t.Fatalf("expected override address used, got %+v", sender.sent)
	}
}

func TestFanOut_DefaultResponderUsesConfiguredContact(t *testing.T) {
	sender := &fakeSender{}
	def := models.Responder{ID: 0, Name: "Maintenance Team", Email: "team@example.com"}
	n := &Notifier{Directory: leaseholderDirectory(), Notifications: &fakeNotificationWriter{}, Mail: sender, Default: def, Logger: zerolog.Nop()}

	result := n.FanOut(context.Background(), pendingComplaint(0), "")
	if len(result.Targets) == 0 || result.Targets[0].RecipientID != 0 {
		t.Fatalf("expected default responder target, got %+v", result.Targets)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "team@example.com" {
		t.Fatalf("expected default contact address, got %+v", sender.sent)
	}
}

func TestFanOut_NoAddressSkipsEmailQuietly(t *testing.T) {
	dir := leaseholderDirectory()
	dir.users[30].Email = ""
	sender := &fakeSender{}
	n := &Notifier{Directory: dir, Notifications: &fakeNotificationWriter{}, Mail: sender, Default: testDefault, Logger: zerolog.Nop()}

	result := n.FanOut(context.Background(), pendingComplaint(30), "")
	if result.EmailSent || len(sender.sent) != 0 {
		t.Fatalf("expected no email without an address, got %+v", sender.sent)
	}
	if len(result.Targets) != 2 {
		t.Fatalf("missing address must not drop notification records, got %d", len(result.Targets))
	}
}
