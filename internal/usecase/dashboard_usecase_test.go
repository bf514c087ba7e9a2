package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCardRepo struct {
	*fakeMedicalCardRepo
	err error
}

func (r *failingCardRepo) FindByUser(context.Context, uuid.UUID) (*entity.MedicalCard, error) {
	return nil, r.err
}

type dashboardFixture struct {
	records       *fakeMedicalRecordRepo
	appointments  *fakeAppointmentRepo
	policies      *fakeInsuranceRepo
	notifications *fakeNotificationRepo
	cards         *fakeMedicalCardRepo
	user          uuid.UUID
}

func newDashboardFixture() *dashboardFixture {
	return &dashboardFixture{
		records:       newFakeMedicalRecordRepo(),
		appointments:  newFakeAppointmentRepo(),
		policies:      newFakeInsuranceRepo(),
		notifications: &fakeNotificationRepo{},
		cards:         newFakeMedicalCardRepo(),
		user:          uuid.New(),
	}
}

func (f *dashboardFixture) usecase(cards repository.MedicalCardRepository) *dashboardUsecase {
	uc := NewDashboardUsecase(quietLogger(), f.records, f.appointments, f.policies, f.notifications, cards).(*dashboardUsecase)
	uc.now = func() time.Time { return appointmentClock }
	return uc
}

func (f *dashboardFixture) seed() {
	ctx := context.Background()
	other := uuid.New()

	for _, owner := range []uuid.UUID{f.user, f.user, other} {
		_ = f.records.Create(ctx, &entity.MedicalRecord{UserID: owner, Title: "visit", RecordType: entity.RecordTypeLabResult})
	}

	doctor := uuid.New()
	for i, a := range []entity.Appointment{
		{UserID: f.user, ScheduledAt: appointmentClock.Add(24 * time.Hour), Status: entity.AppointmentStatusScheduled},
		{UserID: f.user, ScheduledAt: appointmentClock.Add(48 * time.Hour), Status: entity.AppointmentStatusCancelled},
		{UserID: f.user, ScheduledAt: appointmentClock.Add(-48 * time.Hour), Status: entity.AppointmentStatusCompleted},
		{UserID: other, ScheduledAt: appointmentClock.Add(72 * time.Hour), Status: entity.AppointmentStatusScheduled},
	} {
		a.DoctorID = doctor
		a.DurationMinutes = 30
		a.ScheduledAt = a.ScheduledAt.Add(time.Duration(i) * time.Hour)
		_ = f.appointments.CreateExclusive(ctx, &a)
	}

	_ = f.policies.Create(ctx, &entity.Insurance{
		UserID: f.user, PolicyNumber: "CURRENT", Status: entity.InsuranceStatusActive,
		StartDate: appointmentClock.AddDate(-1, 0, 0), EndDate: appointmentClock.AddDate(1, 0, 0),
	})
	_ = f.policies.Create(ctx, &entity.Insurance{
		UserID: f.user, PolicyNumber: "LAPSED", Status: entity.InsuranceStatusActive,
		StartDate: appointmentClock.AddDate(-2, 0, 0), EndDate: appointmentClock.AddDate(0, -1, 0),
	})

	for _, read := range []bool{false, false, true} {
		_ = f.notifications.Create(ctx, &entity.Notification{UserID: f.user, Title: "note", IsRead: read})
	}
	_ = f.notifications.Create(ctx, &entity.Notification{UserID: other, Title: "note"})
}

func TestDashboardSummaryCountsCallerData(t *testing.T) {
	f := newDashboardFixture()
	f.seed()
	_ = f.cards.Create(context.Background(), &entity.MedicalCard{UserID: f.user, CardNumber: "MC-0001-0002-0003"})

	summary, err := f.usecase(f.cards).GetSummary(portalCtx(f.user, entity.RolePatient))
	require.NoError(t, err)
	assert.Equal(t, &dto.DashboardResponse{
		MedicalRecords:       2,
		UpcomingAppointments: 1,
		ActiveInsurances:     1,
		UnreadNotifications:  2,
		HasMedicalCard:       true,
	}, summary)
}

func TestDashboardSummaryForNewPatient(t *testing.T) {
	f := newDashboardFixture()

	summary, err := f.usecase(f.cards).GetSummary(portalCtx(f.user, entity.RolePatient))
	require.NoError(t, err)
	assert.Equal(t, &dto.DashboardResponse{}, summary)

	_, err = f.usecase(f.cards).GetSummary(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestDashboardSummaryFailsWhenAnyCounterFails(t *testing.T) {
	f := newDashboardFixture()
	f.seed()
	boom := errors.New("card store unavailable")

	summary, err := f.usecase(&failingCardRepo{fakeMedicalCardRepo: f.cards, err: boom}).GetSummary(portalCtx(f.user, entity.RolePatient))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, summary)
}
