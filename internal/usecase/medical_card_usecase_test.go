package usecase

import (
	"context"
	"testing"
	"time"

	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type medicalCardFixture struct {
	cards   *fakeMedicalCardRepo
	users   *fakeUserRepo
	audit   *fakeAudit
	usecase *medicalCardUsecase
	holder  *entity.User
	ctx     context.Context
}

func newMedicalCardFixture() *medicalCardFixture {
	f := &medicalCardFixture{
		cards: newFakeMedicalCardRepo(),
		users: newFakeUserRepo(),
		audit: &fakeAudit{},
	}
	f.holder = &entity.User{ID: uuid.New(), FullName: "Ana Souza", BloodType: "O+"}
	f.users.users[f.holder.ID] = f.holder
	f.usecase = NewMedicalCardUsecase(quietLogger(), f.cards, f.users, f.audit).(*medicalCardUsecase)
	f.usecase.now = func() time.Time { return appointmentClock }
	f.ctx = portalCtx(f.holder.ID, entity.RolePatient)
	return f
}

func TestIssueCard(t *testing.T) {
	f := newMedicalCardFixture()

	card, err := f.usecase.IssueCard(f.ctx, &dto.IssueMedicalCardRequest{Allergies: []string{"penicillin"}})
	require.NoError(t, err)

	assert.Regexp(t, `^MC-\d{4}-\d{4}-\d{4}$`, card.CardNumber)
	assert.Equal(t, "Ana Souza", card.HolderName)
	assert.Equal(t, "O+", card.BloodType, "falls back to the profile blood type")
	assert.Equal(t, []string{"penicillin"}, card.Allergies)
	assert.Equal(t, []string{}, card.ChronicConditions)
	assert.Equal(t, appointmentClock, card.IssuedAt)
	assert.Equal(t, appointmentClock.AddDate(5, 0, 0).Add(-24*time.Hour), card.ExpiresAt, "5 x 365 days across one leap day")
	assert.False(t, card.IsExpired)
	assert.Contains(t, f.audit.actions, entity.AuditActionCardIssue)

	_, err = f.usecase.IssueCard(f.ctx, &dto.IssueMedicalCardRequest{})
	assert.ErrorIs(t, err, ErrMedicalCardAlreadyIssued)
}

func TestIssueCardRetriesNumberCollisions(t *testing.T) {
	f := newMedicalCardFixture()
	f.cards.collisions = 2

	card, err := f.usecase.IssueCard(f.ctx, &dto.IssueMedicalCardRequest{BloodType: "A-"})
	require.NoError(t, err)
	assert.Equal(t, "A-", card.BloodType)
	assert.Len(t, f.cards.attempts, 3)

	g := newMedicalCardFixture()
	g.cards.collisions = cardNumberAttempts
	_, err = g.usecase.IssueCard(g.ctx, &dto.IssueMedicalCardRequest{})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMedicalCardAlreadyIssued)
	assert.Len(t, g.cards.attempts, cardNumberAttempts)
	assert.Empty(t, g.audit.actions)
}

func TestGetAndUpdateCard(t *testing.T) {
	f := newMedicalCardFixture()

	_, err := f.usecase.GetMyCard(f.ctx)
	assert.ErrorIs(t, err, ErrMedicalCardNotFound)
	_, err = f.usecase.UpdateCard(f.ctx, &dto.UpdateMedicalCardRequest{})
	assert.ErrorIs(t, err, ErrMedicalCardNotFound)

	issued, err := f.usecase.IssueCard(f.ctx, &dto.IssueMedicalCardRequest{EmergencyContactName: "Rui"})
	require.NoError(t, err)

	phone := "+5511999990000"
	updated, err := f.usecase.UpdateCard(f.ctx, &dto.UpdateMedicalCardRequest{
		EmergencyContactPhone: &phone,
		ChronicConditions:     []string{"asthma"},
	})
	require.NoError(t, err)
	assert.Equal(t, issued.CardNumber, updated.CardNumber)
	assert.Equal(t, "Rui", updated.EmergencyContactName)
	assert.Equal(t, phone, updated.EmergencyContactPhone)
	assert.Equal(t, []string{"asthma"}, updated.ChronicConditions)
	assert.Contains(t, f.audit.actions, entity.AuditActionCardUpdate)

	f.usecase.now = func() time.Time { return appointmentClock.AddDate(6, 0, 0) }
	later, err := f.usecase.GetMyCard(f.ctx)
	require.NoError(t, err)
	assert.True(t, later.IsExpired)
}

func TestIssueCardUnknownUser(t *testing.T) {
	f := newMedicalCardFixture()

	_, err := f.usecase.IssueCard(portalCtx(uuid.New(), entity.RolePatient), &dto.IssueMedicalCardRequest{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
