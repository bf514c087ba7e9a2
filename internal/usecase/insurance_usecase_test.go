package usecase

import (
	"context"
	"testing"
	"time"

	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type insuranceFixture struct {
	policies *fakeInsuranceRepo
	audit    *fakeAudit
	usecase  *insuranceUsecase
	owner    uuid.UUID
	ctx      context.Context
}

func newInsuranceFixture() *insuranceFixture {
	f := &insuranceFixture{
		policies: newFakeInsuranceRepo(),
		audit:    &fakeAudit{},
		owner:    uuid.New(),
	}
	f.usecase = NewInsuranceUsecase(quietLogger(), f.policies, f.audit).(*insuranceUsecase)
	f.usecase.now = func() time.Time { return appointmentClock }
	f.ctx = portalCtx(f.owner, entity.RolePatient)
	return f
}

func policyRequest(number, start, end string) *dto.CreateInsuranceRequest {
	return &dto.CreateInsuranceRequest{
		Provider:       "Acme Health",
		PolicyNumber:   number,
		CoverageType:   "comprehensive",
		CoverageAmount: decimal.RequireFromString("25000.005"),
		StartDate:      start,
		EndDate:        end,
	}
}

func TestCreateInsurance(t *testing.T) {
	f := newInsuranceFixture()

	resp, err := f.usecase.CreateInsurance(f.ctx, policyRequest("POL-1", "2025-01-01", "2025-12-31"))
	require.NoError(t, err)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, "2025-01-01", resp.StartDate)
	assert.Equal(t, "25000.01", resp.CoverageAmount.StringFixed(2))
	assert.Contains(t, f.audit.actions, entity.AuditActionInsuranceCreate)

	_, err = f.usecase.CreateInsurance(f.ctx, policyRequest("POL-1", "2025-01-01", "2025-12-31"))
	assert.ErrorIs(t, err, ErrPolicyNumberExists)

	// Policy numbers are unique per owner only.
	other := portalCtx(uuid.New(), entity.RolePatient)
	_, err = f.usecase.CreateInsurance(other, policyRequest("POL-1", "2025-01-01", "2025-12-31"))
	assert.NoError(t, err)
}

func TestCreateInsuranceValidatesPeriod(t *testing.T) {
	f := newInsuranceFixture()

	_, err := f.usecase.CreateInsurance(f.ctx, policyRequest("POL-1", "2025-06-01", "2025-05-31"))
	assert.ErrorIs(t, err, ErrInvalidCoveragePeriod)

	_, err = f.usecase.CreateInsurance(f.ctx, policyRequest("POL-1", "01/06/2025", "2025-12-31"))
	assert.ErrorIs(t, err, ErrInvalidDateFormat)

	negative := policyRequest("POL-1", "2025-01-01", "2025-12-31")
	negative.CoverageAmount = decimal.NewFromInt(-1)
	_, err = f.usecase.CreateInsurance(f.ctx, negative)
	assert.ErrorIs(t, err, ErrInvalidCoverageAmount)

	// A single-day policy is valid.
	_, err = f.usecase.CreateInsurance(f.ctx, policyRequest("POL-2", "2025-03-10", "2025-03-10"))
	assert.NoError(t, err)

	assert.Equal(t, []string{entity.AuditActionInsuranceCreate}, f.audit.actions)
}

func TestInsuranceStatusIsDerivedOnRead(t *testing.T) {
	f := newInsuranceFixture()

	lapsed, err := f.usecase.CreateInsurance(f.ctx, policyRequest("OLD", "2024-01-01", "2025-03-08"))
	require.NoError(t, err)
	assert.Equal(t, "expired", lapsed.Status)
	_, err = f.usecase.CreateInsurance(f.ctx, policyRequest("TODAY", "2024-01-01", "2025-03-10"))
	require.NoError(t, err)

	// The stored row keeps its status; only the response reports expiry.
	assert.Equal(t, entity.InsuranceStatusActive, f.policies.policies[lapsed.ID].Status)

	policies, err := f.usecase.GetMyInsurances(f.ctx)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	statuses := map[string]string{}
	for _, p := range policies {
		statuses[p.PolicyNumber] = p.Status
	}
	assert.Equal(t, map[string]string{"OLD": "expired", "TODAY": "active"}, statuses)

	cancelled := "cancelled"
	resp, err := f.usecase.UpdateInsurance(f.ctx, lapsed.ID, &dto.UpdateInsuranceRequest{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
}

func TestUpdateInsurance(t *testing.T) {
	f := newInsuranceFixture()
	policy, err := f.usecase.CreateInsurance(f.ctx, policyRequest("POL-1", "2025-01-01", "2025-12-31"))
	require.NoError(t, err)

	before := "2024-12-01"
	_, err = f.usecase.UpdateInsurance(f.ctx, policy.ID, &dto.UpdateInsuranceRequest{EndDate: &before})
	assert.ErrorIs(t, err, ErrInvalidCoveragePeriod)
	assert.Equal(t, "2025-12-31", f.policies.policies[policy.ID].EndDate.Format("2006-01-02"))

	provider := "Globex"
	_, err = f.usecase.UpdateInsurance(portalCtx(uuid.New(), entity.RolePatient), policy.ID, &dto.UpdateInsuranceRequest{Provider: &provider})
	assert.ErrorIs(t, err, ErrInsuranceNotFound)

	resp, err := f.usecase.UpdateInsurance(f.ctx, policy.ID, &dto.UpdateInsuranceRequest{Provider: &provider})
	require.NoError(t, err)
	assert.Equal(t, "Globex", resp.Provider)
	assert.Equal(t, "POL-1", resp.PolicyNumber)
	assert.Contains(t, f.audit.actions, entity.AuditActionInsuranceUpdate)
}

func TestDeleteInsuranceIsScopedToOwner(t *testing.T) {
	f := newInsuranceFixture()
	policy, err := f.usecase.CreateInsurance(f.ctx, policyRequest("POL-1", "2025-01-01", "2025-12-31"))
	require.NoError(t, err)

	err = f.usecase.DeleteInsurance(portalCtx(uuid.New(), entity.RolePatient), policy.ID)
	assert.ErrorIs(t, err, ErrInsuranceNotFound)
	assert.Len(t, f.policies.policies, 1)

	require.NoError(t, f.usecase.DeleteInsurance(f.ctx, policy.ID))
	assert.Empty(t, f.policies.policies)
	assert.Contains(t, f.audit.actions, entity.AuditActionInsuranceDelete)

	_, err = f.usecase.GetMyInsurances(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
