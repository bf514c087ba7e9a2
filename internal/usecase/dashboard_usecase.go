package usecase

import (
	"context"
	"time"

	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type DashboardUsecase interface {
	GetSummary(ctx context.Context) (*dto.DashboardResponse, error)
}

type dashboardUsecase struct {
	log              *logrus.Logger
	recordRepo       repository.MedicalRecordRepository
	appointmentRepo  repository.AppointmentRepository
	insuranceRepo    repository.InsuranceRepository
	notificationRepo repository.NotificationRepository
	cardRepo         repository.MedicalCardRepository
	now              func() time.Time
}

func NewDashboardUsecase(
	log *logrus.Logger,
	recordRepo repository.MedicalRecordRepository,
	appointmentRepo repository.AppointmentRepository,
	insuranceRepo repository.InsuranceRepository,
	notificationRepo repository.NotificationRepository,
	cardRepo repository.MedicalCardRepository,
) DashboardUsecase {
	return &dashboardUsecase{
		log:              log,
		recordRepo:       recordRepo,
		appointmentRepo:  appointmentRepo,
		insuranceRepo:    insuranceRepo,
		notificationRepo: notificationRepo,
		cardRepo:         cardRepo,
		now:              time.Now,
	}
}

// GetSummary runs the five counters concurrently.
func (u *dashboardUsecase) GetSummary(ctx context.Context) (*dto.DashboardResponse, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	now := u.now()
	summary := &dto.DashboardResponse{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		summary.MedicalRecords, err = u.recordRepo.CountByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		summary.UpcomingAppointments, err = u.appointmentRepo.CountUpcoming(gctx, userID, now)
		return err
	})
	g.Go(func() (err error) {
		summary.ActiveInsurances, err = u.insuranceRepo.CountActive(gctx, userID, now)
		return err
	})
	g.Go(func() (err error) {
		summary.UnreadNotifications, err = u.notificationRepo.CountUnread(gctx, userID)
		return err
	})
	g.Go(func() error {
		card, err := u.cardRepo.FindByUser(gctx, userID)
		summary.HasMedicalCard = card != nil
		return err
	})

	if err := g.Wait(); err != nil {
		u.log.Warnf("Failed to build dashboard summary: %+v", err)
		return nil, err
	}

	return summary, nil
}
