package usecase

import (
	"context"
	"sync"
	"time"

	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"
	"medledger/pkg/jwt"

	"github.com/google/uuid"
)

func portalCtx(userID uuid.UUID, role string) context.Context {
	id := jwt.Identity{Subject: userID.String(), Realm: jwt.RealmPortal, Role: role}
	return middleware.WithIdentity(context.Background(), id, "access-"+id.Subject)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return pgError("23505", "idx_users_email")
		}
	}
	user.ID = uuid.New()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

type fakeDoctorRepo struct {
	doctors   map[uuid.UUID]*entity.Doctor
	deleteErr error
}

func (r *fakeDoctorRepo) add(name string, available bool) *entity.Doctor {
	if r.doctors == nil {
		r.doctors = make(map[uuid.UUID]*entity.Doctor)
	}
	d := &entity.Doctor{ID: uuid.New(), FullName: name, Specialization: "Cardiology", IsAvailable: available}
	r.doctors[d.ID] = d
	return d
}

func (r *fakeDoctorRepo) Create(_ context.Context, doctor *entity.Doctor) error {
	if r.doctors == nil {
		r.doctors = make(map[uuid.UUID]*entity.Doctor)
	}
	doctor.ID = uuid.New()
	r.doctors[doctor.ID] = doctor
	return nil
}

func (r *fakeDoctorRepo) FindAll(context.Context, entity.DoctorFilter) ([]entity.Doctor, int64, error) {
	var out []entity.Doctor
	for _, d := range r.doctors {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (r *fakeDoctorRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Doctor, error) {
	if d, ok := r.doctors[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeDoctorRepo) Update(_ context.Context, doctor *entity.Doctor) error {
	r.doctors[doctor.ID] = doctor
	return nil
}

func (r *fakeDoctorRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.doctors, id)
	return nil
}

// fakeAppointmentRepo enforces the per-doctor overlap rule in memory.
type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*entity.Appointment
	reminded     []uuid.UUID
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*entity.Appointment)}
}

func (r *fakeAppointmentRepo) overlaps(a *entity.Appointment) bool {
	for _, other := range r.appointments {
		if other.ID == a.ID || other.DoctorID != a.DoctorID || other.IsCancelled() {
			continue
		}
		if a.ScheduledAt.Before(other.EndsAt()) && other.ScheduledAt.Before(a.EndsAt()) {
			return true
		}
	}
	return false
}

func (r *fakeAppointmentRepo) CreateExclusive(_ context.Context, a *entity.Appointment) error {
	if r.overlaps(a) {
		return repository.ErrSlotTaken
	}
	a.ID = uuid.New()
	copied := *a
	r.appointments[a.ID] = &copied
	return nil
}

// RescheduleExclusive writes only the columns the real update touches.
func (r *fakeAppointmentRepo) RescheduleExclusive(_ context.Context, a *entity.Appointment) error {
	if r.overlaps(a) {
		return repository.ErrSlotTaken
	}
	stored, ok := r.appointments[a.ID]
	if !ok {
		return nil
	}
	stored.ScheduledAt = a.ScheduledAt
	stored.DurationMinutes = a.DurationMinutes
	stored.Status = a.Status
	stored.ReminderSent = false
	return nil
}

func (r *fakeAppointmentRepo) FindByUser(_ context.Context, userID uuid.UUID, _ entity.AppointmentScope, _ time.Time) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range r.appointments {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) FindByIDForUser(_ context.Context, id, userID uuid.UUID) (*entity.Appointment, error) {
	if a, ok := r.appointments[id]; ok && a.UserID == userID {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeAppointmentRepo) Cancel(_ context.Context, id, userID uuid.UUID) (int64, error) {
	a, ok := r.appointments[id]
	if !ok || a.UserID != userID || a.IsClosed() {
		return 0, nil
	}
	a.Cancel()
	return 1, nil
}

func (r *fakeAppointmentRepo) CountUpcoming(_ context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var n int64
	for _, a := range r.appointments {
		if a.UserID == userID && a.ScheduledAt.After(now) && !a.IsClosed() {
			n++
		}
	}
	return n, nil
}

func (r *fakeAppointmentRepo) FindDueReminders(_ context.Context, from, to time.Time) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range r.appointments {
		if !a.ReminderSent && !a.IsClosed() && !a.ScheduledAt.Before(from) && !a.ScheduledAt.After(to) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) MarkReminderSent(_ context.Context, id uuid.UUID) error {
	r.appointments[id].ReminderSent = true
	r.reminded = append(r.reminded, id)
	return nil
}

type fakeNotificationRepo struct {
	notifications []entity.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	n.ID = uuid.New()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *fakeNotificationRepo) FindByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, _, _ int) ([]entity.Notification, int64, error) {
	var out []entity.Notification
	for _, n := range r.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID) (int64, error) {
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications[i].IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for i := range r.notifications {
		if r.notifications[i].UserID == userID && !r.notifications[i].IsRead {
			r.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id, userID uuid.UUID) (int64, error) {
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, note := range r.notifications {
		if note.UserID == userID && !note.IsRead {
			n++
		}
	}
	return n, nil
}

type fakeInsuranceRepo struct {
	policies map[uuid.UUID]*entity.Insurance
}

func newFakeInsuranceRepo() *fakeInsuranceRepo {
	return &fakeInsuranceRepo{policies: make(map[uuid.UUID]*entity.Insurance)}
}

func (r *fakeInsuranceRepo) duplicate(i *entity.Insurance) bool {
	for _, other := range r.policies {
		if other.ID != i.ID && other.UserID == i.UserID && other.PolicyNumber == i.PolicyNumber {
			return true
		}
	}
	return false
}

func (r *fakeInsuranceRepo) Create(_ context.Context, i *entity.Insurance) error {
	if r.duplicate(i) {
		return pgError("23505", "idx_insurance_owner_policy")
	}
	i.ID = uuid.New()
	copied := *i
	r.policies[i.ID] = &copied
	return nil
}

func (r *fakeInsuranceRepo) FindByUser(_ context.Context, userID uuid.UUID) ([]entity.Insurance, error) {
	var out []entity.Insurance
	for _, i := range r.policies {
		if i.UserID == userID {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (r *fakeInsuranceRepo) FindByIDForUser(_ context.Context, id, userID uuid.UUID) (*entity.Insurance, error) {
	if i, ok := r.policies[id]; ok && i.UserID == userID {
		copied := *i
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeInsuranceRepo) Update(_ context.Context, i *entity.Insurance) error {
	if r.duplicate(i) {
		return pgError("23505", "idx_insurance_owner_policy")
	}
	copied := *i
	r.policies[i.ID] = &copied
	return nil
}

func (r *fakeInsuranceRepo) Delete(_ context.Context, id, userID uuid.UUID) (int64, error) {
	if i, ok := r.policies[id]; ok && i.UserID == userID {
		delete(r.policies, id)
		return 1, nil
	}
	return 0, nil
}

func (r *fakeInsuranceRepo) CountActive(_ context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var n int64
	for _, i := range r.policies {
		if i.UserID == userID && i.EffectiveStatus(now) == entity.InsuranceStatusActive {
			n++
		}
	}
	return n, nil
}

// fakeMedicalCardRepo holds one card per user. collisions makes the next
// Create calls fail on the card number index.
type fakeMedicalCardRepo struct {
	cards      map[uuid.UUID]*entity.MedicalCard
	collisions int
	attempts   []string
}

func newFakeMedicalCardRepo() *fakeMedicalCardRepo {
	return &fakeMedicalCardRepo{cards: make(map[uuid.UUID]*entity.MedicalCard)}
}

func (r *fakeMedicalCardRepo) Create(_ context.Context, card *entity.MedicalCard) error {
	r.attempts = append(r.attempts, card.CardNumber)
	if _, ok := r.cards[card.UserID]; ok {
		return pgError("23505", "idx_medical_cards_user_id")
	}
	if r.collisions > 0 {
		r.collisions--
		return pgError("23505", "idx_medical_cards_card_number")
	}
	card.ID = uuid.New()
	copied := *card
	r.cards[card.UserID] = &copied
	return nil
}

func (r *fakeMedicalCardRepo) FindByUser(_ context.Context, userID uuid.UUID) (*entity.MedicalCard, error) {
	if c, ok := r.cards[userID]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeMedicalCardRepo) Update(_ context.Context, card *entity.MedicalCard) error {
	copied := *card
	r.cards[card.UserID] = &copied
	return nil
}

type fakeMedicalRecordRepo struct {
	records map[uuid.UUID]*entity.MedicalRecord
}

func newFakeMedicalRecordRepo() *fakeMedicalRecordRepo {
	return &fakeMedicalRecordRepo{records: make(map[uuid.UUID]*entity.MedicalRecord)}
}

func (r *fakeMedicalRecordRepo) Create(_ context.Context, record *entity.MedicalRecord) error {
	record.ID = uuid.New()
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *fakeMedicalRecordRepo) FindByUser(_ context.Context, userID uuid.UUID, filter entity.RecordFilter) ([]entity.MedicalRecord, int64, error) {
	var out []entity.MedicalRecord
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		if filter.RecordType != "" && string(rec.RecordType) != filter.RecordType {
			continue
		}
		out = append(out, *rec)
	}
	return out, int64(len(out)), nil
}

func (r *fakeMedicalRecordRepo) FindByIDForUser(_ context.Context, id, userID uuid.UUID) (*entity.MedicalRecord, error) {
	if rec, ok := r.records[id]; ok && rec.UserID == userID {
		copied := *rec
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeMedicalRecordRepo) Update(_ context.Context, record *entity.MedicalRecord) error {
	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *fakeMedicalRecordRepo) Delete(_ context.Context, id, userID uuid.UUID) (int64, error) {
	if rec, ok := r.records[id]; ok && rec.UserID == userID {
		delete(r.records, id)
		return 1, nil
	}
	return 0, nil
}

func (r *fakeMedicalRecordRepo) CountByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, rec := range r.records {
		if rec.UserID == userID {
			n++
		}
	}
	return n, nil
}
