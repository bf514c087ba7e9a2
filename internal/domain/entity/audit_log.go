package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Actor realms recorded on audit entries
const (
	RealmPortal = "portal"
	RealmLedger = "ledger"
)

// AuditLog represents a system audit trail entry
type AuditLog struct {
	ID         int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorRealm string            `gorm:"type:varchar(16);not null;index:idx_audit_actor" json:"actor_realm"`
	ActorID    string            `gorm:"type:varchar(64);index:idx_audit_actor" json:"actor_id,omitempty"`
	Action     string            `gorm:"type:varchar(100);not null;index" json:"action"`
	IPAddress  string            `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogFilter narrows the admin audit listing.
type AuditLogFilter struct {
	ActorRealm string
	ActorID    string
	Action     string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

// Common audit actions
const (
	AuditActionUserLogin         = "user.login"
	AuditActionUserLogout        = "user.logout"
	AuditActionUserRegister      = "user.register"
	AuditActionProfileUpdate     = "profile.update"
	AuditActionPasswordChange    = "user.password_change"
	AuditActionTOTPEnable        = "user.totp_enable"
	AuditActionTOTPDisable       = "user.totp_disable"
	AuditActionRecordCreate      = "record.create"
	AuditActionRecordUpdate      = "record.update"
	AuditActionRecordDelete      = "record.delete"
	AuditActionAppointmentCreate = "appointment.create"
	AuditActionAppointmentCancel = "appointment.cancel"
	AuditActionInsuranceCreate   = "insurance.create"
	AuditActionInsuranceUpdate   = "insurance.update"
	AuditActionInsuranceDelete   = "insurance.delete"
	AuditActionCardIssue         = "medical_card.issue"
	AuditActionCardUpdate        = "medical_card.update"
	AuditActionDoctorCreate      = "doctor.create"
	AuditActionDoctorUpdate      = "doctor.update"
	AuditActionDoctorDelete      = "doctor.delete"

	AuditActionLedgerRegister    = "ledger.register"
	AuditActionLedgerLogin       = "ledger.login"
	AuditActionWalletLogin       = "ledger.wallet_login"
	AuditActionTransfer          = "ledger.transfer"
	AuditActionIntlTransfer      = "ledger.transfer_international"
	AuditActionLoanRequest       = "ledger.loan_request"
	AuditActionLoanApprove       = "ledger.loan_approve"
	AuditActionLoanReject        = "ledger.loan_reject"
	AuditActionLoanRepay         = "ledger.loan_repay"
	AuditActionWalletAdjust      = "ledger.wallet_adjust"
	AuditActionUserStatusChange  = "ledger.user_status"
	AuditActionBackupRun         = "ledger.backup"
)

// Actor identifies who performed an audited action.
type Actor struct {
	Realm string
	ID    string
	IP    string
}
