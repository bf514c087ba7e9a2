package service

import (
	"context"

	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type AuditService interface {
	LogCreate(ctx context.Context, actor entity.Actor, action string, entityName string, entityID string, newValue interface{}) error
	LogUpdate(ctx context.Context, actor entity.Actor, action string, entityName string, entityID string, oldValue, newValue interface{}) error
	LogDelete(ctx context.Context, actor entity.Actor, action string, entityName string, entityID string, oldValue interface{}) error
	LogEvent(ctx context.Context, actor entity.Actor, action string, metadata map[string]interface{}) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogCreate logs a create action
func (s *auditService) LogCreate(ctx context.Context, actor entity.Actor, action string, entityName string, entityID string, newValue interface{}) error {
	return s.write(ctx, actor, action, datatypes.JSONMap{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": nil,
		"new_value": newValue,
	})
}

// LogUpdate logs an update action with old and new values
func (s *auditService) LogUpdate(ctx context.Context, actor entity.Actor, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	return s.write(ctx, actor, action, datatypes.JSONMap{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": oldValue,
		"new_value": newValue,
	})
}

// LogDelete logs a delete action with old value
func (s *auditService) LogDelete(ctx context.Context, actor entity.Actor, action string, entityName string, entityID string, oldValue interface{}) error {
	return s.write(ctx, actor, action, datatypes.JSONMap{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": oldValue,
		"new_value": nil,
	})
}

// LogEvent logs an action that is not a plain entity change (login, backup).
func (s *auditService) LogEvent(ctx context.Context, actor entity.Actor, action string, metadata map[string]interface{}) error {
	return s.write(ctx, actor, action, datatypes.JSONMap(metadata))
}

func (s *auditService) write(ctx context.Context, actor entity.Actor, action string, metadata datatypes.JSONMap) error {
	auditLog := &entity.AuditLog{
		ActorRealm: actor.Realm,
		ActorID:    actor.ID,
		Action:     action,
		IPAddress:  actor.IP,
		Metadata:   metadata,
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
