package offline

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Store owns the durable offline mutation queue. It is the only writer of
// queued_mutations and local_sequences; everything else goes through the
// operations below. Construct one at startup and inject it; there is no
// package-level instance.
type Store struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewStore(db *gorm.DB, logger *logrus.Logger) *Store {
	return &Store{DB: db, Logger: logger}
}

// MutationDescriptor is what a domain operation hands the store. EntityId
// is never supplied by the caller: creates get one allocated inside the
// enqueue transaction, everything else carries none.
type MutationDescriptor struct {
	Method         models.MutationMethod
	URL            string
	Payload        any
	EntityType     models.OfflineEntityType
	ParentEntityId *int64
}

// Enqueue validates the descriptor, allocates a local entity id when the
// mutation creates an addressable entity, and persists the record, all in
// one transaction, so a crash can never leave an allocated id without its
// mutation or a mutation without its id.
func (s *Store) Enqueue(ctx context.Context, desc MutationDescriptor) (*models.QueuedMutation, error) {
	if !desc.EntityType.Valid() {
		return nil, errors.New("invalid entity type: " + string(desc.EntityType))
	}
	switch desc.Method {
	case models.MutationMethodPost, models.MutationMethodPut, models.MutationMethodDelete:
	default:
		return nil, errors.New("invalid mutation method: " + string(desc.Method))
	}
	if desc.URL == "" {
		return nil, errors.New("mutation url is required")
	}
	if (desc.EntityType.IsItemCreate() || desc.EntityType.IsAction()) && desc.ParentEntityId == nil {
		return nil, utils.ErrParentRequired
	}

	var payload []byte
	if desc.Payload != nil {
		var err error
		payload, err = json.Marshal(desc.Payload)
		if err != nil {
			return nil, err
		}
	}

	record := models.QueuedMutation{
		Method:         desc.Method,
		URL:            desc.URL,
		Payload:        payload,
		EntityType:     desc.EntityType,
		ParentEntityId: desc.ParentEntityId,
		CorrelationId:  correlationIdFromContextOrNew(ctx),
		ReplayStatus:   models.ReplayStatusPending,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if desc.EntityType.IsDocumentCreate() || desc.EntityType.IsItemCreate() {
			id, err := nextLocalEntityId(tx)
			if err != nil {
				return err
			}
			record.EntityId = &id
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{
				"module":      "offline",
				"entity_type": desc.EntityType,
				"url":         desc.URL,
			}).Error("enqueue failed: " + err.Error())
		}
		return nil, errors.Join(utils.ErrStoreUnavailable, err)
	}
	return &record, nil
}

// AllocateLocalEntityId hands out a local id outside of an enqueue, for
// callers that need the id before building the mutation. Ids are negative
// and strictly decreasing for the life of the installation.
func (s *Store) AllocateLocalEntityId(ctx context.Context) (int64, error) {
	var id int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = nextLocalEntityId(tx)
		return err
	})
	return id, err
}

func nextLocalEntityId(tx *gorm.DB) (int64, error) {
	var seq models.LocalSequence
	err := tx.Where("name = ?", models.SequenceOfflineEntityId).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = models.LocalSequence{Name: models.SequenceOfflineEntityId, NextValue: -1}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}
	id := seq.NextValue
	if id >= 0 {
		return 0, errors.New("local sequence corrupted: non-negative next value")
	}
	if err := tx.Model(&models.LocalSequence{}).
		Where("name = ?", models.SequenceOfflineEntityId).
		Update("next_value", id-1).Error; err != nil {
		return 0, err
	}
	return id, nil
}

// ListQueuedEntities returns queued creations of one top-level document
// type in enqueue order.
func (s *Store) ListQueuedEntities(ctx context.Context, entityType models.OfflineEntityType) ([]*models.QueuedMutation, error) {
	if !entityType.IsDocumentCreate() {
		return nil, errors.New("entity type is not a document create: " + string(entityType))
	}
	var records []*models.QueuedMutation
	err := s.DB.WithContext(ctx).
		Where("entity_type = ?", entityType).
		Order("id ASC").
		Find(&records).Error
	return records, err
}

// ListQueueItemsByEntity returns queued child mutations (items or actions)
// of one parent document in enqueue order. The parent id may be a negative
// local id or a server id.
func (s *Store) ListQueueItemsByEntity(ctx context.Context, entityType models.OfflineEntityType, parentEntityId int64) ([]*models.QueuedMutation, error) {
	if entityType.IsDocumentCreate() {
		return nil, errors.New("entity type has no parent: " + string(entityType))
	}
	var records []*models.QueuedMutation
	err := s.DB.WithContext(ctx).
		Where("entity_type = ? AND parent_entity_id = ?", entityType, parentEntityId).
		Order("id ASC").
		Find(&records).Error
	return records, err
}

// ListAll returns the whole queue in enqueue order, for inspection tools
// and the /queue endpoint.
func (s *Store) ListAll(ctx context.Context) ([]*models.QueuedMutation, error) {
	var records []*models.QueuedMutation
	err := s.DB.WithContext(ctx).Order("id ASC").Find(&records).Error
	return records, err
}

// QueuedMessage builds the user-facing acknowledgement for a queued
// state-transition action; there is no server response to relay yet.
func (s *Store) QueuedMessage(label string) *models.ActionAck {
	return &models.ActionAck{Message: label + " queued"}
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
