package repository

import (
	"errors"
	"log"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"gorm.io/gorm"
)

type OperationRepository interface {
	FindOperationByID(operationID uint) (*domain.Operation, error)
	ListOperationsInWindow(from, to time.Time) ([]domain.Operation, error)
}

type operationRepository struct {
	db *gorm.DB
}

func NewOperationRepository(db *gorm.DB) OperationRepository {
	return &operationRepository{db: db}
}

func (r *operationRepository) FindOperationByID(operationID uint) (*domain.Operation, error) {
	op := &domain.Operation{}

	if err := r.db.First(op, operationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		log.Printf("find operation by id error: %v", err)
		return nil, errors.New("failed to find operation by ID")
	}
	return op, nil
}

func (r *operationRepository) ListOperationsInWindow(from, to time.Time) ([]domain.Operation, error) {
	var ops []domain.Operation
	err := r.db.
		Where("start_at >= ? AND start_at <= ?", from, to).
		Where("status NOT IN ?", []string{domain.OperationCancelled}).
		Order("start_at ASC").
		Find(&ops).Error
	if err != nil {
		log.Printf("list operations in window error: %v", err)
		return nil, errors.New("failed to list operations")
	}
	return ops, nil
}
