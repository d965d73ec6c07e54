package repository

import (
	"errors"
	"log"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"gorm.io/gorm"
)

type DutyRepository interface {
	ListDutiesByOperation(operationID uint) ([]domain.DutyAssignment, error)
}

type dutyRepository struct {
	db *gorm.DB
}

func NewDutyRepository(db *gorm.DB) DutyRepository {
	return &dutyRepository{db: db}
}

func (r *dutyRepository) ListDutiesByOperation(operationID uint) ([]domain.DutyAssignment, error) {
	var duties []domain.DutyAssignment
	if err := r.db.Where("operation_id = ?", operationID).Find(&duties).Error; err != nil {
		log.Printf("list duties by operation error: %v", err)
		return nil, errors.New("failed to list duty assignments")
	}
	return duties, nil
}
