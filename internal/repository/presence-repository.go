package repository

import (
	"errors"
	"log"
	"time"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PresenceRepository interface {
	ListPresenceByNet(netID uint) ([]domain.Presence, error)
	UpsertPresence(netID, memberID uint, joinedAt time.Time) error
	RemovePresence(netID, memberID uint) error
}

type presenceRepository struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) PresenceRepository {
	return &presenceRepository{db: db}
}

func (r *presenceRepository) ListPresenceByNet(netID uint) ([]domain.Presence, error) {
	var rows []domain.Presence
	err := r.db.
		Where("net_id = ?", netID).
		Order("joined_at ASC, member_id ASC").
		Find(&rows).Error
	if err != nil {
		log.Printf("list presence by net error: %v", err)
		return nil, errors.New("failed to list presence")
	}
	return rows, nil
}

func (r *presenceRepository) UpsertPresence(netID, memberID uint, joinedAt time.Time) error {
	if netID == 0 || memberID == 0 {
		return errors.New("invalid presence keys")
	}

	row := domain.Presence{NetID: netID, MemberID: memberID, JoinedAt: joinedAt}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "net_id"}, {Name: "member_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		log.Printf("upsert presence error: %v", err)
		return errors.New("failed to upsert presence")
	}
	return nil
}

func (r *presenceRepository) RemovePresence(netID, memberID uint) error {
	err := r.db.
		Where("net_id = ? AND member_id = ?", netID, memberID).
		Delete(&domain.Presence{}).Error
	if err != nil {
		log.Printf("remove presence error: %v", err)
		return errors.New("failed to remove presence")
	}
	return nil
}
