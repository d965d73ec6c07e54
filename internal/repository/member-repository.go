package repository

import (
	"errors"
	"log"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"gorm.io/gorm"
)

type MemberRepository interface {
	FindMemberByID(memberID uint) (*domain.MemberProfile, error)
	FindMembersByIDs(memberIDs []uint) ([]domain.MemberProfile, error)
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) FindMemberByID(memberID uint) (*domain.MemberProfile, error) {
	member := &domain.MemberProfile{}

	if err := r.db.First(member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		log.Printf("find member by id error: %v", err)
		return nil, errors.New("failed to find member by ID")
	}
	return member, nil
}

func (r *memberRepository) FindMembersByIDs(memberIDs []uint) ([]domain.MemberProfile, error) {
	var members []domain.MemberProfile
	if len(memberIDs) == 0 {
		return members, nil
	}
	if err := r.db.Where("id IN ?", memberIDs).Find(&members).Error; err != nil {
		log.Printf("find members by ids error: %v", err)
		return nil, errors.New("failed to find members")
	}
	return members, nil
}
