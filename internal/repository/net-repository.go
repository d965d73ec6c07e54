package repository

import (
	"errors"
	"log"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"gorm.io/gorm"
)

type NetRepository interface {
	CreateNet(net *domain.Net) (*domain.Net, error)
	FindNetByID(netID uint) (*domain.Net, error)
	FindNetByCode(scope string, operationID *uint, code string) (*domain.Net, error)
	ListNets() ([]domain.Net, error)
	ListNetsByOperation(operationID uint) ([]domain.Net, error)
	ListOpenNetsByOwner(ownerID uint, scope string) ([]domain.Net, error)
	ListOpenTempNets() ([]domain.Net, error)
	UpdateNetNegotiated(netID uint, shapes []map[string]any) error
}

type netRepository struct {
	db *gorm.DB
}

func NewNetRepository(db *gorm.DB) NetRepository {
	return &netRepository{db: db}
}

func (r *netRepository) CreateNet(net *domain.Net) (*domain.Net, error) {
	if net == nil {
		return nil, errors.New("nil net")
	}

	if err := r.db.Create(net).Error; err != nil {
		log.Printf("create net error: %v", err)
		return nil, err
	}
	return net, nil
}

func (r *netRepository) FindNetByID(netID uint) (*domain.Net, error) {
	net := &domain.Net{}

	if err := r.db.First(net, netID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		log.Printf("find net by id error: %v", err)
		return nil, errors.New("failed to find net by ID")
	}
	return net, nil
}

func (r *netRepository) FindNetByCode(scope string, operationID *uint, code string) (*domain.Net, error) {
	net := &domain.Net{}

	q := r.db.Where("scope = ? AND code = ?", scope, code)
	if operationID != nil {
		q = q.Where("operation_id = ?", *operationID)
	} else {
		q = q.Where("operation_id IS NULL")
	}

	if err := q.First(net).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		log.Printf("find net by code error: %v", err)
		return nil, errors.New("failed to find net by code")
	}
	return net, nil
}

func (r *netRepository) ListNets() ([]domain.Net, error) {
	var nets []domain.Net
	if err := r.db.Order("id ASC").Find(&nets).Error; err != nil {
		log.Printf("list nets error: %v", err)
		return nil, errors.New("failed to list nets")
	}
	return nets, nil
}

func (r *netRepository) ListNetsByOperation(operationID uint) ([]domain.Net, error) {
	var nets []domain.Net
	if err := r.db.Where("operation_id = ?", operationID).Order("id ASC").Find(&nets).Error; err != nil {
		log.Printf("list nets by operation error: %v", err)
		return nil, errors.New("failed to list nets by operation")
	}
	return nets, nil
}

func (r *netRepository) ListOpenNetsByOwner(ownerID uint, scope string) ([]domain.Net, error) {
	var nets []domain.Net
	err := r.db.
		Where("owner_id = ? AND scope = ? AND status <> ?", ownerID, scope, domain.NetStatusClosed).
		Find(&nets).Error
	if err != nil {
		log.Printf("list open nets by owner error: %v", err)
		return nil, errors.New("failed to list nets by owner")
	}
	return nets, nil
}

func (r *netRepository) ListOpenTempNets() ([]domain.Net, error) {
	var nets []domain.Net
	err := r.db.
		Where("scope IN ? AND status <> ?",
			[]string{domain.ScopeTempAdhoc, domain.ScopeTempOperation},
			domain.NetStatusClosed).
		Order("id ASC").
		Find(&nets).Error
	if err != nil {
		log.Printf("list open temp nets error: %v", err)
		return nil, errors.New("failed to list temp nets")
	}
	return nets, nil
}

// UpdateNetNegotiated applies the first candidate field shape the store
// accepts. The row store is loosely typed and has rejected writes by shape
// before; callers append the matching log entry first, so the row update is
// a projection refresh, not the record of intent.
func (r *netRepository) UpdateNetNegotiated(netID uint, shapes []map[string]any) error {
	if netID == 0 {
		return errors.New("invalid net id")
	}

	var lastErr error
	for _, shape := range shapes {
		if len(shape) == 0 {
			continue
		}
		res := r.db.Model(&domain.Net{}).Where("id = ?", netID).Updates(shape)
		if res.Error == nil && res.RowsAffected > 0 {
			return nil
		}
		if res.Error != nil {
			log.Printf("net %d write shape rejected: %v", netID, res.Error)
			lastErr = res.Error
		} else {
			lastErr = errors.New("write not accepted")
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no candidate shapes")
	}
	return lastErr
}
