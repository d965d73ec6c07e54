package repository

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/blae-code/nomad-nexus-beta-sub003/internal/domain"
	"github.com/blae-code/nomad-nexus-beta-sub003/internal/interfaces"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NetLogRepository interface {
	AppendLog(entry *domain.NetLog) error
	ListLogsByNet(netID uint) ([]domain.NetLog, error)
	ListLogsByNets(netIDs []uint) (map[uint][]domain.NetLog, error)
}

type netLogRepository struct {
	db       *gorm.DB
	producer interfaces.ProducerHandler
}

func NewNetLogRepository(db *gorm.DB, producer interfaces.ProducerHandler) NetLogRepository {
	return &netLogRepository{db: db, producer: producer}
}

// AppendLog writes the entry and fans it out to the org event bus. The log
// row is the durable record of governance intent; the bus publish is
// best-effort and never fails the append.
func (r *netLogRepository) AppendLog(entry *domain.NetLog) error {
	if entry == nil {
		return errors.New("nil log entry")
	}
	if entry.NetID == 0 || entry.Type == "" {
		return errors.New("log entry missing net id or type")
	}
	if entry.Severity == "" {
		entry.Severity = domain.SeverityInfo
	}
	if entry.EntryKey == "" {
		entry.EntryKey = uuid.NewString()
	}

	if err := r.db.Create(entry).Error; err != nil {
		log.Printf("append net log error: %v", err)
		return errors.New("failed to append net log")
	}

	if r.producer != nil {
		payload, err := json.Marshal(entry)
		if err == nil {
			key := []byte(strconv.FormatUint(uint64(entry.NetID), 10))
			if err := r.producer.PublishMessage(key, payload); err != nil {
				log.Printf("net log publish skipped: %v", err)
			}
		}
	}
	return nil
}

func (r *netLogRepository) ListLogsByNet(netID uint) ([]domain.NetLog, error) {
	var entries []domain.NetLog
	err := r.db.
		Where("net_id = ?", netID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		log.Printf("list net logs error: %v", err)
		return nil, errors.New("failed to list net logs")
	}
	return entries, nil
}

func (r *netLogRepository) ListLogsByNets(netIDs []uint) (map[uint][]domain.NetLog, error) {
	grouped := make(map[uint][]domain.NetLog, len(netIDs))
	if len(netIDs) == 0 {
		return grouped, nil
	}

	var entries []domain.NetLog
	err := r.db.
		Where("net_id IN ?", netIDs).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		log.Printf("list net logs batch error: %v", err)
		return nil, errors.New("failed to list net logs")
	}

	for _, e := range entries {
		grouped[e.NetID] = append(grouped[e.NetID], e)
	}
	return grouped, nil
}
