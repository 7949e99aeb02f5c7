// Package repository provides data access interfaces and implementations
package repository

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"seaport-backend/internal/engine"
	"seaport-backend/internal/models"
	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderStateRepository persists order statuses, nonces and fulfillment history.
// It satisfies engine.Store.
type OrderStateRepository interface {
	engine.Store

	// Query methods
	FulfillmentsByOrder(ctx context.Context, orderHash common.Hash) ([]engine.FulfillmentRecord, error)
	FulfillmentsByFulfiller(ctx context.Context, fulfiller common.Address, page, pageSize int) ([]engine.FulfillmentRecord, int64, error)
}

// orderStateRepository implements OrderStateRepository
type orderStateRepository struct {
	db *gorm.DB
}

// NewOrderStateRepository creates a new OrderStateRepository instance
func NewOrderStateRepository(db *gorm.DB) OrderStateRepository {
	return &orderStateRepository{db: db}
}

// OrderStatus returns the stored status, or an unseen status when none is stored
func (r *orderStateRepository) OrderStatus(ctx context.Context, orderHash common.Hash) (types.OrderStatus, error) {
	var record models.OrderStatusRecord
	err := r.db.WithContext(ctx).Where("order_hash = ?", orderHash.Hex()).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewOrderStatus(), nil
	}
	if err != nil {
		return types.OrderStatus{}, err
	}
	return recordToStatus(record)
}

// Nonce returns the stored nonce of an offerer, zero when none is stored
func (r *orderStateRepository) Nonce(ctx context.Context, offerer common.Address) (*big.Int, error) {
	var record models.OffererNonce
	err := r.db.WithContext(ctx).Where("offerer = ?", offerer.Hex()).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return parseNumeric(record.Nonce)
}

// Apply writes every staged update of one engine call in a single transaction
func (r *orderStateRepository) Apply(ctx context.Context, batch *engine.StateBatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(batch.Statuses) > 0 {
			records := make([]models.OrderStatusRecord, len(batch.Statuses))
			for i, u := range batch.Statuses {
				records[i] = statusToRecord(u.OrderHash, u.Status)
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "order_hash"}},
				DoUpdates: clause.AssignmentColumns([]string{"is_validated", "is_cancelled", "total_filled", "total_size", "updated_at"}),
			}).Create(&records).Error
			if err != nil {
				return fmt.Errorf("failed to upsert order statuses: %w", err)
			}
		}

		if len(batch.Nonces) > 0 {
			records := make([]models.OffererNonce, len(batch.Nonces))
			for i, u := range batch.Nonces {
				records[i] = models.OffererNonce{Offerer: u.Offerer.Hex(), Nonce: u.Nonce.String()}
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "offerer"}},
				DoUpdates: clause.AssignmentColumns([]string{"nonce", "updated_at"}),
			}).Create(&records).Error
			if err != nil {
				return fmt.Errorf("failed to upsert nonces: %w", err)
			}
		}

		if len(batch.Fulfillments) > 0 {
			records := make([]models.FulfillmentRecord, len(batch.Fulfillments))
			for i, f := range batch.Fulfillments {
				records[i] = fulfillmentToRecord(f)
			}
			if err := tx.Create(&records).Error; err != nil {
				return fmt.Errorf("failed to insert fulfillment records: %w", err)
			}
		}
		return nil
	})
}

// FulfillmentsByOrder returns the fill history of an order, oldest first
func (r *orderStateRepository) FulfillmentsByOrder(ctx context.Context, orderHash common.Hash) ([]engine.FulfillmentRecord, error) {
	var records []models.FulfillmentRecord
	err := r.db.WithContext(ctx).
		Where("order_hash = ?", orderHash.Hex()).
		Order("timestamp ASC, created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return recordsToFulfillments(records)
}

// FulfillmentsByFulfiller retrieves paginated fills made by an account, newest first
func (r *orderStateRepository) FulfillmentsByFulfiller(ctx context.Context, fulfiller common.Address, page, pageSize int) ([]engine.FulfillmentRecord, int64, error) {
	var records []models.FulfillmentRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.FulfillmentRecord{}).Where("fulfiller = ?", fulfiller.Hex())
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Where("fulfiller = ?", fulfiller.Hex()).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	out, err := recordsToFulfillments(records)
	return out, total, err
}

func statusToRecord(orderHash common.Hash, status types.OrderStatus) models.OrderStatusRecord {
	return models.OrderStatusRecord{
		OrderHash:   orderHash.Hex(),
		IsValidated: status.IsValidated,
		IsCancelled: status.IsCancelled,
		TotalFilled: numericString(status.TotalFilled),
		TotalSize:   numericString(status.TotalSize),
	}
}

func recordToStatus(record models.OrderStatusRecord) (types.OrderStatus, error) {
	filled, err := parseNumeric(record.TotalFilled)
	if err != nil {
		return types.OrderStatus{}, err
	}
	size, err := parseNumeric(record.TotalSize)
	if err != nil {
		return types.OrderStatus{}, err
	}
	return types.OrderStatus{
		IsValidated: record.IsValidated,
		IsCancelled: record.IsCancelled,
		TotalFilled: filled,
		TotalSize:   size,
	}, nil
}

func fulfillmentToRecord(f engine.FulfillmentRecord) models.FulfillmentRecord {
	return models.FulfillmentRecord{
		ID:          f.ID,
		ReceiptID:   f.ReceiptID,
		OrderHash:   f.OrderHash.Hex(),
		Offerer:     f.Offerer.Hex(),
		Fulfiller:   f.Fulfiller.Hex(),
		Numerator:   numericString(f.Numerator),
		Denominator: numericString(f.Denominator),
		Timestamp:   f.Timestamp,
	}
}

func recordsToFulfillments(records []models.FulfillmentRecord) ([]engine.FulfillmentRecord, error) {
	out := make([]engine.FulfillmentRecord, 0, len(records))
	for _, rec := range records {
		num, err := parseNumeric(rec.Numerator)
		if err != nil {
			return nil, err
		}
		den, err := parseNumeric(rec.Denominator)
		if err != nil {
			return nil, err
		}
		out = append(out, engine.FulfillmentRecord{
			ID:          rec.ID,
			ReceiptID:   rec.ReceiptID,
			OrderHash:   common.HexToHash(rec.OrderHash),
			Offerer:     common.HexToAddress(rec.Offerer),
			Fulfiller:   common.HexToAddress(rec.Fulfiller),
			Numerator:   num,
			Denominator: den,
			Timestamp:   rec.Timestamp,
		})
	}
	return out, nil
}

func numericString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseNumeric(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", s)
	}
	return v, nil
}
