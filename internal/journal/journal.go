package journal

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"main/internal/schema"
)

// FillRecord is one executed fill with the position it resulted in.
type FillRecord struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	Symbol    uint32          `gorm:"index"`
	OrderID   uint64
	Side      string
	Qty       int64
	Price     decimal.Decimal `gorm:"type:numeric"`
	Position  decimal.Decimal `gorm:"type:numeric"`
	Realized  decimal.Decimal `gorm:"type:numeric"`
	CreatedAt time.Time
}

// PnLMark is a per-management-cycle mark of the symbol's P&L state.
type PnLMark struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement"`
	Symbol     uint32          `gorm:"index"`
	Mode       string
	Mid        decimal.Decimal `gorm:"type:numeric"`
	Inventory  decimal.Decimal `gorm:"type:numeric"`
	Realized   decimal.Decimal `gorm:"type:numeric"`
	Unrealized decimal.Decimal `gorm:"type:numeric"`
	Volatility decimal.Decimal `gorm:"type:numeric"`
	CreatedAt  time.Time
}

// Journal persists fills and P&L marks to Postgres. A nil Journal is a
// no-op so the engine runs unchanged without a configured DSN.
type Journal struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the journal tables.
func Open(dsn string) (*Journal, error) {
	if dsn == "" {
		return nil, errors.New("empty journal dsn")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open journal db")
	}
	if err := db.AutoMigrate(&FillRecord{}, &PnLMark{}); err != nil {
		return nil, errors.Wrap(err, "migrate journal tables")
	}
	return &Journal{db: db}, nil
}

// RecordFill appends one fill row.
func (j *Journal) RecordFill(fill schema.FillEvent, position, realized decimal.Decimal) error {
	if j == nil || j.db == nil {
		return nil
	}
	record := FillRecord{
		Symbol:   uint32(fill.Symbol),
		OrderID:  fill.OrderID,
		Side:     fill.Side.String(),
		Qty:      fill.Qty,
		Price:    fill.Price,
		Position: position,
		Realized: realized,
	}
	if err := j.db.Create(&record).Error; err != nil {
		return errors.Wrap(err, "record fill")
	}
	return nil
}

// RecordMark appends one P&L mark row.
func (j *Journal) RecordMark(mark PnLMark) error {
	if j == nil || j.db == nil {
		return nil
	}
	if err := j.db.Create(&mark).Error; err != nil {
		return errors.Wrap(err, "record mark")
	}
	return nil
}

// Close releases the underlying connection pool.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
