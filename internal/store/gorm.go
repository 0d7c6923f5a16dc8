package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/ginjaninja78/debtledger/internal/csvcodec"
	"github.com/ginjaninja78/debtledger/internal/types"
)

// Debt is the database row for one debt record.
type Debt struct {
	ID            string          `gorm:"type:char(36);primaryKey" json:"id"`
	UserID        string          `gorm:"size:64;index;not null" json:"user_id"`
	ContactName   string          `gorm:"size:255;not null" json:"contact_name"`
	ContactPhone  string          `gorm:"size:64;not null" json:"contact_phone"`
	ContactEmail  string          `gorm:"size:255;default:null" json:"contact_email"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Currency      string          `gorm:"size:8;not null" json:"currency"`
	Description   string          `gorm:"type:text;default:null" json:"description"`
	LoanDate      datatypes.Date  `gorm:"not null" json:"loan_date"`
	DueDate       datatypes.Date  `gorm:"index;not null" json:"due_date"`
	RepaymentDate *datatypes.Date `gorm:"default:null" json:"repayment_date"`
	Status        types.Status    `gorm:"type:enum('PENDING','PAID','OVERDUE');default:PENDING;index" json:"status"`
	DebtType      types.DebtType  `gorm:"type:enum('OWING','OWED');default:OWING" json:"debt_type"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Debt) TableName() string {
	return "debts"
}

func (d *Debt) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// GormStore keeps records in MySQL.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an already opened connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Open connects to MySQL and tunes the connection pool. SQL statements are
// logged through logg at Info when logg is at debug level, errors otherwise.
func Open(dsn string, logg *logrus.Logger) (*GormStore, error) {
	level := logger.Error
	if logg.IsLevelEnabled(logrus.DebugLevel) {
		level = logger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.New(logg, logger.Config{
			Colorful:      false,
			LogLevel:      level,
			SlowThreshold: time.Second,
		}),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
			TablePrefix:   "",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Minute)

	return NewGormStore(db), nil
}

// Migrate creates or updates the debts table.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Debt{})
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) ListRecords(ctx context.Context, userID string) ([]types.DebtRecord, error) {
	var rows []Debt
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list debts for %s: %w", userID, err)
	}

	records := make([]types.DebtRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	return records, nil
}

func (s *GormStore) CreateRecord(ctx context.Context, userID string, record types.DebtRecord) error {
	row, err := NewDebt(userID, record)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert debt: %w", err)
	}
	return nil
}

func (s *GormStore) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&Debt{}).
		Where("status = ? AND due_date < ?", types.StatusPending, datatypes.Date(startOfDay(today))).
		Update("status", types.StatusOverdue)
	if result.Error != nil {
		return 0, fmt.Errorf("mark overdue: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// =============================================================================
// RECORD MAPPING
// =============================================================================

// NewDebt maps a validated record onto a database row. Dates must already be
// valid ISO dates.
func NewDebt(userID string, record types.DebtRecord) (Debt, error) {
	loan, err := parseDate("loan_date", record.LoanDate)
	if err != nil {
		return Debt{}, err
	}
	due, err := parseDate("due_date", record.DueDate)
	if err != nil {
		return Debt{}, err
	}

	row := Debt{
		UserID:       userID,
		ContactName:  record.ContactName,
		ContactPhone: record.ContactPhone,
		ContactEmail: record.ContactEmail,
		Amount:       record.Amount,
		Currency:     record.Currency,
		Description:  record.Description,
		LoanDate:     loan,
		DueDate:      due,
		Status:       record.Status,
		DebtType:     record.DebtType,
	}

	if record.RepaymentDate != "" {
		repaid, err := parseDate("repayment_date", record.RepaymentDate)
		if err != nil {
			return Debt{}, err
		}
		row.RepaymentDate = &repaid
	}
	return row, nil
}

// Record maps the row back to the pipeline representation.
func (d Debt) Record() types.DebtRecord {
	record := types.DebtRecord{
		ContactName:  d.ContactName,
		ContactPhone: d.ContactPhone,
		ContactEmail: d.ContactEmail,
		Amount:       d.Amount,
		Currency:     d.Currency,
		Description:  d.Description,
		LoanDate:     formatDate(d.LoanDate),
		DueDate:      formatDate(d.DueDate),
		Status:       d.Status,
		DebtType:     d.DebtType,
	}
	if d.RepaymentDate != nil {
		record.RepaymentDate = formatDate(*d.RepaymentDate)
	}
	return record
}

func parseDate(field, value string) (datatypes.Date, error) {
	t, err := time.Parse(csvcodec.DateLayout, value)
	if err != nil {
		return datatypes.Date{}, fmt.Errorf("%s %q: %w", field, value, err)
	}
	return datatypes.Date(t), nil
}

func formatDate(d datatypes.Date) string {
	return time.Time(d).Format(csvcodec.DateLayout)
}

func startOfDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
