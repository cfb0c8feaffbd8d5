package repositories

import (
	"ClinicDesk/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletRepository reads wallets and records payments against them.
// Ledger entries are append-only: there is no update or delete for them.
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByPatientID(ctx context.Context, patientID string) (*models.Wallet, error)
	GetByPatientIDForUpdate(ctx context.Context, patientID string) (*models.Wallet, error)
	GetByPatientIDs(ctx context.Context, patientIDs []string) (map[string]models.Wallet, error)
	SetBalance(ctx context.Context, walletID string, expected, balance decimal.Decimal, at time.Time) (bool, error)
	AddTransaction(ctx context.Context, entry *models.WalletTransaction) error
	ListTransactions(ctx context.Context, walletID string) ([]models.WalletTransaction, error)
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) get(db *gorm.DB, patientID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := db.Where("patient_id = ?", patientID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetByPatientID(ctx context.Context, patientID string) (*models.Wallet, error) {
	return r.get(r.db.WithContext(ctx), patientID)
}

// GetByPatientIDForUpdate locks the wallet row until the surrounding
// transaction ends.
func (r *walletRepository) GetByPatientIDForUpdate(ctx context.Context, patientID string) (*models.Wallet, error) {
	return r.get(forUpdate(r.db.WithContext(ctx)), patientID)
}

func (r *walletRepository) GetByPatientIDs(ctx context.Context, patientIDs []string) (map[string]models.Wallet, error) {
	wallets := make(map[string]models.Wallet, len(patientIDs))
	if len(patientIDs) == 0 {
		return wallets, nil
	}
	var rows []models.Wallet
	if err := r.db.WithContext(ctx).Where("patient_id IN ?", patientIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get wallets: %w", err)
	}
	for _, w := range rows {
		wallets[w.PatientID] = w
	}
	return wallets, nil
}

// SetBalance replaces the balance only while it still equals expected.
// It reports false when another writer changed the wallet first.
func (r *walletRepository) SetBalance(ctx context.Context, walletID string, expected, balance decimal.Decimal, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ? AND balance = ?", walletID, expected).
		Updates(map[string]interface{}{
			"balance":               balance,
			"last_transaction_date": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update wallet balance: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *walletRepository) AddTransaction(ctx context.Context, entry *models.WalletTransaction) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record wallet transaction: %w", err)
	}
	return nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, walletID string) ([]models.WalletTransaction, error) {
	var entries []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	return entries, nil
}
