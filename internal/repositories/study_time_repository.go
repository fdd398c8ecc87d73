package repositories

import (
	"errors"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"studyroom/internal/models"
)

var ErrAccountNotFound = errors.New("account not found")

// Open connects the ledger database: Postgres when the URL looks like
// one (managed deployments), a local SQLite file otherwise.
func Open(databaseURL string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		db, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	} else {
		db, err = gorm.Open(sqlite.Open(databaseURL), &gorm.Config{})
	}
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.StudyAccount{}); err != nil {
		return nil, err
	}
	return db, nil
}

// StudyTimeRepository is the persisted study-time ledger: cumulative
// minutes per account.
type StudyTimeRepository struct {
	DB *gorm.DB
}

func NewStudyTimeRepository(db *gorm.DB) *StudyTimeRepository {
	return &StudyTimeRepository{DB: db}
}

// CreateAccount registers a new account.
func (r *StudyTimeRepository) CreateAccount(account *models.StudyAccount) error {
	return r.DB.Create(account).Error
}

// GetAccount looks an account up by id.
func (r *StudyTimeRepository) GetAccount(userDBID uint) (*models.StudyAccount, error) {
	var account models.StudyAccount
	err := r.DB.First(&account, userDBID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	return &account, err
}

// TotalMinutes returns the accumulated study time for an account.
func (r *StudyTimeRepository) TotalMinutes(userDBID uint) (int64, error) {
	account, err := r.GetAccount(userDBID)
	if err != nil {
		return 0, err
	}
	return account.TotalStudyTime, nil
}

// AddMinutes atomically increments an account's accumulated minutes.
func (r *StudyTimeRepository) AddMinutes(userDBID uint, minutes int64) error {
	if minutes <= 0 {
		return nil
	}
	result := r.DB.Model(&models.StudyAccount{}).
		Where("id = ?", userDBID).
		UpdateColumn("total_study_time", gorm.Expr("total_study_time + ?", minutes))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
