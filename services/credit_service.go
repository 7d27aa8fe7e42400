package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/team-educhange/gibo-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientCredit is returned when the balance cannot cover a deduction
var ErrInsufficientCredit = errors.New("insufficient credit")

// ErrUnknownUser is returned for an account id with no row
var ErrUnknownUser = errors.New("unknown user")

// CreditStore is the collaborator the submission gate deducts through
type CreditStore interface {
	// Deduct removes amount from the user's balance and logs the transaction.
	// Returns the balance after deduction.
	Deduct(ctx context.Context, userID string, amount int, serviceID string) (int, error)
}

// CreditService implements CreditStore on Postgres
type CreditService struct {
	db *gorm.DB
}

// NewCreditService creates a new credit service
func NewCreditService(db *gorm.DB) *CreditService {
	return &CreditService{db: db}
}

// Deduct runs check-and-decrement in one transaction with the user row locked,
// so two submissions racing on the same account cannot both pass the balance
// check. The submission lock already serializes submits, but the ledger must
// stay correct even if credits are ever spent from another path.
func (s *CreditService) Deduct(ctx context.Context, userID string, amount int, serviceID string) (int, error) {
	var balanceAfter int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownUser
			}
			return fmt.Errorf("failed to load user %s: %w", userID, err)
		}

		if user.Credit < amount {
			return ErrInsufficientCredit
		}

		user.Credit -= amount
		balanceAfter = user.Credit

		if err := tx.Model(&model.User{}).
			Where("id = ?", user.ID).
			Update("credit", user.Credit).Error; err != nil {
			return fmt.Errorf("failed to update credit for %s: %w", userID, err)
		}

		details, _ := json.Marshal(map[string]interface{}{"account": userID})
		entry := model.CreditTransaction{
			UserID:       user.ID,
			Type:         "decrease",
			Amount:       amount,
			BalanceAfter: balanceAfter,
			ServiceID:    serviceID,
			Details:      datatypes.JSON(details),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to log credit transaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("Credit: deducted %d from %s for %s, balance now %d", amount, userID, serviceID, balanceAfter)
	return balanceAfter, nil
}
