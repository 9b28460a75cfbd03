package services

import (
	"errors"
	"fmt"
	"time"

	"billsplit-backend/models"
	"billsplit-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBillNotFound   = errors.New("bill not found")
	ErrNoParticipants = errors.New("bill has no participants to split among")
	ErrInvalidSplit   = errors.New("invalid split request")
)

// SumTolerance is the absolute slack allowed when comparing a custom amount
// sum against the bill total, or a percentage sum against 100.
const SumTolerance = 0.01

// SplitBill allocates a bill's total among its participants under the given
// method and replaces the bill's expense ledger with the result. Everything
// runs in a single transaction that first takes a write lock on the bill row,
// so concurrent splits of the same bill serialize and the last commit replaces
// the ledger in full; a failed split rolls back without touching it. SQLite
// has no SELECT ... FOR UPDATE, so the lock is taken by touching the row,
// which acquires the same row-level write lock on Postgres.
func SplitBill(db *gorm.DB, billID uuid.UUID, method models.SplitMethod, customAmounts map[uuid.UUID]float64) ([]models.Expense, error) {
	var expenses []models.Expense

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Bill{}).Where("id = ?", billID).Update("updated_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBillNotFound
		}

		var bill models.Bill
		if err := tx.First(&bill, "id = ?", billID).Error; err != nil {
			return err
		}

		var participants []models.BillParticipant
		if err := tx.Where("bill_id = ?", billID).Find(&participants).Error; err != nil {
			return err
		}
		if len(participants) == 0 {
			return ErrNoParticipants
		}

		var err error
		expenses, err = allocate(bill, participants, method, customAmounts)
		if err != nil {
			return err
		}

		if err := tx.Where("bill_id = ?", billID).Delete(&models.Expense{}).Error; err != nil {
			return err
		}
		for i := range expenses {
			if err := tx.Create(&expenses[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return expenses, nil
}

func allocate(bill models.Bill, participants []models.BillParticipant, method models.SplitMethod, customAmounts map[uuid.UUID]float64) ([]models.Expense, error) {
	switch method {
	case models.SplitEqual:
		return allocateEqual(bill, participants), nil
	case models.SplitExact:
		return allocateExact(bill, participants, customAmounts)
	case models.SplitPercentage:
		return allocatePercentage(bill, participants, customAmounts)
	default:
		return nil, fmt.Errorf("%w: unknown split method %q", ErrInvalidSplit, method)
	}
}

// allocateEqual rounds each share independently. The summed shares may drift
// from the bill total by up to len(participants) * 0.005; that drift is the
// documented behavior, not reconciled.
func allocateEqual(bill models.Bill, participants []models.BillParticipant) []models.Expense {
	perPerson := utils.RoundToTwo(bill.TotalAmount / float64(len(participants)))

	var expenses []models.Expense
	for _, p := range participants {
		expenses = append(expenses, models.Expense{
			BillID:      bill.ID,
			UserID:      p.UserID,
			AmountOwed:  perPerson,
			AmountPaid:  0.0,
			SplitMethod: models.SplitEqual,
		})
	}
	return expenses
}

func allocateExact(bill models.Bill, participants []models.BillParticipant, customAmounts map[uuid.UUID]float64) ([]models.Expense, error) {
	if len(customAmounts) == 0 {
		return nil, fmt.Errorf("%w: custom_amounts required for exact split method", ErrInvalidSplit)
	}

	if !keysMatchParticipants(customAmounts, participants) {
		return nil, fmt.Errorf("%w: must provide exact amounts for all participants", ErrInvalidSplit)
	}

	var total float64
	for _, amount := range customAmounts {
		total += amount
	}
	if diff := total - bill.TotalAmount; diff > SumTolerance || diff < -SumTolerance {
		return nil, fmt.Errorf("%w: custom amounts sum (%.2f) must equal bill total (%.2f)", ErrInvalidSplit, total, bill.TotalAmount)
	}

	var expenses []models.Expense
	for _, p := range participants {
		expenses = append(expenses, models.Expense{
			BillID:      bill.ID,
			UserID:      p.UserID,
			AmountOwed:  utils.RoundToTwo(customAmounts[p.UserID]),
			AmountPaid:  0.0,
			SplitMethod: models.SplitExact,
		})
	}
	return expenses, nil
}

func allocatePercentage(bill models.Bill, participants []models.BillParticipant, customAmounts map[uuid.UUID]float64) ([]models.Expense, error) {
	if len(customAmounts) == 0 {
		return nil, fmt.Errorf("%w: custom_amounts required for percentage split method", ErrInvalidSplit)
	}

	var totalPercentage float64
	for _, pct := range customAmounts {
		totalPercentage += pct
	}
	if diff := totalPercentage - 100; diff > SumTolerance || diff < -SumTolerance {
		return nil, fmt.Errorf("%w: percentages must sum to 100, got %.2f", ErrInvalidSplit, totalPercentage)
	}

	if !keysMatchParticipants(customAmounts, participants) {
		return nil, fmt.Errorf("%w: must provide percentages for all participants", ErrInvalidSplit)
	}

	var expenses []models.Expense
	for _, p := range participants {
		amount := customAmounts[p.UserID] / 100 * bill.TotalAmount
		expenses = append(expenses, models.Expense{
			BillID:      bill.ID,
			UserID:      p.UserID,
			AmountOwed:  utils.RoundToTwo(amount),
			AmountPaid:  0.0,
			SplitMethod: models.SplitPercentage,
		})
	}
	return expenses, nil
}

// keysMatchParticipants reports whether the map keys equal the participant-id
// set exactly: no missing, no extra.
func keysMatchParticipants(customAmounts map[uuid.UUID]float64, participants []models.BillParticipant) bool {
	if len(customAmounts) != len(participants) {
		return false
	}
	for _, p := range participants {
		if _, ok := customAmounts[p.UserID]; !ok {
			return false
		}
	}
	return true
}
