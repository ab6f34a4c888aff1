package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"onlinebank-backend/config"
	"onlinebank-backend/models"
	"onlinebank-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger owns all reads and writes of customers, auth identities, accounts,
// transactions and loans, and enforces the cross-entity invariants between
// them. Callers hold read snapshots only and re-fetch after any mutation.
type Ledger struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, timeout: 5 * time.Second}
}

// mutate runs fn inside one transaction under the per-call timeout, retrying
// transient failures. Invariant violations are logged here, distinctly from
// user-facing errors.
func (l *Ledger) mutate(op string, fn func(tx *gorm.DB) error) error {
	err := withRetry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		return l.db.WithContext(ctx).Transaction(fn)
	})
	var inv *InvariantError
	if errors.As(err, &inv) {
		config.LogError(config.GetLogger(), "services", op, "ledger invariant violated", nil, err)
	}
	return err
}

func newReference() string {
	return "TXN-" + time.Now().Format("20060102") + "-" + utils.GenerateRandomString(6)
}

// RegisterCustomer registers a customer with no initial deposit.
func (l *Ledger) RegisterCustomer(firstName, lastName, phone, password string) (uint, error) {
	return l.RegisterCustomerWithInitialBalance(firstName, lastName, phone, password, 0)
}

// RegisterCustomerWithInitialBalance atomically creates the auth identity, the
// customer, an active savings account holding initialBalance, and — when the
// balance is positive — the initial_deposit transaction recording it. All
// four writes land together or not at all. Returns the new customer id.
func (l *Ledger) RegisterCustomerWithInitialBalance(firstName, lastName, phone, password string, initialBalance int64) (uint, error) {
	if initialBalance < 0 {
		return 0, ErrInvalidAmount
	}

	var customerID uint
	err := l.mutate("registerCustomer", func(tx *gorm.DB) error {
		uid := uuid.New()

		if err := tx.Create(&models.AuthIdentity{UID: uid}).Error; err != nil {
			return err
		}

		customer := models.Customer{
			FirstName: firstName,
			LastName:  lastName,
			Phone:     phone,
			UID:       uid,
			Password:  password, // hashed in BeforeCreate
		}
		if err := tx.Create(&customer).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicatePhone
			}
			return err
		}

		account := models.Account{
			CustomerID: customer.ID,
			Balance:    initialBalance,
			Status:     models.AccountStatusActive,
			Type:       models.AccountTypeSavings,
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		if initialBalance > 0 {
			deposit := models.Transaction{
				Type:      models.TransactionTypeInitialDeposit,
				ToID:      &account.ID,
				Amount:    initialBalance,
				Reference: newReference(),
			}
			if err := tx.Create(&deposit).Error; err != nil {
				return err
			}
		}

		customerID = customer.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return customerID, nil
}

// TransferFunds atomically moves amount from one account to the other and
// records the movement as a single transaction row. Either the debit, the
// credit and the ledger entry all land, or none do. Overdrafts are rejected:
// the debit only applies while the source balance covers the amount.
func (l *Ledger) TransferFunds(fromAccountID, toAccountID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromAccountID == toAccountID {
		return ErrSameAccount
	}

	return l.mutate("transferFunds", func(tx *gorm.DB) error {
		var accounts []models.Account
		if err := tx.Where("id IN ?", []uint{fromAccountID, toAccountID}).
			Order("id").Find(&accounts).Error; err != nil {
			return err
		}
		if len(accounts) != 2 {
			return ErrAccountNotFound
		}
		for _, account := range accounts {
			if account.Status != models.AccountStatusActive {
				return ErrAccountInactive
			}
		}

		// Apply balance updates in ascending account id order so two
		// concurrent transfers over the same pair cannot deadlock.
		type step struct {
			accountID uint
			delta     int64
		}
		steps := []step{{fromAccountID, -amount}, {toAccountID, amount}}
		if toAccountID < fromAccountID {
			steps[0], steps[1] = steps[1], steps[0]
		}

		for _, s := range steps {
			query := tx.Model(&models.Account{}).Where("id = ?", s.accountID)
			if s.delta < 0 {
				query = query.Where("balance >= ?", -s.delta)
			}
			result := query.Update("balance", gorm.Expr("balance + ?", s.delta))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				if s.delta < 0 {
					return ErrInsufficientFunds
				}
				return ErrAccountNotFound
			}
		}

		movement := models.Transaction{
			Type:      models.TransactionTypeTransfer,
			FromID:    &fromAccountID,
			ToID:      &toAccountID,
			Amount:    amount,
			Reference: newReference(),
		}
		return tx.Create(&movement).Error
	})
}

// TakeLoan originates a loan for the customer: the LOAN account is created if
// absent, then the loan row, the principal credit and the disbursement
// transaction land together in the same transaction.
func (l *Ledger) TakeLoan(customerID uint, amount int64, branchID int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	return l.mutate("takeLoan", func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}

		loanAccount, err := ensureLoanAccount(tx, customerID)
		if err != nil {
			return err
		}
		if loanAccount.ID == 0 {
			return &InvariantError{
				Op:     "takeLoan",
				Detail: fmt.Sprintf("no LOAN account for customer %d after get-or-create", customerID),
			}
		}

		loan := models.Loan{CustomerID: customerID, Amount: amount, BranchID: branchID}
		if err := tx.Create(&loan).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Account{}).Where("id = ?", loanAccount.ID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &InvariantError{
				Op:     "takeLoan",
				Detail: fmt.Sprintf("LOAN account %d vanished while disbursing", loanAccount.ID),
			}
		}

		disbursement := models.Transaction{
			Type:      models.TransactionTypeLoanDisbursement,
			ToID:      &loanAccount.ID,
			Amount:    amount,
			Reference: newReference(),
		}
		return tx.Create(&disbursement).Error
	})
}

// ensureLoanAccount gets or creates the customer's LOAN account. A duplicate
// key from a concurrent creator means the account exists, so it is re-fetched
// rather than reported: exactly one LOAN account per customer survives.
func ensureLoanAccount(tx *gorm.DB, customerID uint) (models.Account, error) {
	var account models.Account
	err := tx.Where(models.Account{CustomerID: customerID, Type: models.AccountTypeLoan}).
		Attrs(models.Account{Balance: 0, Status: models.AccountStatusActive}).
		FirstOrCreate(&account).Error
	if err != nil && isDuplicateKey(err) {
		err = tx.Where("customer_id = ? AND type = ?", customerID, models.AccountTypeLoan).
			First(&account).Error
	}
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// DeleteCustomer removes the customer and every dependent record — the
// transactions touching any owned account, the accounts, the loans, the
// customer row and the auth identity — in one transaction. Returns false
// without error when the customer does not exist. Irreversible; callers
// confirm intent before invoking.
//
// Deleting transactions also erases the history behind counterparty
// balances, so each surviving account that ever transacted with a deleted
// account gets one delete_adjustment entry carrying the erased net amount.
// Balances never change here; the adjustment keeps every surviving balance
// derivable from its remaining ledger entries.
func (l *Ledger) DeleteCustomer(customerID uint) (bool, error) {
	deleted := false
	err := l.mutate("deleteCustomer", func(tx *gorm.DB) error {
		deleted = false

		var customer models.Customer
		if err := tx.First(&customer, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		var accountIDs []uint
		if err := tx.Model(&models.Account{}).Where("customer_id = ?", customerID).
			Pluck("id", &accountIDs).Error; err != nil {
			return err
		}
		if len(accountIDs) > 0 {
			adjustments, err := counterpartyAdjustments(tx, accountIDs)
			if err != nil {
				return err
			}
			if err := tx.Where("from_id IN ? OR to_id IN ?", accountIDs, accountIDs).
				Delete(&models.Transaction{}).Error; err != nil {
				return err
			}
			for _, adjustment := range adjustments {
				if err := tx.Create(&adjustment).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("customer_id = ?", customerID).
				Delete(&models.Account{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("customer_id = ?", customerID).
			Delete(&models.Loan{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Customer{}, customerID).Error; err != nil {
			return err
		}
		if err := tx.Where("uid = ?", customer.UID).
			Delete(&models.AuthIdentity{}).Error; err != nil {
			return err
		}

		deleted = true
		return nil
	})
	return deleted, err
}

// counterpartyAdjustments computes, per surviving account, the net amount the
// pending deletion erases from its history: credits received from doomed
// accounts minus debits sent to them. A positive net becomes a credit-shaped
// entry, a negative one a debit-shaped entry; zero nets write nothing.
func counterpartyAdjustments(tx *gorm.DB, doomedAccountIDs []uint) ([]models.Transaction, error) {
	type netRow struct {
		AccountID uint
		Total     int64
	}

	var credits []netRow
	if err := tx.Model(&models.Transaction{}).
		Select("to_id AS account_id, COALESCE(SUM(amount), 0) AS total").
		Where("from_id IN ? AND to_id IS NOT NULL AND to_id NOT IN ?",
			doomedAccountIDs, doomedAccountIDs).
		Group("to_id").Scan(&credits).Error; err != nil {
		return nil, err
	}

	var debits []netRow
	if err := tx.Model(&models.Transaction{}).
		Select("from_id AS account_id, COALESCE(SUM(amount), 0) AS total").
		Where("to_id IN ? AND from_id IS NOT NULL AND from_id NOT IN ?",
			doomedAccountIDs, doomedAccountIDs).
		Group("from_id").Scan(&debits).Error; err != nil {
		return nil, err
	}

	nets := make(map[uint]int64)
	for _, row := range credits {
		nets[row.AccountID] += row.Total
	}
	for _, row := range debits {
		nets[row.AccountID] -= row.Total
	}

	accountIDs := make([]uint, 0, len(nets))
	for accountID := range nets {
		accountIDs = append(accountIDs, accountID)
	}
	sort.Slice(accountIDs, func(i, j int) bool { return accountIDs[i] < accountIDs[j] })

	adjustments := make([]models.Transaction, 0, len(accountIDs))
	for _, id := range accountIDs {
		net := nets[id]
		if net == 0 {
			continue
		}
		accountID := id
		entry := models.Transaction{
			Type:      models.TransactionTypeDeleteAdjustment,
			Reference: newReference(),
		}
		if net > 0 {
			entry.ToID = &accountID
			entry.Amount = net
		} else {
			entry.FromID = &accountID
			entry.Amount = -net
		}
		adjustments = append(adjustments, entry)
	}
	return adjustments, nil
}

// --- reads ---

func (l *Ledger) AllCustomers() ([]models.Customer, error) {
	customers := []models.Customer{}
	err := l.db.Order("id").Find(&customers).Error
	return customers, err
}

func (l *Ledger) CustomerByID(customerID uint) (models.Customer, error) {
	var customer models.Customer
	if err := l.db.First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Customer{}, ErrCustomerNotFound
		}
		return models.Customer{}, err
	}
	return customer, nil
}

func (l *Ledger) CustomerByPhone(phone string) (models.Customer, error) {
	var customer models.Customer
	if err := l.db.Where("phone = ?", phone).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Customer{}, ErrCustomerNotFound
		}
		return models.Customer{}, err
	}
	return customer, nil
}

func (l *Ledger) AccountByID(accountID uint) (models.Account, error) {
	var account models.Account
	if err := l.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}

func (l *Ledger) AccountsByCustomerID(customerID uint) ([]models.Account, error) {
	accounts := []models.Account{}
	err := l.db.Where("customer_id = ?", customerID).Order("id").Find(&accounts).Error
	return accounts, err
}

// TransactionsByAccountID returns the account's statement, newest first.
func (l *Ledger) TransactionsByAccountID(accountID uint) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	err := l.db.Where("from_id = ? OR to_id = ?", accountID, accountID).
		Order("id DESC").Find(&transactions).Error
	return transactions, err
}

func (l *Ledger) LoansByCustomerID(customerID uint) ([]models.Loan, error) {
	loans := []models.Loan{}
	err := l.db.Where("customer_id = ?", customerID).Order("id").Find(&loans).Error
	return loans, err
}

func (l *Ledger) AllLoans() ([]models.Loan, error) {
	loans := []models.Loan{}
	err := l.db.Order("id").Find(&loans).Error
	return loans, err
}
