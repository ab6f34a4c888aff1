// services/audit_service.go
package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	"onlinebank-backend/config"
	"onlinebank-backend/models"

	"github.com/robfig/cron/v3"
	twilio "github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// AuditService re-derives every account balance from the transaction history
// and checks it against the stored balance. Every balance change is supposed
// to carry exactly one transaction row, so any drift is an invariant
// violation worth waking someone up for.
type AuditService struct {
	db     *gorm.DB
	client *twilio.RestClient
}

func NewAuditService(db *gorm.DB) *AuditService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &AuditService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
	}
}

func (s *AuditService) StartScheduler() {
	c := cron.New()

	// Run nightly at 2:30 AM, outside teller hours
	c.AddFunc("30 2 * * *", func() {
		s.RunAudit()
	})

	c.Start()
	config.GetLogger().Info("Ledger audit scheduler started")
}

// RunAudit walks all accounts, records the outcome as an AuditLog row and
// alerts the ops phone when the ledger has drifted.
func (s *AuditService) RunAudit() (models.AuditLog, error) {
	logger := config.GetLogger()

	var accounts []models.Account
	if err := s.db.Find(&accounts).Error; err != nil {
		config.LogError(logger, "services", "RunAudit", "failed to fetch accounts", nil, err)
		return models.AuditLog{}, err
	}

	var totalDrift int64
	var findings []string
	for _, account := range accounts {
		derived, err := s.derivedBalance(account.ID)
		if err != nil {
			config.LogError(logger, "services", "RunAudit", "failed to derive balance",
				account.ID, err)
			return models.AuditLog{}, err
		}
		if derived != account.Balance {
			totalDrift += account.Balance - derived
			findings = append(findings, fmt.Sprintf(
				"account %d: balance %d, transactions say %d", account.ID, account.Balance, derived))
		}
	}

	entry := models.AuditLog{
		Status:          "clean",
		AccountsChecked: len(accounts),
		Drift:           totalDrift,
		RanAt:           time.Now(),
	}
	if len(findings) > 0 {
		entry.Status = "drift"
		entry.Details = strings.Join(findings, "; ")
	}

	if err := s.db.Create(&entry).Error; err != nil {
		config.LogError(logger, "services", "RunAudit", "failed to record audit run", nil, err)
		return models.AuditLog{}, err
	}

	if entry.Status == "drift" {
		err := &InvariantError{Op: "audit", Detail: entry.Details}
		config.LogError(logger, "services", "RunAudit", "ledger drift detected", entry.Drift, err)
		s.alertOps(entry)
	}

	return entry, nil
}

// derivedBalance reconstructs an account balance from its ledger entries.
func (s *AuditService) derivedBalance(accountID uint) (int64, error) {
	var credits, debits int64
	if err := s.db.Model(&models.Transaction{}).Where("to_id = ?", accountID).
		Select("COALESCE(SUM(amount), 0)").Scan(&credits).Error; err != nil {
		return 0, err
	}
	if err := s.db.Model(&models.Transaction{}).Where("from_id = ?", accountID).
		Select("COALESCE(SUM(amount), 0)").Scan(&debits).Error; err != nil {
		return 0, err
	}
	return credits - debits, nil
}

func (s *AuditService) alertOps(entry models.AuditLog) {
	opsPhone := os.Getenv("OPS_PHONE_NUMBER")
	fromPhone := os.Getenv("TWILIO_PHONE_NUMBER")
	if opsPhone == "" || fromPhone == "" {
		return
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(opsPhone)
	params.SetFrom(fromPhone)
	params.SetBody(fmt.Sprintf("Ledger audit found drift of %d across %d accounts: %s",
		entry.Drift, entry.AccountsChecked, entry.Details))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		config.LogError(config.GetLogger(), "services", "alertOps", "failed to send ops alert", nil, err)
	}
}
