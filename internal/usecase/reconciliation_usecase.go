package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/infrastructure/metrics"
)

// ReconciliationUseCase verifies the balance change log chains.
type ReconciliationUseCase struct {
	balanceRepo BalanceRepository
	logRepo     BalanceLogRepository
	clock       Clock
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	balanceRepo BalanceRepository,
	logRepo BalanceLogRepository,
	clock Clock,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		balanceRepo: balanceRepo,
		logRepo:     logRepo,
		clock:       orSystemClock(clock),
		logger:      logger,
		metrics:     metrics,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	Subject       domain.Subject
	StoredBalance decimal.Decimal
	Entries       int
	Violations    []domain.ChainViolation
	IsReconciled  bool
	LastChecked   time.Time
}

// VerifySubject checks the change log chain of one subject against its stored balance.
func (uc *ReconciliationUseCase) VerifySubject(ctx context.Context, subject domain.Subject) (*ReconciliationResult, error) {
	stored, err := uc.balanceRepo.GetBalance(ctx, subject)
	if err != nil {
		return nil, err
	}

	logs, err := uc.logRepo.ListChain(ctx, subject)
	if err != nil {
		return nil, err
	}

	violations := domain.VerifyChain(logs, stored)
	if len(violations) > 0 {
		uc.logger.Error().
			Str("subject", subject.String()).
			Int("violations", len(violations)).
			Msg("balance change log chain broken")

		if uc.metrics != nil {
			uc.metrics.LedgerViolations.Add(float64(len(violations)))
		}
	}

	return &ReconciliationResult{
		Subject:       subject,
		StoredBalance: stored,
		Entries:       len(logs),
		Violations:    violations,
		IsReconciled:  len(violations) == 0,
		LastChecked:   uc.clock.Now(),
	}, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalSubjects      int
	ReconciledSubjects int
	Discrepancies      []*ReconciliationResult
	CheckedAt          time.Time
}

// VerifyAll checks every subject that has at least one change log entry.
func (uc *ReconciliationUseCase) VerifyAll(ctx context.Context) (*ReconciliationReport, error) {
	subjects, err := uc.logRepo.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalSubjects: len(subjects),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     uc.clock.Now(),
	}

	for _, subject := range subjects {
		result, err := uc.VerifySubject(ctx, subject)
		if err != nil {
			return nil, fmt.Errorf("failed to verify %s: %w", subject, err)
		}

		if result.IsReconciled {
			report.ReconciledSubjects++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
