//go:generate go run go.uber.org/mock/mockgen -source=report.go -destination=../mocks/mock_report_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"member-chat/domain"
	"member-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IReportRepository interface {
	StoreReport(ctx context.Context, report domain.Report) error
	GetReport(ctx context.Context, reportID uuid.UUID) (domain.Report, error)
	UpdateReport(ctx context.Context, report domain.Report) error
	ListReports(ctx context.Context, status *domain.ReportStatus) ([]domain.Report, error)
}

type ReportRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewReportRepository(db *badger.DB, log *slog.Logger) *ReportRepository {
	return &ReportRepository{db: db, log: log}
}

const reportPrefix = "report:"

func reportKey(r domain.Report) string {
	return fmt.Sprintf("%s%019d:%s", reportPrefix, r.CreatedAt.UnixNano(), r.ID)
}

func reportIndexKey(id uuid.UUID) string { return "reportidx:" + id.String() }

func (r *ReportRepository) StoreReport(ctx context.Context, report domain.Report) error {
	key := reportKey(report)
	return update(ctx, r.db, func(txn *badger.Txn) error {
		if err := setJSON(txn, key, report); err != nil {
			return err
		}
		return txn.Set([]byte(reportIndexKey(report.ID)), []byte(key))
	})
}

func (r *ReportRepository) GetReport(ctx context.Context, reportID uuid.UUID) (domain.Report, error) {
	var report domain.Report
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		key, err := lookupReportKey(txn, reportID)
		if err != nil {
			return err
		}
		return getJSON(txn, key, &report)
	})
	return report, err
}

func (r *ReportRepository) UpdateReport(ctx context.Context, report domain.Report) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		key, err := lookupReportKey(txn, report.ID)
		if err != nil {
			return err
		}
		return setJSON(txn, key, report)
	})
}

// ListReports returns reports oldest first, optionally filtered by status.
func (r *ReportRepository) ListReports(ctx context.Context, status *domain.ReportStatus) ([]domain.Report, error) {
	var reports []domain.Report
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		var err error
		reports, err = scanJSON[domain.Report](txn, reportPrefix)
		return err
	})
	if err != nil || status == nil {
		return reports, err
	}
	return lo.Filter(reports, func(report domain.Report, _ int) bool {
		return report.Status == *status
	}), nil
}

func lookupReportKey(txn *badger.Txn, id uuid.UUID) (string, error) {
	item, err := txn.Get([]byte(reportIndexKey(id)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", errors.ErrReportNotFound
	}
	if err != nil {
		return "", err
	}
	key, err := item.ValueCopy(nil)
	return string(key), err
}
