package services

import (
	"context"
	"log/slog"
	"member-chat/auth"
	"member-chat/domain"
	"member-chat/errors"
	"member-chat/policy"
	"member-chat/repositories"

	"github.com/google/uuid"
)

type ReportService struct {
	reports  repositories.IReportRepository
	messages repositories.IMessageRepository
	log      *slog.Logger
}

func NewReportService(reports repositories.IReportRepository, messages repositories.IMessageRepository, log *slog.Logger) *ReportService {
	return &ReportService{reports: reports, messages: messages, log: log}
}

// Report files a pending report against a message, a user, or both.
func (s *ReportService) Report(ctx context.Context, id auth.Identity, cmd domain.ReportCommand) (domain.Report, error) {
	if err := ValidateReport(cmd); err != nil {
		return domain.Report{}, err
	}
	if cmd.ReportedUserID != nil && *cmd.ReportedUserID == id.UserID {
		return domain.Report{}, errors.ErrSelfAction
	}
	if cmd.ReportedMessageID != nil {
		if _, err := s.messages.GetMessage(ctx, *cmd.ReportedMessageID); err != nil {
			return domain.Report{}, err
		}
	}

	report := domain.Report{
		ID:                uuid.New(),
		ReporterID:        id.UserID,
		ReportedMessageID: cmd.ReportedMessageID,
		ReportedUserID:    cmd.ReportedUserID,
		Category:          cmd.Category,
		FreeText:          cmd.FreeText,
		Status:            domain.ReportPending,
		CreatedAt:         now(),
	}
	if err := s.reports.StoreReport(ctx, report); err != nil {
		return domain.Report{}, err
	}
	s.log.Info("Report filed", "report_id", report.ID, "category", report.Category)
	return report, nil
}

// ListReports is reserved to moderators. A nil status lists every report.
func (s *ReportService) ListReports(ctx context.Context, id auth.Identity, status *domain.ReportStatus) ([]domain.Report, error) {
	if !policy.CanModerate(id) {
		return nil, errors.ErrNotModerator
	}
	return s.reports.ListReports(ctx, status)
}

func (s *ReportService) ResolveReport(ctx context.Context, id auth.Identity, reportID uuid.UUID, status domain.ReportStatus) (domain.Report, error) {
	if !policy.CanModerate(id) {
		return domain.Report{}, errors.ErrNotModerator
	}
	if status != domain.ReportReviewed && status != domain.ReportDismissed {
		return domain.Report{}, errors.ErrInvalidReport
	}
	report, err := s.reports.GetReport(ctx, reportID)
	if err != nil {
		return domain.Report{}, err
	}

	report.Status = status
	report.ResolvedBy = &id.UserID
	if err := s.reports.UpdateReport(ctx, report); err != nil {
		return domain.Report{}, err
	}
	return report, nil
}
