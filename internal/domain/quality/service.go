package quality

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository is the persistence contract the service works against. The pgx
// implementation lives in repo.go; tests use an in-memory fake.
type Repository interface {
	GetByID(ctx context.Context, tenantID uuid.UUID, id int64) (*InspectionRecord, error)
	GetByQcNumber(ctx context.Context, tenantID uuid.UUID, qcNumber string) (*InspectionRecord, error)
	Add(ctx context.Context, rec *InspectionRecord) error
	Update(ctx context.Context, rec *InspectionRecord) error
	SoftDelete(ctx context.Context, tenantID uuid.UUID, id int64, now time.Time) error
	List(ctx context.Context, tenantID uuid.UUID, f Filter) ([]InspectionRecord, error)
	Stats(ctx context.Context, tenantID uuid.UUID) (Stats, error)
	NextQcNumber(ctx context.Context, tenantID uuid.UUID, year int) (string, error)
	AppendAction(ctx context.Context, tenantID uuid.UUID, recordID int64, e ActionEntry) error
	ListActions(ctx context.Context, tenantID uuid.UUID, recordID int64) ([]ActionEntry, error)
}

// Notifier is told about inspections that need human attention. Implemented
// by the telegram adapter; a nil Notifier disables alerts.
type Notifier interface {
	InspectionFailed(ctx context.Context, rec *InspectionRecord)
}

// Service is the command-handler layer over the aggregate: load, run one
// mutating operation, save. Optimistic-version conflicts surface as
// ErrConflict; the caller reloads and retries.
type Service struct {
	log    *slog.Logger
	repo   Repository
	notify Notifier
	now    func() time.Time
}

func NewService(log *slog.Logger, repo Repository, notify Notifier) *Service {
	return &Service{log: log, repo: repo, notify: notify, now: time.Now}
}

// CreateParams carries everything the factory needs plus the optional
// references that can be attached at creation time.
type CreateParams struct {
	ProductID         int64
	QcType            QCType
	InspectedQuantity decimal.Decimal
	Unit              string

	LotNumber           string
	SupplierID          *int64
	PurchaseOrderID     *int64
	PurchaseOrderNumber string
	WarehouseID         *int64
	SampleQuantity      *decimal.Decimal

	Actor string
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, p CreateParams) (*InspectionRecord, error) {
	now := s.now()
	qcNumber, err := s.repo.NextQcNumber(ctx, tenantID, now.Year())
	if err != nil {
		return nil, err
	}

	rec, err := NewInspectionRecord(tenantID, qcNumber, p.ProductID, p.QcType, p.InspectedQuantity, p.Unit, now)
	if err != nil {
		return nil, err
	}
	rec.CreatedBy = p.Actor
	rec.UpdatedBy = p.Actor
	if p.LotNumber != "" {
		rec.LotNumber = p.LotNumber
	}
	rec.SupplierID = p.SupplierID
	rec.PurchaseOrderID = p.PurchaseOrderID
	rec.PurchaseOrderNumber = p.PurchaseOrderNumber
	rec.WarehouseID = p.WarehouseID
	if p.SampleQuantity != nil {
		if err := rec.SetSampleQuantity(p.SampleQuantity, now); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Add(ctx, rec); err != nil {
		return nil, err
	}
	s.log.Info("qc record created",
		"tenant_id", tenantID,
		"qc_number", rec.QcNumber,
		"qc_type", rec.QcType.String(),
	)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, tenantID uuid.UUID, id int64) (*InspectionRecord, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *Service) GetByQcNumber(ctx context.Context, tenantID uuid.UUID, qcNumber string) (*InspectionRecord, error) {
	return s.repo.GetByQcNumber(ctx, tenantID, qcNumber)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f Filter) ([]InspectionRecord, error) {
	return s.repo.List(ctx, tenantID, f)
}

func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID) (Stats, error) {
	return s.repo.Stats(ctx, tenantID)
}

func (s *Service) ActionHistory(ctx context.Context, tenantID uuid.UUID, id int64) ([]ActionEntry, error) {
	return s.repo.ListActions(ctx, tenantID, id)
}

func (s *Service) Start(ctx context.Context, tenantID uuid.UUID, id int64, inspectorName string, inspectorUserID *uuid.UUID, actor string) (*InspectionRecord, error) {
	return s.mutate(ctx, tenantID, id, actor, func(rec *InspectionRecord, now time.Time) error {
		return rec.StartInspection(inspectorName, inspectorUserID, now)
	})
}

// CompleteParams is the outcome of an inspection.
type CompleteParams struct {
	Result           Result
	AcceptedQuantity decimal.Decimal
	RejectedQuantity decimal.Decimal
	QualityScore     *decimal.Decimal
	QualityGrade     string
	Actor            string
}

func (s *Service) Complete(ctx context.Context, tenantID uuid.UUID, id int64, p CompleteParams) (*InspectionRecord, error) {
	rec, err := s.mutate(ctx, tenantID, id, p.Actor, func(rec *InspectionRecord, now time.Time) error {
		return rec.CompleteInspection(p.Result, p.AcceptedQuantity, p.RejectedQuantity, p.QualityScore, p.QualityGrade, now)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("qc inspection completed",
		"tenant_id", tenantID,
		"qc_number", rec.QcNumber,
		"result", rec.Result.String(),
		"accepted", rec.AcceptedQuantity,
		"rejected", rec.RejectedQuantity,
	)
	if s.notify != nil && (rec.Result == ResultFailed || rec.Result == ResultPartiallyPassed) {
		s.notify.InspectionFailed(ctx, rec)
	}
	return rec, nil
}

func (s *Service) SetRejection(ctx context.Context, tenantID uuid.UUID, id int64, reason string, category RejectionCategory, actor string) (*InspectionRecord, error) {
	return s.mutate(ctx, tenantID, id, actor, func(rec *InspectionRecord, now time.Time) error {
		return rec.SetRejection(reason, category, now)
	})
}

// ApplyAction records the executed disposition on the aggregate and appends
// it to the action history so repeated applies keep their trail.
func (s *Service) ApplyAction(ctx context.Context, tenantID uuid.UUID, id int64, action Action, description, actor string) (*InspectionRecord, error) {
	rec, err := s.mutate(ctx, tenantID, id, actor, func(rec *InspectionRecord, now time.Time) error {
		return rec.ApplyAction(action, description, now)
	})
	if err != nil {
		return nil, err
	}
	entry := ActionEntry{
		RecordID:    rec.ID,
		Action:      action,
		Description: description,
		Actor:       actor,
		AppliedAt:   *rec.ActionDate,
	}
	if err := s.repo.AppendAction(ctx, tenantID, rec.ID, entry); err != nil {
		// The disposition itself is saved; a failed history append is logged,
		// not surfaced as a business failure.
		s.log.Error("failed to append action history",
			"tenant_id", tenantID,
			"qc_number", rec.QcNumber,
			"err", err,
		)
	}
	return rec, nil
}

func (s *Service) Cancel(ctx context.Context, tenantID uuid.UUID, id int64, reason, actor string) (*InspectionRecord, error) {
	rec, err := s.mutate(ctx, tenantID, id, actor, func(rec *InspectionRecord, now time.Time) error {
		return rec.Cancel(reason, now)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("qc record cancelled",
		"tenant_id", tenantID,
		"qc_number", rec.QcNumber,
		"reason", reason,
	)
	return rec, nil
}

// DetailsPatch updates the descriptive metadata; nil fields are left alone.
type DetailsPatch struct {
	LotNumber            *string
	SupplierID           *int64
	PurchaseOrderID      *int64
	PurchaseOrderNumber  *string
	WarehouseID          *int64
	SampleQuantity       *decimal.Decimal
	DurationMinutes      *int
	Location             *string
	Standard             *string
	InspectionNotes      *string
	InternalNotes        *string
	SupplierNotification *string
}

func (s *Service) UpdateDetails(ctx context.Context, tenantID uuid.UUID, id int64, p DetailsPatch, actor string) (*InspectionRecord, error) {
	return s.mutate(ctx, tenantID, id, actor, func(rec *InspectionRecord, now time.Time) error {
		if p.LotNumber != nil {
			if err := rec.SetLotNumber(*p.LotNumber, now); err != nil {
				return err
			}
		}
		if p.SupplierID != nil {
			if err := rec.SetSupplier(p.SupplierID, now); err != nil {
				return err
			}
		}
		if p.PurchaseOrderID != nil || p.PurchaseOrderNumber != nil {
			poID := rec.PurchaseOrderID
			if p.PurchaseOrderID != nil {
				poID = p.PurchaseOrderID
			}
			poNumber := rec.PurchaseOrderNumber
			if p.PurchaseOrderNumber != nil {
				poNumber = *p.PurchaseOrderNumber
			}
			if err := rec.SetPurchaseOrder(poID, poNumber, now); err != nil {
				return err
			}
		}
		if p.WarehouseID != nil {
			if err := rec.SetWarehouse(p.WarehouseID, now); err != nil {
				return err
			}
		}
		if p.SampleQuantity != nil {
			if err := rec.SetSampleQuantity(p.SampleQuantity, now); err != nil {
				return err
			}
		}
		if p.DurationMinutes != nil {
			if err := rec.SetInspectionDuration(*p.DurationMinutes, now); err != nil {
				return err
			}
		}
		if p.Location != nil {
			if err := rec.SetInspectionLocation(*p.Location, now); err != nil {
				return err
			}
		}
		if p.Standard != nil {
			if err := rec.SetInspectionStandard(*p.Standard, now); err != nil {
				return err
			}
		}
		if p.InspectionNotes != nil {
			if err := rec.SetInspectionNotes(*p.InspectionNotes, now); err != nil {
				return err
			}
		}
		if p.InternalNotes != nil {
			if err := rec.SetInternalNotes(*p.InternalNotes, now); err != nil {
				return err
			}
		}
		if p.SupplierNotification != nil {
			if err := rec.SetSupplierNotification(*p.SupplierNotification, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, tenantID uuid.UUID, id int64) error {
	return s.repo.SoftDelete(ctx, tenantID, id, s.now())
}

// mutate runs the load -> mutate -> save cycle shared by every command.
func (s *Service) mutate(ctx context.Context, tenantID uuid.UUID, id int64, actor string, fn func(*InspectionRecord, time.Time) error) (*InspectionRecord, error) {
	rec, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := fn(rec, now); err != nil {
		return nil, err
	}
	if actor != "" {
		rec.UpdatedBy = actor
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
