package quality

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InspectionRecord is the aggregate root for one quality-control inspection:
// a QC event against a quantity of a product. It owns every invariant over
// its fields; persistence, clock and number generation stay with the caller,
// so each mutating method takes the current time as an argument.
//
// A failed operation leaves the record exactly as it was. All checks run
// before the first assignment.
type InspectionRecord struct {
	ID       int64
	TenantID uuid.UUID

	// QcNumber is the tenant-unique business key, assigned once at creation.
	QcNumber string
	QcType   QCType
	Status   Status
	Result   Result

	InspectionDate time.Time

	// Weak references to other aggregates, lookup only.
	ProductID           int64
	LotNumber           string
	SupplierID          *int64
	PurchaseOrderID     *int64
	PurchaseOrderNumber string
	WarehouseID         *int64

	InspectedQuantity decimal.Decimal
	AcceptedQuantity  decimal.Decimal
	RejectedQuantity  decimal.Decimal
	SampleQuantity    *decimal.Decimal
	Unit              string

	QualityScore *decimal.Decimal
	QualityGrade string

	RejectionReason   string
	RejectionCategory *RejectionCategory

	RecommendedAction Action
	AppliedAction     *Action
	ActionDescription string
	ActionDate        *time.Time

	InspectorName   string
	InspectorUserID *uuid.UUID

	InspectionDurationMinutes *int
	InspectionLocation        string
	InspectionStandard        string

	InspectionNotes      string
	InternalNotes        string
	SupplierNotification string

	CreatedBy string
	UpdatedBy string

	CreatedDate time.Time
	UpdatedDate time.Time

	IsDeleted   bool
	DeletedDate *time.Time

	// Version is the optimistic concurrency token owned by the repository.
	Version int64
}

// NewInspectionRecord creates a record in StatusPending. The qc number must
// already be generated and tenant-unique; the repository enforces uniqueness
// on insert.
func NewInspectionRecord(tenantID uuid.UUID, qcNumber string, productID int64, qcType QCType, inspectedQty decimal.Decimal, unit string, now time.Time) (*InspectionRecord, error) {
	if tenantID == uuid.Nil {
		return nil, validationf("tenant id is required")
	}
	if strings.TrimSpace(qcNumber) == "" {
		return nil, validationf("qc number is required")
	}
	if productID <= 0 {
		return nil, validationf("product id is required")
	}
	if qcType < TypeIncoming || qcType > TypeComplaint {
		return nil, validationf("qc type %d is not valid", qcType)
	}
	if !inspectedQty.IsPositive() {
		return nil, validationf("inspected quantity %s must be > 0", inspectedQty)
	}
	if strings.TrimSpace(unit) == "" {
		return nil, validationf("unit is required")
	}

	return &InspectionRecord{
		TenantID:          tenantID,
		QcNumber:          qcNumber,
		QcType:            qcType,
		Status:            StatusPending,
		Result:            ResultPending,
		InspectionDate:    now,
		ProductID:         productID,
		InspectedQuantity: inspectedQty,
		AcceptedQuantity:  decimal.Zero,
		RejectedQuantity:  decimal.Zero,
		Unit:              unit,
		CreatedDate:       now,
		UpdatedDate:       now,
	}, nil
}

// StartInspection moves the record to StatusInProgress and records who is
// inspecting. The user id is optional; the display name is not.
func (r *InspectionRecord) StartInspection(inspectorName string, inspectorUserID *uuid.UUID, now time.Time) error {
	if strings.TrimSpace(inspectorName) == "" {
		return validationf("inspector name is required")
	}
	next, err := nextStatus(r.Status, opStart)
	if err != nil {
		return err
	}

	r.Status = next
	r.InspectorName = inspectorName
	r.InspectorUserID = inspectorUserID
	r.touch(now)
	return nil
}

// CompleteInspection records the outcome and the quantity split, derives the
// recommended disposition and moves the record to StatusCompleted. Only legal
// from StatusInProgress.
func (r *InspectionRecord) CompleteInspection(result Result, accepted, rejected decimal.Decimal, score *decimal.Decimal, grade string, now time.Time) error {
	next, err := nextStatus(r.Status, opComplete)
	if err != nil {
		return err
	}
	if err := checkQuantities(r.InspectedQuantity, accepted, rejected); err != nil {
		return err
	}
	if err := checkScore(score); err != nil {
		return err
	}
	recommended, err := recommendFor(result)
	if err != nil {
		return err
	}

	r.Status = next
	r.Result = result
	r.AcceptedQuantity = accepted
	r.RejectedQuantity = rejected
	r.QualityScore = score
	r.QualityGrade = grade
	r.RecommendedAction = recommended
	r.touch(now)
	return nil
}

// SetRejection records why stock was rejected. Reason and category always
// travel together; the caller is responsible for having completed the
// inspection with the matching result first.
func (r *InspectionRecord) SetRejection(reason string, category RejectionCategory, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return validationf("rejection reason is required")
	}
	if category < CategoryDefect || category > CategoryOther {
		return validationf("rejection category %d is not valid", category)
	}
	if r.Status == StatusCancelled {
		return invalidOpf("cannot set rejection on a cancelled record")
	}

	r.RejectionReason = reason
	r.RejectionCategory = &category
	r.touch(now)
	return nil
}

// ApplyAction records the disposition actually executed. Only legal once the
// inspection is completed; the action must be in the catalog for the result,
// and diverging from the recommendation requires an explanation. Applying
// again overwrites the current disposition; history lives in the action log
// kept by the service layer.
func (r *InspectionRecord) ApplyAction(action Action, description string, now time.Time) error {
	if r.Status != StatusCompleted {
		return invalidOpf("cannot apply action from status %s", r.Status)
	}
	if action < ActionAccept || action > ActionUseAsIs {
		return validationf("action %d is not valid", action)
	}
	if !ActionAllowed(r.Result, action) {
		return validationf("action %s is not allowed for result %s", action, r.Result)
	}
	if action != r.RecommendedAction && strings.TrimSpace(description) == "" {
		return validationf("description is required when diverging from recommended action %s", r.RecommendedAction)
	}

	r.AppliedAction = &action
	r.ActionDescription = description
	t := now
	r.ActionDate = &t
	r.touch(now)
	return nil
}

// Cancel terminates the record from pending or in-progress. Completed records
// are never cancelled; fixing a completed inspection is a data correction
// handled outside this aggregate.
func (r *InspectionRecord) Cancel(reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return validationf("cancellation reason is required")
	}
	next, err := nextStatus(r.Status, opCancel)
	if err != nil {
		return err
	}

	r.Status = next
	note := "cancelled: " + reason
	if r.InternalNotes != "" {
		note = r.InternalNotes + "\n" + note
	}
	r.InternalNotes = note
	r.touch(now)
	return nil
}

// --- descriptive setters, guarded only by the terminal-state check ---

func (r *InspectionRecord) SetLotNumber(lot string, now time.Time) error {
	if err := r.mutable(); err != nil {
		return err
	}
	r.LotNumber = lot
	r.touch(now)
	return nil
}

func (r *InspectionRecord) SetSupplier(supplierID *int64, now time.Time) error {
	if err := r.mutable(); err != nil {
		return err
	}
	r.SupplierID = supplierID
	r.touch(now)
	return nil
}

func (r *InspectionRecord) SetPurchaseOrder(poID *int64, poNumber string, now time.Time) error {
	if err := r.mutable(); err != nil {
		return err
	}
	r.PurchaseOrderID = poID
	r.PurchaseOrderNumber = poNumber
	r.touch(now)
	return nil
}

func (r *InspectionRecord) SetWarehouse(warehouseID *int64, now time.Time) error {
	if err := r.mutable(); err != nil {
		return err
	}
	r.WarehouseID = warehouseID
	r.touch(now)
	return nil
}

// SetSampleQuantity bounds the sample to what was inspected; nil clears it.
func (r *InspectionRecord) SetSampleQuantity(qty *decimal.Decimal, now time.Time) error {
	if err := r.mutable(); err != nil {
		return err
	}
	if qty != nil {
		if qty.IsNegative() {
			return validationf("sample quantity %s is negative", qty)
		}
		if qty.GreaterThan(r.InspectedQuantity) {
			return validationf("sample quantity %s exceeds inspected quantity %s", qty, r.InspectedQuantity)
		}
	}
	r.SampleQuantity = qty
	r.touch(now)
	return nil
}

func (r *InspectionRecord) SetInspectionDuration(minutes int, now time.Time) error {
	if err := r.mutable(); err != nil {
		return err
	}
	if minutes < 0 {
		return validationf("duration %d minutes is negative", minutes)
	}
	r.InspectionDurationMinutes = &minutes
	r.touch(now)
	return nil
}

func (r *InspectionRecord) SetInspectionLocation(location string, now time.Time) error {
	if err := r.mutable(); err != nil {
		return err
	}
	r.InspectionLocation = location
	r.touch(now)
	return nil
}

func (r *InspectionRecord) SetInspectionStandard(standard string, now time.Time) error {
	if err := r.mutable(); err != nil {
		return err
	}
	r.InspectionStandard = standard
	r.touch(now)
	return nil
}

func (r *InspectionRecord) SetInspectionNotes(notes string, now time.Time) error {
	if err := r.mutable(); err != nil {
		return err
	}
	r.InspectionNotes = notes
	r.touch(now)
	return nil
}

func (r *InspectionRecord) SetInternalNotes(notes string, now time.Time) error {
	if err := r.mutable(); err != nil {
		return err
	}
	r.InternalNotes = notes
	r.touch(now)
	return nil
}

func (r *InspectionRecord) SetSupplierNotification(text string, now time.Time) error {
	if err := r.mutable(); err != nil {
		return err
	}
	r.SupplierNotification = text
	r.touch(now)
	return nil
}

func (r *InspectionRecord) mutable() error {
	if r.Status.Terminal() {
		return invalidOpf("record is %s and can no longer be modified", r.Status)
	}
	return nil
}

func (r *InspectionRecord) touch(now time.Time) {
	r.UpdatedDate = now
}
