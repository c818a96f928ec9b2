package quality

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo persists inspection records in Postgres. Every query is scoped by
// tenant id; soft-deleted rows are invisible to all lookups.
type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const recordColumns = `
	id, tenant_id, qc_number, qc_type, status, result, inspection_date,
	product_id, lot_number, supplier_id, purchase_order_id, purchase_order_number, warehouse_id,
	inspected_quantity, accepted_quantity, rejected_quantity, sample_quantity, unit,
	quality_score, quality_grade, rejection_reason, rejection_category,
	recommended_action, applied_action, action_description, action_date,
	inspector_name, inspector_user_id, inspection_duration_minutes, inspection_location, inspection_standard,
	inspection_notes, internal_notes, supplier_notification,
	created_by, updated_by, created_date, updated_date, version`

func (r *Repo) GetByID(ctx context.Context, tenantID uuid.UUID, id int64) (*InspectionRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM quality_controls
		WHERE tenant_id = $1 AND id = $2 AND NOT is_deleted
	`, tenantID, id)
	return scanRecord(row)
}

func (r *Repo) GetByQcNumber(ctx context.Context, tenantID uuid.UUID, qcNumber string) (*InspectionRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM quality_controls
		WHERE tenant_id = $1 AND qc_number = $2 AND NOT is_deleted
	`, tenantID, qcNumber)
	return scanRecord(row)
}

// Add inserts a new record and fills in its id and initial version. A
// duplicate qc number within the tenant surfaces as ErrConflict.
func (r *Repo) Add(ctx context.Context, rec *InspectionRecord) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO quality_controls (
			tenant_id, qc_number, qc_type, status, result, inspection_date,
			product_id, lot_number, supplier_id, purchase_order_id, purchase_order_number, warehouse_id,
			inspected_quantity, accepted_quantity, rejected_quantity, sample_quantity, unit,
			quality_score, quality_grade, rejection_reason, rejection_category,
			recommended_action, applied_action, action_description, action_date,
			inspector_name, inspector_user_id, inspection_duration_minutes, inspection_location, inspection_standard,
			inspection_notes, internal_notes, supplier_notification,
			created_by, updated_by, created_date, updated_date, version
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,$10,$11,$12,
			$13,$14,$15,$16,$17,
			$18,$19,$20,$21,
			$22,$23,$24,$25,
			$26,$27,$28,$29,$30,
			$31,$32,$33,
			$34,$35,$36,$37,1
		)
		RETURNING id, version
	`,
		rec.TenantID, rec.QcNumber, int(rec.QcType), int(rec.Status), int(rec.Result), rec.InspectionDate,
		rec.ProductID, rec.LotNumber, rec.SupplierID, rec.PurchaseOrderID, rec.PurchaseOrderNumber, rec.WarehouseID,
		rec.InspectedQuantity, rec.AcceptedQuantity, rec.RejectedQuantity, nullDecimal(rec.SampleQuantity), rec.Unit,
		nullDecimal(rec.QualityScore), rec.QualityGrade, rec.RejectionReason, enumPtr(rec.RejectionCategory),
		nullableAction(rec.RecommendedAction), enumPtr(rec.AppliedAction), rec.ActionDescription, rec.ActionDate,
		rec.InspectorName, rec.InspectorUserID, rec.InspectionDurationMinutes, rec.InspectionLocation, rec.InspectionStandard,
		rec.InspectionNotes, rec.InternalNotes, rec.SupplierNotification,
		rec.CreatedBy, rec.UpdatedBy, rec.CreatedDate, rec.UpdatedDate,
	).Scan(&rec.ID, &rec.Version)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: qc number %q already exists", ErrConflict, rec.QcNumber)
	}
	return err
}

// Update writes the record back with an optimistic version check. Zero rows
// updated means someone else saved first; the caller reloads and retries.
func (r *Repo) Update(ctx context.Context, rec *InspectionRecord) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quality_controls SET
			qc_type = $4, status = $5, result = $6, inspection_date = $7,
			product_id = $8, lot_number = $9, supplier_id = $10, purchase_order_id = $11,
			purchase_order_number = $12, warehouse_id = $13,
			inspected_quantity = $14, accepted_quantity = $15, rejected_quantity = $16,
			sample_quantity = $17, unit = $18,
			quality_score = $19, quality_grade = $20, rejection_reason = $21, rejection_category = $22,
			recommended_action = $23, applied_action = $24, action_description = $25, action_date = $26,
			inspector_name = $27, inspector_user_id = $28, inspection_duration_minutes = $29,
			inspection_location = $30, inspection_standard = $31,
			inspection_notes = $32, internal_notes = $33, supplier_notification = $34,
			updated_by = $35, updated_date = $36,
			version = version + 1
		WHERE tenant_id = $1 AND id = $2 AND version = $3 AND NOT is_deleted
	`,
		rec.TenantID, rec.ID, rec.Version,
		int(rec.QcType), int(rec.Status), int(rec.Result), rec.InspectionDate,
		rec.ProductID, rec.LotNumber, rec.SupplierID, rec.PurchaseOrderID,
		rec.PurchaseOrderNumber, rec.WarehouseID,
		rec.InspectedQuantity, rec.AcceptedQuantity, rec.RejectedQuantity,
		nullDecimal(rec.SampleQuantity), rec.Unit,
		nullDecimal(rec.QualityScore), rec.QualityGrade, rec.RejectionReason, enumPtr(rec.RejectionCategory),
		nullableAction(rec.RecommendedAction), enumPtr(rec.AppliedAction), rec.ActionDescription, rec.ActionDate,
		rec.InspectorName, rec.InspectorUserID, rec.InspectionDurationMinutes,
		rec.InspectionLocation, rec.InspectionStandard,
		rec.InspectionNotes, rec.InternalNotes, rec.SupplierNotification,
		rec.UpdatedBy, rec.UpdatedDate,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: record %d was modified concurrently", ErrConflict, rec.ID)
	}
	rec.Version++
	return nil
}

// SoftDelete hides the record from all queries without dropping the row.
func (r *Repo) SoftDelete(ctx context.Context, tenantID uuid.UUID, id int64, now time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quality_controls
		SET is_deleted = TRUE, deleted_date = $3
		WHERE tenant_id = $1 AND id = $2 AND NOT is_deleted
	`, tenantID, id, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	return nil
}

// Filter narrows List; nil fields are ignored.
type Filter struct {
	Status    *Status
	Result    *Result
	QcType    *QCType
	ProductID *int64
	From      *time.Time
	To        *time.Time

	Limit  int
	Offset int
}

func (r *Repo) List(ctx context.Context, tenantID uuid.UUID, f Filter) ([]InspectionRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM quality_controls
		WHERE tenant_id = $1 AND NOT is_deleted`
	args := []any{tenantID}

	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.Status != nil {
		add("status = $%d", int(*f.Status))
	}
	if f.Result != nil {
		add("result = $%d", int(*f.Result))
	}
	if f.QcType != nil {
		add("qc_type = $%d", int(*f.QcType))
	}
	if f.ProductID != nil {
		add("product_id = $%d", *f.ProductID)
	}
	if f.From != nil {
		add("inspection_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("inspection_date < $%d", *f.To)
	}

	query += " ORDER BY inspection_date DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InspectionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Stats is the dashboard summary per tenant.
type Stats struct {
	Total     int64
	ByStatus  map[Status]int64
	ByResult  map[Result]int64
	PassRate  decimal.Decimal
	Completed int64
}

func (r *Repo) Stats(ctx context.Context, tenantID uuid.UUID) (Stats, error) {
	s := Stats{
		ByStatus: make(map[Status]int64),
		ByResult: make(map[Result]int64),
	}
	rows, err := r.pool.Query(ctx, `
		SELECT status, result, COUNT(*)
		FROM quality_controls
		WHERE tenant_id = $1 AND NOT is_deleted
		GROUP BY status, result
	`, tenantID)
	if err != nil {
		return s, err
	}
	defer rows.Close()

	var passed int64
	for rows.Next() {
		var st, res int
		var n int64
		if err := rows.Scan(&st, &res, &n); err != nil {
			return s, err
		}
		s.Total += n
		s.ByStatus[Status(st)] += n
		s.ByResult[Result(res)] += n
		if Status(st) == StatusCompleted {
			s.Completed += n
			if Result(res) == ResultPassed {
				passed += n
			}
		}
	}
	if err := rows.Err(); err != nil {
		return s, err
	}
	if s.Completed > 0 {
		s.PassRate = decimal.NewFromInt(passed).
			Div(decimal.NewFromInt(s.Completed)).
			Mul(decimal.NewFromInt(100)).
			Round(1)
	}
	return s, nil
}

// NextQcNumber allocates the next tenant-unique business key, formatted
// QC-<year>-<seq>. The per-tenant counter row makes allocation atomic.
func (r *Repo) NextQcNumber(ctx context.Context, tenantID uuid.UUID, year int) (string, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO qc_sequences (tenant_id, year, counter)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, year)
		DO UPDATE SET counter = qc_sequences.counter + 1
		RETURNING counter
	`, tenantID, year).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("QC-%d-%06d", year, seq), nil
}

// ActionEntry is one row of the append-only disposition history. The
// aggregate keeps only the current disposition; the log preserves the trail.
type ActionEntry struct {
	ID          int64
	RecordID    int64
	Action      Action
	Description string
	Actor       string
	AppliedAt   time.Time
}

func (r *Repo) AppendAction(ctx context.Context, tenantID uuid.UUID, recordID int64, e ActionEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quality_control_actions (tenant_id, record_id, action, description, actor, applied_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, tenantID, recordID, int(e.Action), e.Description, e.Actor, e.AppliedAt)
	return err
}

func (r *Repo) ListActions(ctx context.Context, tenantID uuid.UUID, recordID int64) ([]ActionEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, record_id, action, description, actor, applied_at
		FROM quality_control_actions
		WHERE tenant_id = $1 AND record_id = $2
		ORDER BY applied_at, id
	`, tenantID, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActionEntry
	for rows.Next() {
		var e ActionEntry
		var action int
		if err := rows.Scan(&e.ID, &e.RecordID, &action, &e.Description, &e.Actor, &e.AppliedAt); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- scanning helpers ---

func scanRecord(row pgx.Row) (*InspectionRecord, error) {
	var (
		rec                    InspectionRecord
		qcType, status, result int
		recommended            *int
		applied, category      *int
		sample, score          decimal.NullDecimal
	)
	err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.QcNumber, &qcType, &status, &result, &rec.InspectionDate,
		&rec.ProductID, &rec.LotNumber, &rec.SupplierID, &rec.PurchaseOrderID, &rec.PurchaseOrderNumber, &rec.WarehouseID,
		&rec.InspectedQuantity, &rec.AcceptedQuantity, &rec.RejectedQuantity, &sample, &rec.Unit,
		&score, &rec.QualityGrade, &rec.RejectionReason, &category,
		&recommended, &applied, &rec.ActionDescription, &rec.ActionDate,
		&rec.InspectorName, &rec.InspectorUserID, &rec.InspectionDurationMinutes, &rec.InspectionLocation, &rec.InspectionStandard,
		&rec.InspectionNotes, &rec.InternalNotes, &rec.SupplierNotification,
		&rec.CreatedBy, &rec.UpdatedBy, &rec.CreatedDate, &rec.UpdatedDate, &rec.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.QcType = QCType(qcType)
	rec.Status = Status(status)
	rec.Result = Result(result)
	if recommended != nil {
		rec.RecommendedAction = Action(*recommended)
	}
	if applied != nil {
		a := Action(*applied)
		rec.AppliedAction = &a
	}
	if category != nil {
		c := RejectionCategory(*category)
		rec.RejectionCategory = &c
	}
	if sample.Valid {
		d := sample.Decimal
		rec.SampleQuantity = &d
	}
	if score.Valid {
		d := score.Decimal
		rec.QualityScore = &d
	}
	return &rec, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func enumPtr[E ~int](e *E) *int {
	if e == nil {
		return nil
	}
	v := int(*e)
	return &v
}

// nullableAction stores the zero Action (not yet derived) as NULL.
func nullableAction(a Action) *int {
	if a == 0 {
		return nil
	}
	v := int(a)
	return &v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
