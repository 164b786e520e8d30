package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/common"
	"github.com/joseph-ayodele/claims-tracker/internal/entity"
)

const claimsTable = "claims"

var claimColumns = []string{
	"id", "source_name", "hospital", "region", "pincode", "disease", "treatment",
	"amount", "patient_name", "claim_id", "fraud_status", "fraud_reason", "fraud_rule",
	"extraction_method", "created_at",
}

// ListFilter narrows a claim listing. Zero values mean no constraint.
type ListFilter struct {
	Status constants.FraudStatus
	// Query matches patient name, hospital or claim id, case-insensitively.
	Query  string
	Limit  int
	Offset int
}

// StatusStats aggregates claims of one status.
type StatusStats struct {
	Count       int64 `json:"count"`
	TotalAmount int64 `json:"totalAmount"`
}

// Stats is the analytics summary over stored claims.
type Stats struct {
	Total       int64                                 `json:"total"`
	TotalAmount int64                                 `json:"totalAmount"`
	ByStatus    map[constants.FraudStatus]StatusStats `json:"byStatus"`
}

type ClaimRepository interface {
	Save(ctx context.Context, c *entity.Claim) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Claim, error)
	List(ctx context.Context, f ListFilter) ([]*entity.Claim, error)
	Stats(ctx context.Context) (Stats, error)
}

type claimRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewClaimRepository(db *DB, logger *slog.Logger) ClaimRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &claimRepository{db: db, logger: logger}
}

// DefaultListLimit caps listings that do not ask for a limit.
const DefaultListLimit = 50

func (r *claimRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect)
}

func (r *claimRepository) Save(ctx context.Context, c *entity.Claim) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	query, args := r.builder().Insert(claimsTable).
		Columns(claimColumns...).
		Values(
			c.ID.String(), c.SourceName, c.Hospital, c.Region, c.Pincode, c.Disease, c.Treatment,
			c.Amount, c.PatientName, c.ClaimID, string(c.FraudStatus), c.FraudReason, c.FraudRule,
			c.ExtractionMethod, c.CreatedAt.UnixMilli(),
		).
		Query()
	if err := r.db.Driver.Exec(ctx, query, args, nil); err != nil {
		r.logger.Error("failed to save claim", "id", c.ID, "error", err)
		return common.NewAppError(common.CodeStorage, "save claim", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	return nil
}

func (r *claimRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Claim, error) {
	query, args := r.builder().Select(claimColumns...).
		From(entsql.Table(claimsTable)).
		Where(entsql.EQ("id", id.String())).
		Query()
	claims, err := r.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(claims) == 0 {
		return nil, common.NewAppError(common.CodeNotFound, "claim "+id.String(), common.ErrNotFound)
	}
	return claims[0], nil
}

func (r *claimRepository) List(ctx context.Context, f ListFilter) ([]*entity.Claim, error) {
	sel := r.builder().Select(claimColumns...).From(entsql.Table(claimsTable))
	var preds []*entsql.Predicate
	if f.Status != "" {
		preds = append(preds, entsql.EQ("fraud_status", string(f.Status)))
	}
	if f.Query != "" {
		preds = append(preds, entsql.Or(
			entsql.ContainsFold("patient_name", f.Query),
			entsql.ContainsFold("hospital", f.Query),
			entsql.ContainsFold("claim_id", f.Query),
		))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	sel.OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).Limit(limit)
	if f.Offset > 0 {
		sel.Offset(f.Offset)
	}
	query, args := sel.Query()
	return r.query(ctx, query, args)
}

func (r *claimRepository) Stats(ctx context.Context) (Stats, error) {
	query, args := r.builder().Select("fraud_status", entsql.Count("*"), entsql.Sum("amount")).
		From(entsql.Table(claimsTable)).
		GroupBy("fraud_status").
		Query()

	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
		return Stats{}, r.storageErr("claim stats", err)
	}
	defer rows.Close()

	st := Stats{ByStatus: make(map[constants.FraudStatus]StatusStats, 3)}
	for _, s := range constants.Statuses() {
		st.ByStatus[s] = StatusStats{}
	}
	for rows.Next() {
		var (
			status string
			count  int64
			sum    sql.NullInt64
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return Stats{}, r.storageErr("scan claim stats", err)
		}
		st.ByStatus[constants.FraudStatus(status)] = StatusStats{Count: count, TotalAmount: sum.Int64}
		st.Total += count
		st.TotalAmount += sum.Int64
	}
	if err := rows.Err(); err != nil {
		return Stats{}, r.storageErr("iterate claim stats", err)
	}
	return st, nil
}

func (r *claimRepository) query(ctx context.Context, query string, args []any) ([]*entity.Claim, error) {
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
		return nil, r.storageErr("query claims", err)
	}
	defer rows.Close()

	var out []*entity.Claim
	for rows.Next() {
		var (
			c       entity.Claim
			id      string
			status  string
			created int64
		)
		if err := rows.Scan(
			&id, &c.SourceName, &c.Hospital, &c.Region, &c.Pincode, &c.Disease, &c.Treatment,
			&c.Amount, &c.PatientName, &c.ClaimID, &status, &c.FraudReason, &c.FraudRule,
			&c.ExtractionMethod, &created,
		); err != nil {
			return nil, r.storageErr("scan claim", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, r.storageErr("parse claim id", err)
		}
		c.ID = parsed
		c.FraudStatus = constants.FraudStatus(status)
		c.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, r.storageErr("iterate claims", err)
	}
	return out, nil
}

func (r *claimRepository) storageErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	r.logger.Error("claim repository error", "op", op, "error", err)
	return common.NewAppError(common.CodeStorage, op, fmt.Errorf("%w: %v", common.ErrDatabase, err))
}
