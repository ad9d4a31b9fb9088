package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avenir/tender-board/internal/models"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type ListParams struct {
	Query   string
	Stage   string
	Group   string
	Country string
	Status  string
	Lead    string
	Imputed *bool

	MinValue float64
	MaxValue float64

	SortBy string // "value_desc", "received", "name"; default newest first
	Limit  int
	Offset int
}

type ListResult struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Total         int                  `json:"total"`
	Limit         int                  `json:"limit"`
	Offset        int                  `json:"offset"`
}

const selectCols = `id, ref_no, tender_name, client_name, internal_lead,
	group_classification, opportunity_classification, country,
	opportunity_value, probability, canonical_stage, stage_imputed, stage_reason,
	avenir_status, tender_result, statuses,
	date_received, date_received_display, planned_submission, submitted_date,
	remarks_reason, comments, raw_row, synced_at`

func scanOpportunity(scan func(dest ...any) error) (models.Opportunity, error) {
	var o models.Opportunity
	var rawRow []byte

	err := scan(
		&o.ID, &o.RefNo, &o.TenderName, &o.ClientName, &o.InternalLead,
		&o.GroupClassification, &o.OpportunityClassification, &o.Country,
		&o.Value, &o.Probability, &o.CanonicalStage, &o.StageImputed, &o.StageReason,
		&o.AvenirStatus, &o.TenderResult, &o.Statuses,
		&o.DateReceived, &o.DateReceivedDisplay, &o.PlannedSubmission, &o.SubmittedDate,
		&o.RemarksReason, &o.Comments, &rawRow, &o.SyncedAt,
	)
	if err != nil {
		return o, err
	}

	if len(rawRow) > 0 {
		_ = json.Unmarshal(rawRow, &o.RawRow)
	}
	return o, nil
}

// buildListWhere assembles the WHERE clause and its args for list queries.
// Kept free of pool access so the clause logic is testable on its own.
func buildListWhere(params ListParams) (string, []any) {
	where := "WHERE 1=1"
	var args []any
	argIdx := 1

	if params.Query != "" {
		where += fmt.Sprintf(" AND (tender_name ILIKE '%%' || $%d || '%%' OR client_name ILIKE '%%' || $%d || '%%' OR ref_no ILIKE '%%' || $%d || '%%')", argIdx, argIdx, argIdx)
		args = append(args, params.Query)
		argIdx++
	}
	if params.Stage != "" {
		where += fmt.Sprintf(" AND canonical_stage = $%d", argIdx)
		args = append(args, params.Stage)
		argIdx++
	}
	if params.Group != "" {
		where += fmt.Sprintf(" AND group_classification = $%d", argIdx)
		args = append(args, params.Group)
		argIdx++
	}
	if params.Country != "" {
		where += fmt.Sprintf(" AND country = $%d", argIdx)
		args = append(args, params.Country)
		argIdx++
	}
	if params.Status != "" {
		where += fmt.Sprintf(" AND $%d = ANY(statuses)", argIdx)
		args = append(args, strings.ToUpper(strings.TrimSpace(params.Status)))
		argIdx++
	}
	if params.Lead != "" {
		where += fmt.Sprintf(" AND internal_lead ILIKE '%%' || $%d || '%%'", argIdx)
		args = append(args, params.Lead)
		argIdx++
	}
	if params.Imputed != nil {
		where += fmt.Sprintf(" AND stage_imputed = $%d", argIdx)
		args = append(args, *params.Imputed)
		argIdx++
	}
	if params.MinValue > 0 {
		where += fmt.Sprintf(" AND opportunity_value >= $%d", argIdx)
		args = append(args, params.MinValue)
		argIdx++
	}
	if params.MaxValue > 0 {
		where += fmt.Sprintf(" AND opportunity_value <= $%d", argIdx)
		args = append(args, params.MaxValue)
		argIdx++
	}

	return where, args
}

func (s *Store) ListOpportunities(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Limit <= 0 || params.Limit > 500 {
		params.Limit = 100
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	where, args := buildListWhere(params)
	argIdx := len(args) + 1

	var total int
	countSQL := "SELECT COUNT(*) FROM opportunities " + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count failed: %w", err)
	}

	selectSQL := fmt.Sprintf("SELECT %s FROM opportunities %s", selectCols, where)
	switch params.SortBy {
	case "value_desc":
		selectSQL += " ORDER BY opportunity_value DESC"
	case "received":
		selectSQL += " ORDER BY date_received DESC NULLS LAST"
	case "name":
		selectSQL += " ORDER BY tender_name ASC"
	default:
		selectSQL += " ORDER BY date_received DESC NULLS LAST, ref_no ASC"
	}
	selectSQL += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.pool.Query(ctx, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var opps []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if opps == nil {
		opps = []models.Opportunity{}
	}

	return &ListResult{
		Opportunities: opps,
		Total:         total,
		Limit:         params.Limit,
		Offset:        params.Offset,
	}, nil
}

func (s *Store) GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error) {
	sql := fmt.Sprintf("SELECT %s FROM opportunities WHERE id = $1", selectCols)
	row := s.pool.QueryRow(ctx, sql, id)

	o, err := scanOpportunity(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("not found: %w", err)
	}
	return &o, nil
}

func (s *Store) GetOpportunityByRefNo(ctx context.Context, refNo string) (*models.Opportunity, error) {
	sql := fmt.Sprintf("SELECT %s FROM opportunities WHERE ref_no = $1 LIMIT 1", selectCols)
	row := s.pool.QueryRow(ctx, sql, refNo)

	o, err := scanOpportunity(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("not found: %w", err)
	}
	return &o, nil
}

// RefNos returns the distinct non-empty ref nos of the stored dataset. The
// sync pipeline diffs against this to find tenders that are new this run.
func (s *Store) RefNos(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT DISTINCT ref_no FROM opportunities WHERE ref_no != ''")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// ReplaceOpportunities swaps the whole dataset for the given rows inside one
// transaction. Readers either see the previous dataset or the new one, never
// an empty window, and an insert failure rolls everything back.
func (s *Store) ReplaceOpportunities(ctx context.Context, opps []models.Opportunity) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM opportunities"); err != nil {
		return fmt.Errorf("failed to clear opportunities: %w", err)
	}

	batch := &pgx.Batch{}
	for _, o := range opps {
		rawRow, err := json.Marshal(o.RawRow)
		if err != nil {
			return fmt.Errorf("failed to encode raw row for %q: %w", o.RefNo, err)
		}
		batch.Queue(`
			INSERT INTO opportunities (
				id, ref_no, tender_name, client_name, internal_lead,
				group_classification, opportunity_classification, country,
				opportunity_value, probability, canonical_stage, stage_imputed, stage_reason,
				avenir_status, tender_result, statuses,
				date_received, date_received_display, planned_submission, submitted_date,
				remarks_reason, comments, raw_row, synced_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
				$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
			)`,
			o.ID, o.RefNo, o.TenderName, o.ClientName, o.InternalLead,
			o.GroupClassification, o.OpportunityClassification, o.Country,
			o.Value, o.Probability, o.CanonicalStage, o.StageImputed, o.StageReason,
			o.AvenirStatus, o.TenderResult, o.Statuses,
			o.DateReceived, o.DateReceivedDisplay, o.PlannedSubmission, o.SubmittedDate,
			o.RemarksReason, o.Comments, rawRow, o.SyncedAt,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert opportunities: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) GetStats(ctx context.Context) (map[string]any, error) {
	stats := make(map[string]any)

	var total int
	var totalValue, weightedValue float64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(opportunity_value), 0),
		       COALESCE(SUM(opportunity_value * probability / 100.0), 0)
		FROM opportunities
	`).Scan(&total, &totalValue, &weightedValue)
	if err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}
	stats["total"] = total
	stats["total_value"] = totalValue
	stats["weighted_value"] = weightedValue

	stageCounts := map[string]int{}
	rows, err := s.pool.Query(ctx, "SELECT canonical_stage, COUNT(*) FROM opportunities GROUP BY canonical_stage")
	if err != nil {
		return nil, fmt.Errorf("failed to count stages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		stageCounts[stage] = count
	}
	stats["stage_counts"] = stageCounts

	var imputed int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM opportunities WHERE stage_imputed = true").Scan(&imputed); err != nil {
		return nil, fmt.Errorf("failed to count imputed stages: %w", err)
	}
	stats["imputed_stages"] = imputed

	return stats, nil
}

// Aggregation represents a single facet count.
type Aggregation struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// AggregationResult contains the facet counts for the dashboard filters.
type AggregationResult struct {
	Stages    []Aggregation `json:"stages"`
	Groups    []Aggregation `json:"groups"`
	Countries []Aggregation `json:"countries"`
	Clients   []Aggregation `json:"clients"`
}

func (s *Store) GetAggregations(ctx context.Context) (*AggregationResult, error) {
	result := &AggregationResult{}

	facets := []struct {
		column string
		query  string
		dest   *[]Aggregation
	}{
		{"canonical_stage", "", &result.Stages},
		{"group_classification", "AND group_classification != ''", &result.Groups},
		{"country", "AND country != ''", &result.Countries},
		{"client_name", "AND client_name != ''", &result.Clients},
	}

	for _, f := range facets {
		q := fmt.Sprintf(`SELECT %s, COUNT(*) FROM opportunities WHERE 1=1 %s GROUP BY %s ORDER BY COUNT(*) DESC LIMIT 50`, f.column, f.query, f.column)
		rows, err := s.pool.Query(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate %s: %w", f.column, err)
		}
		for rows.Next() {
			var ag Aggregation
			if err := rows.Scan(&ag.Value, &ag.Count); err != nil {
				rows.Close()
				return nil, err
			}
			*f.dest = append(*f.dest, ag)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	return result, nil
}
