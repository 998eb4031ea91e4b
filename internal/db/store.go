package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/priyansh/tender-match/internal/match"
	"github.com/priyansh/tender-match/internal/models"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const tenderCols = `id, form_url, title, reference_number, institute, location,
	business_category, scope_of_work, estimated_budget, deadline, deadline_raw,
	emd_amount, emd_exemptions, tender_fee_amount, tender_fee_exemptions,
	documents_required, raw_eligibility, structured_eligibility, last_updated, created_at`

func scanTender(scan func(dest ...interface{}) error) (models.Tender, error) {
	var t models.Tender
	var structuredRaw []byte

	err := scan(
		&t.ID, &t.FormURL, &t.Title, &t.ReferenceNumber, &t.Institute, &t.Location,
		&t.BusinessCategory, &t.ScopeOfWork, &t.EstimatedBudget, &t.Deadline, &t.DeadlineRaw,
		&t.EMD.Amount, &t.EMD.ExemptFor, &t.TenderFee.Amount, &t.TenderFee.ExemptFor,
		&t.DocumentsRequired, &t.RawEligibility, &structuredRaw, &t.LastUpdated, &t.CreatedAt,
	)
	if err != nil {
		return t, err
	}

	if len(structuredRaw) > 0 {
		var elig models.StructuredEligibility
		if err := json.Unmarshal(structuredRaw, &elig); err == nil {
			t.StructuredEligibility = &elig
		}
	}

	return t, nil
}

// buildTenderWhere translates corpus-narrowing filters into a WHERE clause.
// Zero-valued filters add no constraint.
func buildTenderWhere(filters match.TenderFilters) (string, []interface{}) {
	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1

	if filters.Location != "" {
		where += fmt.Sprintf(" AND location ILIKE $%d", argIdx)
		args = append(args, "%"+filters.Location+"%")
		argIdx++
	}
	if filters.Category != "" {
		where += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM unnest(business_category) AS bc WHERE bc ILIKE $%d)", argIdx)
		args = append(args, "%"+filters.Category+"%")
		argIdx++
	}
	if filters.Institute != "" {
		where += fmt.Sprintf(" AND institute ILIKE $%d", argIdx)
		args = append(args, "%"+filters.Institute+"%")
		argIdx++
	}
	if filters.BeforeDeadline != nil {
		where += fmt.Sprintf(" AND deadline IS NOT NULL AND deadline <= $%d", argIdx)
		args = append(args, *filters.BeforeDeadline)
		argIdx++
	}

	return where, args
}

// FindTenders retrieves the (optionally narrowed) corpus in stable creation
// order, which the category filter preserves downstream.
func (s *Store) FindTenders(ctx context.Context, filters match.TenderFilters) ([]models.Tender, error) {
	where, args := buildTenderWhere(filters)
	sql := fmt.Sprintf("SELECT %s FROM tenders %s ORDER BY created_at ASC", tenderCols, where)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var tenders []models.Tender
	for rows.Next() {
		t, err := scanTender(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		tenders = append(tenders, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return tenders, nil
}

func (s *Store) GetTender(ctx context.Context, id string) (*models.Tender, error) {
	sql := fmt.Sprintf("SELECT %s FROM tenders WHERE id = $1", tenderCols)
	t, err := scanTender(s.pool.QueryRow(ctx, sql, id).Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, match.ErrTenderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetTenderByFormURL(ctx context.Context, formURL string) (*models.Tender, error) {
	sql := fmt.Sprintf("SELECT %s FROM tenders WHERE form_url = $1", tenderCols)
	t, err := scanTender(s.pool.QueryRow(ctx, sql, formURL).Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, match.ErrTenderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertTender inserts or updates a tender keyed on form_url. The lazily
// derived eligibility fields are never overwritten here; only
// UpdateTenderEligibility touches them.
func (s *Store) UpsertTender(ctx context.Context, t *models.Tender) (uuid.UUID, error) {
	var embedding interface{}
	if len(t.Embedding) > 0 {
		embedding = pgvector.NewVector(t.Embedding)
	}

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tenders (
			form_url, title, reference_number, institute, location,
			business_category, scope_of_work, estimated_budget, deadline, deadline_raw,
			emd_amount, emd_exemptions, tender_fee_amount, tender_fee_exemptions,
			documents_required, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (form_url) DO UPDATE SET
			title = EXCLUDED.title,
			reference_number = EXCLUDED.reference_number,
			institute = EXCLUDED.institute,
			location = EXCLUDED.location,
			business_category = EXCLUDED.business_category,
			scope_of_work = EXCLUDED.scope_of_work,
			estimated_budget = EXCLUDED.estimated_budget,
			deadline = EXCLUDED.deadline,
			deadline_raw = EXCLUDED.deadline_raw,
			emd_amount = EXCLUDED.emd_amount,
			emd_exemptions = EXCLUDED.emd_exemptions,
			tender_fee_amount = EXCLUDED.tender_fee_amount,
			tender_fee_exemptions = EXCLUDED.tender_fee_exemptions,
			documents_required = EXCLUDED.documents_required,
			embedding = COALESCE(EXCLUDED.embedding, tenders.embedding)
		RETURNING id
	`,
		t.FormURL, t.Title, t.ReferenceNumber, t.Institute, t.Location,
		t.BusinessCategory, t.ScopeOfWork, t.EstimatedBudget, t.Deadline, t.DeadlineRaw,
		t.EMD.Amount, t.EMD.ExemptFor, t.TenderFee.Amount, t.TenderFee.ExemptFor,
		t.DocumentsRequired, embedding,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert failed: %w", err)
	}
	return id, nil
}

// UpdateTenderEligibility persists the two lazily derived eligibility fields
// together with their refresh timestamp. The write is idempotent: re-derived
// values for the same source document are equivalent, so last-write-wins is
// acceptable under concurrent runs.
func (s *Store) UpdateTenderEligibility(ctx context.Context, tenderID string, raw *string, structured *models.StructuredEligibility, updatedAt time.Time) error {
	var structuredJSON []byte
	if structured != nil {
		var err error
		structuredJSON, err = json.Marshal(structured)
		if err != nil {
			return fmt.Errorf("marshal structured eligibility: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE tenders
		SET raw_eligibility = $2, structured_eligibility = $3, last_updated = $4
		WHERE id = $1
	`, tenderID, raw, structuredJSON, updatedAt)
	if err != nil {
		return fmt.Errorf("update eligibility failed: %w", err)
	}
	return nil
}

// SearchTenders orders the corpus by embedding proximity to the query
// vector. Tenders without an embedding sort last.
func (s *Store) SearchTenders(ctx context.Context, queryEmbedding []float32, limit int) ([]models.Tender, error) {
	if limit <= 0 {
		limit = 20
	}
	sql := fmt.Sprintf(`
		SELECT %s FROM tenders
		ORDER BY
			CASE WHEN embedding IS NULL THEN 1 ELSE 0 END ASC,
			COALESCE(1 - (embedding <=> $1), -1) DESC,
			created_at DESC
		LIMIT $2
	`, tenderCols)

	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(queryEmbedding), limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var tenders []models.Tender
	for rows.Next() {
		t, err := scanTender(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		tenders = append(tenders, t)
	}
	return tenders, rows.Err()
}

func (s *Store) CountTenders(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tenders").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) CreateCompany(ctx context.Context, c *models.Company) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO companies (
			user_id, name, pan, gstin, registration_on_gem,
			experience_years, annual_turnover, documents_available, certifications, description,
			business_roles, industry_sectors, product_service_keywords, technical_capabilities, tender_types_handled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`,
		c.UserID, c.Name, c.PAN, c.GSTIN, c.RegistrationOnGeM,
		c.ExperienceYears, c.AnnualTurnover, c.DocumentsAvailable, c.Certifications, c.Description,
		c.Capabilities.BusinessRoles, c.Capabilities.IndustrySectors, c.Capabilities.ProductServiceKeywords,
		c.Capabilities.TechnicalCapabilities, c.Capabilities.TenderTypesHandled,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert company failed: %w", err)
	}
	return id, nil
}

func (s *Store) GetCompany(ctx context.Context, companyID string) (*models.Company, error) {
	var c models.Company
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, pan, gstin, registration_on_gem,
			experience_years, annual_turnover, documents_available, certifications, description,
			business_roles, industry_sectors, product_service_keywords, technical_capabilities, tender_types_handled,
			created_at
		FROM companies WHERE id = $1
	`, companyID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.PAN, &c.GSTIN, &c.RegistrationOnGeM,
		&c.ExperienceYears, &c.AnnualTurnover, &c.DocumentsAvailable, &c.Certifications, &c.Description,
		&c.Capabilities.BusinessRoles, &c.Capabilities.IndustrySectors, &c.Capabilities.ProductServiceKeywords,
		&c.Capabilities.TechnicalCapabilities, &c.Capabilities.TenderTypesHandled,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, match.ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CompanySummary is the id/name projection used by listing endpoints.
type CompanySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (s *Store) ListCompanies(ctx context.Context) ([]CompanySummary, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM companies ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []CompanySummary
	for rows.Next() {
		var c CompanySummary
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// SaveMatchResult caches one company/tender match outcome, replacing any
// previous result for the pair.
func (s *Store) SaveMatchResult(ctx context.Context, companyID string, result models.MatchResult) error {
	fieldScores, err := json.Marshal(result.FieldScores)
	if err != nil {
		return fmt.Errorf("marshal field scores: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO match_results (company_id, tender_id, matching_score, eligible, field_scores, missing_fields)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, tender_id) DO UPDATE SET
			matching_score = EXCLUDED.matching_score,
			eligible = EXCLUDED.eligible,
			field_scores = EXCLUDED.field_scores,
			missing_fields = EXCLUDED.missing_fields,
			created_at = NOW()
	`, companyID, result.TenderID, result.MatchingScore, result.Eligible, fieldScores, result.MissingFields)
	if err != nil {
		return fmt.Errorf("save match result failed: %w", err)
	}
	return nil
}

func (s *Store) GetMatchResult(ctx context.Context, companyID, tenderID string) (*models.MatchResult, error) {
	var result models.MatchResult
	var fieldScores []byte
	err := s.pool.QueryRow(ctx, `
		SELECT tender_id::text, matching_score, eligible, field_scores, missing_fields
		FROM match_results WHERE company_id = $1 AND tender_id = $2
	`, companyID, tenderID).Scan(
		&result.TenderID, &result.MatchingScore, &result.Eligible, &fieldScores, &result.MissingFields,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(fieldScores) > 0 {
		_ = json.Unmarshal(fieldScores, &result.FieldScores)
	}
	return &result, nil
}
