package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/organization-service/internal/domain"
)

// AffiliationFilter captures the optional, conjunctive listing filters. Each
// field is independently nullable and translates to one predicate.
type AffiliationFilter struct {
	UserID        *string
	Role          *domain.Role
	DepartmentID  *string
	SpecialtyID   *string
	SpecialtyName *string // case-insensitive substring on the joined specialty name
}

// AffiliationRepository encapsulates affiliation persistence.
type AffiliationRepository interface {
	Create(ctx context.Context, aff *domain.Affiliation) error
	ExistsByUserAndRole(ctx context.Context, userID string, role domain.Role) (bool, error)
	ListWithFilter(ctx context.Context, filter AffiliationFilter) ([]domain.AffiliationDetail, error)
	CountDepartmentMismatch(ctx context.Context, specialtyID, departmentID string) (int64, error)
}

type affiliationRepository struct {
	pool *pgxpool.Pool
}

// NewAffiliationRepository instantiates the repository.
func NewAffiliationRepository(pool *pgxpool.Pool) AffiliationRepository {
	return &affiliationRepository{pool: pool}
}

func (r *affiliationRepository) Create(ctx context.Context, aff *domain.Affiliation) error {
	const query = `
        INSERT INTO affiliations (user_id, role, department_id, specialty_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		aff.UserID,
		aff.Role,
		aff.DepartmentID,
		aff.SpecialtyID,
	).Scan(&aff.ID, &aff.CreatedAt)
}

func (r *affiliationRepository) ExistsByUserAndRole(ctx context.Context, userID string, role domain.Role) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM affiliations WHERE user_id=$1 AND role=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, role).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListWithFilter returns enriched affiliations ordered by role, then the
// user's last name, then affiliation id as the stable tiebreak.
func (r *affiliationRepository) ListWithFilter(ctx context.Context, filter AffiliationFilter) ([]domain.AffiliationDetail, error) {
	base := `SELECT a.id, a.user_id, a.role, a.department_id, a.specialty_id, a.created_at,
                    u.id, u.first_name, u.last_name, u.email, u.is_active,
                    u.identification_type, u.identification_number, u.age,
                    d.id, d.name, s.id, s.name
             FROM affiliations a
             JOIN users u ON u.id = a.user_id
             LEFT JOIN departments d ON d.id = a.department_id
             LEFT JOIN specialties s ON s.id = a.specialty_id`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("a.user_id=$%d", len(args)))
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("a.role=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("a.department_id=$%d", len(args)))
	}
	if filter.SpecialtyID != nil {
		args = append(args, *filter.SpecialtyID)
		clauses = append(clauses, fmt.Sprintf("a.specialty_id=$%d", len(args)))
	}
	if filter.SpecialtyName != nil && strings.TrimSpace(*filter.SpecialtyName) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SpecialtyName)) + "%"
		args = append(args, search)
		clauses = append(clauses, fmt.Sprintf("LOWER(s.name) LIKE $%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY a.role ASC, u.last_name ASC, a.id ASC`,
		base, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAffiliationDetails(rows)
}

// CountDepartmentMismatch counts affiliations on a specialty whose stored
// department differs from the specialty's current one. Non-zero after a
// department move: the derivation is not cascaded.
func (r *affiliationRepository) CountDepartmentMismatch(ctx context.Context, specialtyID, departmentID string) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM affiliations
        WHERE specialty_id=$1 AND (department_id IS NULL OR department_id <> $2)`
	var count int64
	if err := r.pool.QueryRow(ctx, query, specialtyID, departmentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanAffiliationDetails(rows pgx.Rows) ([]domain.AffiliationDetail, error) {
	var result []domain.AffiliationDetail
	for rows.Next() {
		var detail domain.AffiliationDetail
		var deptID, deptName, specID, specName *string
		if err := rows.Scan(
			&detail.ID,
			&detail.UserID,
			&detail.Role,
			&detail.DepartmentID,
			&detail.SpecialtyID,
			&detail.CreatedAt,
			&detail.User.ID,
			&detail.User.FirstName,
			&detail.User.LastName,
			&detail.User.Email,
			&detail.User.IsActive,
			&detail.User.IdentificationType,
			&detail.User.IdentificationNumber,
			&detail.User.Age,
			&deptID,
			&deptName,
			&specID,
			&specName,
		); err != nil {
			return nil, err
		}
		if deptID != nil && deptName != nil {
			detail.Department = &domain.EntityRef{ID: *deptID, Name: *deptName}
		}
		if specID != nil && specName != nil {
			detail.Specialty = &domain.EntityRef{ID: *specID, Name: *specName}
		}
		result = append(result, detail)
	}
	return result, rows.Err()
}
