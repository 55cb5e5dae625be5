package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/organization-service/internal/domain"
)

// SpecialtyUpdate carries the optional fields of a partial update. Nil fields
// are left untouched.
type SpecialtyUpdate struct {
	Name         *string
	DepartmentID *string
}

// SpecialtyWithDepartment pairs a specialty with its department projection.
type SpecialtyWithDepartment struct {
	domain.Specialty
	Department domain.EntityRef
}

// SpecialtyRepository manages specialty persistence.
type SpecialtyRepository interface {
	Create(ctx context.Context, sp *domain.Specialty) error
	Update(ctx context.Context, id string, fields SpecialtyUpdate) (*domain.Specialty, error)
	GetByID(ctx context.Context, id string) (*domain.Specialty, error)
	GetByName(ctx context.Context, name string) (*domain.Specialty, error)
	List(ctx context.Context) ([]SpecialtyWithDepartment, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.Specialty, error)
	ListRefs(ctx context.Context) ([]domain.EntityRef, error)
}

type specialtyRepository struct {
	pool *pgxpool.Pool
}

// NewSpecialtyRepository builds the repository.
func NewSpecialtyRepository(pool *pgxpool.Pool) SpecialtyRepository {
	return &specialtyRepository{pool: pool}
}

func (r *specialtyRepository) Create(ctx context.Context, sp *domain.Specialty) error {
	const query = `
        INSERT INTO specialties (name, description, department_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		sp.Name,
		sp.Description,
		sp.DepartmentID,
	).Scan(&sp.ID, &sp.CreatedAt, &sp.UpdatedAt)
}

// Update applies only the supplied fields. Returns pgx.ErrNoRows when the
// specialty does not exist.
func (r *specialtyRepository) Update(ctx context.Context, id string, fields SpecialtyUpdate) (*domain.Specialty, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{}

	if fields.Name != nil {
		args = append(args, *fields.Name)
		sets = append(sets, fmt.Sprintf("name=$%d", len(args)))
	}
	if fields.DepartmentID != nil {
		args = append(args, *fields.DepartmentID)
		sets = append(sets, fmt.Sprintf("department_id=$%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(`
        UPDATE specialties SET %s
        WHERE id=$%d
        RETURNING id, name, description, department_id, created_at, updated_at`,
		strings.Join(sets, ", "), len(args))

	var sp domain.Specialty
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&sp.ID,
		&sp.Name,
		&sp.Description,
		&sp.DepartmentID,
		&sp.CreatedAt,
		&sp.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *specialtyRepository) GetByID(ctx context.Context, id string) (*domain.Specialty, error) {
	const query = `
        SELECT id, name, description, department_id, created_at, updated_at
        FROM specialties WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *specialtyRepository) GetByName(ctx context.Context, name string) (*domain.Specialty, error) {
	const query = `
        SELECT id, name, description, department_id, created_at, updated_at
        FROM specialties WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *specialtyRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Specialty, error) {
	var sp domain.Specialty
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&sp.ID,
		&sp.Name,
		&sp.Description,
		&sp.DepartmentID,
		&sp.CreatedAt,
		&sp.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *specialtyRepository) List(ctx context.Context) ([]SpecialtyWithDepartment, error) {
	const query = `
        SELECT s.id, s.name, s.description, s.department_id, s.created_at, s.updated_at,
               d.id, d.name
        FROM specialties s
        JOIN departments d ON d.id = s.department_id
        ORDER BY s.name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SpecialtyWithDepartment
	for rows.Next() {
		var item SpecialtyWithDepartment
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.DepartmentID,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Department.ID,
			&item.Department.Name,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *specialtyRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Specialty, error) {
	const query = `
        SELECT id, name, description, department_id, created_at, updated_at
        FROM specialties WHERE department_id=$1 ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Specialty
	for rows.Next() {
		var sp domain.Specialty
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Description, &sp.DepartmentID, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, sp)
	}
	return result, rows.Err()
}

// ListRefs returns the id+name of every specialty, for name matching.
func (r *specialtyRepository) ListRefs(ctx context.Context) ([]domain.EntityRef, error) {
	const query = `SELECT id, name FROM specialties ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EntityRef
	for rows.Next() {
		var ref domain.EntityRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}
