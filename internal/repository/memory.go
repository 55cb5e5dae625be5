package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/organization-service/internal/domain"
)

// MemoryStore backs the in-memory repository implementations used in tests
// and local development. It enforces the same unique constraints the schema
// does, surfacing violations as pgconn errors so callers exercise the same
// paths as against Postgres.
type MemoryStore struct {
	mu             sync.RWMutex
	users          map[string]domain.User
	departments    map[string]domain.Department
	specialties    map[string]domain.Specialty
	specialtyOrder []string
	affiliations   []domain.Affiliation
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.User),
		departments: make(map[string]domain.Department),
		specialties: make(map[string]domain.Specialty),
	}
}

// SeedUser inserts a directory user, assigning an id when absent.
func (m *MemoryStore) SeedUser(user domain.User) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.users[user.ID] = user
	return user
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// UserRepo returns the read-only user repository view.
func (m *MemoryStore) UserRepo() UserRepository { return &memoryUserRepo{store: m} }

// DepartmentRepo returns the department repository view.
func (m *MemoryStore) DepartmentRepo() DepartmentRepository { return &memoryDepartmentRepo{store: m} }

// SpecialtyRepo returns the specialty repository view.
func (m *MemoryStore) SpecialtyRepo() SpecialtyRepository { return &memorySpecialtyRepo{store: m} }

// AffiliationRepo returns the affiliation repository view.
func (m *MemoryStore) AffiliationRepo() AffiliationRepository { return &memoryAffiliationRepo{store: m} }

type memoryUserRepo struct{ store *MemoryStore }

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if user, ok := r.store.users[id]; ok {
		return &user, nil
	}
	return nil, pgx.ErrNoRows
}

type memoryDepartmentRepo struct{ store *MemoryStore }

func (r *memoryDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.departments {
		if existing.Name == dept.Name {
			return uniqueViolation("departments_name_key")
		}
	}
	dept.ID = uuid.NewString()
	dept.CreatedAt = time.Now()
	dept.UpdatedAt = dept.CreatedAt
	r.store.departments[dept.ID] = *dept
	return nil
}

func (r *memoryDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if dept, ok := r.store.departments[id]; ok {
		return &dept, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryDepartmentRepo) GetByName(_ context.Context, name string) (*domain.Department, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, dept := range r.store.departments {
		if dept.Name == name {
			copied := dept
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryDepartmentRepo) List(_ context.Context) ([]domain.Department, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	result := make([]domain.Department, 0, len(r.store.departments))
	for _, dept := range r.store.departments {
		result = append(result, dept)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type memorySpecialtyRepo struct{ store *MemoryStore }

func (r *memorySpecialtyRepo) Create(_ context.Context, sp *domain.Specialty) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.specialties {
		if existing.Name == sp.Name {
			return uniqueViolation("specialties_name_key")
		}
	}
	sp.ID = uuid.NewString()
	sp.CreatedAt = time.Now()
	sp.UpdatedAt = sp.CreatedAt
	r.store.specialties[sp.ID] = *sp
	r.store.specialtyOrder = append(r.store.specialtyOrder, sp.ID)
	return nil
}

func (r *memorySpecialtyRepo) Update(_ context.Context, id string, fields SpecialtyUpdate) (*domain.Specialty, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sp, ok := r.store.specialties[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if fields.Name != nil {
		for otherID, other := range r.store.specialties {
			if otherID != id && other.Name == *fields.Name {
				return nil, uniqueViolation("specialties_name_key")
			}
		}
		sp.Name = *fields.Name
	}
	if fields.DepartmentID != nil {
		sp.DepartmentID = *fields.DepartmentID
	}
	sp.UpdatedAt = time.Now()
	r.store.specialties[id] = sp
	return &sp, nil
}

func (r *memorySpecialtyRepo) GetByID(_ context.Context, id string) (*domain.Specialty, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if sp, ok := r.store.specialties[id]; ok {
		return &sp, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memorySpecialtyRepo) GetByName(_ context.Context, name string) (*domain.Specialty, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, sp := range r.store.specialties {
		if sp.Name == name {
			copied := sp
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memorySpecialtyRepo) List(_ context.Context) ([]SpecialtyWithDepartment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	result := make([]SpecialtyWithDepartment, 0, len(r.store.specialties))
	for _, sp := range r.store.specialties {
		item := SpecialtyWithDepartment{Specialty: sp}
		if dept, ok := r.store.departments[sp.DepartmentID]; ok {
			item.Department = domain.EntityRef{ID: dept.ID, Name: dept.Name}
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memorySpecialtyRepo) ListByDepartment(_ context.Context, departmentID string) ([]domain.Specialty, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.Specialty
	for _, sp := range r.store.specialties {
		if sp.DepartmentID == departmentID {
			result = append(result, sp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memorySpecialtyRepo) ListRefs(_ context.Context) ([]domain.EntityRef, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	result := make([]domain.EntityRef, 0, len(r.store.specialtyOrder))
	for _, id := range r.store.specialtyOrder {
		if sp, ok := r.store.specialties[id]; ok {
			result = append(result, domain.EntityRef{ID: sp.ID, Name: sp.Name})
		}
	}
	return result, nil
}

type memoryAffiliationRepo struct{ store *MemoryStore }

func (r *memoryAffiliationRepo) Create(_ context.Context, aff *domain.Affiliation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.affiliations {
		if existing.UserID == aff.UserID && existing.Role == aff.Role {
			return uniqueViolation("uq_affiliations_user_role")
		}
	}
	aff.ID = uuid.NewString()
	aff.CreatedAt = time.Now()
	r.store.affiliations = append(r.store.affiliations, *aff)
	return nil
}

func (r *memoryAffiliationRepo) ExistsByUserAndRole(_ context.Context, userID string, role domain.Role) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, existing := range r.store.affiliations {
		if existing.UserID == userID && existing.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryAffiliationRepo) ListWithFilter(_ context.Context, filter AffiliationFilter) ([]domain.AffiliationDetail, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.AffiliationDetail
	for _, aff := range r.store.affiliations {
		if filter.UserID != nil && aff.UserID != *filter.UserID {
			continue
		}
		if filter.Role != nil && aff.Role != *filter.Role {
			continue
		}
		if filter.DepartmentID != nil && (aff.DepartmentID == nil || *aff.DepartmentID != *filter.DepartmentID) {
			continue
		}
		if filter.SpecialtyID != nil && (aff.SpecialtyID == nil || *aff.SpecialtyID != *filter.SpecialtyID) {
			continue
		}
		detail := r.detail(aff)
		if filter.SpecialtyName != nil {
			if detail.Specialty == nil ||
				!strings.Contains(strings.ToLower(detail.Specialty.Name), strings.ToLower(strings.TrimSpace(*filter.SpecialtyName))) {
				continue
			}
		}
		result = append(result, detail)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Role != result[j].Role {
			return result[i].Role < result[j].Role
		}
		if result[i].User.LastName != result[j].User.LastName {
			return result[i].User.LastName < result[j].User.LastName
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *memoryAffiliationRepo) CountDepartmentMismatch(_ context.Context, specialtyID, departmentID string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, aff := range r.store.affiliations {
		if aff.SpecialtyID == nil || *aff.SpecialtyID != specialtyID {
			continue
		}
		if aff.DepartmentID == nil || *aff.DepartmentID != departmentID {
			count++
		}
	}
	return count, nil
}

func (r *memoryAffiliationRepo) detail(aff domain.Affiliation) domain.AffiliationDetail {
	detail := domain.AffiliationDetail{Affiliation: aff}
	if user, ok := r.store.users[aff.UserID]; ok {
		detail.User = domain.UserProjection{
			ID:                   user.ID,
			FirstName:            user.FirstName,
			LastName:             user.LastName,
			Email:                user.Email,
			IsActive:             user.IsActive,
			IdentificationType:   user.IdentificationType,
			IdentificationNumber: user.IdentificationNumber,
			Age:                  user.Age,
		}
	}
	if aff.DepartmentID != nil {
		if dept, ok := r.store.departments[*aff.DepartmentID]; ok {
			detail.Department = &domain.EntityRef{ID: dept.ID, Name: dept.Name}
		}
	}
	if aff.SpecialtyID != nil {
		if sp, ok := r.store.specialties[*aff.SpecialtyID]; ok {
			detail.Specialty = &domain.EntityRef{ID: sp.ID, Name: sp.Name}
		}
	}
	return detail
}
