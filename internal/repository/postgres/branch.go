package postgres

import (
	"context"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository"
)

type branchRepository struct {
	db dbtx
}

func NewBranchRepository(db dbtx) repository.BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) Create(ctx context.Context, b *domain.Branch) error {
	query := `INSERT INTO branches (name, address, email, active, created_on) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if b.CreatedOn.IsZero() {
		b.CreatedOn = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query, b.Name, b.Address, b.Email, b.Active, b.CreatedOn).Scan(&b.ID)
	return mapError(err, "branch")
}

func (r *branchRepository) GetByID(ctx context.Context, id int32) (*domain.Branch, error) {
	b := &domain.Branch{}
	query := `SELECT id, name, address, email, active, archived_on, created_on FROM branches WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Name, &b.Address, &b.Email, &b.Active, &b.ArchivedOn, &b.CreatedOn)
	if err != nil {
		return nil, mapError(err, "branch")
	}
	return b, nil
}

func (r *branchRepository) Update(ctx context.Context, b *domain.Branch) error {
	query := `UPDATE branches SET name=$1, address=$2, email=$3, active=$4, archived_on=$5 WHERE id=$6`
	res, err := r.db.ExecContext(ctx, query, b.Name, b.Address, b.Email, b.Active, b.ArchivedOn, b.ID)
	return expectOne(res, err, "branch")
}

func (r *branchRepository) ListOperational(ctx context.Context) ([]domain.Branch, error) {
	query := `SELECT id, name, address, email, active, archived_on, created_on FROM branches
	          WHERE active = TRUE AND archived_on IS NULL ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err, "branch")
	}
	defer rows.Close()

	var branches []domain.Branch
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.Email, &b.Active, &b.ArchivedOn, &b.CreatedOn); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}
