package postgres

import (
	"context"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/repository"
)

type customerRepository struct {
	db dbtx
}

func NewCustomerRepository(db dbtx) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `INSERT INTO customers (name, email, document_number, rating, created_on) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if c.CreatedOn.IsZero() {
		c.CreatedOn = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query, c.Name, c.Email, c.DocumentNumber, c.Rating, c.CreatedOn).Scan(&c.ID)
	return mapError(err, "customer")
}

func (r *customerRepository) GetByID(ctx context.Context, id int32) (*domain.Customer, error) {
	c := &domain.Customer{}
	query := `SELECT id, name, email, document_number, rating, created_on, archived_on FROM customers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.DocumentNumber, &c.Rating, &c.CreatedOn, &c.ArchivedOn)
	if err != nil {
		return nil, mapError(err, "customer")
	}
	return c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `UPDATE customers SET name=$1, email=$2, document_number=$3, rating=$4, archived_on=$5 WHERE id=$6`
	res, err := r.db.ExecContext(ctx, query, c.Name, c.Email, c.DocumentNumber, c.Rating, c.ArchivedOn, c.ID)
	return expectOne(res, err, "customer")
}
