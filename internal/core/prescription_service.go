package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PrescriptionService manages optical prescriptions. Prescriptions are
// immutable once recorded; corrections are made by recording a new one.
type PrescriptionService interface {
	CreatePrescription(ctx context.Context, p Prescription) (*Prescription, error)
	GetPrescription(ctx context.Context, id int) (*Prescription, error)
	// GetPrescriptions lists a customer's prescriptions, newest first.
	GetPrescriptions(ctx context.Context, customerID int) ([]Prescription, error)
	DeletePrescription(ctx context.Context, id int) error
}

type prescriptionService struct {
	pool *pgxpool.Pool
}

func NewPrescriptionService(pool *pgxpool.Pool) PrescriptionService {
	return &prescriptionService{pool: pool}
}

const prescriptionColumns = `id, customer_id, user_id, issue_date::text,
	right_sphere, right_cylinder, right_axis, left_sphere, left_cylinder, left_axis,
	addition, pupillary_distance, notes, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.CustomerID, &p.UserID, &p.IssueDate,
		&p.RightSphere, &p.RightCyl, &p.RightAxis, &p.LeftSphere, &p.LeftCyl, &p.LeftAxis,
		&p.Addition, &p.PupilDist, &p.Notes, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *prescriptionService) CreatePrescription(ctx context.Context, p Prescription) (*Prescription, error) {
	if p.CustomerID == 0 {
		return nil, fmt.Errorf("prescription requires a customer: %w", ErrInvalidInput)
	}
	if p.UserID == 0 {
		return nil, fmt.Errorf("prescription requires the recording user: %w", ErrInvalidInput)
	}
	if p.IssueDate == "" {
		p.IssueDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", p.IssueDate); err != nil {
		return nil, fmt.Errorf("invalid issue date %q: %w", p.IssueDate, ErrInvalidInput)
	}
	// Cylinder axis is measured in degrees, 0-180.
	if p.RightAxis < 0 || p.RightAxis > 180 || p.LeftAxis < 0 || p.LeftAxis > 180 {
		return nil, fmt.Errorf("axis must be between 0 and 180 degrees: %w", ErrInvalidInput)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO prescriptions (customer_id, user_id, issue_date,
			right_sphere, right_cylinder, right_axis, left_sphere, left_cylinder, left_axis,
			addition, pupillary_distance, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+prescriptionColumns,
		p.CustomerID, p.UserID, p.IssueDate,
		p.RightSphere, p.RightCyl, p.RightAxis, p.LeftSphere, p.LeftCyl, p.LeftAxis,
		p.Addition, p.PupilDist, p.Notes)
	created, err := scanPrescription(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}
	return created, nil
}

func (s *prescriptionService) GetPrescription(ctx context.Context, id int) (*Prescription, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+prescriptionColumns+" FROM prescriptions WHERE id = $1", id)
	p, err := scanPrescription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("prescription %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch prescription %d: %w", id, err)
	}
	return p, nil
}

func (s *prescriptionService) GetPrescriptions(ctx context.Context, customerID int) ([]Prescription, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+prescriptionColumns+" FROM prescriptions WHERE customer_id = $1 ORDER BY issue_date DESC, id DESC",
		customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prescriptions: %w", err)
	}
	defer rows.Close()

	var prescriptions []Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prescription: %w", err)
		}
		prescriptions = append(prescriptions, *p)
	}
	return prescriptions, rows.Err()
}

func (s *prescriptionService) DeletePrescription(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM prescriptions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete prescription %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("prescription %d: %w", id, ErrNotFound)
	}
	return nil
}
