package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"pet-pedigree/internal/domain/pets"
)

// PetsRepo guarda cada mascota en una fila; parents/children son TEXT[].
// Implementa pets.PairUpdater: las dos puntas de una arista van en una transacción.
type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, owner_user_id,
	name, species, breed, sex,
	birth_date, microchip, notes,
	parents, children, attributes,
	version, created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	if p.Version == 0 {
		p.Version = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		p.ID,
		p.OwnerUserID,
		p.Name,
		p.Species,
		p.Breed,
		p.Sex,
		nullTime(p.BirthDate),
		p.Microchip,
		p.Notes,
		nonNil(p.Parents),
		nonNil(p.Children),
		toNullJSON(p.Attributes),
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return pets.ErrAlreadyExists
	}
	return err
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) (int64, error) {
	return r.update(ctx, r.db, p)
}

// UpdatePair escribe a y b en una transacción; si una falla no queda ninguna.
func (r *PetsRepo) UpdatePair(ctx context.Context, a, b pets.Pet) (int64, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	va, err := r.update(ctx, tx, a)
	if err != nil {
		return 0, 0, err
	}
	vb, err := r.update(ctx, tx, b)
	if err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return va, vb, nil
}

// update no toca owner_user_id ni created_at.
func (r *PetsRepo) update(ctx context.Context, q queryer, p pets.Pet) (int64, error) {
	var version int64
	err := q.QueryRowContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			sex = $5,
			birth_date = $6,
			microchip = $7,
			notes = $8,
			parents = $9,
			children = $10,
			attributes = $11,
			updated_at = $12,
			version = version + 1
		WHERE id = $1 AND version = $13
		RETURNING version
	`,
		p.ID,
		p.Name,
		p.Species,
		p.Breed,
		p.Sex,
		nullTime(p.BirthDate),
		p.Microchip,
		p.Notes,
		nonNil(p.Parents),
		nonNil(p.Children),
		toNullJSON(p.Attributes),
		p.UpdatedAt,
		p.Version,
	).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// sin fila: o no existe o la versión no coincide
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pets WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, pets.ErrNotFound
	}
	return 0, pets.ErrVersionConflict
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(pgtype.NewMap(), row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE owner_user_id = $1
		ORDER BY created_at ASC, id ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	return scanPets(rows)
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

// IsReferenced usa los índices GIN sobre parents/children.
func (r *PetsRepo) IsReferenced(ctx context.Context, id string) (bool, error) {
	var referenced bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pets
			WHERE id <> $1
			  AND (parents @> ARRAY[$1::text] OR children @> ARRAY[$1::text])
		)
	`, id).Scan(&referenced)
	return referenced, err
}

func (r *PetsRepo) List(ctx context.Context, afterID string, limit int) ([]pets.Pet, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE id > $1
		ORDER BY id ASC
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, err
	}
	return scanPets(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

// scanPet lee TEXT[] con el SQLScanner de pgtype: database/sql no sabe escanear arrays.
func scanPet(m *pgtype.Map, s scanner) (pets.Pet, error) {
	var p pets.Pet
	var bd sql.NullTime
	var attrs []byte
	if err := s.Scan(
		&p.ID,
		&p.OwnerUserID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&p.Sex,
		&bd,
		&p.Microchip,
		&p.Notes,
		m.SQLScanner(&p.Parents),
		m.SQLScanner(&p.Children),
		&attrs,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}

	if bd.Valid {
		// birth_date es DATE: pgx lo devuelve como medianoche UTC
		t := bd.Time
		p.BirthDate = &t
	}
	if len(attrs) > 0 {
		p.Attributes = attrs
	}
	p.Parents = nonNil(p.Parents)
	p.Children = nonNil(p.Children)
	return p, nil
}

func scanPets(rows *sql.Rows) ([]pets.Pet, error) {
	defer rows.Close()

	m := pgtype.NewMap()
	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(m, rows)
		if err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func toNullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
