package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"newsletter_dashboard/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a delete matches no row.
var ErrNotFound = errors.New("newsletter not found")

// Database wraps the PostgreSQL pool behind the catalog backend.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDB creates a pool for connString and checks it answers.
func NewDB(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	return &Database{Pool: pool}, nil
}

// Close closes the pool.
func (db *Database) Close() {
	db.Pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS newsletters (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	author TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	paid BOOLEAN NOT NULL DEFAULT FALSE,
	cost DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (cost >= 0),
	engagement DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (engagement BETWEEN 0 AND 1)
);

CREATE TABLE IF NOT EXISTS recommendations (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	author TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION CHECK (price >= 0),
	match_score DOUBLE PRECISION NOT NULL CHECK (match_score BETWEEN 0 AND 1),
	subscribers BIGINT CHECK (subscribers >= 0),
	url TEXT
);
`

// InitSchema creates the catalog tables if they do not exist.
func (db *Database) InitSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, schema)
	return err
}

// ListNewsletters returns every newsletter in insertion order.
func (db *Database) ListNewsletters(ctx context.Context) ([]models.Newsletter, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id::text, name, author, category, paid, cost, engagement
        FROM newsletters
        ORDER BY id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Newsletter{}
	for rows.Next() {
		var (
			n  models.Newsletter
			id string
		)
		if err := rows.Scan(&id, &n.Name, &n.Author, &n.Category, &n.Paid, &n.Cost, &n.Engagement); err != nil {
			return nil, err
		}
		n.ID = models.ID(id)
		list = append(list, n)
	}
	return list, rows.Err()
}

// ListRecommendations returns recommendations, best match first.
func (db *Database) ListRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id::text, name, author, category, description, price, match_score, subscribers, url
        FROM recommendations
        ORDER BY match_score DESC, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Recommendation{}
	for rows.Next() {
		var (
			r   models.Recommendation
			id  string
			url *string
		)
		if err := rows.Scan(&id, &r.Name, &r.Author, &r.Category, &r.Description, &r.Price, &r.MatchScore, &r.Subscribers, &url); err != nil {
			return nil, err
		}
		r.ID = models.ID(id)
		if url != nil {
			r.URL = *url
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// CreateNewsletter stores a validated form and returns the new row.
func (db *Database) CreateNewsletter(ctx context.Context, n models.NewNewsletter) (*models.Newsletter, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO newsletters (name, author, category, paid, cost, engagement)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id::text
    `, n.Name, n.Author, n.Category, n.Paid, n.Cost, n.Engagement).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &models.Newsletter{
		ID:         models.ID(id),
		Name:       n.Name,
		Author:     n.Author,
		Category:   n.Category,
		Paid:       n.Paid,
		Cost:       n.Cost,
		Engagement: n.Engagement,
	}, nil
}

// DeleteNewsletter removes one newsletter by id.
func (db *Database) DeleteNewsletter(ctx context.Context, id models.ID) error {
	// ids are SERIAL; anything that does not parse cannot match a row.
	key, err := strconv.ParseInt(id.String(), 10, 32)
	if err != nil {
		return ErrNotFound
	}
	tag, err := db.Pool.Exec(ctx, `DELETE FROM newsletters WHERE id = $1`, int32(key))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
