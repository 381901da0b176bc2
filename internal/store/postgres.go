package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
// A poolSize of zero uses the default.
func NewPostgresStore(ctx context.Context, connString string, poolSize int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize
	if poolSize > 0 {
		cfg.MaxConns = poolSize
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// KnownHashes returns every hash stored for the job and provider.
func (s *PostgresStore) KnownHashes(ctx context.Context, jobID, providerID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, queryKnownHashes, jobID, providerID)
	if err != nil {
		return nil, fmt.Errorf("querying known hashes: %w", err)
	}
	hashes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning known hashes: %w", err)
	}
	return hashes, nil
}

// StoreListings inserts listings in a single batch. Rows that already exist
// are left untouched.
func (s *PostgresStore) StoreListings(
	ctx context.Context,
	jobID, providerID string,
	listings []domain.Listing,
) error {
	if len(listings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range listings {
		l := &listings[i]
		found := l.DateFound
		if found.IsZero() {
			found = time.Now()
		}
		batch.Queue(queryInsertListing, pgx.NamedArgs{
			"job_id":                  jobID,
			"provider_id":             providerID,
			"hash":                    l.ID,
			"title":                   l.Title,
			"price":                   l.Price,
			"size":                    l.Size,
			"address":                 l.Address,
			"link":                    l.Link,
			"description":             l.Description,
			"image":                   l.Image,
			"latitude":                l.Latitude,
			"longitude":               l.Longitude,
			"distance_to_destination": l.DistanceToDestination,
			"date_found":              found,
		})
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("storing listings: %w", err)
	}
	return nil
}

// CachedCoordinates returns the cached lookup for address, or nil if the
// address has never been looked up.
func (s *PostgresStore) CachedCoordinates(ctx context.Context, address string) (*domain.Coordinates, error) {
	var c domain.Coordinates
	err := s.pool.QueryRow(ctx, queryGetCachedCoordinates, address).Scan(&c.Lat, &c.Lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading geocode cache: %w", err)
	}
	return &c, nil
}

// SaveCoordinates upserts the lookup result for address.
func (s *PostgresStore) SaveCoordinates(ctx context.Context, address string, c domain.Coordinates) error {
	if _, err := s.pool.Exec(ctx, queryUpsertCachedCoordinates, address, c.Lat, c.Lng); err != nil {
		return fmt.Errorf("writing geocode cache: %w", err)
	}
	return nil
}

// UngeocodedListings returns up to limit distinct listings that have an
// address but no coordinates. Only ID and Address are populated.
func (s *PostgresStore) UngeocodedListings(ctx context.Context, limit int) ([]domain.Listing, error) {
	rows, err := s.pool.Query(ctx, queryUngeocodedListings, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ungeocoded listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(&l.ID, &l.Address); err != nil {
			return nil, fmt.Errorf("scanning ungeocoded listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// UpdateCoordinates sets coordinates on every stored row of the listing.
func (s *PostgresStore) UpdateCoordinates(ctx context.Context, listingID string, c domain.Coordinates) error {
	if _, err := s.pool.Exec(ctx, queryUpdateListingCoordinates, listingID, c.Lat, c.Lng); err != nil {
		return fmt.Errorf("updating listing coordinates: %w", err)
	}
	return nil
}

// RegisterSchema stores the enriched column set of a job, replacing any
// previous one.
func (s *PostgresStore) RegisterSchema(ctx context.Context, jobID string, cols []domain.ColumnDef) error {
	data, err := json.Marshal(cols)
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}
	if _, err := s.pool.Exec(ctx, queryUpsertJobSchema, jobID, data); err != nil {
		return fmt.Errorf("registering schema for job %s: %w", jobID, err)
	}
	return nil
}

// Schema returns the registered columns of a job, or ErrNotFound.
func (s *PostgresStore) Schema(ctx context.Context, jobID string) ([]domain.ColumnDef, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, queryGetJobSchema, jobID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading schema for job %s: %w", jobID, err)
	}

	var cols []domain.ColumnDef
	if err := json.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("decoding schema for job %s: %w", jobID, err)
	}
	return cols, nil
}

// AddEnrichedListings validates listings against the job schema and
// upserts them in one transaction.
func (s *PostgresStore) AddEnrichedListings(ctx context.Context, jobID string, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	cols, err := s.Schema(ctx, jobID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: no schema registered for job %s", ErrSchemaMismatch, jobID)
	}
	if err != nil {
		return err
	}
	if err := ValidateAgainstSchema(cols, listings); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i := range listings {
		data, err := json.Marshal(listings[i].Record())
		if err != nil {
			return fmt.Errorf("marshaling listing %s: %w", listings[i].ID, err)
		}
		batch.Queue(queryUpsertEnrichedListing, pgx.NamedArgs{
			"job_id": jobID,
			"hash":   listings[i].ID,
			"data":   data,
		})
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("adding enriched listings: %w", err)
		}
		return nil
	})
}

// InsertJobRun records the start of a run. A missing ID is generated.
func (s *PostgresStore) InsertJobRun(ctx context.Context, run *domain.JobRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = domain.RunRunning
	}

	_, err := s.pool.Exec(ctx, queryInsertJobRun,
		run.ID, run.JobID, run.ProviderID, run.StartedAt, string(run.Status),
	)
	if err != nil {
		return fmt.Errorf("inserting job run: %w", err)
	}
	return nil
}

// CompleteJobRun stores the final status of a run.
func (s *PostgresStore) CompleteJobRun(ctx context.Context, run *domain.JobRun) error {
	if run.CompletedAt == nil {
		now := time.Now()
		run.CompletedAt = &now
	}

	tag, err := s.pool.Exec(ctx, queryCompleteJobRun,
		run.ID, run.CompletedAt, string(run.Status), run.Notified, run.ErrorText,
	)
	if err != nil {
		return fmt.Errorf("completing job run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("completing job run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// ListJobRuns returns the most recent runs, newest first.
func (s *PostgresStore) ListJobRuns(ctx context.Context, jobID string, limit int) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListJobRuns, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying job runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.JobRun
	for rows.Next() {
		var r domain.JobRun
		if err := rows.Scan(
			&r.ID, &r.JobID, &r.ProviderID, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.Notified, &r.ErrorText,
		); err != nil {
			return nil, fmt.Errorf("scanning job run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RecoverStaleJobRuns marks interrupted runs failed, then deletes runs
// older than 30 days.
func (s *PostgresStore) RecoverStaleJobRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := s.pool.Exec(ctx, queryMarkStaleJobRunsFailed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("marking stale job runs failed: %w", err)
	}
	affected := int(tag.RowsAffected())

	if _, err := s.pool.Exec(ctx, queryDeleteOldJobRuns); err != nil {
		return affected, fmt.Errorf("deleting old job runs: %w", err)
	}
	return affected, nil
}

// ListListings returns a page of stored listings and the total match count.
func (s *PostgresStore) ListListings(ctx context.Context, q *ListingQuery) ([]domain.Listing, int, error) {
	dataSQL, countSQL, args := q.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting listings: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, 0, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, total, rows.Err()
}

// scannable abstracts pgx.Row and pgx.Rows for reuse.
type scannable interface {
	Scan(dest ...any) error
}

func scanListing(row scannable, l *domain.Listing) error {
	return row.Scan(
		&l.ID, &l.Title, &l.Price, &l.Size, &l.Address, &l.Link, &l.Description, &l.Image,
		&l.Latitude, &l.Longitude, &l.DistanceToDestination, &l.DateFound,
	)
}
