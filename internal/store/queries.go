package store

// SQL query constants organized by entity.
// All SQL lives here; PostgresStore methods reference these constants.

// Listing queries.
const (
	queryKnownHashes = `
		SELECT hash FROM listings
		WHERE job_id = $1 AND provider_id = $2`

	queryInsertListing = `
		INSERT INTO listings (
			job_id, provider_id, hash, title, price, size, address, link,
			description, image, latitude, longitude, distance_to_destination, date_found
		) VALUES (
			@job_id, @provider_id, @hash, @title, @price, @size, @address, @link,
			@description, @image, @latitude, @longitude, @distance_to_destination, @date_found
		)
		ON CONFLICT (job_id, provider_id, hash) DO NOTHING`

	queryUngeocodedListings = `
		SELECT DISTINCT ON (hash) hash, address
		FROM listings
		WHERE latitude IS NULL AND address <> ''
		ORDER BY hash, date_found DESC
		LIMIT $1`

	queryUpdateListingCoordinates = `
		UPDATE listings SET
			latitude  = $2,
			longitude = $3
		WHERE hash = $1`
)

// Geocode cache queries.
const (
	queryGetCachedCoordinates = `
		SELECT latitude, longitude FROM geocode_cache WHERE address = $1`

	queryUpsertCachedCoordinates = `
		INSERT INTO geocode_cache (address, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (address) DO UPDATE SET
			latitude   = EXCLUDED.latitude,
			longitude  = EXCLUDED.longitude,
			updated_at = now()`
)

// Enriched listing queries.
const (
	queryUpsertJobSchema = `
		INSERT INTO job_schemas (job_id, columns, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (job_id) DO UPDATE SET
			columns    = EXCLUDED.columns,
			updated_at = now()`

	queryGetJobSchema = `
		SELECT columns FROM job_schemas WHERE job_id = $1`

	queryUpsertEnrichedListing = `
		INSERT INTO enriched_listings (job_id, hash, data, created_at, updated_at)
		VALUES (@job_id, @hash, @data, now(), now())
		ON CONFLICT (job_id, hash) DO UPDATE SET
			data       = EXCLUDED.data,
			updated_at = now()`
)

// Job run queries.
const (
	queryInsertJobRun = `
		INSERT INTO job_runs (id, job_id, provider_id, started_at, status)
		VALUES ($1, $2, $3, $4, $5)`

	queryCompleteJobRun = `
		UPDATE job_runs SET
			completed_at = $2,
			status       = $3,
			notified     = $4,
			error_text   = $5
		WHERE id = $1`

	queryListJobRuns = `
		SELECT id, job_id, provider_id, started_at, completed_at, status,
			notified, error_text
		FROM job_runs
		WHERE ($1 = '' OR job_id = $1)
		ORDER BY started_at DESC
		LIMIT $2`

	queryMarkStaleJobRunsFailed = `
		UPDATE job_runs SET
			status       = 'failed',
			completed_at = now(),
			error_text   = 'interrupted'
		WHERE status = 'running' AND started_at < $1`

	queryDeleteOldJobRuns = `
		DELETE FROM job_runs WHERE started_at < now() - interval '30 days'`
)
