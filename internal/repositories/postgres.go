package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coursemates/backend/internal/db"
	"github.com/coursemates/backend/internal/models"
)

// PostgresUserRepository reads learner profiles from PostgreSQL.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const selectUserColumns = `id, name, email, COALESCE(avatar_url, ''), tier, enrolled_courses, joined_at`

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+selectUserColumns+`
        FROM users
        WHERE id = $1
    `, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}

	return user, nil
}

// List returns every user ordered by join date.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+selectUserColumns+`
        FROM users
        ORDER BY joined_at, id
    `)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// PostgresActivityRepository reads the course activity feed from PostgreSQL.
type PostgresActivityRepository struct {
	pool db.Pool
}

// NewPostgresActivityRepository constructs an activity repository backed by PostgreSQL.
func NewPostgresActivityRepository(pool db.Pool) *PostgresActivityRepository {
	return &PostgresActivityRepository{pool: pool}
}

// ListFeed returns the newest entries across all users.
func (r *PostgresActivityRepository) ListFeed(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	return r.query(ctx, `
        SELECT id, user_id, kind, course_id, course_title, COALESCE(detail, ''), occurred_at
        FROM activity_entries
        ORDER BY occurred_at DESC, id
        LIMIT $1
    `, sqlLimit(limit))
}

// ListForUser returns the newest entries produced by a single user.
func (r *PostgresActivityRepository) ListForUser(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error) {
	return r.query(ctx, `
        SELECT id, user_id, kind, course_id, course_title, COALESCE(detail, ''), occurred_at
        FROM activity_entries
        WHERE user_id = $2
        ORDER BY occurred_at DESC, id
        LIMIT $1
    `, sqlLimit(limit), userID)
}

func (r *PostgresActivityRepository) query(ctx context.Context, sql string, args ...any) ([]models.ActivityEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity feed: %w", err)
	}
	defer rows.Close()

	entries := []models.ActivityEntry{}
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.CourseID, &e.CourseTitle, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		e.OccurredAt = e.OccurredAt.UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity feed: %w", err)
	}

	return entries, nil
}

// ImportDirectory upserts users and activity entries in a single transaction.
// It backs the seed command; the service itself never writes to these tables.
func ImportDirectory(ctx context.Context, pool db.Pool, users []models.User, activity []models.ActivityEntry) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, u := range users {
		courses := u.EnrolledCourses
		if courses == nil {
			courses = []string{}
		}
		batch.Queue(`
            INSERT INTO users (id, name, email, avatar_url, tier, enrolled_courses, joined_at)
            VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
            ON CONFLICT (id) DO UPDATE SET
                name = EXCLUDED.name,
                email = EXCLUDED.email,
                avatar_url = EXCLUDED.avatar_url,
                tier = EXCLUDED.tier,
                enrolled_courses = EXCLUDED.enrolled_courses,
                joined_at = EXCLUDED.joined_at
        `, u.ID, u.Name, u.Email, u.AvatarURL, string(u.Tier), courses, u.JoinedAt.UTC())
	}
	for _, e := range activity {
		batch.Queue(`
            INSERT INTO activity_entries (id, user_id, kind, course_id, course_title, detail, occurred_at)
            VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
            ON CONFLICT (id) DO UPDATE SET
                user_id = EXCLUDED.user_id,
                kind = EXCLUDED.kind,
                course_id = EXCLUDED.course_id,
                course_title = EXCLUDED.course_title,
                detail = EXCLUDED.detail,
                occurred_at = EXCLUDED.occurred_at
        `, e.ID, e.UserID, string(e.Kind), e.CourseID, e.CourseTitle, e.Detail, e.OccurredAt.UTC())
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("import directory: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.AvatarURL, &user.Tier, &user.EnrolledCourses, &user.JoinedAt); err != nil {
		return models.User{}, err
	}
	if user.EnrolledCourses == nil {
		user.EnrolledCourses = []string{}
	}
	user.JoinedAt = user.JoinedAt.UTC()
	return user, nil
}

// sqlLimit maps "no limit" onto a value LIMIT accepts.
func sqlLimit(limit int) int64 {
	if limit <= 0 {
		return 1<<63 - 1
	}
	return int64(limit)
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ ActivityRepository = (*PostgresActivityRepository)(nil)
