package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/sweetshop-golang/internal/models"
	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// SQLStore implements SweetStore and UserStore over database/sql.
// Queries only use '?' placeholders so the same statements run on MySQL and SQLite.
type SQLStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// NewSQLStore wraps an open pool. driver is the name the pool was opened with.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{
		db:     db,
		driver: driver,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

const sweetColumns = `id, name, category, price, quantity, description, image_ref, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSweet(row rowScanner) (models.Sweet, error) {
	var s models.Sweet
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Category,
		&s.Price,
		&s.Quantity,
		&s.Description,
		&s.ImageRef,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (s *SQLStore) Get(ctx context.Context, id string) (models.Sweet, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sweetColumns+" FROM sweets WHERE id = ?", id)
	sweet, err := scanSweet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Sweet{}, ErrNotFound
		}
		return models.Sweet{}, fmt.Errorf("get sweet %s: %w", id, err)
	}
	return sweet, nil
}

func (s *SQLStore) Put(ctx context.Context, sweet models.Sweet) error {
	// REPLACE INTO is understood by both MySQL and SQLite.
	query := `
		REPLACE INTO sweets (` + sweetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		sweet.ID, sweet.Name, sweet.Category, sweet.Price, sweet.Quantity,
		sweet.Description, sweet.ImageRef, sweet.Version,
		sweet.CreatedAt.UTC(), sweet.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put sweet %s: %w", sweet.ID, err)
	}
	return nil
}

func (s *SQLStore) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, mutate MutateFunc) (models.Sweet, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.Sweet{}, err
	}
	if current.Version != expectedVersion {
		return models.Sweet{}, ErrVersionConflict
	}

	next, err := mutate(current)
	if err != nil {
		return models.Sweet{}, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.Version = expectedVersion + 1
	next.UpdatedAt = s.now()

	query := `
		UPDATE sweets
		SET name = ?, category = ?, price = ?, quantity = ?, description = ?, image_ref = ?,
			version = ?, updated_at = ?
		WHERE id = ? AND version = ?`
	result, err := s.db.ExecContext(ctx, query,
		next.Name, next.Category, next.Price, next.Quantity, next.Description, next.ImageRef,
		next.Version, next.UpdatedAt,
		id, expectedVersion,
	)
	if err != nil {
		return models.Sweet{}, fmt.Errorf("swap sweet %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.Sweet{}, fmt.Errorf("swap sweet %s: %w", id, err)
	}
	if rowsAffected == 0 {
		// Either someone bumped the version or deleted the row after our read.
		if _, err := s.Get(ctx, id); errors.Is(err, ErrNotFound) {
			return models.Sweet{}, ErrNotFound
		}
		return models.Sweet{}, ErrVersionConflict
	}
	return next, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sweets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete sweet %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sweet %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Query(ctx context.Context, filter Filter) ([]models.Sweet, error) {
	var queryBuilder strings.Builder
	var args []interface{}

	queryBuilder.WriteString("SELECT " + sweetColumns + " FROM sweets WHERE 1 = 1")

	// SQLite's LOWER and LIKE only fold ASCII, so a pushed-down name test
	// would drop rows like "ÉCLAIR" for "éclair". Match handles it there.
	if filter.Name != "" && s.driver != "sqlite3" {
		queryBuilder.WriteString(" AND LOWER(name) LIKE ? ESCAPE '!'")
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Name))+"%")
	}
	if filter.Category != "" {
		queryBuilder.WriteString(" AND category = ?")
		args = append(args, filter.Category)
	}
	if filter.MinPrice != nil {
		queryBuilder.WriteString(" AND price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		queryBuilder.WriteString(" AND price <= ?")
		args = append(args, *filter.MaxPrice)
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	rows, err := s.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query sweets: %w", err)
	}
	defer rows.Close()

	sweets := []models.Sweet{}
	for rows.Next() {
		sweet, err := scanSweet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sweet: %w", err)
		}
		// The SQL predicate may be looser than Match (MySQL collations
		// ignore accents), never stricter.
		if filter.Match(sweet) {
			sweets = append(sweets, sweet)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query sweets: %w", err)
	}
	return sweets, nil
}

func escapeLike(term string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(term)
}

// --- Users ---

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *SQLStore) CreateUser(ctx context.Context, user models.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role,
		user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *SQLStore) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? OR username = ? LIMIT 1", login, login)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *SQLStore) SetRole(ctx context.Context, id, role string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE users SET role = ?, updated_at = ? WHERE id = ?", role, s.now(), id)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicate recognises unique-key violations from either driver.
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
