package inkwell

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database and provides persistence for users and posts.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access, busy timeout so writers wait
	// instead of returning SQLITE_BUSY, synchronous=NORMAL is safe with WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    date_registered DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    tags TEXT NOT NULL,
    author TEXT NOT NULL REFERENCES users(id),
    created_at DATETIME NOT NULL,
    state TEXT NOT NULL DEFAULT 'draft',
    read_count INTEGER NOT NULL DEFAULT 0,
    reading_time INTEGER NOT NULL DEFAULT 0,
    body TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author);
CREATE INDEX IF NOT EXISTS idx_posts_state ON posts(state);
`)
	return err
}

// CreateUser inserts a new user record. The plaintext password is bcrypt
// hashed before it touches the database; the hash is the only form at rest.
// A value that is already a bcrypt hash is stored as-is, never re-hashed.
func (s *Store) CreateUser(firstName, lastName, email, password string, registered time.Time) (User, error) {
	hash := password
	if !isBcryptHash(password) {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		hash = string(h)
	}
	if registered.IsZero() {
		registered = time.Now().UTC()
	}
	u := User{
		ID:             uuid.NewString(),
		FirstName:      firstName,
		LastName:       lastName,
		Email:          normalizeEmail(email),
		PasswordHash:   hash,
		DateRegistered: registered,
	}
	_, err := s.db.Exec(`INSERT INTO users (id, first_name, last_name, email, password, date_registered) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.DateRegistered)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

// GetUserByEmail returns the user with the given (case-normalized) email.
func (s *Store) GetUserByEmail(email string) (User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, first_name, last_name, email, password, date_registered FROM users WHERE email = ?`,
		normalizeEmail(email)))
}

// GetUserByID returns the user with the given id.
func (s *Store) GetUserByID(id string) (User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, first_name, last_name, email, password, date_registered FROM users WHERE id = ?`, id))
}

// Authenticate checks email and password and returns the matching user.
// Unknown email and wrong password both yield ErrBadCredentials.
func (s *Store) Authenticate(email, password string) (User, error) {
	u, err := s.GetUserByEmail(email)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrBadCredentials
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

func (s *Store) scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.DateRegistered)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// CreatePost inserts a new post. State defaults to draft and read_count to
// zero when unset.
func (s *Store) CreatePost(p Post) (Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.State == "" {
		p.State = StateDraft
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT INTO posts (id, title, description, tags, author, created_at, state, read_count, reading_time, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, joinTags(p.Tags), p.Author, p.CreatedAt, string(p.State), p.ReadCount, p.ReadingTime, p.Body)
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

const postColumns = `id, title, description, tags, author, created_at, state, read_count, reading_time, body`

// GetPost returns a post by id regardless of state.
func (s *Store) GetPost(id string) (Post, error) {
	return s.scanPost(s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
}

// GetPublishedPost returns a post by id only if it is published.
func (s *Store) GetPublishedPost(id string) (Post, error) {
	return s.scanPost(s.db.QueryRow(
		`SELECT `+postColumns+` FROM posts WHERE id = ? AND state = ?`, id, string(StatePublished)))
}

// ListPosts returns posts matching the filter, ordered by the filter's time
// field and paginated with the filter's page size.
func (s *Store) ListPosts(f PostFilter) ([]Post, error) {
	where := []string{"1=1"}
	var args []any
	if f.State != "" {
		where = append(where, "state = ?")
		args = append(args, string(f.State))
	}
	if f.Author != "" {
		where = append(where, "author = ?")
		args = append(args, f.Author)
	}
	if f.Title != "" {
		where = append(where, "instr(lower(title), lower(?)) > 0")
		args = append(args, f.Title)
	}
	if f.Tag != "" {
		where = append(where, "instr(lower(tags), lower(?)) > 0")
		args = append(args, f.Tag)
	}
	order := "DESC"
	if f.Ascending {
		order = "ASC"
	}
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := f.Page
	if page < 0 {
		page = 0
	}
	// Only one time column exists; the filter field name is accepted for
	// wire compatibility but always maps onto created_at.
	query := fmt.Sprintf(`SELECT %s FROM posts WHERE %s ORDER BY created_at %s LIMIT ? OFFSET ?`,
		postColumns, strings.Join(where, " AND "), order)
	args = append(args, perPage, page*perPage)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPostRow(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// UpdatePost overwrites the mutable content fields and the derived reading
// time of a post.
func (s *Store) UpdatePost(p Post) error {
	res, err := s.db.Exec(`UPDATE posts SET title = ?, description = ?, tags = ?, body = ?, reading_time = ? WHERE id = ?`,
		p.Title, p.Description, joinTags(p.Tags), p.Body, p.ReadingTime, p.ID)
	if err != nil {
		return err
	}
	return oneRowAffected(res)
}

// ToggleState flips a post between draft and published and returns the
// updated post.
func (s *Store) ToggleState(id string) (Post, error) {
	_, err := s.db.Exec(`UPDATE posts SET state = CASE state WHEN ? THEN ? ELSE ? END WHERE id = ?`,
		string(StateDraft), string(StatePublished), string(StateDraft), id)
	if err != nil {
		return Post{}, err
	}
	return s.GetPost(id)
}

// IncrementReadCount bumps read_count by one and rewrites reading_time in a
// single statement, so concurrent reads never lose an increment.
func (s *Store) IncrementReadCount(id string, readingTime int) error {
	res, err := s.db.Exec(`UPDATE posts SET read_count = read_count + 1, reading_time = ? WHERE id = ?`,
		readingTime, id)
	if err != nil {
		return err
	}
	return oneRowAffected(res)
}

// DeletePostByAuthor removes a post matched jointly on id and author.
// Returns ErrNotFound when no row matches, including when the post exists
// but belongs to someone else.
func (s *Store) DeletePostByAuthor(id, authorID string) error {
	res, err := s.db.Exec(`DELETE FROM posts WHERE id = ? AND author = ?`, id, authorID)
	if err != nil {
		return err
	}
	return oneRowAffected(res)
}

func oneRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanPost(row *sql.Row) (Post, error) {
	p, err := scanPostRow(row)
	if err == sql.ErrNoRows {
		return Post{}, ErrNotFound
	}
	return p, err
}

func scanPostRow(row rowScanner) (Post, error) {
	var p Post
	var tags, state string
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &tags, &p.Author, &p.CreatedAt, &state, &p.ReadCount, &p.ReadingTime, &p.Body); err != nil {
		return Post{}, err
	}
	p.Tags = parseTags(tags)
	p.State = PostState(state)
	return p, nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
