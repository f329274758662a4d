package inkwell

import "time"

// PostState is the publication state of a post. Posts start as drafts and
// move to published via an explicit toggle; no other states exist.
type PostState string

const (
	StateDraft     PostState = "draft"
	StatePublished PostState = "published"
)

// Valid reports whether s is one of the two known states.
func (s PostState) Valid() bool {
	return s == StateDraft || s == StatePublished
}

// User is an account record. PasswordHash is a bcrypt hash; the plaintext
// password is never stored.
type User struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"First_name"`
	LastName       string    `json:"Last_name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	DateRegistered time.Time `json:"Date_registered"`
}

// Post is the core content type stored in SQLite.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"timestamp"`
	State       PostState `json:"state"`
	ReadCount   int       `json:"read_count"`
	ReadingTime int       `json:"reading_time"`
	Body        string    `json:"body"`
}

// PostFilter selects and orders posts for list queries. Title and Tag are
// case-insensitive substring matches. Page is zero-indexed.
type PostFilter struct {
	Author    string
	Title     string
	Tag       string
	State     PostState
	TimeField string
	Ascending bool
	Page      int
	PerPage   int
}
