package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/database"
	"storefront/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyCredentials   = errors.New("username and password cannot be empty")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Store keeps registered users in memory and writes them through to the database.
// Purchases appended by a commit stay pending until PersistUsers.
type Store struct {
	db      *sqlx.DB
	log     *zap.Logger
	cost    int
	users   map[string]*model.User
	pending []model.PurchaseRecord
}

// Load reads all users and their purchase history.
func Load(db *sqlx.DB, log *zap.Logger, bcryptCost int) (*Store, error) {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	users, err := database.GetAllUsers(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	s := &Store{db: db, log: log, cost: bcryptCost, users: make(map[string]*model.User, len(users))}
	for _, u := range users {
		s.users[u.Username] = u
	}
	log.Info("users loaded", zap.Int("users", len(s.users)))
	return s, nil
}

// Register creates a user. The username is trimmed; the password is taken as is.
func (s *Store) Register(username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}
	if _, ok := s.users[username]; ok {
		return nil, ErrUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &model.User{ID: uuid.NewString(), Username: username, PasswordHash: string(hash)}
	if err := database.InsertUser(s.db, u); err != nil {
		return nil, err
	}
	s.users[username] = u
	s.log.Info("user registered", zap.String("username", username))
	return u, nil
}

// Authenticate checks the password of a registered user.
func (s *Store) Authenticate(username, password string) (*model.User, error) {
	u, ok := s.users[strings.TrimSpace(username)]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Store) FindByUsername(username string) (*model.User, bool) {
	u, ok := s.users[username]
	return u, ok
}

// AppendPurchase adds rec to the user's history and queues it for PersistUsers.
func (s *Store) AppendPurchase(user *model.User, rec model.PurchaseRecord) {
	user.Purchases = append(user.Purchases, rec)
	s.pending = append(s.pending, rec)
}

// PersistUsers writes queued purchases in one transaction. On failure they stay
// queued and are retried by the next call.
func (s *Store) PersistUsers(ctx context.Context) (err error) {
	if len(s.pending) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin user transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, rec := range s.pending {
		if err = database.InsertPurchaseInTx(tx, rec); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit users: %w", err)
	}
	s.log.Debug("purchases persisted", zap.Int("records", len(s.pending)))
	s.pending = nil
	return nil
}
