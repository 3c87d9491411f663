// Package users manages the user records document and password
// verification. All records live in one JSON document with its own revision;
// user ids are unique case-insensitively.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mkalinins/dashvault/internal/authz"
	"github.com/mkalinins/dashvault/internal/common"
	"github.com/mkalinins/dashvault/internal/docstore"
	"github.com/mkalinins/dashvault/internal/logging"
	"github.com/mkalinins/dashvault/internal/password"
)

// User is one record in the users document. PasswordHash is opaque and
// self-describing (see the password package).
type User struct {
	UserID       string     `json:"userId"`
	Role         authz.Role `json:"role"`
	PasswordHash string     `json:"passwordHash"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type usersDocument struct {
	Users []User `json:"users"`
}

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._@-]{2,64}$`)

// Service implements user administration and authentication over the
// document store.
type Service struct {
	store  *docstore.Store
	hasher *password.Hasher
	path   string
	logger logging.Logger

	// dummyHash is verified against when the user does not exist, keeping
	// the response time of Authenticate independent of account existence.
	dummyHash string
}

func NewService(store *docstore.Store, hasher *password.Hasher, path string, logger logging.Logger) *Service {
	dummyHash, err := hasher.Hash("dashvault-timing-pad")
	if err != nil {
		dummyHash = ""
	}
	return &Service{
		store:     store,
		hasher:    hasher,
		path:      path,
		logger:    logger.With("component", "users"),
		dummyHash: dummyHash,
	}
}

func decodeUsers(content []byte) ([]User, error) {
	var doc usersDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("decode users document: %w", err)
	}
	return doc.Users, nil
}

func encodeUsers(users []User) ([]byte, error) {
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].UserID) < strings.ToLower(users[j].UserID)
	})
	return json.MarshalIndent(usersDocument{Users: users}, "", "  ")
}

func findUser(users []User, userID string) int {
	for i := range users {
		if strings.EqualFold(users[i].UserID, userID) {
			return i
		}
	}
	return -1
}

// List returns every user record. A missing users document reads as empty.
func (s *Service) List(ctx context.Context) ([]User, error) {
	content, _, err := s.store.Read(ctx, s.path)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeUsers(content)
}

// Upsert creates or updates a user record. plainPassword is required when
// creating; when updating it is optional and an empty value keeps the stored
// hash. The password is hashed once up front so CAS retries do not redo the
// slow derivation.
func (s *Service) Upsert(ctx context.Context, userID string, role authz.Role, plainPassword string) (*User, error) {
	userID = strings.TrimSpace(userID)
	if !userIDPattern.MatchString(userID) {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, common.ErrValidation)
	}
	if _, ok := authz.ParseRole(string(role)); !ok {
		return nil, fmt.Errorf("invalid role %q: %w", role, common.ErrValidation)
	}

	var hash string
	if plainPassword != "" {
		var err error
		if hash, err = s.hasher.Hash(plainPassword); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	now := time.Now().UTC()
	var result User
	_, err := s.store.Update(ctx, s.path, "Update user "+userID, func(current []byte, exists bool) ([]byte, error) {
		var users []User
		if exists {
			var err error
			if users, err = decodeUsers(current); err != nil {
				return nil, err
			}
		}

		if i := findUser(users, userID); i >= 0 {
			users[i].Role = role
			if hash != "" {
				users[i].PasswordHash = hash
			}
			users[i].UpdatedAt = now
			result = users[i]
		} else {
			if hash == "" {
				return nil, fmt.Errorf("password required for new user %q: %w", userID, common.ErrValidation)
			}
			result = User{
				UserID:       userID,
				Role:         role,
				PasswordHash: hash,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			users = append(users, result)
		}
		return encodeUsers(users)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes a user record; a user that does not exist is reported as
// common.ErrNotFound.
func (s *Service) Delete(ctx context.Context, userID string) error {
	_, err := s.store.Update(ctx, s.path, "Delete user "+userID, func(current []byte, exists bool) ([]byte, error) {
		if !exists {
			return nil, fmt.Errorf("user %q: %w", userID, common.ErrNotFound)
		}
		users, err := decodeUsers(current)
		if err != nil {
			return nil, err
		}
		i := findUser(users, userID)
		if i < 0 {
			return nil, fmt.Errorf("user %q: %w", userID, common.ErrNotFound)
		}
		return encodeUsers(append(users[:i], users[i+1:]...))
	})
	return err
}

// Authenticate verifies a userId/password pair. Unknown users and wrong
// passwords both collapse to common.ErrUnauthorized so callers cannot
// enumerate accounts.
func (s *Service) Authenticate(ctx context.Context, userID, plainPassword string) (*User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	i := findUser(users, userID)
	if i < 0 {
		s.hasher.Verify(plainPassword, s.dummyHash)
		return nil, common.ErrUnauthorized
	}
	if !s.hasher.Verify(plainPassword, users[i].PasswordHash) {
		return nil, common.ErrUnauthorized
	}

	user := users[i]
	return &user, nil
}

// EnsureBootstrapAdmin creates the configured admin record if it does not
// exist yet. An existing record is never overwritten, so a rotated bootstrap
// password does not clobber one set through the API.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, userID, plainPassword string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" || plainPassword == "" {
		return nil
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.store.Update(ctx, s.path, "Bootstrap admin "+userID, func(current []byte, exists bool) ([]byte, error) {
		var users []User
		if exists {
			var err error
			if users, err = decodeUsers(current); err != nil {
				return nil, err
			}
		}
		if findUser(users, userID) >= 0 {
			return nil, docstore.ErrNoChange
		}
		users = append(users, User{
			UserID:       userID,
			Role:         authz.RoleAdmin,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		s.logger.Info(ctx, "bootstrapping admin user", "userId", userID)
		return encodeUsers(users)
	})
	return err
}
