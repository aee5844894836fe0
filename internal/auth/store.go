package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrWrongPassword = errors.New("wrong password")
	ErrEmailTaken    = errors.New("email already registered")
	ErrNotLoggedIn   = errors.New("no active session")
)

type userRecord struct {
	domain.Profile
	PasswordHash string `json:"password_hash"`
}

type storeData struct {
	Users   []userRecord    `json:"users"`
	Session *domain.Profile `json:"session,omitempty"`
}

// Store is the identity and session store, persisted as a single JSON file
// the way the browser app used local storage. Passwords are stored as
// bcrypt hashes.
type Store struct {
	filePath string
	mu       sync.Mutex
	data     *storeData
}

// NewStore opens (or creates) the store at the given path.
func NewStore(filePath string) (*Store, error) {
	s := &Store{
		filePath: filePath,
		data:     &storeData{},
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load user store: %w", err)
	}
	return s, nil
}

func (s *Store) load() error {
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(s.data)
}

// save writes the store to disk. Caller holds the lock.
func (s *Store) save() error {
	file, err := os.Create(s.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s.data)
}

// Seed inserts the demo accounts if the store is empty.
func (s *Store) Seed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data.Users) > 0 {
		return nil
	}

	seeds := []struct {
		profile  domain.Profile
		password string
	}{
		{domain.Profile{ID: "client-1", Name: "Ana Cliente", Role: domain.RoleClient, Email: "ana@cliente.com", Location: &domain.Location{Lat: 19.4350, Lng: -99.1350}}, "password123"},
		{domain.Profile{ID: "business-1", Name: "Taquería El Pastor", Role: domain.RoleBusiness, Email: "elpastor@negocio.com", Location: &domain.Location{Lat: 19.4300, Lng: -99.1300}}, "password123"},
		{domain.Profile{ID: "delivery-1", Name: "Pedro Repartidor", Role: domain.RoleDelivery, Email: "pedro@repartidor.com", Location: &domain.Location{Lat: 19.4280, Lng: -99.1380}}, "password123"},
		{domain.Profile{ID: "admin-1", Name: "Super Admin", Role: domain.RoleAdmin, Email: "admin@pronto.com"}, "admin123"},
	}

	for _, seed := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}
		s.data.Users = append(s.data.Users, userRecord{Profile: seed.profile, PasswordHash: string(hash)})
	}

	zap.L().Info("seeded demo users", zap.Int("count", len(seeds)))
	return s.save()
}

// Login checks the credentials, opens a session and returns the profile.
// Email matching is case-insensitive.
func (s *Store) Login(email, password string) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.data.Users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
			return domain.Profile{}, ErrWrongPassword
		}
		profile := u.Profile
		s.data.Session = &profile
		if err := s.save(); err != nil {
			return domain.Profile{}, fmt.Errorf("failed to persist session: %w", err)
		}
		return profile, nil
	}
	return domain.Profile{}, ErrUserNotFound
}

// Register creates a user, opens a session and returns the profile.
func (s *Store) Register(name, email, password string, role domain.Role) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.data.Users {
		if strings.EqualFold(u.Email, email) {
			return domain.Profile{}, ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := domain.Profile{
		ID:    "user-" + uuid.NewString(),
		Name:  name,
		Email: email,
		Role:  role,
		// Default location, CDMX Zócalo.
		Location: &domain.Location{Lat: 19.4326, Lng: -99.1332},
	}
	s.data.Users = append(s.data.Users, userRecord{Profile: profile, PasswordHash: string(hash)})
	s.data.Session = &profile
	if err := s.save(); err != nil {
		return domain.Profile{}, fmt.Errorf("failed to persist user: %w", err)
	}
	return profile, nil
}

// Logout clears the session.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Session == nil {
		return nil
	}
	s.data.Session = nil
	return s.save()
}

// CurrentUser returns the logged-in profile, or ErrNotLoggedIn.
func (s *Store) CurrentUser() (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Session == nil {
		return domain.Profile{}, ErrNotLoggedIn
	}
	return *s.data.Session, nil
}
