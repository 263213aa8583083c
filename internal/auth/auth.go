package auth

import (
	"sync"
	"time"

	"github.com/merchdeck/merchdeck/pkg/events"
)

// Role is an ordered capability level. Higher roles satisfy
// requirements expressed as lower ones.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleUser       Role = "user"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRank = map[Role]int{
	RoleViewer:     0,
	RoleUser:       1,
	RoleManager:    2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// AtLeast reports whether r is equal to or above other in the role
// hierarchy. Unknown roles rank below viewer.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// Valid reports whether r is one of the known role values.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// User is the record the authentication collaborator supplies.
type User struct {
	ID          string
	DisplayName string
	Email       string
	PhotoURL    string
	Role        Role
	Permissions map[string]bool
}

// Has reports whether the user holds the given capability token.
func (u *User) Has(token string) bool {
	if u == nil {
		return false
	}
	return u.Permissions[token]
}

// HasAll reports whether the user holds every token in the set.
func (u *User) HasAll(tokens []string) bool {
	for _, tok := range tokens {
		if !u.Has(tok) {
			return false
		}
	}
	return true
}

// License is the state the licensing collaborator streams in.
type License struct {
	Valid      bool
	Level      string
	Features   map[string]bool
	Role       Role
	ExpiryDate *time.Time
}

// HasFeature reports whether the license unlocks the given feature id.
func (l License) HasFeature(id string) bool {
	return l.Features[id]
}

// Service owns the asynchronously loaded user and license state. The
// menu renders a loading placeholder until Initialized reports true.
type Service struct {
	mu          sync.RWMutex
	user        *User
	license     License
	initialized bool
	loading     bool
	bus         *events.EventBus
}

func NewService(bus *events.EventBus) *Service {
	return &Service{bus: bus}
}

// Load installs the resolved user and license. It is called once the
// permission fetch completes; before that Loading reports true.
func (s *Service) Load(user *User, lic License) {
	s.mu.Lock()
	s.user = user
	s.license = lic
	s.initialized = true
	s.loading = false
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type:   events.PermissionsLoaded,
			Source: "auth",
			Data:   map[string]interface{}{"user": user.ID},
		})
	}
}

// BeginLoading marks the permission fetch as in flight.
func (s *Service) BeginLoading() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
}

// UpdateLicense replaces the license state and notifies subscribers.
func (s *Service) UpdateLicense(lic License) {
	s.mu.Lock()
	s.license = lic
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type:   events.LicenseUpdated,
			Source: "auth",
			Data:   map[string]interface{}{"valid": lic.Valid, "level": lic.Level},
		})
	}
}

func (s *Service) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Service) License() License {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.license
}

func (s *Service) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// HasPermission reports whether the current user holds the token.
// False until the service is initialized.
func (s *Service) HasPermission(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized || s.user == nil {
		return false
	}
	return s.user.Has(token)
}
