package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"gamehub-api/internal/model"
	"gamehub-api/internal/repository"
	"gamehub-api/internal/role"
	"gamehub-api/internal/session"
	"gamehub-api/internal/upload"
	"gamehub-api/pkg/apierror"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account and session business logic.
type UserService struct {
	users    repository.UserRepository
	games    repository.GameRepository
	sessions session.Store
	saver    *upload.Saver
	now      func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, games repository.GameRepository, sessions session.Store, saver *upload.Saver) *UserService {
	return &UserService{
		users:    users,
		games:    games,
		sessions: sessions,
		saver:    saver,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput carries a self-service registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	// Role may be "player" or "developer"; registration cannot request
	// elevated roles. Empty defaults to player.
	Role string
	IP   string
}

// Register creates an account, promotes the first-ever account to owner,
// and starts a session.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	var details []apierror.FieldError
	if strings.TrimSpace(in.Username) == "" {
		details = append(details, apierror.FieldError{Field: "username", Message: "username is required"})
	}
	if strings.TrimSpace(in.Email) == "" {
		details = append(details, apierror.FieldError{Field: "email", Message: "email is required"})
	}
	if len(in.Password) < 8 {
		details = append(details, apierror.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}

	r := role.Player
	if in.Role != "" {
		parsed, err := role.Parse(in.Role)
		if err != nil || (parsed != role.Player && parsed != role.Developer) {
			details = append(details, apierror.FieldError{Field: "role", Message: "role must be player or developer"})
		} else {
			r = parsed
		}
	}
	if len(details) > 0 {
		return nil, "", apierror.ValidationError("invalid registration", details...)
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, "", apierror.Conflict("username is already taken")
	} else if err != repository.ErrNotFound {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	u := &model.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		Role:         r,
		Active:       true,
		LastLoginIP:  in.IP,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Register promotes the first account to owner inside a transaction.
	if err := s.users.Register(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.startSession(ctx, u)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[UserService] Registered %q as %s", u.Username, u.Role)
	return u, token, nil
}

// Login verifies credentials, records the login address and starts a
// session. Failures are reported uniformly so usernames cannot be probed.
func (s *UserService) Login(ctx context.Context, username, password, ip string) (*model.User, string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err == repository.ErrNotFound {
		return nil, "", apierror.Unauthorized("invalid username or password")
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", apierror.Unauthorized("invalid username or password")
	}
	if !u.Active {
		return nil, "", apierror.Forbidden("account is deactivated")
	}

	if err := s.users.UpdateLastLoginIP(ctx, u.ID, ip); err != nil {
		log.Printf("[UserService] Failed to record login ip for %q: %v", u.Username, err)
	}
	u.LastLoginIP = ip

	token, err := s.startSession(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Logout ends the session.
func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a session token to its account. The account is
// re-loaded from storage on every call so role and active changes take
// effect immediately.
func (s *UserService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	data, err := s.sessions.Get(ctx, token)
	if err == session.ErrSessionNotFound {
		return nil, apierror.Unauthorized("invalid or expired session")
	}
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, data.UserID)
	if err == repository.ErrNotFound {
		return nil, apierror.Unauthorized("account no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, apierror.Forbidden("account is deactivated")
	}
	return u, nil
}

// Profile is the user detail payload: the account plus, for developers
// and above, their games.
type Profile struct {
	User  *model.User   `json:"user"`
	Games []*model.Game `json:"games,omitempty"`
}

// Get returns an account. Visible to the account itself and to anyone
// who may edit it.
func (s *UserService) Get(ctx context.Context, actor *model.User, id int64) (*Profile, error) {
	u, err := s.users.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apierror.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	if !role.CanEditUser(actor.Role, actor.ID, u.Role, u.ID) {
		return nil, apierror.Forbidden("you may not view this profile")
	}

	p := &Profile{User: u}
	if u.Role.IsDeveloper() {
		games, err := s.games.ListByDeveloper(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		p.Games = games
	}
	return p, nil
}

// UserListing is the admin user listing payload.
type UserListing struct {
	Users []*model.User    `json:"users"`
	Stats *model.UserStats `json:"stats"`
}

// List returns accounts matching the filter plus aggregate stats.
// Admin-or-above only.
func (s *UserService) List(ctx context.Context, actor *model.User, f model.UserFilter) (*UserListing, error) {
	if !actor.Role.IsAdmin() {
		return nil, apierror.Forbidden("administrators only")
	}

	users, err := s.users.List(ctx, f)
	if err != nil {
		return nil, err
	}
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &UserListing{Users: users, Stats: stats}, nil
}

// CreateInput carries an admin-driven account creation request.
type CreateInput struct {
	Username string
	Email    string
	Password string
	Role     string
	Bio      string
}

// Create creates an account on behalf of an administrator. The role is
// restricted to what the actor may assign: the owner may assign any
// role, an admin only player and developer.
func (s *UserService) Create(ctx context.Context, actor *model.User, in CreateInput) (*model.User, error) {
	if !actor.Role.IsAdmin() {
		return nil, apierror.Forbidden("administrators only")
	}

	var details []apierror.FieldError
	if strings.TrimSpace(in.Username) == "" {
		details = append(details, apierror.FieldError{Field: "username", Message: "username is required"})
	}
	if len(in.Password) < 8 {
		details = append(details, apierror.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}

	r := role.Player
	if in.Role != "" {
		parsed, err := role.Parse(in.Role)
		if err != nil {
			details = append(details, apierror.FieldError{Field: "role", Message: "unknown role"})
		} else {
			r = parsed
		}
	}
	if len(details) > 0 {
		return nil, apierror.ValidationError("invalid user", details...)
	}

	if !role.CanAssign(actor.Role, r) {
		return nil, apierror.Forbidden("you may not assign this role")
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, apierror.Conflict("username is already taken")
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &model.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		Role:         r,
		Bio:          in.Bio,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	log.Printf("[UserService] %q created account %q with role %s", actor.Username, u.Username, u.Role)
	return u, nil
}

// UpdateInput carries an account edit. Nil fields are left unchanged.
type UpdateInput struct {
	Email  *string
	Bio    *string
	Role   *string
	Avatar *multipart.FileHeader
}

// Update edits an account within the capability rules: the owner edits
// anyone, admins edit players and developers, everyone edits themselves.
// Role changes are further restricted by what the actor may assign; a
// non-admin may never change their own role.
func (s *UserService) Update(ctx context.Context, actor *model.User, id int64, in UpdateInput) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apierror.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	if !role.CanEditUser(actor.Role, actor.ID, u.Role, u.ID) {
		return nil, apierror.Forbidden("you may not edit this user")
	}

	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}

	if in.Role != nil {
		newRole, err := role.Parse(*in.Role)
		if err != nil {
			return nil, apierror.ValidationError("invalid user",
				apierror.FieldError{Field: "role", Message: "unknown role"})
		}
		if newRole != u.Role {
			// Editing own account does not grant role control; the
			// assignment rules alone decide.
			if !role.CanAssign(actor.Role, newRole) {
				return nil, apierror.Forbidden("you may not assign this role")
			}
			// An admin may only reassign accounts currently at or below
			// developer; owners are unrestricted.
			if !actor.Role.IsOwner() && u.Role.IsAdmin() {
				return nil, apierror.Forbidden("you may not change this user's role")
			}
			u.Role = newRole
		}
	}

	if in.Avatar != nil {
		path, err := s.saver.Save(in.Avatar, upload.KindAvatar)
		if err != nil {
			return nil, uploadError("avatar", err)
		}
		if u.AvatarPath != "" {
			s.saver.Remove(u.AvatarPath)
		}
		u.AvatarPath = path
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ToggleActive flips the active flag. Admin-or-above only, within the
// edit capability rules; self-deactivation is always refused.
func (s *UserService) ToggleActive(ctx context.Context, actor *model.User, id int64) (*model.User, error) {
	if !actor.Role.IsAdmin() {
		return nil, apierror.Forbidden("administrators only")
	}
	if actor.ID == id {
		return nil, apierror.SelfActionDenied("you cannot deactivate yourself")
	}

	u, err := s.users.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apierror.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	if !role.CanEditUser(actor.Role, actor.ID, u.Role, u.ID) {
		return nil, apierror.Forbidden("you may not change this user")
	}

	u.Active = !u.Active
	if err := s.users.SetActive(ctx, u.ID, u.Active); err != nil {
		return nil, err
	}

	log.Printf("[UserService] %q set active=%v on %q", actor.Username, u.Active, u.Username)
	return u, nil
}

// Delete removes an account and its uploaded files. Dependent games,
// ratings and comments are removed by cascade. Self-deletion is always
// refused, owner included.
func (s *UserService) Delete(ctx context.Context, actor *model.User, id int64) error {
	if actor.ID == id {
		return apierror.SelfActionDenied("you cannot delete yourself")
	}
	if !actor.Role.IsAdmin() {
		return apierror.Forbidden("administrators only")
	}

	u, err := s.users.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return apierror.NotFound("user not found")
	}
	if err != nil {
		return err
	}

	if !role.CanDeleteUser(actor.Role, actor.ID, u.Role, u.ID) {
		return apierror.Forbidden("you may not delete this user")
	}

	// Collect file paths before the cascade removes the rows.
	games, err := s.games.ListByDeveloper(ctx, u.ID)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, u.ID); err != nil {
		return err
	}

	s.saver.Remove(u.AvatarPath)
	for _, g := range games {
		s.saver.Remove(g.HTMLPath)
		s.saver.Remove(g.ThumbnailPath)
	}

	log.Printf("[UserService] %q deleted account %q (%d games)", actor.Username, u.Username, len(games))
	return nil
}

func (s *UserService) startSession(ctx context.Context, u *model.User) (string, error) {
	token, err := s.sessions.Create(ctx, model.SessionData{
		UserID:   u.ID,
		Username: u.Username,
	})
	if err != nil {
		return "", apierror.InternalError("failed to start session")
	}
	return token, nil
}

// uploadError maps upload validation failures to field-level errors.
func uploadError(field string, err error) error {
	switch err {
	case upload.ErrExtension:
		return apierror.ValidationError("invalid file",
			apierror.FieldError{Field: field, Message: "file has a disallowed extension"})
	case upload.ErrTooLarge:
		return apierror.ValidationError("invalid file",
			apierror.FieldError{Field: field, Message: "file exceeds the size limit"})
	default:
		return err
	}
}
