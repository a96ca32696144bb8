package actors

import (
	"net/mail"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"newsroom/internal/models"
	"newsroom/internal/utils"
)

// Message types for identity and social graph operations
type (
	RegisterUserMsg struct {
		FullName string
		Username string
		Email    string
		Password string
	}

	// LoginMsg verifies credentials and responds with the account.
	LoginMsg struct {
		Email    string
		Password string
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID
	}

	UpdateProfileMsg struct {
		Caller *models.Caller
		Update models.ProfileUpdate
	}

	FollowMsg struct {
		Caller   *models.Caller
		TargetID uuid.UUID
	}

	IsFollowingMsg struct {
		Caller   *models.Caller
		TargetID uuid.UUID
	}

	// GetFollowsMsg lists followers, or the followed accounts when Following is set.
	GetFollowsMsg struct {
		UserID    uuid.UUID
		Following bool
	}

	BookmarkMsg struct {
		Caller *models.Caller
		PostID uuid.UUID
	}

	// passivateMsg is sent by an idle UserActor to its supervisor.
	passivateMsg struct {
		userID uuid.UUID
		pid    *actor.PID
	}
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// generateHash is swapped out by tests.
var generateHash = bcrypt.GenerateFromPassword

// UserSupervisor answers identity reads itself and forwards each caller's
// mutations to a per-account UserActor so they apply in order.
type UserSupervisor struct {
	base
	adminEmails map[string]bool
	userActors  map[uuid.UUID]*actor.PID
}

func NewUserSupervisor(deps Deps, adminEmails []string) actor.Actor {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = true
	}
	return &UserSupervisor{
		base:        newBase(deps),
		adminEmails: admins,
		userActors:  make(map[uuid.UUID]*actor.PID),
	}
}

func (s *UserSupervisor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *RegisterUserMsg:
		s.handleRegister(context, msg)
	case *LoginMsg:
		s.handleLogin(context, msg)
	case *GetUserProfileMsg:
		start := time.Now()
		ctx, cancel := s.opContext()
		defer cancel()
		user, err := s.DB.GetUser(ctx, msg.UserID)
		s.reply(context, "get_user", start, user, err)
	case *IsFollowingMsg:
		s.handleIsFollowing(context, msg)
	case *GetFollowsMsg:
		s.handleGetFollows(context, msg)
	case *UpdateProfileMsg:
		s.forward(context, msg.Caller)
	case *FollowMsg:
		s.forward(context, msg.Caller)
	case *BookmarkMsg:
		s.forward(context, msg.Caller)
	case *passivateMsg:
		// Poison lets messages already forwarded to the actor drain first.
		if pid, ok := s.userActors[msg.userID]; ok && pid.Equal(msg.pid) {
			delete(s.userActors, msg.userID)
			s.Metrics.SetUserActors(len(s.userActors))
			context.Poison(pid)
		}
	case *actor.Terminated:
		for id, pid := range s.userActors {
			if pid.Equal(msg.Who) {
				delete(s.userActors, id)
			}
		}
		s.Metrics.SetUserActors(len(s.userActors))
	default:
		logUnhandled("UserSupervisor", msg)
	}
}

// forward hands the current message to the caller's UserActor, keeping the original sender.
func (s *UserSupervisor) forward(context actor.Context, caller *models.Caller) {
	if err := requireCaller(caller); err != nil {
		s.reply(context, "forward", time.Now(), nil, err)
		return
	}
	pid, ok := s.userActors[caller.ID]
	if !ok {
		deps := s.Deps
		userID := caller.ID
		pid = context.Spawn(actor.PropsFromProducer(func() actor.Actor {
			return NewUserActor(userID, deps)
		}))
		s.userActors[caller.ID] = pid
		s.Metrics.SetUserActors(len(s.userActors))
	}
	context.Forward(pid)
}

func (s *UserSupervisor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	start := time.Now()
	user, err := s.register(msg)
	s.reply(context, "register_user", start, user, err)
}

func (s *UserSupervisor) register(msg *RegisterUserMsg) (*models.User, error) {
	email := normalizeEmail(msg.Email)
	username := strings.TrimSpace(msg.Username)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, utils.NewInvalidInputError("A valid email is required")
	}
	if len(username) < 3 || len(username) > 32 {
		return nil, utils.NewInvalidInputError("Username must be 3 to 32 characters")
	}
	if len(msg.Password) < 6 {
		return nil, utils.NewInvalidInputError("Password must be at least 6 characters")
	}
	if len(msg.Password) > maxPasswordBytes {
		return nil, utils.NewInvalidInputError("Password must be at most 72 bytes")
	}

	ctx, cancel := s.opContext()
	defer cancel()

	if existing, err := s.DB.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil)
	} else if err != nil && !utils.IsErrorCode(err, utils.ErrNotFound) {
		return nil, err
	}

	hashed, err := hashPassword(msg.Password)
	if err != nil {
		return nil, utils.NewInternalError("Failed to hash password", err)
	}

	role := models.RoleUser
	if s.adminEmails[email] {
		role = models.RoleAdmin
	}
	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		FullName:     strings.TrimSpace(msg.FullName),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		Following:    []uuid.UUID{},
		Followers:    []uuid.UUID{},
		Bookmarks:    []uuid.UUID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserSupervisor) handleLogin(context actor.Context, msg *LoginMsg) {
	start := time.Now()
	ctx, cancel := s.opContext()
	defer cancel()

	user, err := s.DB.GetUserByEmail(ctx, normalizeEmail(msg.Email))
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			err = utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
		}
		s.reply(context, "login", start, nil, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(msg.Password)); err != nil {
		s.reply(context, "login", start, nil, utils.NewAppError(utils.ErrInvalidCredentials, "Invalid credentials", nil))
		return
	}
	s.reply(context, "login", start, user, nil)
}

func (s *UserSupervisor) handleIsFollowing(context actor.Context, msg *IsFollowingMsg) {
	start := time.Now()
	if err := requireCaller(msg.Caller); err != nil {
		s.reply(context, "is_following", start, nil, err)
		return
	}
	ctx, cancel := s.opContext()
	defer cancel()
	if _, err := s.DB.GetUser(ctx, msg.TargetID); err != nil {
		s.reply(context, "is_following", start, nil, err)
		return
	}
	me, err := s.DB.GetUser(ctx, msg.Caller.ID)
	if err != nil {
		s.reply(context, "is_following", start, nil, err)
		return
	}
	s.reply(context, "is_following", start, me.IsFollowing(msg.TargetID), nil)
}

func (s *UserSupervisor) handleGetFollows(context actor.Context, msg *GetFollowsMsg) {
	start := time.Now()
	ctx, cancel := s.opContext()
	defer cancel()

	user, err := s.DB.GetUser(ctx, msg.UserID)
	if err != nil {
		s.reply(context, "get_follows", start, nil, err)
		return
	}
	ids := user.Followers
	if msg.Following {
		ids = user.Following
	}
	users, err := s.DB.GetUsersByIDs(ctx, ids)
	if err != nil {
		s.reply(context, "get_follows", start, nil, err)
		return
	}
	out := make([]*models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	s.reply(context, "get_follows", start, out, nil)
}

// UserActor applies one account's profile, follow and bookmark mutations.
// After IdleTimeout without messages it asks its supervisor to retire it.
type UserActor struct {
	base
	userID uuid.UUID
}

func NewUserActor(id uuid.UUID, deps Deps) *UserActor {
	return &UserActor{base: newBase(deps), userID: id}
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *UpdateProfileMsg:
		a.handleUpdateProfile(context, msg)
	case *FollowMsg:
		a.handleFollow(context, msg)
	case *BookmarkMsg:
		a.handleBookmark(context, msg)
	case *actor.Started:
		context.SetReceiveTimeout(a.IdleTimeout)
	case *actor.ReceiveTimeout:
		context.CancelReceiveTimeout()
		context.Send(context.Parent(), &passivateMsg{userID: a.userID, pid: context.Self()})
	default:
		logUnhandled("UserActor", msg)
	}
}

func (a *UserActor) handleUpdateProfile(context actor.Context, msg *UpdateProfileMsg) {
	start := time.Now()
	update, err := normalizeProfileUpdate(msg.Update)
	if err != nil {
		a.reply(context, "update_profile", start, nil, err)
		return
	}
	ctx, cancel := a.opContext()
	defer cancel()
	if update.Empty() {
		user, err := a.DB.GetUser(ctx, a.userID)
		a.reply(context, "update_profile", start, user, err)
		return
	}
	user, err := a.DB.UpdateUserProfile(ctx, a.userID, update)
	a.reply(context, "update_profile", start, user, err)
}

func normalizeProfileUpdate(u models.ProfileUpdate) (models.ProfileUpdate, error) {
	if u.Email != nil {
		email := normalizeEmail(*u.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return u, utils.NewInvalidInputError("A valid email is required")
		}
		u.Email = &email
	}
	if u.Username != nil {
		username := strings.TrimSpace(*u.Username)
		if len(username) < 3 || len(username) > 32 {
			return u, utils.NewInvalidInputError("Username must be 3 to 32 characters")
		}
		u.Username = &username
	}
	if u.FullName != nil {
		name := strings.TrimSpace(*u.FullName)
		u.FullName = &name
	}
	return u, nil
}

func (a *UserActor) handleFollow(context actor.Context, msg *FollowMsg) {
	start := time.Now()
	if msg.TargetID == a.userID {
		a.reply(context, "follow", start, nil, utils.NewAppError(utils.ErrSelfFollow, "You cannot follow yourself", nil))
		return
	}
	ctx, cancel := a.opContext()
	defer cancel()

	following, err := a.DB.ToggleFollow(ctx, a.userID, msg.TargetID)
	if err != nil {
		a.reply(context, "follow", start, nil, err)
		return
	}
	target, err := a.DB.GetUser(ctx, msg.TargetID)
	if err != nil {
		a.reply(context, "follow", start, nil, err)
		return
	}
	a.reply(context, "follow", start, &models.ToggleResult{Active: following, Count: len(target.Followers)}, nil)
}

func (a *UserActor) handleBookmark(context actor.Context, msg *BookmarkMsg) {
	start := time.Now()
	ctx, cancel := a.opContext()
	defer cancel()

	if _, err := a.DB.GetPost(ctx, msg.PostID); err != nil {
		a.reply(context, "bookmark", start, nil, err)
		return
	}
	active, err := a.DB.ToggleBookmark(ctx, a.userID, msg.PostID)
	if err != nil {
		a.reply(context, "bookmark", start, nil, err)
		return
	}
	user, err := a.DB.GetUser(ctx, a.userID)
	if err != nil {
		a.reply(context, "bookmark", start, nil, err)
		return
	}
	a.reply(context, "bookmark", start, &models.ToggleResult{Active: active, Count: len(user.Bookmarks)}, nil)
}

func hashPassword(password string) (string, error) {
	bytes, err := generateHash([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
