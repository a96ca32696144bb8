package actors

import (
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"newsroom/internal/events"
	"newsroom/internal/models"
	"newsroom/internal/utils"
)

// Message types for administration
type (
	GetStatsMsg struct {
		Caller *models.Caller
	}

	ListUsersMsg struct {
		Caller *models.Caller
	}

	SetUserRoleMsg struct {
		Caller *models.Caller
		UserID uuid.UUID
		Role   models.Role
	}

	DeleteUserMsg struct {
		Caller *models.Caller
		UserID uuid.UUID
	}

	// ListCategoriesMsg is public.
	ListCategoriesMsg struct{}

	CreateCategoryMsg struct {
		Caller      *models.Caller
		Name        string
		Slug        string
		Description string
		Color       string
	}

	UpdateCategoryMsg struct {
		Caller     *models.Caller
		CategoryID uuid.UUID
		Update     models.CategoryUpdate
	}

	DeleteCategoryMsg struct {
		Caller     *models.Caller
		CategoryID uuid.UUID
	}

	// ListBannersMsg is public.
	ListBannersMsg struct {
		ActiveOnly bool
	}

	CreateBannerMsg struct {
		Caller   *models.Caller
		Title    string
		Subtitle string
		Link     string
		Image    string
		Position models.BannerPosition
		IsActive *bool
	}

	UpdateBannerMsg struct {
		Caller   *models.Caller
		BannerID uuid.UUID
		Update   models.BannerUpdate
	}

	DeleteBannerMsg struct {
		Caller   *models.Caller
		BannerID uuid.UUID
	}
)

// AdminActor handles statistics, account administration, categories and banners.
type AdminActor struct {
	base
}

func NewAdminActor(deps Deps) actor.Actor {
	return &AdminActor{base: newBase(deps)}
}

func (a *AdminActor) Receive(context actor.Context) {
	start := time.Now()
	switch msg := context.Message().(type) {
	case *GetStatsMsg:
		stats, err := a.stats(msg)
		a.reply(context, "admin_stats", start, stats, err)
	case *ListUsersMsg:
		users, err := a.listUsers(msg)
		a.reply(context, "admin_list_users", start, users, err)
	case *SetUserRoleMsg:
		user, err := a.setRole(context, msg)
		a.reply(context, "admin_set_role", start, user, err)
	case *DeleteUserMsg:
		err := a.deleteUser(context, msg)
		a.reply(context, "admin_delete_user", start, err == nil, err)
	case *ListCategoriesMsg:
		ctx, cancel := a.opContext()
		defer cancel()
		categories, err := a.DB.ListCategories(ctx)
		a.reply(context, "list_categories", start, categories, err)
	case *CreateCategoryMsg:
		category, err := a.createCategory(context, msg)
		a.reply(context, "create_category", start, category, err)
	case *UpdateCategoryMsg:
		category, err := a.updateCategory(context, msg)
		a.reply(context, "update_category", start, category, err)
	case *DeleteCategoryMsg:
		err := a.deleteCategory(context, msg)
		a.reply(context, "delete_category", start, err == nil, err)
	case *ListBannersMsg:
		ctx, cancel := a.opContext()
		defer cancel()
		banners, err := a.DB.ListBanners(ctx, msg.ActiveOnly)
		a.reply(context, "list_banners", start, banners, err)
	case *CreateBannerMsg:
		banner, err := a.createBanner(context, msg)
		a.reply(context, "create_banner", start, banner, err)
	case *UpdateBannerMsg:
		banner, err := a.updateBanner(context, msg)
		a.reply(context, "update_banner", start, banner, err)
	case *DeleteBannerMsg:
		err := a.deleteBanner(context, msg)
		a.reply(context, "delete_banner", start, err == nil, err)
	default:
		logUnhandled("AdminActor", msg)
	}
}

func (a *AdminActor) stats(msg *GetStatsMsg) (*models.Stats, error) {
	if err := requireAdmin(msg.Caller); err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext()
	defer cancel()

	var stats models.Stats
	var err error
	if stats.Users, err = a.DB.CountUsers(ctx); err != nil {
		return nil, err
	}
	if stats.Posts, err = a.DB.CountPosts(ctx, nil); err != nil {
		return nil, err
	}
	if stats.Comments, err = a.DB.CountComments(ctx); err != nil {
		return nil, err
	}
	pending := false
	if stats.PendingPosts, err = a.DB.CountPosts(ctx, &pending); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (a *AdminActor) listUsers(msg *ListUsersMsg) ([]*models.User, error) {
	if err := requireAdmin(msg.Caller); err != nil {
		return nil, err
	}
	ctx, cancel := a.opContext()
	defer cancel()
	return a.DB.ListUsers(ctx)
}

func (a *AdminActor) setRole(context actor.Context, msg *SetUserRoleMsg) (*models.User, error) {
	if err := requireAdmin(msg.Caller); err != nil {
		return nil, err
	}
	if !msg.Role.Valid() {
		return nil, utils.NewInvalidInputError("Role must be user or admin")
	}
	ctx, cancel := a.opContext()
	defer cancel()
	user, err := a.DB.UpdateUserRole(ctx, msg.UserID, msg.Role)
	if err != nil {
		return nil, err
	}
	a.emit(context, events.New(events.UserRoleChanged, msg.Caller.ID, user.ID, map[string]string{"role": string(user.Role)}))
	return user, nil
}

func (a *AdminActor) deleteUser(context actor.Context, msg *DeleteUserMsg) error {
	if err := requireAdmin(msg.Caller); err != nil {
		return err
	}
	if msg.UserID == msg.Caller.ID {
		return utils.NewInvalidInputError("You cannot delete your own account")
	}
	ctx, cancel := a.opContext()
	defer cancel()
	if err := a.DB.DeleteUser(ctx, msg.UserID); err != nil {
		return err
	}
	a.emit(context, events.New(events.UserDeleted, msg.Caller.ID, msg.UserID, nil))
	return nil
}

func (a *AdminActor) createCategory(context actor.Context, msg *CreateCategoryMsg) (*models.Category, error) {
	if err := requireAdmin(msg.Caller); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		return nil, utils.NewInvalidInputError("Category name is required")
	}
	slug := models.Slugify(msg.Slug)
	if slug == "" {
		slug = models.Slugify(name)
	}
	if slug == "" {
		return nil, utils.NewInvalidInputError("Category slug cannot be derived from name")
	}
	color := strings.TrimSpace(msg.Color)
	if color == "" {
		color = models.RandomCategoryColor()
	}

	now := time.Now()
	category := &models.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(msg.Description),
		Color:       color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ctx, cancel := a.opContext()
	defer cancel()
	if err := a.DB.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	a.emit(context, events.New(events.CategoryCreated, msg.Caller.ID, category.ID, map[string]string{"name": name}))
	return category, nil
}

func (a *AdminActor) updateCategory(context actor.Context, msg *UpdateCategoryMsg) (*models.Category, error) {
	if err := requireAdmin(msg.Caller); err != nil {
		return nil, err
	}
	update := msg.Update
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, utils.NewInvalidInputError("Category name cannot be empty")
		}
		update.Name = &name
	}
	if update.Slug != nil {
		slug := models.Slugify(*update.Slug)
		if slug == "" {
			return nil, utils.NewInvalidInputError("Category slug cannot be empty")
		}
		update.Slug = &slug
	}
	ctx, cancel := a.opContext()
	defer cancel()
	if update.Empty() {
		return a.DB.GetCategory(ctx, msg.CategoryID)
	}
	category, err := a.DB.UpdateCategory(ctx, msg.CategoryID, update)
	if err != nil {
		return nil, err
	}
	a.emit(context, events.New(events.CategoryUpdated, msg.Caller.ID, category.ID, nil))
	return category, nil
}

func (a *AdminActor) deleteCategory(context actor.Context, msg *DeleteCategoryMsg) error {
	if err := requireAdmin(msg.Caller); err != nil {
		return err
	}
	ctx, cancel := a.opContext()
	defer cancel()
	if err := a.DB.DeleteCategory(ctx, msg.CategoryID); err != nil {
		return err
	}
	a.emit(context, events.New(events.CategoryDeleted, msg.Caller.ID, msg.CategoryID, nil))
	return nil
}

func (a *AdminActor) createBanner(context actor.Context, msg *CreateBannerMsg) (*models.Banner, error) {
	if err := requireAdmin(msg.Caller); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(msg.Title)
	if title == "" {
		return nil, utils.NewInvalidInputError("Banner title is required")
	}
	position := msg.Position
	if position == "" {
		position = models.PositionTop
	}
	if !position.Valid() {
		return nil, utils.NewInvalidInputError("Invalid banner position: " + string(position))
	}
	active := true
	if msg.IsActive != nil {
		active = *msg.IsActive
	}

	now := time.Now()
	banner := &models.Banner{
		ID:        uuid.New(),
		Title:     title,
		Subtitle:  strings.TrimSpace(msg.Subtitle),
		Link:      strings.TrimSpace(msg.Link),
		Image:     msg.Image,
		Position:  position,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ctx, cancel := a.opContext()
	defer cancel()
	if err := a.DB.CreateBanner(ctx, banner); err != nil {
		return nil, err
	}
	a.emit(context, events.New(events.BannerCreated, msg.Caller.ID, banner.ID, map[string]string{"position": string(position)}))
	return banner, nil
}

func (a *AdminActor) updateBanner(context actor.Context, msg *UpdateBannerMsg) (*models.Banner, error) {
	if err := requireAdmin(msg.Caller); err != nil {
		return nil, err
	}
	update := msg.Update
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, utils.NewInvalidInputError("Banner title cannot be empty")
		}
		update.Title = &title
	}
	if update.Position != nil && !update.Position.Valid() {
		return nil, utils.NewInvalidInputError("Invalid banner position: " + string(*update.Position))
	}
	ctx, cancel := a.opContext()
	defer cancel()
	if update.Empty() {
		return a.DB.GetBanner(ctx, msg.BannerID)
	}
	banner, err := a.DB.UpdateBanner(ctx, msg.BannerID, update)
	if err != nil {
		return nil, err
	}
	a.emit(context, events.New(events.BannerUpdated, msg.Caller.ID, banner.ID, nil))
	return banner, nil
}

func (a *AdminActor) deleteBanner(context actor.Context, msg *DeleteBannerMsg) error {
	if err := requireAdmin(msg.Caller); err != nil {
		return err
	}
	ctx, cancel := a.opContext()
	defer cancel()
	if err := a.DB.DeleteBanner(ctx, msg.BannerID); err != nil {
		return err
	}
	a.emit(context, events.New(events.BannerDeleted, msg.Caller.ID, msg.BannerID, nil))
	return nil
}
