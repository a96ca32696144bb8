package actors

import (
	stdctx "context"

	"github.com/google/uuid"

	"newsroom/internal/database"
	"newsroom/internal/moderation"
	"newsroom/internal/models"
)

// populatePosts resolves the references each feed asks for with one batched
// lookup per referenced collection.
func populatePosts(ctx stdctx.Context, db database.DBAdapter, posts []*models.Post, with moderation.Populate) ([]*models.PostView, error) {
	views := make([]*models.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, models.NewPostView(p))
	}
	if len(posts) == 0 {
		return views, nil
	}

	var commentsByID map[uuid.UUID]*models.CommentView
	if with.Comments {
		var ids []uuid.UUID
		for _, p := range posts {
			ids = append(ids, p.Comments...)
		}
		comments, err := populateComments(ctx, db, ids)
		if err != nil {
			return nil, err
		}
		commentsByID = make(map[uuid.UUID]*models.CommentView, len(comments))
		for _, c := range comments {
			commentsByID[c.ID] = c
		}
	}

	var authors map[uuid.UUID]*models.UserSummary
	if with.Author {
		ids := make([]uuid.UUID, 0, len(posts))
		for _, p := range posts {
			ids = append(ids, p.AuthorID)
		}
		var err error
		if authors, err = userSummaries(ctx, db, ids); err != nil {
			return nil, err
		}
	}

	var categories map[uuid.UUID]*models.CategorySummary
	if with.Category {
		var ids []uuid.UUID
		for _, p := range posts {
			if p.CategoryID != nil {
				ids = append(ids, *p.CategoryID)
			}
		}
		if len(ids) > 0 {
			list, err := db.GetCategoriesByIDs(ctx, uniqueIDs(ids))
			if err != nil {
				return nil, err
			}
			categories = make(map[uuid.UUID]*models.CategorySummary, len(list))
			for _, c := range list {
				categories[c.ID] = c.Summary()
			}
		}
	}

	for _, v := range views {
		if with.Author {
			v.Author = authors[v.AuthorID]
		}
		if with.Category && v.CategoryID != nil {
			v.Category = categories[*v.CategoryID]
		}
		if with.Comments {
			v.Comments = make([]*models.CommentView, 0, len(v.Post.Comments))
			for _, id := range v.Post.Comments {
				if c, ok := commentsByID[id]; ok {
					v.Comments = append(v.Comments, c)
				}
			}
		}
	}
	return views, nil
}

// populateComments loads comments by id with their authors, newest first.
func populateComments(ctx stdctx.Context, db database.DBAdapter, ids []uuid.UUID) ([]*models.CommentView, error) {
	if len(ids) == 0 {
		return []*models.CommentView{}, nil
	}
	comments, err := db.GetCommentsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return commentViews(ctx, db, comments)
}

func commentViews(ctx stdctx.Context, db database.DBAdapter, comments []*models.Comment) ([]*models.CommentView, error) {
	views := make([]*models.CommentView, 0, len(comments))
	if len(comments) == 0 {
		return views, nil
	}
	ids := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	authors, err := userSummaries(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		v := models.NewCommentView(c)
		v.Author = authors[c.AuthorID]
		views = append(views, v)
	}
	return views, nil
}

func userSummaries(ctx stdctx.Context, db database.DBAdapter, ids []uuid.UUID) (map[uuid.UUID]*models.UserSummary, error) {
	users, err := db.GetUsersByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*models.UserSummary, len(users))
	for _, u := range users {
		out[u.ID] = u.Summary()
	}
	return out, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
