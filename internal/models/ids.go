package models

import "github.com/google/uuid"

// ContainsID reports whether id is in ids.
func ContainsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ToggleID removes id from ids when present and appends it otherwise.
// It returns the new slice and whether id is now a member.
func ToggleID(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, bool) {
	for i, v := range ids {
		if v == id {
			out := make([]uuid.UUID, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			return append(out, ids[i+1:]...), false
		}
	}
	return append(append([]uuid.UUID(nil), ids...), id), true
}

// RemoveID returns ids without any occurrence of id.
func RemoveID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// ToggleResult is returned by the follow and bookmark toggles.
type ToggleResult struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

// LikeResult is returned by the post and comment like toggles.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}
