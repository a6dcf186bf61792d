package domain

import (
	"context"
	"time"
)

// Lookups return (nil, nil) when the row does not exist. Mutations of a missing
// row return the matching *NotFound error.

// UserRepository persists user profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, user User) error
	ListUsers(ctx context.Context) ([]User, error)
}

// ActivityRepository persists daily activities.
type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity Activity) error
	UpdateActivity(ctx context.Context, activity Activity) error
	GetActivity(ctx context.Context, id string) (*Activity, error)
	GetActivityByDate(ctx context.Context, userID string, date time.Time) (*Activity, error)
	ListActivitiesByUser(ctx context.Context, userID string) ([]Activity, error)
	ListRecentActivities(ctx context.Context, cursor *Cursor, limit int) ([]ActivityWithOwner, *Cursor, error)
	DeleteActivity(ctx context.Context, id string) error
}

// IdentifierRepository reads and removes issued GenIDs. Issuance lives in the identifier package.
type IdentifierRepository interface {
	GetIdentifierByUser(ctx context.Context, userID string) (*Identifier, error)
	ListIdentifiers(ctx context.Context) ([]IdentifierWithOwner, error)
	DeleteIdentifier(ctx context.Context, id string) (*Identifier, error)
}

// ProfileCache stores rendered public profiles keyed by user id.
type ProfileCache interface {
	GetProfile(ctx context.Context, userID string) (*PublicProfile, error)
	PutProfile(ctx context.Context, profile PublicProfile) error
	Invalidate(ctx context.Context, userID string) error
}
