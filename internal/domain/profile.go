package domain

import (
	"errors"
	"time"

	"cv-studio/internal/model"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type OwnerKind string

const (
	Freelancer OwnerKind = "freelancer"
	Business   OwnerKind = "business"
)

func (k OwnerKind) Valid() bool { return k == Freelancer || k == Business }

// Profile is the persistent record of a freelancer or business. The CV is
// embedded in it and only changes on commit.
type Profile struct {
	OwnerID     uuid.UUID       `json:"owner_id"`
	Kind        OwnerKind       `json:"kind"`
	DisplayName string          `json:"display_name"`
	Title       string          `json:"title"`
	PhotoURL    string          `json:"photo_url,omitempty"`
	CV          *model.Document `json:"cv,omitempty"`
	CommittedAt *time.Time      `json:"committed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
