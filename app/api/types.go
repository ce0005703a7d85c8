package api

import (
	"github.com/lysyi3m/timing-comb/app/database"
	"github.com/lysyi3m/timing-comb/app/profile"
	"github.com/lysyi3m/timing-comb/app/session"
)

type RegistryInterface interface {
	Create(opts session.CreateOptions) (*session.Session, error)
	Get(id string) (*session.Session, error)
	List() []*session.Session
	Count() int
	Delete(id string) error
}

var _ RegistryInterface = (*session.Registry)(nil)

type Handler struct {
	registry    RegistryInterface
	configCache *profile.ConfigCache
	eventRepo   database.EventRepository
}

type createSessionRequest struct {
	Profile      string               `json:"profile" binding:"required"`
	PageURL      string               `json:"page_url" binding:"required"`
	Capabilities session.Capabilities `json:"capabilities"`
}
