package repository

import (
	"errors"

	"visionserver/internal/model"
)

// ErrSettingNotFound is returned for keys that were never written.
var ErrSettingNotFound = errors.New("setting not found")

// ResultRepository defines storage for finished capture results. The durable
// copy is the system of record; broadcast events are informational.
type ResultRepository interface {
	// Insert persists a result atomically and returns the store-assigned id.
	Insert(res *model.Result) (int64, error)

	GetByID(id int64) (*model.Result, error)
	GetRecent(limit int) ([]model.Result, error)
	CountByVerdict(verdict model.Verdict) (int, error)
}

// SettingsRepository defines durable key/value configuration storage.
type SettingsRepository interface {
	Get(key string) (string, error)
	Set(key, value, description string) error
	All() (map[string]string, error)
}
