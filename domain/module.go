package domain

import (
	"context"
	"net/http"
)

var (
	ErrModuleNotFound = &DetailedError{
		IDField:         "MODULE_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Module not found",
		StatusCodeField: http.StatusNotFound,
		KindField:       KindDataValidation,
	}
	ErrModuleSeedFailed = &DetailedError{
		IDField:         "MODULE_SEED_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to seed module catalog",
		StatusCodeField: http.StatusInternalServerError,
		KindField:       KindDatabase,
	}
)

// Module is a functional area of the host application that permissions are granted on.
// The catalog is seeded at startup and never deleted.
type Module struct {
	ID        string `json:"module_id" gorm:"type:varchar(20);primary_key"`
	Name      string `json:"module_name" gorm:"type:varchar(100);not null"`
	CreatedAt int64  `json:"created_at" gorm:"autoCreateTime:milli"`
	UpdatedAt int64  `json:"updated_at" gorm:"autoUpdateTime:milli"`
}

type ModuleFilter struct {
	ID   *string  `json:"id,omitempty"`
	IDIn []string `json:"id_in,omitempty"`
	Name *string  `json:"name,omitempty"`
}

type ModuleUsecase interface {
	List(ctx context.Context) ([]*Module, error)
	GetByID(ctx context.Context, moduleID string) (*Module, error)
	Seed(ctx context.Context, catalog []*Module) (int, error)
}
