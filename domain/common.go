package domain

import "context"

type SQLModel struct {
	ID        string `json:"id" gorm:"type:varchar(36);primary_key"`
	CreatedAt int64  `json:"created_at" gorm:"autoCreateTime:milli"`
	UpdatedAt int64  `json:"updated_at" gorm:"autoUpdateTime:milli"`
}

type FindOneOption struct {
	Preloads []string `json:"preloads" form:"preloads"`
	Sort     []string `json:"sort" form:"sort"`
}

type FindManyOption struct {
	Preloads []string `json:"preloads" form:"preloads"`
	Sort     []string `json:"sort" form:"sort"`
	Limit    *int     `json:"limit" form:"limit"`
	Offset   *int     `json:"offset" form:"offset"`
}

type FindPageOption struct {
	Sort    []string `json:"sort" form:"sort"`
	Page    int      `json:"page" form:"page" default:"1"`
	PerPage int      `json:"per_page" form:"per_page" default:"10"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
}

func NewPagination(page, perPage int, totalItems int64) *Pagination {
	totalPages := int((totalItems + int64(perPage) - 1) / int64(perPage))
	return &Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalItems: totalItems,
	}
}

// TxManager scopes a unit of work to one database transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
