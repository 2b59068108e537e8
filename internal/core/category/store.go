// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category

import "context"

// Repository defines persistence for categories.
type Repository interface {
	List(context context.Context, filter Filter) ([]*Category, error)
	FindByID(context context.Context, id int64) (*Category, error)
	Create(context context.Context, category *Category) error
	Update(context context.Context, category *Category) error
	SetActive(context context.Context, id int64, active bool) error
	Delete(context context.Context, id int64) error
}
