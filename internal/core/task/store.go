// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package task

import "context"

// Repository defines persistence for tasks.
//
// Assign and ChangeStatus are conditional writes: they report false when the
// stored row no longer matches the expected state.
type Repository interface {
	Create(context context.Context, task *Task) error
	FindByID(context context.Context, id int64) (*Task, error)
	List(context context.Context, query Query) ([]*Task, int, error)
	Update(context context.Context, task *Task) error
	Assign(context context.Context, id, executorID int64) (bool, error)
	ChangeStatus(context context.Context, id int64, from, to Status, releaseExecutor bool) (bool, error)
	Delete(context context.Context, id int64) error
	CountByCreator(context context.Context, creatorID int64) (map[Status]int, error)
	CountByExecutor(context context.Context, executorID int64) (map[Status]int, error)
	CountOpenUnassigned(context context.Context) (int, error)
}
