package schema

// TaskTable represents the 'tasks' table
type TaskTable struct {
	Table       string
	ID          string
	Title       string
	Description string
	StartDate   string
	EndDate     string
	Status      string
	CreatorID   string
	ExecutorID  string
	CategoryID  string
	CreatedAt   string
	UpdatedAt   string
}

// Task is the schema definition for tasks
var Task = TaskTable{
	Table:       "tasks",
	ID:          "id",
	Title:       "title",
	Description: "description",
	StartDate:   "start_date",
	EndDate:     "end_date",
	Status:      "status",
	CreatorID:   "creator_id",
	ExecutorID:  "executor_id",
	CategoryID:  "category_id",
	CreatedAt:   "created_at",
	UpdatedAt:   "updated_at",
}

// Columns returns all standard column names
func (t TaskTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Description, t.StartDate, t.EndDate, t.Status,
		t.CreatorID, t.ExecutorID, t.CategoryID, t.CreatedAt, t.UpdatedAt,
	}
}
