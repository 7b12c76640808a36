package todo

import "time"

// Todo 表示一条待办记录。
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// User owns todos. Without real authentication a single fallback user is
// resolved lazily; see store.OwnerResolver.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Summary is the todo projection returned by list_todos and embedded in tool
// outputs.
type Summary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Filter 约束 list 查询的范围。
type Filter string

const (
	FilterAll        Filter = "all"
	FilterCompleted  Filter = "completed"
	FilterIncomplete Filter = "incomplete"
)

// Valid reports whether f is a known filter value.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterCompleted, FilterIncomplete:
		return true
	}
	return false
}

// Summarize projects a Todo into its list entry.
func (t Todo) Summarize() Summary {
	return Summary{ID: t.ID, Title: t.Title, Completed: t.Completed}
}
