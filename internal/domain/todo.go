package domain

// RemoteTodo is one entry of the remote todo list. It is never persisted.
type RemoteTodo struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}
