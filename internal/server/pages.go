package server

import (
	"html/template"

	"github.com/Tomlord1122/taskboard/internal/domain"
)

const layoutPage = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{if .Refresh}}<meta http-equiv="refresh" content="1">{{end}}
</head>
<body>
<nav><a href="/">Task Board</a> | <a href="/todos">Todos</a></nav>
{{template "content" .}}
</body>
</html>{{end}}`

const boardPage = `{{define "content"}}<main>
<h1>Task Board</h1>
<form method="post" action="/tasks">
<input name="title" placeholder="Enter a task" value="{{.Input}}" onchange="fetch('/input',{method:'POST',body:new URLSearchParams({title:this.value})})">
<button type="submit">Add</button>
</form>
<ul>
{{range .Tasks}}<li data-id="{{.ID}}"><span>{{.Title}}</span>
<form method="post" action="/tasks/{{.ID}}/delete"><button type="submit">Delete</button></form></li>
{{end}}</ul>
</main>{{end}}`

const todosPage = `{{define "content"}}<main>
<h1>Todos</h1>
{{if .Loading}}<p>loading...</p>{{else}}<ul>
{{range .Todos}}<li data-id="{{.ID}}"><h2>{{todoLabel .}}</h2></li>
{{end}}</ul>{{end}}
</main>{{end}}`

type boardView struct {
	Title   string
	Refresh bool
	Input   string
	Tasks   []domain.Task
}

type todosView struct {
	Title   string
	Refresh bool
	Loading bool
	Todos   []domain.RemoteTodo
}

// todoLabel renders the title followed by the completion marker.
func todoLabel(t domain.RemoteTodo) string {
	if t.Completed {
		return t.Title + " Done"
	}
	return t.Title
}

type pages struct {
	board *template.Template
	todos *template.Template
}

// parsePages builds one template set per screen since both define "content".
func parsePages() *pages {
	funcs := template.FuncMap{"todoLabel": todoLabel}
	return &pages{
		board: template.Must(template.New("board").Funcs(funcs).Parse(layoutPage + boardPage)),
		todos: template.Must(template.New("todos").Funcs(funcs).Parse(layoutPage + todosPage)),
	}
}
