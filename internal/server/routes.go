package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Tomlord1122/taskboard/internal/domain"
)

// CreateTaskRequest is the JSON body of POST /api/tasks.
type CreateTaskRequest struct {
	Title string `json:"title"`
}

// TodosResponse is the JSON view of the Todos screen.
type TodosResponse struct {
	Loading bool                `json:"loading"`
	Todos   []domain.RemoteTodo `json:"todos"`
}

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)

	// Task Board screen
	r.Get("/", s.boardPageHandler)
	r.Post("/input", s.setInputHandler)
	r.Post("/tasks", s.addTaskFormHandler)
	r.Post("/tasks/{id}/delete", s.deleteTaskFormHandler)

	// Todos screen
	r.Get("/todos", s.todosPageHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", s.listTasksHandler)
		r.Post("/tasks", s.createTaskHandler)
		r.Delete("/tasks/{id}", s.deleteTaskHandler)
		r.Get("/todos", s.getTodosHandler)
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.health.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

func (s *Server) boardPageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.taskStore.Load(ctx)
	renderPage(w, s.pages.board, boardView{
		Title: "Task Board",
		Input: s.taskStore.Input(),
		Tasks: s.taskStore.Tasks(ctx),
	})
}

func (s *Server) setInputHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	s.taskStore.SetInput(r.PostForm.Get("title"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addTaskFormHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	if _, err := s.taskStore.AddTitle(r.Context(), r.PostForm.Get("title")); err != nil {
		log.Printf("Error adding task: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to add task")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) deleteTaskFormHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}
	if err := s.taskStore.Delete(r.Context(), id); err != nil {
		log.Printf("Error deleting task %d: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) todosPageHandler(w http.ResponseWriter, r *http.Request) {
	s.todoLoader.Start(s.baseCtx)
	loading, todos := s.todoLoader.Snapshot()
	renderPage(w, s.pages.todos, todosView{
		Title:   "Todos",
		Refresh: loading,
		Loading: loading,
		Todos:   todos,
	})
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.taskStore.Tasks(r.Context()))
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxError):
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset))
		case errors.Is(err, io.ErrUnexpectedEOF):
			respondWithError(w, http.StatusBadRequest, "Request body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset))
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Request body contains unknown field %s", fieldName))
		case errors.Is(err, io.EOF):
			respondWithError(w, http.StatusBadRequest, "Request body must not be empty")
		default:
			log.Printf("Error decoding create task request: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Error processing request")
		}
		return
	}

	task, err := s.taskStore.AddTitle(r.Context(), req.Title)
	if err != nil {
		log.Printf("Error adding task: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to add task")
		return
	}
	respondWithJSON(w, http.StatusCreated, task)
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}
	if err := s.taskStore.Delete(r.Context(), id); err != nil {
		log.Printf("Error deleting task %d: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getTodosHandler(w http.ResponseWriter, r *http.Request) {
	s.todoLoader.Start(s.baseCtx)
	loading, todos := s.todoLoader.Snapshot()
	respondWithJSON(w, http.StatusOK, TodosResponse{Loading: loading, Todos: todos})
}

// parseTaskID reads the {id} URL parameter, answering 400 when it is not an integer.
func parseTaskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid task ID provided")
		return 0, false
	}
	return id, true
}

func renderPage(w http.ResponseWriter, t *template.Template, view any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", view); err != nil {
		log.Printf("Error rendering %s page: %v", t.Name(), err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling JSON response: %v", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
