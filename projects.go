package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"kitrender/store"
)

func (s *Server) projectRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.createProject(w, r)
		case http.MethodGet:
			s.listProjects(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/projects/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/projects/")
		switch {
		case id == "send" && r.Method == http.MethodPost:
			s.sendProject(w, r)
		case id == "stats" && r.Method == http.MethodGet:
			s.projectStats(w, r)
		case id == "" || strings.Contains(id, "/"):
			http.Error(w, "Not found", http.StatusNotFound)
		case r.Method == http.MethodGet:
			s.getProject(w, r, id)
		case r.Method == http.MethodPut || r.Method == http.MethodPatch:
			s.updateProject(w, r, id)
		case r.Method == http.MethodDelete:
			s.deleteProject(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
}

// writeStoreError maps repository errors to HTTP responses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Project not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Project store error: %v", err)
		http.Error(w, "Failed to save project, please try again", http.StatusInternalServerError)
	}
}

// createProject handles POST /projects and saves a draft.
func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var p store.Project
	if err := decodeBody(r, &p); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if p.Name == "" {
		p.Name = "Project " + time.Now().Format("2006-01-02")
	}
	if p.CurrentView == "" {
		p.CurrentView = "shirt"
	}
	p.Customization = p.Customization.Normalize()
	if err := p.Customization.Validate(s.catalog); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.projects.Create(r.Context(), p)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// sendProject handles POST /projects/send, a customer submitting a design.
func (s *Server) sendProject(w http.ResponseWriter, r *http.Request) {
	var req store.SendRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p := req.Project(time.Now())
	if err := p.Customization.Validate(s.catalog); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.projects.Create(r.Context(), p)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	log.Printf("Design sent as project %s", created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// listProjects handles GET /projects?status=...
func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	status := store.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		http.Error(w, "Unknown status", http.StatusBadRequest)
		return
	}
	projects, err := s.projects.List(r.Context(), status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) projectStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.projects.Stats(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request, id string) {
	p, err := s.projects.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request, id string) {
	var u store.Update
	if err := decodeBody(r, &u); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if u.Customization != nil {
		c := u.Customization.Normalize()
		if err := c.Validate(s.catalog); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		u.Customization = &c
	}
	p, err := s.projects.Update(r.Context(), id, u)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.projects.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
