package store

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"kitrender/kit"
)

// ErrNotFound is returned when a project id does not exist.
var ErrNotFound = errors.New("project not found")

// ErrInvalid wraps validation failures of project input.
var ErrInvalid = errors.New("invalid project")

// Status is the fulfillment state of a project.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusSent       Status = "sent"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusDraft, StatusSent, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	for _, x := range Statuses {
		if s == x {
			return true
		}
	}
	return false
}

// Project is a saved garment design.
type Project struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Customization kit.Customization `json:"customization"`
	CurrentView   string            `json:"current_view"`
	Status        Status            `json:"status"`
	CustomerName  string            `json:"customer_name,omitempty"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	PreviewURL    string            `json:"preview_url,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Validate checks the fields every stored project must satisfy.
func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, p.Status)
	}
	if _, err := kit.ParseView(p.CurrentView); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Update is a partial change of a project. Nil fields are left as is.
type Update struct {
	Name          *string            `json:"name,omitempty"`
	Customization *kit.Customization `json:"customization,omitempty"`
	CurrentView   *string            `json:"current_view,omitempty"`
	Status        *Status            `json:"status,omitempty"`
	CustomerName  *string            `json:"customer_name,omitempty"`
	CustomerEmail *string            `json:"customer_email,omitempty"`
	CustomerPhone *string            `json:"customer_phone,omitempty"`
	PreviewURL    *string            `json:"preview_url,omitempty"`
}

// Apply returns p with the update applied and UpdatedAt set to now.
func (u Update) Apply(p Project, now time.Time) Project {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Customization != nil {
		p.Customization = u.Customization.Normalize()
	}
	if u.CurrentView != nil {
		p.CurrentView = *u.CurrentView
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.CustomerName != nil {
		p.CustomerName = *u.CustomerName
	}
	if u.CustomerEmail != nil {
		p.CustomerEmail = *u.CustomerEmail
	}
	if u.CustomerPhone != nil {
		p.CustomerPhone = *u.CustomerPhone
	}
	if u.PreviewURL != nil {
		p.PreviewURL = *u.PreviewURL
	}
	p.UpdatedAt = now
	return p
}

// SendRequest is a customer's request to have a design produced.
type SendRequest struct {
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone"`
	Customization kit.Customization `json:"customization"`
	CurrentView   string            `json:"current_view"`
}

// Validate requires name, email and phone.
func (r SendRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Phone) == "" {
		return fmt.Errorf("%w: name, email and phone are required", ErrInvalid)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: email: %v", ErrInvalid, err)
	}
	return nil
}

// Project returns the project a send request creates.
func (r SendRequest) Project(now time.Time) Project {
	view := r.CurrentView
	if view == "" {
		view = string(kit.ViewShirt)
	}
	return Project{
		Name:          fmt.Sprintf("Project for %s - %s", strings.TrimSpace(r.Name), now.Format("2006-01-02")),
		Customization: r.Customization.Normalize(),
		CurrentView:   view,
		Status:        StatusSent,
		CustomerName:  strings.TrimSpace(r.Name),
		CustomerEmail: strings.TrimSpace(r.Email),
		CustomerPhone: strings.TrimSpace(r.Phone),
	}
}

// Stats counts projects per status.
type Stats struct {
	Total      int `json:"totalProjects"`
	Draft      int `json:"draftProjects"`
	Sent       int `json:"sentProjects"`
	InProgress int `json:"inProgressProjects"`
	Completed  int `json:"completedProjects"`
}

func (s *Stats) add(status Status, n int) {
	s.Total += n
	switch status {
	case StatusDraft:
		s.Draft += n
	case StatusSent:
		s.Sent += n
	case StatusInProgress:
		s.InProgress += n
	case StatusCompleted:
		s.Completed += n
	}
}

// Repository defines the contract for project persistence.
type Repository interface {
	Create(ctx context.Context, p Project) (Project, error)
	Get(ctx context.Context, id string) (Project, error)
	List(ctx context.Context, status Status) ([]Project, error)
	Update(ctx context.Context, id string, u Update) (Project, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (Stats, error)
}
