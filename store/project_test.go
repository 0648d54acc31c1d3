package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kitrender/kit"
)

func TestProjectValidate(t *testing.T) {
	valid := Project{Name: "Home kit", Status: StatusDraft, CurrentView: "shirt"}
	assert.NoError(t, valid.Validate())

	cases := map[string]func(*Project){
		"missing name":   func(p *Project) { p.Name = "  " },
		"unknown status": func(p *Project) { p.Status = "archived" },
		"unknown view":   func(p *Project) { p.CurrentView = "back" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := valid
			mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalid)
		})
	}
}

func TestUpdateApply(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := Project{Name: "a", Status: StatusDraft, CurrentView: "shirt", PreviewURL: "x"}
	name := "b"
	status := StatusInProgress
	c := kit.Customization{BaseColor: "FF0000", PlayerName: "zico"}

	got := Update{Name: &name, Status: &status, Customization: &c}.Apply(p, now)

	assert.Equal(t, "b", got.Name)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.Equal(t, "#ff0000", got.Customization.BaseColor)
	assert.Equal(t, "ZICO", got.Customization.PlayerName)
	assert.Equal(t, "shirt", got.CurrentView)
	assert.Equal(t, "x", got.PreviewURL)
	assert.Equal(t, now, got.UpdatedAt)
}

func TestSendRequest(t *testing.T) {
	req := SendRequest{Name: " Ana ", Email: "ana@example.com", Phone: "555-1234", Customization: kit.DefaultCustomization()}

	t.Run("should build a sent project", func(t *testing.T) {
		p := req.Project(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, "Project for Ana - 2024-03-09", p.Name)
		assert.Equal(t, StatusSent, p.Status)
		assert.Equal(t, "shirt", p.CurrentView)
		assert.Equal(t, "Ana", p.CustomerName)
		assert.NoError(t, p.Validate())
	})
	t.Run("should require every contact field", func(t *testing.T) {
		assert.NoError(t, req.Validate())
		for _, mutate := range []func(*SendRequest){
			func(r *SendRequest) { r.Name = "" },
			func(r *SendRequest) { r.Email = "" },
			func(r *SendRequest) { r.Phone = " " },
			func(r *SendRequest) { r.Email = "not-an-email" },
		} {
			r := req
			mutate(&r)
			assert.ErrorIs(t, r.Validate(), ErrInvalid)
		}
	})
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, Status("").Valid())
}
