package views

import (
	"time"

	"jobboard/internal/models"
)

// Flash categories.
const (
	FlashInfo    = "info"
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Form echoes submitted values back into a re-rendered form. Passwords are never echoed.
type Form struct {
	Username    string
	Email       string
	Remember    bool
	Title       string
	Description string
	IsCompleted bool
}

// Page is the data passed to every template.
type Page struct {
	Title       string
	CurrentUser *models.User
	Flashes     []Flash
	Now         time.Time
	CSRFToken   string

	Jobs    []models.Job
	Job     *models.Job
	IsOwner bool

	Form          Form
	Legend        string
	Action        string
	ShowCompleted bool
	Next          string

	Status  int
	Message string
}
