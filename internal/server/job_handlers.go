package server

import (
	"fmt"

	"jobboard/internal/models"
	"jobboard/internal/service"
	"jobboard/internal/views"

	"github.com/gofiber/fiber/v2"
)

// Flash messages for job flows.
const (
	MsgJobCreated = "Your job has been created!"
	MsgJobUpdated = "Your job has been updated!"
	MsgJobDeleted = "Your job has been deleted!"
)

const (
	newJobTitle    = "New Job"
	updateJobTitle = "Update Job"
)

// Home handles GET / and GET /home
func (s *Server) Home(c *fiber.Ctx) error {
	jobs, err := s.jobs.ListJobs(c.UserContext())
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "index", views.Page{Jobs: jobs})
}

// JobDetail handles GET /job/:id
func (s *Server) JobDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	job, err := s.jobs.GetJob(c.UserContext(), id)
	if err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, "job", views.Page{
		Title:   job.Title,
		Job:     job,
		IsOwner: job.IsOwnedBy(currentUser(c)),
	})
}

// NewJobForm handles GET /job/new
func (s *Server) NewJobForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "create_job", newJobPage(views.Form{}, nil))
}

// CreateJob handles POST /job/new
func (s *Server) CreateJob(c *fiber.Ctx) error {
	form := jobForm(c)

	_, err := s.jobs.CreateJob(c.UserContext(), currentUser(c), service.CreateJobInput{
		Title:       form.Title,
		Description: form.Description,
	})
	if err != nil {
		switch models.CodeOf(err) {
		case models.CodeValidation:
			return s.render(c, fiber.StatusUnprocessableEntity, "create_job", newJobPage(form, err))
		case models.CodeUnauthorized:
			s.flash(c, views.FlashInfo, service.MsgLoginRequired)
			return redirect(c, "/login?next=/job/new")
		default:
			logInternal(c, "job create failed", err)
			return s.render(c, fiber.StatusInternalServerError, "create_job", newJobPage(form, err))
		}
	}

	s.flash(c, views.FlashSuccess, MsgJobCreated)
	return redirect(c, "/")
}

// UpdateJobForm handles GET /job/:id/update
func (s *Server) UpdateJobForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	job, err := s.jobs.GetJob(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !job.IsOwnedBy(currentUser(c)) {
		s.flash(c, views.FlashDanger, service.MsgNotAuthorUpdate)
		return redirect(c, "/")
	}

	form := views.Form{Title: job.Title, Description: job.Description, IsCompleted: job.IsCompleted}
	return s.render(c, fiber.StatusOK, "create_job", updateJobPage(id, form, nil))
}

// UpdateJob handles POST /job/:id/update
func (s *Server) UpdateJob(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	form := jobForm(c)

	_, err = s.jobs.UpdateJob(c.UserContext(), currentUser(c), service.UpdateJobInput{
		JobID:       id,
		Title:       form.Title,
		Description: form.Description,
		IsCompleted: form.IsCompleted,
	})
	if err != nil {
		switch models.CodeOf(err) {
		case models.CodeNotFound:
			return fiber.ErrNotFound
		case models.CodeForbidden:
			s.flash(c, views.FlashDanger, models.PublicMessage(err))
			return redirect(c, "/")
		case models.CodeValidation:
			return s.render(c, fiber.StatusUnprocessableEntity, "create_job", updateJobPage(id, form, err))
		default:
			logInternal(c, "job update failed", err)
			return s.render(c, fiber.StatusInternalServerError, "create_job", updateJobPage(id, form, err))
		}
	}

	s.flash(c, views.FlashSuccess, MsgJobUpdated)
	return redirect(c, jobPath(id))
}

// DeleteJob handles POST /job/:id/delete
func (s *Server) DeleteJob(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := s.jobs.DeleteJob(c.UserContext(), currentUser(c), id); err != nil {
		switch models.CodeOf(err) {
		case models.CodeNotFound:
			return fiber.ErrNotFound
		case models.CodeForbidden:
			s.flash(c, views.FlashDanger, models.PublicMessage(err))
			return redirect(c, "/")
		default:
			logInternal(c, "job delete failed", err)
			s.flash(c, views.FlashDanger, models.PublicMessage(err))
			return redirect(c, jobPath(id))
		}
	}

	s.flash(c, views.FlashSuccess, MsgJobDeleted)
	return redirect(c, "/")
}

// jobForm reads the submitted job fields. Any non-empty is_completed value
// means the checkbox was ticked.
func jobForm(c *fiber.Ctx) views.Form {
	return views.Form{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		IsCompleted: c.FormValue("is_completed") != "",
	}
}

func jobPath(id uint) string {
	return fmt.Sprintf("/job/%d", id)
}

func newJobPage(form views.Form, err error) views.Page {
	return views.Page{
		Title:   newJobTitle,
		Legend:  newJobTitle,
		Action:  "/job/new",
		Form:    form,
		Flashes: errorFlash(err),
	}
}

func updateJobPage(id uint, form views.Form, err error) views.Page {
	return views.Page{
		Title:         updateJobTitle,
		Legend:        updateJobTitle,
		Action:        jobPath(id) + "/update",
		ShowCompleted: true,
		Form:          form,
		Flashes:       errorFlash(err),
	}
}

func errorFlash(err error) []views.Flash {
	if err == nil {
		return nil
	}
	return []views.Flash{{Category: views.FlashDanger, Message: models.PublicMessage(err)}}
}
