package service

import (
	"context"
	"strings"
	"time"

	"jobboard/internal/models"
	"jobboard/internal/observability"
	"jobboard/internal/repository"
	"jobboard/internal/validation"
)

const (
	MsgJobFieldsRequired = "Title and Description are required for the job."
	MsgLoginRequired     = "Please log in to access this page."
	MsgNotAuthorUpdate   = "You are not authorised to update this job."
	MsgNotAuthorDelete   = "You are not authorised to delete this job."
)

type JobService struct {
	store repository.Store
	now   func() time.Time
}

type CreateJobInput struct {
	Title       string
	Description string
}

type UpdateJobInput struct {
	JobID       uint
	Title       string
	Description string
	IsCompleted bool
}

func NewJobService(store repository.Store) *JobService {
	return &JobService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ListJobs returns all jobs, newest first.
func (s *JobService) ListJobs(ctx context.Context) ([]models.Job, error) {
	ctx, span := observability.StartServiceSpan(ctx, "jobs", "List")
	jobs, err := s.store.Jobs().List(ctx)
	observability.EndSpan(span, err)
	return jobs, err
}

func (s *JobService) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	if id == 0 {
		return nil, models.NewNotFoundError("Job", id)
	}
	return s.store.Jobs().GetByID(ctx, id)
}

// CreateJob inserts a job authored by actor.
func (s *JobService) CreateJob(ctx context.Context, actor *models.User, in CreateJobInput) (job *models.Job, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "jobs", "Create")
	defer func() {
		observability.JobMutations.WithLabelValues("create", observability.Outcome(models.CodeOf(err))).Inc()
		observability.EndSpan(span, err)
	}()

	if actor == nil || actor.ID == 0 {
		return nil, models.NewUnauthorizedError(MsgLoginRequired)
	}

	title, description, err := validateJobFields(in.Title, in.Description)
	if err != nil {
		return nil, err
	}

	job = &models.Job{
		Title:       title,
		Description: description,
		DatePosted:  s.now(),
		IsCompleted: false,
		UserID:      actor.ID,
	}
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		return tx.Jobs().Create(ctx, job)
	})
	if err != nil {
		return nil, asInternal(err)
	}

	job.Author = *actor
	return job, nil
}

// UpdateJob checks existence, then authorship, then the form, and writes the
// editable fields in one transaction.
func (s *JobService) UpdateJob(ctx context.Context, actor *models.User, in UpdateJobInput) (job *models.Job, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "jobs", "Update")
	defer func() {
		observability.JobMutations.WithLabelValues("update", observability.Outcome(models.CodeOf(err))).Inc()
		observability.EndSpan(span, err)
	}()

	if actor == nil || actor.ID == 0 {
		return nil, models.NewUnauthorizedError(MsgLoginRequired)
	}
	if in.JobID == 0 {
		return nil, models.NewNotFoundError("Job", in.JobID)
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		current, err := tx.Jobs().GetByIDForUpdate(ctx, in.JobID)
		if err != nil {
			return err
		}
		if !current.IsOwnedBy(actor) {
			return models.NewForbiddenError(MsgNotAuthorUpdate)
		}

		title, description, err := validateJobFields(in.Title, in.Description)
		if err != nil {
			return err
		}

		current.Title = title
		current.Description = description
		current.IsCompleted = in.IsCompleted
		if err := tx.Jobs().Update(ctx, current); err != nil {
			return err
		}
		job = current
		return nil
	})
	if err != nil {
		return nil, asInternal(err)
	}

	job.Author = *actor
	return job, nil
}

// DeleteJob removes a job its author owns.
func (s *JobService) DeleteJob(ctx context.Context, actor *models.User, id uint) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "jobs", "Delete")
	defer func() {
		observability.JobMutations.WithLabelValues("delete", observability.Outcome(models.CodeOf(err))).Inc()
		observability.EndSpan(span, err)
	}()

	if actor == nil || actor.ID == 0 {
		return models.NewUnauthorizedError(MsgLoginRequired)
	}
	if id == 0 {
		return models.NewNotFoundError("Job", id)
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		current, err := tx.Jobs().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.IsOwnedBy(actor) {
			return models.NewForbiddenError(MsgNotAuthorDelete)
		}
		return tx.Jobs().Delete(ctx, id)
	})
	if err != nil {
		return asInternal(err)
	}
	return nil
}

func validateJobFields(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return "", "", models.NewValidationError(MsgJobFieldsRequired)
	}
	if err := validation.ValidateJobTitle(title); err != nil {
		return "", "", models.NewValidationError(err.Error())
	}
	return title, description, nil
}
