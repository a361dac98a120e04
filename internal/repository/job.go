package repository

import (
	"context"
	"errors"

	"jobboard/internal/models"
	"jobboard/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository defines persistence operations for jobs.
type JobRepository interface {
	List(ctx context.Context) ([]models.Job, error)
	GetByID(ctx context.Context, id uint) (*models.Job, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Job, error)
	Create(ctx context.Context, job *models.Job) error
	Update(ctx context.Context, job *models.Job) error
	Delete(ctx context.Context, id uint) error
}

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository returns a new JobRepository implementation.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// List returns every job, newest first, with authors preloaded.
func (r *jobRepository) List(ctx context.Context) ([]models.Job, error) {
	defer observability.TrackQuery("list", "job")()

	var jobs []models.Job
	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("date_posted DESC").
		Order("id DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return jobs, nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uint) (*models.Job, error) {
	defer observability.TrackQuery("get_by_id", "job")()

	var job models.Job
	if err := r.db.WithContext(ctx).Preload("Author").First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Job", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &job, nil
}

// GetByIDForUpdate reads the row with a write lock where the dialect supports
// SELECT ... FOR UPDATE. SQLite serialises writers and takes no row lock.
func (r *jobRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Job, error) {
	defer observability.TrackQuery("get_for_update", "job")()

	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var job models.Job
	if err := q.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Job", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &job, nil
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	defer observability.TrackQuery("create", "job")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(job).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes exactly title, description and is_completed; date_posted and
// the author are never changed after insert.
func (r *jobRepository) Update(ctx context.Context, job *models.Job) error {
	defer observability.TrackQuery("update", "job")()

	err := r.db.WithContext(ctx).
		Model(&models.Job{ID: job.ID}).
		Select("title", "description", "is_completed").
		Updates(map[string]any{
			"title":        job.Title,
			"description":  job.Description,
			"is_completed": job.IsCompleted,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *jobRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "job")()

	result := r.db.WithContext(ctx).Delete(&models.Job{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Job", id)
	}
	return nil
}
