package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/project-manager/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	now := time.Now()
	task := &models.Task{
		ProjectID:   params.ProjectID,
		CreatedBy:   params.UserID,
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Priority:    params.Priority,
		Status:      models.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	const insertTaskQuery = `
INSERT INTO tasks (project_id,
                   created_by,
                   title,
                   description,
                   due_date,
                   priority,
                   status,
                   created_at,
                   updated_at)
SELECT p.id, $2, $3, $4, $5, $6, $7, $8, $9
FROM projects p
WHERE p.id = $1 AND p.owner_id = $2
RETURNING id
`
	err := s.pgPool.QueryRow(
		ctx,
		insertTaskQuery,
		task.ProjectID,
		task.CreatedBy,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Status,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Int64("project_id", task.ProjectID).
				Str("user_id", task.CreatedBy).
				Msg("project not found")
			return nil, ErrProjectNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("inserted task")

	s.logger.Info().
		Int64("task_id", task.ID).
		Int64("project_id", task.ProjectID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, params GetTaskParams) (*models.Task, error) {
	task := &models.Task{ID: params.ID}

	const selectTaskQuery = `
SELECT t.project_id,
       t.created_by,
       t.title,
       t.description,
       t.due_date,
       t.priority,
       t.status,
       t.created_at,
       t.updated_at
FROM tasks t
JOIN projects p ON p.id = t.project_id
WHERE t.id = $1 AND p.owner_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskQuery,
		params.ID,
		params.UserID,
	).Scan(
		&task.ProjectID,
		&task.CreatedBy,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Priority,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Int64("task_id", params.ID).
				Str("user_id", params.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", params.ID).
			Msg("failed to select task")
		return nil, err
	}

	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("selected task")
	return task, nil
}

func (s *taskServiceImpl) GetTasksByProjectID(ctx context.Context, params GetTasksByProjectIDParams) ([]*models.Task, error) {
	const selectTasksByProjectIDQuery = `
SELECT t.id,
       t.created_by,
       t.title,
       t.description,
       t.due_date,
       t.priority,
       t.status,
       t.created_at,
       t.updated_at
FROM tasks t
JOIN projects p ON p.id = t.project_id
WHERE t.project_id = $1 AND p.owner_id = $2
ORDER BY t.due_date, t.priority DESC, t.id
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksByProjectIDQuery,
		params.ProjectID,
		params.UserID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("project_id", params.ProjectID).
			Msg("failed to select tasks by project id")
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{ProjectID: params.ProjectID}
		err = rows.Scan(
			&task.ID,
			&task.CreatedBy,
			&task.Title,
			&task.Description,
			&task.DueDate,
			&task.Priority,
			&task.Status,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Int64("project_id", params.ProjectID).
		Msg("selected tasks by project id")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	task := &models.Task{
		ID:          params.ID,
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Priority:    params.Priority,
		UpdatedAt:   time.Now(),
	}

	const updateTaskQuery = `
UPDATE tasks t
SET title = $1,
    description = $2,
    due_date = $3,
    priority = $4,
    updated_at = $5
FROM projects p
WHERE t.id = $6 AND p.id = t.project_id AND p.owner_id = $7
RETURNING t.project_id, t.created_by, t.status, t.created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.UpdatedAt,
		task.ID,
		params.UserID,
	).Scan(
		&task.ProjectID,
		&task.CreatedBy,
		&task.Status,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Int64("task_id", task.ID).
				Str("user_id", params.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("updated task")

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", params.UserID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) UpdateTaskStatus(ctx context.Context, params UpdateTaskStatusParams) (*models.Task, error) {
	if !models.IsValidTaskStatus(params.Status) {
		return nil, ErrInvalidTaskStatus
	}

	task := &models.Task{
		ID:        params.ID,
		Status:    params.Status,
		UpdatedAt: time.Now(),
	}

	const updateTaskStatusQuery = `
UPDATE tasks t
SET status = $1,
    updated_at = $2
FROM projects p
WHERE t.id = $3 AND p.id = t.project_id AND p.owner_id = $4
RETURNING t.project_id, t.created_by, t.title, t.description, t.due_date, t.priority, t.created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		updateTaskStatusQuery,
		task.Status,
		task.UpdatedAt,
		task.ID,
		params.UserID,
	).Scan(
		&task.ProjectID,
		&task.CreatedBy,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Priority,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Int64("task_id", task.ID).
				Str("user_id", params.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task status")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Str("status", task.Status).
		Msg("updated task status")

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", params.UserID).
		Msg("updated task status")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, params DeleteTaskParams) (*models.Task, error) {
	task := &models.Task{ID: params.ID}

	const deleteTaskQuery = `
DELETE FROM tasks t
USING projects p
WHERE t.id = $1 AND p.id = t.project_id AND p.owner_id = $2
RETURNING t.project_id, t.title
`
	err := s.pgPool.QueryRow(
		ctx,
		deleteTaskQuery,
		params.ID,
		params.UserID,
	).Scan(
		&task.ProjectID,
		&task.Title,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Int64("task_id", params.ID).
				Str("user_id", params.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", params.ID).
			Msg("failed to delete task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", params.ID).
		Msg("deleted task")

	s.logger.Info().
		Int64("task_id", params.ID).
		Str("user_id", params.UserID).
		Msg("deleted task")
	return task, nil
}
