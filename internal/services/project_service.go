package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/project-manager/internal/models"
)

type projectServiceImpl struct {
	logger zerolog.Logger
	pgPool Pool
}

func NewProjectService(
	logger zerolog.Logger,
	pgPool Pool,
) ProjectService {
	return &projectServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *projectServiceImpl) CreateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	now := time.Now()
	project = &models.Project{
		OwnerID:     project.OwnerID,
		Name:        project.Name,
		Description: project.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	const insertProjectQuery = `
INSERT INTO projects (owner_id,
                      name,
                      description,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`
	err := s.pgPool.QueryRow(
		ctx,
		insertProjectQuery,
		project.OwnerID,
		project.Name,
		project.Description,
		project.CreatedAt,
		project.UpdatedAt,
	).Scan(&project.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert project")
		return nil, err
	}

	s.logger.Info().
		Int64("project_id", project.ID).
		Str("owner_id", project.OwnerID).
		Msg("created project")
	return project, nil
}

func (s *projectServiceImpl) GetProject(ctx context.Context, id int64, ownerID string) (*models.Project, error) {
	project := &models.Project{
		ID:      id,
		OwnerID: ownerID,
	}

	const selectProjectQuery = `
SELECT name,
       description,
       created_at,
       updated_at
FROM projects
WHERE id = $1 AND owner_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectProjectQuery,
		project.ID,
		project.OwnerID,
	).Scan(
		&project.Name,
		&project.Description,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Int64("project_id", id).
				Str("owner_id", ownerID).
				Msg("project not found")
			return nil, ErrProjectNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("project_id", id).
			Msg("failed to select project")
		return nil, err
	}

	s.logger.Debug().
		Int64("project_id", id).
		Msg("selected project")
	return project, nil
}

func (s *projectServiceImpl) GetProjectsByOwnerID(ctx context.Context, ownerID string) ([]*models.Project, error) {
	const selectProjectsByOwnerIDQuery = `
SELECT id,
       name,
       description,
       created_at,
       updated_at
FROM projects
WHERE owner_id = $1
ORDER BY created_at DESC
`
	rows, err := s.pgPool.Query(
		ctx,
		selectProjectsByOwnerIDQuery,
		ownerID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("owner_id", ownerID).
			Msg("failed to select projects by owner id")
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{OwnerID: ownerID}
		err = rows.Scan(
			&project.ID,
			&project.Name,
			&project.Description,
			&project.CreatedAt,
			&project.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan project")
			return nil, err
		}
		projects = append(projects, project)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(projects)).
		Str("owner_id", ownerID).
		Msg("selected projects by owner id")
	return projects, nil
}
