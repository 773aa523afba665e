package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_triage/internal/models"
	"github.com/shenikar/incident_triage/internal/service"
)

const incidentColumns = `
	id,
	sender,
	wa_id,
	name,
	message_id,
	reported_at,
	text,
	claimed_type,
	latitude,
	longitude,
	status,
	priority,
	detected_type,
	assigned_resources,
	notes,
	classification_score,
	classification_factors,
	response_time,
	created_at,
	updated_at`

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

// rowScanner - общий интерфейс pgx.Row и pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.From,
		&incident.WaID,
		&incident.Name,
		&incident.MessageID,
		&incident.Timestamp,
		&incident.Text,
		&incident.ClaimedType,
		&incident.Latitude,
		&incident.Longitude,
		&incident.Status,
		&incident.Priority,
		&incident.DetectedType,
		&incident.AssignedResources,
		&incident.Notes,
		&incident.ClassificationScore,
		&incident.ClassificationFactors,
		&incident.ResponseTime,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// Create создает новую запись об инциденте в бд; id и временные метки заполняет бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (
			sender, wa_id, name, message_id, reported_at, text, claimed_type,
			latitude, longitude, status, priority, detected_type,
			assigned_resources, notes, classification_score, classification_factors, response_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.From,
		incident.WaID,
		incident.Name,
		incident.MessageID,
		incident.Timestamp,
		incident.Text,
		incident.ClaimedType,
		incident.Latitude,
		incident.Longitude,
		string(incident.Status),
		string(incident.Priority),
		incident.DetectedType,
		nonNil(incident.AssignedResources),
		incident.Notes,
		incident.ClassificationScore,
		nonNil(incident.ClassificationFactors),
		incident.ResponseTime,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`

	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, service.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// buildFindQuery собирает SELECT с условиями, объединенными через AND
func buildFindQuery(filter models.IncidentFilter) (string, []any) {
	var (
		wheres []string
		args   []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		wheres = append(wheres, fmt.Sprintf("claimed_type = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		wheres = append(wheres, fmt.Sprintf("priority = $%d", len(args)))
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY reported_at DESC, created_at DESC;"
	return query, args
}

// Find возвращает инциденты по фильтру, самые свежие сообщения первыми
func (r *IncidentRepository) Find(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	query, args := buildFindQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// buildUpdateQuery собирает UPDATE с COALESCE по полям патча.
// Если в патче задан AllowedFrom, строка обновляется только при текущем статусе из списка.
func buildUpdateQuery(id uuid.UUID, patch models.IncidentPatch) (string, []any) {
	var status, resources, notes any
	if patch.Status != nil {
		status = string(*patch.Status)
	}
	if patch.AssignedResources != nil {
		resources = nonNil(*patch.AssignedResources)
	}
	if patch.Notes != nil {
		notes = *patch.Notes
	}
	args := []any{status, resources, notes, id}

	where := "WHERE id = $4"
	if len(patch.AllowedFrom) > 0 {
		allowed := make([]string, len(patch.AllowedFrom))
		for i, s := range patch.AllowedFrom {
			allowed[i] = string(s)
		}
		args = append(args, allowed)
		where += " AND status = ANY($5)"
	}

	query := `
		UPDATE incidents SET
			status = COALESCE($1, status),
			assigned_resources = COALESCE($2, assigned_resources),
			notes = COALESCE($3, notes),
			updated_at = NOW()
		` + where + `
		RETURNING ` + incidentColumns + `;`
	return query, args
}

// UpdateAndReturn применяет заданные поля патча и возвращает запись после обновления.
// Незаданные поля (NULL) сохраняют текущие значения.
func (r *IncidentRepository) UpdateAndReturn(ctx context.Context, id uuid.UUID, patch models.IncidentPatch) (*models.Incident, error) {
	query, args := buildUpdateQuery(id, patch)

	incident, err := scanIncident(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if len(patch.AllowedFrom) > 0 {
				return nil, r.rejectedUpdate(ctx, id, patch)
			}
			// Нет строки - инцидента с таким id не существует
			return nil, fmt.Errorf("incident with id %s not found for update: %w", id, service.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to update incident: %w", err)
	}
	return incident, nil
}

// rejectedUpdate различает отсутствующий инцидент и недопустимый текущий статус
func (r *IncidentRepository) rejectedUpdate(ctx context.Context, id uuid.UUID, patch models.IncidentPatch) error {
	var current string
	err := r.db.QueryRow(ctx, `SELECT status FROM incidents WHERE id = $1;`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("incident with id %s not found for update: %w", id, service.ErrIncidentNotFound)
		}
		return fmt.Errorf("failed to load incident status: %w", err)
	}
	next := current
	if patch.Status != nil {
		next = string(*patch.Status)
	}
	return fmt.Errorf("%w: %s -> %s", service.ErrInvalidTransition, current, next)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("incident:%s", id.String())
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	val, err := r.redisClient.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, cacheKey(incident.ID), val, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	if err := r.redisClient.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}
