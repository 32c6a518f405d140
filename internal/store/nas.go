package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dbutil "github.com/iamfafakkk/minimalFreeRadius/internal/db"
	"github.com/iamfafakkk/minimalFreeRadius/internal/models"
	"gorm.io/gorm"
)

// Defaults applied to new NAS records.
const (
	DefaultNasType  = "other"
	DefaultNasPorts = 1812
)

// NAS is the API projection of a row in the nas table.
type NAS struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	IP          string `json:"ip"`
	Secret      string `json:"secret"`
	Type        string `json:"type"`
	Ports       int    `json:"ports"`
	Community   string `json:"community"`
	Description string `json:"description"`
}

// NasPatch carries the fields of a partial NAS update; nil means unchanged.
type NasPatch struct {
	Name        *string
	IP          *string
	Secret      *string
	Type        *string
	Ports       *int
	Community   *string
	Description *string
}

// NasStore is the repository for RADIUS clients.
type NasStore interface {
	List(ctx context.Context, opts ListOptions) ([]NAS, error)
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id uint64) (NAS, error)
	Exists(ctx context.Context, name, address string, excludeID uint64) (bool, error)
	Create(ctx context.Context, nas NAS) (NAS, error)
	Update(ctx context.Context, id uint64, patch NasPatch) (NAS, error)
	Delete(ctx context.Context, id uint64) error
}

// GormNasStore implements NasStore on top of gorm.
type GormNasStore struct {
	db *gorm.DB
}

// NewGormNasStore constructs a GormNasStore.
func NewGormNasStore(db *gorm.DB) *GormNasStore {
	return &GormNasStore{db: db}
}

var _ NasStore = (*GormNasStore)(nil)

// List returns NAS records ordered by short name, optionally filtered by a search term
// matched against name, address and description.
func (s *GormNasStore) List(ctx context.Context, opts ListOptions) ([]NAS, error) {
	q := s.db.WithContext(ctx).Model(&models.Nas{})
	if term := strings.TrimSpace(opts.Search); term != "" {
		pattern := dbutil.ContainsPattern(s.db, term)
		q = q.Where(
			dbutil.CaseInsensitiveLikeExpr(s.db, "shortname")+" OR "+
				dbutil.CaseInsensitiveLikeExpr(s.db, "nasname")+" OR "+
				dbutil.CaseInsensitiveLikeExpr(s.db, "description"),
			pattern, pattern, pattern,
		)
	}
	var rows []models.Nas
	if errFind := opts.paginate(q.Order("shortname").Order("id")).Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("list nas: %w", errFind)
	}
	out := make([]NAS, 0, len(rows))
	for _, row := range rows {
		out = append(out, nasFromRow(row))
	}
	return out, nil
}

// Count returns the number of NAS records.
func (s *GormNasStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.Nas{}).Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("count nas: %w", errCount)
	}
	return count, nil
}

// GetByID returns the NAS with the given id.
func (s *GormNasStore) GetByID(ctx context.Context, id uint64) (NAS, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormNasStore) first(ctx context.Context, query string, arg any) (NAS, error) {
	var row models.Nas
	if errFind := s.db.WithContext(ctx).Where(query, arg).Order("id").First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return NAS{}, ErrNotFound
		}
		return NAS{}, fmt.Errorf("get nas: %w", errFind)
	}
	return nasFromRow(row), nil
}

// Exists reports whether another NAS already uses name or address.
// A non-zero excludeID skips that record, which lets updates keep their own values.
func (s *GormNasStore) Exists(ctx context.Context, name, address string, excludeID uint64) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Nas{}).Where("shortname = ? OR nasname = ?", name, address)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if errCount := q.Count(&count).Error; errCount != nil {
		return false, fmt.Errorf("check nas exists: %w", errCount)
	}
	return count > 0, nil
}

// Create inserts a NAS. A name or address collision yields ErrConflict.
func (s *GormNasStore) Create(ctx context.Context, nas NAS) (NAS, error) {
	if nas.Type == "" {
		nas.Type = DefaultNasType
	}
	if nas.Ports == 0 {
		nas.Ports = DefaultNasPorts
	}
	exists, errExists := s.Exists(ctx, nas.Name, nas.IP, 0)
	if errExists != nil {
		return NAS{}, errExists
	}
	if exists {
		return NAS{}, ErrConflict
	}
	row := rowFromNAS(nas)
	if errCreate := s.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		if dbutil.IsDuplicateKey(errCreate) {
			return NAS{}, ErrConflict
		}
		return NAS{}, fmt.Errorf("create nas: %w", errCreate)
	}
	return nasFromRow(row), nil
}

// Update merges patch over the stored NAS and returns the stored result.
func (s *GormNasStore) Update(ctx context.Context, id uint64, patch NasPatch) (NAS, error) {
	current, errGet := s.GetByID(ctx, id)
	if errGet != nil {
		return NAS{}, errGet
	}
	if patch.Name != nil || patch.IP != nil {
		name, address := current.Name, current.IP
		if patch.Name != nil {
			name = *patch.Name
		}
		if patch.IP != nil {
			address = *patch.IP
		}
		exists, errExists := s.Exists(ctx, name, address, id)
		if errExists != nil {
			return NAS{}, errExists
		}
		if exists {
			return NAS{}, ErrConflict
		}
	}

	updates := map[string]any{}
	if patch.Name != nil {
		updates["shortname"] = *patch.Name
	}
	if patch.IP != nil {
		updates["nasname"] = *patch.IP
	}
	if patch.Secret != nil {
		updates["secret"] = *patch.Secret
	}
	if patch.Type != nil {
		updates["type"] = *patch.Type
	}
	if patch.Ports != nil {
		updates["ports"] = *patch.Ports
	}
	if patch.Community != nil {
		updates["community"] = *patch.Community
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if len(updates) == 0 {
		return current, nil
	}

	res := s.db.WithContext(ctx).Model(&models.Nas{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if dbutil.IsDuplicateKey(res.Error) {
			return NAS{}, ErrConflict
		}
		return NAS{}, fmt.Errorf("update nas: %w", res.Error)
	}
	return s.GetByID(ctx, id)
}

// Delete removes the NAS with the given id.
func (s *GormNasStore) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Nas{})
	if res.Error != nil {
		return fmt.Errorf("delete nas: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func nasFromRow(row models.Nas) NAS {
	out := NAS{
		ID:     row.ID,
		Name:   row.ShortName,
		IP:     row.NasName,
		Secret: row.Secret,
		Type:   row.Type,
	}
	if row.Ports != nil {
		out.Ports = *row.Ports
	}
	if row.Community != nil {
		out.Community = *row.Community
	}
	if row.Description != nil {
		out.Description = *row.Description
	}
	return out
}

func rowFromNAS(nas NAS) models.Nas {
	ports := nas.Ports
	community := nas.Community
	description := nas.Description
	return models.Nas{
		ID:          nas.ID,
		NasName:     nas.IP,
		ShortName:   nas.Name,
		Type:        nas.Type,
		Ports:       &ports,
		Secret:      nas.Secret,
		Community:   &community,
		Description: &description,
	}
}
