package store

import (
	"context"
	"fmt"
	"strings"

	dbutil "github.com/iamfafakkk/minimalFreeRadius/internal/db"
	"github.com/iamfafakkk/minimalFreeRadius/internal/models"
	"gorm.io/gorm"
)

// DefaultProfile is the Mikrotik group assigned when a new user omits one.
const DefaultProfile = "PPP"

// User joins a user's password check row with its optional profile reply row.
type User struct {
	ID       uint64  `json:"id"`
	User     string  `json:"user"`
	Password string  `json:"password"`
	Profile  *string `json:"profile"`
}

// NewUser is the input to UserStore.Create.
type NewUser struct {
	Username string
	Password string
	Profile  string
}

// UserPatch carries the optional fields of a user update.
type UserPatch struct {
	Password *string
	Profile  *string
}

// Attribute is one radcheck or radreply row of a user.
type Attribute struct {
	Attribute string `json:"attribute"`
	Op        string `json:"op"`
	Value     string `json:"value"`
}

// AttributeTable names the table an attribute lives in.
type AttributeTable string

const (
	TableCheck AttributeTable = "radcheck"
	TableReply AttributeTable = "radreply"
)

// ParseAttributeTable converts request input into an AttributeTable. Empty means radcheck.
func ParseAttributeTable(raw string) (AttributeTable, error) {
	switch AttributeTable(strings.TrimSpace(raw)) {
	case "", TableCheck:
		return TableCheck, nil
	case TableReply:
		return TableReply, nil
	default:
		return "", ErrInvalidTable
	}
}

// UserStore is the repository for RADIUS users.
type UserStore interface {
	List(ctx context.Context, opts ListOptions) ([]User, error)
	Count(ctx context.Context) (int64, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByID(ctx context.Context, id uint64) (User, error)
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, in NewUser) (User, error)
	Update(ctx context.Context, username string, patch UserPatch) (User, error)
	Delete(ctx context.Context, username string) error
	CheckAttributes(ctx context.Context, username string) ([]Attribute, error)
	ReplyAttributes(ctx context.Context, username string) ([]Attribute, error)
	AddAttribute(ctx context.Context, username string, table AttributeTable, attr Attribute) (uint64, error)
	RemoveAttribute(ctx context.Context, username string, table AttributeTable, attribute string) error
}

// GormUserStore implements UserStore over the radcheck and radreply tables.
type GormUserStore struct {
	db *gorm.DB
}

// NewGormUserStore constructs a GormUserStore.
func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

var _ UserStore = (*GormUserStore)(nil)

type userRow struct {
	ID       uint64
	Username string
	Password string
	Profile  *string
}

// userQuery selects password rows left-joined with the profile reply row.
func userQuery(tx *gorm.DB) *gorm.DB {
	return tx.Table("radcheck AS rc").
		Select("rc.id AS id, rc.username AS username, rc.value AS password, rr.value AS profile").
		Joins("LEFT JOIN radreply rr ON rr.username = rc.username AND rr.attribute = ?", models.AttrMikrotikGroup).
		Where("rc.attribute = ?", models.AttrCleartextPassword)
}

// List returns users ordered by username. Search matches the username.
// Pagination is applied to password rows so duplicate profile rows never shorten a page.
func (s *GormUserStore) List(ctx context.Context, opts ListOptions) ([]User, error) {
	tx := s.db.WithContext(ctx)
	idQuery := tx.Model(&models.RadCheck{}).Where("attribute = ?", models.AttrCleartextPassword)
	if term := strings.TrimSpace(opts.Search); term != "" {
		idQuery = idQuery.Where(dbutil.CaseInsensitiveLikeExpr(s.db, "username"), dbutil.ContainsPattern(s.db, term))
	}
	var ids []uint64
	if errIDs := opts.paginate(idQuery.Order("username").Order("id")).Pluck("id", &ids).Error; errIDs != nil {
		return nil, fmt.Errorf("list users: %w", errIDs)
	}
	out := make([]User, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []userRow
	errScan := userQuery(tx).Where("rc.id IN ?", ids).
		Order("rc.username").Order("rc.id").Order("rr.id").
		Scan(&rows).Error
	if errScan != nil {
		return nil, fmt.Errorf("list users: %w", errScan)
	}
	seen := make(map[uint64]struct{}, len(rows))
	for _, row := range rows {
		// Duplicate profile rows fan out the join; keep the first.
		if _, dup := seen[row.ID]; dup {
			continue
		}
		seen[row.ID] = struct{}{}
		out = append(out, userFromRow(row))
	}
	return out, nil
}

// Count returns the number of distinct usernames with a password row.
func (s *GormUserStore) Count(ctx context.Context) (int64, error) {
	var count int64
	errCount := s.db.WithContext(ctx).Model(&models.RadCheck{}).
		Where("attribute = ?", models.AttrCleartextPassword).
		Distinct("username").
		Count(&count).Error
	if errCount != nil {
		return 0, fmt.Errorf("count users: %w", errCount)
	}
	return count, nil
}

// GetByUsername returns the user with the given name.
func (s *GormUserStore) GetByUsername(ctx context.Context, username string) (User, error) {
	return s.first(s.db.WithContext(ctx), "rc.username = ?", username)
}

// GetByID returns the user whose password row has the given id.
func (s *GormUserStore) GetByID(ctx context.Context, id uint64) (User, error) {
	return s.first(s.db.WithContext(ctx), "rc.id = ?", id)
}

func (s *GormUserStore) first(tx *gorm.DB, query string, arg any) (User, error) {
	var rows []userRow
	if errScan := userQuery(tx).Where(query, arg).Order("rc.id").Order("rr.id").Limit(1).Scan(&rows).Error; errScan != nil {
		return User{}, fmt.Errorf("get user: %w", errScan)
	}
	if len(rows) == 0 {
		return User{}, ErrNotFound
	}
	return userFromRow(rows[0]), nil
}

// Exists reports whether username has a password row.
func (s *GormUserStore) Exists(ctx context.Context, username string) (bool, error) {
	return exists(s.db.WithContext(ctx), username)
}

func exists(tx *gorm.DB, username string) (bool, error) {
	var count int64
	errCount := tx.Model(&models.RadCheck{}).
		Where("username = ? AND attribute = ?", username, models.AttrCleartextPassword).
		Count(&count).Error
	if errCount != nil {
		return false, fmt.Errorf("check user exists: %w", errCount)
	}
	return count > 0, nil
}

// Create writes the password check row and the profile reply row atomically.
func (s *GormUserStore) Create(ctx context.Context, in NewUser) (User, error) {
	profile := in.Profile
	if profile == "" {
		profile = DefaultProfile
	}
	check := models.RadCheck{
		Username:  in.Username,
		Attribute: models.AttrCleartextPassword,
		Op:        models.OpSet,
		Value:     in.Password,
	}
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, errExists := exists(tx, in.Username)
		if errExists != nil {
			return errExists
		}
		if found {
			return ErrConflict
		}
		if errCreate := tx.Create(&check).Error; errCreate != nil {
			return fmt.Errorf("create radcheck: %w", errCreate)
		}
		reply := models.RadReply{
			Username:  in.Username,
			Attribute: models.AttrMikrotikGroup,
			Op:        models.OpSet,
			Value:     profile,
		}
		if errCreate := tx.Create(&reply).Error; errCreate != nil {
			return fmt.Errorf("create radreply: %w", errCreate)
		}
		return nil
	})
	if errTx != nil {
		if dbutil.IsDuplicateKey(errTx) {
			return User{}, ErrConflict
		}
		return User{}, errTx
	}
	return User{ID: check.ID, User: in.Username, Password: in.Password, Profile: &profile}, nil
}

// Update reconciles the password and profile rows with patch inside one transaction.
// Values equal to the stored ones are skipped; if nothing changes ErrNoChanges is returned.
func (s *GormUserStore) Update(ctx context.Context, username string, patch UserPatch) (User, error) {
	var updated User
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, errGet := s.first(tx, "rc.username = ?", username)
		if errGet != nil {
			return errGet
		}
		changed := false

		if patch.Password != nil && *patch.Password != current.Password {
			res := tx.Model(&models.RadCheck{}).
				Where("username = ? AND attribute = ?", username, models.AttrCleartextPassword).
				Update("value", *patch.Password)
			if res.Error != nil {
				return fmt.Errorf("update password: %w", res.Error)
			}
			changed = changed || res.RowsAffected > 0
		}

		if patch.Profile != nil {
			var replies []models.RadReply
			errFind := tx.Where("username = ? AND attribute = ?", username, models.AttrMikrotikGroup).
				Find(&replies).Error
			if errFind != nil {
				return fmt.Errorf("load profile: %w", errFind)
			}
			switch {
			case len(replies) == 0:
				reply := models.RadReply{
					Username:  username,
					Attribute: models.AttrMikrotikGroup,
					Op:        models.OpSet,
					Value:     *patch.Profile,
				}
				if errCreate := tx.Create(&reply).Error; errCreate != nil {
					return fmt.Errorf("create profile: %w", errCreate)
				}
				changed = true
			case profileDiffers(replies, *patch.Profile):
				res := tx.Model(&models.RadReply{}).
					Where("username = ? AND attribute = ?", username, models.AttrMikrotikGroup).
					Update("value", *patch.Profile)
				if res.Error != nil {
					return fmt.Errorf("update profile: %w", res.Error)
				}
				changed = changed || res.RowsAffected > 0
			}
		}

		if !changed {
			return ErrNoChanges
		}
		var errReload error
		updated, errReload = s.first(tx, "rc.username = ?", username)
		return errReload
	})
	if errTx != nil {
		return User{}, errTx
	}
	return updated, nil
}

func profileDiffers(replies []models.RadReply, profile string) bool {
	for _, reply := range replies {
		if reply.Value != profile {
			return true
		}
	}
	return false
}

// Delete removes every radcheck and radreply row of username atomically.
// ErrNotFound is returned, and nothing is removed, when username has no password row.
func (s *GormUserStore) Delete(ctx context.Context, username string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, errExists := exists(tx, username)
		if errExists != nil {
			return errExists
		}
		if !found {
			return ErrNotFound
		}
		if errDelete := tx.Where("username = ?", username).Delete(&models.RadCheck{}).Error; errDelete != nil {
			return fmt.Errorf("delete radcheck: %w", errDelete)
		}
		if errDelete := tx.Where("username = ?", username).Delete(&models.RadReply{}).Error; errDelete != nil {
			return fmt.Errorf("delete radreply: %w", errDelete)
		}
		return nil
	})
}

// CheckAttributes lists every radcheck row of username, password included.
func (s *GormUserStore) CheckAttributes(ctx context.Context, username string) ([]Attribute, error) {
	return s.attributes(ctx, TableCheck, username)
}

// ReplyAttributes lists every radreply row of username.
func (s *GormUserStore) ReplyAttributes(ctx context.Context, username string) ([]Attribute, error) {
	return s.attributes(ctx, TableReply, username)
}

func (s *GormUserStore) attributes(ctx context.Context, table AttributeTable, username string) ([]Attribute, error) {
	out := make([]Attribute, 0)
	errFind := s.db.WithContext(ctx).Table(string(table)).
		Select("attribute", "op", "value").
		Where("username = ?", username).
		Order("id").
		Scan(&out).Error
	if errFind != nil {
		return nil, fmt.Errorf("list %s attributes: %w", table, errFind)
	}
	return out, nil
}

// AddAttribute inserts an attribute row and returns its id.
func (s *GormUserStore) AddAttribute(ctx context.Context, username string, table AttributeTable, attr Attribute) (uint64, error) {
	tx := s.db.WithContext(ctx)
	switch table {
	case TableCheck:
		row := models.RadCheck{Username: username, Attribute: attr.Attribute, Op: attr.Op, Value: attr.Value}
		if errCreate := tx.Create(&row).Error; errCreate != nil {
			return 0, fmt.Errorf("add radcheck attribute: %w", errCreate)
		}
		return row.ID, nil
	case TableReply:
		row := models.RadReply{Username: username, Attribute: attr.Attribute, Op: attr.Op, Value: attr.Value}
		if errCreate := tx.Create(&row).Error; errCreate != nil {
			return 0, fmt.Errorf("add radreply attribute: %w", errCreate)
		}
		return row.ID, nil
	default:
		return 0, ErrInvalidTable
	}
}

// RemoveAttribute deletes every row of username with the given attribute name.
func (s *GormUserStore) RemoveAttribute(ctx context.Context, username string, table AttributeTable, attribute string) error {
	var model any
	switch table {
	case TableCheck:
		model = &models.RadCheck{}
	case TableReply:
		model = &models.RadReply{}
	default:
		return ErrInvalidTable
	}
	res := s.db.WithContext(ctx).Where("username = ? AND attribute = ?", username, attribute).Delete(model)
	if res.Error != nil {
		return fmt.Errorf("remove %s attribute: %w", table, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func userFromRow(row userRow) User {
	return User{ID: row.ID, User: row.Username, Password: row.Password, Profile: row.Profile}
}

