package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/iamfafakkk/minimalFreeRadius/internal/config"
	dbutil "github.com/iamfafakkk/minimalFreeRadius/internal/db"
	"github.com/iamfafakkk/minimalFreeRadius/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := dbutil.Open(config.DatabaseConfig{DSN: "file:" + filepath.Join(t.TempDir(), "radius.db")})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	t.Cleanup(func() { _ = dbutil.Close(conn) })
	if errSchema := dbutil.EnsureSchema(conn); errSchema != nil {
		t.Fatalf("ensure schema: %v", errSchema)
	}
	return conn
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestNasStore_CreateAppliesDefaultsAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewGormNasStore(openTestDB(t))

	created, errCreate := s.Create(ctx, NAS{Name: "router1", IP: "10.0.0.1", Secret: "s3cret"})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if created.ID == 0 || created.Type != "other" || created.Ports != 1812 {
		t.Fatalf("unexpected created nas: %+v", created)
	}

	if _, errDup := s.Create(ctx, NAS{Name: "router1", IP: "10.0.0.2", Secret: "x"}); !errors.Is(errDup, ErrConflict) {
		t.Fatalf("expected conflict on name, got %v", errDup)
	}
	if _, errDup := s.Create(ctx, NAS{Name: "router2", IP: "10.0.0.1", Secret: "x"}); !errors.Is(errDup, ErrConflict) {
		t.Fatalf("expected conflict on address, got %v", errDup)
	}

	count, errCount := s.Count(ctx)
	if errCount != nil || count != 1 {
		t.Fatalf("count = %d, %v", count, errCount)
	}
}

func TestNasStore_LookupsAndSearch(t *testing.T) {
	ctx := context.Background()
	s := NewGormNasStore(openTestDB(t))
	for _, nas := range []NAS{
		{Name: "core-a", IP: "10.1.0.1", Secret: "a", Description: "Main Office"},
		{Name: "edge-b", IP: "10.2.0.1", Secret: "b", Description: "branch"},
		{Name: "edge-c", IP: "192.168.5.1", Secret: "c"},
	} {
		if _, errCreate := s.Create(ctx, nas); errCreate != nil {
			t.Fatalf("create %s: %v", nas.Name, errCreate)
		}
	}

	byID, errID := s.GetByID(ctx, 2)
	if errID != nil || byID.Name != "edge-b" || byID.IP != "10.2.0.1" {
		t.Fatalf("get by id: %+v, %v", byID, errID)
	}
	if _, errMissing := s.GetByID(ctx, 999); !errors.Is(errMissing, ErrNotFound) {
		t.Fatalf("expected not found, got %v", errMissing)
	}

	found, errSearch := s.List(ctx, ListOptions{Search: "office"})
	if errSearch != nil || len(found) != 1 || found[0].Name != "core-a" {
		t.Fatalf("search by description: %+v, %v", found, errSearch)
	}
	found, errSearch = s.List(ctx, ListOptions{Search: "10."})
	if errSearch != nil || len(found) != 2 {
		t.Fatalf("search by address: %+v, %v", found, errSearch)
	}

	page, errPage := s.List(ctx, ListOptions{Limit: 2, Offset: 2})
	if errPage != nil || len(page) != 1 || page[0].Name != "edge-c" {
		t.Fatalf("second page: %+v, %v", page, errPage)
	}
}

func TestNasStore_UpdateMergesAndExcludesSelf(t *testing.T) {
	ctx := context.Background()
	s := NewGormNasStore(openTestDB(t))
	first, _ := s.Create(ctx, NAS{Name: "r1", IP: "10.0.0.1", Secret: "one"})
	second, _ := s.Create(ctx, NAS{Name: "r2", IP: "10.0.0.2", Secret: "two"})

	// Re-submitting its own name is not a conflict.
	updated, errUpdate := s.Update(ctx, first.ID, NasPatch{Name: strPtr("r1"), Ports: intPtr(1645)})
	if errUpdate != nil {
		t.Fatalf("update: %v", errUpdate)
	}
	if updated.Ports != 1645 || updated.Secret != "one" || updated.IP != "10.0.0.1" {
		t.Fatalf("unexpected merge result: %+v", updated)
	}

	if _, errConflict := s.Update(ctx, second.ID, NasPatch{IP: strPtr("10.0.0.1")}); !errors.Is(errConflict, ErrConflict) {
		t.Fatalf("expected conflict, got %v", errConflict)
	}
	if _, errMissing := s.Update(ctx, 999, NasPatch{Secret: strPtr("x")}); !errors.Is(errMissing, ErrNotFound) {
		t.Fatalf("expected not found, got %v", errMissing)
	}
}

func TestNasStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewGormNasStore(openTestDB(t))
	created, _ := s.Create(ctx, NAS{Name: "r1", IP: "10.0.0.1", Secret: "one"})

	if errDelete := s.Delete(ctx, created.ID); errDelete != nil {
		t.Fatalf("delete: %v", errDelete)
	}
	if errDelete := s.Delete(ctx, created.ID); !errors.Is(errDelete, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", errDelete)
	}
}

func TestUserStore_CreateWritesBothRows(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewGormUserStore(conn)

	created, errCreate := s.Create(ctx, NewUser{Username: "alice01", Password: "secret1"})
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if created.Profile == nil || *created.Profile != DefaultProfile {
		t.Fatalf("expected default profile, got %+v", created.Profile)
	}

	var check models.RadCheck
	if errFind := conn.Where("username = ?", "alice01").First(&check).Error; errFind != nil {
		t.Fatalf("load radcheck: %v", errFind)
	}
	if check.Attribute != models.AttrCleartextPassword || check.Op != ":=" || check.Value != "secret1" {
		t.Fatalf("unexpected radcheck row: %+v", check)
	}
	var reply models.RadReply
	if errFind := conn.Where("username = ?", "alice01").First(&reply).Error; errFind != nil {
		t.Fatalf("load radreply: %v", errFind)
	}
	if reply.Attribute != models.AttrMikrotikGroup || reply.Op != ":=" || reply.Value != "PPP" {
		t.Fatalf("unexpected radreply row: %+v", reply)
	}

	if _, errDup := s.Create(ctx, NewUser{Username: "alice01", Password: "other12"}); !errors.Is(errDup, ErrConflict) {
		t.Fatalf("expected conflict, got %v", errDup)
	}

	got, errGet := s.GetByUsername(ctx, "alice01")
	if errGet != nil || got.ID != created.ID || got.Password != "secret1" {
		t.Fatalf("get by username: %+v, %v", got, errGet)
	}
	byID, errByID := s.GetByID(ctx, created.ID)
	if errByID != nil || byID.User != "alice01" {
		t.Fatalf("get by id: %+v, %v", byID, errByID)
	}
}

func TestUserStore_UpdateReconciles(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewGormUserStore(conn)
	if _, errCreate := s.Create(ctx, NewUser{Username: "bob0001", Password: "pass111", Profile: "gold"}); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	if _, errSame := s.Update(ctx, "bob0001", UserPatch{Password: strPtr("pass111"), Profile: strPtr("gold")}); !errors.Is(errSame, ErrNoChanges) {
		t.Fatalf("expected no changes, got %v", errSame)
	}
	if _, errEmpty := s.Update(ctx, "bob0001", UserPatch{}); !errors.Is(errEmpty, ErrNoChanges) {
		t.Fatalf("expected no changes for empty patch, got %v", errEmpty)
	}

	updated, errUpdate := s.Update(ctx, "bob0001", UserPatch{Profile: strPtr("silver")})
	if errUpdate != nil {
		t.Fatalf("update profile: %v", errUpdate)
	}
	if updated.Profile == nil || *updated.Profile != "silver" || updated.Password != "pass111" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	// A user without a profile row gets one inserted.
	if errDelete := conn.Where("username = ?", "bob0001").Delete(&models.RadReply{}).Error; errDelete != nil {
		t.Fatalf("drop profile: %v", errDelete)
	}
	updated, errUpdate = s.Update(ctx, "bob0001", UserPatch{Profile: strPtr("bronze"), Password: strPtr("pass222")})
	if errUpdate != nil {
		t.Fatalf("update with insert: %v", errUpdate)
	}
	if updated.Profile == nil || *updated.Profile != "bronze" || updated.Password != "pass222" {
		t.Fatalf("unexpected upsert result: %+v", updated)
	}
	var replies int64
	conn.Model(&models.RadReply{}).Where("username = ?", "bob0001").Count(&replies)
	if replies != 1 {
		t.Fatalf("expected one profile row, got %d", replies)
	}

	if _, errMissing := s.Update(ctx, "nobody1", UserPatch{Password: strPtr("x")}); !errors.Is(errMissing, ErrNotFound) {
		t.Fatalf("expected not found, got %v", errMissing)
	}
}

func TestUserStore_DeleteRemovesAllRows(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewGormUserStore(conn)
	if _, errCreate := s.Create(ctx, NewUser{Username: "carol01", Password: "pass111"}); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if _, errAdd := s.AddAttribute(ctx, "carol01", TableCheck, Attribute{Attribute: "Simultaneous-Use", Op: ":=", Value: "1"}); errAdd != nil {
		t.Fatalf("add attribute: %v", errAdd)
	}

	if errDelete := s.Delete(ctx, "carol01"); errDelete != nil {
		t.Fatalf("delete: %v", errDelete)
	}
	var remaining int64
	conn.Model(&models.RadCheck{}).Where("username = ?", "carol01").Count(&remaining)
	if remaining != 0 {
		t.Fatalf("expected radcheck rows removed, %d left", remaining)
	}
	conn.Model(&models.RadReply{}).Where("username = ?", "carol01").Count(&remaining)
	if remaining != 0 {
		t.Fatalf("expected radreply rows removed, %d left", remaining)
	}
	if errDelete := s.Delete(ctx, "carol01"); !errors.Is(errDelete, ErrNotFound) {
		t.Fatalf("expected not found, got %v", errDelete)
	}
}

func TestUserStore_ListCountAndSearch(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewGormUserStore(conn)
	for _, name := range []string{"alpha01", "bravo01", "alpha02"} {
		if _, errCreate := s.Create(ctx, NewUser{Username: name, Password: "pass111"}); errCreate != nil {
			t.Fatalf("create %s: %v", name, errCreate)
		}
	}
	// A second profile row must not duplicate the user in listings.
	conn.Create(&models.RadReply{Username: "bravo01", Attribute: models.AttrMikrotikGroup, Op: ":=", Value: "extra"})

	all, errList := s.List(ctx, ListOptions{})
	if errList != nil || len(all) != 3 {
		t.Fatalf("list: %+v, %v", all, errList)
	}
	if all[0].User != "alpha01" || all[2].User != "bravo01" {
		t.Fatalf("unexpected order: %+v", all)
	}
	matches, errSearch := s.List(ctx, ListOptions{Search: "ALPHA"})
	if errSearch != nil || len(matches) != 2 {
		t.Fatalf("search: %+v, %v", matches, errSearch)
	}
	count, errCount := s.Count(ctx)
	if errCount != nil || count != 3 {
		t.Fatalf("count = %d, %v", count, errCount)
	}
}

func TestUserStore_Attributes(t *testing.T) {
	ctx := context.Background()
	s := NewGormUserStore(openTestDB(t))
	if _, errCreate := s.Create(ctx, NewUser{Username: "dave001", Password: "pass111"}); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	id, errAdd := s.AddAttribute(ctx, "dave001", TableReply, Attribute{Attribute: "Framed-IP-Address", Op: "=", Value: "10.9.0.5"})
	if errAdd != nil || id == 0 {
		t.Fatalf("add reply attribute: id=%d, %v", id, errAdd)
	}

	checks, errChecks := s.CheckAttributes(ctx, "dave001")
	if errChecks != nil || len(checks) != 1 || checks[0].Attribute != models.AttrCleartextPassword {
		t.Fatalf("check attributes: %+v, %v", checks, errChecks)
	}
	replies, errReplies := s.ReplyAttributes(ctx, "dave001")
	if errReplies != nil || len(replies) != 2 || replies[1].Value != "10.9.0.5" {
		t.Fatalf("reply attributes: %+v, %v", replies, errReplies)
	}

	if errRemove := s.RemoveAttribute(ctx, "dave001", TableReply, "Framed-IP-Address"); errRemove != nil {
		t.Fatalf("remove: %v", errRemove)
	}
	if errRemove := s.RemoveAttribute(ctx, "dave001", TableReply, "Framed-IP-Address"); !errors.Is(errRemove, ErrNotFound) {
		t.Fatalf("expected not found, got %v", errRemove)
	}

	empty, errEmpty := s.CheckAttributes(ctx, "nobody1")
	if errEmpty != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v, %v", empty, errEmpty)
	}
}

func TestUserStore_DeleteRequiresPasswordRow(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewGormUserStore(conn)
	conn.Create(&models.RadCheck{Username: "ghost01", Attribute: "Simultaneous-Use", Op: ":=", Value: "1"})
	conn.Create(&models.RadReply{Username: "ghost01", Attribute: models.AttrMikrotikGroup, Op: ":=", Value: "PPP"})

	if errDelete := s.Delete(ctx, "ghost01"); !errors.Is(errDelete, ErrNotFound) {
		t.Fatalf("expected not found, got %v", errDelete)
	}
	var remaining int64
	conn.Model(&models.RadCheck{}).Where("username = ?", "ghost01").Count(&remaining)
	if remaining != 1 {
		t.Fatalf("expected leftover radcheck row untouched, %d left", remaining)
	}
	conn.Model(&models.RadReply{}).Where("username = ?", "ghost01").Count(&remaining)
	if remaining != 1 {
		t.Fatalf("expected radreply row untouched, %d left", remaining)
	}
}

// failReplyInserts makes every insert into radreply fail on conn.
func failReplyInserts(t *testing.T, conn *gorm.DB) {
	t.Helper()
	errRegister := conn.Callback().Create().Before("gorm:create").Register("test:fail_radreply", func(tx *gorm.DB) {
		if tx.Statement.Table == "radreply" {
			_ = tx.AddError(errors.New("radreply insert refused"))
		}
	})
	if errRegister != nil {
		t.Fatalf("register callback: %v", errRegister)
	}
}

func TestUserStore_CreateRollsBackOnReplyFailure(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewGormUserStore(conn)
	failReplyInserts(t, conn)

	if _, errCreate := s.Create(ctx, NewUser{Username: "frank01", Password: "pass111"}); errCreate == nil {
		t.Fatalf("expected create to fail")
	}
	var checks int64
	conn.Model(&models.RadCheck{}).Where("username = ?", "frank01").Count(&checks)
	if checks != 0 {
		t.Fatalf("expected no radcheck row after rollback, found %d", checks)
	}
}

func TestUserStore_UpdateRollsBackOnProfileFailure(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewGormUserStore(conn)
	if _, errCreate := s.Create(ctx, NewUser{Username: "gina001", Password: "pass111"}); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	// Without a profile row the update inserts one after changing the password.
	conn.Where("username = ?", "gina001").Delete(&models.RadReply{})
	failReplyInserts(t, conn)

	if _, errUpdate := s.Update(ctx, "gina001", UserPatch{Password: strPtr("newpass1"), Profile: strPtr("gold")}); errUpdate == nil {
		t.Fatalf("expected update to fail")
	}
	user, errGet := s.GetByUsername(ctx, "gina001")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if user.Password != "pass111" {
		t.Fatalf("expected password rollback, got %q", user.Password)
	}
	if user.Profile != nil {
		t.Fatalf("expected no profile row, got %q", *user.Profile)
	}
}

func TestUserStore_ListPagesOverUsers(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewGormUserStore(conn)
	for _, name := range []string{"henry01", "henry02", "henry03"} {
		if _, errCreate := s.Create(ctx, NewUser{Username: name, Password: "pass111"}); errCreate != nil {
			t.Fatalf("create %s: %v", name, errCreate)
		}
	}
	conn.Create(&models.RadReply{Username: "henry01", Attribute: models.AttrMikrotikGroup, Op: ":=", Value: "extra"})

	first, errFirst := s.List(ctx, ListOptions{Limit: 2})
	if errFirst != nil || len(first) != 2 || first[0].User != "henry01" || first[1].User != "henry02" {
		t.Fatalf("first page: %+v, %v", first, errFirst)
	}
	if first[0].Profile == nil || *first[0].Profile != DefaultProfile {
		t.Fatalf("expected the earliest profile row, got %+v", first[0].Profile)
	}
	second, errSecond := s.List(ctx, ListOptions{Limit: 2, Offset: 2})
	if errSecond != nil || len(second) != 1 || second[0].User != "henry03" {
		t.Fatalf("second page: %+v, %v", second, errSecond)
	}
}

func TestParseAttributeTable(t *testing.T) {
	cases := []struct {
		in      string
		want    AttributeTable
		wantErr bool
	}{
		{"", TableCheck, false},
		{"radcheck", TableCheck, false},
		{"radreply", TableReply, false},
		{"users", "", true},
		{"RADCHECK", "", true},
	}
	for _, tc := range cases {
		got, errParse := ParseAttributeTable(tc.in)
		if (errParse != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("ParseAttributeTable(%q) = %q, %v", tc.in, got, errParse)
		}
	}
}
