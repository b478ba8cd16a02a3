package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/studieren/match_back/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(Options{DSN: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProfiles() []models.Profile {
	return []models.Profile{
		{ID: 2, Name: "Rachel", Age: 30, Attachments: []string{"a.jpg"}, PhotoCount: 1},
		{ID: 1, Name: "Ananya", Age: 26, Attachments: []string{"b.jpg", "c.jpg"}, PhotoCount: 2, IsVerified: true},
		{ID: 3, Name: "Priya", Age: 25, Attachments: []string{}},
	}
}

func insertTyped(t *testing.T, s *Store, profiles []models.Profile) {
	t.Helper()
	var typed []models.ProfileWithType
	for _, p := range profiles {
		for _, typ := range models.AllProfileTypes {
			typed = append(typed, models.FromProfile(p, typ))
		}
	}
	if err := s.Typed.InsertProfiles(context.Background(), typed); err != nil {
		t.Fatalf("InsertProfiles() failed: %v", err)
	}
}

func TestProfileDAO(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Profiles.InsertProfiles(ctx, sampleProfiles()); err != nil {
		t.Fatalf("InsertProfiles() failed: %v", err)
	}

	got, err := s.Profiles.GetProfiles(ctx)
	if err != nil {
		t.Fatalf("GetProfiles() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetProfiles() returned %d profiles, want 3", len(got))
	}
	for i, want := range []int{1, 2, 3} {
		if got[i].ID != want {
			t.Errorf("GetProfiles()[%d].ID = %d, want %d", i, got[i].ID, want)
		}
	}
	if len(got[0].Attachments) != 2 || got[0].Attachments[1] != "c.jpg" {
		t.Errorf("attachments not round-tripped: %v", got[0].Attachments)
	}

	t.Run("upsert replaces row", func(t *testing.T) {
		if err := s.Profiles.InsertProfiles(ctx, []models.Profile{{ID: 1, Name: "Ananya S", Age: 27}}); err != nil {
			t.Fatalf("InsertProfiles() failed: %v", err)
		}
		p, err := s.Profiles.GetProfile(ctx, 1)
		if err != nil {
			t.Fatalf("GetProfile() failed: %v", err)
		}
		if p.Name != "Ananya S" || p.Age != 27 {
			t.Errorf("GetProfile() = %+v, want replaced row", p)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := s.Profiles.DeleteProfile(ctx, models.Profile{ID: 2}); err != nil {
			t.Fatalf("DeleteProfile() failed: %v", err)
		}
		if _, err := s.Profiles.GetProfile(ctx, 2); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetProfile() after delete error = %v, want ErrNotFound", err)
		}
		if err := s.Profiles.DeleteProfile(ctx, models.Profile{ID: 99}); err != nil {
			t.Errorf("DeleteProfile() of missing row returned error: %v", err)
		}
	})
}

func TestProfileWithTypeDAO_IndependentLists(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	insertTyped(t, s, sampleProfiles())

	for _, typ := range models.AllProfileTypes {
		n, err := s.Typed.GetProfileCountByType(ctx, typ)
		if err != nil {
			t.Fatalf("GetProfileCountByType(%s) failed: %v", typ, err)
		}
		if n != 3 {
			t.Errorf("GetProfileCountByType(%s) = %d, want 3", typ, n)
		}
	}

	if err := s.Typed.DeleteProfileByIDAndType(ctx, 1, models.ProfileTypeHome); err != nil {
		t.Fatalf("DeleteProfileByIDAndType() failed: %v", err)
	}

	home, err := s.Typed.GetProfilesByType(ctx, models.ProfileTypeHome)
	if err != nil {
		t.Fatalf("GetProfilesByType(HOME) failed: %v", err)
	}
	if len(home) != 2 {
		t.Fatalf("HOME has %d profiles, want 2", len(home))
	}
	// 插入顺序：2, 1, 3
	if home[0].ProfileID != 2 || home[1].ProfileID != 3 {
		t.Errorf("HOME order = [%d %d], want [2 3]", home[0].ProfileID, home[1].ProfileID)
	}

	if _, err := s.Typed.GetProfileByIDAndType(ctx, 1, models.ProfileTypeDaily); err != nil {
		t.Errorf("DAILY copy of profile 1 should survive: %v", err)
	}
	if _, err := s.Typed.GetProfileByIDAndType(ctx, 1, models.ProfileTypeHome); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProfileByIDAndType(1, HOME) error = %v, want ErrNotFound", err)
	}

	if err := s.Typed.DeleteAllByType(ctx, models.ProfileTypeDaily); err != nil {
		t.Fatalf("DeleteAllByType() failed: %v", err)
	}
	if n, _ := s.Typed.GetProfileCountByType(ctx, models.ProfileTypeDaily); n != 0 {
		t.Errorf("DAILY count after DeleteAllByType = %d, want 0", n)
	}
	if n, _ := s.Typed.GetProfileCountByType(ctx, models.ProfileTypeHome); n != 2 {
		t.Errorf("HOME count after DeleteAllByType(DAILY) = %d, want 2", n)
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	var zero T
	return zero
}

func TestWatch(t *testing.T) {
	s := setupTestStore(t)
	insertTyped(t, s, sampleProfiles())

	ctx, cancel := context.WithCancel(context.Background())
	updates, err := s.Typed.Watch(ctx, models.ProfileTypeDaily)
	if err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}

	if first := receive(t, updates); len(first) != 3 {
		t.Fatalf("initial list has %d profiles, want 3", len(first))
	}

	// HOME 的变更不应触发 DAILY 订阅
	if err := s.Typed.DeleteProfileByIDAndType(ctx, 2, models.ProfileTypeHome); err != nil {
		t.Fatalf("DeleteProfileByIDAndType() failed: %v", err)
	}
	if err := s.Typed.DeleteProfileByIDAndType(ctx, 3, models.ProfileTypeDaily); err != nil {
		t.Fatalf("DeleteProfileByIDAndType() failed: %v", err)
	}
	next := receive(t, updates)
	if len(next) != 2 {
		t.Fatalf("updated list has %d profiles, want 2", len(next))
	}
	for _, p := range next {
		if p.ProfileID == 3 {
			t.Errorf("profile 3 still present after delete")
		}
	}

	cancel()
	select {
	case _, ok := <-updates:
		if ok {
			// 可能还有一次残留的通知，再读一次
			if _, ok := <-updates; ok {
				t.Error("channel not closed after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Error("channel not closed after cancel")
	}
}

func TestWatchProfiles(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := s.Profiles.WatchProfiles(ctx)
	if err != nil {
		t.Fatalf("WatchProfiles() failed: %v", err)
	}
	if first := receive(t, updates); len(first) != 0 {
		t.Fatalf("initial list has %d profiles, want 0", len(first))
	}

	if err := s.Profiles.InsertProfiles(ctx, sampleProfiles()); err != nil {
		t.Fatalf("InsertProfiles() failed: %v", err)
	}
	if got := receive(t, updates); len(got) != 3 {
		t.Errorf("list after insert has %d profiles, want 3", len(got))
	}
}

func TestSendLatest(t *testing.T) {
	out := make(chan int, 1)
	sendLatest(out, 1)
	sendLatest(out, 2)
	sendLatest(out, 3)
	if got := <-out; got != 3 {
		t.Errorf("sendLatest kept %d, want 3", got)
	}
}
