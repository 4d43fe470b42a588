package repository

import (
	"testing"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestRecordKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"plain string", "character:abc", "abc"},
		{"escaped", "lfg_post:⟨0b6f-11⟩", "0b6f-11"},
		{"record id", models.RecordID{Table: "lfg_user", ID: "u1"}, "u1"},
		{"record id pointer", &models.RecordID{Table: "lfg_user", ID: "u2"}, "u2"},
		{"map form", map[string]interface{}{"tb": "character", "id": map[string]interface{}{"String": "c9"}}, "c9"},
		{"bare", "u3", "u3"},
	}

	for _, tt := range tests {
		if got := recordKey(tt.in); got != tt.want {
			t.Errorf("%s: recordKey() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResultRows(t *testing.T) {
	t.Parallel()

	result := []interface{}{
		map[string]interface{}{"status": "OK", "result": []interface{}{
			map[string]interface{}{"title": "a"},
			map[string]interface{}{"title": "b"},
		}},
		map[string]interface{}{"status": "OK", "result": map[string]interface{}{"title": "single"}},
	}

	if rows := resultRows(result, 0); len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
	if rows := resultRows(result, -1); len(rows) != 1 || rows[0]["title"] != "single" {
		t.Errorf("expected single row from last statement, got %v", rows)
	}
	if rows := resultRows(result, 5); rows != nil {
		t.Errorf("expected nil for out of range, got %v", rows)
	}
}

func TestGetTime(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 10, 21, 16, 0, 0, 0, time.UTC)
	rows := []map[string]interface{}{
		{"at": want.Format(time.RFC3339Nano)},
		{"at": want},
		{"at": models.CustomDateTime{Time: want}},
		{"at": &models.CustomDateTime{Time: want}},
	}
	for i, row := range rows {
		if got := getTime(row, "at"); !got.Equal(want) {
			t.Errorf("row %d: got %v", i, got)
		}
	}
	if got := getTime(map[string]interface{}{}, "at"); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}

func TestParseCharacterRow(t *testing.T) {
	t.Parallel()

	row := map[string]interface{}{
		"id":         models.RecordID{Table: "character", ID: "c1"},
		"owner_id":   "u1",
		"name":       "Mokoko",
		"class":      "Bard",
		"item_level": uint64(1620),
		"gems": []interface{}{
			map[string]interface{}{"type": "attack", "level": uint64(10), "skill": "Sonic Vibration"},
		},
		"engravings": []interface{}{
			map[string]interface{}{"name": "Awakening", "level": int64(3)},
		},
		"gear_set": "Salvation",
	}

	c, err := parseCharacterRow(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != "c1" || c.OwnerID != "u1" || c.ItemLevel != 1620 {
		t.Errorf("unexpected character %+v", c)
	}
	if len(c.Gems) != 1 || c.Gems[0].Level != 10 || c.Gems[0].Type != "attack" {
		t.Errorf("unexpected gems %+v", c.Gems)
	}
	if len(c.Engravings) != 1 || c.Engravings[0].Level != 3 {
		t.Errorf("unexpected engravings %+v", c.Engravings)
	}
	if c.GearSet == nil || *c.GearSet != "Salvation" {
		t.Errorf("unexpected gear set %v", c.GearSet)
	}
}

func TestParseApplicantRows_SkipsUnfetchedCharacters(t *testing.T) {
	t.Parallel()

	rows := []map[string]interface{}{
		{"post_id": "p1", "user_id": "u1", "character": map[string]interface{}{"id": "character:c1", "name": "A"}},
		{"post_id": "p1", "user_id": "u2", "character": nil},
		{"post_id": "p2", "user_id": "u3", "character": map[string]interface{}{"id": "character:c3", "name": "C"}},
	}

	got, err := parseApplicantRows(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got["p1"]) != 1 || got["p1"][0].Character.ID != "c1" {
		t.Errorf("unexpected p1 roster %+v", got["p1"])
	}
	if len(got["p2"]) != 1 || got["p2"][0].UserID != "u3" {
		t.Errorf("unexpected p2 roster %+v", got["p2"])
	}
}
