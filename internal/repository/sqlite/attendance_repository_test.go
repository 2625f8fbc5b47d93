package sqlite

import (
	"sync"
	"testing"
	"time"

	"attendance/internal/model"
)

func seedStudent(t *testing.T, db *DB, studentID, name string) int64 {
	t.Helper()
	id, err := NewStudentRepository(db).Insert(&model.Student{
		StudentID: studentID,
		Name:      name,
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("Failed to seed student: %v", err)
	}
	return id
}

func TestAttendanceRepository_InsertAndGetByDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewAttendanceRepository(db)
	alice := seedStudent(t, db, "S101", "Alice")

	now := time.Now()
	today := now.Format(model.DateLayout)

	id, err := repo.Insert(&model.AttendanceRecord{
		StudentID:       alice,
		Date:            today,
		TimeIn:          now,
		Status:          model.StatusPresent,
		ConfidenceScore: 0.92,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero id")
	}

	records, err := repo.GetByDate(today)
	if err != nil {
		t.Fatalf("GetByDate failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.StudentID != alice || got.Status != model.StatusPresent {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.ConfidenceScore < 0.91 || got.ConfidenceScore > 0.93 {
		t.Errorf("unexpected confidence: %f", got.ConfidenceScore)
	}
}

func TestAttendanceRepository_UniquePerStudentPerDay(t *testing.T) {
	db := newTestDB(t)
	repo := NewAttendanceRepository(db)
	alice := seedStudent(t, db, "S101", "Alice")

	now := time.Now()
	today := now.Format(model.DateLayout)
	rec := model.AttendanceRecord{StudentID: alice, Date: today, TimeIn: now, Status: model.StatusPresent}

	if _, err := repo.Insert(&rec); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	if _, err := repo.Insert(&rec); err == nil {
		t.Error("second record for the same student and day should be rejected")
	}
}

func TestAttendanceRepository_InsertBatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewAttendanceRepository(db)
	alice := seedStudent(t, db, "S101", "Alice")
	bob := seedStudent(t, db, "S102", "Bob")

	now := time.Now()
	today := now.Format(model.DateLayout)

	err := repo.InsertBatch([]model.AttendanceRecord{
		{StudentID: alice, Date: today, TimeIn: now, Status: model.StatusPresent, ConfidenceScore: 0.9},
		{StudentID: bob, Date: today, TimeIn: now, Status: model.StatusPresent, ConfidenceScore: 0.8},
	})
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	records, err := repo.GetByDate(today)
	if err != nil {
		t.Fatalf("GetByDate failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestAttendanceRepository_InsertBatchRollsBackOnConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewAttendanceRepository(db)
	alice := seedStudent(t, db, "S101", "Alice")
	bob := seedStudent(t, db, "S102", "Bob")

	now := time.Now()
	today := now.Format(model.DateLayout)

	if _, err := repo.Insert(&model.AttendanceRecord{
		StudentID: bob, Date: today, TimeIn: now, Status: model.StatusPresent,
	}); err != nil {
		t.Fatalf("seed Insert failed: %v", err)
	}

	// Bob conflicts, so the whole batch including Alice must roll back.
	err := repo.InsertBatch([]model.AttendanceRecord{
		{StudentID: alice, Date: today, TimeIn: now, Status: model.StatusPresent},
		{StudentID: bob, Date: today, TimeIn: now, Status: model.StatusPresent},
	})
	if err == nil {
		t.Fatal("expected the batch to fail on the conflicting record")
	}

	present, err := repo.StudentIDsByDate(today)
	if err != nil {
		t.Fatalf("StudentIDsByDate failed: %v", err)
	}
	if _, ok := present[alice]; ok {
		t.Error("failed batch must not leave partial records behind")
	}
	if _, ok := present[bob]; !ok {
		t.Error("the pre-existing record should survive the rollback")
	}
}

func TestAttendanceRepository_GetByStudentAndDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewAttendanceRepository(db)
	alice := seedStudent(t, db, "S101", "Alice")

	now := time.Now()
	today := now.Format(model.DateLayout)

	missing, err := repo.GetByStudentAndDate(alice, today)
	if err != nil {
		t.Fatalf("lookup should not error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil before marking, got %+v", missing)
	}

	if _, err := repo.Insert(&model.AttendanceRecord{
		StudentID: alice, Date: today, TimeIn: now, Status: model.StatusPresent,
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByStudentAndDate(alice, today)
	if err != nil {
		t.Fatalf("GetByStudentAndDate failed: %v", err)
	}
	if got == nil || got.StudentID != alice {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestAttendanceRepository_GetRange(t *testing.T) {
	db := newTestDB(t)
	repo := NewAttendanceRepository(db)
	alice := seedStudent(t, db, "S101", "Alice")

	now := time.Now()
	days := []string{"2026-03-02", "2026-03-03", "2026-03-05"}
	for _, day := range days {
		if _, err := repo.Insert(&model.AttendanceRecord{
			StudentID: alice, Date: day, TimeIn: now, Status: model.StatusPresent,
		}); err != nil {
			t.Fatalf("Insert for %s failed: %v", day, err)
		}
	}

	records, err := repo.GetRange("2026-03-02", "2026-03-03")
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in range, got %d", len(records))
	}
	if records[0].Date != "2026-03-02" || records[1].Date != "2026-03-03" {
		t.Errorf("records should be ordered by date: %s, %s", records[0].Date, records[1].Date)
	}
}

func TestAttendanceRepository_ConcurrentInserts(t *testing.T) {
	db := newTestDB(t)
	repo := NewAttendanceRepository(db)

	ids := make([]int64, 8)
	for i := range ids {
		ids[i] = seedStudent(t, db, "S10"+string(rune('0'+i)), "Student")
	}

	now := time.Now()
	today := now.Format(model.DateLayout)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(studentID int64) {
			defer wg.Done()
			repo.Insert(&model.AttendanceRecord{
				StudentID: studentID, Date: today, TimeIn: now, Status: model.StatusPresent,
			})
		}(id)
	}
	wg.Wait()

	present, err := repo.StudentIDsByDate(today)
	if err != nil {
		t.Fatalf("StudentIDsByDate failed: %v", err)
	}
	if len(present) != len(ids) {
		t.Errorf("expected %d present students, got %d", len(ids), len(present))
	}
}
