package analysisdb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/sessionwatch/heron/internal/core/analysis"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func generateMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, nil, err
	}
	return db, mock, nil
}

func TestVideoAnalysisGet(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	store := NewDB(db).VideoAnalysis()

	rows := sqlmock.NewRows([]string{"id", "session_id", "status"}).
		AddRow("task-1", "sess-9", analysis.StatusCompleted)
	mock.ExpectQuery(`SELECT \* FROM "video_analysis" WHERE id=\$1 (.+) LIMIT \$2`).
		WithArgs("task-1", 1).
		WillReturnRows(rows)

	var out analysis.VideoAnalysis
	if err := store.Get(context.Background(), &out, orm.Where("id=?", "task-1")); err != nil {
		t.Fatal(err)
	}
	if out.ID != "task-1" || out.Status != analysis.StatusCompleted {
		t.Fatalf("got %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestVideoAnalysisFind(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	store := NewDB(db).VideoAnalysis()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "video_analysis"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "video_analysis"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

	var items []*analysis.VideoAnalysis
	total, err := store.Find(context.Background(), &items, &web.PagerFilter{Page: 1, Size: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("total=%d items=%d", total, len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestVideoAnalysisCount(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	store := NewDB(db).VideoAnalysis()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "video_analysis" WHERE session_id=\$1`).
		WithArgs("sess-9").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	total, err := store.Count(context.Background(), orm.Where("session_id=?", "sess-9"))
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 {
		t.Fatalf("total=%d", total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}
