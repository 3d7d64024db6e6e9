package wishes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

var cols = []string{"id", "wishlist_id", "user_id", "title", "description", "url", "price_cents", "priority", "status", "image_key", "created_at", "updated_at"}

func wishRow(id, status string, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(cols).AddRow(id, "wl1", "u1", "Bike", nil, nil, int64(12000), 4, status, nil, now, now)
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	price := int64(12000)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+wishes\s*\(wishlist_id,.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7,\s*\$8\)`).
		WithArgs("wl1", "u1", "Bike", nil, nil, int64(12000), 4, "active").
		WillReturnRows(wishRow("w1", "active", now))

	got, err := repo.Create(context.Background(), &models.Wish{
		WishlistID: "wl1", UserID: "u1", Title: "Bike", PriceCents: &price, Priority: 4, Status: models.WishActive,
	})
	require.NoError(t, err)
	assert.Equal(t, "w1", got.ID)
	assert.Equal(t, models.WishActive, got.Status)
	require.NotNil(t, got.PriceCents)
	assert.Equal(t, int64(12000), *got.PriceCents)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+wishes\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`).
		WithArgs("w1", "u2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u2", "w1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_NoFilter(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM wishes WHERE user_id = \$1 AND deleted_at IS NULL$`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`WHERE user_id = \$1 AND deleted_at IS NULL ORDER BY priority DESC, created_at DESC, id LIMIT \$2 OFFSET \$3$`).
		WithArgs("u1", 20, 0).
		WillReturnRows(wishRow("w1", "active", now))

	items, total, err := repo.List(context.Background(), "u1", models.WishFilter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_WithFilters(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	cond := `user_id = \$1 AND deleted_at IS NULL AND wishlist_id = \$2 AND status = \$3`
	mock.ExpectQuery(`COUNT\(\*\) FROM wishes WHERE `+cond+`$`).
		WithArgs("u1", "wl1", "achieved").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(cond+` ORDER BY .* LIMIT \$4 OFFSET \$5$`).
		WithArgs("u1", "wl1", "achieved", 2, 4).
		WillReturnRows(wishRow("w5", "achieved", now))

	items, total, err := repo.List(context.Background(), "u1",
		models.WishFilter{WishlistID: "wl1", Status: models.WishAchieved}, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 1)
	assert.Equal(t, models.WishAchieved, items[0].Status)
}

func TestList_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`ORDER BY`).WillReturnError(errors.New("db down"))

	_, _, err := repo.List(context.Background(), "u1", models.WishFilter{}, 20, 0)
	assert.ErrorContains(t, err, "db error")
}

func TestUpdate_StatusOnly(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	st := models.WishArchived

	mock.ExpectQuery(`(?s)^UPDATE\s+wishes\s+SET.*status\s*=\s*COALESCE\(\$9,\s*status\)`).
		WithArgs("w1", "u1", nil, nil, nil, nil, nil, nil, "archived").
		WillReturnRows(wishRow("w1", "archived", now))

	got, err := repo.Update(context.Background(), "u1", "w1", models.WishPatch{Status: &st})
	require.NoError(t, err)
	assert.Equal(t, models.WishArchived, got.Status)
}

func TestSetImageKey(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+wishes\s+SET\s+image_key\s*=\s*\$3`
	mock.ExpectExec(q).WithArgs("w1", "u1", "k").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("w2", "u1", "k").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetImageKey(context.Background(), "u1", "w1", "k"))
	assert.ErrorIs(t, repo.SetImageKey(context.Background(), "u1", "w2", "k"), common.ErrorNotFound)
}

func TestSoftDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectExec(`(?s)^UPDATE\s+wishes\s+SET\s+deleted_at\s*=\s*\$3`).
		WithArgs("w1", "u1", at).
		WillReturnError(errors.New("db down"))

	assert.ErrorContains(t, repo.SoftDelete(context.Background(), "u1", "w1", at), "db error")
}
