package database

import (
	"path/filepath"
	"testing"

	"oracle/models"
	"oracle/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTest(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite:///" + filepath.Join(t.TempDir(), "db.sqlite"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db, logger.Nop()))
	return db
}

func TestOpenRejectsEmptySQLitePath(t *testing.T) {
	_, err := Open("sqlite:///")
	assert.Error(t, err)
}

func TestUpsertDatasetRefreshesRow(t *testing.T) {
	db := openTest(t)
	user := models.User{Email: "d@example.com", HashedPassword: []byte("x")}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, UpsertDataset(db, &models.Dataset{UserID: user.ID, FileName: "a.csv", StoreKey: "k1", RowCount: 3}))
	require.NoError(t, UpsertDataset(db, &models.Dataset{UserID: user.ID, FileName: "a.csv", StoreKey: "k2", RowCount: 7}))
	require.NoError(t, UpsertDataset(db, &models.Dataset{UserID: user.ID, FileName: "b.csv", StoreKey: "k3", RowCount: 1}))

	var rows []models.Dataset
	require.NoError(t, db.Where("user_id = ?", user.ID).Order("file_name").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "k2", rows[0].StoreKey)
	assert.Equal(t, 7, rows[0].RowCount)
}

func TestUserIDByEmail(t *testing.T) {
	db := openTest(t)
	user := models.User{Email: "who@example.com", HashedPassword: []byte("x")}
	require.NoError(t, db.Create(&user).Error)

	id, err := UserIDByEmail(db, " WHO@example.com ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = UserIDByEmail(db, "none@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteDataset(t *testing.T) {
	db := openTest(t)
	u1 := models.User{Email: "one@example.com", HashedPassword: []byte("x")}
	u2 := models.User{Email: "two@example.com", HashedPassword: []byte("x")}
	require.NoError(t, db.Create(&u1).Error)
	require.NoError(t, db.Create(&u2).Error)
	require.NoError(t, UpsertDataset(db, &models.Dataset{UserID: u1.ID, FileName: "a.csv", StoreKey: "k1"}))
	require.NoError(t, UpsertDataset(db, &models.Dataset{UserID: u2.ID, FileName: "a.csv", StoreKey: "k2"}))

	require.NoError(t, DeleteDataset(db, u1.ID, "a.csv"))
	require.NoError(t, DeleteDataset(db, u1.ID, "missing.csv"))

	var rows []models.Dataset
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, u2.ID, rows[0].UserID)
}
