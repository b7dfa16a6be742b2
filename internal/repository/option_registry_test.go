package repository

import (
	"fmt"
	"testing"

	"reverie/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newOptionDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.PersonalityOption{},
		&models.HairColorOption{},
	))
	return db
}

func TestOptionTypesSorted(t *testing.T) {
	types := OptionTypes()
	assert.Len(t, types, 11)
	assert.Contains(t, types, "personality")
	assert.Contains(t, types, "art_style")
	for i := 1; i < len(types); i++ {
		assert.Less(t, types[i-1], types[i])
	}
}

func TestOptionRegistryServesEveryType(t *testing.T) {
	db := newOptionDB(t)
	require.NoError(t, db.AutoMigrate(
		&models.OccupationOption{},
		&models.RelationshipOption{},
		&models.BodyTypeOption{},
		&models.EthnicityOption{},
		&models.HairStyleOption{},
		&models.EyeColorOption{},
		&models.AgeGroupOption{},
		&models.VoiceOption{},
		&models.ArtStyleOption{},
	))
	reg := NewOptionRegistry(db)

	// Every registered tag must round-trip through the shared CRUD path.
	for _, tag := range OptionTypes() {
		row, err := reg.Create(tag, "sample "+tag)
		require.NoError(t, err, tag)
		got, err := reg.Get(tag, row.ID)
		require.NoError(t, err, tag)
		assert.Equal(t, "sample "+tag, got.Name, tag)
	}
}

func TestOptionRegistryUnknownType(t *testing.T) {
	reg := NewOptionRegistry(newOptionDB(t))

	_, err := reg.List("flavor")
	assert.ErrorIs(t, err, ErrUnknownOptionType)
	_, err = reg.Create("flavor", "sweet")
	assert.ErrorIs(t, err, ErrUnknownOptionType)
	assert.ErrorIs(t, reg.Delete("flavor", 1), ErrUnknownOptionType)
}

func TestOptionRegistryCreateAssignsSortOrder(t *testing.T) {
	reg := NewOptionRegistry(newOptionDB(t))

	first, err := reg.Create("personality", "Shy")
	require.NoError(t, err)
	second, err := reg.Create("personality", "Bold")
	require.NoError(t, err)

	assert.Equal(t, 1, first.SortOrder)
	assert.Equal(t, 2, second.SortOrder)
	assert.True(t, first.IsActive)

	rows, err := reg.List("personality")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Shy", rows[0].Name)
	assert.Equal(t, "Bold", rows[1].Name)
}

func TestOptionRegistryTablesAreIndependent(t *testing.T) {
	reg := NewOptionRegistry(newOptionDB(t))

	_, err := reg.Create("personality", "Shy")
	require.NoError(t, err)
	_, err = reg.Create("hair_color", "Auburn")
	require.NoError(t, err)

	rows, err := reg.List("hair_color")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Auburn", rows[0].Name)
}

func TestOptionRegistryUpdate(t *testing.T) {
	reg := NewOptionRegistry(newOptionDB(t))

	row, err := reg.Create("personality", "Shy")
	require.NoError(t, err)

	require.NoError(t, reg.Update("personality", row.ID, map[string]interface{}{
		"name":      "Timid",
		"is_active": false,
	}))
	got, err := reg.Get("personality", row.ID)
	require.NoError(t, err)
	assert.Equal(t, "Timid", got.Name)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, reg.Update("personality", 9999, map[string]interface{}{"name": "x"}), gorm.ErrRecordNotFound)
}

func TestOptionRegistryDelete(t *testing.T) {
	reg := NewOptionRegistry(newOptionDB(t))

	row, err := reg.Create("personality", "Shy")
	require.NoError(t, err)
	require.NoError(t, reg.Delete("personality", row.ID))

	rows, err := reg.List("personality")
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.ErrorIs(t, reg.Delete("personality", row.ID), gorm.ErrRecordNotFound)
}

func TestOptionRegistryReorder(t *testing.T) {
	reg := NewOptionRegistry(newOptionDB(t))

	a, _ := reg.Create("personality", "A")
	b, _ := reg.Create("personality", "B")
	c, _ := reg.Create("personality", "C")

	require.NoError(t, reg.Reorder("personality", []uint{c.ID, a.ID, b.ID}))

	rows, err := reg.List("personality")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "C", rows[0].Name)
	assert.Equal(t, "A", rows[1].Name)
	assert.Equal(t, "B", rows[2].Name)
}
