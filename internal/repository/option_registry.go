package repository

import (
	"errors"
	"sort"

	"reverie/internal/models"

	"gorm.io/gorm"
)

var ErrUnknownOptionType = errors.New("unknown character option type")

// optionTables maps a property-type tag to its taxonomy table. Adding a new
// taxonomy means adding a model plus one entry here; every CRUD/reorder
// operation is served by the same code path.
var optionTables = map[string]models.Option{
	"personality":  &models.PersonalityOption{},
	"occupation":   &models.OccupationOption{},
	"relationship": &models.RelationshipOption{},
	"body_type":    &models.BodyTypeOption{},
	"ethnicity":    &models.EthnicityOption{},
	"hair_style":   &models.HairStyleOption{},
	"hair_color":   &models.HairColorOption{},
	"eye_color":    &models.EyeColorOption{},
	"age_group":    &models.AgeGroupOption{},
	"voice":        &models.VoiceOption{},
	"art_style":    &models.ArtStyleOption{},
}

// OptionTypes returns the known property-type tags, sorted.
func OptionTypes() []string {
	tags := make([]string, 0, len(optionTables))
	for tag := range optionTables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// OptionRegistry performs generic CRUD over the character taxonomy tables.
type OptionRegistry struct {
	db *gorm.DB
}

func NewOptionRegistry(db *gorm.DB) *OptionRegistry {
	return &OptionRegistry{db: db}
}

func (r *OptionRegistry) table(tag string) (string, error) {
	opt, ok := optionTables[tag]
	if !ok {
		return "", ErrUnknownOptionType
	}
	return opt.TableName(), nil
}

func (r *OptionRegistry) List(tag string) ([]models.OptionFields, error) {
	tbl, err := r.table(tag)
	if err != nil {
		return nil, err
	}
	var rows []models.OptionFields
	err = r.db.Table(tbl).Order("sort_order, id").Find(&rows).Error
	return rows, err
}

func (r *OptionRegistry) Get(tag string, id uint) (*models.OptionFields, error) {
	tbl, err := r.table(tag)
	if err != nil {
		return nil, err
	}
	var row models.OptionFields
	if err := r.db.Table(tbl).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// NextSortOrder returns one past the highest sort order in the table.
func (r *OptionRegistry) NextSortOrder(tag string) (int, error) {
	tbl, err := r.table(tag)
	if err != nil {
		return 0, err
	}
	var max int
	err = r.db.Table(tbl).Select("COALESCE(MAX(sort_order), 0)").Scan(&max).Error
	return max + 1, err
}

// Create inserts a new option at the end of the sort order.
func (r *OptionRegistry) Create(tag, name string) (*models.OptionFields, error) {
	tbl, err := r.table(tag)
	if err != nil {
		return nil, err
	}
	next, err := r.NextSortOrder(tag)
	if err != nil {
		return nil, err
	}
	row := models.OptionFields{Name: name, SortOrder: next, IsActive: true}
	if err := r.db.Table(tbl).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *OptionRegistry) Update(tag string, id uint, updates map[string]interface{}) error {
	tbl, err := r.table(tag)
	if err != nil {
		return err
	}
	res := r.db.Table(tbl).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *OptionRegistry) Delete(tag string, id uint) error {
	tbl, err := r.table(tag)
	if err != nil {
		return err
	}
	res := r.db.Table(tbl).Where("id = ?", id).Delete(&models.OptionFields{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Reorder rewrites sort_order to match the supplied id order.
func (r *OptionRegistry) Reorder(tag string, orderedIDs []uint) error {
	tbl, err := r.table(tag)
	if err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			if err := tx.Table(tbl).Where("id = ?", id).
				Update("sort_order", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
