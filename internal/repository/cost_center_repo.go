package repository

import (
	"context"
	"strings"

	"opsportal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CostCenterRepository interface {
	Create(ctx context.Context, cc *model.CostCenter) error
	Update(ctx context.Context, cc *model.CostCenter) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CostCenter, error)
	FindByCode(ctx context.Context, code string) (*model.CostCenter, error)
	List(ctx context.Context, search string) ([]model.CostCenter, error)
	// FindIDsByName returns the ids of cost centers whose name contains fragment,
	// compared case-insensitively.
	FindIDsByName(ctx context.Context, fragment string) ([]uuid.UUID, error)
}

type costCenterRepository struct {
	db *gorm.DB
}

func NewCostCenterRepository(db *gorm.DB) CostCenterRepository {
	return &costCenterRepository{db: db}
}

func (r *costCenterRepository) Create(ctx context.Context, cc *model.CostCenter) error {
	return GetDB(ctx, r.db).Create(cc).Error
}

func (r *costCenterRepository) Update(ctx context.Context, cc *model.CostCenter) error {
	return GetDB(ctx, r.db).Save(cc).Error
}

func (r *costCenterRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.CostCenter{})
	return res.RowsAffected, res.Error
}

func (r *costCenterRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CostCenter, error) {
	var cc model.CostCenter
	if err := GetDB(ctx, r.db).First(&cc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cc, nil
}

func (r *costCenterRepository) FindByCode(ctx context.Context, code string) (*model.CostCenter, error) {
	var cc model.CostCenter
	if err := GetDB(ctx, r.db).First(&cc, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &cc, nil
}

func (r *costCenterRepository) List(ctx context.Context, search string) ([]model.CostCenter, error) {
	var centers []model.CostCenter
	query := GetDB(ctx, r.db).Model(&model.CostCenter{})
	if search != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(search))
	}
	if err := query.Order("name ASC").Find(&centers).Error; err != nil {
		return nil, err
	}
	return centers, nil
}

func (r *costCenterRepository) FindIDsByName(ctx context.Context, fragment string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.CostCenter{}).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(fragment)).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// likePattern builds a lower-cased substring pattern with LIKE wildcards escaped
func likePattern(fragment string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(fragment))
	return "%" + escaped + "%"
}
