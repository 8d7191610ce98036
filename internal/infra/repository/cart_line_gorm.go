package repository

import (
	"context"
	"errors"

	"cartservice/internal/domain/model"
	repo "cartservice/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartLineGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartLineGormRepository(db *gorm.DB) *CartLineGormRepository {
	return &CartLineGormRepository{db: db}
}

// カート明細を一覧取得
func (r *CartLineGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartLine, error) {
	var lines []model.CartLine

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&lines).Error; err != nil {
		return []model.CartLine{}, err
	}
	return lines, nil
}

// 複数カートの明細をまとめて取得
func (r *CartLineGormRepository) ListByCartIDs(ctx context.Context, cartIDs []int64) ([]model.CartLine, error) {
	if len(cartIDs) == 0 {
		return []model.CartLine{}, nil
	}

	var lines []model.CartLine
	if err := r.db.WithContext(ctx).
		Where("cart_id IN ?", cartIDs).
		Order("cart_id asc").Order("id asc").
		Find(&lines).Error; err != nil {
		return []model.CartLine{}, err
	}
	return lines, nil
}

// 明細を取得
func (r *CartLineGormRepository) FindByID(ctx context.Context, lineID int64) (model.CartLine, error) {
	var line model.CartLine

	err := r.db.WithContext(ctx).
		Where("id = ?", lineID).
		First(&line).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartLine{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartLine{}, err
	}
	return line, nil
}

// 同一カート・同一商品の明細（Tx内では行ロック）
func (r *CartLineGormRepository) FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartLine, error) {
	var line model.CartLine

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Order("id asc").
		First(&line).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartLine{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartLine{}, err
	}
	return line, nil
}

func (r *CartLineGormRepository) Create(ctx context.Context, line model.CartLine) (model.CartLine, error) {
	line.ID = 0
	if err := r.db.WithContext(ctx).Create(&line).Error; err != nil {
		return model.CartLine{}, wrapf(err, "create cart line (cart %d, product %d)", line.CartID, line.ProductID)
	}
	return line, nil
}

// 明細を丸ごと保存
func (r *CartLineGormRepository) Save(ctx context.Context, line model.CartLine) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("id = ?", line.ID).
		Updates(map[string]any{
			"product_name":        line.ProductName,
			"product_description": line.ProductDescription,
			"quantity":            line.Quantity,
			"price":               line.Price,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// まとめて保存（スナップショット更新用）
func (r *CartLineGormRepository) SaveAll(ctx context.Context, lines []model.CartLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := NewCartLineGormRepository(tx)
		for _, l := range lines {
			if err := inner.Save(ctx, l); err != nil {
				return wrapf(err, "save cart line %d", l.ID)
			}
		}
		return nil
	})
}

// 明細の数量を更新
func (r *CartLineGormRepository) UpdateQuantity(ctx context.Context, lineID int64, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("id = ?", lineID).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除
func (r *CartLineGormRepository) DeleteByID(ctx context.Context, lineID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartLine{}, lineID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 指定カートの明細を全削除（0件でもエラーにしない）
func (r *CartLineGormRepository) DeleteByCartID(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartLine{}).Error
}
