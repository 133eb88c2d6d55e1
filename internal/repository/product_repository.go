package repository

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索（公開商品のみ）
type ProductListQuery struct {
	Category *model.Category
	SellerID *int64
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
}
