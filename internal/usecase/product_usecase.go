package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

const defaultBreed = "Native"

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
	clock       Clock
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, tx repo.TransactionManager, clock Clock) *ProductUsecase {
	if clock == nil {
		clock = SystemClock()
	}
	return &ProductUsecase{
		productRepo: productRepo,
		tx:          tx,
		clock:       clock,
	}
}

// GET /products の絞り込み
type ListProductsInput struct {
	Category string
	SellerID *int64
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) ([]model.Product, error) {
	q := repo.ProductListQuery{SellerID: in.SellerID}
	if c := strings.TrimSpace(in.Category); c != "" {
		cat := model.Category(c)
		if !cat.Valid() {
			return nil, NewHTTPError(KindValidation, "invalid category")
		}
		q.Category = &cat
	}
	if in.SellerID != nil && *in.SellerID <= 0 {
		return nil, NewHTTPError(KindValidation, "invalid sellerId")
	}

	items, err := u.productRepo.ListPublic(ctx, q)
	if err != nil {
		return nil, dbError(err)
	}
	if items == nil {
		items = []model.Product{}
	}
	return items, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(KindValidation, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(KindNotFound, "Product not found")
	}
	if err != nil {
		return model.Product{}, dbError(err)
	}

	//非公開は見せない
	if !p.IsActive {
		return model.Product{}, NewHTTPError(KindNotFound, "Product not found")
	}
	return p, nil
}

type CreateProductInput struct {
	Title       string
	Description string
	Price       int64
	Category    string
	Images      []string
	Breed       string
	Weight      string
	Age         string
	Stock       *int64
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, identity model.Identity, in CreateProductInput) (model.Product, error) {
	if !identity.Authenticated() {
		return model.Product{}, NewHTTPError(KindUnauthorized, "unauthorized")
	}
	if identity.Role != model.RoleSeller && identity.Role != model.RoleAdmin {
		return model.Product{}, NewHTTPError(KindForbidden, "only sellers can add products")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > 100 {
		return model.Product{}, NewHTTPError(KindValidation, "title is required (max 100 chars)")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" || utf8.RuneCountInString(desc) > 1000 {
		return model.Product{}, NewHTTPError(KindValidation, "description is required (max 1000 chars)")
	}
	if in.Price < 0 {
		return model.Product{}, NewHTTPError(KindValidation, "price must be >= 0")
	}
	cat := model.Category(strings.TrimSpace(in.Category))
	if !cat.Valid() {
		return model.Product{}, NewHTTPError(KindValidation, "invalid category")
	}
	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		if s := strings.TrimSpace(img); s != "" {
			images = append(images, s)
		}
	}
	if len(images) == 0 {
		return model.Product{}, NewHTTPError(KindValidation, "at least one image is required")
	}
	stock := int64(1)
	if in.Stock != nil {
		stock = *in.Stock
	}
	if stock < 0 {
		return model.Product{}, NewHTTPError(KindValidation, "stock must be >= 0")
	}
	breed := strings.TrimSpace(in.Breed)
	if breed == "" {
		breed = defaultBreed
	}

	now := u.clock.Now()
	p, err := u.productRepo.Create(ctx, model.Product{
		Title:       title,
		Description: desc,
		Price:       in.Price,
		Category:    cat,
		Images:      images,
		Breed:       breed,
		Weight:      strings.TrimSpace(in.Weight),
		Age:         strings.TrimSpace(in.Age),
		SellerID:    identity.UserID,
		Stock:       stock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Product{}, dbError(err)
	}
	return p, nil
}

// 在庫を手動で設定する。出品者は自分の商品だけ、管理者はすべて
func (u *ProductUsecase) UpdateStock(ctx context.Context, identity model.Identity, productID int64, newStock int64, reason string) (model.Product, error) {
	if !identity.Authenticated() {
		return model.Product{}, NewHTTPError(KindUnauthorized, "unauthorized")
	}
	if identity.Role != model.RoleSeller && identity.Role != model.RoleAdmin {
		return model.Product{}, NewHTTPError(KindForbidden, "forbidden")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(KindValidation, "invalid product id")
	}
	if newStock < 0 {
		return model.Product{}, NewHTTPError(KindValidation, "stock must be >= 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.Product{}, NewHTTPError(KindValidation, "reason required")
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(KindNotFound, "Product not found")
		}
		if err != nil {
			return dbError(err)
		}
		if identity.Role == model.RoleSeller && p.SellerID != identity.UserID {
			return NewHTTPError(KindForbidden, "forbidden")
		}

		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(KindNotFound, "Product not found")
			}
			return dbError(err)
		}

		now := u.clock.Now()
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			ActorUserID: identity.UserID,
			Delta:       newStock - p.Stock,
			Reason:      reason,
			CreatedAt:   now,
		}); err != nil {
			return dbError(err)
		}

		//「誰が」「どの商品を」「どう変えたか」
		actor := identity.UserID
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  &actor,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, p.Stock),
			AfterJSON:    fmt.Sprintf(`{"stock":%d}`, newStock),
			CreatedAt:    now,
		}); err != nil {
			return dbError(err)
		}

		p.Stock = newStock
		p.UpdatedAt = now
		updated = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return updated, nil
}
