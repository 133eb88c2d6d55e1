package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

// 1注文の合計上限（ルピー）。paise換算でも int64 に収まる
const maxOrderTotal int64 = 1_000_000_000_000

// 1行あたりの数量上限
const MaxLineQuantity int64 = 10_000

// カートの1行。Title は表示用（エラーメッセージに使う）
type CartLine struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gte=1,max=10000"`
	Title     string `json:"title,omitempty"`
}

// 出品者ごとの内訳
type SellerSplit struct {
	SellerID   int64 `json:"sellerId"`
	Gross      int64 `json:"gross"`
	Commission int64 `json:"commission"`
	Earnings   int64 `json:"earnings"`
}

// 見積もり。Items は注文明細としてそのまま保存できる形
type Quote struct {
	Items            []model.OrderItem `json:"-"`
	TotalAmount      int64             `json:"totalAmount"`
	CommissionAmount int64             `json:"commissionAmount"`
	SellerEarnings   int64             `json:"sellerEarnings"`
	Sellers          []SellerSplit     `json:"sellers"`
}

type Pricer struct {
	products repo.ProductRepository
	rate     decimal.Decimal
}

func NewPricer(products repo.ProductRepository, commissionRate decimal.Decimal) *Pricer {
	return &Pricer{products: products, rate: commissionRate}
}

// Quote はカートを現在の商品情報で値付けする。在庫は読むだけで減らさない
func (p *Pricer) Quote(ctx context.Context, lines []CartLine) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, NewHTTPError(KindValidation, "cart is empty")
	}

	//同じ商品が複数行あれば合計数量で在庫を見る
	requested := make(map[int64]int64, len(lines))
	for i, l := range lines {
		if l.ProductID <= 0 {
			return Quote{}, NewHTTPError(KindValidation, fmt.Sprintf("cartItems[%d]: invalid productId", i))
		}
		if l.Quantity < 1 || l.Quantity > MaxLineQuantity {
			return Quote{}, NewHTTPError(KindValidation, fmt.Sprintf("cartItems[%d]: quantity must be between 1 and %d", i, MaxLineQuantity))
		}
	}

	products := make(map[int64]model.Product, len(lines))
	items := make([]model.OrderItem, 0, len(lines))
	total := decimal.Zero

	for _, l := range lines {
		prod, ok := products[l.ProductID]
		if !ok {
			found, err := p.products.FindByID(ctx, l.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return Quote{}, stockUnavailable(l, 0)
			}
			if err != nil {
				return Quote{}, dbError(err)
			}
			prod = found
			products[l.ProductID] = prod
		}

		if !prod.IsActive {
			return Quote{}, stockUnavailable(l, 0)
		}
		//足す前に残りと比べる（合計はオーバーフローさせない）
		if l.Quantity > prod.Stock-requested[l.ProductID] {
			return Quote{}, stockUnavailable(l, prod.Stock)
		}
		requested[l.ProductID] += l.Quantity

		items = append(items, model.OrderItem{
			ProductID:            prod.ID,
			SellerID:             prod.SellerID,
			ProductTitleSnapshot: prod.Title,
			Quantity:             l.Quantity,
			PriceAtPurchase:      prod.Price,
		})
		total = total.Add(decimal.NewFromInt(prod.Price).Mul(decimal.NewFromInt(l.Quantity)))
	}

	if total.GreaterThan(decimal.NewFromInt(maxOrderTotal)) {
		return Quote{}, NewHTTPError(KindValidation, "order total too large")
	}

	q := Quote{Items: items, TotalAmount: total.IntPart()}
	q.CommissionAmount, q.SellerEarnings = SplitCommission(q.TotalAmount, p.rate)
	q.Sellers = splitBySeller(items, p.rate, q.CommissionAmount)
	return q, nil
}

// SplitCommission は手数料（四捨五入）と出品者取り分を返す。
// commission + earnings == total は常に成り立つ
func SplitCommission(total int64, rate decimal.Decimal) (commission, earnings int64) {
	commission = decimal.NewFromInt(total).Mul(rate).Round(0).IntPart()
	return commission, total - commission
}

// 出品者ごとの手数料。切り捨て後、端数の大きい順に1ずつ配って合計を注文の手数料に合わせる
func splitBySeller(items []model.OrderItem, rate decimal.Decimal, commission int64) []SellerSplit {
	gross := map[int64]int64{}
	order := []int64{}
	for _, it := range items {
		if _, ok := gross[it.SellerID]; !ok {
			order = append(order, it.SellerID)
		}
		gross[it.SellerID] += it.LineTotal()
	}

	type share struct {
		idx  int
		frac decimal.Decimal
	}
	splits := make([]SellerSplit, len(order))
	shares := make([]share, len(order))
	var assigned int64
	for i, sellerID := range order {
		exact := decimal.NewFromInt(gross[sellerID]).Mul(rate)
		floor := exact.Floor()
		splits[i] = SellerSplit{SellerID: sellerID, Gross: gross[sellerID], Commission: floor.IntPart()}
		shares[i] = share{idx: i, frac: exact.Sub(floor)}
		assigned += floor.IntPart()
	}

	sort.SliceStable(shares, func(a, b int) bool {
		return shares[a].frac.GreaterThan(shares[b].frac)
	})
	for rest, k := commission-assigned, 0; rest > 0 && k < len(shares); rest, k = rest-1, k+1 {
		splits[shares[k].idx].Commission++
	}

	for i := range splits {
		splits[i].Earnings = splits[i].Gross - splits[i].Commission
	}
	return splits
}

func stockUnavailable(l CartLine, available int64) error {
	name := strings.TrimSpace(l.Title)
	if name == "" {
		name = fmt.Sprintf("product %d", l.ProductID)
	} else {
		name = fmt.Sprintf("%s (product %d)", name, l.ProductID)
	}
	return WithDetails(
		NewHTTPError(KindStockUnavailable, "Stock unavailable for "+name),
		map[string]int64{"productId": l.ProductID, "available": available},
	)
}
