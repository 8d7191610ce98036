package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cartservice/internal/domain/model"
	repo "cartservice/internal/repository"

	"go.uber.org/zap"
)

// 放置カートとみなすまでの日数
const AbandonAfterDays = 1

// 放置カート通知1回あたりの上限
const DefaultReportTimeout = 5 * time.Second

// CartManager はカートのライフサイクル（作成・明細追加・空にする・放置検出）を扱う。
// 書き込みは TransactionManager 経由で1ユースケース1トランザクション。
type CartManager struct {
	tx       repo.TransactionManager
	carts    repo.CartRepository
	lines    repo.CartLineRepository
	catalog  CatalogClient
	reporter AbandonedReporter
	clock    Clock
	log      *zap.Logger

	refresh RefreshPolicy

	reportTimeout time.Duration
	reportWG      sync.WaitGroup
	reportMu      sync.Mutex
	reported      map[int64]time.Time // cartID -> 通知したときの updatedAt
}

type CartManagerOption func(*CartManager)

func WithRefreshPolicy(p RefreshPolicy) CartManagerOption {
	return func(m *CartManager) { m.refresh = p }
}

func WithAbandonedReporter(r AbandonedReporter) CartManagerOption {
	return func(m *CartManager) { m.reporter = r }
}

func WithReportTimeout(d time.Duration) CartManagerOption {
	return func(m *CartManager) {
		if d > 0 {
			m.reportTimeout = d
		}
	}
}

func WithClock(c Clock) CartManagerOption {
	return func(m *CartManager) { m.clock = c }
}

func WithLogger(l *zap.Logger) CartManagerOption {
	return func(m *CartManager) {
		if l != nil {
			m.log = l
		}
	}
}

func NewCartManager(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	lines repo.CartLineRepository,
	catalog CatalogClient,
	opts ...CartManagerOption,
) *CartManager {
	m := &CartManager{
		tx:      tx,
		carts:   carts,
		lines:   lines,
		catalog: catalog,
		clock:   SystemClock{},
		log:     zap.NewNop(),
		refresh: RefreshSkipMissing,

		reportTimeout: DefaultReportTimeout,
		reported:      map[int64]time.Time{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadCart はカートと明細を読み込む。
func (m *CartManager) LoadCart(ctx context.Context, cartID int64) (model.Cart, error) {
	cart, err := findCart(ctx, m.carts, cartID)
	if err != nil {
		return model.Cart{}, err
	}

	lines, err := m.lines.ListByCartID(ctx, cartID)
	if err != nil {
		return model.Cart{}, fmt.Errorf("list cart lines: %w", err)
	}
	cart.Lines = lines
	return cart, nil
}

// ListCarts は全カートを明細付きで返す。
func (m *CartManager) ListCarts(ctx context.Context) ([]model.Cart, error) {
	carts, err := m.carts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	if err := m.attachLines(ctx, carts); err != nil {
		return nil, err
	}
	return carts, nil
}

// EnsureSingleCartPerUser は既にカートを持つユーザーなら ErrDuplicateCart。
func (m *CartManager) EnsureSingleCartPerUser(ctx context.Context, userID int64) error {
	_, err := m.carts.FindByUserID(ctx, userID)
	if err == nil {
		return fmt.Errorf("%w: user %d", model.ErrDuplicateCart, userID)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("find cart by user: %w", err)
}

// CreateCart は空のカートを作る。
func (m *CartManager) CreateCart(ctx context.Context, userID int64) (model.Cart, error) {
	if err := m.EnsureSingleCartPerUser(ctx, userID); err != nil {
		return model.Cart{}, err
	}

	cart := model.Cart{UserID: userID}
	cart.Touch(m.clock.Now())

	created, err := m.carts.Create(ctx, cart)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateCart) {
			return model.Cart{}, fmt.Errorf("%w: user %d", model.ErrDuplicateCart, userID)
		}
		return model.Cart{}, fmt.Errorf("create cart: %w", err)
	}
	created.Lines = []model.CartLine{}
	return created, nil
}

// AddOrMergeLine は同じ商品の明細があれば数量を足し、無ければ新しく追加する。
func (m *CartManager) AddOrMergeLine(ctx context.Context, candidate model.CartLine) (model.CartLine, error) {
	var out model.CartLine

	err := m.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := findCart(ctx, r.Carts(), candidate.CartID)
		if err != nil {
			return err
		}

		existing, err := r.CartLines().FindByCartAndProduct(ctx, candidate.CartID, candidate.ProductID)
		switch {
		case err == nil:
			existing.Quantity += candidate.Quantity
			if err := r.CartLines().Save(ctx, existing); err != nil {
				return fmt.Errorf("save cart line: %w", err)
			}
			out = existing
		case errors.Is(err, repo.ErrNotFound):
			created, err := r.CartLines().Create(ctx, candidate)
			if err != nil {
				return err
			}
			out = created
		default:
			return fmt.Errorf("find cart line: %w", err)
		}

		cart.Touch(m.clock.Now())
		return r.Carts().Save(ctx, cart)
	})
	if err != nil {
		return model.CartLine{}, err
	}
	return out, nil
}

// RefreshLineSnapshots は明細の名前・説明・価格をカタログの最新値で上書きして保存する。
func (m *CartManager) RefreshLineSnapshots(ctx context.Context, cart *model.Cart) error {
	if len(cart.Lines) == 0 {
		return nil
	}

	products, err := m.catalog.GetProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return err
	}
	byID := model.IndexProducts(products)

	for i := range cart.Lines {
		p, ok := byID[cart.Lines[i].ProductID]
		if !ok {
			if m.refresh == RefreshFailMissing {
				return fmt.Errorf("%w: product %d in cart %d", model.ErrProductNotFound, cart.Lines[i].ProductID, cart.ID)
			}
			// カタログに無い商品は古いスナップショットのまま
			continue
		}
		cart.Lines[i].ApplySnapshot(p)
	}

	if err := m.lines.SaveAll(ctx, cart.Lines); err != nil {
		return fmt.Errorf("save cart lines: %w", err)
	}
	return nil
}

// EmptyCart は明細を全削除して更新日を打つ。カート自体は残す。
func (m *CartManager) EmptyCart(ctx context.Context, cartID int64) (model.Cart, error) {
	var out model.Cart

	err := m.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := findCart(ctx, r.Carts(), cartID)
		if err != nil {
			return err
		}

		if err := r.CartLines().DeleteByCartID(ctx, cartID); err != nil {
			return fmt.Errorf("delete cart lines: %w", err)
		}
		cart.Lines = []model.CartLine{}
		cart.Touch(m.clock.Now())

		if err := r.Carts().Save(ctx, cart); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		out = cart
		return nil
	})
	if err != nil {
		return model.Cart{}, err
	}
	return out, nil
}

// UpdateLineQuantity は明細の数量を置き換える（在庫チェックは呼び出し側）。
func (m *CartManager) UpdateLineQuantity(ctx context.Context, line model.CartLine, qty int) (model.CartLine, error) {
	if qty <= 0 {
		return model.CartLine{}, model.ErrInvalidQuantity
	}
	lineID := line.ID

	m.log.Info("updating cart line quantity", zap.Int64("line_id", lineID), zap.Int("quantity", qty))

	err := m.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := findCart(ctx, r.Carts(), line.CartID)
		if err != nil {
			return err
		}
		if err := r.CartLines().UpdateQuantity(ctx, lineID, qty); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("%w: id %d", model.ErrCartLineNotFound, lineID)
			}
			return fmt.Errorf("update quantity: %w", err)
		}
		cart.Touch(m.clock.Now())
		return r.Carts().Save(ctx, cart)
	})
	if err != nil {
		return model.CartLine{}, err
	}

	line.Quantity = qty
	m.log.Info("cart line quantity updated", zap.Int64("line_id", lineID), zap.Int("quantity", qty))
	return line, nil
}

// RemoveLine は明細を削除し、削除した明細を返す。
func (m *CartManager) RemoveLine(ctx context.Context, lineID int64) (model.CartLine, error) {
	m.log.Info("removing cart line", zap.Int64("line_id", lineID))

	line, err := m.FindLine(ctx, lineID)
	if err != nil {
		return model.CartLine{}, err
	}

	err = m.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.CartLines().DeleteByID(ctx, lineID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("%w: id %d", model.ErrCartLineNotFound, lineID)
			}
			return fmt.Errorf("delete cart line: %w", err)
		}

		cart, err := findCart(ctx, r.Carts(), line.CartID)
		if err != nil {
			return err
		}
		cart.Touch(m.clock.Now())
		return r.Carts().Save(ctx, cart)
	})
	if err != nil {
		return model.CartLine{}, err
	}
	return line, nil
}

// FindLine は明細を1件取得する。
func (m *CartManager) FindLine(ctx context.Context, lineID int64) (model.CartLine, error) {
	line, err := m.lines.FindByID(ctx, lineID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartLine{}, fmt.Errorf("%w: id %d", model.ErrCartLineNotFound, lineID)
	}
	if err != nil {
		return model.CartLine{}, fmt.Errorf("find cart line: %w", err)
	}
	return line, nil
}

// DetectAbandoned は updatedAt が threshold より前のカートを返す（参照のみ）。
func (m *CartManager) DetectAbandoned(ctx context.Context, threshold time.Time) ([]model.Cart, error) {
	threshold = model.DateOf(threshold)

	carts, err := m.carts.ListUpdatedBefore(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("list abandoned carts: %w", err)
	}

	day := threshold.Format(time.DateOnly)
	if len(carts) == 0 {
		m.log.Info("no abandoned carts found", zap.String("before", day))
		return carts, nil
	}

	m.log.Info("found abandoned carts", zap.Int("count", len(carts)), zap.String("before", day))
	for _, c := range carts {
		m.log.Debug("abandoned cart",
			zap.Int64("cart_id", c.ID),
			zap.String("updated_at", c.UpdatedAt.Format(time.DateOnly)),
		)
	}
	return carts, nil
}

// ListAbandoned は DetectAbandoned の結果に明細を付けて返す。
func (m *CartManager) ListAbandoned(ctx context.Context, threshold time.Time) ([]model.Cart, error) {
	carts, err := m.DetectAbandoned(ctx, threshold)
	if err != nil {
		return nil, err
	}
	if err := m.attachLines(ctx, carts); err != nil {
		return nil, err
	}
	return carts, nil
}

// SweepAbandoned は今日から AbandonAfterDays 日前を閾値に放置カートを検出して通知する。
// 見つかっても呼び出し元の処理は変えない。通知はリクエストの外で、未通知のカートだけ送る。
func (m *CartManager) SweepAbandoned(ctx context.Context) error {
	threshold := model.DateOf(m.clock.Now()).AddDate(0, 0, -AbandonAfterDays)

	carts, err := m.DetectAbandoned(ctx, threshold)
	if err != nil {
		return err
	}
	if m.reporter == nil {
		return nil
	}

	fresh := m.markReported(carts)
	if len(fresh) == 0 {
		return nil
	}

	m.reportWG.Add(1)
	go m.report(context.WithoutCancel(ctx), threshold, fresh)
	return nil
}

// WaitReports は送信中の放置カート通知が終わるまで待つ。
func (m *CartManager) WaitReports() {
	m.reportWG.Wait()
}

func (m *CartManager) report(ctx context.Context, threshold time.Time, carts []model.Cart) {
	defer m.reportWG.Done()

	ctx, cancel := context.WithTimeout(ctx, m.reportTimeout)
	defer cancel()

	err := m.attachLines(ctx, carts)
	if err == nil {
		err = m.reporter.ReportAbandoned(ctx, threshold, carts)
	}
	if err != nil {
		// 通知の失敗でユースケースは止めない。次の掃除で送り直す
		m.forgetReported(carts)
		m.log.Warn("report abandoned carts failed", zap.Error(err), zap.Int("count", len(carts)))
	}
}

// markReported は今回の放置カートを記録し、まだ通知していないものだけ返す。
// 放置でなくなったカートは記録から外れる。
func (m *CartManager) markReported(carts []model.Cart) []model.Cart {
	m.reportMu.Lock()
	defer m.reportMu.Unlock()

	next := make(map[int64]time.Time, len(carts))
	fresh := make([]model.Cart, 0, len(carts))
	for _, c := range carts {
		next[c.ID] = c.UpdatedAt
		if prev, ok := m.reported[c.ID]; ok && prev.Equal(c.UpdatedAt) {
			continue
		}
		fresh = append(fresh, c)
	}
	m.reported = next
	return fresh
}

func (m *CartManager) forgetReported(carts []model.Cart) {
	m.reportMu.Lock()
	defer m.reportMu.Unlock()

	for _, c := range carts {
		if prev, ok := m.reported[c.ID]; ok && prev.Equal(c.UpdatedAt) {
			delete(m.reported, c.ID)
		}
	}
}

func (m *CartManager) attachLines(ctx context.Context, carts []model.Cart) error {
	if len(carts) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(carts))
	for _, c := range carts {
		ids = append(ids, c.ID)
	}

	lines, err := m.lines.ListByCartIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("list cart lines: %w", err)
	}

	byCart := make(map[int64][]model.CartLine, len(carts))
	for _, l := range lines {
		byCart[l.CartID] = append(byCart[l.CartID], l)
	}
	for i := range carts {
		carts[i].Lines = byCart[carts[i].ID]
		if carts[i].Lines == nil {
			carts[i].Lines = []model.CartLine{}
		}
	}
	return nil
}

func findCart(ctx context.Context, carts repo.CartRepository, cartID int64) (model.Cart, error) {
	cart, err := carts.FindByID(ctx, cartID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, fmt.Errorf("%w: id %d", model.ErrCartNotFound, cartID)
	}
	if err != nil {
		return model.Cart{}, fmt.Errorf("find cart: %w", err)
	}
	return cart, nil
}
