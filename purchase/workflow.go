package purchase

import (
	"context"
	"errors"
	"time"

	"storefront/cart"
	"storefront/events"
	"storefront/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the position of a commit in the purchase workflow.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateCommitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateValidating:
		return "Validating"
	case StateCommitting:
		return "Committing"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Catalog is the inventory side of a commit.
type Catalog interface {
	cart.StockLookup
	DecrementStock(productID string, amount int) error
	PersistCatalog(ctx context.Context) error
}

// Users records completed purchases.
type Users interface {
	AppendPurchase(user *model.User, rec model.PurchaseRecord)
	PersistUsers(ctx context.Context) error
}

// Workflow turns a validated cart into a purchase record.
// It holds no per-request state besides the last observed State.
type Workflow struct {
	catalog   Catalog
	users     Users
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
	state     State
}

func NewWorkflow(catalog Catalog, users Users, publisher events.Publisher, log *zap.Logger) *Workflow {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Workflow{
		catalog:   catalog,
		users:     users,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// State returns where the last Commit ended.
func (w *Workflow) State() State {
	return w.state
}

func (w *Workflow) fail(err error) (*model.PurchaseRecord, error) {
	w.state = StateFailed
	return nil, err
}

// Commit validates c against live stock, decrements inventory, appends a
// record to user and clears c.
//
// Nothing is modified when an error other than a persistence failure is
// returned. A persistence failure comes back together with the committed
// record: stock, history and cart are already updated in memory.
func (w *Workflow) Commit(ctx context.Context, c *cart.Cart, user *model.User) (*model.PurchaseRecord, error) {
	w.state = StateIdle
	if c.IsEmpty() {
		return w.fail(cart.ErrEmptyCart)
	}
	if user == nil {
		return w.fail(cart.ErrNoUser)
	}

	w.state = StateValidating
	if !c.ValidateQuantities(w.catalog) {
		w.log.Info("purchase rejected: insufficient stock", zap.String("username", user.Username))
		// Nothing was touched, so the workflow is back where it started.
		w.state = StateIdle
		return nil, cart.ErrInsufficientStock
	}

	total := c.FinalTotal(user)
	lines := c.Lines()
	items := make([]model.PurchasedItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.PurchasedItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Category:  l.Product.Category(),
			UnitPrice: l.Product.Price,
			Quantity:  l.Quantity,
		})
	}

	w.state = StateCommitting
	for _, it := range items {
		if err := w.catalog.DecrementStock(it.ProductID, it.Quantity); err != nil {
			// Product vanished between validation and commit; keep going.
			w.log.Warn("stock decrement skipped", zap.String("product_id", it.ProductID), zap.Error(err))
		}
	}

	rec := model.PurchaseRecord{
		ID:       uuid.NewString(),
		Username: user.Username,
		Items:    items,
		Total:    total,
		Date:     w.now(),
	}
	w.users.AppendPurchase(user, rec)
	c.Clear()
	w.state = StateDone
	w.log.Info("purchase committed",
		zap.String("purchase_id", rec.ID),
		zap.String("username", rec.Username),
		zap.Int("lines", len(items)),
		zap.String("total", total.StringFixed(2)))

	if err := w.persist(ctx); err != nil {
		w.log.Error("purchase not saved", zap.String("purchase_id", rec.ID), zap.Error(err))
		return &rec, cart.NewPersistenceFailure(err)
	}

	if err := w.publisher.PublishEvent(ctx, events.TopicPurchaseCompleted, rec.ID, events.FromRecord(rec)); err != nil {
		w.log.Warn("purchase event not published", zap.String("purchase_id", rec.ID), zap.Error(err))
	}
	return &rec, nil
}

// persist saves users and catalog. Both are attempted even when one fails.
func (w *Workflow) persist(ctx context.Context) error {
	return errors.Join(w.users.PersistUsers(ctx), w.catalog.PersistCatalog(ctx))
}
