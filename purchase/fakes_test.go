package purchase

import (
	"context"
	"errors"

	"storefront/model"
)

type fakeCatalog struct {
	products   map[string]*model.Product
	decrements map[string]int
	persisted  int
	persistErr error
}

func newFakeCatalog(products ...*model.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[string]*model.Product), decrements: make(map[string]int)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) AvailableStock(id string) (int, bool) {
	p, ok := c.products[id]
	if !ok {
		return 0, false
	}
	return p.Stock, true
}

func (c *fakeCatalog) DecrementStock(id string, amount int) error {
	p, ok := c.products[id]
	if !ok {
		return errors.New("product not found: " + id)
	}
	c.decrements[id] += amount
	p.Stock = max(0, p.Stock-amount)
	return nil
}

func (c *fakeCatalog) PersistCatalog(context.Context) error {
	if c.persistErr != nil {
		return c.persistErr
	}
	c.persisted++
	return nil
}

type fakeUsers struct {
	persisted  int
	persistErr error
}

func (u *fakeUsers) AppendPurchase(user *model.User, rec model.PurchaseRecord) {
	user.Purchases = append(user.Purchases, rec)
}

func (u *fakeUsers) PersistUsers(context.Context) error {
	if u.persistErr != nil {
		return u.persistErr
	}
	u.persisted++
	return nil
}

type publishedEvent struct {
	topic string
	key   string
	event any
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{topic, key, event})
	return nil
}

func (p *fakePublisher) Close() error { return nil }
