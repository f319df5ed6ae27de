package dispatch

import (
	"sync"
	"time"
)

// Offer is a broadcast order a technician was asked to answer with their location.
type Offer struct {
	OrderID int64
	Region  string
	SentAt  time.Time
}

type PendingStore interface {
	Put(telegramID int64, offer Offer)
	// Take returns and forgets the technician's pending offer.
	Take(telegramID int64) (Offer, bool)
	Has(telegramID int64) bool
	// Awaits reports whether the technician still has an unanswered offer for the order.
	Awaits(telegramID, orderID int64) bool
	// Forget drops the technician's offer if it is for the order.
	Forget(telegramID, orderID int64)
	// DropOrder forgets every pending offer for the order.
	DropOrder(orderID int64)
}

type MemoryPending struct {
	mu     sync.Mutex
	offers map[int64]Offer
}

func NewMemoryPending() *MemoryPending {
	return &MemoryPending{offers: make(map[int64]Offer)}
}

func (p *MemoryPending) Put(telegramID int64, offer Offer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offers[telegramID] = offer
}

func (p *MemoryPending) Take(telegramID int64) (Offer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	offer, ok := p.offers[telegramID]
	if ok {
		delete(p.offers, telegramID)
	}
	return offer, ok
}

func (p *MemoryPending) Has(telegramID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.offers[telegramID]
	return ok
}

func (p *MemoryPending) Awaits(telegramID, orderID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	offer, ok := p.offers[telegramID]
	return ok && offer.OrderID == orderID
}

func (p *MemoryPending) Forget(telegramID, orderID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if offer, ok := p.offers[telegramID]; ok && offer.OrderID == orderID {
		delete(p.offers, telegramID)
	}
}

func (p *MemoryPending) DropOrder(orderID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for tg, offer := range p.offers {
		if offer.OrderID == orderID {
			delete(p.offers, tg)
		}
	}
}
