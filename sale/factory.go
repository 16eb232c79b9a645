// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package sale runs token sales gated by stake tiers. Sellers deposit an
// asset, buyers pay in the primary token up to the cap of their tier, and
// once the sale ends buyers collect their tokens, or their payment back if
// the softcap was missed.
package sale

import (
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/tierstake/log"
	"github.com/vechain/tierstake/metrics"
	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/types"
)

var (
	logger = log.WithContext("pkg", "sale")

	metricPurchases  = metrics.LazyLoadCounter("sale_purchases_count")
	metricFailures   = metrics.LazyLoadCounterVec("sale_failures_count", []string{"op"})
	metricOpDuration = metrics.LazyLoadHistogramVec("sale_op_duration_us", []string{"op"}, metrics.BucketLedgerOps)

	slotAdmin     = types.BytesToBytes32([]byte("sale-admin"))
	slotCreators  = types.BytesToBytes32([]byte("sale-creators"))
	slotNextID    = types.BytesToBytes32([]byte("sale-next-id"))
	slotSales     = types.BytesToBytes32([]byte("sale-sales"))
	slotPurchases = types.BytesToBytes32([]byte("sale-purchases"))
)

// Factory creates and runs sales.
type Factory struct {
	sctx    *storage.Context
	clock   types.Clock
	tiers   Tiers
	payment Ledger
	assets  map[string]Asset

	admin     *storage.Raw[types.Address]
	creators  *storage.Mapping[types.Address, bool]
	nextID    *storage.Raw[uint64]
	sales     *storage.Mapping[storage.Uint64, *Sale]
	purchases *storage.Mapping[purchaseKey, *Purchase]
}

// New creates a factory over sctx. payment, the assets and tiers must use
// the same context.
func New(sctx *storage.Context, clock types.Clock, tiers Tiers, payment Ledger, assets map[string]Asset) *Factory {
	return &Factory{
		sctx:      sctx,
		clock:     clock,
		tiers:     tiers,
		payment:   payment,
		assets:    assets,
		admin:     storage.NewRaw[types.Address](sctx, slotAdmin),
		creators:  storage.NewMapping[types.Address, bool](sctx, slotCreators),
		nextID:    storage.NewRaw[uint64](sctx, slotNextID),
		sales:     storage.NewMapping[storage.Uint64, *Sale](sctx, slotSales),
		purchases: storage.NewMapping[purchaseKey, *Purchase](sctx, slotPurchases),
	}
}

// Initialize sets the factory admin.
func (f *Factory) Initialize(admin types.Address) error {
	if admin.IsZero() {
		return ErrZeroAddress
	}
	return f.sctx.Exec(func() error {
		cur, err := f.admin.Get()
		if err != nil {
			return errors.Wrap(err, "failed to get admin")
		}
		if !cur.IsZero() {
			return ErrAlreadyInitialized
		}
		logger.Info("sale factory initialized", "admin", admin, "assets", len(f.assets))
		return f.admin.Set(admin)
	})
}

func (f *Factory) Initialized() (ok bool, err error) {
	err = f.sctx.View(func() error {
		admin, err := f.admin.Get()
		ok = !admin.IsZero()
		return err
	})
	return
}

func (f *Factory) Admin() (admin types.Address, err error) {
	err = f.sctx.View(func() error {
		admin, err = f.requireInitialized()
		return err
	})
	return
}

// Count returns the number of sales created.
func (f *Factory) Count() (n uint64, err error) {
	err = f.sctx.View(func() error {
		n, err = f.nextID.Get()
		return err
	})
	return
}

// IsCreator reports whether account may create sales.
func (f *Factory) IsCreator(account types.Address) (ok bool, err error) {
	err = f.sctx.View(func() error {
		ok, err = f.creators.Get(account)
		return err
	})
	return
}

// ChangeAdmin hands the factory over. Admin only.
func (f *Factory) ChangeAdmin(caller, admin types.Address) error {
	if admin.IsZero() {
		return ErrZeroAddress
	}
	return f.exec("change_admin", func() error {
		if err := f.requireAdmin(caller); err != nil {
			return err
		}
		logger.Info("factory admin changed", "from", caller, "to", admin)
		return f.admin.Set(admin)
	})
}

// SetSaleCreator grants or revokes the right to create sales. Admin only.
func (f *Factory) SetSaleCreator(caller, creator types.Address, allowed bool) error {
	if creator.IsZero() {
		return ErrZeroAddress
	}
	return f.exec("set_creator", func() error {
		if err := f.requireAdmin(caller); err != nil {
			return err
		}
		logger.Info("sale creator set", "creator", creator, "allowed", allowed)
		return f.creators.Set(creator, allowed)
	})
}

// CreateSale registers a new sale and returns its id. The sale has to be
// approved by its admin before tokens can be deposited.
func (f *Factory) CreateSale(caller types.Address, p *Params) (id uint64, err error) {
	asset, ok := f.assets[p.Asset]
	if !ok {
		return 0, ErrUnknownAsset
	}
	if err := validate(p); err != nil {
		return 0, err
	}
	decimals, err := asset.Decimals()
	if err != nil {
		return 0, errors.Wrap(err, "asset decimals")
	}

	err = f.exec("create", func() error {
		if _, err := f.requireInitialized(); err != nil {
			return err
		}
		allowed, err := f.creators.Get(caller)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrNotCreator
		}
		id, err = f.nextID.Get()
		if err != nil {
			return err
		}
		if err := f.nextID.Set(id + 1); err != nil {
			return err
		}
		limits := make([]*big.Int, len(p.Limits))
		for i, l := range p.Limits {
			limits[i] = new(big.Int).Set(l)
		}
		return f.sales.Set(storage.Uint64(id), &Sale{
			Name:        p.Name,
			Asset:       p.Asset,
			Decimals:    decimals,
			Admin:       p.Admin,
			Softcap:     new(big.Int).Set(p.Softcap),
			Limits:      limits,
			Start:       p.Start,
			End:         p.End,
			Price:       new(big.Int).Set(p.Price),
			Description: p.Description,
			Hardcap:     new(big.Int),
			Sold:        new(big.Int),
			Raised:      new(big.Int),
		})
	})
	if err != nil {
		return 0, err
	}
	logger.Info("sale created", "id", id, "name", p.Name, "asset", p.Asset, "admin", p.Admin, "start", p.Start, "end", p.End)
	return id, nil
}

func validate(p *Params) error {
	switch {
	case p.Name == "":
		return errors.WithMessage(ErrInvalidParams, "name required")
	case p.Admin.IsZero():
		return errors.WithMessage(ErrInvalidParams, "admin required")
	case p.Softcap == nil || p.Softcap.Sign() < 0:
		return errors.WithMessage(ErrInvalidParams, "softcap")
	case p.Price == nil || p.Price.Sign() <= 0:
		return errors.WithMessage(ErrInvalidParams, "price")
	case p.Start >= p.End:
		return errors.WithMessage(ErrInvalidParams, "start must be before end")
	case len(p.Limits) == 0:
		return errors.WithMessage(ErrInvalidParams, "tier limits required")
	}
	for _, l := range p.Limits {
		if l == nil || l.Sign() < 0 {
			return errors.WithMessage(ErrInvalidParams, "tier limits")
		}
	}
	return nil
}

// GetSale returns the sale with the given id.
func (f *Factory) GetSale(id uint64) (sale *Sale, err error) {
	err = f.sctx.View(func() error {
		sale, err = f.getSale(id)
		return err
	})
	return
}

// GetPurchase returns what buyer paid and is owed in a sale.
func (f *Factory) GetPurchase(id uint64, buyer types.Address) (p *Purchase, err error) {
	err = f.sctx.View(func() error {
		if _, err := f.getSale(id); err != nil {
			return err
		}
		p, err = f.getPurchase(id, buyer)
		return err
	})
	return
}

//
// internals, callers hold the storage context
//

func (f *Factory) exec(op string, fn func() error) error {
	start := time.Now()
	defer func() {
		metricOpDuration().ObserveWithLabels(time.Since(start).Microseconds(), map[string]string{"op": op})
	}()
	if err := f.sctx.Exec(fn); err != nil {
		metricFailures().AddWithLabel(1, map[string]string{"op": op})
		return err
	}
	return nil
}

func (f *Factory) requireInitialized() (types.Address, error) {
	admin, err := f.admin.Get()
	if err != nil {
		return types.Address{}, errors.Wrap(err, "failed to get admin")
	}
	if admin.IsZero() {
		return types.Address{}, ErrNotInitialized
	}
	return admin, nil
}

func (f *Factory) requireAdmin(caller types.Address) error {
	admin, err := f.requireInitialized()
	if err != nil {
		return err
	}
	if caller != admin {
		return ErrNotAdmin
	}
	return nil
}

func (f *Factory) getSale(id uint64) (*Sale, error) {
	s, err := f.sales.Get(storage.Uint64(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sale")
	}
	if s.Admin.IsZero() {
		return nil, ErrSaleNotFound
	}
	return s.normalize(), nil
}

func (f *Factory) getPurchase(id uint64, buyer types.Address) (*Purchase, error) {
	p, err := f.purchases.Get(purchaseKey{id, buyer})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get purchase")
	}
	return p.normalize(), nil
}

// update loads the sale, runs fn and stores the sale if fn succeeds.
func (f *Factory) update(op string, id uint64, fn func(s *Sale) error) error {
	return f.exec(op, func() error {
		s, err := f.getSale(id)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		return f.sales.Set(storage.Uint64(id), s)
	})
}

func (f *Factory) asset(s *Sale) (Asset, error) {
	asset, ok := f.assets[s.Asset]
	if !ok {
		return nil, ErrUnknownAsset
	}
	return asset, nil
}
