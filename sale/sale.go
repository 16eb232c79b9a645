// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sale

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/tierstake/types"
)

func requireSaleAdmin(s *Sale, caller types.Address) error {
	if caller != s.Admin {
		return ErrNotSaleAdmin
	}
	return nil
}

// Approve opens the sale for deposits. Sale admin only.
func (f *Factory) Approve(caller types.Address, id uint64) error {
	return f.update("approve", id, func(s *Sale) error {
		if err := requireSaleAdmin(s, caller); err != nil {
			return err
		}
		s.Approved = true
		logger.Info("sale approved", "id", id)
		return nil
	})
}

// AddTokensForSale deposits amount of the asset from the sale admin and
// raises the hardcap by it.
func (f *Factory) AddTokensForSale(caller types.Address, id uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return f.update("add_tokens", id, func(s *Sale) error {
		if err := requireSaleAdmin(s, caller); err != nil {
			return err
		}
		if !s.Approved {
			return ErrNotApproved
		}
		if s.Ended(f.clock()) {
			return ErrNotActive
		}
		asset, err := f.asset(s)
		if err != nil {
			return err
		}
		if err := asset.Escrow(caller, amount); err != nil {
			return errors.WithMessage(err, "deposit asset")
		}
		s.Hardcap.Add(s.Hardcap, amount)
		logger.Info("tokens added for sale", "id", id, "amount", amount, "hardcap", s.Hardcap)
		return nil
	})
}

// ChangePrice sets the price until the sale starts. Sale admin only.
func (f *Factory) ChangePrice(caller types.Address, id uint64, price *big.Int) error {
	if price == nil || price.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return f.update("change_price", id, func(s *Sale) error {
		if err := requireSaleAdmin(s, caller); err != nil {
			return err
		}
		if f.clock() >= s.Start {
			return ErrAlreadyStarted
		}
		s.Price = new(big.Int).Set(price)
		return nil
	})
}

// ChangeSaleAdmin hands the sale over. Sale admin only.
func (f *Factory) ChangeSaleAdmin(caller types.Address, id uint64, admin types.Address) error {
	if admin.IsZero() {
		return ErrZeroAddress
	}
	return f.update("change_sale_admin", id, func(s *Sale) error {
		if err := requireSaleAdmin(s, caller); err != nil {
			return err
		}
		if admin == s.Admin {
			return ErrSameAdmin
		}
		logger.Info("sale admin changed", "id", id, "from", s.Admin, "to", admin)
		s.Admin = admin
		return nil
	})
}

// Buy spends payment on the asset at the current price. The buyer's total
// purchase is capped by the limit of their stake tier. Returns the asset
// amount bought.
func (f *Factory) Buy(caller types.Address, id uint64, payment *big.Int) (amount *big.Int, err error) {
	if payment == nil || payment.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	err = f.update("buy", id, func(s *Sale) error {
		if !s.Active(f.clock()) {
			return ErrNotActive
		}
		amount = s.Quote(payment)
		if amount.Sign() == 0 {
			return ErrInvalidAmount
		}
		if new(big.Int).Add(s.Sold, amount).Cmp(s.Hardcap) > 0 {
			return ErrSoldOut
		}
		level, err := f.tiers.TierOf(caller)
		if err != nil {
			return errors.Wrap(err, "buyer tier")
		}
		p, err := f.getPurchase(id, caller)
		if err != nil {
			return err
		}
		if new(big.Int).Add(p.Bought, amount).Cmp(s.Limit(level)) > 0 {
			return ErrTierLimit
		}
		if err := f.payment.Escrow(caller, payment); err != nil {
			return errors.WithMessage(err, "escrow payment")
		}
		if p.Paid.Sign() == 0 {
			s.Participants++
		}
		p.Paid.Add(p.Paid, payment)
		p.Bought.Add(p.Bought, amount)
		s.Sold.Add(s.Sold, amount)
		s.Raised.Add(s.Raised, payment)
		return f.purchases.Set(purchaseKey{id, caller}, p)
	})
	if err != nil {
		return nil, err
	}
	metricPurchases().Add(1)
	logger.Debug("tokens bought", "id", id, "buyer", caller, "payment", payment, "amount", amount)
	return amount, nil
}

// WithdrawBoughtTokens pays the caller the asset bought in a sale that
// ended with its softcap reached.
func (f *Factory) WithdrawBoughtTokens(caller types.Address, id uint64) (amount *big.Int, err error) {
	err = f.settle("withdraw_tokens", caller, id, func(s *Sale, p *Purchase) error {
		if !s.Succeeded() {
			return ErrSoftcapMissed
		}
		if p.Bought.Sign() == 0 {
			return ErrInsufficientFunds
		}
		asset, err := f.asset(s)
		if err != nil {
			return err
		}
		amount = new(big.Int).Set(p.Bought)
		return errors.WithMessage(asset.Release(caller, amount), "release asset")
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("bought tokens withdrawn", "id", id, "buyer", caller, "amount", amount)
	return amount, nil
}

// WithdrawFunds refunds the caller's payment in a sale that ended without
// reaching its softcap.
func (f *Factory) WithdrawFunds(caller types.Address, id uint64) (refund *big.Int, err error) {
	err = f.settle("withdraw_funds", caller, id, func(s *Sale, p *Purchase) error {
		if s.Succeeded() {
			return ErrSoftcapReached
		}
		if p.Paid.Sign() == 0 {
			return ErrInsufficientFunds
		}
		refund = new(big.Int).Set(p.Paid)
		return errors.WithMessage(f.payment.Release(caller, refund), "refund payment")
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("funds refunded", "id", id, "buyer", caller, "amount", refund)
	return refund, nil
}

// settle runs fn for the caller's purchase of an ended sale and clears the
// purchase if fn succeeds.
func (f *Factory) settle(op string, caller types.Address, id uint64, fn func(s *Sale, p *Purchase) error) error {
	return f.exec(op, func() error {
		s, err := f.getSale(id)
		if err != nil {
			return err
		}
		if !s.Ended(f.clock()) {
			return ErrNotEnded
		}
		p, err := f.getPurchase(id, caller)
		if err != nil {
			return err
		}
		if err := fn(s, p); err != nil {
			return err
		}
		return f.purchases.Delete(purchaseKey{id, caller})
	})
}

// WithdrawSaleResult pays the sale admin once the sale has ended. A
// successful sale yields the raised payment and the unsold asset, a failed
// one returns the whole deposit. Sale admin only, once.
func (f *Factory) WithdrawSaleResult(caller types.Address, id uint64) (result *Result, err error) {
	err = f.update("withdraw_result", id, func(s *Sale) error {
		if err := requireSaleAdmin(s, caller); err != nil {
			return err
		}
		if !s.Ended(f.clock()) {
			return ErrNotEnded
		}
		if s.ResultWithdrawn {
			return ErrResultWithdrawn
		}
		asset, err := f.asset(s)
		if err != nil {
			return err
		}
		result = &Result{Proceeds: new(big.Int), Unsold: new(big.Int).Set(s.Hardcap)}
		if s.Succeeded() {
			result.Proceeds.Set(s.Raised)
			result.Unsold.Sub(s.Hardcap, s.Sold)
		}
		if result.Proceeds.Sign() > 0 {
			if err := f.payment.Release(caller, result.Proceeds); err != nil {
				return errors.WithMessage(err, "release proceeds")
			}
		}
		if result.Unsold.Sign() > 0 {
			if err := asset.Release(caller, result.Unsold); err != nil {
				return errors.WithMessage(err, "release unsold")
			}
		}
		s.ResultWithdrawn = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("sale result withdrawn", "id", id, "admin", caller, "proceeds", result.Proceeds, "unsold", result.Unsold)
	return result, nil
}
