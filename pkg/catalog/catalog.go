// Package catalog holds the static pricing reference data of the billing
// engine: base plans, per-seat prices and the addon catalog. Catalog entries
// are immutable once loaded; mutable purchase state lives on the company's
// subscription, never here.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/oficaz/billing-engine/pkg/feature"
)

// PlanKey identifies a base subscription tier.
type PlanKey string

const (
	PlanBasic  PlanKey = "basic"
	PlanPro    PlanKey = "pro"
	PlanMaster PlanKey = "master"
	PlanOficaz PlanKey = "oficaz"
)

// Valid reports whether k is a known plan key.
func (k PlanKey) Valid() bool {
	switch k {
	case PlanBasic, PlanPro, PlanMaster, PlanOficaz:
		return true
	}
	return false
}

// SeatRole identifies a billable seat type beyond the plan's included seats.
type SeatRole string

const (
	SeatEmployee SeatRole = "employee"
	SeatManager  SeatRole = "manager"
	SeatAdmin    SeatRole = "admin"
)

// SeatRoles returns all billable seat roles in a stable order.
func SeatRoles() []SeatRole {
	return []SeatRole{SeatEmployee, SeatManager, SeatAdmin}
}

// Plan describes a base subscription tier and its default feature map.
// Paid-addon features listed in the default map are informational only; the
// feature resolver masks them out unless the addon is actually purchased.
type Plan struct {
	Key          PlanKey
	Name         string
	MonthlyPrice decimal.Decimal
	Features     feature.Set
}

// Addon is an individually billed catalog entry. Free-feature addons exist
// only to surface a description in the UI; their feature is always enabled.
type Addon struct {
	Key          string
	Name         string
	Feature      feature.Key
	MonthlyPrice decimal.Decimal
	FreeFeature  bool
}

var (
	ErrPlanNotFound    = errors.New("catalog: plan not found")
	ErrAddonNotFound   = errors.New("catalog: addon not found")
	ErrInvalidCatalog  = errors.New("catalog: invalid catalog definition")
	ErrUnknownSeatRole = errors.New("catalog: unknown seat role")
)

// Catalog is the validated, immutable pricing table.
type Catalog struct {
	plans      map[PlanKey]Plan
	addons     map[string]Addon
	seatPrices map[SeatRole]decimal.Decimal
}

// New builds a Catalog from its parts and validates internal consistency.
func New(plans []Plan, addons []Addon, seatPrices map[SeatRole]decimal.Decimal) (*Catalog, error) {
	c := &Catalog{
		plans:      make(map[PlanKey]Plan, len(plans)),
		addons:     make(map[string]Addon, len(addons)),
		seatPrices: make(map[SeatRole]decimal.Decimal, len(seatPrices)),
	}

	for _, p := range plans {
		if !p.Key.Valid() {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("unknown plan key %q", p.Key))
		}
		if p.MonthlyPrice.IsNegative() {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("plan %s has negative price", p.Key))
		}
		for k := range p.Features {
			if !k.Valid() {
				return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("plan %s references unknown feature %q", p.Key, k))
			}
		}
		if _, dup := c.plans[p.Key]; dup {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("duplicate plan %s", p.Key))
		}
		c.plans[p.Key] = p
	}

	for _, a := range addons {
		if a.Key == "" {
			return nil, errors.Join(ErrInvalidCatalog, errors.New("addon with empty key"))
		}
		if !a.Feature.Valid() {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("addon %s references unknown feature %q", a.Key, a.Feature))
		}
		if a.MonthlyPrice.IsNegative() {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("addon %s has negative price", a.Key))
		}
		if a.FreeFeature && !a.MonthlyPrice.IsZero() {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("free addon %s has non-zero price", a.Key))
		}
		if _, dup := c.addons[a.Key]; dup {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("duplicate addon %s", a.Key))
		}
		c.addons[a.Key] = a
	}

	for role, price := range seatPrices {
		switch role {
		case SeatEmployee, SeatManager, SeatAdmin:
		default:
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("unknown seat role %q", role))
		}
		if price.IsNegative() {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("seat role %s has negative price", role))
		}
		c.seatPrices[role] = price
	}

	return c, nil
}

// Plan returns the plan for the given key.
func (c *Catalog) Plan(key PlanKey) (Plan, error) {
	p, ok := c.plans[key]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// Addon returns the addon for the given key.
func (c *Catalog) Addon(key string) (Addon, error) {
	a, ok := c.addons[key]
	if !ok {
		return Addon{}, ErrAddonNotFound
	}
	return a, nil
}

// Addons returns all catalog addons sorted by key.
func (c *Catalog) Addons() []Addon {
	out := make([]Addon, 0, len(c.addons))
	for _, a := range c.addons {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// SeatPrice returns the monthly price of one extra seat for the given role.
func (c *Catalog) SeatPrice(role SeatRole) (decimal.Decimal, error) {
	p, ok := c.seatPrices[role]
	if !ok {
		return decimal.Decimal{}, ErrUnknownSeatRole
	}
	return p, nil
}

// PaidFeatureKeys lists features gated behind paid addons.
func (c *Catalog) PaidFeatureKeys() []feature.Key {
	var out []feature.Key
	for _, a := range c.Addons() {
		if !a.FreeFeature {
			out = append(out, a.Feature)
		}
	}
	return out
}

// FreeFeatureKeys lists features of free catalog addons.
func (c *Catalog) FreeFeatureKeys() []feature.Key {
	var out []feature.Key
	for _, a := range c.Addons() {
		if a.FreeFeature {
			out = append(out, a.Feature)
		}
	}
	return out
}
