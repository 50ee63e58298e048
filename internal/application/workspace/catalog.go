package workspace

import (
	"context"
	"errors"
	"fmt"

	"backoffice/internal/adapters/marketplace"
	"backoffice/internal/application/listutil"
	"backoffice/internal/application/listview"
	"backoffice/internal/domain/account"
	"backoffice/internal/domain/calendar"
	"backoffice/internal/domain/cooperator"
	"backoffice/internal/domain/coupon"
	"backoffice/internal/domain/place"
	"backoffice/internal/domain/record"
	"backoffice/internal/domain/schedule"
	"backoffice/internal/domain/service"
	"backoffice/internal/domain/servicetype"
)

// ErrUnknownEntity is returned for entity names outside the catalog.
var ErrUnknownEntity = errors.New("unknown entity")

// Entry binds an entity definition to the typed list controller that renders it.
type Entry struct {
	Def      record.Definition
	newTable func(c *marketplace.Client, opts listview.Options) listview.Table
}

// tableFor builds an Entry whose tables decode pages into T.
func tableFor[T record.Entity](def record.Definition) Entry {
	return Entry{
		Def: def,
		newTable: func(c *marketplace.Client, opts listview.Options) listview.Table {
			fetch := listview.FetchFunc[T](func(ctx context.Context, q listutil.ListQuery) (listutil.Result[T], error) {
				return marketplace.List[T](ctx, c, def.Resource, q)
			})
			return listview.New[T](fetch, opts)
		},
	}
}

var catalog = []Entry{
	tableFor[place.Place](place.Definition),
	tableFor[cooperator.Cooperator](cooperator.Definition),
	tableFor[service.Service](service.Definition),
	tableFor[servicetype.ServiceType](servicetype.Definition),
	tableFor[calendar.Calendar](calendar.Definition),
	tableFor[coupon.Coupon](coupon.Definition),
	tableFor[account.Account](account.Definition),
	tableFor[schedule.Schedule](schedule.Definition),
}

// Catalog returns every managed entity definition in navigation order.
func Catalog() []record.Definition {
	defs := make([]record.Definition, len(catalog))
	for i, e := range catalog {
		defs[i] = e.Def
	}
	return defs
}

// Lookup finds the catalog entry for an entity route name.
func Lookup(name string) (Entry, error) {
	for _, e := range catalog {
		if e.Def.Name == name {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
}
