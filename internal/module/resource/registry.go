package resource

import (
	"fmt"
	"sort"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/query"
)

// Resource names, used as route segments and event subjects.
const (
	Categories = "categories"
	Products   = "products"
	Variants   = "variants"
	Coupons    = "coupons"
	Reviews    = "reviews"
	Customers  = "customers"
	Media      = "media"
)

var (
	idColumn        = query.Column{ID: "id", Field: "id"}
	createdAtColumn = query.Column{ID: "createdAt", Field: "created_at", Kind: query.KindTime}
	updatedAtColumn = query.Column{ID: "updatedAt", Field: "updated_at", Kind: query.KindTime}
	deletedAtColumn = query.Column{ID: "deletedAt", Field: "deleted_at", Kind: query.KindTime}
)

func withTimestamps(cols ...query.Column) []query.Column {
	out := append([]query.Column{idColumn}, cols...)
	return append(out, createdAtColumn, updatedAtColumn, deletedAtColumn)
}

func productJoin(name string) query.Join {
	return query.Join{Name: name, SourceField: "product_id", ForeignTable: "products", ForeignKey: "id", LabelField: "name"}
}

// Descriptors returns the back-office resources.
func Descriptors() []*query.Descriptor {
	return []*query.Descriptor{
		{
			Name:  Categories,
			Table: "categories",
			Columns: withTimestamps(
				query.Column{ID: "name", Field: "name"},
				query.Column{ID: "slug", Field: "slug"},
			),
			Search: []string{"name", "slug"},
		},
		{
			Name:  Products,
			Table: "products",
			Columns: withTimestamps(
				query.Column{ID: "name", Field: "name"},
				query.Column{ID: "slug", Field: "slug"},
				query.Column{ID: "category", Join: "category"},
				query.Column{ID: "mrp", Field: "mrp", Kind: query.KindNumber},
				query.Column{ID: "sellingPrice", Field: "selling_price", Kind: query.KindNumber},
				query.Column{ID: "discountPercentage", Field: "discount_percentage", Kind: query.KindNumber},
				query.Column{ID: "description", Field: "description", Heavy: true},
				query.Column{ID: "media", Field: "media", Kind: query.KindJSON, Heavy: true},
			),
			Search: []string{"name", "slug", "category", "mrp", "sellingPrice", "discountPercentage"},
			Joins: []query.Join{
				{Name: "category", SourceField: "category_id", ForeignTable: "categories", ForeignKey: "id", LabelField: "name"},
			},
		},
		{
			Name:  Variants,
			Table: "variants",
			Columns: withTimestamps(
				query.Column{ID: "product", Join: "product"},
				query.Column{ID: "color", Field: "color"},
				query.Column{ID: "size", Field: "size"},
				query.Column{ID: "sku", Field: "sku"},
				query.Column{ID: "mrp", Field: "mrp", Kind: query.KindNumber},
				query.Column{ID: "sellingPrice", Field: "selling_price", Kind: query.KindNumber},
				query.Column{ID: "discountPercentage", Field: "discount_percentage", Kind: query.KindNumber},
				query.Column{ID: "media", Field: "media", Kind: query.KindJSON, Heavy: true},
			),
			Search: []string{"color", "size", "sku", "product", "mrp", "sellingPrice", "discountPercentage"},
			Joins:  []query.Join{productJoin("product")},
		},
		{
			Name:  Coupons,
			Table: "coupons",
			Columns: withTimestamps(
				query.Column{ID: "code", Field: "code"},
				query.Column{ID: "discountPercentage", Field: "discount_percentage", Kind: query.KindNumber},
				query.Column{ID: "minShoppingAmount", Field: "min_shopping_amount", Kind: query.KindNumber},
				query.Column{ID: "validity", Field: "validity"},
			),
			Search: []string{"code", "discountPercentage", "minShoppingAmount"},
		},
		{
			Name:  Reviews,
			Table: "reviews",
			Columns: withTimestamps(
				query.Column{ID: "product", Join: "product"},
				query.Column{ID: "user", Join: "user"},
				query.Column{ID: "rating", Field: "rating", Kind: query.KindInteger},
				query.Column{ID: "title", Field: "title"},
				query.Column{ID: "review", Field: "review", Heavy: true},
			),
			Search: []string{"product", "user", "rating", "title", "review"},
			Joins: []query.Join{
				productJoin("product"),
				{Name: "user", SourceField: "customer_id", ForeignTable: "customers", ForeignKey: "id", LabelField: "name"},
			},
		},
		{
			Name:  Customers,
			Table: "customers",
			Columns: withTimestamps(
				query.Column{ID: "name", Field: "name"},
				query.Column{ID: "email", Field: "email"},
				query.Column{ID: "phone", Field: "phone"},
				query.Column{ID: "address", Field: "address"},
				query.Column{ID: "isEmailVerified", Field: "is_email_verified", Kind: query.KindBool},
			),
			Search: []string{"name", "email", "phone", "address"},
		},
		{
			Name:  Media,
			Table: "media",
			Columns: withTimestamps(
				query.Column{ID: "assetKey", Field: "asset_key"},
				query.Column{ID: "secureUrl", Field: "secure_url"},
				query.Column{ID: "thumbnailUrl", Field: "thumbnail_url"},
				query.Column{ID: "alt", Field: "alt"},
				query.Column{ID: "title", Field: "title"},
			),
			Search:     []string{"alt", "title"},
			AssetField: "asset_key",
		},
	}
}

// Registry resolves resource names to descriptors.
type Registry struct {
	byName map[string]*query.Descriptor
}

// NewRegistry validates descriptors and indexes them by name.
func NewRegistry(descs ...*query.Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]*query.Descriptor, len(descs))}
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate resource %q", d.Name)
		}
		r.byName[d.Name] = d
	}
	return r, nil
}

// DefaultRegistry returns the registry of all back-office resources.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Descriptors()...)
	if err != nil {
		panic("resource.DefaultRegistry: " + err.Error())
	}
	return r
}

// Lookup returns the descriptor for name, or NotFound.
func (r *Registry) Lookup(name string) (*query.Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, domain.NewAppError(domain.CodeNotFound, fmt.Sprintf("unknown resource %q", name), nil)
	}
	return d, nil
}

// Names returns the registered resource names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
