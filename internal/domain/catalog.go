package domain

// Category groups products in the storefront navigation.
type Category struct {
	BaseModel
	Name string `gorm:"size:120;not null" json:"name"`
	Slug string `gorm:"size:160;uniqueIndex;not null" json:"slug"`
}

// Product is a sellable catalogue entry.
type Product struct {
	BaseModel
	Name               string   `gorm:"size:200;not null" json:"name"`
	Slug               string   `gorm:"size:220;uniqueIndex;not null" json:"slug"`
	CategoryID         string   `gorm:"size:36;index" json:"categoryId"`
	MRP                float64  `gorm:"not null" json:"mrp"`
	SellingPrice       float64  `gorm:"not null" json:"sellingPrice"`
	DiscountPercentage float64  `json:"discountPercentage"`
	Description        string   `gorm:"type:text" json:"description"`
	Media              []string `gorm:"serializer:json;type:text" json:"media"`
}

// Variant is a colour/size combination of a product with its own SKU and price.
type Variant struct {
	BaseModel
	ProductID          string   `gorm:"size:36;index;not null" json:"productId"`
	Color              string   `gorm:"size:60" json:"color"`
	Size               string   `gorm:"size:20" json:"size"`
	SKU                string   `gorm:"column:sku;size:80;uniqueIndex;not null" json:"sku"`
	MRP                float64  `gorm:"not null" json:"mrp"`
	SellingPrice       float64  `gorm:"not null" json:"sellingPrice"`
	DiscountPercentage float64  `json:"discountPercentage"`
	Media              []string `gorm:"serializer:json;type:text" json:"media"`
}

// Coupon is a discount code redeemable at checkout.
type Coupon struct {
	BaseModel
	Code               string  `gorm:"size:40;uniqueIndex;not null" json:"code"`
	DiscountPercentage float64 `gorm:"not null" json:"discountPercentage"`
	MinShoppingAmount  float64 `json:"minShoppingAmount"`
	Validity           string  `gorm:"size:40" json:"validity"`
}

// Review is a customer's rating of a product.
type Review struct {
	BaseModel
	ProductID  string `gorm:"size:36;index;not null" json:"productId"`
	CustomerID string `gorm:"size:36;index;not null" json:"customerId"`
	Rating     int    `gorm:"not null" json:"rating"`
	Title      string `gorm:"size:200" json:"title"`
	Review     string `gorm:"type:text" json:"review"`
}

// Customer is a storefront account as seen by the back office.
type Customer struct {
	BaseModel
	Name            string `gorm:"size:120;not null" json:"name"`
	Email           string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone           string `gorm:"size:40" json:"phone"`
	Address         string `gorm:"size:500" json:"address"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

// Media is an uploaded binary asset. AssetKey identifies the object in the
// external asset store; removing the row without removing the object leaks it.
type Media struct {
	BaseModel
	AssetKey     string `gorm:"size:255;not null" json:"assetKey"`
	SecureURL    string `gorm:"column:secure_url;size:1024" json:"secureUrl"`
	ThumbnailURL string `gorm:"column:thumbnail_url;size:1024" json:"thumbnailUrl"`
	Alt          string `gorm:"size:255" json:"alt"`
	Title        string `gorm:"size:255" json:"title"`
}

// TableName pins the table name to "media".
func (Media) TableName() string { return "media" }

// Models lists every resource model, in migration order.
func Models() []any {
	return []any{
		&Category{},
		&Product{},
		&Variant{},
		&Coupon{},
		&Customer{},
		&Review{},
		&Media{},
	}
}
