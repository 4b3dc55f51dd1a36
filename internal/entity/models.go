package entity

import (
	"time"
)

// Review is a customer review attached to a product. Reviews are append-only:
// nothing in the system edits or deletes one once written.
type Review struct {
	ID       string `json:"id"`
	Reviewer string `json:"reviewer"`
	Rating   int    `json:"rating"` // 1-5
	Comment  string `json:"comment"`
	Date     string `json:"date"`
}

// Product represents a catalog item. Prices travel as decimal strings, the
// same representation the admin surface writes; all arithmetic happens in the
// pricing package.
type Product struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Price           string   `json:"price"`
	OriginalPrice   string   `json:"original_price,omitempty"` // strike-through display
	Cost            string   `json:"cost,omitempty"`           // purchase price, admin-only
	Description     string   `json:"description,omitempty"`
	Images          []string `json:"images,omitempty"` // ordered, first is primary
	Category        string   `json:"category"`         // joins Category by name, not id
	Stock           int      `json:"stock"`
	WholesalePrice  string   `json:"wholesale_price,omitempty"`
	MinWholesaleQty int      `json:"min_wholesale_qty,omitempty"` // 0 = wholesale disabled
	AllowAddToCart  bool     `json:"allow_add_to_cart"`
	DiscountLabel   string   `json:"discount_label,omitempty"` // free text, displayed verbatim
	BestSeller      bool     `json:"best_seller"`
	Reviews         []Review `json:"reviews,omitempty"`
}

// PrimaryImage returns the first gallery image, or "" when the product has none.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Category is a catalog grouping. Products reference it by display name;
// deleting a category leaves those references dangling on purpose.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Billing is the per-tenant billing state the availability gate derives from.
type Billing struct {
	Suspended      bool       `json:"suspended"`
	Paid           bool       `json:"paid"`
	TrialStartedAt *time.Time `json:"trial_started_at,omitempty"`
}

// Settings is the tenant settings singleton.
type Settings struct {
	StoreName       string  `json:"store_name"`
	PrimaryColor    string  `json:"primary_color"`
	HeroImage       string  `json:"hero_image"`
	Favicon         string  `json:"favicon,omitempty"`
	SheetURL        string  `json:"sheet_url,omitempty"`
	TelegramChatID  string  `json:"telegram_chat_id"` // merchant notification channel
	PhoneNumber     string  `json:"phone_number,omitempty"`
	FacebookPixelID string  `json:"facebook_pixel_id,omitempty"`
	TikTokPixelID   string  `json:"tiktok_pixel_id,omitempty"`
	AdminPassword   string  `json:"admin_password,omitempty"`
	Billing         Billing `json:"billing"`
}

// DefaultSettings returns the settings used before the tenant has saved any.
func DefaultSettings() Settings {
	return Settings{
		StoreName:    "NEXT STORE",
		PrimaryColor: "#10b981",
		HeroImage:    "https://placehold.co/600x400/10b981/ffffff?text=Welcome",
	}
}

// PublicSettings is the settings view served to shoppers. Billing state and
// the admin passcode never leave the backend.
type PublicSettings struct {
	StoreName       string `json:"store_name"`
	PrimaryColor    string `json:"primary_color"`
	HeroImage       string `json:"hero_image"`
	Favicon         string `json:"favicon,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	FacebookPixelID string `json:"facebook_pixel_id,omitempty"`
	TikTokPixelID   string `json:"tiktok_pixel_id,omitempty"`
}

// Public strips the fields shoppers must not see.
func (s Settings) Public() PublicSettings {
	return PublicSettings{
		StoreName:       s.StoreName,
		PrimaryColor:    s.PrimaryColor,
		HeroImage:       s.HeroImage,
		Favicon:         s.Favicon,
		PhoneNumber:     s.PhoneNumber,
		FacebookPixelID: s.FacebookPixelID,
		TikTokPixelID:   s.TikTokPixelID,
	}
}

// SettingsPatch is a partial settings update from the admin surface. Nil
// fields are left untouched.
type SettingsPatch struct {
	StoreName       *string `json:"store_name,omitempty"`
	PrimaryColor    *string `json:"primary_color,omitempty"`
	HeroImage       *string `json:"hero_image,omitempty"`
	Favicon         *string `json:"favicon,omitempty"`
	SheetURL        *string `json:"sheet_url,omitempty"`
	TelegramChatID  *string `json:"telegram_chat_id,omitempty"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	FacebookPixelID *string `json:"facebook_pixel_id,omitempty"`
	TikTokPixelID   *string `json:"tiktok_pixel_id,omitempty"`
	AdminPassword   *string `json:"admin_password,omitempty"`
}

// Apply merges the patch into s. Billing is deliberately not patchable from
// the admin surface; only the operator flips those flags.
func (p SettingsPatch) Apply(s *Settings) {
	if p.StoreName != nil {
		s.StoreName = *p.StoreName
	}
	if p.PrimaryColor != nil {
		s.PrimaryColor = *p.PrimaryColor
	}
	if p.HeroImage != nil {
		s.HeroImage = *p.HeroImage
	}
	if p.Favicon != nil {
		s.Favicon = *p.Favicon
	}
	if p.SheetURL != nil {
		s.SheetURL = *p.SheetURL
	}
	if p.TelegramChatID != nil {
		s.TelegramChatID = *p.TelegramChatID
	}
	if p.PhoneNumber != nil {
		s.PhoneNumber = *p.PhoneNumber
	}
	if p.FacebookPixelID != nil {
		s.FacebookPixelID = *p.FacebookPixelID
	}
	if p.TikTokPixelID != nil {
		s.TikTokPixelID = *p.TikTokPixelID
	}
	if p.AdminPassword != nil {
		s.AdminPassword = *p.AdminPassword
	}
}

// CartLine is a product snapshot taken at add-time plus a quantity. Later
// catalog edits never reach into an existing line.
type CartLine struct {
	Product Product `json:"product"`
	Qty     int     `json:"qty"`
}

// OrderStatusNew is the only status this service ever writes; everything past
// it belongs to fulfillment.
const OrderStatusNew = "New"

// Order is the write-once record appended at checkout. It is never mutated or
// deleted here.
type Order struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	DateLocal      string    `json:"date_local"`
	Status         string    `json:"status"`
	StoreName      string    `json:"store_name"`
	TelegramChatID string    `json:"telegram_id"`
	CustomerName   string    `json:"customer_name"`
	CustomerPhone  string    `json:"customer_phone"`
	CustomerCity   string    `json:"customer_city,omitempty"`
	ItemsSummary   string    `json:"items"` // flattened "Title (xN), ..." text
	Total          string    `json:"total"` // decimal string
	ShopSource     string    `json:"shop_source"`
}
