package apiclient

import "time"

// Supported content languages.
const (
	LanguageEnglish = "en"
	LanguageArabic  = "ar"
)

// Localized is a bilingual text field.
type Localized struct {
	Default string `json:"default"`
	Arabic  string `json:"arabic,omitempty"`
}

// Pick returns the Arabic text for "ar" when there is one, and the default text otherwise.
func (l Localized) Pick(lang string) string {
	if lang == LanguageArabic && l.Arabic != "" {
		return l.Arabic
	}
	return l.Default
}

func (l Localized) String() string {
	return l.Default
}

// Empty is the payload of endpoints that return no body.
type Empty struct{}

// User is the account returned by the auth and profile endpoints.
type User struct {
	ID                   string `json:"_id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	CountryCode          string `json:"countryCode"`
	PhoneNumber          string `json:"phone"`
	Image                string `json:"image"`
	Language             string `json:"language"`
	NotificationsEnabled bool   `json:"notificationStatus"`
	Token                string `json:"token,omitempty"`
}

// LoginRequest starts a phone sign-in; the backend answers by sending an OTP.
type LoginRequest struct {
	CountryCode string `json:"countryCode"`
	PhoneNumber string `json:"phone"`
	DeviceToken string `json:"deviceToken,omitempty"`
	DeviceType  string `json:"deviceType,omitempty"`
}

// VerifyOTPRequest completes a sign-in.
type VerifyOTPRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

// Category is a product category.
type Category struct {
	ID         string `json:"_id"`
	Name       string `json:"categoryName"`
	NameArabic string `json:"categoryNameArabic"`
	Image      string `json:"image"`
}

// Title returns the bilingual category name.
func (c Category) Title() Localized {
	return Localized{Default: c.Name, Arabic: c.NameArabic}
}

// Price is one shop's price for a product.
type Price struct {
	ShopName   string    `json:"shopName"`
	ShopArabic string    `json:"shopNameArabic"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Product is a product as listed in home, category and favorite feeds.
type Product struct {
	ID                string  `json:"_id"`
	Name              string  `json:"name"`
	NameArabic        string  `json:"nameArabic"`
	Image             string  `json:"image"`
	CategoryID        string  `json:"categoryId"`
	LowestPrice       float64 `json:"lowestPrice"`
	AverageRating     float64 `json:"averageRating"`
	IsFavorite        bool    `json:"isLike"`
	Description       string  `json:"description,omitempty"`
	DescriptionArabic string  `json:"descriptionArabic,omitempty"`
}

// Title returns the bilingual product name.
func (p Product) Title() Localized {
	return Localized{Default: p.Name, Arabic: p.NameArabic}
}

// Summary returns the bilingual description.
func (p Product) Summary() Localized {
	return Localized{Default: p.Description, Arabic: p.DescriptionArabic}
}

// Banner is a promotional slot on the home screen.
type Banner struct {
	ID    string `json:"_id"`
	Image string `json:"image"`
	Link  string `json:"link,omitempty"`
}

// Home is the home screen feed.
type Home struct {
	Banners        []Banner   `json:"banners"`
	Categories     []Category `json:"categories"`
	LatestProducts []Product  `json:"latestProducts"`
}

// Review is one user's rating of a product.
type Review struct {
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductDetail is the product screen.
type ProductDetail struct {
	Product
	Prices  []Price   `json:"prices"`
	Reviews []Review  `json:"ratings"`
	Similar []Product `json:"similarProducts"`
}

// FavoriteStatus is the result of a like or dislike.
type FavoriteStatus struct {
	ProductID string `json:"productId"`
	Liked     bool   `json:"status"`
}

// Note is a user's shopping note.
type Note struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// RatingRequest rates a product.
type RatingRequest struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Review    string `json:"review,omitempty"`
}

// TicketRequest opens a support ticket.
type TicketRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Ticket is a support ticket.
type Ticket struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileUpdate changes the signed-in user's profile.
type ProfileUpdate struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	PhoneNumber string `json:"phone,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Notification is an inbox entry.
type Notification struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	TitleArabic   string    `json:"titleArabic"`
	Message       string    `json:"message"`
	MessageArabic string    `json:"messageArabic"`
	Read          bool      `json:"isRead"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Heading returns the bilingual notification title.
func (n Notification) Heading() Localized {
	return Localized{Default: n.Title, Arabic: n.TitleArabic}
}

// NotificationSettings toggles push notifications.
type NotificationSettings struct {
	Enabled bool `json:"notificationStatus"`
}
