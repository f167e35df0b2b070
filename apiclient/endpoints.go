package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// Login asks the backend to send an OTP to the given phone number. The returned user
// carries the id to verify against.
func (c *Client) Login(ctx context.Context, req LoginRequest) (User, error) {
	return call[User](ctx, c, http.MethodPost, "/api/auth/login", req)
}

// VerifyOTP exchanges an OTP for a session token.
func (c *Client) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (User, error) {
	return call[User](ctx, c, http.MethodPost, "/api/auth/verify-otp", req)
}

// ResendOTP sends a fresh OTP to the user.
func (c *Client) ResendOTP(ctx context.Context, userID string) error {
	return c.send(ctx, http.MethodPost, "/api/auth/resend-otp", map[string]string{"userId": userID}, nil)
}

func (c *Client) Home(ctx context.Context) (Home, error) {
	return get[Home](ctx, c, "/api/home")
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	return get[[]Category](ctx, c, "/api/categories")
}

func (c *Client) CategoryProducts(ctx context.Context, categoryID string) ([]Product, error) {
	return get[[]Product](ctx, c, "/api/categories/"+url.PathEscape(categoryID)+"/products")
}

func (c *Client) ProductDetail(ctx context.Context, productID string) (ProductDetail, error) {
	return get[ProductDetail](ctx, c, "/api/products/"+url.PathEscape(productID))
}

func (c *Client) Favorites(ctx context.Context) ([]Product, error) {
	return get[[]Product](ctx, c, "/api/favorites")
}

// ToggleFavorite likes or dislikes a product.
func (c *Client) ToggleFavorite(ctx context.Context, productID string, like bool) (FavoriteStatus, error) {
	return call[FavoriteStatus](ctx, c, http.MethodPost, "/api/favorites", map[string]any{
		"productId": productID,
		"status":    like,
	})
}

func (c *Client) Notes(ctx context.Context) ([]Note, error) {
	return get[[]Note](ctx, c, "/api/notes")
}

func (c *Client) CreateNote(ctx context.Context, text string) (Note, error) {
	return call[Note](ctx, c, http.MethodPost, "/api/notes", map[string]string{"text": text})
}

func (c *Client) DeleteNote(ctx context.Context, noteID string) error {
	return c.send(ctx, http.MethodDelete, "/api/notes/"+url.PathEscape(noteID), nil, nil)
}

// RateProduct submits a rating and returns the stored review.
func (c *Client) RateProduct(ctx context.Context, req RatingRequest) (Review, error) {
	return call[Review](ctx, c, http.MethodPost, "/api/products/"+url.PathEscape(req.ProductID)+"/ratings", req)
}

func (c *Client) CreateTicket(ctx context.Context, req TicketRequest) (Ticket, error) {
	return call[Ticket](ctx, c, http.MethodPost, "/api/support/tickets", req)
}

func (c *Client) Tickets(ctx context.Context) ([]Ticket, error) {
	return get[[]Ticket](ctx, c, "/api/support/tickets")
}

func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdate) (User, error) {
	return call[User](ctx, c, http.MethodPut, "/api/profile", req)
}

func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	return get[[]Notification](ctx, c, "/api/notifications")
}

func (c *Client) SetNotifications(ctx context.Context, enabled bool) (NotificationSettings, error) {
	return call[NotificationSettings](ctx, c, http.MethodPut, "/api/notifications/settings", NotificationSettings{Enabled: enabled})
}

func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.send(ctx, http.MethodDelete, "/api/account", nil, nil)
}
