// Package operations declares every backend operation the app performs as a
// request.Orchestrator: its parameters, validation, request and success side effect.
package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/arabah/arabah/apiclient"
	"github.com/arabah/arabah/request"
	"github.com/arabah/arabah/session"
)

// Operation names.
const (
	NameLogin            = "login"
	NameVerifyOTP        = "verify_otp"
	NameResendOTP        = "resend_otp"
	NameUpdateProfile    = "update_profile"
	NameHome             = "home"
	NameCategories       = "categories"
	NameCategoryProducts = "category_products"
	NameProductDetail    = "product_detail"
	NameFavorites        = "favorites"
	NameToggleFavorite   = "toggle_favorite"
	NameNotes            = "notes"
	NameCreateNote       = "create_note"
	NameDeleteNote       = "delete_note"
	NameRateProduct      = "rate_product"
	NameCreateTicket     = "create_ticket"
	NameTickets          = "tickets"
	NameNotifications    = "notifications"
	NameSetNotifications = "set_notifications"
	NameLogout           = "logout"
	NameDeleteAccount    = "delete_account"
)

// API is the subset of the backend client the operations call.
type API interface {
	Login(ctx context.Context, req apiclient.LoginRequest) (apiclient.User, error)
	VerifyOTP(ctx context.Context, req apiclient.VerifyOTPRequest) (apiclient.User, error)
	ResendOTP(ctx context.Context, userID string) error
	Home(ctx context.Context) (apiclient.Home, error)
	Categories(ctx context.Context) ([]apiclient.Category, error)
	CategoryProducts(ctx context.Context, categoryID string) ([]apiclient.Product, error)
	ProductDetail(ctx context.Context, productID string) (apiclient.ProductDetail, error)
	Favorites(ctx context.Context) ([]apiclient.Product, error)
	ToggleFavorite(ctx context.Context, productID string, like bool) (apiclient.FavoriteStatus, error)
	Notes(ctx context.Context) ([]apiclient.Note, error)
	CreateNote(ctx context.Context, text string) (apiclient.Note, error)
	DeleteNote(ctx context.Context, noteID string) error
	RateProduct(ctx context.Context, req apiclient.RatingRequest) (apiclient.Review, error)
	CreateTicket(ctx context.Context, req apiclient.TicketRequest) (apiclient.Ticket, error)
	Tickets(ctx context.Context) ([]apiclient.Ticket, error)
	UpdateProfile(ctx context.Context, req apiclient.ProfileUpdate) (apiclient.User, error)
	Notifications(ctx context.Context) ([]apiclient.Notification, error)
	SetNotifications(ctx context.Context, enabled bool) (apiclient.NotificationSettings, error)
	Logout(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

// Handle is the payload-independent view of one operation.
type Handle interface {
	Name() string
	Snapshot() request.Snapshot
	Attempts() int
	Watch(fn func(request.Snapshot)) *request.Subscription
	// Retry replays the operation's last accepted input.
	Retry(ctx context.Context) (request.Snapshot, error)
}

// Lister is an operation without input that can be re-run at any time.
type Lister interface {
	Handle
	Refresh(ctx context.Context) (request.Snapshot, error)
}

type handle[P, T any] struct {
	o *request.Orchestrator[P, T]
}

func (h handle[P, T]) Name() string { return h.o.Name() }

func (h handle[P, T]) Snapshot() request.Snapshot { return h.o.Snapshot() }

func (h handle[P, T]) Attempts() int { return h.o.Attempts() }

func (h handle[P, T]) Watch(fn func(request.Snapshot)) *request.Subscription {
	return h.o.Watch(fn)
}

func (h handle[P, T]) Retry(ctx context.Context) (request.Snapshot, error) {
	_, err := h.o.Retry(ctx)
	return h.o.Snapshot(), err
}

type lister[T any] struct {
	handle[NoParams, T]
}

func (l lister[T]) Refresh(ctx context.Context) (request.Snapshot, error) {
	_, err := l.o.Start(ctx, NoParams{})
	return l.o.Snapshot(), err
}

type options struct {
	logger          *slog.Logger
	recorder        request.Recorder
	maxAttempts     int
	memorizeInvalid bool
}

// Option configures the operation Set.
type Option func(*options)

// WithLogger sets a custom logger for every operation
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRecorder instruments every operation.
func WithRecorder(r request.Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithMaxAttempts overrides the retry bound of every operation.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}

// WithMemorizeInvalidInput makes login and profile editing remember input before it is
// validated, so a retry after a validation failure replays the rejected input.
func WithMemorizeInvalidInput() Option {
	return func(o *options) {
		o.memorizeInvalid = true
	}
}

// Set holds one orchestrator per operation.
type Set struct {
	Login            *request.Orchestrator[LoginParams, apiclient.User]
	VerifyOTP        *request.Orchestrator[VerifyOTPParams, apiclient.User]
	ResendOTP        *request.Orchestrator[ResendOTPParams, apiclient.Empty]
	UpdateProfile    *request.Orchestrator[ProfileParams, apiclient.User]
	Home             *request.Orchestrator[NoParams, apiclient.Home]
	Categories       *request.Orchestrator[NoParams, []apiclient.Category]
	CategoryProducts *request.Orchestrator[CategoryParams, []apiclient.Product]
	ProductDetail    *request.Orchestrator[ProductParams, apiclient.ProductDetail]
	Favorites        *request.Orchestrator[NoParams, []apiclient.Product]
	ToggleFavorite   *request.Orchestrator[FavoriteParams, apiclient.FavoriteStatus]
	Notes            *request.Orchestrator[NoParams, []apiclient.Note]
	CreateNote       *request.Orchestrator[NoteParams, apiclient.Note]
	DeleteNote       *request.Orchestrator[DeleteNoteParams, apiclient.Empty]
	RateProduct      *request.Orchestrator[RatingParams, apiclient.Review]
	CreateTicket     *request.Orchestrator[TicketParams, apiclient.Ticket]
	Tickets          *request.Orchestrator[NoParams, []apiclient.Ticket]
	Notifications    *request.Orchestrator[NoParams, []apiclient.Notification]
	SetNotifications *request.Orchestrator[NotificationParams, apiclient.NotificationSettings]
	Logout           *request.Orchestrator[NoParams, apiclient.Empty]
	DeleteAccount    *request.Orchestrator[NoParams, apiclient.Empty]

	api     API
	store   session.Store
	logger  *slog.Logger
	handles []Handle
	listers []Lister
	closers []func()
}

type builder struct {
	set  *Set
	opts []request.Option
	err  error
}

func register[P, T any](b *builder, cfg request.Config[P, T], extra ...request.Option) *request.Orchestrator[P, T] {
	if b.err != nil {
		return nil
	}
	o, err := request.New(cfg, slices.Concat(b.opts, extra)...)
	if err != nil {
		b.err = err
		return nil
	}
	b.set.handles = append(b.set.handles, handle[P, T]{o: o})
	b.set.closers = append(b.set.closers, o.Close)
	return o
}

func registerList[T any](b *builder, name string, fetch func(context.Context) (T, error)) *request.Orchestrator[NoParams, T] {
	o := register(b, request.Config[NoParams, T]{
		Name:    name,
		Request: func(ctx context.Context, _ NoParams) (T, error) { return fetch(ctx) },
	})
	if o != nil {
		b.set.listers = append(b.set.listers, lister[T]{handle[NoParams, T]{o: o}})
	}
	return o
}

// New creates every operation against api, keeping session state in store.
func New(api API, store session.Store, opts ...Option) (*Set, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Set{
		api:    api,
		store:  store,
		logger: o.logger.With("component", "operations"),
	}
	b := &builder{set: s, opts: []request.Option{request.WithLogger(o.logger)}}
	if o.recorder != nil {
		b.opts = append(b.opts, request.WithRecorder(o.recorder))
	}
	if o.maxAttempts > 0 {
		b.opts = append(b.opts, request.WithMaxAttempts(o.maxAttempts))
	}
	var memo []request.Option
	if o.memorizeInvalid {
		memo = append(memo, request.WithMemorizeBeforeValidation())
	}

	s.Login = register(b, request.Config[LoginParams, apiclient.User]{
		Name:     NameLogin,
		Validate: validateLogin,
		Request: func(ctx context.Context, p LoginParams) (apiclient.User, error) {
			return api.Login(ctx, apiclient.LoginRequest{CountryCode: p.CountryCode, PhoneNumber: p.PhoneNumber})
		},
		OnSuccess: storeUser[LoginParams](store),
	}, memo...)

	s.VerifyOTP = register(b, request.Config[VerifyOTPParams, apiclient.User]{
		Name:     NameVerifyOTP,
		Validate: validateVerifyOTP,
		Request: func(ctx context.Context, p VerifyOTPParams) (apiclient.User, error) {
			return api.VerifyOTP(ctx, apiclient.VerifyOTPRequest{UserID: p.UserID, OTP: p.OTP})
		},
		OnSuccess: storeUser[VerifyOTPParams](store),
	})

	s.ResendOTP = register(b, request.Config[ResendOTPParams, apiclient.Empty]{
		Name:     NameResendOTP,
		Validate: validateResendOTP,
		Request: func(ctx context.Context, p ResendOTPParams) (apiclient.Empty, error) {
			return apiclient.Empty{}, api.ResendOTP(ctx, p.UserID)
		},
	})

	s.UpdateProfile = register(b, request.Config[ProfileParams, apiclient.User]{
		Name:     NameUpdateProfile,
		Validate: validateProfile,
		Request: func(ctx context.Context, p ProfileParams) (apiclient.User, error) {
			return api.UpdateProfile(ctx, apiclient.ProfileUpdate{
				Name:        p.Name,
				Email:       p.Email,
				CountryCode: p.CountryCode,
				PhoneNumber: p.PhoneNumber,
				Image:       p.Image,
			})
		},
		OnSuccess: storeUser[ProfileParams](store),
	}, memo...)

	s.Home = registerList(b, NameHome, api.Home)
	s.Categories = registerList(b, NameCategories, api.Categories)

	s.CategoryProducts = register(b, request.Config[CategoryParams, []apiclient.Product]{
		Name:     NameCategoryProducts,
		Validate: validateCategory,
		Request: func(ctx context.Context, p CategoryParams) ([]apiclient.Product, error) {
			return api.CategoryProducts(ctx, p.CategoryID)
		},
	})

	s.ProductDetail = register(b, request.Config[ProductParams, apiclient.ProductDetail]{
		Name:     NameProductDetail,
		Validate: validateProduct,
		Request: func(ctx context.Context, p ProductParams) (apiclient.ProductDetail, error) {
			return api.ProductDetail(ctx, p.ProductID)
		},
	})

	s.Favorites = registerList(b, NameFavorites, api.Favorites)

	s.ToggleFavorite = register(b, request.Config[FavoriteParams, apiclient.FavoriteStatus]{
		Name:     NameToggleFavorite,
		Validate: validateFavorite,
		Request: func(ctx context.Context, p FavoriteParams) (apiclient.FavoriteStatus, error) {
			return api.ToggleFavorite(ctx, p.ProductID, p.Like)
		},
		OnSuccess: func(ctx context.Context, _ FavoriteParams, _ apiclient.FavoriteStatus) error {
			return refresh(ctx, s.Favorites)
		},
	})

	s.Notes = registerList(b, NameNotes, api.Notes)

	s.CreateNote = register(b, request.Config[NoteParams, apiclient.Note]{
		Name:     NameCreateNote,
		Validate: validateNote,
		Request: func(ctx context.Context, p NoteParams) (apiclient.Note, error) {
			return api.CreateNote(ctx, p.Text)
		},
		OnSuccess: func(ctx context.Context, _ NoteParams, _ apiclient.Note) error {
			return refresh(ctx, s.Notes)
		},
	})

	s.DeleteNote = register(b, request.Config[DeleteNoteParams, apiclient.Empty]{
		Name:     NameDeleteNote,
		Validate: validateDeleteNote,
		Request: func(ctx context.Context, p DeleteNoteParams) (apiclient.Empty, error) {
			return apiclient.Empty{}, api.DeleteNote(ctx, p.NoteID)
		},
		OnSuccess: func(ctx context.Context, _ DeleteNoteParams, _ apiclient.Empty) error {
			return refresh(ctx, s.Notes)
		},
	})

	s.RateProduct = register(b, request.Config[RatingParams, apiclient.Review]{
		Name:     NameRateProduct,
		Validate: validateRating,
		Request: func(ctx context.Context, p RatingParams) (apiclient.Review, error) {
			return api.RateProduct(ctx, apiclient.RatingRequest{ProductID: p.ProductID, Rating: p.Rating, Review: p.Review})
		},
	})

	s.CreateTicket = register(b, request.Config[TicketParams, apiclient.Ticket]{
		Name:     NameCreateTicket,
		Validate: validateTicket,
		Request: func(ctx context.Context, p TicketParams) (apiclient.Ticket, error) {
			return api.CreateTicket(ctx, apiclient.TicketRequest{Name: p.Name, Email: p.Email, Message: p.Message})
		},
	})

	s.Tickets = registerList(b, NameTickets, api.Tickets)
	s.Notifications = registerList(b, NameNotifications, api.Notifications)

	s.SetNotifications = register(b, request.Config[NotificationParams, apiclient.NotificationSettings]{
		Name: NameSetNotifications,
		Request: func(ctx context.Context, p NotificationParams) (apiclient.NotificationSettings, error) {
			return api.SetNotifications(ctx, p.Enabled)
		},
		OnSuccess: func(_ context.Context, _ NotificationParams, settings apiclient.NotificationSettings) error {
			profile, ok := store.Profile()
			if !ok {
				return nil
			}
			profile.NotificationsEnabled = settings.Enabled
			return store.SetProfile(profile)
		},
	})

	s.Logout = register(b, request.Config[NoParams, apiclient.Empty]{
		Name: NameLogout,
		Request: func(ctx context.Context, _ NoParams) (apiclient.Empty, error) {
			return apiclient.Empty{}, api.Logout(ctx)
		},
		OnSuccess: s.clearSession,
	})

	s.DeleteAccount = register(b, request.Config[NoParams, apiclient.Empty]{
		Name: NameDeleteAccount,
		Request: func(ctx context.Context, _ NoParams) (apiclient.Empty, error) {
			return apiclient.Empty{}, api.DeleteAccount(ctx)
		},
		OnSuccess: s.clearSession,
	})

	if b.err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create operations: %w", b.err)
	}
	s.logger.Debug("operations created", "count", len(s.handles))
	return s, nil
}

// refresh re-runs a list operation. A refresh already in flight is left to finish.
func refresh[T any](ctx context.Context, o *request.Orchestrator[NoParams, T]) error {
	_, err := o.Start(ctx, NoParams{})
	if errors.Is(err, request.ErrRequestInFlight) {
		return nil
	}
	return err
}

// storeUser keeps the returned account, and its token when the backend issued one.
func storeUser[P any](store session.Store) request.SideEffect[P, apiclient.User] {
	return func(_ context.Context, _ P, u apiclient.User) error {
		if u.Token != "" {
			if err := store.SetToken(u.Token); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}
		}
		if err := store.SetProfile(ProfileFromUser(u)); err != nil {
			return fmt.Errorf("failed to store profile: %w", err)
		}
		return nil
	}
}

func (s *Set) clearSession(context.Context, NoParams, apiclient.Empty) error {
	return s.store.Clear()
}

// ProfileFromUser converts the backend account to the stored profile.
func ProfileFromUser(u apiclient.User) session.Profile {
	return session.Profile{
		ID:                   u.ID,
		Name:                 u.Name,
		Email:                u.Email,
		CountryCode:          u.CountryCode,
		PhoneNumber:          u.PhoneNumber,
		Image:                u.Image,
		Language:             u.Language,
		NotificationsEnabled: u.NotificationsEnabled,
	}
}

// Each calls fn for every operation in declaration order.
func (s *Set) Each(fn func(Handle)) {
	for _, h := range s.handles {
		fn(h)
	}
}

// Get returns the operation called name.
func (s *Set) Get(name string) (Handle, bool) {
	for _, h := range s.handles {
		if h.Name() == name {
			return h, true
		}
	}
	return nil, false
}

// Lists returns the operations that take no input.
func (s *Set) Lists() []Lister {
	return slices.Clone(s.listers)
}

// Lister returns the input-free operation called name.
func (s *Set) Lister(name string) (Lister, bool) {
	for _, l := range s.listers {
		if l.Name() == name {
			return l, true
		}
	}
	return nil, false
}

// Session returns the store operations write to.
func (s *Set) Session() session.Store {
	return s.store
}

// Close releases every operation's observers.
func (s *Set) Close() {
	for _, c := range s.closers {
		c()
	}
}
