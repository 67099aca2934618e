package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/config"
	"github.com/stemsi/kodemy-backend/internal/database"
	"github.com/stemsi/kodemy-backend/internal/google"
	"github.com/stemsi/kodemy-backend/internal/middleware"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/payment"
	"github.com/stemsi/kodemy-backend/internal/quizstore"
	"github.com/stemsi/kodemy-backend/internal/repository"
	"github.com/stemsi/kodemy-backend/internal/service"
	"github.com/stemsi/kodemy-backend/internal/validator"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// ─── Fakes ────────────────────────────────────────────────────────────

type fakeGateway struct {
	createErr error
	verifyErr error
}

func (f *fakeGateway) CreateSession(tx payment.Transaction) (*payment.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &payment.Session{Token: "snap-token", RedirectURL: "https://pay.test/" + tx.OrderID}, nil
}

func (f *fakeGateway) VerifyNotification(n model.PaymentNotification) (*payment.NotificationStatus, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &payment.NotificationStatus{OrderID: n.OrderID, TransactionStatus: n.TransactionStatus, FraudStatus: n.FraudStatus}, nil
}

func (f *fakeGateway) CheckStatus(orderID string) (*payment.NotificationStatus, error) {
	return &payment.NotificationStatus{OrderID: orderID}, nil
}

type fakeGenerator struct {
	reply string
	err   error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string) (string, error) {
	return f.reply, f.err
}

type fakeIdentity struct{}

func (fakeIdentity) Verify(_ context.Context, token string) (*google.Identity, error) {
	if token != "good" {
		return nil, fmt.Errorf("bad token")
	}
	return &google.Identity{Name: "Google User", Email: "G@Example.com"}, nil
}

// fakeWatcher hands out one channel per order; tests push events into it.
type fakeWatcher struct {
	mu      sync.Mutex
	streams map[int]chan model.OrderStatusEvent
	stopped int
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{streams: map[int]chan model.OrderStatusEvent{}}
}

func (f *fakeWatcher) stream(orderID int) chan model.OrderStatusEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.streams[orderID]
	if !ok {
		ch = make(chan model.OrderStatusEvent, 4)
		f.streams[orderID] = ch
	}
	return ch
}

func (f *fakeWatcher) WatchOrderStatus(_ context.Context, orderID int) (<-chan model.OrderStatusEvent, func(), error) {
	return f.stream(orderID), func() {
		f.mu.Lock()
		f.stopped++
		f.mu.Unlock()
	}, nil
}

// ─── Environment ──────────────────────────────────────────────────────

type testEnv struct {
	t       *testing.T
	db      *gorm.DB
	engine  *gin.Engine
	auth    *service.AuthService
	users   repository.UserRepository
	orders  *service.OrderService
	gateway *fakeGateway
	gen     *fakeGenerator
	watcher *fakeWatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:h_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.NewSQLite(dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &config.Config{JWTSecret: "handler-secret", JWTExpiry: time.Hour, BcryptCost: 4}
	log := zerolog.Nop()

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	categories := repository.NewCategoryRepository(db)
	reviews := repository.NewReviewRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	env := &testEnv{
		t:       t,
		db:      db,
		users:   users,
		gateway: &fakeGateway{},
		gen:     &fakeGenerator{},
		watcher: newFakeWatcher(),
	}

	env.auth = service.NewAuthService(cfg, users, fakeIdentity{}, log)
	userService := service.NewUserService(users, log)
	courseService := service.NewCourseService(courses, categories, reviews, users, nil, log)
	env.orders = service.NewOrderService(orderRepo, courses, users, env.gateway, nil, nil, nil, log)

	store := quizstore.New(time.Minute, time.Minute, log)
	t.Cleanup(store.Close)
	quizService := service.NewQuizService(env.gen, store, log)

	authH := NewAuthHandler(env.auth, userService)
	courseH := NewCourseHandler(courseService)
	orderH := NewOrderHandler(env.orders, log)
	geminiH := NewGeminiHandler(quizService)
	wsH := NewWSHandler(env.orders, env.watcher, log, nil)
	sseH := NewSSEHandler(env.orders, env.watcher, log)

	r := gin.New()
	r.Use(middleware.ErrorHandler(log))
	jwt := middleware.RequireJWT(env.auth, users)

	r.GET("/", authH.Home)
	r.POST("/register", authH.Register)
	r.POST("/login", authH.Login)
	r.POST("/google-login", authH.GoogleLogin)
	r.GET("/profile", jwt, authH.GetProfile)
	r.PUT("/profile", jwt, authH.UpdateProfile)
	r.DELETE("/delete-account", jwt, authH.DeleteAccount)

	r.GET("/courses", courseH.ListCourses)
	r.GET("/courses/:id", courseH.GetCourse)
	r.GET("/courses/:id/reviews", courseH.ListReviews)
	r.POST("/courses/:id/reviews", jwt, courseH.CreateReview)
	r.GET("/categories", courseH.ListCategories)

	r.POST("/orders/notification", orderH.HandleNotification)
	r.POST("/orders/checkout", jwt, orderH.Checkout)
	r.GET("/orders/:id", jwt, orderH.GetOrder)
	r.GET("/orders/:id/events", jwt, sseH.OrderStatusEvents)
	r.GET("/ws/v1/orders/:id/stream", jwt, wsH.OrderStatusStream)

	r.POST("/gemini/generate-quiz", geminiH.GenerateQuiz)
	r.GET("/gemini/generate-quiz-kaboom", geminiH.GenerateKaboomQuiz)
	r.POST("/gemini/check-answers", geminiH.CheckAnswers)
	r.POST("/gemini/get-hint", geminiH.GetHint)

	env.engine = r
	return env
}

func (e *testEnv) createUser(email string) (*model.User, string) {
	e.t.Helper()
	u := &model.User{Email: email, Password: "x", FullName: "Test User"}
	if err := e.users.Create(context.Background(), u); err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	token, err := e.auth.GenerateToken(u.ID)
	if err != nil {
		e.t.Fatalf("token: %v", err)
	}
	return u, token
}

func (e *testEnv) createCourse(title string, price int64) *model.Course {
	e.t.Helper()
	ctx := context.Background()
	cat := &model.Category{CatName: "Web", ProgLang: "Go"}
	if err := repository.NewCategoryRepository(e.db).Create(ctx, cat); err != nil {
		e.t.Fatalf("create category: %v", err)
	}
	c := &model.Course{
		Title:         title,
		Price:         price,
		Rating:        4,
		StartDate:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Desc:          "desc",
		DurationHours: 8,
		CategoryID:    cat.ID,
	}
	if err := repository.NewCourseRepository(e.db).Create(ctx, c); err != nil {
		e.t.Fatalf("create course: %v", err)
	}
	return c
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Page       int `json:"page"`
		PerPage    int `json:"perPage"`
		TotalItems int `json:"totalData"`
		TotalPages int `json:"maxPage"`
	} `json:"pagination"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (%s)", w.Code, status, w.Body.String())
	}
	env := decode(t, w)
	if env.Success || env.Error == nil {
		t.Fatalf("expected failure envelope, got %s", w.Body.String())
	}
	if code != "" && env.Error.Code != code {
		t.Fatalf("code = %s, want %s", env.Error.Code, code)
	}
	return env
}
