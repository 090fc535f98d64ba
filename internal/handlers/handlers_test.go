package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskboard/taskboard-api/internal/middleware"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"github.com/taskboard/taskboard-api/internal/services"
	"github.com/taskboard/taskboard-api/internal/storage"
)

// testEnv wires the full stack against an in-memory database and a
// throwaway upload directory, with the same routing as the server binary.
type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *services.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}, &models.TaskAttachment{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		sqlDB.Close()
	})

	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	tokenService := services.NewTokenService("handler-test-secret", time.Hour)
	authService := services.NewAuthService(userRepo, tokenService)
	taskService := services.NewTaskService(taskRepo, userRepo, files)
	userService := services.NewUserService(userRepo, files)
	attachmentService := services.NewAttachmentService(attachmentRepo, files)

	authHandler := NewAuthHandler(authService)
	taskHandler := NewTaskHandler(taskService, attachmentService)
	userHandler := NewUserHandler(userService)

	r := gin.New()
	requireAuth := middleware.RequireAuth(tokenService, userRepo)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", middleware.RequireTaskAccess(taskRepo), taskHandler.GetTask)
			tasks.PUT("/:id", middleware.RequireTaskAccess(taskRepo), middleware.RequireTaskOwner(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(taskRepo), middleware.RequireTaskOwner(), taskHandler.DeleteTask)
			tasks.POST("/:id/attachments", middleware.RequireTaskAccess(taskRepo), middleware.RequireTaskOwner(), taskHandler.UploadAttachments)
			tasks.GET("/:id/attachments/:filename", middleware.RequireTaskAccess(taskRepo), middleware.RequireTaskOwner(), taskHandler.DownloadAttachment)
		}

		users := api.Group("/users")
		users.Use(requireAuth, middleware.RequireAdmin())
		{
			users.GET("", userHandler.ListUsers)
			users.POST("", userHandler.CreateUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}
	}

	return &testEnv{db: db, router: r, tokens: tokenService}
}

func (e *testEnv) createUser(t *testing.T, email, password string, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Email: email, PasswordHash: string(hash), Role: role}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createTask(t *testing.T, creator *models.User, title string, mutate ...func(*models.Task)) *models.Task {
	t.Helper()

	task := &models.Task{
		Title:     title,
		Status:    models.TaskStatusPending,
		Priority:  models.TaskPriorityMedium,
		CreatedBy: creator.ID,
	}
	for _, m := range mutate {
		m(task)
	}
	require.NoError(t, e.db.Create(task).Error)
	return task
}

func (e *testEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := e.tokens.Generate(user.ID)
	require.NoError(t, err)
	return token
}

// request performs a JSON request. A nil body sends no payload; a non-nil
// body is marshalled. An empty token leaves the Authorization header unset.
func (e *testEnv) request(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// upload posts a multipart form to the task's attachment endpoint. Each
// part is declared with the given content type, which is what the server
// validates.
func (e *testEnv) upload(t *testing.T, taskID, token string, files map[string]string, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+taskID+"/attachments", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// envelope mirrors the response wrapper with the data left raw for
// per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()

	env := decode(t, w)
	require.NotNil(t, env.Data)
	require.NoError(t, json.Unmarshal(env.Data, out))
	return env
}
