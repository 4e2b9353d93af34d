package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/handler"
	"github.com/noah-isme/akademik-api/internal/models"
	"github.com/noah-isme/akademik-api/internal/repository"
	"github.com/noah-isme/akademik-api/internal/service"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func newContractApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:handler_contract?mode=memory&cache=shared&_foreign_keys=on"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	students := repository.NewStudentRepository(db)
	allocator, err := service.NewIdentifierAllocator(service.StrategyCounter, students, repository.NewNIMSequenceRepository(db), zerolog.Nop())
	require.NoError(t, err)

	svc := service.NewStudentService(service.StudentServiceDeps{
		Repo:      students,
		Allocator: allocator,
		Validator: dto.NewValidator(),
	}, zerolog.Nop())

	app := fiber.New()
	handler.NewStudentHandler(svc, nil, zerolog.Nop()).Register(app.Group("/api/v1/students"))
	return app
}

func validateAgainst(t *testing.T, schema *jsonschema.Schema, resp *http.Response) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestStudentContract(t *testing.T) {
	studentSchema := compileSchema(t, "student.schema.json")
	listSchema := compileSchema(t, "student_list.schema.json")
	app := newContractApp(t)

	for _, email := range []string{"budi@example.com", "sari@example.com"} {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]interface{}{
			"name":       "Mahasiswa Baru",
			"email":      email,
			"phone":      "081234567890",
			"birth_date": "2005-06-15",
			"gender":     "male",
			"program":    "sistem_informasi",
			"entry_year": 2025,
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		validateAgainst(t, studentSchema, resp)
	}

	resp := doJSON(t, app, http.MethodGet, "/api/v1/students/2025-20-0002", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	validateAgainst(t, studentSchema, resp)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/students?page_size=1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	validateAgainst(t, listSchema, resp)
}
