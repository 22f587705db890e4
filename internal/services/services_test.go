package services_test

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/emilythestrangee/community-forum/backend/internal/database"
	"github.com/emilythestrangee/community-forum/backend/internal/models"
	"github.com/emilythestrangee/community-forum/backend/internal/services"
)

// Low bcrypt cost keeps the auth tests fast.
const testBcryptCost = 4

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// fakeMailer records dispatched codes instead of sending them.
type fakeMailer struct {
	sent []sentCode
	fail bool
}

type sentCode struct {
	userID int
	email  string
	code   string
}

func (m *fakeMailer) SendOTP(user *models.User, code string) error {
	if m.fail {
		return fmt.Errorf("%w: failed to send verification code", models.ErrDependency)
	}
	m.sent = append(m.sent, sentCode{userID: user.ID, email: user.Email, code: code})
	return nil
}

func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.sent, "no verification code was sent")
	return m.sent[len(m.sent)-1].code
}

type testEnv struct {
	db         *gorm.DB
	mailer     *fakeMailer
	auth       *services.AuthService
	membership *services.MembershipService
	content    *services.ContentService
	votes      *services.VoteService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	mailer := &fakeMailer{}
	membership := services.NewMembershipService(db)
	return &testEnv{
		db:         db,
		mailer:     mailer,
		auth:       services.NewAuthService(db, mailer, "test-secret", testBcryptCost),
		membership: membership,
		content:    services.NewContentService(db, membership),
		votes:      services.NewVoteService(db, membership, slog.Default()),
	}
}

var userSeq int

// createUser inserts a verified user directly, bypassing the signup flow.
func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	userSeq++
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s%d@example.com", username, userSeq),
		Password: "not-a-real-hash",
		Verified: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func count[T any](t *testing.T, db *gorm.DB, query string, args ...any) int64 {
	t.Helper()
	var model T
	var n int64
	q := db.Model(&model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func reloadUser(t *testing.T, db *gorm.DB, id int) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, id).Error)
	return &user
}
