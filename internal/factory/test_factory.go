package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/mocks"
	"github.com/wmrmrx/MAC0352-EP2/internal/server"
	"github.com/wmrmrx/MAC0352-EP2/internal/services/auth"
	"github.com/wmrmrx/MAC0352-EP2/internal/storage/memory"
	"github.com/wmrmrx/MAC0352-EP2/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App configured for testing: memory storage, a
// mocked clock, cheap hashes and a server on loopback
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	serverCfg := server.DefaultConfig()
	serverCfg.Listener.Host = "127.0.0.1"

	app := newWithDependencies(store, mockClock, auth.Config{BcryptCost: bcrypt.MinCost}, serverCfg, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}
