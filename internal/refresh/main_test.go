package refresh

import (
	"testing"

	"go.uber.org/goleak"
)

// Runs and the scheduler start goroutines; none may outlive its test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
