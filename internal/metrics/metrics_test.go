package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncWebhook("epayco", "confirmed")
		IncUpdate("message")
		IncTransition("confirmed")
		IncRefundTask("completed")
		SetHeldSlots(3)
	})
}

func TestIncPanic(t *testing.T) {
	Register()

	before := testutil.ToFloat64(recoveredPanics)
	IncPanic()
	assert.Equal(t, before+1, testutil.ToFloat64(recoveredPanics))
}
