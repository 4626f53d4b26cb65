package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTimeInput(t *testing.T) {
	got, err := parseDateTimeInput("25.12.2026 18:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 12, 25, 18, 30, 0, 0, time.UTC), got)

	_, err = parseDateTimeInput("2026-12-25", time.UTC)
	assert.Error(t, err)

	_, err = parseDateTimeInput("tomorrow", time.UTC)
	assert.Error(t, err)

	// Surrounding whitespace is tolerated
	got, err = parseDateTimeInput("  01.02.2027 09:00  ", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour())
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello world", sanitizeInput("  hello\nworld  "))

	long := strings.Repeat("a", 600)
	assert.Len(t, sanitizeInput(long), 500)
}

func TestStatusEmoji(t *testing.T) {
	assert.Equal(t, "⏳", statusEmoji(models.StatusPending))
	assert.Equal(t, "✅", statusEmoji(models.StatusConfirmed))
	assert.Equal(t, "📹", statusEmoji(models.StatusActive))
	assert.Equal(t, "🏁", statusEmoji(models.StatusCompleted))
	assert.Equal(t, "❌", statusEmoji(models.StatusCancelled))
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "300 m away", formatDistance(0.3))
	assert.Equal(t, "2.5 km away", formatDistance(2.5))
}

func TestFormatBookingLine(t *testing.T) {
	booking := &models.Booking{
		ID:              7,
		ScheduledAt:     time.Date(2026, 9, 10, 20, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Amount:          decimal.RequireFromString("100"),
		Currency:        "USD",
		Status:          models.StatusConfirmed,
	}

	line := formatBookingLine(booking)
	assert.Contains(t, line, "Booking #7")
	assert.Contains(t, line, "10.09.2026 20:00")
	assert.Contains(t, line, "100.00 USD")
	assert.True(t, strings.HasPrefix(line, "✅"))
}

func TestRefundCell(t *testing.T) {
	assert.Empty(t, refundCell(&models.Booking{Status: models.StatusConfirmed}))
	assert.Equal(t, "50%", refundCell(&models.Booking{Status: models.StatusCancelled, RefundPercentage: 50}))
}

func TestTimeUntilNextHour(t *testing.T) {
	wait := timeUntilNextHour(9)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, 24*time.Hour)
}
