package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintNormalizesPhone(t *testing.T) {
	a := Fingerprint("+52 123-456-7890", "Cuban VIP Mod 7 Dias", "ref-001")
	b := Fingerprint("521234567890", "Cuban VIP Mod 7 Dias", "ref-001")
	assert.Equal(t, a, b)
	assert.Equal(t, "521234567890_cuban vip mod 7 dias_ref-001", a)
}

func TestCheckDetectsDuplicateInsideWindow(t *testing.T) {
	guard := NewGuard(30 * time.Minute)
	base := time.Now()
	guard.now = func() time.Time { return base }

	guard.Record("+521234567890", "Producto X", "ref-1", 345)

	guard.now = func() time.Time { return base.Add(10 * time.Minute) }
	res := guard.Check("52 1234567890", "Producto X", "ref-1")
	require.True(t, res.Duplicate)
	assert.Equal(t, 345, res.PriorTicketID)
	assert.Equal(t, 10, res.ElapsedMinutes)
}

func TestCheckDistinguishesFields(t *testing.T) {
	guard := NewGuard(30 * time.Minute)
	guard.Record("111", "Producto X", "ref-1", 100)

	assert.False(t, guard.Check("111", "Producto Y", "ref-1").Duplicate)
	assert.False(t, guard.Check("111", "Producto X", "ref-2").Duplicate)
	assert.False(t, guard.Check("222", "Producto X", "ref-1").Duplicate)
	assert.True(t, guard.Check("111", "Producto X", "ref-1").Duplicate)
}

func TestCheckExpiresAfterWindow(t *testing.T) {
	guard := NewGuard(30 * time.Minute)
	base := time.Now()
	guard.now = func() time.Time { return base }
	guard.Record("111", "Producto X", "ref-1", 100)

	guard.now = func() time.Time { return base.Add(31 * time.Minute) }
	assert.False(t, guard.Check("111", "Producto X", "ref-1").Duplicate)
	assert.Equal(t, 0, guard.Len())
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	guard := NewGuard(30 * time.Minute)
	base := time.Now()
	guard.now = func() time.Time { return base }
	guard.Record("111", "Producto X", "ref-1", 100)

	guard.now = func() time.Time { return base.Add(20 * time.Minute) }
	guard.Record("222", "Producto Y", "ref-2", 200)

	guard.now = func() time.Time { return base.Add(35 * time.Minute) }
	removed := guard.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, guard.Len())
	assert.True(t, guard.Check("222", "Producto Y", "ref-2").Duplicate)
}
