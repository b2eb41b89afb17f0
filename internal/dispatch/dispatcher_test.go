package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cubanhacks/ticket-bot/internal/observability"
	apperrors "github.com/cubanhacks/ticket-bot/pkg/util"
)

type fakeTransport struct {
	name       string
	textErrs   []error
	imageErr   error
	textCalls  []string
	imageCalls []string
	texts      []string
}

func (f *fakeTransport) Name() string { return f.name }

func (f *fakeTransport) SendText(ctx context.Context, to, body string) error {
	f.textCalls = append(f.textCalls, to)
	f.texts = append(f.texts, body)
	if len(f.textErrs) == 0 {
		return nil
	}
	err := f.textErrs[0]
	f.textErrs = f.textErrs[1:]
	return err
}

func (f *fakeTransport) SendImage(ctx context.Context, to, mediaURL, caption string) error {
	f.imageCalls = append(f.imageCalls, to)
	return f.imageErr
}

func newTestDispatcher(primary, secondary Transport) *Dispatcher {
	d := New(primary, secondary, zap.NewNop(), observability.NewMetrics())
	d.sleep = func(ctx context.Context, _ time.Duration) error { return nil }
	return d
}

func TestSendTextPrimarySucceeds(t *testing.T) {
	primary := &fakeTransport{name: "primary"}
	secondary := &fakeTransport{name: "secondary"}
	d := newTestDispatcher(primary, secondary)

	err := d.SendText(context.Background(), "521234567890", "hola", 3)
	require.NoError(t, err)
	assert.Len(t, primary.textCalls, 1)
	assert.Empty(t, secondary.textCalls)
}

func TestSendTextRetriesThenSucceeds(t *testing.T) {
	boom := errors.New("boom")
	primary := &fakeTransport{name: "primary", textErrs: []error{boom, boom}}
	d := newTestDispatcher(primary, nil)

	err := d.SendText(context.Background(), "18091234567", "hola", 3)
	require.NoError(t, err)
	assert.Len(t, primary.textCalls, 3)
}

func TestSendTextFailsOverToSecondary(t *testing.T) {
	boom := errors.New("boom")
	primary := &fakeTransport{name: "primary", textErrs: []error{boom, boom, boom}}
	secondary := &fakeTransport{name: "secondary"}
	d := newTestDispatcher(primary, secondary)

	err := d.SendText(context.Background(), "18091234567", "hola", 3)
	require.NoError(t, err)
	assert.Len(t, primary.textCalls, 3)
	assert.Len(t, secondary.textCalls, 1)
}

func TestSendTextAllTransportsFail(t *testing.T) {
	boom := errors.New("boom")
	primary := &fakeTransport{name: "primary", textErrs: []error{boom, boom, boom}}
	secondary := &fakeTransport{name: "secondary", textErrs: []error{boom, boom, boom}}
	d := newTestDispatcher(primary, secondary)

	err := d.SendText(context.Background(), "18091234567", "hola", 3)
	require.Error(t, err)
	assert.Equal(t, "TRANSPORT_FAILED", apperrors.ToDomainError(err).Code)
}

func TestSendTextNoTransport(t *testing.T) {
	d := newTestDispatcher(nil, nil)
	err := d.SendText(context.Background(), "18091234567", "hola", 3)
	require.Error(t, err)
	assert.Equal(t, "TRANSPORT_FAILED", apperrors.ToDomainError(err).Code)
}

func TestSendTextSessionDestroyedIsFatal(t *testing.T) {
	secondary := &fakeTransport{name: "secondary", textErrs: []error{ErrSessionDestroyed}}
	d := newTestDispatcher(nil, secondary)

	var hooked error
	d.FatalHook = func(err error) { hooked = err }

	err := d.SendText(context.Background(), "18091234567", "hola", 3)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.True(t, IsFatal(hooked))
	// no retries after a fatal error
	assert.Len(t, secondary.textCalls, 1)
}

func TestSendTextFormatsMexicanNumbers(t *testing.T) {
	primary := &fakeTransport{name: "primary"}
	d := newTestDispatcher(primary, nil)

	require.NoError(t, d.SendText(context.Background(), "+52 1234567890", "hola", 1))
	require.NoError(t, d.SendText(context.Background(), "grupo@g.us", "hola", 1))

	assert.Equal(t, "5211234567890@c.us", primary.textCalls[0])
	assert.Equal(t, "grupo@g.us", primary.textCalls[1])
}

func TestSendImageFallsBackToCaption(t *testing.T) {
	primary := &fakeTransport{name: "primary", imageErr: errors.New("media rejected")}
	d := newTestDispatcher(primary, nil)

	err := d.SendImage(context.Background(), "18091234567", "https://example.com/proof.jpg", "caption text")
	require.NoError(t, err)
	assert.Len(t, primary.imageCalls, 1)
	require.Len(t, primary.texts, 1)
	assert.Equal(t, "caption text", primary.texts[0])
}

func TestSendImageNoRetrySameTransport(t *testing.T) {
	primary := &fakeTransport{name: "primary", imageErr: errors.New("media rejected")}
	d := newTestDispatcher(primary, nil)

	_ = d.SendImage(context.Background(), "18091234567", "https://example.com/proof.jpg", "caption")
	assert.Len(t, primary.imageCalls, 1, "image send must not retry")
}

func TestFormatAddress(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"grupo@g.us", "grupo@g.us"},
		{"5211234567890@c.us", "5211234567890@c.us"},
		{"+1 809 123 4567", "18091234567@c.us"},
		{"521234567890", "5211234567890@c.us"},   // 12-digit Mexico gets trunk 1
		{"5211234567890", "5211234567890@c.us"},  // already 13 digits
		{"584167076994", "584167076994@c.us"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatAddress(tc.in), tc.in)
	}
}
