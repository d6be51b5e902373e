package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"digitbot/internal/models"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []models.Signal
	fail error
}

func (r *recordingSink) Publish(_ context.Context, _ string, sig models.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, sig)
	return r.fail
}

func buySignal() models.Signal {
	s := models.NewBuy(models.Contract{
		Type: models.ContractDigitDiffers, Prediction: 4, Amount: 1, Duration: 5, Symbol: "R_10",
	}, models.StrategyTwinDigit, "Twin digit detected: 44")
	s.ID = "sig-1"
	return *s
}

func TestFanout_DeliversToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	bad := &recordingSink{fail: boom}
	good := &recordingSink{}

	f := NewFanout(NewLogSink(zap.NewNop()), bad, good)
	err := f.Publish(context.Background(), "tok-123456", buySignal())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, bad.got, 1)
	require.Len(t, good.got, 1, "failing sink must not block the rest")
	assert.Equal(t, "sig-1", good.got[0].ID)
}

func TestFanout_NoErrors(t *testing.T) {
	f := NewFanout(&recordingSink{}, &recordingSink{})
	assert.NoError(t, f.Publish(context.Background(), "tok", buySignal()))
	assert.Equal(t, 2, f.Len())
}

type fakeSender struct {
	sent []tgbot.Chattable
}

func (f *fakeSender) Send(c tgbot.Chattable) (tgbot.Message, error) {
	f.sent = append(f.sent, c)
	return tgbot.Message{}, nil
}

func TestTelegramSink_FormatsSignal(t *testing.T) {
	snd := &fakeSender{}
	s := newTelegramSink(snd, 42, 100)

	hedge := models.NewHedge([]models.Contract{
		{Type: models.ContractDigitOver, Prediction: 5, Amount: 1, Duration: 5, Symbol: "R_10"},
		{Type: models.ContractDigitUnder, Prediction: 4, Amount: 1, Duration: 5, Symbol: "R_10"},
	}, models.StrategyHedgeOver5, "No 4 or 5 in last 10 ticks")

	require.NoError(t, s.Publish(context.Background(), "abcdef9876", *hedge))
	require.Len(t, snd.sent, 1)

	msg, ok := snd.sent[0].(tgbot.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "****9876")
	assert.Contains(t, msg.Text, "OVER 5")
	assert.Contains(t, msg.Text, "UNDER 4")
	assert.NotContains(t, msg.Text, "abcdef")
}

func TestTelegramSink_RateLimitHonoursContext(t *testing.T) {
	snd := &fakeSender{}
	s := newTelegramSink(snd, 1, 0.001)

	require.NoError(t, s.Publish(context.Background(), "tok", buySignal()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, s.Publish(ctx, "tok", buySignal()))
	assert.Len(t, snd.sent, 1)
}

type fakeProducer struct {
	key    []byte
	value  interface{}
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, key []byte, value interface{}) error {
	f.key, f.value = key, value
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSink_KeysByToken(t *testing.T) {
	p := &fakeProducer{}
	k := &KafkaSink{p: p}

	require.NoError(t, k.Publish(context.Background(), "client-token", buySignal()))
	assert.Equal(t, []byte("client-token"), p.key)
	sig, ok := p.value.(models.Signal)
	require.True(t, ok)
	assert.Equal(t, models.ActionBuy, sig.Action)

	f := NewFanout(NewLogSink(zap.NewNop()), k)
	require.NoError(t, f.Close())
	assert.True(t, p.closed)
}
