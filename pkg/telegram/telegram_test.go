package telegram

import (
	"context"
	"errors"
	"microcap-trading/config"
	"microcap-trading/pkg/logger"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type fakeSender struct {
	sent []string
	to   []telebot.Recipient
	err  error
}

func (f *fakeSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.to = append(f.to, to)
	f.sent = append(f.sent, what.(string))
	return &telebot.Message{}, nil
}

func TestNewNotifier_DisabledWithoutToken(t *testing.T) {
	n, err := NewNotifier(&config.TelegramConfig{}, logger.NewNop())
	require.NoError(t, err)
	assert.NoError(t, n.Notify(context.Background(), "hello"))
}

func TestTelegramNotifier_Notify(t *testing.T) {
	cfg := &config.TelegramConfig{ChatID: 42, MaxGlobalRequestPerSecond: 5}

	fake := &fakeSender{}
	n := newTelegramNotifier(cfg, logger.NewNop(), fake)
	require.NoError(t, n.Notify(context.Background(), "2 trades executed"))
	assert.Equal(t, []string{"2 trades executed"}, fake.sent)
	assert.Equal(t, "42", fake.to[0].Recipient())

	failing := newTelegramNotifier(cfg, logger.NewNop(), &fakeSender{err: errors.New("boom")})
	assert.Error(t, failing.Notify(context.Background(), "x"))
}
