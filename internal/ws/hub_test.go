package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type savedNotification struct {
	userID uuid.UUID
	event  string
}

type recordingSaver struct {
	mu    sync.Mutex
	saved []savedNotification
	done  chan struct{}
}

func (s *recordingSaver) Record(_ context.Context, userID uuid.UUID, event string, _ any) error {
	s.mu.Lock()
	s.saved = append(s.saved, savedNotification{userID: userID, event: event})
	s.mu.Unlock()
	close(s.done)
	return nil
}

func TestHub_PublishDeliversAndPersists(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saver := &recordingSaver{done: make(chan struct{})}
	hub := NewHub(ctx, saver)
	go hub.Run()

	userID := uuid.New()
	client := NewClient(nil, hub, userID)
	hub.Register(client)

	require.Eventually(t, func() bool { return hub.Online(userID) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(userID, EventAlertMatch, map[string]string{"alert_name": "Parquet"}))

	select {
	case raw := <-client.send:
		var msg struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, EventAlertMatch, msg.Type)
		assert.Equal(t, "Parquet", msg.Data["alert_name"])
	case <-time.After(time.Second):
		t.Fatal("сообщение не доставлено")
	}

	select {
	case <-saver.done:
	case <-time.After(time.Second):
		t.Fatal("уведомление не сохранено")
	}
	saver.mu.Lock()
	defer saver.mu.Unlock()
	assert.Equal(t, userID, saver.saved[0].userID)
	assert.Equal(t, EventAlertMatch, saver.saved[0].event)
}

func TestHub_OtherUsersDoNotReceive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(ctx, nil)
	go hub.Run()

	client := NewClient(nil, hub, uuid.New())
	hub.Register(client)

	require.NoError(t, hub.Publish(uuid.New(), EventOrderCreated, nil))

	select {
	case <-client.send:
		t.Fatal("сообщение доставлено чужому пользователю")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(ctx, nil)
	go hub.Run()

	userID := uuid.New()
	client := NewClient(nil, hub, userID)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.Online(userID) == 1 }, time.Second, 10*time.Millisecond)

	// никто не читает send: после заполнения буфера клиент отключается
	for i := 0; i <= sendBuffer; i++ {
		require.NoError(t, hub.Publish(userID, EventOrderDelivery, i))
	}

	require.Eventually(t, func() bool { return hub.Online(userID) == 0 }, time.Second, 10*time.Millisecond)
	select {
	case <-client.done:
	default:
		t.Fatal("клиент не закрыт")
	}
}

func TestHub_CloseAfterStopDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(ctx, nil)
	go hub.Run()

	client := NewClient(nil, hub, uuid.New())
	hub.Register(client)
	cancel()

	finished := make(chan struct{})
	go func() {
		client.Close()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Close завис после остановки хаба")
	}
}
