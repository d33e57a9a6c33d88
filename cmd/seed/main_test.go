package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technofest/internal/cache"
	"technofest/internal/config"
	"technofest/internal/db"
	"technofest/internal/model"
	"technofest/internal/repository"
	"technofest/internal/service"
	"technofest/internal/store"
)

const eventsYAML = `
- title: Hackathon
  description: Build things overnight
  category: technical
  date: "2099-04-10"
  time: "09:30"
  venue: Lab 1
  registrationLink: https://forms.example/hack
  imageUrl: https://img.example/hack.png
  maxParticipants: 120
- title: Dance Night
  description: Open floor
  category: cultural
  date: "2099-04-11"
  time: "19:00"
  venue: Main Stage
  registrationLink: https://forms.example/dance
  imageUrl: https://img.example/dance.png
`

func TestParseEvents(t *testing.T) {
	inputs, err := parseEvents(strings.NewReader(eventsYAML))
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	assert.Equal(t, "Hackathon", inputs[0].Title)
	assert.Equal(t, "2099-04-10", inputs[0].Date)
	require.NotNil(t, inputs[0].MaxParticipants)
	assert.Equal(t, 120, *inputs[0].MaxParticipants)
	assert.Nil(t, inputs[1].MaxParticipants)
}

func TestParseEvents_Empty(t *testing.T) {
	inputs, err := parseEvents(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, inputs)

	_, err = parseEvents(strings.NewReader("title: [unclosed"))
	assert.Error(t, err)
}

func TestSeedEvents(t *testing.T) {
	mem := store.NewMemory()
	svc := service.NewEventService(repository.NewEventRepository(mem), nil, nil, time.UTC)

	inputs, err := parseEvents(strings.NewReader(eventsYAML))
	require.NoError(t, err)
	inputs = append(inputs, service.EventInput{Title: "Broken"})

	created, failed := seedEvents(context.Background(), svc, inputs)
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, failed)

	snap, err := mem.Once(context.Background(), store.Events)
	require.NoError(t, err)
	require.Equal(t, 2, snap.Len())
	for _, ch := range snap.Children {
		assert.Equal(t, seedActor, ch.Value.String("createdBy"))
	}
}

func TestWriteBackup(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, store.Users, "u1", store.Value{"name": "Ana", "email": "ana@fest.io"}))

	var buf bytes.Buffer
	require.NoError(t, writeBackup(ctx, adminService(mem, time.UTC), &buf))

	var backup model.Backup
	require.NoError(t, json.Unmarshal(buf.Bytes(), &backup))
	assert.Equal(t, "Ana", backup.Users["u1"]["name"])
	assert.Empty(t, backup.Events)
	assert.NotEmpty(t, backup.BackedUpAt)
}

func TestEventsCommand_OpensStoreWithBroker(t *testing.T) {
	t.Setenv("STORE_DRIVER", config.StoreMySQL)
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")

	mem := store.NewMemory()
	var brokers []store.Broker
	orig := openStore
	openStore = func(cfg *config.Config, broker store.Broker) (*db.Backend, error) {
		brokers = append(brokers, broker)
		return &db.Backend{Store: mem}, nil
	}
	t.Cleanup(func() { openStore = orig })

	file := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(file, []byte(eventsYAML), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"events", file})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	require.Len(t, brokers, 1)
	client, ok := brokers[0].(*cache.Client)
	require.True(t, ok, "broker should be the redis client")
	assert.NotNil(t, client)
	assert.Contains(t, out.String(), "created 2 events, 0 failed")

	snap, err := mem.Once(context.Background(), store.Events)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())
}
