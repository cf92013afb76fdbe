package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONWithServiceAndComponent(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var buf bytes.Buffer
	Init(Options{Level: "debug", Service: "cocreate", Output: &buf})

	WithComponent("orders").Debug("заказ создан")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cocreate", entry["service"])
	assert.Equal(t, "orders", entry["component"])
	assert.Equal(t, "заказ создан", entry["msg"])
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var buf bytes.Buffer
	Init(Options{Level: "chatty", Format: "text", Output: &buf})

	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
	Log.Debug("не должно попасть в вывод")
	assert.Empty(t, buf.String())
	_, isText := Log.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}
