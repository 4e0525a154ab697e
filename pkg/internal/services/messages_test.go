package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nebulachat/messaging/pkg/internal/database"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/nebulachat/messaging/pkg/internal/rooms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func useTestDatabase(t *testing.T) {
	t.Helper()

	source, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigration(source))

	database.C = source
	Broker = rooms.NewBroker(rooms.NewLocalPubSub())
}

func createTestChannel(t *testing.T) models.Channel {
	t.Helper()

	channel := models.Channel{
		Alias: fmt.Sprintf("room-%s", uuid.NewString()[:8]),
		Name:  "Room",
	}
	require.NoError(t, database.C.Create(&channel).Error)
	return channel
}

func TestNewMessageKeepsNewestLastMessage(t *testing.T) {
	useTestDatabase(t)
	channel := createTestChannel(t)

	now := time.Now()
	newest := models.Message{
		BaseModel: models.BaseModel{CreatedAt: now},
		Uuid:      uuid.NewString(),
		Body:      "second",
		ChannelID: channel.ID,
		SenderID:  1,
	}
	require.NoError(t, database.C.Create(&newest).Error)
	require.NoError(t, RefreshLastMessage(channel.ID))

	// A slower writer lands after a newer message already committed; the
	// pointer must follow the per-channel timestamp ordering, not whichever
	// update arrived last.
	straggler := models.Message{
		BaseModel: models.BaseModel{CreatedAt: now.Add(-time.Hour)},
		Uuid:      uuid.NewString(),
		Body:      "first",
		ChannelID: channel.ID,
		SenderID:  1,
	}
	_, err := NewMessage(straggler)
	require.NoError(t, err)

	var refreshed models.Channel
	require.NoError(t, database.C.First(&refreshed, channel.ID).Error)
	require.NotNil(t, refreshed.LastMessageID)
	assert.Equal(t, newest.ID, *refreshed.LastMessageID)
}

func TestNewMessageIdempotentOnUuid(t *testing.T) {
	useTestDatabase(t)
	channel := createTestChannel(t)

	message := models.Message{
		Uuid:      uuid.NewString(),
		Body:      "hello",
		ChannelID: channel.ID,
		SenderID:  1,
	}

	first, err := NewMessage(message)
	require.NoError(t, err)

	retry, err := NewMessage(models.Message{
		Uuid:      message.Uuid,
		Body:      "hello",
		ChannelID: channel.ID,
		SenderID:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, retry.ID)

	assert.EqualValues(t, 1, CountMessage(channel))
}

func TestDeleteMessageRecomputesLastMessage(t *testing.T) {
	useTestDatabase(t)
	channel := createTestChannel(t)

	older, err := NewMessage(models.Message{
		BaseModel: models.BaseModel{CreatedAt: time.Now().Add(-time.Minute)},
		Uuid:      uuid.NewString(),
		Body:      "first",
		ChannelID: channel.ID,
		SenderID:  1,
	})
	require.NoError(t, err)

	newest, err := NewMessage(models.Message{
		Uuid:      uuid.NewString(),
		Body:      "second",
		ChannelID: channel.ID,
		SenderID:  1,
	})
	require.NoError(t, err)

	require.NoError(t, DeleteMessage(newest))

	var refreshed models.Channel
	require.NoError(t, database.C.First(&refreshed, channel.ID).Error)
	require.NotNil(t, refreshed.LastMessageID)
	assert.Equal(t, older.ID, *refreshed.LastMessageID)

	require.NoError(t, DeleteMessage(older))

	var emptied models.Channel
	require.NoError(t, database.C.First(&emptied, channel.ID).Error)
	assert.Nil(t, emptied.LastMessageID)
}
