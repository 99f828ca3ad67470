package servicebus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"social-relay/domain/model"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent    []*azservicebus.Message
	sendErr error
	closed  bool
}

func (f *fakeSender) SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, message)
	return nil
}

func (f *fakeSender) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func TestPostEventSender_Publish(t *testing.T) {
	fake := &fakeSender{}
	s := &PostEventSender{sender: fake}

	evt := model.PostEvent{
		Type:     model.EventPostPublished,
		Provider: "twitter",
		ActorID:  "42",
		PostID:   "1790",
	}
	require.NoError(t, s.Publish(context.Background(), evt))
	require.Len(t, fake.sent, 1)

	msg := fake.sent[0]
	require.NotNil(t, msg.ContentType)
	assert.Equal(t, "application/json", *msg.ContentType)
	require.NotNil(t, msg.Subject)
	assert.Equal(t, model.EventPostPublished, *msg.Subject)
	assert.Equal(t, "twitter", msg.ApplicationProperties["provider"])

	var decoded model.PostEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "1790", decoded.PostID)
	assert.Empty(t, decoded.SessionID)
}

func TestPostEventSender_PublishError(t *testing.T) {
	s := &PostEventSender{sender: &fakeSender{sendErr: errors.New("link detached")}}

	err := s.Publish(context.Background(), model.PostEvent{Provider: "linkedin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link detached")
}

func TestPostEventSender_Close(t *testing.T) {
	fake := &fakeSender{}
	s := &PostEventSender{sender: fake}

	require.NoError(t, s.Close(context.Background()))
	assert.True(t, fake.closed)
}

func TestNewServiceBusClient_RequiresNamespace(t *testing.T) {
	_, err := NewServiceBusClient("")
	assert.Error(t, err)
}
