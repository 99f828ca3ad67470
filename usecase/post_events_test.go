package usecase

import (
	"context"
	"errors"
	"testing"

	"social-relay/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPostEventFanout_DeliversToAllSinks(t *testing.T) {
	failing := &mockEvents{}
	failing.On("Publish", mock.Anything, mock.Anything).Return(errors.New("down"))
	healthy := &mockEvents{}
	healthy.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := NewPostEventFanout(failing, nil, healthy).Publish(context.Background(), model.PostEvent{PostID: "p"})

	assert.EqualError(t, err, "down")
	healthy.AssertNumberOfCalls(t, "Publish", 1)
}

func TestProviderRegistry(t *testing.T) {
	reg := NewProviderRegistry(newMockProvider("twitter", model.ProtocolOAuth1), newMockProvider("linkedin", model.ProtocolOAuth2))

	assert.Equal(t, []string{"linkedin", "twitter"}, reg.Names())
	p, err := reg.Get("Twitter")
	assert.NoError(t, err)
	assert.Equal(t, "twitter", p.Name())
	assert.Equal(t, model.ProtocolOAuth1, reg.Protocol("twitter"))

	_, err = reg.Get("myspace")
	assert.Equal(t, model.KindUnknownProvider, model.KindOf(err))
}
