package servicebus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

const contentTypeJSON = "application/json"

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// PostEventSender forwards post events to an Azure Service Bus queue or topic.
type PostEventSender struct {
	sender messageSender
	client *azservicebus.Client
}

// NewServiceBusClient authenticates with DefaultAzureCredential against the namespace.
// A bare namespace name is expanded to its servicebus.windows.net host.
func NewServiceBusClient(namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("servicebus: namespace is required")
	}
	if !strings.Contains(namespace, ".") {
		namespace += ".servicebus.windows.net"
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("servicebus: credential: %w", err)
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

func NewPostEventSender(client *azservicebus.Client, queueOrTopic string) (*PostEventSender, error) {
	sender, err := client.NewSender(queueOrTopic, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			WithField("queue", queueOrTopic).
			Error("Error while making new sender service bus.")
		return nil, err
	}
	return &PostEventSender{sender: sender, client: client}, nil
}

var _ repository.IPostEvents = (*PostEventSender)(nil)

func (s *PostEventSender) Publish(ctx context.Context, evt model.PostEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	contentType := contentTypeJSON
	subject := evt.Type
	msg := &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
		ApplicationProperties: map[string]any{
			"provider": evt.Provider,
		},
	}
	if err := s.sender.SendMessage(ctx, msg, nil); err != nil {
		return fmt.Errorf("servicebus: send: %w", err)
	}
	return nil
}

// Close releases the sender and, when owned, the client.
func (s *PostEventSender) Close(ctx context.Context) error {
	err := s.sender.Close(ctx)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while closing sender.")
	}
	if s.client != nil {
		if cerr := s.client.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
