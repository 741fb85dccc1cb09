// Package pubsub wraps the Google Cloud Pub/Sub v2 client used by the outbox
// relay.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopic           = errors.New("pubsub orders topic is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// ErrTopicMissing is returned when a configured topic does not exist.
var ErrTopicMissing = errors.New("pubsub topic does not exist")

// Client publishes to topics of one project. Topics are never created here;
// provisioning them is an infrastructure concern.
type Client struct {
	raw       *gcppubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

// NewClient connects and verifies that the orders topic exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	raw, err := gcppubsub.NewClient(ctx, projectID, clientOptions(gcp, cfg)...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	c := newClient(raw, projectID, cfg)
	if err := c.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project_id": projectID,
			"topic":      cfg.OrdersTopic,
			"emulator":   cfg.EmulatorHost != "",
		}), "pubsub client initialized")
	}
	return c, nil
}

func newClient(raw *gcppubsub.Client, projectID string, cfg config.PubSubConfig) *Client {
	return &Client{raw: raw, projectID: projectID, cfg: cfg}
}

func clientOptions(gcp config.GCPConfig, cfg config.PubSubConfig) []option.ClientOption {
	if host := strings.TrimSpace(cfg.EmulatorHost); host != "" {
		return []option.ClientOption{
			option.WithEndpoint(host),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		}
	}
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

// Publisher returns a batching publisher for name, which may be a topic ID or
// a full resource name. The caller must Stop it.
func (c *Client) Publisher(name string) *gcppubsub.Publisher {
	if c == nil || c.raw == nil {
		return nil
	}
	topic := topicResourceName(c.projectID, name)
	if topic == "" {
		return nil
	}
	pub := c.raw.Publisher(topic)
	if c.cfg.BatchDelay > 0 {
		pub.PublishSettings.DelayThreshold = c.cfg.BatchDelay
	}
	if c.cfg.BatchCount > 0 {
		pub.PublishSettings.CountThreshold = c.cfg.BatchCount
	}
	return pub
}

// Ping confirms the orders topic is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return errNotInitialized
	}
	topic := topicResourceName(c.projectID, c.cfg.OrdersTopic)
	if topic == "" {
		return errNoTopic
	}
	_, err := c.raw.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic})
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%w: %s", ErrTopicMissing, topic)
	default:
		return fmt.Errorf("get topic %s: %w", topic, err)
	}
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// topicResourceName expands a bare topic ID to projects/<p>/topics/<id>.
func topicResourceName(projectID, name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ""
	case strings.HasPrefix(name, "projects/") && strings.Contains(name, "/topics/"):
		return name
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ""
	}
	return "projects/" + projectID + "/topics/" + name
}
