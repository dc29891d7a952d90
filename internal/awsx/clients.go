// Package awsx owns the AWS client lifecycle and the queue/publish adapters
// built on it. Clients are process-wide and lazily initialised: the first
// caller pays the credential/config resolution cost once, every later caller
// shares the same handles.
package awsx

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Clients holds the shared AWS service clients.
type Clients struct {
	region string

	once sync.Once
	err  error

	cfg aws.Config
	sqs *sqs.Client
	sns *sns.Client
	eb  *eventbridge.Client
}

func NewClients(region string) *Clients {
	return &Clients{region: region}
}

// load resolves the AWS configuration exactly once. Errors are sticky: a
// failed resolution fails every subsequent call rather than retrying with
// half-built clients.
func (c *Clients) load(ctx context.Context) error {
	c.once.Do(func() {
		c.cfg, c.err = config.LoadDefaultConfig(ctx, config.WithRegion(c.region))
		if c.err != nil {
			c.err = fmt.Errorf("awsx: load config: %w", c.err)
			return
		}
		c.sqs = sqs.NewFromConfig(c.cfg)
		c.sns = sns.NewFromConfig(c.cfg)
		c.eb = eventbridge.NewFromConfig(c.cfg)
	})
	return c.err
}

// SQS returns the shared SQS client.
func (c *Clients) SQS(ctx context.Context) (*sqs.Client, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c.sqs, nil
}

// SNS returns the shared SNS client.
func (c *Clients) SNS(ctx context.Context) (*sns.Client, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c.sns, nil
}

// EventBridge returns the shared EventBridge client.
func (c *Clients) EventBridge(ctx context.Context) (*eventbridge.Client, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c.eb, nil
}
