package eventbus

import "context"

// Publisher ships serialized domain events. Routing keys have the form
// "<context>.<aggregate>.<event>", for example "jobs.job.created" or
// "billing.subscription.activated".
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}
